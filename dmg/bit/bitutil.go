// Package bit has the small bit twiddling helpers shared by the CPU, the
// bus and the PPU. Indices count from 0, the least significant bit.
package bit

// Combine builds a 16 bit word out of its two bytes.
func Combine(high, low uint8) uint16 {
	return uint16(high)<<8 | uint16(low)
}

// High returns the most significant byte of value.
func High(value uint16) uint8 {
	return uint8(value >> 8)
}

// Low returns the least significant byte of value.
func Low(value uint16) uint8 {
	return uint8(value)
}

// IsSet reports whether bit index of value is 1.
func IsSet(index, value uint8) bool {
	return value&(1<<index) != 0
}

// IsSet16 is IsSet for words, used on the timer's internal counter.
func IsSet16(index, value uint16) bool {
	return value&(1<<index) != 0
}

// Value returns bit index of value as 0 or 1.
func Value(index, value uint8) uint8 {
	return value >> index & 1
}

func Set(index, value uint8) uint8 {
	return value | 1<<index
}

func Clear(index, value uint8) uint8 {
	return value &^ (1 << index)
}

// SetTo sets bit index when on is true and clears it otherwise.
func SetTo(index, value uint8, on bool) uint8 {
	if on {
		return Set(index, value)
	}
	return Clear(index, value)
}
