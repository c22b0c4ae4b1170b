package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/valerio/go-dmg/dmg/addr"
	"github.com/valerio/go-dmg/dmg/interrupt"
)

func TestJoypadSelection(t *testing.T) {
	j := NewJoypad()
	j.Press(ButtonA)
	j.Press(ButtonDown)

	tests := []struct {
		name string
		sel  byte
		want byte
	}{
		{"nothing selected", 0x30, 0xFF},
		{"buttons", 0x10, 0xDE},
		{"d-pad", 0x20, 0xE7},
		{"both", 0x00, 0xC6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			j.Write(tt.sel)
			assert.Equal(t, tt.want, j.Read())
		})
	}
}

func TestJoypadInterruptOnPress(t *testing.T) {
	m := NewWithoutCartridge()
	m.Write(addr.P1, 0x10)

	m.Press(ButtonStart)
	assert.Equal(t, uint8(0xE0|1<<interrupt.Joypad), m.Read(addr.IF))
	assert.Equal(t, byte(0xD7), m.Read(addr.P1))

	// holding the button doesn't fire again
	m.Write(addr.IF, 0)
	m.Press(ButtonStart)
	assert.Equal(t, uint8(0xE0), m.Read(addr.IF))

	m.Release(ButtonStart)
	assert.Equal(t, byte(0xDF), m.Read(addr.P1))
	assert.Equal(t, uint8(0xE0), m.Read(addr.IF))
}
