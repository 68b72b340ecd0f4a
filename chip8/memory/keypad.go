package memory

import (
	"errors"
	"fmt"

	"github.com/valerio/go-chip8/chip8/bit"
)

// KeyCount is the number of keys on the hexadecimal keypad.
const KeyCount = 16

var ErrInvalidKey = errors.New("invalid key")

// Keypad tracks the 16 key hexadecimal keypad as a bitmask, plus the most
// recently released key which LD Vx, K consumes.
type Keypad struct {
	pressed     uint16
	released    uint8
	hasReleased bool
}

func NewKeypad() *Keypad {
	return &Keypad{}
}

func checkKey(key uint8) error {
	if key >= KeyCount {
		return fmt.Errorf("%w: 0x%X", ErrInvalidKey, key)
	}
	return nil
}

// Press marks key as held down and forgets any pending release.
func (k *Keypad) Press(key uint8) error {
	if err := checkKey(key); err != nil {
		return err
	}
	k.pressed = bit.Set16(uint16(key), k.pressed)
	k.released = 0
	k.hasReleased = false
	return nil
}

// Release marks key as up and records it as the last released key.
func (k *Keypad) Release(key uint8) error {
	if err := checkKey(key); err != nil {
		return err
	}
	k.pressed = bit.Clear16(uint16(key), k.pressed)
	k.released = key
	k.hasReleased = true
	return nil
}

// IsPressed reports whether key is currently held down.
func (k *Keypad) IsPressed(key uint8) (bool, error) {
	if err := checkKey(key); err != nil {
		return false, err
	}
	return bit.IsSet16(uint16(key), k.pressed), nil
}

// TakeReleased returns the last released key and clears the slot.
func (k *Keypad) TakeReleased() (uint8, bool) {
	if !k.hasReleased {
		return 0, false
	}
	key := k.released
	k.released = 0
	k.hasReleased = false
	return key, true
}

// Mask returns the pressed keys, bit n set when key n is down.
func (k *Keypad) Mask() uint16 {
	return k.pressed
}

func (k *Keypad) Reset() {
	*k = Keypad{}
}
