package memory

import (
	"errors"
	"fmt"

	"github.com/valerio/go-chip8/chip8/bit"
)

const (
	// Size is the amount of addressable memory.
	Size = 4096
	// ProgramStart is where programs are loaded and where PC starts.
	ProgramStart uint16 = 0x200
	// MaxProgramSize is the largest program that fits above ProgramStart.
	MaxProgramSize = Size - int(ProgramStart)
	// FontStart is the address of the first font glyph.
	FontStart uint16 = 0x000
	// GlyphSize is the number of bytes in a single font glyph.
	GlyphSize = 5
)

var ErrAddressOutOfRange = errors.New("memory address out of range")

// Font holds the 16 hexadecimal glyphs, 5 bytes each.
var Font = [16 * GlyphSize]byte{
	0xF0, 0x90, 0x90, 0x90, 0xF0, // 0
	0x20, 0x60, 0x20, 0x20, 0x70, // 1
	0xF0, 0x10, 0xF0, 0x80, 0xF0, // 2
	0xF0, 0x10, 0xF0, 0x10, 0xF0, // 3
	0x90, 0x90, 0xF0, 0x10, 0x10, // 4
	0xF0, 0x80, 0xF0, 0x10, 0xF0, // 5
	0xF0, 0x80, 0xF0, 0x90, 0xF0, // 6
	0xF0, 0x10, 0x20, 0x40, 0x40, // 7
	0xF0, 0x90, 0xF0, 0x90, 0xF0, // 8
	0xF0, 0x90, 0xF0, 0x10, 0xF0, // 9
	0xF0, 0x90, 0xF0, 0x90, 0x90, // A
	0xE0, 0x90, 0xE0, 0x90, 0xE0, // B
	0xF0, 0x80, 0x80, 0x80, 0xF0, // C
	0xE0, 0x90, 0x90, 0x90, 0xE0, // D
	0xF0, 0x80, 0xF0, 0x80, 0xF0, // E
	0xF0, 0x80, 0xF0, 0x80, 0x80, // F
}

// FreeStart is the first address after the font glyphs.
const FreeStart = FontStart + uint16(len(Font))

// Memory is the 4 KiB address space of the machine. It is not safe for
// concurrent use, the VM serializes access.
type Memory struct {
	data [Size]byte
}

// New creates a memory with the font loaded and everything else zeroed.
func New() *Memory {
	m := &Memory{}
	m.Reset()
	return m
}

// Reset zeroes memory and reloads the font.
func (m *Memory) Reset() {
	m.data = [Size]byte{}
	copy(m.data[FontStart:], Font[:])
}

func checkRange(address uint16, length int) error {
	if int(address)+length > Size {
		return fmt.Errorf("%w: 0x%04X (+%d)", ErrAddressOutOfRange, address, length)
	}
	return nil
}

func (m *Memory) Read(address uint16) (byte, error) {
	if err := checkRange(address, 1); err != nil {
		return 0, err
	}
	return m.data[address], nil
}

func (m *Memory) Write(address uint16, value byte) error {
	if err := checkRange(address, 1); err != nil {
		return err
	}
	m.data[address] = value
	return nil
}

// ReadWord reads the big-endian 16 bit word at address.
func (m *Memory) ReadWord(address uint16) (uint16, error) {
	if err := checkRange(address, 2); err != nil {
		return 0, err
	}
	return bit.Combine(m.data[address], m.data[address+1]), nil
}

// ReadRange returns a copy of length bytes starting at address.
func (m *Memory) ReadRange(address uint16, length int) ([]byte, error) {
	if err := checkRange(address, length); err != nil {
		return nil, err
	}
	out := make([]byte, length)
	copy(out, m.data[address:])
	return out, nil
}

// WriteRange copies data into memory starting at address.
func (m *Memory) WriteRange(address uint16, data []byte) error {
	if err := checkRange(address, len(data)); err != nil {
		return err
	}
	copy(m.data[address:], data)
	return nil
}

// Snapshot returns a copy of the whole address space.
func (m *Memory) Snapshot() []byte {
	out := make([]byte, Size)
	copy(out, m.data[:])
	return out
}

// LoadSnapshot replaces the whole address space. data must be exactly Size bytes.
func (m *Memory) LoadSnapshot(data []byte) error {
	if len(data) != Size {
		return fmt.Errorf("memory snapshot has %d bytes, want %d", len(data), Size)
	}
	copy(m.data[:], data)
	return nil
}
