package cpu

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/valerio/go-chip8/chip8/memory"
)

var (
	ErrStackEmpty    = errors.New("return with empty stack")
	ErrUnknownOpcode = errors.New("unknown opcode")
	ErrPCOutOfRange  = errors.New("program counter past end of memory")
)

// Bus provides access to the address space.
type Bus interface {
	Read(address uint16) (byte, error)
	Write(address uint16, value byte) error
	ReadWord(address uint16) (uint16, error)
	ReadRange(address uint16, length int) ([]byte, error)
}

// Display is the surface DRW and CLS operate on.
type Display interface {
	Clear()
	DrawSprite(x, y uint8, sprite []byte) bool
}

// Keypad is the key state SKP, SKNP and LD Vx, K read.
type Keypad interface {
	IsPressed(key uint8) (bool, error)
	TakeReleased() (uint8, bool)
}

// Random is the source for RND. *rand.Rand satisfies it.
type Random interface {
	Uint32() uint32
}

type globalRandom struct{}

func (globalRandom) Uint32() uint32 { return rand.Uint32() }

// CPU holds the register file, call stack and timers.
type CPU struct {
	v     [16]uint8
	i     uint16
	pc    uint16
	stack []uint16

	delayTimer uint8
	soundTimer uint8

	bus     Bus
	display Display
	keypad  Keypad
	random  Random
}

// New returns a CPU with PC at the program start. A nil random uses the
// process wide generator.
func New(bus Bus, display Display, keypad Keypad, random Random) *CPU {
	if random == nil {
		random = globalRandom{}
	}
	return &CPU{
		pc:      memory.ProgramStart,
		bus:     bus,
		display: display,
		keypad:  keypad,
		random:  random,
	}
}

// Reset zeroes registers, stack and timers and moves PC to the program start.
func (c *CPU) Reset() {
	c.v = [16]uint8{}
	c.i = 0
	c.pc = memory.ProgramStart
	c.stack = nil
	c.delayTimer = 0
	c.soundTimer = 0
}

// Step fetches, decodes and executes the instruction at PC.
func (c *CPU) Step() (Instruction, error) {
	pc := c.pc
	word, err := c.bus.ReadWord(pc)
	if err != nil {
		return Instruction{}, fmt.Errorf("%w: 0x%04X", ErrPCOutOfRange, pc)
	}

	in, ok := Decode(word)
	if !ok {
		return Instruction{}, fmt.Errorf("%w: 0x%04X at 0x%04X", ErrUnknownOpcode, word, pc)
	}

	advance, err := c.Execute(in.Op, in.Args(word))
	if err != nil {
		return in, fmt.Errorf("%s at 0x%04X: %w", Disassemble(word), pc, err)
	}
	if advance {
		c.pc += 2
	}

	return in, nil
}

// DecrementTimers counts both timers down by one, stopping at zero.
func (c *CPU) DecrementTimers() {
	if c.delayTimer > 0 {
		c.delayTimer--
	}
	if c.soundTimer > 0 {
		c.soundTimer--
	}
}

func (c *CPU) V(x uint8) uint8 {
	return c.v[x&0x0F]
}

func (c *CPU) SetV(x uint8, value uint8) {
	c.v[x&0x0F] = value
}

// Registers returns a copy of V0..VF.
func (c *CPU) Registers() [16]uint8 {
	return c.v
}

func (c *CPU) SetRegisters(v [16]uint8) {
	c.v = v
}

func (c *CPU) I() uint16 {
	return c.i
}

func (c *CPU) SetI(value uint16) {
	c.i = value
}

func (c *CPU) PC() uint16 {
	return c.pc
}

func (c *CPU) SetPC(value uint16) {
	c.pc = value
}

// Stack returns a copy of the call stack, bottom first.
func (c *CPU) Stack() []uint16 {
	out := make([]uint16, len(c.stack))
	copy(out, c.stack)
	return out
}

// SetStack replaces the call stack, bottom first.
func (c *CPU) SetStack(stack []uint16) {
	c.stack = append([]uint16(nil), stack...)
}

func (c *CPU) DelayTimer() uint8 {
	return c.delayTimer
}

func (c *CPU) SetDelayTimer(value uint8) {
	c.delayTimer = value
}

func (c *CPU) SoundTimer() uint8 {
	return c.soundTimer
}

func (c *CPU) SetSoundTimer(value uint8) {
	c.soundTimer = value
}

func (c *CPU) push(address uint16) {
	c.stack = append(c.stack, address)
}

func (c *CPU) pop() (uint16, error) {
	if len(c.stack) == 0 {
		return 0, ErrStackEmpty
	}
	top := c.stack[len(c.stack)-1]
	c.stack = c.stack[:len(c.stack)-1]
	return top, nil
}
