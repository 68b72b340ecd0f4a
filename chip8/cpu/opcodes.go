package cpu

import (
	"fmt"

	"github.com/valerio/go-chip8/chip8/bit"
	"github.com/valerio/go-chip8/chip8/memory"
)

const flag = 0xF

// Execute runs a single instruction with the given operands. It reports
// whether PC should then be advanced by one instruction; instructions that
// move PC themselves return false.
func (c *CPU) Execute(op Op, args Args) (bool, error) {
	x, y := args.X(), args.Y()

	switch op {
	case OpSYS:
		// machine code routines are not supported, the call is ignored
		return true, nil

	case OpCLS:
		c.display.Clear()
		return true, nil

	case OpRET:
		addr, err := c.pop()
		if err != nil {
			return false, err
		}
		c.pc = addr
		return false, nil

	case OpJP:
		c.pc = args.NNN()
		return false, nil

	case OpCALL:
		c.push(c.pc + 2)
		c.pc = args.NNN()
		return false, nil

	case OpSEByte:
		return c.skipIf(c.v[x] == args.NN()), nil

	case OpSNEByte:
		return c.skipIf(c.v[x] != args.NN()), nil

	case OpSEReg:
		return c.skipIf(c.v[x] == c.v[y]), nil

	case OpSNEReg:
		return c.skipIf(c.v[x] != c.v[y]), nil

	case OpLDByte:
		c.v[x] = args.NN()
		return true, nil

	case OpADDByte:
		c.v[x] += args.NN()
		return true, nil

	case OpLDReg:
		c.v[x] = c.v[y]
		return true, nil

	// VF is cleared before the result is stored, so the result wins for X = F.
	case OpOR:
		result := c.v[x] | c.v[y]
		c.v[flag] = 0
		c.v[x] = result
		return true, nil

	case OpAND:
		result := c.v[x] & c.v[y]
		c.v[flag] = 0
		c.v[x] = result
		return true, nil

	case OpXOR:
		result := c.v[x] ^ c.v[y]
		c.v[flag] = 0
		c.v[x] = result
		return true, nil

	// Arithmetic and shifts store the result first and the flag last.
	case OpADDReg:
		result, carry := bit.CheckedAdd(c.v[x], c.v[y])
		c.setWithFlag(x, result, carry)
		return true, nil

	case OpSUB:
		result, borrow := bit.CheckedSub(c.v[x], c.v[y])
		c.setWithFlag(x, result, !borrow && result != 0)
		return true, nil

	case OpSUBN:
		result, borrow := bit.CheckedSub(c.v[y], c.v[x])
		c.setWithFlag(x, result, !borrow && result != 0)
		return true, nil

	case OpSHR:
		source := c.v[y]
		c.setWithFlag(x, source>>1, bit.IsSet(0, source))
		return true, nil

	case OpSHL:
		source := c.v[y]
		c.setWithFlag(x, source<<1, bit.IsSet(7, source))
		return true, nil

	case OpLDI:
		c.i = args.NNN()
		return true, nil

	case OpJPV0:
		c.pc = args.NNN() + uint16(c.v[0])
		return false, nil

	case OpRND:
		c.v[x] = uint8(c.random.Uint32()) & args.NN()
		return true, nil

	case OpDRW:
		c.v[flag] = 0
		sprite, err := c.bus.ReadRange(c.i, int(args.N()))
		if err != nil {
			return false, err
		}
		if c.display.DrawSprite(c.v[x], c.v[y], sprite) {
			c.v[flag] = 1
		}
		return true, nil

	case OpSKP, OpSKNP:
		pressed, err := c.keypad.IsPressed(c.v[x])
		if err != nil {
			return false, err
		}
		if op == OpSKNP {
			pressed = !pressed
		}
		if pressed {
			c.pc += 4
		} else {
			c.pc += 2
		}
		return false, nil

	case OpLDVxDT:
		c.v[x] = c.delayTimer
		return true, nil

	case OpLDVxK:
		key, ok := c.keypad.TakeReleased()
		if !ok {
			return false, nil
		}
		c.v[x] = key
		c.pc += 2
		return false, nil

	case OpLDDTVx:
		c.delayTimer = c.v[x]
		return true, nil

	case OpLDSTVx:
		c.soundTimer = c.v[x]
		return true, nil

	case OpADDI:
		c.i += uint16(c.v[x])
		if c.i&0xF000 != 0 {
			c.v[flag] = 1
		}
		return true, nil

	case OpLDF:
		c.i = uint16(c.v[x]) * memory.GlyphSize
		return true, nil

	case OpLDB:
		if err := c.checkBlock(3); err != nil {
			return false, err
		}
		value := c.v[x]
		digits := []byte{value / 100, (value / 10) % 10, value % 10}
		for n, d := range digits {
			if err := c.bus.Write(c.i+uint16(n), d); err != nil {
				return false, err
			}
		}
		return true, nil

	case OpLDIVx:
		if err := c.checkBlock(int(x) + 1); err != nil {
			return false, err
		}
		for n := uint8(0); n <= x; n++ {
			if err := c.bus.Write(c.i+uint16(n), c.v[n]); err != nil {
				return false, err
			}
		}
		c.i += uint16(x) + 1
		return true, nil

	case OpLDVxI:
		block, err := c.bus.ReadRange(c.i, int(x)+1)
		if err != nil {
			return false, err
		}
		copy(c.v[:], block)
		c.i += uint16(x) + 1
		return true, nil
	}

	return false, fmt.Errorf("%w: op %d", ErrUnknownOpcode, op)
}

// skipIf jumps over the next instruction when cond holds. It reports whether
// the dispatcher still has to advance PC.
func (c *CPU) skipIf(cond bool) bool {
	if cond {
		c.pc += 4
		return false
	}
	return true
}

// checkBlock validates [I, I+length) before a multi byte write, so a failing
// instruction leaves memory untouched.
func (c *CPU) checkBlock(length int) error {
	_, err := c.bus.ReadRange(c.i, length)
	return err
}

func (c *CPU) setWithFlag(x uint8, result uint8, set bool) {
	c.v[x] = result
	if set {
		c.v[flag] = 1
	} else {
		c.v[flag] = 0
	}
}
