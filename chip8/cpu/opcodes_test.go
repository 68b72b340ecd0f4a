package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valerio/go-chip8/chip8/memory"
	"github.com/valerio/go-chip8/chip8/video"
)

func (m *testMachine) exec(t *testing.T, op Op, args uint16) bool {
	t.Helper()
	advance, err := m.cpu.Execute(op, Args(args))
	require.NoError(t, err)
	return advance
}

func TestControlFlow(t *testing.T) {
	t.Run("RET with empty stack", func(t *testing.T) {
		m := newTestMachine()
		_, err := m.cpu.Execute(OpRET, 0)
		assert.ErrorIs(t, err, ErrStackEmpty)
	})

	t.Run("RET pops into PC", func(t *testing.T) {
		m := newTestMachine()
		m.cpu.SetStack([]uint16{0x0FFF})
		assert.False(t, m.exec(t, OpRET, 0))
		assert.Equal(t, uint16(0x0FFF), m.cpu.PC())
		assert.Empty(t, m.cpu.Stack())
	})

	t.Run("JP", func(t *testing.T) {
		m := newTestMachine()
		assert.False(t, m.exec(t, OpJP, 0xFFFF))
		assert.Equal(t, uint16(0x0FFF), m.cpu.PC())
	})

	t.Run("CALL pushes the next instruction", func(t *testing.T) {
		m := newTestMachine()
		assert.False(t, m.exec(t, OpCALL, 0xFFFF))
		assert.Equal(t, uint16(0x0FFF), m.cpu.PC())
		assert.Equal(t, []uint16{514}, m.cpu.Stack())
	})

	t.Run("CALL then RET", func(t *testing.T) {
		m := newTestMachine()
		m.exec(t, OpCALL, 0x0FFF)
		m.exec(t, OpRET, 0)
		assert.Equal(t, memory.ProgramStart+2, m.cpu.PC())
	})

	t.Run("JP V0", func(t *testing.T) {
		m := newTestMachine()
		m.cpu.SetV(0, 0xF)
		assert.False(t, m.exec(t, OpJPV0, 0x0ABC))
		assert.Equal(t, uint16(0x0ACB), m.cpu.PC())
	})

	t.Run("SYS is ignored", func(t *testing.T) {
		m := newTestMachine()
		assert.True(t, m.exec(t, OpSYS, 0x0123))
		assert.Equal(t, memory.ProgramStart, m.cpu.PC())
	})
}

func TestSkips(t *testing.T) {
	tests := []struct {
		name        string
		op          Op
		args        uint16
		vx, vy      uint8
		wantAdvance bool
		wantPC      uint16
	}{
		{"SE byte no skip", OpSEByte, 0x01FF, 0x00, 0, true, 512},
		{"SE byte skip", OpSEByte, 0x01FF, 0xFF, 0, false, 516},
		{"SNE byte skip", OpSNEByte, 0x01FF, 0x00, 0, false, 516},
		{"SNE byte no skip", OpSNEByte, 0x01FF, 0xFF, 0, true, 512},
		{"SE reg no skip", OpSEReg, 0x0120, 1, 2, true, 512},
		{"SE reg skip", OpSEReg, 0x0120, 2, 2, false, 516},
		{"SNE reg skip", OpSNEReg, 0x0120, 1, 2, false, 516},
		{"SNE reg no skip", OpSNEReg, 0x0120, 2, 2, true, 512},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestMachine()
			m.cpu.SetV(1, tt.vx)
			m.cpu.SetV(2, tt.vy)

			assert.Equal(t, tt.wantAdvance, m.exec(t, tt.op, tt.args))
			assert.Equal(t, tt.wantPC, m.cpu.PC())
		})
	}
}

func TestLoadsAndAdds(t *testing.T) {
	m := newTestMachine()

	assert.True(t, m.exec(t, OpLDByte, 0x01AB))
	assert.Equal(t, uint8(0xAB), m.cpu.V(1))

	assert.True(t, m.exec(t, OpADDByte, 0x0160))
	assert.Equal(t, uint8(0x0B), m.cpu.V(1), "ADD byte wraps")
	assert.Equal(t, uint8(0), m.cpu.V(0xF), "ADD byte sets no flag")

	assert.True(t, m.exec(t, OpLDReg, 0x0210))
	assert.Equal(t, uint8(0x0B), m.cpu.V(2))

	assert.True(t, m.exec(t, OpLDI, 0xFABC))
	assert.Equal(t, uint16(0x0ABC), m.cpu.I())
}

func TestLogicClearsFlag(t *testing.T) {
	tests := []struct {
		name     string
		op       Op
		x        uint8
		vx, v1   uint8
		expected uint8
		flag     uint8
	}{
		{"OR", OpOR, 0xA, 0xF0, 0x0F, 0xFF, 0},
		{"AND", OpAND, 0xA, 0xF8, 0x1F, 0x18, 0},
		{"XOR", OpXOR, 0xA, 0xFF, 0x0F, 0xF0, 0},
		{"OR into VF", OpOR, 0xF, 0xF0, 0x0F, 0xFF, 0xFF},
		{"AND into VF", OpAND, 0xF, 0xF8, 0x1F, 0x18, 0x18},
		{"XOR into VF", OpXOR, 0xF, 0xFF, 0x0F, 0xF0, 0xF0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestMachine()
			m.cpu.SetV(0xF, 1)
			m.cpu.SetV(tt.x, tt.vx)
			m.cpu.SetV(1, tt.v1)

			assert.True(t, m.exec(t, tt.op, uint16(tt.x)<<8|0x10))
			assert.Equal(t, tt.expected, m.cpu.V(tt.x))
			assert.Equal(t, tt.flag, m.cpu.V(0xF))
		})
	}
}

func TestArithmetic(t *testing.T) {
	tests := []struct {
		name       string
		op         Op
		x          uint8
		vx, v1     uint8
		wantResult uint8
		wantFlag   uint8
	}{
		{"ADD overflow", OpADDReg, 0xA, 255, 50, 49, 1},
		{"ADD no overflow", OpADDReg, 0xA, 100, 50, 150, 0},
		{"ADD into VF overflow", OpADDReg, 0xF, 255, 50, 1, 1},
		{"ADD into VF no overflow", OpADDReg, 0xF, 100, 50, 0, 0},
		{"SUB no underflow", OpSUB, 0xA, 100, 10, 90, 1},
		{"SUB underflow", OpSUB, 0xA, 20, 50, 226, 0},
		{"SUB equal", OpSUB, 0xA, 50, 50, 0, 0},
		{"SUB into VF", OpSUB, 0xF, 100, 10, 1, 1},
		{"SUBN no underflow", OpSUBN, 0xA, 20, 50, 30, 1},
		{"SUBN underflow", OpSUBN, 0xA, 100, 50, 206, 0},
		{"SUBN equal", OpSUBN, 0xA, 50, 50, 0, 0},
		{"SHR", OpSHR, 0xA, 0xFF, 2, 1, 0},
		{"SHR carry", OpSHR, 0xA, 0xFF, 1, 0, 1},
		{"SHR into VF", OpSHR, 0xF, 0xFF, 2, 0, 0},
		{"SHR into VF carry", OpSHR, 0xF, 0xFF, 1, 1, 1},
		{"SHL", OpSHL, 0xA, 0xFF, 2, 4, 0},
		{"SHL carry", OpSHL, 0xA, 0xFF, 0x80, 0, 1},
		{"SHL into VF carry", OpSHL, 0xF, 0xFF, 0x81, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestMachine()
			m.cpu.SetV(tt.x, tt.vx)
			m.cpu.SetV(1, tt.v1)

			assert.True(t, m.exec(t, tt.op, uint16(tt.x)<<8|0x10))
			if tt.x != 0xF {
				assert.Equal(t, tt.wantResult, m.cpu.V(tt.x), "result")
			}
			assert.Equal(t, tt.wantFlag, m.cpu.V(0xF), "flag")
		})
	}
}

func TestADDAllRegisters(t *testing.T) {
	for x := uint8(0); x < 0xF; x++ {
		for _, vy := range []uint8{0, 1, 127, 200, 255} {
			m := newTestMachine()
			y := (x + 1) % 0xF
			m.cpu.SetV(x, 200)
			m.cpu.SetV(y, vy)

			m.exec(t, OpADDReg, uint16(x)<<8|uint16(y)<<4)

			sum := 200 + int(vy)
			assert.Equal(t, uint8(sum%256), m.cpu.V(x))
			assert.Equal(t, sum > 255, m.cpu.V(0xF) == 1, "V%X + %d", x, vy)
		}
	}
}

func TestRND(t *testing.T) {
	m := newTestMachine()
	for n := 0; n < 255; n++ {
		assert.True(t, m.exec(t, OpRND, 0x010F))
		assert.LessOrEqual(t, m.cpu.V(1), uint8(0x0F))
	}
}

func TestDRW(t *testing.T) {
	sprite := memory.FreeStart + 1

	t.Run("draw then erase", func(t *testing.T) {
		m := newTestMachine()
		require.NoError(t, m.mem.Write(sprite, 0xFF))
		m.cpu.SetI(sprite)

		assert.True(t, m.exec(t, OpDRW, 0x0121))
		for x := 0; x < 8; x++ {
			assert.True(t, m.surface.Get(x, 0))
		}
		assert.Equal(t, 8, m.surface.Lit())
		assert.Equal(t, uint8(0), m.cpu.V(0xF))

		m.exec(t, OpDRW, 0x0121)
		assert.Equal(t, 0, m.surface.Lit())
		assert.Equal(t, uint8(1), m.cpu.V(0xF))
	})

	t.Run("wraps start", func(t *testing.T) {
		m := newTestMachine()
		require.NoError(t, m.mem.Write(sprite, 0xFF))
		m.cpu.SetI(sprite)
		m.cpu.SetV(1, 64)

		m.exec(t, OpDRW, 0x0121)
		for x := 0; x < 8; x++ {
			assert.True(t, m.surface.Get(x, 0))
		}
	})

	t.Run("clips at edge", func(t *testing.T) {
		m := newTestMachine()
		require.NoError(t, m.mem.Write(sprite, 0xFF))
		m.cpu.SetI(sprite)
		m.cpu.SetV(1, 62)

		m.exec(t, OpDRW, 0x0121)
		assert.Equal(t, 2, m.surface.Lit())
		assert.True(t, m.surface.Get(62, 0))
		assert.True(t, m.surface.Get(63, 0))
	})

	t.Run("sprite past memory end", func(t *testing.T) {
		m := newTestMachine()
		m.cpu.SetI(memory.Size - 2)
		_, err := m.cpu.Execute(OpDRW, 0x0125)
		assert.ErrorIs(t, err, memory.ErrAddressOutOfRange)
	})

	t.Run("CLS", func(t *testing.T) {
		m := newTestMachine()
		m.surface.Set(3, 3, true)
		assert.True(t, m.exec(t, OpCLS, 0))
		assert.Equal(t, video.NewSurface(), m.surface)
	})
}

func TestKeySkips(t *testing.T) {
	tests := []struct {
		name    string
		op      Op
		pressed bool
		wantPC  uint16
	}{
		{"SKP pressed", OpSKP, true, 516},
		{"SKP not pressed", OpSKP, false, 514},
		{"SKNP pressed", OpSKNP, true, 514},
		{"SKNP not pressed", OpSKNP, false, 516},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestMachine()
			m.cpu.SetV(1, 0xA)
			if tt.pressed {
				require.NoError(t, m.keypad.Press(0xA))
			}

			assert.False(t, m.exec(t, tt.op, 0x0100))
			assert.Equal(t, tt.wantPC, m.cpu.PC())
		})
	}

	t.Run("invalid key", func(t *testing.T) {
		m := newTestMachine()
		m.cpu.SetV(1, 0x10)
		_, err := m.cpu.Execute(OpSKP, 0x0100)
		assert.ErrorIs(t, err, memory.ErrInvalidKey)
	})
}

func TestWaitForKey(t *testing.T) {
	m := newTestMachine()

	assert.False(t, m.exec(t, OpLDVxK, 0x0100))
	assert.Equal(t, memory.ProgramStart, m.cpu.PC(), "stalls without a release")

	require.NoError(t, m.keypad.Press(2))
	assert.False(t, m.exec(t, OpLDVxK, 0x0100))
	assert.Equal(t, memory.ProgramStart, m.cpu.PC(), "a press alone does not count")

	require.NoError(t, m.keypad.Release(2))
	assert.False(t, m.exec(t, OpLDVxK, 0x0100))
	assert.Equal(t, uint8(2), m.cpu.V(1))
	assert.Equal(t, uint16(514), m.cpu.PC())

	_, ok := m.keypad.TakeReleased()
	assert.False(t, ok, "release is consumed once")
}

func TestTimerLoads(t *testing.T) {
	m := newTestMachine()
	m.cpu.SetV(1, 30)

	assert.True(t, m.exec(t, OpLDDTVx, 0x0100))
	assert.True(t, m.exec(t, OpLDSTVx, 0x0100))
	assert.Equal(t, uint8(30), m.cpu.DelayTimer())
	assert.Equal(t, uint8(30), m.cpu.SoundTimer())

	m.cpu.DecrementTimers()
	assert.True(t, m.exec(t, OpLDVxDT, 0x0200))
	assert.Equal(t, uint8(29), m.cpu.V(2))
}

func TestADDI(t *testing.T) {
	tests := []struct {
		name     string
		i        uint16
		vx       uint8
		wantI    uint16
		wantFlag uint8
	}{
		{"overflow", 0x0FFF, 0xFF, 0x10FE, 1},
		{"no overflow", 0x000F, 0x0F, 0x001E, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestMachine()
			m.cpu.SetI(tt.i)
			m.cpu.SetV(1, tt.vx)

			assert.True(t, m.exec(t, OpADDI, 0x0100))
			assert.Equal(t, tt.wantI, m.cpu.I())
			assert.Equal(t, tt.wantFlag, m.cpu.V(0xF))
		})
	}
}

func TestLDF(t *testing.T) {
	m := newTestMachine()
	m.cpu.SetV(1, 2)

	assert.True(t, m.exec(t, OpLDF, 0x0100))
	assert.Equal(t, uint16(10), m.cpu.I())
}

func TestLDB(t *testing.T) {
	m := newTestMachine()
	m.cpu.SetV(1, 254)
	m.cpu.SetI(0x300)

	assert.True(t, m.exec(t, OpLDB, 0x0100))
	digits, err := m.mem.ReadRange(0x300, 3)
	require.NoError(t, err)
	assert.Equal(t, []byte{2, 5, 4}, digits)

	m.cpu.SetI(memory.Size - 2)
	_, err = m.cpu.Execute(OpLDB, 0x0100)
	assert.ErrorIs(t, err, memory.ErrAddressOutOfRange)
	last, _ := m.mem.Read(memory.Size - 2)
	assert.Equal(t, byte(0), last, "nothing written on failure")
}

func TestRegisterBlocks(t *testing.T) {
	m := newTestMachine()
	for x := uint8(0); x <= 3; x++ {
		m.cpu.SetV(x, 0x10+x)
	}
	m.cpu.SetI(0x300)

	assert.True(t, m.exec(t, OpLDIVx, 0x0300))
	stored, err := m.mem.ReadRange(0x300, 5)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x10, 0x11, 0x12, 0x13, 0x00}, stored)
	assert.Equal(t, uint16(0x304), m.cpu.I())

	m.cpu.SetRegisters([16]uint8{})
	m.cpu.SetI(0x300)
	assert.True(t, m.exec(t, OpLDVxI, 0x0200))
	assert.Equal(t, uint8(0x10), m.cpu.V(0))
	assert.Equal(t, uint8(0x12), m.cpu.V(2))
	assert.Equal(t, uint8(0x00), m.cpu.V(3), "only V0..VX are loaded")
	assert.Equal(t, uint16(0x303), m.cpu.I())

	m.cpu.SetI(memory.Size - 1)
	_, err = m.cpu.Execute(OpLDVxI, 0x0100)
	assert.ErrorIs(t, err, memory.ErrAddressOutOfRange)
	_, err = m.cpu.Execute(OpLDIVx, 0x0100)
	assert.ErrorIs(t, err, memory.ErrAddressOutOfRange)
}
