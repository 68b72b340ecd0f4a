package cpu

import (
	"math/bits"

	"github.com/valerio/go-chip8/chip8/bit"
)

// Op identifies one of the CHIP-8 instructions.
type Op uint8

const (
	OpSYS Op = iota
	OpCLS
	OpRET
	OpJP
	OpCALL
	OpSEByte
	OpSNEByte
	OpSEReg
	OpLDByte
	OpADDByte
	OpLDReg
	OpOR
	OpAND
	OpXOR
	OpADDReg
	OpSUB
	OpSHR
	OpSUBN
	OpSHL
	OpSNEReg
	OpLDI
	OpJPV0
	OpRND
	OpDRW
	OpSKP
	OpSKNP
	OpLDVxDT
	OpLDVxK
	OpLDDTVx
	OpLDSTVx
	OpADDI
	OpLDF
	OpLDB
	OpLDIVx
	OpLDVxI
)

var opNames = [...]string{
	OpSYS:     "SYS",
	OpCLS:     "CLS",
	OpRET:     "RET",
	OpJP:      "JP",
	OpCALL:    "CALL",
	OpSEByte:  "SE",
	OpSNEByte: "SNE",
	OpSEReg:   "SE",
	OpLDByte:  "LD",
	OpADDByte: "ADD",
	OpLDReg:   "LD",
	OpOR:      "OR",
	OpAND:     "AND",
	OpXOR:     "XOR",
	OpADDReg:  "ADD",
	OpSUB:     "SUB",
	OpSHR:     "SHR",
	OpSUBN:    "SUBN",
	OpSHL:     "SHL",
	OpSNEReg:  "SNE",
	OpLDI:     "LD",
	OpJPV0:    "JP",
	OpRND:     "RND",
	OpDRW:     "DRW",
	OpSKP:     "SKP",
	OpSKNP:    "SKNP",
	OpLDVxDT:  "LD",
	OpLDVxK:   "LD",
	OpLDDTVx:  "LD",
	OpLDSTVx:  "LD",
	OpADDI:    "ADD",
	OpLDF:     "LD",
	OpLDB:     "LD",
	OpLDIVx:   "LD",
	OpLDVxI:   "LD",
}

// String returns the mnemonic of the instruction, without operands.
func (o Op) String() string {
	if int(o) < len(opNames) {
		return opNames[o]
	}
	return "???"
}

// Instruction is a single entry of the instruction table. A word matches when
// word&Mask == Pattern, the remaining bits are the operands.
type Instruction struct {
	Op      Op
	Pattern uint16
	Mask    uint16
}

// Matches reports whether word encodes this instruction.
func (in Instruction) Matches(word uint16) bool {
	return word&in.Mask == in.Pattern
}

// Args extracts the operand bits of word.
func (in Instruction) Args(word uint16) Args {
	return Args(word & ^in.Mask)
}

var instructions = [...]Instruction{
	{OpSYS, 0x0000, 0xF000},
	{OpCLS, 0x00E0, 0xFFFF},
	{OpRET, 0x00EE, 0xFFFF},
	{OpJP, 0x1000, 0xF000},
	{OpCALL, 0x2000, 0xF000},
	{OpSEByte, 0x3000, 0xF000},
	{OpSNEByte, 0x4000, 0xF000},
	{OpSEReg, 0x5000, 0xF00F},
	{OpLDByte, 0x6000, 0xF000},
	{OpADDByte, 0x7000, 0xF000},
	{OpLDReg, 0x8000, 0xF00F},
	{OpOR, 0x8001, 0xF00F},
	{OpAND, 0x8002, 0xF00F},
	{OpXOR, 0x8003, 0xF00F},
	{OpADDReg, 0x8004, 0xF00F},
	{OpSUB, 0x8005, 0xF00F},
	{OpSHR, 0x8006, 0xF00F},
	{OpSUBN, 0x8007, 0xF00F},
	{OpSHL, 0x800E, 0xF00F},
	{OpSNEReg, 0x9000, 0xF00F},
	{OpLDI, 0xA000, 0xF000},
	{OpJPV0, 0xB000, 0xF000},
	{OpRND, 0xC000, 0xF000},
	{OpDRW, 0xD000, 0xF000},
	{OpSKP, 0xE09E, 0xF0FF},
	{OpSKNP, 0xE0A1, 0xF0FF},
	{OpLDVxDT, 0xF007, 0xF0FF},
	{OpLDVxK, 0xF00A, 0xF0FF},
	{OpLDDTVx, 0xF015, 0xF0FF},
	{OpLDSTVx, 0xF018, 0xF0FF},
	{OpADDI, 0xF01E, 0xF0FF},
	{OpLDF, 0xF029, 0xF0FF},
	{OpLDB, 0xF033, 0xF0FF},
	{OpLDIVx, 0xF055, 0xF0FF},
	{OpLDVxI, 0xF065, 0xF0FF},
}

// Instructions returns a copy of the instruction table.
func Instructions() []Instruction {
	out := make([]Instruction, len(instructions))
	copy(out, instructions[:])
	return out
}

// Decode finds the instruction encoded by word. When several entries match
// (SYS overlaps CLS and RET) the one with the most specific mask wins.
// The all-zero word is never an instruction.
func Decode(word uint16) (Instruction, bool) {
	if word == 0x0000 {
		return Instruction{}, false
	}

	best := -1
	bestBits := -1
	for i, in := range instructions {
		if !in.Matches(word) {
			continue
		}
		if n := bits.OnesCount16(in.Mask); n > bestBits {
			best, bestBits = i, n
		}
	}

	if best < 0 {
		return Instruction{}, false
	}
	return instructions[best], true
}

// Args holds the operand bits of an instruction word.
type Args uint16

func (a Args) X() uint8 {
	return bit.Nibble(uint16(a), 2)
}

func (a Args) Y() uint8 {
	return bit.Nibble(uint16(a), 1)
}

func (a Args) N() uint8 {
	return bit.Nibble(uint16(a), 0)
}

func (a Args) NN() uint8 {
	return bit.Low(uint16(a))
}

func (a Args) NNN() uint16 {
	return uint16(a) & 0x0FFF
}
