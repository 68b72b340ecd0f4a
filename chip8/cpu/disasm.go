package cpu

import "fmt"

// Disassemble renders word as assembly, e.g. "LD V1, 0x0A" or "DRW V0, V1, 5".
// Words that are not instructions render as a data directive.
func Disassemble(word uint16) string {
	in, ok := Decode(word)
	if !ok {
		return fmt.Sprintf("DW 0x%04X", word)
	}
	return in.Disassemble(in.Args(word))
}

// Disassemble renders the instruction with the given operands.
func (in Instruction) Disassemble(args Args) string {
	x, y := args.X(), args.Y()
	name := in.Op.String()

	switch in.Op {
	case OpCLS, OpRET:
		return name
	case OpSYS, OpJP, OpCALL:
		return fmt.Sprintf("%s 0x%03X", name, args.NNN())
	case OpSEByte, OpSNEByte, OpLDByte, OpADDByte, OpRND:
		return fmt.Sprintf("%s V%X, 0x%02X", name, x, args.NN())
	case OpSEReg, OpSNEReg, OpLDReg, OpOR, OpAND, OpXOR, OpADDReg, OpSUB, OpSHR, OpSUBN, OpSHL:
		return fmt.Sprintf("%s V%X, V%X", name, x, y)
	case OpLDI:
		return fmt.Sprintf("LD I, 0x%03X", args.NNN())
	case OpJPV0:
		return fmt.Sprintf("JP V0, 0x%03X", args.NNN())
	case OpDRW:
		return fmt.Sprintf("DRW V%X, V%X, %d", x, y, args.N())
	case OpSKP, OpSKNP:
		return fmt.Sprintf("%s V%X", name, x)
	case OpLDVxDT:
		return fmt.Sprintf("LD V%X, DT", x)
	case OpLDVxK:
		return fmt.Sprintf("LD V%X, K", x)
	case OpLDDTVx:
		return fmt.Sprintf("LD DT, V%X", x)
	case OpLDSTVx:
		return fmt.Sprintf("LD ST, V%X", x)
	case OpADDI:
		return fmt.Sprintf("ADD I, V%X", x)
	case OpLDF:
		return fmt.Sprintf("LD F, V%X", x)
	case OpLDB:
		return fmt.Sprintf("LD B, V%X", x)
	case OpLDIVx:
		return fmt.Sprintf("LD [I], V%X", x)
	case OpLDVxI:
		return fmt.Sprintf("LD V%X, [I]", x)
	}

	return name
}
