package debug

import (
	"github.com/valerio/go-chip8/chip8/bit"
	"github.com/valerio/go-chip8/chip8/cpu"
)

type DisasmLine struct {
	Address     uint16
	Word        uint16
	Instruction string
	IsCurrent   bool
}

// CreateDisassembly disassembles up to maxLines instructions of snapshot,
// keeping pc roughly centered. Instructions are two bytes wide and aligned
// to pc.
func CreateDisassembly(snapshot *MemorySnapshot, pc uint16, maxLines int) []DisasmLine {
	if snapshot == nil || maxLines <= 0 || len(snapshot.Bytes) < 2 {
		return nil
	}

	end := int(snapshot.StartAddr) + len(snapshot.Bytes)

	start := int(pc) - (maxLines/2)*2
	if int(pc) < int(snapshot.StartAddr) || int(pc) >= end {
		start = int(snapshot.StartAddr)
	}
	for start < int(snapshot.StartAddr) {
		start += 2
	}

	lines := make([]DisasmLine, 0, maxLines)
	for addr := start; addr+1 < end && len(lines) < maxLines; addr += 2 {
		offset := addr - int(snapshot.StartAddr)
		word := bit.Combine(snapshot.Bytes[offset], snapshot.Bytes[offset+1])
		lines = append(lines, DisasmLine{
			Address:     uint16(addr),
			Word:        word,
			Instruction: cpu.Disassemble(word),
			IsCurrent:   uint16(addr) == pc,
		})
	}

	return lines
}
