package savestate

import (
	"bytes"
	"encoding/hex"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/valerio/go-chip8/chip8/memory"
	"github.com/valerio/go-chip8/chip8/video"
)

// Version is the snapshot format version written by Encode.
const Version = 1

var (
	ErrProgramMismatch = errors.New("snapshot belongs to a different program")
	ErrInvalidSnapshot = errors.New("invalid snapshot")
)

// State is a complete copy of the VM.
type State struct {
	InstructionsPerFrame int
	InstructionsLeft     int
	ProgramBytesCount    int
	LoadedProgram        []byte

	I          uint16
	PC         uint16
	Registers  [16]uint8
	Stack      []uint16 // bottom first
	DelayTimer uint8
	SoundTimer uint8
	Beep       bool

	Memory  []byte
	Surface *video.Surface
}

// Matches reports whether the snapshot was taken with program loaded.
func (s *State) Matches(program []byte) bool {
	return s.ProgramBytesCount == len(program) && bytes.Equal(s.LoadedProgram, program)
}

// Format is an on-disk encoding.
type Format int

const (
	YAML Format = iota
	XML
)

// FormatFor picks the encoding from the file extension: ".xml" is XML,
// anything else YAML.
func FormatFor(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".xml") {
		return XML
	}
	return YAML
}

// document is the persisted layout. Byte blocks are hex strings, the stack is
// comma separated top first and the surface is row-major '0'/'1' pixels. XML
// files use a <state> root. A missing Version element decodes as version 0.
type document struct {
	XMLName                      xml.Name `xml:"state" yaml:"-"`
	Version                      int      `xml:"Version" yaml:"version"`
	InstructionsPerFrame         int      `xml:"InstructionsPerFrame" yaml:"instructions_per_frame"`
	ProgramBytesCount            int      `xml:"ProgramBytesCount" yaml:"program_bytes_count"`
	IRegister                    uint16   `xml:"IRegister" yaml:"i_register"`
	ProgramCounter               uint16   `xml:"ProgramCounter" yaml:"program_counter"`
	InstructionsToExecuteInFrame int      `xml:"InstructionsToExecuteInFrame" yaml:"instructions_to_execute_in_frame"`
	SoundTimer                   uint8    `xml:"SoundTimer" yaml:"sound_timer"`
	BeepStatus                   bool     `xml:"BeepStatus" yaml:"beep_status"`
	DelayTimer                   uint8    `xml:"DelayTimer" yaml:"delay_timer"`
	LoadedProgram                string   `xml:"LoadedProgram" yaml:"loaded_program"`
	Memory                       string   `xml:"Memory" yaml:"memory"`
	Registers                    string   `xml:"Registers" yaml:"registers"`
	Stack                        string   `xml:"stack" yaml:"stack"`
	Surface                      string   `xml:"surface" yaml:"surface"`
}

func toDocument(s *State) document {
	surface := s.Surface
	if surface == nil {
		surface = video.NewSurface()
	}
	return document{
		Version:                      Version,
		InstructionsPerFrame:         s.InstructionsPerFrame,
		ProgramBytesCount:            s.ProgramBytesCount,
		IRegister:                    s.I,
		ProgramCounter:               s.PC,
		InstructionsToExecuteInFrame: s.InstructionsLeft,
		SoundTimer:                   s.SoundTimer,
		BeepStatus:                   s.Beep,
		DelayTimer:                   s.DelayTimer,
		LoadedProgram:                hex.EncodeToString(s.LoadedProgram),
		Memory:                       hex.EncodeToString(s.Memory),
		Registers:                    hex.EncodeToString(s.Registers[:]),
		Stack:                        encodeStack(s.Stack),
		Surface:                      surface.String(),
	}
}

func fromDocument(d document) (*State, error) {
	if d.Version > Version {
		return nil, fmt.Errorf("%w: format version %d is newer than %d", ErrInvalidSnapshot, d.Version, Version)
	}

	program, err := hex.DecodeString(d.LoadedProgram)
	if err != nil {
		return nil, fmt.Errorf("%w: loaded program: %v", ErrInvalidSnapshot, err)
	}
	mem, err := hex.DecodeString(d.Memory)
	if err != nil {
		return nil, fmt.Errorf("%w: memory: %v", ErrInvalidSnapshot, err)
	}
	if len(mem) != memory.Size {
		return nil, fmt.Errorf("%w: memory has %d bytes, want %d", ErrInvalidSnapshot, len(mem), memory.Size)
	}
	regs, err := hex.DecodeString(d.Registers)
	if err != nil {
		return nil, fmt.Errorf("%w: registers: %v", ErrInvalidSnapshot, err)
	}
	if len(regs) != 16 {
		return nil, fmt.Errorf("%w: %d registers, want 16", ErrInvalidSnapshot, len(regs))
	}
	stack, err := decodeStack(d.Stack)
	if err != nil {
		return nil, fmt.Errorf("%w: stack: %v", ErrInvalidSnapshot, err)
	}
	surface, err := video.ParseSurface(d.Surface)
	if err != nil {
		return nil, fmt.Errorf("%w: surface: %v", ErrInvalidSnapshot, err)
	}

	s := &State{
		InstructionsPerFrame: d.InstructionsPerFrame,
		InstructionsLeft:     d.InstructionsToExecuteInFrame,
		ProgramBytesCount:    d.ProgramBytesCount,
		LoadedProgram:        program,
		I:                    d.IRegister,
		PC:                   d.ProgramCounter,
		Stack:                stack,
		DelayTimer:           d.DelayTimer,
		SoundTimer:           d.SoundTimer,
		Beep:                 d.BeepStatus,
		Memory:               mem,
		Surface:              surface,
	}
	copy(s.Registers[:], regs)
	return s, nil
}

// encodeStack writes the stack top first as comma separated decimals.
func encodeStack(stack []uint16) string {
	parts := make([]string, len(stack))
	for i, addr := range stack {
		parts[len(stack)-1-i] = strconv.Itoa(int(addr))
	}
	return strings.Join(parts, ",")
}

func decodeStack(encoded string) ([]uint16, error) {
	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return nil, nil
	}

	parts := strings.Split(encoded, ",")
	stack := make([]uint16, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseUint(strings.TrimSpace(p), 10, 16)
		if err != nil {
			return nil, err
		}
		stack = append(stack, uint16(v))
	}
	slices.Reverse(stack)
	return stack, nil
}

// Encode writes s to w.
func Encode(w io.Writer, s *State, format Format) error {
	doc := toDocument(s)

	switch format {
	case XML:
		if _, err := io.WriteString(w, xml.Header); err != nil {
			return err
		}
		enc := xml.NewEncoder(w)
		enc.Indent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("failed to encode snapshot: %w", err)
		}
		_, err := io.WriteString(w, "\n")
		return err
	default:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("failed to encode snapshot: %w", err)
		}
		return enc.Close()
	}
}

// Decode reads a snapshot from r.
func Decode(r io.Reader, format Format) (*State, error) {
	var doc document

	switch format {
	case XML:
		if err := xml.NewDecoder(r).Decode(&doc); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
		}
	default:
		if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
		}
	}

	return fromDocument(doc)
}

// Save writes s to path, choosing the encoding from the extension.
func Save(path string, s *State) error {
	var buf bytes.Buffer
	if err := Encode(&buf, s, FormatFor(path)); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}

// Load reads the snapshot at path.
func Load(path string) (*State, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer f.Close()

	return Decode(f, FormatFor(path))
}
