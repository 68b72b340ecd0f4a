package video

import (
	"fmt"
	"strings"

	"github.com/valerio/go-chip8/chip8/bit"
)

const (
	Width  = 64
	Height = 32
)

// Surface is the 64x32 monochrome display. Pixels are addressed as (x, y)
// with the origin in the top left corner.
type Surface struct {
	pixels [Width * Height]bool
}

// NewSurface creates a surface with every pixel unset.
func NewSurface() *Surface {
	return &Surface{}
}

func (s *Surface) Get(x, y int) bool {
	return s.pixels[y*Width+x]
}

func (s *Surface) Set(x, y int, value bool) {
	s.pixels[y*Width+x] = value
}

// Clear unsets every pixel.
func (s *Surface) Clear() {
	s.pixels = [Width * Height]bool{}
}

// DrawSprite XORs sprite onto the surface, one byte per row with the most
// significant bit leftmost. The start position wraps, the sprite itself is
// clipped at the right and bottom edges. Returns true when any set pixel was
// turned off.
func (s *Surface) DrawSprite(x, y uint8, sprite []byte) (collision bool) {
	startX := int(x) % Width
	row := int(y) % Height

	for _, line := range sprite {
		if row >= Height {
			break
		}
		for b := 0; b < 8; b++ {
			col := startX + b
			if col >= Width {
				break
			}
			if !bit.IsSet(uint8(7-b), line) {
				continue
			}
			idx := row*Width + col
			if s.pixels[idx] {
				collision = true
			}
			s.pixels[idx] = !s.pixels[idx]
		}
		row++
	}

	return collision
}

// Clone returns an independent copy of the surface.
func (s *Surface) Clone() *Surface {
	c := *s
	return &c
}

// Lit returns the number of set pixels.
func (s *Surface) Lit() int {
	n := 0
	for _, p := range s.pixels {
		if p {
			n++
		}
	}
	return n
}

// String encodes the surface as Width*Height '0'/'1' characters, row-major.
func (s *Surface) String() string {
	var sb strings.Builder
	sb.Grow(len(s.pixels))
	for _, p := range s.pixels {
		if p {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}

// ParseSurface decodes the encoding produced by String.
func ParseSurface(encoded string) (*Surface, error) {
	if len(encoded) != Width*Height {
		return nil, fmt.Errorf("surface encoding has %d pixels, want %d", len(encoded), Width*Height)
	}

	s := NewSurface()
	for i := 0; i < len(encoded); i++ {
		switch encoded[i] {
		case '1':
			s.pixels[i] = true
		case '0':
		default:
			return nil, fmt.Errorf("invalid pixel %q at offset %d", encoded[i], i)
		}
	}
	return s, nil
}
