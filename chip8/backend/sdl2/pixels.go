package sdl2

import (
	"image/color"

	"github.com/valerio/go-chip8/chip8/video"
)

const (
	// PixelScale is the size of a CHIP-8 pixel on screen.
	PixelScale = 10

	WindowWidth  = video.Width * PixelScale
	WindowHeight = video.Height * PixelScale

	bytesPerPixel = 4
)

var (
	offColor  = color.RGBA{R: 0x10, G: 0x10, B: 0x10, A: 0xFF}
	onColor   = color.RGBA{R: 0xE0, G: 0xE0, B: 0xE0, A: 0xFF}
	beepColor = color.RGBA{R: 0xFF, G: 0xB0, B: 0x00, A: 0xFF}
)

// fillPixels writes the surface into dst as RGBA8888 texture data. The
// texture is little endian, so each pixel is stored as A, B, G, R.
func fillPixels(dst []byte, surface *video.Surface, on color.RGBA) {
	for y := 0; y < video.Height; y++ {
		for x := 0; x < video.Width; x++ {
			c := offColor
			if surface.Get(x, y) {
				c = on
			}

			i := (y*video.Width + x) * bytesPerPixel
			dst[i] = c.A
			dst[i+1] = c.B
			dst[i+2] = c.G
			dst[i+3] = c.R
		}
	}
}
