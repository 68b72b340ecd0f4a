package sdl2

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/valerio/go-chip8/chip8/video"
)

func TestFillPixels(t *testing.T) {
	surface := video.NewSurface()
	surface.Set(1, 0, true)
	surface.Set(video.Width-1, video.Height-1, true)

	dst := make([]byte, video.Width*video.Height*bytesPerPixel)
	fillPixels(dst, surface, onColor)

	pixel := func(x, y int) []byte {
		i := (y*video.Width + x) * bytesPerPixel
		return dst[i : i+bytesPerPixel]
	}

	assert.Equal(t, []byte{offColor.A, offColor.B, offColor.G, offColor.R}, pixel(0, 0))
	assert.Equal(t, []byte{onColor.A, onColor.B, onColor.G, onColor.R}, pixel(1, 0))
	assert.Equal(t, []byte{onColor.A, onColor.B, onColor.G, onColor.R}, pixel(video.Width-1, video.Height-1))

	fillPixels(dst, surface, beepColor)
	assert.Equal(t, []byte{beepColor.A, beepColor.B, beepColor.G, beepColor.R}, pixel(1, 0))
}
