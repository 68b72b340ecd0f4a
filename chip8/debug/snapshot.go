package debug

import (
	"bufio"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/valerio/go-chip8/chip8/video"
)

// pngScale is the size in pixels of one display pixel in PNG snapshots.
const pngScale = 8

const (
	pixelOn  = '█'
	pixelOff = '·'
)

// SnapshotFormat selects how surface snapshots are written.
type SnapshotFormat string

const (
	SnapshotText SnapshotFormat = "txt"
	SnapshotPNG  SnapshotFormat = "png"
)

// TakeSnapshot handles the snapshot key for backends, writing a timestamped
// PNG to the working directory.
func TakeSnapshot(surface *video.Surface) {
	if surface == nil {
		slog.Warn("No frame data available for snapshot")
		return
	}

	name := fmt.Sprintf("chip8_snapshot_%s", time.Now().Format("20060102_150405"))
	if _, err := SaveSnapshot(surface, SnapshotPNG, name, ""); err != nil {
		slog.Error("Failed to save snapshot", "error", err)
	}
}

// SaveSnapshot writes surface to directory/baseName.<format>. An empty
// directory means the working directory.
func SaveSnapshot(surface *video.Surface, format SnapshotFormat, baseName, directory string, header ...string) (string, error) {
	if directory == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to get current directory: %v", err)
		}
		directory = cwd
	}

	path := filepath.Join(directory, fmt.Sprintf("%s.%s", baseName, format))
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create file %s: %v", path, err)
	}
	defer file.Close()

	switch format {
	case SnapshotPNG:
		err = WritePNG(file, surface)
	default:
		err = WriteText(file, surface, header...)
	}
	if err != nil {
		return "", err
	}

	slog.Debug("Snapshot saved", "path", path, "format", format)
	return path, nil
}

// WriteText renders surface as text, one line per row, preceded by the
// header lines as comments.
func WriteText(w io.Writer, surface *video.Surface, header ...string) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "# CHIP-8 Frame Snapshot\n")
	for _, line := range header {
		fmt.Fprintf(bw, "# %s\n", line)
	}
	fmt.Fprintf(bw, "# Resolution: %dx%d pixels\n", video.Width, video.Height)
	fmt.Fprintf(bw, "# Legend: %c=on %c=off\n", pixelOn, pixelOff)
	fmt.Fprintf(bw, "#\n")

	for y := 0; y < video.Height; y++ {
		for x := 0; x < video.Width; x++ {
			if surface.Get(x, y) {
				bw.WriteRune(pixelOn)
			} else {
				bw.WriteRune(pixelOff)
			}
		}
		bw.WriteByte('\n')
	}

	return bw.Flush()
}

// WritePNG encodes surface as a black and white PNG.
func WritePNG(w io.Writer, surface *video.Surface) error {
	img := image.NewGray(image.Rect(0, 0, video.Width*pngScale, video.Height*pngScale))
	for y := 0; y < video.Height*pngScale; y++ {
		for x := 0; x < video.Width*pngScale; x++ {
			if surface.Get(x/pngScale, y/pngScale) {
				img.SetGray(x, y, color.Gray{Y: 0xFF})
			}
		}
	}

	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("failed to encode PNG: %v", err)
	}
	return nil
}
