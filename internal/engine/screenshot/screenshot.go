// Package screenshot saves framebuffer captures as PNG files.
package screenshot

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"time"
)

// Capture writes timestamped PNGs into a directory.
type Capture struct {
	dir    string
	prefix string
	now    func() time.Time
	last   string
}

// New creates a capture writing prefix_<timestamp>.png files into dir.
func New(dir, prefix string) *Capture {
	return &Capture{dir: dir, prefix: prefix, now: time.Now}
}

// Dir returns the output directory.
func (c *Capture) Dir() string { return c.dir }

// Filename returns the path the next capture would be written to. Two
// captures within the same second get a numeric suffix.
func (c *Capture) Filename() string {
	base := fmt.Sprintf("%s_%s", c.prefix, c.now().Format("2006-01-02_15-04-05"))
	name := filepath.Join(c.dir, base+".png")
	for i := 1; name == c.last || exists(name); i++ {
		name = filepath.Join(c.dir, fmt.Sprintf("%s_%d.png", base, i))
	}
	return name
}

// SavePixels saves RGBA8 pixels read back from the framebuffer. Rows
// arrive bottom-up and are flipped into image order.
func (c *Capture) SavePixels(pixels []byte, width, height int) (string, error) {
	if width <= 0 || height <= 0 {
		return "", fmt.Errorf("empty capture %dx%d", width, height)
	}
	if len(pixels) != width*height*4 {
		return "", fmt.Errorf("pixel data size mismatch: expected %d, got %d", width*height*4, len(pixels))
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	row := width * 4
	for y := 0; y < height; y++ {
		src := (height - 1 - y) * row
		copy(img.Pix[y*img.Stride:y*img.Stride+row], pixels[src:src+row])
	}
	return c.Save(img)
}

// Save writes img and returns the file it was written to.
func (c *Capture) Save(img image.Image) (string, error) {
	if c.dir != "" {
		if err := os.MkdirAll(c.dir, 0755); err != nil {
			return "", fmt.Errorf("creating output dir: %w", err)
		}
	}

	name := c.Filename()
	f, err := os.Create(name)
	if err != nil {
		return "", fmt.Errorf("creating file: %w", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		return "", fmt.Errorf("encoding PNG: %w", err)
	}
	c.last = name
	return name, nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
