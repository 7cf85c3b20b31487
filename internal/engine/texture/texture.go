// Package texture decodes image files into tightly packed pixel data ready
// for upload to the GPU.
package texture

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/h2non/filetype"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrUnsupportedImage is returned for data no decoder recognizes.
var ErrUnsupportedImage = errors.New("unsupported image format")

// Image is decoded pixel data. Rows run bottom to top, the order OpenGL
// expects texture uploads in. 16-bit samples are little-endian.
type Image struct {
	Width    int
	Height   int
	Channels int // 1 to 4
	BitDepth int // 8 or 16
	Pix      []byte
}

// BytesPerPixel returns the size of one pixel in Pix.
func (img *Image) BytesPerPixel() int {
	return img.Channels * img.BitDepth / 8
}

// Stride returns the size of one row in Pix.
func (img *Image) Stride() int {
	return img.Width * img.BytesPerPixel()
}

// Load reads and decodes an image file.
func Load(path string) (*Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	img, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return img, nil
}

// Decode decodes PNG, JPEG, GIF, BMP, TIFF, WebP or TGA data.
// TGA has no signature, so anything not sniffed as another image type is
// tried as TGA.
func Decode(data []byte) (*Image, error) {
	var (
		src image.Image
		err error
	)

	if filetype.IsImage(data) {
		src, _, err = image.Decode(bytes.NewReader(data))
		if errors.Is(err, image.ErrFormat) {
			kind, _ := filetype.Match(data)
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedImage, kind.Extension)
		}
	} else {
		src, err = DecodeTGA(data)
		if errors.Is(err, ErrInvalidTGA) || errors.Is(err, ErrUnsupportedTGA) {
			err = fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
		}
	}
	if err != nil {
		return nil, err
	}

	if isGrayAlphaPNG(data) {
		return fromGrayAlpha(src), nil
	}
	return FromImage(src), nil
}

// PNG color type 4 is gray with alpha. image/png widens it to NRGBA, so
// the header is checked to keep the two channels.
const pngGrayAlpha = 4

var pngSignature = []byte("\x89PNG\r\n\x1a\n")

func isGrayAlphaPNG(data []byte) bool {
	// signature, IHDR length and type, width, height, bit depth, color type
	const colorTypeOffset = 8 + 8 + 4 + 4 + 1
	if len(data) <= colorTypeOffset || !bytes.HasPrefix(data, pngSignature) {
		return false
	}
	return string(data[12:16]) == "IHDR" && data[colorTypeOffset] == pngGrayAlpha
}

// nrgba64At reads a non-premultiplied pixel without a premultiply round
// trip for the types image/png produces.
func nrgba64At(src image.Image, x, y int) color.NRGBA64 {
	switch s := src.(type) {
	case *image.NRGBA64:
		return s.NRGBA64At(x, y)
	case *image.NRGBA:
		c := s.NRGBAAt(x, y)
		return color.NRGBA64{
			R: uint16(c.R) * 0x101, G: uint16(c.G) * 0x101,
			B: uint16(c.B) * 0x101, A: uint16(c.A) * 0x101,
		}
	}
	return color.NRGBA64Model.Convert(src.At(x, y)).(color.NRGBA64)
}

// fromGrayAlpha packs a gray-alpha source into two channels, taking the
// gray level from the red component.
func fromGrayAlpha(src image.Image) *Image {
	b := src.Bounds()
	out := &Image{Width: b.Dx(), Height: b.Dy(), Channels: 2, BitDepth: 8}
	if _, deep := src.(*image.NRGBA64); deep {
		out.BitDepth = 16
	}

	out.Pix = make([]byte, out.Width*out.Height*out.BytesPerPixel())
	for y := 0; y < out.Height; y++ {
		dst := out.Pix[out.rowOffset(y):]
		for x := 0; x < out.Width; x++ {
			c := nrgba64At(src, b.Min.X+x, b.Min.Y+y)
			p := dst[x*out.BytesPerPixel():]
			if out.BitDepth == 16 {
				binary.LittleEndian.PutUint16(p[0:], c.R)
				binary.LittleEndian.PutUint16(p[2:], c.A)
			} else {
				p[0], p[1] = byte(c.R>>8), byte(c.A>>8)
			}
		}
	}
	return out
}

// FromImage converts a decoded image to flipped, packed pixel data, keeping
// the source's channel count and bit depth where the source carries them.
func FromImage(src image.Image) *Image {
	b := src.Bounds()
	out := &Image{Width: b.Dx(), Height: b.Dy()}

	opaque := isOpaque(src)

	switch s := src.(type) {
	case *image.Gray:
		out.Channels, out.BitDepth = 1, 8
		out.Pix = make([]byte, out.Width*out.Height)
		for y := 0; y < out.Height; y++ {
			row := s.Pix[s.PixOffset(b.Min.X, b.Min.Y+y):]
			copy(out.Pix[out.rowOffset(y):], row[:out.Width])
		}
		return out

	case *image.Gray16:
		out.Channels, out.BitDepth = 1, 16
		out.Pix = make([]byte, out.Width*out.Height*2)
		for y := 0; y < out.Height; y++ {
			dst := out.Pix[out.rowOffset(y):]
			for x := 0; x < out.Width; x++ {
				v := s.Gray16At(b.Min.X+x, b.Min.Y+y).Y
				binary.LittleEndian.PutUint16(dst[x*2:], v)
			}
		}
		return out

	case *image.RGBA64, *image.NRGBA64:
		out.BitDepth = 16
		out.Channels = 4
		if opaque {
			out.Channels = 3
		}
		out.Pix = make([]byte, out.Width*out.Height*out.BytesPerPixel())
		for y := 0; y < out.Height; y++ {
			dst := out.Pix[out.rowOffset(y):]
			for x := 0; x < out.Width; x++ {
				c := color.NRGBA64Model.Convert(src.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA64)
				p := dst[x*out.BytesPerPixel():]
				binary.LittleEndian.PutUint16(p[0:], c.R)
				binary.LittleEndian.PutUint16(p[2:], c.G)
				binary.LittleEndian.PutUint16(p[4:], c.B)
				if out.Channels == 4 {
					binary.LittleEndian.PutUint16(p[6:], c.A)
				}
			}
		}
		return out
	}

	out.BitDepth = 8
	out.Channels = 4
	if opaque {
		out.Channels = 3
	}
	out.Pix = make([]byte, out.Width*out.Height*out.Channels)
	for y := 0; y < out.Height; y++ {
		dst := out.Pix[out.rowOffset(y):]
		for x := 0; x < out.Width; x++ {
			c := color.NRGBAModel.Convert(src.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
			p := dst[x*out.Channels:]
			p[0], p[1], p[2] = c.R, c.G, c.B
			if out.Channels == 4 {
				p[3] = c.A
			}
		}
	}
	return out
}

// rowOffset returns where source row y starts in Pix after the vertical flip.
func (img *Image) rowOffset(y int) int {
	return (img.Height - 1 - y) * img.Stride()
}

func isOpaque(src image.Image) bool {
	if o, ok := src.(interface{ Opaque() bool }); ok {
		return o.Opaque()
	}
	return false
}
