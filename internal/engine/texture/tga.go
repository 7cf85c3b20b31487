package texture

import (
	"errors"
	"fmt"
	"image"
)

// TGA image type constants.
const (
	TGATypeTrueColor    = 2  // Uncompressed true-color
	TGATypeGray         = 3  // Uncompressed grayscale
	TGATypeTrueColorRLE = 10 // RLE compressed true-color
	TGATypeGrayRLE      = 11 // RLE compressed grayscale
)

// TGA decoding errors.
var (
	ErrInvalidTGA     = errors.New("invalid TGA data")
	ErrUnsupportedTGA = errors.New("unsupported TGA variant")
)

const tgaHeaderSize = 18

// DecodeTGA decodes a TGA image.
// Supports uncompressed and RLE true-color (24/32 bpp) and grayscale (8 bpp)
// images. True-color images decode to *image.NRGBA, grayscale to *image.Gray.
func DecodeTGA(data []byte) (image.Image, error) {
	if len(data) < tgaHeaderSize {
		return nil, fmt.Errorf("%w: header truncated", ErrInvalidTGA)
	}

	idLength := int(data[0])
	colorMapType := data[1]
	imageType := int(data[2])
	width := int(data[12]) | int(data[13])<<8
	height := int(data[14]) | int(data[15])<<8
	bpp := int(data[16])
	descriptor := data[17]

	if colorMapType != 0 {
		return nil, fmt.Errorf("%w: color-mapped", ErrUnsupportedTGA)
	}

	var gray, rle bool
	switch imageType {
	case TGATypeTrueColor:
	case TGATypeTrueColorRLE:
		rle = true
	case TGATypeGray:
		gray = true
	case TGATypeGrayRLE:
		gray, rle = true, true
	default:
		return nil, fmt.Errorf("%w: type %d", ErrUnsupportedTGA, imageType)
	}

	if gray && bpp != 8 {
		return nil, fmt.Errorf("%w: %d bpp grayscale", ErrUnsupportedTGA, bpp)
	}
	if !gray && bpp != 24 && bpp != 32 {
		return nil, fmt.Errorf("%w: %d bpp true-color", ErrUnsupportedTGA, bpp)
	}
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("%w: empty image %dx%d", ErrInvalidTGA, width, height)
	}

	offset := tgaHeaderSize + idLength
	if offset > len(data) {
		return nil, fmt.Errorf("%w: id field truncated", ErrInvalidTGA)
	}

	bytesPerPixel := bpp / 8
	pixels, err := readTGAPixels(data[offset:], width*height, bytesPerPixel, rle)
	if err != nil {
		return nil, err
	}

	// Bit 5 set means rows are stored top to bottom, bit 4 right to left.
	topToBottom := descriptor&0x20 != 0
	rightToLeft := descriptor&0x10 != 0

	dest := func(i int) (x, y int) {
		x, y = i%width, i/width
		if rightToLeft {
			x = width - 1 - x
		}
		if !topToBottom {
			y = height - 1 - y
		}
		return x, y
	}

	rect := image.Rect(0, 0, width, height)
	if gray {
		img := image.NewGray(rect)
		for i := 0; i < width*height; i++ {
			x, y := dest(i)
			img.Pix[img.PixOffset(x, y)] = pixels[i]
		}
		return img, nil
	}

	img := image.NewNRGBA(rect)
	for i := 0; i < width*height; i++ {
		x, y := dest(i)
		src := pixels[i*bytesPerPixel:]
		dst := img.Pix[img.PixOffset(x, y):]
		// Stored as BGR(A).
		dst[0], dst[1], dst[2] = src[2], src[1], src[0]
		dst[3] = 255
		if bytesPerPixel == 4 {
			dst[3] = src[3]
		}
	}
	return img, nil
}

// readTGAPixels returns count pixels in file order, expanding RLE packets.
func readTGAPixels(data []byte, count, bytesPerPixel int, rle bool) ([]byte, error) {
	size := count * bytesPerPixel
	if !rle {
		if len(data) < size {
			return nil, fmt.Errorf("%w: pixel data truncated", ErrInvalidTGA)
		}
		return data[:size], nil
	}

	out := make([]byte, 0, size)
	i := 0
	for len(out) < size {
		if i >= len(data) {
			return nil, fmt.Errorf("%w: RLE data truncated", ErrInvalidTGA)
		}
		packet := data[i]
		i++
		n := int(packet&0x7F) + 1

		if packet&0x80 != 0 {
			// Run packet: one pixel repeated n times.
			if i+bytesPerPixel > len(data) {
				return nil, fmt.Errorf("%w: RLE data truncated", ErrInvalidTGA)
			}
			px := data[i : i+bytesPerPixel]
			i += bytesPerPixel
			for k := 0; k < n && len(out) < size; k++ {
				out = append(out, px...)
			}
			continue
		}

		// Raw packet: n literal pixels.
		raw := n * bytesPerPixel
		if i+raw > len(data) {
			return nil, fmt.Errorf("%w: RLE data truncated", ErrInvalidTGA)
		}
		if rest := size - len(out); raw > rest {
			raw = rest
		}
		out = append(out, data[i:i+raw]...)
		i += n * bytesPerPixel
	}
	return out, nil
}
