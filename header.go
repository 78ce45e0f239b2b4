package qoi

import (
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"io"
)

// Magic is the byte string prefix of every QOI image file.
const Magic = "qoif"

// HeaderSize is the encoded size of a Header in bytes.
const HeaderSize = 14

// ColorSpace is the informative colorspace byte of the header. It does not
// change how pixels are decoded.
type ColorSpace uint8

const (
	ColorSpaceSRGB   ColorSpace = 0x00
	ColorSpaceLinear ColorSpace = 0x01
)

func (c ColorSpace) String() string {
	switch c {
	case ColorSpaceSRGB:
		return "sRGB"
	case ColorSpaceLinear:
		return "linear"
	}
	return fmt.Sprintf("ColorSpace(%d)", uint8(c))
}

// Header describes a QOI image. Width*Height is the exact number of pixels
// in the chunk stream.
type Header struct {
	Width      uint32
	Height     uint32
	Channels   uint8
	ColorSpace ColorSpace
}

// Pixels returns the number of pixels in the image.
func (h Header) Pixels() uint64 {
	return uint64(h.Width) * uint64(h.Height)
}

// ReadHeader reads and validates the 14 byte header from r.
func ReadHeader(r io.Reader) (Header, error) {
	var buf [HeaderSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return Header{}, fmt.Errorf("reading header: %w", readErr(err))
	}

	if string(buf[:4]) != Magic {
		return Header{}, fmt.Errorf("bad magic %q: %w", buf[:4], ErrInvalidFormat)
	}

	h := Header{
		Width:      binary.BigEndian.Uint32(buf[4:8]),
		Height:     binary.BigEndian.Uint32(buf[8:12]),
		Channels:   buf[12],
		ColorSpace: ColorSpace(buf[13]),
	}
	if h.Channels != 3 && h.Channels != 4 {
		return Header{}, fmt.Errorf("bad channels %d, must be 3 or 4: %w", h.Channels, ErrInvalidFormat)
	}
	if h.ColorSpace != ColorSpaceSRGB && h.ColorSpace != ColorSpaceLinear {
		return Header{}, fmt.Errorf("bad colorspace %d, must be 0 or 1: %w", uint8(h.ColorSpace), ErrInvalidFormat)
	}
	return h, nil
}

// DecodeConfig returns the color model and dimensions of a QOI image without
// decoding the entire image.
func DecodeConfig(r io.Reader) (image.Config, error) {
	h, err := ReadHeader(r)
	if err != nil {
		return image.Config{}, err
	}
	return image.Config{
		ColorModel: color.NRGBAModel,
		Width:      int(h.Width),
		Height:     int(h.Height),
	}, nil
}
