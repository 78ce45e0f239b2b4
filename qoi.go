// Package qoi decodes images in the QOI (Quite OK Image) format.
//
// The format is described at https://qoiformat.org/qoi-specification.pdf.
package qoi

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"math"
)

var (
	ErrUnexpectedEOF = errors.New("qoi: unexpected end of input")
	ErrInvalidFormat = errors.New("qoi: invalid format")
	ErrAllocation    = errors.New("qoi: cannot allocate pixel buffer")
	ErrBadEndMarker  = errors.New("qoi: bad end marker")
)

// DefaultMaxPixels is the largest image accepted when Options.MaxPixels is
// zero.
const DefaultMaxPixels = 400_000_000

// EndMarker terminates a QOI chunk stream. Decoding does not need it; see
// Decoder.VerifyEndMarker.
var EndMarker = [8]byte{0, 0, 0, 0, 0, 0, 0, 1}

// Options are optional arguments to NewDecoder. The zero value is valid.
type Options struct {
	// MaxPixels bounds width*height. Zero means DefaultMaxPixels.
	MaxPixels uint64
}

func init() {
	image.RegisterFormat("qoi", Magic, Decode, DecodeConfig)
}

// Decoder decodes a single QOI image from a stream. It is not safe for
// concurrent use; decode independent images with independent Decoders.
type Decoder struct {
	r    *bufio.Reader
	opts Options

	h         Header
	hdrErr    error
	hdrDone   bool
	pixelDone bool
}

// NewDecoder returns a Decoder reading from r. opts may be nil.
func NewDecoder(r io.Reader, opts *Options) *Decoder {
	d := &Decoder{r: bufio.NewReader(r)}
	if opts != nil {
		d.opts = *opts
	}
	if d.opts.MaxPixels == 0 {
		d.opts.MaxPixels = DefaultMaxPixels
	}
	return d
}

// Header reads the header if it has not been read yet and returns it.
func (d *Decoder) Header() (Header, error) {
	if !d.hdrDone {
		d.h, d.hdrErr = ReadHeader(d.r)
		d.hdrDone = true
	}
	return d.h, d.hdrErr
}

// DecodeRGBA decodes the pixels into a new buffer of width*height*4 bytes,
// row-major RGBA with non-premultiplied alpha. On error no pixels are
// returned.
func (d *Decoder) DecodeRGBA() ([]byte, error) {
	h, err := d.Header()
	if err != nil {
		return nil, err
	}
	if d.pixelDone {
		return nil, errors.New("qoi: pixels already decoded")
	}
	d.pixelDone = true

	pix, err := d.alloc(h)
	if err != nil {
		return nil, err
	}

	br := newBitReader(d.r)
	s := newDecodeState(pix)
	for !s.done() {
		c, err := readChunk(br)
		if err != nil {
			return nil, fmt.Errorf("decoding pixel %d of %d: %w", s.pos/4, h.Pixels(), err)
		}
		if err := s.apply(c); err != nil {
			return nil, err
		}
	}
	return pix, nil
}

// DecodeImage decodes the pixels into an *image.NRGBA.
func (d *Decoder) DecodeImage() (*image.NRGBA, error) {
	pix, err := d.DecodeRGBA()
	if err != nil {
		return nil, err
	}
	w, h := int(d.h.Width), int(d.h.Height)
	return &image.NRGBA{
		Pix:    pix,
		Stride: 4 * w,
		Rect:   image.Rect(0, 0, w, h),
	}, nil
}

// VerifyEndMarker reads the 8 bytes that follow the chunk stream and checks
// them against EndMarker. It must be called after the pixels are decoded.
func (d *Decoder) VerifyEndMarker() error {
	if !d.pixelDone {
		return errors.New("qoi: end marker checked before pixels were decoded")
	}
	var buf [len(EndMarker)]byte
	if _, err := io.ReadFull(d.r, buf[:]); err != nil {
		return fmt.Errorf("reading end marker: %w", readErr(err))
	}
	if !bytes.Equal(buf[:], EndMarker[:]) {
		return fmt.Errorf("got % x: %w", buf, ErrBadEndMarker)
	}
	return nil
}

func (d *Decoder) alloc(h Header) ([]byte, error) {
	n := h.Pixels()
	if n > d.opts.MaxPixels {
		return nil, fmt.Errorf("%dx%d exceeds %d pixels: %w", h.Width, h.Height, d.opts.MaxPixels, ErrAllocation)
	}
	if n > math.MaxInt/4 {
		return nil, fmt.Errorf("%dx%d overflows: %w", h.Width, h.Height, ErrAllocation)
	}
	return make([]byte, 4*n), nil
}

// Decode reads a QOI image from r and returns it as an *image.NRGBA.
func Decode(r io.Reader) (image.Image, error) {
	m, err := NewDecoder(r, nil).DecodeImage()
	if err != nil {
		return nil, err
	}
	return m, nil
}

// DecodeRGBA reads a QOI image from r and returns its header and raw RGBA
// pixels.
func DecodeRGBA(r io.Reader) (Header, []byte, error) {
	d := NewDecoder(r, nil)
	pix, err := d.DecodeRGBA()
	if err != nil {
		return Header{}, nil, err
	}
	return d.h, pix, nil
}
