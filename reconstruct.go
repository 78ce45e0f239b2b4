package qoi

import (
	"fmt"
	"image/color"
)

const cacheSize = 64

// colorHash returns the color cache slot for c.
func colorHash(c color.NRGBA) uint8 {
	return (c.R*3 + c.G*5 + c.B*7 + c.A*11) % cacheSize
}

// decodeState is the running state of one decode: the previous pixel, the
// color cache and the output written so far.
type decodeState struct {
	prev  color.NRGBA
	cache [cacheSize]color.NRGBA

	// pix holds 4 bytes per pixel, RGBA order; pos is the next byte to write.
	pix []byte
	pos int
}

func newDecodeState(pix []byte) *decodeState {
	return &decodeState{
		prev: color.NRGBA{A: 255},
		pix:  pix,
	}
}

// done reports whether every pixel has been written.
func (s *decodeState) done() bool {
	return s.pos >= len(s.pix)
}

// apply reconstructs the pixels of c and appends them to the output.
func (s *decodeState) apply(c Chunk) error {
	p := s.prev

	switch c := c.(type) {
	case ChunkRGB:
		p.R, p.G, p.B = c.R, c.G, c.B
	case ChunkRGBA:
		p = color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A}
	case ChunkIndex:
		s.prev = s.cache[c.Index%cacheSize]
		s.emit(s.prev)
		return nil
	case ChunkDiff:
		p.R += c.DR - 2
		p.G += c.DG - 2
		p.B += c.DB - 2
	case ChunkLuma:
		dg := c.DG - 32
		p.R += c.DRDG - 8 + dg
		p.G += dg
		p.B += c.DBDG - 8 + dg
	case ChunkRun:
		for n := c.Count(); n > 0 && !s.done(); n-- {
			s.emit(p)
		}
		s.cache[colorHash(p)] = p
		return nil
	default:
		return fmt.Errorf("unknown chunk %T: %w", c, ErrInvalidFormat)
	}

	s.cache[colorHash(p)] = p
	s.prev = p
	s.emit(p)
	return nil
}

func (s *decodeState) emit(p color.NRGBA) {
	px := s.pix[s.pos : s.pos+4 : s.pos+4]
	px[0], px[1], px[2], px[3] = p.R, p.G, p.B, p.A
	s.pos += 4
}
