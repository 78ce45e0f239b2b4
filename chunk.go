package qoi

import (
	"bufio"
	"fmt"
	"io"
)

// ChunkKind classifies a chunk by its tag.
type ChunkKind uint8

const (
	KindIndex ChunkKind = iota
	KindDiff
	KindLuma
	KindRun
	KindRGB
	KindRGBA

	numKinds
)

var kindNames = [numKinds]string{
	KindIndex: "index",
	KindDiff:  "diff",
	KindLuma:  "luma",
	KindRun:   "run",
	KindRGB:   "rgb",
	KindRGBA:  "rgba",
}

func (k ChunkKind) String() string {
	if k < numKinds {
		return kindNames[k]
	}
	return fmt.Sprintf("ChunkKind(%d)", uint8(k))
}

// Tag bit patterns. The 2-bit prefixes come first in every chunk; the
// remaining prefix 11 is shared by Run and the two 8-bit color tags.
const (
	tagIndex = 0b00
	tagDiff  = 0b01
	tagLuma  = 0b10

	// low 6 bits of the 8-bit RGB and RGBA tags
	tagRGBRest  = 0b111110
	tagRGBARest = 0b111111
)

// Chunk is one decoded chunk. The concrete type is one of ChunkIndex,
// ChunkDiff, ChunkLuma, ChunkRun, ChunkRGB or ChunkRGBA.
type Chunk interface {
	Kind() ChunkKind
}

// ChunkRGB sets the color channels; alpha is kept from the previous pixel.
type ChunkRGB struct{ R, G, B uint8 }

// ChunkRGBA sets all four channels.
type ChunkRGBA struct{ R, G, B, A uint8 }

// ChunkIndex refers to a color cache slot.
type ChunkIndex struct{ Index uint8 }

// ChunkDiff holds three raw 2-bit deltas, each biased by 2.
type ChunkDiff struct{ DR, DG, DB uint8 }

// ChunkLuma holds a 6-bit green delta biased by 32 and two 4-bit deltas,
// relative to the green delta, biased by 8.
type ChunkLuma struct{ DG, DRDG, DBDG uint8 }

// ChunkRun holds the raw 6-bit run field. The run length is Length+1.
type ChunkRun struct{ Length uint8 }

func (ChunkRGB) Kind() ChunkKind   { return KindRGB }
func (ChunkRGBA) Kind() ChunkKind  { return KindRGBA }
func (ChunkIndex) Kind() ChunkKind { return KindIndex }
func (ChunkDiff) Kind() ChunkKind  { return KindDiff }
func (ChunkLuma) Kind() ChunkKind  { return KindLuma }
func (ChunkRun) Kind() ChunkKind   { return KindRun }

// Count returns how many pixels the run repeats, 1 to 64.
func (c ChunkRun) Count() int { return int(c.Length) + 1 }

// decodeTag reads the tag of the next chunk. For an 11 prefix it peeks at
// the remaining 6 bits of the byte; unless they complete an RGB or RGBA tag
// they are the run length, and the reader is rewound so they can be read
// again as payload.
func decodeTag(br *bitReader) (ChunkKind, error) {
	prefix, err := br.readBits(2)
	if err != nil {
		return 0, err
	}

	switch prefix {
	case tagIndex:
		return KindIndex, nil
	case tagDiff:
		return KindDiff, nil
	case tagLuma:
		return KindLuma, nil
	}

	cp := br.checkpoint()
	rest, err := br.readBits(6)
	if err != nil {
		return 0, err
	}
	switch rest {
	case tagRGBRest:
		return KindRGB, nil
	case tagRGBARest:
		return KindRGBA, nil
	}
	br.rewind(cp)
	return KindRun, nil
}

type payloadDecoder func(br *bitReader) (Chunk, error)

var payloadDecoders = [numKinds]payloadDecoder{
	KindIndex: decodeIndex,
	KindDiff:  decodeDiff,
	KindLuma:  decodeLuma,
	KindRun:   decodeRun,
	KindRGB:   decodeRGB,
	KindRGBA:  decodeRGBA,
}

// decodePayload reads the fields of a chunk whose tag has been consumed.
func decodePayload(br *bitReader, kind ChunkKind) (Chunk, error) {
	if kind >= numKinds {
		return nil, fmt.Errorf("unknown chunk kind %d: %w", uint8(kind), ErrInvalidFormat)
	}
	return payloadDecoders[kind](br)
}

func decodeRGB(br *bitReader) (Chunk, error) {
	var c [3]uint8
	if err := readFields(br, 8, c[:]); err != nil {
		return nil, err
	}
	return ChunkRGB{R: c[0], G: c[1], B: c[2]}, nil
}

func decodeRGBA(br *bitReader) (Chunk, error) {
	var c [4]uint8
	if err := readFields(br, 8, c[:]); err != nil {
		return nil, err
	}
	return ChunkRGBA{R: c[0], G: c[1], B: c[2], A: c[3]}, nil
}

func decodeIndex(br *bitReader) (Chunk, error) {
	v, err := br.readBits(6)
	if err != nil {
		return nil, err
	}
	return ChunkIndex{Index: v}, nil
}

func decodeDiff(br *bitReader) (Chunk, error) {
	var d [3]uint8
	if err := readFields(br, 2, d[:]); err != nil {
		return nil, err
	}
	return ChunkDiff{DR: d[0], DG: d[1], DB: d[2]}, nil
}

func decodeLuma(br *bitReader) (Chunk, error) {
	dg, err := br.readBits(6)
	if err != nil {
		return nil, err
	}
	var d [2]uint8
	if err := readFields(br, 4, d[:]); err != nil {
		return nil, err
	}
	return ChunkLuma{DG: dg, DRDG: d[0], DBDG: d[1]}, nil
}

func decodeRun(br *bitReader) (Chunk, error) {
	v, err := br.readBits(6)
	if err != nil {
		return nil, err
	}
	return ChunkRun{Length: v}, nil
}

// readFields fills dst with consecutive fields of width bits each.
func readFields(br *bitReader, width uint, dst []uint8) error {
	for i := range dst {
		v, err := br.readBits(width)
		if err != nil {
			return err
		}
		dst[i] = v
	}
	return nil
}

// readChunk decodes one complete chunk.
func readChunk(br *bitReader) (Chunk, error) {
	kind, err := decodeTag(br)
	if err != nil {
		return nil, err
	}
	return decodePayload(br, kind)
}

// ChunkReader decodes the chunk stream that follows a QOI header, one chunk
// at a time, without reconstructing pixels.
type ChunkReader struct {
	br *bitReader
}

// NewChunkReader returns a ChunkReader reading chunks from r, which must be
// positioned just after the header.
func NewChunkReader(r io.Reader) *ChunkReader {
	bs, ok := r.(io.ByteReader)
	if !ok {
		bs = bufio.NewReader(r)
	}
	return &ChunkReader{br: newBitReader(bs)}
}

// Next returns the next chunk. It returns ErrUnexpectedEOF if the stream ends
// inside a chunk, and io.EOF if it ends cleanly between chunks.
func (cr *ChunkReader) Next() (Chunk, error) {
	if err := cr.br.fill(); err != nil {
		return nil, err
	}
	return readChunk(cr.br)
}
