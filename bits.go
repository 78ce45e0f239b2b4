package qoi

import (
	"errors"
	"fmt"
	"io"
)

// bitReader extracts MSB-first bit fields of 1 to 8 bits from a byte stream.
type bitReader struct {
	r io.ByteReader

	// cur holds the unread low bits of the current byte, n how many there are.
	cur byte
	n   uint
}

// bitCheckpoint is the buffered state of a bitReader within one byte.
type bitCheckpoint struct {
	cur byte
	n   uint
}

func newBitReader(r io.ByteReader) *bitReader {
	return &bitReader{r: r}
}

// readBits returns the next n bits, 1 <= n <= 8.
func (br *bitReader) readBits(n uint) (uint8, error) {
	if n == 0 || n > 8 {
		panic(fmt.Sprintf("qoi: readBits called with %d bits", n))
	}

	var v uint8
	for n > 0 {
		if br.n == 0 {
			b, err := br.r.ReadByte()
			if err != nil {
				return 0, readErr(err)
			}
			br.cur, br.n = b, 8
		}

		take := min(n, br.n)
		shift := br.n - take
		v = v<<take | (br.cur>>shift)&(1<<take-1)
		br.n -= take
		n -= take
	}
	return v, nil
}

// checkpoint captures the partial-byte state. It is only meant for peeking
// at the rest of the chunk tag byte; see rewind.
func (br *bitReader) checkpoint() bitCheckpoint {
	return bitCheckpoint{cur: br.cur, n: br.n}
}

// rewind restores a checkpoint taken earlier within the same byte. It cannot
// undo reads that pulled a new byte from the underlying stream.
func (br *bitReader) rewind(cp bitCheckpoint) {
	br.cur, br.n = cp.cur, cp.n
}

// fill loads the next byte if none is buffered. Unlike readBits it returns
// io.EOF unchanged, so callers can tell a clean end between chunks from a
// truncated chunk.
func (br *bitReader) fill() error {
	if br.n > 0 {
		return nil
	}
	b, err := br.r.ReadByte()
	if err != nil {
		return err
	}
	br.cur, br.n = b, 8
	return nil
}

// aligned reports whether the reader sits on a byte boundary.
func (br *bitReader) aligned() bool {
	return br.n == 0
}

func readErr(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return ErrUnexpectedEOF
	}
	return err
}
