package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	qoi "github.com/dolanor/qoidecode"
)

func newInfoCmd() *cobra.Command {
	var chunks, compressed bool
	cmd := &cobra.Command{
		Use:   "info [flags] <input.qoi|->",
		Short: "Print the header of a QOI image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := openInput(args[0], compressed)
			if err != nil {
				return err
			}
			defer in.Close()
			return printInfo(cmd.OutOrStdout(), in, chunks)
		},
	}
	cmd.Flags().BoolVar(&chunks, "chunks", false, "also count chunks by kind")
	cmd.Flags().BoolVar(&compressed, "zstd", false, "input is zstd compressed")
	return cmd
}

// chunkStats counts the chunks and pixels of each kind.
type chunkStats struct {
	chunks [qoi.KindRGBA + 1]uint64
	pixels [qoi.KindRGBA + 1]uint64
}

func printInfo(w io.Writer, r io.Reader, withChunks bool) error {
	h, err := qoi.ReadHeader(r)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "width:      %d\n", h.Width)
	fmt.Fprintf(w, "height:     %d\n", h.Height)
	fmt.Fprintf(w, "channels:   %d\n", h.Channels)
	fmt.Fprintf(w, "colorspace: %v\n", h.ColorSpace)
	if !withChunks {
		return nil
	}

	st, err := countChunks(r, h.Pixels())
	if err != nil {
		return err
	}
	for k := qoi.KindIndex; k <= qoi.KindRGBA; k++ {
		fmt.Fprintf(w, "%-6s %10d chunks %12d pixels\n", k, st.chunks[k], st.pixels[k])
	}
	return nil
}

func countChunks(r io.Reader, total uint64) (chunkStats, error) {
	var st chunkStats
	cr := qoi.NewChunkReader(r)
	for n := uint64(0); n < total; {
		c, err := cr.Next()
		if errors.Is(err, io.EOF) {
			return st, qoi.ErrUnexpectedEOF
		}
		if err != nil {
			return st, err
		}

		px := uint64(1)
		if run, ok := c.(qoi.ChunkRun); ok {
			px = min(uint64(run.Count()), total-n)
		}
		st.chunks[c.Kind()]++
		st.pixels[c.Kind()] += px
		n += px
	}
	logf("%d pixels in %d chunks", total, sum(st.chunks[:]))
	return st, nil
}

func sum(xs []uint64) (s uint64) {
	for _, x := range xs {
		s += x
	}
	return s
}
