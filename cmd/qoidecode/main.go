// qoidecode decodes QOI (Quite OK Image) files to raw RGBA bytes or to a
// common image format.
package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/klauspost/compress/zstd"
	"github.com/spf13/cobra"
)

var verbose bool

func main() {
	log.SetFlags(0)
	log.SetPrefix("qoidecode: ")

	if err := newRootCmd().Execute(); err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "qoidecode",
		Short:         "Decode QOI images",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log image details to stderr")
	root.AddCommand(newDecodeCmd(), newInfoCmd())
	return root
}

func logf(format string, args ...any) {
	if verbose {
		log.Printf(format, args...)
	}
}

// openInput opens path, or stdin for "-". If compressed is set the stream is
// zstd-decompressed on the fly.
func openInput(path string, compressed bool) (io.ReadCloser, error) {
	var rc io.ReadCloser = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		rc = f
	}
	if !compressed {
		return rc, nil
	}

	dec, err := zstd.NewReader(rc)
	if err != nil {
		rc.Close()
		return nil, fmt.Errorf("zstd: %w", err)
	}
	return &zstdReadCloser{dec: dec, under: rc}, nil
}

type zstdReadCloser struct {
	dec   *zstd.Decoder
	under io.Closer
}

func (z *zstdReadCloser) Read(p []byte) (int, error) { return z.dec.Read(p) }

func (z *zstdReadCloser) Close() error {
	z.dec.Close()
	return z.under.Close()
}
