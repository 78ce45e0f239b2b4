package main

import (
	"bufio"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	qoi "github.com/dolanor/qoidecode"
)

var ErrBadFormatFlag = errors.New("qoidecode: bad --format flag")

type decodeFlags struct {
	output    string
	format    string
	zstd      bool
	strict    bool
	maxPixels uint64
}

func newDecodeCmd() *cobra.Command {
	var f decodeFlags
	cmd := &cobra.Command{
		Use:   "decode [flags] <input.qoi|->",
		Short: "Decode a QOI image",
		Long: `Decode a QOI image.

The default output is the raw pixels, 4 bytes per pixel in RGBA order, row by
row. Use --format to write png, bmp or tiff instead. Output goes to stdout
unless --output is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDecode(args[0], f)
		},
	}
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "output path (default stdout)")
	cmd.Flags().StringVarP(&f.format, "format", "f", "raw", "output format: raw, png, bmp or tiff")
	cmd.Flags().BoolVar(&f.zstd, "zstd", false, "input is zstd compressed")
	cmd.Flags().BoolVar(&f.strict, "strict", false, "require the end of stream marker")
	cmd.Flags().Uint64Var(&f.maxPixels, "max-pixels", qoi.DefaultMaxPixels, "refuse images with more pixels")
	return cmd
}

func runDecode(path string, f decodeFlags) error {
	enc, ok := encoders[f.format]
	if !ok {
		return fmt.Errorf("%w: %q", ErrBadFormatFlag, f.format)
	}

	in, err := openInput(path, f.zstd)
	if err != nil {
		return err
	}
	defer in.Close()

	d := qoi.NewDecoder(in, &qoi.Options{MaxPixels: f.maxPixels})
	h, err := d.Header()
	if err != nil {
		return err
	}
	logf("%s: %dx%d, %d channels, %v", path, h.Width, h.Height, h.Channels, h.ColorSpace)

	m, err := d.DecodeImage()
	if err != nil {
		return err
	}
	if f.strict {
		if err := d.VerifyEndMarker(); err != nil {
			return err
		}
	}

	var out io.Writer = os.Stdout
	if f.output != "" {
		file, err := os.Create(f.output)
		if err != nil {
			return err
		}
		defer file.Close()
		out = file
	}

	bw := bufio.NewWriter(out)
	if err := enc(bw, m); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	logf("wrote %d pixels as %s", h.Pixels(), f.format)
	return nil
}

type encodeFunc func(w io.Writer, m *image.NRGBA) error

var encoders = map[string]encodeFunc{
	"raw":  writeRaw,
	"png":  writePNG,
	"bmp":  writeBMP,
	"tiff": writeTIFF,
}

// writeRaw writes the pixels as they are, 4 bytes per pixel.
func writeRaw(w io.Writer, m *image.NRGBA) error {
	_, err := w.Write(m.Pix)
	return err
}

func writePNG(w io.Writer, m *image.NRGBA) error { return png.Encode(w, m) }

func writeBMP(w io.Writer, m *image.NRGBA) error { return bmp.Encode(w, m) }

func writeTIFF(w io.Writer, m *image.NRGBA) error {
	return tiff.Encode(w, m, &tiff.Options{Compression: tiff.Deflate})
}
