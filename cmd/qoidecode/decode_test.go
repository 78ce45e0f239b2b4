package main

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/klauspost/compress/zstd"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	qoi "github.com/dolanor/qoidecode"
)

// testQOI is a 2x2 image: red, a run of one more red, opaque blue via rgba
// and a diff of -1 on blue.
var testQOI = []byte{
	'q', 'o', 'i', 'f',
	0, 0, 0, 2,
	0, 0, 0, 2,
	4, 0,
	0xfe, 0xff, 0x00, 0x00,
	0xc0,
	0xff, 0x00, 0x00, 0xff, 0xff,
	0x69,
	0, 0, 0, 0, 0, 0, 0, 1,
}

var testPixels = []color.NRGBA{
	{0xff, 0, 0, 0xff},
	{0xff, 0, 0, 0xff},
	{0, 0, 0xff, 0xff},
	{0, 0, 0xfe, 0xff},
}

func writeInput(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "in.qoi")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func pixelsOf(t *testing.T, m image.Image) []color.NRGBA {
	t.Helper()
	var ps []color.NRGBA
	b := m.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			ps = append(ps, color.NRGBAModel.Convert(m.At(x, y)).(color.NRGBA))
		}
	}
	return ps
}

func TestRunDecodeFormats(t *testing.T) {
	decoders := map[string]func([]byte) (image.Image, error){
		"png":  func(b []byte) (image.Image, error) { return png.Decode(bytes.NewReader(b)) },
		"bmp":  func(b []byte) (image.Image, error) { return bmp.Decode(bytes.NewReader(b)) },
		"tiff": func(b []byte) (image.Image, error) { return tiff.Decode(bytes.NewReader(b)) },
	}

	in := writeInput(t, testQOI)
	for format, decode := range decoders {
		t.Run(format, func(t *testing.T) {
			out := filepath.Join(t.TempDir(), "out."+format)
			if err := runDecode(in, decodeFlags{output: out, format: format, strict: true, maxPixels: qoi.DefaultMaxPixels}); err != nil {
				t.Fatalf("runDecode: %v", err)
			}
			data, err := os.ReadFile(out)
			if err != nil {
				t.Fatal(err)
			}
			m, err := decode(data)
			if err != nil {
				t.Fatalf("decoding %s output: %v", format, err)
			}
			if diff := cmp.Diff(testPixels, pixelsOf(t, m)); diff != "" {
				t.Errorf("pixels mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRunDecodeRaw(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.rgba")
	if err := runDecode(writeInput(t, testQOI), decodeFlags{output: out, format: "raw"}); err != nil {
		t.Fatal(err)
	}
	got, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{0xff, 0, 0, 0xff, 0xff, 0, 0, 0xff, 0, 0, 0xff, 0xff, 0, 0, 0xfe, 0xff}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("raw output mismatch (-want +got):\n%s", diff)
	}
}

func TestRunDecodeZstd(t *testing.T) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		t.Fatal(err)
	}
	compressed := enc.EncodeAll(testQOI, nil)
	enc.Close()

	out := filepath.Join(t.TempDir(), "out.rgba")
	if err := runDecode(writeInput(t, compressed), decodeFlags{output: out, format: "raw", zstd: true}); err != nil {
		t.Fatal(err)
	}
	got, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 16 {
		t.Errorf("got %d bytes, want 16", len(got))
	}
}

func TestRunDecodeErrors(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out")

	err := runDecode(writeInput(t, testQOI), decodeFlags{output: out, format: "gif"})
	if !errors.Is(err, ErrBadFormatFlag) {
		t.Errorf("bad format: got %v, want %v", err, ErrBadFormatFlag)
	}

	noMarker := testQOI[:len(testQOI)-8]
	err = runDecode(writeInput(t, noMarker), decodeFlags{output: out, format: "raw", strict: true})
	if !errors.Is(err, qoi.ErrUnexpectedEOF) {
		t.Errorf("strict without marker: got %v, want %v", err, qoi.ErrUnexpectedEOF)
	}
	if err := runDecode(writeInput(t, noMarker), decodeFlags{output: out, format: "raw"}); err != nil {
		t.Errorf("lenient without marker: %v", err)
	}

	err = runDecode(writeInput(t, testQOI[:20]), decodeFlags{output: out, format: "raw"})
	if !errors.Is(err, qoi.ErrUnexpectedEOF) {
		t.Errorf("truncated: got %v, want %v", err, qoi.ErrUnexpectedEOF)
	}

	err = runDecode(writeInput(t, testQOI), decodeFlags{output: out, format: "raw", maxPixels: 3})
	if !errors.Is(err, qoi.ErrAllocation) {
		t.Errorf("max pixels: got %v, want %v", err, qoi.ErrAllocation)
	}
}

func TestPrintInfo(t *testing.T) {
	var buf bytes.Buffer
	if err := printInfo(&buf, bytes.NewReader(testQOI), true); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{
		"width:      2\n",
		"colorspace: sRGB\n",
		"run             1 chunks            1 pixels\n",
		"rgba            1 chunks            1 pixels\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
