package sexbatch

import (
	"image/png"
	"math"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/astrogo/fitsio"
)

func TestStretchGray(t *testing.T) {
	// 2x2 image, FITS order: bottom row first.
	pixels := []float64{0, 100, math.NaN(), 50}
	img := StretchGray(pixels, 2, 2)

	// Top row of the output is the last FITS row.
	if got := img.GrayAt(0, 0).Y; got != 0 {
		t.Errorf("NaN pixel = %d, want 0", got)
	}
	if got := img.GrayAt(1, 0).Y; got < 120 || got > 135 {
		t.Errorf("mid pixel = %d, want about 128", got)
	}
	if got := img.GrayAt(0, 1).Y; got != 0 {
		t.Errorf("min pixel = %d, want 0", got)
	}
	if got := img.GrayAt(1, 1).Y; got != 255 {
		t.Errorf("max pixel = %d, want 255", got)
	}
}

func TestStretchGrayFlat(t *testing.T) {
	img := StretchGray([]float64{7, 7, 7, 7}, 2, 2)
	for _, p := range img.Pix {
		if p != 0 {
			t.Fatalf("flat image pixel = %d, want 0", p)
		}
	}
}

func TestReadFitsPixels(t *testing.T) {
	path := filepath.Join(t.TempDir(), "img.fits")
	writeFits(t, path, 3, 2)

	pixels, w, h, err := ReadFitsPixels(path)
	if err != nil {
		t.Fatalf("ReadFitsPixels() error = %v", err)
	}
	if w != 3 || h != 2 {
		t.Fatalf("size = %dx%d, want 3x2", w, h)
	}
	for i, v := range pixels {
		if v != float64(i) {
			t.Fatalf("pixel %d = %v, want %d", i, v, i)
		}
	}
}

func TestRenderPreview(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "m31_check.fits")
	out := filepath.Join(dir, "m31_check.png")
	writeFits(t, src, 1000, 40)

	if err := RenderPreview(src, out, "m31.fits"); err != nil {
		t.Fatalf("RenderPreview() error = %v", err)
	}
	f, err := os.Open(out)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	if err != nil {
		t.Fatalf("decoding preview: %v", err)
	}
	if cfg.Width != previewWidth || cfg.Height != 32 {
		t.Errorf("preview size = %dx%d, want %dx32", cfg.Width, cfg.Height, previewWidth)
	}
}

func TestReadFitsPixelsScaled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "u16.fits")
	writeFitsImage(t, path, 16, []int{2, 2}, []int16{-32768, -1, 0, 32767},
		fitsio.Card{Name: "BSCALE", Value: 1},
		fitsio.Card{Name: "BZERO", Value: 32768},
	)

	pixels, _, _, err := ReadFitsPixels(path)
	if err != nil {
		t.Fatalf("ReadFitsPixels() error = %v", err)
	}
	want := []float64{0, 32767, 32768, 65535}
	if !slices.Equal(pixels, want) {
		t.Errorf("pixels = %v, want %v", pixels, want)
	}
}

func TestReadFitsPixelsCube(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cube.fits")
	data := make([]float32, 2*2*3)
	for i := range data {
		data[i] = float32(i)
	}
	writeFitsImage(t, path, -32, []int{2, 2, 3}, data)

	pixels, w, h, err := ReadFitsPixels(path)
	if err != nil {
		t.Fatalf("ReadFitsPixels() error = %v", err)
	}
	if w != 2 || h != 2 {
		t.Fatalf("size = %dx%d, want 2x2", w, h)
	}
	if want := []float64{0, 1, 2, 3}; !slices.Equal(pixels, want) {
		t.Errorf("first plane = %v, want %v", pixels, want)
	}
}

func TestReadFitsPixelsInt16(t *testing.T) {
	path := filepath.Join(t.TempDir(), "i16.fits")
	writeFitsImage(t, path, 16, []int{3, 1}, []int16{-5, 0, 5})

	pixels, _, _, err := ReadFitsPixels(path)
	if err != nil {
		t.Fatalf("ReadFitsPixels() error = %v", err)
	}
	if want := []float64{-5, 0, 5}; !slices.Equal(pixels, want) {
		t.Errorf("pixels = %v, want %v", pixels, want)
	}
}
