package sexbatch

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"os"
	"sort"

	"github.com/astrogo/fitsio"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	previewWidth  = 800
	previewLowPct = 0.005
	previewHiPct  = 0.995
)

// ReadFitsPixels reads the first plane of the primary image of a FITS file
// as physical values (BZERO + BSCALE*raw) in row-major order.
func ReadFitsPixels(path string) ([]float64, int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("opening FITS file: %w", err)
	}
	defer f.Close()

	fits, err := fitsio.Open(f)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("decoding FITS file %s: %w", path, err)
	}
	defer fits.Close()

	img, ok := fits.HDU(0).(fitsio.Image)
	if !ok {
		return nil, 0, 0, fmt.Errorf("%s: primary HDU is not an image", path)
	}
	hdr := img.Header()
	axes := hdr.Axes()
	if len(axes) < 2 || axes[0] <= 0 || axes[1] <= 0 {
		return nil, 0, 0, fmt.Errorf("%s: invalid image axes %v", path, axes)
	}
	width, height := axes[0], axes[1]
	n := 1
	for _, a := range axes {
		n *= a
	}
	sc := scaling{
		bscale: cardFloat(hdr, "BSCALE", 1),
		bzero:  cardFloat(hdr, "BZERO", 0),
	}

	var pixels []float64
	switch bitpix := hdr.Bitpix(); bitpix {
	case 8:
		pixels, err = readPlane[byte](img, n, width*height, sc)
	case 16:
		pixels, err = readPlane[int16](img, n, width*height, sc)
	case 32:
		pixels, err = readPlane[int32](img, n, width*height, sc)
	case -32:
		pixels, err = readPlane[float32](img, n, width*height, sc)
	case -64:
		pixels, err = readPlane[float64](img, n, width*height, sc)
	default:
		return nil, 0, 0, fmt.Errorf("unsupported BITPIX: %d", bitpix)
	}
	if err != nil {
		return nil, 0, 0, fmt.Errorf("reading %s pixel data: %w", path, err)
	}
	return pixels, width, height, nil
}

type scaling struct {
	bscale, bzero float64
}

func (s scaling) apply(v float64) float64 { return s.bzero + s.bscale*v }

// readPlane reads all n values of img and returns the first plane values
// scaled to physical units. fitsio fills the slice in place, so it must be
// allocated to the full size beforehand.
func readPlane[T uint8 | int16 | int32 | float32 | float64](img fitsio.Image, n, plane int, sc scaling) ([]float64, error) {
	raw := make([]T, n)
	if err := img.Read(&raw); err != nil {
		return nil, err
	}
	if len(raw) < plane {
		return nil, fmt.Errorf("short pixel data: got %d values, want %d", len(raw), plane)
	}
	pixels := make([]float64, plane)
	for i := 0; i < plane; i++ {
		pixels[i] = sc.apply(float64(raw[i]))
	}
	return pixels, nil
}

func cardFloat(hdr *fitsio.Header, key string, def float64) float64 {
	card := hdr.Get(key)
	if card == nil {
		return def
	}
	switch v := card.Value.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return def
}

// StretchGray maps pixels linearly between the 0.5 and 99.5 percentiles to an
// 8-bit grey image. NaN and Inf pixels are drawn black.
func StretchGray(pixels []float64, width, height int) *image.Gray {
	finite := make([]float64, 0, len(pixels))
	for _, v := range pixels {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			finite = append(finite, v)
		}
	}
	img := image.NewGray(image.Rect(0, 0, width, height))
	if len(finite) == 0 {
		return img
	}
	sort.Float64s(finite)
	lo := finite[int(previewLowPct*float64(len(finite)-1))]
	hi := finite[int(math.Ceil(previewHiPct*float64(len(finite)-1)))]
	span := hi - lo
	if span <= 0 {
		span = 1
	}

	// FITS rows run bottom-up.
	for y := 0; y < height; y++ {
		row := (height - 1 - y) * width
		for x := 0; x < width; x++ {
			v := pixels[row+x]
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			t := (v - lo) / span
			img.Pix[y*img.Stride+x] = uint8(clampFloat64(t, 0, 1)*255 + 0.5)
		}
	}
	return img
}

// RenderPreview writes a stretched, downsampled PNG of the FITS image at
// fitsPath to outPath, labelled with label.
func RenderPreview(fitsPath, outPath, label string) error {
	pixels, width, height, err := ReadFitsPixels(fitsPath)
	if err != nil {
		return err
	}
	gray := StretchGray(pixels, width, height)

	w, h := width, height
	if w > previewWidth {
		h = int(float64(height) * float64(previewWidth) / float64(width))
		if h < 1 {
			h = 1
		}
		w = previewWidth
	}
	small, err := downsampleGray(gray, w, h)
	if err != nil {
		return fmt.Errorf("downsampling preview: %w", err)
	}

	canvas := image.NewRGBA(small.Bounds())
	draw.Draw(canvas, canvas.Bounds(), small, small.Bounds().Min, draw.Src)
	drawText(canvas, basicfont.Face7x13, label, 6, 16, color.RGBA{255, 220, 80, 255})

	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create preview file: %w", err)
	}
	defer f.Close()
	if err := png.Encode(f, canvas); err != nil {
		return fmt.Errorf("encoding preview: %w", err)
	}
	return f.Close()
}

// drawText draws a string at (x, y) using the given font face.
func drawText(img *image.RGBA, face font.Face, s string, x, y int, c color.RGBA) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

func clampFloat64(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
