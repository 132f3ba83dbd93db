package sexbatch

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/astrogo/fitsio"
)

// FitsHeader holds the primary HDU header of a FITS file.
type FitsHeader struct {
	Bitpix int
	Axes   []int
	cards  map[string]interface{}
}

// ProbeHeader reads the primary header of the FITS file at path without
// loading pixel data.
func ProbeHeader(path string) (*FitsHeader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening FITS file: %w", err)
	}
	defer f.Close()

	fits, err := fitsio.Open(f)
	if err != nil {
		return nil, fmt.Errorf("decoding FITS file %s: %w", path, err)
	}
	defer fits.Close()

	hdr := fits.HDU(0).Header()
	h := &FitsHeader{
		Bitpix: hdr.Bitpix(),
		Axes:   append([]int(nil), hdr.Axes()...),
		cards:  make(map[string]interface{}),
	}
	for _, key := range hdr.Keys() {
		if card := hdr.Get(key); card != nil {
			h.cards[strings.ToUpper(key)] = card.Value
		}
	}
	return h, nil
}

func (h *FitsHeader) Width() int {
	if len(h.Axes) < 1 {
		return 0
	}
	return h.Axes[0]
}

func (h *FitsHeader) Height() int {
	if len(h.Axes) < 2 {
		return 0
	}
	return h.Axes[1]
}

// SameShape reports whether both headers describe images of equal dimensions.
func (h *FitsHeader) SameShape(o *FitsHeader) bool {
	if len(h.Axes) != len(o.Axes) {
		return false
	}
	for i := range h.Axes {
		if h.Axes[i] != o.Axes[i] {
			return false
		}
	}
	return true
}

func (h *FitsHeader) GetString(key string) string {
	v, ok := h.cards[strings.ToUpper(key)]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return strings.TrimRight(s, " ")
	}
	return fmt.Sprint(v)
}

func (h *FitsHeader) GetDouble(key string) (float64, bool) {
	v, ok := h.cards[strings.ToUpper(key)]
	if !ok {
		return 0, false
	}
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case string:
		d, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, false
		}
		return d, true
	}
	return 0, false
}

func (h *FitsHeader) Object() string { return h.GetString("OBJECT") }
func (h *FitsHeader) Filter() string { return h.GetString("FILTER") }

func (h *FitsHeader) ExposureTime() (float64, bool) {
	if v, ok := h.GetDouble("EXPTIME"); ok {
		return v, true
	}
	return h.GetDouble("EXPOSURE")
}
