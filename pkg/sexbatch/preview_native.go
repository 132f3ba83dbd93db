//go:build !purego && !js

package sexbatch

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// downsampleGray resizes src to w x h with OpenCV area interpolation.
func downsampleGray(src *image.Gray, w, h int) (image.Image, error) {
	if src.Bounds().Dx() == w && src.Bounds().Dy() == h {
		return src, nil
	}
	m, err := gocv.ImageGrayToMatGray(src)
	if err != nil {
		return nil, fmt.Errorf("converting to Mat: %w", err)
	}
	defer m.Close()

	dst := gocv.NewMat()
	defer dst.Close()
	gocv.Resize(m, &dst, image.Pt(w, h), 0, 0, gocv.InterpolationArea)
	if dst.Empty() {
		return nil, fmt.Errorf("resize to %dx%d produced an empty Mat", w, h)
	}
	return dst.ToImage()
}
