//go:build purego || js

package sexbatch

import "image"

// downsampleGray resizes src to w x h by nearest-neighbour sampling.
func downsampleGray(src *image.Gray, w, h int) (image.Image, error) {
	sw, sh := src.Bounds().Dx(), src.Bounds().Dy()
	if sw == w && sh == h {
		return src, nil
	}
	dst := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		sy := y * sh / h
		for x := 0; x < w; x++ {
			sx := x * sw / w
			dst.Pix[y*dst.Stride+x] = src.Pix[sy*src.Stride+sx]
		}
	}
	return dst, nil
}
