package ocr

import (
	"image"
	"image/color"
	"os"

	"github.com/disintegration/imaging"
)

// prepareImage writes a cleaned-up copy of the receipt to a temp PNG:
// grayscale, contrast boost, sharpen, upscale small scans, global threshold.
// Returns the temp path and a cleanup func; on any failure it falls back to
// the original path with a no-op cleanup.
func prepareImage(path string) (string, func()) {
	noop := func() {}
	img, err := imaging.Open(path)
	if err != nil {
		return path, noop
	}
	gray := imaging.Grayscale(img)
	gray = imaging.AdjustContrast(gray, 15)
	gray = imaging.Sharpen(gray, 0.7)
	// thermal printer receipts are often tiny; upscale before thresholding
	if gray.Bounds().Dy() < 900 {
		gray = imaging.Resize(gray, 0, 1300, imaging.Lanczos)
	}
	bin := binarize(gray, 210)

	tmpFile, err := os.CreateTemp("", "bukti-ocr-*.png")
	if err != nil {
		return path, noop
	}
	tmp := tmpFile.Name()
	_ = tmpFile.Close()
	if err := imaging.Save(bin, tmp); err != nil {
		_ = os.Remove(tmp)
		return path, noop
	}
	return tmp, func() { _ = os.Remove(tmp) }
}

// binarize performs a simple global threshold on a grayscale image.
func binarize(img image.Image, threshold uint8) *image.NRGBA {
	b := img.Bounds()
	out := image.NewNRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bb, _ := img.At(x, y).RGBA()
			gray := uint8((r + g + bb) / 3 >> 8)
			var v uint8 = 255
			if gray <= threshold {
				v = 0
			}
			out.Set(x, y, color.NRGBA{R: v, G: v, B: v, A: 255})
		}
	}
	return out
}
