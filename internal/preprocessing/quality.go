package preprocessing

import (
	"image"
	"math"

	xdraw "golang.org/x/image/draw"
)

// qualitySampleSize is the longest edge pages are downscaled to before
// scoring; contrast statistics are stable at this resolution and the
// scorer stays cheap on 300 DPI input.
const qualitySampleSize = 256

// scoreQuality estimates legibility of a page image in [0,1] from the
// spread of its luminance histogram. Blank or heavily washed-out scans
// concentrate luminance into a narrow band and score near zero; a crisp
// text page has strong bimodal contrast and scores high.
func scoreQuality(img image.Image) float64 {
	sample := downscale(img, qualitySampleSize)
	b := sample.Bounds()
	n := float64(b.Dx() * b.Dy())
	if n == 0 {
		return 0
	}

	var sum, sumSq float64
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := sample.At(x, y).RGBA()
			// ITU-R BT.601 luma, 16-bit channels normalized to [0,1].
			lum := (0.299*float64(r) + 0.587*float64(g) + 0.114*float64(bl)) / 65535.0
			sum += lum
			sumSq += lum * lum
		}
	}
	mean := sum / n
	variance := sumSq/n - mean*mean
	if variance < 0 {
		variance = 0
	}

	// Standard deviation of ~0.25 or better reads as full contrast.
	score := math.Sqrt(variance) / 0.25
	if score > 1 {
		score = 1
	}
	return score
}

func downscale(img image.Image, maxEdge int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxEdge && h <= maxEdge {
		return img
	}
	scale := float64(maxEdge) / float64(max(w, h))
	dst := image.NewRGBA(image.Rect(0, 0, int(float64(w)*scale), int(float64(h)*scale)))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, xdraw.Over, nil)
	return dst
}
