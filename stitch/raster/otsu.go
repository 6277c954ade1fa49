package raster

import "image"

// Otsu computes a binarization threshold from a 256-bin intensity
// histogram by maximizing the between-class variance
// w_bg * w_fg * (mu_bg - mu_fg)^2. The result is the lowest intensity of
// the light class, so intensities below it form the dark class. For a
// histogram with all mass in one bin it returns 128. Better than a fixed
// 128 for fonts with thin strokes or heavy anti-aliasing.
func Otsu(hist [256]int) int {
	total := 0
	for _, n := range hist {
		total += n
	}
	if total == 0 {
		return 128
	}
	sumAll := 0.0
	for i, n := range hist {
		sumAll += float64(i) * float64(n)
	}
	sumBg := 0.0
	weightBg := 0
	maxVariance := 0.0
	best := 128
	for t := 0; t < 256; t++ {
		weightBg += hist[t]
		if weightBg == 0 {
			continue
		}
		weightFg := total - weightBg
		if weightFg == 0 {
			break
		}
		sumBg += float64(t) * float64(hist[t])
		meanBg := sumBg / float64(weightBg)
		meanFg := (sumAll - sumBg) / float64(weightFg)
		diff := meanBg - meanFg
		variance := float64(weightBg) * float64(weightFg) * diff * diff
		if variance > maxVariance {
			maxVariance = variance
			best = t + 1 // bins 0..t are the dark class
		}
	}
	return best
}

// Histogram counts the intensities of a grayscale image into 256 bins.
func Histogram(img *image.Gray) (hist [256]int) {
	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			hist[img.GrayAt(x, y).Y]++
		}
	}
	return hist
}
