package raster

import (
	"image"

	"github.com/npillmayer/xstitch/core"
	"github.com/npillmayer/xstitch/stitch"
	xdraw "golang.org/x/image/draw"
)

// Strategy selects how a cropped ink region is reduced to one bit per
// stitch. The set is closed.
type Strategy int

const (
	// Average resizes with a high-quality separable filter, then
	// thresholds. Good for clean fonts.
	Average Strategy = iota
	// MaxInk partitions the full-resolution region into cells and fills
	// a cell when its darkest pixel is inked. Preserves one-pixel script
	// strokes that averaging erases.
	MaxInk
)

func (s Strategy) String() string {
	switch s {
	case Average:
		return "average"
	case MaxInk:
		return "max-ink"
	}
	return "unknown"
}

// ParseStrategy maps the wire names "average" and "max-ink" onto the
// strategy enum.
func ParseStrategy(name string) (Strategy, error) {
	switch name {
	case "average":
		return Average, nil
	case "max-ink":
		return MaxInk, nil
	}
	return 0, core.Error(core.EINVALID, "unknown strategy '%s', expected 'average' or 'max-ink'", name)
}

// maxInkDefaultThreshold applies when the max-ink strategy runs without
// an explicit threshold.
const maxInkDefaultThreshold = 200

// binarize reduces a cropped ink region to a targetH x targetW bitmap.
// A nil threshold means auto: Otsu for the average strategy, 200 for
// max-ink. An explicit threshold is used verbatim by both.
func binarize(content *image.Gray, targetH, targetW int, threshold *int, strategy Strategy) stitch.Bitmap {
	if strategy == MaxInk {
		return binarizeMaxInk(content, targetH, targetW, threshold)
	}
	return binarizeAverage(content, targetH, targetW, threshold)
}

func binarizeAverage(content *image.Gray, targetH, targetW int, threshold *int) stitch.Bitmap {
	scaled := image.NewGray(image.Rect(0, 0, targetW, targetH))
	xdraw.CatmullRom.Scale(scaled, scaled.Bounds(), content, content.Bounds(), xdraw.Src, nil)

	t := 0
	if threshold != nil {
		t = *threshold
	} else {
		t = Otsu(Histogram(scaled))
	}

	bitmap := make(stitch.Bitmap, 0, targetH)
	for y := 0; y < targetH; y++ {
		row := make([]byte, targetW)
		for x := 0; x < targetW; x++ {
			if int(scaled.GrayAt(x, y).Y) < t {
				row[x] = '1'
			} else {
				row[x] = '0'
			}
		}
		bitmap = append(bitmap, string(row))
	}
	return bitmap
}

// binarizeMaxInk works on the full-resolution region: cell boundaries
// are computed in floating point and floored to pixel ranges, and a
// cell fills when its darkest pixel is below the threshold.
func binarizeMaxInk(content *image.Gray, targetH, targetW int, threshold *int) stitch.Bitmap {
	t := maxInkDefaultThreshold
	if threshold != nil {
		t = *threshold
	}
	contentW := content.Bounds().Dx()
	contentH := content.Bounds().Dy()
	cellH := float64(contentH) / float64(targetH)
	cellW := float64(contentW) / float64(targetW)

	bitmap := make(stitch.Bitmap, 0, targetH)
	for row := 0; row < targetH; row++ {
		rowStr := make([]byte, targetW)
		for col := 0; col < targetW; col++ {
			y1 := int(float64(row) * cellH)
			y2 := int(float64(row+1) * cellH)
			if y2 > contentH {
				y2 = contentH
			}
			x1 := int(float64(col) * cellW)
			x2 := int(float64(col+1) * cellW)
			if x2 > contentW {
				x2 = contentW
			}
			if darkestPixel(content, x1, y1, x2, y2) < t {
				rowStr[col] = '1'
			} else {
				rowStr[col] = '0'
			}
		}
		bitmap = append(bitmap, string(rowStr))
	}
	return bitmap
}

func darkestPixel(img *image.Gray, x1, y1, x2, y2 int) int {
	min := 255
	for y := y1; y < y2; y++ {
		for x := x1; x < x2; x++ {
			if v := int(img.GrayAt(x, y).Y); v < min {
				min = v
				if min == 0 {
					return 0
				}
			}
		}
	}
	return min
}
