/*
Package sampler decides stitch fill states by sampling cell centers of a
rendered glyph.

The font metrics give exact grid dimensions (ink bounds divided by the
cell size) and the renderer resolves all TrueType winding and fill
rules; sampling the center region of each cell is then enough to read
back the on/off state. Centered samples are insensitive to anti-aliased
haloing and to the inter-cell gap of pre-gridded fonts.
*/
package sampler

import (
	"image"

	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/xstitch/stitch"
)

// tracer traces with key 'xstitch.stitch'.
func tracer() tracing.Trace {
	return tracing.Select("xstitch.stitch")
}

// Sampling defaults.
const (
	DefaultSamplePct     = 0.4  // sample the center 40% of each cell
	DefaultFillThreshold = 0.15 // minimum dark-pixel ratio for a filled cell
)

// darkMax is the exclusive upper intensity bound for a pixel to count
// as ink.
const darkMax = 128

// Sample divides bbox into rows x cols equal cells and emits '1' for
// every cell whose centered sample region holds more than fillThreshold
// dark pixels. The sample region covers samplePct of the cell in each
// dimension, clipped to the canvas; a degenerate region emits '0'. A
// cell at exactly the threshold resolves to '0'.
func Sample(img *image.Gray, bbox image.Rectangle, rows, cols int, samplePct, fillThreshold float64) stitch.Bitmap {
	cellW := float64(bbox.Dx()) / float64(cols)
	cellH := float64(bbox.Dy()) / float64(rows)
	halfSample := samplePct / 2

	bitmap := make(stitch.Bitmap, 0, rows)
	for row := 0; row < rows; row++ {
		rowStr := make([]byte, cols)
		for col := 0; col < cols; col++ {
			cx := float64(bbox.Min.X) + (float64(col)+0.5)*cellW
			cy := float64(bbox.Min.Y) + (float64(row)+0.5)*cellH
			rowStr[col] = sampleCell(img, cx, cy, cellW, cellH, halfSample, fillThreshold)
		}
		bitmap = append(bitmap, string(rowStr))
	}
	tracer().Debugf("sampled %dx%d grid from %v", cols, rows, bbox)
	return bitmap
}

func sampleCell(img *image.Gray, cx, cy, cellW, cellH, halfSample, fillThreshold float64) byte {
	bounds := img.Bounds()
	x1 := int(cx - cellW*halfSample)
	y1 := int(cy - cellH*halfSample)
	x2 := int(cx + cellW*halfSample)
	y2 := int(cy + cellH*halfSample)
	if x1 < bounds.Min.X {
		x1 = bounds.Min.X
	}
	if y1 < bounds.Min.Y {
		y1 = bounds.Min.Y
	}
	if x2 > bounds.Max.X {
		x2 = bounds.Max.X
	}
	if y2 > bounds.Max.Y {
		y2 = bounds.Max.Y
	}
	if x2 <= x1 || y2 <= y1 {
		return '0'
	}
	total := (x2 - x1) * (y2 - y1)
	dark := 0
	for y := y1; y < y2; y++ {
		for x := x1; x < x2; x++ {
			if img.GrayAt(x, y).Y < darkMax {
				dark++
			}
		}
	}
	if float64(dark)/float64(total) > fillThreshold {
		return '1'
	}
	return '0'
}
