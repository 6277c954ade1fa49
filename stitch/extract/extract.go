/*
Package extract converts pre-gridded cross-stitch fonts into bitmap
stitch fonts.

Such fonts compose every glyph from square cells of a fixed size in
font-design units. The pipeline recovers that size, derives each glyph's
exact row and column counts from its ink bounds, renders the glyph at
high resolution and reads each cell's fill state from a centered sample.
The grid counts are authoritative: bitmaps are not trimmed, so empty
border rows preserve the baseline alignment of the design grid.
*/
package extract

import (
	"context"

	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/xstitch/core"
	"github.com/npillmayer/xstitch/core/charset"
	"github.com/npillmayer/xstitch/core/font"
	"github.com/npillmayer/xstitch/stitch"
	"github.com/npillmayer/xstitch/stitch/celldetect"
	"github.com/npillmayer/xstitch/stitch/render"
	"github.com/npillmayer/xstitch/stitch/sampler"
)

// tracer traces with key 'xstitch.stitch'.
func tracer() tracing.Trace {
	return tracing.Select("xstitch.stitch")
}

// spaceGlyphRows is the row count of the blank space glyph emitted by
// extraction.
const spaceGlyphRows = 4

// Params control one extraction run. Zero values select the defaults.
type Params struct {
	CellUnits     int     // override cell detection; <= 0 means detect
	RenderSize    int     // render height in pixels; 0 means 2000
	SamplePct     float64 // fraction of a cell to sample; 0 means 0.4
	FillThreshold float64 // minimum dark ratio for a filled cell; 0 means 0.15
}

func (p *Params) fillDefaults() {
	if p.RenderSize == 0 {
		p.RenderSize = render.DefaultRenderSize
	}
	if p.SamplePct == 0 {
		p.SamplePct = sampler.DefaultSamplePct
	}
	if p.FillThreshold == 0 {
		p.FillThreshold = sampler.DefaultFillThreshold
	}
}

// Result of extracting a font.
type Result struct {
	Font       *stitch.Font
	CellUnits  int
	Confidence float64
	Skipped    []string
}

// Extract runs the extraction pipeline on the font at fontPath.
// Characters that yield no ink are reported in Result.Skipped.
// Cancellation is honored at glyph boundaries.
func Extract(ctx context.Context, fontPath string, opts *stitch.Options, p Params) (*Result, error) {
	if opts == nil {
		opts = stitch.NewOptions()
	}
	p.fillDefaults()

	units, confidence, err := celldetect.Detect(fontPath, p.CellUnits)
	if err != nil {
		return nil, err
	}
	if opts.Verbose {
		tracer().Infof("cell units: %d (confidence: %.2f)", units, confidence)
	}

	sf, err := font.LoadOpenTypeFont(fontPath)
	if err != nil {
		return nil, err
	}
	meta := stitch.ResolveMetadata(sf, opts)

	exclude := opts.ExcludeChars
	if exclude == nil {
		exclude = charset.DefaultExcludeChars()
	}
	chars, err := charset.Filter(sf.CodepointMap(), opts.Charset, exclude)
	if err != nil {
		return nil, err
	}

	rnd, err := render.New(sf, p.RenderSize)
	if err != nil {
		return nil, core.WrapError(err, core.EBADFONT, "cannot prepare font face for %s", sf.Fontname)
	}
	defer rnd.Close()

	glyphs := make(map[string]stitch.Glyph)
	var skipped []string

	for _, cc := range chars {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		bbox, ok := sf.InkBBox(cc.Code)
		if !ok {
			if cc.Code == ' ' {
				glyphs[cc.Char] = stitch.Glyph{
					Width:  opts.SpaceWidth,
					Bitmap: stitch.BlankRows(opts.SpaceWidth, spaceGlyphRows),
				}
			} else {
				skipped = append(skipped, cc.Char)
			}
			continue
		}

		cols := gridCount(bbox.W(), units)
		rows := gridCount(bbox.H(), units)
		if opts.Verbose {
			tracer().Infof("  '%s': %dx%d cells (%.0fx%.0f units)", cc.Char, cols, rows, bbox.W(), bbox.H())
		}

		img, imgBBox, ok := rnd.Glyph(cc.Code)
		if !ok {
			skipped = append(skipped, cc.Char)
			continue
		}
		bitmap := sampler.Sample(img, imgBBox, rows, cols, p.SamplePct, p.FillThreshold)
		if len(bitmap) == 0 || len(bitmap[0]) == 0 {
			skipped = append(skipped, cc.Char)
			continue
		}
		glyphs[cc.Char] = stitch.Glyph{Width: cols, Bitmap: bitmap}
	}

	height := 1
	for _, g := range glyphs {
		if len(g.Bitmap) > height {
			height = len(g.Bitmap)
		}
	}

	fontV2 := stitch.NewFont(meta, opts.Charset, opts.SpaceWidth, height, glyphs)
	return &Result{
		Font:       fontV2,
		CellUnits:  units,
		Confidence: confidence,
		Skipped:    skipped,
	}, nil
}

// gridCount converts a font-unit extent into a stitch count, at least 1.
func gridCount(extent float64, units int) int {
	n := int(extent/float64(units) + 0.5)
	if n < 1 {
		n = 1
	}
	return n
}
