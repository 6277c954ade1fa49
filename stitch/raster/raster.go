/*
Package raster converts arbitrary TrueType/OpenType fonts into bitmap
stitch fonts at a fixed target height, one pixel per stitch.

Unlike the extraction pipeline, which recovers the design grid of fonts
drawn on stitch cells, this pipeline renders each glyph oversized, crops
it to its ink box, reduces it to the target height by one of two
strategies and binarizes the result. Morphological dilation thickens
thin strokes that would otherwise appear broken at low resolutions.
*/
package raster

import (
	"context"

	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/xstitch/core"
	"github.com/npillmayer/xstitch/core/charset"
	"github.com/npillmayer/xstitch/core/font"
	"github.com/npillmayer/xstitch/stitch"
	"github.com/npillmayer/xstitch/stitch/render"
)

// tracer traces with key 'xstitch.raster'.
func tracer() tracing.Trace {
	return tracing.Select("xstitch.raster")
}

// Allowed parameter ranges.
const (
	MinHeight = 4
	MaxHeight = 60
	MaxBold   = 3
)

// oversample is the factor between target height and render size.
// Rendering that much larger makes downsampling insensitive to subpixel
// placement; anything at or above 10 would do.
const oversample = 20

// Params control one rasterization run.
type Params struct {
	Height    int      // target height in stitches
	Threshold *int     // binarization threshold 0-255; nil = auto
	Bold      int      // dilation radius 0-3
	Strategy  Strategy // Average or MaxInk
	Trim      bool     // remove blank border rows/columns per glyph
}

// Result of rasterizing a font.
type Result struct {
	Font         *stitch.Font
	TargetHeight int
	Skipped      []string
}

func (p Params) validate() error {
	if p.Height < MinHeight || p.Height > MaxHeight {
		return core.Error(core.EINVALID, "height %d out of range [%d,%d]", p.Height, MinHeight, MaxHeight)
	}
	if p.Threshold != nil && (*p.Threshold < 0 || *p.Threshold > 255) {
		return core.Error(core.EINVALID, "threshold %d out of range [0,255]", *p.Threshold)
	}
	if p.Bold < 0 || p.Bold > MaxBold {
		return core.Error(core.EINVALID, "bold %d out of range [0,%d]", p.Bold, MaxBold)
	}
	if p.Strategy != Average && p.Strategy != MaxInk {
		return core.Error(core.EINVALID, "strategy %d unknown", int(p.Strategy))
	}
	return nil
}

// Rasterize converts the font at fontPath into a bitmap stitch font of
// p.Height stitches. Characters without ink are reported in
// Result.Skipped rather than failing the conversion. Cancellation is
// honored at glyph boundaries.
func Rasterize(ctx context.Context, fontPath string, opts *stitch.Options, p Params) (*Result, error) {
	if opts == nil {
		opts = stitch.NewOptions()
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	sf, err := font.LoadOpenTypeFont(fontPath)
	if err != nil {
		return nil, err
	}
	meta := stitch.ResolveMetadata(sf, opts)

	renderSize := p.Height * oversample
	rnd, err := render.New(sf, renderSize)
	if err != nil {
		return nil, core.WrapError(err, core.EBADFONT, "cannot prepare font face for %s", sf.Fontname)
	}
	defer rnd.Close()

	exclude := opts.ExcludeChars
	if exclude == nil {
		exclude = map[rune]bool{} // rasterization excludes nothing by default
	}
	chars, err := charset.Filter(sf.CodepointMap(), opts.Charset, exclude)
	if err != nil {
		return nil, err
	}

	glyphs := make(map[string]stitch.Glyph)
	var skipped []string

	for _, cc := range chars {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if cc.Code == ' ' {
			glyphs[cc.Char] = stitch.Glyph{
				Width:  opts.SpaceWidth,
				Bitmap: stitch.BlankRows(opts.SpaceWidth, p.Height),
			}
			continue
		}
		bitmap, ok := rasterizeGlyph(rnd, cc.Code, p)
		if !ok {
			skipped = append(skipped, cc.Char)
			continue
		}
		if opts.Verbose {
			tracer().Infof("  '%s': %dx%d stitches", cc.Char, len(bitmap[0]), len(bitmap))
		}
		glyphs[cc.Char] = stitch.Glyph{Width: len(bitmap[0]), Bitmap: bitmap}
	}

	height := 0
	for _, g := range glyphs {
		if len(g.Bitmap) > height {
			height = len(g.Bitmap)
		}
	}
	if height == 0 {
		height = p.Height
	}

	fontV2 := stitch.NewFont(meta, opts.Charset, opts.SpaceWidth, height, glyphs)
	return &Result{Font: fontV2, TargetHeight: p.Height, Skipped: skipped}, nil
}

// rasterizeGlyph renders, crops, scales, binarizes and post-processes a
// single character. It reports ok == false for characters that end up
// without ink (empty outline, degenerate box, or trimmed away).
func rasterizeGlyph(rnd *render.Renderer, char rune, p Params) (stitch.Bitmap, bool) {
	img, bbox, ok := rnd.Glyph(char)
	if !ok {
		return nil, false
	}
	contentW := bbox.Dx()
	contentH := bbox.Dy()
	if contentW <= 0 || contentH <= 0 {
		return nil, false
	}
	content := render.Crop(img, bbox)

	// Per-glyph scaling: each character's ink box fills the target
	// height. Proportions between upper- and lowercase are not
	// preserved; see DESIGN.md.
	targetW := int(float64(contentW)*float64(p.Height)/float64(contentH) + 0.5)
	if targetW < 1 {
		targetW = 1
	}

	bitmap := binarize(content, p.Height, targetW, p.Threshold, p.Strategy)
	if p.Bold > 0 {
		bitmap = bitmap.Dilate(p.Bold)
	}
	if p.Trim {
		bitmap = bitmap.Trim()
	}
	if len(bitmap) == 0 || len(bitmap[0]) == 0 {
		return nil, false
	}
	return bitmap, true
}
