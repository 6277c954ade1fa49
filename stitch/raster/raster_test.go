package raster

import (
	"context"
	"image"
	"image/color"
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/npillmayer/xstitch/core"
	"github.com/npillmayer/xstitch/stitch"
	"github.com/stretchr/testify/suite"
	"golang.org/x/image/font/gofont/goregular"
)

// --- Test Suite Preparation ------------------------------------------------

type RasterTestEnviron struct {
	suite.Suite
	fontPath string
}

// listen for 'go test' command --> run test methods
func TestRasterizerFunctions(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "xstitch.raster")
	defer teardown()
	suite.Run(t, new(RasterTestEnviron))
}

func (env *RasterTestEnviron) SetupSuite() {
	dir := env.T().TempDir()
	env.fontPath = filepath.Join(dir, "GoRegular.ttf")
	env.Require().NoError(ioutil.WriteFile(env.fontPath, goregular.TTF, 0644))
}

// --- Tests -----------------------------------------------------------------

func (env *RasterTestEnviron) TestRasterizeInvariants() {
	result, err := Rasterize(context.Background(), env.fontPath, nil, Params{
		Height:   12,
		Strategy: Average,
		Trim:     true,
	})
	env.Require().NoError(err)
	f := result.Font
	env.Equal(stitch.FormatVersion, f.Version)
	env.NotEmpty(f.Glyphs)
	env.Contains(f.Glyphs, "A")
	env.Contains(f.Glyphs, " ")

	maxRows := 0
	for char, g := range f.Glyphs {
		env.GreaterOrEqual(g.Width, 1, "glyph %q", char)
		env.NotEmpty(g.Bitmap, "glyph %q", char)
		for _, row := range g.Bitmap {
			env.Len(row, g.Width, "row-width law violated for %q", char)
			for _, c := range row {
				env.Contains("01", string(c), "alphabet law violated for %q", char)
			}
		}
		if len(g.Bitmap) > maxRows {
			maxRows = len(g.Bitmap)
		}
	}
	env.Equal(maxRows, f.Height, "height equals the tallest glyph")
}

func (env *RasterTestEnviron) TestRasterizeMaxInk() {
	result, err := Rasterize(context.Background(), env.fontPath, nil, Params{
		Height:   8,
		Strategy: MaxInk,
		Trim:     true,
	})
	env.Require().NoError(err)
	env.NotEmpty(result.Font.Glyphs)
	// max-ink must leave stitches in 'A'
	a := result.Font.Glyphs["A"]
	inked := 0
	for _, row := range a.Bitmap {
		for _, c := range row {
			if c == '1' {
				inked++
			}
		}
	}
	env.Greater(inked, 0)
}

func (env *RasterTestEnviron) TestRasterizeSpaceGlyph() {
	result, err := Rasterize(context.Background(), env.fontPath, nil, Params{
		Height:   10,
		Strategy: Average,
		Trim:     true,
	})
	env.Require().NoError(err)
	space, ok := result.Font.Glyphs[" "]
	env.Require().True(ok)
	env.Equal(stitch.DefaultSpaceWidth, space.Width)
	env.Len(space.Bitmap, 10)
}

func (env *RasterTestEnviron) TestRasterizeBold() {
	plain, err := Rasterize(context.Background(), env.fontPath, nil, Params{
		Height: 16, Strategy: Average, Trim: false,
	})
	env.Require().NoError(err)
	bold, err := Rasterize(context.Background(), env.fontPath, nil, Params{
		Height: 16, Strategy: Average, Bold: 1, Trim: false,
	})
	env.Require().NoError(err)
	count := func(g stitch.Glyph) (n int) {
		for _, row := range g.Bitmap {
			for _, c := range row {
				if c == '1' {
					n++
				}
			}
		}
		return n
	}
	env.Greater(count(bold.Font.Glyphs["A"]), count(plain.Font.Glyphs["A"]),
		"bold must add stitches")
}

func (env *RasterTestEnviron) TestRasterizeCancellation() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Rasterize(ctx, env.fontPath, nil, Params{
		Height: 8, Strategy: Average, Trim: true,
	})
	env.Error(err, "a cancelled conversion must not return partial results")
}

func (env *RasterTestEnviron) TestInvalidParams() {
	for _, p := range []Params{
		{Height: 3, Strategy: Average},
		{Height: 61, Strategy: Average},
		{Height: 8, Bold: 4, Strategy: Average},
		{Height: 8, Bold: -1, Strategy: Average},
		{Height: 8, Threshold: intp(256), Strategy: Average},
		{Height: 8, Threshold: intp(-1), Strategy: Average},
		{Height: 8, Strategy: Strategy(9)},
	} {
		_, err := Rasterize(context.Background(), env.fontPath, nil, p)
		env.Require().Error(err)
		env.Equal(core.EINVALID, core.Code(err))
	}
}

// --- Unit tests outside the suite ------------------------------------------

func intp(v int) *int { return &v }

func TestParseStrategy(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "xstitch.raster")
	defer teardown()
	//
	s, err := ParseStrategy("average")
	if err != nil || s != Average {
		t.Errorf("expected 'average' to parse, have %v/%v", s, err)
	}
	s, err = ParseStrategy("max-ink")
	if err != nil || s != MaxInk {
		t.Errorf("expected 'max-ink' to parse, have %v/%v", s, err)
	}
	if _, err = ParseStrategy("median"); err == nil {
		t.Errorf("expected unknown strategy to be rejected")
	}
}

// gradientStripe paints a wide dark stripe on white.
func gradientStripe(w, h int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if y >= h/4 && y < 3*h/4 {
				img.SetGray(x, y, color.Gray{Y: 20})
			} else {
				img.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return img
}

func TestBinarizeDimensions(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "xstitch.raster")
	defer teardown()
	//
	content := gradientStripe(120, 80)
	for _, strategy := range []Strategy{Average, MaxInk} {
		bitmap := binarize(content, 8, 12, nil, strategy)
		if len(bitmap) != 8 {
			t.Fatalf("expected 8 rows for %v, have %d", strategy, len(bitmap))
		}
		for _, row := range bitmap {
			if len(row) != 12 {
				t.Errorf("expected 12 columns for %v, have %d", strategy, len(row))
			}
		}
	}
}

func TestBinarizeMaxInkPreservesThinStroke(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "xstitch.raster")
	defer teardown()
	//
	// a one-pixel line in a 100px-tall region disappears under
	// averaging but must survive max-ink
	img := image.NewGray(image.Rect(0, 0, 100, 100))
	for y := 0; y < 100; y++ {
		for x := 0; x < 100; x++ {
			img.SetGray(x, y, color.Gray{Y: 255})
		}
	}
	for x := 0; x < 100; x++ {
		img.SetGray(x, 50, color.Gray{Y: 0})
	}
	threshold := 128
	bitmap := binarize(img, 10, 10, &threshold, MaxInk)
	inked := 0
	for _, row := range bitmap {
		for _, c := range row {
			if c == '1' {
				inked++
			}
		}
	}
	if inked != 10 {
		t.Errorf("expected the full one-pixel stroke row to survive, have %d cells", inked)
	}
}

func TestPerGlyphScaling(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "xstitch.raster")
	defer teardown()
	//
	// aspect preservation: emitted width tracks round(w/h * height)
	for _, dims := range [][2]int{{120, 80}, {37, 91}, {200, 10}} {
		w, h := dims[0], dims[1]
		targetH := 10
		targetW := int(float64(w)*float64(targetH)/float64(h) + 0.5)
		if targetW < 1 {
			targetW = 1
		}
		bitmap := binarize(gradientStripe(w, h), targetH, targetW, nil, Average)
		if len(bitmap[0]) != targetW {
			t.Errorf("expected width %d for %dx%d, have %d", targetW, w, h, len(bitmap[0]))
		}
	}
}
