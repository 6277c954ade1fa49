package extract

import (
	"context"
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/npillmayer/xstitch/stitch"
	"github.com/stretchr/testify/suite"
	"golang.org/x/image/font/gofont/goregular"
)

// --- Test Suite Preparation ------------------------------------------------

type ExtractTestEnviron struct {
	suite.Suite
	fontPath string
}

// listen for 'go test' command --> run test methods
func TestExtractorFunctions(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "xstitch.stitch")
	defer teardown()
	suite.Run(t, new(ExtractTestEnviron))
}

func (env *ExtractTestEnviron) SetupSuite() {
	dir := env.T().TempDir()
	env.fontPath = filepath.Join(dir, "GoRegular.ttf")
	env.Require().NoError(ioutil.WriteFile(env.fontPath, goregular.TTF, 0644))
}

// --- Tests -----------------------------------------------------------------

// Go Regular is not a pre-gridded font, but with an explicit cell size
// the pipeline must still produce a structurally valid font record.
func (env *ExtractTestEnviron) TestExtractInvariants() {
	result, err := Extract(context.Background(), env.fontPath, nil, Params{
		CellUnits:  100,
		RenderSize: 400, // keep the test fast; quality is irrelevant here
	})
	env.Require().NoError(err)
	env.Equal(100, result.CellUnits)
	env.Equal(1.0, result.Confidence, "an override is always trusted")

	f := result.Font
	env.Equal(stitch.FormatVersion, f.Version)
	env.NotEmpty(f.Glyphs)
	env.Contains(f.Glyphs, "A")

	maxRows := 0
	for char, g := range f.Glyphs {
		env.GreaterOrEqual(g.Width, 1, "glyph %q", char)
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
	env.Equal(maxRows, f.Height)
}

func (env *ExtractTestEnviron) TestExtractSpaceGlyph() {
	result, err := Extract(context.Background(), env.fontPath, nil, Params{
		CellUnits:  100,
		RenderSize: 400,
	})
	env.Require().NoError(err)
	space, ok := result.Font.Glyphs[" "]
	env.Require().True(ok, "space maps to a blank glyph, not a skip")
	env.Equal(stitch.DefaultSpaceWidth, space.Width)
	env.Len(space.Bitmap, 4)
	for _, row := range space.Bitmap {
		env.Equal("000", row)
	}
}

func (env *ExtractTestEnviron) TestExtractExcludesFormattingChars() {
	opts := stitch.NewOptions()
	opts.Charset = "extended"
	result, err := Extract(context.Background(), env.fontPath, opts, Params{
		CellUnits:  100,
		RenderSize: 400,
	})
	env.Require().NoError(err)
	for _, char := range []string{"|", "~", "_"} {
		env.NotContains(result.Font.Glyphs, char,
			"formatting characters are excluded by default")
	}
}

func (env *ExtractTestEnviron) TestExtractCancellation() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Extract(ctx, env.fontPath, nil, Params{CellUnits: 100, RenderSize: 400})
	env.Error(err)
}

func (env *ExtractTestEnviron) TestExtractMissingFile() {
	_, err := Extract(context.Background(), filepath.Join(env.T().TempDir(), "nope.ttf"),
		nil, Params{CellUnits: 100})
	env.Error(err)
}

// --- Unit tests outside the suite ------------------------------------------

func TestGridCount(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "xstitch.stitch")
	defer teardown()
	//
	for _, tc := range []struct {
		extent float64
		units  int
		want   int
	}{
		{extent: 570, units: 57, want: 10},
		{extent: 585, units: 57, want: 10},
		{extent: 10, units: 57, want: 1},
		{extent: 0, units: 57, want: 1},
	} {
		if got := gridCount(tc.extent, tc.units); got != tc.want {
			t.Errorf("gridCount(%.0f, %d) = %d, want %d", tc.extent, tc.units, got, tc.want)
		}
	}
}
