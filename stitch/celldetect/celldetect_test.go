package celldetect

import (
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/gofont/goregular"
)

func testFontFile(t *testing.T) string {
	path := filepath.Join(t.TempDir(), "GoRegular.ttf")
	require.NoError(t, ioutil.WriteFile(path, goregular.TTF, 0644))
	return path
}

func TestDetectOverride(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "xstitch.stitch")
	defer teardown()
	//
	units, confidence, err := Detect("does-not-matter.ttf", 57)
	require.NoError(t, err)
	assert.Equal(t, 57, units)
	assert.Equal(t, 1.0, confidence)
}

func TestKnownFamilyMatch(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "xstitch.stitch")
	defer teardown()
	//
	units, ok := matchKnownFamily([]string{"ACSF Brave Regular"})
	require.True(t, ok, "a name containing ACSF must match the family table")
	assert.Equal(t, 57, units)

	units, ok = matchKnownFamily([]string{"", "something acsf something"})
	require.True(t, ok)
	assert.Equal(t, 57, units)

	_, ok = matchKnownFamily([]string{"Go Regular", "Go"})
	assert.False(t, ok)
}

func TestRegisterFamily(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "xstitch.stitch")
	defer teardown()
	//
	RegisterFamily("StitchTest", 44)
	defer delete(knownCellUnits, "stitchtest")
	units, ok := matchKnownFamily([]string{"My StitchTest Font"})
	require.True(t, ok)
	assert.Equal(t, 44, units)
}

func TestDetectOnRegularFont(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "xstitch.stitch")
	defer teardown()
	//
	units, confidence, err := Detect(testFontFile(t), 0)
	require.NoError(t, err)
	// Go Regular is not a gridded font; the search must still return a
	// candidate from the range with a confidence in [0,1].
	assert.GreaterOrEqual(t, units, CellUnitsMin)
	assert.LessOrEqual(t, units, CellUnitsMax)
	assert.GreaterOrEqual(t, confidence, 0.0)
	assert.LessOrEqual(t, confidence, 1.0)
}

func TestDetectMissingFile(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "xstitch.stitch")
	defer teardown()
	//
	_, _, err := Detect(filepath.Join(t.TempDir(), "nope.ttf"), 0)
	assert.Error(t, err)
}
