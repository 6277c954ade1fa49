package charset

import (
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/npillmayer/xstitch/core/font"
	"github.com/stretchr/testify/assert"
)

func TestCharsetNames(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "xstitch.fonts")
	defer teardown()
	//
	basic, err := Charset("basic")
	assert.NoError(t, err)
	assert.True(t, basic['A'])
	assert.True(t, basic[' '])
	assert.False(t, basic['@'], "'@' is extended-only")
	extended, err := Charset("extended")
	assert.NoError(t, err)
	assert.True(t, extended['@'])
	assert.True(t, extended['~'])
	_, err = Charset("cyrillic")
	assert.Error(t, err, "expected unknown charset to be rejected")
}

func TestIsPrintable(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "xstitch.fonts")
	defer teardown()
	//
	assert.True(t, IsPrintable(' '), "space is printable")
	assert.True(t, IsPrintable('A'))
	assert.False(t, IsPrintable('\t'), "controls are not printable")
	assert.False(t, IsPrintable('\x00'))
}

func TestFilterWithExclusion(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "xstitch.fonts")
	defer teardown()
	//
	cmap := font.CodepointMap{
		'A':  1,
		'@':  2,
		'B':  3,
		'\t': 4,
		'~':  5,
	}
	result, err := Filter(cmap, "basic", Set("~"))
	assert.NoError(t, err)
	// '@' is extended-only, '\t' is a control, '~' is excluded
	assert.Equal(t, []CodeChar{{Code: 'A', Char: "A"}, {Code: 'B', Char: "B"}}, result)
}

func TestFilterSortsByCodepoint(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "xstitch.fonts")
	defer teardown()
	//
	cmap := font.CodepointMap{'z': 1, 'a': 2, 'M': 3, '0': 4}
	result, err := Filter(cmap, "basic", nil)
	assert.NoError(t, err)
	for i := 1; i < len(result); i++ {
		assert.Less(t, result[i-1].Code, result[i].Code, "expected ascending codepoints")
	}
}

func TestDefaultExcludeChars(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "xstitch.fonts")
	defer teardown()
	//
	exclude := DefaultExcludeChars()
	for _, r := range "|~_" {
		assert.True(t, exclude[r])
	}
	assert.Len(t, exclude, 3)
}
