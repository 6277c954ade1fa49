/*
Package stitch holds the data model for bitmap stitch fonts: glyph
bitmaps over the alphabet {0,1}, the font record serialized as bitmap
font JSON v2, conversion options, and metadata inference.

One bitmap cell corresponds to one cross-stitch; rows run top to bottom,
columns left to right. A font record is constructed once per conversion,
serialized, and never mutated afterwards.
*/
package stitch

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/xstitch/core"
)

// tracer traces with key 'xstitch.stitch'.
func tracer() tracing.Trace {
	return tracing.Select("xstitch.stitch")
}

// Glyph is a single glyph: width plus bitmap rows of '0'/'1' strings.
// Every row has length Width.
type Glyph struct {
	Width  int    `json:"width"`
	Bitmap Bitmap `json:"bitmap"`
}

// Font is a complete bitmap font in JSON v2 format. Field order matches
// the serialized key order of the v2 contract.
type Font struct {
	Version       int              `json:"version"` // always 2
	ID            string           `json:"id"`      // kebab-case slug
	Name          string           `json:"name"`
	Height        int              `json:"height"`
	LetterSpacing int              `json:"letterSpacing"`
	SpaceWidth    int              `json:"spaceWidth"`
	Source        string           `json:"source"`
	License       string           `json:"license"`
	Charset       string           `json:"charset"`
	Category      string           `json:"category"`
	Tags          []string         `json:"tags"`
	Glyphs        map[string]Glyph `json:"glyphs"`
}

// FormatVersion is the bitmap font JSON format this package writes.
const FormatVersion = 2

// ValidCategories are the category values the v2 format accepts.
var ValidCategories = []string{"serif", "sans-serif", "script", "pixel", "decorative", "gothic"}

// IsValidCategory reports whether c is one of the six v2 categories.
func IsValidCategory(c string) bool {
	for _, v := range ValidCategories {
		if v == c {
			return true
		}
	}
	return false
}

// NewFont assembles a font record from resolved metadata and glyphs.
func NewFont(meta Metadata, charsetName string, spaceWidth, height int, glyphs map[string]Glyph) *Font {
	tags := meta.Tags
	if tags == nil {
		tags = []string{}
	}
	return &Font{
		Version:       FormatVersion,
		ID:            meta.Slug,
		Name:          meta.DisplayName,
		Height:        height,
		LetterSpacing: meta.LetterSpacing,
		SpaceWidth:    spaceWidth,
		Source:        meta.Source,
		License:       meta.License,
		Charset:       charsetName,
		Category:      meta.Category,
		Tags:          tags,
		Glyphs:        glyphs,
	}
}

// MarshalV2 serializes the font record. The output is canonical: struct
// fields keep their declared order and glyph map keys are sorted, so two
// structurally identical records serialize byte-identically.
func (f *Font) MarshalV2() ([]byte, error) {
	data, err := json.Marshal(f)
	if err != nil {
		return nil, core.WrapError(err, core.EINTERNAL, "cannot serialize font record %s", f.ID)
	}
	return data, nil
}

// --- Slugs -----------------------------------------------------------------

var slugSeparators = regexp.MustCompile(`[\s_]+`)
var slugInvalid = regexp.MustCompile(`[^a-z0-9-]`)
var slugHyphenRuns = regexp.MustCompile(`-{2,}`)

// Slug converts a display name to a kebab-case identifier over
// [a-z0-9-], with no leading, trailing, or repeated hyphens.
//
//	"ACSF Brave"      -> "acsf-brave"
//	"My_Font  Name!"  -> "my-font-name"
func Slug(name string) string {
	slug := strings.ToLower(name)
	slug = slugSeparators.ReplaceAllString(slug, "-")
	slug = slugInvalid.ReplaceAllString(slug, "")
	slug = slugHyphenRuns.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}
