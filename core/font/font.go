/*
Package font reads TrueType and OpenType fonts for stitch conversion.

A loaded font is held as a ScalableFont: the raw bytes plus the parsed
SFNT container. The container is queried for the codepoint map, for
per-glyph ink bounding boxes in font-design units, and for name-table
entries. A ScalableFont owns no native resources; dropping the last
reference releases everything.
*/
package font

import (
	"io/ioutil"
	"sync"

	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/xstitch/core"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

// tracer traces with key 'xstitch.fonts'.
func tracer() tracing.Trace {
	return tracing.Select("xstitch.fonts")
}

// ScalableFont is a font variant loaded from a TTF or OTF file.
type ScalableFont struct {
	Fontname string
	Filepath string     // file path
	Binary   []byte     // raw data
	SFNT     *sfnt.Font // the font's container
}

// GlyphID is the font-internal glyph identifier.
type GlyphID = sfnt.GlyphIndex

// CodepointMap maps codepoints to the font's internal glyph identifiers.
type CodepointMap map[rune]GlyphID

// BBox is a glyph's ink bounding box in font-design units, y growing
// upwards. For any non-empty glyph XMax > XMin and YMax > YMin.
type BBox struct {
	XMin, YMin, XMax, YMax float64
}

// W returns the bounding box width in font units.
func (b BBox) W() float64 { return b.XMax - b.XMin }

// H returns the bounding box height in font units.
func (b BBox) H() float64 { return b.YMax - b.YMin }

// LoadOpenTypeFont loads an OpenType font (TTF or OTF) from a file.
func LoadOpenTypeFont(fontfile string) (*ScalableFont, error) {
	bytez, err := ioutil.ReadFile(fontfile)
	if err != nil {
		return nil, core.WrapError(err, core.EMISSING, "cannot read font file %s", fontfile)
	}
	f, err := ParseOpenTypeFont(bytez)
	if err != nil {
		return nil, err
	}
	f.Filepath = fontfile
	return f, nil
}

// ParseOpenTypeFont parses an OpenType font from binary data.
func ParseOpenTypeFont(fbytes []byte) (f *ScalableFont, err error) {
	f = &ScalableFont{Binary: fbytes}
	f.SFNT, err = sfnt.Parse(f.Binary)
	if err != nil {
		return nil, core.WrapError(err, core.EBADFONT, "font file is not parsable")
	}
	f.Fontname, _ = f.SFNT.Name(nil, sfnt.NameIDFull)
	return f, nil
}

// Basic-Latin probe range for CodepointMap. Every charset this tool
// emits lives inside it.
const (
	probeMin = rune(0x0020)
	probeMax = rune(0x007e)
)

// CodepointMap returns the font's codepoint to glyph-ID mapping over the
// Basic-Latin range. The cmap subtable preference (Windows Unicode BMP,
// then Mac Roman) is applied by the SFNT container.
func (sf *ScalableFont) CodepointMap() CodepointMap {
	var buf sfnt.Buffer
	cmap := make(CodepointMap)
	for r := probeMin; r <= probeMax; r++ {
		gid, err := sf.SFNT.GlyphIndex(&buf, r)
		if err != nil || gid == 0 {
			continue
		}
		cmap[r] = gid
	}
	tracer().Debugf("font %s maps %d codepoints", sf.Fontname, len(cmap))
	return cmap
}

// InkBBox returns the ink bounding box of a character's glyph in
// font-design units. It reports false when the character is unmapped or
// its outline is empty (e.g. the space character).
func (sf *ScalableFont) InkBBox(r rune) (BBox, bool) {
	var buf sfnt.Buffer
	gid, err := sf.SFNT.GlyphIndex(&buf, r)
	if err != nil || gid == 0 {
		return BBox{}, false
	}
	return sf.GlyphInkBBox(gid)
}

// GlyphInkBBox returns the ink bounding box of a glyph in font-design
// units, computed from the outline's extremes. Loading the glyph at
// ppem = units-per-em makes segment coordinates equal font units.
func (sf *ScalableFont) GlyphInkBBox(gid GlyphID) (BBox, bool) {
	var buf sfnt.Buffer
	upem := fixed.I(int(sf.SFNT.UnitsPerEm()))
	segs, err := sf.SFNT.LoadGlyph(&buf, gid, upem, nil)
	if err != nil || len(segs) == 0 {
		return BBox{}, false
	}
	first := true
	var xmin, ymin, xmax, ymax float64
	for _, seg := range segs {
		pts := segmentPoints(seg)
		for _, p := range pts {
			x := fixedToFloat(p.X)
			y := -fixedToFloat(p.Y) // segments are y-down, design units are y-up
			if first {
				xmin, xmax, ymin, ymax = x, x, y, y
				first = false
				continue
			}
			if x < xmin {
				xmin = x
			}
			if x > xmax {
				xmax = x
			}
			if y < ymin {
				ymin = y
			}
			if y > ymax {
				ymax = y
			}
		}
	}
	if first || xmax <= xmin || ymax <= ymin {
		return BBox{}, false
	}
	return BBox{XMin: xmin, YMin: ymin, XMax: xmax, YMax: ymax}, true
}

// segmentPoints returns the control points a segment actually uses.
func segmentPoints(seg sfnt.Segment) []fixed.Point26_6 {
	switch seg.Op {
	case sfnt.SegmentOpMoveTo, sfnt.SegmentOpLineTo:
		return seg.Args[:1]
	case sfnt.SegmentOpQuadTo:
		return seg.Args[:2]
	case sfnt.SegmentOpCubeTo:
		return seg.Args[:3]
	}
	return nil
}

func fixedToFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64.0
}

// NameEntry returns a name-table string by its nameID, or "" when the
// font has no such entry. The platform/encoding fallback (Windows
// Unicode BMP before Mac Roman) is a fixed ordered list applied by the
// SFNT container.
func (sf *ScalableFont) NameEntry(id sfnt.NameID) string {
	var buf sfnt.Buffer
	s, err := sf.SFNT.Name(&buf, id)
	if err != nil {
		return ""
	}
	return s
}

// Name IDs this tool reads. Aliased here so callers need not import sfnt.
const (
	NameCopyright = sfnt.NameIDCopyright
	NameFamily    = sfnt.NameIDFamily
	NameFull      = sfnt.NameIDFull
	NameDesigner  = sfnt.NameIDDesigner
	NameLicense   = sfnt.NameIDLicense
)

// --- Fallback font ---------------------------------------------------------

// FallbackFont returns a font to be used if everything else failes. It is
// always present. Currently we use Go Sans.
func FallbackFont() *ScalableFont {
	fallbackFontLoading.Do(func() {
		fallbackFont = loadFallbackFont()
	})
	return fallbackFont
}

var fallbackFontLoading sync.Once

// fallbackFont is a font that is used if everything else failes.
// Currently we use Go Sans.
var fallbackFont *ScalableFont

func loadFallbackFont() *ScalableFont {
	var err error
	gofont := &ScalableFont{
		Fontname: "Go Sans",
		Filepath: "internal",
		Binary:   goregular.TTF,
	}
	gofont.SFNT, err = sfnt.Parse(gofont.Binary)
	if err != nil {
		panic("cannot load default font") // this cannot happen
	}
	return gofont
}
