/*
Package celldetect recovers the stitch grid of pre-gridded cross-stitch
fonts.

Such fonts compose every glyph from square cells of a fixed size in
font-design units (CELL_UNITS). ACSF fonts, for example, use 57 units
per cell: 44 units of stitch area plus a 13-unit gap. Detection order is
caller override, then known-family lookup, then a scoring search over
candidate sizes.
*/
package celldetect

import (
	"strings"

	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/xstitch/core/font"
)

// tracer traces with key 'xstitch.stitch'.
func tracer() tracing.Trace {
	return tracing.Select("xstitch.stitch")
}

// Candidate range for the scoring search.
const (
	CellUnitsMin = 20
	CellUnitsMax = 120
)

// Confidence thresholds for detected cell sizes. At or above
// ConfidenceAuto callers may proceed silently; between the two they
// should warn; below ConfidenceWarning they should require an override.
const (
	ConfidenceAuto    = 0.9
	ConfidenceWarning = 0.7
)

// fallbackUnits is returned when a font exposes no usable glyphs.
const fallbackUnits = 57

// knownCellUnits maps lowercase family-name substrings to their cell
// size in font units.
var knownCellUnits = map[string]int{
	"acsf": 57,
}

// RegisterFamily extends the known-family table. The substring is
// matched case-insensitively against the font's full and family names.
func RegisterFamily(substring string, units int) {
	knownCellUnits[strings.ToLower(substring)] = units
}

// Detect returns the cell size of a pre-gridded font in font units,
// together with a confidence in [0,1]. An override > 0 is returned
// as-is with confidence 1.0.
func Detect(fontPath string, override int) (int, float64, error) {
	if override > 0 {
		return override, 1.0, nil
	}
	sf, err := font.LoadOpenTypeFont(fontPath)
	if err != nil {
		return 0, 0, err
	}
	if units, ok := lookupKnownFamily(sf); ok {
		tracer().Infof("font %s is a known family, cell units = %d", sf.Fontname, units)
		return units, 1.0, nil
	}
	units, confidence := autoDetect(sf)
	tracer().Infof("auto-detected cell units = %d (confidence %.2f)", units, confidence)
	return units, confidence, nil
}

// lookupKnownFamily checks the font's full name (nameID 4) and family
// name (nameID 1) against the known-family table.
func lookupKnownFamily(sf *font.ScalableFont) (int, bool) {
	names := []string{
		sf.NameEntry(font.NameFull),
		sf.NameEntry(font.NameFamily),
	}
	return matchKnownFamily(names)
}

func matchKnownFamily(names []string) (int, bool) {
	for _, name := range names {
		if name == "" {
			continue
		}
		name = strings.ToLower(name)
		for family, units := range knownCellUnits {
			if strings.Contains(name, family) {
				return units, true
			}
		}
	}
	return 0, false
}

// glyphDimensions collects ink widths and heights of the uppercase A-Z
// glyphs, in font units. Uppercase letters have the most consistent
// cell-aligned dimensions.
func glyphDimensions(sf *font.ScalableFont) []float64 {
	var values []float64
	for r := 'A'; r <= 'Z'; r++ {
		bbox, ok := sf.InkBBox(r)
		if !ok {
			continue
		}
		if bbox.W() > 0 && bbox.H() > 0 {
			values = append(values, bbox.W(), bbox.H())
		}
	}
	return values
}

// autoDetect scores every candidate cell size on integer divisibility:
// a dimension counts for a candidate k when it lies within 0.15*k of a
// non-zero integer multiple of k. The candidate with the highest score wins;
// ties go to the smallest candidate.
func autoDetect(sf *font.ScalableFont) (int, float64) {
	values := glyphDimensions(sf)
	if len(values) == 0 {
		return fallbackUnits, 0.0
	}
	bestUnits := fallbackUnits
	bestScore := -1.0
	for candidate := CellUnitsMin; candidate <= CellUnitsMax; candidate++ {
		score := 0
		for _, v := range values {
			ratio := v / float64(candidate)
			rounded := int(ratio + 0.5)
			diff := ratio - float64(rounded)
			if diff < 0 {
				diff = -diff
			}
			if rounded >= 1 && diff < 0.15 {
				score++
			}
		}
		normalized := float64(score) / float64(len(values))
		if normalized > bestScore {
			bestScore = normalized
			bestUnits = candidate
		}
	}
	return bestUnits, bestScore
}
