package stitch

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"regexp"
	"sort"
	"strings"
)

// Output quality validation for bitmap font JSON v2 files. Checks
// operate on decoded JSON rather than on Font values so that malformed
// files can be diagnosed too.

var requiredFields = []string{"version", "id", "name", "height", "glyphs", "letterSpacing", "spaceWidth"}

var idPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// ValidateFile loads a JSON file and validates it as a v2 font record.
// The returned list of issues is empty for a valid file.
func ValidateFile(path string) []string {
	raw, err := ioutil.ReadFile(path)
	if err != nil {
		return []string{fmt.Sprintf("File not found: %s", path)}
	}
	var data map[string]interface{}
	if err := json.Unmarshal(raw, &data); err != nil {
		return []string{fmt.Sprintf("Invalid JSON: %v", err)}
	}
	return ValidateRecord(data)
}

// ValidateRecord runs all validation checks on a decoded font record.
// It returns a list of issues; an empty list means the record is valid.
func ValidateRecord(data map[string]interface{}) []string {
	var issues []string
	issues = checkSchema(data, issues)
	issues = checkVersion(data, issues)
	issues = checkIDFormat(data, issues)
	issues = checkCategory(data, issues)
	issues = checkGlyphsNonempty(data, issues)
	issues = checkBitmapConsistency(data, issues)
	issues = checkHeightConsistency(data, issues)
	issues = checkCharsetCoverage(data, issues)
	return issues
}

func checkSchema(data map[string]interface{}, issues []string) []string {
	for _, field := range requiredFields {
		if _, ok := data[field]; !ok {
			issues = append(issues, fmt.Sprintf("Missing required field: '%s'", field))
		}
	}
	return issues
}

func checkVersion(data map[string]interface{}, issues []string) []string {
	if v, ok := data["version"]; ok {
		if num, isNum := v.(float64); !isNum || num != FormatVersion {
			issues = append(issues, fmt.Sprintf("Version must be %d, got %v", FormatVersion, v))
		}
	}
	return issues
}

func checkIDFormat(data map[string]interface{}, issues []string) []string {
	if v, ok := data["id"]; ok {
		id := fmt.Sprintf("%v", v)
		if !idPattern.MatchString(id) {
			issues = append(issues,
				fmt.Sprintf("Invalid id format: '%s' (must be lowercase alphanumeric with hyphens)", id))
		}
	}
	return issues
}

func checkCategory(data map[string]interface{}, issues []string) []string {
	if v, ok := data["category"]; ok {
		category, _ := v.(string)
		if !IsValidCategory(category) {
			valid := append([]string{}, ValidCategories...)
			sort.Strings(valid)
			issues = append(issues,
				fmt.Sprintf("Invalid category: '%s' (must be one of: %s)", category, strings.Join(valid, ", ")))
		}
	}
	return issues
}

func checkGlyphsNonempty(data map[string]interface{}, issues []string) []string {
	if glyphs, ok := data["glyphs"].(map[string]interface{}); ok && len(glyphs) == 0 {
		issues = append(issues, "Font must contain at least 1 glyph")
	}
	return issues
}

func checkBitmapConsistency(data map[string]interface{}, issues []string) []string {
	glyphs, ok := data["glyphs"].(map[string]interface{})
	if !ok {
		return issues
	}
	for _, char := range sortedKeys(glyphs) {
		glyph, isObj := glyphs[char].(map[string]interface{})
		if !isObj {
			issues = append(issues, fmt.Sprintf("Glyph '%s': must be an object", char))
			continue
		}
		width, widthOK := glyph["width"].(float64)
		bitmap, bitmapOK := glyph["bitmap"].([]interface{})
		if !widthOK || !bitmapOK {
			continue
		}
		for i, row := range bitmap {
			rowStr, _ := row.(string)
			if len(rowStr) != int(width) {
				issues = append(issues,
					fmt.Sprintf("Glyph '%s' row %d: length %d != declared width %d", char, i, len(rowStr), int(width)))
			}
		}
	}
	return issues
}

// checkHeightConsistency warns when more than 30% of the glyphs differ
// from the declared height by more than 50%.
func checkHeightConsistency(data map[string]interface{}, issues []string) []string {
	declared, ok := data["height"].(float64)
	glyphs, glyphsOK := data["glyphs"].(map[string]interface{})
	if !ok || !glyphsOK || len(glyphs) == 0 {
		return issues
	}
	threshold := declared * 0.5
	outliers := 0
	for _, g := range glyphs {
		glyph, isObj := g.(map[string]interface{})
		if !isObj {
			continue
		}
		bitmap, isList := glyph["bitmap"].([]interface{})
		if !isList {
			continue
		}
		diff := float64(len(bitmap)) - declared
		if diff < 0 {
			diff = -diff
		}
		if diff > threshold {
			outliers++
		}
	}
	total := len(glyphs)
	if float64(outliers)/float64(total) > 0.3 {
		pct := int(float64(outliers)/float64(total)*100 + 0.5)
		issues = append(issues,
			fmt.Sprintf("Height inconsistency: %d/%d (%d%%) glyphs differ from declared height %d by >50%%",
				outliers, total, pct, int(declared)))
	}
	return issues
}

func checkCharsetCoverage(data map[string]interface{}, issues []string) []string {
	if cs, _ := data["charset"].(string); cs != "basic" {
		return issues
	}
	glyphs, ok := data["glyphs"].(map[string]interface{})
	if !ok {
		return issues
	}
	groups := []struct {
		label string
		chars string
	}{
		{"uppercase", "ABCDEFGHIJKLMNOPQRSTUVWXYZ"},
		{"lowercase", "abcdefghijklmnopqrstuvwxyz"},
		{"digits", "0123456789"},
	}
	for _, group := range groups {
		var missing []string
		for _, r := range group.chars {
			if _, present := glyphs[string(r)]; !present {
				missing = append(missing, string(r))
			}
		}
		if len(missing) > 0 {
			issues = append(issues,
				fmt.Sprintf("Basic charset missing %s: %s", group.label, strings.Join(missing, ", ")))
		}
	}
	return issues
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
