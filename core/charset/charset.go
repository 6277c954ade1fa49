// Package charset names the character sets a stitch font may cover and
// filters a font's codepoint map down to one of them.
package charset

import (
	"sort"
	"unicode"

	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/xstitch/core"
	"github.com/npillmayer/xstitch/core/font"
)

// tracer traces with key 'xstitch.fonts'.
func tracer() tracing.Trace {
	return tracing.Select("xstitch.fonts")
}

const basicChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789 !\"#%&'()*+,-./:;?"
const extendedExtraChars = "@$^[]{}\\<>=_`~"

// DefaultExcludeChars are the characters excluded from extraction by
// default. Pre-gridded cross-stitch fonts use them for non-character
// formatting marks: | = 36-stitch bar, ~ = 1pt space, _ = 20-stitch
// fill area.
func DefaultExcludeChars() map[rune]bool {
	return Set("|~_")
}

// Set builds a character set from the runes of a string.
func Set(chars string) map[rune]bool {
	set := make(map[rune]bool, len(chars))
	for _, r := range chars {
		set[r] = true
	}
	return set
}

var basicCharset = Set(basicChars)
var extendedCharset = func() map[rune]bool {
	set := Set(basicChars)
	for r := range Set(extendedExtraChars) {
		set[r] = true
	}
	return set
}()

// Charset returns the character set with the given name, either "basic"
// or "extended".
func Charset(name string) (map[rune]bool, error) {
	switch name {
	case "basic":
		return basicCharset, nil
	case "extended":
		return extendedCharset, nil
	}
	return nil, core.Error(core.EINVALID, "unknown charset '%s', expected 'basic' or 'extended'", name)
}

// CodeChar is a codepoint together with its character.
type CodeChar struct {
	Code rune
	Char string
}

// IsPrintable reports whether a character may appear in a stitch font.
// Space is printable; control characters (category Cc) are not.
func IsPrintable(r rune) bool {
	if r == ' ' {
		return true
	}
	if unicode.IsControl(r) {
		return false
	}
	return unicode.IsPrint(r)
}

// Filter reduces a codepoint map to the characters of a named charset,
// minus an exclusion set and any unprintable characters. The result is
// sorted by ascending codepoint.
func Filter(cmap font.CodepointMap, charsetName string, exclude map[rune]bool) ([]CodeChar, error) {
	allowed, err := Charset(charsetName)
	if err != nil {
		return nil, err
	}
	result := make([]CodeChar, 0, len(cmap))
	for code := range cmap {
		if exclude[code] {
			continue
		}
		if !IsPrintable(code) {
			continue
		}
		if !allowed[code] {
			continue
		}
		result = append(result, CodeChar{Code: code, Char: string(code)})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Code < result[j].Code })
	tracer().Debugf("charset %s: %d of %d codepoints pass", charsetName, len(result), len(cmap))
	return result, nil
}
