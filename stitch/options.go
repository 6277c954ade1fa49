package stitch

import (
	"regexp"
	"strings"

	"github.com/npillmayer/xstitch/core/font"
)

// Defaults for conversion options.
const (
	DefaultLetterSpacing = 1
	DefaultSpaceWidth    = 3
)

// Options are the conversion options shared by the extraction and
// rasterization pipelines. The zero value is not usable; construct with
// NewOptions.
type Options struct {
	Name          string        // display name override
	FontID        string        // slug override; derived from the display name when empty
	LetterSpacing int           // stitches between letters, advisory metadata
	SpaceWidth    int           // width of the space glyph in stitches
	Charset       string        // "basic" or "extended"
	Category      string        // override; inferred from the name when empty
	Source        string        // attribution override
	License       string        // license override
	Tags          []string      // tag override
	ExcludeChars  map[rune]bool // nil means the pipeline's default exclusion
	IsCursive     bool          // forces LetterSpacing = 0 and category "script"
	Verbose       bool          // per-glyph diagnostic traces
}

// NewOptions returns conversion options with all defaults filled in.
func NewOptions() *Options {
	return &Options{
		LetterSpacing: DefaultLetterSpacing,
		SpaceWidth:    DefaultSpaceWidth,
		Charset:       "basic",
	}
}

// Metadata is resolved font metadata, ready for font-record assembly.
type Metadata struct {
	DisplayName   string
	Slug          string
	Category      string
	Tags          []string
	Source        string
	License       string
	LetterSpacing int
}

// InferMetadata reads the font's name table: display name (full name
// before family), license (license description before copyright), and
// source (designer).
func InferMetadata(sf *font.ScalableFont) (name, license, source string) {
	name = sf.NameEntry(font.NameFull)
	if name == "" {
		name = sf.NameEntry(font.NameFamily)
	}
	license = sf.NameEntry(font.NameLicense)
	if license == "" {
		license = sf.NameEntry(font.NameCopyright)
	}
	source = sf.NameEntry(font.NameDesigner)
	return strings.TrimSpace(name), strings.TrimSpace(license), strings.TrimSpace(source)
}

// ResolveMetadata combines inferred metadata with caller overrides and
// the cursive shorthand. Overrides always win over inference; the
// cursive flag unconditionally forces letter spacing 0 and category
// "script".
func ResolveMetadata(sf *font.ScalableFont, opts *Options) Metadata {
	inferredName, inferredLicense, inferredSource := InferMetadata(sf)
	displayName := opts.Name
	if displayName == "" {
		displayName = inferredName
	}
	if displayName == "" {
		displayName = "Unknown Font"
	}
	slug := opts.FontID
	if slug == "" {
		slug = Slug(displayName)
	}
	category := opts.Category
	if category == "" {
		category = InferCategory(displayName, inferredName)
	}
	tags := opts.Tags
	if tags == nil {
		tags = InferTags(displayName, opts.IsCursive)
	}
	source := opts.Source
	if source == "" {
		source = inferredSource
	}
	license := opts.License
	if license == "" {
		license = inferredLicense
	}
	spacing := opts.LetterSpacing
	if opts.IsCursive {
		spacing = 0
		category = "script"
	}
	tracer().Debugf("resolved metadata: %s (%s), category %s", displayName, slug, category)
	return Metadata{
		DisplayName:   displayName,
		Slug:          slug,
		Category:      category,
		Tags:          tags,
		Source:        source,
		License:       license,
		LetterSpacing: spacing,
	}
}

// InferCategory guesses a font category from its display and table
// names.
func InferCategory(displayName, tableName string) string {
	text := strings.ToLower(displayName + " " + tableName)
	switch {
	case containsAny(text, "script", "cursive", "italic"):
		return "script"
	case strings.Contains(text, "gothic"):
		return "gothic"
	case containsAny(text, "pixel", "bitmap"):
		return "pixel"
	case strings.Contains(text, "serif") && !strings.Contains(text, "sans"):
		return "serif"
	case containsAny(text, "decorative", "ornament"):
		return "decorative"
	}
	return "sans-serif"
}

func containsAny(text string, keywords ...string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

var tagWords = regexp.MustCompile(`[a-zA-Z]+`)

// InferTags derives tags from the words of the font name. Every font is
// tagged "cross-stitch"; cursive fonts additionally "cursive" and
// "connected".
func InferTags(displayName string, isCursive bool) []string {
	tags := []string{}
	for _, word := range tagWords.FindAllString(strings.ToLower(displayName), -1) {
		switch word {
		case "the", "font", "ttf", "otf":
			continue
		}
		if len(word) >= 3 {
			tags = append(tags, word)
		}
	}
	tags = appendUnique(tags, "cross-stitch")
	if isCursive {
		tags = appendUnique(tags, "cursive")
		tags = appendUnique(tags, "connected")
	}
	return tags
}

func appendUnique(tags []string, tag string) []string {
	for _, t := range tags {
		if t == tag {
			return tags
		}
	}
	return append(tags, tag)
}
