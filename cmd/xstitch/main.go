// Command xstitch converts TrueType/OpenType fonts into bitmap stitch
// fonts (JSON v2), where one output pixel corresponds to one
// cross-stitch.
//
//	xstitch extract   <font>  # pre-gridded cross-stitch fonts
//	xstitch rasterize <font>  # any font, at a fixed stitch height
//	xstitch detect    <font>  # report the detected cell size
//	xstitch validate  <json>  # check a font JSON v2 file
package main

import (
	"context"
	"flag"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	"github.com/flopp/go-findfont"
	"github.com/npillmayer/schuko"
	"github.com/npillmayer/schuko/schukonf/testconfig"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gologadapter"
	"github.com/npillmayer/schuko/tracing/trace2go"
	"github.com/npillmayer/xstitch/core"
	"github.com/npillmayer/xstitch/core/charset"
	"github.com/npillmayer/xstitch/stitch"
	"github.com/npillmayer/xstitch/stitch/buildcache"
	"github.com/npillmayer/xstitch/stitch/celldetect"
	"github.com/npillmayer/xstitch/stitch/extract"
	"github.com/npillmayer/xstitch/stitch/raster"
	"github.com/pterm/pterm"
)

// tracer traces with key 'xstitch.cli'.
func tracer() tracing.Trace {
	return tracing.Select("xstitch.cli")
}

func main() {
	initDisplay()
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	cmd, args := os.Args[1], os.Args[2:]
	var err error
	switch cmd {
	case "extract":
		err = cmdExtract(args)
	case "rasterize":
		err = cmdRasterize(args)
	case "detect":
		err = cmdDetect(args)
	case "validate":
		err = cmdValidate(args)
	case "help", "-h", "--help":
		usage()
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		core.UserError(err)
		os.Exit(1)
	}
}

func usage() {
	pterm.Info.Println("xstitch <extract|rasterize|detect|validate> [options] <font-file>")
}

// We use pterm for moderately fancy output.
func initDisplay() {
	pterm.Info.Prefix = pterm.Prefix{
		Text:  " xstitch ",
		Style: pterm.NewStyle(pterm.BgCyan, pterm.FgBlack),
	}
	pterm.Error.Prefix = pterm.Prefix{
		Text:  " Error",
		Style: pterm.NewStyle(pterm.BgRed, pterm.FgBlack),
	}
}

// appConfig is the process-wide configuration the subcommands share.
var appConfig schuko.Configuration

// setupTracing wires the Go-log adapter as root of all trace output and
// builds the application configuration.
func setupTracing(level string) error {
	tracing.RegisterTraceAdapter("go", gologadapter.GetAdapter(), false)
	conf := testconfig.Conf{
		"app-key":              "xstitch",
		"tracing.adapter":      "go",
		"trace.xstitch.fonts":  level,
		"trace.xstitch.stitch": level,
		"trace.xstitch.raster": level,
		"trace.xstitch.cache":  level,
		"trace.xstitch.cli":    level,
	}
	appConfig = conf
	if err := trace2go.ConfigureRoot(conf, "trace", trace2go.ReplaceTracers(true)); err != nil {
		return core.WrapError(err, core.EINTERNAL, "error configuring tracing")
	}
	tracing.SetTraceSelector(trace2go.Selector())
	return nil
}

// sharedFlags is the option surface common to both conversion commands.
type sharedFlags struct {
	trace         *string
	name          *string
	fontID        *string
	letterSpacing *int
	spaceWidth    *int
	charsetName   *string
	category      *string
	source        *string
	license       *string
	tags          *string
	excludeChars  *string
	cursive       *bool
	verbose       *bool
	output        *string
}

func registerShared(fs *flag.FlagSet, excludeDefault string) *sharedFlags {
	return &sharedFlags{
		trace:         fs.String("trace", "Info", "Trace level [Debug|Info|Error]"),
		name:          fs.String("name", "", "Display name override"),
		fontID:        fs.String("id", "", "Font ID override (kebab-case)"),
		letterSpacing: fs.Int("letter-spacing", stitch.DefaultLetterSpacing, "Letter spacing in stitches"),
		spaceWidth:    fs.Int("space-width", stitch.DefaultSpaceWidth, "Space character width in stitches"),
		charsetName:   fs.String("charset", "basic", "Charset [basic|extended]"),
		category:      fs.String("category", "", "Category [serif|sans-serif|script|pixel|decorative|gothic]"),
		source:        fs.String("source", "", "Attribution text"),
		license:       fs.String("license", "", "License identifier"),
		tags:          fs.String("tags", "", "Comma-separated tags"),
		excludeChars:  fs.String("exclude-chars", excludeDefault, "Characters to exclude"),
		cursive:       fs.Bool("cursive", false, "Shorthand: spacing=0, category=script"),
		verbose:       fs.Bool("v", false, "Verbose output"),
		output:        fs.String("o", "", "Output file (default: stdout)"),
	}
}

func (sh *sharedFlags) options() *stitch.Options {
	opts := stitch.NewOptions()
	opts.Name = *sh.name
	opts.FontID = *sh.fontID
	opts.LetterSpacing = *sh.letterSpacing
	opts.SpaceWidth = *sh.spaceWidth
	opts.Charset = *sh.charsetName
	opts.Category = *sh.category
	opts.Source = *sh.source
	opts.License = *sh.license
	if *sh.tags != "" {
		opts.Tags = strings.Split(*sh.tags, ",")
	}
	opts.ExcludeChars = charset.Set(*sh.excludeChars)
	opts.IsCursive = *sh.cursive
	opts.Verbose = *sh.verbose
	return opts
}

// resolveFontArg accepts a file path or a font name. Names are resolved
// against the system's font folders.
func resolveFontArg(arg string) (string, error) {
	if _, err := os.Stat(arg); err == nil {
		return arg, nil
	}
	fpath, err := findfont.Find(arg)
	if err != nil || fpath == "" {
		return "", core.Error(core.EMISSING, "font not found: %s", arg)
	}
	tracer().Debugf("%s is a system font: %s", arg, fpath)
	return fpath, nil
}

func writeOutput(path string, data []byte) error {
	if path == "" {
		fmt.Println(string(data))
		return nil
	}
	if err := ioutil.WriteFile(path, data, 0644); err != nil {
		return core.WrapError(err, core.EINTERNAL, "cannot write output file %s", path)
	}
	pterm.Info.Printfln("wrote %s", path)
	return nil
}

func reportSkipped(skipped []string) {
	if len(skipped) > 0 {
		pterm.Info.Printfln("skipped %d characters without ink: %s",
			len(skipped), strings.Join(skipped, " "))
	}
}

// --- extract ---------------------------------------------------------------

func cmdExtract(args []string) error {
	fs := flag.NewFlagSet("extract", flag.ExitOnError)
	sh := registerShared(fs, "|~_")
	cellUnits := fs.Int("cell-units", 0, "Override cell size in font units")
	renderSize := fs.Int("render-size", 2000, "Render height in px")
	samplePct := fs.Float64("sample-pct", 0.4, "Center sampling percentage")
	fillThreshold := fs.Float64("fill-threshold", 0.15, "Min fill ratio")
	fs.Parse(args)
	if fs.NArg() != 1 {
		return core.Error(core.EINVALID, "extract needs exactly one font file")
	}
	if err := setupTracing(*sh.trace); err != nil {
		return err
	}
	fontPath, err := resolveFontArg(fs.Arg(0))
	if err != nil {
		return err
	}

	// Gate on detection confidence before doing any real work.
	units, confidence, err := celldetect.Detect(fontPath, *cellUnits)
	if err != nil {
		return err
	}
	if confidence < celldetect.ConfidenceWarning {
		pterm.Error.Printfln("cell detection confidence too low (%.2f); pass -cell-units", confidence)
		return core.Error(core.EINVALID, "cell detection confidence %.2f below %.2f",
			confidence, celldetect.ConfidenceWarning)
	}
	if confidence < celldetect.ConfidenceAuto {
		pterm.Info.Printfln("cell units %d detected with moderate confidence %.2f", units, confidence)
	}

	result, err := extract.Extract(context.Background(), fontPath, sh.options(), extract.Params{
		CellUnits:     *cellUnits,
		RenderSize:    *renderSize,
		SamplePct:     *samplePct,
		FillThreshold: *fillThreshold,
	})
	if err != nil {
		return err
	}
	reportSkipped(result.Skipped)
	data, err := result.Font.MarshalV2()
	if err != nil {
		return err
	}
	return writeOutput(*sh.output, data)
}

// --- rasterize -------------------------------------------------------------

func cmdRasterize(args []string) error {
	fs := flag.NewFlagSet("rasterize", flag.ExitOnError)
	sh := registerShared(fs, "")
	height := fs.Int("height", 8, "Target height in stitches")
	threshold := fs.Int("threshold", 128, "Pixel threshold 0-255")
	autoThreshold := fs.Bool("auto-threshold", false, "Auto-detect threshold (Otsu's method)")
	bold := fs.Int("bold", 0, "Thicken strokes by N stitches (0-3)")
	strategyName := fs.String("strategy", "average", "Downsampling strategy [average|max-ink]")
	noTrim := fs.Bool("no-trim", false, "Keep blank border rows/columns")
	noCache := fs.Bool("no-cache", false, "Bypass the build cache")
	cacheDir := fs.String("cache-dir", "", "Build cache directory (default: user cache)")
	fs.Parse(args)
	if fs.NArg() != 1 {
		return core.Error(core.EINVALID, "rasterize needs exactly one font file")
	}
	if err := setupTracing(*sh.trace); err != nil {
		return err
	}
	if *cacheDir == "" {
		*cacheDir = buildcache.DefaultDir(appConfig)
	}
	fontPath, err := resolveFontArg(fs.Arg(0))
	if err != nil {
		return err
	}
	strategy, err := raster.ParseStrategy(*strategyName)
	if err != nil {
		return err
	}
	params := raster.Params{
		Height:   *height,
		Bold:     *bold,
		Strategy: strategy,
		Trim:     !*noTrim,
	}
	if !*autoThreshold {
		params.Threshold = threshold
	}

	ctx := context.Background()
	opts := sh.options()
	convert := func() ([]byte, error) {
		result, err := raster.Rasterize(ctx, fontPath, opts, params)
		if err != nil {
			return nil, err
		}
		reportSkipped(result.Skipped)
		return result.Font.MarshalV2()
	}

	var data []byte
	if *noCache {
		data, err = convert()
	} else {
		cache := buildcache.New(*cacheDir)
		key := buildcache.Key{
			FontFile: filepath.Base(fontPath),
			Height:   params.Height,
			Bold:     params.Bold,
			Strategy: strategy.String(),
		}
		data, err = cache.GetOrCompute(ctx, key, convert)
	}
	if err != nil {
		return err
	}
	tracer().Infof("etag %s", buildcache.ETag(data))
	return writeOutput(*sh.output, data)
}

// --- detect ----------------------------------------------------------------

func cmdDetect(args []string) error {
	fs := flag.NewFlagSet("detect", flag.ExitOnError)
	trace := fs.String("trace", "Info", "Trace level [Debug|Info|Error]")
	fs.Parse(args)
	if fs.NArg() != 1 {
		return core.Error(core.EINVALID, "detect needs exactly one font file")
	}
	if err := setupTracing(*trace); err != nil {
		return err
	}
	fontPath, err := resolveFontArg(fs.Arg(0))
	if err != nil {
		return err
	}
	units, confidence, err := celldetect.Detect(fontPath, 0)
	if err != nil {
		return err
	}
	pterm.Info.Printfln("cell units: %d (confidence %.2f)", units, confidence)
	if confidence < celldetect.ConfidenceWarning {
		pterm.Error.Println("confidence below usable range; conversion would need -cell-units")
	}
	return nil
}

// --- validate --------------------------------------------------------------

func cmdValidate(args []string) error {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	fs.Parse(args)
	if fs.NArg() != 1 {
		return core.Error(core.EINVALID, "validate needs exactly one JSON file")
	}
	issues := stitch.ValidateFile(fs.Arg(0))
	if len(issues) == 0 {
		pterm.Info.Println("font record is valid")
		return nil
	}
	for _, issue := range issues {
		pterm.Error.Println(issue)
	}
	return core.Error(core.EINVALID, "%d validation issues", len(issues))
}
