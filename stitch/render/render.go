/*
Package render draws single glyphs onto high-resolution grayscale
canvases.

The canvas is oversized (three times the render size on each side) and
the pen sits well inside it, so negative side bearings, tall ascenders
and long descenders never clip. The reported ink bounding box comes from
font metrics at the pen position, not from pixel scanning: decorative
and cross-stitch fonts scatter anti-aliased specks far from the nominal
glyph, which would balloon a pixel-derived box.
*/
package render

import (
	"image"
	"image/draw"

	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/xstitch/core/font"
	xfont "golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// tracer traces with key 'xstitch.raster'.
func tracer() tracing.Trace {
	return tracing.Select("xstitch.raster")
}

// DefaultRenderSize is the render height in pixels used by the
// extraction pipeline. Large enough that cell-center samples are
// insensitive to anti-aliasing at the cell borders.
const DefaultRenderSize = 2000

// Renderer draws characters of one font at a fixed render size.
type Renderer struct {
	sf   *font.ScalableFont
	face xfont.Face
	size int
}

// New prepares a renderer for sf with a nominal glyph height of
// renderSize pixels.
func New(sf *font.ScalableFont, renderSize int) (*Renderer, error) {
	face, err := opentype.NewFace(sf.SFNT, &opentype.FaceOptions{
		Size: float64(renderSize),
		DPI:  72, // size in points == size in pixels
	})
	if err != nil {
		return nil, err
	}
	tracer().Debugf("renderer for %s at %d px", sf.Fontname, renderSize)
	return &Renderer{sf: sf, face: face, size: renderSize}, nil
}

// Close releases the renderer's font face.
func (r *Renderer) Close() error {
	return r.face.Close()
}

// Size returns the nominal render height in pixels.
func (r *Renderer) Size() int { return r.size }

// Glyph renders one character onto a fresh grayscale canvas, ink black
// on white. It returns the canvas and the ink bounding box in canvas
// coordinates, or ok == false when the character has no ink.
func (r *Renderer) Glyph(char rune) (*image.Gray, image.Rectangle, bool) {
	canvasSize := r.size * 3
	img := image.NewGray(image.Rect(0, 0, canvasSize, canvasSize))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	// Pen inside the canvas: one size from the left, two sizes down so
	// that ascenders stay above and descenders below the baseline fit.
	dot := fixed.P(r.size, r.size*2)
	s := string(char)

	bounds, _ := xfont.BoundString(r.face, s)
	bbox := image.Rect(
		r.size+bounds.Min.X.Floor(),
		r.size*2+bounds.Min.Y.Floor(),
		r.size+bounds.Max.X.Ceil(),
		r.size*2+bounds.Max.Y.Ceil(),
	)
	if bbox.Dx() <= 0 || bbox.Dy() <= 0 {
		return img, image.Rectangle{}, false
	}

	d := xfont.Drawer{
		Dst:  img,
		Src:  image.Black,
		Face: r.face,
		Dot:  dot,
	}
	d.DrawString(s)
	return img, bbox, true
}

// Crop copies the bbox region of img into a new image based at (0,0).
// Regions reaching outside the canvas are clipped.
func Crop(img *image.Gray, bbox image.Rectangle) *image.Gray {
	bbox = bbox.Intersect(img.Bounds())
	out := image.NewGray(image.Rect(0, 0, bbox.Dx(), bbox.Dy()))
	draw.Draw(out, out.Bounds(), img, bbox.Min, draw.Src)
	return out
}
