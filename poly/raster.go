package poly

import (
	"image"
	"image/color"
	"image/png"
	"io"
	"math"

	"github.com/paulmach/orb"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// RasterRenderer draws the comparison overlay directly into an RGBA image
// with a small legend. It is the lightweight alternative to VectorRenderer
// for quick terminal-adjacent QA.
type RasterRenderer struct {
	Scale    float64 // Pixels per world unit
	Padding  int     // Padding around the image in pixels
	Original PolygonStyle
	Refined  PolygonStyle
}

// NewRasterRenderer creates a raster renderer with default settings.
func NewRasterRenderer() *RasterRenderer {
	original, refined := DefaultStyles()
	return &RasterRenderer{
		Scale:    40,
		Padding:  30,
		Original: original,
		Refined:  refined,
	}
}

// RenderComparison writes the overlay as a PNG.
func (r *RasterRenderer) RenderComparison(w io.Writer, original, refined orb.Ring) error {
	bound := ringsBound(original, refined)

	width := int((bound.Max[0]-bound.Min[0])*r.Scale) + 2*r.Padding
	height := int((bound.Max[1]-bound.Min[1])*r.Scale) + 2*r.Padding

	// Limit size
	scale := r.Scale
	if width > 4000 {
		scale *= float64(4000) / float64(width)
		width = 4000
		height = int((bound.Max[1]-bound.Min[1])*scale) + 2*r.Padding
	}
	if height > 4000 {
		scale *= float64(4000) / float64(height)
		height = 4000
		width = int((bound.Max[0]-bound.Min[0])*scale) + 2*r.Padding
	}
	if width <= 0 {
		width = 2*r.Padding + 1
	}
	if height <= 0 {
		height = 2*r.Padding + 1
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{240, 240, 240, 255})
		}
	}

	// World coords to image coords, y flipped so up is up.
	toImage := func(p orb.Point) (int, int) {
		x := int((p[0]-bound.Min[0])*scale) + r.Padding
		y := height - (int((p[1]-bound.Min[1])*scale) + r.Padding)
		return x, y
	}

	r.drawRing(img, original, r.Original, toImage)
	r.drawRing(img, refined, r.Refined, toImage)

	drawText(img, 10, 16, "original", nrgbaToRGBA(r.Original.Stroke))
	drawText(img, 10, 32, "refined", nrgbaToRGBA(r.Refined.Stroke))

	return png.Encode(w, img)
}

// drawRing strokes the closed boundary and marks each vertex.
func (r *RasterRenderer) drawRing(img *image.RGBA, ring orb.Ring, style PolygonStyle, toImage func(orb.Point) (int, int)) {
	n := len(ring)
	if n == 0 {
		return
	}

	stroke := nrgbaToRGBA(style.Stroke)
	for i := 0; i < n; i++ {
		x0, y0 := toImage(ring[i])
		x1, y1 := toImage(ring[(i+1)%n])
		drawLine(img, x0, y0, x1, y1, stroke)
	}

	// Vertex markers as 3x3 blocks for visibility
	for i := 0; i < n; i++ {
		cx, cy := toImage(ring[i])
		for dx := -1; dx <= 1; dx++ {
			for dy := -1; dy <= 1; dy++ {
				px, py := cx+dx, cy+dy
				if image.Pt(px, py).In(img.Bounds()) {
					img.Set(px, py, stroke)
				}
			}
		}
	}
}

// drawLine draws a line segment using simple DDA interpolation.
func drawLine(img *image.RGBA, x0, y0, x1, y1 int, c color.RGBA) {
	steps := int(math.Max(math.Abs(float64(x1-x0)), math.Abs(float64(y1-y0))))
	if steps == 0 {
		if image.Pt(x0, y0).In(img.Bounds()) {
			img.Set(x0, y0, c)
		}
		return
	}

	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		x := x0 + int(math.Round(t*float64(x1-x0)))
		y := y0 + int(math.Round(t*float64(y1-y0)))
		if image.Pt(x, y).In(img.Bounds()) {
			img.Set(x, y, c)
		}
	}
}

// drawText renders text onto an image at the specified position.
func drawText(img *image.RGBA, x, y int, text string, c color.RGBA) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}
