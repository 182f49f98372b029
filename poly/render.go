package poly

import (
	"fmt"
	"image/color"
	"image/png"
	"io"

	"github.com/paulmach/orb"
	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/rasterizer"
	"github.com/tdewolff/canvas/renderers/svg"
)

// ComparisonRenderer draws an original/refined polygon pair for visual QA.
// The refine and export transforms never call into a renderer; the batch
// driver owns rendering so the core stays testable without a display.
type ComparisonRenderer interface {
	RenderComparison(w io.Writer, original, refined orb.Ring) error
}

// PolygonStyle pairs a stroke color with a translucent fill for one polygon.
type PolygonStyle struct {
	Stroke color.NRGBA
	Fill   color.NRGBA
}

// DefaultStyles returns the overlay colors: original in red, refined in blue.
func DefaultStyles() (original, refined PolygonStyle) {
	original = PolygonStyle{
		Stroke: color.NRGBA{139, 0, 0, 255},  // Dark red
		Fill:   color.NRGBA{255, 99, 71, 60}, // Tomato
	}
	refined = PolygonStyle{
		Stroke: color.NRGBA{0, 0, 139, 255},    // Dark blue
		Fill:   color.NRGBA{100, 149, 237, 60}, // Cornflower blue
	}
	return original, refined
}

// nrgbaToRGBA converts color.NRGBA to color.RGBA by premultiplying alpha.
// The canvas library expects premultiplied RGBA.
func nrgbaToRGBA(c color.NRGBA) color.RGBA {
	if c.A == 0 {
		return color.RGBA{0, 0, 0, 0}
	}
	if c.A == 255 {
		return color.RGBA{c.R, c.G, c.B, 255}
	}
	alpha32 := uint32(c.A)
	return color.RGBA{
		R: uint8((uint32(c.R) * alpha32) / 255),
		G: uint8((uint32(c.G) * alpha32) / 255),
		B: uint8((uint32(c.B) * alpha32) / 255),
		A: c.A,
	}
}

// VectorRenderer renders the comparison overlay as vector graphics.
type VectorRenderer struct {
	Format      string  // RenderSVG or RenderPNG
	Padding     float64 // Padding in world units
	StrokeWidth float64
	Resolution  canvas.Resolution // Resolution for PNG output
	Original    PolygonStyle
	Refined     PolygonStyle
}

// NewVectorRenderer creates a vector renderer with default settings.
func NewVectorRenderer(format string) *VectorRenderer {
	original, refined := DefaultStyles()
	return &VectorRenderer{
		Format:      format,
		Padding:     1.0,
		StrokeWidth: 0.05,
		Resolution:  canvas.DPI(300),
		Original:    original,
		Refined:     refined,
	}
}

// canvasRenderer is the interface both svg and rasterizer renderers implement.
type canvasRenderer interface {
	RenderPath(path *canvas.Path, style canvas.Style, m canvas.Matrix)
}

// RenderComparison writes the overlay in the configured format.
func (r *VectorRenderer) RenderComparison(w io.Writer, original, refined orb.Ring) error {
	if len(original) == 0 && len(refined) == 0 {
		return fmt.Errorf("nothing to render")
	}

	bound := ringsBound(original, refined)
	width := (bound.Max[0] - bound.Min[0]) + 2*r.Padding
	height := (bound.Max[1] - bound.Min[1]) + 2*r.Padding

	switch r.Format {
	case RenderPNG:
		rast := rasterizer.New(width, height, r.Resolution, canvas.DefaultColorSpace)
		r.renderToCanvas(rast, bound, width, height, original, refined)
		return png.Encode(w, rast)
	case RenderSVG:
		svgRenderer := svg.New(w, width, height, nil)
		r.renderToCanvas(svgRenderer, bound, width, height, original, refined)
		return svgRenderer.Close()
	default:
		return fmt.Errorf("unknown vector render format %q", r.Format)
	}
}

// renderToCanvas draws background and both polygons (shared SVG/PNG logic).
func (r *VectorRenderer) renderToCanvas(renderer canvasRenderer, bound orb.Bound, width, height float64, original, refined orb.Ring) {
	bgStyle := canvas.DefaultStyle
	bgStyle.Fill = canvas.Paint{Color: canvas.White}
	renderer.RenderPath(canvas.Rectangle(width, height), bgStyle, canvas.Identity)

	toCanvas := func(p orb.Point) (float64, float64) {
		return (p[0] - bound.Min[0]) + r.Padding, (p[1] - bound.Min[1]) + r.Padding
	}

	for _, layer := range []struct {
		ring  orb.Ring
		style PolygonStyle
	}{
		{original, r.Original},
		{refined, r.Refined},
	} {
		if len(layer.ring) == 0 {
			continue
		}

		style := canvas.DefaultStyle
		style.Fill = canvas.Paint{Color: nrgbaToRGBA(layer.style.Fill)}
		style.Stroke = canvas.Paint{Color: nrgbaToRGBA(layer.style.Stroke)}
		style.StrokeWidth = r.StrokeWidth

		cp := &canvas.Path{}
		for i, pt := range layer.ring {
			cx, cy := toCanvas(pt)
			if i == 0 {
				cp.MoveTo(cx, cy)
			} else {
				cp.LineTo(cx, cy)
			}
		}
		cp.Close()
		renderer.RenderPath(cp, style, canvas.Identity)
	}
}

// ringsBound returns the union bounding box of both rings.
func ringsBound(a, b orb.Ring) orb.Bound {
	switch {
	case len(a) == 0:
		return b.Bound()
	case len(b) == 0:
		return a.Bound()
	default:
		return a.Bound().Union(b.Bound())
	}
}
