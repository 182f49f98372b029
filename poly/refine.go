package poly

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Options holds the tolerances for the refinement stages. All three are small
// positive numbers; zero values are replaced by the defaults.
type Options struct {
	// DupTolerance is the distance below which two consecutive vertices are
	// considered the same point.
	DupTolerance float64 `yaml:"dupTolerance,omitempty" json:"dupTolerance,omitempty"`

	// CollinearTolerance bounds the cross-product magnitude below which a
	// vertex is treated as lying on the line through its neighbors.
	CollinearTolerance float64 `yaml:"collinearTolerance,omitempty" json:"collinearTolerance,omitempty"`

	// SnapTolerance is the maximum distance from an integer at which a
	// coordinate is rounded to that integer.
	SnapTolerance float64 `yaml:"snapTolerance,omitempty" json:"snapTolerance,omitempty"`
}

// DefaultOptions returns the tolerances used when the config leaves them
// unset. DupTolerance and CollinearTolerance follow the 1e-6 comparison
// tolerance the HouseExpo exports were tuned against. SnapTolerance is
// larger because the jitter on near-axis edges (10.0001 for an intended 10)
// exceeds 1e-6 by a couple of orders of magnitude.
func DefaultOptions() Options {
	return Options{
		DupTolerance:       1e-6,
		CollinearTolerance: 1e-6,
		SnapTolerance:      1e-4,
	}
}

// withDefaults fills zero tolerances from DefaultOptions.
func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.DupTolerance <= 0 {
		o.DupTolerance = def.DupTolerance
	}
	if o.CollinearTolerance <= 0 {
		o.CollinearTolerance = def.CollinearTolerance
	}
	if o.SnapTolerance <= 0 {
		o.SnapTolerance = def.SnapTolerance
	}
	return o
}

// Refine cleans a raw polygon boundary into a minimal, jitter-free
// equivalent. Stages, in order:
//
//  1. Cyclic duplicate removal: a vertex within DupTolerance of the previous
//     retained vertex is dropped (the earlier occurrence always wins), which
//     also removes a closing duplicate of the first vertex.
//  2. Collinearity collapse: the middle vertex of any cyclic triple whose
//     cross product is below CollinearTolerance is removed, iterated to a
//     fixed point since each removal creates new neighbor triples.
//  3. Jitter snapping: coordinates within SnapTolerance of an integer are
//     rounded to it, restoring exactly horizontal/vertical edges.
//  4. Re-validation: dedupe and collapse run once more, since snapping can
//     introduce new duplicates and collinearities.
//
// The input ring is never mutated; each stage produces a new slice. Winding
// order is preserved. If any stage leaves fewer than 3 vertices the function
// fails with ErrDegeneratePolygon.
func Refine(verts orb.Ring, opts Options) (orb.Ring, error) {
	opts = opts.withDefaults()

	if len(verts) < 3 {
		return nil, fmt.Errorf("%w: %d vertices in input", ErrDegeneratePolygon, len(verts))
	}

	out := dedupe(verts, opts.DupTolerance)
	out, err := collapseCollinear(out, opts.CollinearTolerance)
	if err != nil {
		return nil, err
	}

	out = snapJitter(out, opts.SnapTolerance)

	out = dedupe(out, opts.DupTolerance)
	out, err = collapseCollinear(out, opts.CollinearTolerance)
	if err != nil {
		return nil, err
	}

	return out, nil
}

// dedupe removes vertices that sit within tol of the previously retained
// vertex, scanning cyclically: after the linear pass, trailing vertices that
// coincide with the first vertex (closing duplicates) are dropped too.
func dedupe(verts orb.Ring, tol float64) orb.Ring {
	out := make(orb.Ring, 0, len(verts))
	for _, v := range verts {
		if len(out) > 0 && samePoint(v, out[len(out)-1], tol) {
			continue
		}
		out = append(out, v)
	}

	for len(out) > 1 && samePoint(out[len(out)-1], out[0], tol) {
		out = out[:len(out)-1]
	}

	return out
}

// collapseCollinear removes, one at a time, any vertex collinear with its two
// cyclic neighbors, until no triple is collinear. Removing one vertex per
// pass keeps every test against live neighbors.
func collapseCollinear(verts orb.Ring, tol float64) (orb.Ring, error) {
	out := verts
	for {
		n := len(out)
		if n < 3 {
			return nil, fmt.Errorf("%w: %d vertices after collinear collapse", ErrDegeneratePolygon, n)
		}

		idx := -1
		for i := 0; i < n; i++ {
			a := out[(i+n-1)%n]
			b := out[i]
			c := out[(i+1)%n]
			if math.Abs(cross(a, b, c)) < tol {
				idx = i
				break
			}
		}
		if idx < 0 {
			return out, nil
		}

		next := make(orb.Ring, 0, n-1)
		next = append(next, out[:idx]...)
		next = append(next, out[idx+1:]...)
		out = next
	}
}

// snapJitter rounds coordinates that are within tol of an integer.
func snapJitter(verts orb.Ring, tol float64) orb.Ring {
	out := make(orb.Ring, len(verts))
	for i, v := range verts {
		out[i] = orb.Point{snapCoord(v[0], tol), snapCoord(v[1], tol)}
	}
	return out
}

// snapCoord rounds c to the nearest integer when the fractional distance is
// below tol; otherwise c is returned unchanged.
func snapCoord(c, tol float64) float64 {
	r := math.Round(c)
	if math.Abs(c-r) < tol {
		return r
	}
	return c
}

// cross returns the cross product of (b-a) and (c-b). Zero means the three
// points are collinear.
func cross(a, b, c orb.Point) float64 {
	return (b[0]-a[0])*(c[1]-b[1]) - (b[1]-a[1])*(c[0]-b[0])
}

// samePoint reports whether both coordinates of p and q agree within tol.
func samePoint(p, q orb.Point, tol float64) bool {
	return math.Abs(p[0]-q[0]) < tol && math.Abs(p[1]-q[1]) < tol
}

// Area returns the unsigned shoelace area of the ring, used to verify that
// refinement did not change the enclosed shape.
func Area(verts orb.Ring) float64 {
	if len(verts) < 3 {
		return 0
	}

	// planar.Area expects a closed ring.
	ring := make(orb.Ring, 0, len(verts)+1)
	ring = append(ring, verts...)
	if ring[0] != ring[len(ring)-1] {
		ring = append(ring, ring[0])
	}
	return math.Abs(planar.Area(ring))
}
