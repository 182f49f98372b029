package poly

import (
	"fmt"
	"math"
	"math/big"
	"strings"

	"github.com/paulmach/orb"
)

// fractionScale is the denominator applied to float coordinates before
// reduction to lowest terms. 10^6 matches the precision of the source data;
// after jitter snapping most coordinates reduce all the way to value/1.
const fractionScale = 1_000_000

// maxCoord is the largest magnitude that still fits an int64 numerator after
// scaling by fractionScale.
const maxCoord = float64(math.MaxInt64) / fractionScale

// ExportPol serializes a refined polygon in the solver's .pol text format: a
// vertex count followed by num/den fraction pairs, all on one line.
//
// The winding order is flipped relative to the input while the first vertex
// stays first ([p0, p1, p2, p3] exports as [p0, p3, p2, p1]), matching the
// orientation the downstream solver expects. The point set and edges are
// untouched; only ordering and representation change.
func ExportPol(verts orb.Ring) (string, error) {
	if len(verts) < 3 {
		return "", fmt.Errorf("%w: %d vertices to export", ErrDegeneratePolygon, len(verts))
	}

	ordered := flipOrientation(verts)

	var b strings.Builder
	fmt.Fprintf(&b, "%d", len(ordered))
	for _, v := range ordered {
		x, err := toFraction(v[0])
		if err != nil {
			return "", err
		}
		y, err := toFraction(v[1])
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, " %s %s", x, y)
	}
	b.WriteByte('\n')

	return b.String(), nil
}

// flipOrientation reverses the winding order while anchoring the first
// vertex in place.
func flipOrientation(verts orb.Ring) orb.Ring {
	out := make(orb.Ring, 0, len(verts))
	out = append(out, verts[0])
	for i := len(verts) - 1; i >= 1; i-- {
		out = append(out, verts[i])
	}
	return out
}

// toFraction renders one coordinate as a reduced num/den fraction with a
// positive denominator. Integer values render as value/1.
func toFraction(v float64) (string, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "", fmt.Errorf("%w: %v", ErrExportRange, v)
	}
	if math.Abs(v) > maxCoord {
		return "", fmt.Errorf("%w: |%g| exceeds %g", ErrExportRange, v, maxCoord)
	}

	scaled := int64(math.Round(v * fractionScale))
	r := new(big.Rat).SetFrac64(scaled, fractionScale)

	// big.Rat keeps the fraction reduced with a positive denominator, and
	// Denom() reports 1 for integers, giving the required value/1 form.
	return fmt.Sprintf("%s/%s", r.Num(), r.Denom()), nil
}

// ParsePol parses .pol text back into a vertex ring, evaluating each
// fraction exactly before converting to float64. It accepts the whitespace
// layout ExportPol produces as well as a count on its own first line.
func ParsePol(text string) (orb.Ring, error) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: empty .pol data", ErrMalformedInput)
	}

	var n int
	if _, err := fmt.Sscanf(fields[0], "%d", &n); err != nil {
		return nil, fmt.Errorf("%w: bad vertex count %q", ErrMalformedInput, fields[0])
	}
	if n < 3 {
		return nil, fmt.Errorf("%w: vertex count %d below 3", ErrMalformedInput, n)
	}
	if len(fields) != 1+2*n {
		return nil, fmt.Errorf("%w: expected %d coordinates, got %d", ErrMalformedInput, 2*n, len(fields)-1)
	}

	ring := make(orb.Ring, n)
	for i := 0; i < n; i++ {
		x, err := parseFraction(fields[1+2*i])
		if err != nil {
			return nil, err
		}
		y, err := parseFraction(fields[2+2*i])
		if err != nil {
			return nil, err
		}
		ring[i] = orb.Point{x, y}
	}

	return ring, nil
}

// parseFraction evaluates a num/den token (or a bare integer) to float64.
func parseFraction(s string) (float64, error) {
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return 0, fmt.Errorf("%w: bad fraction %q", ErrMalformedInput, s)
	}
	f, _ := r.Float64()
	return f, nil
}
