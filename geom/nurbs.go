package geom

import (
	"fmt"

	"github.com/geomio/gserial/errs"
)

// NURBS curve parameter limits.
const (
	// NurbsMinDegree and NurbsMaxDegree bound the polynomial degree.
	NurbsMinDegree = 1
	NurbsMaxDegree = 10

	// NurbsDefaultSegments is the sampling density used when converting a
	// curve to a linestring without an explicit segment count.
	NurbsDefaultSegments = 32
	// NurbsMinSegments and NurbsMaxSegments bound the sampling density.
	NurbsMinSegments = 2
	NurbsMaxSegments = 10000
)

// NurbsCurve is a non-uniform rational B-spline curve defined by control
// points, an optional weight per control point, and an optional knot vector.
//
// A curve without weights is non-rational: every weight is implicitly 1.
// A curve without knots uses a uniform clamped knot vector, generated on
// demand from the degree and control point count.
type NurbsCurve struct {
	gbase
	degree  int
	points  *PointArray
	weights []float64
	knots   []float64
}

// NewNurbsCurve constructs a curve and validates every invariant:
// the degree must lie in [NurbsMinDegree, NurbsMaxDegree]; a non-empty curve
// needs at least degree+1 control points; weights, when given, must be one
// per control point and strictly positive; knots, when given, must number
// npoints+degree+1 and be non-decreasing. Weights and knots are copied.
func NewNurbsCurve(srid int32, degree int, points *PointArray, weights, knots []float64) (*NurbsCurve, error) {
	if degree < NurbsMinDegree || degree > NurbsMaxDegree {
		return nil, fmt.Errorf("degree %d outside [%d,%d]: %w", degree, NurbsMinDegree, NurbsMaxDegree, errs.ErrInvalidDegree)
	}
	if points == nil {
		points = NewPointArray(false, false, 0)
	}
	npoints := points.Len()
	if npoints > 0 && npoints < degree+1 {
		return nil, fmt.Errorf("%d control points for degree %d, need %d: %w",
			npoints, degree, degree+1, errs.ErrNotEnoughPoints)
	}
	if weights != nil {
		if len(weights) != npoints {
			return nil, fmt.Errorf("%d weights for %d control points: %w", len(weights), npoints, errs.ErrInvalidWeights)
		}
		for i, w := range weights {
			if !(w > 0) {
				return nil, fmt.Errorf("weight[%d] = %v: %w", i, w, errs.ErrInvalidWeights)
			}
		}
	}
	if knots != nil {
		if len(knots) != npoints+degree+1 {
			return nil, fmt.Errorf("%d knots, need npoints+degree+1 = %d: %w",
				len(knots), npoints+degree+1, errs.ErrInvalidKnots)
		}
		for i := 1; i < len(knots); i++ {
			if knots[i] < knots[i-1] {
				return nil, fmt.Errorf("knot[%d] < knot[%d]: %w", i, i-1, errs.ErrInvalidKnots)
			}
		}
	}

	nc := &NurbsCurve{
		degree: degree,
		points: points,
	}
	nc.flags = points.Flags()
	nc.SetSRID(srid)
	if len(weights) > 0 {
		nc.weights = make([]float64, len(weights))
		copy(nc.weights, weights)
	}
	if len(knots) > 0 {
		nc.knots = make([]float64, len(knots))
		copy(nc.knots, knots)
	}

	return nc, nil
}

// NewEmptyNurbsCurve creates a curve with no control points.
func NewEmptyNurbsCurve(srid int32, hasZ, hasM bool) *NurbsCurve {
	nc := &NurbsCurve{
		degree: NurbsMinDegree,
		points: NewPointArray(hasZ, hasM, 0),
	}
	nc.flags = MakeFlags(hasZ, hasM)
	nc.SetSRID(srid)

	return nc
}

// Type returns TypeNurbsCurve.
func (n *NurbsCurve) Type() Type { return TypeNurbsCurve }

// Degree returns the polynomial degree.
func (n *NurbsCurve) Degree() int { return n.degree }

// ControlPoints returns the control point array.
func (n *NurbsCurve) ControlPoints() *PointArray { return n.points }

// Weights returns the explicit weights, or nil for a non-rational curve.
// The returned slice is the curve's own storage; do not modify it.
func (n *NurbsCurve) Weights() []float64 { return n.weights }

// Knots returns the explicit knot vector, or nil when the curve uses the
// implied uniform clamped knots. Do not modify the returned slice.
func (n *NurbsCurve) Knots() []float64 { return n.knots }

// IsRational reports whether the curve carries explicit weights.
func (n *NurbsCurve) IsRational() bool { return n.weights != nil }

// WeightAt returns the weight of control point i, 1 when implicit.
func (n *NurbsCurve) WeightAt(i int) float64 {
	if n.weights != nil && i >= 0 && i < len(n.weights) {
		return n.weights[i]
	}

	return 1.0
}

// IsEmpty reports whether the curve has no control points.
func (n *NurbsCurve) IsEmpty() bool { return n.points.IsEmpty() }

// Clone returns a deep copy.
func (n *NurbsCurve) Clone() Geometry {
	c := *n
	c.bbox = n.bbox.Clone()
	c.points = n.points.Clone()
	if n.weights != nil {
		c.weights = make([]float64, len(n.weights))
		copy(c.weights, n.weights)
	}
	if n.knots != nil {
		c.knots = make([]float64, len(n.knots))
		copy(c.knots, n.knots)
	}

	return &c
}

// Validate re-checks the curve invariants. Curves built through
// NewNurbsCurve always pass; this covers curves assembled from records.
func (n *NurbsCurve) Validate() error {
	_, err := NewNurbsCurve(n.srid, n.degree, n.points, n.weights, n.knots)
	return err
}

// UniformKnots generates a clamped uniform knot vector: degree+1 zeros,
// degree+1 ones, and any interior knots evenly spaced in (0,1).
// A curve needs at least degree+1 control points to have a knot vector.
func UniformKnots(degree, npoints int) ([]float64, error) {
	if degree < NurbsMinDegree {
		return nil, fmt.Errorf("degree %d: %w", degree, errs.ErrInvalidDegree)
	}
	if npoints < degree+1 {
		return nil, fmt.Errorf("%d control points for degree %d: %w", npoints, degree, errs.ErrNotEnoughPoints)
	}

	nknots := npoints + degree + 1
	knots := make([]float64, nknots)
	for i := 0; i <= degree; i++ {
		knots[i] = 0.0
	}
	for i := nknots - degree - 1; i < nknots; i++ {
		knots[i] = 1.0
	}
	if interior := nknots - 2*(degree+1); interior > 0 {
		for i := 0; i < interior; i++ {
			knots[degree+1+i] = float64(i+1) / float64(interior+1)
		}
	}

	return knots, nil
}

// KnotsForOutput returns the knot vector to serialize: a copy of the
// explicit knots when present, otherwise a generated uniform clamped
// vector. Returns nil for empty curves.
func (n *NurbsCurve) KnotsForOutput() []float64 {
	if n.points.IsEmpty() {
		return nil
	}
	if len(n.knots) > 0 {
		knots := make([]float64, len(n.knots))
		copy(knots, n.knots)

		return knots
	}
	knots, err := UniformKnots(n.degree, n.points.Len())
	if err != nil {
		return nil
	}

	return knots
}

// basisFunction evaluates the Cox-de Boor recursion N_{i,p}(u).
// Terms whose knot denominator vanishes contribute zero.
func basisFunction(i, p int, u float64, knots []float64) float64 {
	if i < 0 || i+p+1 >= len(knots) {
		return 0.0
	}
	if p == 0 {
		if knots[i] <= u && u < knots[i+1] {
			return 1.0
		}

		return 0.0
	}

	var term1, term2 float64
	if denom := knots[i+p] - knots[i]; denom != 0.0 {
		term1 = (u - knots[i]) / denom * basisFunction(i, p-1, u, knots)
	}
	if denom := knots[i+p+1] - knots[i+1]; denom != 0.0 {
		term2 = (knots[i+p+1] - u) / denom * basisFunction(i+1, p-1, u, knots)
	}

	return term1 + term2
}

// Evaluate returns the curve position at parameter t. The parameter is
// clamped to [0,1]: at or below 0 the first control point is returned, at
// or above 1 the last. Rational curves divide through by the weighted
// basis sum unless it is exactly zero.
func (n *NurbsCurve) Evaluate(t float64) (Point4D, error) {
	npoints := n.points.Len()
	if npoints == 0 {
		return Point4D{}, errs.ErrEmptyGeometry
	}

	if t <= 0.0 {
		return n.points.PointAt(0)
	}
	if t >= 1.0 {
		return n.points.PointAt(npoints - 1)
	}

	knots := n.knots
	if len(knots) == 0 {
		var err error
		knots, err = UniformKnots(n.degree, npoints)
		if err != nil {
			return Point4D{}, fmt.Errorf("no knot vector: %w", errs.ErrDegenerateCurve)
		}
	}

	hasZ, hasM := n.flags.HasZ(), n.flags.HasM()
	var x, y, z, m, denom float64
	for i := 0; i < npoints; i++ {
		ctrl, err := n.points.PointAt(i)
		if err != nil {
			return Point4D{}, err
		}
		wN := n.WeightAt(i) * basisFunction(i, n.degree, t, knots)
		x += wN * ctrl.X
		y += wN * ctrl.Y
		if hasZ {
			z += wN * ctrl.Z
		}
		if hasM {
			m += wN * ctrl.M
		}
		denom += wN
	}

	if n.weights != nil && denom != 0.0 {
		x /= denom
		y /= denom
		if hasZ {
			z /= denom
		}
		if hasM {
			m /= denom
		}
	}

	p := Point4D{X: x, Y: y}
	if hasZ {
		p.Z = z
	}
	if hasM {
		p.M = m
	}

	return p, nil
}

// ToLineString approximates the curve by sampling numSegments+1 positions
// at uniform parameter spacing. A zero segment count selects
// NurbsDefaultSegments, a negative one is rejected, and the result is
// clamped to [NurbsMinSegments, NurbsMaxSegments]. An empty curve yields an
// empty linestring.
func (n *NurbsCurve) ToLineString(numSegments int) (*LineString, error) {
	if numSegments < 0 {
		return nil, fmt.Errorf("segment count %d: %w", numSegments, errs.ErrInvalidSegments)
	}
	if numSegments == 0 {
		numSegments = NurbsDefaultSegments
	}
	if n.points.IsEmpty() {
		return NewLineString(n.srid, NewPointArray(n.flags.HasZ(), n.flags.HasM(), 0)), nil
	}
	if numSegments < NurbsMinSegments {
		numSegments = NurbsMinSegments
	}
	if numSegments > NurbsMaxSegments {
		numSegments = NurbsMaxSegments
	}

	pa := NewPointArray(n.flags.HasZ(), n.flags.HasM(), numSegments+1)
	for i := 0; i <= numSegments; i++ {
		t := float64(i) / float64(numSegments)
		p, err := n.Evaluate(t)
		if err != nil {
			return nil, err
		}
		pa.AppendPoint(p)
	}

	return NewLineString(n.srid, pa), nil
}
