package geom

import (
	"math"

	"github.com/geomio/gserial/errs"
)

// GBox is a bounding box over up to four dimensions. Which min/max pairs are
// meaningful follows the Flags: Z and M for cartesian boxes, Z only for
// geodetic boxes.
type GBox struct {
	Flags Flags
	XMin  float64
	XMax  float64
	YMin  float64
	YMax  float64
	ZMin  float64
	ZMax  float64
	MMin  float64
	MMax  float64
}

// NextFloatDown returns the largest float32 not greater than d. Values below
// the float32 range saturate to negative infinity so the widened bound still
// contains d.
func NextFloatDown(d float64) float32 {
	if d < -math.MaxFloat32 {
		return float32(math.Inf(-1))
	}
	if d > math.MaxFloat32 {
		return math.MaxFloat32
	}
	f := float32(d)
	if float64(f) <= d {
		return f
	}

	return math.Nextafter32(f, float32(math.Inf(-1)))
}

// NextFloatUp returns the smallest float32 not less than d. Values above the
// float32 range saturate to positive infinity so the widened bound still
// contains d.
func NextFloatUp(d float64) float32 {
	if d > math.MaxFloat32 {
		return float32(math.Inf(1))
	}
	if d < -math.MaxFloat32 {
		return -math.MaxFloat32
	}
	f := float32(d)
	if float64(f) >= d {
		return f
	}

	return math.Nextafter32(f, float32(math.Inf(1)))
}

// SetPoint initializes the box to cover the single point p.
func (b *GBox) SetPoint(p Point4D) {
	b.XMin, b.XMax = p.X, p.X
	b.YMin, b.YMax = p.Y, p.Y
	b.ZMin, b.ZMax = p.Z, p.Z
	b.MMin, b.MMax = p.M, p.M
}

// MergePoint expands the box to cover p.
func (b *GBox) MergePoint(p Point4D) {
	b.XMin = math.Min(b.XMin, p.X)
	b.XMax = math.Max(b.XMax, p.X)
	b.YMin = math.Min(b.YMin, p.Y)
	b.YMax = math.Max(b.YMax, p.Y)
	b.ZMin = math.Min(b.ZMin, p.Z)
	b.ZMax = math.Max(b.ZMax, p.Z)
	b.MMin = math.Min(b.MMin, p.M)
	b.MMax = math.Max(b.MMax, p.M)
}

// Merge expands the box to cover o.
func (b *GBox) Merge(o *GBox) {
	b.MergePoint(Point4D{X: o.XMin, Y: o.YMin, Z: o.ZMin, M: o.MMin})
	b.MergePoint(Point4D{X: o.XMax, Y: o.YMax, Z: o.ZMax, M: o.MMax})
}

// FloatRound widens the box bounds outward to the nearest float32 values.
// Stored boxes hold single-precision bounds, so every box that will be
// compared against a stored box has to be widened the same way.
func (b *GBox) FloatRound() {
	b.XMin = float64(NextFloatDown(b.XMin))
	b.XMax = float64(NextFloatUp(b.XMax))
	b.YMin = float64(NextFloatDown(b.YMin))
	b.YMax = float64(NextFloatUp(b.YMax))
	if b.Flags.HasZ() || b.Flags.IsGeodetic() {
		b.ZMin = float64(NextFloatDown(b.ZMin))
		b.ZMax = float64(NextFloatUp(b.ZMax))
	}
	if b.Flags.HasM() {
		b.MMin = float64(NextFloatDown(b.MMin))
		b.MMax = float64(NextFloatUp(b.MMax))
	}
}

// Clone returns a copy of the box.
func (b *GBox) Clone() *GBox {
	if b == nil {
		return nil
	}
	c := *b

	return &c
}

// Equal reports exact equality of bounds over the dimensions the flags name.
func (b *GBox) Equal(o *GBox) bool {
	if b == nil || o == nil {
		return b == o
	}
	if !b.Flags.SameZM(o.Flags) {
		return false
	}
	if b.XMin != o.XMin || b.XMax != o.XMax || b.YMin != o.YMin || b.YMax != o.YMax {
		return false
	}
	if (b.Flags.HasZ() || b.Flags.IsGeodetic()) && (b.ZMin != o.ZMin || b.ZMax != o.ZMax) {
		return false
	}
	if b.Flags.HasM() && (b.MMin != o.MMin || b.MMax != o.MMax) {
		return false
	}

	return true
}

// NeedsBBox reports whether a geometry is worth carrying a bounding box in
// its serialized form. The exceptions are exactly the shapes whose box can
// be derived from the serialized coordinates with a fixed number of reads.
func NeedsBBox(g Geometry) bool {
	switch gg := g.(type) {
	case *Point:
		return false
	case *LineString:
		return gg.Points().Len() > 2
	case *Collection:
		switch gg.Type() {
		case TypeMultiPoint:
			return gg.NumGeoms() != 1
		case TypeMultiLineString:
			return !(gg.NumGeoms() == 1 && NumVertices(gg) <= 2)
		}

		return true
	default:
		return true
	}
}

// CalculateGBox computes the bounding box of g from its coordinates.
// Geodetic flags are carried through but ordinates are treated cartesianly.
// Returns ErrEmptyGeometry when there are no coordinates to bound.
func CalculateGBox(g Geometry) (*GBox, error) {
	box := &GBox{Flags: g.Flags()}
	first := true
	expandGBox(g, box, &first)
	if first {
		return nil, errs.ErrEmptyGeometry
	}

	return box, nil
}

func expandGBox(g Geometry, box *GBox, first *bool) {
	switch gg := g.(type) {
	case *Point:
		mergeArrayGBox(gg.Coordinates(), box, first)
	case *LineString:
		mergeArrayGBox(gg.Points(), box, first)
	case *CircularString:
		mergeArrayGBox(gg.Points(), box, first)
	case *Triangle:
		mergeArrayGBox(gg.Points(), box, first)
	case *Polygon:
		for i := 0; i < gg.NumRings(); i++ {
			mergeArrayGBox(gg.Ring(i), box, first)
		}
	case *NurbsCurve:
		mergeArrayGBox(gg.ControlPoints(), box, first)
	case *Collection:
		for i := 0; i < gg.NumGeoms(); i++ {
			expandGBox(gg.Geom(i), box, first)
		}
	}
}

func mergeArrayGBox(pa *PointArray, box *GBox, first *bool) {
	for i := 0; i < pa.Len(); i++ {
		p, _ := pa.PointAt(i)
		if *first {
			box.SetPoint(p)
			*first = false
		} else {
			box.MergePoint(p)
		}
	}
}
