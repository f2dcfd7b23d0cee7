// Package geom provides the in-memory geometry model for the gserial codec:
// points, linear and circular strings, polygons, triangles, the ten
// collection kinds, and NURBS curves, together with their dimensional flags,
// coordinate storage and bounding boxes.
//
// Geometries produced by decoding a serialized record may share coordinate
// storage with the record buffer (see PointArray). Treat decoded geometries
// as read-only, or Clone them before modification.
package geom

import (
	"fmt"

	"github.com/geomio/gserial/errs"
)

// SRIDUnknown is the spatial reference identifier of geometries without a
// declared reference system. It is stored as zero on disk.
const SRIDUnknown int32 = 0

// SRIDMax is the largest SRID value carried through serialization.
// The on-disk SRID field is 21 bits, signed.
const SRIDMax int32 = 999999

// ClampSRID maps out-of-range SRID values into the representable range.
// Non-positive values become SRIDUnknown.
func ClampSRID(srid int32) int32 {
	if srid <= 0 {
		return SRIDUnknown
	}
	if srid > SRIDMax {
		return SRIDMax
	}

	return srid
}

// Geometry is the interface shared by all geometry kinds.
type Geometry interface {
	// Type returns the geometry type code.
	Type() Type
	// SRID returns the spatial reference identifier.
	SRID() int32
	// SetSRID sets the spatial reference identifier, clamping it into range.
	SetSRID(srid int32)
	// Flags returns the dimensional and storage flags.
	Flags() Flags
	// BBox returns the cached bounding box, or nil when none is attached.
	BBox() *GBox
	// SetBBox attaches (or with nil, detaches) a bounding box.
	SetBBox(box *GBox)
	// IsEmpty reports whether the geometry has no coordinates, recursively
	// for collections.
	IsEmpty() bool
	// Clone returns a deep copy that shares no storage with the receiver.
	Clone() Geometry
}

type gbase struct {
	srid  int32
	flags Flags
	bbox  *GBox
}

func (b *gbase) SRID() int32        { return b.srid }
func (b *gbase) SetSRID(srid int32) { b.srid = ClampSRID(srid) }
func (b *gbase) Flags() Flags       { return b.flags }
func (b *gbase) BBox() *GBox        { return b.bbox }
func (b *gbase) SetBBox(box *GBox)  { b.bbox = box }
func (b *gbase) SetFlags(f Flags)   { b.flags = f }
func (b *gbase) SetGeodetic(v bool) { b.flags.SetGeodetic(v) }

// Point is a single position, possibly empty.
type Point struct {
	gbase
	coords *PointArray
}

// NewPoint creates a point at p with the given dimensions.
func NewPoint(srid int32, hasZ, hasM bool, p Point4D) *Point {
	pa := NewPointArray(hasZ, hasM, 1)
	pa.AppendPoint(p)
	pt := &Point{coords: pa}
	pt.flags = MakeFlags(hasZ, hasM)
	pt.SetSRID(srid)

	return pt
}

// NewEmptyPoint creates a point with no coordinates.
func NewEmptyPoint(srid int32, hasZ, hasM bool) *Point {
	pt := &Point{coords: NewPointArray(hasZ, hasM, 0)}
	pt.flags = MakeFlags(hasZ, hasM)
	pt.SetSRID(srid)

	return pt
}

// NewPointFromArray wraps a point array holding at most one point.
func NewPointFromArray(srid int32, pa *PointArray) (*Point, error) {
	if pa.Len() > 1 {
		return nil, fmt.Errorf("point array has %d points: %w", pa.Len(), errs.ErrInvalidOrdinates)
	}
	pt := &Point{coords: pa}
	pt.flags = pa.Flags()
	pt.SetSRID(srid)

	return pt, nil
}

// Type returns TypePoint.
func (p *Point) Type() Type { return TypePoint }

// Coordinates returns the backing array, holding zero or one point.
func (p *Point) Coordinates() *PointArray { return p.coords }

// Coord returns the point's position. Fails on empty points.
func (p *Point) Coord() (Point4D, error) {
	if p.IsEmpty() {
		return Point4D{}, errs.ErrEmptyGeometry
	}

	return p.coords.PointAt(0)
}

// IsEmpty reports whether the point has no coordinates.
func (p *Point) IsEmpty() bool { return p.coords.IsEmpty() }

// Clone returns a deep copy.
func (p *Point) Clone() Geometry {
	c := *p
	c.bbox = p.bbox.Clone()
	c.coords = p.coords.Clone()

	return &c
}

// LineString is a sequence of positions joined by straight segments.
type LineString struct {
	gbase
	points *PointArray
}

// NewLineString wraps a point array as a linestring.
func NewLineString(srid int32, pa *PointArray) *LineString {
	ls := &LineString{points: pa}
	ls.flags = pa.Flags()
	ls.SetSRID(srid)

	return ls
}

// Type returns TypeLineString.
func (l *LineString) Type() Type { return TypeLineString }

// Points returns the vertex array.
func (l *LineString) Points() *PointArray { return l.points }

// IsEmpty reports whether the linestring has no vertices.
func (l *LineString) IsEmpty() bool { return l.points.IsEmpty() }

// Clone returns a deep copy.
func (l *LineString) Clone() Geometry {
	c := *l
	c.bbox = l.bbox.Clone()
	c.points = l.points.Clone()

	return &c
}

// CircularString is a sequence of circular arcs, three vertices per arc
// with shared endpoints.
type CircularString struct {
	gbase
	points *PointArray
}

// NewCircularString wraps a point array as a circularstring.
func NewCircularString(srid int32, pa *PointArray) *CircularString {
	cs := &CircularString{points: pa}
	cs.flags = pa.Flags()
	cs.SetSRID(srid)

	return cs
}

// Type returns TypeCircularString.
func (c *CircularString) Type() Type { return TypeCircularString }

// Points returns the vertex array.
func (c *CircularString) Points() *PointArray { return c.points }

// IsEmpty reports whether the circularstring has no vertices.
func (c *CircularString) IsEmpty() bool { return c.points.IsEmpty() }

// Clone returns a deep copy.
func (c *CircularString) Clone() Geometry {
	cc := *c
	cc.bbox = c.bbox.Clone()
	cc.points = c.points.Clone()

	return &cc
}

// Polygon is a set of rings. The first ring is the exterior boundary, any
// further rings are holes.
type Polygon struct {
	gbase
	rings []*PointArray
}

// NewPolygon builds a polygon from rings. All rings must agree on Z/M.
func NewPolygon(srid int32, hasZ, hasM bool, rings ...*PointArray) (*Polygon, error) {
	pg := &Polygon{}
	pg.flags = MakeFlags(hasZ, hasM)
	pg.SetSRID(srid)
	for _, ring := range rings {
		if err := pg.AddRing(ring); err != nil {
			return nil, err
		}
	}

	return pg, nil
}

// Type returns TypePolygon.
func (p *Polygon) Type() Type { return TypePolygon }

// NumRings returns the ring count.
func (p *Polygon) NumRings() int { return len(p.rings) }

// Ring returns ring i.
func (p *Polygon) Ring(i int) *PointArray { return p.rings[i] }

// Rings returns the ring slice.
func (p *Polygon) Rings() []*PointArray { return p.rings }

// AddRing appends a ring to the polygon.
func (p *Polygon) AddRing(ring *PointArray) error {
	if !ring.Flags().SameZM(p.flags) {
		return fmt.Errorf("ring dims differ from polygon: %w", errs.ErrDimensionMismatch)
	}
	p.rings = append(p.rings, ring)

	return nil
}

// IsEmpty reports whether the polygon has no rings, or an empty shell.
func (p *Polygon) IsEmpty() bool {
	return len(p.rings) == 0 || p.rings[0].IsEmpty()
}

// Clone returns a deep copy.
func (p *Polygon) Clone() Geometry {
	c := *p
	c.bbox = p.bbox.Clone()
	c.rings = make([]*PointArray, len(p.rings))
	for i, r := range p.rings {
		c.rings[i] = r.Clone()
	}

	return &c
}

// Triangle is a single three-vertex ring (four points, closed).
type Triangle struct {
	gbase
	points *PointArray
}

// NewTriangle wraps a point array as a triangle ring.
func NewTriangle(srid int32, pa *PointArray) *Triangle {
	t := &Triangle{points: pa}
	t.flags = pa.Flags()
	t.SetSRID(srid)

	return t
}

// Type returns TypeTriangle.
func (t *Triangle) Type() Type { return TypeTriangle }

// Points returns the ring vertex array.
func (t *Triangle) Points() *PointArray { return t.points }

// IsEmpty reports whether the triangle has no vertices.
func (t *Triangle) IsEmpty() bool { return t.points.IsEmpty() }

// Clone returns a deep copy.
func (t *Triangle) Clone() Geometry {
	c := *t
	c.bbox = t.bbox.Clone()
	c.points = t.points.Clone()

	return &c
}

// Collection is any of the ten container geometry kinds, from MultiPoint
// through GeometryCollection. The collection type constrains which member
// types are allowed; see Type.AllowsSubtype.
type Collection struct {
	gbase
	ctype Type
	geoms []Geometry
}

// NewCollection creates an empty collection of kind t.
func NewCollection(t Type, srid int32, hasZ, hasM bool) (*Collection, error) {
	if !t.IsCollection() {
		return nil, fmt.Errorf("%s is not a collection type: %w", t, errs.ErrInvalidGeometryType)
	}
	c := &Collection{ctype: t}
	c.flags = MakeFlags(hasZ, hasM)
	c.SetSRID(srid)

	return c, nil
}

// NewCollectionWith creates a collection of kind t holding geoms.
func NewCollectionWith(t Type, srid int32, hasZ, hasM bool, geoms ...Geometry) (*Collection, error) {
	c, err := NewCollection(t, srid, hasZ, hasM)
	if err != nil {
		return nil, err
	}
	for _, g := range geoms {
		if err := c.Add(g); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// Type returns the collection kind.
func (c *Collection) Type() Type { return c.ctype }

// NumGeoms returns the member count.
func (c *Collection) NumGeoms() int { return len(c.geoms) }

// Geom returns member i.
func (c *Collection) Geom(i int) Geometry { return c.geoms[i] }

// Geoms returns the member slice.
func (c *Collection) Geoms() []Geometry { return c.geoms }

// Add appends a member geometry, enforcing the collection's subtype rule
// and dimensional agreement.
func (c *Collection) Add(g Geometry) error {
	if !c.ctype.AllowsSubtype(g.Type()) {
		return fmt.Errorf("%s in %s: %w", g.Type(), c.ctype, errs.ErrInvalidSubtype)
	}
	if !g.Flags().SameZM(c.flags) {
		return fmt.Errorf("member dims differ from collection: %w", errs.ErrDimensionMismatch)
	}
	c.geoms = append(c.geoms, g)

	return nil
}

// IsEmpty reports whether the collection has no members, or only empty ones.
func (c *Collection) IsEmpty() bool {
	for _, g := range c.geoms {
		if !g.IsEmpty() {
			return false
		}
	}

	return true
}

// Clone returns a deep copy.
func (c *Collection) Clone() Geometry {
	cc := *c
	cc.bbox = c.bbox.Clone()
	cc.geoms = make([]Geometry, len(c.geoms))
	for i, g := range c.geoms {
		cc.geoms[i] = g.Clone()
	}

	return &cc
}

// NumVertices returns the total coordinate count of a geometry.
func NumVertices(g Geometry) int {
	switch gg := g.(type) {
	case *Point:
		return gg.Coordinates().Len()
	case *LineString:
		return gg.Points().Len()
	case *CircularString:
		return gg.Points().Len()
	case *Triangle:
		return gg.Points().Len()
	case *Polygon:
		n := 0
		for _, r := range gg.Rings() {
			n += r.Len()
		}

		return n
	case *NurbsCurve:
		return gg.ControlPoints().Len()
	case *Collection:
		n := 0
		for _, sub := range gg.Geoms() {
			n += NumVertices(sub)
		}

		return n
	default:
		return 0
	}
}
