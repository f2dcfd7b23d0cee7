package geom

// Type identifies a geometry type. The numeric values are the type codes
// written into serialized geometry payloads.
type Type uint32

const (
	// TypePoint is a single position.
	TypePoint Type = 1
	// TypeLineString is a sequence of positions joined by straight segments.
	TypeLineString Type = 2
	// TypePolygon is a set of rings, the first exterior, the rest holes.
	TypePolygon Type = 3
	// TypeMultiPoint is a collection of points.
	TypeMultiPoint Type = 4
	// TypeMultiLineString is a collection of linestrings.
	TypeMultiLineString Type = 5
	// TypeMultiPolygon is a collection of polygons.
	TypeMultiPolygon Type = 6
	// TypeGeometryCollection is a heterogeneous collection of geometries.
	TypeGeometryCollection Type = 7
	// TypeCircularString is a sequence of circular arcs.
	TypeCircularString Type = 8
	// TypeCompoundCurve is a contiguous mix of linear and arc segments.
	TypeCompoundCurve Type = 9
	// TypeCurvePolygon is a polygon whose rings may be curved.
	TypeCurvePolygon Type = 10
	// TypeMultiCurve is a collection of curves.
	TypeMultiCurve Type = 11
	// TypeMultiSurface is a collection of surfaces.
	TypeMultiSurface Type = 12
	// TypePolyhedralSurface is a surface of polygonal patches.
	TypePolyhedralSurface Type = 13
	// TypeTriangle is a single three-vertex ring.
	TypeTriangle Type = 14
	// TypeTIN is a triangulated irregular network.
	TypeTIN Type = 15
	// TypeNurbsCurve is a non-uniform rational B-spline curve.
	TypeNurbsCurve Type = 16
)

const typeLast = TypeNurbsCurve

// String returns the canonical upper-case name of the geometry type.
func (t Type) String() string {
	switch t {
	case TypePoint:
		return "POINT"
	case TypeLineString:
		return "LINESTRING"
	case TypePolygon:
		return "POLYGON"
	case TypeMultiPoint:
		return "MULTIPOINT"
	case TypeMultiLineString:
		return "MULTILINESTRING"
	case TypeMultiPolygon:
		return "MULTIPOLYGON"
	case TypeGeometryCollection:
		return "GEOMETRYCOLLECTION"
	case TypeCircularString:
		return "CIRCULARSTRING"
	case TypeCompoundCurve:
		return "COMPOUNDCURVE"
	case TypeCurvePolygon:
		return "CURVEPOLYGON"
	case TypeMultiCurve:
		return "MULTICURVE"
	case TypeMultiSurface:
		return "MULTISURFACE"
	case TypePolyhedralSurface:
		return "POLYHEDRALSURFACE"
	case TypeTriangle:
		return "TRIANGLE"
	case TypeTIN:
		return "TIN"
	case TypeNurbsCurve:
		return "NURBSCURVE"
	default:
		return "UNKNOWN"
	}
}

// Valid reports whether t is a known geometry type code.
func (t Type) Valid() bool {
	return t >= TypePoint && t <= typeLast
}

// IsCollection reports whether the serialized payload of t is a count of
// sub-geometries followed by the sub-geometry payloads.
func (t Type) IsCollection() bool {
	switch t {
	case TypeMultiPoint, TypeMultiLineString, TypeMultiPolygon, TypeGeometryCollection,
		TypeCompoundCurve, TypeCurvePolygon, TypeMultiCurve, TypeMultiSurface,
		TypePolyhedralSurface, TypeTIN:
		return true
	default:
		return false
	}
}

// AllowsSubtype reports whether a geometry of type sub may appear as a direct
// member of a collection of type t.
func (t Type) AllowsSubtype(sub Type) bool {
	switch t {
	case TypeGeometryCollection:
		return sub.Valid()
	case TypeMultiPoint:
		return sub == TypePoint
	case TypeMultiLineString:
		return sub == TypeLineString
	case TypeMultiPolygon:
		return sub == TypePolygon
	case TypeCompoundCurve:
		return sub == TypeLineString || sub == TypeCircularString
	case TypeCurvePolygon:
		return sub == TypeLineString || sub == TypeCircularString || sub == TypeCompoundCurve
	case TypeMultiCurve:
		return sub == TypeLineString || sub == TypeCircularString ||
			sub == TypeCompoundCurve || sub == TypeNurbsCurve
	case TypeMultiSurface:
		return sub == TypePolygon || sub == TypeCurvePolygon
	case TypePolyhedralSurface:
		return sub == TypePolygon
	case TypeTIN:
		return sub == TypeTriangle
	default:
		return false
	}
}
