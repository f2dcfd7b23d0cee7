package wkb

import (
	"fmt"
	"math"

	"github.com/geomio/gserial/endian"
	"github.com/geomio/gserial/errs"
	"github.com/geomio/gserial/geom"
)

// Marshal encodes g as WKB under the given variant. With Hex set the result
// is ASCII hex characters, two per byte.
func Marshal(g geom.Geometry, v Variant) ([]byte, error) {
	v, eng, marker := normalizeOrder(v)

	size, err := sizeGeometry(g, v)
	if err != nil {
		return nil, err
	}

	w := &wkbWriter{buf: make([]byte, size), eng: eng, marker: marker}
	if err := w.writeGeometry(g, v); err != nil {
		return nil, err
	}
	if w.off != size {
		return nil, fmt.Errorf("wrote %d bytes, expected %d: %w", w.off, size, errs.ErrSizeMismatch)
	}

	if v&Hex != 0 {
		return hexEncode(w.buf), nil
	}

	return w.buf, nil
}

// MarshalHex encodes g as an upper-case hex WKB string.
func MarshalHex(g geom.Geometry, v Variant) (string, error) {
	out, err := Marshal(g, v|Hex)
	if err != nil {
		return "", err
	}

	return string(out), nil
}

// normalizeOrder resolves the requested byte order. When neither or both of
// NDR and XDR are set the machine order wins.
func normalizeOrder(v Variant) (Variant, endian.EndianEngine, byte) {
	ndr := v&NDR != 0
	xdr := v&XDR != 0
	if ndr == xdr {
		ndr = endian.IsNativeLittleEndian()
	}

	if ndr {
		return (v &^ XDR) | NDR, endian.GetLittleEndianEngine(), endian.MarkerNDR
	}

	return (v &^ NDR) | XDR, endian.GetBigEndianEngine(), endian.MarkerXDR
}

// ordinateDims returns how many ordinates per point the variant carries.
// Plain SFSQL output is always two dimensional.
func ordinateDims(f geom.Flags, v Variant) int {
	if v&(ISO|Extended) != 0 {
		return f.NDims()
	}

	return 2
}

// sizeGeometry computes the exact encoded size of g. Every branch pairs
// with one in wkbWriter.writeGeometry; the two must agree.
func sizeGeometry(g geom.Geometry, v Variant) (int, error) {
	// Outside the extended dialect every empty geometry takes its
	// canonical form, collections included.
	if g.IsEmpty() && v&Extended == 0 {
		return sizeEmpty(g, v), nil
	}

	size := 1 + 4
	if needsSRID(g, v) {
		size += 4
	}

	switch gg := g.(type) {
	case *geom.Point:
		if gg.IsEmpty() {
			return sizeEmpty(g, v), nil
		}
		size += ptarraySize(gg.Coordinates(), v|noNumPoints)
	case *geom.LineString:
		if gg.IsEmpty() {
			return sizeEmpty(g, v), nil
		}
		size += ptarraySize(gg.Points(), v)
	case *geom.CircularString:
		if gg.IsEmpty() {
			return sizeEmpty(g, v), nil
		}
		size += ptarraySize(gg.Points(), v)
	case *geom.Triangle:
		if gg.IsEmpty() {
			return sizeEmpty(g, v), nil
		}
		// Ring count, then the single ring.
		size += 4 + ptarraySize(gg.Points(), v)
	case *geom.Polygon:
		if gg.IsEmpty() {
			return sizeEmpty(g, v), nil
		}
		size += 4
		for _, ring := range gg.Rings() {
			size += ptarraySize(ring, v)
		}
	case *geom.NurbsCurve:
		size += sizeNurbsBody(gg)
	case *geom.Collection:
		size += 4
		for _, sub := range gg.Geoms() {
			n, err := sizeGeometry(sub, v|noSRID)
			if err != nil {
				return 0, err
			}
			size += n
		}
	default:
		return 0, fmt.Errorf("%s: %w", g.Type(), errs.ErrInvalidWKBType)
	}

	return size, nil
}

// sizeEmpty is the canonical empty form: an empty point is a run of NaN
// ordinates, everything else a zero element count.
func sizeEmpty(g geom.Geometry, v Variant) int {
	size := 1 + 4
	if needsSRID(g, v) {
		size += 4
	}
	if g.Type() == geom.TypePoint {
		return size + 8*g.Flags().NDims()
	}

	return size + 4
}

func ptarraySize(pa *geom.PointArray, v Variant) int {
	size := 0
	if v&noNumPoints == 0 {
		size += 4
	}

	return size + pa.Len()*ordinateDims(pa.Flags(), v)*8
}

// sizeNurbsBody covers everything after the optional SRID: degree, point
// count, per-point blocks, knot count and knots. Control points always carry
// their full dimensionality, matching the curve's always-ISO type word.
func sizeNurbsBody(nc *geom.NurbsCurve) int {
	pa := nc.ControlPoints()
	dims := pa.NDims()
	weights := nc.Weights()

	size := 4 + 4
	for i := 0; i < pa.Len(); i++ {
		size += 1 + dims*8 + 1
		if weights != nil && weights[i] != 1.0 {
			size += 8
		}
	}
	size += 4 + 8*len(nc.KnotsForOutput())

	return size
}

type wkbWriter struct {
	buf    []byte
	off    int
	eng    endian.EndianEngine
	marker byte
}

func (w *wkbWriter) writeByte(b byte) {
	w.buf[w.off] = b
	w.off++
}

func (w *wkbWriter) writeUint32(v uint32) {
	w.eng.PutUint32(w.buf[w.off:], v)
	w.off += 4
}

func (w *wkbWriter) writeDouble(d float64) {
	w.eng.PutUint64(w.buf[w.off:], math.Float64bits(d))
	w.off += 8
}

func (w *wkbWriter) writeHeader(g geom.Geometry, v Variant) error {
	t, err := wkbType(g, v)
	if err != nil {
		return err
	}
	w.writeByte(w.marker)
	w.writeUint32(t)
	if needsSRID(g, v) {
		w.writeUint32(uint32(g.SRID()))
	}

	return nil
}

// emptyOrdinate is the quiet NaN written for empty-point ordinates. The
// canonical bit pattern keeps hex output byte-stable; math.NaN() carries an
// extra payload bit.
var emptyOrdinate = math.Float64frombits(0x7FF8000000000000)

func (w *wkbWriter) writeEmpty(g geom.Geometry, v Variant) error {
	if err := w.writeHeader(g, v); err != nil {
		return err
	}
	if g.Type() == geom.TypePoint {
		for i := 0; i < g.Flags().NDims(); i++ {
			w.writeDouble(emptyOrdinate)
		}

		return nil
	}
	w.writeUint32(0)

	return nil
}

func (w *wkbWriter) writePtarray(pa *geom.PointArray, v Variant) {
	dims := ordinateDims(pa.Flags(), v)
	if v&noNumPoints == 0 {
		w.writeUint32(uint32(pa.Len()))
	}
	ords := pa.Ords()
	ndims := pa.NDims()
	for i := 0; i < pa.Len(); i++ {
		for j := 0; j < dims; j++ {
			w.writeDouble(ords[i*ndims+j])
		}
	}
}

func (w *wkbWriter) writeGeometry(g geom.Geometry, v Variant) error {
	if g.IsEmpty() && v&Extended == 0 {
		return w.writeEmpty(g, v)
	}

	switch gg := g.(type) {
	case *geom.Point:
		if gg.IsEmpty() {
			return w.writeEmpty(g, v)
		}
		if err := w.writeHeader(g, v); err != nil {
			return err
		}
		w.writePtarray(gg.Coordinates(), v|noNumPoints)
	case *geom.LineString:
		if gg.IsEmpty() {
			return w.writeEmpty(g, v)
		}
		if err := w.writeHeader(g, v); err != nil {
			return err
		}
		w.writePtarray(gg.Points(), v)
	case *geom.CircularString:
		if gg.IsEmpty() {
			return w.writeEmpty(g, v)
		}
		if err := w.writeHeader(g, v); err != nil {
			return err
		}
		w.writePtarray(gg.Points(), v)
	case *geom.Triangle:
		if gg.IsEmpty() {
			return w.writeEmpty(g, v)
		}
		if err := w.writeHeader(g, v); err != nil {
			return err
		}
		w.writeUint32(1)
		w.writePtarray(gg.Points(), v)
	case *geom.Polygon:
		if gg.IsEmpty() {
			return w.writeEmpty(g, v)
		}
		if err := w.writeHeader(g, v); err != nil {
			return err
		}
		w.writeUint32(uint32(gg.NumRings()))
		for _, ring := range gg.Rings() {
			w.writePtarray(ring, v)
		}
	case *geom.NurbsCurve:
		return w.writeNurbs(gg, v)
	case *geom.Collection:
		if err := w.writeHeader(g, v); err != nil {
			return err
		}
		w.writeUint32(uint32(gg.NumGeoms()))
		for _, sub := range gg.Geoms() {
			if err := w.writeGeometry(sub, v|noSRID); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("%s: %w", g.Type(), errs.ErrInvalidWKBType)
	}

	return nil
}

// writeNurbs encodes the SQL/MM curve form: degree, control point count,
// then one block per control point holding its own byte-order marker, the
// coordinates, a weight-presence flag and the weight when it is not the
// default 1.0. The knot vector always follows, synthesized when the curve
// carries none.
func (w *wkbWriter) writeNurbs(nc *geom.NurbsCurve, v Variant) error {
	if err := w.writeHeader(nc, v); err != nil {
		return err
	}

	pa := nc.ControlPoints()
	dims := pa.NDims()
	ords := pa.Ords()
	weights := nc.Weights()

	w.writeUint32(uint32(nc.Degree()))
	w.writeUint32(uint32(pa.Len()))

	for i := 0; i < pa.Len(); i++ {
		w.writeByte(w.marker)
		for j := 0; j < dims; j++ {
			w.writeDouble(ords[i*dims+j])
		}
		if weights != nil && weights[i] != 1.0 {
			w.writeByte(1)
			w.writeDouble(weights[i])
		} else {
			w.writeByte(0)
		}
	}

	knots := nc.KnotsForOutput()
	w.writeUint32(uint32(len(knots)))
	for _, k := range knots {
		w.writeDouble(k)
	}

	return nil
}
