package blob

import (
	"fmt"
	"math"

	"github.com/geomio/gserial/endian"
	"github.com/geomio/gserial/errs"
	"github.com/geomio/gserial/geom"
)

// Serialize encodes a geometry into a record. A bounding box is stored when
// the geometry already carries one, or when it is non-empty and the shape is
// not trivially boundable from the coordinates (see geom.NeedsBBox).
func Serialize(g geom.Geometry) (*Blob, error) {
	gf := g.Flags()
	box := g.BBox()
	if box == nil && !g.IsEmpty() && geom.NeedsBBox(g) {
		computed, err := geom.CalculateGBox(g)
		if err != nil {
			return nil, err
		}
		box = computed
	}

	hf := headerFlagsFrom(gf, box != nil)
	psize, err := payloadSize(g)
	if err != nil {
		return nil, err
	}

	total := baseHeaderSize + psize
	if hf.HasExtended() {
		total += extendedFlagsSize
	}
	if box != nil {
		total += 4 * hf.boxFloats()
	}

	b := &Blob{buf: make([]byte, total)}
	b.buf[7] = byte(hf)
	b.setSize(uint32(total))
	b.SetSRID(g.SRID())

	off := baseHeaderSize
	if hf.HasExtended() {
		endian.NativeEngine().PutUint64(b.buf[off:], uint64(extendedFlagsFrom(gf)))
		off += extendedFlagsSize
	}
	if box != nil {
		off += writeGBoxTo(b.buf[off:], box, hf)
	}

	n, err := writeGeometry(b.buf[off:], g)
	if err != nil {
		return nil, err
	}
	if off+n != total {
		return nil, fmt.Errorf("wrote %d bytes, expected %d: %w", off+n, total, errs.ErrSizeMismatch)
	}

	return b, nil
}

// payloadSize computes the exact byte size of a geometry payload. Every
// branch here is paired with one in writeGeometry; the two must agree.
func payloadSize(g geom.Geometry) (int, error) {
	switch gg := g.(type) {
	case *geom.Point:
		return 8 + 8*gg.Flags().NDims()*gg.Coordinates().Len(), nil
	case *geom.LineString:
		return 8 + 8*gg.Flags().NDims()*gg.Points().Len(), nil
	case *geom.CircularString:
		return 8 + 8*gg.Flags().NDims()*gg.Points().Len(), nil
	case *geom.Triangle:
		return 8 + 8*gg.Flags().NDims()*gg.Points().Len(), nil
	case *geom.Polygon:
		nrings := gg.NumRings()
		size := 8 + 4*nrings
		if nrings%2 != 0 {
			// Pad the ring count table so the ordinates stay 8-byte aligned.
			size += 4
		}
		for i := 0; i < nrings; i++ {
			size += 8 * gg.Flags().NDims() * gg.Ring(i).Len()
		}

		return size, nil
	case *geom.NurbsCurve:
		knots := gg.KnotsForOutput()
		size := 20
		size += 8 * len(gg.Weights())
		size += 8 * len(knots)
		size += 8 * gg.Flags().NDims() * gg.ControlPoints().Len()

		return size, nil
	case *geom.Collection:
		size := 8
		for _, sub := range gg.Geoms() {
			n, err := payloadSize(sub)
			if err != nil {
				return 0, err
			}
			size += n
		}

		return size, nil
	default:
		return 0, fmt.Errorf("%s: %w", g.Type(), errs.ErrInvalidGeometryType)
	}
}

// writeGeometry serializes a geometry payload into buf and returns the byte
// count written. Members of a collection are written with the same layout,
// recursively, without their own headers.
func writeGeometry(buf []byte, g geom.Geometry) (int, error) {
	eng := endian.NativeEngine()
	off := 0
	putUint32 := func(v uint32) {
		eng.PutUint32(buf[off:], v)
		off += 4
	}
	putDoubles := func(vals []float64) {
		for _, v := range vals {
			eng.PutUint64(buf[off:], math.Float64bits(v))
			off += 8
		}
	}

	putUint32(uint32(g.Type()))

	switch gg := g.(type) {
	case *geom.Point:
		putUint32(uint32(gg.Coordinates().Len()))
		putDoubles(gg.Coordinates().Ords())
	case *geom.LineString:
		putUint32(uint32(gg.Points().Len()))
		putDoubles(gg.Points().Ords())
	case *geom.CircularString:
		putUint32(uint32(gg.Points().Len()))
		putDoubles(gg.Points().Ords())
	case *geom.Triangle:
		putUint32(uint32(gg.Points().Len()))
		putDoubles(gg.Points().Ords())
	case *geom.Polygon:
		nrings := gg.NumRings()
		putUint32(uint32(nrings))
		for i := 0; i < nrings; i++ {
			putUint32(uint32(gg.Ring(i).Len()))
		}
		if nrings%2 != 0 {
			putUint32(0)
		}
		for i := 0; i < nrings; i++ {
			putDoubles(gg.Ring(i).Ords())
		}
	case *geom.NurbsCurve:
		knots := gg.KnotsForOutput()
		weights := gg.Weights()
		putUint32(uint32(gg.ControlPoints().Len()))
		putUint32(uint32(gg.Degree()))
		putUint32(uint32(len(weights)))
		putUint32(uint32(len(knots)))
		putDoubles(weights)
		putDoubles(knots)
		putDoubles(gg.ControlPoints().Ords())
	case *geom.Collection:
		putUint32(uint32(gg.NumGeoms()))
		for _, sub := range gg.Geoms() {
			n, err := writeGeometry(buf[off:], sub)
			if err != nil {
				return 0, err
			}
			off += n
		}
	default:
		return 0, fmt.Errorf("%s: %w", g.Type(), errs.ErrInvalidGeometryType)
	}

	return off, nil
}
