package blob

import (
	"fmt"
	"math"

	"github.com/geomio/gserial/endian"
	"github.com/geomio/gserial/errs"
	"github.com/geomio/gserial/geom"
)

// Deserialize decodes a raw record buffer into a geometry. Coordinate
// storage may alias the buffer; see the geom package notes on views.
func Deserialize(data []byte) (geom.Geometry, error) {
	b, err := FromBytes(data)
	if err != nil {
		return nil, err
	}

	return b.Deserialize()
}

// Deserialize decodes the record into a geometry. A stored bounding box is
// attached as-is; records without one get a freshly computed box when the
// shape warrants caching it.
func (b *Blob) Deserialize() (geom.Geometry, error) {
	gf := b.GeomFlags()
	srid := b.SRID()
	p := b.Payload()

	r := &payloadReader{p: p}
	g, err := r.readGeometry(gf, srid)
	if err != nil {
		return nil, err
	}
	if r.off != len(p) {
		return nil, fmt.Errorf("payload has %d trailing bytes: %w", len(p)-r.off, errs.ErrSizeMismatch)
	}

	if b.HasBBox() {
		box, err := b.ReadGBox()
		if err != nil {
			return nil, err
		}
		g.SetBBox(box)
	} else if geom.NeedsBBox(g) {
		if box, err := geom.CalculateGBox(g); err == nil {
			g.SetBBox(box)
		}
	}

	return g, nil
}

// payloadReader is a bounds-checked cursor over a geometry payload.
type payloadReader struct {
	p   []byte
	off int
}

func (r *payloadReader) uint32() (uint32, error) {
	if r.off+4 > len(r.p) {
		return 0, errs.ErrTruncatedPayload
	}
	v := endian.NativeEngine().Uint32(r.p[r.off:])
	r.off += 4

	return v, nil
}

// bytes returns the next n raw payload bytes without copying.
func (r *payloadReader) bytes(n int) ([]byte, error) {
	if n < 0 || r.off+n > len(r.p) {
		return nil, errs.ErrTruncatedPayload
	}
	out := r.p[r.off : r.off+n]
	r.off += n

	return out, nil
}

// doubles reads and copies n float64 values. Used for weight and knot
// vectors, which sit at 4-byte alignment and cannot be viewed in place.
func (r *payloadReader) doubles(n int) ([]float64, error) {
	if n == 0 {
		return nil, nil
	}
	raw, err := r.bytes(n * 8)
	if err != nil {
		return nil, err
	}
	eng := endian.NativeEngine()
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Float64frombits(eng.Uint64(raw[i*8:]))
	}

	return out, nil
}

// pointArray reads npoints coordinates as a (possibly zero-copy) array.
func (r *payloadReader) pointArray(gf geom.Flags, npoints int) (*geom.PointArray, error) {
	data, err := r.bytes(npoints * 8 * gf.NDims())
	if err != nil {
		return nil, err
	}

	return geom.NewPointArrayView(gf.HasZ(), gf.HasM(), npoints, data)
}

func (r *payloadReader) readGeometry(gf geom.Flags, srid int32) (geom.Geometry, error) {
	tcode, err := r.uint32()
	if err != nil {
		return nil, err
	}
	t := geom.Type(tcode)
	if !t.Valid() {
		return nil, fmt.Errorf("type code %d: %w", tcode, errs.ErrInvalidGeometryType)
	}

	switch t {
	case geom.TypePoint:
		npoints, err := r.uint32()
		if err != nil {
			return nil, err
		}
		pa, err := r.pointArray(gf, int(npoints))
		if err != nil {
			return nil, err
		}
		pt, err := geom.NewPointFromArray(srid, pa)
		if err != nil {
			return nil, err
		}
		pt.SetFlags(gf)

		return pt, nil

	case geom.TypeLineString, geom.TypeCircularString, geom.TypeTriangle:
		npoints, err := r.uint32()
		if err != nil {
			return nil, err
		}
		pa, err := r.pointArray(gf, int(npoints))
		if err != nil {
			return nil, err
		}
		switch t {
		case geom.TypeLineString:
			ls := geom.NewLineString(srid, pa)
			ls.SetFlags(gf)

			return ls, nil
		case geom.TypeCircularString:
			cs := geom.NewCircularString(srid, pa)
			cs.SetFlags(gf)

			return cs, nil
		default:
			tr := geom.NewTriangle(srid, pa)
			tr.SetFlags(gf)

			return tr, nil
		}

	case geom.TypePolygon:
		nrings, err := r.uint32()
		if err != nil {
			return nil, err
		}
		if int(nrings)*4 > len(r.p)-r.off {
			return nil, errs.ErrTruncatedPayload
		}
		counts := make([]uint32, nrings)
		for i := range counts {
			if counts[i], err = r.uint32(); err != nil {
				return nil, err
			}
		}
		if nrings%2 != 0 {
			// Skip the alignment pad after an odd ring count table.
			if _, err = r.uint32(); err != nil {
				return nil, err
			}
		}
		rings := make([]*geom.PointArray, nrings)
		for i := range rings {
			if rings[i], err = r.pointArray(gf, int(counts[i])); err != nil {
				return nil, err
			}
		}
		pg, err := geom.NewPolygon(srid, gf.HasZ(), gf.HasM(), rings...)
		if err != nil {
			return nil, err
		}
		pg.SetFlags(gf)

		return pg, nil

	case geom.TypeNurbsCurve:
		var npoints, degree, nweights, nknots uint32
		if npoints, err = r.uint32(); err != nil {
			return nil, err
		}
		if degree, err = r.uint32(); err != nil {
			return nil, err
		}
		if nweights, err = r.uint32(); err != nil {
			return nil, err
		}
		if nknots, err = r.uint32(); err != nil {
			return nil, err
		}
		if nweights != 0 && nweights != npoints {
			return nil, fmt.Errorf("%d weights for %d control points: %w", nweights, npoints, errs.ErrInvalidWeights)
		}
		weights, err := r.doubles(int(nweights))
		if err != nil {
			return nil, err
		}
		knots, err := r.doubles(int(nknots))
		if err != nil {
			return nil, err
		}
		pa, err := r.pointArray(gf, int(npoints))
		if err != nil {
			return nil, err
		}
		nc, err := geom.NewNurbsCurve(srid, int(degree), pa, weights, knots)
		if err != nil {
			return nil, err
		}
		nc.SetFlags(gf)

		return nc, nil

	default:
		ngeoms, err := r.uint32()
		if err != nil {
			return nil, err
		}
		// Every member needs at least a type and count word.
		if int(ngeoms)*8 > len(r.p)-r.off {
			return nil, errs.ErrTruncatedPayload
		}
		col, err := geom.NewCollection(t, srid, gf.HasZ(), gf.HasM())
		if err != nil {
			return nil, err
		}
		col.SetFlags(gf)
		for i := uint32(0); i < ngeoms; i++ {
			sub, err := r.readGeometry(gf, srid)
			if err != nil {
				return nil, err
			}
			if err := col.Add(sub); err != nil {
				return nil, err
			}
		}

		return col, nil
	}
}
