package wkb

import (
	"fmt"
	"math"

	"github.com/geomio/gserial/endian"
	"github.com/geomio/gserial/errs"
	"github.com/geomio/gserial/geom"
)

// Unmarshal decodes a WKB byte stream into a geometry. Every structure
// carries its own byte-order marker, so mixed-endian input is accepted.
// The whole input must be consumed.
func Unmarshal(data []byte) (geom.Geometry, error) {
	p := &wkbParser{data: data}
	g, err := p.readGeometry(geom.SRIDUnknown)
	if err != nil {
		return nil, err
	}
	if p.off != len(data) {
		return nil, fmt.Errorf("%d trailing bytes: %w", len(data)-p.off, errs.ErrSizeMismatch)
	}

	return g, nil
}

// UnmarshalHex decodes a hex WKB string, accepting either letter case.
func UnmarshalHex(s string) (geom.Geometry, error) {
	raw, err := hexDecode(s)
	if err != nil {
		return nil, err
	}

	return Unmarshal(raw)
}

type wkbParser struct {
	data []byte
	off  int
}

func (p *wkbParser) byte() (byte, error) {
	if p.off >= len(p.data) {
		return 0, errs.ErrTruncatedWKB
	}
	b := p.data[p.off]
	p.off++

	return b, nil
}

func (p *wkbParser) uint32(eng endian.EndianEngine) (uint32, error) {
	if p.off+4 > len(p.data) {
		return 0, errs.ErrTruncatedWKB
	}
	v := eng.Uint32(p.data[p.off:])
	p.off += 4

	return v, nil
}

func (p *wkbParser) double(eng endian.EndianEngine) (float64, error) {
	if p.off+8 > len(p.data) {
		return 0, errs.ErrTruncatedWKB
	}
	v := math.Float64frombits(eng.Uint64(p.data[p.off:]))
	p.off += 8

	return v, nil
}

func (p *wkbParser) ordinates(eng endian.EndianEngine, n int) ([]float64, error) {
	if n < 0 || p.off+n*8 > len(p.data) {
		return nil, errs.ErrTruncatedWKB
	}
	out := make([]float64, n)
	for i := range out {
		out[i], _ = p.double(eng)
	}

	return out, nil
}

func (p *wkbParser) engine() (endian.EndianEngine, error) {
	marker, err := p.byte()
	if err != nil {
		return nil, err
	}
	eng, ok := endian.MarkerEngine(marker)
	if !ok {
		return nil, fmt.Errorf("marker 0x%02X: %w", marker, errs.ErrInvalidEndianMarker)
	}

	return eng, nil
}

func (p *wkbParser) pointArray(eng endian.EndianEngine, hasZ, hasM bool, npoints int) (*geom.PointArray, error) {
	dims := geom.MakeFlags(hasZ, hasM).NDims()
	ords, err := p.ordinates(eng, npoints*dims)
	if err != nil {
		return nil, err
	}

	return geom.NewPointArrayFromOrds(hasZ, hasM, ords)
}

// readGeometry decodes one WKB structure. Collection members without an
// SRID of their own inherit inheritSRID.
func (p *wkbParser) readGeometry(inheritSRID int32) (geom.Geometry, error) {
	eng, err := p.engine()
	if err != nil {
		return nil, err
	}
	word, err := p.uint32(eng)
	if err != nil {
		return nil, err
	}
	t, hasZ, hasM, hasSRID, err := decodeTypeWord(word)
	if err != nil {
		return nil, err
	}

	srid := inheritSRID
	if hasSRID {
		raw, err := p.uint32(eng)
		if err != nil {
			return nil, err
		}
		srid = int32(raw)
	}

	switch t {
	case geom.TypePoint:
		dims := geom.MakeFlags(hasZ, hasM).NDims()
		ords, err := p.ordinates(eng, dims)
		if err != nil {
			return nil, err
		}
		// An all-NaN coordinate is the canonical empty point.
		if math.IsNaN(ords[0]) && math.IsNaN(ords[1]) {
			return geom.NewEmptyPoint(srid, hasZ, hasM), nil
		}
		pt := geom.Point4D{X: ords[0], Y: ords[1]}
		pos := 2
		if hasZ {
			pt.Z = ords[pos]
			pos++
		}
		if hasM {
			pt.M = ords[pos]
		}

		return geom.NewPoint(srid, hasZ, hasM, pt), nil

	case geom.TypeLineString, geom.TypeCircularString:
		npoints, err := p.uint32(eng)
		if err != nil {
			return nil, err
		}
		pa, err := p.pointArray(eng, hasZ, hasM, int(npoints))
		if err != nil {
			return nil, err
		}
		if t == geom.TypeLineString {
			return geom.NewLineString(srid, pa), nil
		}

		return geom.NewCircularString(srid, pa), nil

	case geom.TypePolygon:
		nrings, err := p.uint32(eng)
		if err != nil {
			return nil, err
		}
		if int(nrings)*4 > len(p.data)-p.off {
			return nil, errs.ErrTruncatedWKB
		}
		rings := make([]*geom.PointArray, nrings)
		for i := range rings {
			npoints, err := p.uint32(eng)
			if err != nil {
				return nil, err
			}
			if rings[i], err = p.pointArray(eng, hasZ, hasM, int(npoints)); err != nil {
				return nil, err
			}
		}

		return geom.NewPolygon(srid, hasZ, hasM, rings...)

	case geom.TypeTriangle:
		nrings, err := p.uint32(eng)
		if err != nil {
			return nil, err
		}
		if nrings > 1 {
			return nil, fmt.Errorf("triangle with %d rings: %w", nrings, errs.ErrInvalidWKBType)
		}
		pa := geom.NewPointArray(hasZ, hasM, 0)
		if nrings == 1 {
			npoints, err := p.uint32(eng)
			if err != nil {
				return nil, err
			}
			if pa, err = p.pointArray(eng, hasZ, hasM, int(npoints)); err != nil {
				return nil, err
			}
		}

		return geom.NewTriangle(srid, pa), nil

	case geom.TypeNurbsCurve:
		return p.readNurbs(eng, srid, hasZ, hasM)

	default:
		ngeoms, err := p.uint32(eng)
		if err != nil {
			return nil, err
		}
		// Each member takes at least a marker and a type word.
		if int(ngeoms)*5 > len(p.data)-p.off {
			return nil, errs.ErrTruncatedWKB
		}
		col, err := geom.NewCollection(t, srid, hasZ, hasM)
		if err != nil {
			return nil, err
		}
		for i := uint32(0); i < ngeoms; i++ {
			sub, err := p.readGeometry(srid)
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

// readNurbs decodes the SQL/MM curve body. A zero degree is the canonical
// empty form, with nothing following it. Each control point block has its
// own byte-order marker governing its coordinates and optional weight.
func (p *wkbParser) readNurbs(eng endian.EndianEngine, srid int32, hasZ, hasM bool) (geom.Geometry, error) {
	degree, err := p.uint32(eng)
	if err != nil {
		return nil, err
	}
	if degree == 0 {
		return geom.NewEmptyNurbsCurve(srid, hasZ, hasM), nil
	}

	npoints, err := p.uint32(eng)
	if err != nil {
		return nil, err
	}
	dims := geom.MakeFlags(hasZ, hasM).NDims()
	if int(npoints)*(2+dims*8) > len(p.data)-p.off {
		return nil, errs.ErrTruncatedWKB
	}

	ords := make([]float64, 0, int(npoints)*dims)
	weights := make([]float64, npoints)
	rational := false
	for i := uint32(0); i < npoints; i++ {
		peng, err := p.engine()
		if err != nil {
			return nil, err
		}
		coords, err := p.ordinates(peng, dims)
		if err != nil {
			return nil, err
		}
		ords = append(ords, coords...)

		flag, err := p.byte()
		if err != nil {
			return nil, err
		}
		weights[i] = 1.0
		if flag != 0 {
			if weights[i], err = p.double(peng); err != nil {
				return nil, err
			}
			rational = true
		}
	}
	if !rational {
		weights = nil
	}

	nknots, err := p.uint32(eng)
	if err != nil {
		return nil, err
	}
	var knots []float64
	if nknots > 0 {
		if knots, err = p.ordinates(eng, int(nknots)); err != nil {
			return nil, err
		}
	}

	pa, err := geom.NewPointArrayFromOrds(hasZ, hasM, ords)
	if err != nil {
		return nil, err
	}

	return geom.NewNurbsCurve(srid, int(degree), pa, weights, knots)
}
