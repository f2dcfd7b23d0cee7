// Package wkb converts geometries to and from the Well-Known Binary wire
// format: plain OGC WKB, ISO SQL/MM (dimension offsets in the type code),
// and extended WKB (Z/M/SRID bit flags in the type code). Output endianness
// is selectable per call, and a hex-string form is available for transports
// that cannot carry raw bytes.
package wkb

import (
	"fmt"

	"github.com/geomio/gserial/errs"
	"github.com/geomio/gserial/geom"
)

// Variant selects the WKB dialect and encoding options. Exactly one of ISO,
// SFSQL or Extended should be set; when none is, SFSQL rules apply. NDR and
// XDR pick the byte order; with neither (or both) the machine order is used.
type Variant uint8

const (
	// ISO writes SQL/MM type codes: Z adds 1000, M adds 2000.
	ISO Variant = 0x01
	// SFSQL writes plain OGC type codes and only XY ordinates.
	SFSQL Variant = 0x02
	// Extended writes Z, M and SRID as bit flags in the type code.
	Extended Variant = 0x04
	// NDR requests little-endian output.
	NDR Variant = 0x08
	// XDR requests big-endian output.
	XDR Variant = 0x10
	// Hex emits ASCII hex characters instead of raw bytes.
	Hex Variant = 0x20

	// noNumPoints suppresses the count word inside a point's ordinate run.
	noNumPoints Variant = 0x40
	// noSRID suppresses the SRID on collection members, which inherit it.
	noSRID Variant = 0x80
)

// WKB type codes.
const (
	wkbPoint              uint32 = 1
	wkbLineString         uint32 = 2
	wkbPolygon            uint32 = 3
	wkbMultiPoint         uint32 = 4
	wkbMultiLineString    uint32 = 5
	wkbMultiPolygon       uint32 = 6
	wkbGeometryCollection uint32 = 7
	wkbCircularString     uint32 = 8
	wkbCompoundCurve      uint32 = 9
	wkbCurvePolygon       uint32 = 10
	wkbMultiCurve         uint32 = 11
	wkbMultiSurface       uint32 = 12
	wkbPolyhedralSurface  uint32 = 15
	wkbTIN                uint32 = 16
	wkbTriangle           uint32 = 17
	wkbNurbsCurve         uint32 = 18
)

// Extended WKB flag bits in the type word.
const (
	ewkbZ    uint32 = 0x80000000
	ewkbM    uint32 = 0x40000000
	ewkbSRID uint32 = 0x20000000
)

var wkbTypeCodes = map[geom.Type]uint32{
	geom.TypePoint:              wkbPoint,
	geom.TypeLineString:         wkbLineString,
	geom.TypePolygon:            wkbPolygon,
	geom.TypeMultiPoint:         wkbMultiPoint,
	geom.TypeMultiLineString:    wkbMultiLineString,
	geom.TypeMultiPolygon:       wkbMultiPolygon,
	geom.TypeGeometryCollection: wkbGeometryCollection,
	geom.TypeCircularString:     wkbCircularString,
	geom.TypeCompoundCurve:      wkbCompoundCurve,
	geom.TypeCurvePolygon:       wkbCurvePolygon,
	geom.TypeMultiCurve:         wkbMultiCurve,
	geom.TypeMultiSurface:       wkbMultiSurface,
	geom.TypePolyhedralSurface:  wkbPolyhedralSurface,
	geom.TypeTIN:                wkbTIN,
	geom.TypeTriangle:           wkbTriangle,
	geom.TypeNurbsCurve:         wkbNurbsCurve,
}

var geomTypeCodes = func() map[uint32]geom.Type {
	m := make(map[uint32]geom.Type, len(wkbTypeCodes))
	for g, w := range wkbTypeCodes {
		m[w] = g
	}

	return m
}()

// needsSRID reports whether the SRID integer participates for geometry g.
// Collection members never carry one; they inherit the parent's.
func needsSRID(g geom.Geometry, v Variant) bool {
	if v&noSRID != 0 {
		return false
	}

	return v&Extended != 0 && g.SRID() != geom.SRIDUnknown
}

// wkbType computes the type word for g under variant v. NURBS curves use
// ISO dimension offsets in every dialect; the SRID bit still applies so an
// extended-variant curve stays symmetric for the reader.
func wkbType(g geom.Geometry, v Variant) (uint32, error) {
	w, ok := wkbTypeCodes[g.Type()]
	if !ok {
		return 0, fmt.Errorf("%s: %w", g.Type(), errs.ErrInvalidWKBType)
	}
	// Plain SFSQL only defines the seven OGC types.
	if v&(ISO|Extended) == 0 && w > wkbGeometryCollection {
		return 0, fmt.Errorf("%s in sfsql output: %w", g.Type(), errs.ErrUnsupportedVariant)
	}

	f := g.Flags()
	if g.Type() == geom.TypeNurbsCurve {
		if f.HasZ() {
			w += 1000
		}
		if f.HasM() {
			w += 2000
		}
		if needsSRID(g, v) {
			w |= ewkbSRID
		}

		return w, nil
	}

	switch {
	case v&Extended != 0:
		if f.HasZ() {
			w |= ewkbZ
		}
		if f.HasM() {
			w |= ewkbM
		}
		if needsSRID(g, v) {
			w |= ewkbSRID
		}
	case v&ISO != 0:
		if f.HasZ() {
			w += 1000
		}
		if f.HasM() {
			w += 2000
		}
	}

	return w, nil
}

// decodeTypeWord splits a WKB type word into geometry type, dimension flags
// and SRID presence, accepting both extended flag bits and ISO offsets.
func decodeTypeWord(w uint32) (t geom.Type, hasZ, hasM, hasSRID bool, err error) {
	hasSRID = w&ewkbSRID != 0
	hasZ = w&ewkbZ != 0
	hasM = w&ewkbM != 0
	w &^= ewkbZ | ewkbM | ewkbSRID

	switch w / 1000 {
	case 0:
	case 1:
		hasZ = true
	case 2:
		hasM = true
	case 3:
		hasZ, hasM = true, true
	default:
		return 0, false, false, false, fmt.Errorf("type word %d: %w", w, errs.ErrInvalidWKBType)
	}

	t, ok := geomTypeCodes[w%1000]
	if !ok {
		return 0, false, false, false, fmt.Errorf("type code %d: %w", w%1000, errs.ErrInvalidWKBType)
	}

	return t, hasZ, hasM, hasSRID, nil
}
