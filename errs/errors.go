// Package errs defines the sentinel errors shared by the gserial packages.
//
// Callers match them with errors.Is; call sites add detail with
// fmt.Errorf("...: %w", err) wrapping.
package errs

import "errors"

// Serialized record errors.
var (
	ErrRecordTooShort      = errors.New("serialized record shorter than its header")
	ErrInvalidRecordSize   = errors.New("serialized record size field does not match buffer")
	ErrInvalidFlags        = errors.New("invalid serialized flag byte")
	ErrInvalidGeometryType = errors.New("invalid geometry type code")
	ErrInvalidSubtype      = errors.New("geometry type not allowed in this collection")
	ErrTruncatedPayload    = errors.New("serialized payload truncated")
	ErrSizeMismatch        = errors.New("computed size does not match written size")
	ErrNoBoundingBox       = errors.New("no bounding box present")
	ErrEmptyGeometry       = errors.New("geometry is empty")
)

// Geometry model errors.
var (
	ErrDimensionMismatch = errors.New("dimension mismatch")
	ErrInvalidOrdinates  = errors.New("ordinate count not a multiple of point dimension")
	ErrIndexOutOfRange   = errors.New("point index out of range")
)

// NURBS curve errors.
var (
	ErrInvalidDegree   = errors.New("nurbs degree out of range")
	ErrInvalidWeights  = errors.New("nurbs weights invalid")
	ErrInvalidKnots    = errors.New("nurbs knot vector invalid")
	ErrNotEnoughPoints = errors.New("not enough control points for degree")
	ErrInvalidSegments = errors.New("segment count out of range")
	ErrDegenerateCurve = errors.New("nurbs curve cannot be evaluated")
)

// WKB errors.
var (
	ErrInvalidEndianMarker = errors.New("invalid wkb byte order marker")
	ErrInvalidWKBType      = errors.New("invalid wkb geometry type")
	ErrTruncatedWKB        = errors.New("wkb stream truncated")
	ErrInvalidHex          = errors.New("invalid hex wkb string")
	ErrUnsupportedVariant  = errors.New("geometry not representable in this wkb variant")
)

// Compressed envelope errors.
var (
	ErrInvalidMagicNumber   = errors.New("invalid envelope magic number")
	ErrInvalidCodec         = errors.New("unknown compression codec")
	ErrDecompressedTooLarge = errors.New("decompressed data exceeds size limit")
)
