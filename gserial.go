// Package gserial provides a compact binary serialization for geospatial
// geometries, including curve types and rational NURBS curves.
//
// A serialized record is a small native-endian header (size, SRID, dimension
// and surface flags, optional float32 bounding box) followed by the geometry
// payload. Records are designed for storage engines: cheap to validate, cheap
// to peek metadata from without a full decode, and stable across processes of
// the same byte order.
//
// # Core Features
//
//   - Compact header with 21-bit SRID and packed dimension flags
//   - Optional float32 bounding box, widened so it always contains the
//     float64 coordinates it summarizes
//   - Header-only peeks: type, emptiness, bounding box, first point
//   - 64-bit content hashing (xxHash64) that ignores box presence
//   - WKB and hex-WKB conversion in ISO, extended (PostGIS-style) and
//     SFSQL-compatible variants
//   - Optional whole-record compression (Zstd, S2, LZ4)
//
// # Basic Usage
//
// Serializing and deserializing a geometry:
//
//	import "github.com/geomio/gserial"
//
//	pt := geom.NewPoint(4326, false, false, geom.Point4D{X: 121.5, Y: 25.0})
//	record, _ := gserial.Serialize(pt)
//
//	g, _ := gserial.Deserialize(record)
//
// Converting to WKB for interchange:
//
//	wkbBytes, _ := gserial.ToWKB(g, wkb.ISO|wkb.NDR)
//	hexStr, _ := gserial.ToHexWKB(g, wkb.Extended)
//
// Packing records for storage:
//
//	packed, _ := gserial.Pack(record, compress.Zstd)
//	record2, _ := gserial.Unpack(packed)
//
// # Package Structure
//
// This package provides convenient top-level wrappers around the blob and
// wkb packages, simplifying the most common use cases. For fine-grained
// control (in-place box manipulation, header peeks, SRID rewrites), use the
// blob package directly.
package gserial

import (
	"fmt"

	"github.com/geomio/gserial/blob"
	"github.com/geomio/gserial/compress"
	"github.com/geomio/gserial/endian"
	"github.com/geomio/gserial/errs"
	"github.com/geomio/gserial/geom"
	"github.com/geomio/gserial/wkb"
)

// Serialize encodes a geometry into its binary record form.
//
// A bounding box is stored when the geometry carries one, or when computing
// one is cheaper than rescanning the coordinates later (see blob.Serialize
// for the exact policy).
func Serialize(g geom.Geometry) ([]byte, error) {
	b, err := blob.Serialize(g)
	if err != nil {
		return nil, err
	}

	return b.Bytes(), nil
}

// Deserialize decodes a binary record back into a geometry.
//
// If the record stores a bounding box it is attached to the result;
// otherwise one is computed for geometries large enough to warrant it.
func Deserialize(data []byte) (geom.Geometry, error) {
	return blob.Deserialize(data)
}

// Hash returns the 64-bit content hash of a serialized record.
//
// The hash covers the SRID and the geometry payload. It is invariant under
// adding or dropping the stored bounding box, so logically equal records
// hash equally regardless of box state.
func Hash(data []byte) (uint64, error) {
	b, err := blob.FromBytes(data)
	if err != nil {
		return 0, err
	}

	return b.Hash(), nil
}

// BoundingBox returns the bounding box of a serialized record, reading the
// stored box when present, peeking trivial geometries otherwise, and falling
// back to a full decode and scan as a last resort.
//
// Returns errs.ErrEmptyGeometry for records with no coordinates.
func BoundingBox(data []byte) (*geom.GBox, error) {
	b, err := blob.FromBytes(data)
	if err != nil {
		return nil, err
	}

	return b.GetGBox()
}

// ToWKB encodes a geometry as well-known binary in the given variant.
func ToWKB(g geom.Geometry, v wkb.Variant) ([]byte, error) {
	return wkb.Marshal(g, v)
}

// ToHexWKB encodes a geometry as uppercase hex well-known binary.
func ToHexWKB(g geom.Geometry, v wkb.Variant) (string, error) {
	return wkb.MarshalHex(g, v)
}

// FromWKB decodes a well-known binary stream. Both ISO and extended type
// encodings are accepted; the byte order is taken from the stream itself.
func FromWKB(data []byte) (geom.Geometry, error) {
	return wkb.Unmarshal(data)
}

// FromHexWKB decodes a hex well-known binary string, upper or lower case.
func FromHexWKB(s string) (geom.Geometry, error) {
	return wkb.UnmarshalHex(s)
}

// Packed-record envelope layout:
//
//	offset 0  magic byte 'G'
//	offset 1  codec tag (compress.Type)
//	offset 2  uint32 raw record size, little-endian
//	offset 6  compressed record
const (
	envelopeMagic      = byte('G')
	envelopeHeaderSize = 6
)

// Pack compresses a serialized record into a self-describing envelope.
//
// The record is validated before packing so corrupt data is rejected here
// rather than at read time. With compress.None the envelope holds the record
// verbatim, still prefixed with the header so Unpack needs no out-of-band
// codec knowledge.
func Pack(record []byte, ct compress.Type) ([]byte, error) {
	if _, err := blob.FromBytes(record); err != nil {
		return nil, err
	}

	codec, err := compress.GetCodec(ct)
	if err != nil {
		return nil, err
	}

	compressed, err := codec.Compress(record)
	if err != nil {
		return nil, fmt.Errorf("pack record: %w", err)
	}

	out := make([]byte, envelopeHeaderSize+len(compressed))
	out[0] = envelopeMagic
	out[1] = byte(ct)
	endian.GetLittleEndianEngine().PutUint32(out[2:], uint32(len(record)))
	copy(out[envelopeHeaderSize:], compressed)

	return out, nil
}

// Unpack decompresses an envelope produced by Pack and returns the original
// serialized record.
//
// The decompressed length is checked against the size recorded in the
// envelope header; a mismatch means the envelope was corrupted or truncated.
func Unpack(data []byte) ([]byte, error) {
	if len(data) < envelopeHeaderSize {
		return nil, fmt.Errorf("envelope %d bytes: %w", len(data), errs.ErrTruncatedPayload)
	}
	if data[0] != envelopeMagic {
		return nil, fmt.Errorf("byte 0x%02X: %w", data[0], errs.ErrInvalidMagicNumber)
	}

	ct := compress.Type(data[1])
	codec, err := compress.GetCodec(ct)
	if err != nil {
		return nil, err
	}

	rawSize := endian.GetLittleEndianEngine().Uint32(data[2:])
	record, err := codec.Decompress(data[envelopeHeaderSize:])
	if err != nil {
		return nil, fmt.Errorf("unpack record: %w", err)
	}
	if uint32(len(record)) != rawSize {
		return nil, fmt.Errorf("unpacked %d bytes, envelope declares %d: %w",
			len(record), rawSize, errs.ErrSizeMismatch)
	}

	return record, nil
}

// PackGeometry serializes and packs a geometry in one step.
func PackGeometry(g geom.Geometry, ct compress.Type) ([]byte, error) {
	b, err := blob.Serialize(g)
	if err != nil {
		return nil, err
	}

	return Pack(b.Bytes(), ct)
}

// UnpackGeometry unpacks and deserializes an envelope in one step.
func UnpackGeometry(data []byte) (geom.Geometry, error) {
	record, err := Unpack(data)
	if err != nil {
		return nil, err
	}

	return blob.Deserialize(record)
}
