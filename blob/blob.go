// Package blob implements the serialized geometry record codec.
//
// A record is a single contiguous buffer laid out as:
//
//	size   uint32    total record length in bytes (low 30 bits)
//	srid   [3]byte   21-bit signed spatial reference id, 0 = unknown
//	flags  byte      see HeaderFlags
//	[xflags uint64]  optional extended flags, see ExtendedFlags
//	[bbox  []float32] optional bounding box, 4, 6 or 8 floats
//	payload          geometry data, 8-byte aligned double ordinates
//
// All multi-byte values are machine-native byte order: records are an
// in-process and on-disk working format, not an interchange format. Use the
// wkb package for interchange.
package blob

import (
	"fmt"

	"github.com/geomio/gserial/endian"
	"github.com/geomio/gserial/errs"
	"github.com/geomio/gserial/geom"
)

const (
	// baseHeaderSize covers the size word, srid bytes and flag byte.
	baseHeaderSize = 8
	// extendedFlagsSize is the byte size of the optional extended word.
	extendedFlagsSize = 8

	sizeMask uint32 = 0x3FFFFFFF
)

// Blob is a serialized geometry record. The zero value is not usable;
// records come from FromBytes or Serialize.
type Blob struct {
	buf []byte
}

// FromBytes wraps a raw record buffer, validating the header. The buffer is
// not copied; the Blob aliases it.
func FromBytes(data []byte) (*Blob, error) {
	if len(data) < baseHeaderSize {
		return nil, fmt.Errorf("%d bytes: %w", len(data), errs.ErrRecordTooShort)
	}
	b := &Blob{buf: data}
	if err := b.Flags().Validate(); err != nil {
		return nil, err
	}
	if int(b.Size()) != len(data) {
		return nil, fmt.Errorf("size field %d, buffer %d: %w", b.Size(), len(data), errs.ErrInvalidRecordSize)
	}
	if len(data) < b.headerSize()+8 {
		// Every payload starts with at least a type and count word.
		return nil, fmt.Errorf("no room for payload after %d byte header: %w", b.headerSize(), errs.ErrRecordTooShort)
	}

	return b, nil
}

// Bytes returns the underlying record buffer.
func (b *Blob) Bytes() []byte { return b.buf }

// Size returns the record length recorded in the size word.
func (b *Blob) Size() uint32 {
	return endian.NativeEngine().Uint32(b.buf[0:4]) & sizeMask
}

func (b *Blob) setSize(n uint32) {
	eng := endian.NativeEngine()
	eng.PutUint32(b.buf[0:4], n&sizeMask)
}

// Flags returns the header flag byte.
func (b *Blob) Flags() HeaderFlags { return HeaderFlags(b.buf[7]) }

// HasBBox reports whether the record stores a bounding box.
func (b *Blob) HasBBox() bool { return b.Flags().HasBBox() }

// HasZ reports Z ordinate presence.
func (b *Blob) HasZ() bool { return b.Flags().HasZ() }

// HasM reports M ordinate presence.
func (b *Blob) HasM() bool { return b.Flags().HasM() }

// IsGeodetic reports whether coordinates are geodetic.
func (b *Blob) IsGeodetic() bool { return b.Flags().IsGeodetic() }

// NDims returns the coordinate dimension count.
func (b *Blob) NDims() int { return b.Flags().NDims() }

// ExtendedFlags returns the extended flag word, zero when absent.
func (b *Blob) ExtendedFlags() ExtendedFlags {
	if !b.Flags().HasExtended() {
		return 0
	}

	return ExtendedFlags(endian.NativeEngine().Uint64(b.buf[baseHeaderSize : baseHeaderSize+8]))
}

// IsSolid reports whether the record carries the solid attribute.
func (b *Blob) IsSolid() bool { return b.ExtendedFlags().IsSolid() }

// GeomFlags translates the record's header and extended flags into
// geometry flags.
func (b *Blob) GeomFlags() geom.Flags {
	hf := b.Flags()
	gf := geom.MakeFlags(hf.HasZ(), hf.HasM())
	gf.SetGeodetic(hf.IsGeodetic())
	gf.SetSolid(b.ExtendedFlags().IsSolid())

	return gf
}

// SRID returns the record's spatial reference identifier.
func (b *Blob) SRID() int32 {
	srid := int32(b.buf[4])<<16 | int32(b.buf[5])<<8 | int32(b.buf[6])
	// Sign-extend the 21-bit value.
	srid = (srid << 11) >> 11
	if srid == 0 {
		return geom.SRIDUnknown
	}

	return srid
}

// SetSRID writes a spatial reference identifier into the record in place.
func (b *Blob) SetSRID(srid int32) {
	srid = geom.ClampSRID(srid)
	if srid == geom.SRIDUnknown {
		srid = 0
	}
	b.buf[4] = byte((srid & 0x001F0000) >> 16)
	b.buf[5] = byte((srid & 0x0000FF00) >> 8)
	b.buf[6] = byte(srid & 0x000000FF)
}

// boxSize returns the stored box byte size, zero when no box is present.
func (b *Blob) boxSize() int {
	if !b.HasBBox() {
		return 0
	}

	return 4 * b.Flags().boxFloats()
}

// headerSize returns the byte offset of the geometry payload.
func (b *Blob) headerSize() int {
	sz := baseHeaderSize
	if b.Flags().HasExtended() {
		sz += extendedFlagsSize
	}
	sz += b.boxSize()

	return sz
}

// Payload returns the geometry data area of the record.
func (b *Blob) Payload() []byte { return b.buf[b.headerSize():] }

// Type returns the geometry type code from the head of the payload.
func (b *Blob) Type() (geom.Type, error) {
	t := geom.Type(endian.NativeEngine().Uint32(b.Payload()[0:4]))
	if !t.Valid() {
		return 0, fmt.Errorf("type code %d: %w", uint32(t), errs.ErrInvalidGeometryType)
	}

	return t, nil
}

// IsEmpty reports emptiness straight off the record bytes, without decoding
// coordinates: every payload keeps its element count at offset 4, and
// collections are empty exactly when all their members are.
func (b *Blob) IsEmpty() (bool, error) {
	_, empty, err := isEmptyPayload(b.Payload(), b.NDims())
	return empty, err
}

// isEmptyPayload walks a payload, returning the bytes consumed and whether
// the geometry is empty. The consumed count is exact for empty geometries,
// which is all the collection scan ever steps over.
func isEmptyPayload(p []byte, ndims int) (int, bool, error) {
	eng := endian.NativeEngine()
	if len(p) < 8 {
		return 0, false, errs.ErrTruncatedPayload
	}
	t := geom.Type(eng.Uint32(p[0:4]))
	num := eng.Uint32(p[4:8])

	switch {
	case t.IsCollection():
		off := 8
		for i := uint32(0); i < num; i++ {
			consumed, empty, err := isEmptyPayload(p[off:], ndims)
			if err != nil {
				return 0, false, err
			}
			off += consumed
			if !empty {
				return off, false, nil
			}
		}

		return off, true, nil
	case t == geom.TypeNurbsCurve:
		if num != 0 {
			return 8, false, nil
		}
		// Empty curves may still carry weights and knots; include them in
		// the consumed count so a collection scan lands on the next member.
		if len(p) < 20 {
			return 0, false, errs.ErrTruncatedPayload
		}
		nweights := int(eng.Uint32(p[12:16]))
		nknots := int(eng.Uint32(p[16:20]))

		return 20 + 8*(nweights+nknots), true, nil
	default:
		return 8, num == 0, nil
	}
}
