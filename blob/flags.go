package blob

import (
	"fmt"

	"github.com/geomio/gserial/errs"
	"github.com/geomio/gserial/geom"
)

// Version is the record layout version stamped into every header flag byte.
const Version = 1

// HeaderFlags is the single flag byte of a serialized geometry record.
//
// Bit layout:
//
//	bit 0: Z ordinates present
//	bit 1: M ordinates present
//	bit 2: bounding box present
//	bit 3: geodetic coordinates
//	bit 4: extended flags word present
//	bits 5-7: layout version
type HeaderFlags uint8

const (
	headerFlagZ        HeaderFlags = 0x01
	headerFlagM        HeaderFlags = 0x02
	headerFlagBBox     HeaderFlags = 0x04
	headerFlagGeodetic HeaderFlags = 0x08
	headerFlagExtended HeaderFlags = 0x10

	headerVersionShift             = 5
	headerVersionMask  HeaderFlags = 0xE0
)

// HasZ reports Z ordinate presence.
func (f HeaderFlags) HasZ() bool { return f&headerFlagZ != 0 }

// HasM reports M ordinate presence.
func (f HeaderFlags) HasM() bool { return f&headerFlagM != 0 }

// HasBBox reports whether the record stores a bounding box.
func (f HeaderFlags) HasBBox() bool { return f&headerFlagBBox != 0 }

// IsGeodetic reports whether coordinates are geodetic.
func (f HeaderFlags) IsGeodetic() bool { return f&headerFlagGeodetic != 0 }

// HasExtended reports whether the extended flags word follows the header.
func (f HeaderFlags) HasExtended() bool { return f&headerFlagExtended != 0 }

// GetVersion returns the layout version stamped into the flag byte.
func (f HeaderFlags) GetVersion() uint8 {
	return uint8(f&headerVersionMask) >> headerVersionShift
}

func (f *HeaderFlags) set(bit HeaderFlags, v bool) {
	if v {
		*f |= bit
	} else {
		*f &^= bit
	}
}

// SetZ sets the Z presence bit.
func (f *HeaderFlags) SetZ(v bool) { f.set(headerFlagZ, v) }

// SetM sets the M presence bit.
func (f *HeaderFlags) SetM(v bool) { f.set(headerFlagM, v) }

// SetBBox sets the bounding box presence bit.
func (f *HeaderFlags) SetBBox(v bool) { f.set(headerFlagBBox, v) }

// SetGeodetic sets the geodetic bit.
func (f *HeaderFlags) SetGeodetic(v bool) { f.set(headerFlagGeodetic, v) }

// SetExtended sets the extended flags word presence bit.
func (f *HeaderFlags) SetExtended(v bool) { f.set(headerFlagExtended, v) }

// SetVersion stamps the layout version bits.
func (f *HeaderFlags) SetVersion(v uint8) {
	*f = (*f &^ headerVersionMask) | (HeaderFlags(v) << headerVersionShift & headerVersionMask)
}

// NDims returns the coordinate dimension count encoded by the flag byte.
func (f HeaderFlags) NDims() int {
	n := 2
	if f.HasZ() {
		n++
	}
	if f.HasM() {
		n++
	}

	return n
}

// boxFloats returns the number of float32 values in the stored box:
// geodetic boxes always hold three dimensions, cartesian boxes hold one
// min/max pair per coordinate dimension.
func (f HeaderFlags) boxFloats() int {
	if f.IsGeodetic() {
		return 6
	}

	return 2 * f.NDims()
}

// Validate checks that the flag byte is well formed.
func (f HeaderFlags) Validate() error {
	if f.GetVersion() != Version {
		return fmt.Errorf("layout version %d: %w", f.GetVersion(), errs.ErrInvalidFlags)
	}

	return nil
}

// ExtendedFlags is the optional 64-bit flag word following the record
// header. Only the solid bit is assigned; the remaining bits are reserved
// and not preserved across decode/encode.
type ExtendedFlags uint64

// ExtendedSolid marks the boundary of a solid volume.
const ExtendedSolid ExtendedFlags = 0x01

// IsSolid reports whether the solid bit is set.
func (x ExtendedFlags) IsSolid() bool { return x&ExtendedSolid != 0 }

// headerFlagsFrom packs geometry flags into a header flag byte. The bbox bit
// is supplied by the caller since it reflects the record, not the geometry.
func headerFlagsFrom(gf geom.Flags, hasBBox bool) HeaderFlags {
	var f HeaderFlags
	f.SetZ(gf.HasZ())
	f.SetM(gf.HasM())
	f.SetBBox(hasBBox)
	f.SetGeodetic(gf.IsGeodetic())
	f.SetExtended(usesExtendedFlags(gf))
	f.SetVersion(Version)

	return f
}

// usesExtendedFlags reports whether any geometry flag needs the extended
// word to round-trip.
func usesExtendedFlags(gf geom.Flags) bool {
	return gf.IsSolid()
}

// extendedFlagsFrom packs geometry flags into the extended word.
func extendedFlagsFrom(gf geom.Flags) ExtendedFlags {
	var x ExtendedFlags
	if gf.IsSolid() {
		x |= ExtendedSolid
	}

	return x
}
