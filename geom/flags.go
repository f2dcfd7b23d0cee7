package geom

// Flags carries the dimensional and storage attributes of a geometry as a
// packed bitset: Z and M ordinate presence, the geodetic interpretation of
// the coordinates, and the solid attribute of closed surfaces.
type Flags uint8

const (
	flagZ Flags = 1 << iota
	flagM
	flagGeodetic
	flagSolid
)

// MakeFlags builds a Flags value with the given Z/M ordinate presence.
func MakeFlags(hasZ, hasM bool) Flags {
	var f Flags
	f.SetZ(hasZ)
	f.SetM(hasM)

	return f
}

// HasZ reports whether coordinates carry a Z ordinate.
func (f Flags) HasZ() bool { return f&flagZ != 0 }

// HasM reports whether coordinates carry an M ordinate.
func (f Flags) HasM() bool { return f&flagM != 0 }

// IsGeodetic reports whether coordinates are interpreted on a sphere.
func (f Flags) IsGeodetic() bool { return f&flagGeodetic != 0 }

// IsSolid reports whether the geometry is a solid volume boundary.
func (f Flags) IsSolid() bool { return f&flagSolid != 0 }

func (f *Flags) set(bit Flags, v bool) {
	if v {
		*f |= bit
	} else {
		*f &^= bit
	}
}

// SetZ sets the Z ordinate presence bit.
func (f *Flags) SetZ(v bool) { f.set(flagZ, v) }

// SetM sets the M ordinate presence bit.
func (f *Flags) SetM(v bool) { f.set(flagM, v) }

// SetGeodetic sets the geodetic interpretation bit.
func (f *Flags) SetGeodetic(v bool) { f.set(flagGeodetic, v) }

// SetSolid sets the solid attribute bit.
func (f *Flags) SetSolid(v bool) { f.set(flagSolid, v) }

// NDims returns the coordinate dimension count, between 2 and 4.
func (f Flags) NDims() int {
	n := 2
	if f.HasZ() {
		n++
	}
	if f.HasM() {
		n++
	}

	return n
}

// SameZM reports whether two flag sets agree on Z and M presence.
func (f Flags) SameZM(o Flags) bool {
	const zm = flagZ | flagM
	return f&zm == o&zm
}
