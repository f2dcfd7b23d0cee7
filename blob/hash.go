package blob

import (
	"github.com/cespare/xxhash/v2"

	"github.com/geomio/gserial/endian"
)

// Hash returns a 64-bit digest of the record's SRID and geometry payload.
// Header flags and the stored bounding box do not participate, so records
// that differ only in cached box state hash the same.
func (b *Blob) Hash() uint64 {
	var srid [4]byte
	endian.NativeEngine().PutUint32(srid[:], uint32(b.SRID()))

	d := xxhash.New()
	_, _ = d.Write(srid[:])
	_, _ = d.Write(b.Payload())

	return d.Sum64()
}
