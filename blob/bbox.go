package blob

import (
	"fmt"
	"math"

	"github.com/geomio/gserial/endian"
	"github.com/geomio/gserial/errs"
	"github.com/geomio/gserial/geom"
)

// boxFloatsFor returns the float32 count of a stored box for geometry flags.
func boxFloatsFor(gf geom.Flags) int {
	if gf.IsGeodetic() {
		return 6
	}

	return 2 * gf.NDims()
}

func readFloat(p []byte, i int) float64 {
	return float64(math.Float32frombits(endian.NativeEngine().Uint32(p[i*4:])))
}

func readDouble(p []byte, i int) float64 {
	return math.Float64frombits(endian.NativeEngine().Uint64(p[i*8:]))
}

func readUint32(p []byte, i int) uint32 {
	return endian.NativeEngine().Uint32(p[i*4:])
}

// ReadGBox returns the bounding box stored in the record.
// Fails with ErrNoBoundingBox when the record carries none.
func (b *Blob) ReadGBox() (*geom.GBox, error) {
	if !b.HasBBox() {
		return nil, errs.ErrNoBoundingBox
	}

	fbox := b.buf[b.headerSize()-b.boxSize() : b.headerSize()]
	box := &geom.GBox{Flags: b.GeomFlags()}
	i := 0
	box.XMin = readFloat(fbox, i)
	i++
	box.XMax = readFloat(fbox, i)
	i++
	box.YMin = readFloat(fbox, i)
	i++
	box.YMax = readFloat(fbox, i)
	i++

	if b.IsGeodetic() {
		box.ZMin = readFloat(fbox, i)
		i++
		box.ZMax = readFloat(fbox, i)

		return box, nil
	}
	if b.HasZ() {
		box.ZMin = readFloat(fbox, i)
		i++
		box.ZMax = readFloat(fbox, i)
		i++
	}
	if b.HasM() {
		box.MMin = readFloat(fbox, i)
		i++
		box.MMax = readFloat(fbox, i)
	}

	return box, nil
}

// PeekGBox derives a bounding box from the serialized coordinates with a
// fixed number of reads. Only shapes whose box is trivially derivable
// qualify: a point, a two-point line, a single-point multipoint, and a
// single two-point line multiline. Geodetic records never qualify, and
// records that already store a box should be read instead.
func (b *Blob) PeekGBox() (*geom.GBox, error) {
	if b.IsGeodetic() || b.HasBBox() {
		return nil, errs.ErrNoBoundingBox
	}

	p := b.Payload()
	t, err := b.Type()
	if err != nil {
		return nil, err
	}

	ndims := b.NDims()
	box := &geom.GBox{Flags: b.GeomFlags()}

	switch t {
	case geom.TypePoint:
		if readUint32(p, 1) == 0 {
			return nil, errs.ErrNoBoundingBox
		}
		if len(p) < 8+8*ndims {
			return nil, errs.ErrTruncatedPayload
		}
		b.peekSinglePoint(box, p, 1)

		return box, nil

	case geom.TypeLineString:
		if readUint32(p, 1) != 2 {
			return nil, errs.ErrNoBoundingBox
		}
		if len(p) < 8+2*8*ndims {
			return nil, errs.ErrTruncatedPayload
		}
		b.peekSegment(box, p, 1, ndims)

		return box, nil

	case geom.TypeMultiPoint:
		// A single-member multipoint holding a single, non-empty point.
		if readUint32(p, 1) != 1 {
			return nil, errs.ErrNoBoundingBox
		}
		if len(p) < 16 {
			return nil, errs.ErrTruncatedPayload
		}
		if readUint32(p, 3) != 1 {
			return nil, errs.ErrNoBoundingBox
		}
		if len(p) < 16+8*ndims {
			return nil, errs.ErrTruncatedPayload
		}
		b.peekSinglePoint(box, p, 2)

		return box, nil

	case geom.TypeMultiLineString:
		// A single-member multiline holding a two-point line.
		if readUint32(p, 1) != 1 {
			return nil, errs.ErrNoBoundingBox
		}
		if len(p) < 16 {
			return nil, errs.ErrTruncatedPayload
		}
		if readUint32(p, 3) != 2 {
			return nil, errs.ErrNoBoundingBox
		}
		if len(p) < 16+2*8*ndims {
			return nil, errs.ErrTruncatedPayload
		}
		b.peekSegment(box, p, 2, ndims)

		return box, nil
	}

	return nil, errs.ErrNoBoundingBox
}

// peekSinglePoint fills box from one coordinate at double offset i.
func (b *Blob) peekSinglePoint(box *geom.GBox, p []byte, i int) {
	box.XMin = readDouble(p, i)
	box.XMax = box.XMin
	i++
	box.YMin = readDouble(p, i)
	box.YMax = box.YMin
	i++
	if b.HasZ() {
		box.ZMin = readDouble(p, i)
		box.ZMax = box.ZMin
		i++
	}
	if b.HasM() {
		box.MMin = readDouble(p, i)
		box.MMax = box.MMin
	}
	box.FloatRound()
}

// peekSegment fills box from two consecutive coordinates starting at double
// offset i.
func (b *Blob) peekSegment(box *geom.GBox, p []byte, i, ndims int) {
	box.XMin = math.Min(readDouble(p, i), readDouble(p, i+ndims))
	box.XMax = math.Max(readDouble(p, i), readDouble(p, i+ndims))
	i++
	box.YMin = math.Min(readDouble(p, i), readDouble(p, i+ndims))
	box.YMax = math.Max(readDouble(p, i), readDouble(p, i+ndims))
	if b.HasZ() {
		i++
		box.ZMin = math.Min(readDouble(p, i), readDouble(p, i+ndims))
		box.ZMax = math.Max(readDouble(p, i), readDouble(p, i+ndims))
	}
	if b.HasM() {
		i++
		box.MMin = math.Min(readDouble(p, i), readDouble(p, i+ndims))
		box.MMax = math.Max(readDouble(p, i), readDouble(p, i+ndims))
	}
	box.FloatRound()
}

// GetGBox resolves a bounding box through the full ladder: the stored box
// if present, a peeked box if derivable, and finally a full decode and
// coordinate scan. Empty geometries have no box.
func (b *Blob) GetGBox() (*geom.GBox, error) {
	if box, err := b.ReadGBox(); err == nil {
		return box, nil
	}
	if box, err := b.PeekGBox(); err == nil {
		return box, nil
	}

	g, err := Deserialize(b.Bytes())
	if err != nil {
		return nil, err
	}
	box, err := geom.CalculateGBox(g)
	if err != nil {
		return nil, err
	}
	box.FloatRound()

	return box, nil
}

// FastGBox resolves a bounding box only if it can be done without decoding
// the record: the stored box or a peeked box. Fails with ErrNoBoundingBox
// otherwise.
func (b *Blob) FastGBox() (*geom.GBox, error) {
	if box, err := b.ReadGBox(); err == nil {
		return box, nil
	}

	return b.PeekGBox()
}

// PeekFirstPoint reads the first coordinate of a non-empty point record
// without decoding it.
func (b *Blob) PeekFirstPoint() (geom.Point4D, error) {
	p := b.Payload()
	if readUint32(p, 1) == 0 {
		return geom.Point4D{}, errs.ErrEmptyGeometry
	}
	t, err := b.Type()
	if err != nil {
		return geom.Point4D{}, err
	}
	if t != geom.TypePoint {
		return geom.Point4D{}, fmt.Errorf("peeking a %s record: %w", t, errs.ErrInvalidGeometryType)
	}
	if len(p) < 8+8*b.NDims() {
		return geom.Point4D{}, errs.ErrTruncatedPayload
	}

	i := 1
	pt := geom.Point4D{}
	pt.X = readDouble(p, i)
	i++
	pt.Y = readDouble(p, i)
	i++
	if b.HasZ() {
		pt.Z = readDouble(p, i)
		i++
	}
	if b.HasM() {
		pt.M = readDouble(p, i)
	}

	return pt, nil
}

// writeGBoxTo serializes box bounds as float32 values, widening minimums
// down and maximums up so the float box always contains the double
// coordinates. Returns the byte count written.
func writeGBoxTo(buf []byte, box *geom.GBox, hf HeaderFlags) int {
	eng := endian.NativeEngine()
	i := 0
	put := func(f float32) {
		eng.PutUint32(buf[i*4:], math.Float32bits(f))
		i++
	}

	put(geom.NextFloatDown(box.XMin))
	put(geom.NextFloatUp(box.XMax))
	put(geom.NextFloatDown(box.YMin))
	put(geom.NextFloatUp(box.YMax))

	if hf.IsGeodetic() {
		put(geom.NextFloatDown(box.ZMin))
		put(geom.NextFloatUp(box.ZMax))

		return i * 4
	}
	if hf.HasZ() {
		put(geom.NextFloatDown(box.ZMin))
		put(geom.NextFloatUp(box.ZMax))
	}
	if hf.HasM() {
		put(geom.NextFloatDown(box.MMin))
		put(geom.NextFloatUp(box.MMax))
	}

	return i * 4
}

// SetGBox writes a bounding box into the record. When the record already
// stores a box the bounds are overwritten in place and the same Blob is
// returned; otherwise a fresh, larger record is built around the existing
// payload. The box dimensionality must match the record's.
func (b *Blob) SetGBox(box *geom.GBox) (*Blob, error) {
	if b.Flags().boxFloats() != boxFloatsFor(box.Flags) {
		return nil, fmt.Errorf("box dims do not match record dims: %w", errs.ErrDimensionMismatch)
	}

	out := b
	if !b.HasBBox() {
		boxSize := 4 * b.Flags().boxFloats()
		head := baseHeaderSize
		if b.Flags().HasExtended() {
			head += extendedFlagsSize
		}

		buf := make([]byte, len(b.buf)+boxSize)
		copy(buf[:head], b.buf[:head])
		copy(buf[head+boxSize:], b.buf[head:])

		out = &Blob{buf: buf}
		flags := out.Flags()
		flags.SetBBox(true)
		out.buf[7] = byte(flags)
		out.setSize(uint32(len(buf)))
	}

	boxStart := out.headerSize() - out.boxSize()
	writeGBoxTo(out.buf[boxStart:], box, out.Flags())

	return out, nil
}

// DropGBox returns a copy of the record without a stored bounding box.
// The result is always freshly allocated.
func (b *Blob) DropGBox() *Blob {
	if !b.HasBBox() {
		buf := make([]byte, len(b.buf))
		copy(buf, b.buf)

		return &Blob{buf: buf}
	}

	boxSize := b.boxSize()
	head := baseHeaderSize
	if b.Flags().HasExtended() {
		head += extendedFlagsSize
	}

	buf := make([]byte, len(b.buf)-boxSize)
	copy(buf[:head], b.buf[:head])
	copy(buf[head:], b.buf[head+boxSize:])

	out := &Blob{buf: buf}
	flags := out.Flags()
	flags.SetBBox(false)
	out.buf[7] = byte(flags)
	out.setSize(uint32(len(buf)))

	return out
}
