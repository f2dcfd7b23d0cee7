package geom

import (
	"fmt"
	"math"
	"unsafe"

	"github.com/geomio/gserial/endian"
	"github.com/geomio/gserial/errs"
)

// Point4D is a single coordinate with all four possible ordinates.
// Ordinates absent from the owning array read back as zero.
type Point4D struct {
	X, Y, Z, M float64
}

// PointArray is a packed sequence of coordinates. Ordinates are stored
// interleaved (XY, XYZ, XYM or XYZM per point, following the Z/M flags).
//
// An array may be a zero-copy view over a serialized record buffer, in which
// case it shares memory with the record and must be treated as read-only.
// Use Clone to detach.
type PointArray struct {
	flags Flags
	ords  []float64
	view  bool
}

// NewPointArray creates an empty point array with room for capPoints points.
func NewPointArray(hasZ, hasM bool, capPoints int) *PointArray {
	f := MakeFlags(hasZ, hasM)
	return &PointArray{
		flags: f,
		ords:  make([]float64, 0, capPoints*f.NDims()),
	}
}

// NewPointArrayFromOrds wraps an ordinate slice as a point array, taking
// ownership of the slice. The slice length must be a multiple of the
// point dimension.
func NewPointArrayFromOrds(hasZ, hasM bool, ords []float64) (*PointArray, error) {
	f := MakeFlags(hasZ, hasM)
	if len(ords)%f.NDims() != 0 {
		return nil, fmt.Errorf("%d ordinates for %d dims: %w", len(ords), f.NDims(), errs.ErrInvalidOrdinates)
	}

	return &PointArray{flags: f, ords: ords}, nil
}

// NewPointArrayView creates a point array over npoints coordinates stored in
// a serialized buffer, without copying when the buffer is 8-byte aligned.
// The data is machine-native float64 ordinates.
func NewPointArrayView(hasZ, hasM bool, npoints int, data []byte) (*PointArray, error) {
	f := MakeFlags(hasZ, hasM)
	nords := npoints * f.NDims()
	want := nords * 8
	if npoints < 0 || len(data) < want {
		return nil, fmt.Errorf("need %d coordinate bytes, have %d: %w", want, len(data), errs.ErrTruncatedPayload)
	}
	if nords == 0 {
		return &PointArray{flags: f}, nil
	}

	if uintptr(unsafe.Pointer(&data[0]))%8 == 0 {
		ords := unsafe.Slice((*float64)(unsafe.Pointer(&data[0])), nords)
		return &PointArray{flags: f, ords: ords, view: true}, nil
	}

	// Misaligned source buffer, fall back to a copy.
	eng := endian.NativeEngine()
	ords := make([]float64, nords)
	for i := range ords {
		ords[i] = math.Float64frombits(eng.Uint64(data[i*8:]))
	}

	return &PointArray{flags: f, ords: ords}, nil
}

// Len returns the number of points.
func (pa *PointArray) Len() int {
	if pa == nil || len(pa.ords) == 0 {
		return 0
	}

	return len(pa.ords) / pa.flags.NDims()
}

// IsEmpty reports whether the array holds no points.
func (pa *PointArray) IsEmpty() bool { return pa.Len() == 0 }

// HasZ reports Z ordinate presence.
func (pa *PointArray) HasZ() bool { return pa.flags.HasZ() }

// HasM reports M ordinate presence.
func (pa *PointArray) HasM() bool { return pa.flags.HasM() }

// Flags returns the dimensional flags of the array.
func (pa *PointArray) Flags() Flags { return pa.flags }

// NDims returns the per-point ordinate count.
func (pa *PointArray) NDims() int { return pa.flags.NDims() }

// Ords exposes the packed ordinate storage. For arrays viewing a serialized
// buffer the returned slice aliases the record and must not be modified.
func (pa *PointArray) Ords() []float64 { return pa.ords }

// IsView reports whether the array aliases a serialized record buffer.
func (pa *PointArray) IsView() bool { return pa.view }

// PointAt returns point i. Absent ordinates are zero.
func (pa *PointArray) PointAt(i int) (Point4D, error) {
	if i < 0 || i >= pa.Len() {
		return Point4D{}, fmt.Errorf("index %d of %d points: %w", i, pa.Len(), errs.ErrIndexOutOfRange)
	}

	ndims := pa.flags.NDims()
	base := i * ndims
	p := Point4D{X: pa.ords[base], Y: pa.ords[base+1]}
	pos := base + 2
	if pa.flags.HasZ() {
		p.Z = pa.ords[pos]
		pos++
	}
	if pa.flags.HasM() {
		p.M = pa.ords[pos]
	}

	return p, nil
}

// AppendPoint adds a point to the end of the array. Ordinates beyond the
// array's dimensions are dropped.
func (pa *PointArray) AppendPoint(p Point4D) {
	pa.detach()
	pa.ords = append(pa.ords, p.X, p.Y)
	if pa.flags.HasZ() {
		pa.ords = append(pa.ords, p.Z)
	}
	if pa.flags.HasM() {
		pa.ords = append(pa.ords, p.M)
	}
}

// Clone returns a deep copy backed by freshly allocated storage.
func (pa *PointArray) Clone() *PointArray {
	if pa == nil {
		return nil
	}
	ords := make([]float64, len(pa.ords))
	copy(ords, pa.ords)

	return &PointArray{flags: pa.flags, ords: ords}
}

// detach copies view storage so the array owns its ordinates before a write.
func (pa *PointArray) detach() {
	if !pa.view {
		return
	}
	ords := make([]float64, len(pa.ords), cap(pa.ords))
	copy(ords, pa.ords)
	pa.ords = ords
	pa.view = false
}
