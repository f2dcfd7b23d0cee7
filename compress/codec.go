package compress

import (
	"fmt"

	"github.com/geomio/gserial/errs"
)

// Type identifies a compression algorithm. The numeric values are stable:
// they are written into packed geometry envelopes and must not be renumbered.
type Type uint8

const (
	// None stores records uncompressed.
	None Type = 0x1
	// Zstd selects Zstandard, the best ratio for archival storage.
	Zstd Type = 0x2
	// S2 selects the Snappy-compatible S2 codec, the fastest option.
	S2 Type = 0x3
	// LZ4 selects LZ4 block compression, a balance of speed and ratio.
	LZ4 Type = 0x4
)

func (t Type) String() string {
	switch t {
	case None:
		return "None"
	case Zstd:
		return "Zstd"
	case S2:
		return "S2"
	case LZ4:
		return "LZ4"
	default:
		return "Unknown"
	}
}

// Valid reports whether t names a known codec.
func (t Type) Valid() bool {
	return t >= None && t <= LZ4
}

// Compressor compresses serialized geometry records.
//
// Geometry records are dense binary buffers: a small fixed header followed
// by runs of float64 ordinates. Coordinate runs compress well when nearby
// vertices share high-order mantissa bits, which is the common case for
// surveyed and gridded data.
type Compressor interface {
	// Compress compresses the input and returns the result.
	//
	// Memory management:
	//   - Returned slice is newly allocated and owned by the caller
	//   - Input slice is not modified
	//   - Internal buffers may be reused for efficiency
	Compress(data []byte) ([]byte, error)
}

// Decompressor restores serialized geometry records.
//
// Separate from Compressor so asymmetric implementations can share pooled
// decoder state without carrying encoder state.
type Decompressor interface {
	// Decompress decompresses the input and returns the original bytes.
	// The input must have been produced by the matching Compressor; corrupt
	// or mismatched data yields an error, never a partial result.
	Decompress(data []byte) ([]byte, error)
}

// Codec combines both directions.
type Codec interface {
	Compressor
	Decompressor
}

var builtinCodecs = map[Type]Codec{
	None: NewNoOpCompressor(),
	Zstd: NewZstdCompressor(),
	S2:   NewS2Compressor(),
	LZ4:  NewLZ4Compressor(),
}

// GetCodec retrieves the built-in Codec for the given type.
func GetCodec(t Type) (Codec, error) {
	if codec, ok := builtinCodecs[t]; ok {
		return codec, nil
	}

	return nil, fmt.Errorf("compression type %d: %w", uint8(t), errs.ErrInvalidCodec)
}
