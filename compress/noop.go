package compress

// NoOpCompressor bypasses data without compression.
//
// Useful when records are too small to benefit from compression, when the
// data is known to be incompressible, or as a baseline in benchmarks. It
// keeps the envelope format uniform: packed records always carry a codec
// tag, even when that tag is None.
type NoOpCompressor struct{}

var _ Codec = (*NoOpCompressor)(nil)

// NewNoOpCompressor creates a new no-operation compressor.
func NewNoOpCompressor() NoOpCompressor {
	return NoOpCompressor{}
}

// Compress returns the input slice as-is, without copying.
//
// The result shares memory with the input; callers must not modify the
// input afterwards if they keep the returned slice.
func (c NoOpCompressor) Compress(data []byte) ([]byte, error) {
	return data, nil
}

// Decompress returns the input slice as-is, without copying.
//
// The result shares memory with the input; callers must not modify the
// input afterwards if they keep the returned slice.
func (c NoOpCompressor) Decompress(data []byte) ([]byte, error) {
	return data, nil
}
