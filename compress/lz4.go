package compress

import (
	"errors"
	"fmt"
	"sync"

	"github.com/pierrec/lz4/v4"

	"github.com/geomio/gserial/errs"
)

// lz4CompressorPool reuses lz4.Compressor instances; the compressor carries
// a hash table that is expensive to rebuild per record.
var lz4CompressorPool = sync.Pool{
	New: func() any {
		return &lz4.Compressor{}
	},
}

// LZ4Compressor provides LZ4 block compression for serialized geometry
// records. The fastest decompression of the supported codecs, at a lower
// ratio than Zstd, which suits read-heavy record stores.
type LZ4Compressor struct{}

var _ Codec = (*LZ4Compressor)(nil)

// NewLZ4Compressor creates a new LZ4 compressor.
func NewLZ4Compressor() LZ4Compressor {
	return LZ4Compressor{}
}

// Compress compresses the input using LZ4 block compression.
// Returns nil for empty input.
func (c LZ4Compressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}
	dst := make([]byte, lz4.CompressBlockBound(len(data)))

	lc, _ := lz4CompressorPool.Get().(*lz4.Compressor)
	defer lz4CompressorPool.Put(lc)

	n, err := lc.CompressBlock(data, dst)
	if err != nil {
		return nil, err
	}

	return dst[:n], nil
}

// Decompress decompresses an LZ4 block.
//
// LZ4 blocks do not record their decompressed size, so the buffer starts at
// 4x the compressed size and doubles on a short-buffer failure. Growth stops
// at a 128MB ceiling; serialized records are far smaller, so hitting the
// ceiling means the block is corrupt and errs.ErrDecompressedTooLarge is
// returned.
func (c LZ4Compressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	const maxSize = 128 * 1024 * 1024

	bufSize := len(data) * 4
	for {
		if bufSize > maxSize {
			bufSize = maxSize
		}
		buf := make([]byte, bufSize)
		n, err := lz4.UncompressBlock(data, buf)
		if err == nil {
			return buf[:n], nil
		}
		if !errors.Is(err, lz4.ErrInvalidSourceShortBuffer) {
			return nil, err
		}
		if bufSize == maxSize {
			return nil, fmt.Errorf("lz4 block larger than %d bytes: %w", maxSize, errs.ErrDecompressedTooLarge)
		}
		bufSize *= 2
	}
}
