package compress

import (
	"fmt"
	"testing"
)

var benchSizes = []int{1024, 16384, 262144} // 1KB, 16KB, 256KB

func BenchmarkCompress(b *testing.B) {
	for name, codec := range getAllCodecs() {
		for _, size := range benchSizes {
			data := ordinateRun(size / 8)
			b.Run(fmt.Sprintf("%s/%dKB", name, size/1024), func(b *testing.B) {
				b.SetBytes(int64(len(data)))
				for i := 0; i < b.N; i++ {
					_, err := codec.Compress(data)
					if err != nil {
						b.Fatal(err)
					}
				}
			})
		}
	}
}

func BenchmarkDecompress(b *testing.B) {
	for name, codec := range getAllCodecs() {
		for _, size := range benchSizes {
			compressed, err := codec.Compress(ordinateRun(size / 8))
			if err != nil {
				b.Fatal(err)
			}
			b.Run(fmt.Sprintf("%s/%dKB", name, size/1024), func(b *testing.B) {
				b.SetBytes(int64(size))
				for i := 0; i < b.N; i++ {
					_, err := codec.Decompress(compressed)
					if err != nil {
						b.Fatal(err)
					}
				}
			})
		}
	}
}
