package wkb

import (
	"fmt"

	"github.com/geomio/gserial/errs"
)

const hexChars = "0123456789ABCDEF"

// hexEncode renders raw bytes as upper-case hex, two characters per byte.
func hexEncode(raw []byte) []byte {
	out := make([]byte, 2*len(raw))
	for i, b := range raw {
		out[2*i] = hexChars[b>>4]
		out[2*i+1] = hexChars[b&0x0F]
	}

	return out
}

// hexDecode parses a hex string into raw bytes, accepting both cases.
func hexDecode(s string) ([]byte, error) {
	if len(s)%2 != 0 {
		return nil, fmt.Errorf("odd length %d: %w", len(s), errs.ErrInvalidHex)
	}
	out := make([]byte, len(s)/2)
	for i := range out {
		hi, ok1 := hexNibble(s[2*i])
		lo, ok2 := hexNibble(s[2*i+1])
		if !ok1 || !ok2 {
			return nil, fmt.Errorf("at offset %d: %w", 2*i, errs.ErrInvalidHex)
		}
		out[i] = hi<<4 | lo
	}

	return out, nil
}

func hexNibble(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	default:
		return 0, false
	}
}
