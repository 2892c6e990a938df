package encoding

import (
	"encoding/base32"
	"strings"
)

const crockfordAlphabet = "0123456789abcdefghjkmnpqrstvwxyz"

// MaxTraceIDLength bounds trace ids accepted from callers.
const MaxTraceIDLength = 64

//nolint:gochecknoglobals
var crockford = base32.NewEncoding(crockfordAlphabet).WithPadding(base32.NoPadding)

// EncodeCrockfordB32LC encodes input with Crockford's Base32 alphabet, lowercase and unpadded.
func EncodeCrockfordB32LC(input []byte) string {
	return crockford.EncodeToString(input)
}

// NormalizeCrockfordB32LC maps a human-typed Crockford string onto the canonical
// lowercase alphabet: spaces and hyphens are dropped, o becomes 0 and i/l become 1.
func NormalizeCrockfordB32LC(input string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-':
			return -1
		case 'o', 'O':
			return '0'
		case 'i', 'I', 'l', 'L':
			return '1'
		default:
			if r >= 'A' && r <= 'Z' {
				return r + ('a' - 'A')
			}

			return r
		}
	}, input)
}

// IsCrockfordB32LC reports whether s is a non-empty canonical Crockford string
// no longer than MaxTraceIDLength.
func IsCrockfordB32LC(s string) bool {
	if s == "" || len(s) > MaxTraceIDLength {
		return false
	}

	for _, r := range s {
		if !strings.ContainsRune(crockfordAlphabet, r) {
			return false
		}
	}

	return true
}
