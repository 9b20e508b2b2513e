package zipcode

import (
	"errors"
	"strings"
)

// Length is the number of digits in a canonical US zip code.
const Length = 5

// Sentinel is what Normalize returns for input without any digits.
const Sentinel = "00000"

// ErrInvalidZip is returned by Parse when the input has no usable digits.
var ErrInvalidZip = errors.New("invalid zip code")

// Normalize canonicalizes a raw zip code string to exactly five digits.
// Non-digits are stripped, short values are left-padded with '0' and long
// values are truncated to their leftmost five digits ("90210-1234" -> "90210").
// It never fails; callers must treat Sentinel as "unparseable".
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(Length)
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			b.WriteByte(s[i])
		}
	}
	digits := b.String()
	if len(digits) < Length {
		digits = strings.Repeat("0", Length-len(digits)) + digits
	}
	return digits[:Length]
}

// IsSentinel reports whether a normalized zip is the unparseable marker.
func IsSentinel(zip string) bool {
	return zip == Sentinel
}

// Parse normalizes s and rejects the sentinel value.
func Parse(s string) (string, error) {
	zip := Normalize(s)
	if IsSentinel(zip) {
		return "", ErrInvalidZip
	}
	return zip, nil
}

// Chunk splits zips into consecutive batches of at most size elements.
// Query layers cap the length of IN (...) filters, so large zip sets are
// always paged through in fixed-size batches.
func Chunk(zips []string, size int) [][]string {
	if size <= 0 {
		size = len(zips)
	}
	var chunks [][]string
	for start := 0; start < len(zips); start += size {
		end := start + size
		if end > len(zips) {
			end = len(zips)
		}
		chunks = append(chunks, zips[start:end])
	}
	return chunks
}
