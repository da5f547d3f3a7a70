// Package report provides reporting utilities.
package report

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// PeekBody takes head of response body for printing.
func PeekBody(body []byte, l int) []byte {
	tooLong := false
	if len(body) > l {
		tooLong = true
		body = body[0:l]

		// Drop multibyte rune cut in the middle, invalid bytes before it are kept.
		for i := len(body) - 1; i >= 0 && i >= len(body)-utf8.UTFMax; i-- {
			if utf8.RuneStart(body[i]) {
				if !utf8.FullRune(body[i:]) {
					body = body[:i]
				}

				break
			}
		}
	}

	if !IsPrintable(body) {
		return []byte("<non-printable-binary-data>")
	}

	if tooLong {
		return append(body, '.', '.', '.')
	}

	return body
}

// IsPrintable checks if b is valid UTF-8 text without control characters other than whitespace.
func IsPrintable(b []byte) bool {
	if !utf8.Valid(b) {
		return false
	}

	for _, r := range string(b) {
		if !unicode.IsPrint(r) && !unicode.IsSpace(r) {
			return false
		}
	}

	return true
}

// Bytes.
const (
	BYTE = 1 << (10 * iota)
	KILOBYTE
	MEGABYTE
	GIGABYTE
	TERABYTE
	PETABYTE
	EXABYTE
)

// ByteSize returns a human-readable byte string of the form 10M, 12.5K, and so forth.
func ByteSize(bytes int64) string {
	var (
		unit  string
		value = float64(bytes)
	)

	switch {
	case bytes >= EXABYTE:
		unit = "EB"
		value /= EXABYTE
	case bytes >= PETABYTE:
		unit = "PB"
		value /= PETABYTE
	case bytes >= TERABYTE:
		unit = "TB"
		value /= TERABYTE
	case bytes >= GIGABYTE:
		unit = "GB"
		value /= GIGABYTE
	case bytes >= MEGABYTE:
		unit = "MB"
		value /= MEGABYTE
	case bytes >= KILOBYTE:
		unit = "KB"
		value /= KILOBYTE
	default:
		unit = "B"
	}

	result := strconv.FormatFloat(value, 'f', 1, 64)
	result = strings.TrimSuffix(result, ".0")

	return result + unit
}
