// Package textutil provides byte-level text utilities: binary detection,
// line-ending detection, and line counting.
package textutil

import "bytes"

// BinarySniffLength is the maximum number of bytes scanned for null-byte
// detection. Matches the heuristic used by Git and most editors.
const BinarySniffLength = 8000

// Line-ending strings recognized by DetectLineEnding.
const (
	LF   = "\n"
	CRLF = "\r\n"
	CR   = "\r"
)

// IsBinary returns true if data contains a null byte within the first
// BinarySniffLength bytes. Empty data is not binary.
func IsBinary(data []byte) bool {
	if len(data) == 0 {
		return false
	}

	sniff := data
	if len(sniff) > BinarySniffLength {
		sniff = sniff[:BinarySniffLength]
	}

	return bytes.IndexByte(sniff, 0) >= 0
}

// DetectLineEnding reports the line ending used by data, decided by the
// first '\n' found: "\r\n" when that '\n' is preceded by '\r', "\n"
// otherwise, and "\r" when data contains carriage returns but no newline.
// ok is false when data contains no line-ending byte at all.
func DetectLineEnding(data []byte) (ending string, ok bool) {
	idx := bytes.IndexByte(data, '\n')
	if idx >= 0 {
		if idx > 0 && data[idx-1] == '\r' {
			return CRLF, true
		}

		return LF, true
	}

	if bytes.IndexByte(data, '\r') >= 0 {
		return CR, true
	}

	return "", false
}

// CountLines returns the number of newline-delimited lines in data.
// A non-empty buffer without a trailing newline counts the last partial line.
// Returns 0 for empty data.
func CountLines(data []byte) int {
	if len(data) == 0 {
		return 0
	}

	lines := bytes.Count(data, []byte{'\n'})

	if data[len(data)-1] != '\n' {
		lines++
	}

	return lines
}
