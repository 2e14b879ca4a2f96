package point

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// ExtentOf returns the extent spanned by text: the number of newlines and the
// rune length of the last line.
func ExtentOf(text string) Point {
	rows := strings.Count(text, "\n")
	if rows == 0 {
		return Point{Column: utf8.RuneCountInString(text)}
	}

	tail := text[strings.LastIndexByte(text, '\n')+1:]

	return Point{Row: rows, Column: utf8.RuneCountInString(tail)}
}

// Split cuts text at the position extent, measured from the start of text.
// Positions past the end of a line clamp to the line end; positions past the
// end of text return the whole text as head.
func Split(text string, extent Point) (head, tail string) {
	idx := index(text, extent)

	return text[:idx], text[idx:]
}

// Offset returns the byte offset of p in text.
// Unlike [Split] it rejects positions that do not exist in text.
func Offset(text string, p Point) (int, error) {
	if !p.Valid() {
		return 0, fmt.Errorf("%w: %v", ErrInvalidPoint, p)
	}

	lineStart := 0

	for range p.Row {
		nl := strings.IndexByte(text[lineStart:], '\n')
		if nl < 0 {
			return 0, fmt.Errorf("%w: row %d of %d", ErrOutOfRange, p.Row, strings.Count(text, "\n"))
		}

		lineStart += nl + 1
	}

	line := text[lineStart:]
	if nl := strings.IndexByte(line, '\n'); nl >= 0 {
		line = line[:nl]
	}

	if p.Column > utf8.RuneCountInString(line) {
		return 0, fmt.Errorf("%w: column %d past end of row %d", ErrOutOfRange, p.Column, p.Row)
	}

	return lineStart + runeOffset(line, p.Column), nil
}

// index is the clamping counterpart of Offset.
func index(text string, extent Point) int {
	lineStart := 0

	for range extent.Row {
		nl := strings.IndexByte(text[lineStart:], '\n')
		if nl < 0 {
			return len(text)
		}

		lineStart += nl + 1
	}

	line := text[lineStart:]
	if nl := strings.IndexByte(line, '\n'); nl >= 0 {
		line = line[:nl]
	}

	return lineStart + runeOffset(line, extent.Column)
}

// runeOffset returns the byte offset of the n-th rune of line, or len(line).
func runeOffset(line string, n int) int {
	for i := range line {
		if n == 0 {
			return i
		}

		n--
	}

	return len(line)
}
