// Package point provides row/column positions and extents in a text and the
// arithmetic used to combine them.
//
// A [Point] is used both as an absolute location in a document and as a
// relative extent. The two interpretations are tied together by [Traverse]
// and [TraversalDistance]: an extent with a non-zero row count moves down that
// many rows and then to an absolute column, while an extent on a single row
// just shifts the column.
package point

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Sentinel errors for parsing and text lookups.
var (
	ErrInvalidPoint = errors.New("invalid point")
	ErrOutOfRange   = errors.New("point out of range")
)

// Point is a row/column pair. Both fields are zero-based and non-negative.
// Columns count Unicode code points.
//
// Points encode as "row:column" in JSON, YAML and flags.
type Point struct {
	Row    int
	Column int
}

var (
	// Zero is the origin and the empty extent.
	Zero = Point{}

	// Infinity is greater than every position reachable in a document.
	Infinity = Point{Row: math.MaxInt, Column: math.MaxInt}
)

// New returns the point at row, column.
func New(row, column int) Point {
	return Point{Row: row, Column: column}
}

// Compare returns -1, 0 or +1 depending on whether a sorts before, equal to,
// or after b. Points are ordered by row, then by column.
func Compare(a, b Point) int {
	switch {
	case a.Row < b.Row:
		return -1
	case a.Row > b.Row:
		return 1
	case a.Column < b.Column:
		return -1
	case a.Column > b.Column:
		return 1
	default:
		return 0
	}
}

// Less reports whether p sorts before q.
func (p Point) Less(q Point) bool { return Compare(p, q) < 0 }

// IsZero reports whether p is the origin.
func (p Point) IsZero() bool { return p == Zero }

// IsInfinite reports whether p is [Infinity].
func (p Point) IsInfinite() bool { return p == Infinity }

// Valid reports whether both coordinates are non-negative.
func (p Point) Valid() bool { return p.Row >= 0 && p.Column >= 0 }

func (p Point) String() string {
	if p.IsInfinite() {
		return "(∞, ∞)"
	}

	return fmt.Sprintf("(%d, %d)", p.Row, p.Column)
}

// Min returns the smaller of a and b.
func Min(a, b Point) Point {
	if Compare(a, b) <= 0 {
		return a
	}

	return b
}

// Traverse returns the position reached by moving distance from start.
// A distance spanning rows resets the column to distance.Column.
// Traversing from or by [Infinity], or past the largest representable
// coordinate, yields [Infinity].
func Traverse(start, distance Point) Point {
	if start.IsInfinite() || distance.IsInfinite() {
		return Infinity
	}

	if distance.Row == 0 {
		if start.Column > math.MaxInt-distance.Column {
			return Infinity
		}

		return Point{Row: start.Row, Column: start.Column + distance.Column}
	}

	if start.Row > math.MaxInt-distance.Row {
		return Infinity
	}

	return Point{Row: start.Row + distance.Row, Column: distance.Column}
}

// TraversalDistance returns the extent that leads from start to end, so that
// Traverse(start, TraversalDistance(end, start)) == end.
// It panics if end sorts before start.
func TraversalDistance(end, start Point) Point {
	if end.Less(start) {
		panic(fmt.Sprintf("point: distance from %v back to %v", start, end))
	}

	if end.Row == start.Row {
		return Point{Row: 0, Column: end.Column - start.Column}
	}

	return Point{Row: end.Row - start.Row, Column: end.Column}
}

// Parse reads a point written as "row:column" or "row,column".
func Parse(s string) (Point, error) {
	rowStr, colStr, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		rowStr, colStr, ok = strings.Cut(strings.TrimSpace(s), ",")
	}

	if !ok {
		return Zero, fmt.Errorf("%w: %q", ErrInvalidPoint, s)
	}

	row, err := strconv.Atoi(strings.TrimSpace(rowStr))
	if err != nil {
		return Zero, fmt.Errorf("%w: row of %q: %w", ErrInvalidPoint, s, err)
	}

	col, err := strconv.Atoi(strings.TrimSpace(colStr))
	if err != nil {
		return Zero, fmt.Errorf("%w: column of %q: %w", ErrInvalidPoint, s, err)
	}

	p := Point{Row: row, Column: col}
	if !p.Valid() {
		return Zero, fmt.Errorf("%w: negative coordinate in %q", ErrInvalidPoint, s)
	}

	return p, nil
}

// MarshalText encodes p as "row:column".
func (p Point) MarshalText() ([]byte, error) {
	return []byte(strconv.Itoa(p.Row) + ":" + strconv.Itoa(p.Column)), nil
}

// UnmarshalText accepts the forms understood by [Parse].
func (p *Point) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}

	*p = parsed

	return nil
}
