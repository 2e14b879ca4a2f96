package point_test

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/textpatch/pkg/point"
)

func TestTraverse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		start    point.Point
		distance point.Point
		want     point.Point
	}{
		{"same row adds columns", point.New(2, 3), point.New(0, 4), point.New(2, 7)},
		{"rows reset column", point.New(2, 3), point.New(1, 4), point.New(3, 4)},
		{"zero distance", point.New(5, 5), point.Zero, point.New(5, 5)},
		{"from origin", point.Zero, point.New(3, 1), point.New(3, 1)},
		{"infinite start", point.Infinity, point.New(1, 1), point.Infinity},
		{"infinite distance", point.New(1, 1), point.Infinity, point.Infinity},
		{"row overflow saturates", point.New(2, 0), point.New(math.MaxInt-1, 0), point.Infinity},
		{"column overflow saturates", point.New(0, 3), point.New(0, math.MaxInt-1), point.Infinity},
		{"largest row fits", point.New(1, 0), point.New(math.MaxInt-1, 4), point.New(math.MaxInt, 4)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.want, point.Traverse(tc.start, tc.distance))
		})
	}
}

func TestTraversalDistance(t *testing.T) {
	t.Parallel()

	assert.Equal(t, point.New(0, 4), point.TraversalDistance(point.New(2, 7), point.New(2, 3)))
	assert.Equal(t, point.New(1, 4), point.TraversalDistance(point.New(3, 4), point.New(2, 3)))
	assert.Equal(t, point.Zero, point.TraversalDistance(point.New(3, 4), point.New(3, 4)))
}

func TestTraversalDistance_RoundTrip(t *testing.T) {
	t.Parallel()

	starts := []point.Point{point.Zero, point.New(0, 9), point.New(4, 2), point.New(7, 0)}
	distances := []point.Point{point.Zero, point.New(0, 3), point.New(2, 0), point.New(5, 11)}

	for _, start := range starts {
		for _, distance := range distances {
			end := point.Traverse(start, distance)
			assert.Equal(t, distance, point.TraversalDistance(end, start), "start %v distance %v", start, distance)
		}
	}
}

func TestTraversalDistance_PanicsBackwards(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() {
		point.TraversalDistance(point.New(1, 0), point.New(1, 1))
	})
}

func TestCompareAndMin(t *testing.T) {
	t.Parallel()

	assert.Equal(t, -1, point.Compare(point.New(0, 9), point.New(1, 0)))
	assert.Equal(t, 1, point.Compare(point.New(1, 1), point.New(1, 0)))
	assert.Equal(t, 0, point.Compare(point.New(1, 1), point.New(1, 1)))
	assert.True(t, point.New(3, 3).Less(point.Infinity))
	assert.Equal(t, point.New(0, 9), point.Min(point.New(0, 9), point.New(1, 0)))
	assert.Equal(t, point.New(2, 2), point.Min(point.Infinity, point.New(2, 2)))
}

func TestParse(t *testing.T) {
	t.Parallel()

	p, err := point.Parse("3:14")
	require.NoError(t, err)
	assert.Equal(t, point.New(3, 14), p)

	p, err = point.Parse(" 2, 7 ")
	require.NoError(t, err)
	assert.Equal(t, point.New(2, 7), p)

	for _, bad := range []string{"", "3", "a:1", "1:b", "-1:0"} {
		_, err = point.Parse(bad)
		require.ErrorIs(t, err, point.ErrInvalidPoint, bad)
	}
}

func TestPoint_JSON(t *testing.T) {
	t.Parallel()

	type wrapper struct {
		At point.Point `json:"at"`
	}

	data, err := json.Marshal(wrapper{At: point.New(4, 2)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"at":"4:2"}`, string(data))

	var decoded wrapper

	require.NoError(t, json.Unmarshal([]byte(`{"at":"1:5"}`), &decoded))
	assert.Equal(t, point.New(1, 5), decoded.At)
}

func TestPoint_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "(1, 2)", point.New(1, 2).String())
	assert.Equal(t, "(∞, ∞)", point.Infinity.String())
}
