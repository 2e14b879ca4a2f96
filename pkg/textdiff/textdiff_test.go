package textdiff_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/textpatch/pkg/patch"
	"github.com/Sumatoshi-tech/textpatch/pkg/point"
	"github.com/Sumatoshi-tech/textpatch/pkg/textdiff"
)

const testSeed = 3

var textPairs = []struct {
	name string
	old  string
	new  string
}{
	{"identical", "same\ntext\n", "same\ntext\n"},
	{"insert", "abc\ndef\n", "abc\nXYZ\ndef\n"},
	{"delete", "one\ntwo\nthree\n", "one\nthree\n"},
	{"replace word", "the quick fox", "the slow fox"},
	{"from empty", "", "hello\nworld"},
	{"to empty", "hello\nworld", ""},
	{"unicode", "héllo wörld", "hallo welt"},
	{"scattered", "a1b2c3\nd4e5\n", "a9b2c7\nd4\nf5\n"},
}

func TestEdits_ApplyTextReproducesNew(t *testing.T) {
	t.Parallel()

	for _, tc := range textPairs {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			for _, lineMode := range []bool{false, true} {
				edits := textdiff.Edits(tc.old, tc.new, textdiff.WithLineMode(lineMode))

				got, err := textdiff.ApplyText(tc.old, edits)
				require.NoError(t, err)
				assert.Equal(t, tc.new, got, "line mode %v", lineMode)
			}
		})
	}
}

func TestEdits_Identical(t *testing.T) {
	t.Parallel()

	assert.Empty(t, textdiff.Edits("x\ny", "x\ny"))
}

func TestEdits_Positions(t *testing.T) {
	t.Parallel()

	edits := textdiff.Edits("abc\ndef", "abc\ndXf", textdiff.WithCleanup(false))
	require.Len(t, edits, 1)

	assert.Equal(t, textdiff.Edit{
		Start:     point.New(1, 1),
		OldExtent: point.New(0, 1),
		NewExtent: point.New(0, 1),
		Text:      "X",
	}, edits[0])
}

func TestApply_ChangesDescribeDiff(t *testing.T) {
	t.Parallel()

	for _, tc := range textPairs {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			p := patch.New(patch.WithSeed(testSeed))
			textdiff.Apply(p, textdiff.Edits(tc.old, tc.new))

			require.NotPanics(t, p.Validate)

			var rebuilt []textdiff.Edit
			for _, c := range p.Changes() {
				rebuilt = append(rebuilt, textdiff.Edit{
					Start:     c.OutputStart,
					OldExtent: c.OldExtent(),
					NewExtent: c.NewExtent(),
					Text:      c.Text,
				})
			}

			got, err := textdiff.ApplyText(tc.old, rebuilt)
			require.NoError(t, err)
			assert.Equal(t, tc.new, got)
		})
	}
}

func TestApplyInput_ShiftsOutput(t *testing.T) {
	t.Parallel()

	p := patch.New(patch.WithSeed(testSeed))
	p.SpliceWithText(point.New(1, 0), point.New(0, 3), "DEF")

	textdiff.ApplyInput(p, textdiff.Edits("abc\ndef\n", "zz\nabc\ndef\n"))

	require.NotPanics(t, p.Validate)

	changes := p.Changes()
	require.Len(t, changes, 1)
	assert.Equal(t, point.New(2, 0), changes[0].InputStart)
	assert.Equal(t, point.New(2, 0), changes[0].OutputStart)
	assert.Equal(t, "DEF", changes[0].Text)
}

func TestApplyText_OutOfRange(t *testing.T) {
	t.Parallel()

	_, err := textdiff.ApplyText("ab", []textdiff.Edit{{Start: point.New(3, 0)}})
	require.ErrorIs(t, err, point.ErrOutOfRange)
}
