package document_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/textpatch/pkg/document"
	"github.com/Sumatoshi-tech/textpatch/pkg/patch"
	"github.com/Sumatoshi-tech/textpatch/pkg/point"
)

func TestSnapshot_RestoreRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	doc := newDoc("alpha\nbeta\ngamma\n", document.WithID("greek"))

	require.NoError(t, doc.Replace(ctx, point.New(0, 0), point.New(0, 5), "ALPHA"))
	require.NoError(t, doc.Insert(ctx, point.New(1, 4), "!\nnew line"))
	require.NoError(t, doc.Delete(ctx, point.New(3, 0), point.New(0, 2)))

	snap := doc.Snapshot()
	assert.Equal(t, "greek", snap.ID)
	assert.Equal(t, "alpha\nbeta\ngamma\n", snap.Base)

	restored, err := document.Restore(ctx, snap, document.WithValidation(true))
	require.NoError(t, err)

	assert.Equal(t, "greek", restored.ID())
	assert.Equal(t, doc.Text(), restored.Text())
	assert.Equal(t, doc.Changes(), restored.Changes())

	for _, pos := range []point.Point{point.New(0, 3), point.New(1, 2), point.New(2, 4), point.New(3, 1)} {
		assert.Equal(t, doc.TranslateInputPosition(pos), restored.TranslateInputPosition(pos), pos)
		assert.Equal(t, doc.TranslateOutputPosition(pos), restored.TranslateOutputPosition(pos), pos)
	}
}

func TestSnapshot_RestoreKeepsTouchingChanges(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	doc := newDoc("abcdefgh", document.WithID("touching"))

	require.NoError(t, doc.Delete(ctx, point.New(0, 1), point.New(0, 2)))
	require.NoError(t, doc.Insert(ctx, point.New(0, 3), "XYZ"))
	require.NoError(t, doc.Rebase(ctx, "abcfgh"))
	require.Len(t, doc.Changes(), 2)

	restored, err := document.Restore(ctx, doc.Snapshot(), document.WithValidation(true))
	require.NoError(t, err)

	assert.Equal(t, "aXYZfgh", restored.Text())
	assert.Equal(t, doc.Text(), restored.Text())
	assert.Equal(t, doc.Changes(), restored.Changes())
	assert.Equal(t, point.New(0, 1), restored.TranslateInputPosition(point.New(0, 2)))
	assert.Equal(t, point.New(0, 3), restored.TranslateOutputPosition(point.New(0, 1)))

	for column := range 8 {
		pos := point.New(0, column)
		assert.Equal(t, doc.TranslateInputPosition(pos), restored.TranslateInputPosition(pos), pos)
		assert.Equal(t, doc.TranslateOutputPosition(pos), restored.TranslateOutputPosition(pos), pos)
		assert.Equal(t, doc.IsChangedAtOutputPosition(pos), restored.IsChangedAtOutputPosition(pos), pos)
	}
}

func TestSnapshot_RestoreRejectsInconsistentChanges(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		changes []patch.Change
	}{
		{"overlapping", []patch.Change{
			{InputStart: point.New(0, 1), InputEnd: point.New(0, 3), OutputStart: point.New(0, 1), OutputEnd: point.New(0, 1)},
			{InputStart: point.New(0, 2), InputEnd: point.New(0, 4), OutputStart: point.New(0, 0), OutputEnd: point.New(0, 0)},
		}},
		{"text shorter than its range", []patch.Change{
			{InputStart: point.New(0, 1), InputEnd: point.New(0, 1), OutputStart: point.New(0, 1), OutputEnd: point.New(0, 4), Text: "x"},
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := document.Restore(context.Background(), document.Snapshot{ID: "bad", Base: "abcdef", Changes: tc.changes})
			require.ErrorIs(t, err, document.ErrCorrupt)
		})
	}
}

func TestSnapshot_RestoreRejectsBadChange(t *testing.T) {
	t.Parallel()

	snap := document.Snapshot{
		ID:   "bad",
		Base: "short",
		Changes: []patch.Change{{
			InputStart:  point.New(4, 0),
			InputEnd:    point.New(4, 0),
			OutputStart: point.New(4, 0),
			OutputEnd:   point.New(4, 1),
			Text:        "x",
		}},
	}

	_, err := document.Restore(context.Background(), snap)
	require.ErrorIs(t, err, document.ErrOutOfRange)
}

func TestRegistry_SnapshotsAndRestore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	reg := document.NewRegistry()

	a, err := reg.Create(ctx, "a", "one")
	require.NoError(t, err)
	require.NoError(t, a.Insert(ctx, point.New(0, 3), "!"))

	_, err = reg.Create(ctx, "b", "two")
	require.NoError(t, err)

	snaps := reg.Snapshots()
	require.Len(t, snaps, 2)
	assert.Equal(t, "a", snaps[0].ID)
	assert.Len(t, snaps[0].Changes, 1)

	other := document.NewRegistry()
	for _, snap := range snaps {
		_, err = other.Restore(ctx, snap)
		require.NoError(t, err)
	}

	got, err := other.Get("a")
	require.NoError(t, err)
	assert.Equal(t, "one!", got.Text())
	assert.Equal(t, []string{"a", "b"}, other.IDs())

	_, err = other.Restore(ctx, document.Snapshot{})
	require.ErrorIs(t, err, document.ErrEmptyID)
}
