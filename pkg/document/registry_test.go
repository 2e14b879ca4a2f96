package document_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/textpatch/pkg/document"
	"github.com/Sumatoshi-tech/textpatch/pkg/point"
)

func TestRegistry(t *testing.T) {
	t.Parallel()

	reg := document.NewRegistry(document.WithValidation(true))
	ctx := context.Background()

	_, err := reg.Get("a")
	require.ErrorIs(t, err, document.ErrNotFound)

	_, err = reg.Create(ctx, "", "x")
	require.ErrorIs(t, err, document.ErrEmptyID)

	doc, err := reg.Create(ctx, "b", "beta")
	require.NoError(t, err)
	assert.Equal(t, "b", doc.ID())

	_, err = reg.Create(ctx, "a", "alpha")
	require.NoError(t, err)

	got, err := reg.Get("b")
	require.NoError(t, err)
	assert.Same(t, doc, got)
	assert.Equal(t, []string{"a", "b"}, reg.IDs())
	assert.Equal(t, 2, reg.Len())

	require.NoError(t, reg.Delete(ctx, "a"))
	require.ErrorIs(t, reg.Delete(ctx, "a"), document.ErrNotFound)
	assert.Equal(t, []string{"b"}, reg.IDs())
}

func TestRegistry_CreateReplaces(t *testing.T) {
	t.Parallel()

	reg := document.NewRegistry()
	ctx := context.Background()

	first, err := reg.Create(ctx, "doc", "one")
	require.NoError(t, err)
	require.NoError(t, first.Insert(ctx, point.Zero, "x"))

	second, err := reg.Create(ctx, "doc", "two")
	require.NoError(t, err)

	got, err := reg.Get("doc")
	require.NoError(t, err)
	assert.Same(t, second, got)
	assert.Equal(t, "two", got.Text())
	assert.Empty(t, got.Changes())
}
