package script_test

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/textpatch/pkg/patch"
	"github.com/Sumatoshi-tech/textpatch/pkg/point"
	"github.com/Sumatoshi-tech/textpatch/pkg/script"
)

func loadFile(t *testing.T, path string) *script.Script {
	t.Helper()

	f, err := os.Open(path)
	require.NoError(t, err)

	t.Cleanup(func() { f.Close() })

	s, err := script.Load(f, script.FormatFromPath(path))
	require.NoError(t, err)

	return s
}

func TestLoad_Formats(t *testing.T) {
	t.Parallel()

	fromYAML := loadFile(t, "testdata/basic.yaml")
	fromJSON := loadFile(t, "testdata/basic.json")

	assert.Equal(t, fromYAML, fromJSON)
	assert.Equal(t, "insert then shift", fromYAML.Name)
	require.NotNil(t, fromYAML.Seed)
	assert.Equal(t, uint64(42), *fromYAML.Seed)
	require.Len(t, fromYAML.Steps, 6)
	assert.Equal(t, point.New(0, 5), fromYAML.Steps[0].Splice.Start)
	assert.Equal(t, "splice_input", fromYAML.Steps[1].Kind())
	assert.Equal(t, "changes", fromYAML.Steps[5].Kind())
}

func TestFormatFromPath(t *testing.T) {
	t.Parallel()

	assert.Equal(t, script.FormatJSON, script.FormatFromPath("a/b.JSON"))
	assert.Equal(t, script.FormatYAML, script.FormatFromPath("a/b.yml"))
	assert.Equal(t, script.FormatYAML, script.FormatFromPath("script"))
}

func TestLoad_Rejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		format script.Format
		input  string
	}{
		{"no steps", script.FormatYAML, "seed: 1\n"},
		{"two operations", script.FormatYAML, "steps:\n  - changes: {}\n    translate: {space: input, position: \"0:0\"}\n"},
		{"empty step", script.FormatYAML, "steps:\n  - {}\n"},
		{"bad point", script.FormatYAML, "steps:\n  - changed: {space: input, position: \"zero\"}\n"},
		{"negative point", script.FormatYAML, "steps:\n  - changed: {space: input, position: \"-1:0\"}\n"},
		{"bad space", script.FormatYAML, "steps:\n  - changed: {space: middle, position: \"0:0\"}\n"},
		{"unknown field", script.FormatJSON, `{"steps": [], "extra": true}`},
		{"negative seed", script.FormatJSON, `{"seed": -3, "steps": []}`},
		{"malformed", script.FormatJSON, `{"steps": [`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := script.Load(strings.NewReader(tt.input), tt.format)
			require.ErrorIs(t, err, script.ErrInvalidScript)
		})
	}
}

func TestLoad_UnsupportedFormat(t *testing.T) {
	t.Parallel()

	_, err := script.Load(strings.NewReader("{}"), "toml")
	require.ErrorIs(t, err, script.ErrUnsupportedFormat)
}

func TestRun(t *testing.T) {
	t.Parallel()

	s := loadFile(t, "testdata/basic.yaml")

	report, err := script.Run(context.Background(), s)
	require.NoError(t, err)

	wantChange := patch.Change{
		InputStart:  point.New(0, 4),
		InputEnd:    point.New(0, 4),
		OutputStart: point.New(0, 4),
		OutputEnd:   point.New(0, 6),
		Text:        "XY",
	}

	require.Len(t, report.Results, 4)

	translate := report.Results[0]
	assert.Equal(t, 2, translate.Step)
	assert.Equal(t, "translate", translate.Kind)
	require.NotNil(t, translate.Translated)
	assert.Equal(t, point.New(0, 8), *translate.Translated)

	require.NotNil(t, report.Results[1].Changed)
	assert.True(t, *report.Results[1].Changed)
	require.NotNil(t, report.Results[2].Changed)
	assert.False(t, *report.Results[2].Changed)

	assert.Equal(t, []patch.Change{wantChange}, report.Results[3].Changes)
	assert.Equal(t, []patch.Change{wantChange}, report.Changes)
	assert.Equal(t, 3, report.Nodes)
}

func TestRun_SeedReproducesShape(t *testing.T) {
	t.Parallel()

	s := loadFile(t, "testdata/basic.json")

	first, err := script.Run(context.Background(), s, script.WithValidation())
	require.NoError(t, err)

	second, err := script.Run(context.Background(), s, script.WithValidation())
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestRun_PanicBecomesError(t *testing.T) {
	t.Parallel()

	s := &script.Script{Steps: []script.Step{
		{Splice: &script.Splice{Start: point.New(-1, 0)}},
	}}

	_, err := script.Run(context.Background(), s)
	require.ErrorIs(t, err, script.ErrInvalidScript)
}

func TestRun_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := &script.Script{Steps: []script.Step{{Changes: &struct{}{}}}}

	_, err := script.Run(ctx, s)
	require.ErrorIs(t, err, context.Canceled)
}

func TestEncode_Reloads(t *testing.T) {
	t.Parallel()

	s := loadFile(t, "testdata/basic.yaml")

	for _, format := range []script.Format{script.FormatYAML, script.FormatJSON} {
		var buf bytes.Buffer
		require.NoError(t, script.Encode(&buf, s, format))

		again, err := script.Load(&buf, format)
		require.NoError(t, err, buf.String())
		assert.Equal(t, s, again)
	}

	require.ErrorIs(t, script.Encode(&bytes.Buffer{}, s, "xml"), script.ErrUnsupportedFormat)
}
