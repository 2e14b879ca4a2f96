// Package textdiff turns the difference between two texts into edits that
// can be replayed on a patch.Patch.
package textdiff

import (
	"fmt"
	"strings"
	"time"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/Sumatoshi-tech/textpatch/pkg/patch"
	"github.com/Sumatoshi-tech/textpatch/pkg/point"
)

// DefaultTimeout bounds a single diff computation.
const DefaultTimeout = time.Second

// Edit replaces OldExtent worth of text at Start with Text, whose extent is
// NewExtent. Start is measured in the text as it stands once every earlier
// edit of the same batch has been applied.
type Edit struct {
	Start     point.Point `json:"start"      yaml:"start"`
	OldExtent point.Point `json:"old_extent" yaml:"old_extent"`
	NewExtent point.Point `json:"new_extent" yaml:"new_extent"`
	Text      string      `json:"text"       yaml:"text"`
}

func (e Edit) String() string {
	return fmt.Sprintf("%v -%v +%q", e.Start, e.OldExtent, e.Text)
}

// Options controls how the diff is computed.
type Options struct {
	// Timeout bounds the diff; zero means no limit.
	Timeout time.Duration
	// LineMode diffs whole lines first. Faster on large texts, coarser edits.
	LineMode bool
	// Cleanup aligns edits to word and line boundaries where that does not
	// change their meaning.
	Cleanup bool
}

// DefaultOptions returns the options Edits uses when none are given.
func DefaultOptions() Options {
	return Options{Timeout: DefaultTimeout, Cleanup: true}
}

// Option adjusts Options.
type Option func(*Options)

// WithTimeout sets Options.Timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *Options) { o.Timeout = d }
}

// WithLineMode sets Options.LineMode.
func WithLineMode(enabled bool) Option {
	return func(o *Options) { o.LineMode = enabled }
}

// WithCleanup sets Options.Cleanup.
func WithCleanup(enabled bool) Option {
	return func(o *Options) { o.Cleanup = enabled }
}

// Edits returns the edits that turn oldText into newText, left to right.
func Edits(oldText, newText string, opts ...Option) []Edit {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	return fromDiffs(diff(oldText, newText, o))
}

func diff(oldText, newText string, o Options) []diffmatchpatch.Diff {
	dmp := diffmatchpatch.New()
	dmp.DiffTimeout = o.Timeout

	var diffs []diffmatchpatch.Diff

	if o.LineMode {
		src, dst, lines := dmp.DiffLinesToRunes(oldText, newText)
		diffs = dmp.DiffCharsToLines(dmp.DiffMainRunes(src, dst, false), lines)
	} else {
		diffs = dmp.DiffMain(oldText, newText, false)
	}

	if o.Cleanup {
		diffs = dmp.DiffCleanupMerge(dmp.DiffCleanupSemanticLossless(diffs))
	}

	return diffs
}

// fromDiffs folds each run of deletions and insertions into one edit.
func fromDiffs(diffs []diffmatchpatch.Diff) []Edit {
	var (
		edits    []Edit
		pos      point.Point
		deleted  strings.Builder
		inserted strings.Builder
	)

	flush := func() {
		if deleted.Len() == 0 && inserted.Len() == 0 {
			return
		}

		e := Edit{
			Start:     pos,
			OldExtent: point.ExtentOf(deleted.String()),
			NewExtent: point.ExtentOf(inserted.String()),
			Text:      inserted.String(),
		}
		edits = append(edits, e)

		pos = point.Traverse(pos, e.NewExtent)

		deleted.Reset()
		inserted.Reset()
	}

	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			deleted.WriteString(d.Text)
		case diffmatchpatch.DiffInsert:
			inserted.WriteString(d.Text)
		case diffmatchpatch.DiffEqual:
			flush()

			pos = point.Traverse(pos, point.ExtentOf(d.Text))
		}
	}

	flush()

	return edits
}

// Apply records edits made to the output of p.
func Apply(p *patch.Patch, edits []Edit) {
	for _, e := range edits {
		p.Splice(e.Start, e.OldExtent, e.NewExtent, e.Text)
	}
}

// ApplyInput records edits made to the input of p.
func ApplyInput(p *patch.Patch, edits []Edit) {
	for _, e := range edits {
		p.SpliceInput(e.Start, e.OldExtent, e.NewExtent)
	}
}

// ApplyText performs edits on text.
func ApplyText(text string, edits []Edit) (string, error) {
	for _, e := range edits {
		start, err := point.Offset(text, e.Start)
		if err != nil {
			return "", fmt.Errorf("edit %v: %w", e, err)
		}

		end, err := point.Offset(text, point.Traverse(e.Start, e.OldExtent))
		if err != nil {
			return "", fmt.Errorf("edit %v: %w", e, err)
		}

		text = text[:start] + e.Text + text[end:]
	}

	return text, nil
}
