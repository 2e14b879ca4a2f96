// Package document pairs a patch.Patch with the texts it describes and
// serializes access to it, so a document can be shared between goroutines.
package document

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/Sumatoshi-tech/textpatch/pkg/observability"
	"github.com/Sumatoshi-tech/textpatch/pkg/patch"
	"github.com/Sumatoshi-tech/textpatch/pkg/point"
	"github.com/Sumatoshi-tech/textpatch/pkg/textdiff"
)

// Sentinel errors.
var (
	ErrOutOfRange = errors.New("position outside the document")
	ErrCorrupt    = errors.New("patch invariant broken")
)

const (
	spaceInput  = "input"
	spaceOutput = "output"
	// spaceRestore labels the rebuild of a document from a snapshot.
	spaceRestore = "restore"

	spanRebase = "textpatch.document.rebase"
)

// Document tracks the edits made to a base text. The base is the input
// space of its patch and the current text is the output space.
type Document struct {
	mu sync.Mutex

	id    string
	patch *patch.Patch
	base  string
	text  string

	patchOpts []patch.Option
	diffOpts  []textdiff.Option
	validate  bool
	logger    *slog.Logger
	tracer    trace.Tracer
	metrics   *observability.PatchMetrics
}

// Option configures a Document.
type Option func(*Document)

// WithID names the document in logs and spans.
func WithID(id string) Option {
	return func(d *Document) { d.id = id }
}

// WithPatchOptions configures the underlying patch.
func WithPatchOptions(opts ...patch.Option) Option {
	return func(d *Document) { d.patchOpts = opts }
}

// WithDiffOptions configures how Rebase diffs bases.
func WithDiffOptions(opts ...textdiff.Option) Option {
	return func(d *Document) { d.diffOpts = opts }
}

// WithValidation checks every patch invariant after each edit.
func WithValidation(enabled bool) Option {
	return func(d *Document) { d.validate = enabled }
}

// WithLogger sets the logger. The default discards.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Document) { d.logger = logger }
}

// WithTracer sets the tracer. The default records nothing.
func WithTracer(tracer trace.Tracer) Option {
	return func(d *Document) { d.tracer = tracer }
}

// WithMetrics counts edits in pm.
func WithMetrics(pm *observability.PatchMetrics) Option {
	return func(d *Document) { d.metrics = pm }
}

// New returns a document whose base and current text are both base.
func New(base string, opts ...Option) *Document {
	d := &Document{
		base:   base,
		text:   base,
		logger: slog.New(slog.DiscardHandler),
		tracer: nooptrace.NewTracerProvider().Tracer(""),
	}

	for _, opt := range opts {
		opt(d)
	}

	d.patch = patch.New(d.patchOpts...)

	return d
}

// ID returns the document's name.
func (d *Document) ID() string { return d.id }

func (d *Document) context(ctx context.Context) context.Context {
	if d.id == "" {
		return ctx
	}

	return observability.ContextWithDocument(ctx, d.id)
}

// Replace replaces the current text in [start, start+oldExtent) with text.
func (d *Document) Replace(ctx context.Context, start, oldExtent point.Point, text string) error {
	ctx, span := d.tracer.Start(d.context(ctx), observability.SpanSplice,
		trace.WithAttributes(attribute.String("document.id", d.id)))
	defer span.End()

	d.mu.Lock()
	defer d.mu.Unlock()

	if !oldExtent.Valid() {
		return fmt.Errorf("%w: extent %v", point.ErrInvalidPoint, oldExtent)
	}

	from, err := point.Offset(d.text, start)
	if err != nil {
		return fmt.Errorf("%w: start %v: %w", ErrOutOfRange, start, err)
	}

	end := point.Traverse(start, oldExtent)

	to, err := point.Offset(d.text, end)
	if err != nil {
		return fmt.Errorf("%w: end %v: %w", ErrOutOfRange, end, err)
	}

	began := time.Now()
	before := d.count()

	work, err := d.attempt(func(p *patch.Patch) { p.SpliceWithText(start, oldExtent, text) })
	if err != nil {
		return err
	}

	d.patch = work
	d.text = d.text[:from] + text + d.text[to:]

	d.record(ctx, spaceOutput, time.Since(began), before)

	d.logger.DebugContext(ctx, "splice",
		"start", start,
		"old_extent", oldExtent,
		"new_extent", point.ExtentOf(text),
	)

	return nil
}

// Insert inserts text at pos in the current text.
func (d *Document) Insert(ctx context.Context, pos point.Point, text string) error {
	return d.Replace(ctx, pos, point.Zero, text)
}

// Delete removes extent worth of current text at start.
func (d *Document) Delete(ctx context.Context, start, extent point.Point) error {
	return d.Replace(ctx, start, extent, "")
}

// Rebase replaces the base text with newBase. The difference between the
// old and new base is carried into the current text; changes the difference
// reaches into are dropped in favour of the new base. On error the document
// is left as it was.
func (d *Document) Rebase(ctx context.Context, newBase string) error {
	ctx, span := d.tracer.Start(d.context(ctx), spanRebase,
		trace.WithAttributes(attribute.String("document.id", d.id)))
	defer span.End()

	d.mu.Lock()
	defer d.mu.Unlock()

	edits := textdiff.Edits(d.base, newBase, d.diffOpts...)
	if len(edits) == 0 {
		return nil
	}

	began := time.Now()
	before := d.count()

	work := d.patch.Clone()

	err := guard(func() {
		textdiff.ApplyInput(work, edits)

		if d.validate {
			work.Validate()
		}
	})
	if err != nil {
		return err
	}

	text, err := patch.Compose(newBase, work.Changes())
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCorrupt, err)
	}

	d.patch, d.base, d.text = work, newBase, text

	d.record(ctx, spaceInput, time.Since(began), before)

	span.SetAttributes(attribute.Int("textpatch.edits", len(edits)))
	d.logger.InfoContext(ctx, "rebased", "edits", len(edits), "changes", d.patch.Len())

	return nil
}

// Close releases the document's share of the change gauge.
func (d *Document) Close(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.metrics != nil {
		d.metrics.ForgetChanges(ctx, d.patch.Len())
	}
}

func (d *Document) count() int {
	if d.metrics == nil {
		return 0
	}

	return d.patch.Len()
}

func (d *Document) record(ctx context.Context, space string, elapsed time.Duration, before int) {
	if d.metrics == nil {
		return
	}

	d.metrics.RecordSplice(ctx, space, elapsed, d.patch.Len()-before)
}

// attempt applies edit to the patch and returns the patch to commit. With
// validation on, edit runs on a copy, and a panic or broken invariant is
// reported as ErrCorrupt with the document untouched.
func (d *Document) attempt(edit func(*patch.Patch)) (*patch.Patch, error) {
	if !d.validate {
		edit(d.patch)

		return d.patch, nil
	}

	work := d.patch.Clone()

	err := guard(func() {
		edit(work)
		work.Validate()
	})
	if err != nil {
		return nil, err
	}

	return work, nil
}

// validated runs p.Validate when enabled.
func validated(p *patch.Patch, enabled bool) error {
	if !enabled {
		return nil
	}

	return guard(p.Validate)
}

// guard runs fn and turns its panic into ErrCorrupt.
func guard(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrCorrupt, r)
		}
	}()

	fn()

	return nil
}

// Text returns the current text.
func (d *Document) Text() string {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.text
}

// Base returns the base text.
func (d *Document) Base() string {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.base
}

// Changes returns the changes between the base and the current text.
func (d *Document) Changes() []patch.Change {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.patch.Changes()
}

// TranslateInputPosition maps a base position to the current text.
func (d *Document) TranslateInputPosition(pos point.Point) point.Point {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.patch.TranslateInputPosition(pos)
}

// TranslateOutputPosition maps a current-text position to the base.
func (d *Document) TranslateOutputPosition(pos point.Point) point.Point {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.patch.TranslateOutputPosition(pos)
}

// IsChangedAtInputPosition reports whether a base position was edited.
func (d *Document) IsChangedAtInputPosition(pos point.Point) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.patch.IsChangedAtInputPosition(pos)
}

// IsChangedAtOutputPosition reports whether a current-text position lies in an edit.
func (d *Document) IsChangedAtOutputPosition(pos point.Point) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.patch.IsChangedAtOutputPosition(pos)
}
