package script

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Sumatoshi-tech/textpatch/pkg/patch"
	"github.com/Sumatoshi-tech/textpatch/pkg/point"
)

// Result is the answer to one query step.
type Result struct {
	Step       int            `json:"step"                 yaml:"step"`
	Kind       string         `json:"kind"                 yaml:"kind"`
	Space      Space          `json:"space,omitempty"      yaml:"space,omitempty"`
	Position   *point.Point   `json:"position,omitempty"   yaml:"position,omitempty"`
	Translated *point.Point   `json:"translated,omitempty" yaml:"translated,omitempty"`
	Changed    *bool          `json:"changed,omitempty"    yaml:"changed,omitempty"`
	Changes    []patch.Change `json:"changes,omitempty"    yaml:"changes,omitempty"`
}

// Report is the outcome of a run.
type Report struct {
	Results []Result       `json:"results" yaml:"results"`
	Changes []patch.Change `json:"changes" yaml:"changes"`
	Nodes   int            `json:"nodes"   yaml:"nodes"`
}

// RunOption configures Run.
type RunOption func(*runner)

// WithLogger logs every step at debug level.
func WithLogger(logger *slog.Logger) RunOption {
	return func(r *runner) { r.logger = logger }
}

// WithValidation checks the patch invariants after every mutating step,
// whatever the script says.
func WithValidation() RunOption {
	return func(r *runner) { r.validate = true }
}

type runner struct {
	logger   *slog.Logger
	validate bool
}

// Run replays s against a new patch.
func Run(ctx context.Context, s *Script, opts ...RunOption) (*Report, error) {
	r := &runner{logger: slog.New(slog.DiscardHandler), validate: s.Validate}
	for _, opt := range opts {
		opt(r)
	}

	p := s.newPatch()
	report := &Report{}

	for i, step := range s.Steps {
		err := ctx.Err()
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}

		r.logger.DebugContext(ctx, "replay step", "step", i, "kind", step.Kind())

		result, err := r.apply(p, i, step)
		if err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i, step.Kind(), err)
		}

		if result != nil {
			report.Results = append(report.Results, *result)
		}
	}

	report.Changes = p.Changes()
	report.Nodes = p.Nodes()

	return report, nil
}

func (r *runner) apply(p *patch.Patch, i int, step Step) (*Result, error) {
	switch {
	case step.Splice != nil:
		sp := step.Splice

		return nil, r.mutate(p, func() { p.Splice(sp.Start, sp.Replaced, sp.replacement(), sp.Text) })
	case step.SpliceInput != nil:
		sp := step.SpliceInput

		return nil, r.mutate(p, func() { p.SpliceInput(sp.Start, sp.Replaced, sp.replacement()) })
	case step.Translate != nil:
		q := step.Translate

		var out point.Point

		switch q.Space {
		case SpaceInput:
			out = p.TranslateInputPosition(q.Position)
		case SpaceOutput:
			out = p.TranslateOutputPosition(q.Position)
		default:
			return nil, fmt.Errorf("%w: unknown space %q", ErrInvalidScript, q.Space)
		}

		return &Result{Step: i, Kind: step.Kind(), Space: q.Space, Position: &q.Position, Translated: &out}, nil
	case step.Changed != nil:
		q := step.Changed

		var changed bool

		switch q.Space {
		case SpaceInput:
			changed = p.IsChangedAtInputPosition(q.Position)
		case SpaceOutput:
			changed = p.IsChangedAtOutputPosition(q.Position)
		default:
			return nil, fmt.Errorf("%w: unknown space %q", ErrInvalidScript, q.Space)
		}

		return &Result{Step: i, Kind: step.Kind(), Space: q.Space, Position: &q.Position, Changed: &changed}, nil
	case step.Changes != nil:
		return &Result{Step: i, Kind: step.Kind(), Changes: p.Changes()}, nil
	default:
		return nil, fmt.Errorf("%w: empty step", ErrInvalidScript)
	}
}

// mutate runs fn, turning a contract panic into an error, and validates the
// patch afterwards when asked to.
func (r *runner) mutate(p *patch.Patch, fn func()) error {
	err := recovered(ErrInvalidScript, fn)
	if err != nil || !r.validate {
		return err
	}

	return recovered(ErrCorrupt, p.Validate)
}

func recovered(sentinel error, fn func()) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: %v", sentinel, rec)
		}
	}()

	fn()

	return nil
}
