package document

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/Sumatoshi-tech/textpatch/pkg/patch"
	"github.com/Sumatoshi-tech/textpatch/pkg/point"
)

// Snapshot is the persistent form of a document: its base text and the
// changes on top of it. The tree shape is not kept.
type Snapshot struct {
	ID      string         `json:"id"`
	Base    string         `json:"base"`
	Changes []patch.Change `json:"changes"`
}

// Snapshot captures the document.
func (d *Document) Snapshot() Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()

	return Snapshot{ID: d.id, Base: d.base, Changes: d.patch.Changes()}
}

// Restore rebuilds a document from s. The change boundaries are restored as
// they were, so the document translates positions exactly like the one the
// snapshot was taken from.
func Restore(ctx context.Context, s Snapshot, opts ...Option) (*Document, error) {
	doc := New(s.Base, append(slices.Clone(opts), WithID(s.ID))...)

	err := doc.restore(ctx, s.Changes)
	if err != nil {
		return nil, fmt.Errorf("restore %q: %w", s.ID, err)
	}

	return doc, nil
}

func (d *Document) restore(ctx context.Context, changes []patch.Change) error {
	began := time.Now()

	work := patch.New(d.patchOpts...)

	err := work.Rebuild(changes)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCorrupt, err)
	}

	for i, c := range changes {
		if point.ExtentOf(c.Text) != c.NewExtent() {
			return fmt.Errorf("%w: change %d: text spans %v, not %v",
				ErrCorrupt, i, point.ExtentOf(c.Text), c.NewExtent())
		}
	}

	text, err := patch.Compose(d.base, changes)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrOutOfRange, err)
	}

	err = validated(work, d.validate)
	if err != nil {
		return err
	}

	d.patch, d.text = work, text

	d.record(ctx, spaceRestore, time.Since(began), 0)
	d.logger.DebugContext(d.context(ctx), "restored", "changes", len(changes))

	return nil
}
