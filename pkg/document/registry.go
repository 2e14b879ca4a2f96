package document

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
)

// Registry errors.
var (
	ErrNotFound = errors.New("document not found")
	ErrEmptyID  = errors.New("empty document id")
)

// Registry holds named documents. It is safe for concurrent use.
type Registry struct {
	mu   sync.RWMutex
	docs map[string]*Document
	opts []Option
}

// NewRegistry returns an empty registry. opts are applied to every document
// it creates.
func NewRegistry(opts ...Option) *Registry {
	return &Registry{docs: make(map[string]*Document), opts: opts}
}

// Create stores a new document with base text under id, replacing and
// closing any document already stored there.
func (r *Registry) Create(ctx context.Context, id, base string) (*Document, error) {
	if id == "" {
		return nil, ErrEmptyID
	}

	opts := append(slices.Clone(r.opts), WithID(id))
	doc := New(base, opts...)

	r.mu.Lock()
	old := r.docs[id]
	r.docs[id] = doc
	r.mu.Unlock()

	if old != nil {
		old.Close(ctx)
	}

	return doc, nil
}

// Get returns the document stored under id.
func (r *Registry) Get(id string) (*Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	doc, ok := r.docs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
	}

	return doc, nil
}

// Delete removes and closes the document stored under id.
func (r *Registry) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	doc, ok := r.docs[id]
	delete(r.docs, id)
	r.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, id)
	}

	doc.Close(ctx)

	return nil
}

// Restore adds a document rebuilt from s, replacing any document with the
// same id.
func (r *Registry) Restore(ctx context.Context, s Snapshot) (*Document, error) {
	if s.ID == "" {
		return nil, ErrEmptyID
	}

	doc, err := Restore(ctx, s, r.opts...)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	old := r.docs[s.ID]
	r.docs[s.ID] = doc
	r.mu.Unlock()

	if old != nil {
		old.Close(ctx)
	}

	return doc, nil
}

// Snapshots captures every stored document, ordered by id.
func (r *Registry) Snapshots() []Snapshot {
	ids := r.IDs()
	snapshots := make([]Snapshot, 0, len(ids))

	for _, id := range ids {
		doc, err := r.Get(id)
		if err != nil {
			continue
		}

		snapshots = append(snapshots, doc.Snapshot())
	}

	return snapshots
}

// IDs returns the stored document ids in sorted order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.docs))
	for id := range r.docs {
		ids = append(ids, id)
	}

	slices.Sort(ids)

	return ids
}

// Len returns the number of stored documents.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.docs)
}
