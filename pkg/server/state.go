package server

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/Sumatoshi-tech/textpatch/pkg/config"
	"github.com/Sumatoshi-tech/textpatch/pkg/document"
	"github.com/Sumatoshi-tech/textpatch/pkg/persist"
)

// State keeps a registry's documents on disk between runs.
type State struct {
	store *persist.Store[document.Snapshot]
}

// NewState opens the snapshot directory named by cfg. It returns nil when
// cfg has no state directory.
func NewState(cfg config.ServerConfig) (*State, error) {
	if cfg.StateDir == "" {
		return nil, nil //nolint:nilnil // no state directory means no state.
	}

	codec, err := persist.CodecByName(cfg.SnapshotCodec, cfg.SnapshotCompress)
	if err != nil {
		return nil, err
	}

	return &State{store: persist.NewStore[document.Snapshot](cfg.StateDir, codec)}, nil
}

// Load restores every stored snapshot into registry and returns how many
// documents it restored.
func (s *State) Load(ctx context.Context, registry *document.Registry) (int, error) {
	names, err := s.store.Names()
	if err != nil {
		return 0, err
	}

	var errs []error

	restored := 0

	for _, name := range names {
		snap, err := s.store.Load(name)
		if err != nil {
			errs = append(errs, err)

			continue
		}

		if snap.ID == "" {
			snap.ID = name
		}

		_, err = registry.Restore(ctx, *snap)
		if err != nil {
			errs = append(errs, err)

			continue
		}

		restored++
	}

	return restored, errors.Join(errs...)
}

// Save writes a snapshot of every document in registry and removes the
// snapshots of documents that no longer exist.
func (s *State) Save(registry *document.Registry) error {
	snapshots := registry.Snapshots()
	ids := make([]string, 0, len(snapshots))

	var errs []error

	for i := range snapshots {
		ids = append(ids, snapshots[i].ID)

		err := s.store.Save(snapshots[i].ID, &snapshots[i])
		if err != nil {
			errs = append(errs, fmt.Errorf("save %q: %w", snapshots[i].ID, err))
		}
	}

	names, err := s.store.Names()
	if err != nil {
		return errors.Join(append(errs, err)...)
	}

	for _, name := range names {
		if !slices.Contains(ids, name) {
			errs = append(errs, s.store.Remove(name))
		}
	}

	return errors.Join(errs...)
}
