package etl

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/nfhs-dash/internal/overrides"
)

// ErrNoSnapshot is returned before the first successful build
var ErrNoSnapshot = errors.New("no snapshot has been built")

// Store holds the current snapshot. Readers never block; rebuilds are
// serialised and swap the snapshot only when they succeed.
type Store struct {
	pipeline *Pipeline
	loader   Loader
	logger   *zap.Logger

	current atomic.Pointer[Snapshot]

	mu     sync.Mutex
	table  *overrides.Table
	inputs *Inputs
	onSwap []func(*Snapshot)
}

// NewStore creates an empty store
func NewStore(p *Pipeline, loader Loader, table *overrides.Table, logger *zap.Logger) *Store {
	if table == nil {
		table = overrides.Empty()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{pipeline: p, loader: loader, table: table, logger: logger}
}

// Current returns the latest snapshot, or nil before the first build
func (s *Store) Current() *Snapshot {
	return s.current.Load()
}

// Overrides returns the correction table the next build will use
func (s *Store) Overrides() *overrides.Table {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.table
}

// OnSwap registers a callback invoked with each new snapshot
func (s *Store) OnSwap(fn func(*Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onSwap = append(s.onSwap, fn)
}

// Refresh reloads every source and rebuilds. On failure the previous
// snapshot stays current.
func (s *Store) Refresh(ctx context.Context) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loader == nil {
		return nil, errors.New("store has no loader")
	}
	in, err := s.loader.Load(ctx)
	if err != nil {
		s.logger.Error("failed to load sources", zap.Error(err))
		return nil, fmt.Errorf("failed to load sources: %w", err)
	}

	snap, err := s.build(in, s.table)
	if err != nil {
		return nil, err
	}
	s.inputs = &in
	return snap, nil
}

// Correct merges manual corrections into the override table and rebuilds
// from the inputs of the last refresh
func (s *Store) Correct(ctx context.Context, manual *overrides.Table) (*Snapshot, error) {
	if err := manual.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.inputs == nil {
		return nil, ErrNoSnapshot
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	merged := s.table.Merge(manual)
	if err := merged.Validate(); err != nil {
		return nil, err
	}
	snap, err := s.build(*s.inputs, merged)
	if err != nil {
		return nil, err
	}
	s.table = merged
	return snap, nil
}

// build runs the pipeline and publishes the result; callers hold mu
func (s *Store) build(in Inputs, table *overrides.Table) (*Snapshot, error) {
	snap, err := s.pipeline.Build(in, table)
	if err != nil {
		s.logger.Error("snapshot build failed", zap.Error(err))
		return nil, err
	}

	prev := s.current.Swap(snap)
	fields := []zap.Field{zap.String("id", snap.ID)}
	if prev != nil {
		fields = append(fields, zap.String("previous", prev.ID))
	}
	s.logger.Info("snapshot swapped", fields...)

	for _, fn := range s.onSwap {
		fn(snap)
	}
	return snap, nil
}
