// Package session keeps per-session screen flags. The alarm list shows a
// loading skeleton on the first visit of a session and skips it afterwards.
package session

import (
	"context"
	"sync"
	"time"
)

// VisitStore remembers which screens a session has already shown.
type VisitStore interface {
	Visited(ctx context.Context, screen string) (bool, error)
	MarkVisited(ctx context.Context, screen string) error
}

// MemoryStore is a VisitStore that lives as long as the process.
type MemoryStore struct {
	mu      sync.Mutex
	visited map[string]struct{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{visited: make(map[string]struct{})}
}

func (s *MemoryStore) Visited(_ context.Context, screen string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.visited[screen]
	return ok, nil
}

func (s *MemoryStore) MarkVisited(_ context.Context, screen string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.visited[screen] = struct{}{}
	return nil
}

// Skeleton delays the first render of a screen within a session.
type Skeleton struct {
	store VisitStore
	delay time.Duration
}

func NewSkeleton(store VisitStore, delay time.Duration) *Skeleton {
	return &Skeleton{store: store, delay: delay}
}

// Hold blocks for the skeleton delay on the first visit of screen and marks
// it visited afterwards. Repeat visits return at once. If ctx ends during the
// delay the screen stays unvisited and ctx.Err() is returned.
func (s *Skeleton) Hold(ctx context.Context, screen string) error {
	visited, err := s.store.Visited(ctx, screen)
	if err != nil {
		return err
	}
	if visited {
		return nil
	}

	timer := time.NewTimer(s.delay)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-ctx.Done():
		return ctx.Err()
	}
	return s.store.MarkVisited(ctx, screen)
}
