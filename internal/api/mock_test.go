package api

import (
	"context"
	"errors"
	"sync"

	"github.com/clipforge/clipforge/internal/render"
	"github.com/clipforge/clipforge/internal/store"
)

type mockBroker struct {
	mu       sync.Mutex
	enqueued []mockJob
	err      error
}

type mockJob struct {
	jobType string
	queue   string
	payload any
}

func (b *mockBroker) Enqueue(ctx context.Context, jobType, queue string, payload any) (string, error) {
	if b.err != nil {
		return "", b.err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.enqueued = append(b.enqueued, mockJob{jobType: jobType, queue: queue, payload: payload})
	return "job-1", nil
}

type mockStore struct {
	mu    sync.Mutex
	comps map[string]*store.Composition
}

func newMockStore() *mockStore {
	return &mockStore{comps: make(map[string]*store.Composition)}
}

func (s *mockStore) Upsert(ctx context.Context, comp *store.Composition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.comps[comp.ID] = comp
	return nil
}

func (s *mockStore) Get(ctx context.Context, id string) (*store.Composition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	comp, ok := s.comps[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return comp, nil
}

type mockProgress struct {
	event *render.ProgressEvent
}

func (p *mockProgress) LastState(ctx context.Context, compositionID string) (*render.ProgressEvent, error) {
	return p.event, nil
}

type mockJobIndex struct {
	mu   sync.Mutex
	jobs map[string]string
}

func newMockJobIndex() *mockJobIndex {
	return &mockJobIndex{jobs: make(map[string]string)}
}

func (idx *mockJobIndex) Set(ctx context.Context, jobID, compositionID string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.jobs[jobID] = compositionID
	return nil
}

func (idx *mockJobIndex) Get(ctx context.Context, jobID string) (string, bool, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	id, ok := idx.jobs[jobID]
	return id, ok, nil
}

var errBrokerDown = errors.New("broker down")
