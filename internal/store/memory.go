package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/sells-group/forest-carbon/internal/model"
)

// MemoryStore keeps runs in process memory. It backs the "none" driver and
// tests.
type MemoryStore struct {
	mu   sync.RWMutex
	runs map[string]*model.Run
	now  func() time.Time
}

// NewMemory returns an empty MemoryStore.
func NewMemory() *MemoryStore {
	return &MemoryStore{runs: make(map[string]*model.Run), now: time.Now}
}

func (s *MemoryStore) CreateRun(_ context.Context, req model.Request, source string) (*model.Run, error) {
	now := s.now().UTC()
	r := &model.Run{
		ID:        uuid.New().String(),
		Source:    source,
		Request:   req,
		Status:    model.RunStatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[r.ID] = r
	cp := *r
	return &cp, nil
}

func (s *MemoryStore) update(runID string, fn func(r *model.Run)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.runs[runID]
	if !ok {
		return eris.Wrapf(ErrNotFound, "memory: %s", runID)
	}
	fn(r)
	r.UpdatedAt = s.now().UTC()
	return nil
}

func (s *MemoryStore) UpdateRunStatus(_ context.Context, runID string, status model.RunStatus) error {
	return s.update(runID, func(r *model.Run) { r.Status = status })
}

func (s *MemoryStore) CompleteRun(_ context.Context, runID string, result *model.Result) error {
	return s.update(runID, func(r *model.Run) {
		r.Status = model.RunStatusComplete
		r.Result = result
	})
}

func (s *MemoryStore) FailRun(_ context.Context, runID string, kind model.FailureKind, reason string) error {
	return s.update(runID, func(r *model.Run) {
		r.Status = model.RunStatusFailed
		r.FailureKind = kind
		r.Error = reason
	})
}

func (s *MemoryStore) GetRun(_ context.Context, runID string) (*model.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.runs[runID]
	if !ok {
		return nil, eris.Wrapf(ErrNotFound, "memory: %s", runID)
	}
	cp := *r
	return &cp, nil
}

func (s *MemoryStore) ListRuns(_ context.Context, filter RunFilter) ([]model.Run, error) {
	s.mu.RLock()
	var runs []model.Run
	for _, r := range s.runs {
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		if filter.Source != "" && r.Source != filter.Source {
			continue
		}
		if filter.Tier != "" && (r.Result == nil || r.Result.Tier != filter.Tier) {
			continue
		}
		if !filter.CreatedAfter.IsZero() && r.CreatedAt.Before(filter.CreatedAfter) {
			continue
		}
		runs = append(runs, *r)
	}
	s.mu.RUnlock()

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].CreatedAt.After(runs[j].CreatedAt)
	})

	offset := max(filter.Offset, 0)
	if offset >= len(runs) {
		return nil, nil
	}
	runs = runs[offset:]
	if n := filter.limit(); len(runs) > n {
		runs = runs[:n]
	}
	return runs, nil
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

func (s *MemoryStore) Migrate(context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }
