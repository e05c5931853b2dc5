package store

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/sells-group/bizvalidator/internal/model"
)

// MemoryStore is the default volatile backend. State is scoped to the
// process lifetime; ids are monotonic and never reused.
type MemoryStore struct {
	mu sync.RWMutex

	validations  map[int64]model.ValidationRecord
	users        map[int64]model.User
	nextRecordID int64
	nextUserID   int64
}

// NewMemory creates an empty in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		validations:  make(map[int64]model.ValidationRecord),
		users:        make(map[int64]model.User),
		nextRecordID: 1,
		nextUserID:   1,
	}
}

func (s *MemoryStore) CreateValidation(_ context.Context, in model.ValidationInput) (*model.ValidationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := model.ValidationRecord{
		ID:             s.nextRecordID,
		BusinessIdea:   in.BusinessIdea,
		TargetRegion:   in.TargetRegion,
		Industry:       in.Industry,
		TargetAudience: in.TargetAudience,
		Budget:         in.Budget,
		Status:         model.StatusPending,
		CreatedAt:      time.Now().UTC(),
	}
	s.nextRecordID++
	s.validations[rec.ID] = rec

	out := rec
	return &out, nil
}

func (s *MemoryStore) GetValidation(_ context.Context, id int64) (*model.ValidationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.validations[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := rec
	return &out, nil
}

func (s *MemoryStore) ListValidations(_ context.Context) ([]model.ValidationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.ValidationRecord, 0, len(s.validations))
	for _, rec := range s.validations {
		out = append(out, rec)
	}
	slices.SortFunc(out, func(a, b model.ValidationRecord) int {
		return int(a.ID - b.ID)
	})
	return out, nil
}

func (s *MemoryStore) UpdateValidation(_ context.Context, id int64, upd AnalysisUpdate) (*model.ValidationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.validations[id]
	if !ok {
		return nil, ErrNotFound
	}

	result := upd.AnalysisResult
	rec.AnalysisResult = &result
	rec.Status = upd.Status
	s.validations[id] = rec

	out := rec
	return &out, nil
}

func (s *MemoryStore) CreateUser(_ context.Context, username, password string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := model.User{
		ID:       s.nextUserID,
		Username: username,
		Password: password,
	}
	s.nextUserID++
	s.users[u.ID] = u

	out := u
	return &out, nil
}

func (s *MemoryStore) GetUser(_ context.Context, id int64) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := u
	return &out, nil
}

func (s *MemoryStore) GetUserByUsername(_ context.Context, username string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Username == username {
			out := u
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) Migrate(_ context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }
