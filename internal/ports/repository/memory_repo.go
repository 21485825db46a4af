package repository

import (
	"context"
	"sort"
	"sync"

	"attendance.service/internal/core/model"
)

// MemoryRepository is an in-memory Repository for tests and local runs.
// Setting Err makes every call fail with a store error.
type MemoryRepository struct {
	mu       sync.RWMutex
	records  map[string]memoryRecord
	rates    *model.RateTable
	admin    *model.AdminSettings
	users    map[string]model.User
	Err      error
	putCalls int
}

type memoryRecord struct {
	events  []model.AttendanceEvent
	version int64
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		records: make(map[string]memoryRecord),
		users:   make(map[string]model.User),
	}
}

func (m *MemoryRepository) fail(op string) error {
	if m.Err != nil {
		return model.StoreError(op, m.Err)
	}
	return nil
}

func (m *MemoryRepository) GetEvents(_ context.Context, personID string) ([]model.AttendanceEvent, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.fail("get events"); err != nil {
		return nil, 0, err
	}

	rec := m.records[personID]
	out := make([]model.AttendanceEvent, len(rec.events))
	copy(out, rec.events)
	return out, rec.version, nil
}

func (m *MemoryRepository) PutEvents(_ context.Context, personID string, events []model.AttendanceEvent, expectedVersion int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("put events"); err != nil {
		return 0, err
	}

	rec := m.records[personID]
	if rec.version != expectedVersion {
		return 0, model.ErrConcurrentModification
	}

	stored := make([]model.AttendanceEvent, len(events))
	copy(stored, events)
	m.records[personID] = memoryRecord{events: stored, version: rec.version + 1}
	m.putCalls++
	return rec.version + 1, nil
}

// PutCalls counts successful event writes.
func (m *MemoryRepository) PutCalls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.putCalls
}

func (m *MemoryRepository) GetRates(_ context.Context) (model.RateTable, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.fail("get rates"); err != nil {
		return model.RateTable{}, err
	}
	if m.rates == nil {
		return model.RateTable{}, model.ErrNotFound
	}
	return *m.rates, nil
}

func (m *MemoryRepository) PutRates(_ context.Context, rates model.RateTable) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("put rates"); err != nil {
		return err
	}
	m.rates = &rates
	return nil
}

func (m *MemoryRepository) GetAdminSettings(_ context.Context) (model.AdminSettings, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.fail("get admin settings"); err != nil {
		return model.AdminSettings{}, err
	}
	if m.admin == nil {
		return model.AdminSettings{}, model.ErrNotFound
	}
	return *m.admin, nil
}

func (m *MemoryRepository) PutAdminSettings(_ context.Context, settings model.AdminSettings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("put admin settings"); err != nil {
		return err
	}
	m.admin = &settings
	return nil
}

func (m *MemoryRepository) ListUsers(_ context.Context) ([]model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.fail("list users"); err != nil {
		return nil, err
	}

	users := make([]model.User, 0, len(m.users))
	for _, u := range m.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].Name != users[j].Name {
			return users[i].Name < users[j].Name
		}
		return users[i].ID < users[j].ID
	})
	return users, nil
}

func (m *MemoryRepository) GetUser(_ context.Context, id string) (model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.fail("get user"); err != nil {
		return model.User{}, err
	}
	u, ok := m.users[id]
	if !ok {
		return model.User{}, model.ErrNotFound
	}
	return u, nil
}

func (m *MemoryRepository) SaveUser(_ context.Context, user model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("save user"); err != nil {
		return err
	}
	m.users[user.ID] = user
	return nil
}

func (m *MemoryRepository) DeleteUser(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("delete user"); err != nil {
		return false, err
	}
	_, ok := m.users[id]
	delete(m.users, id)
	return ok, nil
}
