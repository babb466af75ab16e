package service

import (
	"context"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/cleancity/waste-collection/internal/model"
	"github.com/cleancity/waste-collection/internal/queue"
	"github.com/cleancity/waste-collection/internal/repository"
)

// memTaskStore is an in-memory stand-in for the task repository. Listings
// return newest-created-first, matching the store's sort contract.
type memTaskStore struct {
	mu    sync.Mutex
	tasks []model.Task
}

func newMemTaskStore() *memTaskStore { return &memTaskStore{} }

func (m *memTaskStore) Create(_ context.Context, t model.Task) (model.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t.ID = primitive.NewObjectID()
	m.tasks = append(m.tasks, t)
	return t, nil
}

func (m *memTaskStore) GetByID(_ context.Context, id string) (model.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tasks {
		if t.ID.Hex() == id {
			return t, nil
		}
	}
	return model.Task{}, repository.ErrNotFound
}

func (m *memTaskStore) Save(_ context.Context, t model.Task) (model.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.tasks {
		if m.tasks[i].ID == t.ID {
			m.tasks[i] = t
			return t, nil
		}
	}
	return model.Task{}, repository.ErrNotFound
}

func (m *memTaskStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.tasks {
		if m.tasks[i].ID.Hex() == id {
			m.tasks = append(m.tasks[:i], m.tasks[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (m *memTaskStore) ListByCitizen(_ context.Context, citizenID string) ([]model.Task, error) {
	return m.filter(func(t model.Task) bool { return t.CitizenID == citizenID }), nil
}

func (m *memTaskStore) ListForCollector(_ context.Context, collectorID string) ([]model.Task, error) {
	return m.filter(func(t model.Task) bool {
		return t.Status == model.StatusPending || t.CollectorID == collectorID
	}), nil
}

func (m *memTaskStore) ListAll(_ context.Context) ([]model.Task, error) {
	return m.filter(func(model.Task) bool { return true }), nil
}

func (m *memTaskStore) filter(keep func(model.Task) bool) []model.Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Task, 0, len(m.tasks))
	for i := len(m.tasks) - 1; i >= 0; i-- { // newest first
		if keep(m.tasks[i]) {
			out = append(out, m.tasks[i])
		}
	}
	return out
}

// memUserStore is an in-memory stand-in for the user repository slices the
// services consume.
type memUserStore struct {
	mu    sync.Mutex
	users map[string]*model.User // keyed by ObjectID hex
}

func newMemUserStore() *memUserStore {
	return &memUserStore{users: map[string]*model.User{}}
}

func (m *memUserStore) add(name, role string, points int) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := primitive.NewObjectID()
	m.users[id.Hex()] = &model.User{ID: id, Name: name, Role: role, Points: points}
	return id.Hex()
}

func (m *memUserStore) GetByID(_ context.Context, id string) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		return *u, nil
	}
	return model.User{}, repository.ErrNotFound
}

func (m *memUserStore) AddPoints(_ context.Context, id string, delta int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.Points += delta
	return nil
}

func (m *memUserStore) points(id string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		return u.Points
	}
	return -1
}

// memEventSink records published task status events.
type memEventSink struct {
	mu     sync.Mutex
	events []queue.TaskStatusEvent
}

func (m *memEventSink) PublishTaskStatus(_ context.Context, ev queue.TaskStatusEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
	return nil
}

func (m *memEventSink) all() []queue.TaskStatusEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]queue.TaskStatusEvent(nil), m.events...)
}
