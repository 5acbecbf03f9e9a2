// Package store persists todos for the development server.
package store

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/Makepad-fr/tada/internal/model"
)

var ErrNotFound = errors.New("todo not found")

// Store is the server-side persistence contract. Ids are assigned by the store.
type Store interface {
	List(ctx context.Context, userID int) ([]model.Item, error)
	Create(ctx context.Context, in model.NewItem) (model.Item, error)
	Patch(ctx context.Context, id int, p model.Patch) (model.Item, error)
	Delete(ctx context.Context, id int) error
	Close() error
}

// Memory keeps todos in a map. Zero value is not usable; call NewMemory.
type Memory struct {
	mu     sync.Mutex
	nextID int
	items  map[int]model.Item
}

func NewMemory() *Memory { return &Memory{nextID: 1, items: map[int]model.Item{}} }

func (m *Memory) List(_ context.Context, userID int) ([]model.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return FilterUser(m.items, userID), nil
}

func (m *Memory) Create(_ context.Context, in model.NewItem) (model.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it := model.Item{ID: m.nextID, Title: in.Title, Completed: in.Completed, UserID: in.UserID}
	m.items[it.ID] = it
	m.nextID++
	return it, nil
}

func (m *Memory) Patch(_ context.Context, id int, p model.Patch) (model.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[id]
	if !ok {
		return model.Item{}, ErrNotFound
	}
	it = p.Apply(it)
	m.items[id] = it
	return it, nil
}

func (m *Memory) Delete(_ context.Context, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return ErrNotFound
	}
	delete(m.items, id)
	return nil
}

func (m *Memory) Close() error { return nil }

// FilterUser returns userID's items sorted by id.
func FilterUser(items map[int]model.Item, userID int) []model.Item {
	out := make([]model.Item, 0)
	for _, it := range items {
		if it.UserID == userID {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
