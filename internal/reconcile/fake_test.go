package reconcile

import (
	"context"
	"errors"
	"sync"

	"github.com/Makepad-fr/tada/internal/model"
)

var errBoom = errors.New("boom")

// fakeClient implements remote.Client with overridable funcs and records calls.
type fakeClient struct {
	FetchAllFunc func(ctx context.Context) ([]model.Item, error)
	CreateFunc   func(ctx context.Context, in model.NewItem) (model.Item, error)
	PatchFunc    func(ctx context.Context, id int, p model.Patch) (model.Item, error)
	DeleteFunc   func(ctx context.Context, id int) error

	mu      sync.Mutex
	creates []model.NewItem
	patches map[int]model.Patch
	deletes []int
}

func (f *fakeClient) FetchAll(ctx context.Context) ([]model.Item, error) {
	if f.FetchAllFunc != nil {
		return f.FetchAllFunc(ctx)
	}
	return nil, nil
}

func (f *fakeClient) Create(ctx context.Context, in model.NewItem) (model.Item, error) {
	f.mu.Lock()
	f.creates = append(f.creates, in)
	f.mu.Unlock()
	if f.CreateFunc != nil {
		return f.CreateFunc(ctx, in)
	}
	return model.Item{ID: 1, Title: in.Title, UserID: in.UserID}, nil
}

func (f *fakeClient) Patch(ctx context.Context, id int, p model.Patch) (model.Item, error) {
	f.mu.Lock()
	if f.patches == nil {
		f.patches = map[int]model.Patch{}
	}
	f.patches[id] = p
	f.mu.Unlock()
	if f.PatchFunc != nil {
		return f.PatchFunc(ctx, id, p)
	}
	return p.Apply(model.Item{ID: id}), nil
}

func (f *fakeClient) Delete(ctx context.Context, id int) error {
	f.mu.Lock()
	f.deletes = append(f.deletes, id)
	f.mu.Unlock()
	if f.DeleteFunc != nil {
		return f.DeleteFunc(ctx, id)
	}
	return nil
}

func (f *fakeClient) calls() (creates, patches, deletes int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.creates), len(f.patches), len(f.deletes)
}

// echoPatch answers a patch by applying it to the item the test seeded.
func echoPatch(seed []model.Item) func(context.Context, int, model.Patch) (model.Item, error) {
	byID := map[int]model.Item{}
	for _, it := range seed {
		byID[it.ID] = it
	}
	var mu sync.Mutex
	return func(_ context.Context, id int, p model.Patch) (model.Item, error) {
		mu.Lock()
		defer mu.Unlock()
		return p.Apply(byID[id]), nil
	}
}
