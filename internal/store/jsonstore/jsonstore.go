package jsonstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/Makepad-fr/tada/internal/model"
	"github.com/Makepad-fr/tada/internal/store"
)

// JSON-backed storage. Single file, human-readable, portable.
// Every operation is a locked read-modify-write so several server processes
// can share one file.

const (
	DefaultFileName = "todos.json"
	lockRetry       = 20 * time.Millisecond
)

type fileData struct {
	NextID int          `json:"next_id"`
	Items  []model.Item `json:"items"`
}

type Store struct {
	path string
	lock *flock.Flock
}

// Open uses path (created on first write). Its directory must be writable.
func Open(path string) (*Store, error) {
	if path == "" {
		path = DefaultFileName
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir: %w", err)
	}
	return &Store{path: path, lock: flock.New(path + ".lock")}, nil
}

func (s *Store) load() (*fileData, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &fileData{NextID: 1}, nil
		}
		return nil, fmt.Errorf("read file: %w", err)
	}
	var d fileData
	if err := json.Unmarshal(b, &d); err != nil {
		return nil, fmt.Errorf("json unmarshal: %w", err)
	}
	if d.NextID < 1 {
		d.NextID = 1
	}
	return &d, nil
}

func (s *Store) save(d *fileData) error {
	b, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}

// with runs fn under the file lock; fn's changes are saved when write is set.
func (s *Store) with(ctx context.Context, write bool, fn func(*fileData) error) error {
	locked, err := s.lock.TryLockContext(ctx, lockRetry)
	if err != nil {
		return fmt.Errorf("lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("lock: %s is busy", s.path)
	}
	defer func() { _ = s.lock.Unlock() }()

	d, err := s.load()
	if err != nil {
		return err
	}
	if err := fn(d); err != nil {
		return err
	}
	if !write {
		return nil
	}
	return s.save(d)
}

func (s *Store) List(ctx context.Context, userID int) ([]model.Item, error) {
	var out []model.Item
	err := s.with(ctx, false, func(d *fileData) error {
		byID := make(map[int]model.Item, len(d.Items))
		for _, it := range d.Items {
			byID[it.ID] = it
		}
		out = store.FilterUser(byID, userID)
		return nil
	})
	return out, err
}

func (s *Store) Create(ctx context.Context, in model.NewItem) (model.Item, error) {
	var it model.Item
	err := s.with(ctx, true, func(d *fileData) error {
		it = model.Item{ID: d.NextID, Title: in.Title, Completed: in.Completed, UserID: in.UserID}
		d.NextID++
		d.Items = append(d.Items, it)
		return nil
	})
	return it, err
}

func (s *Store) Patch(ctx context.Context, id int, p model.Patch) (model.Item, error) {
	var it model.Item
	err := s.with(ctx, true, func(d *fileData) error {
		for i := range d.Items {
			if d.Items[i].ID == id {
				d.Items[i] = p.Apply(d.Items[i])
				it = d.Items[i]
				return nil
			}
		}
		return store.ErrNotFound
	})
	return it, err
}

func (s *Store) Delete(ctx context.Context, id int) error {
	return s.with(ctx, true, func(d *fileData) error {
		for i := range d.Items {
			if d.Items[i].ID == id {
				d.Items = append(d.Items[:i], d.Items[i+1:]...)
				return nil
			}
		}
		return store.ErrNotFound
	})
}

func (s *Store) Close() error { return s.lock.Close() }
