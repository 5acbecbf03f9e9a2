package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"github.com/Makepad-fr/tada/internal/model"
	"github.com/Makepad-fr/tada/internal/store"
)

// Store keeps todos in a single SQLite table.
type Store struct {
	db *sql.DB
}

// Open creates the database file and schema if needed. ":memory:" works for tests.
func Open(path string) (*Store, error) {
	if path == "" {
		path = "tada.db"
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS todos (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		title TEXT NOT NULL,
		completed INTEGER NOT NULL DEFAULT 0
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create todos table: %w", err)
	}
	if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS todos_user ON todos(user_id)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create index: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) List(ctx context.Context, userID int) ([]model.Item, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, title, completed FROM todos WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("select todos: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make([]model.Item, 0)
	for rows.Next() {
		it, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (s *Store) Create(ctx context.Context, in model.NewItem) (model.Item, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO todos (user_id, title, completed) VALUES (?, ?, ?)`,
		in.UserID, in.Title, in.Completed)
	if err != nil {
		return model.Item{}, fmt.Errorf("insert todo: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Item{}, fmt.Errorf("last insert id: %w", err)
	}
	return model.Item{ID: int(id), Title: in.Title, Completed: in.Completed, UserID: in.UserID}, nil
}

func (s *Store) Patch(ctx context.Context, id int, p model.Patch) (model.Item, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Item{}, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	it, err := scan(tx.QueryRowContext(ctx,
		`SELECT id, user_id, title, completed FROM todos WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Item{}, store.ErrNotFound
	}
	if err != nil {
		return model.Item{}, err
	}
	it = p.Apply(it)
	if _, err := tx.ExecContext(ctx,
		`UPDATE todos SET title = ?, completed = ? WHERE id = ?`, it.Title, it.Completed, id); err != nil {
		return model.Item{}, fmt.Errorf("update todo: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return model.Item{}, fmt.Errorf("commit: %w", err)
	}
	return it, nil
}

func (s *Store) Delete(ctx context.Context, id int) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM todos WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete todo: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) Close() error { return s.db.Close() }

type scanner interface{ Scan(dest ...any) error }

func scan(r scanner) (model.Item, error) {
	var it model.Item
	var completed int
	if err := r.Scan(&it.ID, &it.UserID, &it.Title, &completed); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return it, err
		}
		return it, fmt.Errorf("scan: %w", err)
	}
	it.Completed = completed != 0
	return it, nil
}
