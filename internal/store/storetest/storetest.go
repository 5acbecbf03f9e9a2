// Package storetest holds the behavior every store.Store must share.
package storetest

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/Makepad-fr/tada/internal/model"
	"github.com/Makepad-fr/tada/internal/store"
)

// Run exercises a fresh store returned by open for each subtest.
func Run(t *testing.T, open func(t *testing.T) store.Store) {
	ctx := context.Background()

	t.Run("create assigns increasing ids", func(t *testing.T) {
		s := open(t)
		a, err := s.Create(ctx, model.NewItem{Title: "a", UserID: 1})
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		b, err := s.Create(ctx, model.NewItem{Title: "b", UserID: 1})
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		if a.ID <= 0 || b.ID <= a.ID {
			t.Fatalf("ids not increasing: %d, %d", a.ID, b.ID)
		}
	})

	t.Run("list scopes by user", func(t *testing.T) {
		s := open(t)
		_, _ = s.Create(ctx, model.NewItem{Title: "mine", UserID: 1})
		_, _ = s.Create(ctx, model.NewItem{Title: "theirs", UserID: 2})
		got, err := s.List(ctx, 1)
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(got) != 1 || got[0].Title != "mine" {
			t.Fatalf("List(1) = %+v", got)
		}
		empty, err := s.List(ctx, 99)
		if err != nil || empty == nil || len(empty) != 0 {
			t.Fatalf("List(99) = %v, %v; want empty non-nil", empty, err)
		}
	})

	t.Run("patch applies only given fields", func(t *testing.T) {
		s := open(t)
		it, _ := s.Create(ctx, model.NewItem{Title: "a", UserID: 1})
		done := true
		got, err := s.Patch(ctx, it.ID, model.Patch{Completed: &done})
		if err != nil {
			t.Fatalf("Patch: %v", err)
		}
		want := model.Item{ID: it.ID, Title: "a", Completed: true, UserID: 1}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("Patch mismatch (-want +got):\n%s", diff)
		}
		list, _ := s.List(ctx, 1)
		if diff := cmp.Diff([]model.Item{want}, list); diff != "" {
			t.Fatalf("List after patch (-want +got):\n%s", diff)
		}
	})

	t.Run("missing ids", func(t *testing.T) {
		s := open(t)
		title := "x"
		if _, err := s.Patch(ctx, 404, model.Patch{Title: &title}); !errors.Is(err, store.ErrNotFound) {
			t.Fatalf("Patch(missing) = %v", err)
		}
		if err := s.Delete(ctx, 404); !errors.Is(err, store.ErrNotFound) {
			t.Fatalf("Delete(missing) = %v", err)
		}
	})

	t.Run("delete removes", func(t *testing.T) {
		s := open(t)
		a, _ := s.Create(ctx, model.NewItem{Title: "a", UserID: 1})
		b, _ := s.Create(ctx, model.NewItem{Title: "b", UserID: 1})
		if err := s.Delete(ctx, a.ID); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		list, _ := s.List(ctx, 1)
		if len(list) != 1 || list[0].ID != b.ID {
			t.Fatalf("List after delete = %+v", list)
		}
	})
}
