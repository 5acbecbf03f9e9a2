// Package remote talks to the todo collection endpoint.
package remote

import (
	"context"

	"github.com/Makepad-fr/tada/internal/model"
)

// Client is the capability set the reconciliation engine consumes.
type Client interface {
	FetchAll(ctx context.Context) ([]model.Item, error)
	Create(ctx context.Context, in model.NewItem) (model.Item, error)
	Patch(ctx context.Context, id int, p model.Patch) (model.Item, error)
	Delete(ctx context.Context, id int) error
}
