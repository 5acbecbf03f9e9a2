// Package reconcile applies optimistic mutations to the local collection and
// reconciles them with the remote store's responses.
package reconcile

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Makepad-fr/tada/internal/collection"
	"github.com/Makepad-fr/tada/internal/model"
	"github.com/Makepad-fr/tada/internal/notify"
	"github.com/Makepad-fr/tada/internal/remote"
)

// Engine mediates every mutation between the collection and the remote client.
// It is safe for concurrent use; each response only touches its own item.
type Engine struct {
	client remote.Client
	userID int
	items  *collection.Collection
	banner *notify.Banner
	log    *slog.Logger
	now    func() time.Time

	mu        sync.Mutex
	loadingID int
	loading   bool
	deleting  map[int]bool
	busy      map[int]int
}

type Option func(*Engine)

func WithLogger(l *slog.Logger) Option { return func(e *Engine) { e.log = l } }

func WithBanner(b *notify.Banner) Option { return func(e *Engine) { e.banner = b } }

func WithClock(now func() time.Time) Option { return func(e *Engine) { e.now = now } }

// New returns an engine for userID's collection. userID must be positive.
func New(client remote.Client, userID int, opts ...Option) (*Engine, error) {
	if userID <= 0 {
		return nil, ErrNoSession
	}
	e := &Engine{
		client:   client,
		userID:   userID,
		items:    collection.New(),
		banner:   notify.NewBanner(),
		log:      slog.Default(),
		now:      time.Now,
		deleting: map[int]bool{},
		busy:     map[int]int{},
	}
	for _, o := range opts {
		o(e)
	}
	return e, nil
}

func (e *Engine) UserID() int            { return e.userID }
func (e *Engine) Banner() *notify.Banner { return e.banner }
func (e *Engine) Items() []model.Item    { return e.items.List() }

// Visible derives the display list for f.
func (e *Engine) Visible(f model.Filter) []model.Item { return model.Derive(f, e.items.List()) }

func (e *Engine) Counts() (active, completed int) { return e.items.Counts() }
func (e *Engine) AllCompleted() bool             { return e.items.AllCompleted() }

// LoadingID returns the single item whose create or update is outstanding.
func (e *Engine) LoadingID() (int, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loadingID, e.loading
}

func (e *Engine) IsDeleting(id int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.deleting[id]
}

// IsBusy reports whether any request for id is in flight.
func (e *Engine) IsBusy(id int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return (e.loading && e.loadingID == id) || e.deleting[id] || e.busy[id] > 0
}

// Load replaces the collection with the remote one. On failure it is left empty.
func (e *Engine) Load(ctx context.Context) error {
	items, err := e.client.FetchAll(ctx)
	if err != nil {
		e.items.ReplaceAll(nil)
		return e.raise(&Error{Kind: KindLoad, Err: err})
	}
	e.items.ReplaceAll(items)
	e.log.Info("todos loaded", "count", len(items), "user_id", e.userID)
	return nil
}

// Create adds title optimistically under a placeholder id, then swaps in the
// server's item or drops the placeholder.
func (e *Engine) Create(ctx context.Context, title string) (model.Item, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return model.Item{}, e.raise(&Error{Kind: KindValidation, Err: errEmptyTitle})
	}
	e.banner.Dismiss()

	tempID := model.NewTemporaryID(e.now())
	e.items.Insert(model.Item{ID: tempID, Title: title, Completed: true, UserID: e.userID})
	e.setLoading(tempID)

	created, err := e.client.Create(ctx, model.NewItem{Title: title, UserID: e.userID})
	if err != nil {
		e.items.RemoveByID(tempID)
		e.clearLoading(tempID)
		return model.Item{}, e.raise(&Error{Kind: KindCreate, Err: err})
	}

	if !e.items.ReplaceByID(tempID, created) {
		// A reload replaced the collection meanwhile; the server has the item now.
		e.log.Info("placeholder gone before create completed", "temp_id", tempID, "id", created.ID)
		e.items.Insert(created)
	}
	e.clearLoading(tempID)
	e.log.Info("todo created", "id", created.ID)
	return created, nil
}

// Update sends title and completed for id and merges the response.
// Nothing changes locally until the server confirms.
func (e *Engine) Update(ctx context.Context, id int, title string, completed bool) (model.Item, error) {
	if model.IsTemporaryID(id) {
		return model.Item{}, ErrPending
	}
	e.setLoading(id)
	it, err := e.patch(ctx, id, title, completed)
	e.clearLoading(id)
	if err != nil {
		return model.Item{}, e.raise(err)
	}
	return it, nil
}

// Toggle flips id's completion flag.
func (e *Engine) Toggle(ctx context.Context, id int) (model.Item, error) {
	it, ok := e.items.Get(id)
	if !ok {
		return model.Item{}, nil
	}
	return e.Update(ctx, id, it.Title, !it.Completed)
}

func (e *Engine) patch(ctx context.Context, id int, title string, completed bool) (model.Item, error) {
	resp, err := e.client.Patch(ctx, id, model.Patch{Title: &title, Completed: &completed})
	if err != nil {
		return model.Item{}, &Error{Kind: KindUpdate, ID: id, Err: err}
	}
	var merged model.Item
	found := e.items.UpdateByID(id, func(cur model.Item) model.Item {
		merged = mergeResponse(cur, resp)
		return merged
	})
	if !found {
		e.log.Debug("update response for missing todo", "id", id)
		return resp, nil
	}
	return merged, nil
}

// mergeResponse overlays the fields the server returned on cur.
func mergeResponse(cur, resp model.Item) model.Item {
	if resp.Title != "" {
		cur.Title = resp.Title
	}
	cur.Completed = resp.Completed
	if resp.UserID != 0 {
		cur.UserID = resp.UserID
	}
	return cur
}

// DeleteOne removes id once the server confirms. An unknown id is a no-op.
func (e *Engine) DeleteOne(ctx context.Context, id int) error {
	if model.IsTemporaryID(id) {
		return ErrPending
	}
	if _, ok := e.items.Get(id); !ok {
		e.log.Debug("delete of missing todo ignored", "id", id)
		return nil
	}
	if err := e.deleteRemote(ctx, id); err != nil {
		return e.raise(&Error{Kind: KindDelete, ID: id, Err: err})
	}
	return nil
}

func (e *Engine) deleteRemote(ctx context.Context, id int) error {
	e.setDeleting(id, true)
	err := e.client.Delete(ctx, id)
	e.setDeleting(id, false)
	if err != nil {
		return err
	}
	e.items.RemoveByID(id)
	return nil
}

// ClearCompleted deletes every item that is completed right now, all at once.
// Items whose delete succeeded are removed; any failures are reported once.
func (e *Engine) ClearCompleted(ctx context.Context) error {
	var targets []model.Item
	for _, it := range e.items.List() {
		if it.Completed && !model.IsTemporaryID(it.ID) {
			targets = append(targets, it)
		}
	}
	if len(targets) == 0 {
		return nil
	}

	errs := make([]error, len(targets))
	var g errgroup.Group
	for i, it := range targets {
		g.Go(func() error {
			e.setDeleting(it.ID, true)
			errs[i] = e.client.Delete(ctx, it.ID)
			e.setDeleting(it.ID, false)
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	gone := make(map[int]bool, len(targets))
	for i, err := range errs {
		if err != nil {
			failed++
			e.log.Warn("clear completed: delete failed", "id", targets[i].ID, "error", err)
			continue
		}
		gone[targets[i].ID] = true
	}
	e.items.RemoveIDs(gone)
	e.log.Info("clear completed", "requested", len(targets), "failed", failed)
	if failed > 0 {
		return e.raise(&Error{Kind: KindDelete, Count: failed, Err: errors.Join(errs...)})
	}
	return nil
}

// ToggleAll completes every active item, or re-opens every item when all of
// them are already completed.
func (e *Engine) ToggleAll(ctx context.Context) error {
	items := e.items.List()
	target := !e.items.AllCompleted()

	var todo []model.Item
	for _, it := range items {
		if model.IsTemporaryID(it.ID) || it.Completed == target {
			continue
		}
		todo = append(todo, it)
	}
	if len(todo) == 0 {
		return nil
	}

	errs := make([]error, len(todo))
	var g errgroup.Group
	for i, it := range todo {
		g.Go(func() error {
			e.setBusy(it.ID, true)
			defer e.setBusy(it.ID, false)
			_, errs[i] = e.patch(ctx, it.ID, it.Title, target)
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for i, err := range errs {
		if err != nil {
			failed++
			e.log.Warn("toggle all: update failed", "id", todo[i].ID, "error", err)
		}
	}
	e.log.Info("toggle all", "completed", target, "requested", len(todo), "failed", failed)
	if failed > 0 {
		return e.raise(&Error{Kind: KindUpdate, Count: failed, Err: errors.Join(errs...)})
	}
	return nil
}

func (e *Engine) raise(err error) error {
	e.banner.Raise(Message(err))
	var re *Error
	if errors.As(err, &re) {
		e.log.Warn("operation failed", "kind", re.Kind.String(), "id", re.ID, "count", re.Count, "error", re.Err)
	} else {
		e.log.Warn("operation failed", "error", err)
	}
	return err
}

func (e *Engine) setLoading(id int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.loadingID, e.loading = id, true
}

// clearLoading only clears the slot if id still owns it.
func (e *Engine) clearLoading(id int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.loading && e.loadingID == id {
		e.loadingID, e.loading = 0, false
	}
}

func (e *Engine) setDeleting(id int, on bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if on {
		e.deleting[id] = true
	} else {
		delete(e.deleting, id)
	}
}

func (e *Engine) setBusy(id int, on bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if on {
		e.busy[id]++
		return
	}
	if e.busy[id]--; e.busy[id] <= 0 {
		delete(e.busy, id)
	}
}
