// Package collection holds the ordered in-memory list of items for a session.
package collection

import (
	"sync"

	"github.com/Makepad-fr/tada/internal/model"
)

// Collection is safe for concurrent use. Every mutation touches at most one
// slot, found by id; a missing id turns the mutation into a no-op.
type Collection struct {
	mu    sync.RWMutex
	items []model.Item
}

func New(items ...model.Item) *Collection {
	c := &Collection{}
	c.ReplaceAll(items)
	return c
}

// List returns a copy of the items in order.
func (c *Collection) List() []model.Item {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]model.Item, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Collection) Get(id int) (model.Item, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if i := c.index(id); i >= 0 {
		return c.items[i], true
	}
	return model.Item{}, false
}

func (c *Collection) ReplaceAll(items []model.Item) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make([]model.Item, len(items))
	copy(c.items, items)
}

// Insert appends it. An item whose id is already present replaces that slot
// instead, so an id never appears twice.
func (c *Collection) Insert(it model.Item) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.index(it.ID); i >= 0 {
		c.items[i] = it
		return
	}
	c.items = append(c.items, it)
}

// UpdateByID applies fn to the item with id and reports whether it existed.
func (c *Collection) UpdateByID(id int, fn func(model.Item) model.Item) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.index(id)
	if i < 0 {
		return false
	}
	c.items[i] = fn(c.items[i])
	return true
}

// ReplaceByID swaps the item with id for it, keeping its position.
// If it.ID already lives in another slot that slot is dropped.
func (c *Collection) ReplaceByID(id int, it model.Item) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.index(id)
	if i < 0 {
		return false
	}
	if id != it.ID {
		if j := c.index(it.ID); j >= 0 {
			c.items = append(c.items[:j], c.items[j+1:]...)
			if j < i {
				i--
			}
		}
	}
	c.items[i] = it
	return true
}

// RemoveByID deletes the item with id and reports whether it existed.
func (c *Collection) RemoveByID(id int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.index(id)
	if i < 0 {
		return false
	}
	c.items = append(c.items[:i], c.items[i+1:]...)
	return true
}

// RemoveIDs deletes every item whose id is in ids and returns how many went.
func (c *Collection) RemoveIDs(ids map[int]bool) int {
	if len(ids) == 0 {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	kept := c.items[:0]
	removed := 0
	for _, it := range c.items {
		if ids[it.ID] {
			removed++
			continue
		}
		kept = append(kept, it)
	}
	c.items = kept
	return removed
}

// Counts returns the number of active and completed items. Placeholders for
// outstanding creates are not counted.
func (c *Collection) Counts() (active, completed int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, it := range c.items {
		switch {
		case model.IsTemporaryID(it.ID):
		case it.Completed:
			completed++
		default:
			active++
		}
	}
	return
}

// AllCompleted is true when there is at least one real item and none is active.
func (c *Collection) AllCompleted() bool {
	active, completed := c.Counts()
	return active == 0 && completed > 0
}

func (c *Collection) index(id int) int {
	for i, it := range c.items {
		if it.ID == id {
			return i
		}
	}
	return -1
}
