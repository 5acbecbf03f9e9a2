package model

import (
	"sync/atomic"
	"time"
)

// Item is the domain model for a todo entry as the remote collection stores it.
type Item struct {
	ID        int    `json:"id" yaml:"id"`
	Title     string `json:"title" yaml:"title"`
	Completed bool   `json:"completed" yaml:"completed"`
	UserID    int    `json:"userId" yaml:"userId"`
}

// NewItem is the create payload. It has no id yet.
type NewItem struct {
	Title     string `json:"title"`
	UserID    int    `json:"userId"`
	Completed bool   `json:"completed"`
}

// Patch carries the fields of an update. Nil fields are left untouched.
type Patch struct {
	Title     *string `json:"title,omitempty"`
	Completed *bool   `json:"completed,omitempty"`
}

// Apply merges the patch into it and returns the result.
func (p Patch) Apply(it Item) Item {
	if p.Title != nil {
		it.Title = *p.Title
	}
	if p.Completed != nil {
		it.Completed = *p.Completed
	}
	return it
}

// Placeholder ids are negative so they can never collide with ids handed out
// by the remote store.
var lastTempID atomic.Int64

// NewTemporaryID returns a fresh placeholder id derived from the clock.
// Successive calls always return strictly decreasing values.
func NewTemporaryID(now time.Time) int {
	candidate := -now.UnixMilli()
	for {
		prev := lastTempID.Load()
		next := candidate
		if prev != 0 && next >= prev {
			next = prev - 1
		}
		if lastTempID.CompareAndSwap(prev, next) {
			return int(next)
		}
	}
}

// IsTemporaryID reports whether id is a local placeholder.
func IsTemporaryID(id int) bool { return id < 0 }
