package model

import (
	"fmt"
	"strings"
)

// Filter selects which items are displayed.
type Filter int

const (
	FilterAll Filter = iota
	FilterActive
	FilterCompleted
)

// Filters lists every filter in display order.
var Filters = []Filter{FilterAll, FilterActive, FilterCompleted}

func (f Filter) String() string {
	switch f {
	case FilterActive:
		return "Active"
	case FilterCompleted:
		return "Completed"
	default:
		return "All"
	}
}

// ParseFilter accepts "all", "active" or "completed" in any case.
func ParseFilter(s string) (Filter, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return FilterAll, nil
	case "active":
		return FilterActive, nil
	case "completed", "done":
		return FilterCompleted, nil
	}
	return FilterAll, fmt.Errorf("unknown filter %q (want all|active|completed)", s)
}

// Next cycles to the following filter.
func (f Filter) Next() Filter { return Filters[(int(f)+1)%len(Filters)] }

// Derive returns the items matching f in their original order. items is never modified.
func Derive(f Filter, items []Item) []Item {
	out := make([]Item, 0, len(items))
	for _, it := range items {
		switch f {
		case FilterActive:
			if it.Completed {
				continue
			}
		case FilterCompleted:
			if !it.Completed {
				continue
			}
		}
		out = append(out, it)
	}
	return out
}
