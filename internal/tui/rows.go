package tui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Makepad-fr/tada/internal/model"
	"github.com/Makepad-fr/tada/internal/ui"
)

// row adapts a todo to bubbles/list.Item.
type row struct {
	item    model.Item
	busy    bool
	editing bool
}

func (r row) FilterValue() string { return r.item.Title }

// rowDelegate renders one todo per line with a loader on busy rows.
type rowDelegate struct {
	spin *spinner.Model
}

func (d rowDelegate) Height() int                             { return 1 }
func (d rowDelegate) Spacing() int                            { return 0 }
func (d rowDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d rowDelegate) Render(w io.Writer, m list.Model, index int, it list.Item) {
	r, ok := it.(row)
	if !ok {
		return
	}
	t := ui.Current()

	box := t.Muted.Render(t.BoxUnchecked)
	title := r.item.Title
	// A row with a request in flight is never drawn as completed.
	if r.item.Completed && !r.busy {
		box = t.Success.Render(t.BoxChecked)
		title = t.Done.Render(title)
	}
	if r.editing {
		title = t.Accent.Render(title + " ✎")
	}

	suffix := ""
	if r.busy {
		suffix = " " + d.spin.View()
	}
	prefix := "  "
	if index == m.Index() {
		prefix = t.Selected.Render(">") + " "
	}
	fmt.Fprint(w, prefix+box+" "+title+suffix)
}
