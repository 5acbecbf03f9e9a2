// Package editor models inline title editing for a single item.
package editor

import (
	"errors"
	"strings"
)

// State is the editor's current phase.
type State int

const (
	Viewing State = iota
	Editing
	Saving
)

func (s State) String() string {
	switch s {
	case Editing:
		return "editing"
	case Saving:
		return "saving"
	default:
		return "viewing"
	}
}

// ActionKind tells the caller what a submit should trigger.
type ActionKind int

const (
	ActionNone ActionKind = iota
	ActionSave
	ActionDelete
)

// Action is the result of Submit.
type Action struct {
	Kind  ActionKind
	Title string // trimmed title for ActionSave
}

var ErrNotEditing = errors.New("editor: not editing")

// Editor is the per-item state machine:
//
//	Viewing -Begin-> Editing -Submit-> Saving -Saved-> Viewing
//	                   ^  |                   -Failed-> Editing
//	                   |  +-Cancel-> Viewing
//
// An empty submitted title asks for deletion rather than failing validation.
type Editor struct {
	ItemID   int
	state    State
	original string
	draft    string
	err      error
}

func New(itemID int) *Editor { return &Editor{ItemID: itemID} }

func (e *Editor) State() State  { return e.state }
func (e *Editor) Draft() string { return e.draft }
func (e *Editor) Err() error    { return e.err }

// Active is true while editing or saving.
func (e *Editor) Active() bool { return e.state != Viewing }

// Begin opens edit mode with title as both the draft and the revert point.
func (e *Editor) Begin(title string) {
	if e.state == Saving {
		return
	}
	e.state = Editing
	e.original = title
	e.draft = title
	e.err = nil
}

func (e *Editor) SetDraft(s string) error {
	if e.state != Editing {
		return ErrNotEditing
	}
	e.draft = s
	return nil
}

// Cancel discards the draft and returns to Viewing.
func (e *Editor) Cancel() {
	if e.state != Editing {
		return
	}
	e.draft = e.original
	e.state = Viewing
	e.err = nil
}

// Submit ends editing. Submitting while a save is outstanding is ignored.
func (e *Editor) Submit() Action {
	if e.state != Editing {
		return Action{Kind: ActionNone}
	}
	title := strings.TrimSpace(e.draft)
	switch {
	case title == "":
		e.state = Viewing
		return Action{Kind: ActionDelete}
	case title == e.original:
		e.state = Viewing
		return Action{Kind: ActionNone}
	}
	e.state = Saving
	e.draft = title
	return Action{Kind: ActionSave, Title: title}
}

// Saved confirms the outstanding save.
func (e *Editor) Saved() {
	if e.state != Saving {
		return
	}
	e.original = e.draft
	e.state = Viewing
	e.err = nil
}

// Failed re-opens edit mode keeping the user's draft.
func (e *Editor) Failed(err error) {
	if e.state != Saving {
		return
	}
	e.state = Editing
	e.err = err
}
