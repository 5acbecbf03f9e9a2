package reconcile

import (
	"errors"
	"fmt"
)

// Kind classifies engine failures.
type Kind int

const (
	KindLoad Kind = iota + 1
	KindValidation
	KindCreate
	KindUpdate
	KindDelete
)

func (k Kind) String() string {
	switch k {
	case KindLoad:
		return "load"
	case KindValidation:
		return "validation"
	case KindCreate:
		return "create"
	case KindUpdate:
		return "update"
	case KindDelete:
		return "delete"
	}
	return "unknown"
}

// Error is raised by every engine operation. Count is set by bulk
// operations to the number of items that failed.
type Error struct {
	Kind  Kind
	ID    int
	Count int
	Err   error
}

// Sentinels for errors.Is; they match any *Error of the same Kind.
var (
	ErrLoad       = &Error{Kind: KindLoad}
	ErrValidation = &Error{Kind: KindValidation}
	ErrCreate     = &Error{Kind: KindCreate}
	ErrUpdate     = &Error{Kind: KindUpdate}
	ErrDelete     = &Error{Kind: KindDelete}
)

var (
	// ErrPending refuses mutations that would send a placeholder id to the server.
	ErrPending = errors.New("item is still being created")
	// ErrNoSession means no user id was configured.
	ErrNoSession = errors.New("no user id configured")

	errEmptyTitle = errors.New("empty title")
)

func (e *Error) Error() string {
	var what string
	switch {
	case e.Count > 1:
		what = fmt.Sprintf("%s %d todos", e.Kind, e.Count)
	case e.ID != 0:
		what = fmt.Sprintf("%s todo %d", e.Kind, e.ID)
	case e.Kind == KindLoad:
		what = "load todos"
	default:
		what = e.Kind.String() + " todo"
	}
	if e.Err == nil {
		return what
	}
	return what + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Err == nil && t.ID == 0 && t.Count == 0
}

// Message is the text shown to the user.
func (e *Error) Message() string {
	switch e.Kind {
	case KindLoad:
		return "Unable to load todos"
	case KindValidation:
		return "Title should not be empty"
	case KindCreate:
		return "Unable to add a todo"
	case KindUpdate:
		return "Unable to update a todo"
	case KindDelete:
		return "Unable to delete a todo"
	}
	return "Something went wrong"
}

// Message returns the user-facing text for err, or err's own text when it did
// not come from the engine.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message()
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
