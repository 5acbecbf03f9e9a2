package tui

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Makepad-fr/tada/internal/editor"
	"github.com/Makepad-fr/tada/internal/model"
	"github.com/Makepad-fr/tada/internal/reconcile"
	"github.com/Makepad-fr/tada/internal/store"
)

var errDown = errors.New("backend down")

// memClient serves remote.Client from an in-memory store.
type memClient struct {
	st         *store.Memory
	userID     int
	failCreate atomic.Bool
	failPatch  atomic.Bool
	creates    atomic.Int32
}

func (c *memClient) FetchAll(ctx context.Context) ([]model.Item, error) {
	return c.st.List(ctx, c.userID)
}

func (c *memClient) Create(ctx context.Context, in model.NewItem) (model.Item, error) {
	c.creates.Add(1)
	if c.failCreate.Load() {
		return model.Item{}, errDown
	}
	return c.st.Create(ctx, in)
}

func (c *memClient) Patch(ctx context.Context, id int, p model.Patch) (model.Item, error) {
	if c.failPatch.Load() {
		return model.Item{}, errDown
	}
	return c.st.Patch(ctx, id, p)
}

func (c *memClient) Delete(ctx context.Context, id int) error { return c.st.Delete(ctx, id) }

func newTestModel(t *testing.T, titles ...string) (Model, *memClient) {
	t.Helper()
	c := &memClient{st: store.NewMemory(), userID: 1}
	for _, title := range titles {
		if _, err := c.st.Create(context.Background(), model.NewItem{Title: title, UserID: 1}); err != nil {
			t.Fatal(err)
		}
	}
	eng, err := reconcile.New(c, 1, reconcile.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	if err != nil {
		t.Fatal(err)
	}
	m := New(context.Background(), eng)
	m.tick = nil
	return drive(t, m, m.loadCmd()), c
}

// drive feeds msg results back into the model until nothing synchronous is
// left. Timers (spinner frames, cursor blink, banner expiry) are dropped.
func drive(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for steps := 0; len(queue) > 0; steps++ {
		if steps > 200 {
			t.Fatal("command queue did not settle")
		}
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		msg := execCmd(c)
		switch msg := msg.(type) {
		case nil, spinner.TickMsg, tea.QuitMsg:
			continue
		case tea.BatchMsg:
			queue = append(queue, msg...)
			continue
		}
		next, more := m.Update(msg)
		m = next.(Model)
		queue = append(queue, more)
	}
	return m
}

func execCmd(c tea.Cmd) tea.Msg {
	ch := make(chan tea.Msg, 1)
	go func() { ch <- c() }()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(50 * time.Millisecond):
		return nil
	}
}

func press(t *testing.T, m Model, keys ...string) Model {
	t.Helper()
	for _, k := range keys {
		next, cmd := m.Update(keyMsg(k))
		m = drive(t, next.(Model), cmd)
	}
	return m
}

func typeText(t *testing.T, m Model, s string) Model {
	t.Helper()
	for _, r := range s {
		next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		m = drive(t, next.(Model), cmd)
	}
	return m
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "ctrl+u":
		return tea.KeyMsg{Type: tea.KeyCtrlU}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

func titles(m Model) []string {
	var out []string
	for _, it := range m.list.Items() {
		out = append(out, it.(row).item.Title)
	}
	return out
}

func TestLoadShowsItems(t *testing.T) {
	m, _ := newTestModel(t, "Buy milk", "Walk dog")
	view := m.View()
	for _, want := range []string{"Buy milk", "Walk dog", "2 items left"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestAddItem(t *testing.T) {
	m, _ := newTestModel(t)
	m = press(t, m, "a")
	if !m.adding {
		t.Fatal("expected add mode")
	}
	m = typeText(t, m, "Buy milk")
	m = press(t, m, "enter")

	if got := titles(m); len(got) != 1 || got[0] != "Buy milk" {
		t.Fatalf("titles = %v", got)
	}
	if m.input.Value() != "" {
		t.Errorf("input not cleared: %q", m.input.Value())
	}
	if m.creating {
		t.Error("still creating")
	}
}

func TestAddEmptyRaisesValidation(t *testing.T) {
	m, c := newTestModel(t)
	m = press(t, m, "a")
	m = typeText(t, m, "   ")
	m = press(t, m, "enter")

	if c.creates.Load() != 0 {
		t.Fatalf("create sent for blank title")
	}
	if got := m.eng.Banner().Current(); got != "Title should not be empty" {
		t.Fatalf("banner = %q", got)
	}
	if !strings.Contains(m.View(), "Title should not be empty") {
		t.Error("banner not rendered")
	}
}

func TestAddFailureKeepsInput(t *testing.T) {
	m, c := newTestModel(t)
	c.failCreate.Store(true)
	m = press(t, m, "a")
	m = typeText(t, m, "Buy milk")
	m = press(t, m, "enter")

	if len(m.list.Items()) != 0 {
		t.Fatalf("placeholder left behind: %v", titles(m))
	}
	if m.input.Value() != "Buy milk" {
		t.Errorf("input = %q, want kept", m.input.Value())
	}
	if got := m.eng.Banner().Current(); got != "Unable to add a todo" {
		t.Errorf("banner = %q", got)
	}
}

func TestToggleAndFilter(t *testing.T) {
	m, _ := newTestModel(t, "one", "two")
	m = press(t, m, "x")

	items := m.eng.Items()
	if !items[0].Completed || items[1].Completed {
		t.Fatalf("items = %+v", items)
	}

	m = press(t, m, "2")
	if got := titles(m); len(got) != 1 || got[0] != "two" {
		t.Fatalf("active = %v", got)
	}
	m = press(t, m, "3")
	if got := titles(m); len(got) != 1 || got[0] != "one" {
		t.Fatalf("completed = %v", got)
	}
	m = press(t, m, "f")
	if m.filter != model.FilterAll {
		t.Fatalf("filter after cycling = %v", m.filter)
	}
}

func TestToggleAllAndClearCompleted(t *testing.T) {
	m, _ := newTestModel(t, "one", "two")
	m = press(t, m, "t")
	if !m.eng.AllCompleted() {
		t.Fatal("toggle all did not complete everything")
	}
	m = press(t, m, "c")
	if n := len(m.eng.Items()); n != 0 {
		t.Fatalf("%d items left after clear", n)
	}
}

func TestEditSaves(t *testing.T) {
	m, _ := newTestModel(t, "old")
	m = press(t, m, "e")
	if m.editingID == 0 {
		t.Fatal("editor not open")
	}
	m = press(t, m, "ctrl+u")
	m = typeText(t, m, "new")
	m = press(t, m, "enter")

	if m.editingID != 0 {
		t.Error("editor still open")
	}
	if got := m.eng.Items()[0].Title; got != "new" {
		t.Fatalf("title = %q", got)
	}
}

func TestEditEmptyDeletes(t *testing.T) {
	m, _ := newTestModel(t, "gone", "kept")
	m = press(t, m, "e", "ctrl+u", "enter")
	if got := titles(m); len(got) != 1 || got[0] != "kept" {
		t.Fatalf("titles = %v", got)
	}
}

func TestEditFailureReopens(t *testing.T) {
	m, c := newTestModel(t, "old")
	c.failPatch.Store(true)
	m = press(t, m, "e", "ctrl+u")
	m = typeText(t, m, "new")
	m = press(t, m, "enter")

	id := m.eng.Items()[0].ID
	ed := m.editors[id]
	if ed == nil || ed.State() != editor.Editing {
		t.Fatalf("editor = %+v", ed)
	}
	if m.editingID != id || m.edit.Value() != "new" {
		t.Fatalf("editingID=%d draft=%q", m.editingID, m.edit.Value())
	}
	if got := m.eng.Items()[0].Title; got != "old" {
		t.Errorf("title not rolled back: %q", got)
	}
}

func TestEditBlurSubmits(t *testing.T) {
	m, _ := newTestModel(t, "one", "two")
	m = press(t, m, "e", "ctrl+u")
	m = typeText(t, m, "uno")
	m = press(t, m, "down")

	if got := m.eng.Items()[0].Title; got != "uno" {
		t.Fatalf("title = %q", got)
	}
	if m.list.Index() != 1 {
		t.Errorf("cursor = %d, want 1", m.list.Index())
	}
}

func TestBannerExpires(t *testing.T) {
	m, c := newTestModel(t)
	c.failCreate.Store(true)
	var scheduled time.Duration
	m.tick = func(d time.Duration, fn func(time.Time) tea.Msg) tea.Cmd {
		scheduled = d
		return func() tea.Msg { return fn(time.Now()) }
	}
	m = press(t, m, "a")
	m = typeText(t, m, "x")
	m = press(t, m, "enter")

	if scheduled != m.eng.Banner().TTL() {
		t.Errorf("expiry scheduled after %v", scheduled)
	}
	if got := m.eng.Banner().Current(); got != "" {
		t.Fatalf("banner still shown: %q", got)
	}
}

func TestDismissBanner(t *testing.T) {
	m, _ := newTestModel(t)
	m.eng.Banner().Raise("Unable to load todos")
	m = press(t, m, "esc")
	if got := m.eng.Banner().Current(); got != "" {
		t.Fatalf("banner = %q", got)
	}
}

func TestSetupPrompt(t *testing.T) {
	var saved int
	c := &memClient{st: store.NewMemory()}
	opts := Options{
		SaveUserID: func(id int) error { saved = id; return nil },
		NewEngine: func(id int) (*reconcile.Engine, error) {
			c.userID = id
			return reconcile.New(c, id)
		},
	}
	s := newSetup(context.Background(), opts)

	next, _ := s.Update(keyMsg("enter"))
	s = next.(setupModel)
	if s.err == "" {
		t.Fatal("empty id accepted")
	}

	for _, r := range "42" {
		next, _ = s.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		s = next.(setupModel)
	}
	next, _ = s.Update(keyMsg("enter"))
	m, ok := next.(Model)
	if !ok {
		t.Fatalf("setup did not hand over: %T (%s)", next, next.(setupModel).err)
	}
	if saved != 42 || m.eng.UserID() != 42 {
		t.Fatalf("saved=%d user=%d", saved, m.eng.UserID())
	}
}

func TestFilterSwitchSubmitsEdit(t *testing.T) {
	m, _ := newTestModel(t, "one")
	m = press(t, m, "e", "ctrl+u")
	m = typeText(t, m, "uno")
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = drive(t, next.(Model), cmd)

	if m.filter != model.FilterActive {
		t.Fatalf("filter = %v", m.filter)
	}
	if got := m.eng.Items()[0].Title; got != "uno" {
		t.Fatalf("title = %q", got)
	}
}

func TestCreateFailureAfterEscKeepsCreateMessage(t *testing.T) {
	m, c := newTestModel(t)
	c.failCreate.Store(true)
	m = press(t, m, "a")
	m = typeText(t, m, "Buy milk")

	next, cmd := m.Update(keyMsg("enter"))
	m = next.(Model)
	// Leave the field before the request comes back.
	next, _ = m.Update(keyMsg("esc"))
	m = drive(t, next.(Model), cmd)

	if m.input.Value() != "" {
		t.Fatalf("input = %q", m.input.Value())
	}
	if got := m.eng.Banner().Current(); got != "Unable to add a todo" {
		t.Fatalf("banner = %q", got)
	}
}
