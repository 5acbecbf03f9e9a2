package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Makepad-fr/tada/internal/editor"
	"github.com/Makepad-fr/tada/internal/model"
	"github.com/Makepad-fr/tada/internal/reconcile"
	"github.com/Makepad-fr/tada/internal/ui"
)

// Results of engine calls, delivered back on the event loop.
type (
	loadedMsg  struct{ err error }
	createdMsg struct {
		title string
		err   error
	}
	updatedMsg struct {
		id         int
		fromEditor bool
		err        error
	}
	deletedMsg struct {
		id  int
		err error
	}
	bulkMsg   struct{ err error }
	expireMsg struct{ gen uint64 }
)

// Model is the interactive todo list.
type Model struct {
	ctx  context.Context
	eng  *reconcile.Engine
	keys keyMap

	list   list.Model
	spin   *spinner.Model
	filter model.Filter

	// new-item field
	input    textinput.Model
	adding   bool
	creating bool

	// inline edit
	edit      textinput.Model
	editors   map[int]*editor.Editor
	editingID int

	width, height int

	// tick schedules banner expiry; replaced in tests.
	tick func(time.Duration, func(time.Time) tea.Msg) tea.Cmd
}

// New builds the list model around eng. Call Init to load.
func New(ctx context.Context, eng *reconcile.Engine) Model {
	keys := defaultKeys()

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = ui.Current().Pending

	l := list.New(nil, rowDelegate{spin: &sp}, 0, 0)
	l.SetShowTitle(false)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(true)
	l.SetShowPagination(true)
	l.Styles.HelpStyle = ui.Current().Help
	l.Styles.PaginationStyle = ui.Current().Help
	l.SetStatusBarItemName("todo", "todos")
	// Our own keys take "q", "esc", "d" and "f"; keep the list's paging on arrows.
	l.KeyMap.Quit.SetEnabled(false)
	l.KeyMap.NextPage = key.NewBinding(key.WithKeys("right", "pgdown"), key.WithHelp("→", "next page"))
	l.KeyMap.PrevPage = key.NewBinding(key.WithKeys("left", "pgup"), key.WithHelp("←", "prev page"))
	l.AdditionalShortHelpKeys = keys.short
	l.AdditionalFullHelpKeys = keys.full

	in := textinput.New()
	in.Prompt = "> "
	in.Placeholder = "What needs to be done?"
	in.CharLimit = 200

	ed := textinput.New()
	ed.Prompt = "> "
	ed.Placeholder = "Edit title (empty deletes)"
	ed.CharLimit = 200

	m := Model{
		ctx:     ctx,
		eng:     eng,
		keys:    keys,
		list:    l,
		spin:    &sp,
		input:   in,
		edit:    ed,
		editors: map[int]*editor.Editor{},
		width:   80,
		height:  24,
		tick:    tea.Tick,
	}
	m.resize()
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, m.loadCmd())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		*m.spin, cmd = m.spin.Update(msg)
		m.refresh()
		return m, cmd

	case loadedMsg:
		m.refresh()
		return m, m.expireCmd()

	case createdMsg:
		m.creating = false
		var focus tea.Cmd
		if msg.err == nil {
			m.input.SetValue("")
		} else if strings.TrimSpace(msg.title) == "" {
			m.eng.Banner().Raise(reconcile.ErrValidation.Message())
		}
		if m.adding {
			focus = m.input.Focus()
		}
		m.refresh()
		return m, tea.Batch(focus, m.expireCmd())

	case updatedMsg:
		var cmd tea.Cmd
		if ed := m.editors[msg.id]; ed != nil && msg.fromEditor {
			if msg.err != nil {
				ed.Failed(msg.err)
				if m.editingID == 0 && !m.adding {
					cmd = m.openEditor(msg.id)
				}
			} else {
				ed.Saved()
			}
		}
		m.refresh()
		return m, tea.Batch(cmd, m.expireCmd())

	case deletedMsg:
		if msg.err == nil {
			delete(m.editors, msg.id)
		}
		m.refresh()
		return m, m.expireCmd()

	case bulkMsg:
		m.refresh()
		return m, m.expireCmd()

	case expireMsg:
		m.eng.Banner().Expire(msg.gen)
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		switch {
		case m.editingID != 0:
			return m.updateEditing(msg)
		case m.adding:
			return m.updateAdding(msg)
		}
		return m.updateList(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Dismiss):
		m.eng.Banner().Dismiss()
		return m, nil

	case key.Matches(msg, m.keys.Add):
		m.adding = true
		if m.inputDisabled() {
			return m, nil
		}
		return m, m.input.Focus()

	case key.Matches(msg, m.keys.Edit):
		it, ok := m.selected()
		if !ok || m.eng.IsBusy(it.ID) || model.IsTemporaryID(it.ID) {
			return m, nil
		}
		return m, m.openEditor(it.ID)

	case key.Matches(msg, m.keys.Toggle):
		it, ok := m.selected()
		if !ok || m.eng.IsBusy(it.ID) || model.IsTemporaryID(it.ID) {
			return m, nil
		}
		return m, m.updateCmd(it.ID, it.Title, !it.Completed, false)

	case key.Matches(msg, m.keys.Delete):
		it, ok := m.selected()
		if !ok || m.eng.IsBusy(it.ID) || model.IsTemporaryID(it.ID) {
			return m, nil
		}
		return m, m.deleteCmd(it.ID)

	case key.Matches(msg, m.keys.ToggleAll):
		if len(m.eng.Items()) == 0 {
			return m, nil
		}
		return m, m.bulkCmd(m.eng.ToggleAll)

	case key.Matches(msg, m.keys.ClearCompleted):
		if _, done := m.eng.Counts(); done == 0 {
			return m, nil
		}
		return m, m.bulkCmd(m.eng.ClearCompleted)

	case key.Matches(msg, m.keys.NextFilter):
		m.setFilter(m.filter.Next())
		return m, nil
	case key.Matches(msg, m.keys.FilterAll):
		m.setFilter(model.FilterAll)
		return m, nil
	case key.Matches(msg, m.keys.FilterActive):
		m.setFilter(model.FilterActive)
		return m, nil
	case key.Matches(msg, m.keys.FilterDone):
		m.setFilter(model.FilterCompleted)
		return m, nil

	case key.Matches(msg, m.keys.Reload):
		return m, m.loadCmd()
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) updateAdding(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.adding = false
		m.input.SetValue("")
		m.input.Blur()
		return m, nil
	case tea.KeyEnter:
		if m.inputDisabled() {
			return m, nil
		}
		title := m.input.Value()
		if strings.TrimSpace(title) == "" {
			// Rejected before any request; raises the validation banner.
			_, _ = m.eng.Create(m.ctx, title)
			return m, m.expireCmd()
		}
		m.creating = true
		m.input.Blur()
		return m, m.createCmd(title)
	}
	if m.inputDisabled() {
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	ed := m.editors[m.editingID]
	if ed == nil {
		m.editingID = 0
		return m, nil
	}
	switch msg.Type {
	case tea.KeyEsc:
		ed.Cancel()
		m.closeEditor()
		m.refresh()
		return m, nil
	case tea.KeyEnter:
		return m, m.submitEdit()
	case tea.KeyTab:
		// Switching filter leaves the row too.
		cmd := m.submitEdit()
		m.setFilter(m.filter.Next())
		return m, cmd
	case tea.KeyUp, tea.KeyDown:
		// Leaving the row counts as blur, which saves.
		cmd := m.submitEdit()
		var move tea.Cmd
		m.list, move = m.list.Update(msg)
		return m, tea.Batch(cmd, move)
	}
	var cmd tea.Cmd
	m.edit, cmd = m.edit.Update(msg)
	_ = ed.SetDraft(m.edit.Value())
	return m, cmd
}

// submitEdit closes the inline editor and returns the request it asked for.
func (m *Model) submitEdit() tea.Cmd {
	id := m.editingID
	ed := m.editors[id]
	m.closeEditor()
	act := ed.Submit()
	defer m.refresh()

	switch act.Kind {
	case editor.ActionDelete:
		return m.deleteCmd(id)
	case editor.ActionSave:
		completed := false
		for _, it := range m.eng.Items() {
			if it.ID == id {
				completed = it.Completed
			}
		}
		return m.updateCmd(id, act.Title, completed, true)
	}
	return nil
}

func (m *Model) openEditor(id int) tea.Cmd {
	ed := m.editors[id]
	if ed == nil {
		ed = editor.New(id)
		m.editors[id] = ed
	}
	if ed.State() == editor.Saving {
		return nil
	}
	// A failed save leaves the editor open with the user's draft.
	if ed.State() != editor.Editing {
		title := ""
		for _, it := range m.eng.Items() {
			if it.ID == id {
				title = it.Title
			}
		}
		ed.Begin(title)
	}
	m.editingID = id
	m.edit.SetValue(ed.Draft())
	m.edit.CursorEnd()
	m.refresh()
	return m.edit.Focus()
}

func (m *Model) closeEditor() {
	m.editingID = 0
	m.edit.Blur()
	m.edit.SetValue("")
}

func (m *Model) setFilter(f model.Filter) {
	m.filter = f
	m.list.ResetSelected()
	m.refresh()
}

// inputDisabled mirrors the field being disabled while a create or single
// update is outstanding.
func (m Model) inputDisabled() bool {
	_, loading := m.eng.LoadingID()
	return m.creating || loading
}

func (m Model) selected() (model.Item, bool) {
	r, ok := m.list.SelectedItem().(row)
	if !ok {
		return model.Item{}, false
	}
	return r.item, true
}

// refresh re-derives the visible rows from the engine.
func (m *Model) refresh() {
	visible := m.eng.Visible(m.filter)
	rows := make([]list.Item, 0, len(visible))
	for _, it := range visible {
		rows = append(rows, row{
			item:    it,
			busy:    m.eng.IsBusy(it.ID) || m.saving(it.ID),
			editing: it.ID == m.editingID,
		})
	}
	m.list.SetItems(rows)
}

func (m Model) saving(id int) bool {
	ed := m.editors[id]
	return ed != nil && ed.State() == editor.Saving
}

func (m *Model) resize() {
	w, h := m.width-4, m.height-10
	if w < 20 {
		w = 20
	}
	if h < 3 {
		h = 3
	}
	m.list.SetSize(w, h)
	m.input.Width = w - 4
	m.edit.Width = w - 4
}

func (m Model) expireCmd() tea.Cmd {
	b := m.eng.Banner()
	if b.Current() == "" || m.tick == nil {
		return nil
	}
	gen := b.Generation()
	return m.tick(b.TTL(), func(time.Time) tea.Msg { return expireMsg{gen: gen} })
}

func (m Model) loadCmd() tea.Cmd {
	eng, ctx := m.eng, m.ctx
	return func() tea.Msg { return loadedMsg{err: eng.Load(ctx)} }
}

func (m Model) createCmd(title string) tea.Cmd {
	eng, ctx := m.eng, m.ctx
	return func() tea.Msg {
		_, err := eng.Create(ctx, title)
		return createdMsg{title: title, err: err}
	}
}

func (m Model) updateCmd(id int, title string, completed, fromEditor bool) tea.Cmd {
	eng, ctx := m.eng, m.ctx
	return func() tea.Msg {
		_, err := eng.Update(ctx, id, title, completed)
		return updatedMsg{id: id, fromEditor: fromEditor, err: err}
	}
}

func (m Model) deleteCmd(id int) tea.Cmd {
	eng, ctx := m.eng, m.ctx
	return func() tea.Msg { return deletedMsg{id: id, err: eng.DeleteOne(ctx, id)} }
}

func (m Model) bulkCmd(op func(context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg { return bulkMsg{err: op(ctx)} }
}

func (m Model) View() string {
	t := ui.Current()
	active, done := m.eng.Counts()
	total := active + done

	var b strings.Builder

	header := fmt.Sprintf("%s   %s %d  %s %d  %s %d",
		t.Title.Render("todos"),
		t.Success.Render(t.SymDone), done,
		t.Pending.Render(t.SymPending), active,
		t.Accent.Render("Total"), total,
	)
	b.WriteString(header + "\n")

	toggle := "  "
	if total > 0 {
		toggle = t.Muted.Render("⌄ ")
		if m.eng.AllCompleted() {
			toggle = t.Success.Render("⌄ ")
		}
	}
	switch {
	case m.creating:
		b.WriteString(toggle + t.Muted.Render(m.input.Value()+"  ") + m.spin.View() + "\n")
	case m.adding:
		b.WriteString(toggle + m.input.View() + "\n")
	default:
		b.WriteString(toggle + t.Muted.Render("a  What needs to be done?") + "\n")
	}
	b.WriteString("\n")
	b.WriteString(m.list.View())

	if m.editingID != 0 {
		bar := lipgloss.NewStyle().Border(t.Border).BorderForeground(t.BorderColor).Padding(0, 1)
		title := "Edit item (enter saves, esc cancels)"
		if ed := m.editors[m.editingID]; ed != nil && ed.Err() != nil {
			title += " " + t.Error.Render(reconcile.Message(ed.Err()))
		}
		b.WriteString("\n" + bar.Render(title+"\n"+m.edit.View()))
	}

	if total > 0 {
		b.WriteString("\n" + m.footer(active, done))
	}
	if msg := m.eng.Banner().Current(); msg != "" {
		b.WriteString("\n" + t.Error.Render("✖ "+msg) + t.Muted.Render("  (esc)"))
	}
	return ui.PanelString(b.String())
}

func (m Model) footer(active, done int) string {
	t := ui.Current()
	tabs := make([]string, 0, len(model.Filters))
	for _, f := range model.Filters {
		if f == m.filter {
			tabs = append(tabs, t.Selected.Render(f.String()))
		} else {
			tabs = append(tabs, t.Muted.Render(f.String()))
		}
	}
	clr := t.Muted.Render("c clear completed")
	if done == 0 {
		clr = t.Muted.Strikethrough(true).Render("c clear completed")
	}
	return fmt.Sprintf("%s   %s   %s", ui.ItemsLeft(active), strings.Join(tabs, " "), clr)
}
