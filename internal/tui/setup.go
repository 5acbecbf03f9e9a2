package tui

import (
	"context"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Makepad-fr/tada/internal/reconcile"
	"github.com/Makepad-fr/tada/internal/ui"
)

// setupModel asks for a user id when none is configured, then hands over to
// the list.
type setupModel struct {
	ctx   context.Context
	opts  Options
	input textinput.Model
	err   string
	size  *tea.WindowSizeMsg
}

func newSetup(ctx context.Context, opts Options) setupModel {
	in := textinput.New()
	in.Prompt = "user id > "
	in.Placeholder = "e.g. 42"
	in.CharLimit = 12
	in.Validate = func(s string) error {
		if s == "" {
			return nil
		}
		_, err := strconv.Atoi(s)
		return err
	}
	in.Focus()
	return setupModel{ctx: ctx, opts: opts, input: in}
}

func (s setupModel) Init() tea.Cmd { return textinput.Blink }

func (s setupModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		s.size = &msg
		return s, nil
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return s, tea.Quit
		case tea.KeyEnter:
			return s.submit()
		}
	}
	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	return s, cmd
}

func (s setupModel) submit() (tea.Model, tea.Cmd) {
	id, err := strconv.Atoi(strings.TrimSpace(s.input.Value()))
	if err != nil || id <= 0 {
		s.err = "Enter a positive numeric user id"
		return s, nil
	}
	if s.opts.SaveUserID != nil {
		if err := s.opts.SaveUserID(id); err != nil {
			s.err = "Unable to save user id: " + err.Error()
			return s, nil
		}
	}
	eng, err := s.opts.NewEngine(id)
	if err != nil {
		s.err = reconcile.Message(err)
		return s, nil
	}
	m := New(s.ctx, eng)
	if s.size != nil {
		next, _ := m.Update(*s.size)
		m = next.(Model)
	}
	return m, m.Init()
}

func (s setupModel) View() string {
	t := ui.Current()
	lines := []string{
		t.Title.Render("Welcome to tada"),
		t.Muted.Render("Todos are stored per user. Which user are you?"),
		"",
		s.input.View(),
	}
	if s.err != "" {
		lines = append(lines, "", t.Error.Render("✖ "+s.err))
	}
	lines = append(lines, "", t.Help.Render("enter confirm • esc quit"))
	return ui.PanelString(strings.Join(lines, "\n"))
}
