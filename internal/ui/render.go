package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// OK prints a success line.
func OK(w io.Writer, msg string) { fmt.Fprintln(w, Current().Success.Render(Current().SymDone+" "+msg)) }

// Fail prints an error line, normally to stderr.
func Fail(w io.Writer, msg string) { fmt.Fprintln(w, Current().Error.Render("✖ "+msg)) }

// Hint prints a muted follow-up line.
func Hint(w io.Writer, msg string) { fmt.Fprintln(w, Current().Muted.Render(msg)) }

// PanelString frames inner with the theme border.
func PanelString(inner string) string {
	t := Current()
	return lipgloss.NewStyle().
		Border(t.Border).
		BorderForeground(t.BorderColor).
		Padding(0, 1).
		Render(inner)
}

// Panel writes lines inside a frame.
func Panel(w io.Writer, lines []string) {
	fmt.Fprintln(w, PanelString(strings.Join(lines, "\n")))
}

// ProgressBar renders "[████░░] done/total".
func ProgressBar(done, total, width int) string {
	if total <= 0 {
		total = 1
	}
	if width <= 0 {
		width = 28
	}
	filled := done * width / total
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", width-filled) + fmt.Sprintf("] %d/%d", done, total)
}

// ItemsLeft formats the footer counter.
func ItemsLeft(n int) string {
	if n == 1 {
		return "1 item left"
	}
	return fmt.Sprintf("%d items left", n)
}
