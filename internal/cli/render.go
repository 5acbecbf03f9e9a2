package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/Makepad-fr/tada/internal/model"
	"github.com/Makepad-fr/tada/internal/ui"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

func writeList(w io.Writer, items []model.Item, f model.Filter, active, done int, group bool) {
	t := ui.Current()
	header := fmt.Sprintf("%s  %s %d  %s %d  %s %d",
		t.Title.Render("Todos"),
		t.Success.Render(t.SymDone), done,
		t.Pending.Render(t.SymPending), active,
		t.Accent.Render("Total"), active+done,
	)

	lines := []string{header, t.Muted.Render(ui.ProgressBar(done, active+done, 28)), ""}
	if group {
		lines = append(lines, groupLines(items)...)
	} else {
		lines = append(lines, flatLines(items)...)
	}
	lines = append(lines, "",
		t.Muted.Render(fmt.Sprintf("%s · %s", ui.ItemsLeft(active), f)),
		t.Muted.Render("Tip: add with `tada add \"Buy milk\"`"),
	)
	ui.Panel(w, lines)
}

func flatLines(items []model.Item) []string {
	t := ui.Current()
	if len(items) == 0 {
		return []string{t.Muted.Render("no todos")}
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		box, title := t.Muted.Render(t.BoxUnchecked), it.Title
		if it.Completed {
			box, title = t.Success.Render(t.BoxChecked), t.Done.Render(title)
		}
		if len(it.Title) > 80 {
			title = it.Title[:77] + "..."
		}
		out = append(out, fmt.Sprintf("%s %s %s", t.Muted.Render(fmt.Sprintf("#%-4d", it.ID)), box, title))
	}
	return out
}

func groupLines(items []model.Item) []string {
	t := ui.Current()
	var lines []string
	for _, f := range []model.Filter{model.FilterActive, model.FilterCompleted} {
		if len(lines) > 0 {
			lines = append(lines, "")
		}
		lines = append(lines, t.Accent.Render(f.String()))
		part := model.Derive(f, items)
		if len(part) == 0 {
			lines = append(lines, t.Muted.Render("(none)"))
			continue
		}
		lines = append(lines, flatLines(part)...)
	}
	return lines
}
