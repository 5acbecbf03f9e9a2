package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Makepad-fr/tada/internal/editor"
	"github.com/Makepad-fr/tada/internal/model"
	"github.com/Makepad-fr/tada/internal/reconcile"
	"github.com/Makepad-fr/tada/internal/ui"
)

func newListCmd(app *App) *cobra.Command {
	var (
		filter string
		group  bool
		output string
	)
	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List todos",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := model.ParseFilter(filter)
			if err != nil {
				return usageError{msg: err.Error()}
			}
			eng, err := app.session(cmd.Context())
			if err != nil {
				return err
			}
			items := eng.Visible(f)
			switch output {
			case "json":
				return writeJSON(cmd.OutOrStdout(), items)
			case "yaml":
				return writeYAML(cmd.OutOrStdout(), items)
			case "text", "":
			default:
				return usagef("unknown output %q (want text|json|yaml)", output)
			}
			active, done := eng.Counts()
			writeList(cmd.OutOrStdout(), items, f, active, done, group)
			return nil
		},
	}
	cmd.Flags().StringVar(&filter, "filter", "all", "Which todos to show (all|active|completed)")
	cmd.Flags().BoolVar(&group, "group", false, "Group output by active/completed")
	cmd.Flags().StringVarP(&output, "output", "o", "text", "Output format (text|json|yaml)")
	return cmd
}

func newAddCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "add <title...>",
		Short: "Add a todo (title can be multiple words)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := app.session(cmd.Context())
			if err != nil {
				return err
			}
			it, err := eng.Create(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			ui.OK(cmd.OutOrStdout(), fmt.Sprintf("added #%d", it.ID))
			return nil
		},
	}
}

func newToggleCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "done <id>",
		Aliases: []string{"toggle"},
		Short:   "Toggle a todo between active and completed",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			eng, err := app.session(cmd.Context())
			if err != nil {
				return err
			}
			if _, ok := find(eng, id); !ok {
				return errNotFound(id)
			}
			it, err := eng.Toggle(cmd.Context(), id)
			if err != nil {
				return err
			}
			if it.Completed {
				ui.OK(cmd.OutOrStdout(), fmt.Sprintf("completed #%d", id))
			} else {
				ui.OK(cmd.OutOrStdout(), fmt.Sprintf("reopened #%d", id))
			}
			return nil
		},
	}
}

func newEditCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "edit <id> [title...]",
		Short: "Rename a todo; an empty title deletes it",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			eng, err := app.session(cmd.Context())
			if err != nil {
				return err
			}
			cur, ok := find(eng, id)
			if !ok {
				return errNotFound(id)
			}

			ed := editor.New(id)
			ed.Begin(cur.Title)
			if err := ed.SetDraft(strings.Join(args[1:], " ")); err != nil {
				return err
			}
			act := ed.Submit()
			switch act.Kind {
			case editor.ActionNone:
				ui.Hint(cmd.OutOrStdout(), "unchanged")
				return nil
			case editor.ActionDelete:
				if err := eng.DeleteOne(cmd.Context(), id); err != nil {
					return err
				}
				ui.OK(cmd.OutOrStdout(), fmt.Sprintf("removed #%d", id))
				return nil
			}
			if _, err := eng.Update(cmd.Context(), id, act.Title, cur.Completed); err != nil {
				ed.Failed(err)
				return err
			}
			ed.Saved()
			ui.OK(cmd.OutOrStdout(), fmt.Sprintf("renamed #%d", id))
			return nil
		},
	}
}

func newRemoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a todo",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			eng, err := app.session(cmd.Context())
			if err != nil {
				return err
			}
			if _, ok := find(eng, id); !ok {
				return errNotFound(id)
			}
			if err := eng.DeleteOne(cmd.Context(), id); err != nil {
				return err
			}
			ui.OK(cmd.OutOrStdout(), fmt.Sprintf("removed #%d", id))
			return nil
		},
	}
}

func newClearCompletedCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "clear-completed",
		Short: "Delete every completed todo",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := app.session(cmd.Context())
			if err != nil {
				return err
			}
			_, before := eng.Counts()
			if before == 0 {
				ui.Hint(cmd.OutOrStdout(), "nothing completed")
				return nil
			}
			err = eng.ClearCompleted(cmd.Context())
			_, after := eng.Counts()
			summary := fmt.Sprintf("cleared %d of %d", before-after, before)
			if err != nil {
				ui.Hint(cmd.ErrOrStderr(), summary)
				return err
			}
			ui.OK(cmd.OutOrStdout(), summary)
			return nil
		},
	}
}

func newToggleAllCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle-all",
		Short: "Complete every todo, or reopen all when all are completed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := app.session(cmd.Context())
			if err != nil {
				return err
			}
			if len(eng.Items()) == 0 {
				ui.Hint(cmd.OutOrStdout(), "no todos")
				return nil
			}
			target := !eng.AllCompleted()
			err = eng.ToggleAll(cmd.Context())
			word := "completed"
			if !target {
				word = "reopened"
			}
			active, done := eng.Counts()
			summary := fmt.Sprintf("%s all (%s)", word, ui.ProgressBar(done, active+done, 20))
			if err != nil {
				ui.Hint(cmd.ErrOrStderr(), summary)
				return err
			}
			ui.OK(cmd.OutOrStdout(), summary)
			return nil
		},
	}
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(strings.TrimPrefix(strings.TrimSpace(s), "#"))
	if err != nil || id <= 0 {
		return 0, usagef("not a todo id: %q", s)
	}
	return id, nil
}

func find(eng *reconcile.Engine, id int) (model.Item, bool) {
	for _, it := range eng.Items() {
		if it.ID == id {
			return it, true
		}
	}
	return model.Item{}, false
}

type notFoundError struct{ id int }

func (e notFoundError) Error() string { return fmt.Sprintf("todo not found: #%d", e.id) }

func errNotFound(id int) error { return notFoundError{id: id} }
