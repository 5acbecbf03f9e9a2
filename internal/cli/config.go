package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Makepad-fr/tada/internal/config"
	"github.com/Makepad-fr/tada/internal/ui"
)

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or change settings in config.yaml",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := app.cfg
			return writeYAML(cmd.OutOrStdout(), map[string]any{
				"dir":       c.Dir,
				"user_id":   c.UserID,
				"api_url":   c.APIURL,
				"timeout":   c.Timeout.String(),
				"log_level": c.LogLevel,
				"theme":     c.Theme,
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "set-user <id>",
		Short: "Save the user id whose todos are used",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := config.SaveUserID(app.cfg.Dir, id); err != nil {
				return err
			}
			ui.OK(cmd.OutOrStdout(), fmt.Sprintf("user set to %d", id))
			return nil
		},
	})
	return cmd
}
