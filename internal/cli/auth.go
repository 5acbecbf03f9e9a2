package cli

import (
	"bufio"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Makepad-fr/tada/internal/auth"
	"github.com/Makepad-fr/tada/internal/ui"
)

func newAuthCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the bearer token sent to the todo API",
	}
	cmd.AddCommand(newAuthLoginCmd(app), newAuthLogoutCmd(app), newAuthStatusCmd(app), newAuthWhoamiCmd(app))
	return cmd
}

func newAuthLoginCmd(app *App) *cobra.Command {
	var expiresIn time.Duration
	cmd := &cobra.Command{
		Use:   "login [token]",
		Short: "Save a token (read from stdin when omitted)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			token := ""
			if len(args) == 1 {
				token = args[0]
			} else {
				ui.Hint(cmd.ErrOrStderr(), "Paste token and press enter:")
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("read token: %w", err)
				}
				token = line
			}
			token = strings.TrimSpace(token)
			if token == "" {
				return usagef("empty token")
			}
			var exp *time.Time
			if expiresIn > 0 {
				at := time.Now().Add(expiresIn).UTC()
				exp = &at
			}
			if err := auth.NewStore(app.cfg.Dir).Set(token, exp); err != nil {
				return err
			}
			ui.OK(cmd.OutOrStdout(), "logged in")
			return nil
		},
	}
	cmd.Flags().DurationVar(&expiresIn, "expires-in", 0, "Record when the token expires (e.g. 24h)")
	return cmd
}

func newAuthLogoutCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the saved token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := auth.NewStore(app.cfg.Dir).Delete(); err != nil {
				return err
			}
			ui.OK(cmd.OutOrStdout(), "logged out")
			return nil
		},
	}
}

func newAuthStatusCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show where the token comes from and when it expires",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ti, err := auth.NewStore(app.cfg.Dir).Get()
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if ti == nil {
				ui.Hint(w, "not logged in")
				return nil
			}
			lines := []string{"source: " + ti.Source, "token:  " + mask(ti.Token)}
			if !ti.CreatedAt.IsZero() {
				lines = append(lines, "saved:  "+ti.CreatedAt.Format(time.RFC3339))
			}
			if ti.ExpiresAt != nil {
				state := "valid"
				if time.Now().After(*ti.ExpiresAt) {
					state = ui.Current().Error.Render("expired")
				}
				lines = append(lines, fmt.Sprintf("expires: %s (%s)", ti.ExpiresAt.Format(time.RFC3339), state))
			}
			ui.Panel(w, lines)
			return nil
		},
	}
}

func newAuthWhoamiCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Print the configured user id and token claims",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			if app.cfg.HasSession() {
				fmt.Fprintf(w, "user: %d\n", app.cfg.UserID)
			} else {
				fmt.Fprintln(w, "user: (none)")
			}
			tok := auth.NewStore(app.cfg.Dir).Token()
			if tok == "" {
				return nil
			}
			if claims, ok := auth.Claims(tok); ok {
				fmt.Fprintln(w, "claims: "+claims)
			} else {
				fmt.Fprintln(w, "token: opaque")
			}
			return nil
		},
	}
}

func mask(tok string) string {
	if len(tok) <= 8 {
		return strings.Repeat("*", len(tok))
	}
	return tok[:4] + strings.Repeat("*", 4) + tok[len(tok)-4:]
}
