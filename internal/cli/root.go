// Package cli wires tada's cobra commands: the interactive list by default,
// scriptable item commands, credentials, config and the dev server.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Makepad-fr/tada/internal/auth"
	"github.com/Makepad-fr/tada/internal/config"
	"github.com/Makepad-fr/tada/internal/logging"
	"github.com/Makepad-fr/tada/internal/reconcile"
	"github.com/Makepad-fr/tada/internal/remote"
	"github.com/Makepad-fr/tada/internal/tui"
	"github.com/Makepad-fr/tada/internal/ui"
)

// App carries root flags and the state resolved from them.
type App struct {
	ConfigDir string
	APIURL    string
	UserID    int
	Timeout   time.Duration
	LogLevel  string
	LogStderr bool
	Theme     string

	cfg       *config.Config
	log       *slog.Logger
	logCloser io.Closer
}

// usageError marks bad invocations; they exit with code 2.
type usageError struct{ msg string }

func (e usageError) Error() string { return e.msg }

func usagef(format string, args ...any) error { return usageError{msg: fmt.Sprintf(format, args...)} }

func NewRootCmd() *cobra.Command { return newRootCmd(&App{}) }

func newRootCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "tada",
		Short:         "tada - a todo list synced with a remote collection",
		SilenceUsage:  true,
		SilenceErrors: true,
		Example: strings.TrimSpace(`
  # Start the interactive list
  tada

  # Scriptable commands
  tada add "Buy milk"
  tada ls --filter active
  tada done 12

  # Run the development backend with a flaky network
  tada serve --latency 400ms --fail-rate 0.2
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return usagef("unknown command %q", args[0])
			}
			return runTUI(cmd.Context(), app)
		},
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return app.init(cmd)
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error { return usageError{msg: err.Error()} })

	pf := cmd.PersistentFlags()
	pf.StringVar(&app.ConfigDir, "config-dir", "", "Directory holding config.yaml and credentials.json (default ~/.tada)")
	pf.StringVar(&app.APIURL, "api-url", "", "Base URL of the todo collection")
	pf.IntVar(&app.UserID, "user", 0, "User id whose todos to use")
	pf.DurationVar(&app.Timeout, "timeout", 0, "Per-request timeout")
	pf.StringVar(&app.LogLevel, "log-level", "", "Log level (debug|info|warn|error)")
	pf.BoolVar(&app.LogStderr, "log-stderr", false, "Also log to stderr")
	pf.StringVar(&app.Theme, "theme", "", "Color theme (classic|neon|mono)")

	cmd.AddCommand(newListCmd(app))
	cmd.AddCommand(newAddCmd(app))
	cmd.AddCommand(newToggleCmd(app))
	cmd.AddCommand(newEditCmd(app))
	cmd.AddCommand(newRemoveCmd(app))
	cmd.AddCommand(newClearCompletedCmd(app))
	cmd.AddCommand(newToggleAllCmd(app))
	cmd.AddCommand(newAuthCmd(app))
	cmd.AddCommand(newConfigCmd(app))
	cmd.AddCommand(newServeCmd(app))

	return cmd
}

// Main runs the root command and returns the process exit code
// (0 ok, 1 error, 2 usage).
func Main(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	app := &App{}
	defer app.close()
	cmd := newRootCmd(app)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	ui.Fail(stderr, errorText(err))
	var ue usageError
	if errors.As(err, &ue) {
		ui.Hint(stderr, "Run `tada --help` for usage.")
		return 2
	}
	if errors.Is(err, reconcile.ErrNoSession) {
		ui.Hint(stderr, "Set one with `tada config set-user <id>` or pass --user.")
	}
	return 1
}

func errorText(err error) string {
	var re *reconcile.Error
	if errors.As(err, &re) && re.Err != nil {
		return re.Message() + ": " + re.Err.Error()
	}
	return reconcile.Message(err)
}

// init merges config, env and flags, then sets up logging and the theme.
func (a *App) init(cmd *cobra.Command) error {
	cfg, err := config.Load(a.ConfigDir)
	if err != nil {
		return err
	}
	pf := cmd.Root().PersistentFlags()
	if pf.Changed("api-url") {
		cfg.APIURL = a.APIURL
	}
	if pf.Changed("user") {
		if a.UserID <= 0 {
			return usagef("--user must be positive, got %d", a.UserID)
		}
		cfg.UserID = a.UserID
	}
	if pf.Changed("timeout") {
		cfg.Timeout = a.Timeout
	}
	if pf.Changed("log-level") {
		cfg.LogLevel = a.LogLevel
	}
	if pf.Changed("theme") {
		cfg.Theme = a.Theme
	}
	a.cfg = cfg

	log, closer, err := logging.Init(cfg.LogLevel, a.LogStderr)
	if err != nil {
		// Logging is best-effort; the command still runs.
		log, closer = logging.Discard(), nil
	}
	a.log, a.logCloser = log, closer
	ui.SetTheme(cfg.Theme)
	a.log.Debug("command starting", "cmd", cmd.CommandPath(), "user_id", cfg.UserID, "api_url", cfg.APIURL)
	return nil
}

func (a *App) close() {
	if a.logCloser != nil {
		_ = a.logCloser.Close()
		a.logCloser = nil
	}
}

func (a *App) newEngine(userID int) (*reconcile.Engine, error) {
	client := remote.NewHTTPClient(a.cfg.APIURL, userID,
		remote.WithTimeout(a.cfg.Timeout),
		remote.WithToken(auth.NewStore(a.cfg.Dir).Token()),
		remote.WithLogger(a.log),
	)
	return reconcile.New(client, userID, reconcile.WithLogger(a.log))
}

// session builds the engine for the configured user and loads the collection.
func (a *App) session(ctx context.Context) (*reconcile.Engine, error) {
	if !a.cfg.HasSession() {
		return nil, reconcile.ErrNoSession
	}
	eng, err := a.newEngine(a.cfg.UserID)
	if err != nil {
		return nil, err
	}
	if err := eng.Load(ctx); err != nil {
		return nil, err
	}
	return eng, nil
}

func runTUI(ctx context.Context, app *App) error {
	if ctx == nil {
		ctx = context.Background()
	}
	return tui.Run(ctx, tui.Options{
		UserID:     app.cfg.UserID,
		NewEngine:  app.newEngine,
		SaveUserID: func(id int) error { return config.SaveUserID(app.cfg.Dir, id) },
		AltScreen:  true,
	})
}
