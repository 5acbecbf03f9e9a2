package cli

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/Makepad-fr/tada/internal/server"
	"github.com/Makepad-fr/tada/internal/store"
	"github.com/Makepad-fr/tada/internal/store/jsonstore"
	"github.com/Makepad-fr/tada/internal/store/sqlitestore"
)

func newServeCmd(app *App) *cobra.Command {
	var (
		addr     string
		backend  string
		dbPath   string
		latency  time.Duration
		failRate float64
		spare    bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a development todo API",
		Long: "Serve GET/POST /todos and PATCH/DELETE /todos/{id} backed by a local store.\n" +
			"--latency and --fail-rate make loaders and rollbacks visible in the client.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if failRate < 0 || failRate > 1 {
				return usagef("--fail-rate must be within [0,1], got %g", failRate)
			}
			st, err := openStore(backend, dbPath, app.cfg.Dir)
			if err != nil {
				return err
			}
			defer st.Close()

			srv := server.New(st, server.Options{Latency: latency, FailRate: failRate, SpareReads: spare, Logger: app.log})
			fmt.Fprintf(cmd.ErrOrStderr(), "tada dev server at http://%s (store=%s)\n", addr, backend)
			return srv.Serve(cmd.Context(), addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:3335", "Bind address")
	cmd.Flags().StringVar(&backend, "store", "sqlite", "Store backend (sqlite|json|memory)")
	cmd.Flags().StringVar(&dbPath, "db", "", "Store file (default in the config dir)")
	cmd.Flags().DurationVar(&latency, "latency", 0, "Delay added to every API response")
	cmd.Flags().Float64Var(&failRate, "fail-rate", 0, "Probability that an API request fails with 500")
	cmd.Flags().BoolVar(&spare, "spare-reads", false, "Never inject failures into GET /todos")
	return cmd
}

func openStore(backend, path, dir string) (store.Store, error) {
	switch backend {
	case "memory":
		return store.NewMemory(), nil
	case "json":
		if path == "" {
			path = filepath.Join(dir, "server.json")
		}
		return jsonstore.Open(path)
	case "sqlite":
		if path == "" {
			path = filepath.Join(dir, "server.db")
		}
		return sqlitestore.Open(path)
	}
	return nil, usagef("unknown store %q (want sqlite|json|memory)", backend)
}
