package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"

	"github.com/Makepad-fr/tada/internal/logging"
	"github.com/Makepad-fr/tada/internal/model"
	"github.com/Makepad-fr/tada/internal/server"
	"github.com/Makepad-fr/tada/internal/store"
)

type env struct {
	t      *testing.T
	dir    string
	st     store.Store
	apiURL string
}

func newEnv(t *testing.T, opts server.Options) *env {
	t.Helper()
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	t.Setenv("TADA_TOKEN", "")
	e := &env{t: t, dir: t.TempDir(), st: store.NewMemory()}
	e.apiURL = e.serve(opts)
	return e
}

// serve starts another dev server over the env's store.
func (e *env) serve(opts server.Options) string {
	e.t.Helper()
	opts.Logger = logging.Discard()
	srv := httptest.NewServer(server.New(e.st, opts).Handler())
	e.t.Cleanup(srv.Close)
	return srv.URL
}

// run executes tada with the env's config dir and API; pass --user explicitly.
func (e *env) run(args ...string) (code int, stdout, stderr string) {
	e.t.Helper()
	var out, errb bytes.Buffer
	full := append([]string{"--config-dir", e.dir, "--api-url", e.apiURL}, args...)
	code = Main(context.Background(), full, &out, &errb)
	return code, out.String(), errb.String()
}

func (e *env) mustRun(args ...string) string {
	e.t.Helper()
	code, out, errOut := e.run(args...)
	if code != 0 {
		e.t.Fatalf("tada %v: exit %d\nstdout: %s\nstderr: %s", args, code, out, errOut)
	}
	return out
}

func (e *env) list(args ...string) []model.Item {
	e.t.Helper()
	out := e.mustRun(append([]string{"--user", "1", "ls", "-o", "json"}, args...)...)
	var items []model.Item
	if err := json.Unmarshal([]byte(out), &items); err != nil {
		e.t.Fatalf("decode ls output %q: %v", out, err)
	}
	return items
}

func TestAddListToggle(t *testing.T) {
	e := newEnv(t, server.Options{})
	if out := e.mustRun("--user", "1", "add", "Buy", "milk"); !strings.Contains(out, "added #1") {
		t.Fatalf("add output = %q", out)
	}
	e.mustRun("--user", "1", "add", "Walk dog")
	e.mustRun("--user", "1", "done", "1")

	want := []model.Item{
		{ID: 1, Title: "Buy milk", Completed: true, UserID: 1},
		{ID: 2, Title: "Walk dog", UserID: 1},
	}
	if diff := cmp.Diff(want, e.list()); diff != "" {
		t.Fatalf("ls (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want[1:], e.list("--filter", "active")); diff != "" {
		t.Fatalf("ls active (-want +got):\n%s", diff)
	}

	// Other users see nothing.
	out := e.mustRun("--user", "2", "ls", "-o", "json")
	if strings.TrimSpace(out) != "[]" {
		t.Fatalf("user 2 sees %s", out)
	}
}

func TestListTextAndYAML(t *testing.T) {
	e := newEnv(t, server.Options{})
	e.mustRun("--user", "1", "add", "one")
	e.mustRun("--user", "1", "add", "two")
	e.mustRun("--user", "1", "done", "2")

	text := e.mustRun("--user", "1", "ls", "--group")
	for _, want := range []string{"#1", "one", "two", "Active", "Completed", "1 item left", "["} {
		if !strings.Contains(text, want) {
			t.Errorf("text output missing %q:\n%s", want, text)
		}
	}

	var items []model.Item
	if err := yaml.Unmarshal([]byte(e.mustRun("--user", "1", "ls", "--filter", "completed", "-o", "yaml")), &items); err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 || items[0].Title != "two" {
		t.Fatalf("yaml items = %+v", items)
	}
}

func TestEdit(t *testing.T) {
	e := newEnv(t, server.Options{})
	e.mustRun("--user", "1", "add", "old")
	e.mustRun("--user", "1", "add", "other")

	e.mustRun("--user", "1", "edit", "1", "new", "title")
	if got := e.list()[0].Title; got != "new title" {
		t.Fatalf("title = %q", got)
	}
	if out := e.mustRun("--user", "1", "edit", "1", "  new title "); !strings.Contains(out, "unchanged") {
		t.Fatalf("unchanged edit output = %q", out)
	}

	// An empty title deletes.
	e.mustRun("--user", "1", "edit", "1")
	items := e.list()
	if len(items) != 1 || items[0].Title != "other" {
		t.Fatalf("items = %+v", items)
	}
}

func TestBulkCommands(t *testing.T) {
	e := newEnv(t, server.Options{})
	for _, title := range []string{"a", "b", "c"} {
		e.mustRun("--user", "1", "add", title)
	}
	e.mustRun("--user", "1", "toggle-all")
	for _, it := range e.list() {
		if !it.Completed {
			t.Fatalf("%+v not completed", it)
		}
	}
	e.mustRun("--user", "1", "toggle-all")
	for _, it := range e.list() {
		if it.Completed {
			t.Fatalf("%+v still completed", it)
		}
	}

	e.mustRun("--user", "1", "done", "2")
	if out := e.mustRun("--user", "1", "clear-completed"); !strings.Contains(out, "cleared 1 of 1") {
		t.Fatalf("clear output = %q", out)
	}
	if n := len(e.list()); n != 2 {
		t.Fatalf("%d items left", n)
	}
}

func TestErrors(t *testing.T) {
	e := newEnv(t, server.Options{})
	cases := []struct {
		name string
		args []string
		code int
		msg  string
	}{
		{"no session", []string{"ls"}, 1, "no user id configured"},
		{"bad id", []string{"--user", "1", "rm", "abc"}, 2, "not a todo id"},
		{"missing", []string{"--user", "1", "rm", "99"}, 1, "todo not found: #99"},
		{"empty title", []string{"--user", "1", "add", "  "}, 1, "Title should not be empty"},
		{"bad filter", []string{"--user", "1", "ls", "--filter", "soon"}, 2, "unknown filter"},
		{"bad flag", []string{"ls", "--nope"}, 2, "unknown flag"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code, _, stderr := e.run(tc.args...)
			if code != tc.code {
				t.Fatalf("exit = %d, want %d (stderr %q)", code, tc.code, stderr)
			}
			if !strings.Contains(stderr, tc.msg) {
				t.Fatalf("stderr %q does not contain %q", stderr, tc.msg)
			}
		})
	}
}

func TestServerFailureSurfacesMessage(t *testing.T) {
	e := newEnv(t, server.Options{FailRate: 1})
	code, _, stderr := e.run("--user", "1", "ls")
	if code != 1 || !strings.Contains(stderr, "Unable to load todos") {
		t.Fatalf("exit %d stderr %q", code, stderr)
	}
}

func TestConfigAndAuth(t *testing.T) {
	e := newEnv(t, server.Options{})
	e.mustRun("config", "set-user", "7")
	if out := e.mustRun("auth", "whoami"); !strings.Contains(out, "user: 7") {
		t.Fatalf("whoami = %q", out)
	}
	// The saved user is picked up without --user.
	e.mustRun("add", "from config")
	if out := e.mustRun("--user", "7", "ls", "-o", "json"); !strings.Contains(out, "from config") {
		t.Fatalf("ls = %q", out)
	}

	if out := e.mustRun("auth", "status"); !strings.Contains(out, "not logged in") {
		t.Fatalf("status = %q", out)
	}
	e.mustRun("auth", "login", "abcd1234efgh5678")
	out := e.mustRun("auth", "status")
	if !strings.Contains(out, "abcd****5678") || strings.Contains(out, "1234efgh") {
		t.Fatalf("status = %q", out)
	}
	// Requests still succeed with a token attached.
	e.mustRun("ls")
	e.mustRun("auth", "logout")
	if out := e.mustRun("auth", "status"); !strings.Contains(out, "not logged in") {
		t.Fatalf("status after logout = %q", out)
	}
}

func TestBulkFailureReportsOnStderr(t *testing.T) {
	e := newEnv(t, server.Options{})
	e.mustRun("--user", "1", "add", "a")
	e.mustRun("--user", "1", "add", "b")
	e.mustRun("--user", "1", "toggle-all")

	flaky := e.serve(server.Options{FailRate: 1, SpareReads: true})
	for _, args := range [][]string{{"clear-completed"}, {"toggle-all"}} {
		var out, errb bytes.Buffer
		full := append([]string{"--config-dir", e.dir, "--api-url", flaky, "--user", "1"}, args...)
		code := Main(context.Background(), full, &out, &errb)
		if code != 1 {
			t.Fatalf("%v: exit %d", args, code)
		}
		if out.Len() != 0 {
			t.Errorf("%v: success output on failure: %q", args, out.String())
		}
		if !strings.Contains(errb.String(), "Unable to") {
			t.Errorf("%v: stderr = %q", args, errb.String())
		}
	}
	if n := len(e.list()); n != 2 {
		t.Fatalf("%d items after failed bulk ops", n)
	}
}
