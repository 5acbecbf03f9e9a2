package ui

import (
	"bytes"
	"strings"
	"testing"
)

func TestProgressBar(t *testing.T) {
	cases := []struct {
		done, total, width int
		want               string
	}{
		{0, 4, 4, "[░░░░] 0/4"},
		{2, 4, 4, "[██░░] 2/4"},
		{4, 4, 4, "[████] 4/4"},
		{0, 0, 2, "[░░] 0/1"},
	}
	for _, tc := range cases {
		if got := ProgressBar(tc.done, tc.total, tc.width); got != tc.want {
			t.Errorf("ProgressBar(%d,%d,%d) = %q, want %q", tc.done, tc.total, tc.width, got, tc.want)
		}
	}
}

func TestItemsLeft(t *testing.T) {
	if got := ItemsLeft(1); got != "1 item left" {
		t.Errorf("ItemsLeft(1) = %q", got)
	}
	if got := ItemsLeft(3); got != "3 items left" {
		t.Errorf("ItemsLeft(3) = %q", got)
	}
}

func TestSetTheme(t *testing.T) {
	defer SetTheme("classic")

	SetTheme("mono")
	if Current().BoxChecked != "[x]" {
		t.Fatalf("mono theme not applied: %+v", Current().BoxChecked)
	}
	SetTheme("NEON")
	if Current().Name != "neon" {
		t.Fatalf("theme = %q", Current().Name)
	}
	SetTheme("unknown")
	if Current().Name != "classic" {
		t.Fatalf("unknown names fall back to classic, got %q", Current().Name)
	}
}

func TestPanelContainsLines(t *testing.T) {
	var buf bytes.Buffer
	Panel(&buf, []string{"first", "second"})
	out := buf.String()
	if !strings.Contains(out, "first") || !strings.Contains(out, "second") {
		t.Fatalf("panel output missing lines:\n%s", out)
	}
}

func TestStatusLines(t *testing.T) {
	var out bytes.Buffer
	OK(&out, "added")
	Fail(&out, "nope")
	Hint(&out, "try again")
	got := out.String()
	for _, want := range []string{Current().SymDone + " added", "✖ nope", "try again"} {
		if !strings.Contains(got, want) {
			t.Errorf("output %q missing %q", got, want)
		}
	}
}
