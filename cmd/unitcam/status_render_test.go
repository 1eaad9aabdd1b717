package main

import (
	"strings"
	"testing"

	"unitcam/internal/capture"
)

func TestRenderStatusNoColor(t *testing.T) {
	got := renderStatus(capture.Status{
		Kind:  capture.StatusSuccess,
		State: capture.StateIdle,
		Lines: []string{"Captured:", "✔ 5 kg", "", "Skipped:"},
	}, false)
	want := []string{"[idle]", "  Captured:", "  ✔ 5 kg", "", "  Skipped:"}
	if strings.Join(got, "\n") != strings.Join(want, "\n") {
		t.Fatalf("renderStatus mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestRenderStatusWithColor(t *testing.T) {
	got := renderStatus(capture.Status{
		Kind:  capture.StatusError,
		State: capture.StateRetryScheduled,
		Lines: []string{"server exploded", ""},
	}, true)
	for _, line := range got {
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, ansiRed) || !strings.HasSuffix(line, ansiReset) {
			t.Fatalf("expected red line, got %q", line)
		}
	}
	if got[len(got)-1] != "" {
		t.Fatalf("expected blank line to stay uncolored, got %q", got[len(got)-1])
	}
}

func TestRenderTableFillsBlankCells(t *testing.T) {
	out := renderTable([]string{"A", "B"}, [][]string{{"x"}, {"y", " "}}, []columnAlignment{alignLeft, alignRight})
	if strings.Count(out, emptyCell) < 2 {
		t.Fatalf("expected placeholders for blank cells:\n%s", out)
	}
}
