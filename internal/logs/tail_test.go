package logs_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"unitcam/internal/logs"
)

func writeLog(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
}

func appendLog(t *testing.T, path, content string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open append: %v", err)
	}
	defer f.Close()
	if _, err := f.WriteString(content); err != nil {
		t.Fatalf("append log: %v", err)
	}
}

func TestLastLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "unitcam.log")
	writeLog(t, path, "a\nb\nc\n")

	lines, offset, err := logs.NewTailer(path).Last(2)
	if err != nil {
		t.Fatalf("Last: %v", err)
	}
	if strings.Join(lines, ",") != "b,c" {
		t.Fatalf("unexpected lines: %#v", lines)
	}
	if offset != 6 {
		t.Fatalf("expected offset 6, got %d", offset)
	}

	lines, _, err = logs.NewTailer(path).Last(10)
	if err != nil || len(lines) != 3 {
		t.Fatalf("expected all 3 lines, got %#v (err=%v)", lines, err)
	}
}

func TestMissingFileReadsEmpty(t *testing.T) {
	tailer := logs.NewTailer(filepath.Join(t.TempDir(), "missing.log"))
	lines, offset, err := tailer.Last(5)
	if err != nil || len(lines) != 0 || offset != 0 {
		t.Fatalf("expected empty read, got %#v offset=%d err=%v", lines, offset, err)
	}
}

func TestReadFromSkipsPartialLineAndHandlesTruncation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "unitcam.log")
	writeLog(t, path, "one\n")
	tailer := logs.NewTailer(path)
	_, offset, err := tailer.Last(1)
	if err != nil {
		t.Fatalf("Last: %v", err)
	}

	appendLog(t, path, "two\nthr")
	lines, next, err := tailer.ReadFrom(offset)
	if err != nil {
		t.Fatalf("ReadFrom: %v", err)
	}
	if strings.Join(lines, ",") != "two" || next != offset+4 {
		t.Fatalf("unexpected read %#v next=%d", lines, next)
	}

	writeLog(t, path, "new\n")
	lines, _, err = tailer.ReadFrom(next)
	if err != nil {
		t.Fatalf("ReadFrom after truncate: %v", err)
	}
	if strings.Join(lines, ",") != "new" {
		t.Fatalf("expected restart after truncation, got %#v", lines)
	}
}

func TestFollowDeliversAppendedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "unitcam.log")
	writeLog(t, path, "start\n")
	tailer := logs.NewTailer(path)
	_, offset, err := tailer.Last(1)
	if err != nil {
		t.Fatalf("Last: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var got []string
	done := make(chan error, 1)
	go func() {
		done <- tailer.Follow(ctx, offset, func(line string) {
			mu.Lock()
			got = append(got, line)
			mu.Unlock()
		})
	}()

	appendLog(t, path, "later\n")
	deadline := time.Now().Add(5 * time.Second)
	for {
		mu.Lock()
		n := len(got)
		mu.Unlock()
		if n > 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("follow did not deliver appended line")
		}
		time.Sleep(20 * time.Millisecond)
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Follow returned %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(got) != 1 || got[0] != "later" {
		t.Fatalf("unexpected follow lines %#v", got)
	}
}
