package logs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

const (
	defaultPollInterval = 250 * time.Millisecond
	maxLineBytes        = 1024 * 1024
)

// Tailer reads a single log file. A missing file reads as empty.
type Tailer struct {
	path string
	poll time.Duration
}

// NewTailer returns a tailer for path.
func NewTailer(path string) *Tailer {
	return &Tailer{path: path, poll: defaultPollInterval}
}

// Last returns up to n trailing lines and the offset just past them.
func (t *Tailer) Last(n int) ([]string, int64, error) {
	file, size, err := t.open()
	if err != nil || file == nil {
		return nil, 0, err
	}
	defer file.Close()
	if n <= 0 {
		return nil, size, nil
	}

	ring := make([]string, n)
	count, next := 0, 0
	scanner := newScanner(file)
	for scanner.Scan() {
		ring[next] = scanner.Text()
		next = (next + 1) % n
		if count < n {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, fmt.Errorf("read log file: %w", err)
	}

	lines := make([]string, 0, count)
	start := 0
	if count == n {
		start = next
	}
	for i := 0; i < count; i++ {
		lines = append(lines, ring[(start+i)%n])
	}
	return lines, size, nil
}

// ReadFrom returns the complete lines written after offset. An offset past
// the end of the file means it was truncated; reading restarts at zero.
func (t *Tailer) ReadFrom(offset int64) ([]string, int64, error) {
	file, size, err := t.open()
	if err != nil || file == nil {
		return nil, 0, err
	}
	defer file.Close()
	if offset < 0 || offset > size {
		offset = 0
	}
	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return nil, offset, fmt.Errorf("seek log file: %w", err)
	}

	reader := bufio.NewReader(file)
	var lines []string
	for {
		line, err := reader.ReadString('\n')
		if errors.Is(err, io.EOF) {
			// a partial trailing line is picked up on the next read
			break
		}
		if err != nil {
			return lines, offset, fmt.Errorf("read log file: %w", err)
		}
		offset += int64(len(line))
		lines = append(lines, line[:len(line)-1])
	}
	return lines, offset, nil
}

// Follow calls fn for every line appended after offset until ctx is done.
func (t *Tailer) Follow(ctx context.Context, offset int64, fn func(line string)) error {
	ticker := time.NewTicker(t.poll)
	defer ticker.Stop()
	for {
		lines, next, err := t.ReadFrom(offset)
		if err != nil {
			return err
		}
		offset = next
		for _, line := range lines {
			fn(line)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (t *Tailer) open() (*os.File, int64, error) {
	file, err := os.Open(t.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("open log file: %w", err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, 0, fmt.Errorf("stat log file: %w", err)
	}
	if info.IsDir() {
		file.Close()
		return nil, 0, fmt.Errorf("log path %q is a directory", t.path)
	}
	return file, info.Size(), nil
}

func newScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	return scanner
}
