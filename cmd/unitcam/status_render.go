package main

import (
	"fmt"
	"image"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"

	"unitcam/internal/camera"
	"unitcam/internal/capture"
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

const statusIndent = "  "

func statusKindColor(kind capture.StatusKind) string {
	switch kind {
	case capture.StatusSuccess:
		return ansiGreen
	case capture.StatusError:
		return ansiRed
	case capture.StatusInfo:
		return ansiBlue
	default:
		return ""
	}
}

// renderStatus formats one capture status as a bracketed state label followed
// by the indented status lines.
func renderStatus(s capture.Status, colorize bool) []string {
	label := fmt.Sprintf("[%s]", s.State)
	lines := make([]string, 0, len(s.Lines)+1)
	lines = append(lines, label)
	for _, line := range s.Lines {
		if line == "" {
			lines = append(lines, "")
			continue
		}
		lines = append(lines, statusIndent+line)
	}
	if colorize {
		if color := statusKindColor(s.Kind); color != "" {
			for i, line := range lines {
				if line != "" {
					lines[i] = color + line + ansiReset
				}
			}
		}
	}
	return lines
}

func renderSectionHeader(title string, colorize bool) []string {
	line := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	rule := strings.Repeat("-", len(line))
	if colorize {
		line = ansiBlue + line + ansiReset
		rule = ansiBlue + rule + ansiReset
	}
	return []string{line, rule}
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// terminalDisplay prints capture status updates and camera changes. It
// implements capture.Display and camera.Sink.
type terminalDisplay struct {
	mu       sync.Mutex
	out      io.Writer
	colorize bool
}

func newTerminalDisplay(out io.Writer) *terminalDisplay {
	return &terminalDisplay{out: out, colorize: shouldColorize(out)}
}

func (d *terminalDisplay) Status(s capture.Status) {
	d.writeLines(renderStatus(s, d.colorize))
}

func (d *terminalDisplay) Preview(img image.Image) {
	if img == nil {
		return
	}
	b := img.Bounds()
	d.writeLines([]string{fmt.Sprintf("%sFrame captured (%dx%d)", statusIndent, b.Dx(), b.Dy())})
}

func (d *terminalDisplay) Attach(stream camera.Stream) {
	line := fmt.Sprintf("Camera: %s", stream.Device())
	if d.colorize {
		line = ansiYellow + line + ansiReset
	}
	d.writeLines([]string{line})
}

func (d *terminalDisplay) Detach() {}

func (d *terminalDisplay) writeLines(lines []string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, line := range lines {
		fmt.Fprintln(d.out, line)
	}
}
