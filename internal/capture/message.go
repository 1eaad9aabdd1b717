package capture

import (
	"fmt"
	"image"
	"strings"
	"time"

	"unitcam/internal/services"
	"unitcam/internal/services/ocrapi"
)

// StatusKind tells a Display how to present a status.
type StatusKind int

const (
	StatusInfo StatusKind = iota
	StatusSuccess
	StatusError
)

func (k StatusKind) String() string {
	switch k {
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "info"
	}
}

// Status is one user-visible status update.
type Status struct {
	Kind    StatusKind
	State   State
	Lines   []string
	ErrKind services.Kind
}

// Text joins the status lines.
func (s Status) Text() string {
	return strings.Join(s.Lines, "\n")
}

// Display presents status updates and the captured frame.
type Display interface {
	Status(s Status)
	Preview(img image.Image)
}

const (
	capturedHeader = "Captured:"
	skippedHeader  = "Skipped:"
	acceptedPrefix = "✔ "
	skippedPrefix  = "✘ "
	emptyMessage   = "No valid value/unit found. Retrying..."
)

// RenderResult formats a non-empty extraction result: one line per accepted
// pair in input order, then one line per skipped pair with its reason.
func RenderResult(result ocrapi.ExtractionResult) []string {
	lines := make([]string, 0, len(result.Inserted)+len(result.Skipped)+3)
	if len(result.Inserted) > 0 {
		lines = append(lines, capturedHeader)
		for _, item := range result.Inserted {
			lines = append(lines, acceptedPrefix+pair(item.Value.String(), item.Unit))
		}
	}
	if len(result.Skipped) > 0 {
		if len(lines) > 0 {
			lines = append(lines, "")
		}
		lines = append(lines, skippedHeader)
		for _, item := range result.Skipped {
			lines = append(lines, fmt.Sprintf("%s%s — %s", skippedPrefix, pair(item.Value.String(), item.Unit), item.Reason))
		}
	}
	return lines
}


func pair(value, unit string) string {
	return strings.TrimSpace(value + " " + unit)
}

// failureLines renders err for display. Server and transport failures show
// the raw error text; an empty result shows the generic message.
func failureLines(err error) []string {
	switch services.Classify(err) {
	case services.KindEmptyResult:
		return []string{emptyMessage}
	case services.KindDeviceUnavailable:
		return []string{"Camera Failed", services.Message(err)}
	default:
		return []string{services.Message(err)}
	}
}

func retryLine(delay time.Duration, attempt int) string {
	return fmt.Sprintf("Retrying in %s (attempt %d)...", delay.Round(time.Millisecond), attempt)
}

func exhaustedLine(attempts int) string {
	return fmt.Sprintf("Giving up after %d retries. Trigger a capture to try again.", attempts)
}
