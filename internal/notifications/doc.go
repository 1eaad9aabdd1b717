// Package notifications delivers capture events to ntfy.
//
// NewService returns a no-op implementation when no topic is configured, so
// callers publish unconditionally. Payload keys are event specific; missing
// keys render as empty strings.
package notifications
