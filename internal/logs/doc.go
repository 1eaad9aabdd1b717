// Package logs reads the unitcam log file with bounded memory: the last N
// lines, lines appended after an offset, and a polling follow mode used by
// `unitcam logs --follow`.
package logs
