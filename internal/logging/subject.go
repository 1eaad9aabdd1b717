package logging

import "strings"

// FormatSubject builds the component/cycle subject used in console output. Cycle
// identifiers are shortened to their first eight characters.
func FormatSubject(component, cycleID string) string {
	component = strings.TrimSpace(component)
	cycleID = strings.TrimSpace(cycleID)
	if len(cycleID) > 8 {
		cycleID = cycleID[:8]
	}
	switch {
	case component != "" && cycleID != "":
		return component + " · cycle " + cycleID
	case cycleID != "":
		return "cycle " + cycleID
	default:
		return component
	}
}
