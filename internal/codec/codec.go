// Package codec embeds and extracts canonical Float ids in Toggl project
// names. All free-text id parsing in the system is confined to this package
// so the rest of the code operates on typed ids.
package codec

import (
	"fmt"
	"regexp"
	"strconv"
)

// Matches the canonical bracket form "[123]" and the legacy parenthesis form
// "(123)" that older synced projects still carry.
var idPattern = regexp.MustCompile(`\((\d+)\)|\[(\d+)\]`)

// Encode produces the display name for a project: "Name [id]".
func Encode(name string, id int64) string {
	return fmt.Sprintf("%s [%d]", name, id)
}

// EncodePhase produces the display name for a phase:
// "Project - Phase [phaseID]".
func EncodePhase(projectName, phaseName string, phaseID int64) string {
	return fmt.Sprintf("%s - %s [%d]", projectName, phaseName, phaseID)
}

// Decode returns the canonical id embedded in a display name. When several
// ids are present the last one wins: the codec always appends the most
// specific id (the phase) after any project id earlier in the string.
// Malformed input yields ok == false, never an error.
func Decode(name string) (int64, bool) {
	matches := idPattern.FindAllStringSubmatch(name, -1)
	if len(matches) == 0 {
		return 0, false
	}
	last := matches[len(matches)-1]
	digits := last[1]
	if digits == "" {
		digits = last[2]
	}
	id, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// Contains reports whether the name carries the given id in canonical
// bracket form.
func Contains(name string, id int64) bool {
	m := idPattern.FindAllStringSubmatch(name, -1)
	for _, sub := range m {
		if sub[2] == "" {
			continue
		}
		if v, err := strconv.ParseInt(sub[2], 10, 64); err == nil && v == id {
			return true
		}
	}
	return false
}
