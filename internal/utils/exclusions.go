package utils

import (
	"strings"
)

// Exclusions holds show titles that never trigger a notification
type Exclusions struct {
	titles []string
}

// NewExclusions parses a comma-separated list of show titles
func NewExclusions(raw string) *Exclusions {
	var titles []string
	for _, title := range strings.Split(raw, ",") {
		title = strings.TrimSpace(title)
		if title != "" {
			titles = append(titles, strings.ToLower(title))
		}
	}
	return &Exclusions{titles: titles}
}

// Match checks if a show title is excluded. Matching is case-insensitive
// on the full title, not a substring match.
func (e *Exclusions) Match(title string) bool {
	if len(e.titles) == 0 || title == "" {
		return false
	}

	lowered := strings.ToLower(title)
	for _, excluded := range e.titles {
		if lowered == excluded {
			return true
		}
	}

	return false
}

// Size returns the number of configured exclusions
func (e *Exclusions) Size() int {
	return len(e.titles)
}
