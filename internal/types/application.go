// Package types provides type definitions for the records shared across the job tracker.
package types

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// Application is one tracked job application.
// Only ID, Company and CurrentStage are expected to be set; nothing here is
// checked for consistency with anything else.
type Application struct {
	ID           string    `json:"id"`
	Company      string    `json:"company"`
	Emoji        string    `json:"emoji,omitempty"`
	CurrentStage Stage     `json:"currentStage"`
	RoundType    RoundType `json:"roundType,omitempty"`
	Position     string    `json:"position,omitempty"`
	Team         string    `json:"team,omitempty"`
	AppliedDate  string    `json:"appliedDate,omitempty"`  // ISO date
	OfferedDate  string    `json:"offeredDate,omitempty"`  // ISO date
	DueDate      string    `json:"dueDate,omitempty"`      // ISO date for next step
	FinalVerdict Verdict   `json:"finalVerdict,omitempty"` // empty means pending
	Notes        string    `json:"notes,omitempty"`
}

// Title returns "Company – Position", or just the company when no position is set.
func (a Application) Title() string {
	if a.Position == "" {
		return a.Company
	}
	return a.Company + " – " + a.Position
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// NewApplicationID derives an id from the company name plus a random suffix.
func NewApplicationID(company string) string {
	slug := whitespaceRun.ReplaceAllString(strings.ToLower(strings.TrimSpace(company)), "-")
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	if slug == "" {
		return suffix
	}
	return slug + "-" + suffix
}

// CloneApplications returns a shallow copy of the list.
func CloneApplications(apps []Application) []Application {
	out := make([]Application, len(apps))
	copy(out, apps)
	return out
}
