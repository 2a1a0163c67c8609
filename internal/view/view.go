// Package view derives display copies of the application list: search,
// column sort, and the stage, verdict and due-date groupings. Nothing here
// changes the canonical list.
package view

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jonathan/job-tracker/internal/types"
)

// Column is a sortable field.
type Column string

const (
	ColumnCompany      Column = "company"
	ColumnCurrentStage Column = "currentStage"
	ColumnRoundType    Column = "roundType"
	ColumnAppliedDate  Column = "appliedDate"
	ColumnOfferedDate  Column = "offeredDate"
	ColumnFinalVerdict Column = "finalVerdict"
)

// Direction is a sort direction.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Due-date group keys.
const (
	DueUpcoming = "Upcoming"
	DuePast     = "Past"
	DueNone     = "No Due Date"
)

// Group is one labelled section of a grouped view.
type Group struct {
	Key          string              `json:"key"`
	Color        string              `json:"color"`
	Applications []types.Application `json:"applications"`
}

// ParseColumn validates a column name. Empty means company.
func ParseColumn(s string) (Column, error) {
	switch c := Column(s); c {
	case "":
		return ColumnCompany, nil
	case ColumnCompany, ColumnCurrentStage, ColumnRoundType, ColumnAppliedDate, ColumnOfferedDate, ColumnFinalVerdict:
		return c, nil
	}
	return "", fmt.Errorf("unknown sort column %q", s)
}

// ParseDirection validates a direction. Empty means ascending.
func ParseDirection(s string) (Direction, error) {
	switch d := Direction(strings.ToLower(s)); d {
	case "":
		return Asc, nil
	case Asc, Desc:
		return d, nil
	}
	return "", fmt.Errorf("unknown sort direction %q", s)
}

// Filter returns the records whose company, position, stage or verdict
// contains query, ignoring case. An empty query matches everything.
func Filter(apps []types.Application, query string) []types.Application {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return types.CloneApplications(apps)
	}

	out := make([]types.Application, 0, len(apps))
	for _, a := range apps {
		if contains(a.Company, q) ||
			contains(a.Position, q) ||
			contains(string(a.CurrentStage), q) ||
			contains(string(a.FinalVerdict), q) {
			out = append(out, a)
		}
	}
	return out
}

func contains(field, q string) bool {
	return strings.Contains(strings.ToLower(field), q)
}

// Sort returns a sorted copy. Date columns compare parsed dates with
// missing or unparsable dates first; other columns compare text.
func Sort(apps []types.Application, column Column, dir Direction) []types.Application {
	out := types.CloneApplications(apps)
	sort.SliceStable(out, func(i, j int) bool {
		cmp := compare(out[i], out[j], column)
		if dir == Desc {
			return cmp > 0
		}
		return cmp < 0
	})
	return out
}

func compare(a, b types.Application, column Column) int {
	switch column {
	case ColumnAppliedDate:
		return compareDates(a.AppliedDate, b.AppliedDate)
	case ColumnOfferedDate:
		return compareDates(a.OfferedDate, b.OfferedDate)
	}
	return strings.Compare(strings.ToLower(field(a, column)), strings.ToLower(field(b, column)))
}

func field(a types.Application, column Column) string {
	switch column {
	case ColumnCurrentStage:
		return string(a.CurrentStage)
	case ColumnRoundType:
		return string(a.RoundType)
	case ColumnFinalVerdict:
		return string(a.FinalVerdict)
	default:
		return a.Company
	}
}

func compareDates(a, b string) int {
	at, bt := dateMillis(a), dateMillis(b)
	switch {
	case at < bt:
		return -1
	case at > bt:
		return 1
	}
	return 0
}

func dateMillis(s string) int64 {
	t, ok := parseDate(s)
	if !ok {
		return 0
	}
	return t.UnixMilli()
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339, "2006-01-02T15:04:05", "2006-01-02T15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// GroupByStage groups by current stage: recognized stages in pipeline
// order, then unrecognized stages in the order they first appear.
func GroupByStage(apps []types.Application) []Group {
	buckets, seen := bucket(apps, func(a types.Application) string { return string(a.CurrentStage) })

	keys := make([]string, 0, len(buckets))
	for _, s := range types.StageOrder {
		if _, ok := buckets[string(s)]; ok {
			keys = append(keys, string(s))
		}
	}
	for _, k := range seen {
		if _, ranked := types.Stage(k).Rank(); !ranked {
			keys = append(keys, k)
		}
	}

	groups := make([]Group, 0, len(keys))
	for _, k := range keys {
		groups = append(groups, Group{Key: k, Color: types.Stage(k).Color(), Applications: buckets[k]})
	}
	return groups
}

// GroupByVerdict groups by final verdict, an empty verdict counting as
// Pending. Recognized verdicts come first in their fixed order.
func GroupByVerdict(apps []types.Application) []Group {
	buckets, seen := bucket(apps, func(a types.Application) string { return string(a.FinalVerdict.Display()) })

	keys := make([]string, 0, len(buckets))
	known := make(map[string]bool, len(types.VerdictOrder))
	for _, v := range types.VerdictOrder {
		known[string(v)] = true
		if _, ok := buckets[string(v)]; ok {
			keys = append(keys, string(v))
		}
	}
	for _, k := range seen {
		if !known[k] {
			keys = append(keys, k)
		}
	}

	groups := make([]Group, 0, len(keys))
	for _, k := range keys {
		groups = append(groups, Group{Key: k, Color: types.Verdict(k).Color(), Applications: buckets[k]})
	}
	return groups
}

// GroupByDue splits records into Upcoming (due at or after now), Past, and
// No Due Date. All three groups are always present. An unparsable due date
// counts as past.
func GroupByDue(apps []types.Application, now time.Time) []Group {
	upcoming := []types.Application{}
	past := []types.Application{}
	none := []types.Application{}

	for _, a := range apps {
		if strings.TrimSpace(a.DueDate) == "" {
			none = append(none, a)
			continue
		}
		if due, ok := parseDate(a.DueDate); ok && !due.Before(now) {
			upcoming = append(upcoming, a)
		} else {
			past = append(past, a)
		}
	}

	return []Group{
		{Key: DueUpcoming, Color: "green", Applications: upcoming},
		{Key: DuePast, Color: "purple", Applications: past},
		{Key: DueNone, Color: "gray", Applications: none},
	}
}

func bucket(apps []types.Application, key func(types.Application) string) (map[string][]types.Application, []string) {
	buckets := make(map[string][]types.Application)
	var seen []string
	for _, a := range apps {
		k := key(a)
		if _, ok := buckets[k]; !ok {
			seen = append(seen, k)
		}
		buckets[k] = append(buckets[k], a)
	}
	return buckets, seen
}
