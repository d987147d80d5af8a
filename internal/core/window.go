package core

import (
	"fmt"
	"strings"
	"time"
)

// Named time window presets accepted alongside explicit from/to ranges.
const (
	WindowLast7Days  WindowPreset = "last-7-days"
	WindowLast30Days WindowPreset = "last-30-days"
	WindowLastMonth  WindowPreset = "last-month"
	WindowLast3M     WindowPreset = "last-3-months"
	WindowLastQ      WindowPreset = "last-quarter"
	WindowLastYear   WindowPreset = "last-year"
)

type WindowPreset string

// TimeWindow is a half-open [From, To) range used to select records.
type TimeWindow struct {
	From time.Time
	To   time.Time
}

// ResolvePreset builds a TimeWindow ending at now from a named preset.
func ResolvePreset(preset WindowPreset, now time.Time) (TimeWindow, error) {
	switch WindowPreset(strings.ToLower(string(preset))) {
	case WindowLast7Days:
		return TimeWindow{From: now.AddDate(0, 0, -7), To: now}, nil
	case WindowLast30Days, WindowLastMonth:
		return TimeWindow{From: now.AddDate(0, 0, -30), To: now}, nil
	case WindowLast3M, WindowLastQ:
		return TimeWindow{From: now.AddDate(0, -3, 0), To: now}, nil
	case WindowLastYear:
		return TimeWindow{From: now.AddDate(-1, 0, 0), To: now}, nil
	default:
		return TimeWindow{}, fmt.Errorf("unknown window preset %q", preset)
	}
}

// Contains reports whether t falls inside the window. A zero From or To
// leaves that side unbounded.
func (w TimeWindow) Contains(t time.Time) bool {
	if t.IsZero() {
		return false
	}
	if !w.From.IsZero() && t.Before(w.From) {
		return false
	}
	if !w.To.IsZero() && !t.Before(w.To) {
		return false
	}
	return true
}

// IsZero reports whether the window is unbounded on both sides.
func (w TimeWindow) IsZero() bool {
	return w.From.IsZero() && w.To.IsZero()
}

// Months returns the window length in whole months, at least 1, used for
// burn-rate style monthly rates.
func (w TimeWindow) Months() int {
	if w.From.IsZero() || w.To.IsZero() || !w.From.Before(w.To) {
		return 1
	}
	months := (w.To.Year()-w.From.Year())*12 + int(w.To.Month()) - int(w.From.Month())
	if months < 1 {
		return 1
	}
	return months
}

// WorkspaceScope is the ordered set of workspace ids a computation spans.
// Single-element for normal use, multi-element for consolidated views.
type WorkspaceScope []string

// NewWorkspaceScope builds a scope preserving order and dropping blanks
// and duplicates.
func NewWorkspaceScope(ids ...string) WorkspaceScope {
	seen := make(map[string]struct{}, len(ids))
	out := make(WorkspaceScope, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// String renders the scope as a stable cache-key fragment.
func (s WorkspaceScope) String() string {
	return strings.Join(s, ",")
}
