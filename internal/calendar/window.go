package calendar

import (
	"fmt"
	"time"
)

// ViewMode selects the span of a calendar window.
type ViewMode string

const (
	ViewMonth ViewMode = "month"
	ViewWeek  ViewMode = "week"
)

// ParseViewMode validates a view mode. An empty value means ViewMonth.
func ParseViewMode(s string) (ViewMode, error) {
	switch ViewMode(s) {
	case "", ViewMonth:
		return ViewMonth, nil
	case ViewWeek:
		return ViewWeek, nil
	}
	return "", fmt.Errorf("unknown view mode %q", s)
}

// Window is an inclusive range of calendar days.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// startOfWeek returns the Monday of d's week.
func startOfWeek(d time.Time) time.Time {
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}

// WeekWindow returns Monday through Sunday of the anchor's week.
func WeekWindow(anchor time.Time) Window {
	start := startOfWeek(Day(anchor, anchor.Location()))
	return Window{Start: start, End: start.AddDate(0, 0, 6)}
}

// MonthWindow returns the anchor's month padded with leading and trailing days so
// that it starts on a Monday and ends on a Sunday.
func MonthWindow(anchor time.Time) Window {
	loc := anchor.Location()
	first := time.Date(anchor.Year(), anchor.Month(), 1, 0, 0, 0, 0, loc)
	last := first.AddDate(0, 1, -1)
	start := startOfWeek(first)
	end := startOfWeek(last).AddDate(0, 0, 6)
	return Window{Start: start, End: end}
}

// WindowFor returns the window of mode around anchor.
func WindowFor(mode ViewMode, anchor time.Time) Window {
	if mode == ViewWeek {
		return WeekWindow(anchor)
	}
	return MonthWindow(anchor)
}

// Contains reports whether t falls on one of the window's days.
func (w Window) Contains(t time.Time) bool {
	d := Day(t, w.Start.Location())
	return !d.Before(w.Start) && !d.After(w.End)
}

// Days returns every day of the window in order.
func (w Window) Days() []time.Time {
	var days []time.Time
	for d := w.Start; !d.After(w.End); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// MatchesType reports whether e passes the type filter.
func MatchesType(e Event, t EventType) bool {
	return t == TypeAll || t == "" || e.Type == t
}

// Filter returns the events of type t that fall inside w, preserving order.
func Filter(events []Event, t EventType, w Window) []Event {
	out := make([]Event, 0, len(events))
	for _, e := range events {
		if MatchesType(e, t) && w.Contains(e.Date) {
			out = append(out, e)
		}
	}
	return out
}

// FilterType returns the events of type t, preserving order.
func FilterType(events []Event, t EventType) []Event {
	out := make([]Event, 0, len(events))
	for _, e := range events {
		if MatchesType(e, t) {
			out = append(out, e)
		}
	}
	return out
}
