package calendar

import "time"

// DayKeyLayout formats the key of a calendar day.
const DayKeyLayout = "2006-01-02"

// Badge caps per cell.
const (
	MonthBadgeLimit = 2
	WeekBadgeLimit  = 5
)

// DayKey returns the YYYY-MM-DD key of t in its own location.
func DayKey(t time.Time) string {
	return t.Format(DayKeyLayout)
}

// GroupByDay buckets events by day key, keeping the input order within each day.
func GroupByDay(events []Event) map[string][]Event {
	groups := make(map[string][]Event)
	for _, e := range events {
		key := DayKey(e.Date)
		groups[key] = append(groups[key], e)
	}
	return groups
}

// Cell is one day of a rendered grid.
type Cell struct {
	Key     string    `json:"key"`
	Date    time.Time `json:"date"`
	InMonth bool      `json:"in_month"`
	Today   bool      `json:"today"`
	Events  []Event   `json:"events"`
	More    int       `json:"more"`
}

// BadgeLimit returns how many events a cell shows before collapsing into "+N".
func BadgeLimit(mode ViewMode) int {
	if mode == ViewWeek {
		return WeekBadgeLimit
	}
	return MonthBadgeLimit
}

// View is a computed calendar page.
type View struct {
	Mode   ViewMode           `json:"mode"`
	Anchor string             `json:"anchor"`
	Type   EventType          `json:"type"`
	Window Window             `json:"window"`
	Cells  []Cell             `json:"cells"`
	Days   map[string][]Event `json:"days"`
	Total  int                `json:"total"`
}

// BuildView filters events for the window of mode around anchor and lays them out
// as a grid. today marks the matching cell; pass the zero time to mark none.
func BuildView(events []Event, mode ViewMode, anchor time.Time, t EventType, today time.Time) View {
	if t == "" {
		t = TypeAll
	}
	w := WindowFor(mode, anchor)
	filtered := Filter(events, t, w)
	groups := GroupByDay(filtered)
	limit := BadgeLimit(mode)
	todayKey := ""
	if !today.IsZero() {
		todayKey = DayKey(Day(today, anchor.Location()))
	}

	days := w.Days()
	cells := make([]Cell, 0, len(days))
	for _, d := range days {
		key := DayKey(d)
		dayEvents := groups[key]
		cell := Cell{
			Key:     key,
			Date:    d,
			InMonth: mode == ViewWeek || d.Month() == anchor.Month(),
			Today:   key == todayKey,
			Events:  dayEvents,
		}
		if len(dayEvents) > limit {
			cell.Events = dayEvents[:limit]
			cell.More = len(dayEvents) - limit
		}
		if cell.Events == nil {
			cell.Events = []Event{}
		}
		cells = append(cells, cell)
	}
	return View{
		Mode:   mode,
		Anchor: DayKey(anchor),
		Type:   t,
		Window: w,
		Cells:  cells,
		Days:   groups,
		Total:  len(filtered),
	}
}
