package handlers

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/ukydev/fleet-manager/internal/calendar"
	"github.com/ukydev/fleet-manager/internal/db"
	"github.com/ukydev/fleet-manager/internal/middleware"
	"github.com/ukydev/fleet-manager/internal/policy"
)

// CalendarHandler serves the aggregated calendar.
type CalendarHandler struct {
	store db.Store
	gate  *policy.Gate
	loc   *time.Location
	now   func() time.Time
}

func NewCalendarHandler(store db.Store, gate *policy.Gate, loc *time.Location) *CalendarHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &CalendarHandler{store: store, gate: gate, loc: loc, now: time.Now}
}

// ViewQuery is a parsed calendar request.
type ViewQuery struct {
	Mode   calendar.ViewMode
	Anchor time.Time
	Type   calendar.EventType
}

// ParseViewQuery reads view, date and type. Missing values default to the
// month view around today with every type.
func ParseViewQuery(q url.Values, loc *time.Location, now time.Time) (ViewQuery, error) {
	mode, err := calendar.ParseViewMode(q.Get("view"))
	if err != nil {
		return ViewQuery{}, err
	}
	t, err := calendar.ParseType(q.Get("type"))
	if err != nil {
		return ViewQuery{}, err
	}
	anchor, err := parseDay(q.Get("date"), loc, now)
	if err != nil {
		return ViewQuery{}, err
	}
	return ViewQuery{Mode: mode, Anchor: anchor, Type: t}, nil
}

func parseDay(s string, loc *time.Location, now time.Time) (time.Time, error) {
	if s == "" {
		return calendar.Day(now, loc), nil
	}
	d, err := time.ParseInLocation(calendar.DayKeyLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return d, nil
}

func (h *CalendarHandler) authorize(w http.ResponseWriter, r *http.Request) bool {
	claims, _ := middleware.GetUserFromContext(r.Context())
	if err := h.gate.Authorize(r.Context(), claims, policy.ActionList, policy.ResourceRecords, nil); err != nil {
		middleware.WritePolicyError(w, err)
		return false
	}
	return true
}

// events aggregates the stored records, expanding absences only across window.
func (h *CalendarHandler) events(w http.ResponseWriter, r *http.Request, window calendar.Window) ([]calendar.Event, bool) {
	src, err := LoadSources(r.Context(), h.store)
	if err != nil {
		writeInternal(w, r, err, "Failed to load calendar sources")
		return nil, false
	}
	return calendar.AggregateIn(src, h.loc, window), true
}

// View returns the grid for the requested window.
func (h *CalendarHandler) View(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r) {
		return
	}
	q, err := ParseViewQuery(r.URL.Query(), h.loc, h.now())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "bad-request")
		return
	}
	events, ok := h.events(w, r, calendar.WindowFor(q.Mode, q.Anchor))
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, calendar.BuildView(events, q.Mode, q.Anchor, q.Type, h.now()))
}

// DayDetail lists every event of one day.
type DayDetail struct {
	Date   string           `json:"date"`
	Events []calendar.Event `json:"events"`
}

// Day returns the detail list of {date}.
func (h *CalendarHandler) Day(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r) {
		return
	}
	d, err := parseDay(r.PathValue("date"), h.loc, h.now())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "bad-request")
		return
	}
	t, err := calendar.ParseType(r.URL.Query().Get("type"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "bad-request")
		return
	}
	events, ok := h.events(w, r, calendar.Window{Start: d, End: d})
	if !ok {
		return
	}
	key := calendar.DayKey(d)
	out := calendar.GroupByDay(calendar.FilterType(events, t))[key]
	if out == nil {
		out = []calendar.Event{}
	}
	writeJSON(w, http.StatusOK, DayDetail{Date: key, Events: out})
}

// ICS exports the requested window as an iCalendar file.
func (h *CalendarHandler) ICS(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r) {
		return
	}
	q, err := ParseViewQuery(r.URL.Query(), h.loc, h.now())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "bad-request")
		return
	}
	window := calendar.WindowFor(q.Mode, q.Anchor)
	events, ok := h.events(w, r, window)
	if !ok {
		return
	}
	filtered := calendar.Filter(events, q.Type, window)

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="fleet-calendar.ics"`)
	if err := calendar.WriteICS(w, "Fleet", filtered, h.now()); err != nil {
		writeInternal(w, r, err, "Failed to export calendar")
	}
}
