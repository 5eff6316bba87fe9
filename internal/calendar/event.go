// Package calendar merges missions, inspections, insurance policies, maintenance
// and driver absences into one day-granular timeline, and slices it into month
// and week views.
package calendar

import (
	"fmt"
	"time"

	"github.com/ukydev/fleet-manager/internal/models"
)

// EventType tags the record an event was derived from.
type EventType string

const (
	TypeAll         EventType = "all"
	TypeMission     EventType = "mission"
	TypeInspection  EventType = "inspection"
	TypeInsurance   EventType = "insurance"
	TypeMaintenance EventType = "maintenance"
	TypeAbsence     EventType = "absence"
)

// Types lists the concrete event types in display order.
var Types = []EventType{TypeMission, TypeInspection, TypeInsurance, TypeMaintenance, TypeAbsence}

// Colors is the fixed display color of each event type.
var Colors = map[EventType]string{
	TypeMission:     "#3b82f6",
	TypeInspection:  "#f59e0b",
	TypeInsurance:   "#ef4444",
	TypeMaintenance: "#10b981",
	TypeAbsence:     "#8b5cf6",
}

// Placeholder replaces a vehicle plate or driver name whose record is missing.
const Placeholder = "N/A"

// ParseType validates a type filter value. An empty value means TypeAll.
func ParseType(s string) (EventType, error) {
	if s == "" {
		return TypeAll, nil
	}
	t := EventType(s)
	if t == TypeAll {
		return t, nil
	}
	if _, ok := Colors[t]; ok {
		return t, nil
	}
	return "", fmt.Errorf("unknown event type %q", s)
}

// Event is one normalized calendar entry.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Title     string      `json:"title"`
	Date      time.Time   `json:"date"`
	VehicleID string      `json:"vehicle_id,omitempty"`
	DriverID  string      `json:"driver_id,omitempty"`
	Color     string      `json:"color"`
	Record    interface{} `json:"record"`
}

// Sources holds the record lists an aggregation is computed from. Any list may be
// empty; references that cannot be resolved degrade to Placeholder.
type Sources struct {
	Missions    []models.Mission
	Inspections []models.Inspection
	Insurances  []models.Insurance
	Maintenance []models.Maintenance
	Absences    []models.Absence
	Vehicles    []models.Vehicle
	Drivers     []models.Driver
}

// Aggregate builds the full event list from src. Dates are truncated to the day in loc
// (UTC when nil). The result is recomputed from scratch on every call.
func Aggregate(src Sources, loc *time.Location) []Event {
	return aggregate(src, loc, Window{})
}

// AggregateIn is Aggregate with absence days expanded only inside w. Single-date
// events are kept whatever their date; Filter drops them.
func AggregateIn(src Sources, loc *time.Location, w Window) []Event {
	return aggregate(src, loc, w)
}

func aggregate(src Sources, loc *time.Location, w Window) []Event {
	if loc == nil {
		loc = time.UTC
	}
	plate := func(id string) string {
		for _, v := range src.Vehicles {
			if v.ID == id && v.Plate != "" {
				return v.Plate
			}
		}
		return Placeholder
	}
	driverName := func(id string) string {
		for _, d := range src.Drivers {
			if d.ID == id {
				if name := d.FullName(); name != "" {
					return name
				}
			}
		}
		return Placeholder
	}

	events := make([]Event, 0, len(src.Missions)+len(src.Inspections)+len(src.Insurances)+len(src.Maintenance)+len(src.Absences))

	for _, m := range src.Missions {
		events = append(events, Event{
			ID:        "mission-" + m.ID,
			Type:      TypeMission,
			Title:     fmt.Sprintf("%s → %s (%s / %s)", m.Origin, m.Destination, driverName(m.DriverID), plate(m.VehicleID)),
			Date:      Day(m.StartDate, loc),
			VehicleID: m.VehicleID,
			DriverID:  m.DriverID,
			Color:     Colors[TypeMission],
			Record:    m,
		})
	}
	for _, v := range src.Inspections {
		events = append(events, Event{
			ID:        "inspection-" + v.ID,
			Type:      TypeInspection,
			Title:     "Visite technique - " + plate(v.VehicleID),
			Date:      Day(v.Date, loc),
			VehicleID: v.VehicleID,
			Color:     Colors[TypeInspection],
			Record:    v,
		})
	}
	for _, a := range src.Insurances {
		// Policies surface on their expiry date.
		events = append(events, Event{
			ID:        "insurance-" + a.ID,
			Type:      TypeInsurance,
			Title:     fmt.Sprintf("Expiration assurance %s - %s", a.PolicyNumber, plate(a.VehicleID)),
			Date:      Day(a.EndDate, loc),
			VehicleID: a.VehicleID,
			Color:     Colors[TypeInsurance],
			Record:    a,
		})
	}
	for _, e := range src.Maintenance {
		events = append(events, Event{
			ID:        "maintenance-" + e.ID,
			Type:      TypeMaintenance,
			Title:     fmt.Sprintf("Entretien %s - %s", e.Type, plate(e.VehicleID)),
			Date:      Day(e.Date, loc),
			VehicleID: e.VehicleID,
			Color:     Colors[TypeMaintenance],
			Record:    e,
		})
	}
	for _, a := range src.Absences {
		title := fmt.Sprintf("Absence %s - %s", a.Type, driverName(a.DriverID))
		for _, day := range expandDays(a.StartDate, a.EndDate, loc, w) {
			events = append(events, Event{
				ID:       fmt.Sprintf("absence-%s-%s", a.ID, DayKey(day)),
				Type:     TypeAbsence,
				Title:    title,
				Date:     day,
				DriverID: a.DriverID,
				Color:    Colors[TypeAbsence],
				Record:   a,
			})
		}
	}
	return events
}

// ExpandDays returns every calendar day of [start, end] inclusive in loc. A zero end
// means a single day; an end before start yields no days. Ranges longer than
// models.MaxAbsenceDays stop after that many days.
func ExpandDays(start, end time.Time, loc *time.Location) []time.Time {
	return expandDays(start, end, loc, Window{})
}

func expandDays(start, end time.Time, loc *time.Location, w Window) []time.Time {
	first := Day(start, loc)
	last := first
	if !end.IsZero() {
		last = Day(end, loc)
	}
	if limit := first.AddDate(0, 0, models.MaxAbsenceDays-1); last.After(limit) {
		last = limit
	}
	if !w.Start.IsZero() {
		if ws := Day(w.Start, loc); first.Before(ws) {
			first = ws
		}
	}
	if !w.End.IsZero() {
		if we := Day(w.End, loc); last.After(we) {
			last = we
		}
	}
	var days []time.Time
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// Day truncates t to midnight of its calendar day in loc.
func Day(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}
