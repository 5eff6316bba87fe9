package calendar

import (
	"io"
	"time"

	"github.com/emersion/go-ical"
)

// ProductID identifies the generator in exported calendars.
const ProductID = "-//fleet-manager//calendar//FR"

// WriteICS encodes events as an iCalendar document of all-day entries.
func WriteICS(w io.Writer, name string, events []Event, now time.Time) error {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, ProductID)
	if name != "" {
		calName := ical.NewProp("X-WR-CALNAME")
		calName.SetText(name)
		cal.Props.Set(calName)
	}

	stamp := now.UTC()
	for _, e := range events {
		ev := ical.NewEvent()
		ev.Props.SetText(ical.PropUID, e.ID+"@fleet-manager")
		ev.Props.SetDateTime(ical.PropDateTimeStamp, stamp)
		ev.Props.SetDate(ical.PropDateTimeStart, e.Date)
		ev.Props.SetDate(ical.PropDateTimeEnd, e.Date.AddDate(0, 0, 1))
		ev.Props.SetText(ical.PropSummary, e.Title)
		ev.Props.SetText(ical.PropCategories, string(e.Type))
		color := ical.NewProp("COLOR")
		color.SetText(e.Color)
		ev.Props.Set(color)
		cal.Children = append(cal.Children, ev.Component)
	}
	return ical.NewEncoder(w).Encode(cal)
}
