// Package finance computes mission profitability and monthly cash summaries.
package finance

import (
	"time"

	"github.com/ukydev/fleet-manager/internal/models"
)

// MissionCost returns the estimated cost of a mission.
func MissionCost(m models.Mission) float64 {
	return m.Costs.Total()
}

// MissionProfit returns revenue minus cost. ok is false when the mission has no revenue yet.
func MissionProfit(m models.Mission) (profit float64, ok bool) {
	if m.Revenue == nil {
		return 0, false
	}
	return *m.Revenue - MissionCost(m), true
}

// Month totals one calendar month.
type Month struct {
	Month    time.Month `json:"month"`
	Expenses float64    `json:"depenses"`
	Revenues float64    `json:"recettes"`
	Net      float64    `json:"net"`
}

// Summary totals one year, month by month.
type Summary struct {
	Year       int                `json:"year"`
	Months     []Month            `json:"months"`
	Expenses   float64            `json:"depenses"`
	Revenues   float64            `json:"recettes"`
	Net        float64            `json:"net"`
	ByCategory map[string]float64 `json:"depenses_par_categorie"`
}

// Summarize totals expenses and revenues dated in year (evaluated in loc, UTC when nil).
func Summarize(year int, expenses []models.Expense, revenues []models.Revenue, loc *time.Location) Summary {
	if loc == nil {
		loc = time.UTC
	}
	s := Summary{Year: year, Months: make([]Month, 12), ByCategory: map[string]float64{}}
	for i := range s.Months {
		s.Months[i].Month = time.Month(i + 1)
	}
	for _, e := range expenses {
		d := e.Date.In(loc)
		if d.Year() != year {
			continue
		}
		s.Months[d.Month()-1].Expenses += e.Amount
		s.Expenses += e.Amount
		s.ByCategory[e.Category] += e.Amount
	}
	for _, r := range revenues {
		d := r.Date.In(loc)
		if d.Year() != year {
			continue
		}
		s.Months[d.Month()-1].Revenues += r.Amount
		s.Revenues += r.Amount
	}
	for i := range s.Months {
		s.Months[i].Net = s.Months[i].Revenues - s.Months[i].Expenses
	}
	s.Net = s.Revenues - s.Expenses
	return s
}
