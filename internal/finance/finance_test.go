package finance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/ukydev/fleet-manager/internal/models"
)

func TestMissionProfit(t *testing.T) {
	m := models.Mission{Costs: models.CostBreakdown{Fuel: 300, Tolls: 50, Driver: 150}}
	_, ok := MissionProfit(m)
	assert.False(t, ok)
	assert.Equal(t, 500.0, MissionCost(m))

	revenue := 800.0
	m.Revenue = &revenue
	profit, ok := MissionProfit(m)
	assert.True(t, ok)
	assert.Equal(t, 300.0, profit)
}

func TestSummarize(t *testing.T) {
	expenses := []models.Expense{
		{Category: "carburant", Amount: 400, Date: time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)},
		{Category: "peage", Amount: 60, Date: time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC)},
		{Category: "carburant", Amount: 380, Date: time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC)},
		{Category: "carburant", Amount: 999, Date: time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)},
	}
	revenues := []models.Revenue{
		{Source: "mission", Amount: 1200, Date: time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)},
		{Source: "mission", Amount: 200, Date: time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)},
	}

	s := Summarize(2025, expenses, revenues, time.UTC)
	assert.Len(t, s.Months, 12)
	assert.Equal(t, 460.0, s.Months[0].Expenses)
	assert.Equal(t, 1200.0, s.Months[0].Revenues)
	assert.Equal(t, 740.0, s.Months[0].Net)
	assert.Equal(t, -180.0, s.Months[2].Net)
	assert.Equal(t, 840.0, s.Expenses)
	assert.Equal(t, 1400.0, s.Revenues)
	assert.Equal(t, 560.0, s.Net)
	assert.Equal(t, 780.0, s.ByCategory["carburant"])
	assert.Equal(t, time.December, s.Months[11].Month)
}
