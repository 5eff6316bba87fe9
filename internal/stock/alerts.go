// Package stock evaluates which stock items have fallen to their alert threshold.
package stock

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-manager/internal/models"
)

// IsAlert reports whether item is at or below its alert threshold.
func IsAlert(item models.StockItem) bool {
	return item.Quantity <= item.AlertThreshold
}

// Alerts returns the items at or below their alert threshold, in input order.
func Alerts(items []models.StockItem) []models.StockItem {
	out := make([]models.StockItem, 0)
	for _, item := range items {
		if IsAlert(item) {
			out = append(out, item)
		}
	}
	return out
}

// AlertSink receives items that just entered the alert set.
type AlertSink interface {
	PublishStockAlert(ctx context.Context, item models.StockItem) error
}

// Monitor re-evaluates the alert set on every load and forwards items that were
// not alerting on the previous evaluation.
type Monitor struct {
	sink AlertSink

	mu       sync.Mutex
	alerting map[string]bool
}

// NewMonitor creates a monitor publishing to sink.
func NewMonitor(sink AlertSink) *Monitor {
	return &Monitor{sink: sink, alerting: make(map[string]bool)}
}

// Evaluate computes the alert set for items and publishes the newly alerting ones.
// The first evaluation publishes every alerting item.
func (m *Monitor) Evaluate(ctx context.Context, items []models.StockItem) []models.StockItem {
	alerts := Alerts(items)

	m.mu.Lock()
	next := make(map[string]bool, len(alerts))
	var fresh []models.StockItem
	for _, item := range alerts {
		next[item.ID] = true
		if !m.alerting[item.ID] {
			fresh = append(fresh, item)
		}
	}
	m.alerting = next
	m.mu.Unlock()

	for _, item := range fresh {
		if err := m.sink.PublishStockAlert(ctx, item); err != nil {
			log.WithError(err).WithField("item_id", item.ID).Warn("Failed to publish stock alert")
			continue
		}
		log.WithFields(log.Fields{
			"item_id":   item.ID,
			"name":      item.Name,
			"quantity":  item.Quantity,
			"threshold": item.AlertThreshold,
		}).Info("Stock alert raised")
	}
	return alerts
}
