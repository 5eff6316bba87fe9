// Package notify publishes stock alerts to a message broker.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-manager/internal/models"
)

// Backends.
const (
	BackendNone = "none"
	BackendMQTT = "mqtt"
	BackendAMQP = "amqp"
)

// Publisher sends stock alerts somewhere.
type Publisher interface {
	PublishStockAlert(ctx context.Context, item models.StockItem) error
	Close() error
}

// Options selects and configures the backend.
type Options struct {
	Backend      string
	MQTTBroker   string
	MQTTTopic    string
	MQTTClientID string
	AMQPURL      string
	AMQPExchange string
}

// AlertMessage is the payload published for an item entering the alert set.
type AlertMessage struct {
	Event     string    `json:"event"`
	ItemID    string    `json:"item_id"`
	Name      string    `json:"nom"`
	Reference string    `json:"reference,omitempty"`
	Quantity  float64   `json:"quantite"`
	Threshold float64   `json:"seuil_alerte"`
	Unit      string    `json:"unite,omitempty"`
	RaisedAt  time.Time `json:"raised_at"`
}

func newAlertMessage(item models.StockItem, now time.Time) AlertMessage {
	return AlertMessage{
		Event:     "stock.alert",
		ItemID:    item.ID,
		Name:      item.Name,
		Reference: item.Reference,
		Quantity:  item.Quantity,
		Threshold: item.AlertThreshold,
		Unit:      item.Unit,
		RaisedAt:  now.UTC(),
	}
}

func encodeAlert(item models.StockItem) ([]byte, error) {
	return json.Marshal(newAlertMessage(item, time.Now()))
}

// New connects the configured backend.
func New(opts Options) (Publisher, error) {
	switch opts.Backend {
	case "", BackendNone:
		return Nop{}, nil
	case BackendMQTT:
		return NewMQTTPublisher(opts.MQTTBroker, opts.MQTTTopic, opts.MQTTClientID)
	case BackendAMQP:
		return NewAMQPPublisher(opts.AMQPURL, opts.AMQPExchange)
	default:
		return nil, fmt.Errorf("unknown notify backend %q", opts.Backend)
	}
}

// Nop logs alerts and sends nothing.
type Nop struct{}

func (Nop) PublishStockAlert(_ context.Context, item models.StockItem) error {
	log.WithFields(log.Fields{"item_id": item.ID, "name": item.Name}).Debug("Stock alert (no broker configured)")
	return nil
}

func (Nop) Close() error { return nil }
