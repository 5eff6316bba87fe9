package models

import "time"

// Expense represents a fleet cost record (collection "depenses").
type Expense struct {
	ID          string    `json:"id" bson:"_id,omitempty"`
	Category    string    `json:"categorie" bson:"categorie"` // "carburant", "entretien", "assurance", "peage", "salaire", "autre"
	Description string    `json:"description,omitempty" bson:"description,omitempty"`
	Amount      float64   `json:"montant" bson:"montant"`
	Date        time.Time `json:"date" bson:"date"`
	VehicleID   string    `json:"camion_id,omitempty" bson:"camion_id,omitempty"`
	MissionID   string    `json:"mission_id,omitempty" bson:"mission_id,omitempty"`
	ReceiptURL  string    `json:"justificatif_url,omitempty" bson:"justificatif_url,omitempty"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" bson:"updated_at"`
}

// Revenue represents an income record (collection "recettes").
type Revenue struct {
	ID          string    `json:"id" bson:"_id,omitempty"`
	Source      string    `json:"source" bson:"source"`
	Description string    `json:"description,omitempty" bson:"description,omitempty"`
	Amount      float64   `json:"montant" bson:"montant"`
	Date        time.Time `json:"date" bson:"date"`
	ClientID    string    `json:"client_id,omitempty" bson:"client_id,omitempty"`
	MissionID   string    `json:"mission_id,omitempty" bson:"mission_id,omitempty"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" bson:"updated_at"`
}

// Invoice statuses.
const (
	InvoiceDraft     = "draft"
	InvoiceSent      = "sent"
	InvoicePaid      = "paid"
	InvoiceOverdue   = "overdue"
	InvoiceCancelled = "cancelled"
)

// Invoice is a bill sent to a client (collection "factures").
type Invoice struct {
	ID        string    `json:"id" bson:"_id,omitempty"`
	Number    string    `json:"numero" bson:"numero"`
	ClientID  string    `json:"client_id" bson:"client_id"`
	MissionID string    `json:"mission_id,omitempty" bson:"mission_id,omitempty"`
	Amount    float64   `json:"montant" bson:"montant"`
	IssueDate time.Time `json:"date_emission" bson:"date_emission"`
	DueDate   time.Time `json:"date_echeance,omitempty" bson:"date_echeance,omitempty"`
	Status    string    `json:"statut" bson:"statut"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}
