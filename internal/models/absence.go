package models

import "time"

// Absence types.
const (
	AbsenceVacation = "conge"
	AbsenceSick     = "maladie"
	AbsenceTraining = "formation"
	AbsenceOther    = "autre"
)

// Absence represents a driver's unavailability over an inclusive date range.
type Absence struct {
	ID        string    `json:"id" bson:"_id,omitempty"`
	DriverID  string    `json:"chauffeur_id" bson:"chauffeur_id"`
	Type      string    `json:"type" bson:"type"`
	StartDate time.Time `json:"date_debut" bson:"date_debut"`
	EndDate   time.Time `json:"date_fin" bson:"date_fin"`
	Reason    string    `json:"motif,omitempty" bson:"motif,omitempty"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}
