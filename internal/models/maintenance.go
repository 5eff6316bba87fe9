package models

import "time"

// Maintenance represents a vehicle maintenance record (collection "entretiens").
type Maintenance struct {
	ID          string    `json:"id" bson:"_id,omitempty"`
	VehicleID   string    `json:"camion_id" bson:"camion_id"`
	Type        string    `json:"type" bson:"type"` // "vidange", "pneus", "freins", "revision", "reparation"
	Description string    `json:"description,omitempty" bson:"description,omitempty"`
	Date        time.Time `json:"date" bson:"date"`
	Mileage     float64   `json:"kilometrage,omitempty" bson:"kilometrage,omitempty"` // in kilometers
	Cost        float64   `json:"cout" bson:"cout"`
	Garage      string    `json:"garage,omitempty" bson:"garage,omitempty"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" bson:"updated_at"`
}

// Inspection represents a technical inspection (collection "visites").
type Inspection struct {
	ID          string    `json:"id" bson:"_id,omitempty"`
	VehicleID   string    `json:"camion_id" bson:"camion_id"`
	Date        time.Time `json:"date_visite" bson:"date_visite"`
	NextDueDate time.Time `json:"prochaine_visite,omitempty" bson:"prochaine_visite,omitempty"`
	Result      string    `json:"resultat,omitempty" bson:"resultat,omitempty"` // "favorable", "defavorable", "contre_visite"
	Center      string    `json:"centre,omitempty" bson:"centre,omitempty"`
	Cost        float64   `json:"cout,omitempty" bson:"cout,omitempty"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" bson:"updated_at"`
}

// Insurance represents an insurance policy covering one vehicle (collection "assurances").
type Insurance struct {
	ID           string    `json:"id" bson:"_id,omitempty"`
	VehicleID    string    `json:"camion_id" bson:"camion_id"`
	PolicyNumber string    `json:"numero_police" bson:"numero_police"`
	Insurer      string    `json:"assureur,omitempty" bson:"assureur,omitempty"`
	StartDate    time.Time `json:"date_debut" bson:"date_debut"`
	EndDate      time.Time `json:"date_fin" bson:"date_fin"`
	Premium      float64   `json:"prime" bson:"prime"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" bson:"updated_at"`
}
