package models

import "time"

// MissionStatus is the lifecycle state of a mission.
type MissionStatus string

const (
	MissionPlanned    MissionStatus = "planned"
	MissionInProgress MissionStatus = "in_progress"
	MissionCompleted  MissionStatus = "completed"
	MissionCancelled  MissionStatus = "cancelled"
)

// IsValidMissionStatus reports whether s is one of the known statuses.
func IsValidMissionStatus(s MissionStatus) bool {
	switch s {
	case MissionPlanned, MissionInProgress, MissionCompleted, MissionCancelled:
		return true
	default:
		return false
	}
}

// CostBreakdown is the estimated cost of a mission.
type CostBreakdown struct {
	Fuel   float64 `json:"carburant" bson:"carburant"`
	Tolls  float64 `json:"peages" bson:"peages"`
	Driver float64 `json:"chauffeur" bson:"chauffeur"`
	Other  float64 `json:"autres" bson:"autres"`
}

// Total sums every line of the breakdown.
func (c CostBreakdown) Total() float64 {
	return c.Fuel + c.Tolls + c.Driver + c.Other
}

// Mission represents a transport job from one place to another.
type Mission struct {
	ID                  string        `json:"id" bson:"_id,omitempty"`
	Origin              string        `json:"depart" bson:"depart"`
	Destination         string        `json:"arrivee" bson:"arrivee"`
	OriginLocation      *Location     `json:"depart_coords,omitempty" bson:"depart_coords,omitempty"`
	DestinationLocation *Location     `json:"arrivee_coords,omitempty" bson:"arrivee_coords,omitempty"`
	StartDate           time.Time     `json:"date_debut" bson:"date_debut"`
	EndDate             time.Time     `json:"date_fin,omitempty" bson:"date_fin,omitempty"`
	VehicleID           string        `json:"camion_id" bson:"camion_id"`
	DriverID            string        `json:"chauffeur_id" bson:"chauffeur_id"`
	ClientID            string        `json:"client_id,omitempty" bson:"client_id,omitempty"`
	Status              MissionStatus `json:"statut" bson:"statut"`
	Costs               CostBreakdown `json:"couts" bson:"couts"`
	Revenue             *float64      `json:"revenu,omitempty" bson:"revenu,omitempty"`
	Cargo               string        `json:"marchandise,omitempty" bson:"marchandise,omitempty"`
	Notes               string        `json:"notes,omitempty" bson:"notes,omitempty"`
	CreatedAt           time.Time     `json:"created_at" bson:"created_at"`
	UpdatedAt           time.Time     `json:"updated_at" bson:"updated_at"`
}
