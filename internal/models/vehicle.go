package models

import "time"

// Vehicle represents a truck of the fleet (collection "camions").
type Vehicle struct {
	ID           string    `bson:"_id,omitempty" json:"id"`
	Plate        string    `bson:"immatriculation" json:"immatriculation"`
	Brand        string    `bson:"marque" json:"marque"`
	Model        string    `bson:"modele" json:"modele"`
	Year         int       `bson:"annee,omitempty" json:"annee,omitempty"`
	Type         string    `bson:"type,omitempty" json:"type,omitempty"` // "porteur", "semi", "frigorifique", "benne"
	Mileage      float64   `bson:"kilometrage,omitempty" json:"kilometrage,omitempty"`
	Status       string    `bson:"statut,omitempty" json:"statut,omitempty"` // "disponible", "en_mission", "maintenance", "hors_service"
	CapacityTons float64   `bson:"capacite,omitempty" json:"capacite,omitempty"`
	ImageURL     string    `bson:"image_url,omitempty" json:"image_url,omitempty"`
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at" json:"updated_at"`
}

// Driver represents a truck driver (collection "chauffeurs").
type Driver struct {
	ID            string    `bson:"_id,omitempty" json:"id"`
	FirstName     string    `bson:"prenom" json:"prenom"`
	LastName      string    `bson:"nom" json:"nom"`
	Phone         string    `bson:"telephone,omitempty" json:"telephone,omitempty"`
	Email         string    `bson:"email,omitempty" json:"email,omitempty"`
	LicenseNumber string    `bson:"numero_permis,omitempty" json:"numero_permis,omitempty"`
	LicenseExpiry time.Time `bson:"expiration_permis,omitempty" json:"expiration_permis,omitempty"`
	Status        string    `bson:"statut,omitempty" json:"statut,omitempty"` // "actif", "conge", "inactif"
	PhotoURL      string    `bson:"photo_url,omitempty" json:"photo_url,omitempty"`
	CreatedAt     time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time `bson:"updated_at" json:"updated_at"`
}

// FullName returns "Prénom Nom", trimmed when one part is missing.
func (d Driver) FullName() string {
	switch {
	case d.FirstName == "":
		return d.LastName
	case d.LastName == "":
		return d.FirstName
	}
	return d.FirstName + " " + d.LastName
}

// Client is a customer billed for missions.
type Client struct {
	ID        string    `bson:"_id,omitempty" json:"id"`
	Name      string    `bson:"nom" json:"nom"`
	Contact   string    `bson:"contact,omitempty" json:"contact,omitempty"`
	Phone     string    `bson:"telephone,omitempty" json:"telephone,omitempty"`
	Email     string    `bson:"email,omitempty" json:"email,omitempty"`
	Address   string    `bson:"adresse,omitempty" json:"adresse,omitempty"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
