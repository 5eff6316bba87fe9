package models

import "time"

// StockItem is a spare part or consumable kept in stock (collection "stock").
type StockItem struct {
	ID             string    `json:"id" bson:"_id,omitempty"`
	Name           string    `json:"nom" bson:"nom"`
	Reference      string    `json:"reference,omitempty" bson:"reference,omitempty"`
	Category       string    `json:"categorie,omitempty" bson:"categorie,omitempty"`
	Quantity       float64   `json:"quantite" bson:"quantite"`
	AlertThreshold float64   `json:"seuil_alerte" bson:"seuil_alerte"`
	Unit           string    `json:"unite,omitempty" bson:"unite,omitempty"`
	UnitPrice      float64   `json:"prix_unitaire,omitempty" bson:"prix_unitaire,omitempty"`
	Location       string    `json:"emplacement,omitempty" bson:"emplacement,omitempty"`
	CreatedAt      time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" bson:"updated_at"`
}
