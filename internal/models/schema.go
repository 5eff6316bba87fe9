package models

import (
	"math"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FieldKind is the type a write field is converted to before it reaches the store.
type FieldKind int

const (
	KindString FieldKind = iota
	KindNumber
	KindInt
	KindDate
	KindBool
	KindEnum
	KindObject
)

// Violation codes.
const (
	CodeRequired      = "required"
	CodeInvalidType   = "invalid_type"
	CodeInvalidValue  = "invalid_value"
	CodeNegative      = "must_be_positive_or_zero"
	CodeNotInteger    = "must_be_integer"
	CodeInvalidDate   = "invalid_date"
	CodeUnknownField  = "unknown_field"
	CodeBeforeStart   = "before_start"
	CodeSpanTooLong   = "span_too_long"
	CodeEmptyDocument = "empty_document"
)

// Violations maps a field path to a violation code.
type Violations map[string]string

// Empty reports whether no violation was recorded.
func (v Violations) Empty() bool { return len(v) == 0 }

// Field declares one permitted document field.
type Field struct {
	Name        string
	Kind        FieldKind
	Required    bool
	NonNegative bool
	Enum        []string
	Fields      []Field
}

// MaxAbsenceDays bounds the number of calendar days one absence may cover.
const MaxAbsenceDays = 366

// DateOrder requires To to be on or after From when both are present. A positive
// MaxDays also caps the inclusive number of days between them.
type DateOrder struct {
	From    string
	To      string
	MaxDays int
}

// Schema is the write DTO of a collection.
type Schema struct {
	Collection string
	Fields     []Field
	Order      []DateOrder
}

// readOnly fields are accepted in bodies (clients echo them back) but never written.
var readOnly = map[string]bool{"id": true, "_id": true, "created_at": true, "updated_at": true}

// Build converts a decoded JSON body into the document written to the store.
// Only fields declared by the schema are copied; absent and null fields are left out,
// so nothing is ever implicitly zeroed. In partial mode required fields may be omitted
// and nested objects are flattened into dotted keys so that sibling sub-fields survive.
func (s Schema) Build(input map[string]interface{}, partial bool) (bson.M, Violations) {
	out := bson.M{}
	v := Violations{}
	buildFields("", s.Fields, input, partial, out, v)
	for name := range input {
		if readOnly[name] {
			continue
		}
		if _, ok := findField(s.Fields, name); !ok {
			v[name] = CodeUnknownField
		}
	}
	for field, code := range s.CheckOrder(out) {
		v[field] = code
	}
	if partial && len(out) == 0 && v.Empty() {
		v["_"] = CodeEmptyDocument
	}
	return out, v
}

// OrderFields reports whether doc writes one of the fields of the schema's date rules.
func (s Schema) OrderFields(doc bson.M) bool {
	for _, o := range s.Order {
		if _, ok := doc[o.From]; ok {
			return true
		}
		if _, ok := doc[o.To]; ok {
			return true
		}
	}
	return false
}

// CheckOrder applies the schema's date rules to a complete document. Dates may be
// time.Time (freshly built) or primitive.DateTime (read back from the store).
func (s Schema) CheckOrder(doc bson.M) Violations {
	v := Violations{}
	for _, o := range s.Order {
		from, okFrom := asTime(doc[o.From])
		to, okTo := asTime(doc[o.To])
		if !okFrom || !okTo {
			continue
		}
		switch {
		case to.Before(from):
			v[o.To] = CodeBeforeStart
		case o.MaxDays > 0 && !to.Before(from.AddDate(0, 0, o.MaxDays)):
			v[o.To] = CodeSpanTooLong
		}
	}
	return v
}

func asTime(raw interface{}) (time.Time, bool) {
	switch t := raw.(type) {
	case time.Time:
		return t, !t.IsZero()
	case primitive.DateTime:
		return t.Time().UTC(), true
	default:
		return time.Time{}, false
	}
}

func findField(fields []Field, name string) (Field, bool) {
	for _, f := range fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

func buildFields(prefix string, fields []Field, input map[string]interface{}, partial bool, out bson.M, v Violations) {
	for _, f := range fields {
		path := prefix + f.Name
		raw, present := input[f.Name]
		if !present || raw == nil {
			if f.Required && !partial {
				v[path] = CodeRequired
			}
			continue
		}
		if f.Kind == KindObject {
			sub, ok := raw.(map[string]interface{})
			if !ok {
				v[path] = CodeInvalidType
				continue
			}
			if partial {
				buildFields(path+".", f.Fields, sub, partial, out, v)
				continue
			}
			doc := bson.M{}
			buildFields(path+".", f.Fields, sub, partial, doc, v)
			nested := bson.M{}
			for k, val := range doc {
				nested[strings.TrimPrefix(k, path+".")] = val
			}
			out[f.Name] = nested
			continue
		}
		val, code := convert(f, raw)
		if code != "" {
			v[path] = code
			continue
		}
		if val == nil {
			if f.Required && !partial {
				v[path] = CodeRequired
			}
			continue
		}
		out[path] = val
	}
}

func convert(f Field, raw interface{}) (interface{}, string) {
	switch f.Kind {
	case KindString:
		s, ok := raw.(string)
		if !ok {
			return nil, CodeInvalidType
		}
		s = strings.TrimSpace(s)
		if s == "" {
			if f.Required {
				return nil, CodeRequired
			}
			return "", ""
		}
		return s, ""
	case KindEnum:
		s, ok := raw.(string)
		if !ok {
			return nil, CodeInvalidType
		}
		for _, allowed := range f.Enum {
			if s == allowed {
				return s, ""
			}
		}
		return nil, CodeInvalidValue
	case KindNumber, KindInt:
		n, ok := raw.(float64)
		if !ok || math.IsNaN(n) || math.IsInf(n, 0) {
			return nil, CodeInvalidType
		}
		if f.NonNegative && n < 0 {
			return nil, CodeNegative
		}
		if f.Kind == KindInt {
			if n != math.Trunc(n) {
				return nil, CodeNotInteger
			}
			return int64(n), ""
		}
		return n, ""
	case KindDate:
		s, ok := raw.(string)
		if !ok {
			return nil, CodeInvalidType
		}
		if strings.TrimSpace(s) == "" {
			return nil, ""
		}
		t, err := ParseDate(s)
		if err != nil {
			return nil, CodeInvalidDate
		}
		return t, ""
	case KindBool:
		b, ok := raw.(bool)
		if !ok {
			return nil, CodeInvalidType
		}
		return b, ""
	}
	return nil, CodeInvalidType
}

// ParseDate accepts RFC 3339 timestamps and plain YYYY-MM-DD dates (read as UTC midnight).
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}

var locationFields = []Field{
	{Name: "lat", Kind: KindNumber, Required: true},
	{Name: "lon", Kind: KindNumber, Required: true},
}

var missionStatuses = []string{
	string(MissionPlanned), string(MissionInProgress), string(MissionCompleted), string(MissionCancelled),
}

// Schemas holds the write DTO of every record collection.
var Schemas = map[string]Schema{
	CollectionVehicles: {
		Collection: CollectionVehicles,
		Fields: []Field{
			{Name: "immatriculation", Kind: KindString, Required: true},
			{Name: "marque", Kind: KindString, Required: true},
			{Name: "modele", Kind: KindString, Required: true},
			{Name: "annee", Kind: KindInt, NonNegative: true},
			{Name: "type", Kind: KindString},
			{Name: "kilometrage", Kind: KindNumber, NonNegative: true},
			{Name: "statut", Kind: KindEnum, Enum: []string{"disponible", "en_mission", "maintenance", "hors_service"}},
			{Name: "capacite", Kind: KindNumber, NonNegative: true},
			{Name: "image_url", Kind: KindString},
		},
	},
	CollectionDrivers: {
		Collection: CollectionDrivers,
		Fields: []Field{
			{Name: "prenom", Kind: KindString, Required: true},
			{Name: "nom", Kind: KindString, Required: true},
			{Name: "telephone", Kind: KindString},
			{Name: "email", Kind: KindString},
			{Name: "numero_permis", Kind: KindString},
			{Name: "expiration_permis", Kind: KindDate},
			{Name: "statut", Kind: KindEnum, Enum: []string{"actif", "conge", "inactif"}},
			{Name: "photo_url", Kind: KindString},
		},
	},
	CollectionClients: {
		Collection: CollectionClients,
		Fields: []Field{
			{Name: "nom", Kind: KindString, Required: true},
			{Name: "contact", Kind: KindString},
			{Name: "telephone", Kind: KindString},
			{Name: "email", Kind: KindString},
			{Name: "adresse", Kind: KindString},
		},
	},
	CollectionMissions: {
		Collection: CollectionMissions,
		Fields: []Field{
			{Name: "depart", Kind: KindString, Required: true},
			{Name: "arrivee", Kind: KindString, Required: true},
			{Name: "depart_coords", Kind: KindObject, Fields: locationFields},
			{Name: "arrivee_coords", Kind: KindObject, Fields: locationFields},
			{Name: "date_debut", Kind: KindDate, Required: true},
			{Name: "date_fin", Kind: KindDate},
			{Name: "camion_id", Kind: KindString, Required: true},
			{Name: "chauffeur_id", Kind: KindString, Required: true},
			{Name: "client_id", Kind: KindString},
			{Name: "statut", Kind: KindEnum, Required: true, Enum: missionStatuses},
			{Name: "couts", Kind: KindObject, Fields: []Field{
				{Name: "carburant", Kind: KindNumber, NonNegative: true},
				{Name: "peages", Kind: KindNumber, NonNegative: true},
				{Name: "chauffeur", Kind: KindNumber, NonNegative: true},
				{Name: "autres", Kind: KindNumber, NonNegative: true},
			}},
			{Name: "revenu", Kind: KindNumber, NonNegative: true},
			{Name: "marchandise", Kind: KindString},
			{Name: "notes", Kind: KindString},
		},
		Order: []DateOrder{{From: "date_debut", To: "date_fin"}},
	},
	CollectionInspections: {
		Collection: CollectionInspections,
		Fields: []Field{
			{Name: "camion_id", Kind: KindString, Required: true},
			{Name: "date_visite", Kind: KindDate, Required: true},
			{Name: "prochaine_visite", Kind: KindDate},
			{Name: "resultat", Kind: KindEnum, Enum: []string{"favorable", "defavorable", "contre_visite"}},
			{Name: "centre", Kind: KindString},
			{Name: "cout", Kind: KindNumber, NonNegative: true},
		},
		Order: []DateOrder{{From: "date_visite", To: "prochaine_visite"}},
	},
	CollectionInsurances: {
		Collection: CollectionInsurances,
		Fields: []Field{
			{Name: "camion_id", Kind: KindString, Required: true},
			{Name: "numero_police", Kind: KindString, Required: true},
			{Name: "assureur", Kind: KindString},
			{Name: "date_debut", Kind: KindDate, Required: true},
			{Name: "date_fin", Kind: KindDate, Required: true},
			{Name: "prime", Kind: KindNumber, Required: true, NonNegative: true},
		},
		Order: []DateOrder{{From: "date_debut", To: "date_fin"}},
	},
	CollectionMaintenance: {
		Collection: CollectionMaintenance,
		Fields: []Field{
			{Name: "camion_id", Kind: KindString, Required: true},
			{Name: "type", Kind: KindString, Required: true},
			{Name: "description", Kind: KindString},
			{Name: "date", Kind: KindDate, Required: true},
			{Name: "kilometrage", Kind: KindNumber, NonNegative: true},
			{Name: "cout", Kind: KindNumber, Required: true, NonNegative: true},
			{Name: "garage", Kind: KindString},
		},
	},
	CollectionAbsences: {
		Collection: CollectionAbsences,
		Fields: []Field{
			{Name: "chauffeur_id", Kind: KindString, Required: true},
			{Name: "type", Kind: KindEnum, Required: true, Enum: []string{AbsenceVacation, AbsenceSick, AbsenceTraining, AbsenceOther}},
			{Name: "date_debut", Kind: KindDate, Required: true},
			{Name: "date_fin", Kind: KindDate, Required: true},
			{Name: "motif", Kind: KindString},
		},
		Order: []DateOrder{{From: "date_debut", To: "date_fin", MaxDays: MaxAbsenceDays}},
	},
	CollectionStock: {
		Collection: CollectionStock,
		Fields: []Field{
			{Name: "nom", Kind: KindString, Required: true},
			{Name: "reference", Kind: KindString},
			{Name: "categorie", Kind: KindString},
			{Name: "quantite", Kind: KindNumber, Required: true, NonNegative: true},
			{Name: "seuil_alerte", Kind: KindNumber, Required: true, NonNegative: true},
			{Name: "unite", Kind: KindString},
			{Name: "prix_unitaire", Kind: KindNumber, NonNegative: true},
			{Name: "emplacement", Kind: KindString},
		},
	},
	CollectionExpenses: {
		Collection: CollectionExpenses,
		Fields: []Field{
			{Name: "categorie", Kind: KindEnum, Required: true, Enum: []string{"carburant", "entretien", "assurance", "peage", "salaire", "autre"}},
			{Name: "description", Kind: KindString},
			{Name: "montant", Kind: KindNumber, Required: true, NonNegative: true},
			{Name: "date", Kind: KindDate, Required: true},
			{Name: "camion_id", Kind: KindString},
			{Name: "mission_id", Kind: KindString},
			{Name: "justificatif_url", Kind: KindString},
		},
	},
	CollectionRevenues: {
		Collection: CollectionRevenues,
		Fields: []Field{
			{Name: "source", Kind: KindString, Required: true},
			{Name: "description", Kind: KindString},
			{Name: "montant", Kind: KindNumber, Required: true, NonNegative: true},
			{Name: "date", Kind: KindDate, Required: true},
			{Name: "client_id", Kind: KindString},
			{Name: "mission_id", Kind: KindString},
		},
	},
	CollectionInvoices: {
		Collection: CollectionInvoices,
		Fields: []Field{
			{Name: "numero", Kind: KindString, Required: true},
			{Name: "client_id", Kind: KindString, Required: true},
			{Name: "mission_id", Kind: KindString},
			{Name: "montant", Kind: KindNumber, Required: true, NonNegative: true},
			{Name: "date_emission", Kind: KindDate, Required: true},
			{Name: "date_echeance", Kind: KindDate},
			{Name: "statut", Kind: KindEnum, Required: true, Enum: []string{InvoiceDraft, InvoiceSent, InvoicePaid, InvoiceOverdue, InvoiceCancelled}},
		},
		Order: []DateOrder{{From: "date_emission", To: "date_echeance"}},
	},
}
