package models

// Names of the document collections.
const (
	CollectionVehicles    = "camions"
	CollectionDrivers     = "chauffeurs"
	CollectionClients     = "clients"
	CollectionMissions    = "missions"
	CollectionInspections = "visites"
	CollectionInsurances  = "assurances"
	CollectionMaintenance = "entretiens"
	CollectionAbsences    = "absences"
	CollectionStock       = "stock"
	CollectionExpenses    = "depenses"
	CollectionRevenues    = "recettes"
	CollectionInvoices    = "factures"
	CollectionUsers       = "users"
)

// RecordCollections lists the collections exposed through the records API, in display order.
var RecordCollections = []string{
	CollectionVehicles,
	CollectionDrivers,
	CollectionClients,
	CollectionMissions,
	CollectionInspections,
	CollectionInsurances,
	CollectionMaintenance,
	CollectionAbsences,
	CollectionStock,
	CollectionExpenses,
	CollectionRevenues,
	CollectionInvoices,
}

// CalendarCollections are the collections the calendar view is computed from.
var CalendarCollections = []string{
	CollectionMissions,
	CollectionInspections,
	CollectionInsurances,
	CollectionMaintenance,
	CollectionAbsences,
	CollectionVehicles,
	CollectionDrivers,
}

// NewRecordList returns a pointer to an empty slice of the typed record stored in collection,
// suitable for cursor decoding. It returns nil for unknown collections.
func NewRecordList(collection string) interface{} {
	switch collection {
	case CollectionVehicles:
		return &[]Vehicle{}
	case CollectionDrivers:
		return &[]Driver{}
	case CollectionClients:
		return &[]Client{}
	case CollectionMissions:
		return &[]Mission{}
	case CollectionInspections:
		return &[]Inspection{}
	case CollectionInsurances:
		return &[]Insurance{}
	case CollectionMaintenance:
		return &[]Maintenance{}
	case CollectionAbsences:
		return &[]Absence{}
	case CollectionStock:
		return &[]StockItem{}
	case CollectionExpenses:
		return &[]Expense{}
	case CollectionRevenues:
		return &[]Revenue{}
	case CollectionInvoices:
		return &[]Invoice{}
	default:
		return nil
	}
}

// NewRecord returns a pointer to a zero typed record for collection, or nil.
func NewRecord(collection string) interface{} {
	switch collection {
	case CollectionVehicles:
		return &Vehicle{}
	case CollectionDrivers:
		return &Driver{}
	case CollectionClients:
		return &Client{}
	case CollectionMissions:
		return &Mission{}
	case CollectionInspections:
		return &Inspection{}
	case CollectionInsurances:
		return &Insurance{}
	case CollectionMaintenance:
		return &Maintenance{}
	case CollectionAbsences:
		return &Absence{}
	case CollectionStock:
		return &StockItem{}
	case CollectionExpenses:
		return &Expense{}
	case CollectionRevenues:
		return &Revenue{}
	case CollectionInvoices:
		return &Invoice{}
	default:
		return nil
	}
}
