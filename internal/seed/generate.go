package seed

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/ukydev/fleet-manager/internal/db"
	"github.com/ukydev/fleet-manager/internal/models"
	"github.com/ukydev/fleet-manager/internal/routing"
)

// Dataset is one generated batch of demo records.
type Dataset struct {
	Vehicles    []models.Vehicle
	Drivers     []models.Driver
	Clients     []models.Client
	Missions    []models.Mission
	Inspections []models.Inspection
	Insurances  []models.Insurance
	Maintenance []models.Maintenance
	Absences    []models.Absence
	Stock       []models.StockItem
	Expenses    []models.Expense
	Revenues    []models.Revenue
}

// Documents returns the dataset grouped by collection name.
func (d Dataset) Documents() map[string][]interface{} {
	out := make(map[string][]interface{})
	add := func(collection string, n int, at func(int) interface{}) {
		docs := make([]interface{}, 0, n)
		for i := 0; i < n; i++ {
			docs = append(docs, at(i))
		}
		out[collection] = docs
	}
	add(models.CollectionVehicles, len(d.Vehicles), func(i int) interface{} { return d.Vehicles[i] })
	add(models.CollectionDrivers, len(d.Drivers), func(i int) interface{} { return d.Drivers[i] })
	add(models.CollectionClients, len(d.Clients), func(i int) interface{} { return d.Clients[i] })
	add(models.CollectionMissions, len(d.Missions), func(i int) interface{} { return d.Missions[i] })
	add(models.CollectionInspections, len(d.Inspections), func(i int) interface{} { return d.Inspections[i] })
	add(models.CollectionInsurances, len(d.Insurances), func(i int) interface{} { return d.Insurances[i] })
	add(models.CollectionMaintenance, len(d.Maintenance), func(i int) interface{} { return d.Maintenance[i] })
	add(models.CollectionAbsences, len(d.Absences), func(i int) interface{} { return d.Absences[i] })
	add(models.CollectionStock, len(d.Stock), func(i int) interface{} { return d.Stock[i] })
	add(models.CollectionExpenses, len(d.Expenses), func(i int) interface{} { return d.Expenses[i] })
	add(models.CollectionRevenues, len(d.Revenues), func(i int) interface{} { return d.Revenues[i] })
	return out
}

var (
	brands = map[string][]string{
		"Renault Trucks": {"T 480", "D Wide", "C 430"},
		"Volvo":          {"FH 500", "FM 420", "FE 320"},
		"Mercedes-Benz":  {"Actros 1845", "Arocs 3240", "Atego 1224"},
		"Scania":         {"R 450", "S 500", "P 280"},
		"DAF":            {"XF 480", "CF 430", "LF 230"},
		"MAN":            {"TGX 18.470", "TGS 26.430", "TGL 12.250"},
		"Iveco":          {"S-Way 490", "X-Way 440", "Eurocargo 120"},
	}
	brandNames   = []string{"Renault Trucks", "Volvo", "Mercedes-Benz", "Scania", "DAF", "MAN", "Iveco"}
	vehicleTypes = []string{"porteur", "semi", "frigorifique", "benne"}
	firstNames   = []string{"Karim", "Julien", "Sofiane", "Marc", "Nadia", "Thomas", "Youssef", "Claire", "Mehdi", "Laurent"}
	lastNames    = []string{"Benali", "Martin", "Durand", "El Idrissi", "Moreau", "Lefebvre", "Haddad", "Girard", "Roux", "Fontaine"}
	clientNames  = []string{"Transports Leroy", "Agro Sud Distribution", "BTP Atlas", "Frais & Co", "Logistique Rhône", "Matériaux du Nord"}
	cityNames    = []string{"Paris", "Lyon", "Marseille", "Toulouse", "Bordeaux", "Lille", "Nantes", "Strasbourg", "Montpellier", "Rennes", "Dijon", "Grenoble"}
	cargo        = []string{"Palettes alimentaires", "Matériaux de construction", "Produits frais", "Électroménager", "Pièces automobiles", "Textile"}
	garages      = []string{"Garage Central PL", "Atelier Poids Lourds Sud", "Truck Service Nord"}
	centers      = []string{"Dekra PL", "Autosur PL", "Securitest PL"}
	insurers     = []string{"AXA Entreprises", "Allianz Transport", "Groupama Pro", "MMA Flotte"}
	maintTypes   = []string{"vidange", "pneus", "freins", "revision", "reparation"}
	absenceTypes = []string{models.AbsenceVacation, models.AbsenceSick, models.AbsenceTraining, models.AbsenceOther}
	expenseCats  = []string{"carburant", "entretien", "assurance", "peage", "salaire", "autre"}
)

var stockCatalog = []models.StockItem{
	{Name: "Filtre à huile", Reference: "FH-220", Category: "filtres", Quantity: 3, AlertThreshold: 5, Unit: "pcs", UnitPrice: 18.5, Location: "Étagère A1"},
	{Name: "Filtre à air", Reference: "FA-118", Category: "filtres", Quantity: 12, AlertThreshold: 4, Unit: "pcs", UnitPrice: 42, Location: "Étagère A2"},
	{Name: "Pneu 315/80 R22.5", Reference: "PN-31580", Category: "pneus", Quantity: 6, AlertThreshold: 6, Unit: "pcs", UnitPrice: 390, Location: "Zone pneus"},
	{Name: "Plaquettes de frein", Reference: "PF-77", Category: "freinage", Quantity: 16, AlertThreshold: 8, Unit: "jeux", UnitPrice: 120, Location: "Étagère B3"},
	{Name: "Huile moteur 15W40", Reference: "HM-1540", Category: "lubrifiants", Quantity: 40, AlertThreshold: 60, Unit: "L", UnitPrice: 4.2, Location: "Cuve 1"},
	{Name: "AdBlue", Reference: "AD-10", Category: "fluides", Quantity: 400, AlertThreshold: 150, Unit: "L", UnitPrice: 0.6, Location: "Cuve 2"},
	{Name: "Ampoule H7 24V", Reference: "AM-H7", Category: "électricité", Quantity: 0, AlertThreshold: 4, Unit: "pcs", UnitPrice: 6, Location: "Tiroir C1"},
	{Name: "Balais d'essuie-glace", Reference: "BE-650", Category: "divers", Quantity: 10, AlertThreshold: 3, Unit: "pcs", UnitPrice: 14, Location: "Tiroir C2"},
}

type generator struct {
	rnd *rand.Rand
	now time.Time
	loc *time.Location
}

func (g *generator) pick(list []string) string {
	return list[g.rnd.Intn(len(list))]
}

// day returns the date offset days from today at the given hour.
func (g *generator) day(offset, hour int) time.Time {
	y, m, d := g.now.In(g.loc).Date()
	return time.Date(y, m, d+offset, hour, 0, 0, 0, g.loc)
}

func (g *generator) amount(min, max float64) float64 {
	return math.Round((min+g.rnd.Float64()*(max-min))*100) / 100
}

func (g *generator) plate() string {
	letters := func() string {
		return string([]byte{byte('A' + g.rnd.Intn(26)), byte('A' + g.rnd.Intn(26))})
	}
	return fmt.Sprintf("%s-%03d-%s", letters(), g.rnd.Intn(1000), letters())
}

// Generate builds a consistent demo dataset around now. Cross references
// (vehicle, driver, client, mission ids) always point inside the dataset.
func Generate(rnd *rand.Rand, now time.Time, loc *time.Location) Dataset {
	if loc == nil {
		loc = time.UTC
	}
	g := &generator{rnd: rnd, now: now, loc: loc}
	stamp := now.UTC()
	var d Dataset

	for i := 0; i < 8; i++ {
		brand := g.pick(brandNames)
		d.Vehicles = append(d.Vehicles, models.Vehicle{
			ID:           db.NewID(),
			Plate:        g.plate(),
			Brand:        brand,
			Model:        g.pick(brands[brand]),
			Year:         2016 + g.rnd.Intn(9),
			Type:         g.pick(vehicleTypes),
			Mileage:      float64(40000 + g.rnd.Intn(600000)),
			Status:       "disponible",
			CapacityTons: float64(8 + g.rnd.Intn(33)),
			CreatedAt:    stamp,
			UpdatedAt:    stamp,
		})
	}

	for i := 0; i < 8; i++ {
		first, last := firstNames[i%len(firstNames)], g.pick(lastNames)
		d.Drivers = append(d.Drivers, models.Driver{
			ID:            db.NewID(),
			FirstName:     first,
			LastName:      last,
			Phone:         fmt.Sprintf("06 %02d %02d %02d %02d", g.rnd.Intn(100), g.rnd.Intn(100), g.rnd.Intn(100), g.rnd.Intn(100)),
			Email:         fmt.Sprintf("chauffeur%d@fleet.example", i+1),
			LicenseNumber: fmt.Sprintf("PL%08d", g.rnd.Intn(100000000)),
			LicenseExpiry: g.day(180+g.rnd.Intn(1500), 0),
			Status:        "actif",
			CreatedAt:     stamp,
			UpdatedAt:     stamp,
		})
	}

	for i, name := range clientNames {
		d.Clients = append(d.Clients, models.Client{
			ID:        db.NewID(),
			Name:      name,
			Contact:   g.pick(firstNames) + " " + g.pick(lastNames),
			Phone:     fmt.Sprintf("04 %02d %02d %02d %02d", g.rnd.Intn(100), g.rnd.Intn(100), g.rnd.Intn(100), g.rnd.Intn(100)),
			Email:     fmt.Sprintf("contact%d@client.example", i+1),
			Address:   fmt.Sprintf("%d rue de l'Industrie, %s", 1+g.rnd.Intn(120), g.pick(cityNames)),
			CreatedAt: stamp,
			UpdatedAt: stamp,
		})
	}

	for i := 0; i < 24; i++ {
		offset := g.rnd.Intn(61) - 30
		origin := g.pick(cityNames)
		dest := g.pick(cityNames)
		for dest == origin {
			dest = g.pick(cityNames)
		}
		from, to := routing.Gazetteer[routing.NormalizePlace(origin)], routing.Gazetteer[routing.NormalizePlace(dest)]
		km := routing.HaversineKm(from, to) * 1.25
		start := g.day(offset, 6+g.rnd.Intn(6))
		m := models.Mission{
			ID:                  db.NewID(),
			Origin:              origin,
			Destination:         dest,
			OriginLocation:      &from,
			DestinationLocation: &to,
			StartDate:           start,
			VehicleID:           d.Vehicles[g.rnd.Intn(len(d.Vehicles))].ID,
			DriverID:            d.Drivers[g.rnd.Intn(len(d.Drivers))].ID,
			ClientID:            d.Clients[g.rnd.Intn(len(d.Clients))].ID,
			Cargo:               g.pick(cargo),
			Costs: models.CostBreakdown{
				Fuel:   math.Round(km * 0.33 * 1.85),
				Tolls:  math.Round(km * 0.21),
				Driver: math.Round(km / 70 * 28),
				Other:  g.amount(0, 80),
			},
			CreatedAt: stamp,
			UpdatedAt: stamp,
		}
		revenue := math.Round(m.Costs.Total() * (1.1 + g.rnd.Float64()*0.4))
		m.Revenue = &revenue
		switch {
		case offset < 0:
			m.Status = models.MissionCompleted
			m.EndDate = start.Add(time.Duration(km/70*float64(time.Hour)) + 2*time.Hour)
		case offset == 0:
			m.Status = models.MissionInProgress
		default:
			m.Status = models.MissionPlanned
		}
		if g.rnd.Intn(10) == 0 {
			m.Status = models.MissionCancelled
			m.EndDate = time.Time{}
		}
		d.Missions = append(d.Missions, m)
	}

	for _, v := range d.Vehicles {
		visit := g.day(g.rnd.Intn(121)-60, 9)
		d.Inspections = append(d.Inspections, models.Inspection{
			ID:          db.NewID(),
			VehicleID:   v.ID,
			Date:        visit,
			NextDueDate: visit.AddDate(1, 0, 0),
			Result:      "favorable",
			Center:      g.pick(centers),
			Cost:        g.amount(90, 160),
			CreatedAt:   stamp,
			UpdatedAt:   stamp,
		})

		start := g.day(-g.rnd.Intn(330), 0)
		d.Insurances = append(d.Insurances, models.Insurance{
			ID:           db.NewID(),
			VehicleID:    v.ID,
			PolicyNumber: fmt.Sprintf("POL-%06d", g.rnd.Intn(1000000)),
			Insurer:      g.pick(insurers),
			StartDate:    start,
			EndDate:      start.AddDate(1, 0, -1),
			Premium:      g.amount(2400, 5200),
			CreatedAt:    stamp,
			UpdatedAt:    stamp,
		})
	}

	for i := 0; i < 10; i++ {
		v := d.Vehicles[g.rnd.Intn(len(d.Vehicles))]
		d.Maintenance = append(d.Maintenance, models.Maintenance{
			ID:          db.NewID(),
			VehicleID:   v.ID,
			Type:        g.pick(maintTypes),
			Description: "Intervention planifiée",
			Date:        g.day(g.rnd.Intn(91)-45, 8),
			Mileage:     v.Mileage + float64(g.rnd.Intn(5000)),
			Cost:        g.amount(150, 2400),
			Garage:      g.pick(garages),
			CreatedAt:   stamp,
			UpdatedAt:   stamp,
		})
	}

	for i := 0; i < 6; i++ {
		start := g.day(g.rnd.Intn(51)-20, 0)
		d.Absences = append(d.Absences, models.Absence{
			ID:        db.NewID(),
			DriverID:  d.Drivers[g.rnd.Intn(len(d.Drivers))].ID,
			Type:      g.pick(absenceTypes),
			StartDate: start,
			EndDate:   start.AddDate(0, 0, g.rnd.Intn(7)),
			CreatedAt: stamp,
			UpdatedAt: stamp,
		})
	}

	for _, item := range stockCatalog {
		item.ID = db.NewID()
		item.CreatedAt = stamp
		item.UpdatedAt = stamp
		d.Stock = append(d.Stock, item)
	}

	for i := 0; i < 30; i++ {
		cat := g.pick(expenseCats)
		e := models.Expense{
			ID:          db.NewID(),
			Category:    cat,
			Description: "Dépense " + cat,
			Amount:      g.amount(40, 1800),
			Date:        g.day(-g.rnd.Intn(180), 10),
			VehicleID:   d.Vehicles[g.rnd.Intn(len(d.Vehicles))].ID,
			CreatedAt:   stamp,
			UpdatedAt:   stamp,
		}
		d.Expenses = append(d.Expenses, e)
	}

	for _, m := range d.Missions {
		if m.Status != models.MissionCompleted || m.Revenue == nil {
			continue
		}
		d.Revenues = append(d.Revenues, models.Revenue{
			ID:          db.NewID(),
			Source:      "mission",
			Description: m.Origin + " → " + m.Destination,
			Amount:      *m.Revenue,
			Date:        m.EndDate,
			ClientID:    m.ClientID,
			MissionID:   m.ID,
			CreatedAt:   stamp,
			UpdatedAt:   stamp,
		})
	}

	return d
}
