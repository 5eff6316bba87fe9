package routing

import "github.com/ukydev/fleet-manager/internal/models"

// Gazetteer maps normalized place names to coordinates.
var Gazetteer = map[string]models.Location{
	"paris":            {Lat: 48.8566, Lon: 2.3522},
	"lyon":             {Lat: 45.7640, Lon: 4.8357},
	"marseille":        {Lat: 43.2965, Lon: 5.3698},
	"toulouse":         {Lat: 43.6047, Lon: 1.4442},
	"bordeaux":         {Lat: 44.8378, Lon: -0.5792},
	"lille":            {Lat: 50.6292, Lon: 3.0573},
	"nantes":           {Lat: 47.2184, Lon: -1.5536},
	"strasbourg":       {Lat: 48.5734, Lon: 7.7521},
	"montpellier":      {Lat: 43.6108, Lon: 3.8767},
	"nice":             {Lat: 43.7102, Lon: 7.2620},
	"rennes":           {Lat: 48.1173, Lon: -1.6778},
	"le havre":         {Lat: 49.4944, Lon: 0.1079},
	"dijon":            {Lat: 47.3220, Lon: 5.0415},
	"grenoble":         {Lat: 45.1885, Lon: 5.7245},
	"clermont ferrand": {Lat: 45.7772, Lon: 3.0870},
	"casablanca":       {Lat: 33.5731, Lon: -7.5898},
	"rabat":            {Lat: 34.0209, Lon: -6.8416},
	"tanger":           {Lat: 35.7595, Lon: -5.8340},
	"marrakech":        {Lat: 31.6295, Lon: -7.9811},
	"fes":              {Lat: 34.0331, Lon: -5.0003},
	"agadir":           {Lat: 30.4278, Lon: -9.5981},
	"tunis":            {Lat: 36.8065, Lon: 10.1815},
	"alger":            {Lat: 36.7538, Lon: 3.0588},
	"bruxelles":        {Lat: 50.8503, Lon: 4.3517},
	"geneve":           {Lat: 46.2044, Lon: 6.1432},
	"barcelone":        {Lat: 41.3874, Lon: 2.1686},
	"madrid":           {Lat: 40.4168, Lon: -3.7038},
}
