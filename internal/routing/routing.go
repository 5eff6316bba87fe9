// Package routing resolves mission endpoints to coordinates and fetches the road
// geometry drawn on the map.
package routing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-manager/internal/models"
)

// DefaultOSRMURL is the public OSRM demo server.
const DefaultOSRMURL = "https://router.project-osrm.org"

// ErrUnknownPlace is returned when an endpoint name has no known coordinates.
var ErrUnknownPlace = errors.New("unknown place")

// Route sources.
const (
	SourceOSRM   = "osrm"
	SourceDirect = "direct"
)

// Route is the geometry of a mission.
type Route struct {
	From       models.Location   `json:"from"`
	To         models.Location   `json:"to"`
	Points     []models.Location `json:"points"`
	DistanceKm float64           `json:"distance_km"`
	Source     string            `json:"source"`
}

// Router builds mission routes.
type Router struct {
	BaseURL string
	Client  *http.Client
	Places  map[string]models.Location
}

// NewRouter creates a router using the given OSRM server and the built-in gazetteer.
func NewRouter(baseURL string) *Router {
	if baseURL == "" {
		baseURL = DefaultOSRMURL
	}
	return &Router{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  &http.Client{Timeout: 10 * time.Second},
		Places:  Gazetteer,
	}
}

var accents = strings.NewReplacer(
	"é", "e", "è", "e", "ê", "e", "ë", "e",
	"à", "a", "â", "a", "î", "i", "ï", "i",
	"ô", "o", "ö", "o", "ù", "u", "û", "u", "ü", "u", "ç", "c",
	"-", " ", "'", " ",
)

// NormalizePlace folds case, accents and separators of a place name.
func NormalizePlace(name string) string {
	return strings.Join(strings.Fields(accents.Replace(strings.ToLower(name))), " ")
}

// Resolve returns explicit when set, otherwise the gazetteer entry for name.
func (r *Router) Resolve(name string, explicit *models.Location) (models.Location, error) {
	if explicit != nil && !explicit.IsZero() {
		return *explicit, nil
	}
	if loc, ok := r.Places[NormalizePlace(name)]; ok {
		return loc, nil
	}
	return models.Location{}, fmt.Errorf("%w: %q", ErrUnknownPlace, name)
}

// MissionRoute resolves both endpoints of m and returns the road geometry between
// them, falling back to a straight segment when the routing server fails.
func (r *Router) MissionRoute(ctx context.Context, m models.Mission) (Route, error) {
	from, err := r.Resolve(m.Origin, m.OriginLocation)
	if err != nil {
		return Route{}, err
	}
	to, err := r.Resolve(m.Destination, m.DestinationLocation)
	if err != nil {
		return Route{}, err
	}

	route := Route{From: from, To: to}
	pts, err := r.fetchOSRMRoute(ctx, from, to)
	if err != nil {
		log.WithError(err).WithField("mission_id", m.ID).Warn("OSRM route unavailable, using direct segment")
		route.Points = []models.Location{from, to}
		route.Source = SourceDirect
	} else {
		route.Points = pts
		route.Source = SourceOSRM
	}
	route.DistanceKm = PathLength(route.Points)
	return route, nil
}

func (r *Router) fetchOSRMRoute(ctx context.Context, start, end models.Location) ([]models.Location, error) {
	url := fmt.Sprintf("%s/route/v1/driving/%.6f,%.6f;%.6f,%.6f?overview=full&geometries=geojson",
		r.BaseURL, start.Lon, start.Lat, end.Lon, end.Lat)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("osrm status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	var obj struct {
		Routes []struct {
			Geometry struct {
				Coordinates [][]float64 `json:"coordinates"`
			} `json:"geometry"`
		} `json:"routes"`
	}
	if err := json.Unmarshal(body, &obj); err != nil {
		return nil, err
	}
	if len(obj.Routes) == 0 || len(obj.Routes[0].Geometry.Coordinates) < 2 {
		return nil, fmt.Errorf("no route")
	}
	coords := obj.Routes[0].Geometry.Coordinates
	pts := make([]models.Location, 0, len(coords))
	for _, c := range coords {
		if len(c) < 2 {
			continue
		}
		pts = append(pts, models.Location{Lat: c[1], Lon: c[0]})
	}
	return pts, nil
}

// HaversineKm returns the great-circle distance between a and b.
func HaversineKm(a, b models.Location) float64 {
	const earthRadiusKm = 6371.0
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	s := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(s), math.Sqrt(1-s))
	return earthRadiusKm * c
}

// PathLength sums the segment lengths of a polyline.
func PathLength(points []models.Location) float64 {
	total := 0.0
	for i := 1; i < len(points); i++ {
		total += HaversineKm(points[i-1], points[i])
	}
	return total
}
