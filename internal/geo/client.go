package geo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"ai-mobility-planner/internal/config"
	"ai-mobility-planner/internal/schedule"

	gopolyline "github.com/twpayne/go-polyline"
)

const (
	defaultPlacesURL = "https://maps.googleapis.com/maps/api/place/findplacefromtext/json"
	defaultRoutesURL = "https://routes.googleapis.com/directions/v2:computeRoutes"

	routesFieldMask = "routes.duration,routes.distanceMeters,routes.polyline.encodedPolyline"
)

// ErrNotFound indicates the geocoder returned no candidates for a query.
var ErrNotFound = errors.New("no place candidates found")

// Client is an interface for the outbound geocoding and routing service.
type Client interface {
	FindPlace(ctx context.Context, query string) (schedule.POI, error)
	ComputeRoute(ctx context.Context, origin, destination schedule.POI, mode schedule.TravelMode) ([][]float64, error)
}

// googleClient is the concrete Google Maps Platform client (Places and
// Routes APIs). It is shared read-only across concurrent route workers.
type googleClient struct {
	httpClient *http.Client
	apiKey     string
	placesURL  string
	routesURL  string
}

// NewClient creates a new Google Maps Platform client.
func NewClient(cfg *config.Config) Client {
	return &googleClient{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		apiKey:    cfg.GoogleMapsAPIKey,
		placesURL: defaultPlacesURL,
		routesURL: defaultRoutesURL,
	}
}

type placeCandidate struct {
	Name             string `json:"name"`
	FormattedAddress string `json:"formatted_address"`
	Geometry         struct {
		Location struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"location"`
	} `json:"geometry"`
}

type findPlaceResponse struct {
	Candidates []placeCandidate `json:"candidates"`
	Status     string           `json:"status"`
}

// FindPlace looks up a free-text query with the Places API and returns the
// first candidate. Returns ErrNotFound when the service has no match.
func (c *googleClient) FindPlace(ctx context.Context, query string) (schedule.POI, error) {
	params := url.Values{}
	params.Set("input", query)
	params.Set("inputtype", "textquery")
	params.Set("fields", "formatted_address,name,business_status,geometry")
	params.Set("key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, "GET", c.placesURL+"?"+params.Encode(), nil)
	if err != nil {
		return schedule.POI{}, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return schedule.POI{}, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return schedule.POI{}, fmt.Errorf("places api error: status %d", resp.StatusCode)
	}

	var placeResp findPlaceResponse
	if err := json.NewDecoder(resp.Body).Decode(&placeResp); err != nil {
		return schedule.POI{}, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(placeResp.Candidates) == 0 {
		return schedule.POI{}, fmt.Errorf("%w for %q", ErrNotFound, query)
	}

	// First candidate wins; ranking and disambiguation are the service's
	// concern.
	cand := placeResp.Candidates[0]
	return schedule.POI{
		Name:      cand.Name,
		Latitude:  cand.Geometry.Location.Lat,
		Longitude: cand.Geometry.Location.Lng,
		Address:   cand.FormattedAddress,
	}, nil
}

type computeRoutesResponse struct {
	Routes []struct {
		Duration       string `json:"duration"`
		DistanceMeters int    `json:"distanceMeters"`
		Polyline       struct {
			EncodedPolyline string `json:"encodedPolyline"`
		} `json:"polyline"`
	} `json:"routes"`
}

// ComputeRoute requests a route between two resolved POIs from the Routes API
// and returns the decoded [longitude, latitude] point list. A NONE mode that
// reaches this far is upstream data inconsistency and falls back to WALK.
func (c *googleClient) ComputeRoute(ctx context.Context, origin, destination schedule.POI, mode schedule.TravelMode) ([][]float64, error) {
	if mode == schedule.ModeNone {
		log.Printf("Warning: route requested with travel mode NONE between %q and %q, falling back to WALK", origin.Name, destination.Name)
		mode = schedule.ModeWalk
	}

	payload := map[string]interface{}{
		"origin": map[string]interface{}{
			"location": map[string]interface{}{
				"latLng": map[string]float64{
					"latitude":  origin.Latitude,
					"longitude": origin.Longitude,
				},
			},
		},
		"destination": map[string]interface{}{
			"location": map[string]interface{}{
				"latLng": map[string]float64{
					"latitude":  destination.Latitude,
					"longitude": destination.Longitude,
				},
			},
		},
		"travelMode":             string(mode),
		"computeAlternativeRoutes": false,
		"routeModifiers": map[string]bool{
			"avoidTolls":    false,
			"avoidHighways": false,
			"avoidFerries":  false,
		},
		"languageCode": "en-US",
		"units":        "IMPERIAL",
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.routesURL, bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Api-Key", c.apiKey)
	req.Header.Set("X-Goog-FieldMask", routesFieldMask)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("routes api error: status=%d body=%s", resp.StatusCode, string(bodyBytes))
	}

	var routesResp computeRoutesResponse
	if err := json.NewDecoder(resp.Body).Decode(&routesResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(routesResp.Routes) == 0 {
		return nil, fmt.Errorf("no routes returned between %q and %q", origin.Name, destination.Name)
	}

	return DecodePolyline(routesResp.Routes[0].Polyline.EncodedPolyline)
}

// DecodePolyline decodes a provider polyline into the canonical ordered list
// of [longitude, latitude] points.
func DecodePolyline(encoded string) ([][]float64, error) {
	coords, _, err := gopolyline.DecodeCoords([]byte(encoded))
	if err != nil {
		return nil, fmt.Errorf("failed to decode polyline: %w", err)
	}

	// The wire format carries lat,lng; the trace wants lng,lat.
	points := make([][]float64, len(coords))
	for i, c := range coords {
		points[i] = []float64{c[1], c[0]}
	}
	return points, nil
}
