package geo

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ai-mobility-planner/internal/schedule"
)

func newTestClient(placesURL, routesURL string) *googleClient {
	return &googleClient{
		httpClient: &http.Client{Timeout: 5 * time.Second},
		apiKey:     "test_key",
		placesURL:  placesURL,
		routesURL:  routesURL,
	}
}

func TestFindPlaceFirstCandidateWins(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("input"); got != "Train Station, Stratford, London" {
			t.Errorf("Unexpected input query: %q", got)
		}
		if r.URL.Query().Get("inputtype") != "textquery" {
			t.Errorf("Expected inputtype textquery, got %q", r.URL.Query().Get("inputtype"))
		}
		w.Write([]byte(`{"status": "OK", "candidates": [
			{"name": "Stratford Station", "formatted_address": "Station St, London E15", "geometry": {"location": {"lat": 51.5419, "lng": -0.0032}}},
			{"name": "Stratford International", "formatted_address": "International Way, London", "geometry": {"location": {"lat": 51.5449, "lng": -0.0087}}}
		]}`))
	}))
	defer ts.Close()

	client := newTestClient(ts.URL, "")
	poi, err := client.FindPlace(context.Background(), "Train Station, Stratford, London")
	if err != nil {
		t.Fatalf("FindPlace failed: %v", err)
	}

	if poi.Name != "Stratford Station" {
		t.Errorf("Expected first candidate 'Stratford Station', got %q", poi.Name)
	}
	if poi.Latitude != 51.5419 || poi.Longitude != -0.0032 {
		t.Errorf("Unexpected coordinates: %f, %f", poi.Latitude, poi.Longitude)
	}
	if poi.Address != "Station St, London E15" {
		t.Errorf("Unexpected address: %q", poi.Address)
	}
}

func TestFindPlaceNoCandidates(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"status": "ZERO_RESULTS", "candidates": []}`))
	}))
	defer ts.Close()

	client := newTestClient(ts.URL, "")
	_, err := client.FindPlace(context.Background(), "Nearby Café, West Kensington")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestFindPlaceServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	client := newTestClient(ts.URL, "")
	_, err := client.FindPlace(context.Background(), "anywhere")
	if err == nil {
		t.Fatal("Expected error for server failure, got nil")
	}
	if errors.Is(err, ErrNotFound) {
		t.Error("Transport errors must not look like ErrNotFound")
	}
}

func TestComputeRoute(t *testing.T) {
	var gotBody map[string]interface{}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Goog-FieldMask") != routesFieldMask {
			t.Errorf("Unexpected field mask: %q", r.Header.Get("X-Goog-FieldMask"))
		}
		if r.Header.Get("X-Goog-Api-Key") != "test_key" {
			t.Errorf("Missing api key header")
		}
		json.NewDecoder(r.Body).Decode(&gotBody)
		// Encodes (38.5,-120.2) (40.7,-120.95) (43.252,-126.453)
		w.Write([]byte(`{"routes": [{"duration": "600s", "distanceMeters": 5000, "polyline": {"encodedPolyline": "_p~iF~ps|U_ulLnnqC_mqNvxq` + "`" + `@"}}]}`))
	}))
	defer ts.Close()

	client := newTestClient("", ts.URL)
	origin := schedule.POI{Name: "Home", Latitude: 51.54, Longitude: -0.003}
	dest := schedule.POI{Name: "Office", Latitude: 51.49, Longitude: -0.21}

	points, err := client.ComputeRoute(context.Background(), origin, dest, schedule.ModeTransit)
	if err != nil {
		t.Fatalf("ComputeRoute failed: %v", err)
	}

	if gotBody["travelMode"] != "TRANSIT" {
		t.Errorf("Expected travelMode TRANSIT, got %v", gotBody["travelMode"])
	}
	if len(points) != 3 {
		t.Fatalf("Expected 3 decoded points, got %d", len(points))
	}
	// Points are [lng, lat].
	if math.Abs(points[0][0]-(-120.2)) > 1e-5 || math.Abs(points[0][1]-38.5) > 1e-5 {
		t.Errorf("Unexpected first point: %v", points[0])
	}
}

func TestComputeRouteNoneFallsBackToWalk(t *testing.T) {
	var gotBody map[string]interface{}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte(`{"routes": [{"polyline": {"encodedPolyline": "_p~iF~ps|U"}}]}`))
	}))
	defer ts.Close()

	client := newTestClient("", ts.URL)
	origin := schedule.POI{Name: "Home", Latitude: 51.54, Longitude: -0.003}
	dest := schedule.POI{Name: "Office", Latitude: 51.49, Longitude: -0.21}

	if _, err := client.ComputeRoute(context.Background(), origin, dest, schedule.ModeNone); err != nil {
		t.Fatalf("ComputeRoute failed: %v", err)
	}
	if gotBody["travelMode"] != "WALK" {
		t.Errorf("Expected NONE to fall back to WALK, got %v", gotBody["travelMode"])
	}
}

func TestDecodePolyline(t *testing.T) {
	points, err := DecodePolyline("_p~iF~ps|U_ulLnnqC_mqNvxq`@")
	if err != nil {
		t.Fatalf("DecodePolyline failed: %v", err)
	}

	want := [][]float64{
		{-120.2, 38.5},
		{-120.95, 40.7},
		{-126.453, 43.252},
	}
	if len(points) != len(want) {
		t.Fatalf("Expected %d points, got %d", len(want), len(points))
	}
	for i := range want {
		if math.Abs(points[i][0]-want[i][0]) > 1e-5 || math.Abs(points[i][1]-want[i][1]) > 1e-5 {
			t.Errorf("Point %d = %v, want %v", i, points[i], want[i])
		}
	}

	if _, err := DecodePolyline("\xff"); err == nil {
		t.Error("Expected error for invalid polyline, got nil")
	}
}
