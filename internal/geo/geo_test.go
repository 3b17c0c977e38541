package geo

import (
	"encoding/json"
	"testing"
)

func TestPointValidate(t *testing.T) {
	cases := []struct {
		name    string
		p       Point
		wantErr bool
	}{
		{"origin", Point{0, 0}, false},
		{"extremes", Point{Lat: 90, Lon: -180}, false},
		{"lat high", Point{Lat: 90.1, Lon: 0}, true},
		{"lat low", Point{Lat: -91, Lon: 0}, true},
		{"lon high", Point{Lat: 0, Lon: 180.5}, true},
		{"lon low", Point{Lat: 0, Lon: -181}, true},
	}

	for _, tc := range cases {
		err := tc.p.Validate()
		if tc.wantErr && err == nil {
			t.Errorf("%s: Validate() = nil, want error", tc.name)
		}
		if !tc.wantErr && err != nil {
			t.Errorf("%s: Validate() = %v, want nil", tc.name, err)
		}
	}
}

func TestTileIndex(t *testing.T) {
	cases := []struct {
		name   string
		p      Point
		zoom   int
		wantX  int
		wantY  int
	}{
		{"world root", Point{0, 0}, 0, 0, 0},
		{"equator greenwich z1", Point{0, 0}, 1, 1, 1},
		{"north west corner", Point{Lat: 85, Lon: -179.9}, 2, 0, 0},
		{"south east corner", Point{Lat: -85, Lon: 179.9}, 2, 3, 3},
		{"clamped pole", Point{Lat: 89.9, Lon: 0}, 3, 4, 0},
	}

	for _, tc := range cases {
		x, y := TileIndex(tc.p, tc.zoom)
		if x != tc.wantX || y != tc.wantY {
			t.Errorf("%s: TileIndex(%v, %d) = (%d, %d), want (%d, %d)",
				tc.name, tc.p, tc.zoom, x, y, tc.wantX, tc.wantY)
		}
	}
}

func TestPointFeatureShape(t *testing.T) {
	fc := Collection(PointFeature(Point{Lat: 38.9, Lon: -77.04}, map[string]interface{}{
		"name": "target",
	}))

	data, err := json.Marshal(fc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded struct {
		Type     string `json:"type"`
		Features []struct {
			Type     string `json:"type"`
			Geometry struct {
				Type        string    `json:"type"`
				Coordinates []float64 `json:"coordinates"`
			} `json:"geometry"`
			Properties map[string]interface{} `json:"properties"`
		} `json:"features"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if decoded.Type != "FeatureCollection" || len(decoded.Features) != 1 {
		t.Fatalf("unexpected collection: %s", data)
	}

	f := decoded.Features[0]
	if f.Type != "Feature" || f.Geometry.Type != "Point" {
		t.Errorf("unexpected feature types: %s", data)
	}
	// GeoJSON coordinate order is lon, lat
	if len(f.Geometry.Coordinates) != 2 || f.Geometry.Coordinates[0] != -77.04 || f.Geometry.Coordinates[1] != 38.9 {
		t.Errorf("coordinates = %v, want [-77.04 38.9]", f.Geometry.Coordinates)
	}
	if f.Properties["name"] != "target" {
		t.Errorf("properties = %v", f.Properties)
	}
}
