package geo

// FeatureCollection is the root GeoJSON container served by the export
// endpoints.
type FeatureCollection struct {
	Type     string    `json:"type" yaml:"type"`
	Features []Feature `json:"features" yaml:"features"`
}

// Feature is a single geographic feature with geometry and properties.
type Feature struct {
	Properties map[string]interface{} `json:"properties" yaml:"properties"`
	Type       string                 `json:"type" yaml:"type"`
	Geometry   Geometry               `json:"geometry" yaml:"geometry"`
}

// Geometry holds the feature geometry. Only points are produced here.
type Geometry struct {
	Type        string    `json:"type" yaml:"type"`
	Coordinates []float64 `json:"coordinates" yaml:"coordinates"` // [Lon, Lat]
}

// PointFeature builds a GeoJSON point feature with the given
// properties.
func PointFeature(p Point, props map[string]interface{}) Feature {
	return Feature{
		Type: "Feature",
		Geometry: Geometry{
			Type:        "Point",
			Coordinates: []float64{p.Lon, p.Lat},
		},
		Properties: props,
	}
}

// Collection wraps features into a FeatureCollection.
func Collection(features ...Feature) FeatureCollection {
	return FeatureCollection{
		Type:     "FeatureCollection",
		Features: features,
	}
}
