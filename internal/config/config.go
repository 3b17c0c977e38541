// Package config handles configuration loading and shared data structures.
package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/woozymasta/coordpanel/internal/notation"
)

// Config represents the root configuration file structure.
type Config struct {
	Attribution string    `yaml:"attribution,omitempty" json:"attribution,omitempty"`
	Options     []Option  `yaml:"options" json:"options"`
	Formatter   Formatter `yaml:"formatter,omitempty" json:"-"`
	Tiles       Tiles     `yaml:"tiles,omitempty" json:"-"`
	PresetsDB   string    `yaml:"presets_db,omitempty" json:"-"`
}

// Option declares one output notation for the panel. Enum fields hold
// the canonical strings; unknown values take the notation package's
// tolerant fallbacks. Omitted numerics keep the record defaults.
type Option struct {
	Index *int `yaml:"index,omitempty" json:"index,omitempty"`

	Name          string `yaml:"name" json:"name"`
	Type          string `yaml:"type" json:"type"`
	Precision     *int   `yaml:"precision,omitempty" json:"precision,omitempty"`
	DecimalPlaces *int   `yaml:"decimal_places,omitempty" json:"decimal_places,omitempty"`
	AddSpaces     *bool  `yaml:"add_spaces,omitempty" json:"add_spaces,omitempty"`
	MgrsMode      string `yaml:"mgrs_mode,omitempty" json:"mgrs_mode,omitempty"`
	UtmMode       string `yaml:"utm_mode,omitempty" json:"utm_mode,omitempty"`
	LatLonFormat  string `yaml:"latlon_format,omitempty" json:"latlon_format,omitempty"`
}

// Formatter points the panel at a geometry service. An empty URL
// selects the offline placeholder backend. Timeout is in seconds.
type Formatter struct {
	URL     string `yaml:"url,omitempty"`
	Timeout int    `yaml:"timeout,omitempty"`
}

// TimeoutDuration returns the configured timeout, or the fallback when
// unset.
func (f Formatter) TimeoutDuration() time.Duration {
	if f.Timeout <= 0 {
		return 10 * time.Second
	}

	return time.Duration(f.Timeout) * time.Second
}

// Tiles configures the basemap tile proxy.
type Tiles struct {
	URL       string `yaml:"url,omitempty"`
	CacheDir  string `yaml:"cache_dir,omitempty"`
	ZoomLimit int    `yaml:"zoom,omitempty"`
}

// Load reads and parses the YAML configuration file from the specified path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Record builds an option record from the config declaration, leaving
// omitted fields at their defaults.
func (o *Option) Record() *notation.ConversionOptions {
	rec := notation.NewConversionOptions()

	rec.SetName(o.Name)
	rec.SetOutputMode(notation.ParseCoordinateType(o.Type))

	if o.Precision != nil {
		rec.SetPrecision(*o.Precision)
	}
	if o.DecimalPlaces != nil {
		rec.SetDecimalPlaces(*o.DecimalPlaces)
	}
	if o.AddSpaces != nil {
		rec.SetAddSpaces(*o.AddSpaces)
	}
	if o.MgrsMode != "" {
		rec.SetMgrsConversionMode(notation.ParseMgrsConversionMode(o.MgrsMode))
	}
	if o.UtmMode != "" {
		rec.SetUtmConversionMode(notation.ParseUtmConversionMode(o.UtmMode))
	}
	if o.LatLonFormat != "" {
		rec.SetLatLonFormat(notation.ParseLatLonFormat(o.LatLonFormat))
	}

	return rec
}
