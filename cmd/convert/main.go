package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jessevdk/go-flags"
	"gopkg.in/yaml.v3"

	"github.com/woozymasta/coordpanel/internal/config"
	"github.com/woozymasta/coordpanel/internal/conversion"
	"github.com/woozymasta/coordpanel/internal/format"
	"github.com/woozymasta/coordpanel/internal/geo"
	"github.com/woozymasta/coordpanel/internal/notation"
)

type Options struct {
	Lat float64 `long:"lat" description:"Latitude of the point" required:"true"`
	Lon float64 `long:"lon" description:"Longitude of the point" required:"true"`

	ConfigFile string `short:"c" long:"config" env:"CONFIG_FILE" description:"Format the point with every option from this configuration file"`

	Type          string `short:"t" long:"type" description:"Notation for a single ad-hoc option" choice:"Gars" choice:"GeoRef" choice:"LatLon" choice:"Mgrs" choice:"Usng" choice:"Utm" default:"Usng"`
	Precision     int    `long:"precision" description:"Grid precision for GeoRef, Mgrs and Usng" default:"8"`
	DecimalPlaces int    `long:"decimal-places" description:"Decimal places for LatLon" default:"6"`
	NoSpaces      bool   `long:"no-spaces" description:"Drop spaces from Mgrs, Usng and Utm output"`
	MgrsMode      string `long:"mgrs-mode" description:"MGRS lettering scheme"`
	UtmMode       string `long:"utm-mode" description:"UTM hemisphere notation"`
	LatLonFormat  string `long:"latlon-format" description:"LatLon representation"`

	FormatterURL string `short:"u" long:"formatter-url" env:"FORMATTER_URL" description:"Geometry service URL, formats offline when empty"`
	Timeout      int    `long:"timeout" description:"Formatter timeout in seconds" default:"10"`

	Output string `short:"o" long:"out" description:"Output file path. Writes to stdout if empty"`
	Format string `short:"f" long:"format" description:"Output format" choice:"json" choice:"yaml" choice:"text" default:"text"`
}

func main() {
	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	pt := geo.Point{Lat: opts.Lat, Lon: opts.Lon}
	if err := pt.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	records, err := buildRecords(&opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	var formatter conversion.Formatter
	if opts.FormatterURL != "" {
		formatter = format.NewGeometryService(opts.FormatterURL, time.Duration(opts.Timeout)*time.Second)
	} else {
		formatter = format.Static{}
	}

	results := make([]conversion.Result, 0, len(records))
	for _, rec := range records {
		res := conversion.Result{
			Name: rec.Name(),
			Type: rec.OutputMode().String(),
		}

		ctx, cancel := context.WithTimeout(context.Background(), time.Duration(opts.Timeout)*time.Second)
		value, err := formatter.Format(ctx, pt, rec)
		cancel()

		if err != nil {
			res.Error = err.Error()
		} else {
			res.Value = value
		}
		results = append(results, res)
	}

	outputData, err := render(results, opts.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling results: %v\n", err)
		os.Exit(1)
	}

	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, outputData, 0644); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing output file: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Formatted %d notations to %s (format: %s)\n", len(results), opts.Output, opts.Format)
	} else {
		fmt.Print(string(outputData))
	}
}

// buildRecords loads every option from the configuration file, or builds a
// single option from the ad-hoc flags when no file is given.
func buildRecords(opts *Options) ([]*notation.ConversionOptions, error) {
	if opts.ConfigFile != "" {
		cfg, err := config.Load(opts.ConfigFile)
		if err != nil {
			return nil, err
		}

		records := make([]*notation.ConversionOptions, 0, len(cfg.Options))
		for i := range cfg.Options {
			records = append(records, cfg.Options[i].Record())
		}

		return records, nil
	}

	rec := notation.NewConversionOptions()
	rec.SetOutputMode(notation.ParseCoordinateType(opts.Type))
	rec.SetPrecision(opts.Precision)
	rec.SetDecimalPlaces(opts.DecimalPlaces)
	rec.SetAddSpaces(!opts.NoSpaces)
	if opts.MgrsMode != "" {
		rec.SetMgrsConversionMode(notation.ParseMgrsConversionMode(opts.MgrsMode))
	}
	if opts.UtmMode != "" {
		rec.SetUtmConversionMode(notation.ParseUtmConversionMode(opts.UtmMode))
	}
	if opts.LatLonFormat != "" {
		rec.SetLatLonFormat(notation.ParseLatLonFormat(opts.LatLonFormat))
	}

	return []*notation.ConversionOptions{rec}, nil
}

func render(results []conversion.Result, outFormat string) ([]byte, error) {
	switch outFormat {
	case "json":
		return json.MarshalIndent(results, "", "  ")
	case "yaml":
		return yaml.Marshal(results)
	}

	var sb strings.Builder
	for _, res := range results {
		label := res.Type
		if res.Name != "" {
			label = fmt.Sprintf("%s (%s)", res.Name, res.Type)
		}
		if res.Error != "" {
			fmt.Fprintf(&sb, "%-32s error: %s\n", label+":", res.Error)
			continue
		}
		fmt.Fprintf(&sb, "%-32s %s\n", label+":", res.Value)
	}

	return []byte(sb.String()), nil
}
