package main

import (
	"os"

	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog/log"

	"github.com/woozymasta/coordpanel/internal/config"
	"github.com/woozymasta/coordpanel/internal/geo"
	"github.com/woozymasta/coordpanel/internal/logger"
	"github.com/woozymasta/coordpanel/internal/server"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	ConfigFile  string `short:"c" long:"config"      env:"CONFIG_FILE" description:"Path to configuration file" default:"config.yaml"`
	Concurrency int    `short:"p" long:"concurrency" env:"CONCURRENCY" description:"Concurrency"                default:"16"`
	ZoomLimit   int    `short:"z" long:"zoom-limit"  env:"ZOOM_LIMIT"  description:"Tiles zoom limit"           default:"6"`
	Force       bool   `short:"f" long:"force"       description:"Re-fetch tiles already in the cache"`

	Lat    *float64 `long:"lat"    description:"Warm only tiles around this latitude (requires --lon)"`
	Lon    *float64 `long:"lon"    description:"Warm only tiles around this longitude (requires --lat)"`
	Radius int      `long:"radius" description:"Tile radius around the point at each zoom level" default:"2"`
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

	opts.Logger.Setup()

	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	if cfg.Tiles.URL == "" {
		log.Fatal().Msg("No tiles URL configured, nothing to prefetch")
	}
	if cfg.Tiles.CacheDir == "" {
		log.Fatal().Msg("No tile cache directory configured")
	}

	if cfg.Tiles.ZoomLimit <= 0 {
		if opts.ZoomLimit <= 0 {
			cfg.Tiles.ZoomLimit = 6
		} else {
			cfg.Tiles.ZoomLimit = opts.ZoomLimit
		}
	}

	proxy, err := server.NewTileProxy(cfg.Tiles)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize tile proxy")
	}

	log.Info().
		Str("url", cfg.Tiles.URL).
		Str("cache", cfg.Tiles.CacheDir).
		Int("zoom_limit", cfg.Tiles.ZoomLimit).
		Int("concurrency", opts.Concurrency).
		Msg("Starting tile prefetch")

	var fetched, skipped, failed int
	switch {
	case opts.Lat != nil && opts.Lon != nil:
		center := geo.Point{Lat: *opts.Lat, Lon: *opts.Lon}
		if err := center.Validate(); err != nil {
			log.Fatal().Err(err).Msg("Invalid prefetch center")
		}

		log.Info().
			Str("center", center.String()).
			Int("radius", opts.Radius).
			Msg("Warming tiles around point")
		fetched, skipped, failed = proxy.PrefetchAround(center, opts.Radius, opts.Concurrency, opts.Force)
	case opts.Lat != nil || opts.Lon != nil:
		log.Fatal().Msg("Both --lat and --lon are required to warm around a point")
	default:
		fetched, skipped, failed = proxy.Prefetch(opts.Concurrency, opts.Force)
	}

	log.Info().
		Int("fetched", fetched).
		Int("skipped", skipped).
		Int("failed", failed).
		Msg("Prefetch finished")
}
