package main

import (
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"github.com/woozymasta/coordpanel/internal/config"
	"github.com/woozymasta/coordpanel/internal/conversion"
	"github.com/woozymasta/coordpanel/internal/format"
	"github.com/woozymasta/coordpanel/internal/logger"
	"github.com/woozymasta/coordpanel/internal/server"
	"github.com/woozymasta/coordpanel/internal/store"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	ConfigFile string `short:"c" long:"config"     env:"CONFIG_FILE"    description:"Path to configuration file"  default:"config.yaml"`
	Addr       string `short:"a" long:"addr"       env:"LISTEN_ADDRESS" description:"Address to listen on"        default:"0.0.0.0"`
	Port       int    `short:"p" long:"port"       env:"LISTEN_PORT"    description:"Port to listen on"           default:"8080"`
	ZoomLimit  int    `short:"z" long:"zoom-limit" env:"ZOOM_LIMIT"     description:"Tiles zoom limit"            default:"6"`
	PresetsDB  string `short:"d" long:"presets-db" env:"PRESETS_DB"     description:"Path to the preset database" default:"presets.db"`
}

func main() {
	// .env is optional, flags read their env tags after this
	_ = godotenv.Load()

	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	// Setup Logging
	opts.Logger.Setup()

	// Load Config
	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	if cfg.Tiles.ZoomLimit <= 0 {
		if opts.ZoomLimit <= 0 {
			cfg.Tiles.ZoomLimit = 6
		} else {
			cfg.Tiles.ZoomLimit = opts.ZoomLimit
		}
	}
	if cfg.PresetsDB == "" {
		cfg.PresetsDB = opts.PresetsDB
	}

	db, err := openDB(cfg.PresetsDB)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open preset database")
	}
	defer func() { _ = db.Close() }()

	if err := store.InitSchema(db); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize preset schema")
	}

	var formatter conversion.Formatter
	if cfg.Formatter.URL != "" {
		formatter = format.NewGeometryService(cfg.Formatter.URL, cfg.Formatter.TimeoutDuration())
		log.Info().Str("url", cfg.Formatter.URL).Msg("Using geometry service formatter")
	} else {
		formatter = format.Static{}
		log.Info().Msg("No formatter URL configured, using static formatter")
	}

	ctrl := conversion.NewController(formatter, cfg.Formatter.TimeoutDuration())
	srvCtx := server.NewServerContext(cfg, ctrl, store.NewPresetStore(db))

	if cfg.Tiles.URL != "" {
		proxy, err := server.NewTileProxy(cfg.Tiles)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize tile proxy")
		}
		srvCtx.Tiles = proxy
	} else {
		log.Info().Msg("Tile proxy disabled: no tiles URL configured")
	}

	hub := server.NewHub(ctrl.Snapshot)
	events, cancel := ctrl.Subscribe()
	defer cancel()
	go hub.Run(events)
	srvCtx.Hub = hub

	handler := server.RequestLogger(server.Recovery(srvCtx.Routes()))

	listenAddr := fmt.Sprintf("%s:%d", opts.Addr, opts.Port)
	log.Info().
		Str("addr", listenAddr).
		Int("options_loaded", ctrl.OptionCount()).
		Int("zoom_limit", cfg.Tiles.ZoomLimit).
		Msg("Web server started")

	srv := &http.Server{
		Addr:              listenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		log.Fatal().Err(err).Msg("Server failed")
	}
}

func openDB(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database dir %q: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database %q: %w", path, err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("verify sqlite connection to %q: %w", path, err)
	}

	return db, nil
}
