package server

import (
	"net/http"
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/woozymasta/coordpanel/assets"
	"github.com/woozymasta/coordpanel/internal/config"
	"github.com/woozymasta/coordpanel/internal/conversion"
	"github.com/woozymasta/coordpanel/internal/metrics"
	"github.com/woozymasta/coordpanel/internal/notation"
	"github.com/woozymasta/coordpanel/internal/store"
)

// ServerContext holds dependencies for request handlers.
type ServerContext struct {
	Config     *config.Config
	Controller *conversion.Controller
	Presets    *store.PresetStore
	Tiles      *TileProxy
	Hub        *Hub
	IndexHTML  []byte
	Favicon    []byte
}

// NewServerContext initializes the context and seeds the controller with the
// configured options. Options are ordered by their index, then by name.
func NewServerContext(cfg *config.Config, ctrl *conversion.Controller, presets *store.PresetStore) *ServerContext {
	log.Info().Int("config_options_count", len(cfg.Options)).Msg("Initializing server context")

	sort.Slice(cfg.Options, func(i, j int) bool {
		idxI, idxJ := 999999, 999999
		if cfg.Options[i].Index != nil {
			idxI = *cfg.Options[i].Index
		}
		if cfg.Options[j].Index != nil {
			idxJ = *cfg.Options[j].Index
		}
		if idxI != idxJ {
			return idxI < idxJ
		}

		return cfg.Options[i].Name < cfg.Options[j].Name
	})

	records := make([]*notation.ConversionOptions, 0, len(cfg.Options))
	for i := range cfg.Options {
		opt := &cfg.Options[i]
		rec := opt.Record()

		log.Trace().
			Str("option", opt.Name).
			Str("type", rec.OutputMode().String()).
			Msg("Configured option added")

		records = append(records, rec)
	}
	ctrl.ReplaceAll(records)

	log.Info().
		Int("active_options_count", ctrl.OptionCount()).
		Msg("Server context initialized successfully")

	return &ServerContext{
		Config:     cfg,
		Controller: ctrl,
		Presets:    presets,
		IndexHTML:  assets.Index,
		Favicon:    assets.Favicon,
	}
}

// Routes wires every panel endpoint into one mux.
func (s *ServerContext) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/config", s.HandleConfig)
	mux.HandleFunc("GET /api/formats", s.HandleFormats)
	mux.HandleFunc("GET /api/options", s.HandleOptionsList)
	mux.HandleFunc("POST /api/options", s.HandleOptionCreate)
	mux.HandleFunc("GET /api/options/{index}", s.HandleOptionGet)
	mux.HandleFunc("PATCH /api/options/{index}", s.HandleOptionUpdate)
	mux.HandleFunc("DELETE /api/options", s.HandleOptionsClear)
	mux.HandleFunc("GET /api/point", s.HandlePointGet)
	mux.HandleFunc("POST /api/point", s.HandlePointSet)
	mux.HandleFunc("GET /api/point/geojson", s.HandlePointGeoJSON)
	mux.HandleFunc("GET /api/results", s.HandleResults)
	mux.HandleFunc("GET /api/presets", s.HandlePresetsList)
	mux.HandleFunc("POST /api/presets", s.HandlePresetSave)
	mux.HandleFunc("POST /api/presets/{name}/apply", s.HandlePresetApply)
	mux.HandleFunc("DELETE /api/presets/{name}", s.HandlePresetDelete)

	if s.Hub != nil {
		mux.HandleFunc("GET /ws", s.Hub.HandleWS)
	}
	if s.Tiles != nil {
		mux.HandleFunc("GET /tiles/{z}/{x}/{y}.webp", s.Tiles.HandleTile)
	}

	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /favicon.svg", s.HandleFavicon)
	mux.HandleFunc("/", s.HandleIndex)

	return mux
}
