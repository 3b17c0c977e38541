// Package server handles HTTP requests and middleware.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/woozymasta/coordpanel/internal/conversion"
	"github.com/woozymasta/coordpanel/internal/geo"
	"github.com/woozymasta/coordpanel/internal/notation"
	"github.com/woozymasta/coordpanel/internal/store"
)

const etagCap = 64

// formatInfo describes one notation and the knobs that apply to it.
type formatInfo struct {
	Name                  string `json:"name"`
	SupportsAddSpaces     bool   `json:"supports_add_spaces"`
	SupportsPrecision     bool   `json:"supports_precision"`
	SupportsDecimalPlaces bool   `json:"supports_decimal_places"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Ignoring error as we cannot handle client disconnects
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// HandleConfig serves the panel-facing configuration values.
func (s *ServerContext) HandleConfig(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"attribution":   s.Config.Attribution,
		"tiles_enabled": s.Tiles != nil,
		"zoom_limit":    s.Config.Tiles.ZoomLimit,
	})
}

// HandleFormats serves the notation catalog in its fixed order.
func (s *ServerContext) HandleFormats(w http.ResponseWriter, r *http.Request) {
	names := notation.TypeNames()

	infos := make([]formatInfo, 0, len(names))
	for _, name := range names {
		t := notation.ParseCoordinateType(name)
		infos = append(infos, formatInfo{
			Name:                  name,
			SupportsAddSpaces:     t.SupportsAddSpaces(),
			SupportsPrecision:     t.SupportsPrecision(),
			SupportsDecimalPlaces: t.SupportsDecimalPlaces(),
		})
	}

	respondJSON(w, http.StatusOK, infos)
}

// HandleOptionsList serves the current option list.
func (s *ServerContext) HandleOptionsList(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.Controller.Views())
}

// HandleOptionCreate appends a new option built from the request body.
func (s *ServerContext) HandleOptionCreate(w http.ResponseWriter, r *http.Request) {
	var patch conversion.OptionPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		respondError(w, http.StatusBadRequest, "invalid option payload: "+err.Error())
		return
	}

	idx, view := s.Controller.CreateOption(patch)

	log.Debug().Int("index", idx).Str("type", view.Type).Msg("Option created")
	respondJSON(w, http.StatusCreated, map[string]any{"index": idx, "option": view})
}

// HandleOptionGet serves one option by its list index.
func (s *ServerContext) HandleOptionGet(w http.ResponseWriter, r *http.Request) {
	idx, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "index must be an integer")
		return
	}

	view, err := s.Controller.View(idx)
	if errors.Is(err, conversion.ErrIndexRange) {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, view)
}

// HandleOptionUpdate patches one option in place.
func (s *ServerContext) HandleOptionUpdate(w http.ResponseWriter, r *http.Request) {
	idx, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "index must be an integer")
		return
	}

	var patch conversion.OptionPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		respondError(w, http.StatusBadRequest, "invalid option payload: "+err.Error())
		return
	}

	view, err := s.Controller.UpdateOption(idx, patch)
	if errors.Is(err, conversion.ErrIndexRange) {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, view)
}

// HandleOptionsClear drops every option from the list.
func (s *ServerContext) HandleOptionsClear(w http.ResponseWriter, r *http.Request) {
	s.Controller.ClearOptions()
	w.WriteHeader(http.StatusNoContent)
}

// HandlePointSet stores the active point and serves the refreshed results.
func (s *ServerContext) HandlePointSet(w http.ResponseWriter, r *http.Request) {
	var pt geo.Point
	if err := json.NewDecoder(r.Body).Decode(&pt); err != nil {
		respondError(w, http.StatusBadRequest, "invalid point payload: "+err.Error())
		return
	}

	if err := s.Controller.SetPoint(pt); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"point":   pt,
		"results": s.Controller.Results(),
	})
}

// HandlePointGet serves the active point, if one was set.
func (s *ServerContext) HandlePointGet(w http.ResponseWriter, r *http.Request) {
	pt, ok := s.Controller.Point()
	if !ok {
		respondError(w, http.StatusNotFound, "no point set")
		return
	}

	respondJSON(w, http.StatusOK, pt)
}

// HandlePointGeoJSON serves the active point as a GeoJSON feature with the
// formatted notations attached as properties.
func (s *ServerContext) HandlePointGeoJSON(w http.ResponseWriter, r *http.Request) {
	pt, ok := s.Controller.Point()
	if !ok {
		respondError(w, http.StatusNotFound, "no point set")
		return
	}

	props := map[string]any{"results": s.Controller.Results()}
	fc := geo.Collection(geo.PointFeature(pt, props))

	w.Header().Set("Content-Type", "application/geo+json")
	// Ignoring error as we cannot handle client disconnects
	_ = json.NewEncoder(w).Encode(fc)
}

// HandleResults serves the formatted value of every option for the active point.
func (s *ServerContext) HandleResults(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.Controller.Results())
}

// HandlePresetsList serves the saved presets without their options.
func (s *ServerContext) HandlePresetsList(w http.ResponseWriter, r *http.Request) {
	if s.Presets == nil {
		respondError(w, http.StatusServiceUnavailable, "preset storage is not configured")
		return
	}

	presets, err := s.Presets.ListPresets(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list presets")
		respondError(w, http.StatusInternalServerError, "failed to list presets")
		return
	}

	respondJSON(w, http.StatusOK, presets)
}

// HandlePresetSave snapshots the current option list under the posted name.
func (s *ServerContext) HandlePresetSave(w http.ResponseWriter, r *http.Request) {
	if s.Presets == nil {
		respondError(w, http.StatusServiceUnavailable, "preset storage is not configured")
		return
	}

	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid preset payload: "+err.Error())
		return
	}
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "preset name must not be empty")
		return
	}

	preset, err := s.Presets.SavePreset(r.Context(), req.Name, s.Controller.Views())
	if err != nil {
		log.Error().Err(err).Str("preset", req.Name).Msg("Failed to save preset")
		respondError(w, http.StatusInternalServerError, "failed to save preset")
		return
	}

	log.Info().Str("preset", preset.Name).Int("options", len(preset.Options)).Msg("Preset saved")
	respondJSON(w, http.StatusCreated, preset)
}

// HandlePresetApply replaces the option list with a saved preset.
func (s *ServerContext) HandlePresetApply(w http.ResponseWriter, r *http.Request) {
	if s.Presets == nil {
		respondError(w, http.StatusServiceUnavailable, "preset storage is not configured")
		return
	}

	name := r.PathValue("name")
	preset, err := s.Presets.GetPreset(r.Context(), name)
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "preset not found")
		return
	}
	if err != nil {
		log.Error().Err(err).Str("preset", name).Msg("Failed to load preset")
		respondError(w, http.StatusInternalServerError, "failed to load preset")
		return
	}

	records := make([]*notation.ConversionOptions, 0, len(preset.Options))
	for _, view := range preset.Options {
		records = append(records, view.Record())
	}
	s.Controller.ReplaceAll(records)

	log.Info().Str("preset", name).Int("options", len(records)).Msg("Preset applied")
	respondJSON(w, http.StatusOK, s.Controller.Views())
}

// HandlePresetDelete removes a saved preset.
func (s *ServerContext) HandlePresetDelete(w http.ResponseWriter, r *http.Request) {
	if s.Presets == nil {
		respondError(w, http.StatusServiceUnavailable, "preset storage is not configured")
		return
	}

	name := r.PathValue("name")
	err := s.Presets.DeletePreset(r.Context(), name)
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "preset not found")
		return
	}
	if err != nil {
		log.Error().Err(err).Str("preset", name).Msg("Failed to delete preset")
		respondError(w, http.StatusInternalServerError, "failed to delete preset")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleFavicon serves the site favicon.
func (s *ServerContext) HandleFavicon(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	_, _ = w.Write(s.Favicon)
}

// HandleIndex serves the main HTML application.
func (s *ServerContext) HandleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" && strings.Contains(r.URL.Path, ".") {
		http.NotFound(w, r)
		return
	}

	etag := fmt.Sprintf(`"%x"`, len(s.IndexHTML))

	if match := r.Header.Get("If-None-Match"); match == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "public, no-cache")
	_, _ = w.Write(s.IndexHTML)
}

// serveFile tries to serve a file from disk with ETag generation.
// It returns true if the file was found and served (or 304).
func serveFile(w http.ResponseWriter, r *http.Request, path string, contentType string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	if info.IsDir() {
		return false
	}

	buf := make([]byte, 0, etagCap)
	buf = append(buf, '"')
	buf = strconv.AppendInt(buf, info.Size(), 16)
	buf = append(buf, '-')
	buf = strconv.AppendInt(buf, info.ModTime().UnixNano(), 16)
	buf = append(buf, '"')
	etag := string(buf)

	// check If-None-Match (client sent ETag)
	if match := r.Header.Get("If-None-Match"); match == etag {
		w.WriteHeader(http.StatusNotModified)
		return true
	}

	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "public, no-cache")

	if contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}

	http.ServeFile(w, r, path)
	return true
}
