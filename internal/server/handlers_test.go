package server

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/woozymasta/coordpanel/internal/config"
	"github.com/woozymasta/coordpanel/internal/conversion"
	"github.com/woozymasta/coordpanel/internal/format"
	"github.com/woozymasta/coordpanel/internal/store"
)

func intPtr(v int) *int { return &v }

func testConfig() *config.Config {
	return &config.Config{
		Options: []config.Option{
			{Index: intPtr(2), Name: "Fallback", Type: "LatLon"},
			{Index: intPtr(1), Name: "Strike grid", Type: "Mgrs", Precision: intPtr(5)},
			{Name: "Unranked", Type: "Utm"},
		},
	}
}

func newTestContext(t *testing.T, presets *store.PresetStore) *ServerContext {
	t.Helper()

	ctrl := conversion.NewController(format.Static{}, time.Second)

	return NewServerContext(testConfig(), ctrl, presets)
}

func openTestStore(t *testing.T) *store.PresetStore {
	t.Helper()

	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "presets.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, store.InitSchema(db))

	return store.NewPresetStore(db)
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	return rec
}

func TestNewServerContextSortsOptions(t *testing.T) {
	sctx := newTestContext(t, nil)

	views := sctx.Controller.Views()
	require.Len(t, views, 3)

	// explicit indexes first, options without an index sink to the end
	assert.Equal(t, "Strike grid", views[0].Name)
	assert.Equal(t, "Fallback", views[1].Name)
	assert.Equal(t, "Unranked", views[2].Name)
	assert.Equal(t, 5, views[0].Precision)
}

func TestHandleConfig(t *testing.T) {
	sctx := newTestContext(t, nil)
	sctx.Config.Attribution = "© Test contributors"
	sctx.Config.Tiles.ZoomLimit = 7
	h := sctx.Routes()

	rec := doJSON(t, h, http.MethodGet, "/api/config", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Attribution  string `json:"attribution"`
		TilesEnabled bool   `json:"tiles_enabled"`
		ZoomLimit    int    `json:"zoom_limit"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "© Test contributors", body.Attribution)
	assert.False(t, body.TilesEnabled)
	assert.Equal(t, 7, body.ZoomLimit)
}

func TestHandleFormats(t *testing.T) {
	h := newTestContext(t, nil).Routes()

	rec := doJSON(t, h, http.MethodGet, "/api/formats", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var infos []formatInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &infos))
	require.Len(t, infos, 6)

	names := make([]string, 0, len(infos))
	for _, info := range infos {
		names = append(names, info.Name)
	}
	assert.Equal(t, []string{"Gars", "GeoRef", "LatLon", "Mgrs", "Usng", "Utm"}, names)

	byName := make(map[string]formatInfo, len(infos))
	for _, info := range infos {
		byName[info.Name] = info
	}
	assert.True(t, byName["Mgrs"].SupportsAddSpaces)
	assert.True(t, byName["Mgrs"].SupportsPrecision)
	assert.False(t, byName["Mgrs"].SupportsDecimalPlaces)
	assert.True(t, byName["LatLon"].SupportsDecimalPlaces)
	assert.False(t, byName["LatLon"].SupportsAddSpaces)
	assert.False(t, byName["Gars"].SupportsPrecision)
}

func TestOptionLifecycle(t *testing.T) {
	sctx := newTestContext(t, nil)
	h := sctx.Routes()

	name := "Recon"
	mode := "Usng"
	rec := doJSON(t, h, http.MethodPost, "/api/options", conversion.OptionPatch{Name: &name, Type: &mode})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created struct {
		Index  int                   `json:"index"`
		Option conversion.OptionView `json:"option"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, 3, created.Index)
	assert.Equal(t, "Usng", created.Option.Type)
	assert.Equal(t, "Recon", created.Option.Name)

	precision := 3
	rec = doJSON(t, h, http.MethodPatch, "/api/options/0", conversion.OptionPatch{Precision: &precision})
	require.Equal(t, http.StatusOK, rec.Code)

	var view conversion.OptionView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, 3, view.Precision)

	rec = doJSON(t, h, http.MethodGet, "/api/options/99", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, h, http.MethodPatch, "/api/options/99", conversion.OptionPatch{Precision: &precision})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, h, http.MethodPatch, "/api/options/zero", conversion.OptionPatch{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, h, http.MethodDelete, "/api/options", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 0, sctx.Controller.OptionCount())
}

func TestPointFlow(t *testing.T) {
	sctx := newTestContext(t, nil)
	h := sctx.Routes()

	rec := doJSON(t, h, http.MethodGet, "/api/point", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/point", map[string]float64{"lat": 91, "lon": 0})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/point", map[string]float64{"lat": 38.9, "lon": -77.04})
	require.Equal(t, http.StatusOK, rec.Code)

	var set struct {
		Results []conversion.Result `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &set))
	require.Len(t, set.Results, 3)
	assert.NotEmpty(t, set.Results[0].Value)

	rec = doJSON(t, h, http.MethodGet, "/api/point", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/results", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var results []conversion.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &results))
	require.Len(t, results, 3)
}

func TestPointGeoJSON(t *testing.T) {
	sctx := newTestContext(t, nil)
	h := sctx.Routes()

	rec := doJSON(t, h, http.MethodGet, "/api/point/geojson", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/point", map[string]float64{"lat": 38.9, "lon": -77.04})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/point/geojson", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/geo+json", rec.Header().Get("Content-Type"))

	var fc struct {
		Type     string `json:"type"`
		Features []struct {
			Geometry struct {
				Coordinates []float64 `json:"coordinates"`
			} `json:"geometry"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fc))
	require.Equal(t, "FeatureCollection", fc.Type)
	require.Len(t, fc.Features, 1)
	// GeoJSON is longitude first
	assert.Equal(t, []float64{-77.04, 38.9}, fc.Features[0].Geometry.Coordinates)
}

func TestPresetRoundTrip(t *testing.T) {
	sctx := newTestContext(t, openTestStore(t))
	h := sctx.Routes()

	rec := doJSON(t, h, http.MethodPost, "/api/presets", map[string]string{"name": "night-ops"})
	require.Equal(t, http.StatusCreated, rec.Code)

	var preset store.Preset
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &preset))
	assert.Equal(t, "night-ops", preset.Name)
	assert.Len(t, preset.Options, 3)

	rec = doJSON(t, h, http.MethodDelete, "/api/options", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, 0, sctx.Controller.OptionCount())

	rec = doJSON(t, h, http.MethodPost, "/api/presets/night-ops/apply", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var views []conversion.OptionView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &views))
	require.Len(t, views, 3)
	assert.Equal(t, "Strike grid", views[0].Name)
	assert.Equal(t, 5, views[0].Precision)

	rec = doJSON(t, h, http.MethodGet, "/api/presets", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodDelete, "/api/presets/night-ops", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/presets/night-ops/apply", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPresetsUnavailable(t *testing.T) {
	h := newTestContext(t, nil).Routes()

	rec := doJSON(t, h, http.MethodGet, "/api/presets", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/presets", map[string]string{"name": "x"})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHandleIndex(t *testing.T) {
	sctx := newTestContext(t, nil)
	sctx.IndexHTML = []byte("<html>panel</html>")
	h := sctx.Routes()

	rec := doJSON(t, h, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")

	etag := rec.Header().Get("ETag")
	require.NotEmpty(t, etag)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("If-None-Match", etag)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotModified, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/missing.js", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRecoveryMiddleware(t *testing.T) {
	h := Recovery(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := doJSON(t, h, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "internal server error")
}

func TestRequestLoggerPassesStatus(t *testing.T) {
	h := RequestLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := doJSON(t, h, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusTeapot, rec.Code)
}
