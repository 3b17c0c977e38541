package format

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/woozymasta/coordpanel/internal/geo"
	"github.com/woozymasta/coordpanel/internal/notation"
)

func TestGeometryServiceFormat(t *testing.T) {
	var seen url.Values

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/toGeoCoordinateString", r.URL.Path)
		require.NoError(t, r.ParseForm())
		seen = r.PostForm

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"strings":["13S ED 12345 67890"]}`))
	}))
	defer srv.Close()

	opts := notation.NewConversionOptions()
	opts.SetOutputMode(notation.TypeMgrs)
	opts.SetMgrsConversionMode(notation.MgrsOld180InZone01)
	opts.SetPrecision(5)
	opts.SetAddSpaces(true)

	svc := NewGeometryService(srv.URL, time.Second)
	out, err := svc.Format(context.Background(), geo.Point{Lat: 38.9, Lon: -104.8}, opts)
	require.NoError(t, err)
	assert.Equal(t, "13S ED 12345 67890", out)

	assert.Equal(t, "json", seen.Get("f"))
	assert.Equal(t, "4326", seen.Get("sr"))
	assert.Equal(t, "[[-104.8,38.9]]", seen.Get("coordinates"))
	assert.Equal(t, "MGRS", seen.Get("conversionType"))
	assert.Equal(t, "mgrsOldWith180InZone01", seen.Get("conversionMode"))
	assert.Equal(t, "5", seen.Get("numOfDigits"))
	assert.Equal(t, "true", seen.Get("addSpaces"))
}

func TestGeometryServiceParameterMapping(t *testing.T) {
	cases := []struct {
		name      string
		configure func(*notation.ConversionOptions)
		wantType  string
		wantMode  string
		wantDigit string
	}{
		{
			name:      "gars has no mode or digits",
			configure: func(o *notation.ConversionOptions) { o.SetOutputMode(notation.TypeGars) },
			wantType:  "GARS",
		},
		{
			name: "georef uses precision",
			configure: func(o *notation.ConversionOptions) {
				o.SetOutputMode(notation.TypeGeoRef)
				o.SetPrecision(9)
			},
			wantType:  "GeoRef",
			wantDigit: "9",
		},
		{
			name:      "usng defaults",
			configure: func(o *notation.ConversionOptions) { o.SetOutputMode(notation.TypeUsng) },
			wantType:  "USNG",
			wantDigit: "8",
		},
		{
			name: "utm north south",
			configure: func(o *notation.ConversionOptions) {
				o.SetOutputMode(notation.TypeUtm)
				o.SetUtmConversionMode(notation.UtmNorthSouthIndicators)
			},
			wantType: "UTM",
			wantMode: "utmNorthSouth",
		},
		{
			name: "latlon decimal degrees uses decimal places",
			configure: func(o *notation.ConversionOptions) {
				o.SetOutputMode(notation.TypeLatLon)
				o.SetDecimalPlaces(4)
			},
			wantType:  "DD",
			wantDigit: "4",
		},
		{
			name: "latlon dms",
			configure: func(o *notation.ConversionOptions) {
				o.SetOutputMode(notation.TypeLatLon)
				o.SetLatLonFormat(notation.DegreesMinutesSeconds)
			},
			wantType:  "DMS",
			wantDigit: "6",
		},
		{
			name: "mgrs new style",
			configure: func(o *notation.ConversionOptions) {
				o.SetOutputMode(notation.TypeMgrs)
				o.SetMgrsConversionMode(notation.MgrsNew180InZone60)
			},
			wantType:  "MGRS",
			wantMode:  "mgrsNewStyle",
			wantDigit: "8",
		},
		{
			name: "out of range precision passes through",
			configure: func(o *notation.ConversionOptions) {
				o.SetOutputMode(notation.TypeUsng)
				o.SetPrecision(99)
			},
			wantType:  "USNG",
			wantDigit: "99",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			opts := notation.NewConversionOptions()
			tc.configure(opts)

			form, err := requestValues(geo.Point{Lat: 1, Lon: 2}, opts)
			require.NoError(t, err)

			assert.Equal(t, tc.wantType, form.Get("conversionType"))
			assert.Equal(t, tc.wantMode, form.Get("conversionMode"))
			assert.Equal(t, tc.wantDigit, form.Get("numOfDigits"))
		})
	}
}

func TestGeometryServiceUnknownMode(t *testing.T) {
	opts := notation.NewConversionOptions()
	opts.SetOutputMode(notation.CoordinateType(42))

	_, err := requestValues(geo.Point{}, opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown output mode")
}

func TestGeometryServiceEmbeddedError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		// ArcGIS reports failures inside a 200 response
		_, _ = w.Write([]byte(`{"error":{"code":400,"message":"Invalid conversionType"}}`))
	}))
	defer srv.Close()

	svc := NewGeometryService(srv.URL, time.Second)
	_, err := svc.Format(context.Background(), geo.Point{}, notation.NewConversionOptions())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid conversionType")
}

func TestGeometryServiceHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	svc := NewGeometryService(srv.URL, time.Second)
	_, err := svc.Format(context.Background(), geo.Point{}, notation.NewConversionOptions())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
}

func TestGeometryServiceEmptyStrings(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"strings":[]}`))
	}))
	defer srv.Close()

	svc := NewGeometryService(srv.URL, time.Second)
	_, err := svc.Format(context.Background(), geo.Point{}, notation.NewConversionOptions())
	require.Error(t, err)
}
