// Package format provides backends that render a point as a notation
// string according to an option record. The notation grammar and the
// geodesy live in the backend, not here.
package format

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/woozymasta/coordpanel/internal/geo"
	"github.com/woozymasta/coordpanel/internal/notation"
)

// GeometryService formats points through the toGeoCoordinateString
// operation of an ArcGIS geometry service. It maps option records to
// the request parameters the service understands and surfaces service
// failures as errors.
type GeometryService struct {
	client  *http.Client
	baseURL string
}

// NewGeometryService builds a client for the geometry service rooted at
// baseURL, e.g. "https://host/arcgis/rest/services/Utilities/Geometry/GeometryServer".
func NewGeometryService(baseURL string, timeout time.Duration) *GeometryService {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &GeometryService{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Format renders one point according to one option record.
func (g *GeometryService) Format(ctx context.Context, pt geo.Point, opts *notation.ConversionOptions) (string, error) {
	form, err := requestValues(pt, opts)
	if err != nil {
		return "", err
	}

	endpoint := g.baseURL + "/toGeoCoordinateString"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("call geometry service: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("geometry service status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var decoded struct {
		Strings []string `json:"strings"`
		Error   *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode geometry service response: %w", err)
	}

	// The service reports failures inside a 200 response.
	if decoded.Error != nil {
		return "", fmt.Errorf("geometry service error %d: %s", decoded.Error.Code, decoded.Error.Message)
	}
	if len(decoded.Strings) == 0 {
		return "", fmt.Errorf("geometry service returned no strings")
	}

	return decoded.Strings[0], nil
}

// requestValues maps an option record to toGeoCoordinateString
// parameters. Numeric settings are passed through as stored; whether
// the service rejects or clamps out-of-range values is its business.
func requestValues(pt geo.Point, opts *notation.ConversionOptions) (url.Values, error) {
	coords, err := json.Marshal([][]float64{{pt.Lon, pt.Lat}})
	if err != nil {
		return nil, fmt.Errorf("encode coordinates: %w", err)
	}

	mode := opts.OutputMode()
	if mode.String() == "" {
		return nil, fmt.Errorf("unknown output mode %d", int(mode))
	}

	form := url.Values{}
	form.Set("f", "json")
	form.Set("sr", "4326")
	form.Set("coordinates", string(coords))
	form.Set("conversionType", conversionType(mode, opts.LatLonFormat()))

	if cm := conversionMode(opts); cm != "" {
		form.Set("conversionMode", cm)
	}
	if mode.SupportsPrecision() {
		form.Set("numOfDigits", strconv.Itoa(opts.Precision()))
	}
	if mode.SupportsDecimalPlaces() {
		form.Set("numOfDigits", strconv.Itoa(opts.DecimalPlaces()))
	}
	if mode.SupportsAddSpaces() {
		form.Set("addSpaces", strconv.FormatBool(opts.AddSpaces()))
	}

	return form, nil
}

// conversionType yields the service token for the output mode. LatLon
// splits into three tokens depending on the rendering format.
func conversionType(mode notation.CoordinateType, format notation.LatLonFormat) string {
	switch mode {
	case notation.TypeGars:
		return "GARS"
	case notation.TypeGeoRef:
		return "GeoRef"
	case notation.TypeMgrs:
		return "MGRS"
	case notation.TypeUsng:
		return "USNG"
	case notation.TypeUtm:
		return "UTM"
	case notation.TypeLatLon:
		switch format {
		case notation.DegreesDecimalMinutes:
			return "DDM"
		case notation.DegreesMinutesSeconds:
			return "DMS"
		default:
			return "DD"
		}
	}

	return "DD"
}

// conversionMode yields the service token for the mode sub-setting, or
// an empty string when the output mode has none.
func conversionMode(opts *notation.ConversionOptions) string {
	switch opts.OutputMode() {
	case notation.TypeMgrs:
		switch opts.MgrsConversionMode() {
		case notation.MgrsNew180InZone01:
			return "mgrsNewWith180InZone01"
		case notation.MgrsNew180InZone60:
			return "mgrsNewStyle"
		case notation.MgrsOld180InZone01:
			return "mgrsOldWith180InZone01"
		case notation.MgrsOld180InZone60:
			return "mgrsOldStyle"
		default:
			return "mgrsDefault"
		}
	case notation.TypeUtm:
		if opts.UtmConversionMode() == notation.UtmNorthSouthIndicators {
			return "utmNorthSouth"
		}
		return "utmDefault"
	}

	return ""
}
