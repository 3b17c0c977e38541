package format

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/woozymasta/coordpanel/internal/geo"
	"github.com/woozymasta/coordpanel/internal/notation"
)

// Static is the offline backend used when no geometry service is
// configured. It renders a deterministic placeholder that reflects the
// option settings instead of performing a real conversion, so the panel
// stays usable in demos and tests.
type Static struct{}

// Format renders the placeholder string for one point and one record.
func (Static) Format(_ context.Context, pt geo.Point, opts *notation.ConversionOptions) (string, error) {
	mode := opts.OutputMode()
	name := mode.String()
	if name == "" {
		return "", fmt.Errorf("unknown output mode %d", int(mode))
	}

	parts := []string{name}

	switch mode {
	case notation.TypeMgrs:
		parts = append(parts, opts.MgrsConversionMode().String())
	case notation.TypeUtm:
		parts = append(parts, opts.UtmConversionMode().String())
	case notation.TypeLatLon:
		parts = append(parts, opts.LatLonFormat().String(), "dp"+strconv.Itoa(opts.DecimalPlaces()))
	}

	if mode.SupportsPrecision() {
		parts = append(parts, "p"+strconv.Itoa(opts.Precision()))
	}
	if mode.SupportsAddSpaces() && opts.AddSpaces() {
		parts = append(parts, "spaced")
	}

	return fmt.Sprintf("%s @ %s", strings.Join(parts, " "), pt), nil
}
