package geo

import "math"

// MaxLat is the latitude limit of the Web Mercator projection.
const MaxLat = 85.05112878

// TileIndex converts a WGS84 point to XYZ tile coordinates at the given
// zoom using the Web Mercator projection. Latitudes beyond the
// projection limit are clamped, results are clamped to the tile grid.
func TileIndex(p Point, zoom int) (x, y int) {
	lat := p.Lat
	if lat > MaxLat {
		lat = MaxLat
	} else if lat < -MaxLat {
		lat = -MaxLat
	}

	n := float64(int(1) << zoom)

	x = int((p.Lon + 180.0) / 360.0 * n)

	latRad := lat * math.Pi / 180.0
	y = int((1.0 - math.Log(math.Tan(latRad)+1.0/math.Cos(latRad))/math.Pi) / 2.0 * n)

	max := (1 << zoom) - 1
	if x < 0 {
		x = 0
	} else if x > max {
		x = max
	}
	if y < 0 {
		y = 0
	} else if y > max {
		y = max
	}

	return x, y
}
