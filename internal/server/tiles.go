package server

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/chai2010/webp"
	"github.com/rs/zerolog/log"
	_ "golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/woozymasta/coordpanel/internal/config"
	"github.com/woozymasta/coordpanel/internal/geo"
	"github.com/woozymasta/coordpanel/internal/metrics"
)

const tileSize = 256

// TileProxy serves basemap tiles for the panel UI, fetching them on demand
// from the upstream template, converting to webp and caching on disk.
type TileProxy struct {
	client    *http.Client
	template  string
	cacheDir  string
	zoomLimit int
	blank     []byte
}

// NewTileProxy builds the proxy and pre-encodes the transparent fallback tile.
func NewTileProxy(cfg config.Tiles) (*TileProxy, error) {
	blank, err := encodeBlankTile()
	if err != nil {
		return nil, err
	}

	return &TileProxy{
		client:    &http.Client{Timeout: 30 * time.Second},
		template:  cfg.URL,
		cacheDir:  cfg.CacheDir,
		zoomLimit: cfg.ZoomLimit,
		blank:     blank,
	}, nil
}

func encodeBlankTile() ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, tileSize, tileSize))

	var buf bytes.Buffer
	if err := webp.Encode(&buf, img, &webp.Options{Lossless: true}); err != nil {
		return nil, fmt.Errorf("encode blank tile: %w", err)
	}

	return buf.Bytes(), nil
}

// HandleTile serves one cached or freshly proxied tile.
func (t *TileProxy) HandleTile(w http.ResponseWriter, r *http.Request) {
	z, errZ := strconv.Atoi(r.PathValue("z"))
	x, errX := strconv.Atoi(r.PathValue("x"))
	y, errY := strconv.Atoi(r.PathValue("y"))
	if errZ != nil || errX != nil || errY != nil || z < 0 || x < 0 || y < 0 {
		http.NotFound(w, r)
		return
	}

	maxCoord := 1 << z
	if (t.zoomLimit > 0 && z > t.zoomLimit) || x >= maxCoord || y >= maxCoord {
		t.serveBlank(w)
		return
	}

	if t.cacheDir != "" {
		if serveFile(w, r, t.cachePath(z, x, y), "image/webp") {
			metrics.TileCacheHitsTotal.Inc()
			return
		}
	}
	metrics.TileCacheMissesTotal.Inc()

	payload, ok := t.fetch(z, x, y)
	if !ok {
		t.serveBlank(w)
		return
	}

	w.Header().Set("Content-Type", "image/webp")
	w.Header().Set("Cache-Control", "public, no-cache")
	_, _ = w.Write(payload)
}

func (t *TileProxy) serveBlank(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "image/webp")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = w.Write(t.blank)
}

// fetch downloads one tile, converts it to a 256px webp and writes it through
// to the disk cache. A false return means the blank tile should be served.
func (t *TileProxy) fetch(z, x, y int) ([]byte, bool) {
	url := t.tileURL(z, x, y)

	resp, err := t.client.Get(url)
	if err != nil {
		log.Warn().Err(err).Str("url", url).Msg("Tile fetch failed")
		return nil, false
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		log.Trace().Str("url", url).Msg("Tile not found (404)")
		return nil, false
	}
	if resp.StatusCode != http.StatusOK {
		log.Warn().Int("status", resp.StatusCode).Str("url", url).Msg("Unexpected tile status")
		return nil, false
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Warn().Err(err).Str("url", url).Msg("Failed to read tile body")
		return nil, false
	}

	img, _, err := image.Decode(bytes.NewReader(body))
	if err != nil {
		log.Trace().Err(err).Str("url", url).Msg("Failed to decode tile")
		return nil, false
	}

	// Filter out empty/1px tiles often returned by map servers for OOB areas
	if img.Bounds().Dx() <= 1 {
		return nil, false
	}

	if img.Bounds().Dx() != tileSize || img.Bounds().Dy() != tileSize {
		dst := image.NewRGBA(image.Rect(0, 0, tileSize, tileSize))
		xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)
		img = dst
	}

	var buf bytes.Buffer
	if err := webp.Encode(&buf, img, &webp.Options{Lossless: false, Quality: 80}); err != nil {
		log.Error().Err(err).Str("url", url).Msg("Failed to encode webp tile")
		return nil, false
	}

	payload := buf.Bytes()
	t.writeThrough(z, x, y, payload)

	return payload, true
}

// writeThrough stores the converted tile on disk, best effort.
func (t *TileProxy) writeThrough(z, x, y int, payload []byte) {
	if t.cacheDir == "" {
		return
	}

	path := t.cachePath(z, x, y)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("Failed to create tile cache dir")
		return
	}
	if err := os.WriteFile(path, payload, 0644); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("Failed to write tile cache")
	}
}

func (t *TileProxy) cachePath(z, x, y int) string {
	return filepath.Join(t.cacheDir, strconv.Itoa(z), strconv.Itoa(x), strconv.Itoa(y)+".webp")
}

// Prefetch walks the whole tile pyramid up to the zoom limit and fills the
// disk cache. Cached tiles are skipped unless force is set.
func (t *TileProxy) Prefetch(concurrency int, force bool) (fetched, skipped, failed int) {
	if t.cacheDir == "" {
		log.Error().Msg("Prefetch requires a cache directory")
		return 0, 0, 0
	}

	jobs := make(chan [3]int, 256)
	go func() {
		for z := 0; z <= t.zoomLimit; z++ {
			n := 1 << z
			log.Debug().Int("zoom", z).Int("count", n*n).Msg("Queueing zoom level")
			for x := 0; x < n; x++ {
				for y := 0; y < n; y++ {
					jobs <- [3]int{z, x, y}
				}
			}
		}
		close(jobs)
	}()

	return t.runPrefetch(jobs, concurrency, force)
}

// PrefetchAround fills the cache only with tiles within radius tiles of
// center at every level, to warm the area the panel is pointed at without
// pulling the whole pyramid.
func (t *TileProxy) PrefetchAround(center geo.Point, radius, concurrency int, force bool) (fetched, skipped, failed int) {
	if t.cacheDir == "" {
		log.Error().Msg("Prefetch requires a cache directory")
		return 0, 0, 0
	}
	if radius < 0 {
		radius = 0
	}

	jobs := make(chan [3]int, 256)
	go func() {
		for z := 0; z <= t.zoomLimit; z++ {
			cx, cy := geo.TileIndex(center, z)
			x0, x1 := clampRange(cx-radius, cx+radius, 1<<z)
			y0, y1 := clampRange(cy-radius, cy+radius, 1<<z)

			log.Debug().
				Int("zoom", z).
				Int("count", (x1-x0+1)*(y1-y0+1)).
				Msg("Queueing zoom level around point")
			for x := x0; x <= x1; x++ {
				for y := y0; y <= y1; y++ {
					jobs <- [3]int{z, x, y}
				}
			}
		}
		close(jobs)
	}()

	return t.runPrefetch(jobs, concurrency, force)
}

// clampRange limits an inclusive tile range to a grid of n tiles.
func clampRange(lo, hi, n int) (int, int) {
	if lo < 0 {
		lo = 0
	}
	if hi > n-1 {
		hi = n - 1
	}

	return lo, hi
}

func (t *TileProxy) runPrefetch(jobs <-chan [3]int, concurrency int, force bool) (fetched, skipped, failed int) {
	if concurrency <= 0 {
		concurrency = 16
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				z, x, y := j[0], j[1], j[2]

				if !force {
					if info, err := os.Stat(t.cachePath(z, x, y)); err == nil && info.Size() > 0 {
						mu.Lock()
						skipped++
						mu.Unlock()
						continue
					}
				}

				_, ok := t.fetch(z, x, y)
				mu.Lock()
				if ok {
					fetched++
				} else {
					failed++
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	return fetched, skipped, failed
}

// tileURL expands the upstream template. {tms_y} flips the Y axis for
// servers using the TMS numbering scheme.
func (t *TileProxy) tileURL(z, x, y int) string {
	s := strings.ReplaceAll(t.template, "{z}", strconv.Itoa(z))
	s = strings.ReplaceAll(s, "{x}", strconv.Itoa(x))
	s = strings.ReplaceAll(s, "{y}", strconv.Itoa(y))

	if strings.Contains(s, "{tms_y}") {
		tmsY := (1 << z) - 1 - y
		s = strings.ReplaceAll(s, "{tms_y}", strconv.Itoa(tmsY))
	}

	return s
}
