package mapview

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
	"github.com/paulmach/orb/project"
)

const (
	tileSize = 256
	// maxLatitude is the web-mercator latitude limit.
	maxLatitude = 85.0511287798
)

var halfWorld = math.Pi * orb.EarthRadius

func worldSize(z int) float64 {
	return tileSize * math.Exp2(float64(z))
}

// pixel returns the world pixel position of p at zoom z.
func pixel(p orb.Point, z int) orb.Point {
	lat := math.Max(-maxLatitude, math.Min(maxLatitude, p[1]))
	m := project.WGS84.ToMercator(orb.Point{p[0], lat})
	scale := worldSize(z) / (2 * halfWorld)
	return orb.Point{(m[0] + halfWorld) * scale, (halfWorld - m[1]) * scale}
}

// boundsZoom returns the largest zoom at which b fits inside a w×h
// viewport, clamped to [minZoom, maxZoom]. A zero-sized viewport yields
// minZoom, which is what a map initialised inside a hidden container sees.
func boundsZoom(b orb.Bound, w, h, minZoom, maxZoom int) int {
	if w <= 0 || h <= 0 {
		return minZoom
	}

	lo, hi := pixel(b.Min, 0), pixel(b.Max, 0)
	dx, dy := math.Abs(hi[0]-lo[0]), math.Abs(hi[1]-lo[1])

	z := maxZoom
	if dx > 0 || dy > 0 {
		zx, zy := math.Inf(1), math.Inf(1)
		if dx > 0 {
			zx = math.Log2(float64(w) / dx)
		}
		if dy > 0 {
			zy = math.Log2(float64(h) / dy)
		}
		fit := math.Floor(math.Min(zx, zy))
		if fit < float64(maxZoom) {
			z = int(fit)
		}
	}
	return clampZoom(z, minZoom, maxZoom)
}

func clampZoom(z, minZoom, maxZoom int) int {
	if z < minZoom {
		return minZoom
	}
	if maxZoom > 0 && z > maxZoom {
		return maxZoom
	}
	return z
}

// visibleTiles returns the tiles covering a w×h viewport centred on center.
// Tiles are clamped to the valid range at z.
func visibleTiles(center orb.Point, z, w, h int) []maptile.Tile {
	if w <= 0 || h <= 0 || z < 0 {
		return nil
	}
	c := pixel(center, z)
	last := int(math.Exp2(float64(z))) - 1

	minX := clampTile(int(math.Floor((c[0]-float64(w)/2)/tileSize)), last)
	maxX := clampTile(int(math.Floor((c[0]+float64(w)/2)/tileSize)), last)
	minY := clampTile(int(math.Floor((c[1]-float64(h)/2)/tileSize)), last)
	maxY := clampTile(int(math.Floor((c[1]+float64(h)/2)/tileSize)), last)

	var tiles []maptile.Tile
	for x := minX; x <= maxX; x++ {
		for y := minY; y <= maxY; y++ {
			tiles = append(tiles, maptile.New(uint32(x), uint32(y), maptile.Zoom(z)))
		}
	}
	return tiles
}

func clampTile(v, last int) int {
	if v < 0 {
		return 0
	}
	if v > last {
		return last
	}
	return v
}
