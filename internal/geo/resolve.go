package geo

import (
	"github.com/paulmach/orb"
	orbgeo "github.com/paulmach/orb/geo"
)

// ResolveBounds picks the shape a map view should be fit to.
//
// A present, non-empty polygon wins. An explicitly empty FeatureCollection
// counts as absent, and both cases fall back to the bounding box. The
// result is nil only when neither shape is available, in which case the
// map keeps its default extents.
func ResolveBounds(polygon, fallback *Shape) *Shape {
	if polygon == nil || polygon.IsEmptyCollection() {
		return fallback
	}
	return polygon
}

// Area returns the spherical area of g in square metres. Geometries
// without area yield 0.
func Area(g orb.Geometry) float64 {
	if g == nil {
		return 0
	}
	return orbgeo.Area(g)
}
