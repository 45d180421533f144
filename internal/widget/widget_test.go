package widget

import (
	"math"
	"testing"

	"github.com/paulmach/orb"

	"github.com/joeblew999/plat-geo-widgets/internal/geo"
	"github.com/joeblew999/plat-geo-widgets/internal/mapview"
	"github.com/joeblew999/plat-geo-widgets/internal/page"
)

const (
	testBaseURL = "https://tiles.example.org/"
	berlinBBox  = `{"type":"Polygon","coordinates":[[[13.3,52.4],[13.5,52.4],[13.5,52.6],[13.3,52.6],[13.3,52.4]]]}`
	emptyFC     = `{"type":"FeatureCollection","features":[]}`
)

var drawnSquare = orb.Polygon{{{13.35, 52.45}, {13.45, 52.45}, {13.45, 52.55}, {13.35, 52.55}, {13.35, 52.45}}}

func newFactory() *mapview.Factory {
	return mapview.NewFactory(mapview.NewHeadless())
}

func chooserElement(name string, extra map[string]string, w, h int) *page.Element {
	attrs := map[string]string{
		AttrMap:     KindChoosePolygon,
		AttrName:    name,
		AttrBaseURL: testBaseURL,
	}
	for k, v := range extra {
		attrs[k] = v
	}
	return page.NewElement(attrs, w, h)
}

func viewerElement(points string, w, h int) *page.Element {
	return page.NewElement(map[string]string{
		AttrMap:     KindDisplayPoints,
		AttrBaseURL: testBaseURL,
		AttrPolygon: berlinBBox,
		AttrPoints:  points,
	}, w, h)
}

// fieldShape parses the hidden input of a chooser.
func fieldShape(t *testing.T, doc *page.Document, id string) *geo.Shape {
	t.Helper()
	raw, ok := doc.Value(id)
	if !ok {
		t.Fatalf("input %s not written", id)
	}
	s, err := geo.Parse([]byte(raw))
	if err != nil {
		t.Fatalf("input %s: %v", id, err)
	}
	if s == nil || s.Kind() != geo.KindFeatureCollection {
		t.Fatalf("input %s = %s, want a FeatureCollection", id, raw)
	}
	return s
}

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}
