package widget

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/joeblew999/plat-geo-widgets/internal/mapview"
)

func TestDrawnLayerSetKeepsIDsUnique(t *testing.T) {
	s := NewDrawnLayerSet()
	first := s.Add(mapview.DrawnLayer{ID: "x", Kind: mapview.ShapePolygon, Geometry: drawnSquare})
	second := s.Add(mapview.DrawnLayer{ID: "x", Kind: mapview.ShapeRectangle, Geometry: drawnSquare})
	blank := s.Add(mapview.DrawnLayer{Kind: mapview.ShapePolygon, Geometry: drawnSquare})

	if first.ID != "x" {
		t.Fatalf("first id=%q, want x", first.ID)
	}
	if second.ID == "x" || second.ID == "" || blank.ID == "" || blank.ID == second.ID {
		t.Fatalf("ids=%q %q %q, want unique", first.ID, second.ID, blank.ID)
	}
	if !s.Has("x") || !s.Has(second.ID) || s.Has("y") {
		t.Fatal("Has disagrees with the set")
	}

	if !s.Remove("x") {
		t.Fatal("remove x failed")
	}
	if s.Len() != 2 || s.Has("x") {
		t.Fatalf("len=%d has(x)=%v, want 2/false", s.Len(), s.Has("x"))
	}
}

func TestDrawnLayerSetKeepsProperties(t *testing.T) {
	s := NewDrawnLayerSet()
	l := s.Add(mapview.DrawnLayer{
		Kind:       mapview.ShapePolygon,
		Geometry:   drawnSquare,
		Properties: geojson.Properties{"name": "Mitte"},
	})

	moved := orb.Polygon{{{13.0, 52.0}, {13.1, 52.0}, {13.1, 52.1}, {13.0, 52.1}, {13.0, 52.0}}}
	if !s.Replace(mapview.DrawnLayer{ID: l.ID, Geometry: moved}) {
		t.Fatal("replace failed")
	}
	cur, _ := s.CurrentShape()
	if cur.Kind != mapview.ShapePolygon || cur.Properties["name"] != "Mitte" {
		t.Fatalf("layer=%+v, want kind and properties kept", cur)
	}

	fs := s.FeatureCollection().Features
	if len(fs) != 1 || fs[0].Properties["name"] != "Mitte" {
		t.Fatalf("features=%+v", fs)
	}
	fs[0].Properties["name"] = "changed"
	if cur, _ := s.CurrentShape(); cur.Properties["name"] != "Mitte" {
		t.Fatal("serialized properties alias the layer")
	}
}
