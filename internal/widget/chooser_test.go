package widget

import (
	"errors"
	"testing"

	"github.com/paulmach/orb"

	"github.com/joeblew999/plat-geo-widgets/internal/geo"
	"github.com/joeblew999/plat-geo-widgets/internal/mapview"
	"github.com/joeblew999/plat-geo-widgets/internal/page"
)

func newChooser(t *testing.T, el *page.Element) (*PolygonChooser, *page.Document) {
	t.Helper()
	doc := page.NewDocument()
	doc.Append(el)
	c, err := NewPolygonChooser(el, doc, newFactory(), nil)
	if err != nil {
		t.Fatalf("NewPolygonChooser: %v", err)
	}
	return c, doc
}

func TestChooserFitsBBoxAndWritesCreatedShape(t *testing.T) {
	c, doc := newChooser(t, chooserElement("area", map[string]string{AttrBBox: berlinBBox}, 400, 300))

	v := c.Map().View()
	if !near(v.Center[0], 13.4) || !near(v.Center[1], 52.5) {
		t.Fatalf("center=%v, want bbox centre", v.Center)
	}
	if v.Zoom != 10 {
		t.Fatalf("zoom=%d, want 10", v.Zoom)
	}
	if _, ok := doc.Value("id_area"); ok {
		t.Fatal("input written before any draw event")
	}

	err := c.Map().Fire(mapview.Event{
		Type:   mapview.DrawCreated,
		Layers: []mapview.DrawnLayer{{ID: "l1", Kind: mapview.ShapePolygon, Geometry: drawnSquare}},
	})
	if err != nil {
		t.Fatalf("fire created: %v", err)
	}

	fs := fieldShape(t, doc, "id_area").Features()
	if len(fs) != 1 {
		t.Fatalf("features=%d, want 1", len(fs))
	}
	got, ok := fs[0].Geometry.(orb.Polygon)
	if !ok || !orb.Equal(got, drawnSquare) {
		t.Fatalf("geometry=%v, want %v", fs[0].Geometry, drawnSquare)
	}
}

func TestChooserEditIsIdempotentAndDeleteEmpties(t *testing.T) {
	c, doc := newChooser(t, chooserElement("area", map[string]string{AttrBBox: berlinBBox}, 400, 300))
	m := c.Map()

	layer := mapview.DrawnLayer{ID: "l1", Kind: mapview.ShapeRectangle, Geometry: drawnSquare}
	if err := m.Fire(mapview.Event{Type: mapview.DrawCreated, Layers: []mapview.DrawnLayer{layer}}); err != nil {
		t.Fatal(err)
	}

	moved := orb.Polygon{{{13.0, 52.0}, {13.1, 52.0}, {13.1, 52.1}, {13.0, 52.1}, {13.0, 52.0}}}
	edit := mapview.Event{
		Type:   mapview.DrawEdited,
		Layers: []mapview.DrawnLayer{{ID: "l1", Geometry: moved}},
	}
	if err := m.Fire(edit); err != nil {
		t.Fatal(err)
	}
	first, _ := doc.Value("id_area")
	if err := m.Fire(edit); err != nil {
		t.Fatal(err)
	}
	second, _ := doc.Value("id_area")
	if first != second {
		t.Fatalf("repeated edit changed the field:\n%s\n%s", first, second)
	}
	if g := fieldShape(t, doc, "id_area").Features()[0].Geometry; !orb.Equal(g, moved) {
		t.Fatalf("edited geometry=%v, want %v", g, moved)
	}
	if cur, _ := c.Layers().CurrentShape(); cur.Kind != mapview.ShapeRectangle {
		t.Fatalf("kind=%q after edit, want rectangle", cur.Kind)
	}

	if err := m.Fire(mapview.Event{Type: mapview.DrawDeleted, Layers: []mapview.DrawnLayer{{ID: "l1"}}}); err != nil {
		t.Fatal(err)
	}
	if !fieldShape(t, doc, "id_area").IsEmptyCollection() {
		t.Fatal("field after delete is not an empty FeatureCollection")
	}
}

func TestChooserRejectsDisallowedShapes(t *testing.T) {
	c, doc := newChooser(t, chooserElement("area", nil, 400, 300))

	for _, kind := range []mapview.ShapeKind{mapview.ShapeMarker, mapview.ShapePolyline, mapview.ShapeCircle} {
		err := c.Map().Fire(mapview.Event{
			Type:   mapview.DrawCreated,
			Layers: []mapview.DrawnLayer{{Kind: kind, Geometry: orb.Point{13, 52}}},
		})
		if !errors.Is(err, mapview.ErrShapeNotAllowed) {
			t.Fatalf("%s: err=%v, want ErrShapeNotAllowed", kind, err)
		}
	}
	if _, ok := doc.Value("id_area"); ok {
		t.Fatal("rejected draw wrote the field")
	}
	if c.Layers().Len() != 0 {
		t.Fatalf("layers=%d, want 0", c.Layers().Len())
	}
}

func TestChooserLoadsInitialPolygon(t *testing.T) {
	c, _ := newChooser(t, chooserElement("area", map[string]string{
		AttrPolygon: `{"type":"FeatureCollection","features":[` +
			`{"type":"Feature","properties":{},"geometry":` + berlinBBox + `},` +
			`{"type":"Feature","properties":{},"geometry":{"type":"Point","coordinates":[0,0]}}]}`,
	}, 400, 300))

	if n := c.Layers().Len(); n != 1 {
		t.Fatalf("layers=%d, want 1 (points are skipped)", n)
	}
	if v := c.Map().View(); !near(v.Center[0], 13.4) || v.Zoom != 10 {
		t.Fatalf("view=%+v, want fit to the polygon", v)
	}
	if v := c.Map().View(); v.MinZoom != ChooserMinZoom {
		t.Fatalf("min zoom=%d, want %d", v.MinZoom, ChooserMinZoom)
	}
}

func TestChooserKeepsSeededProperties(t *testing.T) {
	c, doc := newChooser(t, chooserElement("area", map[string]string{
		AttrPolygon: `{"type":"FeatureCollection","features":[` +
			`{"type":"Feature","properties":{"name":"Mitte","ref":7},"geometry":` + berlinBBox + `},` +
			`{"type":"Feature","properties":{"name":"Islands"},"geometry":{"type":"MultiPolygon","coordinates":[` +
			`[[[13.0,52.0],[13.1,52.0],[13.1,52.1],[13.0,52.1],[13.0,52.0]]],` +
			`[[[13.2,52.2],[13.3,52.2],[13.3,52.3],[13.2,52.3],[13.2,52.2]]]]}}]}`,
	}, 400, 300))

	layers := c.Layers().Layers()
	if len(layers) != 2 {
		t.Fatalf("layers=%d, want 2 (a multipolygon stays one layer)", len(layers))
	}
	if _, ok := layers[1].Geometry.(orb.MultiPolygon); !ok {
		t.Fatalf("second layer=%T, want orb.MultiPolygon", layers[1].Geometry)
	}

	err := c.Map().Fire(mapview.Event{
		Type:   mapview.DrawEdited,
		Layers: []mapview.DrawnLayer{{ID: layers[0].ID, Geometry: drawnSquare}},
	})
	if err != nil {
		t.Fatal(err)
	}
	fs := fieldShape(t, doc, "id_area").Features()
	if len(fs) != 2 {
		t.Fatalf("features=%d, want 2", len(fs))
	}
	if fs[0].Properties["name"] != "Mitte" || fs[0].Properties["ref"] != 7.0 {
		t.Fatalf("first properties=%v", fs[0].Properties)
	}
	if fs[1].Properties["name"] != "Islands" {
		t.Fatalf("second properties=%v", fs[1].Properties)
	}
	if !orb.Equal(fs[0].Geometry, drawnSquare) {
		t.Fatalf("edited geometry=%v", fs[0].Geometry)
	}
}

func TestChooserUsesFactoryStyle(t *testing.T) {
	f := newFactory()
	f.Style = geo.Style{Color: "#336699", Weight: 3, Opacity: 1, FillOpacity: 0.4}
	el := chooserElement("area", nil, 400, 300)
	doc := page.NewDocument()
	doc.Append(el)
	c, err := NewPolygonChooser(el, doc, f, nil)
	if err != nil {
		t.Fatal(err)
	}
	if c.Style() != f.Style {
		t.Fatalf("style=%+v, want %+v", c.Style(), f.Style)
	}

	c, _ = newChooser(t, chooserElement("area", nil, 400, 300))
	if c.Style() != geo.PolygonStyle {
		t.Fatalf("default style=%+v, want %+v", c.Style(), geo.PolygonStyle)
	}
}

func TestChooserEmptyPolygonFallsBackToBBox(t *testing.T) {
	c, _ := newChooser(t, chooserElement("area", map[string]string{
		AttrPolygon: emptyFC,
		AttrBBox:    berlinBBox,
	}, 400, 300))

	if c.Layers().Len() != 0 {
		t.Fatalf("layers=%d, want 0", c.Layers().Len())
	}
	if v := c.Map().View(); !near(v.Center[1], 52.5) || v.Zoom != 10 {
		t.Fatalf("view=%+v, want fit to the bbox", v)
	}
}

func TestChooserHiddenTabRefitsOnce(t *testing.T) {
	el := chooserElement("area", map[string]string{AttrBBox: berlinBBox}, 0, 0)
	c, doc := newChooser(t, el)

	if z := c.Map().Zoom(); z != ChooserMinZoom {
		t.Fatalf("zoom in hidden tab=%d, want %d", z, ChooserMinZoom)
	}

	el.Resize(400, 300)
	doc.ShowTab()
	if z := c.Map().Zoom(); z != 10 {
		t.Fatalf("zoom after reveal=%d, want 10", z)
	}

	el.Resize(800, 600)
	doc.ShowTab()
	if z := c.Map().Zoom(); z != 10 {
		t.Fatalf("zoom after second reveal=%d, want unchanged 10", z)
	}
}

func TestChooserVisibleIgnoresTabShown(t *testing.T) {
	el := chooserElement("area", map[string]string{AttrBBox: berlinBBox}, 400, 300)
	c, doc := newChooser(t, el)

	el.Resize(800, 600)
	doc.ShowTab()
	if w := c.Map().View().Width; w != 400 {
		t.Fatalf("width=%d, want 400 (no invalidate)", w)
	}
}
