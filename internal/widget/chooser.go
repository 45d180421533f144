package widget

import (
	"fmt"
	"log/slog"

	"github.com/paulmach/orb"

	"github.com/joeblew999/plat-geo-widgets/internal/geo"
	"github.com/joeblew999/plat-geo-widgets/internal/mapview"
	"github.com/joeblew999/plat-geo-widgets/internal/page"
)

// ChooserMinZoom is the zoom floor of the polygon chooser map.
const ChooserMinZoom = 2

// Page is the part of the host page a widget writes to and listens on.
type Page interface {
	SetValue(id, value string)
	AddClass(id, class string)
	RemoveClass(id, class string)
	OnTabShown(fn func())
	OnClick(id string, fn func(*page.ClickEvent))
}

// PolygonChooser lets the user draw one polygon or rectangle and mirrors
// the drawn shapes into a hidden form input.
type PolygonChooser struct {
	cfg    Config
	page   Page
	m      mapview.Map
	layers *DrawnLayerSet
	style  geo.Style
	log    *slog.Logger

	// hidden is set when the element had no width at init; the first tab
	// reveal clears it after refitting.
	hidden bool
}

// NewPolygonChooser initialises a chooser inside el.
func NewPolygonChooser(el Element, p Page, f *mapview.Factory, logger *slog.Logger) (*PolygonChooser, error) {
	cfg, err := ParseConfig(el)
	if err != nil {
		return nil, err
	}
	if cfg.Kind != KindChoosePolygon {
		return nil, fmt.Errorf("widget: element is %q, not %q", cfg.Kind, KindChoosePolygon)
	}
	if logger == nil {
		logger = slog.Default()
	}

	c := &PolygonChooser{
		cfg:    cfg,
		page:   p,
		layers: NewDrawnLayerSet(),
		style:  f.PolygonStyle(),
		log:    logger.With("widget", KindChoosePolygon, "name", cfg.Name),
		hidden: el.Width() == 0,
	}
	c.m = f.New(el, mapview.MapConfig{
		BaseURL:     cfg.BaseURL,
		Attribution: cfg.Attribution,
		MinZoom:     ChooserMinZoom,
		ZoomControl: true,
	})

	c.loadPolygon()
	if b, ok := c.layers.Bound(); ok {
		c.m.FitBounds(b)
	} else {
		c.fitFallback()
	}

	c.m.AddControl(mapview.DrawControl{
		Group:         c.layers,
		Allowed:       []mapview.ShapeKind{mapview.ShapePolygon, mapview.ShapeRectangle},
		Style:         c.style,
		MaintainColor: true,
	})
	c.m.On(mapview.DrawCreated, c.onCreated)
	c.m.On(mapview.DrawEdited, c.writeField)
	c.m.On(mapview.DrawDeleted, c.writeField)

	if c.hidden {
		p.OnTabShown(c.onTabShown)
	}
	return c, nil
}

// loadPolygon turns each polygonal feature of the configured polygon into
// one drawn layer, keeping its properties. Other geometries are skipped.
func (c *PolygonChooser) loadPolygon() {
	for _, f := range c.cfg.Polygon.Features() {
		switch g := f.Geometry.(type) {
		case orb.Polygon, orb.MultiPolygon:
			l := c.layers.Add(mapview.DrawnLayer{
				Kind:       mapview.ShapePolygon,
				Geometry:   g,
				Properties: f.Properties.Clone(),
			})
			c.m.AddShapes(geo.FromGeometry(l.Geometry), c.style)
		case nil:
		default:
			c.log.Debug("skipping non-polygon geometry", "type", g.GeoJSONType())
		}
	}
}

func (c *PolygonChooser) fitFallback() {
	s := geo.ResolveBounds(c.cfg.Polygon, c.cfg.BBox)
	if s == nil {
		return
	}
	if b, ok := s.Bound(); ok {
		c.m.FitBounds(b)
	}
}

func (c *PolygonChooser) onCreated(ev mapview.Event) {
	for _, l := range ev.Layers {
		c.layers.Add(l)
	}
	c.writeField(ev)
}

// writeField serializes the whole layer set into the hidden input. It is
// shared by the created, edited and deleted handlers.
func (c *PolygonChooser) writeField(ev mapview.Event) {
	data, err := c.layers.Serialize()
	if err != nil {
		c.log.Error("serializing drawn layers", "event", ev.Type, "error", err)
		return
	}
	c.page.SetValue(c.cfg.InputID(), data)
	c.log.Debug("field updated", "event", ev.Type, "layers", c.layers.Len())
}

func (c *PolygonChooser) onTabShown() {
	if !c.hidden {
		return
	}
	c.hidden = false
	c.m.InvalidateSize()
	c.fitFallback()
}

// Config returns the parsed configuration.
func (c *PolygonChooser) Config() Config { return c.cfg }

// Map returns the chooser's map.
func (c *PolygonChooser) Map() mapview.Map { return c.m }

// Style returns the style drawn polygons are rendered with.
func (c *PolygonChooser) Style() geo.Style { return c.style }

// Layers returns the drawn layer set.
func (c *PolygonChooser) Layers() *DrawnLayerSet { return c.layers }
