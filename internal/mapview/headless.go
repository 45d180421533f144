package mapview

import (
	"errors"
	"fmt"

	"github.com/paulmach/orb"

	"github.com/joeblew999/plat-geo-widgets/internal/geo"
)

var (
	ErrUnknownLayer    = errors.New("mapview: unknown layer")
	ErrDuplicateLayer  = errors.New("mapview: duplicate layer id")
	ErrNoDrawControl   = errors.New("mapview: map has no draw control")
	ErrShapeNotAllowed = errors.New("mapview: shape type not allowed by draw control")
	ErrNoPopup         = errors.New("mapview: layer has no popup")
)

// Headless is an Engine that keeps map state in memory. It computes fit
// zooms and tile coverage with web-mercator math and dispatches events
// synchronously, like a browser engine would on its UI thread.
type Headless struct{}

// NewHeadless returns a headless engine.
func NewHeadless() *Headless {
	return &Headless{}
}

// NewMap implements Engine.
func (h *Headless) NewMap(c Container, opts Options) Map {
	m := &headlessMap{
		container: c,
		opts:      opts,
		minZoom:   opts.MinZoom,
		zoom:      opts.MinZoom,
		layers:    make(map[string]*headlessLayer),
		handlers:  make(map[EventType][]Handler),
	}
	m.width, m.height = c.Width(), c.Height()
	return m
}

type headlessLayer struct {
	id       string
	bound    orb.Bound
	marker   *Marker
	handlers map[EventType][]Handler
}

func (l *headlessLayer) ID() string       { return l.id }
func (l *headlessLayer) Bound() orb.Bound { return l.bound }

func (l *headlessLayer) On(t EventType, fn Handler) {
	l.handlers[t] = append(l.handlers[t], fn)
}

type headlessMap struct {
	container     Container
	opts          Options
	width, height int
	center        orb.Point
	zoom          int
	minZoom       int

	tiles    []TileLayer
	layers   map[string]*headlessLayer
	seq      int
	control  *DrawControl
	handlers map[EventType][]Handler
	popup    *Popup
}

func (m *headlessMap) AddTileLayer(t TileLayer) {
	m.tiles = append(m.tiles, t)
}

func (m *headlessMap) newLayer(b orb.Bound) *headlessLayer {
	m.seq++
	l := &headlessLayer{
		id:       fmt.Sprintf("layer-%d", m.seq),
		bound:    b,
		handlers: make(map[EventType][]Handler),
	}
	m.layers[l.id] = l
	return l
}

func (m *headlessMap) AddShapes(shape *geo.Shape, style geo.Style) Layer {
	b, _ := shape.Bound()
	return m.newLayer(b)
}

func (m *headlessMap) AddMarker(mk Marker) Layer {
	l := m.newLayer(mk.Point.Bound())
	l.marker = &mk
	return l
}

func (m *headlessMap) AddControl(c DrawControl) {
	m.control = &c
}

func (m *headlessMap) FitBounds(b orb.Bound) {
	z := boundsZoom(b, m.width, m.height, m.minZoom, m.maxZoom())
	m.setView(b.Center(), z)
}

func (m *headlessMap) maxZoom() int {
	if m.opts.MaxZoom > 0 {
		return m.opts.MaxZoom
	}
	return DefaultMaxZoom
}

// setView moves the viewport and fires zoomend when the zoom changed.
func (m *headlessMap) setView(center orb.Point, z int) {
	changed := z != m.zoom
	m.center = center
	m.zoom = z
	if changed {
		m.dispatch(m.handlers, Event{Type: ZoomEnd})
	}
}

func (m *headlessMap) Zoom() int { return m.zoom }

func (m *headlessMap) SetZoom(z int) {
	m.setView(m.center, clampZoom(z, m.minZoom, m.maxZoom()))
}

func (m *headlessMap) ZoomIn() { m.SetZoom(m.zoom + 1) }

func (m *headlessMap) MinZoom() int { return m.minZoom }

func (m *headlessMap) SetMinZoom(z int) { m.minZoom = z }

func (m *headlessMap) InvalidateSize() {
	m.width, m.height = m.container.Width(), m.container.Height()
}

func (m *headlessMap) View() View {
	return View{
		Center:  m.center,
		Zoom:    m.zoom,
		MinZoom: m.minZoom,
		Width:   m.width,
		Height:  m.height,
	}
}

func (m *headlessMap) TileURLs() []string {
	var urls []string
	for _, tl := range m.tiles {
		if m.zoom > tl.MaxZoom {
			continue
		}
		for _, t := range visibleTiles(m.center, m.zoom, m.width, m.height) {
			urls = append(urls, TileURL(tl.URLTemplate, uint32(t.Z), t.X, t.Y))
		}
	}
	return urls
}

func (m *headlessMap) OpenPopup(layerID string) (Popup, error) {
	l, ok := m.layers[layerID]
	if !ok {
		return Popup{}, fmt.Errorf("%w: %s", ErrUnknownLayer, layerID)
	}
	if l.marker == nil || l.marker.Popup.HTML == "" {
		return Popup{}, fmt.Errorf("%w: %s", ErrNoPopup, layerID)
	}
	p := l.marker.Popup
	m.popup = &p
	return p, nil
}

func (m *headlessMap) ClosePopup() { m.popup = nil }

func (m *headlessMap) On(t EventType, fn Handler) {
	m.handlers[t] = append(m.handlers[t], fn)
}

// Fire applies the engine's own side of an event (the drawing plugin's
// edits, a marker opening its popup) and then notifies listeners.
func (m *headlessMap) Fire(ev Event) error {
	switch ev.Type {
	case DrawCreated, DrawEdited, DrawDeleted:
		if err := m.applyDraw(ev); err != nil {
			return err
		}
		m.dispatch(m.handlers, ev)
		return nil
	}

	if ev.Target == "" {
		m.dispatch(m.handlers, ev)
		return nil
	}

	l, ok := m.layers[ev.Target]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownLayer, ev.Target)
	}
	if ev.Type == Click && l.marker != nil && l.marker.Popup.HTML != "" {
		p := l.marker.Popup
		m.popup = &p
	}
	m.dispatch(l.handlers, ev)
	return nil
}

// applyDraw validates the whole batch before touching the group, so a
// rejected event leaves the drawn layers unchanged.
func (m *headlessMap) applyDraw(ev Event) error {
	if m.control == nil {
		return ErrNoDrawControl
	}
	g := m.control.Group
	seen := make(map[string]bool, len(ev.Layers))
	for _, l := range ev.Layers {
		if l.ID != "" && seen[l.ID] {
			return fmt.Errorf("%w: %s", ErrDuplicateLayer, l.ID)
		}
		seen[l.ID] = true

		switch ev.Type {
		case DrawCreated:
			if !m.control.Allows(l.Kind) {
				return fmt.Errorf("%w: %s", ErrShapeNotAllowed, l.Kind)
			}
			if _, ok := l.Geometry.(orb.Polygon); !ok {
				return fmt.Errorf("%w: %s drawn as %s", ErrShapeNotAllowed, l.Kind, geometryType(l.Geometry))
			}
			if l.ID != "" && g.Has(l.ID) {
				return fmt.Errorf("%w: %s", ErrDuplicateLayer, l.ID)
			}
		case DrawEdited:
			if !g.Has(l.ID) {
				return fmt.Errorf("%w: %s", ErrUnknownLayer, l.ID)
			}
			switch l.Geometry.(type) {
			case orb.Polygon, orb.MultiPolygon:
			default:
				return fmt.Errorf("%w: edited to %s", ErrShapeNotAllowed, geometryType(l.Geometry))
			}
		case DrawDeleted:
			if !g.Has(l.ID) {
				return fmt.Errorf("%w: %s", ErrUnknownLayer, l.ID)
			}
		}
	}

	for _, l := range ev.Layers {
		switch ev.Type {
		case DrawEdited:
			g.Replace(l)
		case DrawDeleted:
			g.Remove(l.ID)
		}
	}
	return nil
}

func geometryType(g orb.Geometry) string {
	if g == nil {
		return "nothing"
	}
	return g.GeoJSONType()
}

func (m *headlessMap) dispatch(handlers map[EventType][]Handler, ev Event) {
	for _, fn := range handlers[ev.Type] {
		fn(ev)
	}
}

func (m *headlessMap) CurrentPopup() (Popup, bool) {
	if m.popup == nil {
		return Popup{}, false
	}
	return *m.popup, true
}

var _ Engine = (*Headless)(nil)
var _ Map = (*headlessMap)(nil)
