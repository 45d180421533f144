// Package mapview is the boundary between the widgets and the map engine.
//
// The engine (tile layers, GeoJSON rendering, markers, popups and the
// drawing plugin) is an external collaborator; widgets only see the Engine
// and Map interfaces. Headless is the in-process implementation used by
// the server and by tests.
package mapview

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/joeblew999/plat-geo-widgets/internal/geo"
)

// EventType names an engine event.
type EventType string

const (
	ZoomEnd     EventType = "zoomend"
	Click       EventType = "click"
	DblClick    EventType = "dblclick"
	DrawCreated EventType = "draw:created"
	DrawEdited  EventType = "draw:edited"
	DrawDeleted EventType = "draw:deleted"
)

// ShapeKind is a drawable shape type offered by the drawing plugin.
type ShapeKind string

const (
	ShapePolygon   ShapeKind = "polygon"
	ShapeRectangle ShapeKind = "rectangle"
	ShapeMarker    ShapeKind = "marker"
	ShapePolyline  ShapeKind = "polyline"
	ShapeCircle    ShapeKind = "circle"
)

// DrawnLayer is one vector shape produced or changed by the drawing plugin.
// Properties are carried over from a seeded GeoJSON feature.
type DrawnLayer struct {
	ID         string             `json:"id"`
	Kind       ShapeKind          `json:"kind"`
	Geometry   orb.Geometry       `json:"-"`
	Properties geojson.Properties `json:"-"`
}

// Event is delivered to handlers registered with On.
type Event struct {
	Type EventType
	// Target is the layer ID the event is scoped to; empty for map events.
	Target string
	// Layers carries the created, edited or deleted shapes of draw events.
	Layers []DrawnLayer
}

// Handler receives engine events.
type Handler func(Event)

// Container is the host element a map renders into.
type Container interface {
	Width() int
	Height() int
}

// TileLayer is a raster base layer.
type TileLayer struct {
	URLTemplate string
	MaxZoom     int
	Attribution string
}

// Options configure a new map.
type Options struct {
	MinZoom         int
	MaxZoom         int
	ScrollWheelZoom bool
	ZoomControl     bool
}

// Icon describes a marker image with its anchor geometry.
type Icon struct {
	URL          string `json:"iconUrl"`
	ShadowURL    string `json:"shadowUrl,omitempty"`
	Size         [2]int `json:"iconSize"`
	Anchor       [2]int `json:"iconAnchor"`
	ShadowSize   [2]int `json:"shadowSize,omitempty"`
	ShadowAnchor [2]int `json:"shadowAnchor,omitempty"`
	PopupAnchor  [2]int `json:"popupAnchor"`
}

// HasShadow reports whether the icon draws a shadow image.
func (i Icon) HasShadow() bool { return i.ShadowURL != "" }

// Popup is HTML content bound to a marker.
type Popup struct {
	HTML        string `json:"html"`
	ClassName   string `json:"className"`
	CloseButton bool   `json:"closeButton"`
}

// Marker is a point with an icon and a popup.
type Marker struct {
	Point orb.Point
	Icon  Icon
	Popup Popup
}

// LayerGroup is the editable collection a draw control operates on. The
// plugin applies edits and deletions to it before notifying listeners.
type LayerGroup interface {
	Has(id string) bool
	Replace(layer DrawnLayer) bool
	Remove(id string) bool
}

// DrawControl configures the drawing plugin.
type DrawControl struct {
	Group         LayerGroup
	Allowed       []ShapeKind
	Style         geo.Style
	MaintainColor bool
}

// Allows reports whether the control permits drawing kind.
func (c DrawControl) Allows(kind ShapeKind) bool {
	for _, k := range c.Allowed {
		if k == kind {
			return true
		}
	}
	return false
}

// Layer is a rendered layer that can receive scoped events.
type Layer interface {
	ID() string
	Bound() orb.Bound
	On(t EventType, fn Handler)
}

// View is a snapshot of the map viewport.
type View struct {
	Center  orb.Point `json:"center"`
	Zoom    int       `json:"zoom"`
	MinZoom int       `json:"minZoom"`
	Width   int       `json:"width"`
	Height  int       `json:"height"`
}

// Map is a live map instance.
type Map interface {
	AddTileLayer(t TileLayer)
	AddShapes(shape *geo.Shape, style geo.Style) Layer
	AddMarker(m Marker) Layer
	AddControl(c DrawControl)

	FitBounds(b orb.Bound)
	Zoom() int
	SetZoom(z int)
	ZoomIn()
	MinZoom() int
	SetMinZoom(z int)
	InvalidateSize()
	View() View
	TileURLs() []string

	OpenPopup(layerID string) (Popup, error)
	ClosePopup()
	CurrentPopup() (Popup, bool)

	On(t EventType, fn Handler)
	// Fire injects an event as if the user or the plugin produced it.
	Fire(ev Event) error
}

// Engine creates maps inside host containers.
type Engine interface {
	NewMap(c Container, opts Options) Map
}
