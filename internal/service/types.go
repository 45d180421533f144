// Package service holds widget pages server-side: each page is an in-memory
// host document with its mounted widgets, driven by browser events.
package service

import (
	"fmt"
	"time"

	"github.com/paulmach/orb"

	"github.com/joeblew999/plat-geo-widgets/internal/geo"
	"github.com/joeblew999/plat-geo-widgets/internal/mapview"
)

// MaxElementSize bounds element width and height in pixels. The visible
// tile list grows with the square of the size.
const MaxElementSize = 8192

// ElementSpec describes one widget root element as laid out in the browser.
type ElementSpec struct {
	Attrs  map[string]string `json:"attrs" required:"true" doc:"Data attributes (data-map, data-name, data-baseurl, data-polygon, data-bbox, data-attribution, data-points)"`
	Width  int               `json:"width" minimum:"0" maximum:"8192" doc:"Laid-out width in pixels; 0 when hidden in an inactive tab" example:"640"`
	Height int               `json:"height" minimum:"0" maximum:"8192" doc:"Laid-out height in pixels" example:"400"`
}

// Size is an element's laid-out size.
type Size struct {
	Width  int `json:"width" minimum:"0" maximum:"8192" doc:"Width in pixels"`
	Height int `json:"height" minimum:"0" maximum:"8192" doc:"Height in pixels"`
}

func (sz Size) check() error {
	if sz.Width < 0 || sz.Height < 0 || sz.Width > MaxElementSize || sz.Height > MaxElementSize {
		return fmt.Errorf("%w: size %dx%d outside 0-%d", ErrBadRequest, sz.Width, sz.Height, MaxElementSize)
	}
	return nil
}

// DrawnShape is a shape reported by the drawing plugin.
type DrawnShape struct {
	ID       string     `json:"id,omitempty" doc:"Layer ID; assigned on creation when empty"`
	Kind     string     `json:"kind,omitempty" enum:"polygon,rectangle,marker,polyline,circle" doc:"Shape type"`
	Geometry *geo.Shape `json:"geometry,omitempty" doc:"GeoJSON geometry"`
}

// PageSummary is a page listing entry.
type PageSummary struct {
	ID        string    `json:"id" doc:"Page ID"`
	CreatedAt time.Time `json:"createdAt" doc:"Creation time"`
	Choosers  int       `json:"choosers" doc:"Mounted polygon choosers"`
	Viewers   int       `json:"viewers" doc:"Mounted point viewers"`
}

// PageState is a snapshot of a page and its widgets.
type PageState struct {
	ID        string              `json:"id" doc:"Page ID"`
	CreatedAt time.Time           `json:"createdAt" doc:"Creation time"`
	Inputs    map[string]string   `json:"inputs" doc:"Hidden input values keyed by element id"`
	Controls  map[string][]string `json:"controls" doc:"CSS classes of the zoom controls keyed by element id"`
	Choosers  []ChooserState      `json:"choosers" doc:"Polygon choosers in mount order"`
	Viewers   []ViewerState       `json:"viewers" doc:"Point viewers in mount order"`
	Errors    []string            `json:"errors,omitempty" doc:"Elements that failed to mount"`
}

// ChooserState describes a mounted polygon chooser.
type ChooserState struct {
	Index   int          `json:"index" doc:"Chooser index within the page"`
	Name    string       `json:"name" doc:"Form field name"`
	InputID string       `json:"inputId" doc:"Hidden input element id" example:"id_area"`
	View    mapview.View `json:"view" doc:"Map viewport"`
	Layers  []LayerState `json:"layers" doc:"Drawn layers"`
	Tiles   []string     `json:"tiles" doc:"Tile URLs covering the viewport"`
}

// LayerState is one drawn layer.
type LayerState struct {
	ID       string     `json:"id" doc:"Layer ID"`
	Kind     string     `json:"kind" doc:"Shape type"`
	Geometry *geo.Shape `json:"geometry" doc:"GeoJSON geometry"`
	Area     float64    `json:"area" doc:"Spherical area in square metres"`
}

// ViewerState describes a mounted point viewer.
type ViewerState struct {
	Index   int            `json:"index" doc:"Viewer index within the page"`
	View    mapview.View   `json:"view" doc:"Map viewport"`
	Floor   int            `json:"floor" doc:"Frozen minimum zoom"`
	Gate    string         `json:"gate" enum:"unset,at_floor,above_floor" doc:"Zoom-out control state"`
	Style   geo.Style      `json:"style" doc:"Boundary polygon style"`
	Markers []MarkerState  `json:"markers" doc:"Point markers"`
	Popup   *mapview.Popup `json:"popup,omitempty" doc:"Open popup, if any"`
	Tiles   []string       `json:"tiles" doc:"Tile URLs covering the viewport"`
}

// MarkerState is one point marker.
type MarkerState struct {
	Index   int          `json:"index" doc:"Marker index within the viewer"`
	LayerID string       `json:"layerId" doc:"Map layer ID"`
	Name    string       `json:"name" doc:"Feature name"`
	URL     string       `json:"url" doc:"Detail page URL"`
	Point   orb.Point    `json:"point" doc:"Longitude, latitude"`
	Icon    mapview.Icon `json:"icon" doc:"Marker icon"`
}

// FieldUpdate is the new content of a chooser's hidden input.
type FieldUpdate struct {
	InputID string `json:"inputId" doc:"Hidden input element id"`
	Name    string `json:"name" doc:"Form field name"`
	Value   string `json:"value" doc:"Serialized GeoJSON FeatureCollection"`
}

// ZoomResult reports the page after a zoom control click.
type ZoomResult struct {
	Zooms           []int `json:"zooms" doc:"Zoom of each viewer"`
	ZoomOutDisabled bool  `json:"zoomOutDisabled" doc:"Whether the zoom-out control is disabled"`
	Prevented       bool  `json:"prevented" doc:"Whether the click's navigation was suppressed"`
}
