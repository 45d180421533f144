package widget

import (
	"fmt"
	"log/slog"

	"github.com/joeblew999/plat-geo-widgets/internal/geo"
	"github.com/joeblew999/plat-geo-widgets/internal/mapview"
	"github.com/joeblew999/plat-geo-widgets/internal/page"
)

// Zoom control element ids and the class marking a disabled control.
const (
	ZoomInID      = "zoom-in"
	ZoomOutID     = "zoom-out"
	DisabledClass = "leaflet-disabled"
)

// PointMapViewer shows a boundary polygon with point markers. The user can
// not zoom out past the zoom at which the boundary fits.
type PointMapViewer struct {
	cfg      Config
	page     Page
	m        mapview.Map
	boundary mapview.Layer
	markers  []mapview.Layer
	gate     ZoomGate
	style    geo.Style
	log      *slog.Logger
}

// NewPointMapViewer initialises a viewer inside el.
func NewPointMapViewer(el Element, p Page, f *mapview.Factory, logger *slog.Logger) (*PointMapViewer, error) {
	cfg, err := ParseConfig(el)
	if err != nil {
		return nil, err
	}
	if cfg.Kind != KindDisplayPoints {
		return nil, fmt.Errorf("widget: element is %q, not %q", cfg.Kind, KindDisplayPoints)
	}
	if logger == nil {
		logger = slog.Default()
	}

	v := &PointMapViewer{
		cfg:   cfg,
		page:  p,
		style: f.PolygonStyle(),
		log:   logger.With("widget", KindDisplayPoints),
	}
	v.m = f.New(el, mapview.MapConfig{
		BaseURL:     cfg.BaseURL,
		Attribution: cfg.Attribution,
	})
	v.m.On(mapview.ZoomEnd, v.onZoomEnd)

	v.boundary = v.m.AddShapes(cfg.Polygon, v.style)
	if b, ok := cfg.Polygon.Bound(); ok {
		v.m.FitBounds(b)
	}
	v.freezeFloor()

	v.boundary.On(mapview.DblClick, func(mapview.Event) { v.m.ZoomIn() })
	v.boundary.On(mapview.Click, func(mapview.Event) { v.m.ClosePopup() })

	for _, pf := range cfg.Points {
		popup, err := RenderPopup(pf)
		if err != nil {
			return nil, err
		}
		v.markers = append(v.markers, v.m.AddMarker(mapview.Marker{
			Point: pf.Point,
			Icon:  IconFor(pf),
			Popup: popup,
		}))
	}

	p.OnClick(ZoomInID, func(ev *page.ClickEvent) {
		ev.PreventDefault()
		v.m.SetZoom(v.m.Zoom() + 1)
	})
	p.OnClick(ZoomOutID, func(ev *page.ClickEvent) {
		ev.PreventDefault()
		v.m.SetZoom(v.m.Zoom() - 1)
	})
	return v, nil
}

// freezeFloor makes the post-fit zoom the map's minimum and evaluates the
// gate once.
func (v *PointMapViewer) freezeFloor() {
	z := v.m.Zoom()
	if !v.gate.Freeze(z) {
		return
	}
	v.m.SetMinZoom(z)
	v.apply(v.gate.Observe(z))
}

func (v *PointMapViewer) onZoomEnd(mapview.Event) {
	if s := v.gate.Observe(v.m.Zoom()); s != GateUnset {
		v.apply(s)
	}
}

func (v *PointMapViewer) apply(s GateState) {
	switch s {
	case AtFloor:
		v.page.AddClass(ZoomOutID, DisabledClass)
	case AboveFloor:
		v.page.RemoveClass(ZoomOutID, DisabledClass)
	}
	v.log.Debug("zoom gate", "state", s, "zoom", v.m.Zoom())
}

// Config returns the parsed configuration.
func (v *PointMapViewer) Config() Config { return v.cfg }

// Style returns the style of the boundary polygon.
func (v *PointMapViewer) Style() geo.Style { return v.style }

// Map returns the viewer's map.
func (v *PointMapViewer) Map() mapview.Map { return v.m }

// Boundary returns the boundary polygon layer.
func (v *PointMapViewer) Boundary() mapview.Layer { return v.boundary }

// Markers returns the marker layers in point order.
func (v *PointMapViewer) Markers() []mapview.Layer {
	return append([]mapview.Layer(nil), v.markers...)
}

// Floor returns the frozen minimum zoom.
func (v *PointMapViewer) Floor() (int, bool) { return v.gate.Floor() }

// Gate returns the zoom gate state.
func (v *PointMapViewer) Gate() GateState { return v.gate.State() }
