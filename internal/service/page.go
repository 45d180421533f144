package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joeblew999/plat-geo-widgets/internal/geo"
	"github.com/joeblew999/plat-geo-widgets/internal/mapview"
	"github.com/joeblew999/plat-geo-widgets/internal/metrics"
	"github.com/joeblew999/plat-geo-widgets/internal/page"
	"github.com/joeblew999/plat-geo-widgets/internal/widget"
)

var (
	ErrPageNotFound   = errors.New("page not found")
	ErrWidgetNotFound = errors.New("widget not found")
	ErrBadRequest     = errors.New("bad request")
)

// Draw actions accepted by PageService.Draw.
const (
	DrawCreated = "created"
	DrawEdited  = "edited"
	DrawDeleted = "deleted"
)

var drawEvents = map[string]mapview.EventType{
	DrawCreated: mapview.DrawCreated,
	DrawEdited:  mapview.DrawEdited,
	DrawDeleted: mapview.DrawDeleted,
}

// Gestures accepted by PageService.Boundary.
var gestures = map[string]mapview.EventType{
	"click":    mapview.Click,
	"dblclick": mapview.DblClick,
}

// Zoom directions accepted by PageService.Zoom.
var zoomControls = map[string]string{
	"in":  widget.ZoomInID,
	"out": widget.ZoomOutID,
}

// pageSession is one host page with its widgets. All access goes through
// mu; events for a page are applied one at a time.
type pageSession struct {
	mu       sync.Mutex
	id       string
	created  time.Time
	doc      *page.Document
	choosers []*widget.PolygonChooser
	viewers  []*widget.PointMapViewer
	errs     []string
}

// PageService manages widget pages.
type PageService struct {
	factory *mapview.Factory
	bus     *EventBus
	log     *slog.Logger

	mu    sync.RWMutex
	pages map[string]*pageSession
}

// NewPageService creates a page service. Widgets get their maps from f.
func NewPageService(f *mapview.Factory, bus *EventBus, logger *slog.Logger) *PageService {
	if logger == nil {
		logger = slog.Default()
	}
	return &PageService{
		factory: f,
		bus:     bus,
		log:     logger,
		pages:   make(map[string]*pageSession),
	}
}

// Create builds a page from the given elements and mounts every widget.
// Elements that fail to mount are reported in PageState.Errors.
func (s *PageService) Create(specs []ElementSpec) (PageState, error) {
	if err := checkSpecs(specs); err != nil {
		return PageState{}, err
	}
	p := &pageSession{
		id:      uuid.NewString(),
		created: time.Now().UTC(),
		doc:     page.NewDocument(),
	}
	log := s.log.With("page", p.id)
	widget.MountOnReady(p.doc, s.factory, log, func(m widget.Mounted, err error) {
		p.record(m, err)
	})

	p.mu.Lock()
	defer p.mu.Unlock()
	for _, spec := range specs {
		p.doc.Append(page.NewElement(spec.Attrs, spec.Width, spec.Height))
	}
	p.doc.Ready()

	s.mu.Lock()
	s.pages[p.id] = p
	s.mu.Unlock()
	metrics.ActivePages.Inc()

	log.Info("page created", "choosers", len(p.choosers), "viewers", len(p.viewers), "errors", len(p.errs))
	s.publish(p.id, "created", -1)
	return p.state(), nil
}

func checkSpecs(specs []ElementSpec) error {
	for i, spec := range specs {
		if err := (Size{Width: spec.Width, Height: spec.Height}).check(); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
	}
	return nil
}

func (p *pageSession) record(m widget.Mounted, err error) {
	p.choosers = append(p.choosers, m.Choosers...)
	p.viewers = append(p.viewers, m.Viewers...)
	metrics.WidgetsMounted.WithLabelValues(widget.KindChoosePolygon).Add(float64(len(m.Choosers)))
	metrics.WidgetsMounted.WithLabelValues(widget.KindDisplayPoints).Add(float64(len(m.Viewers)))
	if err != nil {
		metrics.MountFailures.Inc()
		p.errs = append(p.errs, strings.Split(err.Error(), "\n")...)
	}
}

// AddElements appends elements loaded by an embed and signals embed
// readiness so new widgets mount. Existing widgets are left alone.
func (s *PageService) AddElements(id string, specs []ElementSpec) (PageState, error) {
	if err := checkSpecs(specs); err != nil {
		return PageState{}, err
	}
	var st PageState
	err := s.with(id, func(p *pageSession) error {
		for _, spec := range specs {
			p.doc.Append(page.NewElement(spec.Attrs, spec.Width, spec.Height))
		}
		p.doc.EmbedReady()
		st = p.state()
		return nil
	})
	if err == nil {
		s.publish(id, "embedded", -1)
	}
	return st, err
}

// List returns page summaries ordered by creation time, and the total.
func (s *PageService) List(offset, limit int) ([]PageSummary, int) {
	s.mu.RLock()
	sessions := make([]*pageSession, 0, len(s.pages))
	for _, p := range s.pages {
		sessions = append(sessions, p)
	}
	s.mu.RUnlock()

	sort.Slice(sessions, func(i, j int) bool {
		if sessions[i].created.Equal(sessions[j].created) {
			return sessions[i].id < sessions[j].id
		}
		return sessions[i].created.Before(sessions[j].created)
	})

	total := len(sessions)
	if offset > total {
		offset = total
	}
	end := total
	if limit > 0 && offset+limit < total {
		end = offset + limit
	}

	out := make([]PageSummary, 0, end-offset)
	for _, p := range sessions[offset:end] {
		p.mu.Lock()
		out = append(out, PageSummary{
			ID:        p.id,
			CreatedAt: p.created,
			Choosers:  len(p.choosers),
			Viewers:   len(p.viewers),
		})
		p.mu.Unlock()
	}
	return out, total
}

// Get returns the state of a page.
func (s *PageService) Get(id string) (PageState, error) {
	var st PageState
	err := s.with(id, func(p *pageSession) error {
		st = p.state()
		return nil
	})
	return st, err
}

// Delete discards a page.
func (s *PageService) Delete(id string) error {
	s.mu.Lock()
	_, ok := s.pages[id]
	delete(s.pages, id)
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrPageNotFound, id)
	}
	metrics.ActivePages.Dec()
	s.log.Info("page deleted", "page", id)
	s.publish(id, "deleted", -1)
	return nil
}

// Draw feeds a drawing plugin event into a chooser and returns the
// rewritten hidden input.
func (s *PageService) Draw(id string, index int, action string, shapes []DrawnShape) (FieldUpdate, error) {
	et, ok := drawEvents[action]
	if !ok {
		return FieldUpdate{}, fmt.Errorf("%w: unknown draw action %q", ErrBadRequest, action)
	}
	layers, err := drawnLayers(et, shapes)
	if err != nil {
		return FieldUpdate{}, err
	}

	var upd FieldUpdate
	err = s.with(id, func(p *pageSession) error {
		c, err := p.chooser(index)
		if err != nil {
			return err
		}
		if err := c.Map().Fire(mapview.Event{Type: et, Layers: layers}); err != nil {
			metrics.DrawEvents.WithLabelValues(action, "rejected").Inc()
			return fmt.Errorf("%w: %w", ErrBadRequest, err)
		}
		metrics.DrawEvents.WithLabelValues(action, "applied").Inc()

		cfg := c.Config()
		upd = FieldUpdate{InputID: cfg.InputID(), Name: cfg.Name}
		upd.Value, _ = p.doc.Value(cfg.InputID())
		return nil
	})
	if err == nil {
		s.publish(id, "field", index)
	}
	return upd, err
}

func drawnLayers(et mapview.EventType, shapes []DrawnShape) ([]mapview.DrawnLayer, error) {
	if len(shapes) == 0 {
		return nil, fmt.Errorf("%w: no shapes", ErrBadRequest)
	}
	out := make([]mapview.DrawnLayer, 0, len(shapes))
	for i, sh := range shapes {
		l := mapview.DrawnLayer{ID: sh.ID, Kind: mapview.ShapeKind(sh.Kind)}
		if et != mapview.DrawCreated && l.ID == "" {
			return nil, fmt.Errorf("%w: shape %d has no id", ErrBadRequest, i)
		}
		if geoms := sh.Geometry.Geometries(); len(geoms) > 0 {
			l.Geometry = geoms[0]
		}
		if et != mapview.DrawDeleted && l.Geometry == nil {
			return nil, fmt.Errorf("%w: shape %d has no geometry", ErrBadRequest, i)
		}
		if l.Kind == "" && l.Geometry != nil && l.Geometry.GeoJSONType() == "Polygon" && et == mapview.DrawCreated {
			l.Kind = mapview.ShapePolygon
		}
		out = append(out, l)
	}
	return out, nil
}

// ShowTab resizes elements (sizes are in element order; missing entries
// keep their size) and signals tab activation.
func (s *PageService) ShowTab(id string, sizes []Size) (PageState, error) {
	var st PageState
	err := s.with(id, func(p *pageSession) error {
		els := p.doc.Elements()
		if len(sizes) > len(els) {
			return fmt.Errorf("%w: %d sizes for %d elements", ErrBadRequest, len(sizes), len(els))
		}
		for i, sz := range sizes {
			if err := sz.check(); err != nil {
				return fmt.Errorf("size %d: %w", i, err)
			}
		}
		for i, sz := range sizes {
			els[i].Resize(sz.Width, sz.Height)
		}
		p.doc.ShowTab()
		st = p.state()
		return nil
	})
	if err == nil {
		s.publish(id, "tab", -1)
	}
	return st, err
}

// Zoom clicks the zoom-in or zoom-out control.
func (s *PageService) Zoom(id, direction string) (ZoomResult, error) {
	ctrl, ok := zoomControls[direction]
	if !ok {
		return ZoomResult{}, fmt.Errorf("%w: unknown zoom direction %q", ErrBadRequest, direction)
	}
	var res ZoomResult
	err := s.with(id, func(p *pageSession) error {
		if len(p.viewers) == 0 {
			return fmt.Errorf("%w: page has no point viewer", ErrWidgetNotFound)
		}
		before := make([]int, len(p.viewers))
		for i, v := range p.viewers {
			before[i] = v.Map().Zoom()
		}
		ev := p.doc.Click(ctrl)
		res.Prevented = ev.DefaultPrevented()
		res.ZoomOutDisabled = p.doc.HasClass(widget.ZoomOutID, widget.DisabledClass)
		changed := false
		for i, v := range p.viewers {
			z := v.Map().Zoom()
			changed = changed || z != before[i]
			res.Zooms = append(res.Zooms, z)
		}
		if changed {
			metrics.ZoomChanges.WithLabelValues("control_" + direction).Inc()
		}
		return nil
	})
	if err == nil {
		s.publish(id, "zoom", -1)
	}
	return res, err
}

// Boundary delivers a click or double click on a viewer's boundary polygon.
func (s *PageService) Boundary(id string, index int, gesture string) (ViewerState, error) {
	et, ok := gestures[gesture]
	if !ok {
		return ViewerState{}, fmt.Errorf("%w: unknown gesture %q", ErrBadRequest, gesture)
	}
	var st ViewerState
	err := s.with(id, func(p *pageSession) error {
		v, err := p.viewer(index)
		if err != nil {
			return err
		}
		before := v.Map().Zoom()
		if err := v.Map().Fire(mapview.Event{Type: et, Target: v.Boundary().ID()}); err != nil {
			return err
		}
		if et == mapview.DblClick && v.Map().Zoom() != before {
			metrics.ZoomChanges.WithLabelValues("boundary_dblclick").Inc()
		}
		st = viewerState(index, v)
		return nil
	})
	if err == nil {
		s.publish(id, "boundary", index)
	}
	return st, err
}

// OpenMarker clicks a marker and returns the popup it opened.
func (s *PageService) OpenMarker(id string, index, marker int) (mapview.Popup, error) {
	var popup mapview.Popup
	err := s.with(id, func(p *pageSession) error {
		v, err := p.viewer(index)
		if err != nil {
			return err
		}
		markers := v.Markers()
		if marker < 0 || marker >= len(markers) {
			return fmt.Errorf("%w: marker %d", ErrWidgetNotFound, marker)
		}
		if err := v.Map().Fire(mapview.Event{Type: mapview.Click, Target: markers[marker].ID()}); err != nil {
			return err
		}
		var ok bool
		if popup, ok = v.Map().CurrentPopup(); !ok {
			return fmt.Errorf("%w: marker %d has no popup", ErrWidgetNotFound, marker)
		}
		metrics.PopupsOpened.Inc()
		return nil
	})
	if err == nil {
		s.publish(id, "popup", index)
	}
	return popup, err
}

// with runs fn with the page locked.
func (s *PageService) with(id string, fn func(*pageSession) error) error {
	s.mu.RLock()
	p, ok := s.pages[id]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrPageNotFound, id)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return fn(p)
}

func (s *PageService) publish(id, action string, widget int) {
	if s.bus != nil {
		s.bus.Publish(Event{Resource: "pages", Action: action, ID: id, Widget: widget})
	}
}

func (p *pageSession) chooser(i int) (*widget.PolygonChooser, error) {
	if i < 0 || i >= len(p.choosers) {
		return nil, fmt.Errorf("%w: chooser %d", ErrWidgetNotFound, i)
	}
	return p.choosers[i], nil
}

func (p *pageSession) viewer(i int) (*widget.PointMapViewer, error) {
	if i < 0 || i >= len(p.viewers) {
		return nil, fmt.Errorf("%w: viewer %d", ErrWidgetNotFound, i)
	}
	return p.viewers[i], nil
}

func (p *pageSession) state() PageState {
	st := PageState{
		ID:        p.id,
		CreatedAt: p.created,
		Inputs:    p.doc.Values(),
		Controls: map[string][]string{
			widget.ZoomInID:  p.doc.Classes(widget.ZoomInID),
			widget.ZoomOutID: p.doc.Classes(widget.ZoomOutID),
		},
		Choosers: make([]ChooserState, 0, len(p.choosers)),
		Viewers:  make([]ViewerState, 0, len(p.viewers)),
		Errors:   p.errs,
	}
	for i, c := range p.choosers {
		st.Choosers = append(st.Choosers, chooserState(i, c))
	}
	for i, v := range p.viewers {
		st.Viewers = append(st.Viewers, viewerState(i, v))
	}
	return st
}

func chooserState(i int, c *widget.PolygonChooser) ChooserState {
	cfg := c.Config()
	cs := ChooserState{
		Index:   i,
		Name:    cfg.Name,
		InputID: cfg.InputID(),
		View:    c.Map().View(),
		Layers:  []LayerState{},
		Tiles:   c.Map().TileURLs(),
	}
	for _, l := range c.Layers().Layers() {
		cs.Layers = append(cs.Layers, LayerState{
			ID:       l.ID,
			Kind:     string(l.Kind),
			Geometry: geo.FromGeometry(l.Geometry),
			Area:     geo.Area(l.Geometry),
		})
	}
	return cs
}

func viewerState(i int, v *widget.PointMapViewer) ViewerState {
	floor, _ := v.Floor()
	vs := ViewerState{
		Index:   i,
		View:    v.Map().View(),
		Floor:   floor,
		Gate:    v.Gate().String(),
		Style:   v.Style(),
		Markers: []MarkerState{},
		Tiles:   v.Map().TileURLs(),
	}
	if p, ok := v.Map().CurrentPopup(); ok {
		vs.Popup = &p
	}
	layers := v.Markers()
	for j, pf := range v.Config().Points {
		vs.Markers = append(vs.Markers, MarkerState{
			Index:   j,
			LayerID: layers[j].ID(),
			Name:    pf.Name,
			URL:     pf.URL,
			Point:   pf.Point,
			Icon:    widget.IconFor(pf),
		})
	}
	return vs
}

// DecodeShapes converts loosely typed JSON (for example Datastar signals)
// into drawn shapes.
func DecodeShapes(v any) ([]DrawnShape, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	var shapes []DrawnShape
	if err := json.Unmarshal(raw, &shapes); err != nil {
		return nil, fmt.Errorf("%w: shapes: %w", ErrBadRequest, err)
	}
	return shapes, nil
}
