// Package editor contains Datastar SSE handlers that feed browser events
// into widget pages and patch the results back into the DOM.
package editor

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-geo-widgets/internal/api"
	"github.com/joeblew999/plat-geo-widgets/internal/humastar"
	"github.com/joeblew999/plat-geo-widgets/internal/service"
	"github.com/joeblew999/plat-geo-widgets/internal/templates"
	"github.com/joeblew999/plat-geo-widgets/internal/widget"
)

const basePath = "/api/v1/editor/pages/{id}"

// ZoomControlClass is the base class of the zoom buttons.
const ZoomControlClass = "map-zoom"

// PageHandler applies widget events to a page.
type PageHandler struct {
	humastar.Handler
	pages *service.PageService
}

// NewPageHandler creates a new page event handler.
func NewPageHandler(pages *service.PageService, renderer *templates.Renderer, logger *slog.Logger) *PageHandler {
	return &PageHandler{
		Handler: humastar.Handler{Renderer: renderer, Logger: logger},
		pages:   pages,
	}
}

func (h *PageHandler) RegisterRoutes(api huma.API) {
	huma.Post(api, basePath+"/draw/{action}", h.Draw, huma.OperationTags("editor"))
	huma.Post(api, basePath+"/tabs/shown", h.TabShown, huma.OperationTags("editor"))
	huma.Post(api, basePath+"/zoom/{direction}", h.Zoom, huma.OperationTags("editor"))
	huma.Post(api, basePath+"/boundary/{gesture}", h.Boundary, huma.OperationTags("editor"))
	huma.Post(api, basePath+"/markers/{marker}/open", h.OpenMarker, huma.OperationTags("editor"))
}

// Inputs. Datastar posts every signal as the JSON body.

type DrawInput struct {
	ID      string `path:"id" doc:"Page ID"`
	Action  string `path:"action" enum:"created,edited,deleted" doc:"Drawing plugin event"`
	RawBody []byte
}

type TabInput struct {
	ID      string `path:"id" doc:"Page ID"`
	RawBody []byte
}

type ZoomInput struct {
	ID        string `path:"id" doc:"Page ID"`
	Direction string `path:"direction" enum:"in,out" doc:"Zoom control clicked"`
}

type BoundaryInput struct {
	ID      string `path:"id" doc:"Page ID"`
	Gesture string `path:"gesture" enum:"click,dblclick" doc:"Gesture on the boundary polygon"`
	RawBody []byte
}

type MarkerInput struct {
	ID      string `path:"id" doc:"Page ID"`
	Marker  int    `path:"marker" minimum:"0" doc:"Marker index within the viewer"`
	RawBody []byte
}

// Draw applies a created, edited or deleted event and patches the hidden
// input and the layer list. Signals: widget (chooser index), shapes.
func (h *PageHandler) Draw(ctx context.Context, input *DrawInput) (*huma.StreamResponse, error) {
	signals, err := parse(input.RawBody)
	if err != nil {
		return nil, err
	}
	index := signals.Int("widget")
	shapes, err := service.DecodeShapes(signals["shapes"])
	if err != nil {
		return nil, api.HTTPError(err)
	}

	upd, err := h.pages.Draw(input.ID, index, input.Action, shapes)
	if isNotFound(err) {
		return nil, api.HTTPError(err)
	}
	return h.Stream(func(sse humastar.SSE) {
		if err != nil {
			sse.Error(err.Error())
			return
		}
		sse.Replace(h.Render("hidden-input", templates.HiddenInput{
			InputID: upd.InputID, Name: upd.Name, Value: upd.Value,
		}), "#"+upd.InputID)

		st, err := h.pages.Get(input.ID)
		if err != nil || index >= len(st.Choosers) {
			return
		}
		layers := st.Choosers[index].Layers
		sse.Patch(h.renderLayerList(layers), fmt.Sprintf("#layers-%d", index))
		sse.Signals(map[string]any{"layers": len(layers)})
	}), nil
}

// TabShown resizes elements and refits hidden choosers. Signals: sizes.
func (h *PageHandler) TabShown(ctx context.Context, input *TabInput) (*huma.StreamResponse, error) {
	signals, err := parse(input.RawBody)
	if err != nil {
		return nil, err
	}
	var sizes []service.Size
	if err := signals.Decode("sizes", &sizes); err != nil {
		return nil, huma.Error400BadRequest("Invalid sizes: " + err.Error())
	}

	st, err := h.pages.ShowTab(input.ID, sizes)
	if isNotFound(err) {
		return nil, api.HTTPError(err)
	}
	return h.Stream(func(sse humastar.SSE) {
		if err != nil {
			sse.Error(err.Error())
			return
		}
		views := make([]any, len(st.Choosers))
		for i, c := range st.Choosers {
			views[i] = map[string]any{"view": c.View, "tiles": c.Tiles}
		}
		sse.Signals(map[string]any{"choosers": views})
	}), nil
}

// Zoom clicks a zoom control and patches the zoom-out button.
func (h *PageHandler) Zoom(ctx context.Context, input *ZoomInput) (*huma.StreamResponse, error) {
	res, err := h.pages.Zoom(input.ID, input.Direction)
	if isNotFound(err) {
		return nil, api.HTTPError(err)
	}
	return h.Stream(func(sse humastar.SSE) {
		if err != nil {
			sse.Error(err.Error())
			return
		}
		classes := []string{ZoomControlClass}
		if res.ZoomOutDisabled {
			classes = append(classes, widget.DisabledClass)
		}
		sse.Replace(h.Render("zoom-control", templates.ZoomControl{
			ID:      widget.ZoomOutID,
			Classes: classes,
			Action:  zoomAction(input.ID, "out"),
			Label:   "Zoom out",
			Text:    "−",
		}), "#"+widget.ZoomOutID)
		sse.Signals(map[string]any{"zooms": res.Zooms})
	}), nil
}

func zoomAction(id, direction string) string {
	return fmt.Sprintf("/api/v1/editor/pages/%s/zoom/%s", id, direction)
}

// Boundary delivers a click or double click on a viewer's boundary.
// Signals: viewer (viewer index).
func (h *PageHandler) Boundary(ctx context.Context, input *BoundaryInput) (*huma.StreamResponse, error) {
	signals, err := parse(input.RawBody)
	if err != nil {
		return nil, err
	}
	index := signals.Int("viewer")

	vs, err := h.pages.Boundary(input.ID, index, input.Gesture)
	if isNotFound(err) {
		return nil, api.HTTPError(err)
	}
	return h.Stream(func(sse humastar.SSE) {
		if err != nil {
			sse.Error(err.Error())
			return
		}
		if vs.Popup == nil {
			sel := fmt.Sprintf("popup-%d", index)
			sse.Replace(fmt.Sprintf(`<div id="%s"></div>`, sel), "#"+sel)
		}
		sse.Signals(map[string]any{"view": vs.View, "gate": vs.Gate})
	}), nil
}

// OpenMarker clicks a marker and patches its popup. Signals: viewer.
func (h *PageHandler) OpenMarker(ctx context.Context, input *MarkerInput) (*huma.StreamResponse, error) {
	signals, err := parse(input.RawBody)
	if err != nil {
		return nil, err
	}
	index := signals.Int("viewer")

	popup, err := h.pages.OpenMarker(input.ID, index, input.Marker)
	if isNotFound(err) {
		return nil, api.HTTPError(err)
	}
	return h.Stream(func(sse humastar.SSE) {
		if err != nil {
			sse.Error(err.Error())
			return
		}
		sse.Patch(h.Render("popup", templates.Popup{
			LayerID:   fmt.Sprintf("marker-%d", input.Marker),
			ClassName: popup.ClassName,
			HTML:      template.HTML(popup.HTML), // escaped by widget.RenderPopup
		}), fmt.Sprintf("#popup-%d", index))
	}), nil
}

func (h *PageHandler) renderLayerList(layers []service.LayerState) string {
	items := make([]any, len(layers))
	for i, l := range layers {
		items[i] = templates.LayerItem{ID: l.ID, Kind: l.Kind}
	}
	return h.RenderList("layer-item", items, "No shape drawn", "Draw a polygon or rectangle on the map")
}

func parse(body []byte) (humastar.Signals, error) {
	in := humastar.SignalsInput{RawBody: body}
	return in.MustParse()
}

// isNotFound reports errors that address a page or widget that does not
// exist; those become HTTP errors instead of error signals.
func isNotFound(err error) bool {
	return errors.Is(err, service.ErrPageNotFound) || errors.Is(err, service.ErrWidgetNotFound)
}
