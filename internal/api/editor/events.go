package editor

import (
	"context"
	"log/slog"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-geo-widgets/internal/humastar"
	"github.com/joeblew999/plat-geo-widgets/internal/service"
	"github.com/joeblew999/plat-geo-widgets/internal/templates"
)

// EventHandler streams page change events to the Datastar UI via SSE.
type EventHandler struct {
	humastar.Handler
	bus *service.EventBus
}

// NewEventHandler creates a new event handler.
func NewEventHandler(bus *service.EventBus, renderer *templates.Renderer, logger *slog.Logger) *EventHandler {
	return &EventHandler{
		Handler: humastar.Handler{Renderer: renderer, Logger: logger},
		bus:     bus,
	}
}

func (h *EventHandler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/v1/editor/events", h.Events,
		huma.OperationTags("editor"),
	)
}

type EventsInput struct {
	Page string `query:"page" doc:"Only stream events of this page"`
}

func (h *EventHandler) Events(ctx context.Context, input *EventsInput) (*huma.StreamResponse, error) {
	return h.Stream(func(sse humastar.SSE) {
		ch := h.bus.Subscribe()
		defer h.bus.Unsubscribe(ch)

		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-ch:
				if !ok {
					return
				}
				if input.Page != "" && ev.ID != input.Page {
					continue
				}
				sse.DispatchCustomEvent("page-changed", map[string]any{
					"resource": ev.Resource,
					"action":   ev.Action,
					"id":       ev.ID,
					"widget":   ev.Widget,
				})
			}
		}
	}), nil
}
