// Package api defines the Huma REST routes for widget pages.
package api

import (
	"context"
	"errors"
	"maps"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-geo-widgets/internal/config"
	"github.com/joeblew999/plat-geo-widgets/internal/humastar"
	"github.com/joeblew999/plat-geo-widgets/internal/service"
)

// Version is reported by /health and /api/v1/info.
const Version = "0.1.0"

// Types

type IDInput struct {
	ID string `path:"id" doc:"Page ID" example:"3f1c2a5e-7d4b-4c1e-9a57-0c2b8f0e6d11"`
}

type ListInput struct {
	Offset int `query:"offset" minimum:"0" default:"0" doc:"Number of pages to skip"`
	Limit  int `query:"limit" minimum:"0" maximum:"100" default:"20" doc:"Page size"`
}

type CreatePageBody struct {
	Elements    []service.ElementSpec `json:"elements" doc:"Widget root elements in document order"`
	UseDefaults bool                  `json:"useDefaults,omitempty" doc:"Fill missing data-baseurl, data-attribution and data-bbox from the map defaults"`
}

type EmbedBody struct {
	Elements []service.ElementSpec `json:"elements" minItems:"1" doc:"Elements loaded by the embed"`
}

// PageResource is a page state with its state-dependent actions.
type PageResource struct {
	service.PageState
}

var pageActions = []humastar.ActionDef{
	{Rel: "embed", Pattern: "/api/v1/pages/%s/embeds", Method: http.MethodPost, Title: "Add embedded elements"},
	{Rel: "delete", Pattern: "/api/v1/pages/%s", Method: http.MethodDelete, Title: "Discard page"},
	{Rel: "events", Pattern: "/api/v1/editor/events?page=%s", Method: http.MethodGet, Title: "Page events"},
}

// Actions implements humastar.Actor.
func (p PageResource) Actions() []humastar.Action {
	return humastar.ActionsFor(p.ID, pageActions)
}

type PageOutput struct {
	Body PageResource
}

type HealthBody struct {
	Status  string `json:"status" doc:"Health status" example:"ok"`
	Version string `json:"version" doc:"API version" example:"0.1.0"`
	Pages   int    `json:"pages" doc:"Open pages"`
}

// APIHandler holds all REST API handlers. Methods named Register* are
// auto-discovered by huma.AutoRegister.
type APIHandler struct {
	pages    *service.PageService
	defaults config.MapDefaults
}

func NewAPIHandler(pages *service.PageService, defaults config.MapDefaults) *APIHandler {
	return &APIHandler{pages: pages, defaults: defaults}
}

// RegisterHealth registers health check routes.
func (h *APIHandler) RegisterHealth(api huma.API) {
	huma.Get(api, "/health", h.GetHealth, huma.OperationTags("health"))
}

// RegisterPages registers page routes.
func (h *APIHandler) RegisterPages(api huma.API) {
	huma.Get(api, "/api/v1/pages", h.ListPages, huma.OperationTags("pages"))
	huma.Post(api, "/api/v1/pages", h.CreatePage, huma.OperationTags("pages"), status(http.StatusCreated))
	huma.Get(api, "/api/v1/pages/{id}", h.GetPage, huma.OperationTags("pages"))
	huma.Delete(api, "/api/v1/pages/{id}", h.DeletePage, huma.OperationTags("pages"), status(http.StatusNoContent))
	huma.Post(api, "/api/v1/pages/{id}/embeds", h.AddEmbeds, huma.OperationTags("pages"))
}

func status(code int) func(*huma.Operation) {
	return func(o *huma.Operation) { o.DefaultStatus = code }
}

// Handlers

func (h *APIHandler) GetHealth(ctx context.Context, input *struct{}) (*struct{ Body HealthBody }, error) {
	_, n := h.pages.List(0, 0)
	return &struct{ Body HealthBody }{Body: HealthBody{Status: "ok", Version: Version, Pages: n}}, nil
}

func (h *APIHandler) ListPages(ctx context.Context, input *ListInput) (*struct {
	Body humastar.PageBody[service.PageSummary]
}, error) {
	data, total := h.pages.List(input.Offset, input.Limit)
	return &struct {
		Body humastar.PageBody[service.PageSummary]
	}{Body: humastar.PageBody[service.PageSummary]{
		Total: total, Offset: input.Offset, Limit: input.Limit, Data: data,
	}}, nil
}

func (h *APIHandler) CreatePage(ctx context.Context, input *struct{ Body CreatePageBody }) (*PageOutput, error) {
	specs := input.Body.Elements
	if input.Body.UseDefaults {
		var err error
		if specs, err = h.withDefaults(specs); err != nil {
			return nil, huma.Error500InternalServerError("map defaults", err)
		}
	}
	st, err := h.pages.Create(specs)
	if err != nil {
		return nil, HTTPError(err)
	}
	return &PageOutput{Body: PageResource{st}}, nil
}

// withDefaults fills attributes the element does not set itself.
func (h *APIHandler) withDefaults(specs []service.ElementSpec) ([]service.ElementSpec, error) {
	defaults, err := h.defaults.Attrs()
	if err != nil {
		return nil, err
	}
	out := make([]service.ElementSpec, len(specs))
	for i, spec := range specs {
		attrs := maps.Clone(defaults)
		maps.Copy(attrs, spec.Attrs)
		spec.Attrs = attrs
		out[i] = spec
	}
	return out, nil
}

func (h *APIHandler) GetPage(ctx context.Context, input *IDInput) (*PageOutput, error) {
	st, err := h.pages.Get(input.ID)
	if err != nil {
		return nil, HTTPError(err)
	}
	return &PageOutput{Body: PageResource{st}}, nil
}

func (h *APIHandler) DeletePage(ctx context.Context, input *IDInput) (*struct{}, error) {
	if err := h.pages.Delete(input.ID); err != nil {
		return nil, HTTPError(err)
	}
	return nil, nil
}

func (h *APIHandler) AddEmbeds(ctx context.Context, input *struct {
	IDInput
	Body EmbedBody
}) (*PageOutput, error) {
	st, err := h.pages.AddElements(input.ID, input.Body.Elements)
	if err != nil {
		return nil, HTTPError(err)
	}
	return &PageOutput{Body: PageResource{st}}, nil
}

// HTTPError maps service errors to Huma status errors.
func HTTPError(err error) error {
	switch {
	case errors.Is(err, service.ErrPageNotFound), errors.Is(err, service.ErrWidgetNotFound):
		return huma.Error404NotFound(err.Error())
	case errors.Is(err, service.ErrBadRequest):
		return huma.Error400BadRequest(err.Error())
	}
	return huma.Error500InternalServerError(err.Error())
}
