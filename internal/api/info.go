package api

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-geo-widgets/internal/config"
	"github.com/joeblew999/plat-geo-widgets/internal/widget"
)

type InfoHandler struct {
	defaults config.MapDefaults
}

func NewInfoHandler(defaults config.MapDefaults) *InfoHandler {
	return &InfoHandler{defaults: defaults}
}

func (h *InfoHandler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/v1/info", h.GetInfo, huma.OperationTags("health"))
	huma.Get(api, "/api/v1/map/defaults", h.GetDefaults, huma.OperationTags("map"))
}

type InfoBody struct {
	Name     string   `json:"name" doc:"Service name"`
	Version  string   `json:"version" doc:"Service version"`
	Widgets  []string `json:"widgets" doc:"Supported data-map values"`
	Features []string `json:"features" doc:"Available features"`
}

func (h *InfoHandler) GetInfo(ctx context.Context, input *struct{}) (*struct{ Body InfoBody }, error) {
	return &struct{ Body InfoBody }{Body: InfoBody{
		Name:     "plat-geo-widgets",
		Version:  Version,
		Widgets:  []string{widget.KindChoosePolygon, widget.KindDisplayPoints},
		Features: []string{"geojson", "datastar", "zoom-gate", "tile-coverage", "metrics"},
	}}, nil
}

func (h *InfoHandler) GetDefaults(ctx context.Context, input *struct{}) (*struct{ Body config.MapDefaults }, error) {
	return &struct{ Body config.MapDefaults }{Body: h.defaults}, nil
}
