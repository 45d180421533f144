package geo

import "github.com/danielgtaylor/huma/v2"

// Schema describes Shape in OpenAPI documents as free-form GeoJSON.
func (Shape) Schema(r huma.Registry) *huma.Schema {
	return &huma.Schema{
		Type:                 huma.TypeObject,
		Description:          "GeoJSON Feature, FeatureCollection or Geometry",
		AdditionalProperties: true,
	}
}
