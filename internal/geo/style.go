package geo

import (
	"fmt"

	"github.com/lucasb-eyer/go-colorful"
)

// Style is the stroke/fill style applied to rendered polygons.
type Style struct {
	Color       string  `json:"color" yaml:"color" doc:"Stroke colour (CSS hex)" example:"#0076ae"`
	Weight      float64 `json:"weight" yaml:"weight" doc:"Stroke width in pixels" example:"2"`
	Opacity     float64 `json:"opacity" yaml:"opacity" minimum:"0" maximum:"1" doc:"Stroke opacity (0-1)"`
	FillOpacity float64 `json:"fillOpacity" yaml:"fillOpacity" minimum:"0" maximum:"1" doc:"Fill opacity (0-1)"`
}

// PolygonStyle is the fixed style used for drawn and boundary polygons.
var PolygonStyle = Style{
	Color:       "#0076ae",
	Weight:      2,
	Opacity:     1,
	FillOpacity: 0.2,
}

// Validate checks the colour parses and the opacities are in range.
func (s Style) Validate() error {
	if _, err := colorful.Hex(s.Color); err != nil {
		return fmt.Errorf("geo: style color %q: %w", s.Color, err)
	}
	if s.Weight < 0 {
		return fmt.Errorf("geo: style weight must not be negative, got %v", s.Weight)
	}
	if s.Opacity < 0 || s.Opacity > 1 {
		return fmt.Errorf("geo: style opacity must be 0-1, got %v", s.Opacity)
	}
	if s.FillOpacity < 0 || s.FillOpacity > 1 {
		return fmt.Errorf("geo: style fill opacity must be 0-1, got %v", s.FillOpacity)
	}
	return nil
}

// Highlight returns the colour an edited shape is drawn with. Shapes keep
// their stroke colour while being edited, so this is the stroke colour
// normalised to lowercase hex.
func (s Style) Highlight() string {
	c, err := colorful.Hex(s.Color)
	if err != nil {
		return s.Color
	}
	return c.Hex()
}
