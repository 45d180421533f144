// Package widget implements the two map widgets: PolygonChooser, which
// keeps a hidden form input in sync with a drawn polygon, and
// PointMapViewer, which shows a boundary with categorized point markers
// behind zoom-gated controls.
package widget

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/paulmach/orb"

	"github.com/joeblew999/plat-geo-widgets/internal/geo"
	"github.com/joeblew999/plat-geo-widgets/internal/mapview"
)

// Data attributes read from widget root elements.
const (
	AttrMap         = "data-map"
	AttrName        = "data-name"
	AttrBaseURL     = "data-baseurl"
	AttrPolygon     = "data-polygon"
	AttrBBox        = "data-bbox"
	AttrAttribution = "data-attribution"
	AttrPoints      = "data-points"
)

// Values of the data-map attribute.
const (
	KindChoosePolygon = "choose_polygon"
	KindDisplayPoints = "display_points"
)

// Element is a widget root element.
type Element interface {
	mapview.Container
	Attr(name string) (string, bool)
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Config is the per-instance configuration read once from the element.
type Config struct {
	Kind        string         `validate:"required,oneof=choose_polygon display_points"`
	Name        string         `validate:"required_if=Kind choose_polygon"`
	BaseURL     string         `validate:"required"`
	Attribution string         `validate:"-"`
	Polygon     *geo.Shape     `validate:"-"`
	BBox        *geo.Shape     `validate:"-"`
	Points      []PointFeature `validate:"dive"`
}

// InputID is the id of the hidden form input the chooser writes.
func (c Config) InputID() string {
	return "id_" + c.Name
}

// ParseConfig reads and validates the configuration of el. Malformed JSON
// in any attribute fails the whole instance.
func ParseConfig(el Element) (Config, error) {
	var (
		cfg Config
		err error
	)
	cfg.Kind, _ = el.Attr(AttrMap)
	cfg.Name, _ = el.Attr(AttrName)
	cfg.BaseURL, _ = el.Attr(AttrBaseURL)
	cfg.Attribution, _ = el.Attr(AttrAttribution)

	if cfg.Polygon, err = parseShapeAttr(el, AttrPolygon); err != nil {
		return Config{}, err
	}
	if cfg.BBox, err = parseShapeAttr(el, AttrBBox); err != nil {
		return Config{}, err
	}
	if err := checkPolygonal(AttrBBox, cfg.BBox); err != nil {
		return Config{}, err
	}

	points, err := parseShapeAttr(el, AttrPoints)
	if err != nil {
		return Config{}, err
	}
	if cfg.Points, err = PointFeatures(points); err != nil {
		return Config{}, fmt.Errorf("widget: %s: %w", AttrPoints, err)
	}

	if cfg.Kind == KindDisplayPoints && cfg.Polygon == nil {
		return Config{}, fmt.Errorf("widget: %s is required for %s", AttrPolygon, KindDisplayPoints)
	}

	if err := validate.Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("widget: invalid config: %w", err)
	}
	return cfg, nil
}

func parseShapeAttr(el Element, attr string) (*geo.Shape, error) {
	raw, ok := el.Attr(attr)
	if !ok {
		return nil, nil
	}
	s, err := geo.Parse([]byte(raw))
	if err != nil {
		return nil, fmt.Errorf("widget: %s: %w", attr, err)
	}
	return s, nil
}

// checkPolygonal rejects shapes holding anything but polygons.
func checkPolygonal(attr string, s *geo.Shape) error {
	for _, g := range s.Geometries() {
		switch g.(type) {
		case orb.Polygon, orb.MultiPolygon:
		default:
			return fmt.Errorf("widget: %s must be a polygon, got %s", attr, g.GeoJSONType())
		}
	}
	return nil
}
