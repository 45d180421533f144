// Package config loads the map defaults that the host application renders
// into widget data attributes: tile base URL, attribution and the fallback
// bounding box.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/joeblew999/plat-geo-widgets/internal/geo"
	"github.com/joeblew999/plat-geo-widgets/internal/mapview"
)

// DefaultBaseURL serves OpenStreetMap's standard tiles.
const DefaultBaseURL = "https://tile.openstreetmap.org/"

// MapDefaults are the site-wide map settings.
type MapDefaults struct {
	BaseURL     string     `json:"baseurl" yaml:"baseurl" doc:"Tile server base URL; {z}/{x}/{y}.png is appended"`
	Attribution string     `json:"attribution" yaml:"attribution" doc:"Attribution HTML shown on the map"`
	BBox        *geo.Shape `json:"bbox,omitempty" yaml:"-" doc:"Fallback GeoJSON polygon used when no shape is set"`
	Style       geo.Style  `json:"style" yaml:"-" doc:"Style of drawn and boundary polygons"`
}

// fileFormat is the on-disk shape of a defaults file. The bounding box is
// written as plain YAML and converted to GeoJSON.
type fileFormat struct {
	BaseURL     string `yaml:"baseurl"`
	Attribution string `yaml:"attribution"`
	BBox        any    `yaml:"bbox"`
	// Style overrides single fields of geo.PolygonStyle.
	Style *geo.Style `yaml:"style"`
}

// Default returns the built-in defaults.
func Default() MapDefaults {
	return MapDefaults{
		BaseURL:     DefaultBaseURL,
		Attribution: mapview.DefaultAttribution,
		Style:       geo.PolygonStyle,
	}
}

// Load reads defaults from path. A missing file yields Default().
func Load(path string) (MapDefaults, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return MapDefaults{}, fmt.Errorf("config: reading %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a YAML defaults document. Unset fields keep their defaults.
func Parse(data []byte) (MapDefaults, error) {
	style := geo.PolygonStyle
	f := fileFormat{Style: &style}
	if err := yaml.Unmarshal(data, &f); err != nil {
		return MapDefaults{}, fmt.Errorf("config: decoding map defaults: %w", err)
	}

	d := Default()
	if f.Style != nil {
		if err := f.Style.Validate(); err != nil {
			return MapDefaults{}, fmt.Errorf("config: %w", err)
		}
		d.Style = *f.Style
		d.Style.Color = f.Style.Highlight()
	}
	if f.BaseURL != "" {
		d.BaseURL = f.BaseURL
	}
	if f.Attribution != "" {
		d.Attribution = f.Attribution
	}
	if f.BBox != nil {
		raw, err := json.Marshal(f.BBox)
		if err != nil {
			return MapDefaults{}, fmt.Errorf("config: bbox: %w", err)
		}
		if d.BBox, err = geo.Parse(raw); err != nil {
			return MapDefaults{}, fmt.Errorf("config: bbox: %w", err)
		}
		for _, g := range d.BBox.Geometries() {
			if g.GeoJSONType() != "Polygon" && g.GeoJSONType() != "MultiPolygon" {
				return MapDefaults{}, fmt.Errorf("config: bbox must be a polygon, got %s", g.GeoJSONType())
			}
		}
	}
	return d, nil
}

// Attrs renders the defaults as widget data attributes.
func (d MapDefaults) Attrs() (map[string]string, error) {
	attrs := map[string]string{
		"data-baseurl":     d.BaseURL,
		"data-attribution": d.Attribution,
	}
	if d.BBox != nil {
		raw, err := json.Marshal(d.BBox)
		if err != nil {
			return nil, err
		}
		attrs["data-bbox"] = string(raw)
	}
	return attrs, nil
}
