// Package geo holds the GeoJSON shapes the map widgets consume and produce.
//
// Shapes are parsed with paulmach/orb and keep the distinction between an
// absent shape (nil *Shape, JSON null) and an explicitly empty
// FeatureCollection, which callers treat as "configured but empty".
package geo

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Kind is the top-level GeoJSON object type of a Shape.
type Kind int

const (
	KindGeometry Kind = iota
	KindFeature
	KindFeatureCollection
)

func (k Kind) String() string {
	switch k {
	case KindFeature:
		return "Feature"
	case KindFeatureCollection:
		return "FeatureCollection"
	default:
		return "Geometry"
	}
}

// geometryTypes are the GeoJSON geometry types accepted as a bare Shape.
var geometryTypes = map[string]bool{
	"Point":              true,
	"MultiPoint":         true,
	"LineString":         true,
	"MultiLineString":    true,
	"Polygon":            true,
	"MultiPolygon":       true,
	"GeometryCollection": true,
}

// ErrUnsupportedType is returned for GeoJSON objects with an unknown type.
var ErrUnsupportedType = errors.New("geo: unsupported GeoJSON type")

// Shape is a parsed GeoJSON Feature, FeatureCollection or Geometry.
type Shape struct {
	kind       Kind
	geometry   orb.Geometry
	feature    *geojson.Feature
	collection *geojson.FeatureCollection
}

// Parse decodes a GeoJSON document. Empty input and JSON null yield a nil
// Shape and no error.
func Parse(data []byte) (*Shape, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, nil
	}

	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("geo: decoding shape: %w", err)
	}

	switch {
	case probe.Type == "FeatureCollection":
		fc, err := geojson.UnmarshalFeatureCollection(data)
		if err != nil {
			return nil, fmt.Errorf("geo: decoding feature collection: %w", err)
		}
		return &Shape{kind: KindFeatureCollection, collection: fc}, nil
	case probe.Type == "Feature":
		f, err := geojson.UnmarshalFeature(data)
		if err != nil {
			return nil, fmt.Errorf("geo: decoding feature: %w", err)
		}
		return &Shape{kind: KindFeature, feature: f}, nil
	case geometryTypes[probe.Type]:
		g, err := geojson.UnmarshalGeometry(data)
		if err != nil {
			return nil, fmt.Errorf("geo: decoding geometry: %w", err)
		}
		return &Shape{kind: KindGeometry, geometry: g.Geometry()}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedType, probe.Type)
	}
}

// MustParse is like Parse but panics on error. Intended for literals in
// tests and defaults.
func MustParse(data string) *Shape {
	s, err := Parse([]byte(data))
	if err != nil {
		panic(err)
	}
	return s
}

// FromGeometry wraps an orb geometry as a Shape.
func FromGeometry(g orb.Geometry) *Shape {
	return &Shape{kind: KindGeometry, geometry: g}
}

// FromCollection wraps a feature collection as a Shape.
func FromCollection(fc *geojson.FeatureCollection) *Shape {
	return &Shape{kind: KindFeatureCollection, collection: fc}
}

// Kind reports the top-level type of the shape.
func (s *Shape) Kind() Kind { return s.kind }

// IsEmptyCollection reports whether s is a FeatureCollection with no
// features.
func (s *Shape) IsEmptyCollection() bool {
	return s != nil && s.kind == KindFeatureCollection && len(s.collection.Features) == 0
}

// Features returns the shape as a list of features. A bare geometry is
// returned as a single feature with empty properties.
func (s *Shape) Features() []*geojson.Feature {
	if s == nil {
		return nil
	}
	switch s.kind {
	case KindFeatureCollection:
		return s.collection.Features
	case KindFeature:
		return []*geojson.Feature{s.feature}
	default:
		return []*geojson.Feature{geojson.NewFeature(s.geometry)}
	}
}

// Geometries returns every non-nil geometry in the shape, in order.
func (s *Shape) Geometries() []orb.Geometry {
	var out []orb.Geometry
	for _, f := range s.Features() {
		if f.Geometry != nil {
			out = append(out, f.Geometry)
		}
	}
	return out
}

// Bound returns the extent of all geometries in the shape. The second
// return value is false when the shape has no geometry.
func (s *Shape) Bound() (orb.Bound, bool) {
	return BoundOf(s.Geometries()...)
}

// BoundOf unions the bounds of the given geometries.
func BoundOf(geoms ...orb.Geometry) (orb.Bound, bool) {
	var (
		b  orb.Bound
		ok bool
	)
	for _, g := range geoms {
		if g == nil {
			continue
		}
		if !ok {
			b, ok = g.Bound(), true
			continue
		}
		b = b.Union(g.Bound())
	}
	return b, ok
}

// MarshalJSON encodes the shape back to GeoJSON in its original kind.
func (s *Shape) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("null"), nil
	}
	switch s.kind {
	case KindFeatureCollection:
		return s.collection.MarshalJSON()
	case KindFeature:
		return s.feature.MarshalJSON()
	default:
		return json.Marshal(geojson.NewGeometry(s.geometry))
	}
}

// UnmarshalJSON lets Shape be used directly in request bodies.
func (s *Shape) UnmarshalJSON(data []byte) error {
	parsed, err := Parse(data)
	if err != nil {
		return err
	}
	if parsed == nil {
		*s = Shape{kind: KindFeatureCollection, collection: geojson.NewFeatureCollection()}
		return nil
	}
	*s = *parsed
	return nil
}
