package widget

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/joeblew999/plat-geo-widgets/internal/geo"
	"github.com/joeblew999/plat-geo-widgets/internal/mapview"
)

// DrawnLayerSet holds the shapes currently on a chooser's map. The drawing
// plugin allows several, but the widget treats the set as one logical
// shape; see CurrentShape.
type DrawnLayerSet struct {
	layers []mapview.DrawnLayer
}

// NewDrawnLayerSet returns an empty set.
func NewDrawnLayerSet() *DrawnLayerSet {
	return &DrawnLayerSet{}
}

// Add appends a layer and returns it. A layer without an ID, or with an ID
// already in the set, gets a fresh one; IDs stay unique.
func (s *DrawnLayerSet) Add(l mapview.DrawnLayer) mapview.DrawnLayer {
	if l.ID == "" || s.Has(l.ID) {
		l.ID = uuid.NewString()
	}
	s.layers = append(s.layers, l)
	return l
}

// Has reports whether a layer with the given ID is in the set.
func (s *DrawnLayerSet) Has(id string) bool {
	return s.index(id) >= 0
}

func (s *DrawnLayerSet) index(id string) int {
	for i := range s.layers {
		if s.layers[i].ID == id {
			return i
		}
	}
	return -1
}

// Replace swaps the geometry of the layer with the same ID. Kind and
// properties are kept when l does not carry its own.
func (s *DrawnLayerSet) Replace(l mapview.DrawnLayer) bool {
	i := s.index(l.ID)
	if i < 0 {
		return false
	}
	if l.Kind == "" {
		l.Kind = s.layers[i].Kind
	}
	if l.Properties == nil {
		l.Properties = s.layers[i].Properties
	}
	s.layers[i] = l
	return true
}

// Remove deletes the layer with the given ID.
func (s *DrawnLayerSet) Remove(id string) bool {
	i := s.index(id)
	if i < 0 {
		return false
	}
	s.layers = append(s.layers[:i], s.layers[i+1:]...)
	return true
}

// Len returns the number of layers.
func (s *DrawnLayerSet) Len() int { return len(s.layers) }

// Layers returns a copy of the layers in insertion order.
func (s *DrawnLayerSet) Layers() []mapview.DrawnLayer {
	return append([]mapview.DrawnLayer(nil), s.layers...)
}

// CurrentShape returns the single logical polygon or rectangle: the most
// recently added layer.
func (s *DrawnLayerSet) CurrentShape() (mapview.DrawnLayer, bool) {
	if len(s.layers) == 0 {
		return mapview.DrawnLayer{}, false
	}
	return s.layers[len(s.layers)-1], true
}

// Bound returns the extent of all layers.
func (s *DrawnLayerSet) Bound() (orb.Bound, bool) {
	geoms := make([]orb.Geometry, 0, len(s.layers))
	for _, l := range s.layers {
		geoms = append(geoms, l.Geometry)
	}
	return geo.BoundOf(geoms...)
}

// FeatureCollection converts the set to GeoJSON. An empty set yields an
// empty collection, never null. Seeded properties are kept.
func (s *DrawnLayerSet) FeatureCollection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, l := range s.layers {
		f := geojson.NewFeature(l.Geometry)
		if l.Properties != nil {
			f.Properties = l.Properties.Clone()
		}
		fc.Append(f)
	}
	return fc
}

// Serialize returns the set as a GeoJSON FeatureCollection string.
func (s *DrawnLayerSet) Serialize() (string, error) {
	data, err := json.Marshal(s.FeatureCollection())
	if err != nil {
		return "", err
	}
	return string(data), nil
}

var _ mapview.LayerGroup = (*DrawnLayerSet)(nil)
