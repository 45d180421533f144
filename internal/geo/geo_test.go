package geo

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/paulmach/orb"
)

const (
	square = `{"type":"Polygon","coordinates":[[[0,0],[2,0],[2,1],[0,1],[0,0]]]}`
	emptyC = `{"type":"FeatureCollection","features":[]}`
)

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		wantNil  bool
		wantKind Kind
		wantErr  error
	}{
		{name: "empty", in: "", wantNil: true},
		{name: "null", in: " null ", wantNil: true},
		{name: "geometry", in: square, wantKind: KindGeometry},
		{name: "feature", in: `{"type":"Feature","properties":{"a":1},"geometry":` + square + `}`, wantKind: KindFeature},
		{name: "collection", in: emptyC, wantKind: KindFeatureCollection},
		{name: "unknown type", in: `{"type":"Circle","radius":3}`, wantErr: ErrUnsupportedType},
		{name: "no type", in: `{"coordinates":[1,2]}`, wantErr: ErrUnsupportedType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Parse([]byte(tt.in))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err=%v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if tt.wantNil {
				if s != nil {
					t.Fatalf("shape=%v, want nil", s)
				}
				return
			}
			if s.Kind() != tt.wantKind {
				t.Fatalf("kind=%s, want %s", s.Kind(), tt.wantKind)
			}
		})
	}
}

func TestParseMalformed(t *testing.T) {
	if _, err := Parse([]byte(`{"type":"Polygon","coordinates":`)); err == nil {
		t.Fatal("truncated JSON parsed")
	}
}

func TestResolveBounds(t *testing.T) {
	poly := MustParse(square)
	empty := MustParse(emptyC)
	bbox := MustParse(`{"type":"Polygon","coordinates":[[[10,10],[11,10],[11,11],[10,11],[10,10]]]}`)

	tests := []struct {
		name              string
		polygon, fallback *Shape
		want              *Shape
	}{
		{"polygon wins", poly, bbox, poly},
		{"polygon without fallback", poly, nil, poly},
		{"empty collection", empty, bbox, bbox},
		{"nil polygon", nil, bbox, bbox},
		{"both nil", nil, nil, nil},
		{"empty and nil", empty, nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveBounds(tt.polygon, tt.fallback); got != tt.want {
				t.Fatalf("ResolveBounds=%v, want %v", got, tt.want)
			}
		})
	}
}

func TestShapeBound(t *testing.T) {
	b, ok := MustParse(square).Bound()
	if !ok {
		t.Fatal("square has no bound")
	}
	if b.Min != (orb.Point{0, 0}) || b.Max != (orb.Point{2, 1}) {
		t.Fatalf("bound=%v", b)
	}
	if _, ok := MustParse(emptyC).Bound(); ok {
		t.Fatal("empty collection reported a bound")
	}
	var nilShape *Shape
	if _, ok := nilShape.Bound(); ok {
		t.Fatal("nil shape reported a bound")
	}
}

func TestShapeJSONRoundTrip(t *testing.T) {
	var body struct {
		Shape *Shape `json:"shape"`
	}
	if err := json.Unmarshal([]byte(`{"shape":`+square+`}`), &body); err != nil {
		t.Fatal(err)
	}
	data, err := json.Marshal(body.Shape)
	if err != nil {
		t.Fatal(err)
	}
	again, err := Parse(data)
	if err != nil {
		t.Fatal(err)
	}
	if !orb.Equal(again.Geometries()[0], body.Shape.Geometries()[0]) {
		t.Fatalf("round trip changed geometry: %s", data)
	}
}

func TestStyle(t *testing.T) {
	if err := PolygonStyle.Validate(); err != nil {
		t.Fatalf("PolygonStyle: %v", err)
	}
	if got := (Style{Color: "#0076AE"}).Highlight(); got != "#0076ae" {
		t.Fatalf("Highlight=%q", got)
	}
	bad := []Style{
		{Color: "blue", Opacity: 1},
		{Color: "#fff000", Opacity: 2},
		{Color: "#fff000", FillOpacity: -0.1},
		{Color: "#fff000", Weight: -1},
	}
	for _, s := range bad {
		if err := s.Validate(); err == nil {
			t.Fatalf("Validate(%+v)=nil", s)
		}
	}
}

func TestArea(t *testing.T) {
	// One degree square at the equator is roughly 12,300 km².
	deg := MustParse(`{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,1],[0,0]]]}`)
	a := Area(deg.Geometries()[0])
	if a < 1.2e10 || a > 1.25e10 {
		t.Fatalf("area=%v", a)
	}
	if Area(orb.Point{1, 2}) != 0 || Area(nil) != 0 {
		t.Fatal("point or nil has area")
	}
}
