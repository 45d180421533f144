package widget

import (
	"testing"

	"github.com/joeblew999/plat-geo-widgets/internal/geo"
	"github.com/joeblew999/plat-geo-widgets/internal/page"
)

func TestParseConfig(t *testing.T) {
	tests := []struct {
		name    string
		attrs   map[string]string
		wantErr bool
	}{
		{
			name:  "chooser minimal",
			attrs: map[string]string{AttrMap: KindChoosePolygon, AttrName: "area", AttrBaseURL: testBaseURL},
		},
		{
			name:  "chooser with polygon null",
			attrs: map[string]string{AttrMap: KindChoosePolygon, AttrName: "area", AttrBaseURL: testBaseURL, AttrPolygon: "null"},
		},
		{
			name:    "chooser without name",
			attrs:   map[string]string{AttrMap: KindChoosePolygon, AttrBaseURL: testBaseURL},
			wantErr: true,
		},
		{
			name:    "missing base url",
			attrs:   map[string]string{AttrMap: KindChoosePolygon, AttrName: "area"},
			wantErr: true,
		},
		{
			name:    "unknown kind",
			attrs:   map[string]string{AttrMap: "choose_point", AttrName: "area", AttrBaseURL: testBaseURL},
			wantErr: true,
		},
		{
			name:    "malformed polygon json",
			attrs:   map[string]string{AttrMap: KindChoosePolygon, AttrName: "area", AttrBaseURL: testBaseURL, AttrPolygon: `{"type":`},
			wantErr: true,
		},
		{
			name:    "unknown geometry type",
			attrs:   map[string]string{AttrMap: KindChoosePolygon, AttrName: "area", AttrBaseURL: testBaseURL, AttrPolygon: `{"type":"Circle"}`},
			wantErr: true,
		},
		{
			name:    "bbox not a polygon",
			attrs:   map[string]string{AttrMap: KindChoosePolygon, AttrName: "area", AttrBaseURL: testBaseURL, AttrBBox: `{"type":"Point","coordinates":[1,2]}`},
			wantErr: true,
		},
		{
			name:  "viewer",
			attrs: map[string]string{AttrMap: KindDisplayPoints, AttrBaseURL: testBaseURL, AttrPolygon: berlinBBox, AttrPoints: testPoints},
		},
		{
			name:    "viewer without polygon",
			attrs:   map[string]string{AttrMap: KindDisplayPoints, AttrBaseURL: testBaseURL},
			wantErr: true,
		},
		{
			name: "negative count",
			attrs: map[string]string{AttrMap: KindDisplayPoints, AttrBaseURL: testBaseURL, AttrPolygon: berlinBBox,
				AttrPoints: `{"type":"FeatureCollection","features":[{"type":"Feature","geometry":{"type":"Point","coordinates":[13.4,52.5]},"properties":{"name":"x","positive_rating_count":-1}}]}`},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfig(page.NewElement(tt.attrs, 100, 100))
			if (err != nil) != tt.wantErr {
				t.Fatalf("err=%v, wantErr=%v", err, tt.wantErr)
			}
		})
	}
}

func TestConfigInputID(t *testing.T) {
	cfg, err := ParseConfig(chooserElement("area", nil, 1, 1))
	if err != nil {
		t.Fatal(err)
	}
	if got := cfg.InputID(); got != "id_area" {
		t.Fatalf("InputID=%q, want id_area", got)
	}
	if cfg.Polygon != nil || cfg.BBox != nil {
		t.Fatal("absent attributes parsed as shapes")
	}
}

func TestConfigEmptyPolygonIsSentinel(t *testing.T) {
	cfg, err := ParseConfig(chooserElement("area", map[string]string{AttrPolygon: emptyFC, AttrBBox: berlinBBox}, 1, 1))
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Polygon.IsEmptyCollection() {
		t.Fatal("empty collection not recognized")
	}
	if geo.ResolveBounds(cfg.Polygon, cfg.BBox) != cfg.BBox {
		t.Fatal("empty polygon did not resolve to bbox")
	}
}
