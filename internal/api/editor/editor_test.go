package editor

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"

	"github.com/joeblew999/plat-geo-widgets/internal/mapview"
	"github.com/joeblew999/plat-geo-widgets/internal/service"
	"github.com/joeblew999/plat-geo-widgets/internal/templates"
	"github.com/joeblew999/plat-geo-widgets/internal/widget"
)

const (
	bbox   = `{"type":"Polygon","coordinates":[[[13.3,52.4],[13.5,52.4],[13.5,52.6],[13.3,52.6],[13.3,52.4]]]}`
	points = `{"type":"FeatureCollection","features":[{"type":"Feature","geometry":{"type":"Point","coordinates":[13.4,52.5]},"properties":{"name":"<b>Bench</b>","url":"/ideas/1/"}}]}`
	square = `{"type":"Polygon","coordinates":[[[13.35,52.45],[13.45,52.45],[13.45,52.55],[13.35,52.55],[13.35,52.45]]]}`
)

type fixture struct {
	mux   *http.ServeMux
	pages *service.PageService
	page  string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	renderer, err := templates.New()
	if err != nil {
		t.Fatal(err)
	}
	bus := service.NewEventBus()
	pages := service.NewPageService(mapview.NewFactory(mapview.NewHeadless()), bus, logger)

	mux := http.NewServeMux()
	api := humago.New(mux, huma.DefaultConfig("editor test", "1.0.0"))
	NewPageHandler(pages, renderer, logger).RegisterRoutes(api)
	NewEventHandler(bus, renderer, logger).RegisterRoutes(api)

	st, err := pages.Create([]service.ElementSpec{
		{Attrs: map[string]string{
			widget.AttrMap:     widget.KindChoosePolygon,
			widget.AttrName:    "area",
			widget.AttrBaseURL: "https://tiles.example/",
			widget.AttrBBox:    bbox,
		}, Width: 400, Height: 300},
		{Attrs: map[string]string{
			widget.AttrMap:     widget.KindDisplayPoints,
			widget.AttrBaseURL: "https://tiles.example/",
			widget.AttrPolygon: bbox,
			widget.AttrPoints:  points,
		}, Width: 400, Height: 300},
	})
	if err != nil {
		t.Fatal(err)
	}
	return &fixture{mux: mux, pages: pages, page: st.ID}
}

func (f *fixture) post(t *testing.T, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/editor/pages/"+f.page+path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)
	return rec
}

func TestDrawCreateThenDelete(t *testing.T) {
	f := newFixture(t)

	rec := f.post(t, "/draw/created", `{"widget":0,"shapes":[{"kind":"rectangle","geometry":`+square+`}]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body)
	}
	if out := rec.Body.String(); !strings.Contains(out, `id="layer-`) || !strings.Contains(out, `"layers":1`) {
		t.Fatalf("created stream:\n%s", out)
	}

	st, _ := f.pages.Get(f.page)
	if len(st.Choosers[0].Layers) != 1 {
		t.Fatalf("layers=%d, want 1", len(st.Choosers[0].Layers))
	}
	id := st.Choosers[0].Layers[0].ID

	rec = f.post(t, "/draw/deleted", `{"widget":0,"shapes":[{"id":"`+id+`"}]}`)
	out := rec.Body.String()
	if !strings.Contains(out, "No shape drawn") || !strings.Contains(out, "FeatureCollection") {
		t.Fatalf("deleted stream:\n%s", out)
	}
}

func TestDrawBadRequests(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name      string
		path      string
		body      string
		code      int
		wantError bool
	}{
		{"malformed signals", "/draw/created", `{`, http.StatusBadRequest, false},
		{"no shapes", "/draw/created", `{"widget":0}`, http.StatusOK, true},
		{"circle", "/draw/created", `{"widget":0,"shapes":[{"kind":"circle","geometry":` + square + `}]}`, http.StatusOK, true},
		{"unknown action", "/draw/moved", `{"widget":0}`, http.StatusUnprocessableEntity, false},
		{"unknown chooser", "/draw/created", `{"widget":3,"shapes":[{"kind":"polygon","geometry":` + square + `}]}`, http.StatusNotFound, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.post(t, tt.path, tt.body)
			if rec.Code != tt.code {
				t.Fatalf("status=%d, want %d body=%s", rec.Code, tt.code, rec.Body)
			}
			if got := strings.Contains(rec.Body.String(), `"error"`); got != tt.wantError {
				t.Fatalf("error signal=%v, want %v:\n%s", got, tt.wantError, rec.Body)
			}
		})
	}
}

func TestZoomControlPatch(t *testing.T) {
	f := newFixture(t)

	rec := f.post(t, "/zoom/in", "")
	out := rec.Body.String()
	if !strings.Contains(out, `id="`+widget.ZoomOutID+`"`) || strings.Contains(out, widget.DisabledClass) {
		t.Fatalf("zoom in:\n%s", out)
	}
	if !strings.Contains(out, f.page) {
		t.Fatalf("zoom control lost its action:\n%s", out)
	}

	out = f.post(t, "/zoom/out", "").Body.String()
	if !strings.Contains(out, widget.DisabledClass) {
		t.Fatalf("zoom out at floor:\n%s", out)
	}
}

func TestMarkerPopupIsEscaped(t *testing.T) {
	f := newFixture(t)

	out := f.post(t, "/markers/0/open", `{"viewer":0}`).Body.String()
	if !strings.Contains(out, "#popup-0") || !strings.Contains(out, "&lt;b&gt;Bench") {
		t.Fatalf("popup:\n%s", out)
	}

	out = f.post(t, "/boundary/click", `{"viewer":0}`).Body.String()
	if !strings.Contains(out, `<div id="popup-0"></div>`) {
		t.Fatalf("click did not clear popup:\n%s", out)
	}
}

func TestEventsStopWithRequest(t *testing.T) {
	f := newFixture(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/editor/events?page="+f.page, nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)

	if strings.Contains(rec.Body.String(), "page-changed") {
		t.Fatalf("events after cancel:\n%s", rec.Body)
	}
}
