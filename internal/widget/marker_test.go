package widget

import (
	"strings"
	"testing"

	"github.com/paulmach/orb"

	"github.com/joeblew999/plat-geo-widgets/internal/geo"
)

func TestIconFor(t *testing.T) {
	def := IconFor(PointFeature{Name: "plain"})
	if def.URL != DefaultIconURL || def.ShadowURL != DefaultShadowURL {
		t.Fatalf("default icon=%+v", def)
	}
	if def.Size != [2]int{30, 45} || def.Anchor != [2]int{15, 45} ||
		def.ShadowSize != [2]int{40, 54} || def.ShadowAnchor != [2]int{20, 54} ||
		def.PopupAnchor != [2]int{0, 5} {
		t.Fatalf("default icon geometry=%+v", def)
	}

	cat := IconFor(PointFeature{CategoryIcon: "/media/icons/tree.svg"})
	if cat.URL != "/media/icons/tree.svg" {
		t.Fatalf("category icon url=%q", cat.URL)
	}
	if cat.HasShadow() {
		t.Fatal("category icon has a shadow")
	}
}

func TestRenderPopup(t *testing.T) {
	p, err := RenderPopup(PointFeature{
		Name:      "Bench & Tree",
		URL:       "/ideas/5/",
		Upvotes:   2,
		Downvotes: 0,
		Comments:  4,
	})
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		`<div class="maps-popups-popup-image"></div>`,
		`<span class="map-popup-upvotes">2 `,
		`<span class="map-popup-downvotes">0 `,
		`<span class="map-popup-comments-count">4 `,
		`<a href="/ideas/5/">Bench &amp; Tree</a>`,
	} {
		if !strings.Contains(p.HTML, want) {
			t.Fatalf("popup missing %q:\n%s", want, p.HTML)
		}
	}
}

func TestRenderPopupEscapesHostileValues(t *testing.T) {
	p, err := RenderPopup(PointFeature{
		Name:  `"><img src=x onerror=alert(1)>`,
		URL:   "javascript:alert(1)",
		Image: `x);background:url(javascript:alert(1)`,
	})
	if err != nil {
		t.Fatal(err)
	}
	for _, bad := range []string{"<img", "javascript:", `href="javascript`} {
		if strings.Contains(p.HTML, bad) {
			t.Fatalf("popup contains %q:\n%s", bad, p.HTML)
		}
	}
}

func TestPointFeatures(t *testing.T) {
	s := geo.MustParse(testPoints)
	pts, err := PointFeatures(s)
	if err != nil {
		t.Fatal(err)
	}
	if len(pts) != 2 {
		t.Fatalf("points=%d, want 2", len(pts))
	}
	first := pts[0]
	if first.Point != (orb.Point{13.38, 52.51}) || first.Upvotes != 3 || first.Downvotes != 1 || first.Comments != 7 {
		t.Fatalf("first=%+v", first)
	}
	if pts[1].CategoryIcon != "/media/icons/tree.svg" || pts[1].Image != "/media/park.jpg" {
		t.Fatalf("second=%+v", pts[1])
	}

	if _, err := PointFeatures(geo.MustParse(berlinBBox)); err == nil {
		t.Fatal("polygon accepted as point feature")
	}
	if pts, err := PointFeatures(nil); err != nil || len(pts) != 0 {
		t.Fatalf("nil shape: pts=%v err=%v", pts, err)
	}
}
