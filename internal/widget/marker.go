package widget

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/paulmach/orb"

	"github.com/joeblew999/plat-geo-widgets/internal/geo"
	"github.com/joeblew999/plat-geo-widgets/internal/mapview"
)

const (
	DefaultIconURL   = "/static/images/map_pin_default.svg"
	DefaultShadowURL = "/static/images/map_shadow_01.svg"

	PopupClassName = "maps-popups"
)

// DefaultIcon marks points without a category icon.
var DefaultIcon = mapview.Icon{
	URL:          DefaultIconURL,
	ShadowURL:    DefaultShadowURL,
	Size:         [2]int{30, 45},
	Anchor:       [2]int{15, 45},
	ShadowSize:   [2]int{40, 54},
	ShadowAnchor: [2]int{20, 54},
	PopupAnchor:  [2]int{0, 5},
}

// PointFeature is one marker's data.
type PointFeature struct {
	Point        orb.Point `json:"point" validate:"-"`
	Name         string    `json:"name"`
	URL          string    `json:"url"`
	Image        string    `json:"image,omitempty"`
	CategoryIcon string    `json:"categoryIcon,omitempty"`
	Upvotes      int       `json:"upvotes" validate:"min=0"`
	Downvotes    int       `json:"downvotes" validate:"min=0"`
	Comments     int       `json:"comments" validate:"min=0"`
}

// PointFeatures extracts point features from a shape. Features without a
// point geometry are rejected.
func PointFeatures(s *geo.Shape) ([]PointFeature, error) {
	var out []PointFeature
	for i, f := range s.Features() {
		p, ok := f.Geometry.(orb.Point)
		if !ok {
			return nil, fmt.Errorf("feature %d: expected Point geometry", i)
		}
		props := f.Properties
		out = append(out, PointFeature{
			Point:        p,
			Name:         props.MustString("name", ""),
			URL:          props.MustString("url", ""),
			Image:        props.MustString("image", ""),
			CategoryIcon: props.MustString("category_icon", ""),
			Upvotes:      props.MustInt("positive_rating_count", 0),
			Downvotes:    props.MustInt("negative_rating_count", 0),
			Comments:     props.MustInt("comments_count", 0),
		})
	}
	return out, nil
}

// IconFor picks the category icon when the feature has one, otherwise the
// default pin with its shadow.
func IconFor(f PointFeature) mapview.Icon {
	if f.CategoryIcon == "" {
		return DefaultIcon
	}
	return mapview.Icon{
		URL:         f.CategoryIcon,
		Size:        DefaultIcon.Size,
		Anchor:      DefaultIcon.Anchor,
		PopupAnchor: DefaultIcon.PopupAnchor,
	}
}

// popupTemplate relies on html/template's contextual escaping for every
// feature-sourced value, including the image URL inside the style attribute.
var popupTemplate = template.Must(template.New("popup").Parse(
	`{{if .Image}}<div class="maps-popups-popup-image" style="background-image:url({{.Image}});"></div>` +
		`{{else}}<div class="maps-popups-popup-image"></div>{{end}}` +
		`<div class="maps-popups-popup-meta">` +
		`<span class="map-popup-upvotes">{{.Upvotes}} <i class="fa fa-chevron-up" aria-hidden="true"></i></span>` +
		`<span class="map-popup-downvotes">{{.Downvotes}} <i class="fa fa-chevron-down" aria-hidden="true"></i></span>` +
		`<span class="map-popup-comments-count">{{.Comments}} <i class="fa fa-comment-o" aria-hidden="true"></i></span>` +
		`</div>` +
		`<div class="maps-popups-popup-name"><a href="{{.URL}}">{{.Name}}</a></div>`,
))

// RenderPopup builds the popup bound to a feature's marker.
func RenderPopup(f PointFeature) (mapview.Popup, error) {
	var buf bytes.Buffer
	if err := popupTemplate.Execute(&buf, f); err != nil {
		return mapview.Popup{}, fmt.Errorf("widget: rendering popup for %q: %w", f.Name, err)
	}
	return mapview.Popup{
		HTML:        buf.String(),
		ClassName:   PopupClassName,
		CloseButton: false,
	}, nil
}
