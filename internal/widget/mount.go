package widget

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/joeblew999/plat-geo-widgets/internal/mapview"
	"github.com/joeblew999/plat-geo-widgets/internal/page"
)

// Host is a page that can be scanned for widget elements.
type Host interface {
	Page
	Query(attr, value string) []*page.Element
	OnReady(fn func())
}

// Mounted lists the widgets created by one scan.
type Mounted struct {
	Choosers []*PolygonChooser
	Viewers  []*PointMapViewer
}

// MountPolygonChoosers creates a chooser for every unclaimed choose_polygon
// element. A failing element does not stop the others; all failures are
// joined into the returned error.
func MountPolygonChoosers(h Host, f *mapview.Factory, logger *slog.Logger) ([]*PolygonChooser, error) {
	var (
		out  []*PolygonChooser
		errs []error
	)
	for i, el := range h.Query(AttrMap, KindChoosePolygon) {
		if !el.Claim() {
			continue
		}
		c, err := NewPolygonChooser(el, h, f, logger)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s #%d: %w", KindChoosePolygon, i, err))
			continue
		}
		out = append(out, c)
	}
	return out, errors.Join(errs...)
}

// MountPointMapViewers creates a viewer for every unclaimed display_points
// element.
func MountPointMapViewers(h Host, f *mapview.Factory, logger *slog.Logger) ([]*PointMapViewer, error) {
	var (
		out  []*PointMapViewer
		errs []error
	)
	for i, el := range h.Query(AttrMap, KindDisplayPoints) {
		if !el.Claim() {
			continue
		}
		v, err := NewPointMapViewer(el, h, f, logger)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s #%d: %w", KindDisplayPoints, i, err))
			continue
		}
		out = append(out, v)
	}
	return out, errors.Join(errs...)
}

// Mount scans the page once for both widget kinds.
func Mount(h Host, f *mapview.Factory, logger *slog.Logger) (Mounted, error) {
	if logger == nil {
		logger = slog.Default()
	}
	choosers, cerr := MountPolygonChoosers(h, f, logger)
	viewers, verr := MountPointMapViewers(h, f, logger)
	err := errors.Join(cerr, verr)
	if err != nil {
		logger.Warn("widget mount failures", "error", err)
	}
	return Mounted{Choosers: choosers, Viewers: viewers}, err
}

// MountOnReady scans the page on every readiness signal, including embeds
// that finish loading later. Elements already mounted are skipped. done,
// if non-nil, receives the result of each scan.
func MountOnReady(h Host, f *mapview.Factory, logger *slog.Logger, done func(Mounted, error)) {
	h.OnReady(func() {
		m, err := Mount(h, f, logger)
		if done != nil {
			done(m, err)
		}
	})
}
