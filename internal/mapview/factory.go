package mapview

import (
	"strconv"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/joeblew999/plat-geo-widgets/internal/geo"
)

// DefaultMaxZoom is the highest zoom the base tile layer serves.
const DefaultMaxZoom = 18

// DefaultAttribution credits OpenStreetMap when no attribution is configured.
const DefaultAttribution = `&copy; <a href="http://openstreetmap.org/copyright">OpenStreetMap</a> contributors`

// attributionPolicy keeps plain links and drops every other tag from
// attribution HTML.
var attributionPolicy = func() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowAttrs("href").OnElements("a")
	p.AllowURLSchemes("http", "https")
	p.RequireParseableURLs(true)
	return p
}()

// SanitizeAttribution strips attribution HTML down to text and links.
func SanitizeAttribution(html string) string {
	return attributionPolicy.Sanitize(html)
}

// Factory builds maps with the shared widget defaults.
type Factory struct {
	Engine Engine
	// Style is the site-wide polygon style; the zero value selects
	// geo.PolygonStyle.
	Style geo.Style
}

// PolygonStyle returns the style widgets render polygons with.
func (f *Factory) PolygonStyle() geo.Style {
	if f.Style.Color == "" {
		return geo.PolygonStyle
	}
	return f.Style
}

// NewFactory returns a factory backed by engine.
func NewFactory(engine Engine) *Factory {
	return &Factory{Engine: engine}
}

// MapConfig is the per-call input to Factory.New.
type MapConfig struct {
	BaseURL     string
	Attribution string
	MinZoom     int
	ZoomControl bool
}

// New creates a map in c with a tile layer attached and scroll-wheel zoom
// disabled. Malformed URLs are not checked here; attribution HTML is
// sanitized.
func (f *Factory) New(c Container, cfg MapConfig) Map {
	m := f.Engine.NewMap(c, Options{
		MinZoom:         cfg.MinZoom,
		MaxZoom:         DefaultMaxZoom,
		ScrollWheelZoom: false,
		ZoomControl:     cfg.ZoomControl,
	})

	attribution := cfg.Attribution
	if attribution == "" {
		attribution = DefaultAttribution
	}
	m.AddTileLayer(TileLayer{
		URLTemplate: TileTemplate(cfg.BaseURL),
		MaxZoom:     DefaultMaxZoom,
		Attribution: SanitizeAttribution(attribution),
	})
	return m
}

// TileTemplate appends the z/x/y path pattern to a tile server base URL.
func TileTemplate(baseURL string) string {
	return baseURL + "{z}/{x}/{y}.png"
}

// TileURL expands a tile URL template for a single tile.
func TileURL(template string, z, x, y uint32) string {
	r := strings.NewReplacer(
		"{z}", strconv.FormatUint(uint64(z), 10),
		"{x}", strconv.FormatUint(uint64(x), 10),
		"{y}", strconv.FormatUint(uint64(y), 10),
	)
	return r.Replace(template)
}
