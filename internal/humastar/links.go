package humastar

import (
	"fmt"
	"path"
	"slices"
	"strings"

	"github.com/danielgtaylor/huma/v2"
)

// EntryPoint is the path that links to every collection.
const EntryPoint = "/health"

// Links holds RFC 8288 link headers generated from the OpenAPI document,
// keyed by operation path.
type Links struct {
	byPath map[string][]string
}

// AutoLinks walks the OpenAPI spec and generates hypermedia links between
// collections, items and the entry point. Operations tagged "editor"
// (Datastar SSE) are skipped. Call after all routes are registered.
func AutoLinks(api huma.API) *Links {
	oapi := api.OpenAPI()
	l := &Links{byPath: map[string][]string{}}

	var collections, items []string
	for p, pi := range oapi.Paths {
		if slices.Contains(primaryTags(pi), "editor") {
			continue
		}
		if strings.Contains(p, "{") {
			items = append(items, p)
		} else {
			collections = append(collections, p)
		}
	}
	slices.Sort(collections)
	slices.Sort(items)

	// Item → collection.
	for _, item := range items {
		parent := path.Dir(item)
		if _, ok := oapi.Paths[parent]; ok {
			l.add(item, parent, "collection")
			l.add(item, parent, "up")
		}
	}

	for _, coll := range collections {
		// Collection → item template.
		for _, item := range items {
			if path.Dir(item) == coll {
				l.add(coll, item, "item")
			}
		}
		if coll == EntryPoint {
			continue
		}
		l.add(coll, EntryPoint, "up")
		l.add(EntryPoint, coll, lastSegment(coll))
		if oapi.Paths[coll].Post != nil {
			l.add(coll, coll, "create-form")
		}
	}

	// Sub-resources (e.g. /pages/{id}/embeds) link back to their item.
	for _, item := range items {
		parent := path.Dir(item)
		if strings.HasSuffix(parent, "}") {
			if _, ok := oapi.Paths[parent]; ok {
				l.add(item, parent, "up")
			}
		}
	}

	l.add(EntryPoint, "/openapi.json", "describedby")
	l.add(EntryPoint, "/openapi.json", "service-desc")
	l.add(EntryPoint, "/docs", "service-doc")

	for _, p := range append(collections, items...) {
		if ref := responseSchemaRef(oapi.Paths[p]); ref != "" {
			l.add(p, "/openapi.json#/components/schemas/"+ref, "describedby")
		}
	}

	// Document the relationships in the OpenAPI document itself.
	for p, pi := range oapi.Paths {
		headers, ok := l.byPath[p]
		if !ok {
			continue
		}
		for _, op := range operationsOf(pi) {
			if op != nil {
				injectResponseLinks(op, headers)
			}
		}
	}
	return l
}

// For returns the link headers generated for an operation path.
func (l *Links) For(opPath string) []string {
	if l == nil {
		return nil
	}
	return l.byPath[opPath]
}

// Root returns the entry point's links, for non-Huma handlers.
func (l *Links) Root() []string {
	return l.For(EntryPoint)
}

// Transformer returns [Links.Transform] as a Huma Transformer.
func (l *Links) Transformer() huma.Transformer {
	return l.Transform
}

// Transform writes the generated links, a self link on item endpoints,
// pagination links and action links.
func (l *Links) Transform(ctx huma.Context, status string, v any) (any, error) {
	op := ctx.Operation()
	if op == nil {
		return v, nil
	}
	for _, link := range l.For(op.Path) {
		ctx.AppendHeader("Link", link)
	}
	if strings.Contains(op.Path, "{") {
		ctx.AppendHeader("Link", fmt.Sprintf(`<%s>; rel="self"`, ctx.URL().Path))
	}
	if p, ok := v.(Pager); ok {
		for _, link := range p.PaginationLinks(ctx.URL().Path) {
			ctx.AppendHeader("Link", link)
		}
	}
	if a, ok := v.(Actor); ok {
		for _, action := range a.Actions() {
			ctx.AppendHeader("Link", action.LinkHeader())
		}
	}
	return v, nil
}

func (l *Links) add(from, to, rel string) {
	val := fmt.Sprintf(`<%s>; rel="%s"`, to, rel)
	if !slices.Contains(l.byPath[from], val) {
		l.byPath[from] = append(l.byPath[from], val)
	}
}

func primaryTags(pi *huma.PathItem) []string {
	for _, op := range operationsOf(pi) {
		if op != nil && len(op.Tags) > 0 {
			return op.Tags
		}
	}
	return nil
}

func operationsOf(pi *huma.PathItem) []*huma.Operation {
	return []*huma.Operation{pi.Get, pi.Post, pi.Put, pi.Patch, pi.Delete}
}

func lastSegment(p string) string {
	parts := strings.Split(strings.TrimRight(p, "/"), "/")
	return parts[len(parts)-1]
}

func injectResponseLinks(op *huma.Operation, headers []string) {
	if op.Responses == nil {
		return
	}
	var resp *huma.Response
	for code, r := range op.Responses {
		if strings.HasPrefix(code, "2") {
			resp = r
			break
		}
	}
	if resp == nil {
		return
	}
	if resp.Links == nil {
		resp.Links = map[string]*huma.Link{}
	}
	for _, h := range headers {
		rel, href := parseLinkHeader(h)
		if rel == "" {
			continue
		}
		resp.Links[rel] = &huma.Link{
			OperationRef: href,
			Description:  fmt.Sprintf("Related: %s", rel),
		}
	}
}

func responseSchemaRef(pi *huma.PathItem) string {
	if pi == nil || pi.Get == nil || pi.Get.Responses == nil {
		return ""
	}
	for code, resp := range pi.Get.Responses {
		if !strings.HasPrefix(code, "2") || resp.Content == nil {
			continue
		}
		for _, mt := range resp.Content {
			if mt.Schema != nil && mt.Schema.Ref != "" {
				// "#/components/schemas/Foo" → "Foo"
				return lastSegment(mt.Schema.Ref)
			}
		}
	}
	return ""
}

func parseLinkHeader(h string) (rel, href string) {
	parts := strings.SplitN(h, ";", 2)
	if len(parts) < 2 {
		return "", ""
	}
	href = strings.Trim(strings.TrimSpace(parts[0]), "<>")
	relPart := strings.TrimSpace(parts[1])
	if strings.HasPrefix(relPart, `rel="`) {
		rel = strings.Trim(relPart[4:], `"`)
	}
	return rel, href
}
