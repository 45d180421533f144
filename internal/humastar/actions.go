package humastar

import "fmt"

// Action is a state-dependent hypermedia action link. Response bodies
// implement Actor to emit RFC 8288 Link headers with method, title and
// schema extension parameters:
//
//	</api/v1/pages/42>; rel="delete"; method="DELETE"; title="Discard page"
type Action struct {
	Rel    string // IANA rel or custom (e.g. "embed", "delete")
	Href   string
	Method string
	Title  string
	Schema string // JSON Schema URL for the request body
}

// Actor is implemented by response bodies that provide state-dependent actions.
type Actor interface {
	Actions() []Action
}

// LinkHeader formats the action as a Link header value.
func (a Action) LinkHeader() string {
	h := fmt.Sprintf(`<%s>; rel="%s"`, a.Href, a.Rel)
	if a.Method != "" {
		h += fmt.Sprintf(`; method="%s"`, a.Method)
	}
	if a.Title != "" {
		h += fmt.Sprintf(`; title="%s"`, a.Title)
	}
	if a.Schema != "" {
		h += fmt.Sprintf(`; schema="%s"`, a.Schema)
	}
	return h
}

// ActionDef is a reusable action template. Pattern holds a single %s verb
// for the resource ID.
type ActionDef struct {
	Rel     string
	Pattern string // e.g. "/api/v1/pages/%s/embeds"
	Method  string
	Title   string
	Schema  string
}

// ActionsFor expands defs for one resource ID.
func ActionsFor(id string, defs []ActionDef) []Action {
	actions := make([]Action, len(defs))
	for i, d := range defs {
		actions[i] = Action{
			Rel:    d.Rel,
			Href:   fmt.Sprintf(d.Pattern, id),
			Method: d.Method,
			Title:  d.Title,
			Schema: d.Schema,
		}
	}
	return actions
}
