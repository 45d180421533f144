// Package page models the host page the widgets live on: widget root
// elements carrying data attributes, form inputs, control elements with CSS
// classes, and the tab, click and readiness events the widgets react to.
//
// Document is single-threaded; callers serialize access.
package page

import (
	"maps"
	"slices"
	"sort"
)

// Element is a widget root element.
type Element struct {
	attrs   map[string]string
	width   int
	height  int
	mounted bool
}

// NewElement creates an element with the given data attributes and pixel
// size. A zero width means the element is hidden (e.g. in an inactive tab).
func NewElement(attrs map[string]string, width, height int) *Element {
	return &Element{attrs: maps.Clone(attrs), width: width, height: height}
}

// Attr returns an attribute value.
func (e *Element) Attr(name string) (string, bool) {
	v, ok := e.attrs[name]
	return v, ok
}

func (e *Element) Width() int  { return e.width }
func (e *Element) Height() int { return e.height }

// Resize changes the element's laid-out size.
func (e *Element) Resize(width, height int) {
	e.width, e.height = width, height
}

// Claim marks the element as initialised and reports whether this call
// did so. Re-running a page scan skips claimed elements.
func (e *Element) Claim() bool {
	if e.mounted {
		return false
	}
	e.mounted = true
	return true
}

// ClickEvent is passed to click handlers.
type ClickEvent struct {
	ID               string
	defaultPrevented bool
}

// PreventDefault suppresses the element's default navigation.
func (c *ClickEvent) PreventDefault() { c.defaultPrevented = true }

// DefaultPrevented reports whether a handler suppressed navigation.
func (c *ClickEvent) DefaultPrevented() bool { return c.defaultPrevented }

// Document is an in-memory host page.
type Document struct {
	elements []*Element
	values   map[string]string
	classes  map[string]map[string]bool
	tabShown []func()
	clicks   map[string][]func(*ClickEvent)
	ready    []func()
}

// NewDocument returns an empty page.
func NewDocument() *Document {
	return &Document{
		values:  make(map[string]string),
		classes: make(map[string]map[string]bool),
		clicks:  make(map[string][]func(*ClickEvent)),
	}
}

// Append adds a widget root element to the page.
func (d *Document) Append(el *Element) {
	d.elements = append(d.elements, el)
}

// Elements returns all widget root elements in document order.
func (d *Document) Elements() []*Element {
	return slices.Clone(d.elements)
}

// Query returns the elements whose attribute attr equals value, in
// document order.
func (d *Document) Query(attr, value string) []*Element {
	var out []*Element
	for _, el := range d.elements {
		if v, ok := el.Attr(attr); ok && v == value {
			out = append(out, el)
		}
	}
	return out
}

// SetValue sets the value of the input with the given id.
func (d *Document) SetValue(id, value string) {
	d.values[id] = value
}

// Value returns the value of the input with the given id.
func (d *Document) Value(id string) (string, bool) {
	v, ok := d.values[id]
	return v, ok
}

// Values returns a copy of all input values keyed by id.
func (d *Document) Values() map[string]string {
	return maps.Clone(d.values)
}

// AddClass adds a CSS class to the element with the given id.
func (d *Document) AddClass(id, class string) {
	if d.classes[id] == nil {
		d.classes[id] = make(map[string]bool)
	}
	d.classes[id][class] = true
}

// RemoveClass removes a CSS class from the element with the given id.
func (d *Document) RemoveClass(id, class string) {
	delete(d.classes[id], class)
}

// HasClass reports whether the element with the given id has class.
func (d *Document) HasClass(id, class string) bool {
	return d.classes[id][class]
}

// Classes returns the sorted classes of the element with the given id.
func (d *Document) Classes(id string) []string {
	out := make([]string, 0, len(d.classes[id]))
	for c := range d.classes[id] {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// OnTabShown registers fn for tab activation.
func (d *Document) OnTabShown(fn func()) {
	d.tabShown = append(d.tabShown, fn)
}

// ShowTab signals that a tab became visible.
func (d *Document) ShowTab() {
	for _, fn := range d.tabShown {
		fn()
	}
}

// OnClick registers fn for clicks on the element with the given id.
func (d *Document) OnClick(id string, fn func(*ClickEvent)) {
	d.clicks[id] = append(d.clicks[id], fn)
}

// Click dispatches a click on the element with the given id and returns
// the event so callers can see whether navigation was prevented.
func (d *Document) Click(id string) *ClickEvent {
	ev := &ClickEvent{ID: id}
	for _, fn := range d.clicks[id] {
		fn(ev)
	}
	return ev
}

// OnReady registers fn to run when the page (or an embed) becomes ready.
func (d *Document) OnReady(fn func()) {
	d.ready = append(d.ready, fn)
}

// Ready signals document readiness.
func (d *Document) Ready() {
	for _, fn := range d.ready {
		fn()
	}
}

// EmbedReady signals that embedded content finished loading. Widgets
// registered with OnReady scan the page again.
func (d *Document) EmbedReady() {
	d.Ready()
}
