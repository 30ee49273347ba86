// Package metadata holds the vendor metadata tree: a hierarchy of named
// elements carrying string-valued attributes with typed accessors.
//
// The tree is shaped the way the product reader expects it: a leaf XML node
// without XML attributes becomes an attribute of its parent, while a leaf with
// XML attributes (typically "units") becomes a child element that carries its
// own text under an attribute of the same name. Lookup hides that difference.
package metadata

import (
	"strconv"
	"strings"
	"time"
)

// Attribute is a single named value. Values are kept in their vendor text
// form and converted on access.
type Attribute struct {
	Name  string
	Value string
}

// Element is a node of the vendor metadata tree.
//
// All accessors are nil-safe: a nil *Element behaves as an empty element, so
// a missing section yields defaults instead of a panic.
type Element struct {
	Name       string
	attributes []*Attribute
	elements   []*Element
}

// NewElement creates an empty element.
func NewElement(name string) *Element {
	return &Element{Name: name}
}

// AddElement appends a child element.
func (e *Element) AddElement(child *Element) {
	if e == nil || child == nil {
		return
	}
	e.elements = append(e.elements, child)
}

// SetAttribute sets the first attribute with the given name, appending a new
// one if none exists.
func (e *Element) SetAttribute(name, value string) {
	if e == nil {
		return
	}
	for _, a := range e.attributes {
		if a.Name == name {
			a.Value = value
			return
		}
	}
	e.attributes = append(e.attributes, &Attribute{Name: name, Value: value})
}

// AddAttribute appends an attribute even if one with the same name exists.
func (e *Element) AddAttribute(name, value string) {
	if e == nil {
		return
	}
	e.attributes = append(e.attributes, &Attribute{Name: name, Value: value})
}

// SetDoubles stores a numeric array as a space-delimited attribute.
func (e *Element) SetDoubles(name string, values []float64) {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	e.SetAttribute(name, strings.Join(parts, " "))
}

// Elements returns the child elements in document order.
func (e *Element) Elements() []*Element {
	if e == nil {
		return nil
	}
	return e.elements
}

// Attributes returns the attributes in document order.
func (e *Element) Attributes() []*Attribute {
	if e == nil {
		return nil
	}
	return e.attributes
}

// Element returns the first child element with the given name, or nil.
func (e *Element) Element(name string) *Element {
	if e == nil {
		return nil
	}
	for _, c := range e.elements {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// ElementsNamed returns every child element whose name matches
// case-insensitively.
func (e *Element) ElementsNamed(name string) []*Element {
	if e == nil {
		return nil
	}
	var out []*Element
	for _, c := range e.elements {
		if strings.EqualFold(c.Name, name) {
			out = append(out, c)
		}
	}
	return out
}

// Attribute returns the first attribute with the given name.
func (e *Element) Attribute(name string) (*Attribute, bool) {
	if e == nil {
		return nil, false
	}
	for _, a := range e.attributes {
		if a.Name == name {
			return a, true
		}
	}
	return nil, false
}

// Lookup finds a value either as an attribute of e or as the same-named
// attribute of the same-named child element.
func (e *Element) Lookup(name string) (string, bool) {
	if a, ok := e.Attribute(name); ok {
		return a.Value, true
	}
	if child := e.Element(name); child != nil {
		if a, ok := child.Attribute(name); ok {
			return a.Value, true
		}
	}
	return "", false
}

// Has reports whether Lookup would find a value.
func (e *Element) Has(name string) bool {
	_, ok := e.Lookup(name)
	return ok
}

// AttributeString returns the trimmed value or def when absent.
func (e *Element) AttributeString(name, def string) string {
	v, ok := e.Lookup(name)
	if !ok {
		return def
	}
	return strings.TrimSpace(v)
}

// AttributeInt returns the value as an int, or def when absent or not an
// integer.
func (e *Element) AttributeInt(name string, def int) int {
	v, ok := e.Lookup(name)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return n
}

// AttributeDouble returns the value as a float64, or def when absent or not
// numeric.
func (e *Element) AttributeDouble(name string, def float64) float64 {
	v, ok := e.Lookup(name)
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return def
	}
	return f
}

// AttributeTime returns the value parsed with ParseTime, or def when absent
// or unparsable.
func (e *Element) AttributeTime(name string, def time.Time) time.Time {
	v, ok := e.Lookup(name)
	if !ok {
		return def
	}
	t, err := ParseTime(v)
	if err != nil {
		return def
	}
	return t
}

var timeLayouts = []string{
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z",
	"2006-01-02T15:04:05.999999999Z",
}

// ParseTime parses vendor UTC timestamps of the form
// "yyyy-MM-dd HH:mm:ss[.ffffff]" (a 'T' separator and trailing 'Z' are also
// accepted).
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	var lastErr error
	for _, layout := range timeLayouts {
		t, err := time.ParseInLocation(layout, s, time.UTC)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
