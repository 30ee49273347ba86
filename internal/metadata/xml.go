package metadata

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// node is the in-progress state of an XML element while decoding.
type node struct {
	name     string
	attrs    []xml.Attr
	text     strings.Builder
	children int
	elem     *Element
}

// LoadXML decodes an XML document into an element tree rooted at the
// document element.
func LoadXML(r io.Reader) (*Element, error) {
	dec := xml.NewDecoder(r)
	var stack []*node
	var root *Element

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if len(stack) > 0 {
				stack[len(stack)-1].children++
			}
			n := &node{
				name:  t.Name.Local,
				attrs: append([]xml.Attr(nil), t.Attr...),
				elem:  NewElement(t.Name.Local),
			}
			for _, a := range t.Attr {
				n.elem.AddAttribute(a.Name.Local, a.Value)
			}
			stack = append(stack, n)

		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].text.Write(t)
			}

		case xml.EndElement:
			if len(stack) == 0 {
				return nil, fmt.Errorf("decode xml: unbalanced end element %q", t.Name.Local)
			}
			n := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			text := strings.TrimSpace(n.text.String())

			if len(stack) == 0 {
				if n.children == 0 && text != "" {
					n.elem.SetAttribute(n.name, text)
				}
				root = n.elem
				continue
			}

			parent := stack[len(stack)-1].elem
			switch {
			case n.children == 0 && len(n.attrs) == 0:
				// plain leaf
				parent.AddAttribute(n.name, text)
			case n.children == 0:
				n.elem.SetAttribute(n.name, text)
				parent.AddElement(n.elem)
			default:
				parent.AddElement(n.elem)
			}
		}
	}

	if root == nil {
		return nil, fmt.Errorf("decode xml: no document element")
	}
	return root, nil
}
