// Copyright 2019 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package xmltree is a minimal read-only element tree for configuration
// documents.  Rule evaluation only needs element names, attributes, and
// first-child / next-sibling traversal, so that is all it exposes.
package xmltree

import (
	"encoding/xml"
	"io"
	"strings"

	"github.com/pkg/errors"
)

// Attr is a single element attribute.
type Attr struct {
	Name  string
	Value string
}

// Node is one element of a configuration tree.  All accessors are safe to
// call on a nil *Node.
type Node struct {
	Name string

	attrs    []Attr
	children []*Node
	parent   *Node
	index    int
	text     string
}

// New creates a detached element.  attrs are name/value pairs; a trailing
// unpaired name is ignored.
func New(name string, attrs ...string) *Node {
	n := &Node{Name: name}
	for i := 0; i+1 < len(attrs); i += 2 {
		n.attrs = append(n.attrs, Attr{Name: attrs[i], Value: attrs[i+1]})
	}
	return n
}

// Append adds children to n and returns n.
func (n *Node) Append(children ...*Node) *Node {
	for _, c := range children {
		c.parent = n
		c.index = len(n.children)
		n.children = append(n.children, c)
	}
	return n
}

// Parse reads a single XML document.
func Parse(r io.Reader) (*Node, error) {
	d := xml.NewDecoder(r)
	var root, cur *Node

	for {
		tok, err := d.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "cannot parse XML")
		}

		switch t := tok.(type) {
		case xml.StartElement:
			n := &Node{Name: t.Name.Local}
			for _, a := range t.Attr {
				n.attrs = append(n.attrs, Attr{Name: a.Name.Local, Value: a.Value})
			}
			if cur == nil {
				if root != nil {
					return nil, errors.New("cannot parse XML: multiple root elements")
				}
				root = n
			} else {
				cur.Append(n)
			}
			cur = n

		case xml.EndElement:
			cur = cur.parent

		case xml.CharData:
			if cur != nil {
				cur.text += string(t)
			}
		}
	}

	if root == nil {
		return nil, errors.New("cannot parse XML: no root element")
	}
	return root, nil
}

// ParseString is Parse for an in-memory document.
func ParseString(s string) (*Node, error) {
	return Parse(strings.NewReader(s))
}

// Is reports whether n is an element named name.
func (n *Node) Is(name string) bool {
	return n != nil && n.Name == name
}

// Attr returns the value of the named attribute and whether it is present.
func (n *Node) Attr(name string) (string, bool) {
	if n == nil {
		return "", false
	}
	for _, a := range n.attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// AttrOr returns the named attribute, or def when it is absent.
func (n *Node) AttrOr(name, def string) string {
	if v, ok := n.Attr(name); ok {
		return v
	}
	return def
}

// Attrs returns a copy of n's attributes in document order.
func (n *Node) Attrs() []Attr {
	if n == nil {
		return nil
	}
	return append([]Attr(nil), n.attrs...)
}

// ID returns the id attribute, or "" when there is none.
func (n *Node) ID() string {
	return n.AttrOr("id", "")
}

// Content returns the character data directly inside n, trimmed.
func (n *Node) Content() string {
	if n == nil {
		return ""
	}
	return strings.TrimSpace(n.text)
}

// Parent returns the enclosing element, or nil for a root.
func (n *Node) Parent() *Node {
	if n == nil {
		return nil
	}
	return n.parent
}

// Children returns n's child elements in document order.
func (n *Node) Children() []*Node {
	if n == nil {
		return nil
	}
	return n.children
}

// FirstChild returns the first child element named name, or the first child
// of any name when name is empty.
func (n *Node) FirstChild(name string) *Node {
	if n == nil {
		return nil
	}
	for _, c := range n.children {
		if name == "" || c.Name == name {
			return c
		}
	}
	return nil
}

// NextSame returns the next sibling with the same element name as n.
func (n *Node) NextSame() *Node {
	if n == nil || n.parent == nil {
		return nil
	}
	siblings := n.parent.children
	for i := n.index + 1; i < len(siblings); i++ {
		if siblings[i].Name == n.Name {
			return siblings[i]
		}
	}
	return nil
}

// LoggableParentID names n's parent for diagnostics.  It never returns "".
func LoggableParentID(n *Node) string {
	if n == nil || n.parent == nil {
		return "implied"
	}
	if id := n.parent.ID(); id != "" {
		return id
	}
	return "without ID"
}
