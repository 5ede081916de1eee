package content

import "encoding/json"

// Special element kinds emitted by the parser. Anything not listed here is a
// generic element whose Type is the lowercase tag name.
const (
	TypeInteractiveSection   = "interactive-section"
	TypeInteractiveStep      = "interactive-step"
	TypeInteractiveMultiStep = "interactive-multi-step"
	TypeCodeBlock            = "code-block"
	TypeExpandableTable      = "expandable-table"
	TypeImageRenderer        = "image-renderer"
	TypeVideo                = "video"
	TypeRawHTML              = "raw-html"
)

// ParsedElement is one node of the output tree.
//
// Props values are strings for plain attributes, bools for flag attributes
// (skippable), string slices for list attributes (requirements, objectives),
// and ints for numeric attributes that parsed cleanly. The `class` attribute
// is renamed `className`; data-* attributes keep their names and values
// verbatim.
//
// OriginalHTML always holds the node's verbatim source markup so a renderer
// can fall back to raw HTML when reconstruction fails.
type ParsedElement struct {
	Type         string         `json:"type"`
	Props        map[string]any `json:"props"`
	Children     []Node         `json:"children,omitempty"`
	OriginalHTML string         `json:"originalHTML"`
}

// Node is one child of a ParsedElement: either a nested element or a text
// run. Exactly one of the two fields is set.
type Node struct {
	Element *ParsedElement
	Text    string
}

// ElementNode wraps an element as a child node.
func ElementNode(el *ParsedElement) Node {
	return Node{Element: el}
}

// TextNode wraps a text run as a child node.
func TextNode(text string) Node {
	return Node{Text: text}
}

// IsText reports whether the node is a text run.
func (n Node) IsText() bool {
	return n.Element == nil
}

// MarshalJSON serializes elements as objects and text runs as bare JSON
// strings, matching the renderer's (ParsedElement | string)[] contract.
func (n Node) MarshalJSON() ([]byte, error) {
	if n.Element != nil {
		return json.Marshal(n.Element)
	}
	return json.Marshal(n.Text)
}

// UnmarshalJSON accepts either form.
func (n *Node) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		n.Element = nil
		return json.Unmarshal(data, &n.Text)
	}
	el := &ParsedElement{}
	if err := json.Unmarshal(data, el); err != nil {
		return err
	}
	n.Element = el
	n.Text = ""
	return nil
}
