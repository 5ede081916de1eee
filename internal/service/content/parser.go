package content

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	contentModels "guidepost/internal/domain/models/content"
	"guidepost/internal/trust"
)

// Parser converts sanitized HTML into the typed element tree the renderer
// consumes. It recognizes images, code blocks, expandable tables,
// interactive sections/steps, tab groups, and video embeds; everything else
// becomes a generic element. The walk is a single depth-first, left-to-right
// pass, so document order is preserved and the content flags are computed
// without re-scanning the tree.
//
// Parse is fail-fast: a trust-gate rejection or a structural failure yields
// isValid=false with the full error list instead of a partial tree. The
// input is assumed to be sanitized already; Parse does not re-sanitize.
type Parser struct {
	validator *trust.Validator
}

// NewParser builds a parser bound to a trust validator. The validator is the
// only shared state; each Parse call is otherwise independent, so parsing
// the same input twice yields structurally identical trees.
func NewParser(validator *trust.Validator) *Parser {
	return &Parser{validator: validator}
}

// Parse walks the input and builds the result envelope.
func (p *Parser) Parse(input string, opts contentModels.ParseOptions) (result *contentModels.ContentParseResult) {
	defer func() {
		if r := recover(); r != nil {
			result = contentModels.InvalidResult([]contentModels.ParseError{{
				Type:    contentModels.ErrorTypeParsing,
				Message: fmt.Sprintf("document parsing failed: %v", r),
			}}, nil)
		}
	}()

	w := &walker{
		validator: p.validator,
		opts:      opts,
		// The admission table runs once per call and is never cached
		// across calls.
		admitted: p.validator.Evaluate(opts.BaseURL, opts.BypassTrustCheck).Admitted(),
	}

	nodes, err := parseFragment(input)
	if err != nil {
		return contentModels.InvalidResult([]contentModels.ParseError{{
			Type:    contentModels.ErrorTypeParsing,
			Message: fmt.Sprintf("document parsing failed: %v", err),
		}}, nil)
	}
	root := newFragmentRoot(nodes)

	var elements []*contentModels.ParsedElement
	for child := root.FirstChild; child != nil; child = child.NextSibling {
		if child.Type != html.ElementNode {
			continue
		}
		if el := w.walkElement(child, false); el != nil {
			elements = append(elements, el)
		}
	}

	if len(w.errors) > 0 {
		return contentModels.InvalidResult(w.errors, w.warnings)
	}

	// A document that produced nothing structured is passed through as one
	// raw-html node. This is the only case where unparsed markup survives,
	// and it is not an error.
	if len(elements) == 0 {
		elements = []*contentModels.ParsedElement{{
			Type:         contentModels.TypeRawHTML,
			Props:        map[string]any{},
			OriginalHTML: input,
		}}
	}

	data := &contentModels.ParsedContent{
		Elements:               elements,
		HasInteractiveElements: w.hasInteractive,
		HasCodeBlocks:          w.hasCodeBlocks,
		HasExpandableTables:    w.hasTables,
		HasImages:              w.hasImages,
	}
	return contentModels.ValidResult(data, w.warnings)
}

// walker holds the per-call state of one parse: the admission verdict, the
// content flags, and the collected errors and warnings.
type walker struct {
	validator *trust.Validator
	opts      contentModels.ParseOptions
	admitted  bool

	hasInteractive bool
	hasCodeBlocks  bool
	hasTables      bool
	hasImages      bool

	errors   []contentModels.ParseError
	warnings []contentModels.ParseWarning
}

func (w *walker) addError(typ, message, location string) {
	w.errors = append(w.errors, contentModels.ParseError{
		Type:     typ,
		Message:  message,
		Location: location,
	})
}

func (w *walker) addWarning(typ, message, location string) {
	w.warnings = append(w.warnings, contentModels.ParseWarning{
		Type:     typ,
		Message:  message,
		Location: location,
	})
}

// walkElement dispatches one element through the ordered recognition table.
// Interactive markup is gated before any handler sees it; a rejection
// records a fatal error and skips the element, but the walk continues so
// every violation in the document is reported.
func (w *walker) walkElement(n *html.Node, inPre bool) *contentModels.ParsedElement {
	if isInteractiveNode(n) && !w.admitted {
		w.addError(contentModels.ErrorTypeSanitization,
			"Interactive content from untrusted source rejected", describeNode(n))
		return nil
	}

	for _, h := range elementHandlers {
		if h.match(w, n) {
			return h.build(w, n, inPre)
		}
	}
	return buildGeneric(w, n, inPre)
}

// walkChildren converts a node's children in document order. Whitespace-only
// text is dropped unless the walk is inside a pre/code context, where text
// is preserved verbatim.
func (w *walker) walkChildren(n *html.Node, inPre bool) []contentModels.Node {
	var children []contentModels.Node
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		switch child.Type {
		case html.TextNode:
			if !inPre && strings.TrimSpace(child.Data) == "" {
				continue
			}
			children = append(children, contentModels.TextNode(child.Data))
		case html.ElementNode:
			if el := w.walkElement(child, inPre); el != nil {
				children = append(children, contentModels.ElementNode(el))
			}
		}
	}
	return children
}

func buildGeneric(w *walker, n *html.Node, inPre bool) *contentModels.ParsedElement {
	el := &contentModels.ParsedElement{
		Type:         strings.ToLower(n.Data),
		Props:        baseProps(n),
		OriginalHTML: renderNode(n),
	}
	// Void elements never carry children.
	if isVoidElement(n.Data) {
		return el
	}
	childPre := inPre || n.DataAtom == atom.Pre || n.DataAtom == atom.Code
	el.Children = w.walkChildren(n, childPre)
	return el
}

// baseProps copies every attribute into the props map, renaming class to
// className for the host framework. data-* attributes keep their names and
// values untouched.
func baseProps(n *html.Node) map[string]any {
	props := make(map[string]any, len(n.Attr))
	for _, attr := range n.Attr {
		key := attr.Key
		if key == "class" {
			key = "className"
		}
		props[key] = attr.Val
	}
	return props
}

// describeNode builds a short location hint like "li.interactive" or
// "div#install".
func describeNode(n *html.Node) string {
	desc := strings.ToLower(n.Data)
	if id, ok := getAttr(n, "id"); ok && id != "" {
		return desc + "#" + id
	}
	if classes := classList(n); len(classes) > 0 {
		return desc + "." + classes[0]
	}
	return desc
}
