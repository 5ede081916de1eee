package content

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"guidepost/internal/trust"
)

// applyFrameRules re-parses sanitized markup and rewrites every iframe:
//
//   - no usable src: the element is removed
//   - src on an allow-listed video host: kept, enablejsapi=1 appended to the
//     query, referrerpolicy forced to no-referrer
//   - anything else: kept but fully sandboxed (sandbox="") with
//     referrerpolicy no-referrer
//
// srcdoc is stripped in every branch.
func (s *Sanitizer) applyFrameRules(input string) string {
	if input == "" {
		return ""
	}

	nodes, err := parseFragment(input)
	if err != nil {
		return ""
	}

	root := newFragmentRoot(nodes)
	s.transformFrames(root)
	return renderChildren(root)
}

func (s *Sanitizer) transformFrames(n *html.Node) {
	var next *html.Node
	for child := n.FirstChild; child != nil; child = next {
		next = child.NextSibling
		if child.Type == html.ElementNode && child.DataAtom == atom.Iframe {
			if !s.rewriteFrame(child) {
				n.RemoveChild(child)
				continue
			}
		}
		s.transformFrames(child)
	}
}

// rewriteFrame hardens a single iframe in place. Returns false when the
// element must be dropped instead.
func (s *Sanitizer) rewriteFrame(frame *html.Node) bool {
	src, ok := getAttr(frame, "src")
	if !ok || strings.TrimSpace(src) == "" {
		return false
	}

	removeAttr(frame, "srcdoc")
	setAttr(frame, "referrerpolicy", "no-referrer")

	if s.validator.IsYouTubeURL(src) {
		setAttr(frame, "src", withJSAPIEnabled(src))
		return true
	}

	setAttr(frame, "sandbox", "")
	return true
}

// withJSAPIEnabled appends enablejsapi=1 to the embed URL so the host player
// controls work, preserving existing query parameters.
func withJSAPIEnabled(src string) string {
	u := trust.ParseURL(src)
	if u == nil {
		return src
	}
	q := u.Query()
	if q.Get("enablejsapi") == "" {
		q.Set("enablejsapi", "1")
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// parseFragment parses markup in a div context so fragments keep their own
// shape instead of being promoted into an implicit html/body document.
func parseFragment(input string) ([]*html.Node, error) {
	ctx := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	return html.ParseFragment(strings.NewReader(input), ctx)
}

// newFragmentRoot reattaches parsed fragment nodes under a synthetic root
// container for walking and re-rendering.
func newFragmentRoot(nodes []*html.Node) *html.Node {
	root := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	for _, n := range nodes {
		root.AppendChild(n)
	}
	return root
}
