package content

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	contentModels "guidepost/internal/domain/models/content"
)

// Class markers and data attributes the recognition rules key off.
const (
	interactiveMarker     = "interactive"
	expandableTableMarker = "expandable-table"
	tabsBarMarker         = "tabs-bar"
	tabContentMarker      = "tab-content"

	actionSequence  = "sequence"
	actionMultiStep = "multistep"

	attrTargetAction = "data-targetaction"
	attrRefTarget    = "data-reftarget"
	attrTargetValue  = "data-targetvalue"
	attrRequirements = "data-requirements"
	attrObjectives   = "data-objectives"
	attrHint         = "data-hint"
	attrSkippable    = "data-skippable"

	defaultSectionTitle = "Interactive Section"
)

// Class markers that make a <pre> a code block even without a language-*
// class. Covers the syntax highlighters the documentation sites emit.
var codeBlockClasses = []string{"code-block", "highlight", "chroma", "prettyprint"}

// elementHandler is one row of the recognition table.
type elementHandler struct {
	kind  string
	match func(*walker, *html.Node) bool
	build func(*walker, *html.Node, bool) *contentModels.ParsedElement
}

// elementHandlers is the ordered recognition table. Order is part of the
// contract: the first matching row decides the element's kind, so a <pre>
// inside an expandable-table wrapper stays a code block only when walked on
// its own, and an interactive <li> can never double as a generic list item.
// Populated in init to break the initialization cycle through buildTabGroup,
// whose body walks children back through the table.
var elementHandlers []elementHandler

func init() {
	elementHandlers = []elementHandler{
		{contentModels.TypeImageRenderer, matchImage, buildImage},
		{contentModels.TypeCodeBlock, matchCodeBlock, buildCodeBlock},
		{contentModels.TypeExpandableTable, matchExpandableTable, buildExpandableTable},
		{contentModels.TypeInteractiveSection, matchInteractiveSection, buildInteractiveSection},
		{contentModels.TypeInteractiveMultiStep, matchInteractiveMultiStep, buildInteractiveMultiStep},
		{contentModels.TypeInteractiveStep, matchInteractiveStep, buildInteractiveStep},
		{"tab-group", matchTabGroup, buildTabGroup},
		{contentModels.TypeVideo, matchVideo, buildVideo},
	}
}

func isInteractiveNode(n *html.Node) bool {
	if n.Type != html.ElementNode || !hasClass(n, interactiveMarker) {
		return false
	}
	return interactiveAction(n) != ""
}

func interactiveAction(n *html.Node) string {
	action, _ := getAttr(n, attrTargetAction)
	return strings.TrimSpace(action)
}

func matchImage(_ *walker, n *html.Node) bool {
	return n.DataAtom == atom.Img
}

func buildImage(w *walker, n *html.Node, _ bool) *contentModels.ParsedElement {
	props := baseProps(n)

	src, _ := getAttr(n, "src")
	if strings.TrimSpace(src) == "" {
		if dataSrc, ok := getAttr(n, "data-src"); ok {
			src = dataSrc
		}
	}
	props["src"] = src
	if alt, ok := getAttr(n, "alt"); ok {
		props["alt"] = alt
	}
	w.liftDimension(n, props, "width")
	w.liftDimension(n, props, "height")
	if w.opts.BaseURL != "" {
		props["baseUrl"] = w.opts.BaseURL
	}

	w.hasImages = true
	return &contentModels.ParsedElement{
		Type:         contentModels.TypeImageRenderer,
		Props:        props,
		OriginalHTML: renderNode(n),
	}
}

// liftDimension converts a numeric attribute to an int prop. A value that
// does not parse is recorded as a warning and passed through as a raw
// string.
func (w *walker) liftDimension(n *html.Node, props map[string]any, name string) {
	raw, ok := getAttr(n, name)
	if !ok || raw == "" {
		return
	}
	v, err := strconv.Atoi(strings.TrimSuffix(raw, "px"))
	if err != nil {
		w.addWarning(contentModels.WarningTypeAttribute,
			fmt.Sprintf("attribute %s=%q is not numeric, passed through as-is", name, raw),
			describeNode(n))
		props[name] = raw
		return
	}
	props[name] = v
}

func matchCodeBlock(_ *walker, n *html.Node) bool {
	if n.DataAtom != atom.Pre {
		return false
	}
	for _, class := range classList(n) {
		if strings.HasPrefix(class, "language-") {
			return true
		}
		for _, marker := range codeBlockClasses {
			if class == marker {
				return true
			}
		}
	}
	return false
}

func buildCodeBlock(w *walker, n *html.Node, _ bool) *contentModels.ParsedElement {
	props := baseProps(n)

	source := n
	if nested := findFirst(n, atom.Code); nested != nil {
		source = nested
	}
	props["code"] = collectText(source)
	if lang := codeLanguage(n, source); lang != "" {
		props["language"] = lang
	}

	w.hasCodeBlocks = true
	return &contentModels.ParsedElement{
		Type:         contentModels.TypeCodeBlock,
		Props:        props,
		OriginalHTML: renderNode(n),
	}
}

// codeLanguage extracts X from the first language-X class on the pre or its
// nested code element.
func codeLanguage(pre, code *html.Node) string {
	for _, n := range []*html.Node{pre, code} {
		for _, class := range classList(n) {
			if lang, ok := strings.CutPrefix(class, "language-"); ok && lang != "" {
				return lang
			}
		}
	}
	return ""
}

func matchExpandableTable(_ *walker, n *html.Node) bool {
	return n.DataAtom == atom.Div && hasClass(n, expandableTableMarker)
}

func buildExpandableTable(w *walker, n *html.Node, _ bool) *contentModels.ParsedElement {
	props := baseProps(n)
	if table := findFirst(n, atom.Table); table != nil {
		props["tableHTML"] = renderNode(table)
	} else {
		props["tableHTML"] = renderChildren(n)
	}

	w.hasTables = true
	return &contentModels.ParsedElement{
		Type:         contentModels.TypeExpandableTable,
		Props:        props,
		OriginalHTML: renderNode(n),
	}
}

func matchInteractiveSection(_ *walker, n *html.Node) bool {
	return isInteractiveNode(n) && interactiveAction(n) == actionSequence
}

func buildInteractiveSection(w *walker, n *html.Node, _ bool) *contentModels.ParsedElement {
	props := baseProps(n)
	props["title"] = sectionTitle(n)
	w.liftInteractiveProps(n, props)

	el := &contentModels.ParsedElement{
		Type:         contentModels.TypeInteractiveSection,
		Props:        props,
		OriginalHTML: renderNode(n),
	}
	el.Children = w.collectSteps(n)

	w.hasInteractive = true
	return el
}

// sectionTitle takes the first heading descendant's text; sections without a
// heading get the default title.
func sectionTitle(n *html.Node) string {
	heading := findFirstOf(n, atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6)
	if heading == nil {
		return defaultSectionTitle
	}
	title := strings.TrimSpace(collectText(heading))
	if title == "" {
		return defaultSectionTitle
	}
	return title
}

// collectSteps gathers a section's children: every descendant list item that
// is itself interactive becomes a step (or multi-step), and a nested
// sequence becomes a full child section rather than being flattened into the
// outer one. Descent stops at each harvested node so a step's internals are
// not collected twice.
func (w *walker) collectSteps(section *html.Node) []contentModels.Node {
	var steps []contentModels.Node
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			if child.Type != html.ElementNode {
				continue
			}
			if isInteractiveNode(child) {
				action := interactiveAction(child)
				switch {
				case action == actionSequence:
					steps = append(steps, contentModels.ElementNode(buildInteractiveSection(w, child, false)))
					continue
				case child.DataAtom == atom.Li && action == actionMultiStep:
					steps = append(steps, contentModels.ElementNode(buildInteractiveMultiStep(w, child, false)))
					continue
				case child.DataAtom == atom.Li:
					steps = append(steps, contentModels.ElementNode(buildInteractiveStep(w, child, false)))
					continue
				}
			}
			walk(child)
		}
	}
	walk(section)
	return steps
}

func matchInteractiveMultiStep(_ *walker, n *html.Node) bool {
	return isInteractiveNode(n) && interactiveAction(n) == actionMultiStep
}

// buildInteractiveMultiStep builds a step group that executes as one unit.
// Its children are the inner interactive elements, usually spans, each
// parsed as a plain step.
func buildInteractiveMultiStep(w *walker, n *html.Node, _ bool) *contentModels.ParsedElement {
	props := baseProps(n)
	w.liftInteractiveProps(n, props)
	if title := strings.TrimSpace(collectText(n)); title != "" {
		props["title"] = title
	}

	el := &contentModels.ParsedElement{
		Type:         contentModels.TypeInteractiveMultiStep,
		Props:        props,
		OriginalHTML: renderNode(n),
	}

	var inner []contentModels.Node
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			if child.Type != html.ElementNode {
				continue
			}
			action := interactiveAction(child)
			if isInteractiveNode(child) && action != actionSequence && action != actionMultiStep {
				inner = append(inner, contentModels.ElementNode(buildInteractiveStep(w, child, false)))
				continue
			}
			walk(child)
		}
	}
	walk(n)
	el.Children = inner

	w.hasInteractive = true
	return el
}

func matchInteractiveStep(_ *walker, n *html.Node) bool {
	action := interactiveAction(n)
	return isInteractiveNode(n) && action != actionSequence && action != actionMultiStep
}

// buildInteractiveStep builds a leaf step: the scripted action, its target,
// and the guard attributes, with the trimmed text content as title.
func buildInteractiveStep(w *walker, n *html.Node, _ bool) *contentModels.ParsedElement {
	props := baseProps(n)
	w.liftInteractiveProps(n, props)
	if title := strings.TrimSpace(collectText(n)); title != "" {
		props["title"] = title
	}

	w.hasInteractive = true
	return &contentModels.ParsedElement{
		Type:         contentModels.TypeInteractiveStep,
		Props:        props,
		OriginalHTML: renderNode(n),
	}
}

// liftInteractiveProps promotes the interactive data attributes to their
// camelCase prop names. The raw data-* entries written by baseProps stay in
// place, so the original attribute vocabulary round-trips unchanged.
func (w *walker) liftInteractiveProps(n *html.Node, props map[string]any) {
	if v, ok := getAttr(n, attrTargetAction); ok {
		props["targetAction"] = strings.TrimSpace(v)
	}
	if v, ok := getAttr(n, attrRefTarget); ok {
		props["refTarget"] = v
	}
	if v, ok := getAttr(n, attrTargetValue); ok {
		props["targetValue"] = v
	}
	if v, ok := getAttr(n, attrRequirements); ok {
		props["requirements"] = splitList(v)
	}
	if v, ok := getAttr(n, attrObjectives); ok {
		props["objectives"] = splitList(v)
	}
	if v, ok := getAttr(n, attrHint); ok {
		props["hints"] = v
	}
	if v, ok := getAttr(n, attrSkippable); ok {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "":
			props["skippable"] = true
		case "false":
			props["skippable"] = false
		default:
			w.addWarning(contentModels.WarningTypeAttribute,
				fmt.Sprintf("attribute %s=%q is not a boolean, passed through as-is", attrSkippable, v),
				describeNode(n))
			props["skippable"] = v
		}
	}
}

// splitList turns a comma-separated attribute value into a string slice,
// dropping empty entries.
func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// matchTabGroup recognizes a container whose direct children pair a tab bar
// with tab panes.
func matchTabGroup(_ *walker, n *html.Node) bool {
	var hasBar, hasContent bool
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if child.Type != html.ElementNode {
			continue
		}
		if hasClass(child, tabsBarMarker) {
			hasBar = true
		}
		if hasClass(child, tabContentMarker) {
			hasContent = true
		}
	}
	return hasBar && hasContent
}

// buildTabGroup emits the container as a generic element annotated with
// tabGroup so the renderer can reconstruct the tabbed UI. Tab panes stay
// shallow: their markup is kept verbatim so nested structures, code blocks
// in particular, can be recovered by a second scoped parse instead of being
// swallowed as opaque children here.
func buildTabGroup(w *walker, n *html.Node, inPre bool) *contentModels.ParsedElement {
	props := baseProps(n)
	props["tabGroup"] = true

	el := &contentModels.ParsedElement{
		Type:         strings.ToLower(n.Data),
		Props:        props,
		OriginalHTML: renderNode(n),
	}

	var children []contentModels.Node
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		switch child.Type {
		case html.TextNode:
			if !inPre && strings.TrimSpace(child.Data) == "" {
				continue
			}
			children = append(children, contentModels.TextNode(child.Data))
		case html.ElementNode:
			if hasClass(child, tabContentMarker) {
				children = append(children, contentModels.ElementNode(buildTabPane(child)))
				continue
			}
			if parsed := w.walkElement(child, inPre); parsed != nil {
				children = append(children, contentModels.ElementNode(parsed))
			}
		}
	}
	el.Children = children
	return el
}

func buildTabPane(n *html.Node) *contentModels.ParsedElement {
	return &contentModels.ParsedElement{
		Type:         strings.ToLower(n.Data),
		Props:        baseProps(n),
		OriginalHTML: renderNode(n),
	}
}

func matchVideo(w *walker, n *html.Node) bool {
	if n.DataAtom != atom.Iframe {
		return false
	}
	src, ok := getAttr(n, "src")
	return ok && w.validator.IsYouTubeURL(src)
}

func buildVideo(w *walker, n *html.Node, _ bool) *contentModels.ParsedElement {
	props := baseProps(n)
	if src, ok := getAttr(n, "src"); ok {
		props["src"] = src
	}
	return &contentModels.ParsedElement{
		Type:         contentModels.TypeVideo,
		Props:        props,
		OriginalHTML: renderNode(n),
	}
}

// findFirst returns the first descendant with the given atom, depth-first.
func findFirst(n *html.Node, a atom.Atom) *html.Node {
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == html.ElementNode && child.DataAtom == a {
			return child
		}
		if found := findFirst(child, a); found != nil {
			return found
		}
	}
	return nil
}

func findFirstOf(n *html.Node, atoms ...atom.Atom) *html.Node {
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == html.ElementNode {
			for _, a := range atoms {
				if child.DataAtom == a {
					return child
				}
			}
		}
		if found := findFirstOf(child, atoms...); found != nil {
			return found
		}
	}
	return nil
}
