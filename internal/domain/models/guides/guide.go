package guides

import (
	"time"

	"guidepost/internal/domain/models/content"
)

// BlockTypeText is the block kind used for bare text children. Every other
// block kind mirrors a parsed element type ("interactive-step", "code-block",
// "image-renderer", ...).
const BlockTypeText = "text"

// Block is one node of a guide's stored content tree. Blocks carry stable IDs
// so editors can address them across saves.
type Block struct {
	ID       string         `json:"id"`
	Type     string         `json:"type"`
	Props    map[string]any `json:"props,omitempty"`
	Children []Block        `json:"children,omitempty"`
	Text     string         `json:"text,omitempty"` // set when Type == BlockTypeText
	HTML     string         `json:"html,omitempty"` // sanitized source markup for this block
}

// Guide is an authored guide. Blocks are stored as a JSONB tree; JourneyID is
// NULL for standalone guides. Milestone orders guides within a journey.
type Guide struct {
	ID        string     `json:"id" db:"id"`
	JourneyID *string    `json:"journey_id,omitempty" db:"journey_id"`
	Title     string     `json:"title" db:"title"`
	Slug      string     `json:"slug" db:"slug"`
	SourceURL *string    `json:"source_url,omitempty" db:"source_url"`
	Blocks    []Block    `json:"blocks" db:"blocks"`
	Milestone int        `json:"milestone" db:"milestone"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}

// BlocksFromParsed converts a parsed element tree into a block tree, minting
// an ID for every node via newID.
func BlocksFromParsed(elements []*content.ParsedElement, newID func() string) []Block {
	blocks := make([]Block, 0, len(elements))
	for _, el := range elements {
		blocks = append(blocks, blockFromElement(el, newID))
	}
	return blocks
}

func blockFromElement(el *content.ParsedElement, newID func() string) Block {
	b := Block{
		ID:    newID(),
		Type:  el.Type,
		Props: el.Props,
		HTML:  el.OriginalHTML,
	}
	for _, child := range el.Children {
		if child.IsText() {
			b.Children = append(b.Children, Block{ID: newID(), Type: BlockTypeText, Text: child.Text})
			continue
		}
		b.Children = append(b.Children, blockFromElement(child.Element, newID))
	}
	return b
}

// PlainText flattens the block tree into whitespace-joined text, used for
// search indexing and the text exporter.
func PlainText(blocks []Block) string {
	var out []byte
	var walk func(blocks []Block)
	walk = func(blocks []Block) {
		for _, b := range blocks {
			if b.Type == BlockTypeText {
				if len(out) > 0 {
					out = append(out, ' ')
				}
				out = append(out, b.Text...)
				continue
			}
			if title, ok := b.Props["title"].(string); ok && title != "" {
				if len(out) > 0 {
					out = append(out, ' ')
				}
				out = append(out, title...)
			}
			if code, ok := b.Props["code"].(string); ok && code != "" {
				if len(out) > 0 {
					out = append(out, ' ')
				}
				out = append(out, code...)
			}
			walk(b.Children)
		}
	}
	walk(blocks)
	return string(out)
}

// SourceHTML reassembles the sanitized markup of the root blocks, used by the
// markdown exporter.
func SourceHTML(blocks []Block) string {
	var out []byte
	for _, b := range blocks {
		out = append(out, b.HTML...)
	}
	return string(out)
}
