package chunker

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"go.abhg.dev/goldmark/toc"
)

// Markdown splits markdown documents at H1 and H2 boundaries before applying
// the word window, so chunks do not straddle sections. Sections larger than
// the window are re-split with Words using the same size and overlap.
type Markdown struct {
	parser goldmark.Markdown
}

// NewMarkdown creates a markdown-aware chunker backed by a goldmark parser.
func NewMarkdown() *Markdown {
	md := goldmark.New(
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
	)
	return &Markdown{parser: md}
}

// Chunk splits markdown source into section-aligned overlapping word windows.
func (m *Markdown) Chunk(source string, size, overlap int) ([]string, error) {
	if err := validate(size, overlap); err != nil {
		return nil, err
	}
	if strings.TrimSpace(source) == "" {
		return nil, nil
	}

	sections, err := m.sections([]byte(source))
	if err != nil {
		return nil, fmt.Errorf("split sections: %w", err)
	}

	var chunks []string
	for _, section := range sections {
		if len(strings.Fields(section)) <= size {
			chunks = append(chunks, section)
			continue
		}
		windows, err := Words(section, size, overlap)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, windows...)
	}
	return chunks, nil
}

// sections returns the text of each H1/H2 section in document order.
// A document without headings is a single section.
func (m *Markdown) sections(source []byte) ([]string, error) {
	reader := text.NewReader(source)
	doc := m.parser.Parser().Parse(reader)

	tree, err := toc.Inspect(doc, source,
		toc.MinDepth(1),
		toc.MaxDepth(2),
		toc.Compact(true),
	)
	if err != nil {
		return nil, fmt.Errorf("inspect TOC: %w", err)
	}

	if len(tree.Items) == 0 {
		return []string{strings.TrimSpace(string(source))}, nil
	}

	var sections []string
	m.collect(doc, source, tree.Items, &sections)
	return sections, nil
}

// collect walks TOC items in order and extracts each section's source text.
func (m *Markdown) collect(doc ast.Node, source []byte, items toc.Items, sections *[]string) {
	for i, item := range items {
		headerNode := findHeaderByID(doc, string(item.ID))
		if headerNode == nil {
			continue
		}

		// A section ends where its first child begins, so nested content
		// is only indexed once, under the deepest heading that owns it.
		startLine := headerNode.Lines().At(0)
		var endLine text.Segment
		switch {
		case len(item.Items) > 0:
			if child := findHeaderByID(doc, string(item.Items[0].ID)); child != nil {
				endLine = child.Lines().At(0)
			}
		case i+1 < len(items):
			if next := findHeaderByID(doc, string(items[i+1].ID)); next != nil {
				endLine = next.Lines().At(0)
			}
		default:
			endLine = nextHeaderBoundary(doc, headerNode, headerNode.(*ast.Heading).Level)
		}

		if section := extractSection(source, startLine, endLine); section != "" {
			*sections = append(*sections, section)
		}

		if len(item.Items) > 0 {
			m.collect(doc, source, item.Items, sections)
		}
	}
}

// findHeaderByID locates a heading node by its auto-generated ID.
func findHeaderByID(node ast.Node, id string) ast.Node {
	var found ast.Node
	ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering && n.Kind() == ast.KindHeading {
			heading := n.(*ast.Heading)
			headingID, ok := heading.AttributeString("id")
			if ok && string(headingID.([]byte)) == id {
				found = n
				return ast.WalkStop, nil
			}
		}
		return ast.WalkContinue, nil
	})
	return found
}

// nextHeaderBoundary finds the next heading at the same or higher level.
func nextHeaderBoundary(root ast.Node, current ast.Node, currentLevel int) text.Segment {
	var nextHeader ast.Node
	foundCurrent := false

	ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if n.Kind() == ast.KindHeading {
			heading := n.(*ast.Heading)
			if !foundCurrent {
				if n == current {
					foundCurrent = true
				}
				return ast.WalkContinue, nil
			}
			if heading.Level <= currentLevel {
				nextHeader = n
				return ast.WalkStop, nil
			}
		}
		return ast.WalkContinue, nil
	})

	if nextHeader != nil {
		return nextHeader.Lines().At(0)
	}
	return text.Segment{}
}

// extractSection extracts trimmed text between two line segments.
func extractSection(source []byte, start, end text.Segment) string {
	var buf bytes.Buffer
	if end.Start == 0 && end.Stop == 0 {
		buf.Write(source[start.Start:])
	} else {
		buf.Write(source[start.Start:end.Start])
	}
	return strings.TrimSpace(buf.String())
}
