package title

import (
	"bytes"
	"os"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

var markdown = goldmark.New()

// Parse extracts metadata from markdown content. A leading YAML front matter
// block is skipped so its delimiters are not read as headings.
func Parse(content []byte) *Metadata {
	source := stripFrontMatter(content)
	doc := markdown.Parser().Parse(text.NewReader(source))

	md := &Metadata{}
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		h, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}
		md.Headings = append(md.Headings, Heading{
			Text:  headingText(h, source),
			Level: h.Level,
		})
		return ast.WalkSkipChildren, nil
	})
	return md
}

// ReadFile reads and parses the markdown document at path.
func ReadFile(path string) (*Metadata, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(content), nil
}

// headingText returns the raw inline source of a heading, with setext
// continuation lines joined by spaces.
func headingText(h *ast.Heading, source []byte) string {
	lines := h.Lines()
	parts := make([]string, 0, lines.Len())
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		if line := strings.TrimSpace(string(seg.Value(source))); line != "" {
			parts = append(parts, line)
		}
	}
	return strings.Join(parts, " ")
}

// stripFrontMatter returns content without a leading "---" delimited block.
// Unterminated blocks are left in place.
func stripFrontMatter(content []byte) []byte {
	content = bytes.TrimPrefix(content, []byte("\xef\xbb\xbf"))
	first, rest, ok := cutLine(content)
	if !ok || strings.TrimRight(string(first), " \t") != "---" {
		return content
	}
	for len(rest) > 0 {
		var line []byte
		line, rest, _ = cutLine(rest)
		switch strings.TrimRight(string(line), " \t") {
		case "---", "...":
			return rest
		}
	}
	return content
}

// cutLine splits off the first line, without its line ending.
func cutLine(b []byte) (line, rest []byte, found bool) {
	i := bytes.IndexByte(b, '\n')
	if i < 0 {
		return b, nil, len(b) > 0
	}
	return bytes.TrimSuffix(b[:i], []byte("\r")), b[i+1:], true
}
