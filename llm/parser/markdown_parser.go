package parser

import (
	"context"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
)

var (
	mdHeading = regexp.MustCompile(`(?m)^#+\s+`)
	mdImage   = regexp.MustCompile(`!\[([^\]]*)\]\([^)]+\)`)
	mdLink    = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	mdEmph    = regexp.MustCompile(`(\*\*|__|\*)`)
)

// MarkdownParser turns markdown into plain paragraphs for embedding.
// Web pages scraped in markdown format are read back through it.
type MarkdownParser struct{}

// NewMarkdownParser creates a new markdown parser
func NewMarkdownParser() *MarkdownParser {
	return &MarkdownParser{}
}

// Parse reads and parses markdown from the reader
func (p *MarkdownParser) Parse(ctx context.Context, r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read markdown: %w", err)
	}
	return p.parse(string(data), ""), nil
}

// ParseFile reads and parses a markdown file
func (p *MarkdownParser) ParseFile(ctx context.Context, filePath string) (*Document, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return p.parse(string(data), filePath), nil
}

// FileType returns the file type this parser handles
func (p *MarkdownParser) FileType() FileType {
	return FileTypeMD
}

func (p *MarkdownParser) parse(content, filePath string) *Document {
	title := ExtractTitle(content, filePath)
	return &Document{
		Content: StripMarkdown(content),
		Title:   title,
		Metadata: map[string]interface{}{
			"file_size": len(content),
		},
	}
}

// StripMarkdown drops heading, emphasis, link and image syntax and returns
// the remaining non-empty lines as "\n\n"-separated paragraphs
func StripMarkdown(content string) string {
	content = mdHeading.ReplaceAllString(content, "")
	content = mdImage.ReplaceAllString(content, "$1")
	content = mdLink.ReplaceAllString(content, "$1")
	content = mdEmph.ReplaceAllString(content, "")

	var lines []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimSpace(strings.TrimPrefix(line, "- "))
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n\n")
}
