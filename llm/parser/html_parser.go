package parser

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
)

// Output formats for HTML pages
const (
	FormatText     = "text"
	FormatMarkdown = "markdown"
)

// Elements dropped before extraction and elements whose text is kept
const (
	noiseSelector   = "script, style, header, footer, nav, noscript"
	contentSelector = "h1, h2, h3, p, li"
)

// HTMLParser extracts readable text from web pages
type HTMLParser struct {
	format string
}

// NewHTMLParser creates an HTML parser producing text or markdown
func NewHTMLParser(format string) *HTMLParser {
	if format != FormatMarkdown {
		format = FormatText
	}
	return &HTMLParser{format: format}
}

// Parse reads and parses UTF-8 HTML from the reader
func (p *HTMLParser) Parse(ctx context.Context, r io.Reader) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return p.parse(doc, "")
}

// ParseFile reads and parses an HTML file
func (p *HTMLParser) ParseFile(ctx context.Context, filePath string) (*Document, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	defer f.Close()

	doc, err := goquery.NewDocumentFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return p.parse(doc, filePath)
}

// FileType returns the file type this parser handles
func (p *HTMLParser) FileType() FileType {
	return FileTypeHTML
}

func (p *HTMLParser) parse(doc *goquery.Document, filePath string) (*Document, error) {
	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		title = collapseSpace(doc.Find("h1").First().Text())
	}

	doc.Find(noiseSelector).Remove()

	var content string
	if p.format == FormatMarkdown {
		html, err := doc.Html()
		if err != nil {
			return nil, fmt.Errorf("failed to render HTML: %w", err)
		}
		content, err = md.NewConverter("", true, nil).ConvertString(html)
		if err != nil {
			return nil, fmt.Errorf("failed to convert HTML to markdown: %w", err)
		}
		content = strings.TrimSpace(content)
	} else {
		content = ExtractText(doc)
	}

	if title == "" {
		title = ExtractTitle(content, filePath)
	}

	return &Document{
		Content: content,
		Title:   title,
		Metadata: map[string]interface{}{
			"format": p.format,
		},
	}, nil
}

// ExtractText collects the text of headings, paragraphs and list items in
// document order, whitespace collapsed and empty elements skipped, joined
// by blank lines. Noise elements must already be removed.
func ExtractText(doc *goquery.Document) string {
	var parts []string
	doc.Find(contentSelector).Each(func(_ int, s *goquery.Selection) {
		if text := collapseSpace(s.Text()); text != "" {
			parts = append(parts, text)
		}
	})
	return strings.Join(parts, "\n\n")
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
