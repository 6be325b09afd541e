package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"nairobi-rag/llm/parser"
	"nairobi-rag/logger"

	"go.uber.org/zap"
)

// PDFExtractor converts local PDFs into text files.
type PDFExtractor struct {
	parser parser.Parser
	dir    string
}

// NewPDFExtractor creates an extractor writing into dir.
func NewPDFExtractor(p parser.Parser, dir string) *PDFExtractor {
	return &PDFExtractor{parser: p, dir: dir}
}

// ExtractPDF writes the text of the PDF at path to <dir>/<stem>.txt and
// returns the output path. A missing input is a NotFoundError and nothing
// is written.
func (e *PDFExtractor) ExtractPDF(ctx context.Context, path string) (string, error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", &NotFoundError{Path: path}
	}
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s is a directory", path)
	}

	doc, err := e.parser.ParseFile(ctx, path)
	if err != nil {
		return "", fmt.Errorf("extract %s: %w", path, err)
	}

	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	dest := filepath.Join(e.dir, stem+".txt")
	if err := writeFileAtomic(dest, []byte(doc.Content)); err != nil {
		return "", err
	}

	logger.FromContext(ctx).Info("PDF -> text saved",
		zap.String("pdf", path),
		zap.String("path", dest),
		zap.Any("pages", doc.Metadata["page_count"]),
	)
	return dest, nil
}

// ExtractTo wraps ExtractPDF as an Outcome for batch reporting.
func (e *PDFExtractor) ExtractTo(ctx context.Context, path string) Outcome {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	out := Outcome{Source: Source{ID: stem + ".txt", Kind: KindPDF, Locator: path}}

	dest, err := e.ExtractPDF(ctx, path)
	if err != nil {
		out.Status = StatusFailed
		out.Err = err
		out.Reason = err.Error()
		logger.FromContext(ctx).Error("PDF extraction failed", zap.String("pdf", path), zap.Error(err))
		return out
	}

	out.Status = StatusOK
	out.Output = dest
	return out
}
