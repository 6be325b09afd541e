package ingest

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"nairobi-rag/llm/parser"
	"nairobi-rag/logger"
	"nairobi-rag/pubsub"

	"go.uber.org/zap"
)

// WebScraper turns web pages into text files in one directory.
type WebScraper struct {
	fetcher *Fetcher
	parser  *parser.HTMLParser
	dir     string
	minSize int64
}

// NewWebScraper creates a scraper writing into dir. Existing files larger
// than minSize bytes are left alone.
func NewWebScraper(fetcher *Fetcher, p *parser.HTMLParser, dir string, minSize int64) *WebScraper {
	return &WebScraper{
		fetcher: fetcher,
		parser:  p,
		dir:     dir,
		minSize: minSize,
	}
}

// Scrape downloads url and returns its readable text.
func (s *WebScraper) Scrape(ctx context.Context, url string) (string, error) {
	body, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		return "", err
	}

	doc, err := s.parser.Parse(ctx, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("parse %s: %w", url, err)
	}
	return doc.Content, nil
}

// ScrapeTo scrapes src.Locator into <dir>/<src.ID> unless a large enough
// file is already there.
func (s *WebScraper) ScrapeTo(ctx context.Context, src Source) Outcome {
	log := logger.FromContext(ctx).With(zap.String("source", src.ID), zap.String("url", src.Locator))
	out := Outcome{Source: src}

	if src.ID == "" || src.ID != filepath.Base(src.ID) {
		out.Status = StatusFailed
		out.Err = fmt.Errorf("invalid output name %q", src.ID)
		out.Reason = out.Err.Error()
		log.Error("web source rejected", zap.Error(out.Err))
		return out
	}

	dest := filepath.Join(s.dir, src.ID)
	out.Output = dest

	if info, err := os.Stat(dest); err == nil && info.Size() > s.minSize {
		out.Status = StatusSkipped
		out.Reason = fmt.Sprintf("already ingested (%d bytes)", info.Size())
		log.Info("skipping existing file", zap.String("path", dest), zap.Int64("bytes", info.Size()))
		return out
	}

	text, err := s.Scrape(ctx, src.Locator)
	if err == nil {
		err = writeFileAtomic(dest, []byte(text))
	}
	if err != nil {
		out.Status = StatusFailed
		out.Err = err
		out.Reason = err.Error()
		log.Error("scrape failed", zap.Error(err))
		return out
	}

	out.Status = StatusOK
	log.Info("saved page", zap.String("path", dest), zap.Int("bytes", len(text)))
	return out
}

// ScrapeAll scrapes every source in order. A failing source is recorded and
// the batch continues.
func (s *WebScraper) ScrapeAll(ctx context.Context, sources []Source, events pubsub.Publisher[Outcome]) BatchReport {
	if events == nil {
		events = pubsub.Nop[Outcome]{}
	}

	var report BatchReport
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			o := Outcome{Source: src, Status: StatusFailed, Err: err, Reason: err.Error()}
			report.Add(o)
			events.Publish(pubsub.UpdatedEvent, o)
			continue
		}

		o := s.ScrapeTo(ctx, src)
		report.Add(o)
		events.Publish(pubsub.UpdatedEvent, o)
	}
	return report
}
