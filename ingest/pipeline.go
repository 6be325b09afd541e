package ingest

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"nairobi-rag/llm/parser"
	"nairobi-rag/logger"
	"nairobi-rag/pubsub"

	"go.uber.org/zap"
)

// Options configures a Pipeline.
type Options struct {
	WebDir        string
	PDFDir        string
	TranscriptDir string

	MinSizeBytes int64
	Timeout      time.Duration
	UserAgent    string
	MaxBodyBytes int64
	// parser.FormatText or parser.FormatMarkdown
	Format string

	// Defaults to YouTube captions
	Transcripts TranscriptFetcher
	// Receives an UpdatedEvent per outcome
	Events pubsub.Publisher[Outcome]
}

// Plan lists the sources of one run.
type Plan struct {
	Web    []Source // ID is the output file name, Locator the URL
	PDFs   []string
	Videos []Source // ID is the output name without .txt, Locator the video ID
}

// Size returns the number of sources in the plan.
func (p Plan) Size() int {
	return len(p.Web) + len(p.PDFs) + len(p.Videos)
}

// Pipeline runs web scraping, PDF extraction and transcript fetching in
// sequence.
type Pipeline struct {
	opts        Options
	web         *WebScraper
	pdf         *PDFExtractor
	transcripts *TranscriptWriter
	events      pubsub.Publisher[Outcome]
}

// NewPipeline wires the three ingesters from opts.
func NewPipeline(opts Options) *Pipeline {
	fetcher := NewFetcher(opts.Timeout, opts.UserAgent, opts.MaxBodyBytes)

	transcripts := opts.Transcripts
	if transcripts == nil {
		transcripts = NewYouTubeTranscripts(&http.Client{Timeout: opts.Timeout}, "en")
	}

	events := opts.Events
	if events == nil {
		events = pubsub.Nop[Outcome]{}
	}

	return &Pipeline{
		opts:        opts,
		web:         NewWebScraper(fetcher, parser.NewHTMLParser(opts.Format), opts.WebDir, opts.MinSizeBytes),
		pdf:         NewPDFExtractor(parser.NewPDFParser(), opts.PDFDir),
		transcripts: NewTranscriptWriter(transcripts, opts.TranscriptDir),
		events:      events,
	}
}

// EnsureDirs creates the output directories.
func (p *Pipeline) EnsureDirs() error {
	for _, dir := range []string{p.opts.WebDir, p.opts.PDFDir, p.opts.TranscriptDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}

// Run ingests every source in plan. Failures are recorded per source; the
// returned error is only for setup problems.
func (p *Pipeline) Run(ctx context.Context, plan Plan) (BatchReport, error) {
	log := logger.FromContext(ctx)

	if err := p.EnsureDirs(); err != nil {
		return BatchReport{}, err
	}

	log.Info("ingestion started",
		zap.Int("web", len(plan.Web)),
		zap.Int("pdfs", len(plan.PDFs)),
		zap.Int("videos", len(plan.Videos)),
	)

	var report BatchReport
	report.Merge(p.web.ScrapeAll(ctx, plan.Web, p.events))

	for _, path := range plan.PDFs {
		o := p.pdf.ExtractTo(ctx, path)
		report.Add(o)
		p.events.Publish(pubsub.UpdatedEvent, o)
	}

	for _, v := range plan.Videos {
		o := p.transcripts.FetchTranscript(ctx, v.Locator, v.ID)
		report.Add(o)
		p.events.Publish(pubsub.UpdatedEvent, o)
	}

	log.Info("ingestion finished",
		zap.Int("ok", report.Count(StatusOK)),
		zap.Int("skipped", report.Count(StatusSkipped)),
		zap.Int("failed", report.Count(StatusFailed)),
	)
	return report, nil
}
