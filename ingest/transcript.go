package ingest

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"nairobi-rag/logger"

	"github.com/kkdai/youtube/v2"
	"go.uber.org/zap"
)

// TranscriptFetcher returns the caption segments of a video in order.
type TranscriptFetcher interface {
	Transcript(ctx context.Context, videoID string) ([]string, error)
}

// YouTubeTranscripts fetches captions from YouTube.
type YouTubeTranscripts struct {
	client *youtube.Client
	lang   string
}

// NewYouTubeTranscripts creates a fetcher for captions in lang ("en" when empty).
func NewYouTubeTranscripts(httpClient *http.Client, lang string) *YouTubeTranscripts {
	if lang == "" {
		lang = "en"
	}
	return &YouTubeTranscripts{
		client: &youtube.Client{HTTPClient: httpClient},
		lang:   lang,
	}
}

// Transcript implements TranscriptFetcher.
func (y *YouTubeTranscripts) Transcript(ctx context.Context, videoID string) ([]string, error) {
	video, err := y.client.GetVideoContext(ctx, videoID)
	if err != nil {
		return nil, fmt.Errorf("get video: %w", err)
	}

	segments, err := y.client.GetTranscriptCtx(ctx, video, y.lang)
	if err != nil {
		return nil, fmt.Errorf("get transcript: %w", err)
	}

	texts := make([]string, 0, len(segments))
	for _, s := range segments {
		texts = append(texts, s.Text)
	}
	return texts, nil
}

// TranscriptWriter stores transcripts as text files.
type TranscriptWriter struct {
	fetcher TranscriptFetcher
	dir     string
}

// NewTranscriptWriter creates a writer storing transcripts in dir.
func NewTranscriptWriter(fetcher TranscriptFetcher, dir string) *TranscriptWriter {
	return &TranscriptWriter{fetcher: fetcher, dir: dir}
}

// FetchTranscript writes the transcript of videoID to <dir>/<outName>.txt,
// one segment per line. It never fails: any problem becomes a
// TranscriptUnavailableError in a failed Outcome and is logged.
func (w *TranscriptWriter) FetchTranscript(ctx context.Context, videoID, outName string) Outcome {
	log := logger.FromContext(ctx).With(zap.String("video", videoID))
	out := Outcome{Source: Source{ID: outName + ".txt", Kind: KindTranscript, Locator: videoID}}

	fail := func(err error) Outcome {
		terr := &TranscriptUnavailableError{VideoID: videoID, Err: err}
		out.Status = StatusFailed
		out.Err = terr
		out.Reason = terr.Error()
		log.Warn("transcript failed", zap.Error(terr))
		return out
	}

	if outName == "" || outName != filepath.Base(outName) {
		return fail(fmt.Errorf("invalid output name %q", outName))
	}

	segments, err := w.fetcher.Transcript(ctx, videoID)
	if err != nil {
		return fail(err)
	}

	dest := filepath.Join(w.dir, outName+".txt")
	if err := writeFileAtomic(dest, []byte(strings.Join(segments, "\n"))); err != nil {
		return fail(err)
	}

	out.Status = StatusOK
	out.Output = dest
	log.Info("saved transcript", zap.String("path", dest), zap.Int("segments", len(segments)))
	return out
}
