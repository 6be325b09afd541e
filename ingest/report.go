package ingest

import (
	"sort"
)

// Kind is the type of a source.
type Kind string

const (
	KindWeb        Kind = "web"
	KindPDF        Kind = "pdf"
	KindTranscript Kind = "transcript"
)

// Source is one configured input. Locator is a URL, a file path or a video
// ID depending on Kind. ID is the name of the text file it produces.
type Source struct {
	ID      string
	Kind    Kind
	Locator string
}

// Status is the result of ingesting one source.
type Status string

const (
	StatusOK      Status = "ok"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// Outcome records what happened to one source.
type Outcome struct {
	Source Source
	Status Status
	// Output is the text file written (or found, when skipped)
	Output string
	Reason string
	Err    error
}

// BatchReport aggregates outcomes in processing order.
type BatchReport struct {
	Outcomes []Outcome
}

// Add appends an outcome.
func (r *BatchReport) Add(o Outcome) {
	r.Outcomes = append(r.Outcomes, o)
}

// Merge appends every outcome of other.
func (r *BatchReport) Merge(other BatchReport) {
	r.Outcomes = append(r.Outcomes, other.Outcomes...)
}

// Count returns the number of outcomes with status s.
func (r BatchReport) Count(s Status) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == s {
			n++
		}
	}
	return n
}

// Failed returns the failed outcomes.
func (r BatchReport) Failed() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if o.Status == StatusFailed {
			out = append(out, o)
		}
	}
	return out
}

// AllFailed reports whether there was at least one source and none succeeded
// or was skipped.
func (r BatchReport) AllFailed() bool {
	return len(r.Outcomes) > 0 && r.Count(StatusFailed) == len(r.Outcomes)
}

// ByKind groups outcome counts per source kind, kinds sorted.
func (r BatchReport) ByKind() []KindSummary {
	idx := map[Kind]*KindSummary{}
	for _, o := range r.Outcomes {
		s, ok := idx[o.Source.Kind]
		if !ok {
			s = &KindSummary{Kind: o.Source.Kind}
			idx[o.Source.Kind] = s
		}
		switch o.Status {
		case StatusOK:
			s.OK++
		case StatusSkipped:
			s.Skipped++
		case StatusFailed:
			s.Failed++
		}
	}

	out := make([]KindSummary, 0, len(idx))
	for _, s := range idx {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Kind < out[j].Kind })
	return out
}

// KindSummary counts outcomes for one source kind.
type KindSummary struct {
	Kind    Kind
	OK      int
	Skipped int
	Failed  int
}
