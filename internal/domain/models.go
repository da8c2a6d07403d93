package domain

import "time"

// Domain contains core models shared by the collector, prompt builder and pipeline.

// Headline is one article title extracted from a news source. Summary is only
// populated by the feed strategy.
type Headline struct {
	Title   string
	Summary string
	URL     string
}

// SourceResult is the outcome of collecting a single source: either a list of
// headlines or the reason the source failed.
type SourceResult struct {
	Source    string
	Headlines []Headline
	Err       error
}

// Failed reports whether the source could not be collected.
func (r SourceResult) Failed() bool { return r.Err != nil }

// HeadlineSet holds the per-run headlines grouped by source, in registry order.
// It is built once by the collector and never mutated afterwards.
type HeadlineSet struct {
	results []SourceResult
}

// NewHeadlineSet copies the given results into a new set.
func NewHeadlineSet(results ...SourceResult) HeadlineSet {
	out := make([]SourceResult, len(results))
	for i, r := range results {
		out[i] = SourceResult{
			Source:    r.Source,
			Headlines: append([]Headline(nil), r.Headlines...),
			Err:       r.Err,
		}
	}
	return HeadlineSet{results: out}
}

// Sources returns source names in collection order.
func (s HeadlineSet) Sources() []string {
	names := make([]string, len(s.results))
	for i, r := range s.results {
		names[i] = r.Source
	}
	return names
}

// Headlines returns a copy of the headlines collected for source. Failed and
// unknown sources yield an empty list.
func (s HeadlineSet) Headlines(source string) []Headline {
	for _, r := range s.results {
		if r.Source != source {
			continue
		}
		if r.Failed() {
			return []Headline{}
		}
		return append([]Headline{}, r.Headlines...)
	}
	return []Headline{}
}

// Results returns a copy of every per-source result, failures included.
func (s HeadlineSet) Results() []SourceResult {
	return NewHeadlineSet(s.results...).results
}

// Len is the number of sources in the set.
func (s HeadlineSet) Len() int { return len(s.results) }

// Total counts headlines across successful sources.
func (s HeadlineSet) Total() int {
	n := 0
	for _, r := range s.results {
		if !r.Failed() {
			n += len(r.Headlines)
		}
	}
	return n
}

// Empty reports whether no source produced a headline.
func (s HeadlineSet) Empty() bool { return s.Total() == 0 }

// ReportStatus distinguishes a deliverable report from a failed completion.
type ReportStatus string

const (
	ReportReady  ReportStatus = "ready"
	ReportFailed ReportStatus = "failed"
)

// Report is the result of a completion request.
type Report struct {
	Status ReportStatus
	Text   string
	Reason error
}

// Ready wraps generated report text.
func Ready(text string) Report {
	return Report{Status: ReportReady, Text: text}
}

// Failed wraps the reason a completion could not produce a report.
func Failed(reason error) Report {
	return Report{Status: ReportFailed, Reason: reason}
}

// Deliverable reports whether the report may be mailed.
func (r Report) Deliverable() bool {
	return r.Status == ReportReady && r.Reason == nil
}

// RunSummary is the per-source part of a run event.
type RunSummary struct {
	Source    string `json:"source"`
	Headlines int    `json:"headlines"`
	Error     string `json:"error,omitempty"`
}

// Summarize converts a headline set into run summaries.
func Summarize(set HeadlineSet) []RunSummary {
	out := make([]RunSummary, 0, set.Len())
	for _, r := range set.results {
		rs := RunSummary{Source: r.Source, Headlines: len(r.Headlines)}
		if r.Failed() {
			rs.Headlines = 0
			rs.Error = r.Err.Error()
		}
		out = append(out, rs)
	}
	return out
}

// Clock returns the current time; tests substitute a fixed one.
type Clock func() time.Time
