// Package tracking records completed expansions for offline analysis. Every
// write is best effort: failures are logged and never reach the request
// path.
package tracking

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"
)

// Record is one completed expansion.
type Record struct {
	OriginalQuery  string
	ExpandedQuery  string
	ProcessingTime time.Duration
	Degraded       bool
	Timestamp      time.Time
}

// Metric is a named numeric observation derived from a Record.
type Metric struct {
	Key   string
	Value float64
}

// Metrics returns the derived observations in a fixed order. Lengths count
// runes; the expansion ratio is 1 for an empty original query.
func (r Record) Metrics() []Metric {
	orig := utf8.RuneCountInString(r.OriginalQuery)
	exp := utf8.RuneCountInString(r.ExpandedQuery)
	ratio := 1.0
	if orig > 0 {
		ratio = float64(exp) / float64(orig)
	}
	return []Metric{
		{Key: "processing_time_seconds", Value: r.ProcessingTime.Seconds()},
		{Key: "query_length_original", Value: float64(orig)},
		{Key: "query_length_expanded", Value: float64(exp)},
		{Key: "expansion_ratio", Value: ratio},
	}
}

// RunName is the display name used for the record's run.
func (r Record) RunName() string {
	return fmt.Sprintf("query_expansion_%d", r.Timestamp.Unix())
}

// Tags label every record written by a tracker.
type Tags struct {
	Model       string
	Task        string
	Environment string
}

// DefaultTags returns the standard labels for expansion runs.
func DefaultTags(environment string) Tags {
	if environment == "" {
		environment = "production"
	}
	return Tags{Model: "llama-3.1-8b", Task: "query_expansion", Environment: environment}
}

func (t Tags) pairs() [][2]string {
	return [][2]string{{"model", t.Model}, {"task", t.Task}, {"environment", t.Environment}}
}

// Tracker persists records.
type Tracker interface {
	LogExpansion(ctx context.Context, r Record) error
	Close() error
}

// Nop discards records.
type Nop struct{}

func (Nop) LogExpansion(context.Context, Record) error { return nil }
func (Nop) Close() error                               { return nil }
