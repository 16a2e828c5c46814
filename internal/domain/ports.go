package domain

import "context"

// Classifier maps an ordered batch of texts to a parallel batch of sentiments.
type Classifier interface {
	Classify(ctx context.Context, texts []string) ([]Sentiment, error)
}

// TableSource loads a named delimited table. A missing table returns ErrNotFound.
type TableSource interface {
	LoadTable(ctx context.Context, name string) (Table, error)
}

type ReviewSource interface {
	LoadReviews(ctx context.Context) (ReviewSet, error)
}

type ReviewRepository interface {
	// Write paths
	UpsertReviews(ctx context.Context, rs []Review) error

	// Read paths
	ReviewSource
	CountReviews(ctx context.Context) (int, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

// LabelStat is one bar of the confidence chart.
type LabelStat struct {
	Label          string  `json:"label"`
	Count          int     `json:"count"`
	MeanConfidence float64 `json:"mean_confidence"`
}

// SentimentSummary is derived per render cycle and never stored.
type SentimentSummary struct {
	Total  int         `json:"total"`
	Labels []LabelStat `json:"labels"` // sorted by label
}

func (s SentimentSummary) Count(label string) int {
	for _, l := range s.Labels {
		if l.Label == label {
			return l.Count
		}
	}
	return 0
}

// Mean returns the mean confidence for label and whether the group exists.
func (s SentimentSummary) Mean(label string) (float64, bool) {
	for _, l := range s.Labels {
		if l.Label == label {
			return l.MeanConfidence, true
		}
	}
	return 0, false
}

type WordCount struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}
