package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"review_insight/internal/domain"
)

// Sources holds the process-wide lazily initialized inputs of the dashboard.
type Sources struct {
	Reviews      *Lazy[domain.ReviewSet]
	Products     *Lazy[domain.Table]
	Testimonials *Lazy[domain.Table]
	Classifier   *Lazy[domain.Classifier]
}

type InsightService struct {
	src            Sources
	wordCloud      bool
	wordCloudWords int
}

func NewInsightService(src Sources, wordCloud bool, wordCloudWords int) *InsightService {
	if wordCloudWords <= 0 {
		wordCloudWords = 100
	}
	return &InsightService{src: src, wordCloud: wordCloud, wordCloudWords: wordCloudWords}
}

type ReviewsQuery struct {
	Month     time.Month
	WordCloud bool // ignored when the service has word clouds disabled
}

type WordCloudView struct {
	Words  []domain.WordCount `json:"words"`
	Notice string             `json:"notice,omitempty"`
}

type ReviewsView struct {
	CycleID   string                    `json:"cycle_id"`
	Month     string                    `json:"month"`
	Available bool                      `json:"available"`
	Notice    string                    `json:"notice"`
	Columns   []string                  `json:"columns"`
	Reviews   []domain.ClassifiedReview `json:"reviews"`
	Summary   domain.SentimentSummary   `json:"summary"`
	WordCloud *WordCloudView            `json:"word_cloud,omitempty"`
}

type TableView struct {
	Section   string     `json:"section"`
	Available bool       `json:"available"`
	Notice    string     `json:"notice"`
	Count     int        `json:"count"`
	Columns   []string   `json:"columns"`
	Rows      [][]string `json:"rows"`
}

func (s *InsightService) Sections() []string { return append([]string(nil), domain.Sections...) }

// Reviews runs one render cycle of the reviews section. Classifier failures
// fail the whole cycle; nothing partial is returned.
func (s *InsightService) Reviews(ctx context.Context, q ReviewsQuery) (ReviewsView, error) {
	if q.Month < time.January || q.Month > time.December {
		return ReviewsView{}, fmt.Errorf("%w: %d", domain.ErrInvalidMonth, q.Month)
	}
	view := ReviewsView{
		CycleID: uuid.NewString(),
		Month:   q.Month.String(),
		Columns: []string{},
		Reviews: []domain.ClassifiedReview{},
		Summary: Summarize(nil),
	}
	l := log.With().Str("cycle", view.CycleID).Str("month", view.Month).Logger()

	set, err := s.src.Reviews.Get(ctx)
	if errors.Is(err, domain.ErrNotFound) || (err == nil && len(set.Reviews) == 0) {
		view.Notice = "No review data available."
		return view, nil
	}
	if err != nil {
		return ReviewsView{}, fmt.Errorf("load reviews: %w", err)
	}
	view.Available = true
	view.Columns = set.Columns
	view.Notice = fmt.Sprintf("Showing reviews from %s.", view.Month)

	filtered := FilterByMonth(set.Reviews, q.Month)
	l.Debug().Int("total", len(set.Reviews)).Int("filtered", len(filtered)).Msg("reviews filtered")
	if len(filtered) == 0 {
		return view, nil
	}

	clf, err := s.src.Classifier.Get(ctx)
	if err != nil {
		return ReviewsView{}, fmt.Errorf("%w: %w", domain.ErrClassifierUnavailable, err)
	}
	start := time.Now()
	classified, err := ClassifyBatch(ctx, filtered, clf)
	if err != nil {
		l.Error().Err(err).Int("batch", len(filtered)).Msg("sentiment analysis failed")
		return ReviewsView{}, err
	}
	l.Debug().Int("batch", len(filtered)).Dur("took", time.Since(start)).Msg("sentiment analysis done")

	view.Reviews = classified
	view.Summary = Summarize(classified)

	if s.wordCloud && q.WordCloud {
		wc := &WordCloudView{Words: []domain.WordCount{}}
		if words, ok := WordFrequencies(filtered, s.wordCloudWords); ok {
			wc.Words = words
		} else {
			wc.Notice = "No text available for word cloud."
		}
		view.WordCloud = wc
	}
	return view, nil
}

func (s *InsightService) Products(ctx context.Context) (TableView, error) {
	return s.tableView(ctx, domain.SectionProducts, s.src.Products, "product", "products")
}

func (s *InsightService) Testimonials(ctx context.Context) (TableView, error) {
	return s.tableView(ctx, domain.SectionTestimonials, s.src.Testimonials, "testimonial", "testimonials")
}

func (s *InsightService) tableView(ctx context.Context, section string, src *Lazy[domain.Table], one, many string) (TableView, error) {
	view := TableView{Section: section, Columns: []string{}, Rows: [][]string{}}
	t, err := src.Get(ctx)
	if errors.Is(err, domain.ErrNotFound) || (err == nil && t.Len() == 0) {
		view.Notice = fmt.Sprintf("No %s data available.", one)
		return view, nil
	}
	if err != nil {
		return TableView{}, fmt.Errorf("load %s: %w", many, err)
	}
	view.Available = true
	view.Count = t.Len()
	view.Columns = t.Columns
	view.Rows = t.Rows
	view.Notice = fmt.Sprintf("Showing %d %s.", view.Count, many)
	return view, nil
}
