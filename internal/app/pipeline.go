package app

import (
	"context"
	"fmt"
	"sort"
	"time"

	"review_insight/internal/domain"
)

// FilterByMonth keeps reviews whose parsed date falls in month, in input order.
// Reviews without a parsed date never match.
func FilterByMonth(reviews []domain.Review, month time.Month) []domain.Review {
	out := make([]domain.Review, 0)
	for _, r := range reviews {
		if r.Date == nil {
			continue
		}
		if r.Date.Month() == month {
			out = append(out, r)
		}
	}
	return out
}

// ClassifyBatch sends every review text to the classifier in a single call and
// zips the results back onto the reviews. An empty batch makes no call.
func ClassifyBatch(ctx context.Context, reviews []domain.Review, c domain.Classifier) ([]domain.ClassifiedReview, error) {
	if len(reviews) == 0 {
		return nil, nil
	}
	texts := make([]string, len(reviews))
	for i, r := range reviews {
		texts[i] = r.Text
	}

	res, err := c.Classify(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrClassification, err)
	}
	if len(res) != len(texts) {
		return nil, fmt.Errorf("%w: %w: sent %d texts, got %d results",
			domain.ErrClassification, domain.ErrClassifierMismatch, len(texts), len(res))
	}

	out := make([]domain.ClassifiedReview, len(reviews))
	for i, s := range res {
		if s.Confidence < 0 || s.Confidence > 1 {
			return nil, fmt.Errorf("%w: %w: confidence %v at row %d",
				domain.ErrClassification, domain.ErrClassifierMismatch, s.Confidence, i)
		}
		out[i] = domain.ClassifiedReview{Review: reviews[i], Sentiment: s}
	}
	return out, nil
}

// Summarize counts reviews per label and averages their confidence.
func Summarize(classified []domain.ClassifiedReview) domain.SentimentSummary {
	sum := domain.SentimentSummary{Total: len(classified), Labels: []domain.LabelStat{}}
	if len(classified) == 0 {
		return sum
	}

	idx := map[string]int{}
	totals := []float64{}
	for _, c := range classified {
		i, ok := idx[c.Label]
		if !ok {
			i = len(sum.Labels)
			idx[c.Label] = i
			sum.Labels = append(sum.Labels, domain.LabelStat{Label: c.Label})
			totals = append(totals, 0)
		}
		sum.Labels[i].Count++
		totals[i] += c.Confidence
	}
	for i := range sum.Labels {
		sum.Labels[i].MeanConfidence = totals[i] / float64(sum.Labels[i].Count)
	}
	sort.Slice(sum.Labels, func(a, b int) bool { return sum.Labels[a].Label < sum.Labels[b].Label })
	return sum
}

// ReviewsFromTable turns a raw reviews table into a ReviewSet, parsing dates.
func ReviewsFromTable(t domain.Table) domain.ReviewSet {
	recs := t.Records()
	set := domain.ReviewSet{Columns: append([]string(nil), t.Columns...), Reviews: make([]domain.Review, 0, len(recs))}
	for i, rec := range recs {
		r := domain.NewReview(rec)
		r.Seq = i
		set.Reviews = append(set.Reviews, r)
	}
	return set
}
