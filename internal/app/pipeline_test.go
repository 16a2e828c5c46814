package app_test

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"review_insight/internal/app"
	"review_insight/internal/domain"
)

// ---- fakes ----

type fakeClassifier struct {
	calls   int
	batches [][]string
	fn      func(texts []string) ([]domain.Sentiment, error)
}

func (f *fakeClassifier) Classify(ctx context.Context, texts []string) ([]domain.Sentiment, error) {
	f.calls++
	f.batches = append(f.batches, append([]string(nil), texts...))
	return f.fn(texts)
}

// byText answers from a fixed text -> sentiment table.
func byText(m map[string]domain.Sentiment) *fakeClassifier {
	return &fakeClassifier{fn: func(texts []string) ([]domain.Sentiment, error) {
		out := make([]domain.Sentiment, len(texts))
		for i, t := range texts {
			out[i] = m[t]
		}
		return out, nil
	}}
}

func rev(date, text string) domain.Review {
	return domain.NewReview(map[string]string{"date": date, "review_text": text})
}

func scenarioReviews() []domain.Review {
	return []domain.Review{
		rev("2023-08-01", "great product"),
		rev("2023-08-15", "terrible"),
		rev("2023-09-01", "ok"),
	}
}

// ---- FilterByMonth ----

func TestFilterByMonth_StableAndNonMutating(t *testing.T) {
	in := scenarioReviews()
	before := append([]domain.Review(nil), in...)

	got := app.FilterByMonth(in, time.August)
	if len(got) != 2 || got[0].Text != "great product" || got[1].Text != "terrible" {
		t.Fatalf("unexpected filter result: %+v", got)
	}
	if !reflect.DeepEqual(in, before) {
		t.Fatalf("input was mutated")
	}
	if len(app.FilterByMonth(in, time.March)) != 0 {
		t.Fatalf("expected empty result for March")
	}
}

func TestFilterByMonth_Idempotent(t *testing.T) {
	once := app.FilterByMonth(scenarioReviews(), time.August)
	twice := app.FilterByMonth(once, time.August)
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("filter is not idempotent: %+v vs %+v", once, twice)
	}
}

func TestFilterByMonth_UnparseableDateNeverMatches(t *testing.T) {
	in := []domain.Review{rev("not-a-date", "x"), rev("", "y")}
	for m := time.January; m <= time.December; m++ {
		if got := app.FilterByMonth(in, m); len(got) != 0 {
			t.Fatalf("%s: expected no reviews, got %+v", m, got)
		}
	}
}

func TestFilterByMonth_IgnoresYear(t *testing.T) {
	in := []domain.Review{rev("2022-08-03", "a"), rev("2023-08-03", "b"), rev("2024-07-31", "c")}
	if got := app.FilterByMonth(in, time.August); len(got) != 2 {
		t.Fatalf("expected both Augusts, got %+v", got)
	}
}

// ---- ClassifyBatch ----

func TestClassifyBatch_EmptySkipsClassifier(t *testing.T) {
	clf := byText(nil)
	out, err := app.ClassifyBatch(context.Background(), nil, clf)
	if err != nil || out != nil {
		t.Fatalf("expected nil, nil; got %v, %v", out, err)
	}
	if clf.calls != 0 {
		t.Fatalf("classifier called %d times", clf.calls)
	}
}

func TestClassifyBatch_SingleCallOrderPreserved(t *testing.T) {
	clf := byText(map[string]domain.Sentiment{
		"great product": {Label: "POSITIVE", Confidence: 0.95},
		"terrible":      {Label: "NEGATIVE", Confidence: 0.88},
	})
	filtered := app.FilterByMonth(scenarioReviews(), time.August)

	out, err := app.ClassifyBatch(context.Background(), filtered, clf)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if clf.calls != 1 {
		t.Fatalf("expected 1 classifier call, got %d", clf.calls)
	}
	if !reflect.DeepEqual(clf.batches[0], []string{"great product", "terrible"}) {
		t.Fatalf("unexpected batch: %v", clf.batches[0])
	}
	if len(out) != len(filtered) {
		t.Fatalf("len mismatch: %d vs %d", len(out), len(filtered))
	}
	for i := range out {
		if out[i].Text != filtered[i].Text {
			t.Fatalf("row %d out of order", i)
		}
	}
	if out[0].Label != "POSITIVE" || out[1].Label != "NEGATIVE" {
		t.Fatalf("unexpected labels: %+v", out)
	}
}

func TestClassifyBatch_ClassifierErrorIsHardFailure(t *testing.T) {
	boom := errors.New("model exploded")
	clf := &fakeClassifier{fn: func([]string) ([]domain.Sentiment, error) { return nil, boom }}

	out, err := app.ClassifyBatch(context.Background(), scenarioReviews(), clf)
	if out != nil {
		t.Fatalf("expected no partial output, got %+v", out)
	}
	if !errors.Is(err, domain.ErrClassification) || !errors.Is(err, boom) {
		t.Fatalf("expected wrapped classification error, got %v", err)
	}
	if clf.calls != 1 {
		t.Fatalf("expected exactly one attempt, got %d", clf.calls)
	}
}

func TestClassifyBatch_LengthMismatch(t *testing.T) {
	clf := &fakeClassifier{fn: func([]string) ([]domain.Sentiment, error) {
		return []domain.Sentiment{{Label: "POSITIVE", Confidence: 0.9}}, nil
	}}
	_, err := app.ClassifyBatch(context.Background(), scenarioReviews(), clf)
	if !errors.Is(err, domain.ErrClassifierMismatch) {
		t.Fatalf("expected mismatch error, got %v", err)
	}
}

func TestClassifyBatch_ConfidenceOutOfRange(t *testing.T) {
	clf := &fakeClassifier{fn: func(texts []string) ([]domain.Sentiment, error) {
		out := make([]domain.Sentiment, len(texts))
		for i := range out {
			out[i] = domain.Sentiment{Label: "POSITIVE", Confidence: 1.5}
		}
		return out, nil
	}}
	_, err := app.ClassifyBatch(context.Background(), scenarioReviews(), clf)
	if !errors.Is(err, domain.ErrClassification) {
		t.Fatalf("expected classification error, got %v", err)
	}
}

// ---- Summarize ----

func TestSummarize_Empty(t *testing.T) {
	s := app.Summarize(nil)
	if s.Total != 0 || len(s.Labels) != 0 {
		t.Fatalf("expected empty summary, got %+v", s)
	}
}

func TestSummarize_Scenario(t *testing.T) {
	clf := byText(map[string]domain.Sentiment{
		"great product": {Label: "POSITIVE", Confidence: 0.95},
		"terrible":      {Label: "NEGATIVE", Confidence: 0.88},
	})
	classified, err := app.ClassifyBatch(context.Background(), app.FilterByMonth(scenarioReviews(), time.August), clf)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	s := app.Summarize(classified)
	if s.Total != 2 || s.Count("POSITIVE") != 1 || s.Count("NEGATIVE") != 1 {
		t.Fatalf("unexpected summary: %+v", s)
	}
	if m, _ := s.Mean("POSITIVE"); m != 0.95 {
		t.Fatalf("POSITIVE mean = %v", m)
	}
	if m, _ := s.Mean("NEGATIVE"); m != 0.88 {
		t.Fatalf("NEGATIVE mean = %v", m)
	}
	if s.Labels[0].Label != "NEGATIVE" || s.Labels[1].Label != "POSITIVE" {
		t.Fatalf("labels not sorted: %+v", s.Labels)
	}
}

func TestSummarize_CountsSumAndMeansInRange(t *testing.T) {
	in := []domain.ClassifiedReview{
		{Sentiment: domain.Sentiment{Label: "POSITIVE", Confidence: 0.5}},
		{Sentiment: domain.Sentiment{Label: "POSITIVE", Confidence: 1.0}},
		{Sentiment: domain.Sentiment{Label: "NEUTRAL", Confidence: 0.0}},
		{Sentiment: domain.Sentiment{Label: "NEGATIVE", Confidence: 0.7}},
		{Sentiment: domain.Sentiment{Label: "NEUTRAL", Confidence: 0.5}},
	}
	s := app.Summarize(in)
	sum := 0
	for _, l := range s.Labels {
		sum += l.Count
		if l.MeanConfidence < 0 || l.MeanConfidence > 1 {
			t.Fatalf("mean out of range: %+v", l)
		}
	}
	if sum != s.Total || s.Total != len(in) {
		t.Fatalf("counts %d do not sum to total %d", sum, s.Total)
	}
	if m, _ := s.Mean("POSITIVE"); m != 0.75 {
		t.Fatalf("POSITIVE mean = %v", m)
	}
	if s.Count("NEUTRAL") != 2 {
		t.Fatalf("unseen label not counted generically: %+v", s)
	}
}

// ---- ReviewsFromTable ----

func TestReviewsFromTable(t *testing.T) {
	tb := domain.Table{
		Columns: []string{"date", "review_text", "stars"},
		Rows: [][]string{
			{"2023-08-01", "great product", "5"},
			{"garbage", "meh", "3"},
		},
	}
	set := app.ReviewsFromTable(tb)
	if !reflect.DeepEqual(set.Columns, tb.Columns) || len(set.Reviews) != 2 {
		t.Fatalf("unexpected set: %+v", set)
	}
	if set.Reviews[0].Date == nil || set.Reviews[1].Date != nil {
		t.Fatalf("unexpected dates: %+v", set.Reviews)
	}
	if set.Reviews[0].Fields["stars"] != "5" {
		t.Fatalf("passthrough field lost")
	}
}
