package app_test

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"review_insight/internal/app"
	"review_insight/internal/domain"
)

type fakeCache struct {
	store  map[string]domain.Sentiment
	getErr error
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	if c.getErr != nil {
		return false, c.getErr
	}
	v, ok := c.store[key]
	if !ok {
		return false, nil
	}
	*dst.(*domain.Sentiment) = v
	return true, nil
}

func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	if c.store == nil {
		c.store = map[string]domain.Sentiment{}
	}
	c.store[key] = v.(domain.Sentiment)
	return nil
}

func (c *fakeCache) Del(ctx context.Context, key string) error {
	delete(c.store, key)
	return nil
}

func TestCachedClassifier_MissThenHit(t *testing.T) {
	inner := byText(map[string]domain.Sentiment{
		"good": {Label: "POSITIVE", Confidence: 0.9},
		"bad":  {Label: "NEGATIVE", Confidence: 0.8},
	})
	cache := &fakeCache{}
	c := app.NewCachedClassifier(inner, cache, "sst2", 60)

	first, err := c.Classify(context.Background(), []string{"good", "bad"})
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(cache.store) != 2 {
		t.Fatalf("expected 2 cached entries, got %d", len(cache.store))
	}

	// only "meh" is new; it must go to the model alone, in one batch
	inner.fn = func(texts []string) ([]domain.Sentiment, error) {
		out := make([]domain.Sentiment, len(texts))
		for i := range texts {
			out[i] = domain.Sentiment{Label: "NEGATIVE", Confidence: 0.51}
		}
		return out, nil
	}
	second, err := c.Classify(context.Background(), []string{"bad", "meh", "good"})
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if inner.calls != 2 || !reflect.DeepEqual(inner.batches[1], []string{"meh"}) {
		t.Fatalf("unexpected inner batches: %v", inner.batches)
	}
	want := []domain.Sentiment{first[1], {Label: "NEGATIVE", Confidence: 0.51}, first[0]}
	if !reflect.DeepEqual(second, want) {
		t.Fatalf("got %+v, want %+v", second, want)
	}
}

func TestCachedClassifier_AllHitsSkipModel(t *testing.T) {
	inner := byText(map[string]domain.Sentiment{"good": {Label: "POSITIVE", Confidence: 0.9}})
	c := app.NewCachedClassifier(inner, &fakeCache{}, "sst2", 60)
	_, _ = c.Classify(context.Background(), []string{"good"})
	_, _ = c.Classify(context.Background(), []string{"good", "good"})
	if inner.calls != 1 {
		t.Fatalf("expected 1 model call, got %d", inner.calls)
	}
}

func TestCachedClassifier_CacheErrorsAreMisses(t *testing.T) {
	inner := byText(map[string]domain.Sentiment{"good": {Label: "POSITIVE", Confidence: 0.9}})
	c := app.NewCachedClassifier(inner, &fakeCache{getErr: errors.New("redis down")}, "sst2", 60)
	out, err := c.Classify(context.Background(), []string{"good"})
	if err != nil || len(out) != 1 || out[0].Label != "POSITIVE" {
		t.Fatalf("unexpected: %+v, %v", out, err)
	}
}

func TestCachedClassifier_InnerErrorPropagates(t *testing.T) {
	boom := errors.New("boom")
	inner := &fakeClassifier{fn: func([]string) ([]domain.Sentiment, error) { return nil, boom }}
	c := app.NewCachedClassifier(inner, &fakeCache{}, "sst2", 60)
	if _, err := c.Classify(context.Background(), []string{"x"}); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
}
