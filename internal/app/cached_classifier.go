package app

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"

	"review_insight/internal/domain"
)

// CachedClassifier memoizes per-text sentiments. Cache misses still go to the
// inner classifier as one batch; cache failures count as misses.
type CachedClassifier struct {
	inner    domain.Classifier
	cache    domain.Cache
	model    string
	cacheTTL int
}

func NewCachedClassifier(inner domain.Classifier, cache domain.Cache, model string, ttlSec int) *CachedClassifier {
	return &CachedClassifier{inner: inner, cache: cache, model: model, cacheTTL: ttlSec}
}

func (c *CachedClassifier) Classify(ctx context.Context, texts []string) ([]domain.Sentiment, error) {
	out := make([]domain.Sentiment, len(texts))
	var missIdx []int
	var missTexts []string
	for i, t := range texts {
		var s domain.Sentiment
		if ok, err := c.cache.Get(ctx, c.key(t), &s); err == nil && ok {
			out[i] = s
			continue
		}
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, t)
	}
	if len(missTexts) == 0 {
		return out, nil
	}

	res, err := c.inner.Classify(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	if len(res) != len(missTexts) {
		return nil, fmt.Errorf("%w: sent %d texts, got %d results", domain.ErrClassifierMismatch, len(missTexts), len(res))
	}
	for j, i := range missIdx {
		out[i] = res[j]
		_ = c.cache.Set(ctx, c.key(missTexts[j]), res[j], c.cacheTTL)
	}
	return out, nil
}

func (c *CachedClassifier) key(text string) string {
	sum := sha1.Sum([]byte(text))
	return fmt.Sprintf("sentiment:%s:%s", c.model, hex.EncodeToString(sum[:]))
}
