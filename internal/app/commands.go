package app

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"review_insight/internal/domain"
)

// IngestionService copies the reviews table into a ReviewRepository so the
// API can serve reviews from a database instead of the CSV file.
type IngestionService struct {
	src  domain.TableSource
	repo domain.ReviewRepository
}

func NewIngestionService(src domain.TableSource, repo domain.ReviewRepository) *IngestionService {
	return &IngestionService{src: src, repo: repo}
}

// Plan loads the reviews table and splits it into upsert batches of size rows.
func (s *IngestionService) Plan(ctx context.Context, file string, size int) ([][]domain.Review, error) {
	if size <= 0 {
		return nil, fmt.Errorf("batch size must be positive, got %d", size)
	}
	t, err := s.src.LoadTable(ctx, file)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("reviews table %q: %w", file, err)
		}
		return nil, err
	}

	set := ReviewsFromTable(t)
	seen := map[string]int{}
	for i := range set.Reviews {
		if set.Reviews[i].SourceID == nil {
			id := rowSourceID(set.Reviews[i], seen)
			set.Reviews[i].SourceID = &id
		}
	}

	var out [][]domain.Review
	for start := 0; start < len(set.Reviews); start += size {
		end := start + size
		if end > len(set.Reviews) {
			end = len(set.Reviews)
		}
		out = append(out, set.Reviews[start:end])
	}
	return out, nil
}

func (s *IngestionService) IngestBatch(ctx context.Context, batch []domain.Review) error {
	if len(batch) == 0 {
		return nil
	}
	if err := s.repo.UpsertReviews(ctx, batch); err != nil {
		// do not swallow this; surface so we know inserts failed
		return fmt.Errorf("upsert %d reviews: %w", len(batch), err)
	}
	return nil
}

// rowSourceID keys a row without an id column by its content, so re-running the
// ingestor after rows were added or reordered updates instead of duplicating.
// Identical rows are told apart by their occurrence count, tracked in seen.
func rowSourceID(r domain.Review, seen map[string]int) string {
	keys := make([]string, 0, len(r.Fields))
	for k := range r.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	h := sha1.New()
	for _, k := range keys {
		h.Write([]byte(k))
		h.Write([]byte{0})
		h.Write([]byte(r.Fields[k]))
		h.Write([]byte{0})
	}
	id := "row-" + hex.EncodeToString(h.Sum(nil))

	n := seen[id]
	seen[id] = n + 1
	if n > 0 {
		id += "-" + strconv.Itoa(n+1)
	}
	return id
}
