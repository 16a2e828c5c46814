package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"review_insight/internal/domain"
)

func valStr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

func valNonEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

func (r *Repo) UpsertReviews(ctx context.Context, rs []domain.Review) error {
	if len(rs) == 0 {
		return nil
	}
	values := make([]string, 0, len(rs))
	args := make([]any, 0, len(rs)*5) // 5 params per row
	for _, rv := range rs {
		if rv.SourceID == nil {
			return fmt.Errorf("review at seq %d has no source id", rv.Seq)
		}
		fields, err := json.Marshal(rv.Fields)
		if err != nil {
			return err
		}
		// Columns (from insertReviewsPrefix): (source_id, seq, raw_date, `text`, fields)
		values = append(values, "(?,?,?,?,?)")
		args = append(args,
			valStr(rv.SourceID),
			rv.Seq,
			valNonEmpty(rv.RawDate),
			rv.Text,
			string(fields),
		)
	}
	sqlStr := insertReviewsPrefix + strings.Join(values, ",") + insertReviewsOnDup
	_, err := r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

// LoadReviews returns every stored review in source order. An empty table is
// reported as domain.ErrNotFound so the dashboard shows its no-data state.
func (r *Repo) LoadReviews(ctx context.Context) (domain.ReviewSet, error) {
	rows, err := r.db.QueryContext(ctx, listReviewsSQL)
	if err != nil {
		return domain.ReviewSet{}, err
	}
	defer rows.Close()

	var out []domain.Review
	for rows.Next() {
		var sourceID string
		var rawDate, text sql.NullString
		var fieldsJSON []byte
		if err := rows.Scan(&sourceID, &rawDate, &text, &fieldsJSON); err != nil {
			return domain.ReviewSet{}, err
		}
		rv, err := rebuild(sourceID, rawDate, text, fieldsJSON)
		if err != nil {
			return domain.ReviewSet{}, err
		}
		rv.Seq = len(out)
		out = append(out, rv)
	}
	if err := rows.Err(); err != nil {
		return domain.ReviewSet{}, err
	}
	if len(out) == 0 {
		return domain.ReviewSet{}, fmt.Errorf("reviews table: %w", domain.ErrNotFound)
	}
	return domain.ReviewSet{Columns: domain.ColumnsOf(out), Reviews: out}, nil
}

func (r *Repo) CountReviews(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, countReviewsSQL).Scan(&n)
	return n, err
}

// rebuild re-parses a stored row; date and review_text columns win over the
// JSON copy so a manual UPDATE on them is honored.
func rebuild(sourceID string, rawDate, text sql.NullString, fieldsJSON []byte) (domain.Review, error) {
	fields := map[string]string{}
	if len(fieldsJSON) > 0 {
		if err := json.Unmarshal(fieldsJSON, &fields); err != nil {
			return domain.Review{}, fmt.Errorf("review %s: bad fields: %w", sourceID, err)
		}
	}
	if rawDate.Valid {
		fields[domain.ColDate] = rawDate.String
	}
	if text.Valid {
		fields[domain.ColText] = text.String
	}
	rv := domain.NewReview(fields)
	rv.SourceID = &sourceID
	return rv, nil
}
