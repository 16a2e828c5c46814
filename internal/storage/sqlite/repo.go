// Package sqlite stores ingested reviews in a single-file SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"review_insight/internal/domain"
)

//go:embed schema.sql
var schemaSQL string

const upsertReviewSQL = `INSERT INTO reviews (source_id, seq, raw_date, text, fields)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(source_id) DO UPDATE SET
  seq = excluded.seq,
  raw_date = COALESCE(excluded.raw_date, reviews.raw_date),
  text = COALESCE(excluded.text, reviews.text),
  fields = excluded.fields,
  updated_at = CURRENT_TIMESTAMP`

const listReviewsSQL = `SELECT source_id, raw_date, text, fields FROM reviews ORDER BY seq, id`

// Open opens (creating if needed) the database at path and applies the schema.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	// Writers serialize anyway; one connection also keeps ":memory:" coherent.
	db.SetMaxOpenConns(1)
	if err := InitDB(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// InitDB runs the embedded schema statements on db.
func InitDB(db *sql.DB) error {
	for _, s := range strings.Split(schemaSQL, ";") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

// UpsertReviews writes the batch in one transaction.
func (r *Repo) UpsertReviews(ctx context.Context, rs []domain.Review) error {
	if len(rs) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, upsertReviewSQL)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, rv := range rs {
		if rv.SourceID == nil {
			return fmt.Errorf("review at seq %d has no source id", rv.Seq)
		}
		fields, err := json.Marshal(rv.Fields)
		if err != nil {
			return err
		}
		var rawDate any
		if rv.RawDate != "" {
			rawDate = rv.RawDate
		}
		if _, err := stmt.ExecContext(ctx, *rv.SourceID, rv.Seq, rawDate, rv.Text, string(fields)); err != nil {
			return fmt.Errorf("upsert %s: %w", *rv.SourceID, err)
		}
	}
	return tx.Commit()
}

// LoadReviews returns stored reviews in source order, or domain.ErrNotFound
// when nothing has been ingested.
func (r *Repo) LoadReviews(ctx context.Context) (domain.ReviewSet, error) {
	rows, err := r.db.QueryContext(ctx, listReviewsSQL)
	if err != nil {
		return domain.ReviewSet{}, err
	}
	defer rows.Close()

	var out []domain.Review
	for rows.Next() {
		var sourceID, fieldsJSON string
		var rawDate, text sql.NullString
		if err := rows.Scan(&sourceID, &rawDate, &text, &fieldsJSON); err != nil {
			return domain.ReviewSet{}, err
		}
		fields := map[string]string{}
		if err := json.Unmarshal([]byte(fieldsJSON), &fields); err != nil {
			return domain.ReviewSet{}, fmt.Errorf("review %s: bad fields: %w", sourceID, err)
		}
		if rawDate.Valid {
			fields[domain.ColDate] = rawDate.String
		}
		if text.Valid {
			fields[domain.ColText] = text.String
		}
		rv := domain.NewReview(fields)
		rv.SourceID = &sourceID
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
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM reviews`).Scan(&n)
	return n, err
}
