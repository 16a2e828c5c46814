package domain

import (
	"sort"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// Column names the pipeline reads from the reviews table.
const (
	ColDate = "date"
	ColText = "review_text"
	ColID   = "id"
)

type Review struct {
	SourceID *string           `json:"source_id,omitempty"`
	Date     *time.Time        `json:"date,omitempty"` // nil when RawDate is missing or unparseable
	RawDate  string            `json:"raw_date"`
	Text     string            `json:"review_text"`
	Fields   map[string]string `json:"fields"`
	Seq      int               `json:"-"` // position in the source table
}

type Sentiment struct {
	Label      string  `json:"sentiment_label"`
	Confidence float64 `json:"confidence"`
}

type ClassifiedReview struct {
	Review
	Sentiment
}

// ReviewSet is the loaded reviews table: column order for display plus the parsed rows.
type ReviewSet struct {
	Columns []string `json:"columns"`
	Reviews []Review `json:"reviews"`
}

// NewReview builds a Review from one source row. The date is parsed permissively;
// anything dateparse rejects leaves Date nil.
func NewReview(fields map[string]string) Review {
	r := Review{
		RawDate: strings.TrimSpace(fields[ColDate]),
		Text:    fields[ColText],
		Fields:  fields,
	}
	if id := strings.TrimSpace(fields[ColID]); id != "" {
		r.SourceID = &id
	}
	if t, ok := ParseDate(r.RawDate); ok {
		r.Date = &t
	}
	return r
}

// ParseDate accepts the usual spreadsheet/CSV date spellings (ISO, US slashes,
// "August 1, 2023", RFC timestamps...). Values without a zone are read as UTC.
func ParseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	t, err := dateparse.ParseIn(raw, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// ColumnsOf lists the columns present across reviews: date and review_text
// first, then the remaining field names alphabetically. Used when the source
// (a database) does not remember the original header order.
func ColumnsOf(reviews []Review) []string {
	seen := map[string]bool{ColDate: true, ColText: true}
	var rest []string
	for _, r := range reviews {
		for k := range r.Fields {
			if !seen[k] {
				seen[k] = true
				rest = append(rest, k)
			}
		}
	}
	sort.Strings(rest)
	return append([]string{ColDate, ColText}, rest...)
}
