// Package csvtable reads the dashboard's delimited tables from a directory.
package csvtable

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"review_insight/internal/domain"
)

type Dir struct{ root string }

func New(root string) *Dir { return &Dir{root: root} }

// LoadTable reads name (relative to the directory, or absolute) as CSV with a
// header row. A missing file returns domain.ErrNotFound.
func (d *Dir) LoadTable(ctx context.Context, name string) (domain.Table, error) {
	path := name
	if !filepath.IsAbs(path) {
		path = filepath.Join(d.root, name)
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Warn().Str("file", path).Msg("table file not found")
			return domain.Table{}, fmt.Errorf("%s: %w", name, domain.ErrNotFound)
		}
		return domain.Table{}, err
	}
	defer f.Close()

	t, err := Parse(f)
	if err != nil {
		return domain.Table{}, fmt.Errorf("parse %s: %w", name, err)
	}
	t.Name = name
	log.Info().Str("file", path).Int("rows", t.Len()).Int("columns", len(t.Columns)).Msg("table loaded")
	return t, nil
}

// Parse reads a CSV stream whose first record is the header. Ragged rows are
// accepted; an empty stream yields an empty table.
func Parse(r io.Reader) (domain.Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return domain.Table{Columns: []string{}, Rows: [][]string{}}, nil
	}
	if err != nil {
		return domain.Table{}, err
	}
	for i, h := range header {
		h = strings.TrimSpace(h)
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		header[i] = h
	}

	t := domain.Table{Columns: header, Rows: [][]string{}}
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return domain.Table{}, err
		}
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}
		t.Rows = append(t.Rows, rec)
	}
	return t, nil
}
