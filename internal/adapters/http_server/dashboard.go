package httpserver

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"math"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"review_insight/internal/app"
	"review_insight/internal/domain"
)

//go:embed templates/*.html
var templatesFS embed.FS

var dashboardTmpl = template.Must(template.New("dashboard.html").Funcs(template.FuncMap{
	"pct": func(f float64) string { return fmt.Sprintf("%.1f%%", f*100) },
}).ParseFS(templatesFS, "templates/*.html"))

// bar is one label of the average-confidence chart.
type bar struct {
	Label string
	Mean  float64
	Width int // percent, 100 = confidence 1.0
}

type cloudWord struct {
	Word  string
	Count int
	Size  int // px
}

type page struct {
	Section   string
	Sections  []string
	Months    []string
	Month     string
	WordCloud bool
	Error     string

	Reviews  *app.ReviewsView
	Positive int
	Negative int
	Bars     []bar
	Cloud    []cloudWord

	Table *app.TableView
}

// canonicalSection resolves a URL section name case-insensitively.
func canonicalSection(name string) (string, bool) {
	for _, s := range domain.Sections {
		if strings.EqualFold(s, name) {
			return s, true
		}
	}
	return "", false
}

func (h *Handlers) dashboard(w http.ResponseWriter, r *http.Request) {
	section := domain.SectionReviews
	if name := chi.URLParam(r, "section"); name != "" {
		var ok bool
		if section, ok = canonicalSection(name); !ok {
			writeProblem(w, http.StatusNotFound, "Not Found", "unknown section "+name)
			return
		}
	}
	p := page{
		Section:  section,
		Sections: h.S.Sections(),
		Months:   domain.MonthNames,
		Month:    h.DefaultMonth.String(),
	}

	status := http.StatusOK
	switch section {
	case domain.SectionReviews:
		q, err := h.reviewsQuery(r)
		if err != nil {
			status, p.Error = http.StatusBadRequest, err.Error()
			break
		}
		p.Month, p.WordCloud = q.Month.String(), q.WordCloud
		view, err := h.runReviews(r, q)
		if err != nil {
			status, p.Error = statusOf(err)
			break
		}
		p.fillReviews(&view)
	case domain.SectionProducts, domain.SectionTestimonials:
		view, err := h.runTable(r, section)
		if err != nil {
			status, p.Error = statusOf(err)
			break
		}
		p.Table = &view
	}

	var buf bytes.Buffer
	if err := dashboardTmpl.Execute(&buf, p); err != nil {
		log.Error().Err(err).Str("section", section).Msg("render dashboard failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "render failed")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (p *page) fillReviews(v *app.ReviewsView) {
	p.Reviews = v
	p.Positive = v.Summary.Count("POSITIVE")
	p.Negative = v.Summary.Count("NEGATIVE")

	for _, ls := range v.Summary.Labels {
		p.Bars = append(p.Bars, bar{Label: ls.Label, Mean: ls.MeanConfidence, Width: int(math.Round(100 * ls.MeanConfidence))})
	}

	if v.WordCloud == nil || len(v.WordCloud.Words) == 0 {
		return
	}
	top := v.WordCloud.Words[0].Count
	for _, wc := range v.WordCloud.Words {
		p.Cloud = append(p.Cloud, cloudWord{Word: wc.Word, Count: wc.Count, Size: 12 + 36*wc.Count/top})
	}
}
