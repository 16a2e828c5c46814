package httpserver

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"review_insight/internal/adapters/observability"
	"review_insight/internal/app"
	"review_insight/internal/domain"
)

type Handlers struct {
	S            *app.InsightService
	DefaultMonth time.Month
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Get("/v1/sections", h.listSections)
	s.mux.Get("/v1/reviews", h.getReviews)
	s.mux.Get("/v1/products", h.getProducts)
	s.mux.Get("/v1/testimonials", h.getTestimonials)

	s.mux.Get("/", h.dashboard)
	s.mux.Get("/sections/{section}", h.dashboard)
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// statusOf maps pipeline errors to an HTTP status and problem title.
func statusOf(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidMonth):
		return http.StatusBadRequest, "Invalid month"
	case errors.Is(err, domain.ErrClassifierUnavailable):
		return http.StatusServiceUnavailable, "Sentiment model unavailable"
	case errors.Is(err, domain.ErrClassification):
		return http.StatusBadGateway, "Sentiment analysis failed"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "Not Found"
	default:
		return http.StatusInternalServerError, "Internal Server Error"
	}
}

// errKind is a stable log label for pipeline errors.
func errKind(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, domain.ErrInvalidMonth):
		return "invalid_month"
	case errors.Is(err, domain.ErrClassifierUnavailable):
		return "classifier_unavailable"
	case errors.Is(err, domain.ErrClassifierMismatch):
		return "classifier_mismatch"
	case errors.Is(err, domain.ErrClassification):
		return "classification"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "internal"
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

func writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	etag, body := calcETagAndBody(v)
	if body == nil {
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "could not encode response")
		return
	}
	// If client already has this version, short-circuit.
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("failed to write body")
	}
}

// reviewsQuery reads ?month= (default h.DefaultMonth) and ?wordcloud= (default true).
func (h *Handlers) reviewsQuery(r *http.Request) (app.ReviewsQuery, error) {
	q := app.ReviewsQuery{Month: h.DefaultMonth, WordCloud: true}
	if m := r.URL.Query().Get("month"); m != "" {
		month, err := domain.ParseMonth(m)
		if err != nil {
			return q, err
		}
		q.Month = month
	}
	if wc := r.URL.Query().Get("wordcloud"); wc != "" {
		on, err := strconv.ParseBool(wc)
		if err != nil {
			return q, errors.New("wordcloud must be a boolean")
		}
		q.WordCloud = on
	}
	return q, nil
}

// runReviews executes one reviews cycle and records its outcome.
func (h *Handlers) runReviews(r *http.Request, q app.ReviewsQuery) (app.ReviewsView, error) {
	view, err := h.S.Reviews(r.Context(), q)
	switch {
	case err != nil:
		observability.ObservePipeline(domain.SectionReviews, "error")
		log.Warn().Err(err).Str("kind", errKind(err)).Str("month", q.Month.String()).Msg("reviews cycle failed")
	case !view.Available:
		observability.ObservePipeline(domain.SectionReviews, "no_data")
	default:
		observability.ObservePipeline(domain.SectionReviews, "ok")
	}
	if err == nil && len(view.Reviews) > 0 {
		counts := make(map[string]int, len(view.Summary.Labels))
		for _, ls := range view.Summary.Labels {
			counts[ls.Label] = ls.Count
		}
		observability.ObserveClassified(counts)
	}
	return view, err
}

func (h *Handlers) runTable(r *http.Request, section string) (app.TableView, error) {
	var (
		view app.TableView
		err  error
	)
	switch section {
	case domain.SectionProducts:
		view, err = h.S.Products(r.Context())
	case domain.SectionTestimonials:
		view, err = h.S.Testimonials(r.Context())
	default:
		return app.TableView{}, domain.ErrNotFound
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	} else if !view.Available {
		outcome = "no_data"
	}
	observability.ObservePipeline(section, outcome)
	return view, err
}

func (h *Handlers) listSections(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, map[string][]string{"sections": h.S.Sections()})
}

func (h *Handlers) getReviews(w http.ResponseWriter, r *http.Request) {
	q, err := h.reviewsQuery(r)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid query", err.Error())
		return
	}
	view, err := h.runReviews(r, q)
	if err != nil {
		status, title := statusOf(err)
		writeProblem(w, status, title, err.Error())
		return
	}
	writeJSON(w, r, view)
}

func (h *Handlers) getProducts(w http.ResponseWriter, r *http.Request) {
	h.getTable(w, r, domain.SectionProducts)
}

func (h *Handlers) getTestimonials(w http.ResponseWriter, r *http.Request) {
	h.getTable(w, r, domain.SectionTestimonials)
}

func (h *Handlers) getTable(w http.ResponseWriter, r *http.Request, section string) {
	view, err := h.runTable(r, section)
	if err != nil {
		status, title := statusOf(err)
		writeProblem(w, status, title, err.Error())
		return
	}
	writeJSON(w, r, view)
}
