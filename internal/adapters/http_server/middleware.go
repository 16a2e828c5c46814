package httpserver

import (
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"review_insight/internal/adapters/observability"
)

// Timeout bounds handler time; a classifier call that outlives it yields 503.
func Timeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler { return http.TimeoutHandler(next, d, "timeout") }
}

// srw records the status a handler wrote.
type srw struct {
	http.ResponseWriter
	status int
}

func (w *srw) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *srw) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

func (w *srw) Status() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

// routeOf is the matched chi pattern. Unmatched paths share one label so
// scanners cannot blow up metric cardinality.
func routeOf(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &srw{ResponseWriter: w}
		next.ServeHTTP(sw, r)
		observability.ObserveHTTP(routeOf(r), r.Method, sw.Status(), time.Since(start))
	})
}

// Logger writes one line per request. Dashboard inputs (section, month,
// wordcloud) are included when present so a slow or failed cycle can be
// traced to what was asked for.
func Logger(l zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &srw{ResponseWriter: w}
			next.ServeHTTP(sw, r)

			ev := l.Info()
			if sw.Status() >= http.StatusInternalServerError {
				ev = l.Warn()
			}
			if s := chi.URLParam(r, "section"); s != "" {
				ev = ev.Str("section", s)
			}
			q := r.URL.Query()
			if m := q.Get("month"); m != "" {
				ev = ev.Str("month", m)
			}
			if wc := q.Get("wordcloud"); wc != "" {
				ev = ev.Str("wordcloud", wc)
			}
			ev.Str("request_id", chimw.GetReqID(r.Context())).
				Str("route", routeOf(r)).
				Str("method", r.Method).
				Int("status", sw.Status()).
				Dur("duration", time.Since(start)).
				Str("remote", remoteHost(r)).
				Msg("http_request")
		})
	}
}

// remoteHost strips the port; chimw.RealIP has already applied proxy headers.
func remoteHost(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}
