package mock

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"stubrunner/pkg/logging"

	"github.com/gorilla/mux"
)

// TrafficRecorder is told about every request a mock server answers.
type TrafficRecorder interface {
	RecordRequest(alias string, matched bool)
}

// Handler routes requests to mappings. Mappings can be swapped while
// requests are being served.
type Handler struct {
	alias    string
	recorder TrafficRecorder

	mu       sync.RWMutex
	router   *mux.Router
	mappings []*Mapping
}

// NewHandler creates a handler serving mappings for alias. recorder may be nil.
func NewHandler(alias string, mappings []*Mapping, recorder TrafficRecorder) *Handler {
	h := &Handler{alias: alias, recorder: recorder}
	h.SetMappings(mappings)
	return h
}

// SetMappings replaces the served mappings. mappings must already be in
// priority order, as returned by LoadMappings.
func (h *Handler) SetMappings(mappings []*Mapping) {
	router := mux.NewRouter().SkipClean(true)
	for _, m := range mappings {
		router.NewRoute().
			MatcherFunc(func(r *http.Request, _ *mux.RouteMatch) bool { return m.Request.matches(r) }).
			Handler(h.respond(m))
	}
	router.NotFoundHandler = http.HandlerFunc(h.notFound)

	h.mu.Lock()
	h.router = router
	h.mappings = mappings
	h.mu.Unlock()
}

// Mappings returns the served mappings.
func (h *Handler) Mappings() []*Mapping {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.mappings
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	router := h.router
	h.mu.RUnlock()
	router.ServeHTTP(w, r)
}

func (h *Handler) record(matched bool) {
	if h.recorder != nil {
		h.recorder.RecordRequest(h.alias, matched)
	}
}

func (h *Handler) respond(m *Mapping) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.record(true)
		logging.Debug("MockServer", "[%s] %s %s matched %s", h.alias, r.Method, r.URL.RequestURI(), m)

		if d := m.Response.FixedDelayMilliseconds; d > 0 {
			timer := time.NewTimer(time.Duration(d) * time.Millisecond)
			select {
			case <-timer.C:
			case <-r.Context().Done():
				timer.Stop()
				return
			}
		}

		body, err := m.body(r)
		if err != nil {
			logging.Error("MockServer", err, "[%s] Failed to build response for %s", h.alias, m)
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		for k, v := range m.Response.Headers {
			w.Header().Set(k, v)
		}
		if m.Response.JSONBody != nil && w.Header().Get("Content-Type") == "" {
			w.Header().Set("Content-Type", "application/json")
		}

		status := m.Response.Status
		if status == 0 {
			status = http.StatusOK
		}
		w.WriteHeader(status)
		if len(body) > 0 && r.Method != http.MethodHead {
			_, _ = w.Write(body)
		}
	})
}

func (h *Handler) notFound(w http.ResponseWriter, r *http.Request) {
	h.record(false)
	logging.Debug("MockServer", "[%s] No mapping matched %s %s", h.alias, r.Method, r.URL.RequestURI())

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":        "no mapping matched the request",
		"collaborator": h.alias,
		"method":       r.Method,
		"url":          r.URL.RequestURI(),
	})
}

// matches reports whether r satisfies the pattern.
func (p *RequestPattern) matches(r *http.Request) bool {
	if p.Method != "" && p.Method != "ANY" && !strings.EqualFold(p.Method, r.Method) {
		return false
	}

	switch {
	case p.URL != "":
		if r.URL.RequestURI() != p.URL {
			return false
		}
	case p.URLPath != "":
		if r.URL.Path != p.URLPath {
			return false
		}
	case p.URLPattern != "":
		if !p.urlRegexp.MatchString(r.URL.RequestURI()) {
			return false
		}
	case p.URLPathPattern != "":
		if !p.urlRegexp.MatchString(r.URL.Path) {
			return false
		}
	}

	for name, vp := range p.Headers {
		values, present := r.Header[http.CanonicalHeaderKey(name)]
		if !vp.match(first(values), present) {
			return false
		}
	}

	query := r.URL.Query()
	for name, vp := range p.QueryParameters {
		values, present := query[name]
		if !vp.match(first(values), present) {
			return false
		}
	}
	return true
}

func first(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}
