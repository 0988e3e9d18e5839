// Package searchstub serves an in-memory imitation of the asynchronous BLAST
// REST API spoken by httpsearch. It backs tests and local dry runs.
package searchstub

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"blastfasta/internal/search"
	"blastfasta/internal/search/httpsearch"
)

// Options configures the Server
type Options struct {
	// Hits produces the ranked hits for a query; nil means DefaultHits
	Hits func(db, sequence string) []search.Hit

	// Fail marks a query whose job should end in FAILURE
	Fail func(sequence string) bool

	// Delay keeps each job RUNNING for this long after submission
	Delay time.Duration
}

type job struct {
	db       string
	sequence string
	created  time.Time
}

// Server is an http.Handler implementing /run, /status/{id} and /result/{id}/json.
type Server struct {
	opts   Options
	router chi.Router
	now    func() time.Time

	mu   sync.Mutex
	jobs map[string]job
}

// New builds a Server
func New(o Options) *Server {
	if o.Hits == nil {
		o.Hits = DefaultHits
	}
	s := &Server{opts: o, now: time.Now, jobs: map[string]job{}}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Post("/run", s.handleRun)
	r.Get("/status/{id}", s.handleStatus)
	r.Get("/result/{id}/json", s.handleResult)
	s.router = r
	return s
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.router.ServeHTTP(w, r) }

// Jobs is the number of jobs submitted so far
func (s *Server) Jobs() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// DefaultHits returns one deterministic hit derived from the query.
func DefaultHits(db, sequence string) []search.Hit {
	q := prefix8(sequence)
	return []search.Hit{{
		ID:      fmt.Sprintf("%s_STUB%s", strings.ToUpper(db), q),
		Summary: fmt.Sprintf("Stub cluster for %s (n=%d)", q, len(sequence)),
	}}
}

func prefix8(s string) string {
	if len(s) > 8 {
		return s[:8]
	}
	return s
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form: "+err.Error(), http.StatusBadRequest)
		return
	}
	seq := strings.TrimSpace(r.PostForm.Get("sequence"))
	db := strings.TrimSpace(r.PostForm.Get("database"))
	if seq == "" || db == "" {
		http.Error(w, "sequence and database are required", http.StatusBadRequest)
		return
	}
	id := "stub-" + uuid.NewString()
	s.mu.Lock()
	s.jobs[id] = job{db: db, sequence: seq, created: s.now()}
	s.mu.Unlock()

	w.Header().Set("Content-Type", "text/plain")
	_, _ = fmt.Fprint(w, id)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	j, ok := s.lookup(chi.URLParam(r, "id"))
	if !ok {
		_, _ = fmt.Fprint(w, httpsearch.StatusNotFound)
		return
	}
	_, _ = fmt.Fprint(w, s.status(j))
}

func (s *Server) handleResult(w http.ResponseWriter, r *http.Request) {
	j, ok := s.lookup(chi.URLParam(r, "id"))
	if !ok || s.status(j) != httpsearch.StatusFinished {
		http.Error(w, "no result for job", http.StatusNotFound)
		return
	}
	var out httpsearch.WireResult
	out.Hits = []httpsearch.WireHit{}
	for _, h := range s.opts.Hits(j.db, j.sequence) {
		out.Hits = append(out.Hits, httpsearch.WireHit{Accession: h.ID, Description: h.Summary})
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}

func (s *Server) lookup(id string) (job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	return j, ok
}

func (s *Server) status(j job) string {
	if s.now().Sub(j.created) < s.opts.Delay {
		return httpsearch.StatusRunning
	}
	if s.opts.Fail != nil && s.opts.Fail(j.sequence) {
		return httpsearch.StatusFailure
	}
	return httpsearch.StatusFinished
}
