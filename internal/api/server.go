// Package api serves the placement dashboard REST API.
package api

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync"

	"github.com/san-kum/placesim/internal/apierr"
	"github.com/san-kum/placesim/internal/dataset"
	"github.com/san-kum/placesim/internal/sim"
	"github.com/san-kum/placesim/internal/storage"
	"golang.org/x/net/websocket"
)

// RunStore is the run history used by the server.
type RunStore interface {
	RunSaver
	List(ctx context.Context, limit int) ([]storage.RunMetadata, error)
	Load(ctx context.Context, id string) (*storage.Run, error)
}

type Options struct {
	Paths dataset.Paths
	// Store is optional; without it the history routes answer 503.
	Store RunStore
	// Loader replaces reading Paths at the start of each run.
	Loader Loader
}

// Server holds the dataset, the student view and the runner.
type Server struct {
	paths  dataset.Paths
	store  RunStore
	runner *Runner

	mu       sync.RWMutex
	data     *dataset.Dataset
	students []sim.StudentOutcome
}

// New loads the dataset and builds a server. A dataset that fails to load is
// logged; the data routes answer 503 until /api/data/load succeeds.
func New(ctx context.Context, opts Options) *Server {
	s := &Server{paths: opts.Paths, store: opts.Store}

	var saver RunSaver
	if opts.Store != nil {
		saver = opts.Store
	}
	load := opts.Loader
	if load == nil {
		load = func(ctx context.Context) (*dataset.Dataset, error) {
			return dataset.Load(ctx, s.paths)
		}
	}
	s.runner = NewRunner(load, saver)
	s.runner.OnComplete(func(c *Completed) {
		s.mu.Lock()
		s.students = c.Result.Students
		s.mu.Unlock()
	})

	if err := s.reload(ctx); err != nil {
		log.Printf("initial data load failed err=%v", err)
	}
	return s
}

// Runner exposes the background runner.
func (s *Server) Runner() *Runner { return s.runner }

// Close cancels any active run.
func (s *Server) Close() { s.runner.Close() }

func (s *Server) reload(ctx context.Context) error {
	data, err := dataset.Load(ctx, s.paths)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.data = data
	s.students = sim.Unplaced(data.Students)
	s.mu.Unlock()
	log.Printf("dataset loaded students=%d companies=%d serials=%d fingerprint=%s",
		len(data.Students), len(data.Companies), len(data.Order), data.Fingerprint)
	return nil
}

// snapshot returns the dataset and current student view.
func (s *Server) snapshot() (*dataset.Dataset, []sim.StudentOutcome, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.data == nil {
		return nil, nil, apierr.E(apierr.KindUnavailable, "data not loaded")
	}
	return s.data, s.students, nil
}

// Handler returns the routed API with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/data/load", s.handleDataLoad)

	mux.HandleFunc("GET /api/students", s.handleStudents)
	mux.HandleFunc("GET /api/companies", s.handleCompanies)
	mux.HandleFunc("GET /api/departments", s.handleDepartments)
	mux.HandleFunc("GET /api/domains", s.handleDomains)

	mux.HandleFunc("GET /api/stats/summary", s.handleSummary)
	mux.HandleFunc("GET /api/stats/department", s.handleDepartmentStats)
	mux.HandleFunc("GET /api/stats/cgpa", s.handleCGPAStats)
	mux.HandleFunc("GET /api/stats/domain", s.handleDomainStats)
	mux.HandleFunc("GET /api/stats/companies", s.handleCompanyStats)

	mux.HandleFunc("POST /api/simulation/run", s.handleRun)
	mux.HandleFunc("GET /api/simulation/status", s.handleStatus)
	mux.HandleFunc("GET /api/simulation/results", s.handleResults)
	mux.Handle("GET /api/simulation/stream", websocket.Server{Handler: s.handleStream})

	mux.HandleFunc("GET /api/results/placements", s.handlePlacements)
	mux.HandleFunc("GET /api/results/company-wise", s.handleCompanyWise)
	mux.HandleFunc("GET /api/results/min-hires", s.handleMinHires)

	mux.HandleFunc("GET /api/export/csv", s.handleExport("csv"))
	mux.HandleFunc("GET /api/export/xlsx", s.handleExport("xlsx"))
	mux.HandleFunc("GET /api/charts/{name}", s.handleChart)

	mux.HandleFunc("GET /api/runs", s.handleRuns)
	mux.HandleFunc("GET /api/runs/{id}", s.handleStoredRun)

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, apierr.E(apierr.KindNotFound, fmt.Sprintf("Not Found: %s", r.URL.Path)))
	})

	return Chain(mux, RequestID(), AccessLog(), RecoverPanic(), CORS())
}
