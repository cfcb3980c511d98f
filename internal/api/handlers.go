package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/san-kum/placesim/internal/apierr"
	"github.com/san-kum/placesim/internal/export"
	"github.com/san-kum/placesim/internal/placement"
	"github.com/san-kum/placesim/internal/query"
	"github.com/san-kum/placesim/internal/sim"
	"github.com/san-kum/placesim/internal/stats"
	"github.com/san-kum/placesim/internal/storage"
)

const (
	defaultLimit = 100
	maxBody      = 1 << 20
)

// Message is the acknowledgement shape of the action routes.
type Message struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type Health struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// Page is one window of a listing.
type Page[T any] struct {
	Data   []T `json:"data"`
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// CompanyView is a company as listed by /api/companies.
type CompanyView struct {
	CompanyID          string   `json:"company_id"`
	CompanyName        string   `json:"company_name"`
	JobRole            string   `json:"job_role"`
	AllowedDepartments []string `json:"allowed_departments"`
	MinCGPA            float64  `json:"min_cgpa"`
	RequiredSkills     []string `json:"required_skills"`
	ArrivalDay         int      `json:"arrival_day"`
	MinOffers          int      `json:"min_offers"`
	MaxOffers          int      `json:"max_offers"`
	InterviewSlots     int      `json:"interview_slots"`
}

func companyView(c *placement.Company) CompanyView {
	return CompanyView{
		CompanyID:          c.ID(),
		CompanyName:        c.Name,
		JobRole:            c.JobRole,
		AllowedDepartments: c.AllowedDepartments,
		MinCGPA:            c.MinCGPA,
		RequiredSkills:     c.RequiredSkills,
		ArrivalDay:         c.VisitDay,
		MinOffers:          c.MinHires,
		MaxOffers:          c.MaxHires,
		InterviewSlots:     c.InterviewSlots,
	}
}

// RunView is a stored run as served by /api/runs/{id}.
type RunView struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	CreatedAt   time.Time   `json:"created_at"`
	Fingerprint string      `json:"fingerprint"`
	Config      sim.Config  `json:"config"`
	Result      *sim.Result `json:"result"`
}

func invalid(format string, args ...any) error {
	return apierr.E(apierr.KindInvalidInput, fmt.Sprintf(format, args...))
}

func intParam(r *http.Request, name string, def int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, invalid("%s must be an integer", name)
	}
	return v, nil
}

func floatParam(r *http.Request, name string) (*float64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, invalid("%s must be a number", name)
	}
	return &v, nil
}

// window reads limit and offset; both must be non-negative.
func window(r *http.Request) (limit, offset int, err error) {
	if limit, err = intParam(r, "limit", defaultLimit); err != nil {
		return 0, 0, err
	}
	if offset, err = intParam(r, "offset", 0); err != nil {
		return 0, 0, err
	}
	if limit < 0 {
		return 0, 0, invalid("limit must be non-negative")
	}
	if offset < 0 {
		return 0, 0, invalid("offset must be non-negative")
	}
	return limit, offset, nil
}

func paginate[T any](items []T, limit, offset int) Page[T] {
	total := len(items)
	lo := min(offset, total)
	hi := total
	if limit < total-lo {
		hi = lo + limit
	}
	data := make([]T, hi-lo)
	copy(data, items[lo:hi])
	return Page[T]{Data: data, Total: total, Limit: limit, Offset: offset}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	_ = WriteJSON(w, http.StatusOK, Health{Status: "healthy", Timestamp: time.Now().Format(time.RFC3339)})
}

func (s *Server) handleDataLoad(w http.ResponseWriter, r *http.Request) {
	if err := s.reload(r.Context()); err != nil {
		log.Printf("data reload failed err=%v", err)
		writeError(w, apierr.E(apierr.KindInternal, "Failed to load data"))
		return
	}
	_ = WriteJSON(w, http.StatusOK, Message{Status: "success", Message: "Data loaded successfully"})
}

func (s *Server) handleStudents(w http.ResponseWriter, r *http.Request) {
	_, students, err := s.snapshot()
	if err != nil {
		writeError(w, err)
		return
	}
	limit, offset, err := window(r)
	if err != nil {
		writeError(w, err)
		return
	}

	q := r.URL.Query()
	params := query.Params{
		Department: strings.TrimSpace(q.Get("department")),
		Status:     strings.TrimSpace(q.Get("status")),
	}
	if params.CGPAMin, err = floatParam(r, "cgpa_min"); err != nil {
		writeError(w, err)
		return
	}
	if params.CGPAMax, err = floatParam(r, "cgpa_max"); err != nil {
		writeError(w, err)
		return
	}
	expr, err := query.Compile(q.Get("filter"))
	if err != nil {
		writeError(w, apierr.Wrap(apierr.KindInvalidInput, err))
		return
	}

	matched := query.Apply(students, query.And(query.FromParams(params), expr))
	_ = WriteJSON(w, http.StatusOK, paginate(matched, limit, offset))
}

func (s *Server) handleCompanies(w http.ResponseWriter, r *http.Request) {
	data, _, err := s.snapshot()
	if err != nil {
		writeError(w, err)
		return
	}
	limit, offset, err := window(r)
	if err != nil {
		writeError(w, err)
		return
	}
	role := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("role")))
	day, err := intParam(r, "day", 0)
	if err != nil {
		writeError(w, err)
		return
	}

	var views []CompanyView
	for i := range data.Companies {
		c := &data.Companies[i]
		if role != "" && !strings.Contains(strings.ToLower(c.JobRole), role) {
			continue
		}
		if day != 0 && c.VisitDay != day {
			continue
		}
		views = append(views, companyView(c))
	}
	_ = WriteJSON(w, http.StatusOK, paginate(views, limit, offset))
}

func (s *Server) handleDepartments(w http.ResponseWriter, _ *http.Request) {
	_, students, err := s.snapshot()
	if err != nil {
		writeError(w, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, map[string][]string{"departments": stats.DepartmentCodes(students)})
}

func (s *Server) handleDomains(w http.ResponseWriter, _ *http.Request) {
	_, students, err := s.snapshot()
	if err != nil {
		writeError(w, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, map[string][]string{"domains": stats.DomainNames(students)})
}

func (s *Server) handleSummary(w http.ResponseWriter, _ *http.Request) {
	data, students, err := s.snapshot()
	if err != nil {
		writeError(w, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, stats.Summary(students, data.Companies))
}

func (s *Server) handleDepartmentStats(w http.ResponseWriter, _ *http.Request) {
	_, students, err := s.snapshot()
	if err != nil {
		writeError(w, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, map[string][]stats.DepartmentStats{"departments": stats.Departments(students)})
}

func (s *Server) handleCGPAStats(w http.ResponseWriter, _ *http.Request) {
	_, students, err := s.snapshot()
	if err != nil {
		writeError(w, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, stats.CGPADistribution(students))
}

func (s *Server) handleDomainStats(w http.ResponseWriter, _ *http.Request) {
	_, students, err := s.snapshot()
	if err != nil {
		writeError(w, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, stats.Domains(students))
}

func (s *Server) handleCompanyStats(w http.ResponseWriter, _ *http.Request) {
	data, _, err := s.snapshot()
	if err != nil {
		writeError(w, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, stats.Companies(data.Companies))
}

// handleRun starts a background run. Fields missing from the body keep their
// defaults.
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	cfg := sim.DefaultConfig()
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		writeError(w, invalid("read body: %v", err))
		return
	}
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &cfg); err != nil {
			writeError(w, invalid("invalid simulation config: %v", err))
			return
		}
	}
	if err := cfg.Validate(); err != nil {
		writeError(w, apierr.Wrap(apierr.KindInvalidInput, err))
		return
	}

	if err := s.runner.Start(context.WithoutCancel(r.Context()), cfg); err != nil {
		if errors.Is(err, ErrRunInProgress) {
			writeError(w, apierr.Wrap(apierr.KindConflict, err))
			return
		}
		writeError(w, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, Message{Status: "started", Message: "Simulation started"})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	_ = WriteJSON(w, http.StatusOK, s.runner.Status())
}

func (s *Server) latest(w http.ResponseWriter) (*Completed, bool) {
	c, err := s.runner.Latest()
	if err != nil {
		writeError(w, apierr.Wrap(apierr.KindNotFound, err))
		return nil, false
	}
	return c, true
}

func (s *Server) handleResults(w http.ResponseWriter, _ *http.Request) {
	c, ok := s.latest(w)
	if !ok {
		return
	}
	_ = WriteJSON(w, http.StatusOK, c.Result)
}

func (s *Server) handlePlacements(w http.ResponseWriter, _ *http.Request) {
	c, ok := s.latest(w)
	if !ok {
		return
	}
	_ = WriteJSON(w, http.StatusOK, stats.Placements(c.Result.Students))
}

func (s *Server) handleCompanyWise(w http.ResponseWriter, _ *http.Request) {
	c, ok := s.latest(w)
	if !ok {
		return
	}
	_ = WriteJSON(w, http.StatusOK, stats.CompanyWise(c.Result.Companies))
}

func (s *Server) handleMinHires(w http.ResponseWriter, r *http.Request) {
	day, err := intParam(r, "day", 0)
	if err != nil {
		writeError(w, err)
		return
	}
	c, ok := s.latest(w)
	if !ok {
		return
	}
	_ = WriteJSON(w, http.StatusOK, stats.MinHireReport(c.Result.Companies, day))
}

func (s *Server) handleExport(format string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, ok := s.latest(w)
		if !ok {
			return
		}
		var buf bytes.Buffer
		d := export.Data{
			RunID:       c.RunID,
			CreatedAt:   c.FinishedAt,
			Fingerprint: c.Fingerprint,
			Config:      c.Config,
			Result:      c.Result,
		}
		if err := export.Write(&buf, format, d); err != nil {
			writeError(w, fmt.Errorf("export %s: %w", format, err))
			return
		}
		w.Header().Set("Content-Type", export.ContentType(format))
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="placement_results.%s"`, format))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(buf.Bytes())
	}
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	format := strings.ToLower(r.URL.Query().Get("format"))
	contentType := "image/png"
	switch format {
	case "", "png":
	case "svg":
		contentType = "image/svg+xml"
	default:
		writeError(w, invalid("format must be png or svg"))
		return
	}

	var buf bytes.Buffer
	var err error
	switch name := r.PathValue("name"); name {
	case "department", "cgpa":
		_, students, serr := s.snapshot()
		if serr != nil {
			writeError(w, serr)
			return
		}
		if name == "department" {
			err = export.DepartmentChart(&buf, format, stats.Departments(students))
		} else {
			err = export.CGPAChart(&buf, format, stats.CGPADistribution(students))
		}
	case "companies":
		c, ok := s.latest(w)
		if !ok {
			return
		}
		err = export.CompanyChart(&buf, format, c.Result.Companies)
	default:
		writeError(w, apierr.E(apierr.KindNotFound, fmt.Sprintf("unknown chart %q", name)))
		return
	}
	if errors.Is(err, export.ErrNoData) {
		writeError(w, apierr.Wrap(apierr.KindNotFound, err))
		return
	}
	if err != nil {
		writeError(w, fmt.Errorf("render chart: %w", err))
		return
	}
	w.Header().Set("Content-Type", contentType)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) requireStore() error {
	if s.store == nil {
		return apierr.E(apierr.KindUnavailable, "run history is disabled")
	}
	return nil
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if err := s.requireStore(); err != nil {
		writeError(w, err)
		return
	}
	limit, err := intParam(r, "limit", 0)
	if err != nil {
		writeError(w, err)
		return
	}
	if limit < 0 {
		writeError(w, invalid("limit must be non-negative"))
		return
	}
	runs, err := s.store.List(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if runs == nil {
		runs = []storage.RunMetadata{}
	}
	_ = WriteJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func (s *Server) handleStoredRun(w http.ResponseWriter, r *http.Request) {
	if err := s.requireStore(); err != nil {
		writeError(w, err)
		return
	}
	run, err := s.store.Load(r.Context(), r.PathValue("id"))
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, apierr.Wrap(apierr.KindNotFound, err))
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, RunView{
		ID:          run.ID,
		Name:        run.Name,
		CreatedAt:   run.CreatedAt,
		Fingerprint: run.Fingerprint,
		Config:      run.Config,
		Result:      run.Result,
	})
}
