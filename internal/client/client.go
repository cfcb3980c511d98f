// Package client talks to a placesim API server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/san-kum/placesim/internal/api"
	"github.com/san-kum/placesim/internal/sim"
	"github.com/san-kum/placesim/internal/stats"
	"github.com/san-kum/placesim/internal/storage"
)

// DefaultPollInterval is the status polling period of WaitForCompletion.
const DefaultPollInterval = 1000 * time.Millisecond

// ErrSimulationFailed is returned when a run ends in the error state.
var ErrSimulationFailed = errors.New("simulation failed")

// APIError is a non-2xx response.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("api: status %d", e.StatusCode)
	}
	return fmt.Sprintf("api: status %d: %s", e.StatusCode, e.Detail)
}

// IsStatus reports whether err is an APIError with the given status code.
func IsStatus(err error, code int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == code
}

type Client struct {
	baseURL string
	http    *http.Client
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New creates a client for the server at baseURL, e.g. http://localhost:8000.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) do(ctx context.Context, method, path string, q url.Values, body any) (*http.Response, error) {
	endpoint := c.baseURL + path
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, r)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var eb api.ErrorBody
		if err := json.NewDecoder(resp.Body).Decode(&eb); err == nil {
			apiErr.Detail = eb.Detail
		}
		return nil, apiErr
	}
	return resp, nil
}

func (c *Client) getJSON(ctx context.Context, path string, q url.Values, out any) error {
	return c.sendJSON(ctx, http.MethodGet, path, q, nil, out)
}

func (c *Client) sendJSON(ctx context.Context, method, path string, q url.Values, body, out any) error {
	resp, err := c.do(ctx, method, path, q, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func (c *Client) Health(ctx context.Context) (api.Health, error) {
	var h api.Health
	err := c.getJSON(ctx, "/api/health", nil, &h)
	return h, err
}

// LoadData asks the server to reload its dataset.
func (c *Client) LoadData(ctx context.Context) (api.Message, error) {
	var m api.Message
	err := c.getJSON(ctx, "/api/data/load", nil, &m)
	return m, err
}

// StudentQuery holds the students filters. Zero values are omitted.
type StudentQuery struct {
	Department string
	CGPAMin    *float64
	CGPAMax    *float64
	Status     string
	Filter     string
	Limit      int
	Offset     int
}

func (q StudentQuery) values() url.Values {
	v := url.Values{}
	if q.Department != "" {
		v.Set("department", q.Department)
	}
	if q.CGPAMin != nil {
		v.Set("cgpa_min", strconv.FormatFloat(*q.CGPAMin, 'f', -1, 64))
	}
	if q.CGPAMax != nil {
		v.Set("cgpa_max", strconv.FormatFloat(*q.CGPAMax, 'f', -1, 64))
	}
	if q.Status != "" {
		v.Set("status", q.Status)
	}
	if q.Filter != "" {
		v.Set("filter", q.Filter)
	}
	setWindow(v, q.Limit, q.Offset)
	return v
}

func setWindow(v url.Values, limit, offset int) {
	if limit != 0 {
		v.Set("limit", strconv.Itoa(limit))
	}
	if offset != 0 {
		v.Set("offset", strconv.Itoa(offset))
	}
}

func (c *Client) Students(ctx context.Context, q StudentQuery) (api.Page[sim.StudentOutcome], error) {
	var p api.Page[sim.StudentOutcome]
	err := c.getJSON(ctx, "/api/students", q.values(), &p)
	return p, err
}

// CompanyQuery filters companies by role substring and arrival day.
type CompanyQuery struct {
	Role   string
	Day    int
	Limit  int
	Offset int
}

func (c *Client) Companies(ctx context.Context, q CompanyQuery) (api.Page[api.CompanyView], error) {
	v := url.Values{}
	if q.Role != "" {
		v.Set("role", q.Role)
	}
	if q.Day != 0 {
		v.Set("day", strconv.Itoa(q.Day))
	}
	setWindow(v, q.Limit, q.Offset)
	var p api.Page[api.CompanyView]
	err := c.getJSON(ctx, "/api/companies", v, &p)
	return p, err
}

func (c *Client) Departments(ctx context.Context) ([]string, error) {
	var out struct {
		Departments []string `json:"departments"`
	}
	err := c.getJSON(ctx, "/api/departments", nil, &out)
	return out.Departments, err
}

func (c *Client) Domains(ctx context.Context) ([]string, error) {
	var out struct {
		Domains []string `json:"domains"`
	}
	err := c.getJSON(ctx, "/api/domains", nil, &out)
	return out.Domains, err
}

func (c *Client) Summary(ctx context.Context) (stats.SummaryStats, error) {
	var s stats.SummaryStats
	err := c.getJSON(ctx, "/api/stats/summary", nil, &s)
	return s, err
}

func (c *Client) DepartmentStats(ctx context.Context) ([]stats.DepartmentStats, error) {
	var out struct {
		Departments []stats.DepartmentStats `json:"departments"`
	}
	err := c.getJSON(ctx, "/api/stats/department", nil, &out)
	return out.Departments, err
}

func (c *Client) CGPAStats(ctx context.Context) (stats.CGPAStats, error) {
	var s stats.CGPAStats
	err := c.getJSON(ctx, "/api/stats/cgpa", nil, &s)
	return s, err
}

func (c *Client) DomainStats(ctx context.Context) (stats.DomainStats, error) {
	var s stats.DomainStats
	err := c.getJSON(ctx, "/api/stats/domain", nil, &s)
	return s, err
}

func (c *Client) CompanyStats(ctx context.Context) (stats.CompanyStats, error) {
	var s stats.CompanyStats
	err := c.getJSON(ctx, "/api/stats/companies", nil, &s)
	return s, err
}

// RunSimulation starts a run. A conflict means another run is active.
func (c *Client) RunSimulation(ctx context.Context, cfg sim.Config) (api.Message, error) {
	var m api.Message
	err := c.sendJSON(ctx, http.MethodPost, "/api/simulation/run", nil, cfg, &m)
	return m, err
}

func (c *Client) Status(ctx context.Context) (api.Status, error) {
	var s api.Status
	err := c.getJSON(ctx, "/api/simulation/status", nil, &s)
	return s, err
}

func (c *Client) Results(ctx context.Context) (*sim.Result, error) {
	var r sim.Result
	if err := c.getJSON(ctx, "/api/simulation/results", nil, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func (c *Client) Placements(ctx context.Context) (stats.PlacementStats, error) {
	var p stats.PlacementStats
	err := c.getJSON(ctx, "/api/results/placements", nil, &p)
	return p, err
}

func (c *Client) CompanyWise(ctx context.Context) (stats.CompanyWiseStats, error) {
	var cw stats.CompanyWiseStats
	err := c.getJSON(ctx, "/api/results/company-wise", nil, &cw)
	return cw, err
}

// MinHires fetches the minimum-hire report; day 0 covers every day.
func (c *Client) MinHires(ctx context.Context, day int) (stats.MinHireStats, error) {
	v := url.Values{}
	if day != 0 {
		v.Set("day", strconv.Itoa(day))
	}
	var m stats.MinHireStats
	err := c.getJSON(ctx, "/api/results/min-hires", v, &m)
	return m, err
}

// Export streams the latest results as csv or xlsx into w.
func (c *Client) Export(ctx context.Context, format string, w io.Writer) error {
	resp, err := c.do(ctx, http.MethodGet, "/api/export/"+format, nil, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, err = io.Copy(w, resp.Body)
	return err
}

func (c *Client) Runs(ctx context.Context, limit int) ([]storage.RunMetadata, error) {
	v := url.Values{}
	if limit > 0 {
		v.Set("limit", strconv.Itoa(limit))
	}
	var out struct {
		Runs []storage.RunMetadata `json:"runs"`
	}
	err := c.getJSON(ctx, "/api/runs", v, &out)
	return out.Runs, err
}

func (c *Client) Run(ctx context.Context, id string) (*api.RunView, error) {
	var r api.RunView
	if err := c.getJSON(ctx, "/api/runs/"+url.PathEscape(id), nil, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// Poll fetches the status every interval, passing each one to fn, until the
// run reaches a terminal state or ctx ends. fn may be nil.
func (c *Client) Poll(ctx context.Context, interval time.Duration, fn func(api.Status)) (api.Status, error) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var last api.Status
	for {
		st, err := c.Status(ctx)
		if err != nil {
			return last, err
		}
		last = st
		if fn != nil {
			fn(st)
		}
		if st.Status.Terminal() {
			return st, nil
		}
		select {
		case <-ctx.Done():
			return st, ctx.Err()
		case <-ticker.C:
		}
	}
}

// WaitForCompletion polls until the run is completed or failed and returns
// the last status. A failed run yields ErrSimulationFailed.
func (c *Client) WaitForCompletion(ctx context.Context, interval time.Duration) (api.Status, error) {
	st, err := c.Poll(ctx, interval, nil)
	if err != nil {
		return st, err
	}
	if st.Status == api.StateError {
		return st, fmt.Errorf("%w: %s", ErrSimulationFailed, st.Message)
	}
	return st, nil
}
