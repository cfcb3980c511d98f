package api

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/san-kum/placesim/internal/dataset"
	"github.com/san-kum/placesim/internal/sim"
	"github.com/san-kum/placesim/internal/storage"
)

const studentsCSV = `roll_no,name,cgpa,domain_1,skills_for_domain_1,domain_2,skills_for_domain_2
21CS10001,Asha,9.1,SDE,"Python, DSA",Data,SQL
21CS10002,Bilal,8.2,SDE,Java,,
21EE10003,Chen,7.4,Core_EE,Verilog,,
21MA10004,Dara,6.8,Data,SQL,,
21CH10005,Esme,5.9,Finance,Excel,,
`

const companiesCSV = `company_name,job_role,allowed_departments,min_cgpa,required_skills,arrival_day,min_offers,max_offers
Google,SWE,ALL,7,Python,1,1,2
Texas Instruments,Core,EE,6.5,,1,1,1
Jane Street,Quant,ALL,8,,2,1,2
`

const orderCSV = `1.Google
2.Texas Instruments,Jane Street
`

func fixturePaths(t *testing.T) dataset.Paths {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"students.csv":  studentsCSV,
		"companies.csv": companiesCSV,
		"order.csv":     orderCSV,
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dataset.Paths{
		Students:  filepath.Join(dir, "students.csv"),
		Companies: filepath.Join(dir, "companies.csv"),
		Order:     filepath.Join(dir, "order.csv"),
	}
}

func newTestServer(t *testing.T, opts Options) (*Server, *httptest.Server) {
	t.Helper()
	if opts.Paths.Students == "" {
		opts.Paths = fixturePaths(t)
	}
	s := New(context.Background(), opts)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		ts.Close()
		s.Close()
	})
	return s, ts
}

func do(t *testing.T, method, url, body string) *http.Response {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, r)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func getJSON(t *testing.T, url string, wantStatus int, out any) {
	t.Helper()
	resp := do(t, http.MethodGet, url, "")
	if resp.StatusCode != wantStatus {
		b, _ := io.ReadAll(resp.Body)
		t.Fatalf("GET %s: status %d, want %d: %s", url, resp.StatusCode, wantStatus, b)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
}

func runToCompletion(t *testing.T, s *Server, ts *httptest.Server, body string) Status {
	t.Helper()
	resp := do(t, http.MethodPost, ts.URL+"/api/simulation/run", body)
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		t.Fatalf("run: status %d: %s", resp.StatusCode, b)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.Runner().Wait(ctx); err != nil {
		t.Fatalf("wait: %v", err)
	}
	return s.Runner().Status()
}

func TestHealth(t *testing.T) {
	_, ts := newTestServer(t, Options{})

	var h Health
	getJSON(t, ts.URL+"/api/health", http.StatusOK, &h)
	if h.Status != "healthy" || h.Timestamp == "" {
		t.Errorf("unexpected health %+v", h)
	}
}

func TestStudentsBeforeRun(t *testing.T) {
	_, ts := newTestServer(t, Options{})

	var page Page[sim.StudentOutcome]
	getJSON(t, ts.URL+"/api/students", http.StatusOK, &page)
	if page.Total != 5 || page.Limit != 100 || page.Offset != 0 || len(page.Data) != 5 {
		t.Fatalf("unexpected page %+v", page)
	}
	for _, s := range page.Data {
		if s.Status != "Unplaced" {
			t.Errorf("%s: status %s before any run", s.RollNo, s.Status)
		}
	}

	tests := []struct {
		query string
		total int
		n     int
	}{
		{"limit=2&offset=1", 5, 2},
		{"offset=10", 5, 0},
		{"department=CS", 2, 2},
		{"cgpa_min=7&cgpa_max=8.5", 2, 2},
		{"status=Placed", 0, 0},
		{"filter=" + url.QueryEscape(`cgpa >= 8.0 AND department = "CS"`), 2, 2},
		{"department=CS&filter=name+%3D+%22asha%22", 1, 1},
	}
	for _, tt := range tests {
		var p Page[sim.StudentOutcome]
		getJSON(t, ts.URL+"/api/students?"+tt.query, http.StatusOK, &p)
		if p.Total != tt.total || len(p.Data) != tt.n {
			t.Errorf("%s: total=%d n=%d, want total=%d n=%d", tt.query, p.Total, len(p.Data), tt.total, tt.n)
		}
	}
}

func TestStudentsBadParams(t *testing.T) {
	_, ts := newTestServer(t, Options{})

	for _, q := range []string{"limit=-1", "offset=-5", "limit=abc", "cgpa_min=high", "filter=cgpa+%3E%3D"} {
		var body ErrorBody
		getJSON(t, ts.URL+"/api/students?"+q, http.StatusBadRequest, &body)
		if body.Detail == "" {
			t.Errorf("%s: empty detail", q)
		}
	}
}

func TestCompanies(t *testing.T) {
	_, ts := newTestServer(t, Options{})

	var all Page[CompanyView]
	getJSON(t, ts.URL+"/api/companies", http.StatusOK, &all)
	if all.Total != 3 || all.Data[0].CompanyID != "Google_SWE" {
		t.Fatalf("unexpected companies %+v", all)
	}

	var core Page[CompanyView]
	getJSON(t, ts.URL+"/api/companies?role=CORE", http.StatusOK, &core)
	if core.Total != 1 || core.Data[0].CompanyName != "Texas Instruments" {
		t.Errorf("role filter: %+v", core)
	}

	var day2 Page[CompanyView]
	getJSON(t, ts.URL+"/api/companies?day=2", http.StatusOK, &day2)
	if day2.Total != 1 || day2.Data[0].ArrivalDay != 2 {
		t.Errorf("day filter: %+v", day2)
	}
}

func TestVocabularyAndStats(t *testing.T) {
	_, ts := newTestServer(t, Options{})

	var depts map[string][]string
	getJSON(t, ts.URL+"/api/departments", http.StatusOK, &depts)
	if got := strings.Join(depts["departments"], ","); got != "CH,CS,EE,MA" {
		t.Errorf("departments = %s", got)
	}

	var summary struct {
		TotalStudents  int `json:"total_students"`
		TotalCompanies int `json:"total_companies"`
		TotalPositions int `json:"total_positions"`
		MinPositions   int `json:"min_positions"`
	}
	getJSON(t, ts.URL+"/api/stats/summary", http.StatusOK, &summary)
	if summary.TotalStudents != 5 || summary.TotalCompanies != 3 || summary.TotalPositions != 5 || summary.MinPositions != 3 {
		t.Errorf("unexpected summary %+v", summary)
	}

	var cgpa struct {
		Overall []int `json:"overall"`
	}
	getJSON(t, ts.URL+"/api/stats/cgpa", http.StatusOK, &cgpa)
	sum := 0
	for _, n := range cgpa.Overall {
		sum += n
	}
	if sum != 5 {
		t.Errorf("cgpa histogram sums to %d", sum)
	}

	for _, path := range []string{"/api/domains", "/api/stats/department", "/api/stats/domain", "/api/stats/companies"} {
		getJSON(t, ts.URL+path, http.StatusOK, nil)
	}
}

func TestResultsBeforeRun(t *testing.T) {
	_, ts := newTestServer(t, Options{})

	for _, path := range []string{
		"/api/simulation/results",
		"/api/results/placements",
		"/api/results/company-wise",
		"/api/results/min-hires",
		"/api/export/csv",
		"/api/charts/companies",
	} {
		var body ErrorBody
		getJSON(t, ts.URL+path, http.StatusNotFound, &body)
		if body.Detail != ErrNoResults.Error() {
			t.Errorf("%s: detail %q", path, body.Detail)
		}
	}

	var st Status
	getJSON(t, ts.URL+"/api/simulation/status", http.StatusOK, &st)
	if st.Status != StateIdle {
		t.Errorf("status = %s, want idle", st.Status)
	}
}

func TestSimulationRun(t *testing.T) {
	s, ts := newTestServer(t, Options{})

	st := runToCompletion(t, s, ts, `{"random_seed": 7, "p_opt_out": 0}`)
	if st.Status != StateCompleted || st.Progress != 100 {
		t.Fatalf("unexpected final status %+v", st)
	}

	var res sim.Result
	getJSON(t, ts.URL+"/api/simulation/results", http.StatusOK, &res)
	if len(res.Students) != 5 || len(res.Companies) != 3 {
		t.Fatalf("results: %d students, %d companies", len(res.Students), len(res.Companies))
	}
	for _, s := range res.Students {
		if s.Status == "Opted_Out" {
			t.Errorf("%s opted out with p_opt_out=0", s.RollNo)
		}
		if s.Status == "Placed" && s.PlacedCompany == "" {
			t.Errorf("%s placed without a company", s.RollNo)
		}
	}

	// the student view now follows the run
	var placed Page[sim.StudentOutcome]
	getJSON(t, ts.URL+"/api/students?status=Placed", http.StatusOK, &placed)
	if placed.Total != res.Count("Placed") {
		t.Errorf("placed view %d, results %d", placed.Total, res.Count("Placed"))
	}

	var report struct {
		Total int `json:"total_companies"`
	}
	getJSON(t, ts.URL+"/api/results/min-hires?day=1", http.StatusOK, &report)
	if report.Total != 2 {
		t.Errorf("day 1 report covers %d companies", report.Total)
	}
	getJSON(t, ts.URL+"/api/results/placements", http.StatusOK, nil)
	getJSON(t, ts.URL+"/api/results/company-wise", http.StatusOK, nil)
}

func TestSimulationDeterministic(t *testing.T) {
	s, ts := newTestServer(t, Options{})

	runToCompletion(t, s, ts, `{"random_seed": 11}`)
	first, _ := s.Runner().Latest()
	runToCompletion(t, s, ts, `{"random_seed": 11}`)
	second, _ := s.Runner().Latest()

	a, _ := json.Marshal(first.Result)
	b, _ := json.Marshal(second.Result)
	if !bytes.Equal(a, b) {
		t.Error("same seed gave different results")
	}
}

func TestSimulationRunRejectsBadConfig(t *testing.T) {
	_, ts := newTestServer(t, Options{})

	for _, body := range []string{`{"p_opt_out": 2}`, `{"w1_cgpa": -1}`, `{not json`, `{"random_seed": "x"}`} {
		resp := do(t, http.MethodPost, ts.URL+"/api/simulation/run", body)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("%s: status %d, want 400", body, resp.StatusCode)
		}
	}
}

func TestSimulationRunHugeMultiplier(t *testing.T) {
	s, ts := newTestServer(t, Options{})

	st := runToCompletion(t, s, ts, `{"over_offer_multiplier": 1e300, "enforce_min_hires": false}`)
	if st.Status != StateCompleted {
		t.Fatalf("status %+v, want completed", st)
	}
	resp := do(t, http.MethodPost, ts.URL+"/api/simulation/run", `{"over_offer_multiplier": 1e400}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("out of range multiplier: status %d, want 400", resp.StatusCode)
	}
}

func TestExport(t *testing.T) {
	s, ts := newTestServer(t, Options{})
	runToCompletion(t, s, ts, "")

	resp := do(t, http.MethodGet, ts.URL+"/api/export/csv", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("csv status %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/csv" {
		t.Errorf("content type %q", ct)
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, "placement_results.csv") {
		t.Errorf("content disposition %q", cd)
	}
	records, err := csv.NewReader(resp.Body).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 6 || records[0][0] != "roll_no" {
		t.Errorf("unexpected csv %v", records)
	}

	xlsx := do(t, http.MethodGet, ts.URL+"/api/export/xlsx", "")
	b, _ := io.ReadAll(xlsx.Body)
	if xlsx.StatusCode != http.StatusOK || !bytes.HasPrefix(b, []byte("PK")) {
		t.Errorf("xlsx status %d, %d bytes", xlsx.StatusCode, len(b))
	}
}

func TestCharts(t *testing.T) {
	s, ts := newTestServer(t, Options{})

	resp := do(t, http.MethodGet, ts.URL+"/api/charts/cgpa", "")
	if resp.StatusCode != http.StatusOK || resp.Header.Get("Content-Type") != "image/png" {
		t.Fatalf("cgpa chart: %d %s", resp.StatusCode, resp.Header.Get("Content-Type"))
	}

	svg := do(t, http.MethodGet, ts.URL+"/api/charts/department?format=svg", "")
	if svg.StatusCode != http.StatusOK || svg.Header.Get("Content-Type") != "image/svg+xml" {
		t.Errorf("department svg: %d", svg.StatusCode)
	}

	getJSON(t, ts.URL+"/api/charts/pie", http.StatusNotFound, nil)
	getJSON(t, ts.URL+"/api/charts/cgpa?format=gif", http.StatusBadRequest, nil)

	runToCompletion(t, s, ts, "")
	companies := do(t, http.MethodGet, ts.URL+"/api/charts/companies", "")
	if companies.StatusCode != http.StatusOK {
		t.Errorf("companies chart after run: %d", companies.StatusCode)
	}
}

func TestRunHistory(t *testing.T) {
	ctx := context.Background()
	store, err := storage.Open(ctx, filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	s, ts := newTestServer(t, Options{Store: store})
	st := runToCompletion(t, s, ts, `{"random_seed": 3}`)
	if st.RunID == "" {
		t.Fatal("completed run has no id")
	}

	var list struct {
		Runs []storage.RunMetadata `json:"runs"`
	}
	getJSON(t, ts.URL+"/api/runs", http.StatusOK, &list)
	if len(list.Runs) != 1 || list.Runs[0].ID != st.RunID || list.Runs[0].Seed != 3 {
		t.Fatalf("unexpected runs %+v", list.Runs)
	}

	var run RunView
	getJSON(t, ts.URL+"/api/runs/"+st.RunID, http.StatusOK, &run)
	if run.Config.RandomSeed != 3 || len(run.Result.Students) != 5 {
		t.Errorf("unexpected run %+v", run)
	}

	getJSON(t, ts.URL+"/api/runs/does-not-exist", http.StatusNotFound, nil)
	getJSON(t, ts.URL+"/api/runs?limit=-2", http.StatusBadRequest, nil)
}

func TestRunHistoryDisabled(t *testing.T) {
	_, ts := newTestServer(t, Options{})
	getJSON(t, ts.URL+"/api/runs", http.StatusServiceUnavailable, nil)
}

func TestDataUnavailable(t *testing.T) {
	p := fixturePaths(t)
	p.Students = filepath.Join(t.TempDir(), "missing.csv")
	_, ts := newTestServer(t, Options{Paths: p})

	getJSON(t, ts.URL+"/api/students", http.StatusServiceUnavailable, nil)

	var body ErrorBody
	getJSON(t, ts.URL+"/api/data/load", http.StatusInternalServerError, &body)
	if body.Detail != "Failed to load data" {
		t.Errorf("detail = %q", body.Detail)
	}
}

func TestDataReloadResetsView(t *testing.T) {
	s, ts := newTestServer(t, Options{})
	runToCompletion(t, s, ts, `{"p_opt_out": 1}`)

	var out Page[sim.StudentOutcome]
	getJSON(t, ts.URL+"/api/students?status=Unplaced", http.StatusOK, &out)
	if out.Total != 0 {
		t.Fatalf("p_opt_out=1 left %d unplaced", out.Total)
	}

	var msg Message
	getJSON(t, ts.URL+"/api/data/load", http.StatusOK, &msg)
	if msg.Status != "success" {
		t.Errorf("reload: %+v", msg)
	}
	getJSON(t, ts.URL+"/api/students?status=Unplaced", http.StatusOK, &out)
	if out.Total != 5 {
		t.Errorf("after reload %d unplaced, want 5", out.Total)
	}
}

func TestUnknownRoute(t *testing.T) {
	_, ts := newTestServer(t, Options{})
	var body ErrorBody
	getJSON(t, ts.URL+"/api/nope", http.StatusNotFound, &body)
	if !strings.Contains(body.Detail, "/api/nope") {
		t.Errorf("detail = %q", body.Detail)
	}
}
