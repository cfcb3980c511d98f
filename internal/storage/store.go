// Package storage keeps the history of simulation runs in SQLite.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/san-kum/placesim/internal/placement"
	"github.com/san-kum/placesim/internal/platform/sqlitemigrate"
	"github.com/san-kum/placesim/internal/sim"
	"github.com/san-kum/placesim/internal/storage/migrations"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a run ID does not exist.
var ErrNotFound = errors.New("run not found")

type Store struct {
	db *sql.DB
}

// Run is a completed simulation with the inputs that produced it.
type Run struct {
	ID          string
	Name        string
	CreatedAt   time.Time
	Config      sim.Config
	Fingerprint string
	Result      *sim.Result
}

// RunMetadata is the listing view of a stored run.
type RunMetadata struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	CreatedAt     time.Time `json:"created_at"`
	Seed          int64     `json:"seed"`
	Fingerprint   string    `json:"fingerprint"`
	TotalStudents int       `json:"total_students"`
	Placed        int       `json:"placed"`
	Unplaced      int       `json:"unplaced"`
	OptedOut      int       `json:"opted_out"`
}

// PlacementRate is the placed share in percent.
func (m RunMetadata) PlacementRate() float64 {
	if m.TotalStudents == 0 {
		return 0
	}
	return float64(m.Placed) / float64(m.TotalStudents) * 100
}

func toMillis(t time.Time) int64 { return t.UTC().UnixMilli() }

func fromMillis(v int64) time.Time { return time.UnixMilli(v).UTC() }

// Open opens (creating if needed) the run database at path and applies the
// embedded migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	clean := filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(clean), 0755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	dsn := clean + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.Apply(ctx, db, migrations.FS, ""); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Save persists a run and returns its ID. A blank ID gets a fresh UUID and a
// zero CreatedAt becomes now.
func (s *Store) Save(ctx context.Context, run Run) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if run.Result == nil {
		return "", fmt.Errorf("run has no result")
	}
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}

	cfgJSON, err := json.Marshal(run.Config)
	if err != nil {
		return "", fmt.Errorf("encode config: %w", err)
	}
	statsJSON, err := json.Marshal(run.Result.Statistics)
	if err != nil {
		return "", fmt.Errorf("encode statistics: %w", err)
	}
	warnings := run.Result.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	warnJSON, err := json.Marshal(warnings)
	if err != nil {
		return "", fmt.Errorf("encode warnings: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin save: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	r := run.Result
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (
		   id, name, created_at, seed, config_json, fingerprint,
		   total_students, placed, unplaced, opted_out,
		   statistics_json, warnings_json
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Name, toMillis(run.CreatedAt), run.Config.RandomSeed, string(cfgJSON), run.Fingerprint,
		len(r.Students), r.Count(placement.StatusPlaced), r.Count(placement.StatusUnplaced), r.Count(placement.StatusOptedOut),
		string(statsJSON), string(warnJSON),
	); err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO run_students (
		   run_id, position, roll_no, name, department, cgpa,
		   domain_1, domain_2, status, placed_company
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("prepare students: %w", err)
	}
	defer stmt.Close()
	for i, st := range r.Students {
		if _, err := stmt.ExecContext(ctx, run.ID, i, st.RollNo, st.Name, st.Department, st.CGPA,
			st.Domain1, st.Domain2, string(st.Status), st.PlacedCompany); err != nil {
			return "", fmt.Errorf("insert student %s: %w", st.RollNo, err)
		}
	}

	cstmt, err := tx.PrepareContext(ctx,
		`INSERT INTO run_companies (
		   run_id, position, company_id, company_name, job_role, visit_day,
		   min_hires, max_hires, interview_slots, applicants, shortlisted,
		   offered, target_hires, hired
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("prepare companies: %w", err)
	}
	defer cstmt.Close()
	for i, c := range r.Companies {
		if _, err := cstmt.ExecContext(ctx, run.ID, i, c.CompanyID, c.CompanyName, c.JobRole, c.VisitDay,
			c.MinHires, c.MaxHires, c.InterviewSlots, c.Applicants, c.Shortlisted,
			c.Offered, c.TargetHires, c.Hired); err != nil {
			return "", fmt.Errorf("insert company %s: %w", c.CompanyID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit run: %w", err)
	}
	return run.ID, nil
}

// List returns the most recent runs first. A non-positive limit returns all.
func (s *Store) List(ctx context.Context, limit int) ([]RunMetadata, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, created_at, seed, fingerprint, total_students, placed, unplaced, opted_out
		   FROM runs
		  ORDER BY created_at DESC, id
		  LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	runs := make([]RunMetadata, 0)
	for rows.Next() {
		var m RunMetadata
		var created int64
		if err := rows.Scan(&m.ID, &m.Name, &created, &m.Seed, &m.Fingerprint,
			&m.TotalStudents, &m.Placed, &m.Unplaced, &m.OptedOut); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		m.CreatedAt = fromMillis(created)
		runs = append(runs, m)
	}
	return runs, rows.Err()
}

func (s *Store) Load(ctx context.Context, id string) (*Run, error) {
	var (
		run                          Run
		created                      int64
		cfgJSON, statsJSON, warnJSON string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, created_at, config_json, fingerprint, statistics_json, warnings_json
		   FROM runs WHERE id = ?`, id,
	).Scan(&run.ID, &run.Name, &created, &cfgJSON, &run.Fingerprint, &statsJSON, &warnJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load run %s: %w", id, err)
	}
	run.CreatedAt = fromMillis(created)

	result := &sim.Result{}
	if err := json.Unmarshal([]byte(cfgJSON), &run.Config); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := json.Unmarshal([]byte(statsJSON), &result.Statistics); err != nil {
		return nil, fmt.Errorf("decode statistics: %w", err)
	}
	if err := json.Unmarshal([]byte(warnJSON), &result.Warnings); err != nil {
		return nil, fmt.Errorf("decode warnings: %w", err)
	}

	if result.Students, err = s.loadStudents(ctx, id); err != nil {
		return nil, err
	}
	if result.Companies, err = s.loadCompanies(ctx, id); err != nil {
		return nil, err
	}
	run.Result = result
	return &run, nil
}

func (s *Store) loadStudents(ctx context.Context, id string) ([]sim.StudentOutcome, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT roll_no, name, department, cgpa, domain_1, domain_2, status, placed_company
		   FROM run_students WHERE run_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("load students: %w", err)
	}
	defer rows.Close()

	out := make([]sim.StudentOutcome, 0)
	for rows.Next() {
		var st sim.StudentOutcome
		var status string
		if err := rows.Scan(&st.RollNo, &st.Name, &st.Department, &st.CGPA,
			&st.Domain1, &st.Domain2, &status, &st.PlacedCompany); err != nil {
			return nil, fmt.Errorf("scan student: %w", err)
		}
		st.Status = placement.Status(status)
		out = append(out, st)
	}
	return out, rows.Err()
}

func (s *Store) loadCompanies(ctx context.Context, id string) ([]sim.CompanyOutcome, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT company_id, company_name, job_role, visit_day, min_hires, max_hires,
		        interview_slots, applicants, shortlisted, offered, target_hires, hired
		   FROM run_companies WHERE run_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("load companies: %w", err)
	}
	defer rows.Close()

	out := make([]sim.CompanyOutcome, 0)
	for rows.Next() {
		var c sim.CompanyOutcome
		if err := rows.Scan(&c.CompanyID, &c.CompanyName, &c.JobRole, &c.VisitDay, &c.MinHires, &c.MaxHires,
			&c.InterviewSlots, &c.Applicants, &c.Shortlisted, &c.Offered, &c.TargetHires, &c.Hired); err != nil {
			return nil, fmt.Errorf("scan company: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Delete removes a run and its outcomes.
func (s *Store) Delete(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, q := range []string{
		`DELETE FROM run_students WHERE run_id = ?`,
		`DELETE FROM run_companies WHERE run_id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, q, id); err != nil {
			return fmt.Errorf("delete run %s: %w", id, err)
		}
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete run %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return tx.Commit()
}
