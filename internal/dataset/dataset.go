package dataset

import (
	"bufio"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/san-kum/placesim/internal/placement"
	"golang.org/x/crypto/blake2b"
)

// Serial is one line of the company visiting order.
type Serial struct {
	Number    int
	Companies []string
}

// Paths locates the input files of a placement season.
type Paths struct {
	Students     string
	Companies    string
	Order        string
	ShortlistDir string
	ShortlistMap string
	DepScores    string
}

// Dataset is the full simulation input.
type Dataset struct {
	Students    []placement.Student
	Companies   []placement.Company
	Order       []Serial
	DepScores   map[string]float64
	Fingerprint string
}

// Load reads every input file and fingerprints their contents. The order,
// shortlist and department-score files are optional.
func Load(ctx context.Context, p Paths) (*Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	students, err := LoadStudents(p.Students)
	if err != nil {
		return nil, fmt.Errorf("load students: %w", err)
	}

	shortlists, err := LoadShortlists(p.ShortlistMap, p.ShortlistDir)
	if err != nil {
		return nil, fmt.Errorf("load shortlists: %w", err)
	}

	companies, err := LoadCompanies(p.Companies, shortlists)
	if err != nil {
		return nil, fmt.Errorf("load companies: %w", err)
	}

	var order []Serial
	if p.Order != "" {
		order, err = LoadCompanyOrder(p.Order)
		if err != nil {
			return nil, fmt.Errorf("load company order: %w", err)
		}
	}

	depScores, err := LoadDepScores(p.DepScores)
	if err != nil {
		return nil, fmt.Errorf("load department scores: %w", err)
	}

	fp, err := Fingerprint(p.Students, p.Companies, p.Order, p.ShortlistMap, p.DepScores)
	if err != nil {
		return nil, fmt.Errorf("fingerprint: %w", err)
	}

	return &Dataset{
		Students:    students,
		Companies:   companies,
		Order:       order,
		DepScores:   depScores,
		Fingerprint: fp,
	}, nil
}

func LoadStudents(path string) ([]placement.Student, error) {
	t, err := readTable(path)
	if err != nil {
		return nil, err
	}
	if err := t.require("roll_no", "name", "cgpa", "domain_1"); err != nil {
		return nil, err
	}

	students := make([]placement.Student, 0, len(t.rows))
	for i, row := range t.rows {
		roll := t.get(row, "roll_no")
		if roll == "" {
			continue
		}
		cgpa, err := strconv.ParseFloat(t.get(row, "cgpa"), 64)
		if err != nil {
			return nil, fmt.Errorf("row %d (%s): invalid cgpa: %w", i+2, roll, err)
		}

		skills := placement.SplitList(t.get(row, "skills_for_domain_1"))
		skills = append(skills, placement.SplitList(t.get(row, "skills_for_domain_2"))...)

		students = append(students, placement.Student{
			RollNo:     roll,
			Name:       t.get(row, "name"),
			CGPA:       cgpa,
			Department: placement.DepartmentFromRoll(roll),
			Domain1:    t.get(row, "domain_1"),
			Domain2:    t.get(row, "domain_2"),
			Skills:     dedupe(skills),
		})
	}
	return students, nil
}

func dedupe(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := items[:0]
	for _, it := range items {
		if !seen[it] {
			seen[it] = true
			out = append(out, it)
		}
	}
	return out
}

// LoadCompanies reads the company roles. shortlists maps company ID to the
// size of its historical shortlist and drives the interview capacity.
func LoadCompanies(path string, shortlists map[string]int) ([]placement.Company, error) {
	t, err := readTable(path)
	if err != nil {
		return nil, err
	}
	if err := t.require("company_name", "job_role", "arrival_day", "min_offers", "max_offers"); err != nil {
		return nil, err
	}

	companies := make([]placement.Company, 0, len(t.rows))
	for i, row := range t.rows {
		name := t.get(row, "company_name")
		if name == "" {
			continue
		}
		day, err := atoi(t.get(row, "arrival_day"))
		if err != nil {
			return nil, fmt.Errorf("row %d (%s): arrival_day: %w", i+2, name, err)
		}
		minOffers, err := atoi(t.get(row, "min_offers"))
		if err != nil {
			return nil, fmt.Errorf("row %d (%s): min_offers: %w", i+2, name, err)
		}
		maxOffers, err := atoi(t.get(row, "max_offers"))
		if err != nil {
			return nil, fmt.Errorf("row %d (%s): max_offers: %w", i+2, name, err)
		}
		if minOffers < 0 || maxOffers < 0 {
			return nil, fmt.Errorf("row %d (%s): offers must be non-negative, got min %d max %d", i+2, name, minOffers, maxOffers)
		}
		if maxOffers < minOffers {
			return nil, fmt.Errorf("row %d (%s): max_offers %d below min_offers %d", i+2, name, maxOffers, minOffers)
		}

		c := placement.Company{
			Name:               name,
			JobRole:            t.get(row, "job_role"),
			AllowedDepartments: placement.ParseDepartments(t.get(row, "allowed_departments")),
			MinCGPA:            placement.ParseCGPARequirement(t.get(row, "min_cgpa")),
			RequiredSkills:     placement.ParseSkills(t.get(row, "required_skills")),
			VisitDay:           day,
			MinHires:           minOffers,
			MaxHires:           maxOffers,
		}
		c.InterviewSlots = InterviewSlots(shortlists[c.ID()], maxOffers)
		companies = append(companies, c)
	}
	return companies, nil
}

// InterviewSlots sizes a company's interview capacity. Without a shortlist it
// interviews twice its maximum intake; with one it interviews at least one
// and a half times its maximum.
func InterviewSlots(shortlistSize, maxHires int) int {
	if shortlistSize == 0 {
		return maxHires * 2
	}
	return max(shortlistSize, int(float64(maxHires)*1.5))
}

// atoi accepts spreadsheet-style integers such as "3.0".
func atoi(s string) (int, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("%q is not a whole number", s)
	}
	return int(f), nil
}

// LoadShortlists resolves each company ID to its shortlist size. The map
// file lists company_id,file pairs relative to dir; a blank file or missing
// map yields no entry.
func LoadShortlists(mapPath, dir string) (map[string]int, error) {
	sizes := make(map[string]int)
	if mapPath == "" {
		return sizes, nil
	}
	t, err := readTable(mapPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Printf("shortlist map not found path=%s", mapPath)
			return sizes, nil
		}
		return nil, err
	}
	if err := t.require("company_id", "file"); err != nil {
		return nil, err
	}

	counted := make(map[string]int)
	for _, row := range t.rows {
		id, file := t.get(row, "company_id"), t.get(row, "file")
		if id == "" || file == "" {
			continue
		}
		n, ok := counted[file]
		if !ok {
			n, err = countRows(filepath.Join(dir, file))
			if err != nil {
				if !errors.Is(err, os.ErrNotExist) {
					return nil, fmt.Errorf("shortlist %s: %w", file, err)
				}
				n = 0
			}
			counted[file] = n
		}
		sizes[id] = n
	}
	return sizes, nil
}

func countRows(path string) (int, error) {
	t, err := readTable(path)
	if err != nil {
		return 0, err
	}
	return len(t.rows), nil
}

// LoadCompanyOrder parses lines of the form "3.Google,Microsoft" into
// serials sorted by number.
func LoadCompanyOrder(path string) ([]Serial, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return parseCompanyOrder(f)
}

func parseCompanyOrder(r io.Reader) ([]Serial, error) {
	bySerial := make(map[int][]string)
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		num, rest, ok := strings.Cut(text, ".")
		if !ok {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(num, "\uFEFF")))
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid serial %q", line, num)
		}
		var names []string
		for _, name := range strings.Split(rest, ",") {
			if name = strings.TrimSpace(name); name != "" {
				names = append(names, name)
			}
		}
		bySerial[n] = names
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	serials := make([]Serial, 0, len(bySerial))
	for n, names := range bySerial {
		serials = append(serials, Serial{Number: n, Companies: names})
	}
	sort.Slice(serials, func(i, j int) bool { return serials[i].Number < serials[j].Number })
	return serials, nil
}

// LoadDepScores reads department_code,score rows. A missing file is not an
// error; every department then scores the default.
func LoadDepScores(path string) (map[string]float64, error) {
	scores := make(map[string]float64)
	if path == "" {
		return scores, nil
	}
	t, err := readTable(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Printf("warning: department scores not found path=%s", path)
			return scores, nil
		}
		return nil, err
	}
	if err := t.require("department_code", "score"); err != nil {
		return nil, err
	}
	for _, row := range t.rows {
		code := t.get(row, "department_code")
		if code == "" {
			continue
		}
		v, err := strconv.ParseFloat(t.get(row, "score"), 64)
		if err != nil {
			return nil, fmt.Errorf("department %s: invalid score: %w", code, err)
		}
		scores[code] = v
	}
	return scores, nil
}

// Fingerprint hashes the given files in order with BLAKE2b-256. Empty paths
// and missing files contribute only their position.
func Fingerprint(paths ...string) (string, error) {
	h, err := blake2b.New256(nil)
	if err != nil {
		return "", err
	}
	for _, p := range paths {
		fmt.Fprintf(h, "%s\x00", filepath.Base(p))
		if p == "" {
			continue
		}
		f, err := os.Open(p)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return "", err
		}
		_, err = io.Copy(h, f)
		f.Close()
		if err != nil {
			return "", err
		}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// DefaultPaths resolves the conventional file names under dir.
func DefaultPaths(dir string) Paths {
	return Paths{
		Students:     filepath.Join(dir, "analysis_data.csv"),
		Companies:    filepath.Join(dir, "companies.csv"),
		Order:        filepath.Join(dir, "company_order.csv"),
		ShortlistDir: filepath.Join(dir, "company shortlists(csv)"),
		ShortlistMap: filepath.Join(dir, "shortlist_map.csv"),
		DepScores:    filepath.Join(dir, "dep_score.csv"),
	}
}
