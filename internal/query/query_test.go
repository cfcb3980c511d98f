package query

import (
	"testing"

	"github.com/san-kum/placesim/internal/placement"
	"github.com/san-kum/placesim/internal/sim"
)

func students() []sim.StudentOutcome {
	return []sim.StudentOutcome{
		{RollNo: "21CS10001", Name: "Asha Rao", Department: "CS", CGPA: 9.1, Domain1: "SDE", Domain2: "Data", Status: placement.StatusPlaced, PlacedCompany: "Google_SWE"},
		{RollNo: "21CS10002", Name: "Bilal Khan", Department: "CS", CGPA: 7.4, Domain1: "SDE", Status: placement.StatusUnplaced},
		{RollNo: "21EE10003", Name: "Chen Wu", Department: "EE", CGPA: 8.2, Domain1: "Core_EE", Status: placement.StatusOptedOut},
		{RollNo: "21MA10004", Name: "Dara Ash", Department: "MA", CGPA: 6.3, Domain1: "Data", Status: placement.StatusUnplaced},
	}
}

func rolls(list []sim.StudentOutcome) []string {
	out := make([]string, len(list))
	for i, s := range list {
		out[i] = s.RollNo
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestCompile(t *testing.T) {
	tests := []struct {
		name   string
		filter string
		want   []string
	}{
		{"empty", "", []string{"21CS10001", "21CS10002", "21EE10003", "21MA10004"}},
		{"and", `department = "CS" AND cgpa >= 8.0`, []string{"21CS10001"}},
		{"or", `status = "Placed" OR status = "Opted_Out"`, []string{"21CS10001", "21EE10003"}},
		{"domain either slot", `domain = "Data"`, []string{"21CS10001", "21MA10004"}},
		{"domain excluded", `domain != "SDE"`, []string{"21EE10003", "21MA10004"}},
		{"prefix wildcard", `name = "b*"`, []string{"21CS10002"}},
		{"contains wildcard", `name = "*ash*"`, []string{"21CS10001", "21MA10004"}},
		{"not", `NOT department = "CS"`, []string{"21EE10003", "21MA10004"}},
		{"below", `cgpa < 7.0`, []string{"21MA10004"}},
		{"case insensitive", `department = "ee"`, []string{"21EE10003"}},
		{"status any case", `status = "placed"`, []string{"21CS10001"}},
		{"status upper case", `status = "OPTED_OUT"`, []string{"21EE10003"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pred, err := Compile(tt.filter)
			if err != nil {
				t.Fatalf("Compile(%q): %v", tt.filter, err)
			}
			if got := rolls(Apply(students(), pred)); !equal(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCompileErrors(t *testing.T) {
	for _, filter := range []string{
		`salary > 10.0`,
		`status = "Hired"`,
		`department = `,
	} {
		if _, err := Compile(filter); err == nil {
			t.Errorf("Compile(%q) should fail", filter)
		}
	}
}

func TestFromParams(t *testing.T) {
	lo, hi := 7.0, 9.0
	tests := []struct {
		name string
		p    Params
		want []string
	}{
		{"none", Params{}, []string{"21CS10001", "21CS10002", "21EE10003", "21MA10004"}},
		{"department", Params{Department: "CS"}, []string{"21CS10001", "21CS10002"}},
		{"range", Params{CGPAMin: &lo, CGPAMax: &hi}, []string{"21CS10002", "21EE10003"}},
		{"status", Params{Status: "Unplaced"}, []string{"21CS10002", "21MA10004"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := rolls(Apply(students(), FromParams(tt.p))); !equal(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAndCombinesFilterAndParams(t *testing.T) {
	pred, err := Compile(`cgpa > 7.0`)
	if err != nil {
		t.Fatal(err)
	}
	got := rolls(Apply(students(), And(pred, FromParams(Params{Department: "CS"}), nil)))
	if !equal(got, []string{"21CS10001", "21CS10002"}) {
		t.Errorf("got %v", got)
	}
}
