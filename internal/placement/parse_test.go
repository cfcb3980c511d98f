package placement

import (
	"reflect"
	"testing"
)

func TestParseCGPARequirement(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"7+", 7.0},
		{"8.5+", 8.5},
		{"NONE", 0},
		{"NA", 0},
		{"None", 0},
		{"", 0},
		{"7.5+ for Dev, 8.5+ for Advanced Dev", 7.5},
		{"8.5+ preferably", 8.5},
		{"  6.0 ", 6.0},
		{"no cutoff", 0},
	}

	for _, tt := range tests {
		if got := ParseCGPARequirement(tt.in); got != tt.want {
			t.Errorf("ParseCGPARequirement(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseDepartments(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"ALL", []string{"ALL"}},
		{"OPEN TO ALL", []string{"ALL"}},
		{"Not Department Specific", []string{"ALL"}},
		{"ONLY BTech.", []string{"ALL"}},
		{"CSE, MnC, ECE, EE", []string{"CS", "EC", "EE", "MA"}},
		{"Circuital", []string{"CS", "EC", "EE", "IE", "IM", "MA"}},
		{"E&ECE", []string{"EC", "EE"}},
		{"CS and MA", []string{"CS", "MA"}},
		{"Mechanical, Chemical", []string{"CH", "ME"}},
		{"gibberish", []string{"ALL"}},
		{"", nil},
	}

	for _, tt := range tests {
		got := ParseDepartments(tt.in)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("ParseDepartments(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseSkills(t *testing.T) {
	got := ParseSkills("Python, DSA (arrays, trees), , Machine Learning")
	want := []string{"python", "dsa", "trees)", "machine learning"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ParseSkills = %v, want %v", got, want)
	}

	if got := ParseSkills("nan"); got != nil {
		t.Errorf("expected nil for nan, got %v", got)
	}
}

func TestSplitList(t *testing.T) {
	got := SplitList(" C++ , Python,,Go ")
	want := []string{"C++", "Python", "Go"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SplitList = %v, want %v", got, want)
	}
}

func TestDepartmentFromRoll(t *testing.T) {
	tests := map[string]string{
		"23CS10001": "CS",
		"21ma30012": "MA",
		"23C":       "",
	}
	for roll, want := range tests {
		if got := DepartmentFromRoll(roll); got != want {
			t.Errorf("DepartmentFromRoll(%q) = %q, want %q", roll, got, want)
		}
	}
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		in   string
		want Status
		ok   bool
	}{
		{"Placed", StatusPlaced, true},
		{"placed", StatusPlaced, true},
		{"OPTED_OUT", StatusOptedOut, true},
		{"unplaced", StatusUnplaced, true},
		{"Hired", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseStatus(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseStatus(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}
