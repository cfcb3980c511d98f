// Package query compiles AIP-160 student filters into predicates.
package query

import (
	"fmt"
	"strings"

	"github.com/san-kum/placesim/internal/placement"
	"github.com/san-kum/placesim/internal/sim"
	"go.einride.tech/aip/filtering"
	expr "google.golang.org/genproto/googleapis/api/expr/v1alpha1"
)

// Predicate reports whether a student matches.
type Predicate func(*sim.StudentOutcome) bool

// All matches every student.
func All(*sim.StudentOutcome) bool { return true }

// And combines predicates; nil entries are skipped.
func And(preds ...Predicate) Predicate {
	var active []Predicate
	for _, p := range preds {
		if p != nil {
			active = append(active, p)
		}
	}
	if len(active) == 0 {
		return All
	}
	return func(s *sim.StudentOutcome) bool {
		for _, p := range active {
			if !p(s) {
				return false
			}
		}
		return true
	}
}

// Declarations returns the identifiers a student filter may use.
func Declarations() (*filtering.Declarations, error) {
	return filtering.NewDeclarations(
		filtering.DeclareStandardFunctions(),
		filtering.DeclareIdent("department", filtering.TypeString),
		filtering.DeclareIdent("status", filtering.TypeString),
		filtering.DeclareIdent("domain", filtering.TypeString),
		filtering.DeclareIdent("name", filtering.TypeString),
		filtering.DeclareIdent("roll_no", filtering.TypeString),
		filtering.DeclareIdent("placed_company", filtering.TypeString),
		filtering.DeclareIdent("cgpa", filtering.TypeFloat),
	)
}

// Compile parses a filter such as
//
//	department = "CS" AND cgpa >= 8.0
//
// An empty filter matches everything.
func Compile(filter string) (Predicate, error) {
	if strings.TrimSpace(filter) == "" {
		return All, nil
	}

	decls, err := Declarations()
	if err != nil {
		return nil, fmt.Errorf("create declarations: %w", err)
	}
	f, err := filtering.ParseFilterString(filter, decls)
	if err != nil {
		return nil, fmt.Errorf("parse filter: %w", err)
	}
	return compileExpr(f.CheckedExpr.GetExpr())
}

func compileExpr(e *expr.Expr) (Predicate, error) {
	if e == nil {
		return All, nil
	}
	call, ok := e.ExprKind.(*expr.Expr_CallExpr)
	if !ok {
		return nil, fmt.Errorf("unsupported expression type: %T", e.ExprKind)
	}
	return compileCall(call.CallExpr)
}

func compileCall(call *expr.Expr_Call) (Predicate, error) {
	switch call.Function {
	case "AND", "_&&_":
		return compileLogical(call.Args, true)
	case "OR", "_||_":
		return compileLogical(call.Args, false)
	case "NOT", "_!_":
		if len(call.Args) != 1 {
			return nil, fmt.Errorf("NOT requires 1 argument")
		}
		inner, err := compileExpr(call.Args[0])
		if err != nil {
			return nil, err
		}
		return func(s *sim.StudentOutcome) bool { return !inner(s) }, nil
	case "=", "_==_":
		return compileComparison(call.Args, opEq)
	case "!=", "_!=_":
		return compileComparison(call.Args, opNe)
	case "<", "_<_":
		return compileComparison(call.Args, opLt)
	case "<=", "_<=_":
		return compileComparison(call.Args, opLe)
	case ">", "_>_":
		return compileComparison(call.Args, opGt)
	case ">=", "_>=_":
		return compileComparison(call.Args, opGe)
	default:
		return nil, fmt.Errorf("unsupported function: %s", call.Function)
	}
}

func compileLogical(args []*expr.Expr, and bool) (Predicate, error) {
	if len(args) < 2 {
		return nil, fmt.Errorf("logical operator requires 2 arguments")
	}
	preds := make([]Predicate, len(args))
	for i, a := range args {
		p, err := compileExpr(a)
		if err != nil {
			return nil, err
		}
		preds[i] = p
	}
	if and {
		return And(preds...), nil
	}
	return func(s *sim.StudentOutcome) bool {
		for _, p := range preds {
			if p(s) {
				return true
			}
		}
		return false
	}, nil
}

type op int

const (
	opEq op = iota
	opNe
	opLt
	opLe
	opGt
	opGe
)

func compileComparison(args []*expr.Expr, o op) (Predicate, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("comparison requires 2 arguments")
	}
	field, err := identName(args[0])
	if err != nil {
		return nil, err
	}
	c, ok := args[1].ExprKind.(*expr.Expr_ConstExpr)
	if !ok {
		return nil, fmt.Errorf("expected constant, got %T", args[1].ExprKind)
	}

	if field == "cgpa" {
		v, err := numeric(c.ConstExpr)
		if err != nil {
			return nil, err
		}
		return func(s *sim.StudentOutcome) bool { return compareFloat(s.CGPA, v, o) }, nil
	}

	sv, ok := c.ConstExpr.ConstantKind.(*expr.Constant_StringValue)
	if !ok {
		return nil, fmt.Errorf("%s expects a string value", field)
	}
	want := sv.StringValue

	if field == "domain" {
		if o != opEq && o != opNe {
			return nil, fmt.Errorf("domain supports only = and !=")
		}
		return func(s *sim.StudentOutcome) bool {
			hit := matchString(s.Domain1, want) || (s.Domain2 != "" && matchString(s.Domain2, want))
			return hit == (o == opEq)
		}, nil
	}

	get, ok := stringFields[field]
	if !ok {
		return nil, fmt.Errorf("unknown field: %s", field)
	}
	if field == "status" && !strings.Contains(want, "*") && !validStatus(want) {
		return nil, fmt.Errorf("unknown status %q", want)
	}
	return func(s *sim.StudentOutcome) bool { return compareString(get(s), want, o) }, nil
}

func validStatus(s string) bool {
	_, ok := placement.ParseStatus(s)
	return ok
}

var stringFields = map[string]func(*sim.StudentOutcome) string{
	"department":     func(s *sim.StudentOutcome) string { return s.Department },
	"status":         func(s *sim.StudentOutcome) string { return string(s.Status) },
	"name":           func(s *sim.StudentOutcome) string { return s.Name },
	"roll_no":        func(s *sim.StudentOutcome) string { return s.RollNo },
	"placed_company": func(s *sim.StudentOutcome) string { return s.PlacedCompany },
}

func identName(e *expr.Expr) (string, error) {
	if e == nil {
		return "", fmt.Errorf("nil expression")
	}
	id, ok := e.ExprKind.(*expr.Expr_IdentExpr)
	if !ok {
		return "", fmt.Errorf("expected identifier, got %T", e.ExprKind)
	}
	return id.IdentExpr.Name, nil
}

func numeric(c *expr.Constant) (float64, error) {
	switch k := c.ConstantKind.(type) {
	case *expr.Constant_DoubleValue:
		return k.DoubleValue, nil
	case *expr.Constant_Int64Value:
		return float64(k.Int64Value), nil
	case *expr.Constant_Uint64Value:
		return float64(k.Uint64Value), nil
	default:
		return 0, fmt.Errorf("cgpa expects a number, got %T", k)
	}
}

func compareFloat(a, b float64, o op) bool {
	switch o {
	case opEq:
		return a == b
	case opNe:
		return a != b
	case opLt:
		return a < b
	case opLe:
		return a <= b
	case opGt:
		return a > b
	default:
		return a >= b
	}
}

// matchString compares case-insensitively. A leading or trailing * in the
// pattern matches any prefix or suffix.
func matchString(v, pattern string) bool {
	v, pattern = strings.ToLower(v), strings.ToLower(pattern)
	prefix := strings.HasSuffix(pattern, "*")
	suffix := strings.HasPrefix(pattern, "*")
	core := strings.Trim(pattern, "*")
	switch {
	case prefix && suffix:
		return strings.Contains(v, core)
	case prefix:
		return strings.HasPrefix(v, core)
	case suffix:
		return strings.HasSuffix(v, core)
	default:
		return v == core
	}
}

func compareString(a, b string, o op) bool {
	switch o {
	case opEq:
		return matchString(a, b)
	case opNe:
		return !matchString(a, b)
	}
	a, b = strings.ToLower(a), strings.ToLower(b)
	switch o {
	case opLt:
		return a < b
	case opLe:
		return a <= b
	case opGt:
		return a > b
	default:
		return a >= b
	}
}

// Params are the plain query-string filters of the students endpoint.
type Params struct {
	Department string
	CGPAMin    *float64
	CGPAMax    *float64
	Status     string
}

// FromParams builds the predicate for the plain filters. Department and
// status match exactly, as the dashboard sends them.
func FromParams(p Params) Predicate {
	return func(s *sim.StudentOutcome) bool {
		if p.Department != "" && s.Department != p.Department {
			return false
		}
		if p.CGPAMin != nil && s.CGPA < *p.CGPAMin {
			return false
		}
		if p.CGPAMax != nil && s.CGPA > *p.CGPAMax {
			return false
		}
		if p.Status != "" && string(s.Status) != p.Status {
			return false
		}
		return true
	}
}

// Apply returns the students matching pred, preserving order.
func Apply(students []sim.StudentOutcome, pred Predicate) []sim.StudentOutcome {
	out := make([]sim.StudentOutcome, 0, len(students))
	for i := range students {
		if pred(&students[i]) {
			out = append(out, students[i])
		}
	}
	return out
}
