// Package placement defines the campus placement domain: students, company
// job roles and the eligibility and matching rules between them.
//
// Inputs arrive as loosely formatted spreadsheet text, so the package also
// owns the parsers that normalise it:
//
//   - [ParseCGPARequirement]: "7.5+ for Dev, 8.5+ for Advanced" -> 7.5
//   - [ParseDepartments]: "CSE, MnC, E&ECE" -> CS, MA, EE, EC
//   - [ParseSkills]: "Python, DSA (arrays, trees)" -> python, dsa
//
// Scoring randomness lives in package sim; everything here is deterministic.
package placement
