// Package viz renders placement results for the terminal.
//
// Everything here returns strings; callers decide where to print them.
//
//   - [Dashboard]: summary tiles, department table and charts for one result
//   - [StudentTable], [CompanyTable], [RunsTable]: lipgloss tables
//   - [DepartmentChart], [CGPAChart]: asciigraph plots
//
// Numbers go through an English [message.Printer], so counts read 1,234.
package viz
