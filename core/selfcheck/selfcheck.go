// Package selfcheck verifies the engine end to end: registry and SGR
// table coverage, serialize and convert round trips, html renderer
// well-formedness, and the nesting depth limit. The CLI exposes it as
// `taml selfcheck`; CI runs it before benchmarks so corpus drift is
// caught with a named check rather than a diff.
package selfcheck

import (
	"encoding/json"
	"time"
)

// Version is the report format version.
const Version = "1.0.0"

// Status values for reports.
const (
	StatusPass = "pass"
	StatusFail = "fail"
)

// Check is one named verification.
type Check struct {
	Name string
	Run  func() error
}

// Result is the outcome of a single check.
type Result struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// Report is the output of a selfcheck execution.
type Report struct {
	ReportVersion string   `json:"report_version"`
	CreatedAt     string   `json:"created_at"`
	Results       []Result `json:"results"`
	Status        string   `json:"status"`
}

// ToJSON serializes the report to JSON.
func (r *Report) ToJSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// RunAll executes every built-in check.
func RunAll() *Report {
	return Run(Checks())
}

// Run executes the given checks in order. A failing check does not stop
// the rest; the report carries one result per check.
func Run(checks []Check) *Report {
	report := &Report{
		ReportVersion: Version,
		CreatedAt:     time.Now().UTC().Format(time.RFC3339),
		Status:        StatusPass,
	}
	for _, check := range checks {
		result := Result{Name: check.Name, Status: StatusPass}
		if err := check.Run(); err != nil {
			result.Status = StatusFail
			result.Detail = err.Error()
			report.Status = StatusFail
		}
		report.Results = append(report.Results, result)
	}
	return report
}
