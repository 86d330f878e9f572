package selfcheck

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestRunAll(t *testing.T) {
	report := RunAll()

	if report.Status != StatusPass {
		t.Errorf("Status = %q, want %q", report.Status, StatusPass)
		for _, r := range report.Results {
			if r.Status == StatusFail {
				t.Errorf("  %s: %s", r.Name, r.Detail)
			}
		}
	}
	if report.ReportVersion != Version {
		t.Errorf("ReportVersion = %q, want %q", report.ReportVersion, Version)
	}
	if _, err := time.Parse(time.RFC3339, report.CreatedAt); err != nil {
		t.Errorf("CreatedAt %q is not RFC3339: %v", report.CreatedAt, err)
	}

	want := []string{"registry-complete", "sgr-table-complete", "roundtrip", "html-wellformed", "depth-limit"}
	if len(report.Results) != len(want) {
		t.Fatalf("got %d results, want %d", len(report.Results), len(want))
	}
	for i, name := range want {
		if report.Results[i].Name != name {
			t.Errorf("result %d is %q, want %q", i, report.Results[i].Name, name)
		}
	}
}

func TestChecksIndividually(t *testing.T) {
	for _, check := range Checks() {
		t.Run(check.Name, func(t *testing.T) {
			if err := check.Run(); err != nil {
				t.Error(err)
			}
		})
	}
}

func TestRunReportsFailure(t *testing.T) {
	checks := []Check{
		{Name: "always-passes", Run: func() error { return nil }},
		{Name: "always-fails", Run: func() error { return errors.New("broken invariant") }},
		{Name: "runs-anyway", Run: func() error { return nil }},
	}
	report := Run(checks)

	if report.Status != StatusFail {
		t.Errorf("Status = %q, want %q", report.Status, StatusFail)
	}
	if len(report.Results) != 3 {
		t.Fatalf("got %d results, want 3", len(report.Results))
	}
	if report.Results[0].Status != StatusPass {
		t.Errorf("first check status = %q, want pass", report.Results[0].Status)
	}
	if report.Results[1].Status != StatusFail || report.Results[1].Detail != "broken invariant" {
		t.Errorf("failing check = %+v, want fail with detail", report.Results[1])
	}
	if report.Results[2].Status != StatusPass {
		t.Errorf("check after failure did not run: %+v", report.Results[2])
	}
}

func TestReportJSON(t *testing.T) {
	report := Run([]Check{
		{Name: "ok", Run: func() error { return nil }},
	})
	data, err := report.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}

	var decoded Report
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded.Status != StatusPass || len(decoded.Results) != 1 {
		t.Errorf("decoded = %+v", decoded)
	}

	// Empty Detail is omitted from the JSON.
	if strings.Contains(string(data), "detail") {
		t.Errorf("JSON contains detail for a passing check:\n%s", data)
	}
}
