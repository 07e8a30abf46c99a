package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestLintRules(t *testing.T) {
	reports := lintRules([]string{"R31/P1D", "R/P1W", "R4/PT15M", "bogus"})

	if len(reports) != 4 {
		t.Fatalf("got %d reports, want 4", len(reports))
	}

	if !reports[0].Valid || reports[0].Count != 31 || reports[0].Period != "P1D" {
		t.Errorf("R31/P1D report = %+v, want valid 31 x P1D", reports[0])
	}
	if !reports[1].Valid || !reports[1].Infinite {
		t.Errorf("R/P1W report = %+v, want valid infinite", reports[1])
	}
	if reports[2].Valid {
		t.Errorf("R4/PT15M report = %+v, want invalid (unsupported resolution)", reports[2])
	}
	if reports[3].Valid || reports[3].Error == "" {
		t.Errorf("bogus report = %+v, want invalid with error", reports[3])
	}

	if got, want := countInvalid(reports), 2; got != want {
		t.Errorf("countInvalid() = %d, want %d", got, want)
	}
}

func TestPrintRuleReports(t *testing.T) {
	var buf bytes.Buffer
	printRuleReports(&buf, lintRules([]string{"R31/P1D", "bogus"}))

	out := buf.String()
	if !strings.Contains(out, "✓ R31/P1D") {
		t.Errorf("output missing valid marker: %q", out)
	}
	if !strings.Contains(out, "✗ bogus") {
		t.Errorf("output missing invalid marker: %q", out)
	}
}
