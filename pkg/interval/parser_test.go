package interval

import (
	"errors"
	"testing"
)

func TestParse_SupportedResolutions(t *testing.T) {
	// Every string in the allowed resolution set must decode.
	for _, res := range Supported() {
		src := res.String()
		t.Run(src, func(t *testing.T) {
			rule, err := Parse(src)
			if err != nil {
				t.Fatalf("Parse(%q) failed: %v", src, err)
			}
			if rule.Resolution != res {
				t.Errorf("Resolution = %v, want %v", rule.Resolution, res)
			}
			if rule.Infinite {
				t.Error("Infinite = true for non-repeating rule")
			}
			if rule.Count != 1 {
				t.Errorf("Count = %d, want 1 for non-repeating rule", rule.Count)
			}
		})
	}
}

func TestParse_RejectedResolutions(t *testing.T) {
	tests := []string{
		"PT15M",   // does not divide the 10-minute cycle
		"PT12M",   // does not divide the 10-minute cycle
		"PT1M",    // too fine
		"PT1S",    // too fine
		"PT5H",    // hour must be 1-4, 6 or 12
		"PT7H",    // hour must be 1-4, 6 or 12
		"PT90M",   // minute must be 10, 20 or 30
		"PT0.5H",  // fractional components are not a thing
		"P1.5D",   // fractional components are not a thing
		"R7/PT5H", // repetition does not rescue a bad resolution
	}
	for _, src := range tests {
		t.Run(src, func(t *testing.T) {
			if _, err := Parse(src); err == nil {
				t.Errorf("Parse(%q) succeeded, want error", src)
			}
		})
	}
}

func TestParse_Repetitions(t *testing.T) {
	tests := []struct {
		src      string
		count    int
		infinite bool
	}{
		{"R31/P1D", 31, false},
		{"R7/P1D", 7, false},
		{"R/P1M", 0, true},
		{"R/PT10M", 0, true},
		{"P1D", 1, false},
		{"R0/P1D", 0, false},
		{"R007/P1W", 7, false},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			rule, err := Parse(tt.src)
			if err != nil {
				t.Fatalf("Parse(%q) failed: %v", tt.src, err)
			}
			if rule.Count != tt.count {
				t.Errorf("Count = %d, want %d", rule.Count, tt.count)
			}
			if rule.Infinite != tt.infinite {
				t.Errorf("Infinite = %v, want %v", rule.Infinite, tt.infinite)
			}
		})
	}
}

func TestParse_DurationGrammar(t *testing.T) {
	t.Run("zero components are ignored", func(t *testing.T) {
		rule, err := Parse("P0Y0M3D")
		if err != nil {
			t.Fatalf("Parse failed: %v", err)
		}
		if rule.Duration != (Duration{UnitDay, 3}) {
			t.Errorf("Duration = %v, want P3D", rule.Duration)
		}
		// Date units anchor at magnitude 1 regardless of the step size.
		if rule.Resolution != (Resolution{UnitDay, 1}) {
			t.Errorf("Resolution = %v, want P1D", rule.Resolution)
		}
	})

	t.Run("zero seconds are ignored", func(t *testing.T) {
		rule, err := Parse("P1DT0S")
		if err != nil {
			t.Fatalf("Parse failed: %v", err)
		}
		if rule.Resolution != (Resolution{UnitDay, 1}) {
			t.Errorf("Resolution = %v, want P1D", rule.Resolution)
		}
	})

	t.Run("lower case is accepted", func(t *testing.T) {
		rule, err := Parse("r5/p1w")
		if err != nil {
			t.Fatalf("Parse failed: %v", err)
		}
		if rule.Source != "R5/P1W" {
			t.Errorf("Source = %q, want upcased %q", rule.Source, "R5/P1W")
		}
	})

	invalid := []string{
		"",          // empty
		"P",         // no components
		"P0D",       // reduces to zero
		"PT0M",      // reduces to zero
		"P0YT0M",    // reduces to zero
		"P1DT1H",    // two non-zero components
		"P1Y1M",     // two non-zero components
		"PT1H30M",   // two non-zero components
		"R7P1D",     // missing slash
		"R7/",       // missing duration
		"R7/1D",     // missing P
		"P1X",       // unknown designator
		"PT1D",      // day is not a time component
		"P1H",       // hour requires the time mark
		"PD",        // missing digits
		"R-1/P1D",   // negative count
		"R7/P1D/P1", // trailing garbage
	}
	for _, src := range invalid {
		t.Run("invalid "+src, func(t *testing.T) {
			_, err := Parse(src)
			if err == nil {
				t.Fatalf("Parse(%q) succeeded, want error", src)
			}
			var perr *ParseError
			if !errors.As(err, &perr) {
				t.Fatalf("error type = %T, want *ParseError", err)
			}
		})
	}
}

func TestParseAll(t *testing.T) {
	rules, errs := ParseAll([]string{"R24/PT1H", "PT15M", "R7/P1D", "r7/p1d", "R/P1Y"})
	if len(rules) != 3 {
		t.Fatalf("len(rules) = %d, want 3 (duplicate and invalid dropped)", len(rules))
	}
	if len(errs) != 1 {
		t.Fatalf("len(errs) = %d, want 1", len(errs))
	}
	if errs[0].Input != "PT15M" {
		t.Errorf("rejected input = %q, want %q", errs[0].Input, "PT15M")
	}
	wantOrder := []string{"R24/PT1H", "R7/P1D", "R/P1Y"}
	for i, want := range wantOrder {
		if rules[i].Source != want {
			t.Errorf("rules[%d] = %q, want %q", i, rules[i].Source, want)
		}
	}
}
