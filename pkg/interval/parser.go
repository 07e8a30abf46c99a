package interval

import "strings"

// maxCount bounds the repetition count. A count beyond this would generate
// an absurd number of period boundaries; treat it as a typo.
const maxCount = 1_000_000

// Parse decodes one retention rule string. The input is upcased and trimmed
// first, so "r7/p1d" and "R7/P1D" are the same rule. On failure the returned
// error is a *ParseError naming the input; Parse never panics.
func Parse(source string) (*Rule, error) {
	text := strings.ToUpper(strings.TrimSpace(source))
	if text == "" {
		return nil, parseErrorf(source, 0, "empty rule")
	}

	s := scanner{input: text}
	rule := &Rule{Source: text, Count: 1}

	// Optional repetition marker: "R[count]/". A bare "R" is infinite.
	if s.peek() == 'R' {
		s.pos++
		count, hasCount, err := s.count(text)
		if err != nil {
			return nil, err
		}
		if s.peek() != '/' {
			return nil, parseErrorf(text, s.pos, "expected '/' after repetition marker")
		}
		s.pos++
		if hasCount {
			rule.Count = count
		} else {
			rule.Count = 0
			rule.Infinite = true
		}
	}

	dur, err := s.duration(text)
	if err != nil {
		return nil, err
	}

	res, ok := resolutionOf(dur.Unit, dur.Magnitude)
	if !ok {
		return nil, parseErrorf(text, s.pos,
			"unsupported resolution %d %s: hour must be 1-4, 6 or 12, minute must be 10, 20 or 30, and seconds are not supported",
			dur.Magnitude, dur.Unit)
	}

	rule.Duration = dur
	rule.Resolution = res
	return rule, nil
}

// ParseAll decodes a list of rule strings, in order. Invalid rules are
// dropped, not fatal: they come back in the second return value so the
// caller can warn about each one and carry on with the rest.
func ParseAll(sources []string) ([]*Rule, []*ParseError) {
	var (
		rules []*Rule
		errs  []*ParseError
	)
	seen := make(map[string]bool, len(sources))
	for _, src := range sources {
		rule, err := Parse(src)
		if err != nil {
			errs = append(errs, err.(*ParseError))
			continue
		}
		// Duplicate rule strings are a single tier.
		if seen[rule.Source] {
			continue
		}
		seen[rule.Source] = true
		rules = append(rules, rule)
	}
	return rules, errs
}

// scanner walks a rule string byte by byte. Rule strings are pure ASCII;
// any multi-byte rune fails the character checks naturally.
type scanner struct {
	input string
	pos   int
}

// peek returns the current byte, or 0 at end of input.
func (s *scanner) peek() byte {
	if s.pos >= len(s.input) {
		return 0
	}
	return s.input[s.pos]
}

// count scans an optional decimal repetition count.
func (s *scanner) count(text string) (int, bool, error) {
	start := s.pos
	n := 0
	for s.peek() >= '0' && s.peek() <= '9' {
		n = n*10 + int(s.input[s.pos]-'0')
		if n > maxCount {
			return 0, false, parseErrorf(text, start, "repetition count exceeds %d", maxCount)
		}
		s.pos++
	}
	return n, s.pos > start, nil
}

// duration scans "P" followed by date components, an optional "T" mark and
// time components, and enforces that exactly one component is non-zero.
func (s *scanner) duration(text string) (Duration, error) {
	if s.peek() != 'P' {
		return Duration{}, parseErrorf(text, s.pos, "expected 'P' to begin duration")
	}
	s.pos++

	var (
		out        Duration
		components int
		nonZero    int
		timeMark   bool
	)

	for s.pos < len(s.input) {
		if s.peek() == 'T' {
			if timeMark {
				return Duration{}, parseErrorf(text, s.pos, "duplicate time mark 'T'")
			}
			timeMark = true
			s.pos++
			continue
		}

		start := s.pos
		magnitude := 0
		for s.peek() >= '0' && s.peek() <= '9' {
			magnitude = magnitude*10 + int(s.input[s.pos]-'0')
			if magnitude > maxCount {
				return Duration{}, parseErrorf(text, start, "duration component exceeds %d", maxCount)
			}
			s.pos++
		}
		if s.pos == start {
			return Duration{}, parseErrorf(text, s.pos, "expected digits in duration component")
		}

		unit, err := componentUnit(text, s.peek(), timeMark, s.pos)
		if err != nil {
			return Duration{}, err
		}
		s.pos++

		components++
		if magnitude == 0 {
			// Zero-valued components are ignored, per ISO 8601 usage
			// in the retention policy grammar.
			continue
		}
		nonZero++
		if nonZero > 1 {
			return Duration{}, parseErrorf(text, start, "duration must have exactly one non-zero component")
		}
		out = Duration{Unit: unit, Magnitude: magnitude}
	}

	if components == 0 {
		return Duration{}, parseErrorf(text, s.pos, "duration has no components")
	}
	if nonZero == 0 {
		return Duration{}, parseErrorf(text, s.pos, "duration reduces to zero")
	}
	return out, nil
}

// componentUnit maps a duration designator letter to its unit. "M" means
// month before the time mark and minute after it.
func componentUnit(text string, c byte, timeMark bool, pos int) (Unit, error) {
	if timeMark {
		switch c {
		case 'H':
			return UnitHour, nil
		case 'M':
			return UnitMinute, nil
		case 'S':
			return UnitSecond, nil
		}
		return 0, parseErrorf(text, pos, "invalid time designator %q", string(rune(c)))
	}
	switch c {
	case 'Y':
		return UnitYear, nil
	case 'M':
		return UnitMonth, nil
	case 'W':
		return UnitWeek, nil
	case 'D':
		return UnitDay, nil
	case 'H', 'S':
		return 0, parseErrorf(text, pos, "time designator %q requires the 'T' mark", string(rune(c)))
	}
	if c == 0 {
		return 0, parseErrorf(text, pos, "missing duration designator")
	}
	return 0, parseErrorf(text, pos, "invalid date designator %q", string(rune(c)))
}
