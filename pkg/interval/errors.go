package interval

import "fmt"

// ParseError reports that a rule string failed decoding. It names the
// offending input so a run can log the rejected rule and continue.
type ParseError struct {
	// Input is the rule string as given by the user.
	Input string

	// Pos is the byte offset where decoding stopped, when known.
	Pos int

	// Reason describes what was wrong.
	Reason string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid retention rule %q: %s", e.Input, e.Reason)
}

func parseErrorf(input string, pos int, format string, args ...any) *ParseError {
	return &ParseError{
		Input:  input,
		Pos:    pos,
		Reason: fmt.Sprintf(format, args...),
	}
}
