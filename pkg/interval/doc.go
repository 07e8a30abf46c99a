// Package interval decodes retention rule strings into typed rules.
//
// A rule string is an ISO 8601 style repeating interval given as a duration:
//
//	R31/P1D   keep the first daily backup from each of the past 31 days
//	R5/P1W    keep the first weekly backup from each of the past 5 weeks
//	R/P1M     keep the first monthly backup, forever
//	P1D       a single, non-repeating daily period
//
// The repetition marker is "R" followed by an optional count: a bare "R"
// means infinite repetition, and omitting the marker entirely means exactly
// one period. The duration must reduce to exactly one non-zero component
// (zero-valued components are ignored).
//
// The rule's resolution is its smallest time increment. Only a fixed set of
// resolutions is supported, chosen to divide evenly into the system's
// 10-minute operating cycle: P1Y, P1M, P1W, P1D, PT12H, PT6H, PT4H, PT3H,
// PT2H, PT1H, PT30M, PT20M and PT10M. Date units may carry a larger
// magnitude (P3D steps three days at a time but still anchors on day
// boundaries); time units must match the set exactly, so PT15M or PT5H fail
// validation.
//
// Decoding is a small hand-written scanner producing a typed Rule. It never
// panics on malformed input: failures come back as *ParseError values naming
// the offending string, and the caller drops the rule and continues.
package interval
