// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract recovers structured JSON payloads from free-form model
// output. Models wrap payloads in conversational preambles, fenced code
// blocks, and trailing commentary; this package finds the most plausible
// JSON substring and decodes it, degrading to an absent value when nothing
// parseable is present.
//
// See docs/ARCHITECTURE § Extraction.
package extract

import (
	"encoding/json"
	"fmt"
	"reflect"
	"regexp"
	"strings"
)

// MaxPayloadBytes is the ceiling on candidate payload size. Candidates above
// it are refused before any parse attempt, bounding CPU and memory cost from
// a runaway or adversarial response. Declared as a var so tests and callers
// can tighten it.
var MaxPayloadBytes = 50000

// previewLen bounds the diagnostic excerpt carried by a ParseError. Errors
// never carry the full payload; large blobs belong in neither logs nor
// error chains.
const previewLen = 100

// jsonFencePattern matches a fenced code block explicitly labeled json.
var jsonFencePattern = regexp.MustCompile("(?s)```json\\s*\\n(.*?)```")

// ParseError reports a failed strict extraction. Preview holds at most the
// first 100 characters of the offending candidate.
type ParseError struct {
	Reason  string
	Preview string
}

func (e *ParseError) Error() string {
	if e.Preview == "" {
		return fmt.Sprintf("extracting payload: %s", e.Reason)
	}
	return fmt.Sprintf("extracting payload: %s (starts %q)", e.Reason, e.Preview)
}

// Structured finds and decodes a JSON payload of type T within raw. The
// second return is false when no parseable payload is present, the candidate
// exceeds MaxPayloadBytes, or decoding fails. It never returns an error:
// malformed model output is an expected condition for safe callers.
func Structured[T any](raw string) (T, bool) {
	var zero T
	v, err := StructuredStrict[T](raw)
	if err != nil {
		return zero, false
	}
	return v, true
}

// StructuredStrict behaves like Structured but returns a *ParseError
// describing the failure. Used where a missing payload is unrecoverable,
// such as the planner's own query list.
func StructuredStrict[T any](raw string) (T, error) {
	var zero T

	openDelim, closeDelim := delimitersFor[T]()
	cand, ok := candidate(raw, openDelim, closeDelim)
	if !ok {
		return zero, &ParseError{Reason: "no JSON payload found", Preview: preview(raw)}
	}
	if len(cand) > MaxPayloadBytes {
		return zero, &ParseError{
			Reason:  fmt.Sprintf("payload of %d bytes exceeds %d byte limit", len(cand), MaxPayloadBytes),
			Preview: preview(cand),
		}
	}

	var v T
	if err := json.Unmarshal([]byte(cand), &v); err != nil {
		return zero, &ParseError{Reason: err.Error(), Preview: preview(cand)}
	}
	return v, nil
}

// delimitersFor returns the top-level open and close delimiters expected for
// T: brackets for slices and arrays, braces for everything else.
func delimitersFor[T any]() (byte, byte) {
	var zero T
	switch reflect.TypeOf(&zero).Elem().Kind() {
	case reflect.Slice, reflect.Array:
		return '[', ']'
	default:
		return '{', '}'
	}
}

// candidate selects the substring most likely to hold the payload. A fenced
// ```json block wins; otherwise the span from the first open delimiter to the
// last matching close delimiter, which tolerates prose on either side.
func candidate(raw string, openDelim, closeDelim byte) (string, bool) {
	if m := jsonFencePattern.FindStringSubmatch(raw); m != nil {
		if inner := strings.TrimSpace(m[1]); inner != "" {
			return inner, true
		}
	}

	start := strings.IndexByte(raw, openDelim)
	if start < 0 {
		return "", false
	}
	end := strings.LastIndexByte(raw, closeDelim)
	if end <= start {
		return "", false
	}
	return raw[start : end+1], true
}

func preview(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > previewLen {
		return s[:previewLen]
	}
	return s
}
