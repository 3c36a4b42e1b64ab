package structured

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// MaxSnippet bounds the number of runes kept in ParseError.Snippet.
const MaxSnippet = 300

var (
	// ErrNotObject is the cause when the text decodes to something other than
	// a JSON object.
	ErrNotObject = errors.New("structured: not a JSON object")
	// ErrNoObject is the cause when no '{' ... '}' span exists in the text.
	ErrNoObject = errors.New("structured: no JSON object found")

	errTrailingData = errors.New("structured: data after JSON value")
)

// ParseError reports output that could not be recovered as a JSON object.
type ParseError struct {
	Snippet string
	Cause   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("structured: unparseable output: %v", e.Cause)
}

func (e *ParseError) Unwrap() error { return e.Cause }

// Parse recovers a JSON object from raw. The steps, in order: strip code
// fences and decode; decode the span from the first '{' to the last '}';
// remove trailing commas from that span and decode once more. Numbers are
// returned as json.Number so large integers survive unchanged.
func Parse(raw string) (map[string]any, error) {
	text := StripFences(raw)

	obj, err := decodeObject(text)
	if err == nil {
		return obj, nil
	}
	lastErr := err

	span, ok := objectSpan(text)
	if !ok {
		if !errors.Is(lastErr, ErrNotObject) {
			lastErr = ErrNoObject
		}
		return nil, newParseError(text, lastErr)
	}
	if obj, err = decodeObject(span); err == nil {
		return obj, nil
	}

	repaired := dropTrailingCommas(span)
	if obj, err = decodeObject(repaired); err == nil {
		return obj, nil
	}
	return nil, newParseError(text, err)
}

// ParseInto recovers an object with Parse and decodes it into v.
func ParseInto(raw string, v any) error {
	obj, err := Parse(raw)
	if err != nil {
		return err
	}
	b, err := json.Marshal(obj)
	if err != nil {
		return fmt.Errorf("structured: re-encode: %w", err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return newParseError(string(b), err)
	}
	return nil
}

// StripFences trims whitespace and removes a surrounding markdown code fence
// such as ```json ... ```.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	// Drop the language tag on the opening fence line.
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		s = s[idx+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	if idx := strings.LastIndex(s, "```"); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}

// Snippet returns at most n runes of s.
func Snippet(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func decodeObject(s string) (map[string]any, error) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errTrailingData
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, ErrNotObject
	}
	return obj, nil
}

// dropTrailingCommas removes each comma that is followed, after optional
// whitespace, by a closing brace or bracket. String literals are copied
// untouched.
func dropTrailingCommas(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inString, escaped := false, false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case inString:
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
		case c == '"':
			inString = true
		case c == ',':
			j := i + 1
			for j < len(s) && strings.IndexByte(" \t\r\n", s[j]) >= 0 {
				j++
			}
			if j < len(s) && (s[j] == '}' || s[j] == ']') {
				continue
			}
		}
		b.WriteByte(c)
	}
	return b.String()
}

func objectSpan(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}

func newParseError(text string, cause error) *ParseError {
	return &ParseError{Snippet: Snippet(text, MaxSnippet), Cause: cause}
}
