package ingest

import (
	"encoding/json"
	"strings"

	"github.com/myrjola/mysteries/internal/errors"
)

var (
	// ErrNoJSONObject means the text holds no balanced {...} candidate.
	ErrNoJSONObject = errors.NewSentinel("no JSON object found")
	// ErrMalformedJSON means balanced candidates were found but none of them is valid JSON.
	ErrMalformedJSON = errors.NewSentinel("malformed JSON object")
)

// ExtractJSONObject returns the first balanced JSON object embedded in free text such as a chat completion.
//
// Braces are matched by depth counting. Braces inside string literals are ignored and backslash escapes are
// respected. When a candidate does not parse, the scan resumes at the next '{' after the candidate start.
func ExtractJSONObject(text string) (string, error) {
	// closing maps the index of a '{' to the index of its '}', or -1 when it is never closed.
	closing := make(map[int]int)
	foundCandidate := false
	for offset := 0; offset < len(text); {
		i := strings.IndexByte(text[offset:], '{')
		if i < 0 {
			break
		}
		start := offset + i
		end, seen := closing[start]
		if !seen {
			end = matchObject(text, start, closing)
		}
		if end >= 0 {
			foundCandidate = true
			candidate := text[start : end+1]
			if json.Valid([]byte(candidate)) {
				return candidate, nil
			}
		}
		offset = start + 1
	}
	if foundCandidate {
		return "", ErrMalformedJSON
	}
	return "", ErrNoJSONObject
}

// matchObject returns the index of the '}' closing the '{' at start, or -1. Every brace outside a string literal
// that the scan opens is recorded in closing, since a scan started at that brace would see the same characters.
func matchObject(text string, start int, closing map[int]int) int {
	var (
		open     []int
		inString bool
		escaped  bool
	)
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			open = append(open, i)
		case '}':
			closing[open[len(open)-1]] = i
			open = open[:len(open)-1]
			if len(open) == 0 {
				return i
			}
		}
	}
	for _, o := range open {
		closing[o] = -1
	}
	return -1
}
