// Package normalize turns raw model output into message content and metadata.
package normalize

import (
	"bytes"
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

// ErrNoJSON is returned when no JSON object can be recovered from model output.
var ErrNoJSON = errors.New("no JSON object found in model output")

// Stage records which extraction strategy recovered the JSON object.
type Stage string

const (
	StageDirect   Stage = "direct"
	StageFenced   Stage = "fenced"
	StageBraces   Stage = "braces"
	StageFallback Stage = "fallback"
)

var fencePattern = regexp.MustCompile("(?s)```[A-Za-z0-9_-]*[ \t]*\\r?\\n?(.*?)```")

// ExtractJSON recovers a JSON object from raw model text. It tries, in order,
// the whole string, each fenced code block, and the span from the first '{'
// to the last '}'.
func ExtractJSON(raw string) (json.RawMessage, Stage, error) {
	if obj, ok := asObject(raw); ok {
		return obj, StageDirect, nil
	}

	for _, m := range fencePattern.FindAllStringSubmatch(raw, -1) {
		if obj, ok := asObject(m[1]); ok {
			return obj, StageFenced, nil
		}
	}

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		if obj, ok := asObject(raw[start : end+1]); ok {
			return obj, StageBraces, nil
		}
	}

	return nil, StageFallback, ErrNoJSON
}

func asObject(s string) (json.RawMessage, bool) {
	b := bytes.TrimSpace([]byte(s))
	if len(b) == 0 || b[0] != '{' || !json.Valid(b) {
		return nil, false
	}
	return json.RawMessage(b), true
}
