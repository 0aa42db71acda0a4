package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DecodeJSONResponse parses a model response expected to be a JSON object.
// Models often wrap the object in prose or markdown fences, so on a failed
// strict parse the first balanced {...} substring is extracted and retried.
func DecodeJSONResponse(response string, target interface{}) error {
	trimmed := strings.TrimSpace(response)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)

	if err := json.Unmarshal([]byte(trimmed), target); err == nil {
		return nil
	}

	obj, ok := FirstJSONObject(response)
	if !ok {
		return fmt.Errorf("no JSON object found in response")
	}
	if err := json.Unmarshal([]byte(obj), target); err != nil {
		return fmt.Errorf("parse embedded JSON object: %w", err)
	}
	return nil
}

// FirstJSONObject returns the first balanced top-level {...} substring of s.
// String literals and escapes are respected so braces inside values do not
// confuse the scan.
func FirstJSONObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}
