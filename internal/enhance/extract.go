package enhance

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var (
	fencedJSON = regexp.MustCompile("(?s)```json\\s*(.*?)\\s*```")
	bareObject = regexp.MustCompile(`(?s)\{.*\}`)
	whitespace = regexp.MustCompile(`\s+`)
)

// ExtractJSON finds a JSON object in free-form model output and decodes it.
// A ```json fence wins over a bare {...} region. The candidate is first parsed
// as-is; only if that fails are raw newlines and tabs collapsed, which repairs
// unescaped line breaks inside string values at the cost of their formatting.
func ExtractJSON(text string, out any) error {
	candidate := ""
	if m := fencedJSON.FindStringSubmatch(text); m != nil {
		candidate = m[1]
	} else if m := bareObject.FindString(text); m != "" {
		candidate = m
	}
	if strings.TrimSpace(candidate) == "" {
		return fmt.Errorf("%w: no JSON object found", ErrUnparseable)
	}

	if err := json.Unmarshal([]byte(candidate), out); err == nil {
		return nil
	}

	collapsed := strings.TrimSpace(whitespace.ReplaceAllString(candidate, " "))
	if err := json.Unmarshal([]byte(collapsed), out); err != nil {
		return fmt.Errorf("%w: %v", ErrUnparseable, err)
	}
	return nil
}
