package llm

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

var (
	fenceRe  = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")
	dollarRe = regexp.MustCompile(`\$\s*([0-9][0-9,]*(?:\.[0-9]{1,2})?)`)
	numberRe = regexp.MustCompile(`([0-9][0-9,]*(?:\.[0-9]{1,2})?)`)
)

// ExtractJSON pulls the first JSON object out of a completion and decodes
// it into out. Models wrap payloads in code fences and prose; this strips
// both. Returns false when no decodable object exists.
func ExtractJSON(raw string, out any) bool {
	candidates := []string{raw}
	if m := fenceRe.FindStringSubmatch(raw); m != nil {
		candidates = append([]string{m[1]}, candidates...)
	}
	for _, c := range candidates {
		if obj, ok := firstObject(c); ok {
			if json.Unmarshal([]byte(obj), out) == nil {
				return true
			}
		}
	}
	return false
}

// firstObject scans for the first balanced {...} span, string-aware.
func firstObject(s string) (string, bool) {
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

// ExtractDollarAmount finds a price in free text, preferring "$123.45"
// spellings over bare numbers. Returns false when nothing parses.
func ExtractDollarAmount(raw string) (float64, bool) {
	if m := dollarRe.FindStringSubmatch(raw); m != nil {
		return parseAmount(m[1])
	}
	if m := numberRe.FindStringSubmatch(raw); m != nil {
		return parseAmount(m[1])
	}
	return 0, false
}

func parseAmount(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

// ExtractLines splits a completion into trimmed, non-empty lines with any
// leading list markers ("1.", "-", "*") removed. Used by batch prompts
// that ask for one answer per input line.
func ExtractLines(raw string) []string {
	var out []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimPrefix(line, "- ")
		line = strings.TrimPrefix(line, "* ")
		if idx := listMarkerEnd(line); idx > 0 {
			line = strings.TrimSpace(line[idx:])
		}
		if line == "" || strings.HasPrefix(line, "```") {
			continue
		}
		out = append(out, line)
	}
	return out
}

func listMarkerEnd(line string) int {
	i := 0
	for i < len(line) && line[i] >= '0' && line[i] <= '9' {
		i++
	}
	if i > 0 && i < len(line) && (line[i] == '.' || line[i] == ')') {
		return i + 1
	}
	return 0
}
