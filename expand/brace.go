package expand

import (
	"fmt"
	"strconv"
	"strings"
)

// expandBraces runs on a single already variable/arithmetic-expanded
// word: `{a,b,c}` list expansion and
// `{m..n}` numeric ranges, preserving zero-padding when either endpoint
// begins with '0'. Returns one or more resulting words.
func expandBraces(word string) []string {
	open := strings.IndexByte(word, '{')
	if open < 0 {
		return []string{word}
	}
	close := matchBrace(word, open)
	if close < 0 {
		return []string{word}
	}

	prefix := word[:open]
	body := word[open+1 : close]
	suffix := word[close+1:]

	var items []string
	if r := parseNumericRange(body); r != nil {
		items = r
	} else if strings.Contains(body, ",") {
		items = splitTopLevelComma(body)
	} else {
		return []string{word}
	}

	var out []string
	for _, item := range items {
		for _, suffixExpanded := range expandBraces(suffix) {
			out = append(out, prefix+item+suffixExpanded)
		}
	}
	return out
}

// splitTopLevelComma splits body on commas that aren't inside a nested
// {..} group.
func splitTopLevelComma(body string) []string {
	var parts []string
	depth := 0
	start := 0
	for i := 0; i < len(body); i++ {
		switch body[i] {
		case '{':
			depth++
		case '}':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, body[start:i])
				start = i + 1
			}
		}
	}
	parts = append(parts, body[start:])
	return parts
}

// parseNumericRange recognizes "m..n" (optionally zero-padded), returning
// nil if body doesn't match that shape.
func parseNumericRange(body string) []string {
	idx := strings.Index(body, "..")
	if idx < 0 {
		return nil
	}
	startStr, endStr := body[:idx], body[idx+2:]
	if startStr == "" || endStr == "" {
		return nil
	}

	start, err1 := strconv.Atoi(startStr)
	end, err2 := strconv.Atoi(endStr)
	if err1 != nil || err2 != nil {
		return nil
	}

	pad := 0
	if (strings.HasPrefix(startStr, "0") && len(startStr) > 1) || (strings.HasPrefix(endStr, "0") && len(endStr) > 1) {
		pad = len(startStr)
		if len(endStr) > pad {
			pad = len(endStr)
		}
	}

	var out []string
	if start <= end {
		for v := start; v <= end; v++ {
			out = append(out, formatRangeValue(v, pad))
		}
	} else {
		for v := start; v >= end; v-- {
			out = append(out, formatRangeValue(v, pad))
		}
	}
	return out
}

func formatRangeValue(v, pad int) string {
	if pad == 0 {
		return strconv.Itoa(v)
	}
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	return sign + fmt.Sprintf("%0*d", pad, v)
}
