package metrics

import (
	"fmt"
	"strings"
	"unicode"
)

var friendlyAliases = map[string]string{
	"*net.DNSError":                  "DNS lookup failed",
	"net.DNSError":                   "DNS lookup failed",
	"*net.OpError":                   "Network operation failed",
	"net.OpError":                    "Network operation failed",
	"*url.Error":                     "Request URL error",
	"url.Error":                      "Request URL error",
	"*context.deadlineExceededError": "Deadline exceeded",
	"context.deadlineExceededError":  "Deadline exceeded",
	"*context.cancelCtx":             "Cancelled",
	"context.cancelCtx":              "Cancelled",
	"*errors.errorString":            "Error",
	"errors.errorString":             "Error",
}

func typeName(err error) string {
	return fmt.Sprintf("%T", err)
}

// FriendlyErrorName returns a human-friendly label for a Go error type.
func FriendlyErrorName(name string) string {
	cleaned := strings.TrimSpace(name)
	if cleaned == "" {
		return "Unknown error"
	}

	if alias, ok := friendlyAliases[cleaned]; ok {
		return alias
	}
	cleaned = strings.TrimPrefix(cleaned, "*")
	if alias, ok := friendlyAliases[cleaned]; ok {
		return alias
	}
	if idx := strings.LastIndex(cleaned, "/"); idx != -1 {
		cleaned = cleaned[idx+1:]
	}

	pkg := ""
	typ := cleaned
	if idx := strings.Index(typ, "."); idx != -1 {
		pkg = typ[:idx]
		typ = typ[idx+1:]
	}

	pretty := humanizeTypeName(typ)
	if pretty == "" {
		pretty = typ
	}

	switch {
	case strings.EqualFold(pkg, "context") && strings.Contains(strings.ToLower(pretty), "deadline"):
		return "Deadline exceeded"
	case strings.EqualFold(pkg, "net") && strings.Contains(strings.ToLower(pretty), "dns"):
		return "DNS lookup failed"
	case strings.EqualFold(pkg, "url"):
		return "Request URL error"
	}

	if pkg != "" && pkg != "main" {
		return fmt.Sprintf("%s (%s)", pretty, pkg)
	}
	return pretty
}

func humanizeTypeName(name string) string {
	if name == "" {
		return ""
	}

	var words []string
	var current []rune
	runes := []rune(name)

	appendWord := func() {
		if len(current) == 0 {
			return
		}
		word := string(current)
		if isAllUpper(word) {
			words = append(words, word)
		} else {
			words = append(words, capitalize(word))
		}
		current = current[:0]
	}

	for i, r := range runes {
		if i > 0 {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsUpper(r) && (unicode.IsLower(prev) || (unicode.IsUpper(prev) && nextLower)) {
				appendWord()
			} else if unicode.IsDigit(r) && !unicode.IsDigit(prev) {
				appendWord()
			}
		}
		current = append(current, r)
	}
	appendWord()

	return strings.Join(words, " ")
}

func isAllUpper(s string) bool {
	hasLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			hasLetter = true
			if !unicode.IsUpper(r) {
				return false
			}
		}
	}
	return hasLetter
}

func capitalize(s string) string {
	if s == "" {
		return ""
	}
	lower := strings.ToLower(s)
	runes := []rune(lower)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
