package cacheinfra

import (
	"fmt"
	"regexp"
	"strings"
)

// compileGlob turns a Redis-style glob (*, ?, [set], \x) into an anchored
// expression. Unlike path.Match, '*' also spans '/' since keys embed
// slash-joined category paths.
func compileGlob(pattern string) (*regexp.Regexp, error) {
	if pattern == "" {
		pattern = "*"
	}

	var b strings.Builder
	b.WriteString("^")
	runes := []rune(pattern)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch r {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
		case '\\':
			if i+1 < len(runes) {
				i++
				b.WriteString(regexp.QuoteMeta(string(runes[i])))
			} else {
				b.WriteString(`\\`)
			}
		case '[':
			end := i + 1
			for end < len(runes) && runes[end] != ']' {
				end++
			}
			if end >= len(runes) {
				b.WriteString(`\[`)
				continue
			}
			set := string(runes[i+1 : end])
			if strings.HasPrefix(set, "^") {
				set = "^" + strings.ReplaceAll(set[1:], `\`, `\\`)
			} else {
				set = strings.ReplaceAll(set, `\`, `\\`)
			}
			b.WriteString("[" + set + "]")
			i = end
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")

	re, err := regexp.Compile(b.String())
	if err != nil {
		return nil, fmt.Errorf("invalid glob %q: %w", pattern, err)
	}
	return re, nil
}

func humanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%dB", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f%c", float64(n)/float64(div), "KMGTPE"[exp])
}
