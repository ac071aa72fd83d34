package app

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// DisplayAttribute renders a record attribute for humans. Windows Search
// reports the file size in bytes; Spotlight reports a change date.
func DisplayAttribute(attr string) string {
	if n, err := strconv.ParseInt(strings.TrimSpace(attr), 10, 64); err == nil && n >= 0 {
		return formatSize(n)
	}
	return attr
}

func formatSize(s int64) string {
	const unit = 1024
	if s < unit {
		return fmt.Sprintf("%d B", s)
	}
	div, exp := int64(unit), 0
	for n := s / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(s)/float64(div), "KMGTPE"[exp])
}

// queryIsSearchable reports whether q is long enough to start a live search.
func queryIsSearchable(q string) bool {
	ascii, wide := 0, 0
	for _, r := range strings.TrimSpace(q) {
		if unicode.IsSpace(r) || r == '*' || r == '?' {
			continue
		}
		if r <= 0x7f {
			ascii++
		} else {
			wide++
		}
	}
	return ascii >= 2 || wide >= 1
}
