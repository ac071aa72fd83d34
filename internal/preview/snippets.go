package preview

import (
	"strings"
	"unicode"
)

// FindSnippets finds up to maxSnippets case-insensitive matches of query in
// text and returns them with contextLen runes on each side. The match is
// wrapped in 【】. Runs of whitespace in the result collapse to one space.
func FindSnippets(text string, query string, contextLen int, maxSnippets int) []string {
	if maxSnippets <= 0 {
		maxSnippets = 1
	}
	if contextLen < 0 {
		contextLen = 0
	}
	tr := []rune(text)
	qr := []rune(query)
	if len(qr) == 0 || len(tr) == 0 {
		return nil
	}

	snips := make([]string, 0, maxSnippets)
	for i := 0; i+len(qr) <= len(tr); {
		idx := indexFold(tr, qr, i)
		if idx < 0 {
			break
		}
		start := max(idx-contextLen, 0)
		end := min(idx+len(qr)+contextLen, len(tr))
		snips = append(snips,
			collapseSpace(string(tr[start:idx]))+"【"+string(tr[idx:idx+len(qr)])+"】"+collapseSpace(string(tr[idx+len(qr):end])))
		if len(snips) >= maxSnippets {
			break
		}
		i = idx + len(qr)
	}
	return snips
}

// Head returns the first maxChars runes of text with whitespace collapsed.
func Head(text string, maxChars int) string {
	text = strings.TrimSpace(collapseSpace(text))
	if maxChars <= 0 {
		return text
	}
	r := []rune(text)
	if len(r) <= maxChars {
		return text
	}
	return string(r[:maxChars]) + "…"
}

func indexFold(hay []rune, needle []rune, from int) int {
	for i := max(from, 0); i+len(needle) <= len(hay); i++ {
		ok := true
		for j := range needle {
			if unicode.ToLower(hay[i+j]) != unicode.ToLower(needle[j]) {
				ok = false
				break
			}
		}
		if ok {
			return i
		}
	}
	return -1
}

func collapseSpace(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	space := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			if !space {
				sb.WriteByte(' ')
			}
			space = true
			continue
		}
		space = false
		sb.WriteRune(r)
	}
	return sb.String()
}
