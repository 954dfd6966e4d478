package text

import "strings"

// Ellipsis terminates text truncated by a line limit.
const Ellipsis = "…"

type breakClass uint8

const (
	breakOther breakClass = iota
	breakSpace
	breakZero
	breakOpen
	breakHyphen
	breakIdeographic
)

func classifyRune(r rune) breakClass {
	switch r {
	case ' ', '\t':
		return breakSpace
	case '​':
		return breakZero
	case '(', '[', '{', '“', '‘':
		return breakOpen
	case '-', '‐', '–', '—':
		return breakHyphen
	}
	if isCJKRune(r) {
		return breakIdeographic
	}
	return breakOther
}

func isCJKRune(r rune) bool {
	return (r >= 0x4E00 && r <= 0x9FFF) || // CJK Unified Ideographs
		(r >= 0x3400 && r <= 0x4DBF) || // CJK Extension A
		(r >= 0x20000 && r <= 0x2A6DF) || // CJK Extension B
		(r >= 0x3040 && r <= 0x309F) || // Hiragana
		(r >= 0x30A0 && r <= 0x30FF) || // Katakana
		(r >= 0xAC00 && r <= 0xD7AF) || // Hangul Syllables
		(r >= 0xFF00 && r <= 0xFFEF) // Fullwidth forms
}

// canBreakBefore reports whether a line may start at runes[i].
func canBreakBefore(runes []rune, i int) bool {
	if i <= 0 || i >= len(runes) {
		return false
	}
	prev, cur := classifyRune(runes[i-1]), classifyRune(runes[i])
	switch {
	case cur == breakSpace:
		return false
	case prev == breakSpace, prev == breakZero, prev == breakHyphen:
		return true
	case prev == breakOpen:
		return false
	case prev == breakIdeographic, cur == breakIdeographic:
		return true
	}
	return false
}

// wrapLines splits s into lines of at most maxWidth runes, breaking at word
// boundaries. Words longer than maxWidth stay whole. Newlines always break.
// A maxWidth of 0 disables wrapping. When maxLines > 0 the result is
// truncated and the last line ends with Ellipsis.
func wrapLines(s string, maxWidth, maxLines int) []string {
	var lines []string
	for _, para := range strings.Split(s, "\n") {
		lines = append(lines, wrapParagraph([]rune(para), maxWidth)...)
	}
	if maxLines > 0 && len(lines) > maxLines {
		lines = lines[:maxLines]
		last := strings.TrimRight(lines[maxLines-1], " \t")
		lines[maxLines-1] = last + Ellipsis
	}
	return lines
}

func wrapParagraph(runes []rune, maxWidth int) []string {
	if maxWidth <= 0 || len(runes) <= maxWidth {
		return []string{strings.TrimRight(string(runes), " \t")}
	}

	var lines []string
	start := 0
	for start < len(runes) {
		for start < len(runes) && classifyRune(runes[start]) == breakSpace {
			start++
		}
		if start >= len(runes) {
			break
		}
		if len(runes)-start <= maxWidth {
			lines = append(lines, strings.TrimRight(string(runes[start:]), " \t"))
			break
		}

		end := -1
		for i := start + maxWidth; i > start; i-- {
			if i < len(runes) && canBreakBefore(runes, i) ||
				i < len(runes) && classifyRune(runes[i]) == breakSpace {
				end = i
				break
			}
		}
		if end < 0 {
			// Overlong word: extend to the next opportunity.
			end = len(runes)
			for i := start + maxWidth + 1; i < len(runes); i++ {
				if canBreakBefore(runes, i) || classifyRune(runes[i]) == breakSpace {
					end = i
					break
				}
			}
		}
		lines = append(lines, strings.TrimRight(string(runes[start:end]), " \t"))
		start = end
	}
	if len(lines) == 0 {
		lines = append(lines, "")
	}
	return lines
}
