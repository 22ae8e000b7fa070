package cover

import (
	"regexp"
	"strings"
)

var (
	parenGroupRe      = regexp.MustCompile(`\s*\([^)]*\)\s*`)
	trailingBracketRe = regexp.MustCompile(`\s*\[[^\]]+\]\s*$`)
)

// NormalizeTitle folds a title into the key used by the byTitle half of the
// index: lowercase, "&" spelled "and", parenthetical groups dropped, runs of
// anything that is not [a-z0-9] collapsed to one space.
func NormalizeTitle(title string) string {
	s := strings.ReplaceAll(strings.ToLower(title), "&", "and")

	var b strings.Builder
	b.Grow(len(s))
	pendingSpace := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '(' {
			if end := strings.IndexByte(s[i+1:], ')'); end >= 0 {
				i += end + 1
			}
			pendingSpace = true
			continue
		}
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') {
			if pendingSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}
			pendingSpace = false
			b.WriteByte(c)
			continue
		}
		pendingSpace = true
	}
	return b.String()
}

// StripParenGroups removes region/revision suffixes like "(USA)" or "(Rev 1)"
// wherever they appear and tidies the whitespace left behind.
func StripParenGroups(s string) string {
	out := parenGroupRe.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(out), " ")
}

// StripTrailingBracketSerial drops a trailing "[SLUS-20265]" style tag.
func StripTrailingBracketSerial(s string) string {
	return strings.TrimSpace(trailingBracketRe.ReplaceAllString(s, ""))
}
