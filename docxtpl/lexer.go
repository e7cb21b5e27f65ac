package docxtpl

import "regexp"

// inlineTagPattern finds every `{...}` directive inside a run of plain text;
// brace characters are excluded from the inner token.
var inlineTagPattern = regexp.MustCompile(`\{([^{}]+)\}`)

// wholeTagPattern matches when the entire (trimmed) string is a single
// directive, the stricter form control/image markers require.
var wholeTagPattern = regexp.MustCompile(`^\{([^{}]+)\}$`)

// MatchWholeTag reports whether s is exactly one `{...}` token, returning
// its inner content. It does not trim s; callers trim before calling.
func MatchWholeTag(s string) (inner string, ok bool) {
	m := wholeTagPattern.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	return m[1], true
}
