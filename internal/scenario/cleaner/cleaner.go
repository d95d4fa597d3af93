// Package cleaner repairs common artifacts in generated scenario text.
package cleaner

import (
	"regexp"
	"strings"
)

var (
	titleLine       = regexp.MustCompile(`^[ \t]*(?i:title)[ \t]*:[ \t]*(.*)\n+`)
	quotedTitleLine = regexp.MustCompile(`^[ \t]*"([^"\n]+)"[ \t]*\n+`)
	brokenSentence  = regexp.MustCompile(`([a-z,;:])[ \t]*(?:\n[ \t]*)+([a-z])`)
	metaBlock       = regexp.MustCompile(`(?is)(?:^|\n|([.!?]["')]?)[ \t]+)[ \t*#_-]*(?:innovations used|innovations featured|technologies used|technologies featured|educational innovations|innovations incorporated)[ \t*_]*:.*$`)
	trailingList    = regexp.MustCompile(`\s*\[[^\[\]]*\]\s*$`)
	extraNewlines   = regexp.MustCompile(`\n{3,}`)
)

// Clean turns a leading title into a heading line, joins sentences split by
// stray line breaks and drops trailing innovation lists. Text that matches
// none of the patterns comes back trimmed.
func Clean(text string) string {
	if text == "" {
		return text
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.TrimLeft(text, " \t\n")

	title, body, hasTitle := splitTitle(text)

	// Each replacement consumes the following letter, so chains of broken
	// lines need another pass.
	for {
		joined := brokenSentence.ReplaceAllString(body, "$1 $2")
		if joined == body {
			break
		}
		body = joined
	}

	body = metaBlock.ReplaceAllString(body, "$1")
	body = trailingList.ReplaceAllString(body, "")
	body = extraNewlines.ReplaceAllString(body, "\n\n")
	body = strings.TrimSpace(body)

	if hasTitle {
		return heading(title, body)
	}
	return body
}

// splitTitle separates a leading title line from the rest of the text.
func splitTitle(text string) (title, body string, ok bool) {
	if m := titleLine.FindStringSubmatchIndex(text); m != nil {
		return unquote(strings.TrimSpace(text[m[2]:m[3]])), text[m[1]:], true
	}
	if m := quotedTitleLine.FindStringSubmatchIndex(text); m != nil {
		return strings.TrimSpace(text[m[2]:m[3]]), text[m[1]:], true
	}
	return "", text, false
}

// unquote drops one pair of surrounding double quotes.
func unquote(s string) string {
	if len(s) >= 2 && strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) {
		return strings.TrimSpace(s[1 : len(s)-1])
	}
	return s
}

func heading(title, body string) string {
	switch {
	case title == "":
		return body
	case body == "":
		return title
	}
	return title + "\n\n" + body
}
