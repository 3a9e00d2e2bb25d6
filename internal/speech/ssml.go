/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package speech

import (
	"html"
	"regexp"
	"strings"
)

var markupRe = regexp.MustCompile(`<\s*(break|emphasis|prosody)\b`)

// HasMarkup reports whether text is already SSML.
func HasMarkup(text string) bool {
	return markupRe.MatchString(text)
}

// BuildSSML wraps text in a <speak> envelope. Pre-formatted SSML is kept as
// is; plain text is escaped and gets pauses after punctuation.
func BuildSSML(text string) string {
	text = strings.TrimSpace(text)
	if HasMarkup(text) {
		if strings.HasPrefix(text, "<speak") {
			return text
		}
		return "<speak>" + text + "</speak>"
	}

	escaped := html.EscapeString(text)
	var b strings.Builder
	b.Grow(len(escaped) + 64)
	b.WriteString("<speak>")

	runes := []rune(escaped)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r == '.' && i+2 < len(runes) && runes[i+1] == '.' && runes[i+2] == '.' {
			b.WriteString(`...<break time="500ms"/>`)
			i += 2
			continue
		}
		if r == '…' {
			b.WriteString(`…<break time="500ms"/>`)
			continue
		}
		b.WriteRune(r)
		// Only break at the end of a clause, not inside numbers like 3.5.
		if i+1 < len(runes) && runes[i+1] != ' ' {
			continue
		}
		switch r {
		case '.', '!', '?':
			b.WriteString(`<break time="350ms"/>`)
		case ',':
			b.WriteString(`<break time="150ms"/>`)
		case ':':
			b.WriteString(`<break time="200ms"/>`)
		}
	}

	b.WriteString("</speak>")
	return b.String()
}
