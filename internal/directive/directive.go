// Package directive implements the inline UI directive codec for script prompts.
//
// Script authors embed presentation hints in prompt text as bracketed tags of the
// form "[UI: key=value; key2=value2]". This package is the only component that ever
// sees the raw tag syntax: everything else consumes the cleaned text and the
// structured directive map.
package directive

import (
	"regexp"
	"strings"
)

// tagPattern matches a single [UI: ...] tag anywhere in prompt text.
var tagPattern = regexp.MustCompile(`\[UI:([^\]]*)\]`)

// spacePattern collapses runs of whitespace left behind by tag removal.
var spacePattern = regexp.MustCompile(`\s+`)

// Parse strips every directive tag from text and returns the cleaned text plus the
// accumulated key/value directives. Later tags win on duplicate keys. Unknown keys
// pass through untouched for the presentation layer to interpret.
//
// Parse is idempotent: already-clean text comes back unchanged with a nil map.
func Parse(text string) (string, map[string]string) {
	matches := tagPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return text, nil
	}

	directives := make(map[string]string)
	for _, m := range matches {
		for _, pair := range strings.Split(m[1], ";") {
			pair = strings.TrimSpace(pair)
			if pair == "" {
				continue
			}
			key, value, found := strings.Cut(pair, "=")
			key = strings.TrimSpace(key)
			if key == "" {
				continue
			}
			if found {
				directives[key] = strings.TrimSpace(value)
			} else {
				// Bare key, e.g. [UI: hide_input]
				directives[key] = ""
			}
		}
	}

	clean := tagPattern.ReplaceAllString(text, " ")
	clean = strings.TrimSpace(spacePattern.ReplaceAllString(clean, " "))
	return clean, directives
}

// Strip returns only the cleaned text, discarding any directives.
func Strip(text string) string {
	clean, _ := Parse(text)
	return clean
}
