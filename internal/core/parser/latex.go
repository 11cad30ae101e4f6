package parser

import (
	"regexp"
	"strings"
)

// displayMathRe matches $$...$$ lazily, across lines.
var displayMathRe = regexp.MustCompile(`(?s)\$\$(.*?)\$\$`)

// ExtractMathBlocks returns the trimmed LaTeX fragments of a Markdown body:
// every display block in order of appearance, then every inline block.
//
// An inline block opens on a '$' that is neither preceded nor followed by
// another '$' and closes on the nearest later '$' on the same line that is not
// followed by '$'. Display delimiters therefore never count as inline ones.
func ExtractMathBlocks(markdown string) []string {
	blocks := make([]string, 0)
	for _, m := range displayMathRe.FindAllStringSubmatch(markdown, -1) {
		blocks = append(blocks, strings.TrimSpace(m[1]))
	}
	return append(blocks, inlineMath(markdown)...)
}

func inlineMath(s string) []string {
	var out []string
	n := len(s)
	for i := 0; i < n; i++ {
		if s[i] != '$' || (i > 0 && s[i-1] == '$') || (i+1 < n && s[i+1] == '$') {
			continue
		}
		for j := i + 1; j < n && s[j] != '\n'; j++ {
			if s[j] == '$' && (j+1 >= n || s[j+1] != '$') {
				out = append(out, strings.TrimSpace(s[i+1:j]))
				i = j
				break
			}
		}
	}
	return out
}
