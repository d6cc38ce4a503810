package xray

import (
	"fmt"
	"strings"
)

// Section markers are tried in order; the first variant that yields
// non-empty content wins. New label conventions are added here, not in
// control flow.
var sectionMarkerFormats = []string{
	"【%s】",
	"%s：",
	"%s:",
	"## %s",
	"**%s**",
}

// nextSectionSentinels delimit the end of a section body: the earliest
// occurrence of any sentinel after the marker closes the section.
var nextSectionSentinels = []string{"【", "##", "\n**"}

// ExtractSection pulls the body of a labeled section out of semi-structured
// report text. Pure string matching; absence is reported via ok=false and
// is not an error.
func ExtractSection(text, section string) (string, bool) {
	for _, format := range sectionMarkerFormats {
		marker := fmt.Sprintf(format, section)
		idx := strings.Index(text, marker)
		if idx < 0 {
			continue
		}
		start := idx + len(marker)
		end := len(text)
		for _, sentinel := range nextSectionSentinels {
			if start+1 > len(text) {
				break
			}
			if pos := strings.Index(text[start+1:], sentinel); pos >= 0 && start+1+pos < end {
				end = start + 1 + pos
			}
		}
		if body := strings.TrimSpace(text[start:end]); body != "" {
			return body, true
		}
	}
	return "", false
}
