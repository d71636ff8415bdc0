package domain

import "strings"

// HelpSection is one block of a tool's help text.
type HelpSection struct {
	Heading   string   `json:"heading,omitempty"`
	Paragraph []string `json:"paragraph,omitempty"`
	Items     []string `json:"items,omitempty"`
}

var bulletMarkers = []string{"•", "-", "*"}

// ParseHelpText splits free-form help text into sections. Sections are separated by
// blank lines, a line ending in ":" is a heading, bullet-prefixed lines are list items.
func ParseHelpText(text string) []HelpSection {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var sections []HelpSection
	for _, block := range strings.Split(text, "\n\n") {
		var sec HelpSection
		for _, line := range strings.Split(block, "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			if item, ok := trimBullet(line); ok {
				sec.Items = append(sec.Items, item)
				continue
			}
			if strings.HasSuffix(line, ":") && sec.Heading == "" && len(sec.Paragraph) == 0 && len(sec.Items) == 0 {
				sec.Heading = strings.TrimSuffix(line, ":")
				continue
			}
			sec.Paragraph = append(sec.Paragraph, line)
		}
		if sec.Heading != "" || len(sec.Paragraph) > 0 || len(sec.Items) > 0 {
			sections = append(sections, sec)
		}
	}
	return sections
}

func trimBullet(line string) (string, bool) {
	for _, m := range bulletMarkers {
		if strings.HasPrefix(line, m) {
			return strings.TrimSpace(strings.TrimPrefix(line, m)), true
		}
	}
	return "", false
}
