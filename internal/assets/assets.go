// Package assets carries embedded content: the guide template rendered by
// the scaffolder and mined for the default required sections.
package assets

import (
	_ "embed"
	"strings"
)

//go:embed templates/guide.md
var guideTemplate string

// GuideTemplate returns the raw guide template. Placeholders: .Platform,
// .Title, .Date.
func GuideTemplate() string {
	return guideTemplate
}

// TemplateSections returns the level-2 section headings of the guide
// template, in order. These are the default required sections for guides.
func TemplateSections() []string {
	var sections []string
	for _, line := range strings.Split(guideTemplate, "\n") {
		if strings.HasPrefix(line, "## ") {
			sections = append(sections, strings.TrimSpace(strings.TrimPrefix(line, "## ")))
		}
	}
	return sections
}
