package assets_test

import (
	"strings"
	"testing"

	"github.com/bkyoung/doc-reviewer/internal/assets"
)

func TestGuideTemplate(t *testing.T) {
	tmpl := assets.GuideTemplate()

	for _, placeholder := range []string{"{{.Platform}}", "{{.Title}}", "{{.Date}}"} {
		if !strings.Contains(tmpl, placeholder) {
			t.Errorf("template is missing placeholder %s", placeholder)
		}
	}
	if strings.Count(tmpl, "# {{.Title}}") != 1 {
		t.Error("template should have exactly one title heading")
	}
}

func TestTemplateSections(t *testing.T) {
	sections := assets.TemplateSections()

	if len(sections) == 0 {
		t.Fatal("template should declare sections")
	}
	want := []string{"Overview", "Project Structure", "Code Style", "Testing", "Security", "Common Pitfalls", "Prompting Tips"}
	if len(sections) != len(want) {
		t.Fatalf("sections = %v, want %v", sections, want)
	}
	for i := range want {
		if sections[i] != want[i] {
			t.Errorf("section %d = %q, want %q", i, sections[i], want[i])
		}
	}
}
