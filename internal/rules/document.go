package rules

import (
	"fmt"
	"strings"

	"github.com/bkyoung/doc-reviewer/internal/domain"
	"github.com/bkyoung/doc-reviewer/internal/markdown"
	"github.com/bkyoung/doc-reviewer/internal/secrets"
)

// fenceClosureRule reports fenced code blocks that are never closed. An
// unclosed fence swallows the rest of the document in most renderers.
type fenceClosureRule struct{}

func (fenceClosureRule) Meta() RuleMeta {
	return RuleMeta{
		ID:              "fence-closure",
		Summary:         "every opened code fence is closed",
		DefaultSeverity: domain.SeverityError,
	}
}

func (r fenceClosureRule) CheckDocument(doc *markdown.Document) []domain.FindingInput {
	meta := r.Meta()
	var findings []domain.FindingInput
	for _, fence := range doc.Fences {
		if fence.Closed() {
			continue
		}
		marker := strings.Repeat(string(fence.Char), fence.OpenLen)
		findings = append(findings, meta.finding(doc.Path, fence.OpenLine, fence.OpenLine,
			fmt.Sprintf("Code fence opened with %s is never closed", marker),
			fmt.Sprintf("Close the block with a %s line", marker)))
	}
	return findings
}

// headingIncrementRule reports heading levels that deepen by more than
// one step at a time.
type headingIncrementRule struct{}

func (headingIncrementRule) Meta() RuleMeta {
	return RuleMeta{
		ID:              "heading-increment",
		Summary:         "heading levels deepen by at most one",
		DefaultSeverity: domain.SeverityWarning,
	}
}

func (r headingIncrementRule) CheckDocument(doc *markdown.Document) []domain.FindingInput {
	meta := r.Meta()
	var findings []domain.FindingInput
	for i := 1; i < len(doc.Headings); i++ {
		prev, curr := doc.Headings[i-1], doc.Headings[i]
		if curr.Level <= prev.Level+1 {
			continue
		}
		findings = append(findings, meta.finding(doc.Path, curr.Line, curr.Line,
			fmt.Sprintf("Heading level jumps from h%d to h%d", prev.Level, curr.Level),
			fmt.Sprintf("Use h%d or restructure the sections between", prev.Level+1)))
	}
	return findings
}

// titleStructureRule expects a single h1 title as the first heading.
type titleStructureRule struct{}

func (titleStructureRule) Meta() RuleMeta {
	return RuleMeta{
		ID:              "title-structure",
		Summary:         "one h1 title, first in the document",
		DefaultSeverity: domain.SeverityWarning,
	}
}

func (r titleStructureRule) CheckDocument(doc *markdown.Document) []domain.FindingInput {
	meta := r.Meta()
	if len(doc.Headings) == 0 {
		return []domain.FindingInput{meta.finding(doc.Path, 0, 0,
			"Document has no title heading",
			"Open the document with a single h1 title")}
	}

	var findings []domain.FindingInput
	first := doc.Headings[0]
	if first.Level != 1 {
		findings = append(findings, meta.finding(doc.Path, first.Line, first.Line,
			fmt.Sprintf("First heading is h%d, expected an h1 title", first.Level),
			"Open the document with a single h1 title"))
	}

	titleSeen := false
	for _, h := range doc.Headings {
		if h.Level != 1 {
			continue
		}
		if !titleSeen {
			titleSeen = true
			continue
		}
		findings = append(findings, meta.finding(doc.Path, h.Line, h.Line,
			"Multiple h1 headings in one document",
			"Demote additional h1 headings to h2"))
	}
	return findings
}

// fenceLanguageRule asks backtick fences to declare a language so
// highlighting and tooling can act on the block.
type fenceLanguageRule struct{}

func (fenceLanguageRule) Meta() RuleMeta {
	return RuleMeta{
		ID:              "fence-language",
		Summary:         "code fences declare a language",
		DefaultSeverity: domain.SeverityInfo,
	}
}

func (r fenceLanguageRule) CheckDocument(doc *markdown.Document) []domain.FindingInput {
	meta := r.Meta()
	var findings []domain.FindingInput
	for _, fence := range doc.Fences {
		if fence.Char != '`' || fence.Info != "" {
			continue
		}
		findings = append(findings, meta.finding(doc.Path, fence.OpenLine, fence.OpenLine,
			"Code fence has no language tag",
			"Add a language after the opening fence, e.g. ```bash"))
	}
	return findings
}

// secretExposureRule reports credential-shaped content anywhere in a
// document, fences included. Messages carry only the masked form.
type secretExposureRule struct {
	detector *secrets.Detector
}

func newSecretExposureRule() secretExposureRule {
	return secretExposureRule{detector: secrets.NewDetector()}
}

func (secretExposureRule) Meta() RuleMeta {
	return RuleMeta{
		ID:              "secret-exposure",
		Summary:         "no credential-shaped content in guides",
		DefaultSeverity: domain.SeverityError,
	}
}

func (r secretExposureRule) CheckDocument(doc *markdown.Document) []domain.FindingInput {
	meta := r.Meta()
	var findings []domain.FindingInput
	for _, match := range r.detector.Scan(doc.Lines) {
		findings = append(findings, meta.finding(doc.Path, match.Line, match.Line,
			fmt.Sprintf("Possible %s (%s)", match.Kind, match.Evidence),
			"Replace the credential with a named placeholder or environment variable"))
	}
	return findings
}
