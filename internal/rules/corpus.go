package rules

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"
	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/bkyoung/doc-reviewer/internal/domain"
	"github.com/bkyoung/doc-reviewer/internal/markdown"
)

// resolveRelative resolves a link target against the directory of the
// document that contains it, returning a corpus-relative path.
func resolveRelative(fromPath, target string) string {
	return path.Join(path.Dir(fromPath), target)
}

func isMarkdownPath(p string) bool {
	return strings.EqualFold(path.Ext(p), ".md")
}

// indexReferencesRule verifies that every guide the index links to exists
// on disk. Without an index there is nothing to navigate from, so its
// absence is itself a finding.
type indexReferencesRule struct {
	index string
}

func (indexReferencesRule) Meta() RuleMeta {
	return RuleMeta{
		ID:              "index-references",
		Summary:         "index links resolve to files on disk",
		DefaultSeverity: domain.SeverityError,
	}
}

func (r indexReferencesRule) CheckCorpus(corpus *markdown.Corpus) []domain.FindingInput {
	meta := r.Meta()
	index, ok := corpus.Index()
	if !ok {
		return []domain.FindingInput{meta.finding(r.index, 0, 0,
			fmt.Sprintf("Corpus has no index document %q", r.index),
			"Create the index and link every guide from it")}
	}

	var findings []domain.FindingInput
	for _, link := range index.Links {
		if link.IsExternal || link.Path == "" || !isMarkdownPath(link.Path) {
			continue
		}
		rel := resolveRelative(index.Path, link.Path)
		if corpus.HasFile(rel) {
			continue
		}
		if actual, ok := findCaseMismatch(corpus, rel); ok {
			findings = append(findings, meta.finding(index.Path, link.Line, link.Line,
				fmt.Sprintf("Index references %q but the file on disk is %q (case mismatch)", rel, actual),
				fmt.Sprintf("Update the link to %q", actual)))
			continue
		}
		findings = append(findings, meta.finding(index.Path, link.Line, link.Line,
			fmt.Sprintf("Index references %q which does not exist", rel),
			"Remove the link or add the guide"))
	}
	return findings
}

func findCaseMismatch(corpus *markdown.Corpus, rel string) (string, bool) {
	lower := strings.ToLower(rel)
	for _, p := range corpus.Files {
		if strings.ToLower(p) == lower {
			return p, true
		}
	}
	for _, d := range corpus.Documents {
		if strings.ToLower(d.Path) == lower {
			return d.Path, true
		}
	}
	return "", false
}

// orphanedGuidesRule reports documents unreachable from the index by
// relative links. When the corpus has no index, index-references already
// reports that, so this rule stays quiet.
type orphanedGuidesRule struct {
	exempt []string
}

func (orphanedGuidesRule) Meta() RuleMeta {
	return RuleMeta{
		ID:              "orphaned-guides",
		Summary:         "every guide is reachable from the index",
		DefaultSeverity: domain.SeverityWarning,
	}
}

func (r orphanedGuidesRule) CheckCorpus(corpus *markdown.Corpus) []domain.FindingInput {
	index, ok := corpus.Index()
	if !ok {
		return nil
	}

	reachable := map[string]bool{index.Path: true}
	queue := []*markdown.Document{index}
	for len(queue) > 0 {
		doc := queue[0]
		queue = queue[1:]
		for _, link := range doc.Links {
			if link.IsExternal || link.Path == "" {
				continue
			}
			rel := resolveRelative(doc.Path, link.Path)
			if reachable[rel] {
				continue
			}
			target, ok := corpus.Document(rel)
			if !ok {
				continue
			}
			reachable[rel] = true
			queue = append(queue, target)
		}
	}

	var exempt *ignore.GitIgnore
	if len(r.exempt) > 0 {
		exempt = ignore.CompileIgnoreLines(r.exempt...)
	}

	meta := r.Meta()
	var findings []domain.FindingInput
	for _, doc := range corpus.Documents {
		if reachable[doc.Path] {
			continue
		}
		if exempt != nil && exempt.MatchesPath(doc.Path) {
			continue
		}
		findings = append(findings, meta.finding(doc.Path, 0, 0,
			"Guide is not linked from the index",
			fmt.Sprintf("Add a link from %s or exempt this file", index.Path)))
	}
	return findings
}

// relativeLinksRule verifies relative links in non-index documents: the
// target exists, and any fragment matches a heading anchor in the target.
type relativeLinksRule struct{}

func (relativeLinksRule) Meta() RuleMeta {
	return RuleMeta{
		ID:              "relative-links",
		Summary:         "relative links and fragments resolve",
		DefaultSeverity: domain.SeverityWarning,
	}
}

func (r relativeLinksRule) CheckCorpus(corpus *markdown.Corpus) []domain.FindingInput {
	meta := r.Meta()
	anchorCache := make(map[string]map[string]bool)
	anchorsOf := func(doc *markdown.Document) map[string]bool {
		set, ok := anchorCache[doc.Path]
		if !ok {
			set = doc.AnchorSet()
			anchorCache[doc.Path] = set
		}
		return set
	}

	var findings []domain.FindingInput
	for _, doc := range corpus.Documents {
		if doc.Path == corpus.IndexPath {
			continue
		}
		for _, link := range doc.Links {
			if link.IsExternal {
				continue
			}

			if link.Path == "" {
				if link.Fragment == "" {
					continue
				}
				if !anchorsOf(doc)[strings.ToLower(link.Fragment)] {
					findings = append(findings, meta.finding(doc.Path, link.Line, link.Line,
						fmt.Sprintf("Fragment #%s does not match any heading in this document", link.Fragment),
						"Fragments are lowercase heading slugs, e.g. #project-structure"))
				}
				continue
			}

			rel := resolveRelative(doc.Path, link.Path)
			if isMarkdownPath(rel) {
				target, ok := corpus.Document(rel)
				if !ok {
					if !corpus.HasFile(rel) {
						findings = append(findings, meta.finding(doc.Path, link.Line, link.Line,
							fmt.Sprintf("Link target %q does not exist", rel),
							"Fix the path or remove the link"))
					}
					continue
				}
				if link.Fragment != "" && !anchorsOf(target)[strings.ToLower(link.Fragment)] {
					findings = append(findings, meta.finding(doc.Path, link.Line, link.Line,
						fmt.Sprintf("Fragment #%s does not match any heading in %q", link.Fragment, rel),
						"Fragments are lowercase heading slugs, e.g. #project-structure"))
				}
				continue
			}

			if !corpus.HasFile(rel) {
				findings = append(findings, meta.finding(doc.Path, link.Line, link.Line,
					fmt.Sprintf("Link target %q does not exist", rel),
					"Fix the path or remove the link"))
			}
		}
	}
	return findings
}

// duplicateContentRule reports documents that duplicate other documents,
// exactly or nearly. Exact copies are caught by content hash; near copies
// by Levenshtein ratio over normalized text, with a length-ratio prefilter
// so dissimilar sizes skip the expensive diff.
type duplicateContentRule struct {
	threshold float64
}

func (duplicateContentRule) Meta() RuleMeta {
	return RuleMeta{
		ID:              "duplicate-content",
		Summary:         "no duplicated or near-duplicated guides",
		DefaultSeverity: domain.SeverityWarning,
	}
}

func (r duplicateContentRule) CheckCorpus(corpus *markdown.Corpus) []domain.FindingInput {
	meta := r.Meta()
	var findings []domain.FindingInput

	type entry struct {
		path string
		text string
	}
	var entries []entry
	firstByHash := make(map[string]string)

	for _, doc := range corpus.Documents {
		text := normalizeContent(doc.Lines)
		sum := sha256.Sum256([]byte(text))
		key := hex.EncodeToString(sum[:])
		if first, ok := firstByHash[key]; ok {
			findings = append(findings, meta.finding(doc.Path, 0, 0,
				fmt.Sprintf("Document is an exact duplicate of %q", first),
				"Keep one copy and link to it from the other location"))
			continue
		}
		firstByHash[key] = doc.Path
		entries = append(entries, entry{path: doc.Path, text: text})
	}

	differ := diffmatchpatch.New()
	for i := 0; i < len(entries); i++ {
		for j := i + 1; j < len(entries); j++ {
			sim, measured := similarity(differ, entries[i].text, entries[j].text, r.threshold)
			if !measured || sim < r.threshold {
				continue
			}
			findings = append(findings, meta.finding(entries[j].path, 0, 0,
				fmt.Sprintf("Content is %d%% similar to %q", int(sim*100), entries[i].path),
				"Extract the shared material or diverge the guides"))
		}
	}
	return findings
}

// normalizeContent strips trailing whitespace per line so formatting-only
// differences do not hide duplication.
func normalizeContent(lines []string) string {
	normalized := make([]string, len(lines))
	for i, line := range lines {
		normalized[i] = strings.TrimRight(line, " \t")
	}
	return strings.TrimRight(strings.Join(normalized, "\n"), "\n")
}

// similarity is the Levenshtein ratio of two texts. Since the edit
// distance is at least the length difference, a pair whose length ratio
// is under the threshold cannot reach it, and the diff is skipped.
func similarity(differ *diffmatchpatch.DiffMatchPatch, a, b string, threshold float64) (float64, bool) {
	longer, shorter := len(a), len(b)
	if shorter > longer {
		longer, shorter = shorter, longer
	}
	if longer == 0 {
		return 0, false
	}
	if float64(shorter)/float64(longer) < threshold {
		return 0, false
	}

	diffs := differ.DiffMain(a, b, false)
	distance := differ.DiffLevenshtein(diffs)
	return 1 - float64(distance)/float64(longer), true
}

// templateStructureRule checks that guide documents carry the required
// template sections as h2 headings.
type templateStructureRule struct {
	glob     string
	sections []string
	ordered  bool
}

func (templateStructureRule) Meta() RuleMeta {
	return RuleMeta{
		ID:              "template-structure",
		Summary:         "guides follow the shared section template",
		DefaultSeverity: domain.SeverityWarning,
	}
}

func (r templateStructureRule) CheckCorpus(corpus *markdown.Corpus) []domain.FindingInput {
	meta := r.Meta()
	var findings []domain.FindingInput

	for _, doc := range corpus.Documents {
		matched, err := path.Match(r.glob, path.Base(doc.Path))
		if err != nil || !matched {
			continue
		}

		positions := make([]int, len(r.sections))
		for si, section := range r.sections {
			positions[si] = -1
			for hi, h := range doc.Headings {
				if h.Level == 2 && strings.EqualFold(h.Text, section) {
					positions[si] = hi
					break
				}
			}
		}

		for si, section := range r.sections {
			if positions[si] >= 0 {
				continue
			}
			findings = append(findings, meta.finding(doc.Path, 0, 0,
				fmt.Sprintf("Guide is missing required section %q", section),
				"Add the section or tune the template-structure rule"))
		}

		if !r.ordered {
			continue
		}
		lastIndex := -1
		lastName := ""
		for si, section := range r.sections {
			hi := positions[si]
			if hi < 0 {
				continue
			}
			if hi < lastIndex {
				h := doc.Headings[hi]
				findings = append(findings, meta.finding(doc.Path, h.Line, h.Line,
					fmt.Sprintf("Section %q appears before %q", section, lastName),
					"Reorder sections to match the guide template"))
				continue
			}
			lastIndex = hi
			lastName = section
		}
	}
	return findings
}
