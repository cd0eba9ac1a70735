package markdown

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

var linkPattern = regexp.MustCompile(`(!?)\[([^\]]*)\]\(([^()]*)\)`)

// Parse scans content into a Document. It never fails: malformed input
// yields a Document describing whatever structure is present.
func Parse(path string, content []byte) *Document {
	text := strings.TrimPrefix(string(content), "\uFEFF")
	raw := strings.Split(text, "\n")
	lines := make([]string, len(raw))
	for i, line := range raw {
		lines[i] = strings.TrimSuffix(line, "\r")
	}

	doc := &Document{
		Path:      path,
		Lines:     lines,
		BodyStart: 1,
	}

	parseFrontMatter(doc)

	slugger := newSlugCounter()
	openFence := -1

	for i := doc.BodyStart - 1; i >= 0 && i < len(lines); i++ {
		line := lines[i]
		lineNo := i + 1

		if openFence >= 0 {
			fence := &doc.Fences[openFence]
			if isFenceClose(line, fence.Char, fence.OpenLen) {
				fence.CloseLine = lineNo
				openFence = -1
			}
			continue
		}

		if fence, ok := parseFenceOpen(line, lineNo); ok {
			doc.Fences = append(doc.Fences, fence)
			openFence = len(doc.Fences) - 1
			continue
		}

		if level, text, ok := parseATXHeading(line); ok {
			doc.Headings = append(doc.Headings, Heading{
				Line:   lineNo,
				Level:  level,
				Text:   text,
				Anchor: slugger.slug(text),
			})
		}

		doc.Directives = append(doc.Directives, parseDirectives(line, lineNo)...)
		doc.Links = append(doc.Links, scanLinks(line, lineNo)...)
	}

	doc.suppressions = buildSuppressionIndex(doc)
	return doc
}

// parseFrontMatter detects a leading flat YAML frontmatter block delimited
// by --- lines. Malformed frontmatter is left in place as body text.
func parseFrontMatter(doc *Document) {
	lines := doc.Lines
	if len(lines) == 0 || strings.TrimRight(lines[0], " ") != "---" {
		return
	}

	for i := 1; i < len(lines); i++ {
		trimmed := strings.TrimRight(lines[i], " ")
		if trimmed != "---" && trimmed != "..." {
			continue
		}

		blob := strings.Join(lines[1:i], "\n")
		var parsed map[string]interface{}
		if err := yaml.Unmarshal([]byte(blob), &parsed); err != nil {
			return
		}

		front := make(map[string]string, len(parsed))
		for key, value := range parsed {
			switch value.(type) {
			case map[string]interface{}, []interface{}:
				// nested values are out of scope for guide metadata
			default:
				front[key] = fmt.Sprintf("%v", value)
			}
		}

		doc.FrontMatter = front
		doc.BodyStart = i + 2
		return
	}
}

// parseFenceOpen recognizes a fence opening: at most 3 leading spaces,
// then 3+ identical fence characters. A backtick fence whose info string
// contains a backtick is not a fence (it is inline code in a paragraph).
func parseFenceOpen(line string, lineNo int) (Fence, bool) {
	trimmed := strings.TrimLeft(line, " ")
	indent := len(line) - len(trimmed)
	if indent > 3 || len(trimmed) < 3 {
		return Fence{}, false
	}

	char := trimmed[0]
	if char != '`' && char != '~' {
		return Fence{}, false
	}

	length := 0
	for length < len(trimmed) && trimmed[length] == char {
		length++
	}
	if length < 3 {
		return Fence{}, false
	}

	info := strings.TrimSpace(trimmed[length:])
	if char == '`' && strings.Contains(info, "`") {
		return Fence{}, false
	}

	return Fence{
		OpenLine: lineNo,
		Char:     char,
		OpenLen:  length,
		Indent:   indent,
		Info:     info,
	}, true
}

// isFenceClose recognizes a closing fence for the given open fence: the
// same character repeated at least as many times, nothing else on the
// line but whitespace.
func isFenceClose(line string, char byte, openLen int) bool {
	trimmed := strings.TrimLeft(line, " ")
	if len(line)-len(trimmed) > 3 {
		return false
	}

	trimmed = strings.TrimRight(trimmed, " \t")
	if len(trimmed) < openLen {
		return false
	}

	for i := 0; i < len(trimmed); i++ {
		if trimmed[i] != char {
			return false
		}
	}
	return true
}

// parseATXHeading recognizes #..###### headings with at most 3 leading
// spaces. A trailing closing sequence of #s is stripped when preceded by
// a space, so "## Title ##" keeps "Title" but "# C#" keeps "C#".
func parseATXHeading(line string) (int, string, bool) {
	trimmed := strings.TrimLeft(line, " ")
	if len(line)-len(trimmed) > 3 {
		return 0, "", false
	}

	level := 0
	for level < len(trimmed) && trimmed[level] == '#' {
		level++
	}
	if level == 0 || level > 6 {
		return 0, "", false
	}

	rest := trimmed[level:]
	if rest != "" && rest[0] != ' ' && rest[0] != '\t' {
		return 0, "", false
	}

	text := strings.TrimSpace(rest)
	stripped := strings.TrimRight(text, "#")
	if stripped != text && (stripped == "" || strings.HasSuffix(stripped, " ")) {
		text = strings.TrimRight(stripped, " ")
	}

	return level, text, true
}

// scanLinks extracts inline links and images from one line, skipping any
// that start inside an inline code span.
func scanLinks(line string, lineNo int) []Link {
	matches := linkPattern.FindAllStringSubmatchIndex(line, -1)
	if len(matches) == 0 {
		return nil
	}

	mask := codeSpanMask(line)
	var links []Link

	for _, m := range matches {
		start := m[0]
		if start < len(mask) && mask[start] {
			continue
		}

		isImage := m[3] > m[2] // the (!?) group matched text
		text := line[m[4]:m[5]]
		rawTarget := strings.TrimSpace(line[m[6]:m[7]])

		target := extractTarget(rawTarget)
		if target == "" {
			continue
		}

		link := Link{
			Line:    lineNo,
			Text:    text,
			Target:  target,
			IsImage: isImage,
		}

		pathPart := target
		if idx := strings.Index(target, "#"); idx >= 0 {
			pathPart = target[:idx]
			link.Fragment = target[idx+1:]
		}
		if decoded, err := url.PathUnescape(pathPart); err == nil {
			pathPart = decoded
		}
		link.Path = pathPart
		link.IsExternal = isExternalTarget(target)

		links = append(links, link)
	}

	return links
}

// extractTarget peels the destination out of the raw parenthesized
// content: an <angle-bracketed> destination, or the first token with any
// quoted title dropped.
func extractTarget(raw string) string {
	if strings.HasPrefix(raw, "<") {
		if end := strings.Index(raw, ">"); end >= 0 {
			return raw[1:end]
		}
		return strings.TrimPrefix(raw, "<")
	}

	if idx := strings.IndexAny(raw, " \t"); idx >= 0 {
		return raw[:idx]
	}
	return raw
}

func isExternalTarget(target string) bool {
	return strings.Contains(target, "://") ||
		strings.HasPrefix(target, "mailto:") ||
		strings.HasPrefix(target, "tel:") ||
		strings.HasPrefix(target, "//")
}

// codeSpanMask marks line positions inside backtick code spans. A run of
// N backticks opens a span closed by the next run of exactly N.
func codeSpanMask(line string) []bool {
	mask := make([]bool, len(line))

	i := 0
	for i < len(line) {
		if line[i] != '`' {
			i++
			continue
		}

		start := i
		runLen := 0
		for i < len(line) && line[i] == '`' {
			i++
			runLen++
		}

		closed := false
		j := i
		for j < len(line) && !closed {
			if line[j] != '`' {
				j++
				continue
			}
			k := j
			closeLen := 0
			for k < len(line) && line[k] == '`' {
				k++
				closeLen++
			}
			if closeLen == runLen {
				for p := start; p < k; p++ {
					mask[p] = true
				}
				i = k
				closed = true
			} else {
				j = k
			}
		}
	}

	return mask
}
