package markdown

import (
	"regexp"
	"sort"
	"strings"
)

// DirectiveKind enumerates the suppression controls authors can embed in
// HTML comments.
type DirectiveKind int

const (
	// DirectiveDisable turns rules off from its line onward.
	DirectiveDisable DirectiveKind = iota
	// DirectiveEnable turns rules back on from its line onward.
	DirectiveEnable
	// DirectiveDisableLine suppresses findings on the directive's line.
	DirectiveDisableLine
	// DirectiveIgnoreFile opts the whole document out when it appears
	// before the first heading.
	DirectiveIgnoreFile
)

// Directive is one parsed suppression comment, e.g.
// <!-- dr:disable fence-language --> or <!-- dr:ignore-file -->.
// An empty Rules slice means all rules.
type Directive struct {
	Line  int
	Kind  DirectiveKind
	Rules []string
}

var directivePattern = regexp.MustCompile(`<!--\s*dr:([a-z-]+)((?:\s+[^\s>-][^\s>]*)*)\s*-->`)

// parseDirectives extracts suppression directives from one line. Unknown
// directive names are ignored for forward compatibility.
func parseDirectives(line string, lineNo int) []Directive {
	if !strings.Contains(line, "dr:") {
		return nil
	}

	var directives []Directive
	for _, m := range directivePattern.FindAllStringSubmatch(line, -1) {
		var kind DirectiveKind
		switch m[1] {
		case "disable":
			kind = DirectiveDisable
		case "enable":
			kind = DirectiveEnable
		case "disable-line":
			kind = DirectiveDisableLine
		case "ignore-file":
			kind = DirectiveIgnoreFile
		default:
			continue
		}

		directives = append(directives, Directive{
			Line:  lineNo,
			Kind:  kind,
			Rules: strings.Fields(m[2]),
		})
	}
	return directives
}

// SuppressionIndex answers whether a directive suppresses a given rule at
// a given line.
type SuppressionIndex struct {
	ignoreFile bool
	lineRules  map[int]ruleSet
	snapshots  []suppressionSnapshot
}

type ruleSet struct {
	all   bool
	rules map[string]bool
}

func (rs ruleSet) covers(rule string) bool {
	return rs.all || rs.rules[rule]
}

// suppressionSnapshot is the region state effective from Line onward.
// When all is set, exceptions lists rules re-enabled inside the region.
type suppressionSnapshot struct {
	line       int
	all        bool
	disabled   map[string]bool
	exceptions map[string]bool
}

func buildSuppressionIndex(doc *Document) *SuppressionIndex {
	idx := &SuppressionIndex{lineRules: make(map[int]ruleSet)}

	firstHeading := 0
	if len(doc.Headings) > 0 {
		firstHeading = doc.Headings[0].Line
	}

	state := suppressionSnapshot{
		disabled:   make(map[string]bool),
		exceptions: make(map[string]bool),
	}

	for _, d := range doc.Directives {
		switch d.Kind {
		case DirectiveIgnoreFile:
			if firstHeading == 0 || d.Line < firstHeading {
				idx.ignoreFile = true
			}
			continue

		case DirectiveDisableLine:
			set, ok := idx.lineRules[d.Line]
			if !ok {
				set = ruleSet{rules: make(map[string]bool)}
			}
			if len(d.Rules) == 0 {
				set.all = true
			}
			for _, r := range d.Rules {
				set.rules[r] = true
			}
			idx.lineRules[d.Line] = set
			continue

		case DirectiveDisable:
			state = state.clone(d.Line)
			if len(d.Rules) == 0 {
				state.all = true
				state.disabled = make(map[string]bool)
				state.exceptions = make(map[string]bool)
			} else {
				for _, r := range d.Rules {
					state.disabled[r] = true
					delete(state.exceptions, r)
				}
			}

		case DirectiveEnable:
			state = state.clone(d.Line)
			if len(d.Rules) == 0 {
				state.all = false
				state.disabled = make(map[string]bool)
				state.exceptions = make(map[string]bool)
			} else {
				for _, r := range d.Rules {
					delete(state.disabled, r)
					if state.all {
						state.exceptions[r] = true
					}
				}
			}
		}

		idx.snapshots = append(idx.snapshots, state)
	}

	return idx
}

func (s suppressionSnapshot) clone(line int) suppressionSnapshot {
	next := suppressionSnapshot{
		line:       line,
		all:        s.all,
		disabled:   make(map[string]bool, len(s.disabled)),
		exceptions: make(map[string]bool, len(s.exceptions)),
	}
	for r := range s.disabled {
		next.disabled[r] = true
	}
	for r := range s.exceptions {
		next.exceptions[r] = true
	}
	return next
}

func (s suppressionSnapshot) covers(rule string) bool {
	if s.all {
		return !s.exceptions[rule]
	}
	return s.disabled[rule]
}

// FileIgnored reports whether the whole document opted out.
func (idx *SuppressionIndex) FileIgnored() bool {
	if idx == nil {
		return false
	}
	return idx.ignoreFile
}

// Suppressed reports whether a finding for rule at line is silenced by a
// directive. A dr:disable-line on the finding's own line wins; otherwise
// the nearest preceding region directive decides.
func (idx *SuppressionIndex) Suppressed(rule string, line int) bool {
	if idx == nil {
		return false
	}
	if idx.ignoreFile {
		return true
	}

	if set, ok := idx.lineRules[line]; ok && set.covers(rule) {
		return true
	}

	n := sort.Search(len(idx.snapshots), func(i int) bool {
		return idx.snapshots[i].line > line
	})
	if n == 0 {
		return false
	}
	return idx.snapshots[n-1].covers(rule)
}
