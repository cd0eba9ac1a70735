package secrets

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"sort"
)

// Match is one detected secret occurrence. Evidence carries a stable
// masked form of the matched text, never the secret itself.
type Match struct {
	Line     int    // 1-based line number
	Kind     string // human-readable pattern name
	Evidence string // <MASKED:xxxxxxxx> placeholder
}

type pattern struct {
	kind string
	re   *regexp.Regexp
}

// Detector performs regex-based secret detection over document lines.
type Detector struct {
	patterns []pattern
}

// NewDetector creates a detector with the default secret patterns.
func NewDetector() *Detector {
	return &Detector{
		patterns: defaultPatterns(),
	}
}

// Scan examines lines for secret-shaped tokens. When two patterns match
// overlapping text on a line, the more specific pattern (listed first)
// claims the span.
func (d *Detector) Scan(lines []string) []Match {
	var matches []Match

	for i, line := range lines {
		type hit struct {
			start, end int
			kind       string
		}
		var hits []hit

		for _, p := range d.patterns {
			for _, loc := range p.re.FindAllStringIndex(line, -1) {
				overlaps := false
				for _, h := range hits {
					if loc[0] < h.end && h.start < loc[1] {
						overlaps = true
						break
					}
				}
				if !overlaps {
					hits = append(hits, hit{start: loc[0], end: loc[1], kind: p.kind})
				}
			}
		}

		sort.Slice(hits, func(a, b int) bool { return hits[a].start < hits[b].start })

		for _, h := range hits {
			matches = append(matches, Match{
				Line:     i + 1,
				Kind:     h.kind,
				Evidence: maskToken(line[h.start:h.end]),
			})
		}
	}

	return matches
}

// Mask replaces every detected secret in input with a stable placeholder.
// The same secret always yields the same placeholder.
func (d *Detector) Mask(input string) string {
	result := []byte(input)

	for _, p := range d.patterns {
		result = p.re.ReplaceAllFunc(result, func(m []byte) []byte {
			return []byte(maskToken(string(m)))
		})
	}

	return string(result)
}

// Masked reports whether content contains masking placeholders.
func Masked(content string) bool {
	return maskedPattern.MatchString(content)
}

var maskedPattern = regexp.MustCompile(`<MASKED:[0-9a-f]{8}>`)

// maskToken creates a stable, unique placeholder for a secret.
func maskToken(secret string) string {
	hash := sha256.Sum256([]byte(secret))
	return fmt.Sprintf("<MASKED:%s>", hex.EncodeToString(hash[:])[:8])
}

// defaultPatterns returns the secret patterns, most specific first. The
// detector runs line by line, so the PEM pattern matches the opening
// marker rather than the whole block. Bearer tokens carry a length floor
// so documentation placeholders like YOUR_TOKEN_HERE stay unflagged.
func defaultPatterns() []pattern {
	specs := []struct {
		kind string
		expr string
	}{
		{"anthropic api key", `sk-ant-[a-zA-Z0-9\-]{20,}`},
		{"openai api key", `sk-[a-zA-Z0-9]{20,}`},
		{"aws access key id", `AKIA[0-9A-Z]{16}`},
		{"aws secret access key", `aws.{0,20}?['\"][0-9a-zA-Z/+]{40}['\"]`},
		{"github token", `gh[posr]_[a-zA-Z0-9]{20,}`},
		{"google api key", `AIza[0-9A-Za-z\-_]{35}`},
		{"jwt", `eyJ[a-zA-Z0-9_-]+\.eyJ[a-zA-Z0-9_-]+\.[a-zA-Z0-9_-]+`},
		{"private key", `-----BEGIN\s+(?:(?:RSA|EC|OPENSSH|DSA|ENCRYPTED)\s+)?PRIVATE\s+KEY-----`},
		{"slack token", `xox[baprs]-[a-zA-Z0-9\-]{10,}`},
		{"bearer token", `Bearer\s+[a-zA-Z0-9_\-\.]{20,}`},
	}

	patterns := make([]pattern, 0, len(specs))
	for _, s := range specs {
		patterns = append(patterns, pattern{kind: s.kind, re: regexp.MustCompile(s.expr)})
	}

	return patterns
}
