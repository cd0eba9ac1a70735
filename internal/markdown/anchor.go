package markdown

import (
	"strconv"
	"strings"
	"unicode"
)

// AnchorSlug converts heading text into a GitHub-style anchor slug:
// lowercase, spaces become hyphens, punctuation other than hyphen and
// underscore is dropped.
func AnchorSlug(text string) string {
	var b strings.Builder
	for _, r := range text {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r):
			b.WriteRune(unicode.ToLower(r))
		case r == ' ' || r == '\t':
			b.WriteByte('-')
		case r == '-' || r == '_':
			b.WriteRune(r)
		}
	}
	return b.String()
}

// slugCounter deduplicates anchors within one document the way GitHub
// does: the second "overview" becomes "overview-1".
type slugCounter struct {
	seen map[string]int
}

func newSlugCounter() *slugCounter {
	return &slugCounter{seen: make(map[string]int)}
}

func (s *slugCounter) slug(text string) string {
	base := AnchorSlug(text)
	n, dup := s.seen[base]
	s.seen[base] = n + 1
	if !dup {
		return base
	}
	return base + "-" + strconv.Itoa(n)
}
