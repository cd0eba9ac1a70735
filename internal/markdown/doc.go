// Package markdown provides a line-oriented Markdown scanner for lint
// checks over guide corpora.
//
// The scanner observes raw document structure instead of rendering it:
// an unclosed fence stays unclosed, a heading jump stays a jump. Render
// pipelines normalize these defects away, which is exactly what a lint
// check cannot afford.
//
// Recognized structure: ATX headings (#..######), backtick and tilde
// fences, inline links and images, flat YAML frontmatter, and
// suppression directives in HTML comments (<!-- dr:disable ... -->).
// Setext headings and reference-style links are not recognized.
//
// Parse never fails: malformed input produces a well-formed Document
// describing whatever structure is present.
package markdown
