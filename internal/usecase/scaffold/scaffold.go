// Package scaffold creates new guide files from the embedded template so
// every guide starts with the sections the lint rules expect.
package scaffold

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"text/template"
	"time"
	"unicode"

	"github.com/spf13/afero"

	"github.com/bkyoung/doc-reviewer/internal/assets"
)

// Request describes the guide to scaffold.
type Request struct {
	// Platform is the human-readable platform name, e.g. "Ruby on Rails".
	Platform string
	// Dir is the corpus directory the guide is written into.
	Dir string
	// Title overrides the default "<Platform> Best Practices" title.
	Title string
	// Force overwrites an existing guide file.
	Force bool
	// Index is the corpus index file name checked for a link to the new
	// guide, e.g. "README.md".
	Index string
}

// Result reports what the scaffolder did.
type Result struct {
	// Path is the created guide file.
	Path string
	// Slug is the file-name slug derived from the platform.
	Slug string
	// IndexFound reports whether the corpus index file exists.
	IndexFound bool
	// IndexLinked reports whether the index already references the new
	// guide file. When false the caller should remind the user to add it,
	// or the next lint run will flag the guide as unreferenced.
	IndexLinked bool
}

// Scaffolder renders guide files into a corpus.
type Scaffolder struct {
	fs  afero.Fs
	now func() time.Time
}

// New returns a scaffolder over the given filesystem. A nil clock uses
// time.Now.
func New(fs afero.Fs, now func() time.Time) *Scaffolder {
	if now == nil {
		now = time.Now
	}
	return &Scaffolder{fs: fs, now: now}
}

// Sections returns the section headings every scaffolded guide starts with.
func Sections() []string {
	return assets.TemplateSections()
}

// Slug converts a platform name to a file-name slug: lowercase, with runs
// of non-alphanumeric characters collapsed into single hyphens.
func Slug(platform string) string {
	var b strings.Builder
	pendingHyphen := false
	for _, r := range strings.ToLower(platform) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}
	return b.String()
}

// Create renders the guide template into <slug>-best-practices.md under
// req.Dir. Existing files are preserved unless req.Force is set.
func (s *Scaffolder) Create(req Request) (Result, error) {
	platform := strings.TrimSpace(req.Platform)
	if platform == "" {
		return Result{}, fmt.Errorf("platform name is required")
	}
	slug := Slug(platform)
	if slug == "" {
		return Result{}, fmt.Errorf("platform name %q yields an empty slug", req.Platform)
	}

	fileName := slug + "-best-practices.md"
	path := filepath.Join(req.Dir, fileName)

	if exists, err := afero.Exists(s.fs, path); err != nil {
		return Result{}, fmt.Errorf("check %s: %w", path, err)
	} else if exists && !req.Force {
		return Result{}, fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = platform + " Best Practices"
	}

	tmpl, err := template.New("guide").Parse(assets.GuideTemplate())
	if err != nil {
		return Result{}, fmt.Errorf("parse guide template: %w", err)
	}

	var buf bytes.Buffer
	err = tmpl.Execute(&buf, map[string]string{
		"Platform": platform,
		"Title":    title,
		"Date":     s.now().UTC().Format("2006-01-02"),
	})
	if err != nil {
		return Result{}, fmt.Errorf("render guide template: %w", err)
	}

	if err := s.fs.MkdirAll(req.Dir, 0o755); err != nil {
		return Result{}, fmt.Errorf("create %s: %w", req.Dir, err)
	}
	if err := afero.WriteFile(s.fs, path, buf.Bytes(), 0o644); err != nil {
		return Result{}, fmt.Errorf("write %s: %w", path, err)
	}

	result := Result{Path: path, Slug: slug}
	if req.Index != "" {
		result.IndexFound, result.IndexLinked = s.indexState(filepath.Join(req.Dir, req.Index), fileName)
	}
	return result, nil
}

func (s *Scaffolder) indexState(indexPath, fileName string) (found, linked bool) {
	content, err := afero.ReadFile(s.fs, indexPath)
	if err != nil {
		return false, false
	}
	return true, strings.Contains(string(content), fileName)
}
