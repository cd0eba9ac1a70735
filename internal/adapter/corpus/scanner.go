// Package corpus discovers and parses the guide corpus from a filesystem.
// The scanner walks one root directory, applies include/exclude globs and
// gitignore-style rules, and hands every surviving Markdown file to the
// document scanner.
package corpus

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"
	"github.com/spf13/afero"

	"github.com/bkyoung/doc-reviewer/internal/markdown"
	"github.com/bkyoung/doc-reviewer/internal/usecase/lint"
)

// Directories never worth descending into, regardless of configuration.
var alwaysSkippedDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"vendor":       true,
}

const defaultMaxFileBytes = 1 << 20

// Options tune corpus discovery. Zero values fall back to the defaults the
// configuration layer also uses.
type Options struct {
	Index            string   // index document name at the corpus root
	Include          []string // file globs that make a file a document
	Exclude          []string // file globs removed from the document set
	RespectGitignore bool
	IgnoreFile       string // tool ignore file name, gitignore syntax
	MaxFileBytes     int64
}

// Scanner implements the lint.Scanner port.
type Scanner struct {
	fs     afero.Fs
	opts   Options
	logger lint.Logger
}

// NewScanner builds a scanner over fs. A nil fs means the OS filesystem;
// tests pass an in-memory one. The logger is optional.
func NewScanner(fs afero.Fs, opts Options, logger lint.Logger) *Scanner {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if opts.Index == "" {
		opts.Index = "README.md"
	}
	if len(opts.Include) == 0 {
		opts.Include = []string{"**/*.md"}
	}
	if opts.IgnoreFile == "" {
		opts.IgnoreFile = ".drignore"
	}
	if opts.MaxFileBytes == 0 {
		opts.MaxFileBytes = defaultMaxFileBytes
	}
	return &Scanner{fs: fs, opts: opts, logger: logger}
}

// Scan walks dir and returns the parsed corpus. An empty corpus is a valid
// result; an unreadable document aborts the scan.
func (s *Scanner) Scan(ctx context.Context, dir string) (*markdown.Corpus, error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve corpus root: %w", err)
	}
	info, err := s.fs.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat corpus root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("corpus root %s is not a directory", root)
	}

	ignoreRules := s.loadIgnoreRules(root)

	var documents []*markdown.Document
	var files []string

	walkErr := afero.Walk(s.fs, root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if info.IsDir() {
			if rel == "." {
				return nil
			}
			if alwaysSkippedDirs[info.Name()] {
				return filepath.SkipDir
			}
			if ignoreRules != nil && ignoreRules.MatchesPath(rel+"/") {
				return filepath.SkipDir
			}
			return nil
		}

		if ignoreRules != nil && ignoreRules.MatchesPath(rel) {
			return nil
		}
		if !s.withinRoot(p, root) {
			s.logWarning(ctx, "skipping symlink escaping the corpus root", map[string]interface{}{
				"path": rel,
			})
			return nil
		}

		files = append(files, rel)

		if !matchAnyGlob(s.opts.Include, rel) || matchAnyGlob(s.opts.Exclude, rel) {
			return nil
		}
		if info.Size() > s.opts.MaxFileBytes {
			s.logWarning(ctx, "skipping oversized document", map[string]interface{}{
				"path":  rel,
				"bytes": info.Size(),
			})
			return nil
		}

		content, err := afero.ReadFile(s.fs, p)
		if err != nil {
			return fmt.Errorf("read %s: %w", rel, err)
		}
		documents = append(documents, markdown.Parse(rel, content))
		return nil
	})
	if walkErr != nil {
		return nil, walkErr
	}

	sort.Slice(documents, func(i, j int) bool { return documents[i].Path < documents[j].Path })
	sort.Strings(files)

	corpus := &markdown.Corpus{
		Root:      root,
		Documents: documents,
		Files:     files,
	}
	if _, ok := corpus.Document(s.opts.Index); ok {
		corpus.IndexPath = s.opts.Index
	}
	return corpus, nil
}

// loadIgnoreRules compiles gitignore-style rules from the repository
// .gitignore (when enabled) and the tool ignore file. Missing files simply
// contribute nothing.
func (s *Scanner) loadIgnoreRules(root string) *gitignore.GitIgnore {
	var lines []string
	if s.opts.RespectGitignore {
		lines = append(lines, readIgnoreLines(s.fs, filepath.Join(root, ".gitignore"))...)
	}
	lines = append(lines, readIgnoreLines(s.fs, filepath.Join(root, s.opts.IgnoreFile))...)
	if len(lines) == 0 {
		return nil
	}
	return gitignore.CompileIgnoreLines(lines...)
}

func readIgnoreLines(fs afero.Fs, path string) []string {
	content, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil
	}
	var lines []string
	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

// withinRoot reports whether the resolved path still lives under the root.
// Only meaningful on the OS filesystem; in-memory filesystems have no
// symlinks to escape through.
func (s *Scanner) withinRoot(p, root string) bool {
	if _, ok := s.fs.(*afero.OsFs); !ok {
		return true
	}
	resolved, err := filepath.EvalSymlinks(p)
	if err != nil {
		return true
	}
	realRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		return true
	}
	rel, err := filepath.Rel(realRoot, resolved)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// matchAnyGlob reports whether rel matches any of the patterns. Patterns
// support a single ** segment for any-depth matching; patterns without a
// path separator match against the base name at any depth.
func matchAnyGlob(patterns []string, rel string) bool {
	for _, pattern := range patterns {
		if matchGlob(pattern, rel) {
			return true
		}
	}
	return false
}

func matchGlob(pattern, rel string) bool {
	if !strings.Contains(pattern, "**") {
		if ok, _ := path.Match(pattern, rel); ok {
			return true
		}
		if !strings.Contains(pattern, "/") {
			ok, _ := path.Match(pattern, path.Base(rel))
			return ok
		}
		return false
	}

	parts := strings.SplitN(pattern, "**", 2)
	prefix := strings.TrimSuffix(parts[0], "/")
	suffix := strings.TrimPrefix(parts[1], "/")

	if prefix != "" && rel != prefix && !strings.HasPrefix(rel, prefix+"/") {
		return false
	}
	if suffix == "" {
		return true
	}
	ok, _ := path.Match(suffix, path.Base(rel))
	return ok
}

func (s *Scanner) logWarning(ctx context.Context, message string, fields map[string]interface{}) {
	if s.logger != nil {
		s.logger.LogWarning(ctx, message, fields)
	}
}
