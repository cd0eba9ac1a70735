// Package git implements the lint.Git port backed by go-git.
package git

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	goGit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Engine answers change-detection and metadata queries for one corpus
// directory. The repository is discovered upward from there, so a corpus
// that is a subdirectory of its work tree works.
type Engine struct {
	dir string
}

// NewEngine constructs a Git engine for the provided corpus directory.
func NewEngine(dir string) *Engine {
	return &Engine{dir: dir}
}

func (e *Engine) open() (*goGit.Repository, error) {
	repo, err := goGit.PlainOpenWithOptions(e.dir, &goGit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("open repo: %w", err)
	}
	return repo, nil
}

// ChangedPaths returns the union of paths that differ between baseRef and
// HEAD, and paths with uncommitted worktree changes. Git reports paths
// relative to the repository root; they are rebased onto the corpus
// directory here so they match the scanner's document paths, and changes
// outside the corpus are dropped. The result is sorted; deleted paths are
// included, callers filter against the scanned corpus.
func (e *Engine) ChangedPaths(ctx context.Context, baseRef string) ([]string, error) {
	repo, err := e.open()
	if err != nil {
		return nil, err
	}

	baseCommit, err := resolveCommit(repo, baseRef)
	if err != nil {
		return nil, fmt.Errorf("resolve base ref: %w", err)
	}

	head, err := repo.Head()
	if err != nil {
		return nil, fmt.Errorf("resolve HEAD: %w", err)
	}
	headCommit, err := repo.CommitObject(head.Hash())
	if err != nil {
		return nil, fmt.Errorf("load HEAD commit: %w", err)
	}

	changed := make(map[string]bool)

	patch, err := baseCommit.PatchContext(ctx, headCommit)
	if err != nil {
		return nil, fmt.Errorf("compute patch: %w", err)
	}
	for _, fp := range patch.FilePatches() {
		from, to := fp.Files()
		if from != nil {
			changed[from.Path()] = true
		}
		if to != nil {
			changed[to.Path()] = true
		}
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("open worktree: %w", err)
	}
	status, err := worktree.Status()
	if err != nil {
		return nil, fmt.Errorf("worktree status: %w", err)
	}
	for path, fileStatus := range status {
		if fileStatus.Worktree != goGit.Unmodified || fileStatus.Staging != goGit.Unmodified {
			changed[path] = true
		}
	}

	corpusAbs, err := filepath.Abs(e.dir)
	if err != nil {
		return nil, fmt.Errorf("resolve corpus dir: %w", err)
	}
	repoRoot := worktree.Filesystem.Root()

	paths := make([]string, 0, len(changed))
	for path := range changed {
		rel, err := filepath.Rel(corpusAbs, filepath.Join(repoRoot, filepath.FromSlash(path)))
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		paths = append(paths, rel)
	}
	sort.Strings(paths)
	return paths, nil
}

// Describe returns the checked-out branch name and the short HEAD hash for
// run metadata. A detached HEAD reports "detached" rather than an error.
func (e *Engine) Describe(ctx context.Context) (branch, commit string, err error) {
	repo, err := e.open()
	if err != nil {
		return "", "", err
	}
	head, err := repo.Head()
	if err != nil {
		return "", "", fmt.Errorf("resolve HEAD: %w", err)
	}

	branch = "detached"
	if head.Name().IsBranch() {
		branch = head.Name().Short()
	}
	return branch, head.Hash().String()[:7], nil
}

// resolveCommit tries the ref as written, then as a local branch, then as
// an origin remote branch.
func resolveCommit(repo *goGit.Repository, ref string) (*object.Commit, error) {
	candidates := []string{
		ref,
		fmt.Sprintf("refs/heads/%s", ref),
		fmt.Sprintf("refs/remotes/origin/%s", ref),
	}

	var lastErr error
	for _, candidate := range candidates {
		hash, err := repo.ResolveRevision(plumbing.Revision(candidate))
		if err != nil {
			lastErr = err
			continue
		}
		return repo.CommitObject(*hash)
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, fmt.Errorf("unable to resolve ref %s", ref)
}
