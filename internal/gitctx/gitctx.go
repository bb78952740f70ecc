// Package gitctx reads the repository state a build was produced from.
package gitctx

import (
	"errors"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// RepoContext is the git state attached to scan reports.
type RepoContext struct {
	GitSHA string `json:"git_sha,omitempty" yaml:"git_sha,omitempty"`
	Branch string `json:"branch,omitempty" yaml:"branch,omitempty"`
	// Dirty is set when tracked or untracked changes exist in the worktree.
	Dirty bool `json:"dirty,omitempty" yaml:"dirty,omitempty"`
}

// ShortSHA returns the abbreviated commit hash.
func (c *RepoContext) ShortSHA() string {
	if c == nil {
		return ""
	}
	if len(c.GitSHA) < 7 {
		return c.GitSHA
	}
	return c.GitSHA[:7]
}

// Collect returns the repository context for target, searching parent
// directories for .git. It returns nil when target is not inside a repo or
// the repo has no commits yet.
func Collect(target string) *RepoContext {
	repo, err := git.PlainOpenWithOptions(target, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil
	}
	head, err := repo.Head()
	if err != nil {
		return nil
	}

	ctx := &RepoContext{GitSHA: head.Hash().String()}
	if head.Name().IsBranch() {
		ctx.Branch = head.Name().Short()
	} else if head.Name() == plumbing.HEAD {
		ctx.Branch = "HEAD"
	}

	if dirty, err := isDirty(repo); err == nil {
		ctx.Dirty = dirty
	}
	return ctx
}

func isDirty(repo *git.Repository) (bool, error) {
	wt, err := repo.Worktree()
	if err != nil {
		if errors.Is(err, git.ErrIsBareRepository) {
			return false, nil
		}
		return false, err
	}
	st, err := wt.Status()
	if err != nil {
		return false, err
	}
	return !st.IsClean(), nil
}
