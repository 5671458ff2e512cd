// Package git version-controls the data directory using go-git, so the
// flat-file timer data can be backed up and shared between machines.
package git

import (
	"errors"
	"fmt"
	"time"

	gogit "github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/xvierd/mootimer/internal/ports"
)

// remoteName is the push remote the syncer manages.
const remoteName = "origin"

// Syncer implements ports.Syncer on a repository rooted at the data
// directory.
type Syncer struct {
	dataDir string
}

// NewSyncer creates a syncer for the given data directory. The repository
// is only opened (or created) when an operation needs it.
func NewSyncer(dataDir string) *Syncer {
	return &Syncer{dataDir: dataDir}
}

var _ ports.Syncer = (*Syncer)(nil)

// Init creates the repository if it does not exist yet.
func (s *Syncer) Init() error {
	_, err := gogit.PlainInit(s.dataDir, false)
	if errors.Is(err, gogit.ErrRepositoryAlreadyExists) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to init repository: %w", err)
	}
	return nil
}

func (s *Syncer) open() (*gogit.Repository, error) {
	repo, err := gogit.PlainOpen(s.dataDir)
	if errors.Is(err, gogit.ErrRepositoryNotExists) {
		return nil, fmt.Errorf("data directory is not a repository, run sync.init first: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open repository: %w", err)
	}
	return repo, nil
}

// Status reports whether the repository exists, its branch, worktree
// cleanliness, remote, and last commit.
func (s *Syncer) Status() (*ports.SyncStatus, error) {
	repo, err := gogit.PlainOpen(s.dataDir)
	if errors.Is(err, gogit.ErrRepositoryNotExists) {
		return &ports.SyncStatus{Initialized: false}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open repository: %w", err)
	}

	status := &ports.SyncStatus{Initialized: true, Clean: true}

	if head, err := repo.Head(); err == nil {
		status.Branch = head.Name().Short()
		if commit, err := repo.CommitObject(head.Hash()); err == nil {
			status.LastCommit = fmt.Sprintf("%s %s", head.Hash().String()[:8], commit.Message)
		}
	}
	if remote, err := repo.Remote(remoteName); err == nil {
		urls := remote.Config().URLs
		if len(urls) > 0 {
			status.RemoteURL = urls[0]
		}
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("failed to get worktree: %w", err)
	}
	wtStatus, err := worktree.Status()
	if err != nil {
		return nil, fmt.Errorf("failed to get worktree status: %w", err)
	}
	status.Clean = wtStatus.IsClean()
	return status, nil
}

// AutoCommit stages everything and commits. A clean worktree is a no-op.
func (s *Syncer) AutoCommit(message string) error {
	_, err := s.commit(message, true)
	return err
}

// Commit stages everything and commits, returning the new hash. A clean
// worktree is an error so the caller can report it.
func (s *Syncer) Commit(message string) (string, error) {
	hash, err := s.commit(message, false)
	if err != nil {
		return "", err
	}
	return hash, nil
}

func (s *Syncer) commit(message string, allowClean bool) (string, error) {
	repo, err := s.open()
	if err != nil {
		return "", err
	}
	worktree, err := repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("failed to get worktree: %w", err)
	}

	status, err := worktree.Status()
	if err != nil {
		return "", fmt.Errorf("failed to get worktree status: %w", err)
	}
	if status.IsClean() {
		if allowClean {
			return "", nil
		}
		return "", fmt.Errorf("nothing to commit")
	}

	if err := worktree.AddWithOptions(&gogit.AddOptions{All: true}); err != nil {
		return "", fmt.Errorf("failed to stage changes: %w", err)
	}

	hash, err := worktree.Commit(message, &gogit.CommitOptions{
		Author: &object.Signature{
			Name:  "mootimer",
			Email: "mootimer@localhost",
			When:  time.Now(),
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to commit: %w", err)
	}
	return hash.String(), nil
}

// Sync pushes to the configured remote. Everything already up to date is
// not an error.
func (s *Syncer) Sync(settings ports.SyncSettings) error {
	if settings.RemoteURL == "" {
		return fmt.Errorf("no remote configured, run sync.set_remote first")
	}
	repo, err := s.open()
	if err != nil {
		return err
	}

	err = repo.Push(&gogit.PushOptions{RemoteName: remoteName})
	if errors.Is(err, gogit.NoErrAlreadyUpToDate) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to push: %w", err)
	}
	return nil
}

// SetRemote creates or replaces the push remote.
func (s *Syncer) SetRemote(url string) error {
	repo, err := s.open()
	if err != nil {
		return err
	}

	if _, err := repo.Remote(remoteName); err == nil {
		if err := repo.DeleteRemote(remoteName); err != nil {
			return fmt.Errorf("failed to replace remote: %w", err)
		}
	}
	_, err = repo.CreateRemote(&gitconfig.RemoteConfig{
		Name: remoteName,
		URLs: []string{url},
	})
	if err != nil {
		return fmt.Errorf("failed to create remote: %w", err)
	}
	return nil
}
