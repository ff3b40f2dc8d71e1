// Package git keeps one local working copy in sync with a single remote
// branch. Network and working-tree operations shell out to the git binary;
// read-only repository inspection goes through go-git.
package git

import (
	"context"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"

	"deckhand/internal/config"
	"deckhand/internal/constants"
	"deckhand/internal/errors"
	"deckhand/internal/lock"
	"deckhand/internal/logger"
	"deckhand/internal/runner"
	"deckhand/internal/types"
	"deckhand/internal/validation"
)

// gitEnv keeps git non-interactive and its messages parseable
var gitEnv = []string{
	"GIT_TERMINAL_PROMPT=0",
	"LC_ALL=C",
}

// Manager handles git operations for the tracked repository
type Manager struct {
	repoPath string
	remote   string
	branch   string
	timeout  time.Duration
	runner   runner.Runner
	locks    *lock.Keyed
}

// New creates a new git manager. Pass the same lock set to every controller
// that may touch the repository.
func New(cfg config.GitConfig, r runner.Runner, locks *lock.Keyed) *Manager {
	if locks == nil {
		locks = lock.NewKeyed()
	}
	return &Manager{
		repoPath: cfg.RepoPath,
		remote:   cfg.Remote,
		branch:   cfg.Branch,
		timeout:  cfg.Timeout(),
		runner:   r,
		locks:    locks,
	}
}

// RepoPath returns the working copy location
func (m *Manager) RepoPath() string {
	return m.repoPath
}

// RemoteRef returns "<remote>/<branch>"
func (m *Manager) RemoteRef() string {
	return m.remote + "/" + m.branch
}

func (m *Manager) lockKey() string {
	return "git:" + m.repoPath
}

func (m *Manager) git(ctx context.Context, args ...string) (*runner.Result, error) {
	return m.runner.Run(ctx, runner.Command{
		Name:    "git",
		Args:    args,
		Dir:     m.repoPath,
		Env:     gitEnv,
		Timeout: m.timeout,
	})
}

// Fetch downloads remote history for the tracked branch without touching the
// working tree
func (m *Manager) Fetch(ctx context.Context) error {
	_, err := lock.Run(ctx, m.locks, m.lockKey(), func(ctx context.Context) (struct{}, error) {
		return struct{}{}, m.fetch(ctx)
	})
	return err
}

func (m *Manager) fetch(ctx context.Context) error {
	log := logger.WithContext(ctx).WithFields(logger.Fields{"remote": m.remote, "branch": m.branch})
	log.Info("Fetching updates")

	result, err := m.git(ctx, "fetch", m.remote, m.branch)
	if err != nil {
		return err
	}
	if !result.Success() {
		log.WithField("stderr", result.Stderr).Error("Git fetch failed")
		if isUnreachable(result.Stderr) {
			return errors.GitRemoteUnreachable(m.remote, result.Stderr)
		}
		return errors.GitFetchFailed(m.remote, m.branch, result.Stderr)
	}

	log.Info("Fetch completed")
	return nil
}

// Pull fast-forwards the working copy to the remote branch. Diverged history
// is rejected and never merged.
func (m *Manager) Pull(ctx context.Context) (*types.PullOutcome, error) {
	return lock.Run(ctx, m.locks, m.lockKey(), m.pull)
}

func (m *Manager) pull(ctx context.Context) (*types.PullOutcome, error) {
	log := logger.WithContext(ctx).WithFields(logger.Fields{"remote": m.remote, "branch": m.branch})
	log.Info("Pulling updates")

	result, err := m.git(ctx, "pull", "--ff-only", "--no-rebase", m.remote, m.branch)
	if err != nil {
		return nil, err
	}
	if !result.Success() {
		output := result.Combined()
		if isDiverged(output) {
			log.Warn("Pull rejected, history has diverged")
			return nil, errors.GitPullRejectedDiverged(m.remote, m.branch, output)
		}
		log.WithField("stderr", result.Stderr).Error("Git pull failed")
		return nil, errors.GitPullFailed(m.remote, m.branch, output)
	}

	outcome := &types.PullOutcome{
		Success:         true,
		AlreadyUpToDate: isAlreadyUpToDate(result.Stdout),
		RawOutput:       result.Stdout,
	}
	if !outcome.AlreadyUpToDate {
		outcome.FilesChanged = parseFilesChanged(result.Stdout)
	}

	log.WithFields(logger.Fields{
		"already_up_to_date": outcome.AlreadyUpToDate,
		"files_changed":      outcome.FilesChanged,
	}).Info("Pull completed")
	return outcome, nil
}

// GetStatus compares HEAD against the last fetched remote ref. It does not
// fetch.
func (m *Manager) GetStatus(ctx context.Context) (*types.RepositorySnapshot, error) {
	logger.WithContext(ctx).WithField("repo", m.repoPath).Debug("Getting git status")

	local, err := m.revParse(ctx, "HEAD")
	if err != nil {
		return nil, err
	}
	remote, err := m.revParse(ctx, m.RemoteRef())
	if err != nil {
		return nil, err
	}
	branch, err := m.revParse(ctx, "--abbrev-ref", "HEAD")
	if err != nil {
		return nil, err
	}

	snapshot := types.NewRepositorySnapshot(local, remote, branch)
	return &snapshot, nil
}

func (m *Manager) revParse(ctx context.Context, args ...string) (string, error) {
	args = append([]string{"rev-parse"}, args...)
	result, err := m.git(ctx, args...)
	if err != nil {
		return "", err
	}
	if !result.Success() {
		return "", errors.GitCommandFailed(args, result.Stderr)
	}
	return strings.TrimSpace(result.Stdout), nil
}

// ValidateRepository checks that the path is a git working copy with the
// configured remote
func (m *Manager) ValidateRepository(ctx context.Context) error {
	if _, err := os.Stat(m.repoPath); err != nil {
		return errors.GitInvalidRepository(m.repoPath, "path does not exist")
	}

	repo, err := git.PlainOpen(m.repoPath)
	if err != nil {
		return errors.GitInvalidRepository(m.repoPath, "not a git repository").WithCause(err)
	}

	if _, err := repo.Remote(m.remote); err != nil {
		return errors.GitInvalidRepository(m.repoPath, "remote '"+m.remote+"' not found in repository").WithCause(err)
	}

	logger.WithContext(ctx).WithField("repo", m.repoPath).Info("Repository validation successful")
	return nil
}

// GetCommitInfo returns metadata for hash, or for HEAD when hash is empty
func (m *Manager) GetCommitInfo(ctx context.Context, hash string) (*types.CommitInfo, error) {
	if hash == "" {
		hash = "HEAD"
	}
	if err := validation.Revision(hash); err != nil {
		return nil, err
	}

	result, err := m.git(ctx, "show", "-s", "--format="+commitFormat, hash, "--")
	if err != nil {
		return nil, err
	}
	if !result.Success() {
		if isUnknownRevision(result.Stderr) {
			return nil, errors.GitCommitNotFound(hash)
		}
		return nil, errors.GitCommandFailed([]string{"show", hash}, result.Stderr)
	}

	commits, err := parseCommits(result.Stdout)
	if err != nil {
		return nil, err
	}
	if len(commits) == 0 {
		return nil, errors.GitCommitNotFound(hash)
	}
	return &commits[0], nil
}

// PendingCommits lists the commits a pull would bring in, newest first, as of
// the last fetch
func (m *Manager) PendingCommits(ctx context.Context) ([]types.CommitInfo, error) {
	rangeSpec := "HEAD.." + m.RemoteRef()
	result, err := m.git(ctx, "log", "--format="+commitFormat, rangeSpec, "--")
	if err != nil {
		return nil, err
	}
	if !result.Success() {
		return nil, errors.GitCommandFailed([]string{"log", rangeSpec}, result.Stderr)
	}
	return parseCommits(result.Stdout)
}

// RecentCommits lists up to limit commits reachable from HEAD, newest first
func (m *Manager) RecentCommits(ctx context.Context, limit int) ([]types.CommitInfo, error) {
	if limit <= 0 {
		limit = constants.DefaultRecentCommits
	}

	repo, err := git.PlainOpen(m.repoPath)
	if err != nil {
		return nil, errors.GitInvalidRepository(m.repoPath, "not a git repository").WithCause(err)
	}

	head, err := repo.Head()
	if err != nil {
		return nil, errors.Wrap(errors.ErrGitCommandFailed, "Failed to resolve HEAD", err)
	}

	iter, err := repo.Log(&git.LogOptions{From: head.Hash()})
	if err != nil {
		return nil, errors.Wrap(errors.ErrGitCommandFailed, "Failed to read commit log", err)
	}
	defer iter.Close()

	commits := make([]types.CommitInfo, 0, limit)
	for len(commits) < limit {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(errors.ErrCancelled, "Commit listing cancelled", err)
		}
		c, err := iter.Next()
		if err != nil {
			break
		}
		commits = append(commits, commitFromObject(c))
	}
	return commits, nil
}

func commitFromObject(c *object.Commit) types.CommitInfo {
	subject, body, _ := strings.Cut(strings.TrimRight(c.Message, "\n"), "\n")
	hash := c.Hash.String()
	return types.CommitInfo{
		Hash:          hash,
		ShortHash:     shortHash(hash),
		AuthorName:    c.Author.Name,
		AuthorEmail:   c.Author.Email,
		TimestampUnix: c.Author.When.Unix(),
		Subject:       strings.TrimSpace(subject),
		Body:          strings.TrimSpace(body),
	}
}

func shortHash(hash string) string {
	if len(hash) <= constants.ShortHashLength {
		return hash
	}
	return hash[:constants.ShortHashLength]
}

// commitFormat separates fields with US (0x1f) and terminates each record
// with RS (0x1e) so bodies may contain blank lines
const commitFormat = "%H%x1f%an%x1f%ae%x1f%at%x1f%s%x1f%b%x1e"

const (
	fieldSep  = "\x1f"
	recordSep = "\x1e"
)

func parseCommits(output string) ([]types.CommitInfo, error) {
	var commits []types.CommitInfo
	for _, record := range strings.Split(output, recordSep) {
		record = strings.TrimLeft(record, "\r\n")
		if strings.TrimSpace(record) == "" {
			continue
		}

		fields := strings.SplitN(record, fieldSep, 6)
		if len(fields) != 6 {
			return nil, errors.NewWithDetails(errors.ErrGitCommandFailed, "Unexpected git log output", errors.Truncate(record))
		}

		ts, err := strconv.ParseInt(strings.TrimSpace(fields[3]), 10, 64)
		if err != nil {
			return nil, errors.Wrap(errors.ErrGitCommandFailed, "Unexpected commit timestamp", err)
		}

		commits = append(commits, types.CommitInfo{
			Hash:          fields[0],
			ShortHash:     shortHash(fields[0]),
			AuthorName:    fields[1],
			AuthorEmail:   fields[2],
			TimestampUnix: ts,
			Subject:       fields[4],
			Body:          strings.TrimSpace(fields[5]),
		})
	}
	return commits, nil
}
