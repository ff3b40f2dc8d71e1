package types

// RepositorySnapshot compares the local HEAD against the last fetched remote ref
type RepositorySnapshot struct {
	LocalCommit      string `json:"local_commit"`
	RemoteCommit     string `json:"remote_commit"`
	CurrentBranch    string `json:"current_branch"`
	UpdatesAvailable bool   `json:"updates_available"`
}

// NewRepositorySnapshot derives UpdatesAvailable from the two commits
func NewRepositorySnapshot(local, remote, branch string) RepositorySnapshot {
	return RepositorySnapshot{
		LocalCommit:      local,
		RemoteCommit:     remote,
		CurrentBranch:    branch,
		UpdatesAvailable: local != remote,
	}
}

// PullOutcome is the result of a fast-forward-only pull
type PullOutcome struct {
	Success         bool   `json:"success"`
	AlreadyUpToDate bool   `json:"already_up_to_date"`
	FilesChanged    int    `json:"files_changed"`
	RawOutput       string `json:"raw_output"`
}

// CommitInfo is structured metadata for a single commit
type CommitInfo struct {
	Hash          string `json:"hash"`
	ShortHash     string `json:"short_hash"`
	AuthorName    string `json:"author_name"`
	AuthorEmail   string `json:"author_email"`
	TimestampUnix int64  `json:"timestamp_unix"`
	Subject       string `json:"subject"`
	Body          string `json:"body,omitempty"`
}
