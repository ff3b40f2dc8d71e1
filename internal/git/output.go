package git

import (
	"strconv"
	"strings"
)

func isAlreadyUpToDate(stdout string) bool {
	return strings.Contains(stdout, "Already up to date") || strings.Contains(stdout, "Already up-to-date")
}

// parseFilesChanged reads N from the diffstat summary "N file(s) changed".
// The count is 0 when no summary line is present.
func parseFilesChanged(output string) int {
	for _, line := range strings.Split(output, "\n") {
		if !strings.Contains(line, "file changed") && !strings.Contains(line, "files changed") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if n, err := strconv.Atoi(fields[0]); err == nil {
			return n
		}
	}
	return 0
}

var divergedMarkers = []string{
	"not possible to fast-forward",
	"diverging branches",
	"have diverged",
	"non-fast-forward",
}

func isDiverged(output string) bool {
	return containsAny(strings.ToLower(output), divergedMarkers)
}

var unreachableMarkers = []string{
	"could not resolve host",
	"could not read from remote repository",
	"unable to access",
	"connection refused",
	"connection timed out",
	"network is unreachable",
	"authentication failed",
	"permission denied",
	"does not appear to be a git repository",
}

func isUnreachable(stderr string) bool {
	return containsAny(strings.ToLower(stderr), unreachableMarkers)
}

var unknownRevisionMarkers = []string{
	"unknown revision",
	"bad object",
	"bad revision",
	"ambiguous argument",
	"invalid object name",
}

func isUnknownRevision(stderr string) bool {
	return containsAny(strings.ToLower(stderr), unknownRevisionMarkers)
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
