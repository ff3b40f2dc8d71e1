package types

import "strings"

// ContainerState is the closed set of lifecycle states reported for a container
type ContainerState string

const (
	ContainerStateRunning    ContainerState = "running"
	ContainerStateStopped    ContainerState = "stopped"
	ContainerStatePaused     ContainerState = "paused"
	ContainerStateRestarting ContainerState = "restarting"
	ContainerStateDead       ContainerState = "dead"
	ContainerStateCreated    ContainerState = "created"
	ContainerStateRemoving   ContainerState = "removing"
	ContainerStateUnknown    ContainerState = "unknown"
)

// containerStates maps raw runtime state strings to ContainerState. Lookups
// that miss fall through to ContainerStateUnknown in ParseContainerState.
var containerStates = map[string]ContainerState{
	"running":    ContainerStateRunning,
	"exited":     ContainerStateStopped,
	"stopped":    ContainerStateStopped,
	"paused":     ContainerStatePaused,
	"restarting": ContainerStateRestarting,
	"dead":       ContainerStateDead,
	"created":    ContainerStateCreated,
	"removing":   ContainerStateRemoving,
}

// ParseContainerState converts a raw runtime state into a ContainerState.
// The mapping is total: empty and unrecognized values yield ContainerStateUnknown.
func ParseContainerState(raw string) ContainerState {
	if state, ok := containerStates[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return state
	}
	return ContainerStateUnknown
}

// AllContainerStates lists every member of the enum, Unknown last
func AllContainerStates() []ContainerState {
	return []ContainerState{
		ContainerStateRunning,
		ContainerStateStopped,
		ContainerStatePaused,
		ContainerStateRestarting,
		ContainerStateDead,
		ContainerStateCreated,
		ContainerStateRemoving,
		ContainerStateUnknown,
	}
}

// String implements fmt.Stringer
func (s ContainerState) String() string {
	return string(s)
}

// ContainerRecord is a point-in-time view of one managed container
type ContainerRecord struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	State         ContainerState `json:"state"`
	Image         string         `json:"image"`
	CreatedAtUnix int64          `json:"created_at_unix"`
}
