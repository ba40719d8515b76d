package viewstate

import "strings"

// ParticipationState is the client-side display state of a challenge.
type ParticipationState string

const (
	StateNotJoined  ParticipationState = "참여전"
	StateInProgress ParticipationState = "참여중"
	StateSucceeded  ParticipationState = "성공"
	StateFailed     ParticipationState = "실패"
)

// Server-side challenge statuses.
const (
	ServerStatusPending    = "PENDING"
	ServerStatusInProgress = "IN_PROGRESS"
	ServerStatusCompleted  = "COMPLETED"
	ServerStatusSuccess    = "SUCCESS"
	ServerStatusFail       = "FAIL"
	ServerStatusFailed     = "FAILED"
)

// StatusVariant selects the per-screen mapping. The screens disagree on COMPLETED
// and each keeps its own behavior.
type StatusVariant int

const (
	// VariantList is used by the challenge list and home screens: COMPLETED counts as success.
	VariantList StatusVariant = iota
	// VariantDetail is used by the challenge detail screen: COMPLETED is not mapped.
	VariantDetail
)

// MapChallengeStatus maps any server status to a display state. Unknown input maps to StateNotJoined.
func MapChallengeStatus(status string, variant StatusVariant) ParticipationState {
	switch strings.ToUpper(strings.TrimSpace(status)) {
	case ServerStatusInProgress:
		return StateInProgress
	case ServerStatusSuccess:
		return StateSucceeded
	case ServerStatusCompleted:
		if variant == VariantList {
			return StateSucceeded
		}
		return StateNotJoined
	case ServerStatusFail, ServerStatusFailed:
		return StateFailed
	default:
		return StateNotJoined
	}
}

// IsFinal reports whether no client-initiated transition leaves the state.
func (s ParticipationState) IsFinal() bool {
	return s == StateSucceeded || s == StateFailed
}
