// Package workflow decides which application status changes are legal.
//
// The transition table is the only place the rules live. Adding a status means
// adding it to models.AllStatuses and giving it a row in transitions.
package workflow

import (
	"errors"
	"fmt"

	"github.com/justsurfingit/hiring-pipeline/internal/models"
)

// ErrInvalidTransition matches every *InvalidTransitionError.
var ErrInvalidTransition = errors.New("workflow: invalid status transition")

// InvalidTransitionError reports a rejected status change. No request may be
// sent for it.
type InvalidTransitionError struct {
	Current   models.ApplicationStatus
	Requested models.ApplicationStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("workflow: cannot move application from %q to %q", e.Current, e.Requested)
}

func (e *InvalidTransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

type statusSet map[models.ApplicationStatus]struct{}

func set(statuses ...models.ApplicationStatus) statusSet {
	s := make(statusSet, len(statuses))
	for _, st := range statuses {
		s[st] = struct{}{}
	}
	return s
}

// Forward-progress statuses are only ever entered from an earlier one.
var transitions = map[models.ApplicationStatus]statusSet{
	models.StatusPending: set(
		models.StatusReviewing,
		models.StatusShortlisted,
		models.StatusRejected,
		models.StatusWithdrawn,
	),
	models.StatusReviewing: set(
		models.StatusShortlisted,
		models.StatusInterviewScheduled,
		models.StatusInterviewed,
		models.StatusUnderConsideration,
		models.StatusAccepted,
		models.StatusRejected,
		models.StatusWithdrawn,
	),
	models.StatusShortlisted: set(
		models.StatusInterviewScheduled,
		models.StatusInterviewed,
		models.StatusUnderConsideration,
		models.StatusAccepted,
		models.StatusRejected,
		models.StatusWithdrawn,
	),
	models.StatusInterviewScheduled: set(
		models.StatusInterviewed,
		models.StatusUnderConsideration,
		models.StatusAccepted,
		models.StatusRejected,
		models.StatusWithdrawn,
	),
	models.StatusInterviewed: set(
		models.StatusUnderConsideration,
		models.StatusAccepted,
		models.StatusRejected,
		models.StatusWithdrawn,
	),
	models.StatusUnderConsideration: set(
		models.StatusAccepted,
		models.StatusRejected,
		models.StatusWithdrawn,
	),
	models.StatusAccepted:  set(),
	models.StatusRejected:  set(),
	models.StatusWithdrawn: set(),
}

// PendingReviewStatuses are counted as "pending review" on dashboards.
var PendingReviewStatuses = []models.ApplicationStatus{
	models.StatusPending,
	models.StatusReviewing,
}

// CanTransition reports whether current may move to target.
func CanTransition(current, target models.ApplicationStatus) bool {
	_, ok := transitions[current][target]
	return ok
}

// Transition returns target when the move is legal.
func Transition(current, target models.ApplicationStatus) (models.ApplicationStatus, error) {
	if !CanTransition(current, target) {
		return current, &InvalidTransitionError{Current: current, Requested: target}
	}
	return target, nil
}

// IsTerminal reports whether s has no outgoing transitions.
func IsTerminal(s models.ApplicationStatus) bool {
	next, ok := transitions[s]
	return ok && len(next) == 0
}

// Targets lists the legal next statuses of s in progress order.
func Targets(s models.ApplicationStatus) []models.ApplicationStatus {
	var out []models.ApplicationStatus
	for _, st := range models.AllStatuses {
		if CanTransition(s, st) {
			out = append(out, st)
		}
	}
	return out
}

// PendingReview sums the breakdown over PendingReviewStatuses.
func PendingReview(b models.StatusBreakdown) int {
	n := 0
	for _, s := range PendingReviewStatuses {
		n += b[s]
	}
	return n
}
