package services

import (
	"fmt"

	"github.com/campusfix/campusfix/internal/models"
)

// TransitionPolicy decides which status changes staff may make. In strict
// mode the lifecycle graph applies; otherwise any legal status may replace any
// other.
type TransitionPolicy struct {
	Strict bool
}

var complaintGraph = map[models.ComplaintStatus][]models.ComplaintStatus{
	models.ComplaintPending:    {models.ComplaintInProgress, models.ComplaintResolved, models.ComplaintRejected},
	models.ComplaintInProgress: {models.ComplaintResolved, models.ComplaintRejected},
}

var applicationGraph = map[models.ApplicationStatus][]models.ApplicationStatus{
	models.ApplicationPending: {models.ApplicationApproved, models.ApplicationRejected},
}

// CheckComplaint reports whether a complaint may move from one status to another.
func (p TransitionPolicy) CheckComplaint(from, to models.ComplaintStatus) error {
	if !p.Strict {
		return nil
	}
	for _, next := range complaintGraph[from] {
		if next == to {
			return nil
		}
	}
	return transitionError(string(from), string(to))
}

// CheckApplication reports whether an application may move from one status to another.
func (p TransitionPolicy) CheckApplication(from, to models.ApplicationStatus) error {
	if !p.Strict {
		return nil
	}
	for _, next := range applicationGraph[from] {
		if next == to {
			return nil
		}
	}
	return transitionError(string(from), string(to))
}

func transitionError(from, to string) error {
	return ErrInvalidStatusTransition.WithMessage(
		fmt.Sprintf("Cannot change status from %s to %s.", models.Humanize(from), models.Humanize(to)),
	)
}
