package services

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/campusfix/campusfix/internal/models"
)

func TestStrictComplaintTransitions(t *testing.T) {
	policy := TransitionPolicy{Strict: true}

	allowed := map[models.ComplaintStatus][]models.ComplaintStatus{
		models.ComplaintPending:    {models.ComplaintInProgress, models.ComplaintResolved, models.ComplaintRejected},
		models.ComplaintInProgress: {models.ComplaintResolved, models.ComplaintRejected},
	}
	for _, from := range models.ComplaintStatuses {
		for _, to := range models.ComplaintStatuses {
			want := false
			for _, next := range allowed[from] {
				if next == to {
					want = true
				}
			}
			err := policy.CheckComplaint(from, to)
			if want {
				require.NoError(t, err, "%s -> %s", from, to)
			} else {
				requireAppError(t, err, ErrInvalidStatusTransition)
			}
		}
	}
}

func TestStrictApplicationTransitions(t *testing.T) {
	policy := TransitionPolicy{Strict: true}

	require.NoError(t, policy.CheckApplication(models.ApplicationPending, models.ApplicationApproved))
	require.NoError(t, policy.CheckApplication(models.ApplicationPending, models.ApplicationRejected))

	err := policy.CheckApplication(models.ApplicationApproved, models.ApplicationRejected)
	appErr := requireAppError(t, err, ErrInvalidStatusTransition)
	require.Equal(t, "Cannot change status from Approved to Rejected.", appErr.Message)

	requireAppError(t, policy.CheckApplication(models.ApplicationPending, models.ApplicationPending), ErrInvalidStatusTransition)
}

func TestPermissivePolicyAllowsAnyMove(t *testing.T) {
	policy := TransitionPolicy{}
	require.NoError(t, policy.CheckComplaint(models.ComplaintResolved, models.ComplaintPending))
	require.NoError(t, policy.CheckApplication(models.ApplicationRejected, models.ApplicationApproved))
}
