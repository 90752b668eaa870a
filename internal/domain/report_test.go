package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportStatus_IsOpen(t *testing.T) {
	open := map[ReportStatus]bool{
		StatusAssigned:             true,
		StatusInProgress:           true,
		StatusAwaitingVerification: true,
		StatusDraft:                false,
		StatusSubmitted:            false,
		StatusVerified:             false,
		StatusClosed:               false,
		StatusMisrouted:            false,
		StatusDeleted:              false,
	}
	for status, want := range open {
		assert.Equal(t, want, status.IsOpen(), "status=%s", status)
	}
	assert.ElementsMatch(t,
		[]ReportStatus{StatusAssigned, StatusInProgress, StatusAwaitingVerification},
		OpenStatuses(),
	)
}

func TestReport_ApplyTransition(t *testing.T) {
	officer := Actor{ID: uuid.New(), Role: RoleOfficer}
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	report := &Report{
		ID:         uuid.New(),
		Status:     StatusInProgress,
		AssignedTo: []uuid.UUID{officer.ID},
		History: []HistoryEntry{
			{ActorID: uuid.New(), ActorRole: RoleReporter, Action: ActionCreated},
		},
	}
	prior := make([]HistoryEntry, len(report.History))
	copy(prior, report.History)

	d := DecideTransition(report.TransitionRequestFor(StatusMisrouted, officer, "belongs to water dept"))
	require.True(t, d.Allowed)

	report.ApplyTransition(StatusMisrouted, officer, d, now)

	assert.Equal(t, StatusMisrouted, report.Status)
	assert.Equal(t, "belongs to water dept", report.MisrouteReason)
	assert.Equal(t, now, report.UpdatedAt)

	// History grew by exactly one entry and prior entries are untouched.
	require.Len(t, report.History, 2)
	assert.Equal(t, prior, report.History[:1])

	last := report.History[1]
	assert.Equal(t, officer.ID, last.ActorID)
	assert.Equal(t, RoleOfficer, last.ActorRole)
	assert.Equal(t, "status:in_progress->misrouted", last.Action)
	assert.Equal(t, now, last.CreatedAt)
}

func TestReport_ApplyTransition_HistoryAppendOnly(t *testing.T) {
	reporter := Actor{ID: uuid.New(), Role: RoleReporter}
	officer := Actor{ID: uuid.New(), Role: RoleOfficer}

	report := &Report{
		ID:          uuid.New(),
		Status:      StatusAssigned,
		AssignedTo:  []uuid.UUID{officer.ID},
		PhotosAfter: []Photo{{ID: uuid.New(), Phase: PhotoPhaseAfter}},
	}

	steps := []struct {
		actor  Actor
		target ReportStatus
	}{
		{officer, StatusInProgress},
		{officer, StatusAwaitingVerification},
		{reporter, StatusVerified},
		{reporter, StatusClosed},
	}

	for i, step := range steps {
		before := len(report.History)
		d := DecideTransition(report.TransitionRequestFor(step.target, step.actor, ""))
		require.True(t, d.Allowed, "step %d to %s", i, step.target)
		report.ApplyTransition(step.target, step.actor, d, time.Now())
		assert.Len(t, report.History, before+1)
	}

	assert.Equal(t, StatusClosed, report.Status)
	assert.Equal(t, "status:assigned->in_progress", report.History[0].Action)
	assert.Equal(t, "status:in_progress->awaiting_verification", report.History[1].Action)
	assert.Equal(t, "status:awaiting_verification->verified", report.History[2].Action)
	assert.Equal(t, "status:verified->closed", report.History[3].Action)
}

func TestReport_IsAssignedTo(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	report := &Report{AssignedTo: []uuid.UUID{a}}
	assert.True(t, report.IsAssignedTo(a))
	assert.False(t, report.IsAssignedTo(b))
}
