// Package domain contains core business types and interfaces.
//
// This file implements the transition guard: a pure decision function that
// determines whether a requested status change is permitted for the acting
// role, and what side-state an allowed transition must set. The guard never
// persists anything; callers apply the decision and own persistence.
package domain

import "strings"

// =============================================================================
// Reason Codes
// =============================================================================

// ReasonCode is a stable, machine-readable rejection code. Clients branch on
// the code, never on message text.
type ReasonCode string

const (
	ReasonNotAssigned          ReasonCode = "not_assigned"
	ReasonInvalidCurrentStatus ReasonCode = "invalid_current_status"
	ReasonAfterPhotosRequired  ReasonCode = "after_photos_required"
	ReasonReasonRequired       ReasonCode = "reason_required"
	ReasonForbiddenTarget      ReasonCode = "forbidden_target_status"
	ReasonUnknownTarget        ReasonCode = "unknown_target_status"
	ReasonCannotModifyDeleted  ReasonCode = "cannot_modify_deleted"
	ReasonUnknownRole          ReasonCode = "unknown_role"
)

// =============================================================================
// Guard Input / Output
// =============================================================================

// TransitionRequest is the guard's input: a snapshot of the report state the
// decision is made against, plus the requested target and acting identity.
type TransitionRequest struct {
	Current        ReportStatus
	Target         ReportStatus
	Actor          Actor
	ActorAssigned  bool   // Actor appears in the report's assignee set
	HasAfterPhotos bool   // At least one after-photo attached
	Reason         string // Misroute reason supplied with the request
}

// Decision is the guard's output. Rejections carry a ReasonCode; allowed
// misroute transitions carry the trimmed reason the caller must set.
type Decision struct {
	Allowed        bool
	Reason         ReasonCode // Set when not allowed
	MisrouteReason string     // Set when an allowed transition targets misrouted
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(reason ReasonCode) Decision {
	return Decision{Reason: reason}
}

// =============================================================================
// Decision Function
// =============================================================================

// DecideTransition decides whether the requested transition is permitted.
//
// Deleted is absorbing: no role may transition out of it. Role-specific rules
// are dispatched to one policy per role; an unrecognized role is rejected
// outright.
func DecideTransition(req TransitionRequest) Decision {
	policy, ok := policyFor(req.Actor.Role)
	if !ok {
		return deny(ReasonUnknownRole)
	}

	if req.Current == StatusDeleted {
		if req.Actor.Role.IsAdmin() {
			return deny(ReasonCannotModifyDeleted)
		}
		return deny(ReasonForbiddenTarget)
	}

	return policy.decide(req)
}

// =============================================================================
// Role Policies
// =============================================================================

// rolePolicy is the per-role decision contract. Each role implements the same
// contract; DecideTransition selects the policy by the actor's role tag.
type rolePolicy interface {
	decide(req TransitionRequest) Decision
}

func policyFor(role Role) (rolePolicy, bool) {
	switch role {
	case RoleOfficer:
		return officerPolicy{}, true
	case RoleAdmin, RoleSuperadmin:
		return adminPolicy{}, true
	case RoleReporter:
		return reporterPolicy{}, true
	}
	return nil, false
}

// officerPolicy permits the work-progression transitions, all of which
// require the actor to be assigned to the report.
type officerPolicy struct{}

func (officerPolicy) decide(req TransitionRequest) Decision {
	switch req.Target {
	case StatusInProgress:
		if !req.ActorAssigned {
			return deny(ReasonNotAssigned)
		}
		if req.Current != StatusSubmitted && req.Current != StatusAssigned {
			return deny(ReasonInvalidCurrentStatus)
		}
		return allow()

	case StatusAwaitingVerification:
		if !req.ActorAssigned {
			return deny(ReasonNotAssigned)
		}
		if req.Current != StatusInProgress {
			return deny(ReasonInvalidCurrentStatus)
		}
		if !req.HasAfterPhotos {
			return deny(ReasonAfterPhotosRequired)
		}
		return allow()

	case StatusMisrouted:
		if !req.ActorAssigned {
			return deny(ReasonNotAssigned)
		}
		if req.Current != StatusInProgress {
			return deny(ReasonInvalidCurrentStatus)
		}
		reason := strings.TrimSpace(req.Reason)
		if reason == "" {
			return deny(ReasonReasonRequired)
		}
		d := allow()
		d.MisrouteReason = reason
		return d
	}

	return deny(ReasonForbiddenTarget)
}

// adminPolicy permits any recognized target. Re-applying the current status
// is rejected so a duplicate request cannot silently append history.
type adminPolicy struct{}

func (adminPolicy) decide(req TransitionRequest) Decision {
	if !req.Target.IsValid() {
		return deny(ReasonUnknownTarget)
	}
	if req.Target == req.Current {
		return deny(ReasonInvalidCurrentStatus)
	}
	return allow()
}

// reporterPolicy permits only the verification confirmations.
type reporterPolicy struct{}

func (reporterPolicy) decide(req TransitionRequest) Decision {
	switch req.Target {
	case StatusVerified:
		if req.Current != StatusAwaitingVerification {
			return deny(ReasonInvalidCurrentStatus)
		}
		return allow()

	case StatusClosed:
		if req.Current != StatusVerified {
			return deny(ReasonInvalidCurrentStatus)
		}
		return allow()
	}

	return deny(ReasonForbiddenTarget)
}
