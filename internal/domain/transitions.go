package domain

import "fmt"

// Pure legality checks for the resolution state machine. The services call
// these before touching storage so every rejected transition carries the
// same error regardless of entry point.

// CanPropose checks that a candidate winner may be proposed.
func CanPropose(m *Market) error {
	if m.Status == MarketSettled || m.Status == MarketCancelled {
		return ErrInvalidStateTransition(fmt.Sprintf("cannot propose a winner on a %s market", m.Status))
	}
	if m.ResolutionStatus == ResolutionProposed || m.ResolutionStatus == ResolutionApproved {
		return ErrInvalidStateTransition(fmt.Sprintf("market %s already has resolution status %s", m.ID, m.ResolutionStatus))
	}
	return nil
}

// CanApprove checks that a proposed winner may be approved. Approval is only
// reachable from proposed with a non-nil proposed winner.
func CanApprove(m *Market) error {
	if m.Status == MarketSettled {
		return ErrAlreadySettled(m.ID.String())
	}
	if m.ResolutionStatus != ResolutionProposed {
		return ErrInvalidStateTransition(fmt.Sprintf("approve requires resolution status proposed, market %s is %s", m.ID, m.ResolutionStatus))
	}
	if m.AIProposedWinnerID == nil {
		return ErrInvalidStateTransition(fmt.Sprintf("market %s has no proposed winner to approve", m.ID))
	}
	return nil
}

// CanReject checks that a proposed winner may be rejected, reopening betting.
func CanReject(m *Market) error {
	if m.ResolutionStatus != ResolutionProposed {
		return ErrInvalidStateTransition(fmt.Sprintf("reject requires resolution status proposed, market %s is %s", m.ID, m.ResolutionStatus))
	}
	return nil
}

// CanResolveManually checks that the host may set a winner directly,
// bypassing the proposal step.
func CanResolveManually(m *Market) error {
	if m.Status == MarketSettled {
		return ErrAlreadySettled(m.ID.String())
	}
	return nil
}

// CanPause checks that betting may be paused.
func CanPause(m *Market) error {
	if m.Status != MarketOpen {
		return ErrInvalidStateTransition(fmt.Sprintf("cannot pause a %s market", m.Status))
	}
	return nil
}

// CanResume checks that betting may be resumed.
func CanResume(m *Market) error {
	if m.Status != MarketPaused {
		return ErrInvalidStateTransition(fmt.Sprintf("cannot resume a %s market", m.Status))
	}
	return nil
}

// CanSettle checks that the full settlement engine may run. Settlement is
// strictly one-shot.
func CanSettle(m *Market) error {
	if m.Status == MarketSettled {
		return ErrAlreadySettled(m.ID.String())
	}
	if m.Status == MarketCancelled {
		return ErrInvalidStateTransition(fmt.Sprintf("cannot settle cancelled market %s", m.ID))
	}
	return nil
}
