package dispute

import "errors"

var (
	// ErrNilState marks engine calls before the state backend is wired.
	ErrNilState = errors.New("dispute: state not configured")
	// ErrNilTreasury marks finalization attempts before the treasury
	// recipient is configured.
	ErrNilTreasury = errors.New("dispute: treasury not configured")
	// ErrDisputeNotFound marks operations against unknown dispute ids.
	ErrDisputeNotFound = errors.New("dispute: dispute not found")

	// Validation errors: the caller can retry with corrected input.

	// ErrAmountOutOfBounds rejects stakes outside the asset's [min, max]
	// range at creation time.
	ErrAmountOutOfBounds = errors.New("dispute: stake amount out of bounds")
	// ErrInvalidRespondent rejects a zero-identity respondent or a
	// respondent equal to the claimant.
	ErrInvalidRespondent = errors.New("dispute: invalid respondent")
	// ErrStakeMismatch rejects an acceptance tendering anything other than
	// the exact stake amount. No change is made.
	ErrStakeMismatch = errors.New("dispute: tendered amount must equal stake exactly")
	// ErrAppealStakeTooLow rejects appeals tendering less than the minimum
	// appeal stake.
	ErrAppealStakeTooLow = errors.New("dispute: appeal stake below minimum")

	// Authorization errors.

	// ErrNotClaimant rejects claimant-only actions from other callers.
	ErrNotClaimant = errors.New("dispute: caller is not the claimant")
	// ErrNotRespondent rejects acceptance from anyone but the respondent.
	ErrNotRespondent = errors.New("dispute: caller is not the respondent")
	// ErrNotAParty rejects party-only actions from outside addresses.
	ErrNotAParty = errors.New("dispute: caller is not a party")

	// State errors: the action was attempted in the wrong lifecycle state.
	// Each violated guard surfaces its own sentinel.

	// ErrNotAcceptable rejects acceptance of a dispute that is not in the
	// Created state.
	ErrNotAcceptable = errors.New("dispute: not awaiting acceptance")
	// ErrNotCancellable rejects cancellation after the respondent has
	// matched the stake.
	ErrNotCancellable = errors.New("dispute: cancellation only permitted before acceptance")
	// ErrVerdictNotRequestable rejects verdict requests outside the
	// evidence-submission state, or before either the evidence deadline has
	// passed or two items have been recorded.
	ErrVerdictNotRequestable = errors.New("dispute: verdict not requestable")
	// ErrVerdictNotDeliverable marks verdict application against a dispute
	// that is not awaiting one.
	ErrVerdictNotDeliverable = errors.New("dispute: not awaiting a verdict")
	// ErrNotAppealable rejects appeals outside the VerdictDelivered state.
	ErrNotAppealable = errors.New("dispute: no verdict open for appeal")
	// ErrAlreadyAppealed rejects a second appeal; exactly one is permitted.
	ErrAlreadyAppealed = errors.New("dispute: already appealed")
	// ErrNotFinalizable rejects finalization before a verdict exists or
	// after the dispute has already terminated.
	ErrNotFinalizable = errors.New("dispute: not finalizable in current state")

	// Timing errors.

	// ErrAppealWindowClosed rejects appeals lodged after the appeal
	// deadline.
	ErrAppealWindowClosed = errors.New("dispute: appeal window closed")
	// ErrAppealWindowActive rejects finalization while the appeal window is
	// still open. This guard applies whether or not an appeal was lodged.
	ErrAppealWindowActive = errors.New("dispute: appeal window still active")

	// Integrity errors: unreachable when payouts are computed correctly.

	// ErrInvalidResolution marks a verdict outside the four outcomes.
	ErrInvalidResolution = errors.New("dispute: invalid resolution")
)
