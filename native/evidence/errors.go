package evidence

import "errors"

var (
	// ErrNilState marks register calls before the backends are wired.
	ErrNilState = errors.New("evidence: state not configured")
	// ErrDisputeNotFound marks submissions against unknown disputes.
	ErrDisputeNotFound = errors.New("evidence: dispute not found")
	// ErrNotAParty rejects submitters that are neither claimant nor
	// respondent.
	ErrNotAParty = errors.New("evidence: submitter is not a party")
	// ErrWindowClosed rejects submissions after the evidence deadline or
	// once the dispute has left the evidence-accepting states.
	ErrWindowClosed = errors.New("evidence: submission window closed")
	// ErrDuplicateContent rejects content references already used anywhere
	// on the platform.
	ErrDuplicateContent = errors.New("evidence: duplicate content reference")
	// ErrCapacityExceeded rejects submissions beyond the per-dispute cap.
	ErrCapacityExceeded = errors.New("evidence: per-dispute capacity exceeded")
	// ErrInvalidContent rejects empty content references.
	ErrInvalidContent = errors.New("evidence: content reference required")
)
