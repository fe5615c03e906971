package events

import "math/big"

const (
	// TypeDisputeCreated is emitted when a claimant opens a dispute and
	// escrows their stake.
	TypeDisputeCreated = "dispute.created"
	// TypeDisputeAccepted is emitted when the respondent matches the stake.
	TypeDisputeAccepted = "dispute.accepted"
	// TypeEvidenceSubmitted is emitted for every accepted evidence item.
	TypeEvidenceSubmitted = "dispute.evidence.submitted"
	// TypeVerdictRequested is emitted when a party escalates the dispute to
	// the oracle network.
	TypeVerdictRequested = "dispute.verdict.requested"
	// TypeVerdictReceived is emitted when the relayer delivers a verdict.
	TypeVerdictReceived = "dispute.verdict.received"
	// TypeDisputeAppealed is emitted when a party lodges the single permitted
	// appeal.
	TypeDisputeAppealed = "dispute.appealed"
	// TypeDisputeResolved is emitted once the payout plan has been executed.
	TypeDisputeResolved = "dispute.resolved"
	// TypeDisputeCancelled is emitted when the claimant withdraws before
	// acceptance.
	TypeDisputeCancelled = "dispute.cancelled"
)

// DisputeCreated captures the key metadata of a newly opened dispute.
type DisputeCreated struct {
	ID          uint64
	Claimant    [20]byte
	Respondent  [20]byte
	Token       string
	StakeAmount *big.Int
	Category    uint8
	CreatedAt   int64
}

// EventType implements the Event interface.
func (DisputeCreated) EventType() string { return TypeDisputeCreated }

// DisputeAccepted records the respondent matching the claimant's stake.
type DisputeAccepted struct {
	ID               uint64
	Respondent       [20]byte
	Token            string
	StakeAmount      *big.Int
	EvidenceDeadline int64
}

// EventType implements the Event interface.
func (DisputeAccepted) EventType() string { return TypeDisputeAccepted }

// EvidenceSubmitted records an accepted evidence item.
type EvidenceSubmitted struct {
	DisputeID   uint64
	Submitter   [20]byte
	ContentRef  string
	TypeTag     uint8
	SubmittedAt int64
}

// EventType implements the Event interface.
func (EvidenceSubmitted) EventType() string { return TypeEvidenceSubmitted }

// VerdictRequested records the dispute entering the oracle round.
type VerdictRequested struct {
	DisputeID uint64
	RequestID [32]byte
	Requester [20]byte
}

// EventType implements the Event interface.
func (VerdictRequested) EventType() string { return TypeVerdictRequested }

// VerdictReceived records the oracle resolution applied to the dispute.
type VerdictReceived struct {
	DisputeID      uint64
	RequestID      [32]byte
	Resolution     uint8
	Confidence     uint8
	ReasoningRef   string
	AppealDeadline int64
}

// EventType implements the Event interface.
func (VerdictReceived) EventType() string { return TypeVerdictReceived }

// DisputeAppealed records the appeal stake joining the escrowed pool.
type DisputeAppealed struct {
	DisputeID   uint64
	Appellant   [20]byte
	AppealStake *big.Int
}

// EventType implements the Event interface.
func (DisputeAppealed) EventType() string { return TypeDisputeAppealed }

// DisputeResolved records the executed payout plan.
type DisputeResolved struct {
	DisputeID        uint64
	Resolution       uint8
	ClaimantPayout   *big.Int
	RespondentPayout *big.Int
	PlatformFee      *big.Int
	AppealStake      *big.Int
}

// EventType implements the Event interface.
func (DisputeResolved) EventType() string { return TypeDisputeResolved }

// DisputeCancelled records the pre-acceptance refund to the claimant.
type DisputeCancelled struct {
	DisputeID uint64
	Refund    *big.Int
}

// EventType implements the Event interface.
func (DisputeCancelled) EventType() string { return TypeDisputeCancelled }
