package dispute

import (
	"fmt"
	"math/big"
	"strings"
)

// Status represents the lifecycle states of a dispute. Resolved and
// Cancelled are terminal; every other state has exactly one active successor
// set.
type Status uint8

const (
	StatusCreated Status = iota
	StatusEvidenceSubmission
	StatusAwaitingVerdict
	StatusVerdictDelivered
	StatusAppealPeriod
	StatusResolved
	StatusCancelled
)

// Valid reports whether the status value is within the supported range.
func (s Status) Valid() bool {
	switch s {
	case StatusCreated, StatusEvidenceSubmission, StatusAwaitingVerdict,
		StatusVerdictDelivered, StatusAppealPeriod, StatusResolved, StatusCancelled:
		return true
	default:
		return false
	}
}

// Terminal reports whether the status admits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusResolved || s == StatusCancelled
}

func (s Status) String() string {
	switch s {
	case StatusCreated:
		return "created"
	case StatusEvidenceSubmission:
		return "evidence_submission"
	case StatusAwaitingVerdict:
		return "awaiting_verdict"
	case StatusVerdictDelivered:
		return "verdict_delivered"
	case StatusAppealPeriod:
		return "appeal_period"
	case StatusResolved:
		return "resolved"
	case StatusCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("status(%d)", uint8(s))
	}
}

// Resolution is the oracle's verdict. ResolutionNone is the zero value until
// a verdict is delivered.
type Resolution uint8

const (
	ResolutionNone Resolution = iota
	ResolutionFavorClaimant
	ResolutionFavorRespondent
	ResolutionSplit
	ResolutionDismissed
)

// Valid reports whether the resolution is one of the four verdict outcomes.
// ResolutionNone is not a deliverable verdict.
func (r Resolution) Valid() bool {
	switch r {
	case ResolutionFavorClaimant, ResolutionFavorRespondent, ResolutionSplit, ResolutionDismissed:
		return true
	default:
		return false
	}
}

func (r Resolution) String() string {
	switch r {
	case ResolutionNone:
		return "none"
	case ResolutionFavorClaimant:
		return "favor_claimant"
	case ResolutionFavorRespondent:
		return "favor_respondent"
	case ResolutionSplit:
		return "split"
	case ResolutionDismissed:
		return "dismissed"
	default:
		return fmt.Sprintf("resolution(%d)", uint8(r))
	}
}

// ParseResolution maps the canonical string form back to a Resolution value.
func ParseResolution(s string) (Resolution, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "favor_claimant":
		return ResolutionFavorClaimant, nil
	case "favor_respondent":
		return ResolutionFavorRespondent, nil
	case "split":
		return ResolutionSplit, nil
	case "dismissed":
		return ResolutionDismissed, nil
	default:
		return ResolutionNone, fmt.Errorf("dispute: unknown resolution %q", s)
	}
}

// Dispute is the central entity of the resolution protocol. Identity and
// economic terms are immutable after creation; the engine owns every status
// and resolution transition.
type Dispute struct {
	ID             uint64
	Claimant       [20]byte
	Respondent     [20]byte
	Token          string
	StakeAmount    *big.Int
	Category       uint8
	DescriptionRef string

	CreatedAt        int64
	EvidenceDeadline int64
	AppealDeadline   int64

	Status       Status
	Resolution   Resolution
	Confidence   uint8
	ReasoningRef string
	VerdictAt    int64

	Appealed    bool
	Appellant   [20]byte
	AppealStake *big.Int
}

// Clone returns a deep copy of the dispute so callers can safely mutate the
// copy without affecting the stored instance.
func (d *Dispute) Clone() *Dispute {
	if d == nil {
		return nil
	}
	clone := *d
	if d.StakeAmount != nil {
		clone.StakeAmount = new(big.Int).Set(d.StakeAmount)
	} else {
		clone.StakeAmount = big.NewInt(0)
	}
	if d.AppealStake != nil {
		clone.AppealStake = new(big.Int).Set(d.AppealStake)
	} else {
		clone.AppealStake = big.NewInt(0)
	}
	return &clone
}

// TotalPool is the contested principal: both parties' stakes. The appeal
// stake is tracked separately and never part of the pool used for payout
// ratios.
func (d *Dispute) TotalPool() *big.Int {
	if d == nil || d.StakeAmount == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Lsh(d.StakeAmount, 1)
}

// IsParty reports whether the address is the claimant or the respondent.
func (d *Dispute) IsParty(addr [20]byte) bool {
	if d == nil {
		return false
	}
	return addr == d.Claimant || addr == d.Respondent
}
