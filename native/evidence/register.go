package evidence

import (
	"strings"

	"lukechampine.com/blake3"
)

// MaxPerDispute is the hard cap on evidence items per dispute.
const MaxPerDispute = 20

// Item is an accepted evidence submission. Items are created once and never
// mutated or deleted.
type Item struct {
	DisputeID   uint64
	Submitter   [20]byte
	ContentRef  string
	TypeTag     uint8
	SubmittedAt int64
}

// registerState abstracts the subset of state manager functionality required
// by the evidence register. The content index is platform-wide: a content
// reference used on one dispute can never be reused on another.
type registerState interface {
	EvidenceAppend(disputeID uint64, item *Item) error
	EvidenceList(disputeID uint64) ([]Item, error)
	EvidenceContentSeen(key [32]byte) (bool, error)
	EvidenceContentMark(key [32]byte) error
}

// DisputeView exposes the party and window facts the register needs from the
// dispute state machine. Open reports whether the dispute is still in an
// evidence-accepting lifecycle state.
type DisputeView interface {
	EvidenceContext(disputeID uint64) (claimant, respondent [20]byte, deadline int64, open bool, err error)
}

// Register persists evidence submissions with a global dedup index and a
// per-dispute cap.
type Register struct {
	state    registerState
	disputes DisputeView
}

// NewRegister constructs a register backed by the provided state.
func NewRegister(state registerState) *Register {
	return &Register{state: state}
}

// SetDisputeView wires the dispute state machine consulted for party and
// deadline checks.
func (r *Register) SetDisputeView(view DisputeView) {
	if r == nil {
		return
	}
	r.disputes = view
}

// ContentKey derives the global dedup key for a content reference.
func ContentKey(contentRef string) [32]byte {
	return blake3.Sum256([]byte(contentRef))
}

// Submit validates and persists a single evidence item, returning the stored
// record.
func (r *Register) Submit(disputeID uint64, submitter [20]byte, contentRef string, typeTag uint8, now int64) (*Item, error) {
	items, err := r.SubmitBatch(disputeID, submitter, []string{contentRef}, []uint8{typeTag}, now)
	if err != nil {
		return nil, err
	}
	return &items[0], nil
}

// SubmitBatch applies the same checks as Submit to every item and persists
// either all of them or none. A duplicate anywhere in the batch, including a
// repeat within the batch itself, rejects the whole batch.
func (r *Register) SubmitBatch(disputeID uint64, submitter [20]byte, contentRefs []string, typeTags []uint8, now int64) ([]Item, error) {
	if r == nil || r.state == nil || r.disputes == nil {
		return nil, ErrNilState
	}
	if len(contentRefs) == 0 || len(contentRefs) != len(typeTags) {
		return nil, ErrInvalidContent
	}
	claimant, respondent, deadline, open, err := r.disputes.EvidenceContext(disputeID)
	if err != nil {
		return nil, err
	}
	if submitter != claimant && submitter != respondent {
		return nil, ErrNotAParty
	}
	if !open || now >= deadline {
		return nil, ErrWindowClosed
	}
	existing, err := r.state.EvidenceList(disputeID)
	if err != nil {
		return nil, err
	}
	if len(existing)+len(contentRefs) > MaxPerDispute {
		return nil, ErrCapacityExceeded
	}
	keys := make([][32]byte, 0, len(contentRefs))
	batchSeen := make(map[[32]byte]struct{}, len(contentRefs))
	for _, ref := range contentRefs {
		if strings.TrimSpace(ref) == "" {
			return nil, ErrInvalidContent
		}
		key := ContentKey(ref)
		if _, dup := batchSeen[key]; dup {
			return nil, ErrDuplicateContent
		}
		seen, err := r.state.EvidenceContentSeen(key)
		if err != nil {
			return nil, err
		}
		if seen {
			return nil, ErrDuplicateContent
		}
		batchSeen[key] = struct{}{}
		keys = append(keys, key)
	}
	stored := make([]Item, 0, len(contentRefs))
	for i, ref := range contentRefs {
		item := &Item{
			DisputeID:   disputeID,
			Submitter:   submitter,
			ContentRef:  ref,
			TypeTag:     typeTags[i],
			SubmittedAt: now,
		}
		if err := r.state.EvidenceAppend(disputeID, item); err != nil {
			return nil, err
		}
		if err := r.state.EvidenceContentMark(keys[i]); err != nil {
			return nil, err
		}
		stored = append(stored, *item)
	}
	return stored, nil
}

// List returns the evidence recorded for a dispute in submission order.
func (r *Register) List(disputeID uint64) ([]Item, error) {
	if r == nil || r.state == nil {
		return nil, ErrNilState
	}
	return r.state.EvidenceList(disputeID)
}

// Count reports how many items have been recorded for a dispute.
func (r *Register) Count(disputeID uint64) (int, error) {
	if r == nil || r.state == nil {
		return 0, ErrNilState
	}
	items, err := r.state.EvidenceList(disputeID)
	if err != nil {
		return 0, err
	}
	return len(items), nil
}
