package escrow

import (
	"fmt"
	"math/big"
)

// PayoutEntry directs a single release of escrowed funds.
type PayoutEntry struct {
	Recipient [20]byte
	Amount    *big.Int
}

// PayoutPlan is the immutable set of releases executed at finalization. The
// plan is computed up front by the dispute engine and must sum exactly to the
// pre-finalization escrowed balance.
type PayoutPlan struct {
	entries []PayoutEntry
	total   *big.Int
}

// NewPayoutPlan returns an empty plan.
func NewPayoutPlan() *PayoutPlan {
	return &PayoutPlan{total: big.NewInt(0)}
}

// Add appends a release to the plan. Zero amounts are dropped; negative
// amounts are rejected.
func (p *PayoutPlan) Add(recipient [20]byte, amount *big.Int) error {
	if p == nil {
		return fmt.Errorf("escrow ledger: nil payout plan")
	}
	amt := cloneBigInt(amount)
	if amt.Sign() < 0 {
		return fmt.Errorf("escrow ledger: negative payout entry")
	}
	if amt.Sign() == 0 {
		return nil
	}
	p.entries = append(p.entries, PayoutEntry{Recipient: recipient, Amount: amt})
	p.total = new(big.Int).Add(p.total, amt)
	return nil
}

// Total reports the sum of all entries.
func (p *PayoutPlan) Total() *big.Int {
	if p == nil || p.total == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(p.total)
}

// Entries returns a copy of the planned releases.
func (p *PayoutPlan) Entries() []PayoutEntry {
	if p == nil {
		return nil
	}
	out := make([]PayoutEntry, 0, len(p.entries))
	for _, entry := range p.entries {
		out = append(out, PayoutEntry{Recipient: entry.Recipient, Amount: cloneBigInt(entry.Amount)})
	}
	return out
}

// ExecutePlan verifies the plan total equals the dispute's current escrowed
// balance and then performs every release. The total check runs before any
// transfer so a mismatched plan aborts with the prior state untouched.
func (l *Ledger) ExecutePlan(disputeID uint64, token string, plan *PayoutPlan) error {
	if l == nil || l.state == nil {
		return ErrNilState
	}
	if plan == nil {
		return fmt.Errorf("escrow ledger: nil payout plan")
	}
	balance, err := l.Balance(disputeID, token)
	if err != nil {
		return err
	}
	if plan.Total().Cmp(balance) != 0 {
		return fmt.Errorf("%w: plan %s, escrowed %s", ErrPlanMismatch, plan.Total().String(), balance.String())
	}
	for _, entry := range plan.entries {
		if err := l.Release(disputeID, entry.Recipient, token, entry.Amount); err != nil {
			return err
		}
	}
	return nil
}
