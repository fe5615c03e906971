package dispute

import (
	"fmt"
	"math/big"

	"arbchain/native/escrow"
)

// appealStakeBps is the minimum appeal stake as a share of the contested
// pool: 10%.
const appealStakeBps = 1_000

const bpsDenominator = 10_000

// Payouts is the immutable distribution computed at finalization. The four
// components always sum to the dispute's full escrowed balance.
type Payouts struct {
	Claimant    *big.Int
	Respondent  *big.Int
	PlatformFee *big.Int
	AppealStake *big.Int
}

// MinAppealStake computes the minimum tender for an appeal: 10% of the
// contested pool, rounded down.
func MinAppealStake(totalPool *big.Int) *big.Int {
	if totalPool == nil || totalPool.Sign() <= 0 {
		return big.NewInt(0)
	}
	min := new(big.Int).Mul(totalPool, big.NewInt(appealStakeBps))
	return min.Div(min, big.NewInt(bpsDenominator))
}

// computePayouts maps the resolution to the payout split defined by the
// protocol. All rounding is deterministic: Split gives the claimant the
// floored half and the respondent the remainder; Dismissed charges the
// claimant the floored half of the fee so no party trails the other by more
// than one base unit.
func computePayouts(d *Dispute, feeBps uint32) (*Payouts, error) {
	if d == nil {
		return nil, ErrDisputeNotFound
	}
	if !d.Resolution.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidResolution, d.Resolution)
	}
	totalPool := d.TotalPool()
	if totalPool.Sign() <= 0 {
		return nil, fmt.Errorf("dispute: empty pool for dispute %d", d.ID)
	}
	fee := new(big.Int).Mul(totalPool, new(big.Int).SetUint64(uint64(feeBps)))
	fee.Div(fee, big.NewInt(bpsDenominator))
	distributable := new(big.Int).Sub(totalPool, fee)

	out := &Payouts{
		Claimant:    big.NewInt(0),
		Respondent:  big.NewInt(0),
		PlatformFee: fee,
		AppealStake: big.NewInt(0),
	}
	if d.AppealStake != nil {
		out.AppealStake = new(big.Int).Set(d.AppealStake)
	}

	switch d.Resolution {
	case ResolutionFavorClaimant:
		out.Claimant = distributable
	case ResolutionFavorRespondent:
		out.Respondent = distributable
	case ResolutionSplit:
		half := new(big.Int).Rsh(distributable, 1)
		out.Claimant = half
		out.Respondent = new(big.Int).Sub(distributable, half)
	case ResolutionDismissed:
		halfFee := new(big.Int).Rsh(fee, 1)
		out.Claimant = new(big.Int).Sub(d.StakeAmount, halfFee)
		out.Respondent = new(big.Int).Sub(distributable, out.Claimant)
	}
	return out, nil
}

// plan turns the payouts into an executable release plan. The appeal stake
// and the platform fee both route to the treasury.
func (p *Payouts) plan(d *Dispute, treasury [20]byte) (*escrow.PayoutPlan, error) {
	plan := escrow.NewPayoutPlan()
	if err := plan.Add(treasury, p.PlatformFee); err != nil {
		return nil, err
	}
	if err := plan.Add(d.Claimant, p.Claimant); err != nil {
		return nil, err
	}
	if err := plan.Add(d.Respondent, p.Respondent); err != nil {
		return nil, err
	}
	if err := plan.Add(treasury, p.AppealStake); err != nil {
		return nil, err
	}
	return plan, nil
}
