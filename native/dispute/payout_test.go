package dispute

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func payoutDispute(stake int64, resolution Resolution, appealStake int64) *Dispute {
	return &Dispute{
		ID:          1,
		Claimant:    claimant,
		Respondent:  respondent,
		Token:       "ARB",
		StakeAmount: big.NewInt(stake),
		Resolution:  resolution,
		AppealStake: big.NewInt(appealStake),
	}
}

func TestComputePayouts(t *testing.T) {
	cases := []struct {
		name        string
		stake       int64
		resolution  Resolution
		appealStake int64
		feeBps      uint32
		claimant    int64
		respondent  int64
		fee         int64
	}{
		{
			name:       "favor claimant",
			stake:      1000,
			resolution: ResolutionFavorClaimant,
			feeBps:     250,
			claimant:   1950,
			respondent: 0,
			fee:        50,
		},
		{
			name:       "favor respondent",
			stake:      1000,
			resolution: ResolutionFavorRespondent,
			feeBps:     250,
			claimant:   0,
			respondent: 1950,
			fee:        50,
		},
		{
			name:       "split even",
			stake:      1000,
			resolution: ResolutionSplit,
			feeBps:     250,
			claimant:   975,
			respondent: 975,
			fee:        50,
		},
		{
			name:       "split odd distributable favors respondent remainder",
			stake:      101,
			resolution: ResolutionSplit,
			feeBps:     250,
			claimant:   98,
			respondent: 99,
			fee:        5,
		},
		{
			name:       "dismissed even fee",
			stake:      1000,
			resolution: ResolutionDismissed,
			feeBps:     250,
			claimant:   975,
			respondent: 975,
			fee:        50,
		},
		{
			name:       "dismissed odd fee charges claimant the floored half",
			stake:      101,
			resolution: ResolutionDismissed,
			feeBps:     250,
			claimant:   99,
			respondent: 98,
			fee:        5,
		},
		{
			name:       "zero fee",
			stake:      1000,
			resolution: ResolutionFavorClaimant,
			feeBps:     0,
			claimant:   2000,
			respondent: 0,
			fee:        0,
		},
		{
			name:        "appeal stake passes through untouched",
			stake:       1000,
			resolution:  ResolutionFavorRespondent,
			appealStake: 300,
			feeBps:      250,
			claimant:    0,
			respondent:  1950,
			fee:         50,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := payoutDispute(tc.stake, tc.resolution, tc.appealStake)
			out, err := computePayouts(d, tc.feeBps)
			require.NoError(t, err)
			require.Equal(t, tc.claimant, out.Claimant.Int64(), "claimant payout")
			require.Equal(t, tc.respondent, out.Respondent.Int64(), "respondent payout")
			require.Equal(t, tc.fee, out.PlatformFee.Int64(), "platform fee")
			require.Equal(t, tc.appealStake, out.AppealStake.Int64(), "appeal stake")

			total := out.Claimant.Int64() + out.Respondent.Int64() + out.PlatformFee.Int64() + out.AppealStake.Int64()
			require.Equal(t, 2*tc.stake+tc.appealStake, total, "payouts must drain the escrowed balance exactly")
		})
	}
}

func TestComputePayoutsRejectsUndeliveredResolution(t *testing.T) {
	d := payoutDispute(1000, ResolutionNone, 0)
	_, err := computePayouts(d, 250)
	require.ErrorIs(t, err, ErrInvalidResolution)
}

func TestMinAppealStake(t *testing.T) {
	require.Equal(t, int64(200), MinAppealStake(big.NewInt(2000)).Int64())
	require.Equal(t, int64(0), MinAppealStake(big.NewInt(9)).Int64(), "sub-decimal pools floor to zero")
	require.Equal(t, int64(0), MinAppealStake(nil).Int64())
	require.Equal(t, int64(0), MinAppealStake(big.NewInt(-5)).Int64())
}

func TestPayoutPlanRoutesToTreasury(t *testing.T) {
	d := payoutDispute(1000, ResolutionFavorClaimant, 300)
	out, err := computePayouts(d, 250)
	require.NoError(t, err)

	plan, err := out.plan(d, treasury)
	require.NoError(t, err)
	require.Equal(t, int64(2300), plan.Total().Int64())

	byRecipient := make(map[[20]byte]int64)
	for _, entry := range plan.Entries() {
		byRecipient[entry.Recipient] += entry.Amount.Int64()
	}
	require.Equal(t, int64(1950), byRecipient[claimant])
	require.Equal(t, int64(350), byRecipient[treasury], "fee and forfeited appeal stake both route to the treasury")
	require.Zero(t, byRecipient[respondent])
}
