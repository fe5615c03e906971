package dispute

import (
	"math/big"
	"testing"
)

func TestStatusTerminal(t *testing.T) {
	for _, s := range []Status{StatusCreated, StatusEvidenceSubmission, StatusAwaitingVerdict, StatusVerdictDelivered, StatusAppealPeriod} {
		if s.Terminal() {
			t.Fatalf("status %s must not be terminal", s)
		}
	}
	for _, s := range []Status{StatusResolved, StatusCancelled} {
		if !s.Terminal() {
			t.Fatalf("status %s must be terminal", s)
		}
	}
	if Status(200).Valid() {
		t.Fatal("out-of-range status must not be valid")
	}
}

func TestParseResolutionRoundTrip(t *testing.T) {
	for _, r := range []Resolution{ResolutionFavorClaimant, ResolutionFavorRespondent, ResolutionSplit, ResolutionDismissed} {
		parsed, err := ParseResolution(r.String())
		if err != nil {
			t.Fatalf("parse %q: %v", r.String(), err)
		}
		if parsed != r {
			t.Fatalf("round trip %q: got %s", r.String(), parsed)
		}
	}
	if _, err := ParseResolution("none"); err == nil {
		t.Fatal("none must not parse as a deliverable resolution")
	}
	if _, err := ParseResolution("coin-flip"); err == nil {
		t.Fatal("unknown resolution must not parse")
	}
}

func TestResolutionValid(t *testing.T) {
	if ResolutionNone.Valid() {
		t.Fatal("the zero resolution is not deliverable")
	}
	if Resolution(99).Valid() {
		t.Fatal("out-of-range resolution must not be valid")
	}
}

func TestDisputeCloneIsDeep(t *testing.T) {
	d := &Dispute{
		ID:          7,
		Claimant:    claimant,
		Respondent:  respondent,
		StakeAmount: big.NewInt(1000),
		AppealStake: big.NewInt(200),
	}
	clone := d.Clone()
	clone.StakeAmount.SetInt64(1)
	clone.AppealStake.SetInt64(1)
	if d.StakeAmount.Int64() != 1000 || d.AppealStake.Int64() != 200 {
		t.Fatal("mutating the clone must not affect the original")
	}
}

func TestTotalPool(t *testing.T) {
	d := &Dispute{StakeAmount: big.NewInt(1000)}
	if d.TotalPool().Int64() != 2000 {
		t.Fatalf("expected pool 2000, got %s", d.TotalPool())
	}
	var nilDispute *Dispute
	if nilDispute.TotalPool().Sign() != 0 {
		t.Fatal("nil dispute must report an empty pool")
	}
}

func TestIsParty(t *testing.T) {
	d := &Dispute{Claimant: claimant, Respondent: respondent}
	if !d.IsParty(claimant) || !d.IsParty(respondent) {
		t.Fatal("both parties must match")
	}
	if d.IsParty(outsider) {
		t.Fatal("outsider must not match")
	}
}
