package types

import (
	"math/big"
	"testing"
)

func TestSetBalanceCopiesValue(t *testing.T) {
	acc := NewAccount()
	amount := big.NewInt(1000)
	acc.SetBalance("ARB", amount)
	amount.SetInt64(1)
	if acc.Balance("ARB").Int64() != 1000 {
		t.Fatal("account must not alias caller-owned values")
	}
}

func TestBalanceMissingTokenIsZero(t *testing.T) {
	acc := NewAccount()
	if acc.Balance("ARB").Sign() != 0 {
		t.Fatal("missing token must read as zero")
	}
	var nilAcc *Account
	if nilAcc.Balance("ARB").Sign() != 0 {
		t.Fatal("nil account must read as zero")
	}
}

func TestAccountCloneIsDeep(t *testing.T) {
	acc := NewAccount()
	acc.Nonce = 7
	acc.SetBalance("ARB", big.NewInt(500))

	clone := acc.Clone()
	clone.Balances["ARB"].SetInt64(1)
	if acc.Balance("ARB").Int64() != 500 {
		t.Fatal("mutating the clone must not affect the original")
	}
	if clone.Nonce != 7 {
		t.Fatalf("expected nonce carried over, got %d", clone.Nonce)
	}
}

func TestParseAddress(t *testing.T) {
	want := [20]byte{19: 0x02}
	for _, input := range []string{
		"0x0000000000000000000000000000000000000002",
		"0000000000000000000000000000000000000002",
		"  0x0000000000000000000000000000000000000002  ",
	} {
		got, err := ParseAddress(input)
		if err != nil {
			t.Fatalf("parse %q: %v", input, err)
		}
		if got != want {
			t.Fatalf("parse %q: got %x", input, got)
		}
	}

	for _, input := range []string{"", "0x1234", "zz", "0x" + "00" + "0000000000000000000000000000000000000002"} {
		if _, err := ParseAddress(input); err == nil {
			t.Fatalf("expected error for %q", input)
		}
	}
}

func TestFormatAddressRoundTrip(t *testing.T) {
	addr := [20]byte{0: 0xAB, 19: 0x02}
	parsed, err := ParseAddress(FormatAddress(addr))
	if err != nil {
		t.Fatalf("round trip: %v", err)
	}
	if parsed != addr {
		t.Fatalf("round trip mismatch: %x", parsed)
	}
}
