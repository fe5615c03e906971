package escrow

import (
	"errors"
	"fmt"
	"math/big"
	"testing"

	"arbchain/core/types"
)

var (
	alice = testAddr(0x0A)
	bob   = testAddr(0x0B)
	vault = testAddr(0xFE)
)

func testAddr(b byte) [20]byte {
	var a [20]byte
	a[19] = b
	return a
}

type ledgerMock struct {
	accounts map[string]*types.Account
	escrowed map[string]*big.Int
}

func newLedgerMock() *ledgerMock {
	return &ledgerMock{
		accounts: make(map[string]*types.Account),
		escrowed: make(map[string]*big.Int),
	}
}

func (m *ledgerMock) key(disputeID uint64, token string) string {
	return fmt.Sprintf("%d/%s", disputeID, token)
}

func (m *ledgerMock) EscrowCredit(disputeID uint64, token string, amt *big.Int) error {
	key := m.key(disputeID, token)
	balance := m.escrowed[key]
	if balance == nil {
		balance = big.NewInt(0)
	}
	m.escrowed[key] = new(big.Int).Add(balance, amt)
	return nil
}

func (m *ledgerMock) EscrowDebit(disputeID uint64, token string, amt *big.Int) error {
	key := m.key(disputeID, token)
	balance := m.escrowed[key]
	if balance == nil {
		balance = big.NewInt(0)
	}
	updated := new(big.Int).Sub(balance, amt)
	if updated.Sign() < 0 {
		return fmt.Errorf("mock: escrow underflow")
	}
	m.escrowed[key] = updated
	return nil
}

func (m *ledgerMock) EscrowBalance(disputeID uint64, token string) (*big.Int, error) {
	balance := m.escrowed[m.key(disputeID, token)]
	if balance == nil {
		return big.NewInt(0), nil
	}
	return new(big.Int).Set(balance), nil
}

func (m *ledgerMock) EscrowVaultAddress(string) ([20]byte, error) {
	return vault, nil
}

func (m *ledgerMock) GetAccount(addr []byte) (*types.Account, error) {
	acc, ok := m.accounts[string(addr)]
	if !ok {
		return types.NewAccount(), nil
	}
	return acc.Clone(), nil
}

func (m *ledgerMock) PutAccount(addr []byte, acc *types.Account) error {
	m.accounts[string(addr)] = acc.Clone()
	return nil
}

func (m *ledgerMock) credit(addr [20]byte, token string, amount int64) {
	acc, _ := m.GetAccount(addr[:])
	acc.SetBalance(token, big.NewInt(amount))
	_ = m.PutAccount(addr[:], acc)
}

func (m *ledgerMock) balanceOf(addr [20]byte, token string) int64 {
	acc, _ := m.GetAccount(addr[:])
	return acc.Balance(token).Int64()
}

func TestDepositMovesFundsToVault(t *testing.T) {
	mock := newLedgerMock()
	mock.credit(alice, "ARB", 500)
	ledger := NewLedger(mock)

	if err := ledger.Deposit(1, alice, "arb", big.NewInt(300)); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if got := mock.balanceOf(alice, "ARB"); got != 200 {
		t.Fatalf("expected payer balance 200, got %d", got)
	}
	if got := mock.balanceOf(vault, "ARB"); got != 300 {
		t.Fatalf("expected vault balance 300, got %d", got)
	}
	balance, err := ledger.Balance(1, "ARB")
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance.Int64() != 300 {
		t.Fatalf("expected escrowed 300, got %s", balance)
	}
}

func TestDepositInsufficientFunds(t *testing.T) {
	mock := newLedgerMock()
	mock.credit(alice, "ARB", 100)
	ledger := NewLedger(mock)

	err := ledger.Deposit(1, alice, "ARB", big.NewInt(300))
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if got := mock.balanceOf(alice, "ARB"); got != 100 {
		t.Fatalf("payer balance must be untouched, got %d", got)
	}
	balance, _ := ledger.Balance(1, "ARB")
	if balance.Sign() != 0 {
		t.Fatalf("escrow must be untouched, got %s", balance)
	}
}

func TestDepositRejectsNonPositiveAmounts(t *testing.T) {
	ledger := NewLedger(newLedgerMock())
	if err := ledger.Deposit(1, alice, "ARB", big.NewInt(0)); err == nil {
		t.Fatal("zero deposit must be rejected")
	}
	if err := ledger.Deposit(1, alice, "ARB", big.NewInt(-5)); err == nil {
		t.Fatal("negative deposit must be rejected")
	}
}

func TestReleaseUnderflowFailsBeforeTransfer(t *testing.T) {
	mock := newLedgerMock()
	mock.credit(alice, "ARB", 500)
	ledger := NewLedger(mock)
	if err := ledger.Deposit(1, alice, "ARB", big.NewInt(300)); err != nil {
		t.Fatalf("deposit: %v", err)
	}

	err := ledger.Release(1, bob, "ARB", big.NewInt(301))
	if !errors.Is(err, ErrLedgerUnderflow) {
		t.Fatalf("expected ErrLedgerUnderflow, got %v", err)
	}
	if got := mock.balanceOf(bob, "ARB"); got != 0 {
		t.Fatalf("recipient must be untouched, got %d", got)
	}
	if got := mock.balanceOf(vault, "ARB"); got != 300 {
		t.Fatalf("vault must be untouched, got %d", got)
	}
}

func TestReleaseZeroIsNoop(t *testing.T) {
	mock := newLedgerMock()
	ledger := NewLedger(mock)
	if err := ledger.Release(1, bob, "ARB", big.NewInt(0)); err != nil {
		t.Fatalf("zero release must be a no-op, got %v", err)
	}
}

func TestExecutePlanRequiresExactTotal(t *testing.T) {
	mock := newLedgerMock()
	mock.credit(alice, "ARB", 1000)
	ledger := NewLedger(mock)
	if err := ledger.Deposit(1, alice, "ARB", big.NewInt(1000)); err != nil {
		t.Fatalf("deposit: %v", err)
	}

	short := NewPayoutPlan()
	if err := short.Add(bob, big.NewInt(999)); err != nil {
		t.Fatalf("plan add: %v", err)
	}
	if err := ledger.ExecutePlan(1, "ARB", short); !errors.Is(err, ErrPlanMismatch) {
		t.Fatalf("expected ErrPlanMismatch, got %v", err)
	}
	if got := mock.balanceOf(bob, "ARB"); got != 0 {
		t.Fatalf("mismatched plan must not move funds, got %d", got)
	}

	exact := NewPayoutPlan()
	if err := exact.Add(bob, big.NewInt(600)); err != nil {
		t.Fatalf("plan add: %v", err)
	}
	if err := exact.Add(alice, big.NewInt(400)); err != nil {
		t.Fatalf("plan add: %v", err)
	}
	if err := ledger.ExecutePlan(1, "ARB", exact); err != nil {
		t.Fatalf("execute plan: %v", err)
	}
	if got := mock.balanceOf(bob, "ARB"); got != 600 {
		t.Fatalf("expected bob 600, got %d", got)
	}
	if got := mock.balanceOf(alice, "ARB"); got != 400 {
		t.Fatalf("expected alice 400, got %d", got)
	}
	balance, _ := ledger.Balance(1, "ARB")
	if balance.Sign() != 0 {
		t.Fatalf("expected escrow drained, got %s", balance)
	}
}

func TestPayoutPlanDropsZeroEntries(t *testing.T) {
	plan := NewPayoutPlan()
	if err := plan.Add(bob, big.NewInt(0)); err != nil {
		t.Fatalf("zero entry: %v", err)
	}
	if err := plan.Add(bob, big.NewInt(-1)); err == nil {
		t.Fatal("negative entry must be rejected")
	}
	if len(plan.Entries()) != 0 {
		t.Fatalf("expected no entries, got %d", len(plan.Entries()))
	}
	if plan.Total().Sign() != 0 {
		t.Fatalf("expected zero total, got %s", plan.Total())
	}
}
