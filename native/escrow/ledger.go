package escrow

import (
	"errors"
	"fmt"
	"math/big"

	"arbchain/core/types"
	"arbchain/native/assets"
)

var (
	// ErrNilState marks ledger calls before the state backend is wired.
	ErrNilState = errors.New("escrow ledger: state not configured")
	// ErrInsufficientFunds is returned when the payer cannot tender the
	// exact required amount.
	ErrInsufficientFunds = errors.New("escrow ledger: insufficient funds")
	// ErrLedgerUnderflow marks a release exceeding the escrowed balance. It
	// indicates a payout computation bug, never a normal-path failure.
	ErrLedgerUnderflow = errors.New("escrow ledger: release exceeds escrowed balance")
	// ErrPlanMismatch marks a payout plan whose total does not equal the
	// pre-finalization escrowed balance.
	ErrPlanMismatch = errors.New("escrow ledger: payout plan does not sum to escrowed balance")
)

// ledgerState abstracts the subset of state manager functionality required by
// the escrow ledger.
type ledgerState interface {
	EscrowCredit(disputeID uint64, token string, amt *big.Int) error
	EscrowDebit(disputeID uint64, token string, amt *big.Int) error
	EscrowBalance(disputeID uint64, token string) (*big.Int, error)
	EscrowVaultAddress(token string) ([20]byte, error)
	GetAccount(addr []byte) (*types.Account, error)
	PutAccount(addr []byte, account *types.Account) error
}

// Ledger is the sole owner of dispute balance accounting. It moves value
// between party accounts and the per-token vault, and guarantees the escrowed
// balance never goes negative.
type Ledger struct {
	state ledgerState
}

// NewLedger constructs a ledger bound to the provided state backend.
func NewLedger(state ledgerState) *Ledger {
	return &Ledger{state: state}
}

func cloneBigInt(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}

func ensureAccount(acc *types.Account) *types.Account {
	if acc == nil {
		return types.NewAccount()
	}
	if acc.Balances == nil {
		acc.Balances = make(map[string]*big.Int)
	}
	return acc
}

func (l *Ledger) transferToken(from, to [20]byte, token string, amount *big.Int) error {
	if l == nil || l.state == nil {
		return ErrNilState
	}
	amt := cloneBigInt(amount)
	if amt.Sign() == 0 {
		return nil
	}
	if amt.Sign() < 0 {
		return fmt.Errorf("escrow ledger: negative transfer amount")
	}
	normalized, err := assets.Normalize(token)
	if err != nil {
		return err
	}
	fromAcc, err := l.state.GetAccount(from[:])
	if err != nil {
		return err
	}
	toAcc, err := l.state.GetAccount(to[:])
	if err != nil {
		return err
	}
	fromAcc = ensureAccount(fromAcc)
	toAcc = ensureAccount(toAcc)
	balance := fromAcc.Balance(normalized)
	if balance.Cmp(amt) < 0 {
		return fmt.Errorf("%w: required %s, available %s %s", ErrInsufficientFunds, amt.String(), balance.String(), normalized)
	}
	fromAcc.SetBalance(normalized, new(big.Int).Sub(balance, amt))
	toAcc.SetBalance(normalized, new(big.Int).Add(toAcc.Balance(normalized), amt))
	if err := l.state.PutAccount(from[:], fromAcc); err != nil {
		return err
	}
	return l.state.PutAccount(to[:], toAcc)
}

// Deposit moves the amount from the payer into the token vault and credits
// the dispute's escrowed balance.
func (l *Ledger) Deposit(disputeID uint64, payer [20]byte, token string, amount *big.Int) error {
	if l == nil || l.state == nil {
		return ErrNilState
	}
	amt := cloneBigInt(amount)
	if amt.Sign() <= 0 {
		return fmt.Errorf("escrow ledger: deposit amount must be positive")
	}
	normalized, err := assets.Normalize(token)
	if err != nil {
		return err
	}
	vault, err := l.state.EscrowVaultAddress(normalized)
	if err != nil {
		return err
	}
	if err := l.transferToken(payer, vault, normalized, amt); err != nil {
		return err
	}
	return l.state.EscrowCredit(disputeID, normalized, amt)
}

// Release moves the amount from the token vault to the recipient and debits
// the dispute's escrowed balance. Releasing more than the escrowed balance
// fails with ErrLedgerUnderflow before any transfer occurs.
func (l *Ledger) Release(disputeID uint64, recipient [20]byte, token string, amount *big.Int) error {
	if l == nil || l.state == nil {
		return ErrNilState
	}
	amt := cloneBigInt(amount)
	if amt.Sign() < 0 {
		return fmt.Errorf("escrow ledger: release amount must not be negative")
	}
	if amt.Sign() == 0 {
		return nil
	}
	normalized, err := assets.Normalize(token)
	if err != nil {
		return err
	}
	balance, err := l.Balance(disputeID, normalized)
	if err != nil {
		return err
	}
	if balance.Cmp(amt) < 0 {
		return fmt.Errorf("%w: release %s, escrowed %s %s", ErrLedgerUnderflow, amt.String(), balance.String(), normalized)
	}
	vault, err := l.state.EscrowVaultAddress(normalized)
	if err != nil {
		return err
	}
	if err := l.transferToken(vault, recipient, normalized, amt); err != nil {
		return err
	}
	return l.state.EscrowDebit(disputeID, normalized, amt)
}

// Balance reports the dispute's current escrowed balance for the token.
func (l *Ledger) Balance(disputeID uint64, token string) (*big.Int, error) {
	if l == nil || l.state == nil {
		return nil, ErrNilState
	}
	normalized, err := assets.Normalize(token)
	if err != nil {
		return nil, err
	}
	balance, err := l.state.EscrowBalance(disputeID, normalized)
	if err != nil {
		return nil, err
	}
	return cloneBigInt(balance), nil
}
