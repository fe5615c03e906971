package assets

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
)

// NativeSymbol is the chain's native staking asset, registered at genesis.
const NativeSymbol = "ARB"

// RoleAdmin authorises currency configuration changes.
const RoleAdmin = "ROLE_ARBITER_ADMIN"

// MaxFeeBps caps the platform fee at 10% of the contested pool.
const MaxFeeBps uint32 = 1_000

var (
	ErrUnauthorized     = errors.New("assets: unauthorized")
	ErrUnsupportedToken = errors.New("assets: unsupported token")
	ErrInvalidAsset     = errors.New("assets: invalid asset definition")
)

// Asset captures the per-currency staking parameters consulted when a dispute
// is opened. MinStake and MaxStake bound the claimant's stake at creation
// time; FeeBps is the platform fee applied at finalization.
type Asset struct {
	Symbol   string
	Decimals uint8
	FeeBps   uint32
	MinStake *big.Int
	MaxStake *big.Int
}

// Clone returns a deep copy of the asset definition.
func (a *Asset) Clone() *Asset {
	if a == nil {
		return nil
	}
	clone := *a
	if a.MinStake != nil {
		clone.MinStake = new(big.Int).Set(a.MinStake)
	} else {
		clone.MinStake = big.NewInt(0)
	}
	if a.MaxStake != nil {
		clone.MaxStake = new(big.Int).Set(a.MaxStake)
	} else {
		clone.MaxStake = big.NewInt(0)
	}
	return &clone
}

// Normalize canonicalises a token symbol to uppercase without surrounding
// whitespace. An empty result is rejected.
func Normalize(symbol string) (string, error) {
	trimmed := strings.ToUpper(strings.TrimSpace(symbol))
	if trimmed == "" {
		return "", ErrUnsupportedToken
	}
	return trimmed, nil
}

func sanitizeAsset(a *Asset) (*Asset, error) {
	if a == nil {
		return nil, ErrInvalidAsset
	}
	clone := a.Clone()
	symbol, err := Normalize(clone.Symbol)
	if err != nil {
		return nil, fmt.Errorf("%w: empty symbol", ErrInvalidAsset)
	}
	clone.Symbol = symbol
	if clone.FeeBps > MaxFeeBps {
		return nil, fmt.Errorf("%w: fee %d bps exceeds cap %d", ErrInvalidAsset, clone.FeeBps, MaxFeeBps)
	}
	if clone.MinStake == nil || clone.MinStake.Sign() <= 0 {
		return nil, fmt.Errorf("%w: min stake must be positive", ErrInvalidAsset)
	}
	if clone.MaxStake == nil || clone.MaxStake.Cmp(clone.MinStake) < 0 {
		return nil, fmt.Errorf("%w: max stake below min stake", ErrInvalidAsset)
	}
	return clone, nil
}

type registryState interface {
	HasRole(role string, addr []byte) bool
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
}

func assetKey(symbol string) []byte {
	return []byte("assets/" + symbol)
}

// Registry manages persistence and retrieval of supported staking currencies.
type Registry struct {
	st registryState
}

// NewRegistry creates a registry backed by the provided state manager.
func NewRegistry(st registryState) *Registry {
	return &Registry{st: st}
}

// Upsert registers or replaces a currency definition. Only callers holding
// ROLE_ARBITER_ADMIN may change currency parameters.
func (r *Registry) Upsert(caller [20]byte, a *Asset) error {
	if r == nil || r.st == nil {
		return ErrInvalidAsset
	}
	sanitized, err := sanitizeAsset(a)
	if err != nil {
		return err
	}
	if !r.st.HasRole(RoleAdmin, caller[:]) {
		return ErrUnauthorized
	}
	return r.st.KVPut(assetKey(sanitized.Symbol), sanitized)
}

// Get resolves the asset definition for the supplied symbol.
func (r *Registry) Get(symbol string) (*Asset, error) {
	if r == nil || r.st == nil {
		return nil, ErrUnsupportedToken
	}
	normalized, err := Normalize(symbol)
	if err != nil {
		return nil, err
	}
	stored := new(Asset)
	found, err := r.st.KVGet(assetKey(normalized), stored)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedToken, normalized)
	}
	return stored.Clone(), nil
}

// Bootstrap persists the native asset definition when missing. Intended for
// genesis wiring; it bypasses the admin role check.
func (r *Registry) Bootstrap(a *Asset) error {
	if r == nil || r.st == nil {
		return ErrInvalidAsset
	}
	sanitized, err := sanitizeAsset(a)
	if err != nil {
		return err
	}
	existing := new(Asset)
	found, err := r.st.KVGet(assetKey(sanitized.Symbol), existing)
	if err != nil {
		return err
	}
	if found {
		return nil
	}
	return r.st.KVPut(assetKey(sanitized.Symbol), sanitized)
}
