package state

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"arbchain/core/types"
	"arbchain/native/dispute"
	"arbchain/native/evidence"
	"arbchain/native/oracle"
	"arbchain/storage"
)

var errNilDB = errors.New("state: database not configured")

// Manager persists the dispute core's state on a key-value database. It
// implements the narrow state interfaces declared by the escrow ledger, the
// evidence register, the dispute engine, the oracle bridge and the asset
// registry. Values are JSON-encoded under prefixed keys.
type Manager struct {
	db storage.Database
}

// NewManager constructs a state manager over the supplied database.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

const (
	disputeSeqKey = "dispute/seq"
	oracleSeqKey  = "oracle/seq"
)

func disputeKey(id uint64) []byte {
	return []byte(fmt.Sprintf("dispute/%016x", id))
}

func partyIndexKey(addr [20]byte) []byte {
	return []byte("dispute/party/" + hex.EncodeToString(addr[:]))
}

func evidenceKey(disputeID uint64) []byte {
	return []byte(fmt.Sprintf("evidence/%016x", disputeID))
}

func evidenceContentKey(key [32]byte) []byte {
	return []byte("evidence/content/" + hex.EncodeToString(key[:]))
}

func oracleRequestKey(id [32]byte) []byte {
	return []byte("oracle/req/" + hex.EncodeToString(id[:]))
}

func oracleDisputeKey(disputeID uint64) []byte {
	return []byte(fmt.Sprintf("oracle/dispute/%016x", disputeID))
}

func escrowBalanceKey(disputeID uint64, token string) []byte {
	return []byte(fmt.Sprintf("escrow/%016x/%s", disputeID, token))
}

func accountKey(addr []byte) []byte {
	return []byte("acct/" + hex.EncodeToString(addr))
}

func roleKey(role string, addr []byte) []byte {
	return []byte("role/" + role + "/" + hex.EncodeToString(addr))
}

func pauseKey(module string) []byte {
	return []byte("paused/" + module)
}

// KVGet decodes the stored value into out, reporting whether the key exists.
func (m *Manager) KVGet(key []byte, out interface{}) (bool, error) {
	if m == nil || m.db == nil {
		return false, errNilDB
	}
	raw, err := m.db.Get(key)
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("state: decode %q: %w", key, err)
	}
	return true, nil
}

// KVPut JSON-encodes the value under the key.
func (m *Manager) KVPut(key []byte, value interface{}) error {
	if m == nil || m.db == nil {
		return errNilDB
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("state: encode %q: %w", key, err)
	}
	return m.db.Put(key, raw)
}

func (m *Manager) nextSeq(key string) (uint64, error) {
	var current uint64
	if _, err := m.KVGet([]byte(key), &current); err != nil {
		return 0, err
	}
	next := current + 1
	if err := m.KVPut([]byte(key), next); err != nil {
		return 0, err
	}
	return next, nil
}

// --- dispute engine state ---

func (m *Manager) DisputePut(d *dispute.Dispute) error {
	if d == nil {
		return fmt.Errorf("state: nil dispute")
	}
	return m.KVPut(disputeKey(d.ID), d)
}

func (m *Manager) DisputeGet(id uint64) (*dispute.Dispute, bool) {
	stored := new(dispute.Dispute)
	found, err := m.KVGet(disputeKey(id), stored)
	if err != nil || !found {
		return nil, false
	}
	return stored, true
}

// NextDisputeID advances the persisted dispute counter. Identifiers start at
// one and are never reused.
func (m *Manager) NextDisputeID() (uint64, error) {
	return m.nextSeq(disputeSeqKey)
}

func (m *Manager) DisputeIndexParty(addr [20]byte, id uint64) error {
	ids, err := m.DisputesByParty(addr)
	if err != nil {
		return err
	}
	for _, existing := range ids {
		if existing == id {
			return nil
		}
	}
	return m.KVPut(partyIndexKey(addr), append(ids, id))
}

func (m *Manager) DisputesByParty(addr [20]byte) ([]uint64, error) {
	var ids []uint64
	if _, err := m.KVGet(partyIndexKey(addr), &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// --- evidence register state ---

func (m *Manager) EvidenceAppend(disputeID uint64, item *evidence.Item) error {
	if item == nil {
		return fmt.Errorf("state: nil evidence item")
	}
	items, err := m.EvidenceList(disputeID)
	if err != nil {
		return err
	}
	return m.KVPut(evidenceKey(disputeID), append(items, *item))
}

func (m *Manager) EvidenceList(disputeID uint64) ([]evidence.Item, error) {
	var items []evidence.Item
	if _, err := m.KVGet(evidenceKey(disputeID), &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (m *Manager) EvidenceContentSeen(key [32]byte) (bool, error) {
	if m == nil || m.db == nil {
		return false, errNilDB
	}
	return m.db.Has(evidenceContentKey(key))
}

func (m *Manager) EvidenceContentMark(key [32]byte) error {
	if m == nil || m.db == nil {
		return errNilDB
	}
	return m.db.Put(evidenceContentKey(key), []byte{1})
}

// --- oracle bridge state ---

func (m *Manager) OracleRequestPut(req *oracle.Request) error {
	if req == nil {
		return fmt.Errorf("state: nil oracle request")
	}
	return m.KVPut(oracleRequestKey(req.ID), req)
}

func (m *Manager) OracleRequestGet(id [32]byte) (*oracle.Request, bool) {
	stored := new(oracle.Request)
	found, err := m.KVGet(oracleRequestKey(id), stored)
	if err != nil || !found {
		return nil, false
	}
	return stored, true
}

func (m *Manager) NextOracleRequestSeq() (uint64, error) {
	return m.nextSeq(oracleSeqKey)
}

func (m *Manager) OracleRequestForDispute(disputeID uint64) ([32]byte, bool, error) {
	var id [32]byte
	found, err := m.KVGet(oracleDisputeKey(disputeID), &id)
	if err != nil {
		return [32]byte{}, false, err
	}
	return id, found, nil
}

func (m *Manager) OracleIndexDispute(disputeID uint64, requestID [32]byte) error {
	return m.KVPut(oracleDisputeKey(disputeID), requestID)
}

// --- escrow ledger state ---

func (m *Manager) EscrowCredit(disputeID uint64, token string, amt *big.Int) error {
	balance, err := m.EscrowBalance(disputeID, token)
	if err != nil {
		return err
	}
	return m.KVPut(escrowBalanceKey(disputeID, token), new(big.Int).Add(balance, amt))
}

func (m *Manager) EscrowDebit(disputeID uint64, token string, amt *big.Int) error {
	balance, err := m.EscrowBalance(disputeID, token)
	if err != nil {
		return err
	}
	updated := new(big.Int).Sub(balance, amt)
	if updated.Sign() < 0 {
		return fmt.Errorf("state: escrow balance underflow for dispute %d", disputeID)
	}
	return m.KVPut(escrowBalanceKey(disputeID, token), updated)
}

func (m *Manager) EscrowBalance(disputeID uint64, token string) (*big.Int, error) {
	balance := new(big.Int)
	found, err := m.KVGet(escrowBalanceKey(disputeID, token), balance)
	if err != nil {
		return nil, err
	}
	if !found {
		return big.NewInt(0), nil
	}
	return balance, nil
}

// EscrowVaultAddress derives the deterministic custody address for a token's
// vault account.
func (m *Manager) EscrowVaultAddress(token string) ([20]byte, error) {
	digest := ethcrypto.Keccak256([]byte("arbchain/vault/" + token))
	var addr [20]byte
	copy(addr[:], digest[12:])
	return addr, nil
}

func (m *Manager) GetAccount(addr []byte) (*types.Account, error) {
	stored := types.NewAccount()
	if _, err := m.KVGet(accountKey(addr), stored); err != nil {
		return nil, err
	}
	return stored, nil
}

func (m *Manager) PutAccount(addr []byte, account *types.Account) error {
	if account == nil {
		return fmt.Errorf("state: nil account")
	}
	return m.KVPut(accountKey(addr), account)
}

// Credit adds to an account balance directly. Used for genesis allocations
// and tests; normal value movement goes through the escrow ledger.
func (m *Manager) Credit(addr [20]byte, token string, amount *big.Int) error {
	acc, err := m.GetAccount(addr[:])
	if err != nil {
		return err
	}
	acc.SetBalance(token, new(big.Int).Add(acc.Balance(token), amount))
	return m.PutAccount(addr[:], acc)
}

// --- roles & pauses ---

func (m *Manager) HasRole(role string, addr []byte) bool {
	if m == nil || m.db == nil {
		return false
	}
	ok, err := m.db.Has(roleKey(role, addr))
	return err == nil && ok
}

func (m *Manager) GrantRole(role string, addr []byte) error {
	if m == nil || m.db == nil {
		return errNilDB
	}
	return m.db.Put(roleKey(role, addr), []byte{1})
}

func (m *Manager) RevokeRole(role string, addr []byte) error {
	if m == nil || m.db == nil {
		return errNilDB
	}
	return m.db.Delete(roleKey(role, addr))
}

// IsPaused implements the module pause view.
func (m *Manager) IsPaused(module string) bool {
	if m == nil || m.db == nil {
		return false
	}
	ok, err := m.db.Has(pauseKey(module))
	return err == nil && ok
}

func (m *Manager) SetPaused(module string, paused bool) error {
	if m == nil || m.db == nil {
		return errNilDB
	}
	if paused {
		return m.db.Put(pauseKey(module), []byte{1})
	}
	return m.db.Delete(pauseKey(module))
}
