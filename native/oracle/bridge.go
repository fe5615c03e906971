package oracle

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"

	"arbchain/native/dispute"
)

// RoleRelayer authorises verdict delivery and failure signalling. The role is
// granted through the platform's administrative surface.
const RoleRelayer = "ROLE_ORACLE_RELAYER"

// requestTimeoutSecs is how long a request may stay pending before anyone can
// sweep it to Expired.
const requestTimeoutSecs int64 = 24 * 3600

var (
	// ErrNilState marks bridge calls before the backends are wired.
	ErrNilState = errors.New("oracle: state not configured")
	// ErrRequestNotFound marks operations against unknown request ids.
	ErrRequestNotFound = errors.New("oracle: request not found")
	// ErrRequestPending rejects opening a new request while one is still
	// pending for the same dispute.
	ErrRequestPending = errors.New("oracle: request still pending for dispute")
	// ErrRequestAlreadyTerminal rejects delivery, failure or expiry of a
	// request that already terminated. Requests are never reopened.
	ErrRequestAlreadyTerminal = errors.New("oracle: request already terminal")
	// ErrRequestExpired rejects delivery once the request timeout elapsed.
	ErrRequestExpired = errors.New("oracle: request expired")
	// ErrRequestNotExpired rejects a premature expiry sweep.
	ErrRequestNotExpired = errors.New("oracle: request timeout not reached")
	// ErrUnauthorized rejects verdict delivery from anyone but the
	// configured relayer.
	ErrUnauthorized = errors.New("oracle: caller is not the authorized relayer")
	// ErrConfidenceOutOfRange rejects confidence scores above 100.
	ErrConfidenceOutOfRange = errors.New("oracle: confidence score out of range")
)

// RequestStatus tracks the delivery state of an oracle round. Fulfilled,
// Failed and Expired are terminal.
type RequestStatus uint8

const (
	RequestPending RequestStatus = iota
	RequestFulfilled
	RequestFailed
	RequestExpired
)

// Terminal reports whether the request admits no further transitions.
func (s RequestStatus) Terminal() bool {
	return s == RequestFulfilled || s == RequestFailed || s == RequestExpired
}

func (s RequestStatus) String() string {
	switch s {
	case RequestPending:
		return "pending"
	case RequestFulfilled:
		return "fulfilled"
	case RequestFailed:
		return "failed"
	case RequestExpired:
		return "expired"
	default:
		return fmt.Sprintf("request_status(%d)", uint8(s))
	}
}

// Request bridges a dispute to one external verdict round.
type Request struct {
	ID          [32]byte
	DisputeID   uint64
	CreatedAt   int64
	Status      RequestStatus
	DeliveredAt int64
}

// Clone returns a copy of the request record.
func (r *Request) Clone() *Request {
	if r == nil {
		return nil
	}
	clone := *r
	return &clone
}

// verdictSink is the surface the bridge needs from the dispute state machine.
type verdictSink interface {
	ApplyVerdict(disputeID uint64, requestID [32]byte, resolution dispute.Resolution, confidence uint8, reasoningRef string) error
}

type bridgeState interface {
	OracleRequestPut(*Request) error
	OracleRequestGet(id [32]byte) (*Request, bool)
	NextOracleRequestSeq() (uint64, error)
	OracleRequestForDispute(disputeID uint64) ([32]byte, bool, error)
	OracleIndexDispute(disputeID uint64, requestID [32]byte) error
	HasRole(role string, addr []byte) bool
}

// Bridge maps opaque request identifiers to disputes and enforces
// single-delivery, relayer authorization and staleness rules before feeding
// verdicts into the dispute engine.
type Bridge struct {
	state bridgeState
	sink  verdictSink
	nowFn func() int64
}

// NewBridge constructs a bridge bound to the provided state backend.
func NewBridge(state bridgeState) *Bridge {
	return &Bridge{
		state: state,
		nowFn: func() int64 { return time.Now().Unix() },
	}
}

// SetSink wires the dispute engine receiving applied verdicts.
func (b *Bridge) SetSink(sink verdictSink) {
	if b == nil {
		return
	}
	b.sink = sink
}

// SetNowFunc overrides the time source, primarily used in tests.
func (b *Bridge) SetNowFunc(now func() int64) {
	if b == nil {
		return
	}
	if now == nil {
		b.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	b.nowFn = now
}

func (b *Bridge) now() int64 {
	if b == nil || b.nowFn == nil {
		return time.Now().Unix()
	}
	return b.nowFn()
}

// deriveRequestID combines the dispute id, a monotonic sequence and a
// cryptographically random nonce so identifiers are platform-unique and
// unguessable before the request exists.
func deriveRequestID(disputeID, seq uint64, nonce uuid.UUID) [32]byte {
	var disputeBytes, seqBytes [8]byte
	binary.BigEndian.PutUint64(disputeBytes[:], disputeID)
	binary.BigEndian.PutUint64(seqBytes[:], seq)
	return ethcrypto.Keccak256Hash(disputeBytes[:], seqBytes[:], nonce[:])
}

func (b *Bridge) loadRequest(id [32]byte) (*Request, error) {
	if b == nil || b.state == nil {
		return nil, ErrNilState
	}
	req, ok := b.state.OracleRequestGet(id)
	if !ok {
		return nil, fmt.Errorf("%w: %x", ErrRequestNotFound, id)
	}
	return req, nil
}

// CreateRequest opens a fresh verdict round for the dispute. A dispute may
// hold at most one pending request; after a failed or expired round a new
// request replaces it as the dispute's active round.
func (b *Bridge) CreateRequest(disputeID uint64, now int64) ([32]byte, error) {
	if b == nil || b.state == nil {
		return [32]byte{}, ErrNilState
	}
	activeID, ok, err := b.state.OracleRequestForDispute(disputeID)
	if err != nil {
		return [32]byte{}, err
	}
	if ok {
		active, err := b.loadRequest(activeID)
		if err != nil {
			return [32]byte{}, err
		}
		if !active.Status.Terminal() {
			return [32]byte{}, fmt.Errorf("%w: dispute %d", ErrRequestPending, disputeID)
		}
	}
	seq, err := b.state.NextOracleRequestSeq()
	if err != nil {
		return [32]byte{}, err
	}
	id := deriveRequestID(disputeID, seq, uuid.New())
	req := &Request{
		ID:        id,
		DisputeID: disputeID,
		CreatedAt: now,
		Status:    RequestPending,
	}
	if err := b.state.OracleRequestPut(req); err != nil {
		return [32]byte{}, err
	}
	if err := b.state.OracleIndexDispute(disputeID, id); err != nil {
		return [32]byte{}, err
	}
	return id, nil
}

// Deliver applies the relayer's verdict to the owning dispute. Delivery is
// single-shot: a fulfilled, failed or expired request can never be delivered
// again.
func (b *Bridge) Deliver(requestID [32]byte, caller [20]byte, resolution dispute.Resolution, confidence uint8, reasoningRef string) error {
	if b == nil || b.state == nil || b.sink == nil {
		return ErrNilState
	}
	if !b.state.HasRole(RoleRelayer, caller[:]) {
		return ErrUnauthorized
	}
	req, err := b.loadRequest(requestID)
	if err != nil {
		return err
	}
	if req.Status.Terminal() {
		return fmt.Errorf("%w: status %s", ErrRequestAlreadyTerminal, req.Status)
	}
	now := b.now()
	if now >= req.CreatedAt+requestTimeoutSecs {
		return fmt.Errorf("%w: created %d, now %d", ErrRequestExpired, req.CreatedAt, now)
	}
	if !resolution.Valid() {
		return fmt.Errorf("%w: %d", dispute.ErrInvalidResolution, resolution)
	}
	if confidence > 100 {
		return fmt.Errorf("%w: %d", ErrConfidenceOutOfRange, confidence)
	}
	if err := b.sink.ApplyVerdict(req.DisputeID, requestID, resolution, confidence, reasoningRef); err != nil {
		return err
	}
	req.Status = RequestFulfilled
	req.DeliveredAt = now
	return b.state.OracleRequestPut(req)
}

// Fail marks a pending round as failed, signalled by the relayer when the
// oracle network cannot produce a verdict. The dispute stays in
// AwaitingVerdict; a party may open a fresh round through requestVerdict.
func (b *Bridge) Fail(requestID [32]byte, caller [20]byte) error {
	if b == nil || b.state == nil {
		return ErrNilState
	}
	if !b.state.HasRole(RoleRelayer, caller[:]) {
		return ErrUnauthorized
	}
	req, err := b.loadRequest(requestID)
	if err != nil {
		return err
	}
	if req.Status.Terminal() {
		return fmt.Errorf("%w: status %s", ErrRequestAlreadyTerminal, req.Status)
	}
	req.Status = RequestFailed
	return b.state.OracleRequestPut(req)
}

// Expire sweeps a pending request to Expired once the timeout elapsed. Anyone
// may invoke the sweep; it unblocks a dispute whose oracle round silently
// died without advancing the dispute itself.
func (b *Bridge) Expire(requestID [32]byte) error {
	if b == nil || b.state == nil {
		return ErrNilState
	}
	req, err := b.loadRequest(requestID)
	if err != nil {
		return err
	}
	if req.Status.Terminal() {
		return fmt.Errorf("%w: status %s", ErrRequestAlreadyTerminal, req.Status)
	}
	now := b.now()
	if now < req.CreatedAt+requestTimeoutSecs {
		return fmt.Errorf("%w: created %d, now %d", ErrRequestNotExpired, req.CreatedAt, now)
	}
	req.Status = RequestExpired
	return b.state.OracleRequestPut(req)
}

// Get fetches the request record by id.
func (b *Bridge) Get(requestID [32]byte) (*Request, error) {
	req, err := b.loadRequest(requestID)
	if err != nil {
		return nil, err
	}
	return req.Clone(), nil
}

// ActiveRequest returns the dispute's most recent request id, if any.
func (b *Bridge) ActiveRequest(disputeID uint64) ([32]byte, bool, error) {
	if b == nil || b.state == nil {
		return [32]byte{}, false, ErrNilState
	}
	return b.state.OracleRequestForDispute(disputeID)
}
