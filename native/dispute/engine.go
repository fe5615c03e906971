package dispute

import (
	"fmt"
	"math/big"
	"time"

	"arbchain/core/events"
	"arbchain/native/assets"
	nativecommon "arbchain/native/common"
	"arbchain/native/escrow"
	"arbchain/native/evidence"
)

const moduleName = "dispute"

const (
	defaultEvidenceWindowSecs int64 = 72 * 3600
	defaultAppealWindowSecs   int64 = 48 * 3600

	// minEvidenceForEarlyExit lets either party escalate to the oracle
	// before the evidence deadline once minimal evidence exists, so a
	// dispute cannot be held hostage by a party refusing to wait out the
	// window.
	minEvidenceForEarlyExit = 2
)

// OracleBridge is the narrow surface the engine needs from the oracle
// request/callback bridge. CreateRequest must refuse a new request while one
// is still pending for the dispute.
type OracleBridge interface {
	CreateRequest(disputeID uint64, now int64) ([32]byte, error)
}

type engineState interface {
	DisputePut(*Dispute) error
	DisputeGet(id uint64) (*Dispute, bool)
	NextDisputeID() (uint64, error)
	DisputeIndexParty(addr [20]byte, id uint64) error
	DisputesByParty(addr [20]byte) ([]uint64, error)
}

// Engine is the lifecycle controller for disputes. It owns every status and
// resolution transition and invokes the escrow ledger for fund movements only
// as part of a guarded transition. State mutations commit before any event is
// emitted.
type Engine struct {
	state    engineState
	ledger   *escrow.Ledger
	evidence *evidence.Register
	registry *assets.Registry
	oracle   OracleBridge
	emitter  events.Emitter
	pauses   nativecommon.PauseView
	treasury [20]byte

	evidenceWindow int64
	appealWindow   int64
	nowFn          func() int64
}

// NewEngine creates a dispute engine with a no-op emitter and the default
// evidence and appeal windows.
func NewEngine(state engineState, ledger *escrow.Ledger, register *evidence.Register, registry *assets.Registry) *Engine {
	return &Engine{
		state:          state,
		ledger:         ledger,
		evidence:       register,
		registry:       registry,
		emitter:        events.NoopEmitter{},
		evidenceWindow: defaultEvidenceWindowSecs,
		appealWindow:   defaultAppealWindowSecs,
		nowFn:          func() int64 { return time.Now().Unix() },
	}
}

// SetOracle wires the oracle bridge used to open verdict requests.
func (e *Engine) SetOracle(bridge OracleBridge) {
	if e == nil {
		return
	}
	e.oracle = bridge
}

// SetEmitter configures the event emitter used by the engine. Passing nil
// resets the emitter to a no-op implementation.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if e == nil {
		return
	}
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetPauses wires the module pause switch consulted before new disputes open.
func (e *Engine) SetPauses(p nativecommon.PauseView) {
	if e == nil {
		return
	}
	e.pauses = p
}

// SetTreasury configures the address that receives platform fees and
// forfeited appeal stakes.
func (e *Engine) SetTreasury(addr [20]byte) {
	if e == nil {
		return
	}
	e.treasury = addr
}

// SetWindows overrides the evidence and appeal windows, in seconds.
// Non-positive values keep the current setting.
func (e *Engine) SetWindows(evidenceSecs, appealSecs int64) {
	if e == nil {
		return
	}
	if evidenceSecs > 0 {
		e.evidenceWindow = evidenceSecs
	}
	if appealSecs > 0 {
		e.appealWindow = appealSecs
	}
}

// SetNowFunc overrides the time source used by the engine. Primarily intended
// for tests to provide deterministic timestamps.
func (e *Engine) SetNowFunc(now func() int64) {
	if e == nil {
		return
	}
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

func (e *Engine) emit(event events.Event) {
	if e == nil || e.emitter == nil || event == nil {
		return
	}
	e.emitter.Emit(event)
}

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

func (e *Engine) loadDispute(id uint64) (*Dispute, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	d, ok := e.state.DisputeGet(id)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrDisputeNotFound, id)
	}
	return d, nil
}

func (e *Engine) storeDispute(d *Dispute) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	return e.state.DisputePut(d)
}

func (e *Engine) ensureTreasuryConfigured() error {
	if e == nil || e.treasury == ([20]byte{}) {
		return ErrNilTreasury
	}
	return nil
}

// Create opens a dispute, escrows the claimant's stake and starts the
// evidence window.
func (e *Engine) Create(claimant, respondent [20]byte, token string, amount *big.Int, category uint8, descriptionRef string) (*Dispute, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}
	if respondent == ([20]byte{}) || respondent == claimant {
		return nil, ErrInvalidRespondent
	}
	asset, err := e.registry.Get(token)
	if err != nil {
		return nil, err
	}
	stake := cloneBigInt(amount)
	if stake.Cmp(asset.MinStake) < 0 || stake.Cmp(asset.MaxStake) > 0 {
		return nil, fmt.Errorf("%w: %s outside [%s, %s] %s", ErrAmountOutOfBounds,
			stake.String(), asset.MinStake.String(), asset.MaxStake.String(), asset.Symbol)
	}
	id, err := e.state.NextDisputeID()
	if err != nil {
		return nil, err
	}
	now := e.now()
	if err := e.ledger.Deposit(id, claimant, asset.Symbol, stake); err != nil {
		return nil, err
	}
	d := &Dispute{
		ID:               id,
		Claimant:         claimant,
		Respondent:       respondent,
		Token:            asset.Symbol,
		StakeAmount:      stake,
		Category:         category,
		DescriptionRef:   descriptionRef,
		CreatedAt:        now,
		EvidenceDeadline: now + e.evidenceWindow,
		Status:           StatusCreated,
		AppealStake:      big.NewInt(0),
	}
	if err := e.storeDispute(d); err != nil {
		return nil, err
	}
	if err := e.state.DisputeIndexParty(claimant, id); err != nil {
		return nil, err
	}
	if err := e.state.DisputeIndexParty(respondent, id); err != nil {
		return nil, err
	}
	e.emit(events.DisputeCreated{
		ID:          d.ID,
		Claimant:    d.Claimant,
		Respondent:  d.Respondent,
		Token:       d.Token,
		StakeAmount: new(big.Int).Set(stake),
		Category:    d.Category,
		CreatedAt:   d.CreatedAt,
	})
	return d.Clone(), nil
}

// Accept matches the claimant's stake and opens the evidence-submission
// phase. The tendered amount must equal the stake exactly; the protocol makes
// no change.
func (e *Engine) Accept(id uint64, caller [20]byte, tendered *big.Int) error {
	d, err := e.loadDispute(id)
	if err != nil {
		return err
	}
	if d.Status != StatusCreated {
		return fmt.Errorf("%w: status %s", ErrNotAcceptable, d.Status)
	}
	if caller != d.Respondent {
		return ErrNotRespondent
	}
	amt := cloneBigInt(tendered)
	if amt.Cmp(d.StakeAmount) != 0 {
		return fmt.Errorf("%w: required %s, given %s", ErrStakeMismatch, d.StakeAmount.String(), amt.String())
	}
	if err := e.ledger.Deposit(id, caller, d.Token, amt); err != nil {
		return err
	}
	now := e.now()
	d.Status = StatusEvidenceSubmission
	d.EvidenceDeadline = now + e.evidenceWindow
	if err := e.storeDispute(d); err != nil {
		return err
	}
	e.emit(events.DisputeAccepted{
		ID:               d.ID,
		Respondent:       d.Respondent,
		Token:            d.Token,
		StakeAmount:      new(big.Int).Set(d.StakeAmount),
		EvidenceDeadline: d.EvidenceDeadline,
	})
	return nil
}

// Cancel refunds the claimant in full. Only permitted before the respondent
// has matched the stake.
func (e *Engine) Cancel(id uint64, caller [20]byte) error {
	d, err := e.loadDispute(id)
	if err != nil {
		return err
	}
	if d.Status != StatusCreated {
		return fmt.Errorf("%w: status %s", ErrNotCancellable, d.Status)
	}
	if caller != d.Claimant {
		return ErrNotClaimant
	}
	if err := e.ledger.Release(id, d.Claimant, d.Token, d.StakeAmount); err != nil {
		return err
	}
	d.Status = StatusCancelled
	if err := e.storeDispute(d); err != nil {
		return err
	}
	e.emit(events.DisputeCancelled{DisputeID: d.ID, Refund: new(big.Int).Set(d.StakeAmount)})
	return nil
}

// EvidenceContext implements the evidence register's dispute view.
func (e *Engine) EvidenceContext(id uint64) ([20]byte, [20]byte, int64, bool, error) {
	d, err := e.loadDispute(id)
	if err != nil {
		return [20]byte{}, [20]byte{}, 0, false, err
	}
	open := d.Status == StatusCreated || d.Status == StatusEvidenceSubmission
	return d.Claimant, d.Respondent, d.EvidenceDeadline, open, nil
}

// SubmitEvidence records a single evidence item against the dispute.
func (e *Engine) SubmitEvidence(id uint64, submitter [20]byte, contentRef string, typeTag uint8) (*evidence.Item, error) {
	items, err := e.SubmitEvidenceBatch(id, submitter, []string{contentRef}, []uint8{typeTag})
	if err != nil {
		return nil, err
	}
	return &items[0], nil
}

// SubmitEvidenceBatch records several evidence items atomically; any
// rejection drops the whole batch.
func (e *Engine) SubmitEvidenceBatch(id uint64, submitter [20]byte, contentRefs []string, typeTags []uint8) ([]evidence.Item, error) {
	if e == nil || e.evidence == nil {
		return nil, ErrNilState
	}
	items, err := e.evidence.SubmitBatch(id, submitter, contentRefs, typeTags, e.now())
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		e.emit(events.EvidenceSubmitted{
			DisputeID:   item.DisputeID,
			Submitter:   item.Submitter,
			ContentRef:  item.ContentRef,
			TypeTag:     item.TypeTag,
			SubmittedAt: item.SubmittedAt,
		})
	}
	return items, nil
}

// RequestVerdict escalates the dispute to the oracle network. Either party
// may escalate once the evidence deadline has passed, or earlier once two
// evidence items exist. When a previous oracle round terminated without a
// verdict (failed or expired) the dispute remains in AwaitingVerdict and a
// fresh request may be opened through the same call.
func (e *Engine) RequestVerdict(id uint64, caller [20]byte) ([32]byte, error) {
	if e == nil || e.oracle == nil {
		return [32]byte{}, ErrNilState
	}
	d, err := e.loadDispute(id)
	if err != nil {
		return [32]byte{}, err
	}
	if !d.IsParty(caller) {
		return [32]byte{}, ErrNotAParty
	}
	now := e.now()
	switch d.Status {
	case StatusEvidenceSubmission:
		if now < d.EvidenceDeadline {
			count, err := e.evidence.Count(id)
			if err != nil {
				return [32]byte{}, err
			}
			if count < minEvidenceForEarlyExit {
				return [32]byte{}, fmt.Errorf("%w: evidence window open and only %d item(s) recorded", ErrVerdictNotRequestable, count)
			}
		}
	case StatusAwaitingVerdict:
		// Re-request after a failed or expired oracle round; the bridge
		// rejects this while a request is still pending.
	default:
		return [32]byte{}, fmt.Errorf("%w: status %s", ErrVerdictNotRequestable, d.Status)
	}
	requestID, err := e.oracle.CreateRequest(id, now)
	if err != nil {
		return [32]byte{}, err
	}
	if d.Status != StatusAwaitingVerdict {
		d.Status = StatusAwaitingVerdict
		if err := e.storeDispute(d); err != nil {
			return [32]byte{}, err
		}
	}
	e.emit(events.VerdictRequested{DisputeID: d.ID, RequestID: requestID, Requester: caller})
	return requestID, nil
}

// ApplyVerdict records the oracle resolution and opens the appeal window. It
// is invoked by the oracle bridge after relayer authorization and request
// staleness checks; the engine still guards the dispute's own state.
func (e *Engine) ApplyVerdict(id uint64, requestID [32]byte, resolution Resolution, confidence uint8, reasoningRef string) error {
	d, err := e.loadDispute(id)
	if err != nil {
		return err
	}
	if d.Status != StatusAwaitingVerdict {
		return fmt.Errorf("%w: status %s", ErrVerdictNotDeliverable, d.Status)
	}
	if !resolution.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidResolution, resolution)
	}
	now := e.now()
	d.Resolution = resolution
	d.Confidence = confidence
	d.ReasoningRef = reasoningRef
	d.VerdictAt = now
	d.AppealDeadline = now + e.appealWindow
	d.Status = StatusVerdictDelivered
	if err := e.storeDispute(d); err != nil {
		return err
	}
	e.emit(events.VerdictReceived{
		DisputeID:      d.ID,
		RequestID:      requestID,
		Resolution:     uint8(resolution),
		Confidence:     confidence,
		ReasoningRef:   reasoningRef,
		AppealDeadline: d.AppealDeadline,
	})
	return nil
}

// Appeal escrows the appellant's appeal stake and extends custody until the
// appeal window lapses. Exactly one appeal is permitted per dispute.
func (e *Engine) Appeal(id uint64, caller [20]byte, tendered *big.Int) error {
	d, err := e.loadDispute(id)
	if err != nil {
		return err
	}
	switch d.Status {
	case StatusVerdictDelivered:
	case StatusAppealPeriod:
		return ErrAlreadyAppealed
	default:
		return fmt.Errorf("%w: status %s", ErrNotAppealable, d.Status)
	}
	if !d.IsParty(caller) {
		return ErrNotAParty
	}
	if d.Appealed {
		return ErrAlreadyAppealed
	}
	now := e.now()
	if now > d.AppealDeadline {
		return fmt.Errorf("%w: deadline %d, now %d", ErrAppealWindowClosed, d.AppealDeadline, now)
	}
	amt := cloneBigInt(tendered)
	min := MinAppealStake(d.TotalPool())
	if amt.Cmp(min) < 0 {
		return fmt.Errorf("%w: required at least %s, given %s", ErrAppealStakeTooLow, min.String(), amt.String())
	}
	if err := e.ledger.Deposit(id, caller, d.Token, amt); err != nil {
		return err
	}
	d.Appealed = true
	d.Appellant = caller
	d.AppealStake = amt
	d.Status = StatusAppealPeriod
	if err := e.storeDispute(d); err != nil {
		return err
	}
	e.emit(events.DisputeAppealed{DisputeID: d.ID, Appellant: caller, AppealStake: new(big.Int).Set(amt)})
	return nil
}

// Finalize executes the payout plan once the appeal window has lapsed. The
// call is permissionless; the single universal guard is the appeal deadline,
// whether or not an appeal was lodged.
func (e *Engine) Finalize(id uint64) error {
	d, err := e.loadDispute(id)
	if err != nil {
		return err
	}
	if d.Status != StatusVerdictDelivered && d.Status != StatusAppealPeriod {
		return fmt.Errorf("%w: status %s", ErrNotFinalizable, d.Status)
	}
	now := e.now()
	if now <= d.AppealDeadline {
		return fmt.Errorf("%w: deadline %d, now %d", ErrAppealWindowActive, d.AppealDeadline, now)
	}
	if err := e.ensureTreasuryConfigured(); err != nil {
		return err
	}
	asset, err := e.registry.Get(d.Token)
	if err != nil {
		return err
	}
	payouts, err := computePayouts(d, asset.FeeBps)
	if err != nil {
		return err
	}
	plan, err := payouts.plan(d, e.treasury)
	if err != nil {
		return err
	}
	if err := e.ledger.ExecutePlan(id, d.Token, plan); err != nil {
		return err
	}
	d.Status = StatusResolved
	if err := e.storeDispute(d); err != nil {
		return err
	}
	e.emit(events.DisputeResolved{
		DisputeID:        d.ID,
		Resolution:       uint8(d.Resolution),
		ClaimantPayout:   new(big.Int).Set(payouts.Claimant),
		RespondentPayout: new(big.Int).Set(payouts.Respondent),
		PlatformFee:      new(big.Int).Set(payouts.PlatformFee),
		AppealStake:      new(big.Int).Set(payouts.AppealStake),
	})
	return nil
}

// Get fetches the dispute by id.
func (e *Engine) Get(id uint64) (*Dispute, error) {
	d, err := e.loadDispute(id)
	if err != nil {
		return nil, err
	}
	return d.Clone(), nil
}

// EvidenceFor lists the evidence recorded against the dispute.
func (e *Engine) EvidenceFor(id uint64) ([]evidence.Item, error) {
	if e == nil || e.evidence == nil {
		return nil, ErrNilState
	}
	if _, err := e.loadDispute(id); err != nil {
		return nil, err
	}
	return e.evidence.List(id)
}

// Verdict describes the delivered resolution for read callers.
type Verdict struct {
	Resolution   Resolution
	Confidence   uint8
	ReasoningRef string
	DeliveredAt  int64
}

// VerdictFor returns the delivered verdict, or ok=false when none has landed.
func (e *Engine) VerdictFor(id uint64) (*Verdict, bool, error) {
	d, err := e.loadDispute(id)
	if err != nil {
		return nil, false, err
	}
	if d.Resolution == ResolutionNone {
		return nil, false, nil
	}
	return &Verdict{
		Resolution:   d.Resolution,
		Confidence:   d.Confidence,
		ReasoningRef: d.ReasoningRef,
		DeliveredAt:  d.VerdictAt,
	}, true, nil
}

// ByParty lists dispute ids in which the address is claimant or respondent.
func (e *Engine) ByParty(addr [20]byte) ([]uint64, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	return e.state.DisputesByParty(addr)
}

func cloneBigInt(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}
