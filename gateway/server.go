package gateway

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"arbchain/core/types"
	"arbchain/native/assets"
	nativecommon "arbchain/native/common"
	"arbchain/native/dispute"
	"arbchain/native/escrow"
	"arbchain/native/evidence"
	"arbchain/native/oracle"
	"arbchain/state"
)

const maxRequestBody = 1 << 20 // 1 MiB

// Server exposes the dispute core's write and read operations over HTTP. A
// single mutex serializes all state-changing operations so each transition is
// atomic and totally ordered, matching the core's execution model.
type Server struct {
	engine   *dispute.Engine
	bridge   *oracle.Bridge
	registry *assets.Registry
	st       *state.Manager
	auth     *Authenticator
	log      *slog.Logger
	limiter  *rate.Limiter

	writeMu sync.Mutex
}

// NewServer wires the HTTP surface over the supplied engines.
func NewServer(engine *dispute.Engine, bridge *oracle.Bridge, registry *assets.Registry, st *state.Manager, auth *Authenticator, log *slog.Logger, limiter *rate.Limiter) *Server {
	if log == nil {
		log = slog.Default()
	}
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 0)
	}
	return &Server{
		engine:   engine,
		bridge:   bridge,
		registry: registry,
		st:       st,
		auth:     auth,
		log:      log,
		limiter:  limiter,
	}
}

// Router builds the chi route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/disputes", s.handleCreate)
		r.Post("/disputes/{id}/accept", s.handleAccept)
		r.Post("/disputes/{id}/cancel", s.handleCancel)
		r.Post("/disputes/{id}/evidence", s.handleSubmitEvidence)
		r.Post("/disputes/{id}/verdict-request", s.handleRequestVerdict)
		r.Post("/disputes/{id}/appeal", s.handleAppeal)
		r.Post("/disputes/{id}/finalize", s.handleFinalize)

		r.Post("/oracle/requests/{requestId}/deliver", s.handleDeliver)
		r.Post("/oracle/requests/{requestId}/fail", s.handleFailRequest)
		r.Post("/oracle/requests/{requestId}/expire", s.handleExpireRequest)

		r.Get("/disputes/{id}", s.handleGetDispute)
		r.Get("/disputes/{id}/evidence", s.handleGetEvidence)
		r.Get("/disputes/{id}/verdict", s.handleGetVerdict)
		r.Get("/parties/{address}/disputes", s.handleGetByParty)

		r.Post("/admin/assets", s.handleAdminAsset)
		r.Post("/admin/roles", s.handleAdminRole)
		r.Post("/admin/pause", s.handleAdminPause)
		r.Post("/admin/treasury", s.handleAdminTreasury)
	})
	return r
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	status, code := classify(err)
	writeJSON(w, status, map[string]errorBody{"error": {Code: code, Message: err.Error()}})
}

// classify maps the core's sentinel errors onto HTTP statuses and stable
// machine-readable codes so callers can assert on the specific violated
// guard.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, dispute.ErrAmountOutOfBounds):
		return http.StatusBadRequest, "amount_out_of_bounds"
	case errors.Is(err, dispute.ErrInvalidRespondent):
		return http.StatusBadRequest, "invalid_respondent"
	case errors.Is(err, dispute.ErrStakeMismatch):
		return http.StatusBadRequest, "stake_mismatch"
	case errors.Is(err, dispute.ErrAppealStakeTooLow):
		return http.StatusBadRequest, "appeal_stake_too_low"
	case errors.Is(err, dispute.ErrInvalidResolution):
		return http.StatusBadRequest, "invalid_resolution"
	case errors.Is(err, oracle.ErrConfidenceOutOfRange):
		return http.StatusBadRequest, "confidence_out_of_range"
	case errors.Is(err, evidence.ErrInvalidContent):
		return http.StatusBadRequest, "invalid_content"
	case errors.Is(err, evidence.ErrDuplicateContent):
		return http.StatusBadRequest, "duplicate_content"
	case errors.Is(err, evidence.ErrCapacityExceeded):
		return http.StatusBadRequest, "capacity_exceeded"
	case errors.Is(err, assets.ErrInvalidAsset):
		return http.StatusBadRequest, "invalid_asset"
	case errors.Is(err, assets.ErrUnsupportedToken):
		return http.StatusBadRequest, "unsupported_token"
	case errors.Is(err, escrow.ErrInsufficientFunds):
		return http.StatusBadRequest, "insufficient_funds"

	case errors.Is(err, dispute.ErrNotClaimant):
		return http.StatusForbidden, "not_claimant"
	case errors.Is(err, dispute.ErrNotRespondent):
		return http.StatusForbidden, "not_respondent"
	case errors.Is(err, dispute.ErrNotAParty):
		return http.StatusForbidden, "not_a_party"
	case errors.Is(err, evidence.ErrNotAParty):
		return http.StatusForbidden, "not_a_party"
	case errors.Is(err, oracle.ErrUnauthorized):
		return http.StatusForbidden, "unauthorized_relayer"
	case errors.Is(err, assets.ErrUnauthorized):
		return http.StatusForbidden, "unauthorized_admin"

	case errors.Is(err, dispute.ErrDisputeNotFound):
		return http.StatusNotFound, "dispute_not_found"
	case errors.Is(err, evidence.ErrDisputeNotFound):
		return http.StatusNotFound, "dispute_not_found"
	case errors.Is(err, oracle.ErrRequestNotFound):
		return http.StatusNotFound, "request_not_found"

	case errors.Is(err, dispute.ErrNotAcceptable):
		return http.StatusConflict, "not_acceptable"
	case errors.Is(err, dispute.ErrNotCancellable):
		return http.StatusConflict, "not_cancellable"
	case errors.Is(err, dispute.ErrVerdictNotRequestable):
		return http.StatusConflict, "verdict_not_requestable"
	case errors.Is(err, dispute.ErrVerdictNotDeliverable):
		return http.StatusConflict, "verdict_not_deliverable"
	case errors.Is(err, dispute.ErrNotAppealable):
		return http.StatusConflict, "not_appealable"
	case errors.Is(err, dispute.ErrAlreadyAppealed):
		return http.StatusConflict, "already_appealed"
	case errors.Is(err, dispute.ErrNotFinalizable):
		return http.StatusConflict, "not_finalizable"
	case errors.Is(err, oracle.ErrRequestAlreadyTerminal):
		return http.StatusConflict, "request_already_terminal"
	case errors.Is(err, oracle.ErrRequestPending):
		return http.StatusConflict, "request_pending"

	case errors.Is(err, evidence.ErrWindowClosed):
		return http.StatusConflict, "evidence_window_closed"
	case errors.Is(err, dispute.ErrAppealWindowClosed):
		return http.StatusConflict, "appeal_window_closed"
	case errors.Is(err, dispute.ErrAppealWindowActive):
		return http.StatusConflict, "appeal_window_active"
	case errors.Is(err, oracle.ErrRequestExpired):
		return http.StatusConflict, "request_expired"
	case errors.Is(err, oracle.ErrRequestNotExpired):
		return http.StatusConflict, "request_not_expired"

	case errors.Is(err, nativecommon.ErrModulePaused):
		return http.StatusServiceUnavailable, "module_paused"

	case errors.Is(err, escrow.ErrLedgerUnderflow):
		return http.StatusInternalServerError, "ledger_underflow"
	case errors.Is(err, escrow.ErrPlanMismatch):
		return http.StatusInternalServerError, "payout_plan_mismatch"
	}
	return http.StatusInternalServerError, "internal"
}

// authenticate reads the body and verifies the caller's HMAC credentials.
func (s *Server) authenticate(w http.ResponseWriter, r *http.Request) (*Principal, []byte, bool) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]errorBody{"error": {Code: "bad_body", Message: err.Error()}})
		return nil, nil, false
	}
	principal, err := s.auth.Authenticate(r, body)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]errorBody{"error": {Code: "unauthenticated", Message: err.Error()}})
		return nil, nil, false
	}
	return principal, body, true
}

func (s *Server) allowWrite(w http.ResponseWriter) bool {
	if s.limiter.Allow() {
		return true
	}
	writeJSON(w, http.StatusTooManyRequests, map[string]errorBody{"error": {Code: "rate_limited", Message: "too many write operations"}})
	return false
}

func parseID(r *http.Request) (uint64, error) {
	return strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
}

func parseRequestID(r *http.Request) ([32]byte, error) {
	var id [32]byte
	raw, err := hex.DecodeString(strings.TrimPrefix(chi.URLParam(r, "requestId"), "0x"))
	if err != nil || len(raw) != len(id) {
		return id, errors.New("gateway: invalid request id")
	}
	copy(id[:], raw)
	return id, nil
}

func parseAmount(s string) (*big.Int, error) {
	amount, ok := new(big.Int).SetString(strings.TrimSpace(s), 10)
	if !ok || amount.Sign() < 0 {
		return nil, errors.New("gateway: invalid amount")
	}
	return amount, nil
}

type disputeView struct {
	ID               uint64 `json:"id"`
	Claimant         string `json:"claimant"`
	Respondent       string `json:"respondent"`
	Token            string `json:"token"`
	StakeAmount      string `json:"stakeAmount"`
	Category         uint8  `json:"category"`
	DescriptionRef   string `json:"descriptionRef"`
	CreatedAt        int64  `json:"createdAt"`
	EvidenceDeadline int64  `json:"evidenceDeadline"`
	AppealDeadline   int64  `json:"appealDeadline,omitempty"`
	Status           string `json:"status"`
	Resolution       string `json:"resolution"`
	Confidence       uint8  `json:"confidence"`
	Appealed         bool   `json:"appealed"`
	AppealStake      string `json:"appealStake"`
}

func renderDispute(d *dispute.Dispute) disputeView {
	return disputeView{
		ID:               d.ID,
		Claimant:         types.FormatAddress(d.Claimant),
		Respondent:       types.FormatAddress(d.Respondent),
		Token:            d.Token,
		StakeAmount:      d.StakeAmount.String(),
		Category:         d.Category,
		DescriptionRef:   d.DescriptionRef,
		CreatedAt:        d.CreatedAt,
		EvidenceDeadline: d.EvidenceDeadline,
		AppealDeadline:   d.AppealDeadline,
		Status:           d.Status.String(),
		Resolution:       d.Resolution.String(),
		Confidence:       d.Confidence,
		Appealed:         d.Appealed,
		AppealStake:      d.AppealStake.String(),
	}
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	principal, body, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	if !s.allowWrite(w) {
		return
	}
	var req struct {
		Respondent     string `json:"respondent"`
		Token          string `json:"token"`
		Amount         string `json:"amount"`
		Category       uint8  `json:"category"`
		DescriptionRef string `json:"descriptionRef"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]errorBody{"error": {Code: "bad_body", Message: err.Error()}})
		return
	}
	respondent, err := types.ParseAddress(req.Respondent)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]errorBody{"error": {Code: "invalid_respondent", Message: err.Error()}})
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]errorBody{"error": {Code: "invalid_amount", Message: err.Error()}})
		return
	}
	s.writeMu.Lock()
	d, err := s.engine.Create(principal.Identity, respondent, req.Token, amount, req.Category, req.DescriptionRef)
	s.writeMu.Unlock()
	recordOperation("create_dispute", err)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, renderDispute(d))
}

func (s *Server) handleAccept(w http.ResponseWriter, r *http.Request) {
	principal, body, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	if !s.allowWrite(w) {
		return
	}
	id, err := parseID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]errorBody{"error": {Code: "invalid_id", Message: err.Error()}})
		return
	}
	var req struct {
		Amount string `json:"amount"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]errorBody{"error": {Code: "bad_body", Message: err.Error()}})
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]errorBody{"error": {Code: "invalid_amount", Message: err.Error()}})
		return
	}
	s.writeMu.Lock()
	err = s.engine.Accept(id, principal.Identity, amount)
	s.writeMu.Unlock()
	recordOperation("accept_dispute", err)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "accepted"})
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	principal, _, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	id, err := parseID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]errorBody{"error": {Code: "invalid_id", Message: err.Error()}})
		return
	}
	s.writeMu.Lock()
	err = s.engine.Cancel(id, principal.Identity)
	s.writeMu.Unlock()
	recordOperation("cancel_dispute", err)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

func (s *Server) handleSubmitEvidence(w http.ResponseWriter, r *http.Request) {
	principal, body, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	if !s.allowWrite(w) {
		return
	}
	id, err := parseID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]errorBody{"error": {Code: "invalid_id", Message: err.Error()}})
		return
	}
	var req struct {
		Items []struct {
			ContentRef string `json:"contentRef"`
			TypeTag    uint8  `json:"typeTag"`
		} `json:"items"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]errorBody{"error": {Code: "bad_body", Message: err.Error()}})
		return
	}
	refs := make([]string, 0, len(req.Items))
	tags := make([]uint8, 0, len(req.Items))
	for _, item := range req.Items {
		refs = append(refs, item.ContentRef)
		tags = append(tags, item.TypeTag)
	}
	s.writeMu.Lock()
	items, err := s.engine.SubmitEvidenceBatch(id, principal.Identity, refs, tags)
	s.writeMu.Unlock()
	recordOperation("submit_evidence", err)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int{"accepted": len(items)})
}

func (s *Server) handleRequestVerdict(w http.ResponseWriter, r *http.Request) {
	principal, _, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	id, err := parseID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]errorBody{"error": {Code: "invalid_id", Message: err.Error()}})
		return
	}
	s.writeMu.Lock()
	requestID, err := s.engine.RequestVerdict(id, principal.Identity)
	s.writeMu.Unlock()
	recordOperation("request_verdict", err)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"requestId": "0x" + hex.EncodeToString(requestID[:])})
}

func (s *Server) handleAppeal(w http.ResponseWriter, r *http.Request) {
	principal, body, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	if !s.allowWrite(w) {
		return
	}
	id, err := parseID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]errorBody{"error": {Code: "invalid_id", Message: err.Error()}})
		return
	}
	var req struct {
		Amount string `json:"amount"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]errorBody{"error": {Code: "bad_body", Message: err.Error()}})
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]errorBody{"error": {Code: "invalid_amount", Message: err.Error()}})
		return
	}
	s.writeMu.Lock()
	err = s.engine.Appeal(id, principal.Identity, amount)
	s.writeMu.Unlock()
	recordOperation("appeal_dispute", err)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "appealed"})
}

func (s *Server) handleFinalize(w http.ResponseWriter, r *http.Request) {
	if _, _, ok := s.authenticate(w, r); !ok {
		return
	}
	id, err := parseID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]errorBody{"error": {Code: "invalid_id", Message: err.Error()}})
		return
	}
	s.writeMu.Lock()
	err = s.engine.Finalize(id)
	s.writeMu.Unlock()
	recordOperation("finalize_dispute", err)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "resolved"})
}

func (s *Server) handleDeliver(w http.ResponseWriter, r *http.Request) {
	principal, body, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	requestID, err := parseRequestID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]errorBody{"error": {Code: "invalid_request_id", Message: err.Error()}})
		return
	}
	var req struct {
		Resolution   string `json:"resolution"`
		Confidence   uint8  `json:"confidence"`
		ReasoningRef string `json:"reasoningRef"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]errorBody{"error": {Code: "bad_body", Message: err.Error()}})
		return
	}
	resolution, err := dispute.ParseResolution(req.Resolution)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]errorBody{"error": {Code: "invalid_resolution", Message: err.Error()}})
		return
	}
	s.writeMu.Lock()
	err = s.bridge.Deliver(requestID, principal.Identity, resolution, req.Confidence, req.ReasoningRef)
	s.writeMu.Unlock()
	recordOperation("deliver_verdict", err)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "fulfilled"})
}

func (s *Server) handleFailRequest(w http.ResponseWriter, r *http.Request) {
	principal, _, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	requestID, err := parseRequestID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]errorBody{"error": {Code: "invalid_request_id", Message: err.Error()}})
		return
	}
	s.writeMu.Lock()
	err = s.bridge.Fail(requestID, principal.Identity)
	s.writeMu.Unlock()
	recordOperation("fail_request", err)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "failed"})
}

func (s *Server) handleExpireRequest(w http.ResponseWriter, r *http.Request) {
	if _, _, ok := s.authenticate(w, r); !ok {
		return
	}
	requestID, err := parseRequestID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]errorBody{"error": {Code: "invalid_request_id", Message: err.Error()}})
		return
	}
	s.writeMu.Lock()
	err = s.bridge.Expire(requestID)
	s.writeMu.Unlock()
	recordOperation("expire_request", err)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "expired"})
}

func (s *Server) handleGetDispute(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]errorBody{"error": {Code: "invalid_id", Message: err.Error()}})
		return
	}
	d, err := s.engine.Get(id)
	recordOperation("get_dispute", err)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, renderDispute(d))
}

func (s *Server) handleGetEvidence(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]errorBody{"error": {Code: "invalid_id", Message: err.Error()}})
		return
	}
	items, err := s.engine.EvidenceFor(id)
	recordOperation("get_evidence", err)
	if err != nil {
		writeError(w, err)
		return
	}
	type itemView struct {
		Submitter   string `json:"submitter"`
		ContentRef  string `json:"contentRef"`
		TypeTag     uint8  `json:"typeTag"`
		SubmittedAt int64  `json:"submittedAt"`
	}
	views := make([]itemView, 0, len(items))
	for _, item := range items {
		views = append(views, itemView{
			Submitter:   types.FormatAddress(item.Submitter),
			ContentRef:  item.ContentRef,
			TypeTag:     item.TypeTag,
			SubmittedAt: item.SubmittedAt,
		})
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleGetVerdict(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]errorBody{"error": {Code: "invalid_id", Message: err.Error()}})
		return
	}
	verdict, delivered, err := s.engine.VerdictFor(id)
	recordOperation("get_verdict", err)
	if err != nil {
		writeError(w, err)
		return
	}
	if !delivered {
		writeJSON(w, http.StatusNotFound, map[string]errorBody{"error": {Code: "no_verdict", Message: "no verdict delivered"}})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"resolution":   verdict.Resolution.String(),
		"confidence":   verdict.Confidence,
		"reasoningRef": verdict.ReasoningRef,
		"deliveredAt":  verdict.DeliveredAt,
	})
}

func (s *Server) handleGetByParty(w http.ResponseWriter, r *http.Request) {
	addr, err := types.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]errorBody{"error": {Code: "invalid_address", Message: err.Error()}})
		return
	}
	ids, err := s.engine.ByParty(addr)
	recordOperation("get_by_party", err)
	if err != nil {
		writeError(w, err)
		return
	}
	if ids == nil {
		ids = []uint64{}
	}
	writeJSON(w, http.StatusOK, map[string][]uint64{"disputes": ids})
}

func (s *Server) handleAdminAsset(w http.ResponseWriter, r *http.Request) {
	principal, body, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	var req struct {
		Symbol   string `json:"symbol"`
		Decimals uint8  `json:"decimals"`
		FeeBps   uint32 `json:"feeBps"`
		MinStake string `json:"minStake"`
		MaxStake string `json:"maxStake"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]errorBody{"error": {Code: "bad_body", Message: err.Error()}})
		return
	}
	minStake, err := parseAmount(req.MinStake)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]errorBody{"error": {Code: "invalid_amount", Message: err.Error()}})
		return
	}
	maxStake, err := parseAmount(req.MaxStake)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]errorBody{"error": {Code: "invalid_amount", Message: err.Error()}})
		return
	}
	s.writeMu.Lock()
	err = s.registry.Upsert(principal.Identity, &assets.Asset{
		Symbol:   req.Symbol,
		Decimals: req.Decimals,
		FeeBps:   req.FeeBps,
		MinStake: minStake,
		MaxStake: maxStake,
	})
	s.writeMu.Unlock()
	recordOperation("admin_asset", err)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleAdminRole(w http.ResponseWriter, r *http.Request) {
	principal, body, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	if !s.st.HasRole(assets.RoleAdmin, principal.Identity[:]) {
		writeError(w, assets.ErrUnauthorized)
		return
	}
	var req struct {
		Role    string `json:"role"`
		Address string `json:"address"`
		Grant   bool   `json:"grant"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]errorBody{"error": {Code: "bad_body", Message: err.Error()}})
		return
	}
	addr, err := types.ParseAddress(req.Address)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]errorBody{"error": {Code: "invalid_address", Message: err.Error()}})
		return
	}
	s.writeMu.Lock()
	if req.Grant {
		err = s.st.GrantRole(req.Role, addr[:])
	} else {
		err = s.st.RevokeRole(req.Role, addr[:])
	}
	s.writeMu.Unlock()
	recordOperation("admin_role", err)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleAdminPause(w http.ResponseWriter, r *http.Request) {
	principal, body, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	if !s.st.HasRole(assets.RoleAdmin, principal.Identity[:]) {
		writeError(w, assets.ErrUnauthorized)
		return
	}
	var req struct {
		Module string `json:"module"`
		Paused bool   `json:"paused"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]errorBody{"error": {Code: "bad_body", Message: err.Error()}})
		return
	}
	s.writeMu.Lock()
	err := s.st.SetPaused(req.Module, req.Paused)
	s.writeMu.Unlock()
	recordOperation("admin_pause", err)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleAdminTreasury(w http.ResponseWriter, r *http.Request) {
	principal, body, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	if !s.st.HasRole(assets.RoleAdmin, principal.Identity[:]) {
		writeError(w, assets.ErrUnauthorized)
		return
	}
	var req struct {
		Address string `json:"address"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]errorBody{"error": {Code: "bad_body", Message: err.Error()}})
		return
	}
	addr, err := types.ParseAddress(req.Address)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]errorBody{"error": {Code: "bad_address", Message: err.Error()}})
		return
	}
	s.writeMu.Lock()
	s.engine.SetTreasury(addr)
	s.writeMu.Unlock()
	recordOperation("admin_treasury", nil)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
