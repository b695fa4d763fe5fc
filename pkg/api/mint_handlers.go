package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/dropforge/dropforge/pkg/engine"
	"github.com/dropforge/dropforge/pkg/factory"
	"github.com/dropforge/dropforge/pkg/finance"
	"github.com/dropforge/dropforge/pkg/observability"
	"github.com/dropforge/dropforge/pkg/store"
)

const maxBodyBytes = 1 << 20 // 1MB limit

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// HandleCreate handles the /collections/create endpoint.
func (s *Server) HandleCreate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteMethodNotAllowed(w)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		WriteBadRequest(w, "Invalid request body")
		return
	}

	params, err := factory.DecodeCreateParams(raw)
	if err != nil {
		WriteBadRequest(w, err.Error())
		return
	}

	eng, err := s.factory.Create(params)
	if err != nil {
		WriteFault(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"instance_id": eng.ID(),
		"owner":       eng.Owner(),
		"supply":      eng.SupplyInfo(),
		"public":      eng.PublicMintInfo(),
		"phases":      eng.Phases(),
	})
}

// MintRequest is the wire form of a mint call.
type MintRequest struct {
	InstanceID   string   `json:"instance_id"`
	PhaseID      int      `json:"phase_id,omitempty"`
	Caller       string   `json:"caller"`
	Recipient    string   `json:"recipient,omitempty"`
	Amount       int64    `json:"amount"`
	PaymentMinor int64    `json:"payment_minor"`
	Proof        []string `json:"proof,omitempty"`
}

// HandleMintPublic handles the /mint/public endpoint.
func (s *Server) HandleMintPublic(w http.ResponseWriter, r *http.Request) {
	s.handleMint(w, r, false)
}

// HandleMintPresale handles the /mint/presale endpoint. The caller must
// attach the Merkle proof served by /collections/proof.
func (s *Server) HandleMintPresale(w http.ResponseWriter, r *http.Request) {
	s.handleMint(w, r, true)
}

func (s *Server) handleMint(w http.ResponseWriter, r *http.Request, presale bool) {
	if r.Method != http.MethodPost {
		WriteMethodNotAllowed(w)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req MintRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, "Invalid request body")
		return
	}
	if req.InstanceID == "" || req.Caller == "" {
		WriteBadRequest(w, "Missing required fields: instance_id, caller")
		return
	}

	eng, err := s.factory.Get(req.InstanceID)
	if err != nil {
		WriteFault(w, r, err)
		return
	}

	recipient := req.Recipient
	if recipient == "" {
		recipient = req.Caller
	}
	mintReq := engine.Request{
		Caller:    req.Caller,
		PhaseID:   req.PhaseID,
		Amount:    req.Amount,
		Recipient: recipient,
		Payment:   finance.NewMoney(req.PaymentMinor, eng.Fees().Currency),
	}

	ctx := r.Context()
	var finish func(error)
	if s.obs != nil {
		spanName := "mint.public"
		if presale {
			spanName = "mint.presale"
		}
		ctx, finish = s.obs.TrackMint(ctx, spanName, req.Amount,
			observability.MintOperation(req.InstanceID, req.PhaseID, string(engine.KindPurchase), req.Amount)...)
	}

	var rcpt *engine.Receipt
	if presale {
		rcpt, err = eng.WhitelistMint(ctx, mintReq, req.Proof)
	} else {
		rcpt, err = eng.MintPublic(ctx, mintReq)
	}
	if finish != nil {
		finish(err)
	}
	if err != nil {
		WriteFault(w, r, err)
		return
	}

	s.recordReceipt(ctx, rcpt)
	writeJSON(w, http.StatusOK, rcpt)
}

// recordReceipt persists a settled issuance. Persistence failures are
// logged, not surfaced: the mint itself has already settled.
func (s *Server) recordReceipt(ctx context.Context, rcpt *engine.Receipt) {
	if s.purchases == nil {
		return
	}
	err := s.purchases.Record(ctx, store.Purchase{
		ID:            uuid.NewString(),
		InstanceID:    rcpt.InstanceID,
		PhaseID:       rcpt.PhaseID,
		Recipient:     rcpt.Recipient,
		FirstUnitID:   rcpt.FirstID,
		Amount:        rcpt.Amount,
		RequiredMinor: rcpt.Quote.Required.AmountMinor,
		PlatformMinor: rcpt.Quote.PlatformShare.AmountMinor,
		CreatorMinor:  rcpt.Quote.CreatorShare.AmountMinor,
		Currency:      rcpt.Quote.Required.Currency,
		Kind:          string(rcpt.Kind),
		At:            rcpt.At,
	})
	if err != nil {
		s.logger.Error("failed to record purchase",
			"instance_id", rcpt.InstanceID,
			"recipient", rcpt.Recipient,
			"error", err,
		)
	}
	if s.obs != nil {
		s.obs.RecordSettled(ctx, rcpt.Quote.Required.AmountMinor,
			observability.SettlementOperation(rcpt.InstanceID,
				rcpt.Quote.Required.AmountMinor,
				rcpt.Quote.PlatformShare.AmountMinor,
				rcpt.Quote.CreatorShare.AmountMinor)...)
	}
}
