package api

import (
	"encoding/json"
	"net/http"

	"github.com/dropforge/dropforge/pkg/engine"
	"github.com/dropforge/dropforge/pkg/factory"
	"github.com/dropforge/dropforge/pkg/finance"
	"github.com/dropforge/dropforge/pkg/phase"
)

// AdminRequest carries the fields shared by all capability-gated calls.
// The capability itself travels in the Authorization header.
type AdminRequest struct {
	InstanceID string `json:"instance_id"`

	NewCap     int64          `json:"new_cap,omitempty"`
	Amount     int64          `json:"amount,omitempty"`
	PhaseID    int            `json:"phase_id,omitempty"`
	Config     phase.Config   `json:"config,omitempty"`
	Addresses  []string       `json:"addresses,omitempty"`
	To         string         `json:"to,omitempty"`
	Recipients []string       `json:"recipients,omitempty"`
	AmountEach int64          `json:"amount_each,omitempty"`
	Receiver   string         `json:"receiver,omitempty"`
	Bps        int64          `json:"bps,omitempty"`
	NewOwner   string         `json:"new_owner,omitempty"`
}

// decodeAdmin parses an admin call: POST only, JSON body, bearer capability.
func (s *Server) decodeAdmin(w http.ResponseWriter, r *http.Request) (AdminRequest, string, *engine.Engine, bool) {
	if r.Method != http.MethodPost {
		WriteMethodNotAllowed(w)
		return AdminRequest{}, "", nil, false
	}

	capability := bearerToken(r)
	if capability == "" {
		WriteForbidden(w, "Missing capability token")
		return AdminRequest{}, "", nil, false
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req AdminRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, "Invalid request body")
		return AdminRequest{}, "", nil, false
	}
	if req.InstanceID == "" {
		WriteBadRequest(w, "Missing required field: instance_id")
		return AdminRequest{}, "", nil, false
	}

	eng, err := s.factory.Get(req.InstanceID)
	if err != nil {
		WriteFault(w, r, err)
		return AdminRequest{}, "", nil, false
	}
	return req, capability, eng, true
}

// HandlePause handles the /admin/pause endpoint.
func (s *Server) HandlePause(w http.ResponseWriter, r *http.Request) {
	_, capability, eng, ok := s.decodeAdmin(w, r)
	if !ok {
		return
	}
	if err := eng.Pause(capability); err != nil {
		WriteFault(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"paused": true})
}

// HandleResume handles the /admin/resume endpoint.
func (s *Server) HandleResume(w http.ResponseWriter, r *http.Request) {
	_, capability, eng, ok := s.decodeAdmin(w, r)
	if !ok {
		return
	}
	if err := eng.Resume(capability); err != nil {
		WriteFault(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"paused": false})
}

// HandleReduceSupply handles the /admin/reduce-supply endpoint.
func (s *Server) HandleReduceSupply(w http.ResponseWriter, r *http.Request) {
	req, capability, eng, ok := s.decodeAdmin(w, r)
	if !ok {
		return
	}
	if err := eng.ReduceSupply(capability, req.NewCap); err != nil {
		WriteFault(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, eng.SupplyInfo())
}

// HandleWithdraw handles the /admin/withdraw endpoint.
func (s *Server) HandleWithdraw(w http.ResponseWriter, r *http.Request) {
	req, capability, eng, ok := s.decodeAdmin(w, r)
	if !ok {
		return
	}
	if err := eng.Withdraw(r.Context(), capability, req.Amount); err != nil {
		WriteFault(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"held": eng.Held()})
}

// HandlePhaseAdd handles the /admin/phase/add endpoint.
func (s *Server) HandlePhaseAdd(w http.ResponseWriter, r *http.Request) {
	req, capability, _, ok := s.decodeAdmin(w, r)
	if !ok {
		return
	}
	id, err := s.factory.AddPresale(capability, req.InstanceID, factory.PresaleSpec{
		Config:    req.Config,
		Addresses: req.Addresses,
	})
	if err != nil {
		WriteFault(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int{"phase_id": id})
}

// HandlePhaseEdit handles the /admin/phase/edit endpoint.
func (s *Server) HandlePhaseEdit(w http.ResponseWriter, r *http.Request) {
	req, capability, eng, ok := s.decodeAdmin(w, r)
	if !ok {
		return
	}
	err := s.factory.EditPresale(capability, req.InstanceID, req.PhaseID, factory.PresaleSpec{
		Config:    req.Config,
		Addresses: req.Addresses,
	})
	if err != nil {
		WriteFault(w, r, err)
		return
	}
	p, err := eng.PhaseInfo(req.PhaseID)
	if err != nil {
		WriteFault(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// HandlePhaseRemove handles the /admin/phase/remove endpoint.
func (s *Server) HandlePhaseRemove(w http.ResponseWriter, r *http.Request) {
	req, capability, _, ok := s.decodeAdmin(w, r)
	if !ok {
		return
	}
	if err := s.factory.RemovePresale(capability, req.InstanceID, req.PhaseID); err != nil {
		WriteFault(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"removed": req.PhaseID})
}

// HandleAirdrop handles the /admin/airdrop endpoint.
func (s *Server) HandleAirdrop(w http.ResponseWriter, r *http.Request) {
	req, capability, eng, ok := s.decodeAdmin(w, r)
	if !ok {
		return
	}
	rcpt, err := eng.Airdrop(r.Context(), capability, req.To, req.Amount)
	if err != nil {
		WriteFault(w, r, err)
		return
	}
	s.recordReceipt(r.Context(), rcpt)
	writeJSON(w, http.StatusOK, rcpt)
}

// HandleBatchAirdrop handles the /admin/batch-airdrop endpoint.
func (s *Server) HandleBatchAirdrop(w http.ResponseWriter, r *http.Request) {
	req, capability, eng, ok := s.decodeAdmin(w, r)
	if !ok {
		return
	}
	receipts, err := eng.BatchAirdrop(r.Context(), capability, req.Recipients, req.AmountEach)
	if err != nil {
		WriteFault(w, r, err)
		return
	}
	for _, rcpt := range receipts {
		s.recordReceipt(r.Context(), rcpt)
	}
	writeJSON(w, http.StatusOK, receipts)
}

// HandleRoyalty handles the /admin/royalty endpoint.
func (s *Server) HandleRoyalty(w http.ResponseWriter, r *http.Request) {
	req, capability, eng, ok := s.decodeAdmin(w, r)
	if !ok {
		return
	}
	if err := eng.SetRoyaltyInfo(capability, req.Receiver, req.Bps); err != nil {
		WriteFault(w, r, err)
		return
	}
	receiver, bps := eng.RoyaltyInfo()
	writeJSON(w, http.StatusOK, map[string]any{"receiver": receiver, "bps": bps})
}

// HandleUnlockTrading handles the /admin/unlock-trading endpoint.
func (s *Server) HandleUnlockTrading(w http.ResponseWriter, r *http.Request) {
	_, capability, eng, ok := s.decodeAdmin(w, r)
	if !ok {
		return
	}
	if err := eng.UnlockTrading(capability); err != nil {
		WriteFault(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"trading_locked": false})
}

// HandleTransferOwnership handles the /admin/transfer-ownership endpoint.
func (s *Server) HandleTransferOwnership(w http.ResponseWriter, r *http.Request) {
	req, capability, eng, ok := s.decodeAdmin(w, r)
	if !ok {
		return
	}
	if err := eng.TransferOwnership(capability, req.NewOwner); err != nil {
		WriteFault(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"owner": eng.Owner()})
}

// HandlePlatformFees handles the /platform/fees endpoint. Updated defaults
// apply to future instances only.
func (s *Server) HandlePlatformFees(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, s.factory.DefaultFees())
	case http.MethodPut, http.MethodPost:
		capability := bearerToken(r)
		if capability == "" {
			WriteForbidden(w, "Missing capability token")
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		var fees finance.FeeConfig
		if err := json.NewDecoder(r.Body).Decode(&fees); err != nil {
			WriteBadRequest(w, "Invalid request body")
			return
		}
		if err := s.factory.SetDefaultFees(capability, fees); err != nil {
			WriteFault(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, s.factory.DefaultFees())
	default:
		WriteMethodNotAllowed(w)
	}
}
