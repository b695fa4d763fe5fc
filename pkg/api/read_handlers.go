package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/dropforge/dropforge/pkg/allowlist"
)

// HandleCollectionList handles the /collections/list endpoint. With a
// creator query parameter it narrows to that creator's instances.
func (s *Server) HandleCollectionList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteMethodNotAllowed(w)
		return
	}

	var ids []string
	if creator := r.URL.Query().Get("creator"); creator != "" {
		ids = s.factory.InstancesBy(creator)
	} else {
		ids = s.factory.List()
	}
	writeJSON(w, http.StatusOK, map[string]any{"instances": ids})
}

// HandleCollectionInfo handles the /collections/info endpoint.
func (s *Server) HandleCollectionInfo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteMethodNotAllowed(w)
		return
	}

	id := r.URL.Query().Get("id")
	if id == "" {
		WriteBadRequest(w, "Missing required parameter: id")
		return
	}
	eng, err := s.factory.Get(id)
	if err != nil {
		WriteFault(w, r, err)
		return
	}

	royaltyReceiver, royaltyBps := eng.RoyaltyInfo()
	writeJSON(w, http.StatusOK, map[string]any{
		"instance_id":      eng.ID(),
		"owner":            eng.Owner(),
		"supply":           eng.SupplyInfo(),
		"public":           eng.PublicMintInfo(),
		"phases":           eng.Phases(),
		"fees":             eng.Fees(),
		"paused":           eng.Paused(),
		"held":             eng.Held(),
		"royalty_receiver": royaltyReceiver,
		"royalty_bps":      royaltyBps,
	})
}

// HandleProof handles the /collections/proof endpoint: it serves the Merkle
// proof a wallet needs for a presale mint.
func (s *Server) HandleProof(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteMethodNotAllowed(w)
		return
	}

	q := r.URL.Query()
	id := q.Get("id")
	address := q.Get("address")
	phaseID, err := strconv.Atoi(q.Get("phase"))
	if id == "" || address == "" || err != nil {
		WriteBadRequest(w, "Missing or invalid parameters: id, phase, address")
		return
	}

	proof, err := s.factory.Proof(id, phaseID, address)
	if errors.Is(err, allowlist.ErrNotMember) {
		WriteNotFound(w, "Address not in allow list")
		return
	}
	if err != nil {
		WriteFault(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"instance_id": id,
		"phase_id":    phaseID,
		"address":     address,
		"proof":       proof,
	})
}

// HandlePurchases handles the /purchases endpoint.
func (s *Server) HandlePurchases(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteMethodNotAllowed(w)
		return
	}
	if s.purchases == nil {
		WriteNotFound(w, "Purchase history not enabled")
		return
	}

	q := r.URL.Query()
	id := q.Get("id")
	if id == "" {
		WriteBadRequest(w, "Missing required parameter: id")
		return
	}

	if recipient := q.Get("recipient"); recipient != "" {
		purchases, err := s.purchases.ByRecipient(r.Context(), id, recipient)
		if err != nil {
			WriteInternal(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"purchases": purchases})
		return
	}

	limit, _ := strconv.Atoi(q.Get("limit"))
	purchases, err := s.purchases.List(r.Context(), id, limit)
	if err != nil {
		WriteInternal(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"purchases": purchases})
}
