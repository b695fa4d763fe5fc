package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/dropforge/dropforge/pkg/factory"
	"github.com/dropforge/dropforge/pkg/observability"
	"github.com/dropforge/dropforge/pkg/store"
)

// Server exposes the factory and its instances over HTTP.
type Server struct {
	factory   *factory.Factory
	purchases store.PurchaseStore
	obs       *observability.Provider
	logger    *slog.Logger
}

// NewServer wires the HTTP surface. obs may be nil.
func NewServer(f *factory.Factory, purchases store.PurchaseStore, obs *observability.Provider, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		factory:   f,
		purchases: purchases,
		obs:       obs,
		logger:    logger.With("component", "api"),
	}
}

// Routes registers all endpoints on a fresh mux. Rate limiting and
// idempotency wrap the whole mux at the caller.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", s.HandleHealth)

	mux.HandleFunc("/collections/create", s.HandleCreate)
	mux.HandleFunc("/collections/list", s.HandleCollectionList)
	mux.HandleFunc("/collections/info", s.HandleCollectionInfo)
	mux.HandleFunc("/collections/proof", s.HandleProof)
	mux.HandleFunc("/purchases", s.HandlePurchases)

	mux.HandleFunc("/mint/public", s.HandleMintPublic)
	mux.HandleFunc("/mint/presale", s.HandleMintPresale)

	mux.HandleFunc("/admin/pause", s.HandlePause)
	mux.HandleFunc("/admin/resume", s.HandleResume)
	mux.HandleFunc("/admin/reduce-supply", s.HandleReduceSupply)
	mux.HandleFunc("/admin/withdraw", s.HandleWithdraw)
	mux.HandleFunc("/admin/phase/add", s.HandlePhaseAdd)
	mux.HandleFunc("/admin/phase/edit", s.HandlePhaseEdit)
	mux.HandleFunc("/admin/phase/remove", s.HandlePhaseRemove)
	mux.HandleFunc("/admin/airdrop", s.HandleAirdrop)
	mux.HandleFunc("/admin/batch-airdrop", s.HandleBatchAirdrop)
	mux.HandleFunc("/admin/royalty", s.HandleRoyalty)
	mux.HandleFunc("/admin/unlock-trading", s.HandleUnlockTrading)
	mux.HandleFunc("/admin/transfer-ownership", s.HandleTransferOwnership)

	mux.HandleFunc("/platform/fees", s.HandlePlatformFees)

	return mux
}

// HandleHealth handles the /healthz endpoint.
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// bearerToken extracts the capability token from the Authorization header.
func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	return ""
}
