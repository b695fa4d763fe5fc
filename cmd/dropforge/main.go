// Command dropforge runs the mint service: the collection factory, its
// HTTP surface, and the purchase ledger.
package main

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/dropforge/dropforge/pkg/access"
	"github.com/dropforge/dropforge/pkg/api"
	"github.com/dropforge/dropforge/pkg/bank"
	"github.com/dropforge/dropforge/pkg/config"
	"github.com/dropforge/dropforge/pkg/events"
	"github.com/dropforge/dropforge/pkg/factory"
	"github.com/dropforge/dropforge/pkg/finance"
	"github.com/dropforge/dropforge/pkg/observability"
	"github.com/dropforge/dropforge/pkg/store"
)

func main() {
	cfg := config.Load()
	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToUpper(level) {
	case "DEBUG":
		lvl = slog.LevelDebug
	case "WARN":
		lvl = slog.LevelWarn
	case "ERROR":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Telemetry is optional; without an endpoint the provider stays off.
	obs, err := observability.New(ctx, &observability.Config{
		ServiceName:  "dropforge",
		Environment:  os.Getenv("ENVIRONMENT"),
		OTLPEndpoint: cfg.OTLPEndpoint,
		SampleRate:   1.0,
		BatchTimeout: 5 * time.Second,
		Enabled:      cfg.OTLPEndpoint != "",
		Insecure:     true,
	})
	if err != nil {
		return err
	}
	defer func() { _ = obs.Shutdown(context.Background()) }()

	purchases, idem, closeDB, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeDB()

	auth, err := newAuthority(cfg, logger)
	if err != nil {
		return err
	}

	sink := events.NewJSONSink()

	f, err := factory.New(finance.FeeConfig{
		MintFeePerUnit: envInt64("MINT_FEE_PER_UNIT", 0),
		SalesFeeBps:    envInt64("SALES_FEE_BPS", 0),
		FeeRecipient:   envOr("FEE_RECIPIENT", "platform-treasury"),
		Currency:       envOr("CURRENCY", "USD"),
	}, factory.Deps{
		Authority: auth,
		Bank:      bank.NewMemory(logger),
		Sink:      sink,
		Logger:    logger,
	})
	if err != nil {
		return err
	}

	if err := bootProfiles(cfg, f, logger); err != nil {
		return err
	}

	srv := api.NewServer(f, purchases, obs, logger)
	limiter := api.NewCallerRateLimiter(10, 20)
	handler := limiter.Middleware(api.IdempotencyMiddleware(idem)(srv.Routes()))

	httpSrv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "port", cfg.Port, "db_driver", cfg.DBDriver)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

// openStores selects the purchase and idempotency backends by driver.
func openStores(ctx context.Context, cfg *config.Config, logger *slog.Logger) (store.PurchaseStore, api.IdempotencyStorer, func(), error) {
	noop := func() {}

	switch cfg.DBDriver {
	case "postgres":
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return nil, nil, noop, err
		}
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return nil, nil, noop, err
		}
		ps, err := store.NewPostgresStore(db)
		if err != nil {
			_ = db.Close()
			return nil, nil, noop, err
		}
		idem, err := api.NewPostgresIdempotencyStore(db, time.Hour)
		if err != nil {
			_ = db.Close()
			return nil, nil, noop, err
		}
		logger.Info("postgres connected")
		return ps, idem, func() { _ = db.Close() }, nil

	case "sqlite":
		db, err := sql.Open("sqlite", cfg.DatabaseURL)
		if err != nil {
			return nil, nil, noop, err
		}
		ss, err := store.NewSQLiteStore(db)
		if err != nil {
			_ = db.Close()
			return nil, nil, noop, err
		}
		logger.Info("sqlite ready", "url", cfg.DatabaseURL)
		return ss, api.NewIdempotencyStore(time.Hour), func() { _ = db.Close() }, nil

	case "memory":
		return store.NewMemoryStore(), api.NewIdempotencyStore(time.Hour), noop, nil

	default:
		return nil, nil, noop, errors.New("unknown DB_DRIVER " + cfg.DBDriver)
	}
}

// newAuthority builds the capability signer. Without a configured key a
// random one is generated; capabilities then die with the process.
func newAuthority(cfg *config.Config, logger *slog.Logger) (*access.Authority, error) {
	key := []byte(cfg.CapabilityKey)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, err
		}
		logger.Warn("CAPABILITY_SIGNING_KEY not set, using an ephemeral key")
	}
	return access.NewAuthority(key)
}

// bootProfiles instantiates any collection profiles found on disk.
func bootProfiles(cfg *config.Config, f *factory.Factory, logger *slog.Logger) error {
	if _, err := os.Stat(cfg.ProfilesDir); err != nil {
		return nil
	}
	profiles, err := config.LoadAllProfiles(cfg.ProfilesDir)
	if err != nil {
		return err
	}
	for slug, p := range profiles {
		if err := p.Validate(); err != nil {
			return err
		}
		eng, err := f.Create(factory.FromProfile(p))
		if err != nil {
			return err
		}
		logger.Info("profile instantiated", "profile", slug, "instance_id", eng.ID())
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}
