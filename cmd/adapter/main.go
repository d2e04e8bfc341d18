// The provider adapter binary: a thin service wrapping the vendor proof
// verifier behind /start and /verify, authenticated with a shared API key.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"idv-gateway/internal/platform/config"
	"idv-gateway/internal/platform/httpserver"
	"idv-gateway/internal/platform/logger"
	"idv-gateway/internal/provider"
	providerhandler "idv-gateway/internal/provider/handler"
	requestid "idv-gateway/pkg/platform/middleware/requestid"
)

func main() {
	cfg := config.AdapterFromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	policy := provider.Policy{
		ScopeSeed:         cfg.Provider.ScopeSeed,
		Endpoint:          cfg.Provider.CallbackURL,
		EndpointType:      cfg.Provider.EndpointType,
		AppName:           cfg.Provider.AppName,
		LogoURL:           cfg.Provider.LogoURL,
		MinimumAge:        cfg.Provider.MinimumAge,
		ExcludedCountries: cfg.Provider.ExcludedCountries,
		SanctionsCheck:    cfg.Provider.SanctionsCheck,
		MockPassports:     cfg.Provider.MockProofs,
	}

	// The vendor SDK engine plugs in behind ProofVerifier; the static
	// verifier keeps this binary runnable without vendor credentials.
	adapter := provider.NewAdapter(policy, provider.StaticProofVerifier{}, nil)

	if cfg.APIKey == "" && cfg.APIKeyHash == "" {
		log.Warn("no shared API key configured, adapter endpoints will refuse requests")
	}

	r := chi.NewRouter()
	r.Use(requestid.RequestID)
	providerhandler.New(adapter, cfg.APIKey, cfg.APIKeyHash, log).Register(r)

	srv := httpserver.New(cfg.Addr, r)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting idv adapter", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("adapter stopped with error", "error", err)
		os.Exit(1)
	}
	log.Info("adapter stopped")
}
