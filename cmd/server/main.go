// The gateway binary: challenge issuance and the provider proof callback,
// backed by PostgreSQL (or in-memory stores in dev), Redis refresh signals,
// and the Kafka audit stream.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"idv-gateway/internal/audit"
	"idv-gateway/internal/authtoken"
	challengehandler "idv-gateway/internal/challenge/handler"
	challengestore "idv-gateway/internal/challenge/store"
	"idv-gateway/internal/claims"
	"idv-gateway/internal/dedup"
	dedupstore "idv-gateway/internal/dedup/store"
	"idv-gateway/internal/platform/config"
	"idv-gateway/internal/platform/database"
	"idv-gateway/internal/platform/httpserver"
	"idv-gateway/internal/platform/logger"
	redisplatform "idv-gateway/internal/platform/redis"
	"idv-gateway/internal/provider"
	"idv-gateway/internal/ratelimit"
	httptransport "idv-gateway/internal/transport/http"
	verificationhandler "idv-gateway/internal/verification/handler"
	"idv-gateway/internal/verification/metrics"
	verificationservice "idv-gateway/internal/verification/service"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.Postgres.DSN)
	if err != nil {
		log.Error("postgres connection failed", "error", err)
		os.Exit(1)
	}
	if db != nil {
		defer db.Close()
		if err := database.Migrate(cfg.Postgres.DSN); err != nil {
			log.Error("migrations failed", "error", err)
			os.Exit(1)
		}
	}

	redisClient, err := redisplatform.New(cfg.Redis)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	var publisher audit.Publisher = audit.Noop{}
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaPublisher, err := audit.NewKafkaPublisher(ctx, cfg.Kafka.Brokers, cfg.Kafka.AuditTopic, log)
		if err != nil {
			log.Error("kafka connection failed", "error", err)
			os.Exit(1)
		}
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher
	}

	var (
		challengeStore challengestore.Store
		claimsStore    claims.Store
		profileStore   claims.ProfileStore
		txRunner       verificationservice.TxRunner
	)
	if db != nil {
		challengeStore = challengestore.NewPostgres(db)
		claimsStore = claims.NewPostgresStore(db)
		profileStore = claims.NewPostgresProfileStore(db)
		txRunner = newVerificationPostgresTx(db)
	} else {
		log.Warn("no database configured, using in-memory stores")
		memChallenges := challengestore.NewMemory()
		memDedup := dedupstore.NewMemory()
		challengeStore = memChallenges
		claimsStore = claims.NewMemoryStore()
		txRunner = verificationservice.NewMemoryTxRunner(memChallenges, memDedup)
	}

	var signaler claims.RefreshSignaler = claims.LogSignaler{Logger: log}
	if redisClient != nil {
		signaler = claims.NewRedisSignaler(redisClient.Client)
	}

	var limiter ratelimit.Limiter = ratelimit.NewMemoryLimiter()
	if redisClient != nil {
		limiter = ratelimit.NewRedisLimiter(redisClient.Client, "idv:ratelimit")
	}

	var verifier interface {
		verificationservice.Verifier
		challengehandler.SessionStarter
	} = provider.NewClient(cfg.Provider, cfg.Production, log)
	if cfg.Provider.MockProofs {
		log.Warn("mock proof verification enabled, all proofs with a nullifier are accepted")
		verifier = provider.MockVerifier{}
	}

	m := metrics.New()
	hasher := dedup.NewHasher(cfg.Dedup.HMACSecret, cfg.Provider.Name)
	synchronizer := claims.NewSynchronizer(claimsStore, signaler, profileStore, log)
	engine := verificationservice.New(
		verifier,
		challengeStore,
		hasher,
		txRunner,
		synchronizer,
		publisher,
		m,
		cfg.Provider.Name,
		log,
	)

	authService := authtoken.NewService(cfg.Server.JWTSigningKey, cfg.Server.JWTIssuer)

	health := map[string]httptransport.HealthChecker{}
	if db != nil {
		health["postgres"] = func(r *http.Request) error { return db.PingContext(r.Context()) }
	}
	if redisClient != nil {
		health["redis"] = func(r *http.Request) error { return redisClient.Health(r.Context()) }
	}

	router := httptransport.NewRouter(httptransport.Deps{
		Verification:  verificationhandler.New(engine, cfg.Provider.Name, log),
		Challenge:     challengehandler.New(challengeStore, verifier, publisher, m, cfg.Provider.Name, cfg.ChallengeTTL, log),
		RateLimit:     ratelimit.NewMiddleware(limiter, cfg.RateLimit, cfg.Provider.Name, log),
		AuthValidator: authtoken.MiddlewareValidator{Service: authService},
		Health:        health,
		Logger:        log,
	})

	srv := httpserver.New(cfg.Server.Addr, router)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting idv gateway", "addr", cfg.Server.Addr, "provider", cfg.Provider.Name)
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
		log.Error("gateway stopped with error", "error", err)
		os.Exit(1)
	}
	log.Info("gateway stopped")
}
