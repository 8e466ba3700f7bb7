package app

import (
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/wagerhub/platform/internal/auth"
	"github.com/wagerhub/platform/internal/guard"
	"github.com/wagerhub/platform/internal/handler"
	"github.com/wagerhub/platform/internal/infra"
	"github.com/wagerhub/platform/internal/provider"
	"github.com/wagerhub/platform/internal/repository"
	"github.com/wagerhub/platform/internal/resolution"
	"github.com/wagerhub/platform/internal/service"
	"github.com/wagerhub/platform/internal/settlement"
	"github.com/wagerhub/platform/internal/tasks"
)

// RouterDeps holds all dependencies needed by NewRouter.
type RouterDeps struct {
	Pool   *pgxpool.Pool
	Redis  *redis.Client
	JWTMgr *auth.JWTManager
	Logger *slog.Logger
	Config *infra.Config
}

// App bundles the assembled router with the background workers the caller
// must start.
type App struct {
	Router chi.Router
	Recalc *tasks.RecalcQueue
}

// NewApp assembles the chi.Router with all routes and middleware, plus the
// odds recalculation worker.
func NewApp(deps RouterDeps) *App {
	pool := deps.Pool
	jwtMgr := deps.JWTMgr
	logger := deps.Logger
	cfg := deps.Config

	// Repositories
	marketRepo := repository.NewMarketRepository()
	betRepo := repository.NewBetRepository()
	outboxRepo := repository.NewOutboxRepository()
	ownership := repository.NewOwnershipAuthority(pool)

	// External providers
	var verifier provider.ResultVerifier
	if cfg.VerifierBaseURL != "" {
		verifier = provider.NewHTTPResultVerifier(cfg.VerifierBaseURL, cfg.ExternalTimeout)
	}
	var scores provider.ScoreSource
	if cfg.ScoreSourceURL != "" {
		scores = provider.NewHTTPScoreSource(cfg.ScoreSourceURL, cfg.ExternalTimeout)
	}
	var oddsEngine provider.OddsEngine
	if cfg.OddsEngineURL != "" {
		oddsEngine = provider.NewHTTPOddsEngine(cfg.OddsEngineURL, cfg.ExternalTimeout)
	}

	// Intake guards
	rateLimiter := guard.NewRateLimiter(deps.Redis, cfg.BetRateLimit, cfg.BetRateWindow, logger)
	idempotency := guard.NewIdempotencyStore(cfg.IdempotencyTTL)

	// Services
	marketSvc := service.NewMarketService(pool, marketRepo, outboxRepo, logger)
	oddsSvc := service.NewOddsService(pool, marketRepo, outboxRepo, oddsEngine, logger)
	recalcQueue := tasks.NewRecalcQueue(cfg.RecalcQueueSize, oddsSvc.Recalculate, logger)
	intakeSvc := service.NewBetIntakeService(pool, marketRepo, betRepo, outboxRepo, oddsSvc, rateLimiter, idempotency, recalcQueue, logger)
	resolutionSvc := resolution.NewService(pool, marketRepo, betRepo, outboxRepo, ownership, verifier, logger)
	settlementEngine := settlement.NewEngine(pool, marketRepo, betRepo, outboxRepo, ownership, scores, logger)

	// Handlers
	marketHandler := handler.NewMarketHandler(marketSvc, oddsSvc)
	betHandler := handler.NewBetHandler(intakeSvc)
	resolutionHandler := handler.NewResolutionHandler(resolutionSvc)
	settlementHandler := handler.NewSettlementHandler(settlementEngine)

	// Router
	r := chi.NewRouter()

	// Global middleware (order matters)
	r.Use(handler.Recovery(logger))
	r.Use(handler.RequestID)
	r.Use(handler.RequestLogger(logger))
	r.Use(handler.CORS)
	r.Use(handler.JSONContentType)

	// Health and metrics (no auth)
	r.Get("/health", handler.HealthHandler(pool))
	r.Method("GET", "/metrics", promhttp.Handler())

	// Public market browsing
	r.Get("/markets", marketHandler.List)
	r.Get("/markets/{marketID}", marketHandler.Get)
	r.Get("/markets/{marketID}/odds", marketHandler.Odds)
	r.Get("/bets/code/{bookingCode}", betHandler.ByBookingCode)

	// Player-authenticated routes
	r.Group(func(r chi.Router) {
		r.Use(auth.AuthenticatePlayer(jwtMgr))

		r.Post("/markets/{marketID}/bets", betHandler.Place)
		r.Get("/bets/me", betHandler.MyBets)
	})

	// Host-authenticated routes
	r.Group(func(r chi.Router) {
		r.Use(auth.AuthenticateHost(jwtMgr))

		r.Post("/markets", marketHandler.Create)

		r.Route("/markets/{marketID}", func(r chi.Router) {
			r.Post("/pause", resolutionHandler.Pause)
			r.Post("/resume", resolutionHandler.Resume)
			r.Post("/propose", resolutionHandler.Propose)
			r.Post("/approve", resolutionHandler.Approve)
			r.Post("/reject", resolutionHandler.Reject)
			r.Post("/resolve", resolutionHandler.Resolve)
			r.Post("/settle", settlementHandler.Settle)
			r.Post("/settle/preview", settlementHandler.Preview)
		})

		r.Route("/tournaments/{tournamentID}", func(r chi.Router) {
			r.Post("/settle", settlementHandler.SettleTournament)
			r.Post("/cancel", resolutionHandler.CancelTournament)
		})
	})

	return &App{Router: r, Recalc: recalcQueue}
}

// NewRedisClient parses the Redis URL into a client, or returns nil when the
// URL is empty or malformed so guards fail open.
func NewRedisClient(redisURL string, logger *slog.Logger) *redis.Client {
	if redisURL == "" {
		return nil
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		logger.Warn("invalid REDIS_URL, rate limiting disabled", "error", err)
		return nil
	}
	opts.DialTimeout = 2 * time.Second
	return redis.NewClient(opts)
}
