package apiapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/dottenv/dating-bot/internal/config"
	"github.com/dottenv/dating-bot/internal/domain/rules"
	pgrepo "github.com/dottenv/dating-bot/internal/repo/postgres"
	redrepo "github.com/dottenv/dating-bot/internal/repo/redis"
	"github.com/dottenv/dating-bot/internal/services/delivery"
	matchingsvc "github.com/dottenv/dating-bot/internal/services/matching"
	profilesvc "github.com/dottenv/dating-bot/internal/services/profiles"
	ratesvc "github.com/dottenv/dating-bot/internal/services/rate"
	ratingsvc "github.com/dottenv/dating-bot/internal/services/rating"
	sessionsvc "github.com/dottenv/dating-bot/internal/services/sessions"
)

type App struct {
	cfg        config.Config
	logger     *zap.Logger
	server     *http.Server
	postgres   *pgxpool.Pool
	redis      *goredis.Client
	matching   *matchingsvc.Service
	httpRouter http.Handler
}

func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	r := chi.NewRouter()
	ApplyMiddlewares(r, log)

	var pool *pgxpool.Pool
	if p, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN); err != nil {
		log.Warn("postgres init failed, continuing in degraded mode", zap.Error(err))
	} else {
		pool = p
	}

	redisClient := redrepo.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	profileRepo := pgrepo.NewProfileRepo(pool)
	blockRepo := pgrepo.NewBlockRepo(pool)
	historyRepo := pgrepo.NewHistoryRepo(pool)
	profileCache := redrepo.NewProfileCacheRepo(redisClient, cfg.Chat.ProfileCacheTTL)
	rateRepo := redrepo.NewRateRepo(redisClient)

	transport := delivery.NewLogTransport(log)

	profileService := profilesvc.NewService(profileRepo, profileCache, log)
	ratingService := ratingsvc.NewService(profileRepo, profileService, log)
	sessionService := sessionsvc.NewService(sessionsvc.Dependencies{
		Transport: transport,
		History:   &historyArchive{repo: historyRepo},
		Profiles:  profileService,
		Ratings:   ratingService,
		Logger:    log,
	})
	searchLimiter := ratesvc.NewLimiter(rateRepo, cfg.Matching.SearchMaxPerMinute)
	matchingService := matchingsvc.NewService(matchingsvc.Dependencies{
		Profiles:  profileService,
		Blocks:    blockRepo,
		Sessions:  sessionService,
		Transport: transport,
		Limiter:   searchLimiter,
		History:   historyRepo,
		Logger:    log,
	}, matchingsvc.Config{
		Thresholds: rules.TierThresholds{
			High:   cfg.Matching.TierHighThreshold,
			Medium: cfg.Matching.TierMediumThreshold,
		},
		MinScore:      cfg.Matching.MinScore,
		PollInterval:  cfg.Matching.PollInterval,
		RelaxPeriod:   cfg.Matching.RelaxPeriod,
		MaxRelaxLevel: cfg.Matching.MaxRelaxLevel,
		SearchTimeout: cfg.Matching.SearchTimeout,
	})

	RegisterRoutes(r, Dependencies{
		MatchingService: matchingService,
		SessionService:  sessionService,
		Logger:          log,
		Config:          cfg,
	})

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	return &App{
		cfg:        cfg,
		logger:     log,
		server:     server,
		postgres:   pool,
		redis:      redisClient,
		matching:   matchingService,
		httpRouter: r,
	}, nil
}

func (a *App) Run() error {
	a.logger.Info("api server started", zap.String("addr", a.cfg.HTTP.Addr))
	err := a.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error

	if err := a.server.Shutdown(ctx); err != nil {
		shutdownErr = err
	}
	if a.matching != nil {
		a.matching.Close()
	}
	if a.postgres != nil {
		a.postgres.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil && shutdownErr == nil {
			shutdownErr = err
		}
	}

	return shutdownErr
}

func (a *App) Handler() http.Handler {
	return a.httpRouter
}

// historyArchive adapts the postgres repo to the session layer's record
// type.
type historyArchive struct {
	repo *pgrepo.HistoryRepo
}

func (h *historyArchive) ArchiveSession(ctx context.Context, record sessionsvc.ArchiveRecord) error {
	return h.repo.ArchiveSession(ctx, pgrepo.HistoryRecord{
		SessionID:    record.SessionID,
		UserA:        record.UserA,
		UserB:        record.UserB,
		StartedAt:    record.StartedAt,
		EndedAt:      record.EndedAt,
		MessageCount: record.MessageCount,
		Revealed:     record.Revealed,
	})
}
