package botapp

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/dottenv/dating-bot/internal/config"
	"github.com/dottenv/dating-bot/internal/domain/rules"
	tginfra "github.com/dottenv/dating-bot/internal/infra/telegram"
	"github.com/dottenv/dating-bot/internal/jobs/cleanup"
	pgrepo "github.com/dottenv/dating-bot/internal/repo/postgres"
	redrepo "github.com/dottenv/dating-bot/internal/repo/redis"
	matchingsvc "github.com/dottenv/dating-bot/internal/services/matching"
	profilesvc "github.com/dottenv/dating-bot/internal/services/profiles"
	ratesvc "github.com/dottenv/dating-bot/internal/services/rate"
	ratingsvc "github.com/dottenv/dating-bot/internal/services/rating"
	sessionsvc "github.com/dottenv/dating-bot/internal/services/sessions"
)

type App struct {
	cfg      config.Config
	logger   *zap.Logger
	postgres *pgxpool.Pool
	redis    *goredis.Client
	bot      *tginfra.Bot

	sessions   *sessionsvc.Service
	matching   *matchingsvc.Service
	ratings    *ratingsvc.Service
	blocks     *pgrepo.BlockRepo
	cleanupJob *cleanup.Job
}

func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	pool, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN)
	if err != nil {
		return nil, fmt.Errorf("init postgres for bot app: %w", err)
	}

	if strings.TrimSpace(cfg.Bot.Token) == "" {
		pool.Close()
		return nil, fmt.Errorf("BOT_TOKEN is required for the bot app")
	}
	bot, err := tginfra.NewBot(cfg.Bot.Token)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("init telegram bot: %w", err)
	}

	redisClient := redrepo.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	profileRepo := pgrepo.NewProfileRepo(pool)
	blockRepo := pgrepo.NewBlockRepo(pool)
	historyRepo := pgrepo.NewHistoryRepo(pool)
	profileCache := redrepo.NewProfileCacheRepo(redisClient, cfg.Chat.ProfileCacheTTL)
	rateRepo := redrepo.NewRateRepo(redisClient)

	notifier := &notifier{bot: bot, logger: logger}

	profileService := profilesvc.NewService(profileRepo, profileCache, logger)
	ratingService := ratingsvc.NewService(profileRepo, profileService, logger)
	sessionService := sessionsvc.NewService(sessionsvc.Dependencies{
		Transport: notifier,
		History:   &historyArchive{repo: historyRepo},
		Profiles:  profileService,
		Ratings:   ratingService,
		Logger:    logger,
	})
	matchingService := matchingsvc.NewService(matchingsvc.Dependencies{
		Profiles:  profileService,
		Blocks:    blockRepo,
		Sessions:  sessionService,
		Transport: notifier,
		Limiter:   ratesvc.NewLimiter(rateRepo, cfg.Matching.SearchMaxPerMinute),
		History:   historyRepo,
		Logger:    logger,
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

	cleanupJob := cleanup.New(historyRepo, cfg.Chat.HistoryRetention, cfg.Bot.CleanupInterval, logger)

	return &App{
		cfg:        cfg,
		logger:     logger,
		postgres:   pool,
		redis:      redisClient,
		bot:        bot,
		sessions:   sessionService,
		matching:   matchingService,
		ratings:    ratingService,
		blocks:     blockRepo,
		cleanupJob: cleanupJob,
	}, nil
}

// Run blocks on the Telegram long-poll loop until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	go a.cleanupJob.Run(ctx)

	a.logger.Info("bot listener started")
	return a.bot.Listen(ctx, tginfra.Handlers{
		OnCommand:  a.handleCommand,
		OnText:     a.handleText,
		OnCallback: a.handleCallback,
	})
}

func (a *App) Close() {
	if a.matching != nil {
		a.matching.Close()
	}
	if a.postgres != nil {
		a.postgres.Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
}

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
