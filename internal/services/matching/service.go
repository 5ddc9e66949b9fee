package matching

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dottenv/dating-bot/internal/domain/enums"
	"github.com/dottenv/dating-bot/internal/domain/model"
	"github.com/dottenv/dating-bot/internal/domain/rules"
	"github.com/dottenv/dating-bot/internal/services/delivery"
	"github.com/dottenv/dating-bot/internal/services/scoring"
)

var (
	ErrValidation  = errors.New("validation error")
	ErrNotEligible = errors.New("profile is not eligible for search")
	ErrInChat      = errors.New("user is already in an active chat")
)

// RateLimitError carries the cooldown so transports can tell the user
// when to try again.
type RateLimitError struct {
	RetryAfterSec int64
}

func (e *RateLimitError) Error() string {
	return "search rate limit exceeded"
}

type SearchStatus string

const (
	StatusMatched   SearchStatus = "matched"
	StatusSearching SearchStatus = "searching"
	StatusIdle      SearchStatus = "idle"
)

type SearchResult struct {
	Status    SearchStatus
	SessionID string
	PartnerID int64
	Score     float64
	Reasons   []string
}

type StatusInfo struct {
	Status     SearchStatus
	SessionID  string
	PartnerID  int64
	RelaxLevel int
	Waiting    int
}

type ProfileSource interface {
	Snapshot(ctx context.Context, userID int64) (model.Profile, error)
}

type BlockChecker interface {
	Blocked(ctx context.Context, userID, otherID int64) (bool, error)
}

type SessionManager interface {
	Create(ctx context.Context, userA, userB int64) (model.ChatSession, error)
	Get(userID int64) (model.ChatSession, bool)
	ForceEnd(ctx context.Context, sessionID string, reason string) bool
}

type SearchLimiter interface {
	AllowSearch(ctx context.Context, userID int64) (int64, bool, error)
}

// PairHistory reports how many chats two users already had together.
type PairHistory interface {
	PairSessionCount(ctx context.Context, userID, otherID int64) (int, error)
}

type Dependencies struct {
	Profiles  ProfileSource
	Blocks    BlockChecker
	Sessions  SessionManager
	Transport delivery.Transport
	Limiter   SearchLimiter
	History   PairHistory
	Logger    *zap.Logger
}

type Config struct {
	Thresholds    rules.TierThresholds
	MinScore      float64
	PollInterval  time.Duration
	RelaxPeriod   time.Duration
	MaxRelaxLevel int
	SearchTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		Thresholds:    rules.DefaultTierThresholds(),
		MinScore:      0.1,
		PollInterval:  3 * time.Second,
		RelaxPeriod:   time.Minute,
		MaxRelaxLevel: 4,
		SearchTimeout: 10 * time.Minute,
	}
}

// Service drives the partner search: the immediate attempt on request,
// the waiting pool and one relaxation goroutine per waiting user. The
// goroutines live on the service's own context so HTTP request
// cancellation never kills a running search.
type Service struct {
	cfg    Config
	queue  *Queue
	scorer *scoring.Scorer

	profiles  ProfileSource
	blocks    BlockChecker
	sessions  SessionManager
	transport delivery.Transport
	limiter   SearchLimiter
	history   PairHistory
	logger    *zap.Logger

	now func() time.Time

	loopCtx    context.Context
	loopCancel context.CancelFunc
	wg         sync.WaitGroup
}

func NewService(deps Dependencies, cfg Config) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	defaults := DefaultConfig()
	if cfg.MinScore <= 0 {
		cfg.MinScore = defaults.MinScore
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaults.PollInterval
	}
	if cfg.RelaxPeriod <= 0 {
		cfg.RelaxPeriod = defaults.RelaxPeriod
	}
	if cfg.MaxRelaxLevel <= 0 {
		cfg.MaxRelaxLevel = defaults.MaxRelaxLevel
	}
	if cfg.SearchTimeout <= 0 {
		cfg.SearchTimeout = defaults.SearchTimeout
	}
	if cfg.Thresholds.High <= 0 {
		cfg.Thresholds = defaults.Thresholds
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Service{
		cfg:        cfg,
		queue:      NewQueue(),
		scorer:     scoring.NewScorer(),
		profiles:   deps.Profiles,
		blocks:     deps.Blocks,
		sessions:   deps.Sessions,
		transport:  deps.Transport,
		limiter:    deps.Limiter,
		history:    deps.History,
		logger:     logger,
		now:        time.Now,
		loopCtx:    ctx,
		loopCancel: cancel,
	}
}

// RequestSearch starts a partner search for the user. An immediate
// strict-level attempt runs first; without a match the user joins the
// waiting pool and a background loop keeps retrying with progressive
// relaxation until match, cancel or timeout.
func (s *Service) RequestSearch(ctx context.Context, userID int64) (SearchResult, error) {
	if userID <= 0 {
		return SearchResult{}, ErrValidation
	}
	if s.profiles == nil || s.sessions == nil {
		return SearchResult{}, fmt.Errorf("matching service is not wired")
	}

	if _, busy := s.sessions.Get(userID); busy {
		return SearchResult{}, ErrInChat
	}
	if s.queue.Contains(userID) {
		// repeat request while waiting is a no-op
		return SearchResult{Status: StatusSearching}, nil
	}

	if s.limiter != nil {
		retryAfter, allowed, err := s.limiter.AllowSearch(ctx, userID)
		if err != nil {
			return SearchResult{}, fmt.Errorf("search rate check: %w", err)
		}
		if !allowed {
			return SearchResult{}, &RateLimitError{RetryAfterSec: retryAfter}
		}
	}

	profile, err := s.profiles.Snapshot(ctx, userID)
	if err != nil {
		return SearchResult{}, err
	}
	if !profile.Eligible() {
		return SearchResult{}, ErrNotEligible
	}

	tier := rules.ClassifyTier(profile.Rating, s.cfg.Thresholds)
	if result, ok := s.tryMatch(ctx, profile, tier, 0, false); ok {
		return result, nil
	}

	if !s.queue.Enqueue(userID, tier) {
		return SearchResult{Status: StatusSearching}, nil
	}
	startedAt := s.now()
	if entry, ok := s.queue.Entry(userID); ok {
		startedAt = entry.EnqueuedAt
	}

	s.wg.Add(1)
	go s.runSearchLoop(userID, tier, startedAt)

	s.logger.Info("search started",
		zap.Int64("user_id", userID),
		zap.String("tier", string(tier)),
		zap.Int("waiting", s.queue.Len()),
		zap.Any("waiting_by_tier", s.queue.TierCounts()),
	)

	return SearchResult{Status: StatusSearching}, nil
}

// CancelSearch removes the user from the waiting pool. The first call
// wins; the loop notices the absence and exits.
func (s *Service) CancelSearch(userID int64) bool {
	stopped := s.queue.Cancel(userID)
	if stopped {
		s.logger.Info("search cancelled", zap.Int64("user_id", userID))
	}
	return stopped
}

// Status reports where the user currently stands.
func (s *Service) Status(userID int64) StatusInfo {
	if session, ok := s.sessions.Get(userID); ok {
		return StatusInfo{
			Status:    StatusMatched,
			SessionID: session.ID,
			PartnerID: session.PartnerOf(userID),
			Waiting:   s.queue.Len(),
		}
	}
	if entry, ok := s.queue.Entry(userID); ok {
		return StatusInfo{
			Status:     StatusSearching,
			RelaxLevel: relaxationLevel(s.now().Sub(entry.EnqueuedAt), s.cfg.RelaxPeriod, s.cfg.MaxRelaxLevel),
			Waiting:    s.queue.Len(),
		}
	}
	return StatusInfo{Status: StatusIdle, Waiting: s.queue.Len()}
}

// Close stops every search loop and waits for them to drain.
func (s *Service) Close() {
	s.loopCancel()
	s.wg.Wait()
}

func (s *Service) runSearchLoop(userID int64, tier enums.Tier, startedAt time.Time) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	deadline := startedAt.Add(s.cfg.SearchTimeout)
	for {
		select {
		case <-s.loopCtx.Done():
			return
		case <-ticker.C:
		}

		if !s.queue.Contains(userID) {
			return
		}
		if _, busy := s.sessions.Get(userID); busy {
			s.queue.Cancel(userID)
			return
		}

		now := s.now()
		if !now.Before(deadline) {
			if s.queue.Cancel(userID) {
				s.logger.Info("search timed out", zap.Int64("user_id", userID))
				event := delivery.Event{Kind: delivery.KindSearchTimeout}
				if err := s.deliver(userID, event); err != nil {
					s.logger.Warn("timeout notification failed", zap.Int64("user_id", userID), zap.Error(err))
				}
			}
			return
		}

		profile, err := s.profiles.Snapshot(s.loopCtx, userID)
		if err != nil {
			s.logger.Warn("profile snapshot during search failed", zap.Int64("user_id", userID), zap.Error(err))
			continue
		}
		if !profile.Eligible() {
			s.queue.Cancel(userID)
			return
		}

		level := relaxationLevel(now.Sub(startedAt), s.cfg.RelaxPeriod, s.cfg.MaxRelaxLevel)
		if _, ok := s.tryMatch(s.loopCtx, profile, tier, level, true); ok {
			return
		}
	}
}

// tryMatch scans the pool for the best-scoring compatible candidate and
// commits the pair atomically. fromQueue marks loop-originated attempts:
// those must still find the searcher's own entry at claim time, so a
// cancel racing the match wins. The claim is re-validated against the
// session layer; any failure unwinds the queue so nobody is lost.
func (s *Service) tryMatch(ctx context.Context, profile model.Profile, tier enums.Tier, level int, fromQueue bool) (SearchResult, bool) {
	candidates := s.queue.Candidates(rules.SearchTiers(tier), profile.UserID)
	if len(candidates) == 0 {
		return SearchResult{}, false
	}

	var (
		best        model.QueueEntry
		bestScore   float64
		bestReasons []string
		found       bool
	)
	for _, entry := range candidates {
		if s.blocks != nil {
			blocked, err := s.blocks.Blocked(ctx, profile.UserID, entry.UserID)
			if err != nil {
				s.logger.Warn("block lookup failed",
					zap.Int64("user_id", profile.UserID),
					zap.Int64("candidate_id", entry.UserID),
					zap.Error(err),
				)
				continue
			}
			if blocked {
				continue
			}
		}

		candidate, err := s.profiles.Snapshot(ctx, entry.UserID)
		if err != nil {
			continue
		}
		if !candidate.Eligible() {
			continue
		}

		score, reasons := s.scorer.Score(profile, candidate, level)
		if score <= s.cfg.MinScore {
			continue
		}

		better := score > bestScore ||
			(score == bestScore && found && entry.EnqueuedAt.Before(best.EnqueuedAt))
		if !found || better {
			best = entry
			bestScore = score
			bestReasons = reasons
			found = true
		}
	}
	if !found {
		return SearchResult{}, false
	}

	userEntry, partnerEntry, ok := s.queue.ClaimPair(profile.UserID, best.UserID, fromQueue)
	if !ok {
		// the candidate was grabbed, or the searcher cancelled, between
		// snapshot and claim
		return SearchResult{}, false
	}

	session, err := s.sessions.Create(ctx, profile.UserID, best.UserID)
	if err != nil {
		s.logger.Error("session create rejected after queue claim",
			zap.Int64("user_id", profile.UserID),
			zap.Int64("partner_id", best.UserID),
			zap.Error(err),
		)
		s.restoreIfFree(userEntry)
		s.restoreIfFree(partnerEntry)
		return SearchResult{}, false
	}

	reasons := bestReasons
	if s.history != nil {
		if met, err := s.history.PairSessionCount(ctx, profile.UserID, best.UserID); err == nil && met > 0 {
			reasons = append(reasons[:len(reasons):len(reasons)], "you have talked before")
		}
	}

	result := SearchResult{
		Status:    StatusMatched,
		SessionID: session.ID,
		PartnerID: best.UserID,
		Score:     bestScore,
		Reasons:   reasons,
	}

	for _, recipient := range []int64{profile.UserID, best.UserID} {
		event := delivery.Event{
			Kind:      delivery.KindMatchFound,
			SessionID: session.ID,
			PartnerID: session.PartnerOf(recipient),
			Score:     bestScore,
			Reasons:   reasons,
		}
		if err := s.deliver(recipient, event); err != nil {
			s.logger.Warn("match notification failed, rolling the pair back",
				zap.String("session_id", session.ID),
				zap.Int64("user_id", recipient),
				zap.Error(err),
			)
			s.sessions.ForceEnd(ctx, session.ID, "match notification undeliverable")
			s.restoreIfFree(userEntry)
			s.restoreIfFree(partnerEntry)
			return SearchResult{}, false
		}
	}

	s.logger.Info("match committed",
		zap.String("session_id", session.ID),
		zap.Int64("user_id", profile.UserID),
		zap.Int64("partner_id", best.UserID),
		zap.Float64("score", bestScore),
		zap.Int("relaxation", level),
	)

	return result, true
}

func (s *Service) restoreIfFree(entry model.QueueEntry) {
	if entry.UserID <= 0 {
		return
	}
	if _, busy := s.sessions.Get(entry.UserID); busy {
		return
	}
	s.queue.Restore(entry)
}

func (s *Service) deliver(userID int64, event delivery.Event) error {
	if s.transport == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.transport.Deliver(ctx, userID, event)
}

// relaxationLevel maps waiting time onto the relaxation ladder, capped
// at the configured maximum.
func relaxationLevel(elapsed time.Duration, period time.Duration, max int) int {
	if period <= 0 {
		return max
	}
	level := int(elapsed / period)
	if level > max {
		level = max
	}
	if level < 0 {
		level = 0
	}
	return level
}
