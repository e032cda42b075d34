package matchmaker

//go:generate mockgen -package mock -destination=mock/matchmaker.go . Service

import (
	"context"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/go-co-op/gocron/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/tradeclash/arena/internal/dlm"
	"github.com/tradeclash/arena/internal/managers/notify"
	"github.com/tradeclash/arena/internal/managers/queue"
	"github.com/tradeclash/arena/internal/managers/sessions"
	"github.com/tradeclash/arena/internal/models"
)

const scanLockName = "matchmaker_scan"

// Config holds the settings for the matchmaker service
type Config struct {
	// ScanInterval is how often the queue is scanned for pairs
	ScanInterval time.Duration
	// ExpansionInterval is how long an entry waits before each widening of
	// its acceptable rating range
	ExpansionInterval time.Duration
	// ExpansionStep is how many rating points each widening adds to both
	// sides of the range
	ExpansionStep int
	// LockExpiry bounds how long a crashed scan can hold the scan lock
	LockExpiry time.Duration
}

// Service defines the interface for the matchmaker
type Service interface {
	// Start begins the periodic queue scan
	Start() error
	// Stop shuts the periodic scan down
	Stop()
	// Scan runs one full pass over the queue
	Scan(ctx context.Context)
	// TryMatchNow makes a one shot pairing attempt for a freshly queued
	// entry, returning the session and opponent entry when a compatible
	// player was already waiting
	TryMatchNow(ctx context.Context, entry *models.QueueEntry) (*models.Session, *models.QueueEntry, error)
}

type service struct {
	ctx             context.Context
	config          *Config
	queueManager    queue.Manager
	sessionsManager sessions.Manager
	notifier        notify.Notifier
	locker          dlm.DLM
	scheduler       gocron.Scheduler
}

// NewService returns a new matchmaker Service
func NewService(ctx context.Context, config *Config, queueManager queue.Manager,
	sessionsManager sessions.Manager, notifier notify.Notifier, locker dlm.DLM) Service {
	if config.LockExpiry == 0 {
		config.LockExpiry = 4 * config.ScanInterval
	}
	return &service{
		ctx:             ctx,
		config:          config,
		queueManager:    queueManager,
		sessionsManager: sessionsManager,
		notifier:        notifier,
		locker:          locker,
	}
}

// Start schedules the periodic scan. Singleton mode means a firing that
// arrives while the previous scan is still running is rescheduled, never run
// concurrently.
func (s *service) Start() error {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return errors.Wrap(err, "failed to create scheduler")
	}
	_, err = scheduler.NewJob(
		gocron.DurationJob(s.config.ScanInterval),
		gocron.NewTask(func() {
			s.Scan(s.ctx)
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return errors.Wrap(err, "failed to schedule scan job")
	}
	s.scheduler = scheduler
	scheduler.Start()
	log.Info().Dur("interval", s.config.ScanInterval).Msg("matchmaker scan scheduled")
	return nil
}

// Stop shuts down the scheduler
func (s *service) Stop() {
	if s.scheduler != nil {
		if err := s.scheduler.Shutdown(); err != nil {
			log.Err(err).Msg("failed to shut down scheduler")
		}
	}
}

// Scan runs one pass over every game mode's queue. Failures are contained
// here: whatever happens inside a scan, the next firing proceeds.
func (s *service) Scan(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("recovered panic in queue scan")
		}
	}()

	// only one instance scans at a time; contention just skips this firing
	if err := s.locker.Lock(scanLockName, s.config.LockExpiry); err != nil {
		log.Trace().Err(err).Msg("scan lock busy, skipping scan")
		return
	}
	defer func() {
		if _, err := s.locker.Unlock(scanLockName); err != nil {
			log.Err(err).Msg("failed to release scan lock")
		}
	}()

	for _, mode := range models.Modes {
		s.scanMode(ctx, mode)
	}
}

func (s *service) scanMode(ctx context.Context, mode models.GameMode) {
	entries, err := s.queueManager.ListSearching(ctx, mode)
	if err != nil {
		log.Err(err).Str("mode", string(mode)).Msg("failed to list searching entries")
		return
	}
	if len(entries) < 2 {
		return
	}

	s.expandRanges(ctx, entries)

	paired := mapset.NewSet[string]()
	for i, a := range entries {
		if paired.Contains(a.UserID) {
			continue
		}
		for _, b := range entries[i+1:] {
			if paired.Contains(b.UserID) || !a.Compatible(b) {
				continue
			}
			// greedy: first mutually compatible candidate wins
			if _, ok := s.commitPair(ctx, a, b); ok {
				paired.Add(a.UserID)
				paired.Add(b.UserID)
				break
			}
		}
	}
	if paired.Cardinality() > 0 {
		log.Debug().Str("mode", string(mode)).Int("paired", paired.Cardinality()).Msg("scan paired players")
	}
}

// expandRanges widens each waiting entry's acceptable range in proportion to
// how long it has waited. Ranges only ever grow, so any two players in the
// same mode eventually become mutually compatible.
func (s *service) expandRanges(ctx context.Context, entries []*models.QueueEntry) {
	now := time.Now()
	for _, entry := range entries {
		expansionsDue := int(now.Sub(entry.SearchStartTime) / s.config.ExpansionInterval)
		if expansionsDue <= entry.ExpansionsApplied {
			continue
		}
		widen := s.config.ExpansionStep * (expansionsDue - entry.ExpansionsApplied)
		entry.RatingRange.Min -= widen
		entry.RatingRange.Max += widen
		entry.ExpansionsApplied = expansionsDue
		if err := s.queueManager.UpdateRange(ctx, entry); err != nil {
			log.Err(err).Str("user_id", entry.UserID).Msg("failed to persist widened range")
		}
	}
}

// commitPair turns two compatible entries into a ranked session as a single
// logical unit. On any failure nothing is announced and both entries remain
// searching for the next scan.
func (s *service) commitPair(ctx context.Context, a, b *models.QueueEntry) (*models.Session, bool) {
	claimed, err := s.queueManager.ClaimPair(ctx, a, b)
	if err != nil {
		log.Err(err).Msg("failed to claim pair")
		return nil, false
	}
	if !claimed {
		log.Trace().Str("a", a.UserID).Str("b", b.UserID).Msg("pair already claimed")
		return nil, false
	}

	session, err := s.sessionsManager.Create(ctx, [2]*models.Participant{
		{UserID: a.UserID, Username: a.Username, StartingRating: a.CurrentRating, CurrentRating: a.CurrentRating},
		{UserID: b.UserID, Username: b.Username, StartingRating: b.CurrentRating, CurrentRating: b.CurrentRating},
	}, a.GameMode, models.SessionKindRanked)
	if err != nil {
		log.Err(err).Msg("failed to create session for pair")
		if releaseErr := s.queueManager.ReleasePair(ctx, a, b); releaseErr != nil {
			log.Err(releaseErr).Msg("failed to release pair claim")
		}
		return nil, false
	}

	if err := s.queueManager.MarkMatched(ctx, a, b, session.ID); err != nil {
		log.Err(err).Str("session_id", session.ID).Msg("failed to mark pair matched")
		if releaseErr := s.queueManager.ReleasePair(ctx, a, b); releaseErr != nil {
			log.Err(releaseErr).Msg("failed to release pair claim")
		}
		// the session was never announced, remove it
		if abortErr := s.sessionsManager.Abort(ctx, session.ID); abortErr != nil {
			log.Err(abortErr).Str("session_id", session.ID).Msg("failed to abort session")
		}
		return nil, false
	}

	log.Info().Str("session_id", session.ID).Str("mode", string(a.GameMode)).
		Strs("players", []string{a.UserID, b.UserID}).Msg("pair matched")

	s.notifier.MatchFound(ctx, a.UserID, &notify.MatchFoundEvent{
		SessionID:        session.ID,
		OpponentUsername: b.Username,
		OpponentRating:   b.CurrentRating,
	})
	s.notifier.MatchFound(ctx, b.UserID, &notify.MatchFoundEvent{
		SessionID:        session.ID,
		OpponentUsername: a.Username,
		OpponentRating:   a.CurrentRating,
	})
	return session, true
}

// TryMatchNow gives a joining player an immediate pairing when a compatible
// opponent is already waiting, without waiting for the next periodic scan.
// The waiting player is treated as the senior side of the pair.
func (s *service) TryMatchNow(ctx context.Context, entry *models.QueueEntry) (*models.Session, *models.QueueEntry, error) {
	entries, err := s.queueManager.ListSearching(ctx, entry.GameMode)
	if err != nil {
		return nil, nil, err
	}
	for _, candidate := range entries {
		if candidate.UserID == entry.UserID || !candidate.Compatible(entry) {
			continue
		}
		if session, ok := s.commitPair(ctx, candidate, entry); ok {
			return session, candidate, nil
		}
	}
	return nil, nil, nil
}
