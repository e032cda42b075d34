package settlement

//go:generate mockgen -package mock -destination=mock/settlement.go . Service

import (
	"context"
	"sort"

	"github.com/rs/zerolog/log"
	"github.com/tradeclash/arena/internal/elo"
	"github.com/tradeclash/arena/internal/managers/notify"
	"github.com/tradeclash/arena/internal/managers/ratings"
	"github.com/tradeclash/arena/internal/managers/sessions"
	"github.com/tradeclash/arena/internal/models"
)

// Config holds the settings for the settlement service
type Config struct {
	// KFactor scales how far a single battle moves a rating
	KFactor int
}

// Service turns a finished battle into final results and rating adjustments
type Service interface {
	// Settle completes the session if needed and, for ranked sessions,
	// applies the Elo deltas exactly once. It returns the settled session
	// and the winner's user id, empty on a draw.
	Settle(ctx context.Context, sessionID string) (*models.Session, string, error)
}

type service struct {
	config          *Config
	sessionsManager sessions.Manager
	ratingsManager  ratings.Manager
	notifier        notify.Notifier
}

// NewService returns a new settlement Service
func NewService(config *Config, sessionsManager sessions.Manager, ratingsManager ratings.Manager, notifier notify.Notifier) Service {
	if config.KFactor == 0 {
		config.KFactor = elo.DefaultKFactor
	}
	return &service{
		config:          config,
		sessionsManager: sessionsManager,
		ratingsManager:  ratingsManager,
		notifier:        notifier,
	}
}

// Settle is idempotent end to end: completing an already completed session
// returns the stored results, and each participant's rating update is guarded
// by a write-once claim that is handed back when the rating write fails, so a
// retried settlement re-applies exactly the deltas that are still missing.
func (s *service) Settle(ctx context.Context, sessionID string) (*models.Session, string, error) {
	session, err := s.sessionsManager.Get(ctx, sessionID)
	if err != nil {
		return nil, "", err
	}

	if session.Status != models.SessionStatusCompleted {
		results := Valuate(session)
		winnerID, draw := DetermineWinner(session, results)
		session, err = s.sessionsManager.Complete(ctx, sessionID, results, winnerID, draw)
		if err != nil {
			return nil, "", err
		}
	}

	if session.Kind != models.SessionKindRanked {
		return session, session.WinnerID, nil
	}

	a, b := session.Participants[0], session.Participants[1]
	outcomeA := outcomeFor(session, a.UserID)
	outcomeB := outcomeFor(session, b.UserID)

	// both deltas come from the same pre-match snapshots, so the
	// computation is order independent and stable across retries
	deltas := map[string]int{
		a.UserID: elo.Delta(s.config.KFactor, a.StartingRating, b.StartingRating, outcomeA.Score()),
		b.UserID: elo.Delta(s.config.KFactor, b.StartingRating, a.StartingRating, outcomeB.Score()),
	}

	if session.Participants[0].RatingDelta == nil {
		session, err = s.sessionsManager.RecordRatingDeltas(ctx, sessionID, deltas)
		if err != nil {
			return nil, "", err
		}
	}

	var settleErr error
	for userID, outcome := range map[string]models.Outcome{a.UserID: outcomeA, b.UserID: outcomeB} {
		claimed, err := s.sessionsManager.ClaimSettlement(ctx, sessionID, userID)
		if err != nil {
			settleErr = err
			continue
		}
		if !claimed {
			// this participant's rating was already applied
			continue
		}
		record, err := s.ratingsManager.ApplyDelta(ctx, userID, session.GameMode, deltas[userID], outcome)
		if err != nil {
			log.Err(err).Str("user_id", userID).Str("session_id", sessionID).Msg("failed to apply rating delta")
			// hand the claim back so a retry re-applies this delta
			if releaseErr := s.sessionsManager.ReleaseSettlement(ctx, sessionID, userID); releaseErr != nil {
				log.Err(releaseErr).Str("user_id", userID).Str("session_id", sessionID).Msg("failed to release settlement claim")
			}
			settleErr = err
			continue
		}
		s.notifier.RatingChanged(ctx, userID, &notify.RatingChangedEvent{
			GameMode: session.GameMode,
			Rating:   record.Ratings[session.GameMode],
			Delta:    deltas[userID],
			Outcome:  outcome,
		})
	}
	if settleErr != nil {
		return session, session.WinnerID, settleErr
	}
	return session, session.WinnerID, nil
}

func outcomeFor(session *models.Session, userID string) models.Outcome {
	if session.Draw {
		return models.OutcomeDraw
	}
	if session.WinnerID == userID {
		return models.OutcomeWin
	}
	return models.OutcomeLoss
}

// DetermineWinner compares final portfolio values. The higher value wins, an
// exact tie is a draw.
func DetermineWinner(session *models.Session, results map[string]models.Results) (string, bool) {
	a, b := session.Participants[0], session.Participants[1]
	valueA := results[a.UserID].FinalValue
	valueB := results[b.UserID].FinalValue
	switch {
	case valueA > valueB:
		return a.UserID, false
	case valueB > valueA:
		return b.UserID, false
	default:
		return "", true
	}
}

// Valuate marks both participants' portfolios to market from their trade
// logs. Open positions are priced at the last fill seen for the symbol in
// either log, the most recent point-in-time price the session observed, so
// both participants are valued against the same data.
func Valuate(session *models.Session) map[string]models.Results {
	lastPrices := lastFillPrices(session)
	results := make(map[string]models.Results, len(session.Participants))
	for _, p := range session.Participants {
		results[p.UserID] = valuateParticipant(p, lastPrices)
	}
	return results
}

func lastFillPrices(session *models.Session) map[string]float64 {
	fills := make([]models.TradeFill, 0)
	for _, p := range session.Participants {
		fills = append(fills, p.Trades...)
	}
	sort.SliceStable(fills, func(i, j int) bool { return fills[i].At.Before(fills[j].At) })
	prices := make(map[string]float64, len(fills))
	for _, f := range fills {
		prices[f.Symbol] = f.Price
	}
	return prices
}

func valuateParticipant(p *models.Participant, lastPrices map[string]float64) models.Results {
	cash := models.StartingCash
	positions := make(map[string]float64)
	ownPrices := make(map[string]float64)

	peak := models.StartingCash
	maxDrawdownPct := 0.0

	for _, t := range p.Trades {
		switch t.Side {
		case models.TradeSideBuy:
			cash -= t.Quantity * t.Price
			positions[t.Symbol] += t.Quantity
		case models.TradeSideSell:
			cash += t.Quantity * t.Price
			positions[t.Symbol] -= t.Quantity
		}
		ownPrices[t.Symbol] = t.Price

		running := cash
		for sym, qty := range positions {
			running += qty * ownPrices[sym]
		}
		if running > peak {
			peak = running
		}
		if peak > 0 {
			if dd := (peak - running) / peak * 100; dd > maxDrawdownPct {
				maxDrawdownPct = dd
			}
		}
	}

	final := cash
	for sym, qty := range positions {
		price, ok := lastPrices[sym]
		if !ok {
			price = ownPrices[sym]
		}
		final += qty * price
	}

	return models.Results{
		FinalValue:     final,
		ReturnPct:      (final - models.StartingCash) / models.StartingCash * 100,
		TradeCount:     len(p.Trades),
		MaxDrawdownPct: maxDrawdownPct,
	}
}
