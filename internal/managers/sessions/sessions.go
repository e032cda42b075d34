package sessions

//go:generate mockgen -package mock -destination=mock/sessions.go . Manager

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/xid"
	"github.com/rs/zerolog/log"
	"github.com/tradeclash/arena/internal/db/kv"
	"github.com/tradeclash/arena/internal/models"
)

const (
	collectionSessions    = "sessions"
	collectionSettlements = "session_settlements"
)

var (
	// ErrCompleted is returned when a mutation arrives for a completed session
	ErrCompleted = errors.New("session already completed")
	// ErrNotParticipant is returned when the user is not part of the session
	ErrNotParticipant = errors.New("user is not a session participant")
	// ErrOutsideWindow is returned when a trade lands outside the trading window
	ErrOutsideWindow = errors.New("trade outside the session trading window")
)

// Manager interface specifies our interactions with battle sessions
type Manager interface {
	Create(ctx context.Context, participants [2]*models.Participant, mode models.GameMode, kind models.SessionKind) (*models.Session, error)
	Get(ctx context.Context, sessionID string) (*models.Session, error)
	AppendTrade(ctx context.Context, sessionID, userID string, fill models.TradeFill) (*models.Session, error)
	Complete(ctx context.Context, sessionID string, results map[string]models.Results, winnerID string, draw bool) (*models.Session, error)
	RecordRatingDeltas(ctx context.Context, sessionID string, deltas map[string]int) (*models.Session, error)
	ClaimSettlement(ctx context.Context, sessionID, userID string) (bool, error)
	ReleaseSettlement(ctx context.Context, sessionID, userID string) error
	Abort(ctx context.Context, sessionID string) error
	Close()
}

type manager struct {
	kvStore kv.Store
}

// NewManager returns a new session Manager
func NewManager(kvStore kv.Store) Manager {
	return &manager{kvStore: kvStore}
}

// Create persists a new battle session in the ready state. The trading
// window runs from now for the mode's duration; the historical data window
// is the same fixed offset pair for every battle so both players price
// against identical data.
func (m *manager) Create(ctx context.Context, participants [2]*models.Participant, mode models.GameMode, kind models.SessionKind) (*models.Session, error) {
	now := time.Now()
	session := &models.Session{
		ID:           xid.New().String(),
		GameMode:     mode,
		Kind:         kind,
		Status:       models.SessionStatusReady,
		Participants: participants,
		TradingStart: now,
		TradingEnd:   now.Add(mode.BattleDuration()),
		DataStart:    now.Add(-models.DataWindowStartOffset),
		DataEnd:      now.Add(-models.DataWindowEndOffset),
		CreatedAt:    now,
	}
	if err := m.put(ctx, session); err != nil {
		return nil, errors.Wrap(err, "failed to persist session")
	}
	return session, nil
}

func (m *manager) put(ctx context.Context, session *models.Session) error {
	sessionBytes, err := json.Marshal(session)
	if err != nil {
		return errors.Wrap(err, "failed to marshal session")
	}
	return m.kvStore.Set(ctx, collectionSessions, session.ID, sessionBytes, 0)
}

// Get returns a session or kv.ErrNotFound
func (m *manager) Get(ctx context.Context, sessionID string) (*models.Session, error) {
	sessionBytes, err := m.kvStore.Get(ctx, collectionSessions, sessionID)
	if err != nil {
		return nil, err
	}
	session := new(models.Session)
	if err := json.Unmarshal(sessionBytes, session); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal session")
	}
	return session, nil
}

// AppendTrade appends a fill to a participant's trade log. The first fill
// moves the session from ready to in-progress.
func (m *manager) AppendTrade(ctx context.Context, sessionID, userID string, fill models.TradeFill) (*models.Session, error) {
	session, err := m.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status == models.SessionStatusCompleted {
		return nil, ErrCompleted
	}
	participant := session.Participant(userID)
	if participant == nil {
		return nil, ErrNotParticipant
	}
	if fill.At.IsZero() {
		fill.At = time.Now()
	}
	if fill.At.Before(session.TradingStart) || fill.At.After(session.TradingEnd) {
		return nil, ErrOutsideWindow
	}
	if err := validateFill(participant, fill); err != nil {
		return nil, err
	}
	participant.Trades = append(participant.Trades, fill)
	if session.Status == models.SessionStatusReady {
		session.Status = models.SessionStatusInProgress
	}
	if err := m.put(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// Complete finalises a session with the computed results. Completing an
// already completed session returns the stored record unchanged, so retries
// of the completion endpoint are no-ops.
func (m *manager) Complete(ctx context.Context, sessionID string, results map[string]models.Results, winnerID string, draw bool) (*models.Session, error) {
	session, err := m.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status == models.SessionStatusCompleted {
		return session, nil
	}
	for _, p := range session.Participants {
		r, ok := results[p.UserID]
		if !ok {
			return nil, errors.Errorf("missing results for participant %s", p.UserID)
		}
		participantResults := r
		p.Results = &participantResults
	}
	session.WinnerID = winnerID
	session.Draw = draw
	session.Status = models.SessionStatusCompleted
	if err := m.put(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// RecordRatingDeltas persists the rating deltas onto the session record. The
// deltas are a pure function of the pre-match rating snapshots, so rewriting
// them on a retried settlement always writes the same values.
func (m *manager) RecordRatingDeltas(ctx context.Context, sessionID string, deltas map[string]int) (*models.Session, error) {
	session, err := m.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	for _, p := range session.Participants {
		if delta, ok := deltas[p.UserID]; ok {
			d := delta
			p.RatingDelta = &d
		}
	}
	if err := m.put(ctx, session); err != nil {
		log.Err(err).Str("session_id", sessionID).Msg("failed to persist rating deltas")
		return nil, err
	}
	return session, nil
}

func settlementKey(sessionID, userID string) string {
	return sessionID + ":" + userID
}

// ClaimSettlement takes the write-once marker for one participant's rating
// update. It returns false when the rating for this participant was already
// applied by an earlier settlement attempt.
func (m *manager) ClaimSettlement(ctx context.Context, sessionID, userID string) (bool, error) {
	claimed, err := m.kvStore.SetNX(ctx, collectionSettlements, settlementKey(sessionID, userID), userID, 0)
	if err != nil {
		return false, errors.Wrap(err, "failed to claim settlement")
	}
	return claimed, nil
}

// ReleaseSettlement hands a participant's settlement marker back after a
// failed rating write so a retried settlement can apply the same delta again.
func (m *manager) ReleaseSettlement(ctx context.Context, sessionID, userID string) error {
	return m.kvStore.Del(ctx, collectionSettlements, settlementKey(sessionID, userID))
}

// Abort deletes a session that was never announced to its players. Announced
// sessions are historical records and must not be removed.
func (m *manager) Abort(ctx context.Context, sessionID string) error {
	return m.kvStore.Del(ctx, collectionSessions, sessionID)
}

// Close disconnects the kv store
func (m *manager) Close() {
	m.kvStore.Close()
}

// validateFill replays the participant's log to check the fill is affordable:
// sells cannot exceed the held quantity and buys cannot exceed available
// cash.
func validateFill(p *models.Participant, fill models.TradeFill) error {
	if fill.Quantity <= 0 || fill.Price <= 0 {
		return errors.New("fill quantity and price must be positive")
	}
	cash := models.StartingCash
	positions := make(map[string]float64)
	for _, t := range p.Trades {
		switch t.Side {
		case models.TradeSideBuy:
			cash -= t.Quantity * t.Price
			positions[t.Symbol] += t.Quantity
		case models.TradeSideSell:
			cash += t.Quantity * t.Price
			positions[t.Symbol] -= t.Quantity
		}
	}
	switch fill.Side {
	case models.TradeSideBuy:
		if fill.Quantity*fill.Price > cash {
			return errors.New("insufficient cash for buy")
		}
	case models.TradeSideSell:
		if fill.Quantity > positions[fill.Symbol] {
			return errors.New("insufficient position for sell")
		}
	default:
		return errors.Errorf("unknown trade side %q", fill.Side)
	}
	return nil
}
