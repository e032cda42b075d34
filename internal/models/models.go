package models

import "time"

// GameMode identifies one of the fixed battle formats. Each mode carries an
// independent rating.
type GameMode string

// The supported game modes.
const (
	GameModeSprint   GameMode = "sprint"
	GameModeStandard GameMode = "standard"
	GameModeMarathon GameMode = "marathon"
)

// Modes lists every supported game mode.
var Modes = []GameMode{GameModeSprint, GameModeStandard, GameModeMarathon}

// Valid reports whether the mode is one of the supported game modes.
func (m GameMode) Valid() bool {
	for _, v := range Modes {
		if v == m {
			return true
		}
	}
	return false
}

// BattleDuration returns the wall clock trading time for the mode.
func (m GameMode) BattleDuration() time.Duration {
	switch m {
	case GameModeSprint:
		return 5 * time.Minute
	case GameModeMarathon:
		return time.Hour
	default:
		return 15 * time.Minute
	}
}

// Offsets for the simulated historical data window every battle trades
// against. The window is fixed relative to session creation so both
// participants price against the same data.
const (
	DataWindowStartOffset = 365 * 24 * time.Hour
	DataWindowEndOffset   = 30 * 24 * time.Hour
)

// StartingCash is the simulated cash balance each participant trades with.
const StartingCash = 100_000.0

// RatingRange is the band of opponent ratings a queued player will accept.
type RatingRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Contains reports whether a rating falls inside the range.
func (r RatingRange) Contains(rating int) bool {
	return rating >= r.Min && rating <= r.Max
}

// Width returns the size of the range.
func (r RatingRange) Width() int {
	return r.Max - r.Min
}

// QueueStatus is the lifecycle state of a queue entry.
type QueueStatus string

// Queue entry states.
const (
	QueueStatusSearching QueueStatus = "searching"
	QueueStatusMatched   QueueStatus = "matched"
)

// QueueEntry is one player waiting for, or recently given, a match.
type QueueEntry struct {
	UserID            string      `json:"userId"`
	Username          string      `json:"username"`
	GameMode          GameMode    `json:"gameMode"`
	CurrentRating     int         `json:"currentRating"`
	RatingRange       RatingRange `json:"ratingRange"`
	SearchStartTime   time.Time   `json:"searchStartTime"`
	ExpansionsApplied int         `json:"expansionsApplied"`
	Status            QueueStatus `json:"status"`
	MatchedSessionID  string      `json:"matchedSessionId,omitempty"`
}

// Compatible reports whether two entries can be paired: same mode and each
// player's rating inside the other's acceptable range.
func (e *QueueEntry) Compatible(other *QueueEntry) bool {
	if e.UserID == other.UserID || e.GameMode != other.GameMode {
		return false
	}
	return e.RatingRange.Contains(other.CurrentRating) &&
		other.RatingRange.Contains(e.CurrentRating)
}

// SessionKind distinguishes matchmade battles from direct challenges.
type SessionKind string

// Session kinds. Only ranked sessions move ratings.
const (
	SessionKindRanked   SessionKind = "ranked"
	SessionKindFriendly SessionKind = "friendly"
)

// SessionStatus is the lifecycle state of a battle session. Transitions only
// move forward: ready, in-progress, completed.
type SessionStatus string

// Session states.
const (
	SessionStatusReady      SessionStatus = "ready"
	SessionStatusInProgress SessionStatus = "in-progress"
	SessionStatusCompleted  SessionStatus = "completed"
)

// TradeSide is the direction of a fill.
type TradeSide string

// Trade sides.
const (
	TradeSideBuy  TradeSide = "buy"
	TradeSideSell TradeSide = "sell"
)

// TradeFill is one executed trade in a participant's battle log. The log is
// append only.
type TradeFill struct {
	Symbol   string    `json:"symbol"`
	Side     TradeSide `json:"side"`
	Quantity float64   `json:"quantity"`
	Price    float64   `json:"price"`
	At       time.Time `json:"at"`
}

// Results holds a participant's final battle numbers, populated at completion.
type Results struct {
	FinalValue     float64 `json:"finalValue"`
	ReturnPct      float64 `json:"returnPct"`
	TradeCount     int     `json:"tradeCount"`
	MaxDrawdownPct float64 `json:"maxDrawdownPct"`
}

// Participant is one side of a battle session. StartingRating and
// CurrentRating are both snapshots taken when the pair was committed; deltas
// are always computed from StartingRating.
type Participant struct {
	UserID         string      `json:"userId"`
	Username       string      `json:"username"`
	StartingRating int         `json:"startingRating"`
	CurrentRating  int         `json:"currentRating"`
	Trades         []TradeFill `json:"trades"`
	Results        *Results    `json:"results,omitempty"`
	RatingDelta    *int        `json:"ratingDelta,omitempty"`
}

// Session is a head to head trading battle. Sessions are historical records
// and are never deleted once announced to the players.
type Session struct {
	ID           string          `json:"sessionId"`
	GameMode     GameMode        `json:"gameMode"`
	Kind         SessionKind     `json:"kind"`
	Status       SessionStatus   `json:"status"`
	Participants [2]*Participant `json:"participants"`
	TradingStart time.Time       `json:"tradingStart"`
	TradingEnd   time.Time       `json:"tradingEnd"`
	DataStart    time.Time       `json:"dataStart"`
	DataEnd      time.Time       `json:"dataEnd"`
	WinnerID     string          `json:"winnerId,omitempty"`
	Draw         bool            `json:"draw,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// Participant returns the participant with the given user id, or nil.
func (s *Session) Participant(userID string) *Participant {
	for _, p := range s.Participants {
		if p != nil && p.UserID == userID {
			return p
		}
	}
	return nil
}

// Opponent returns the other participant, or nil if userID is not in the
// session.
func (s *Session) Opponent(userID string) *Participant {
	if s.Participant(userID) == nil {
		return nil
	}
	for _, p := range s.Participants {
		if p != nil && p.UserID != userID {
			return p
		}
	}
	return nil
}

// Outcome is a participant's result in a completed battle.
type Outcome string

// Outcomes.
const (
	OutcomeWin  Outcome = "win"
	OutcomeLoss Outcome = "loss"
	OutcomeDraw Outcome = "draw"
)

// Score returns the Elo actual score for the outcome.
func (o Outcome) Score() float64 {
	switch o {
	case OutcomeWin:
		return 1
	case OutcomeLoss:
		return 0
	default:
		return 0.5
	}
}

// Stats are per mode win/loss/draw counters.
type Stats struct {
	Wins   int `json:"wins"`
	Losses int `json:"losses"`
	Draws  int `json:"draws"`
}

// RatingRecord is a user's persisted skill state across all game modes.
// Created lazily on first queue join or battle, mutated only by settlement.
type RatingRecord struct {
	UserID       string             `json:"userId"`
	Ratings      map[GameMode]int   `json:"ratings"`
	Stats        map[GameMode]Stats `json:"stats"`
	WinStreak    int                `json:"winStreak"`
	TotalBattles int                `json:"totalBattles"`
}

// NewRatingRecord returns a fresh record with every mode at the default
// rating.
func NewRatingRecord(userID string, defaultRating int) *RatingRecord {
	r := &RatingRecord{
		UserID:  userID,
		Ratings: make(map[GameMode]int, len(Modes)),
		Stats:   make(map[GameMode]Stats, len(Modes)),
	}
	for _, m := range Modes {
		r.Ratings[m] = defaultRating
		r.Stats[m] = Stats{}
	}
	return r
}
