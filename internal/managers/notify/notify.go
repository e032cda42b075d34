package notify

//go:generate mockgen -package mock -destination=mock/notify.go . Notifier

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"
	"github.com/tradeclash/arena/internal/backoff"
	"github.com/tradeclash/arena/internal/db/pubsub"
	"github.com/tradeclash/arena/internal/models"
)

const (
	subjectMatchFoundPrefix    = "arena.match_found."
	subjectRatingChangedPrefix = "arena.rating."
)

// GetMatchFoundSubject returns the pub-sub subject for a player's match
// found events
func GetMatchFoundSubject(userID string) string {
	return subjectMatchFoundPrefix + userID
}

// GetRatingChangedSubject returns the pub-sub subject for a player's rating
// change events
func GetRatingChangedSubject(userID string) string {
	return subjectRatingChangedPrefix + userID
}

// MatchFoundEvent tells a player they have been paired
type MatchFoundEvent struct {
	SessionID        string `json:"sessionId"`
	OpponentUsername string `json:"opponentUsername"`
	OpponentRating   int    `json:"opponentRating"`
}

// RatingChangedEvent tells a player their rating moved after a battle
type RatingChangedEvent struct {
	GameMode models.GameMode `json:"gameMode"`
	Rating   int             `json:"rating"`
	Delta    int             `json:"delta"`
	Outcome  models.Outcome  `json:"outcome"`
}

// Notifier pushes events to connected clients. Delivery is fire and forget,
// the websocket gateway downstream owns its own guarantees.
type Notifier interface {
	MatchFound(ctx context.Context, userID string, event *MatchFoundEvent)
	RatingChanged(ctx context.Context, userID string, event *RatingChangedEvent)
	Close()
}

type notifier struct {
	pubsubClient pubsub.Client
}

// NewNotifier returns a pub-sub backed Notifier
func NewNotifier(pubsubClient pubsub.Client) Notifier {
	return &notifier{pubsubClient: pubsubClient}
}

func (n *notifier) publish(ctx context.Context, subject string, event interface{}) {
	eventBytes, err := json.Marshal(event)
	if err != nil {
		log.Err(err).Str("subject", subject).Msg("failed to marshal event")
		return
	}
	err = backoff.Retry(ctx, func() error {
		return n.pubsubClient.Publish(ctx, subject, eventBytes)
	}, backoff.Exponential(), backoff.MaxRetry(5))
	if err != nil {
		log.Err(err).Str("subject", subject).Msg("failed to publish event")
	}
}

// MatchFound publishes a match found event for the player
func (n *notifier) MatchFound(ctx context.Context, userID string, event *MatchFoundEvent) {
	n.publish(ctx, GetMatchFoundSubject(userID), event)
}

// RatingChanged publishes a rating change event for the player
func (n *notifier) RatingChanged(ctx context.Context, userID string, event *RatingChangedEvent) {
	n.publish(ctx, GetRatingChangedSubject(userID), event)
}

// Close disconnects the pub-sub client
func (n *notifier) Close() {
	n.pubsubClient.Close()
}
