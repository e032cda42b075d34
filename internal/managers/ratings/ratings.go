package ratings

//go:generate mockgen -package mock -destination=mock/ratings.go . Manager

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/tradeclash/arena/internal/db/kv"
	"github.com/tradeclash/arena/internal/elo"
	"github.com/tradeclash/arena/internal/models"
)

const collectionRatings = "ratings"

// Manager interface specifies our interactions with rating records
type Manager interface {
	GetOrCreate(ctx context.Context, userID string) (*models.RatingRecord, error)
	ApplyDelta(ctx context.Context, userID string, mode models.GameMode, delta int, outcome models.Outcome) (*models.RatingRecord, error)
	Close()
}

type manager struct {
	kvStore       kv.Store
	defaultRating int
	minRating     int
}

// NewManager returns a new rating Manager
func NewManager(kvStore kv.Store, defaultRating, minRating int) Manager {
	if defaultRating == 0 {
		defaultRating = elo.DefaultRating
	}
	if minRating == 0 {
		minRating = elo.MinRating
	}
	return &manager{
		kvStore:       kvStore,
		defaultRating: defaultRating,
		minRating:     minRating,
	}
}

// GetOrCreate returns the user's rating record, lazily creating it with
// defaults on first contact.
func (m *manager) GetOrCreate(ctx context.Context, userID string) (*models.RatingRecord, error) {
	record, err := m.get(ctx, userID)
	if err == nil {
		return record, nil
	}
	if err != kv.ErrNotFound {
		return nil, err
	}

	record = models.NewRatingRecord(userID, m.defaultRating)
	recordBytes, err := json.Marshal(record)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal rating record")
	}
	set, err := m.kvStore.SetNX(ctx, collectionRatings, userID, recordBytes, 0)
	if err != nil {
		return nil, errors.Wrap(err, "failed to persist rating record")
	}
	if !set {
		// another writer created the record first
		return m.get(ctx, userID)
	}
	return record, nil
}

func (m *manager) get(ctx context.Context, userID string) (*models.RatingRecord, error) {
	recordBytes, err := m.kvStore.Get(ctx, collectionRatings, userID)
	if err != nil {
		return nil, err
	}
	record := new(models.RatingRecord)
	if err := json.Unmarshal(recordBytes, record); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal rating record")
	}
	return record, nil
}

// ApplyDelta adjusts the user's rating for a mode, floored at the minimum
// rating, and bumps the battle counters. The win streak resets on any non
// win.
func (m *manager) ApplyDelta(ctx context.Context, userID string, mode models.GameMode, delta int, outcome models.Outcome) (*models.RatingRecord, error) {
	record, err := m.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	record.Ratings[mode] = elo.Clamp(record.Ratings[mode]+delta, m.minRating)

	stats := record.Stats[mode]
	switch outcome {
	case models.OutcomeWin:
		stats.Wins++
		record.WinStreak++
	case models.OutcomeLoss:
		stats.Losses++
		record.WinStreak = 0
	case models.OutcomeDraw:
		stats.Draws++
		record.WinStreak = 0
	}
	record.Stats[mode] = stats
	record.TotalBattles++

	recordBytes, err := json.Marshal(record)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal rating record")
	}
	if err := m.kvStore.Set(ctx, collectionRatings, userID, recordBytes, 0); err != nil {
		return nil, errors.Wrap(err, "failed to persist rating record")
	}
	return record, nil
}

// Close disconnects the kv store
func (m *manager) Close() {
	m.kvStore.Close()
}
