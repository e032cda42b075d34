package queue

//go:generate mockgen -package mock -destination=mock/queue.go . Manager

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/tradeclash/arena/internal/db/kv"
	"github.com/tradeclash/arena/internal/models"
)

const (
	collectionEntries    = "queue_entries"
	collectionMatched    = "queue_matched"
	collectionPairClaims = "queue_pair_claims"
	searchIndexPrefix    = "queue_searching_"
)

// ErrAlreadyQueued is returned when a player who is already searching tries
// to join the queue again
var ErrAlreadyQueued = errors.New("already queued")

// GetSearchIndexKey returns the sorted set key holding the searching user ids
// for a game mode, scored by search start time
func GetSearchIndexKey(mode models.GameMode) string {
	return searchIndexPrefix + string(mode)
}

// Manager interface specifies our interactions with the matchmaking queue
type Manager interface {
	Enqueue(ctx context.Context, userID, username string, mode models.GameMode, rating int) (*models.QueueEntry, error)
	Dequeue(ctx context.Context, userID string) error
	Get(ctx context.Context, userID string) (*models.QueueEntry, error)
	ListSearching(ctx context.Context, mode models.GameMode) ([]*models.QueueEntry, error)
	UpdateRange(ctx context.Context, entry *models.QueueEntry) error
	ClaimPair(ctx context.Context, a, b *models.QueueEntry) (bool, error)
	ReleasePair(ctx context.Context, a, b *models.QueueEntry) error
	MarkMatched(ctx context.Context, a, b *models.QueueEntry, sessionID string) error
	Close()
}

type manager struct {
	kvStore      kv.Store
	sortedSet    kv.SortedSet
	initialRange int
	graceWindow  time.Duration
}

// NewManager returns a new queue Manager. initialRange is the half width of
// a fresh entry's acceptable rating band, graceWindow is how long a matched
// entry remains readable for late status polls.
func NewManager(kvStore kv.Store, sortedSet kv.SortedSet, initialRange int, graceWindow time.Duration) Manager {
	return &manager{
		kvStore:      kvStore,
		sortedSet:    sortedSet,
		initialRange: initialRange,
		graceWindow:  graceWindow,
	}
}

// Enqueue creates a searching entry for the player. A player can hold at most
// one searching entry at a time; a second join returns ErrAlreadyQueued.
func (m *manager) Enqueue(ctx context.Context, userID, username string, mode models.GameMode, rating int) (*models.QueueEntry, error) {
	now := time.Now()
	entry := &models.QueueEntry{
		UserID:          userID,
		Username:        username,
		GameMode:        mode,
		CurrentRating:   rating,
		RatingRange:     models.RatingRange{Min: rating - m.initialRange, Max: rating + m.initialRange},
		SearchStartTime: now,
		Status:          models.QueueStatusSearching,
	}
	entryBytes, err := json.Marshal(entry)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal queue entry")
	}

	set, err := m.kvStore.SetNX(ctx, collectionEntries, userID, entryBytes, 0)
	if err != nil {
		return nil, errors.Wrap(err, "failed to persist queue entry")
	}
	if !set {
		return nil, ErrAlreadyQueued
	}
	// if anything from here onwards fails we want to remove the entry
	defer func() {
		if err != nil {
			_ = m.kvStore.Del(ctx, collectionEntries, userID)
		}
	}()

	err = m.sortedSet.ZAdd(ctx, GetSearchIndexKey(mode), &kv.Z{
		Score:  float64(now.UnixMilli()),
		Member: userID,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to index queue entry")
	}
	return entry, nil
}

// Dequeue removes a player's searching entry. Removing an absent or already
// matched entry is a no-op.
func (m *manager) Dequeue(ctx context.Context, userID string) error {
	entry, err := m.getSearching(ctx, userID)
	if err == kv.ErrNotFound {
		return nil
	}
	if err != nil {
		return err
	}
	if err := m.kvStore.Del(ctx, collectionEntries, userID); err != nil {
		return err
	}
	return m.sortedSet.ZRem(ctx, GetSearchIndexKey(entry.GameMode), userID)
}

func (m *manager) getSearching(ctx context.Context, userID string) (*models.QueueEntry, error) {
	entryBytes, err := m.kvStore.Get(ctx, collectionEntries, userID)
	if err != nil {
		return nil, err
	}
	entry := new(models.QueueEntry)
	if err := json.Unmarshal(entryBytes, entry); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal queue entry")
	}
	return entry, nil
}

// Get returns the player's queue entry, searching or recently matched,
// or kv.ErrNotFound.
func (m *manager) Get(ctx context.Context, userID string) (*models.QueueEntry, error) {
	entry, err := m.getSearching(ctx, userID)
	if err == nil {
		return entry, nil
	}
	if err != kv.ErrNotFound {
		return nil, err
	}
	entryBytes, err := m.kvStore.Get(ctx, collectionMatched, userID)
	if err != nil {
		return nil, err
	}
	entry = new(models.QueueEntry)
	if err := json.Unmarshal(entryBytes, entry); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal queue entry")
	}
	return entry, nil
}

// ListSearching returns every searching entry for a mode ordered by search
// start time, oldest first.
func (m *manager) ListSearching(ctx context.Context, mode models.GameMode) ([]*models.QueueEntry, error) {
	ids, err := m.sortedSet.ZRangeByScore(ctx, GetSearchIndexKey(mode), &kv.ZRangeBy{
		Min: "-inf", Max: "+inf",
	})
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}
	data, err := m.kvStore.MGet(ctx, collectionEntries, ids)
	if err != nil {
		return nil, err
	}
	entries := make([]*models.QueueEntry, 0, len(data))
	for _, id := range ids {
		entryBytes, ok := data[id]
		if !ok {
			// stale index member, clean it up lazily
			log.Trace().Str("user_id", id).Msg("removing stale search index member")
			_ = m.sortedSet.ZRem(ctx, GetSearchIndexKey(mode), id)
			continue
		}
		entry := new(models.QueueEntry)
		if err := json.Unmarshal(entryBytes, entry); err != nil {
			log.Err(err).Str("user_id", id).Msg("failed to unmarshal queue entry")
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// UpdateRange persists a widened rating range and expansion count.
func (m *manager) UpdateRange(ctx context.Context, entry *models.QueueEntry) error {
	entryBytes, err := json.Marshal(entry)
	if err != nil {
		return errors.Wrap(err, "failed to marshal queue entry")
	}
	return m.kvStore.Set(ctx, collectionEntries, entry.UserID, entryBytes, 0)
}

// ClaimPair tries to take ownership of both entries for a single pairing.
// The claim fails if either player is already claimed by another pairing, so
// two racing scans can never both commit the same entry. It also fails if
// either entry has left the queue since it was listed.
func (m *manager) ClaimPair(ctx context.Context, a, b *models.QueueEntry) (bool, error) {
	claimed, err := m.kvStore.MSetNX(ctx, collectionPairClaims, map[string]interface{}{
		a.UserID: strconv.FormatInt(time.Now().UnixMilli(), 10),
		b.UserID: strconv.FormatInt(time.Now().UnixMilli(), 10),
	})
	if err != nil {
		return false, errors.Wrap(err, "failed to claim pair")
	}
	if !claimed {
		return false, nil
	}
	// claims must not outlive a crashed pairing
	_ = m.kvStore.Expire(ctx, collectionPairClaims, a.UserID, m.graceWindow)
	_ = m.kvStore.Expire(ctx, collectionPairClaims, b.UserID, m.graceWindow)

	// re-validate both players are still searching before the pair commits
	existing, err := m.kvStore.MGet(ctx, collectionEntries, []string{a.UserID, b.UserID})
	if err != nil || len(existing) != 2 {
		if releaseErr := m.ReleasePair(ctx, a, b); releaseErr != nil {
			log.Err(releaseErr).Msg("failed to release pair claim")
		}
		return false, err
	}
	return true, nil
}

// ReleasePair drops the claim on both entries, leaving them searching.
func (m *manager) ReleasePair(ctx context.Context, a, b *models.QueueEntry) error {
	return m.kvStore.Del(ctx, collectionPairClaims, a.UserID, b.UserID)
}

// MarkMatched flips both claimed entries to matched, removes them from the
// search index and keeps the matched records readable for the grace window.
func (m *manager) MarkMatched(ctx context.Context, a, b *models.QueueEntry, sessionID string) error {
	matched := make(map[string]interface{}, 2)
	for _, e := range []*models.QueueEntry{a, b} {
		e.Status = models.QueueStatusMatched
		e.MatchedSessionID = sessionID
		entryBytes, err := json.Marshal(e)
		if err != nil {
			return errors.Wrap(err, "failed to marshal matched entry")
		}
		matched[e.UserID] = entryBytes
	}
	if err := m.kvStore.MSet(ctx, collectionMatched, matched); err != nil {
		return errors.Wrap(err, "failed to persist matched entries")
	}
	for userID := range matched {
		if err := m.kvStore.Expire(ctx, collectionMatched, userID, m.graceWindow); err != nil {
			log.Err(err).Str("user_id", userID).Msg("failed to set matched entry expiry")
		}
	}
	if err := m.kvStore.Del(ctx, collectionEntries, a.UserID, b.UserID); err != nil {
		return errors.Wrap(err, "failed to remove matched entries from queue")
	}
	if err := m.sortedSet.ZRem(ctx, GetSearchIndexKey(a.GameMode), a.UserID, b.UserID); err != nil {
		return errors.Wrap(err, "failed to remove matched entries from search index")
	}
	// the entries are gone from the queue, the claims have done their job
	return m.ReleasePair(ctx, a, b)
}

// Close disconnects the stores
func (m *manager) Close() {
	m.kvStore.Close()
}
