package ratings_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/tradeclash/arena/internal/db/kv"
	"github.com/tradeclash/arena/internal/managers/ratings"
	"github.com/tradeclash/arena/internal/models"
)

var ctx = context.Background()

type RatingManagerTestSuite struct {
	suite.Suite
	miniredis *miniredis.Miniredis
	manager   ratings.Manager
}

func (s *RatingManagerTestSuite) SetupTest() {
	var err error
	s.miniredis, err = miniredis.Run()
	require.NoError(s.T(), err)
	store := kv.NewRedis("arena", &redis.Options{Addr: s.miniredis.Addr()})
	s.manager = ratings.NewManager(store, 1200, 100)
}

func (s *RatingManagerTestSuite) TearDownTest() {
	s.manager.Close()
	s.miniredis.Close()
}

func (s *RatingManagerTestSuite) TestGetOrCreate() {
	record, err := s.manager.GetOrCreate(ctx, "alice")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "alice", record.UserID)
	for _, mode := range models.Modes {
		assert.Equal(s.T(), 1200, record.Ratings[mode])
		assert.Zero(s.T(), record.Stats[mode].Wins)
	}
	assert.Zero(s.T(), record.WinStreak)
	assert.Zero(s.T(), record.TotalBattles)

	// a second call returns the stored record, not a fresh one
	_, err = s.manager.ApplyDelta(ctx, "alice", models.GameModeSprint, 16, models.OutcomeWin)
	require.NoError(s.T(), err)
	record, err = s.manager.GetOrCreate(ctx, "alice")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 1216, record.Ratings[models.GameModeSprint])
}

func (s *RatingManagerTestSuite) TestApplyDeltaModesAreIndependent() {
	_, err := s.manager.ApplyDelta(ctx, "alice", models.GameModeSprint, 16, models.OutcomeWin)
	require.NoError(s.T(), err)
	record, err := s.manager.GetOrCreate(ctx, "alice")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 1216, record.Ratings[models.GameModeSprint])
	assert.Equal(s.T(), 1200, record.Ratings[models.GameModeStandard])
	assert.Equal(s.T(), 1200, record.Ratings[models.GameModeMarathon])
}

func (s *RatingManagerTestSuite) TestApplyDeltaFloor() {
	// every mode starts at 1200; a loss can never push below the floor
	record, err := s.manager.ApplyDelta(ctx, "alice", models.GameModeSprint, -2000, models.OutcomeLoss)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 100, record.Ratings[models.GameModeSprint])
}

func (s *RatingManagerTestSuite) TestWinStreak() {
	record, err := s.manager.ApplyDelta(ctx, "alice", models.GameModeSprint, 16, models.OutcomeWin)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 1, record.WinStreak)

	// the streak spans modes
	record, err = s.manager.ApplyDelta(ctx, "alice", models.GameModeStandard, 16, models.OutcomeWin)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 2, record.WinStreak)

	// any non win resets it
	record, err = s.manager.ApplyDelta(ctx, "alice", models.GameModeStandard, 0, models.OutcomeDraw)
	require.NoError(s.T(), err)
	assert.Zero(s.T(), record.WinStreak)
}

func (s *RatingManagerTestSuite) TestStatsAndTotals() {
	_, err := s.manager.ApplyDelta(ctx, "alice", models.GameModeSprint, 16, models.OutcomeWin)
	require.NoError(s.T(), err)
	_, err = s.manager.ApplyDelta(ctx, "alice", models.GameModeSprint, -16, models.OutcomeLoss)
	require.NoError(s.T(), err)
	record, err := s.manager.ApplyDelta(ctx, "alice", models.GameModeStandard, 0, models.OutcomeDraw)
	require.NoError(s.T(), err)

	assert.Equal(s.T(), models.Stats{Wins: 1, Losses: 1}, record.Stats[models.GameModeSprint])
	assert.Equal(s.T(), models.Stats{Draws: 1}, record.Stats[models.GameModeStandard])
	assert.Equal(s.T(), 3, record.TotalBattles)
}

func TestRatingManagerTestSuite(t *testing.T) {
	suite.Run(t, new(RatingManagerTestSuite))
}
