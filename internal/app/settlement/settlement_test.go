package settlement_test

import (
	"context"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/tradeclash/arena/internal/app/settlement"
	"github.com/tradeclash/arena/internal/managers/notify"
	notifyMock "github.com/tradeclash/arena/internal/managers/notify/mock"
	ratingsMock "github.com/tradeclash/arena/internal/managers/ratings/mock"
	sessionsMock "github.com/tradeclash/arena/internal/managers/sessions/mock"
	"github.com/tradeclash/arena/internal/models"
)

var ctx = context.Background()

type SettlementTestSuite struct {
	suite.Suite
	sessionsManager *sessionsMock.MockManager
	ratingsManager  *ratingsMock.MockManager
	notifier        *notifyMock.MockNotifier
	service         settlement.Service
}

func (s *SettlementTestSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.sessionsManager = sessionsMock.NewMockManager(ctrl)
	s.ratingsManager = ratingsMock.NewMockManager(ctrl)
	s.notifier = notifyMock.NewMockNotifier(ctrl)
	s.service = settlement.NewService(&settlement.Config{KFactor: 32},
		s.sessionsManager, s.ratingsManager, s.notifier)
}

func session(kind models.SessionKind, status models.SessionStatus) *models.Session {
	return &models.Session{
		ID:       "session-1",
		GameMode: models.GameModeStandard,
		Kind:     kind,
		Status:   status,
		Participants: [2]*models.Participant{
			{UserID: "alice", Username: "alice", StartingRating: 1200},
			{UserID: "bob", Username: "bob", StartingRating: 1200},
		},
	}
}

func (s *SettlementTestSuite) TestSettleCompletesAndAppliesRatings() {
	inProgress := session(models.SessionKindRanked, models.SessionStatusInProgress)
	inProgress.Participant("alice").Trades = []models.TradeFill{
		{Symbol: "AAPL", Side: models.TradeSideBuy, Quantity: 10, Price: 100, At: time.Now()},
		{Symbol: "AAPL", Side: models.TradeSideSell, Quantity: 10, Price: 110, At: time.Now().Add(time.Minute)},
	}
	completed := session(models.SessionKindRanked, models.SessionStatusCompleted)
	completed.WinnerID = "alice"

	s.sessionsManager.EXPECT().Get(ctx, "session-1").Return(inProgress, nil)
	s.sessionsManager.EXPECT().Complete(ctx, "session-1", gomock.Any(), "alice", false).Return(completed, nil)

	// equal ratings, K=32: the winner takes 16 points from the loser
	settled := session(models.SessionKindRanked, models.SessionStatusCompleted)
	settled.WinnerID = "alice"
	aliceDelta, bobDelta := 16, -16
	settled.Participant("alice").RatingDelta = &aliceDelta
	settled.Participant("bob").RatingDelta = &bobDelta
	s.sessionsManager.EXPECT().RecordRatingDeltas(ctx, "session-1", map[string]int{
		"alice": 16, "bob": -16,
	}).Return(settled, nil)

	s.sessionsManager.EXPECT().ClaimSettlement(ctx, "session-1", "alice").Return(true, nil)
	s.sessionsManager.EXPECT().ClaimSettlement(ctx, "session-1", "bob").Return(true, nil)

	aliceRecord := models.NewRatingRecord("alice", 1200)
	aliceRecord.Ratings[models.GameModeStandard] = 1216
	bobRecord := models.NewRatingRecord("bob", 1200)
	bobRecord.Ratings[models.GameModeStandard] = 1184
	s.ratingsManager.EXPECT().ApplyDelta(ctx, "alice", models.GameModeStandard, 16, models.OutcomeWin).Return(aliceRecord, nil)
	s.ratingsManager.EXPECT().ApplyDelta(ctx, "bob", models.GameModeStandard, -16, models.OutcomeLoss).Return(bobRecord, nil)
	s.notifier.EXPECT().RatingChanged(ctx, "alice", &notify.RatingChangedEvent{
		GameMode: models.GameModeStandard, Rating: 1216, Delta: 16, Outcome: models.OutcomeWin,
	})
	s.notifier.EXPECT().RatingChanged(ctx, "bob", &notify.RatingChangedEvent{
		GameMode: models.GameModeStandard, Rating: 1184, Delta: -16, Outcome: models.OutcomeLoss,
	})

	result, winner, err := s.service.Settle(ctx, "session-1")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "alice", winner)
	assert.Equal(s.T(), 16, *result.Participant("alice").RatingDelta)
}

func (s *SettlementTestSuite) TestSettleFriendlySkipsRatings() {
	completed := session(models.SessionKindFriendly, models.SessionStatusCompleted)
	completed.WinnerID = "bob"
	s.sessionsManager.EXPECT().Get(ctx, "session-1").Return(completed, nil)

	_, winner, err := s.service.Settle(ctx, "session-1")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "bob", winner)
}

func (s *SettlementTestSuite) TestSettleAlreadySettled() {
	completed := session(models.SessionKindRanked, models.SessionStatusCompleted)
	completed.WinnerID = "alice"
	aliceDelta, bobDelta := 16, -16
	completed.Participant("alice").RatingDelta = &aliceDelta
	completed.Participant("bob").RatingDelta = &bobDelta
	s.sessionsManager.EXPECT().Get(ctx, "session-1").Return(completed, nil)
	// both claims are already taken, so no rating manager calls happen
	s.sessionsManager.EXPECT().ClaimSettlement(ctx, "session-1", "alice").Return(false, nil)
	s.sessionsManager.EXPECT().ClaimSettlement(ctx, "session-1", "bob").Return(false, nil)

	result, winner, err := s.service.Settle(ctx, "session-1")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "alice", winner)
	assert.Equal(s.T(), completed, result)
}

func (s *SettlementTestSuite) TestSettleClaimLost() {
	// a concurrent settlement holds both claims, the deltas are not applied twice
	completed := session(models.SessionKindRanked, models.SessionStatusCompleted)
	completed.WinnerID = "alice"
	settled := session(models.SessionKindRanked, models.SessionStatusCompleted)
	settled.WinnerID = "alice"
	aliceDelta, bobDelta := 16, -16
	settled.Participant("alice").RatingDelta = &aliceDelta
	settled.Participant("bob").RatingDelta = &bobDelta

	s.sessionsManager.EXPECT().Get(ctx, "session-1").Return(completed, nil)
	s.sessionsManager.EXPECT().RecordRatingDeltas(ctx, "session-1", map[string]int{
		"alice": 16, "bob": -16,
	}).Return(settled, nil)
	s.sessionsManager.EXPECT().ClaimSettlement(ctx, "session-1", "alice").Return(false, nil)
	s.sessionsManager.EXPECT().ClaimSettlement(ctx, "session-1", "bob").Return(false, nil)

	_, winner, err := s.service.Settle(ctx, "session-1")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "alice", winner)
}

func (s *SettlementTestSuite) TestSettleRetriesRatingWriteAfterFailure() {
	// a transient ratings store failure must surface as an error and a later
	// settlement must apply the missing delta, without touching the rating
	// that was already written
	completed := session(models.SessionKindRanked, models.SessionStatusCompleted)
	completed.WinnerID = "alice"
	settled := session(models.SessionKindRanked, models.SessionStatusCompleted)
	settled.WinnerID = "alice"
	aliceDelta, bobDelta := 16, -16
	settled.Participant("alice").RatingDelta = &aliceDelta
	settled.Participant("bob").RatingDelta = &bobDelta

	s.sessionsManager.EXPECT().Get(ctx, "session-1").Return(completed, nil)
	s.sessionsManager.EXPECT().RecordRatingDeltas(ctx, "session-1", map[string]int{
		"alice": 16, "bob": -16,
	}).Return(settled, nil)
	s.sessionsManager.EXPECT().ClaimSettlement(ctx, "session-1", "alice").Return(true, nil)
	s.sessionsManager.EXPECT().ClaimSettlement(ctx, "session-1", "bob").Return(true, nil)

	aliceRecord := models.NewRatingRecord("alice", 1200)
	aliceRecord.Ratings[models.GameModeStandard] = 1216
	s.ratingsManager.EXPECT().ApplyDelta(ctx, "alice", models.GameModeStandard, 16, models.OutcomeWin).Return(aliceRecord, nil)
	s.notifier.EXPECT().RatingChanged(ctx, "alice", gomock.Any())
	s.ratingsManager.EXPECT().ApplyDelta(ctx, "bob", models.GameModeStandard, -16, models.OutcomeLoss).
		Return(nil, errors.New("ratings store unavailable"))
	// the failed write hands bob's claim back
	s.sessionsManager.EXPECT().ReleaseSettlement(ctx, "session-1", "bob").Return(nil)

	_, _, err := s.service.Settle(ctx, "session-1")
	require.Error(s.T(), err)

	// the retry only re-applies bob's delta; alice's claim stays taken
	s.sessionsManager.EXPECT().Get(ctx, "session-1").Return(settled, nil)
	s.sessionsManager.EXPECT().ClaimSettlement(ctx, "session-1", "alice").Return(false, nil)
	s.sessionsManager.EXPECT().ClaimSettlement(ctx, "session-1", "bob").Return(true, nil)
	bobRecord := models.NewRatingRecord("bob", 1200)
	bobRecord.Ratings[models.GameModeStandard] = 1184
	s.ratingsManager.EXPECT().ApplyDelta(ctx, "bob", models.GameModeStandard, -16, models.OutcomeLoss).Return(bobRecord, nil)
	s.notifier.EXPECT().RatingChanged(ctx, "bob", &notify.RatingChangedEvent{
		GameMode: models.GameModeStandard, Rating: 1184, Delta: -16, Outcome: models.OutcomeLoss,
	})

	result, winner, err := s.service.Settle(ctx, "session-1")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "alice", winner)
	assert.Equal(s.T(), -16, *result.Participant("bob").RatingDelta)
}

func (s *SettlementTestSuite) TestSettleDraw() {
	// neither player trades, both portfolios finish at starting cash
	ready := session(models.SessionKindRanked, models.SessionStatusReady)
	completed := session(models.SessionKindRanked, models.SessionStatusCompleted)
	completed.Draw = true

	s.sessionsManager.EXPECT().Get(ctx, "session-1").Return(ready, nil)
	s.sessionsManager.EXPECT().Complete(ctx, "session-1", gomock.Any(), "", true).Return(completed, nil)
	// a draw between equal ratings moves nothing, but the zero deltas are
	// still recorded and claimed so retries stay idempotent
	settled := session(models.SessionKindRanked, models.SessionStatusCompleted)
	settled.Draw = true
	zero := 0
	settled.Participant("alice").RatingDelta = &zero
	settled.Participant("bob").RatingDelta = &zero
	s.sessionsManager.EXPECT().RecordRatingDeltas(ctx, "session-1", map[string]int{
		"alice": 0, "bob": 0,
	}).Return(settled, nil)
	s.sessionsManager.EXPECT().ClaimSettlement(ctx, "session-1", "alice").Return(true, nil)
	s.sessionsManager.EXPECT().ClaimSettlement(ctx, "session-1", "bob").Return(true, nil)

	record := models.NewRatingRecord("alice", 1200)
	s.ratingsManager.EXPECT().ApplyDelta(ctx, "alice", models.GameModeStandard, 0, models.OutcomeDraw).Return(record, nil)
	s.ratingsManager.EXPECT().ApplyDelta(ctx, "bob", models.GameModeStandard, 0, models.OutcomeDraw).Return(record, nil)
	s.notifier.EXPECT().RatingChanged(ctx, gomock.Any(), gomock.Any()).Times(2)

	_, winner, err := s.service.Settle(ctx, "session-1")
	require.NoError(s.T(), err)
	assert.Empty(s.T(), winner)
}

func TestSettlementTestSuite(t *testing.T) {
	suite.Run(t, new(SettlementTestSuite))
}

func TestValuate(t *testing.T) {
	s := session(models.SessionKindRanked, models.SessionStatusInProgress)
	base := time.Now()
	s.Participant("alice").Trades = []models.TradeFill{
		{Symbol: "AAPL", Side: models.TradeSideBuy, Quantity: 10, Price: 100, At: base},
		{Symbol: "AAPL", Side: models.TradeSideSell, Quantity: 10, Price: 90, At: base.Add(time.Minute)},
	}

	results := settlement.Valuate(s)

	// alice bought at 100 and sold at 90, a 100 dollar loss
	alice := results["alice"]
	assert.InDelta(t, 99_900, alice.FinalValue, 1e-9)
	assert.InDelta(t, -0.1, alice.ReturnPct, 1e-9)
	assert.Equal(t, 2, alice.TradeCount)
	assert.InDelta(t, 0.1, alice.MaxDrawdownPct, 1e-9)

	// bob never traded and keeps his starting cash
	bob := results["bob"]
	assert.InDelta(t, models.StartingCash, bob.FinalValue, 1e-9)
	assert.Zero(t, bob.TradeCount)
}

func TestValuateMarksOpenPositionsToMarket(t *testing.T) {
	s := session(models.SessionKindRanked, models.SessionStatusInProgress)
	base := time.Now()
	s.Participant("alice").Trades = []models.TradeFill{
		{Symbol: "AAPL", Side: models.TradeSideBuy, Quantity: 10, Price: 100, At: base},
	}
	// bob's later fill is the most recent price the session observed,
	// so alice's open position is valued at 120
	s.Participant("bob").Trades = []models.TradeFill{
		{Symbol: "AAPL", Side: models.TradeSideBuy, Quantity: 5, Price: 120, At: base.Add(time.Minute)},
	}

	results := settlement.Valuate(s)
	assert.InDelta(t, 100_200, results["alice"].FinalValue, 1e-9)
	assert.InDelta(t, 100_000, results["bob"].FinalValue, 1e-9)
}

func TestDetermineWinner(t *testing.T) {
	s := session(models.SessionKindRanked, models.SessionStatusInProgress)

	winner, draw := settlement.DetermineWinner(s, map[string]models.Results{
		"alice": {FinalValue: 101_000},
		"bob":   {FinalValue: 99_000},
	})
	assert.Equal(t, "alice", winner)
	assert.False(t, draw)

	winner, draw = settlement.DetermineWinner(s, map[string]models.Results{
		"alice": {FinalValue: 100_000},
		"bob":   {FinalValue: 100_000},
	})
	assert.Empty(t, winner)
	assert.True(t, draw)
}
