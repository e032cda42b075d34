package frontend_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/tradeclash/arena/internal/app/frontend"
	matchmakerMock "github.com/tradeclash/arena/internal/app/matchmaker/mock"
	settlementMock "github.com/tradeclash/arena/internal/app/settlement/mock"
	"github.com/tradeclash/arena/internal/db/kv"
	"github.com/tradeclash/arena/internal/managers/queue"
	queueMock "github.com/tradeclash/arena/internal/managers/queue/mock"
	ratingsMock "github.com/tradeclash/arena/internal/managers/ratings/mock"
	"github.com/tradeclash/arena/internal/managers/sessions"
	sessionsMock "github.com/tradeclash/arena/internal/managers/sessions/mock"
	"github.com/tradeclash/arena/internal/models"
)

type FrontendTestSuite struct {
	suite.Suite
	service         *frontend.Service
	queueManager    *queueMock.MockManager
	sessionsManager *sessionsMock.MockManager
	ratingsManager  *ratingsMock.MockManager
	matchmakerSvc   *matchmakerMock.MockService
	settlementSvc   *settlementMock.MockService
}

func (s *FrontendTestSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.queueManager = queueMock.NewMockManager(ctrl)
	s.sessionsManager = sessionsMock.NewMockManager(ctrl)
	s.ratingsManager = ratingsMock.NewMockManager(ctrl)
	s.matchmakerSvc = matchmakerMock.NewMockService(ctrl)
	s.settlementSvc = settlementMock.NewMockService(ctrl)
	s.service = frontend.NewService(s.queueManager, s.sessionsManager,
		s.ratingsManager, s.matchmakerSvc, s.settlementSvc)
}

func (s *FrontendTestSuite) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.T(), json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	s.service.Router().ServeHTTP(w, req)
	return w
}

func (s *FrontendTestSuite) decode(w *httptest.ResponseRecorder, v interface{}) {
	require.NoError(s.T(), json.NewDecoder(w.Body).Decode(v))
}

func (s *FrontendTestSuite) TestJoinValidation() {
	for _, tt := range []struct {
		name string
		body map[string]interface{}
	}{
		{name: "missing userId", body: map[string]interface{}{"gameMode": "standard"}},
		{name: "invalid game mode", body: map[string]interface{}{"userId": "alice", "gameMode": "bullet"}},
		{name: "missing game mode", body: map[string]interface{}{"userId": "alice"}},
	} {
		s.Run(tt.name, func() {
			w := s.do(http.MethodPost, "/matchmaking/join", tt.body)
			assert.Equal(s.T(), http.StatusBadRequest, w.Code)
		})
	}
}

func (s *FrontendTestSuite) TestJoinEntersQueue() {
	record := models.NewRatingRecord("alice", 1200)
	entry := &models.QueueEntry{UserID: "alice", GameMode: models.GameModeStandard, CurrentRating: 1200}

	s.ratingsManager.EXPECT().GetOrCreate(gomock.Any(), "alice").Return(record, nil)
	s.queueManager.EXPECT().Enqueue(gomock.Any(), "alice", "alice", models.GameModeStandard, 1200).Return(entry, nil)
	s.matchmakerSvc.EXPECT().TryMatchNow(gomock.Any(), entry).Return(nil, nil, nil)

	w := s.do(http.MethodPost, "/matchmaking/join", map[string]interface{}{
		"userId": "alice", "gameMode": "standard",
	})
	require.Equal(s.T(), http.StatusOK, w.Code)

	var resp struct {
		Matched bool `json:"matched"`
		InQueue bool `json:"inQueue"`
	}
	s.decode(w, &resp)
	assert.False(s.T(), resp.Matched)
	assert.True(s.T(), resp.InQueue)
}

func (s *FrontendTestSuite) TestJoinImmediateMatch() {
	record := models.NewRatingRecord("alice", 1200)
	entry := &models.QueueEntry{UserID: "alice", GameMode: models.GameModeStandard, CurrentRating: 1200}
	opponent := &models.QueueEntry{UserID: "bob", Username: "bob", CurrentRating: 1250}

	s.ratingsManager.EXPECT().GetOrCreate(gomock.Any(), "alice").Return(record, nil)
	s.queueManager.EXPECT().Enqueue(gomock.Any(), "alice", "alice", models.GameModeStandard, 1200).Return(entry, nil)
	s.matchmakerSvc.EXPECT().TryMatchNow(gomock.Any(), entry).
		Return(&models.Session{ID: "session-1"}, opponent, nil)

	w := s.do(http.MethodPost, "/matchmaking/join", map[string]interface{}{
		"userId": "alice", "gameMode": "standard",
	})
	require.Equal(s.T(), http.StatusOK, w.Code)

	var resp struct {
		Matched   bool   `json:"matched"`
		SessionID string `json:"sessionId"`
		Opponent  struct {
			Username string `json:"username"`
			Rating   int    `json:"rating"`
		} `json:"opponent"`
	}
	s.decode(w, &resp)
	assert.True(s.T(), resp.Matched)
	assert.Equal(s.T(), "session-1", resp.SessionID)
	assert.Equal(s.T(), "bob", resp.Opponent.Username)
	assert.Equal(s.T(), 1250, resp.Opponent.Rating)
}

func (s *FrontendTestSuite) TestJoinAlreadyQueued() {
	record := models.NewRatingRecord("alice", 1200)
	s.ratingsManager.EXPECT().GetOrCreate(gomock.Any(), "alice").Return(record, nil)
	s.queueManager.EXPECT().Enqueue(gomock.Any(), "alice", "alice", models.GameModeStandard, 1200).
		Return(nil, queue.ErrAlreadyQueued)

	w := s.do(http.MethodPost, "/matchmaking/join", map[string]interface{}{
		"userId": "alice", "gameMode": "standard",
	})
	assert.Equal(s.T(), http.StatusConflict, w.Code)
}

func (s *FrontendTestSuite) TestLeave() {
	s.queueManager.EXPECT().Dequeue(gomock.Any(), "alice").Return(nil)
	w := s.do(http.MethodPost, "/matchmaking/leave", map[string]interface{}{"userId": "alice"})
	assert.Equal(s.T(), http.StatusOK, w.Code)
}

func (s *FrontendTestSuite) TestStatus() {
	s.queueManager.EXPECT().Get(gomock.Any(), "alice").
		Return(&models.QueueEntry{UserID: "alice", Status: models.QueueStatusSearching}, nil)
	w := s.do(http.MethodGet, "/matchmaking/status/alice", nil)
	require.Equal(s.T(), http.StatusOK, w.Code)

	var resp struct {
		InQueue bool `json:"inQueue"`
	}
	s.decode(w, &resp)
	assert.True(s.T(), resp.InQueue)
}

func (s *FrontendTestSuite) TestStatusMatched() {
	s.queueManager.EXPECT().Get(gomock.Any(), "alice").Return(&models.QueueEntry{
		UserID: "alice", Status: models.QueueStatusMatched, MatchedSessionID: "session-1",
	}, nil)
	w := s.do(http.MethodGet, "/matchmaking/status/alice", nil)
	require.Equal(s.T(), http.StatusOK, w.Code)

	var resp struct {
		Matched   bool   `json:"matched"`
		SessionID string `json:"sessionId"`
	}
	s.decode(w, &resp)
	assert.True(s.T(), resp.Matched)
	assert.Equal(s.T(), "session-1", resp.SessionID)
}

func (s *FrontendTestSuite) TestStatusNotQueued() {
	s.queueManager.EXPECT().Get(gomock.Any(), "alice").Return(nil, kv.ErrNotFound)
	w := s.do(http.MethodGet, "/matchmaking/status/alice", nil)
	require.Equal(s.T(), http.StatusOK, w.Code)

	var resp struct {
		InQueue bool `json:"inQueue"`
	}
	s.decode(w, &resp)
	assert.False(s.T(), resp.InQueue)
}

func (s *FrontendTestSuite) TestGetSession() {
	s.sessionsManager.EXPECT().Get(gomock.Any(), "session-1").
		Return(&models.Session{ID: "session-1"}, nil)
	w := s.do(http.MethodGet, "/sessions/session-1", nil)
	require.Equal(s.T(), http.StatusOK, w.Code)

	var resp models.Session
	s.decode(w, &resp)
	assert.Equal(s.T(), "session-1", resp.ID)
}

func (s *FrontendTestSuite) TestGetSessionNotFound() {
	s.sessionsManager.EXPECT().Get(gomock.Any(), "nope").Return(nil, kv.ErrNotFound)
	w := s.do(http.MethodGet, "/sessions/nope", nil)
	assert.Equal(s.T(), http.StatusNotFound, w.Code)
}

func (s *FrontendTestSuite) TestTrade() {
	s.sessionsManager.EXPECT().AppendTrade(gomock.Any(), "session-1", "alice", models.TradeFill{
		Symbol: "AAPL", Side: models.TradeSideBuy, Quantity: 10, Price: 150,
	}).Return(&models.Session{ID: "session-1", Status: models.SessionStatusInProgress}, nil)

	w := s.do(http.MethodPost, "/sessions/session-1/trades", map[string]interface{}{
		"userId": "alice", "symbol": "AAPL", "side": "buy", "quantity": 10, "price": 150,
	})
	require.Equal(s.T(), http.StatusOK, w.Code)

	var resp models.Session
	s.decode(w, &resp)
	assert.Equal(s.T(), models.SessionStatusInProgress, resp.Status)
}

func (s *FrontendTestSuite) TestTradeErrors() {
	for _, tt := range []struct {
		name string
		err  error
		code int
	}{
		{name: "session not found", err: kv.ErrNotFound, code: http.StatusNotFound},
		{name: "session completed", err: sessions.ErrCompleted, code: http.StatusConflict},
		{name: "not a participant", err: sessions.ErrNotParticipant, code: http.StatusForbidden},
		{name: "outside trading window", err: sessions.ErrOutsideWindow, code: http.StatusBadRequest},
		{name: "invalid fill", err: fmt.Errorf("insufficient cash for buy"), code: http.StatusBadRequest},
	} {
		s.Run(tt.name, func() {
			s.sessionsManager.EXPECT().AppendTrade(gomock.Any(), "session-1", "alice", gomock.Any()).
				Return(nil, tt.err)
			w := s.do(http.MethodPost, "/sessions/session-1/trades", map[string]interface{}{
				"userId": "alice", "symbol": "AAPL", "side": "buy", "quantity": 1, "price": 1,
			})
			assert.Equal(s.T(), tt.code, w.Code)
		})
	}
}

func (s *FrontendTestSuite) TestComplete() {
	settled := &models.Session{ID: "session-1", Status: models.SessionStatusCompleted, WinnerID: "alice"}
	s.settlementSvc.EXPECT().Settle(gomock.Any(), "session-1").Return(settled, "alice", nil)

	w := s.do(http.MethodPost, "/sessions/session-1/complete", nil)
	require.Equal(s.T(), http.StatusOK, w.Code)

	var resp struct {
		Winner string `json:"winner"`
		Draw   bool   `json:"draw"`
	}
	s.decode(w, &resp)
	assert.Equal(s.T(), "alice", resp.Winner)
	assert.False(s.T(), resp.Draw)
}

func (s *FrontendTestSuite) TestCompleteNotFound() {
	s.settlementSvc.EXPECT().Settle(gomock.Any(), "nope").Return(nil, "", kv.ErrNotFound)
	w := s.do(http.MethodPost, "/sessions/nope/complete", nil)
	assert.Equal(s.T(), http.StatusNotFound, w.Code)
}

func TestFrontendTestSuite(t *testing.T) {
	suite.Run(t, new(FrontendTestSuite))
}
