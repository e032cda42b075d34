package frontend

import (
	"encoding/json"
	"net/http"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/tradeclash/arena/internal/app/matchmaker"
	"github.com/tradeclash/arena/internal/app/settlement"
	"github.com/tradeclash/arena/internal/db/kv"
	"github.com/tradeclash/arena/internal/managers/queue"
	"github.com/tradeclash/arena/internal/managers/ratings"
	"github.com/tradeclash/arena/internal/managers/sessions"
	"github.com/tradeclash/arena/internal/models"
)

// Service implements the HTTP API for matchmaking and battle sessions
type Service struct {
	modes           mapset.Set[models.GameMode]
	queueManager    queue.Manager
	sessionsManager sessions.Manager
	ratingsManager  ratings.Manager
	matchmakerSvc   matchmaker.Service
	settlementSvc   settlement.Service
}

// NewService returns a new frontend Service
func NewService(queueManager queue.Manager, sessionsManager sessions.Manager,
	ratingsManager ratings.Manager, matchmakerSvc matchmaker.Service,
	settlementSvc settlement.Service) *Service {
	return &Service{
		modes:           mapset.NewSet[models.GameMode](models.Modes...),
		queueManager:    queueManager,
		sessionsManager: sessionsManager,
		ratingsManager:  ratingsManager,
		matchmakerSvc:   matchmakerSvc,
		settlementSvc:   settlementSvc,
	}
}

// Router returns the service's route table
func (s *Service) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/matchmaking/join", s.handleJoin).Methods(http.MethodPost)
	r.HandleFunc("/matchmaking/leave", s.handleLeave).Methods(http.MethodPost)
	r.HandleFunc("/matchmaking/status/{userId}", s.handleStatus).Methods(http.MethodGet)
	r.HandleFunc("/sessions/{sessionId}", s.handleGetSession).Methods(http.MethodGet)
	r.HandleFunc("/sessions/{sessionId}/trades", s.handleTrade).Methods(http.MethodPost)
	r.HandleFunc("/sessions/{sessionId}/complete", s.handleComplete).Methods(http.MethodPost)
	return r
}

type joinRequest struct {
	UserID   string          `json:"userId"`
	Username string          `json:"username"`
	GameMode models.GameMode `json:"gameMode"`
}

type opponentInfo struct {
	Username string `json:"username"`
	Rating   int    `json:"rating"`
}

type joinResponse struct {
	Matched   bool          `json:"matched"`
	InQueue   bool          `json:"inQueue"`
	SessionID string        `json:"sessionId,omitempty"`
	Opponent  *opponentInfo `json:"opponent,omitempty"`
}

func (s *Service) handleJoin(w http.ResponseWriter, r *http.Request) {
	var req joinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, errors.New("missing userId"))
		return
	}
	if !s.modes.Contains(req.GameMode) {
		writeError(w, http.StatusBadRequest, errors.Errorf("invalid game mode %q", req.GameMode))
		return
	}
	if req.Username == "" {
		req.Username = req.UserID
	}

	record, err := s.ratingsManager.GetOrCreate(r.Context(), req.UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	entry, err := s.queueManager.Enqueue(r.Context(), req.UserID, req.Username, req.GameMode, record.Ratings[req.GameMode])
	if err != nil {
		if errors.Is(err, queue.ErrAlreadyQueued) {
			writeError(w, http.StatusConflict, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	// one shot pairing against the waiting pool before settling into the
	// periodic scan
	session, opponent, err := s.matchmakerSvc.TryMatchNow(r.Context(), entry)
	if err != nil {
		log.Err(err).Str("user_id", req.UserID).Msg("immediate pairing attempt failed")
	}
	if session != nil {
		writeJSON(w, http.StatusOK, &joinResponse{
			Matched:   true,
			SessionID: session.ID,
			Opponent: &opponentInfo{
				Username: opponent.Username,
				Rating:   opponent.CurrentRating,
			},
		})
		return
	}
	writeJSON(w, http.StatusOK, &joinResponse{InQueue: true})
}

type leaveRequest struct {
	UserID string `json:"userId"`
}

func (s *Service) handleLeave(w http.ResponseWriter, r *http.Request) {
	var req leaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, errors.New("missing userId"))
		return
	}
	if err := s.queueManager.Dequeue(r.Context(), req.UserID); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

type statusResponse struct {
	InQueue   bool   `json:"inQueue"`
	Matched   bool   `json:"matched,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
}

func (s *Service) handleStatus(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]
	entry, err := s.queueManager.Get(r.Context(), userID)
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			writeJSON(w, http.StatusOK, &statusResponse{InQueue: false})
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if entry.Status == models.QueueStatusMatched {
		writeJSON(w, http.StatusOK, &statusResponse{Matched: true, SessionID: entry.MatchedSessionID})
		return
	}
	writeJSON(w, http.StatusOK, &statusResponse{InQueue: true})
}

func (s *Service) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]
	session, err := s.sessionsManager.Get(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			writeError(w, http.StatusNotFound, errors.New("session not found"))
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

type tradeRequest struct {
	UserID   string           `json:"userId"`
	Symbol   string           `json:"symbol"`
	Side     models.TradeSide `json:"side"`
	Quantity float64          `json:"quantity"`
	Price    float64          `json:"price"`
}

func (s *Service) handleTrade(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]
	var req tradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}
	if req.UserID == "" || req.Symbol == "" {
		writeError(w, http.StatusBadRequest, errors.New("missing userId or symbol"))
		return
	}
	session, err := s.sessionsManager.AppendTrade(r.Context(), sessionID, req.UserID, models.TradeFill{
		Symbol:   req.Symbol,
		Side:     req.Side,
		Quantity: req.Quantity,
		Price:    req.Price,
	})
	if err != nil {
		switch {
		case errors.Is(err, kv.ErrNotFound):
			writeError(w, http.StatusNotFound, errors.New("session not found"))
		case errors.Is(err, sessions.ErrCompleted):
			writeError(w, http.StatusConflict, err)
		case errors.Is(err, sessions.ErrNotParticipant):
			writeError(w, http.StatusForbidden, err)
		case errors.Is(err, sessions.ErrOutsideWindow):
			writeError(w, http.StatusBadRequest, err)
		default:
			writeError(w, http.StatusBadRequest, err)
		}
		return
	}
	writeJSON(w, http.StatusOK, session)
}

type completeResponse struct {
	Session *models.Session `json:"session"`
	Winner  string          `json:"winner"`
	Draw    bool            `json:"draw"`
}

func (s *Service) handleComplete(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]
	session, winner, err := s.settlementSvc.Settle(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			writeError(w, http.StatusNotFound, errors.New("session not found"))
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, &completeResponse{Session: session, Winner: winner, Draw: session.Draw})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
