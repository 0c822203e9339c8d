package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/palemoky/wolfpath/internal/logger"
	"github.com/palemoky/wolfpath/internal/model"
	"github.com/palemoky/wolfpath/internal/server/handler"
	"github.com/palemoky/wolfpath/internal/server/storage"
)

const (
	minNameLen = 3
	maxNameLen = 20

	maxLobbyBody = 4096
)

type createRoomRequest struct {
	Code         string           `json:"code"`
	Salary       *decimal.Decimal `json:"salary,omitempty"`
	WinningScore *decimal.Decimal `json:"winning_score,omitempty"`
	BoardSize    int              `json:"board_size,omitempty"`
}

type createPlayerRequest struct {
	Nickname string `json:"nickname"`
	GameCode string `json:"game_code"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func validName(s string) bool {
	n := utf8.RuneCountInString(s)
	return n >= minNameLen && n <= maxNameLen
}

// handleCreateRoom serves POST /sessions.
func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var req createRoomRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	code := strings.TrimSpace(req.Code)
	if !validName(code) {
		writeError(w, http.StatusBadRequest, "code must be 3-20 characters")
		return
	}
	if req.BoardSize < 0 {
		writeError(w, http.StatusBadRequest, "board_size must be positive")
		return
	}

	room := &model.Room{
		Code:         code,
		Salary:       s.defaults.Salary,
		WinningScore: s.defaults.WinningScore,
		BoardSize:    s.defaults.BoardSize,
		CreatedAt:    time.Now(),
	}
	if req.Salary != nil {
		if req.Salary.IsNegative() {
			writeError(w, http.StatusBadRequest, "salary must not be negative")
			return
		}
		room.Salary = model.RoundMoney(*req.Salary)
	}
	if req.WinningScore != nil {
		if !req.WinningScore.IsPositive() {
			writeError(w, http.StatusBadRequest, "winning_score must be positive")
			return
		}
		room.WinningScore = model.RoundMoney(*req.WinningScore)
	}
	if req.BoardSize > 0 {
		room.BoardSize = req.BoardSize
	}

	if err := s.store.CreateRoom(r.Context(), room); err != nil {
		if errors.Is(err, storage.ErrRoomExists) {
			writeError(w, http.StatusBadRequest, "code already in use")
			return
		}
		logger.Error("create room failed", "code", code, "err", err)
		writeError(w, http.StatusServiceUnavailable, "storage unavailable")
		return
	}

	logger.Info("🏠 room created", "code", room.Code, "board_size", room.BoardSize)
	writeJSON(w, http.StatusCreated, room)
}

// handleCreatePlayer serves POST /players.
func (s *Server) handleCreatePlayer(w http.ResponseWriter, r *http.Request) {
	var req createPlayerRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	nickname := handler.SanitizeNickname(req.Nickname)
	if !validName(nickname) {
		writeError(w, http.StatusBadRequest, "nickname must be 3-20 characters")
		return
	}
	code := strings.TrimSpace(req.GameCode)

	player := model.NewPlayer(uuid.New().String(), nickname, code)
	if err := s.store.CreatePlayer(r.Context(), player); err != nil {
		switch {
		case errors.Is(err, storage.ErrRoomNotFound):
			writeError(w, http.StatusNotFound, "room not found")
		case errors.Is(err, storage.ErrNicknameTaken):
			writeError(w, http.StatusBadRequest, "nickname already taken in this room")
		default:
			logger.Error("create player failed", "room", code, "err", err)
			writeError(w, http.StatusServiceUnavailable, "storage unavailable")
		}
		return
	}

	logger.Info("🙋 player created", "player", player.Nickname, "id", player.ID, "room", code)
	writeJSON(w, http.StatusCreated, player)
}

// handleResetRoom serves DELETE /sessions/{code}. The room, its players and
// its leaderboard are removed and anyone still connected is dropped.
func (s *Server) handleResetRoom(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if err := s.handler.ResetRoom(r.Context(), code); err != nil {
		if errors.Is(err, storage.ErrRoomNotFound) {
			writeError(w, http.StatusNotFound, "room not found")
			return
		}
		logger.Error("reset room failed", "code", code, "err", err)
		writeError(w, http.StatusServiceUnavailable, "storage unavailable")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		logger.Warn("health check failed", "err", err)
		http.Error(w, "storage unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxLobbyBody))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// writeJSON leaves <, > and & unescaped.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		logger.Debug("write response failed", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
