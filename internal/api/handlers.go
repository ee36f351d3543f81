package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/easelhq/easel/backend/internal/board"
	"github.com/easelhq/easel/backend/internal/snapshot"
	"github.com/easelhq/easel/backend/internal/store"
	"github.com/easelhq/easel/backend/internal/ws"
)

// API is the thin management layer around the sync core: health, stats and
// board administration. Realtime traffic never passes through here.
type API struct {
	hub      *ws.Hub
	registry *board.Registry
	store    *store.SQLite
	saver    *snapshot.Service
	log      zerolog.Logger
}

func New(hub *ws.Hub, registry *board.Registry, st *store.SQLite, saver *snapshot.Service, log zerolog.Logger) *API {
	return &API{
		hub:      hub,
		registry: registry,
		store:    st,
		saver:    saver,
		log:      log,
	}
}

func (a *API) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		a.log.Warn().Err(err).Msg("encode json response")
	}
}

func (a *API) errorResponse(w http.ResponseWriter, status int, message string) {
	a.jsonResponse(w, status, map[string]string{"error": message})
}

func (a *API) HealthHandler(w http.ResponseWriter, r *http.Request) {
	a.jsonResponse(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (a *API) StatsHandler(w http.ResponseWriter, r *http.Request) {
	stats := map[string]any{
		"active_boards":  a.registry.Count(),
		"active_clients": a.hub.ClientCount(),
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
	}

	if dbStats, err := a.store.Stats(r.Context()); err == nil {
		stats["saved_boards"] = dbStats["board_count"]
		stats["saved_elements"] = dbStats["saved_element_count"]
	}

	a.jsonResponse(w, http.StatusOK, stats)
}

type BoardResponse struct {
	ID           string    `json:"id"`
	Owner        string    `json:"owner,omitempty"`
	ElementCount int       `json:"element_count"`
	ActiveUsers  int       `json:"active_users"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// BoardsRouter dispatches /api/boards, /api/boards/{id} and
// /api/boards/{id}/save.
func (a *API) BoardsRouter(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/boards"), "/")

	switch {
	case path == "":
		if r.Method != http.MethodGet {
			a.errorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		a.ListBoardsHandler(w, r)

	case strings.HasSuffix(path, "/save"):
		if r.Method != http.MethodPost {
			a.errorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		a.SaveBoardHandler(w, r, strings.TrimSuffix(path, "/save"))

	default:
		switch r.Method {
		case http.MethodGet:
			a.GetBoardHandler(w, r, path)
		case http.MethodDelete:
			a.DeleteBoardHandler(w, r, path)
		default:
			a.errorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	}
}

func (a *API) ListBoardsHandler(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if offset < 0 {
		offset = 0
	}

	records, err := a.store.ListBoards(r.Context(), limit, offset)
	if err != nil {
		a.errorResponse(w, http.StatusInternalServerError, "Failed to list boards")
		return
	}

	active := a.registry.ActiveBoards()
	response := make([]BoardResponse, len(records))
	for i, rec := range records {
		response[i] = BoardResponse{
			ID:           rec.ID,
			Owner:        rec.Owner,
			ElementCount: rec.ElementCount,
			ActiveUsers:  active[rec.ID],
			CreatedAt:    rec.CreatedAt,
			UpdatedAt:    rec.UpdatedAt,
		}
	}

	a.jsonResponse(w, http.StatusOK, map[string]any{
		"boards": response,
		"limit":  limit,
		"offset": offset,
	})
}

func (a *API) GetBoardHandler(w http.ResponseWriter, r *http.Request, boardID string) {
	rec, err := a.store.GetBoard(r.Context(), boardID)
	if err != nil {
		a.errorResponse(w, http.StatusInternalServerError, "Failed to get board")
		return
	}
	if rec == nil {
		a.errorResponse(w, http.StatusNotFound, "Board not found")
		return
	}

	active := a.registry.ActiveBoards()
	a.jsonResponse(w, http.StatusOK, BoardResponse{
		ID:           rec.ID,
		Owner:        rec.Owner,
		ElementCount: rec.ElementCount,
		ActiveUsers:  active[boardID],
		CreatedAt:    rec.CreatedAt,
		UpdatedAt:    rec.UpdatedAt,
	})
}

func (a *API) DeleteBoardHandler(w http.ResponseWriter, r *http.Request, boardID string) {
	if err := a.store.DeleteBoard(r.Context(), boardID); err != nil {
		a.errorResponse(w, http.StatusInternalServerError, "Failed to delete board")
		return
	}
	a.jsonResponse(w, http.StatusOK, map[string]string{"status": "deleted"})
}

type saveBoardRequest struct {
	Owner string `json:"owner,omitempty"`
}

// SaveBoardHandler persists a live board's current state on demand,
// outside the periodic schedule.
func (a *API) SaveBoardHandler(w http.ResponseWriter, r *http.Request, boardID string) {
	var req saveBoardRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			a.errorResponse(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	count, err := a.saver.SaveNow(r.Context(), boardID, req.Owner)
	if err != nil {
		if errors.Is(err, snapshot.ErrBoardNotActive) {
			a.errorResponse(w, http.StatusConflict, "Board has no active sessions")
			return
		}
		a.errorResponse(w, http.StatusInternalServerError, "Failed to save board")
		return
	}

	a.jsonResponse(w, http.StatusOK, map[string]any{
		"status":   "saved",
		"elements": count,
	})
}
