package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/tecu23/match-server/pkg/repository"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// listLimit parses the limit query parameter, clamped to maxListLimit.
func listLimit(r *http.Request) int {
	limit := defaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	return limit
}

// handleListGames handles GET /api/games?limit=N, newest first.
func (app *application) handleListGames(w http.ResponseWriter, r *http.Request) {
	records, err := app.Repo.ListRecent(r.Context(), listLimit(r))
	if err != nil {
		app.Logger.Error("list games error", zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	app.writeJSON(w, http.StatusOK, records)
}

// handleGetGame handles GET /api/games/{id}.
func (app *application) handleGetGame(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/games/")
	if id == "" {
		http.NotFound(w, r)
		return
	}

	record, err := app.Repo.Get(r.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		app.Logger.Error("get game error", zap.Error(err), zap.String("record_id", id))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	app.writeJSON(w, http.StatusOK, record)
}

func (app *application) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		app.Logger.Error("encode response error", zap.Error(err))
	}
}
