package httptransport

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"poker-room/internal/lobby"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// Pinger reports whether a backing dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type PublicHandlers struct {
	lobby *lobby.Service
	store Pinger
}

func NewPublicHandlers(svc *lobby.Service, store Pinger) *PublicHandlers {
	return &PublicHandlers{lobby: svc, store: store}
}

func (h *PublicHandlers) Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.store != nil {
			if err := h.store.Ping(r.Context()); err != nil {
				log.Warn().Err(err).Msg("health_store_unavailable")
				WriteHTTPError(w, http.StatusServiceUnavailable, "store_unavailable")
				return
			}
		}
		writeJSON(w, map[string]any{"ok": true, "tables": len(h.lobby.LobbyInfo())})
	}
}

func (h *PublicHandlers) Lobby() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		metricLobbyRequests.Add(1)
		writeJSON(w, h.lobby.LobbyInfo())
	}
}

// Table renders a table for the viewer query parameter; without one the
// public view is returned.
func (h *PublicHandlers) Table() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		metricTableRequests.Add(1)
		id, err := strconv.Atoi(chi.URLParam(r, "table_id"))
		if err != nil || id < 0 {
			metricTableErrors.Add(1)
			WriteHTTPError(w, http.StatusBadRequest, "invalid_table_id")
			return
		}
		snap, err := h.lobby.TableInfo(r.Context(), r.URL.Query().Get("viewer"), id)
		if err != nil {
			metricTableErrors.Add(1)
			switch {
			case errors.Is(err, lobby.ErrTableNotFound):
				WriteHTTPError(w, http.StatusNotFound, "table_not_found")
			default:
				log.Error().Err(err).Int("table_id", id).Msg("table_info_failed")
				WriteHTTPError(w, http.StatusInternalServerError, "internal_error")
			}
			return
		}
		writeJSON(w, snap)
	}
}
