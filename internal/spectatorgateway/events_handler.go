package spectatorgateway

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"poker-room/internal/lobby"
)

var pingInterval = 15 * time.Second

// TableEventsHandler streams the public view of one table. The first event
// is the current snapshot unless the client resumes with Last-Event-ID.
func TableEventsHandler(hub *Hub, svc *lobby.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.Atoi(chi.URLParam(r, "table_id"))
		if err != nil || id < 0 {
			writeError(w, http.StatusBadRequest, "invalid_table_id")
			return
		}
		snap, err := svc.TableInfo(r.Context(), "", id)
		if err != nil {
			if errors.Is(err, lobby.ErrTableNotFound) {
				writeError(w, http.StatusNotFound, "table_not_found")
				return
			}
			log.Error().Err(err).Int("table_id", id).Msg("spectate_table_failed")
			writeError(w, http.StatusInternalServerError, "internal_error")
			return
		}
		serve(w, r, hub.Table(id), StreamEvent{Event: EventTableInfo, ServerTS: time.Now().UnixMilli(), Data: snap})
	}
}

func LobbyEventsHandler(hub *Hub, svc *lobby.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		serve(w, r, hub.Lobby(), StreamEvent{Event: EventLobbyInfo, ServerTS: time.Now().UnixMilli(), Data: svc.LobbyInfo()})
	}
}

func serve(w http.ResponseWriter, r *http.Request, buf *EventBuffer, current StreamEvent) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming_unsupported")
		return
	}
	ch := buf.Subscribe()
	defer buf.Unsubscribe(ch)

	metricSpectatorSSEConnectionsTotal.Add(1)
	metricSpectatorSSEConnectionsActive.Add(1)
	defer metricSpectatorSSEConnectionsActive.Add(-1)

	SetSSEHeaders(w)
	w.WriteHeader(http.StatusOK)
	replay := buf.ReplayAfter(r.Header.Get("Last-Event-ID"))
	if len(replay) == 0 {
		replay = []StreamEvent{current}
	}
	for _, ev := range replay {
		if err := WriteSSE(w, ev); err != nil {
			return
		}
	}
	flusher.Flush()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if err := WriteSSE(w, ev); err != nil {
				return
			}
			flusher.Flush()
		case <-ticker.C:
			ping := StreamEvent{
				Event:    EventPing,
				ServerTS: time.Now().UnixMilli(),
				Data:     map[string]any{"ts": time.Now().UnixMilli()},
			}
			if err := WriteSSE(w, ping); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeError(w http.ResponseWriter, status int, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":"` + code + `"}`))
}
