package httptransport

import (
	"expvar"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"poker-room/internal/config"
	"poker-room/internal/lobby"
	"poker-room/internal/spectatorgateway"
	"poker-room/internal/ws"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

func NewRouter(svc *lobby.Service, wsSrv *ws.Server, spectators *spectatorgateway.Hub, store Pinger, cfg config.ServerConfig) *chi.Mux {
	publicHandlers := NewPublicHandlers(svc, store)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(CORSMiddleware(cfg.CORSOrigins))

	r.With(APILogMiddleware()).Get("/healthz", publicHandlers.Health())
	r.Get("/ws", wsSrv.HandleWS)

	r.Route("/api", func(r chi.Router) {
		r.Use(APILogMiddleware())
		r.Use(RateLimitMiddleware(cfg.RateLimitPerMin))
		r.Get("/lobby", publicHandlers.Lobby())
		r.Get("/tables/{table_id}", publicHandlers.Table())
		r.Get("/lobby/events", spectatorgateway.LobbyEventsHandler(spectators, svc))
		r.Get("/tables/{table_id}/events", spectatorgateway.TableEventsHandler(spectators, svc))
	})

	r.Get("/debug/vars", expvar.Handler().ServeHTTP)
	return r
}

func LogRoutes(r chi.Router) {
	type routeDef struct {
		Method string
		Path   string
	}
	routes := make([]routeDef, 0, 16)
	err := chi.Walk(r, func(method string, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		routes = append(routes, routeDef{Method: method, Path: route})
		return nil
	})
	if err != nil {
		log.Error().Err(err).Msg("walk routes failed")
		return
	}
	sort.Slice(routes, func(i, j int) bool {
		if routes[i].Path == routes[j].Path {
			return routes[i].Method < routes[j].Method
		}
		return routes[i].Path < routes[j].Path
	})
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Registered routes (%d):\n", len(routes)))
	for _, rt := range routes {
		b.WriteString(fmt.Sprintf("  %-6s %s\n", rt.Method, rt.Path))
	}
	fmt.Print(b.String())
}
