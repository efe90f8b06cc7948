// Package httpapi exposes the server's HTTP surface: the websocket accept
// endpoint, the room browser, health, and metrics.
package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/quadris-game/netcode/internal/config"
	"github.com/quadris-game/netcode/internal/logger"
	"github.com/quadris-game/netcode/internal/server"
	"github.com/quadris-game/netcode/internal/transport"
)

// API routes HTTP traffic into the session core.
type API struct {
	srv      *server.Server
	upgrader websocket.Upgrader
	limiter  *RateLimiter
	origins  []string
}

func New(srv *server.Server, security config.SecurityConfig) *API {
	allowed := security.AllowedOrigins
	return &API{
		srv:     srv,
		origins: allowed,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return originAllowed(r.Header.Get("Origin"), allowed)
			},
		},
		// Limits the upgrade rate, not the message rate.
		limiter: NewRateLimiter(10, 30),
	}
}

// Router builds the chi mux.
func (a *API) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(CORSMiddleware(a.origins))
	r.Get("/healthz", a.handleHealthz)
	r.Get("/rooms", a.handleRooms)
	r.Handle("/metrics", promhttp.Handler())
	r.With(RateLimitMiddleware(a.limiter)).Get("/ws", a.handleWebsocket)
	return r
}

func (a *API) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (a *API) handleRooms(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(a.srv.ListRooms())
}

// handleWebsocket upgrades the connection and hands it to the session core as
// a message channel.
func (a *API) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	conn, err := a.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("websocket upgrade failed", map[string]interface{}{
			"remote": r.RemoteAddr,
			"error":  err.Error(),
		})
		return
	}
	clientID := a.srv.Accept(transport.NewWebsocketChannel(conn))
	logger.Info("websocket client accepted", map[string]interface{}{
		"clientId": string(clientID),
		"remote":   r.RemoteAddr,
	})
}

func originAllowed(origin string, allowed []string) bool {
	if origin == "" {
		// Non-browser clients send no Origin.
		return true
	}
	for _, a := range allowed {
		if origin == a {
			return true
		}
	}
	return false
}
