package websocket

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	applog "github.com/replyhq/reply-backend/internal/logger"
)

// NewSecureUpgrader creates an upgrader that only accepts the given
// origins. Browsers always send Origin on cross-site WebSocket
// handshakes; a missing header means a same-origin or non-browser
// client and is allowed through, the identity middleware has already
// run at that point.
func NewSecureUpgrader(allowedOrigins []string, logger *slog.Logger) websocket.Upgrader {
	origins := make([]string, 0, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			origins = append(origins, origin)
		}
	}
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}

	return websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}

			for _, allowed := range origins {
				if allowed == origin {
					return true
				}
			}

			if logger != nil {
				applog.SecurityLoggerFrom(logger).InvalidOrigin(r.RemoteAddr, origin)
			}
			return false
		},
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}
}
