package wsfeed

import (
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The dashboard feed is read-only internal state, not a trust boundary
	// the way a venue order-entry socket would be; any origin may observe it.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handler upgrades GET /ws into a registered dashboard Client.
func Handler(hub *Hub, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warn("websocket-upgrade-failed", zap.Error(err))
			return
		}
		NewClient(hub, conn)
	}
}
