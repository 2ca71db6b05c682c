package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// upgrader permits any origin: the coordinator's WebSocket clients are
// native mobile/desktop trading clients, not browser pages subject to
// same-origin policy, matching spec.md §1's named client surface.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

const (
	writeTimeout = 10 * time.Second
	pingInterval = 30 * time.Second
)

// handleWebSocket upgrades the connection, authenticates the trader via
// their public key query parameter, and pumps internal/notifier.Hub
// messages to the socket until it closes.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	pubkeyHex := r.URL.Query().Get("pubkey")
	pubkey, err := parsePubkeyHex(pubkeyHex)
	if err != nil {
		http.Error(w, "missing or malformed pubkey query parameter", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Errorf("websocket upgrade failed for %x: %v", pubkey.SerializeCompressed(), err)
		return
	}
	defer conn.Close()

	outbound := s.Hub.Register(pubkey)
	defer s.Hub.Unregister(pubkey)

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	// Drain inbound frames on a side goroutine purely to notice the
	// client disconnecting (the coordinator never expects inbound
	// WebSocket payloads; all writes go through the HTTP/JSON handlers).
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case msg, ok := <-outbound:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteJSON(msg); err != nil {
				log.Warnf("writing to websocket client %x: %v", pubkey.SerializeCompressed(), err)
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-closed:
			return
		}
	}
}
