package http

import (
	"log"
	"net/http"

	"github.com/Rohith-Kaki/TechClub-Leetcode-Contest/internal/app"
	"github.com/Rohith-Kaki/TechClub-Leetcode-Contest/internal/domain"
	"github.com/gorilla/websocket"
)

// WSHandler streams leaderboard snapshots to connected clients: the current
// board on connect, then a frame after every state-changing finish.
type WSHandler struct {
	progress    *app.ProgressService
	broadcaster *app.LeaderboardBroadcaster
	upgrader    websocket.Upgrader
}

func NewWSHandler(progress *app.ProgressService, broadcaster *app.LeaderboardBroadcaster) *WSHandler {
	return &WSHandler{
		progress:    progress,
		broadcaster: broadcaster,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type outboundMessage struct {
	Type    string             `json:"type"`
	Payload domain.Leaderboard `json:"payload"`
}

// ServeWS upgrades the request and pushes leaderboard frames until the client
// disconnects.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	updates, cancel := h.broadcaster.Subscribe()
	defer cancel()

	if lb, err := h.progress.Leaderboard(r.Context()); err == nil {
		if err := conn.WriteJSON(outboundMessage{Type: "leaderboard", Payload: lb}); err != nil {
			return
		}
	} else {
		log.Printf("ws initial leaderboard failed: %v", err)
	}

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for update := range updates {
			if err := conn.WriteJSON(outboundMessage{Type: "leaderboard", Payload: update}); err != nil {
				return
			}
		}
	}()

	// Drain inbound frames so pings are answered and disconnects are seen.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	cancel()
	<-writerDone
}
