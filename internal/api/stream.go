package api

import (
	"encoding/json"
	"math"
	"net/http"
	"slices"

	"github.com/gorilla/websocket"

	"github.com/MikeSquared-Agency/KScore/internal/scoring"
)

// probeMessage is one pointer position sent by a streaming client.
type probeMessage struct {
	X       float64  `json:"x"`
	Y       float64  `json:"y"`
	Width   int      `json:"width"`
	Variant string   `json:"variant"`
	P       *float64 `json:"wp,omitempty"`
	R       *float64 `json:"wr,omitempty"`
}

func newUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || slices.Contains(allowedOrigins, "*") || slices.Contains(allowedOrigins, origin)
		},
	}
}

// ProbeStream answers a probe for every message on a WebSocket until the
// client disconnects. Malformed messages get an error reply and the stream
// stays open.
func (h *PlotHandler) ProbeStream(upgrader websocket.Upgrader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.logger.Warn("websocket upgrade failed", "error", err)
			return
		}
		defer conn.Close()

		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					h.logger.Warn("probe stream closed", "error", err)
				}
				return
			}

			var msg probeMessage
			if err := json.Unmarshal(data, &msg); err != nil || !finite(msg.X, msg.Y) {
				if err := conn.WriteJSON(map[string]string{"error": "invalid message"}); err != nil {
					return
				}
				continue
			}
			variant, err := scoring.ParseVariant(msg.Variant)
			if err != nil || msg.Width < 0 {
				if err := conn.WriteJSON(map[string]string{"error": "invalid variant or width"}); err != nil {
					return
				}
				continue
			}

			pq := plotQuery{Width: msg.Width, Variant: variant, P: msg.P, R: msg.R}
			pr, err := h.probe(r.Context(), pq, msg.X, msg.Y, "ws")
			if err != nil {
				if err := conn.WriteJSON(map[string]string{"error": err.Error()}); err != nil {
					return
				}
				continue
			}
			if err := conn.WriteJSON(pr); err != nil {
				return
			}
		}
	}
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
