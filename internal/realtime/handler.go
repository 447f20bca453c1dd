package realtime

import (
	"log"
	"net/http"

	ws "github.com/coder/websocket"

	"github.com/hearthkeep/hearthkeep/internal/auth"
)

// HandleWebSocket returns an HTTP handler that upgrades connections to
// WebSocket and runs them as Hub clients. Must sit behind RequireAuth so
// the client can be tagged with its user and household.
func HandleWebSocket(hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ac, ok := auth.FromContext(r.Context())
		if !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		conn, err := ws.Accept(w, r, &ws.AcceptOptions{
			InsecureSkipVerify: true, // Allow connections from any origin (household LAN)
		})
		if err != nil {
			log.Printf("realtime: accept: %v", err)
			return
		}

		client := NewClient(hub, conn, ac.UserID, ac.HouseholdID)
		client.Run(r.Context())
	}
}
