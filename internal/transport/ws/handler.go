package ws

import (
	"net/http"

	"go.uber.org/zap"
	"nhooyr.io/websocket"

	"github.com/vedran77/ripple/internal/auth"
	"github.com/vedran77/ripple/internal/service"
)

// Deps carries everything a live connection needs.
type Deps struct {
	Hub           *Hub
	Verifier      auth.Verifier
	Messages      *service.MessageService
	Presence      *service.PresenceService
	Conversations *service.ConversationService
	Log           *zap.Logger
}

// ServeWS returns an HTTP handler that authenticates and upgrades to
// WebSocket. The credential comes from the ?token= query param or the token
// cookie; a bad credential refuses the connection before any event handler
// exists.
func ServeWS(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tokenStr := r.URL.Query().Get("token")
		if tokenStr == "" {
			if cookie, err := r.Cookie("token"); err == nil {
				tokenStr = cookie.Value
			}
		}

		userID, err := deps.Verifier.Verify(tokenStr)
		if err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true, // Allow any origin (dev mode)
		})
		if err != nil {
			deps.Log.Warn("ws: accept error", zap.Error(err))
			return
		}

		client := NewClient(deps.Hub, conn, userID, deps.Messages, deps.Presence, deps.Log)

		// Register before the presence edge so the broadcast reflects the
		// post-mutation registry state.
		first := deps.Hub.Connect(client)

		if ids, err := deps.Conversations.ListIDs(r.Context(), userID); err != nil {
			deps.Log.Warn("ws: joining conversation groups", zap.String("user_id", userID.String()), zap.Error(err))
		} else {
			for _, id := range ids {
				deps.Hub.JoinConversation(client, id)
			}
		}

		if first {
			if err := deps.Presence.HandleConnect(r.Context(), userID); err != nil {
				deps.Log.Error("ws: online presence", zap.String("user_id", userID.String()), zap.Error(err))
			}
		}

		go client.WritePump()
		go client.ReadPump()
	}
}
