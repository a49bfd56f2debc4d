package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/yeremiapane/restaurant-reservation/live"
)

type LiveController struct {
	Hub      *live.Hub
	upgrader websocket.Upgrader
}

// NewLiveController accepts upgrades from allowedOrigins; a "*" entry or an
// empty list accepts any origin.
func NewLiveController(hub *live.Hub, allowedOrigins []string) *LiveController {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return &LiveController{
		Hub: hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || len(allowed) == 0 || allowed["*"] || allowed[origin]
			},
		},
	}
}

// Subscribe upgrades the connection and streams live events until the
// client disconnects.
func (lc *LiveController) Subscribe(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	ws, err := lc.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	lc.Hub.Register(ws, live.Subscriber{UserID: actor.UserID, Roles: actor.Roles})

	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			break
		}
	}
	lc.Hub.Unregister(ws)
}
