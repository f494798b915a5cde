package controllers

import (
	"net/http"

	"backend/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

type RealtimeController struct {
	Hub *services.NotificationHub
}

func NewRealtimeController(hub *services.NotificationHub) *RealtimeController {
	return &RealtimeController{Hub: hub}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true }, // tighten behind ALB/CloudFront if needed
}

// NotificationsWS subscribes the caller to its notification stream. Writes
// (including keepalive pings) are handled by the hub's per-client pump;
// this handler only watches for the peer going away.
func (rc *RealtimeController) NotificationsWS(c *gin.Context) {
	uid := c.GetUint("userID")

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	client := rc.Hub.Register(uid, conn)
	defer rc.Hub.Unregister(client)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
