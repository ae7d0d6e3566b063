/*
Package handler provides the HTTP handlers and routing for the chat server.

This file contains the WebSocket upgrade handler. It only performs rate
limiting and the transport upgrade; authentication happens in-band through
the connection's own state machine.
*/
package handler

import (
	"net/http"

	"github.com/gorilla/websocket"

	"pulsechat/internal/app/chat"
	"pulsechat/internal/pkg/errs"
	"pulsechat/internal/pkg/limiter"
	"pulsechat/internal/pkg/logx"
	"pulsechat/internal/pkg/resp"
)

// HandleWebSocket upgrades the request and runs the connection's pumps until
// it closes.
func HandleWebSocket(upgrader websocket.Upgrader, rateLimiter *limiter.IPRateLimiter, deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := limiter.ClientIP(r)

		if !rateLimiter.GetLimiter(ip).Allow() {
			logx.Warn("WebSocket connection rejected: rate limit exceeded", "ip", ip)
			resp.RespondError(w, r, errs.NewError(errs.ErrRateLimitExceeded))
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Error(err, "Failed to upgrade connection to WebSocket")
			return
		}

		client := chat.NewClient(deps.Hub, chat.NewWebSocketTransport(conn))

		logx.Info("WebSocket connection established", "connection_id", client.ID())

		go client.WritePump()
		client.ReadPump()
	}
}
