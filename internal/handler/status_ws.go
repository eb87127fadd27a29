package handler

import (
	"net/http"
	"time"

	"wifipesa/internal/domain"
	"wifipesa/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// StreamStatus upgrades the connection and pushes the payment status every
// poll interval until a terminal state or the deadline. STK pushes resolve
// within about a minute, so 90s covers the prompt plus PIN entry.
func (h *PaymentHandler) StreamStatus(c *gin.Context) {
	checkoutID := c.Param("checkout_id")
	seconds := h.sessionSeconds(c)
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx := c.Request.Context()
	deadline := time.Now().Add(h.streamDeadline)
	for {
		res, err := h.payments.CheckStatus(ctx, checkoutID, seconds)
		if err != nil {
			if conn.WriteJSON(service.StatusResult{Status: domain.PaymentPending, Reason: "status check failed"}) != nil {
				return
			}
		} else {
			if conn.WriteJSON(res) != nil {
				return
			}
			if res.Status != domain.PaymentPending {
				return
			}
		}
		if time.Now().After(deadline) {
			conn.WriteJSON(service.StatusResult{Status: domain.PaymentPending, Reason: "timed out, retry or use verify-code"})
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(h.streamInterval):
		}
	}
}
