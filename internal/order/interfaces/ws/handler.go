// Package ws 订单事件的 WebSocket 推送接口。
// 每条连接通过有界事件队列订阅单个客户主题，慢连接丢事件而不拖垮发布方。
package ws

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/wyfcoding/pkg/logging"

	"github.com/wyfcoding/ordermanagement/internal/order/domain"
	"github.com/wyfcoding/ordermanagement/pkg/eventbus"
	"github.com/wyfcoding/ordermanagement/pkg/metrics"
)

const fallbackClientID = "demo-client-1"

var upgrader = websocket.Upgrader{
	// 演示环境允许任意来源，生产部署应收敛到前端域名
	CheckOrigin: func(r *http.Request) bool { return true },
}

// StreamHandler 处理订单事件流的 WebSocket 连接
type StreamHandler struct {
	bus       *eventbus.Bus[domain.Event]
	queueSize int
	pingEvery time.Duration
	metrics   *metrics.Metrics
}

// NewStreamHandler 创建 WebSocket 处理器
func NewStreamHandler(bus *eventbus.Bus[domain.Event], queueSize int, pingEvery time.Duration, m *metrics.Metrics) *StreamHandler {
	if pingEvery <= 0 {
		pingEvery = 30 * time.Second
	}
	return &StreamHandler{
		bus:       bus,
		queueSize: queueSize,
		pingEvery: pingEvery,
		metrics:   m,
	}
}

// RegisterRoutes 注册路由。事件流不挂在 /api/v1 下。
func (h *StreamHandler) RegisterRoutes(r *gin.Engine) {
	r.GET("/ws/orders", h.Stream)
}

func resolveClientID(c *gin.Context) string {
	if clientID := c.Query("clientId"); clientID != "" {
		return clientID
	}
	if clientID := c.GetHeader("X-Client-Id"); clientID != "" {
		return clientID
	}
	return fallbackClientID
}

// Stream 将连接升级为 WebSocket 并推送该客户的订单事件
func (h *StreamHandler) Stream(c *gin.Context) {
	clientID := resolveClientID(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade 失败时响应已写出，这里只记录
		logging.Error(c.Request.Context(), "WebSocket upgrade failed", "client_id", clientID, "error", err)
		return
	}
	defer conn.Close()

	feed := eventbus.NewFeed(h.bus, domain.OrderTopic(clientID), h.queueSize, h.onDrop)
	defer feed.Close()

	// 读取泵只用于感知断连，客户端发来的消息本身被忽略
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(h.pingEvery)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case event := <-feed.Events():
			if err := conn.WriteJSON(event); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *StreamHandler) onDrop() {
	if h.metrics != nil {
		h.metrics.EventsDroppedTotal.Inc()
	}
}
