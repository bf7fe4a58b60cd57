package websocket

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/nguyenhoangdanh/tbsgroup-be-sub002/internal/gateway"
)

// WebSocketHandler 负责处理 WebSocket 升级请求和客户端注册。
// 认证在升级前由 Auth 中间件完成；上下文里取不到 user_id 就拒绝升级。
type WebSocketHandler struct {
	upgrader websocket.Upgrader
	gateway  *gateway.Gateway
}

// NewWebSocketHandler 创建 WebSocketHandler 实例
func NewWebSocketHandler(gw *gateway.Gateway) *WebSocketHandler {
	if gw == nil {
		panic("Gateway cannot be nil for WebSocketHandler")
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		// 生产环境应配置具体的允许来源
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}

	return &WebSocketHandler{
		upgrader: upgrader,
		gateway:  gw,
	}
}

// HandleConnection 处理 WebSocket 连接请求 (GET /ws)。
// 升级成功后分配连接 ID、向网关排队注册并启动读写泵。
// 房间加入不在这里发生，由客户端升级后通过 join 事件完成。
func (h *WebSocketHandler) HandleConnection(c *gin.Context) {
	userIDAny, exists := c.Get("user_id")
	if !exists {
		logrus.Warn("WS Handler: User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	userID, ok := userIDAny.(uint)
	if !ok || userID == 0 {
		logrus.Error("WS Handler: User ID in context is not a valid uint")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	logCtx := logrus.WithField("user_id", userID)

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade 已经写了 HTTP 错误响应，这里只记录
		logCtx.WithError(err).Error("WS Handler: Failed to upgrade connection")
		return
	}

	// 连接 ID 由服务端分配，全局唯一
	connID := uuid.NewString()
	logCtx = logCtx.WithField("conn_id", connID)
	logCtx.Info("WS Handler: Connection upgraded to WebSocket")

	client := gateway.NewClient(h.gateway, conn, connID, userID)

	registerMsg := gateway.GatewayMessage{
		Type:   "register",
		Client: client,
	}
	if !h.gateway.QueueMessage(registerMsg) {
		logCtx.Error("WS Handler: Gateway message channel full, failed to register client")
		client.CloseConn()
		return
	}

	client.Run()
	logCtx.Info("WS Handler: Client read/write pumps started")
}
