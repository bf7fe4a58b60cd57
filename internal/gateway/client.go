package gateway

import (
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// WebSocket 读写参数，供 gateway 包内使用
const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096
)

// Client 代表一个连接到网关的 WebSocket 客户端。
// ID 由传输层 (网关) 在升级时用 UUID 分配。
type Client struct {
	gateway *Gateway
	conn    *websocket.Conn
	id      string
	userID  uint
	send    chan []byte
}

// NewClient 创建一个新的 Client 实例。
func NewClient(gateway *Gateway, conn *websocket.Conn, connID string, userID uint) *Client {
	return &Client{
		gateway: gateway,
		conn:    conn,
		id:      connID,
		userID:  userID,
		send:    make(chan []byte, 256),
	}
}

// Run 启动客户端的读写 goroutine。
func (c *Client) Run() {
	go c.WritePump()
	go c.ReadPump()
}

func (c *Client) ConnID() string { return c.id }
func (c *Client) UserID() uint   { return c.userID }
func (c *Client) CloseConn()     { c.conn.Close() }

// ReadPump 把 WebSocket 上的入站消息泵送到网关的处理通道。
// 在自己的 goroutine 中运行，退出时触发注销。
func (c *Client) ReadPump() {
	defer func() {
		unregisterMsg := GatewayMessage{Type: msgUnregister, Client: c}
		select {
		case c.gateway.messageChan <- unregisterMsg:
		case <-time.After(1 * time.Second):
			logrus.WithFields(logrus.Fields{"conn_id": c.id, "user_id": c.userID}).
				Warn("Timeout sending unregister message to gateway channel")
		}
		c.conn.Close()
		logrus.WithFields(logrus.Fields{"conn_id": c.id, "user_id": c.userID}).
			Info("readPump exited, unregistered client")
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			logCtx := logrus.WithFields(logrus.Fields{"conn_id": c.id, "user_id": c.userID})
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logCtx.WithError(err).Warn("WebSocket read error (unexpected close)")
			} else {
				logCtx.Debug("WebSocket connection closed normally or read error")
			}
			break
		}

		if messageType != websocket.TextMessage {
			logrus.WithField("conn_id", c.id).Debugf("Received non-text message type: %d", messageType)
			continue
		}

		inboundMsg := GatewayMessage{
			Type:    msgInbound,
			Client:  c,
			RawData: message,
		}
		// 非阻塞发送，网关处理不过来时丢弃
		select {
		case c.gateway.messageChan <- inboundMsg:
		default:
			logrus.WithFields(logrus.Fields{"conn_id": c.id, "user_id": c.userID}).
				Warn("Gateway message channel full, dropping client message")
		}
	}
}

// WritePump 把 send 通道里的消息泵送到 WebSocket 连接，并定期发送 Ping。
// 在自己的 goroutine 中运行。
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		logrus.WithFields(logrus.Fields{"conn_id": c.id, "user_id": c.userID}).Info("writePump exited")
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// send 通道在注销时被网关关闭
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				logrus.WithFields(logrus.Fields{"conn_id": c.id, "user_id": c.userID}).
					WithError(err).Warn("Failed to write message to websocket")
				return
			}
			_ = c.conn.SetWriteDeadline(time.Time{})

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				logrus.WithFields(logrus.Fields{"conn_id": c.id, "user_id": c.userID}).
					WithError(err).Warn("Failed to send ping message")
				return
			}
			_ = c.conn.SetWriteDeadline(time.Time{})
		}
	}
}
