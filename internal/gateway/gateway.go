package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/nguyenhoangdanh/tbsgroup-be-sub002/internal/dto"
	"github.com/nguyenhoangdanh/tbsgroup-be-sub002/internal/service"
)

// 网关内部通道消息类型
const (
	msgRegister   = "register"
	msgUnregister = "unregister"
	msgInbound    = "message"
)

// 客户端入站事件名
const (
	EventJoinFactory      = "joinFactory"
	EventJoinLine         = "joinLine"
	EventJoinTeam         = "joinTeam"
	EventJoinGroup        = "joinGroup"
	EventLeaveRoom        = "leaveRoom"
	EventRecordHour       = "recordHour"
	EventAddIssue         = "addIssue"
	EventRemoveIssue      = "removeIssue"
	EventUpdateAttendance = "updateAttendance"
)

// 服务端出站事件名 (网关自身使用的部分)
const (
	EventError  = "error"
	EventJoined = "joined"
	EventLeft   = "left"
)

// GatewayMessage 是在网关内部通道传递的消息。
type GatewayMessage struct {
	Type    string  // register / unregister / message
	Client  *Client // 消息来源的客户端
	RawData []byte  // 仅用于 message (原始 WebSocket 帧)
}

// eventHandler 是入站事件的处理函数。
// async 为 true 的处理器涉及持久化往返，在独立 goroutine 中执行，
// 彼此可能在 I/O 处交错；成员管理 (join/leave) 始终留在主循环里，
// 保证房间映射只被单个协作调度器修改。
type eventHandler struct {
	fn    func(ctx context.Context, c *Client, data json.RawMessage)
	async bool
}

// Gateway 是实时生产广播网关：持有在线客户端表并实现 Transport，
// 通过单 goroutine 的主循环串行处理连接生命周期和成员管理事件。
// 组件 (Registry / Rooms / Broadcaster / Aggregator) 在组合根显式构造，
// 通过 Bind 注入；入站事件按 事件名 -> 处理函数 的显式注册表分发。
type Gateway struct {
	messageChan chan GatewayMessage

	clientsMu sync.RWMutex
	clients   map[string]*Client // connID -> client

	registry    *Registry
	rooms       *Rooms
	broadcaster *Broadcaster
	aggregator  *service.Aggregator

	handlers map[string]eventHandler
}

// NewGateway 创建网关。Rooms/Broadcaster/Aggregator 依赖网关自身作为
// Transport，因此在创建后通过 Bind 完成接线。
func NewGateway(registry *Registry) *Gateway {
	if registry == nil {
		panic("Registry cannot be nil for Gateway")
	}
	return &Gateway{
		messageChan: make(chan GatewayMessage, 512),
		clients:     make(map[string]*Client),
		registry:    registry,
	}
}

// Bind 注入其余组件并注册入站事件处理表。
func (g *Gateway) Bind(rooms *Rooms, broadcaster *Broadcaster, aggregator *service.Aggregator) {
	if rooms == nil || broadcaster == nil || aggregator == nil {
		panic("Rooms, Broadcaster and Aggregator must be non-nil for Gateway")
	}
	g.rooms = rooms
	g.broadcaster = broadcaster
	g.aggregator = aggregator

	g.handlers = map[string]eventHandler{
		EventJoinFactory:      {fn: g.joinHandler(LevelFactory)},
		EventJoinLine:         {fn: g.joinHandler(LevelLine)},
		EventJoinTeam:         {fn: g.joinHandler(LevelTeam)},
		EventJoinGroup:        {fn: g.joinHandler(LevelGroup)},
		EventLeaveRoom:        {fn: g.handleLeaveRoom},
		EventRecordHour:       {fn: g.handleRecordHour, async: true},
		EventAddIssue:         {fn: g.handleAddIssue, async: true},
		EventRemoveIssue:      {fn: g.handleRemoveIssue, async: true},
		EventUpdateAttendance: {fn: g.handleUpdateAttendance, async: true},
	}
}

// Run 启动网关的主事件处理循环。应在单独的 goroutine 中运行。
func (g *Gateway) Run() {
	log := logrus.WithField("component", "gateway")
	log.Info("Gateway is running...")

	for msg := range g.messageChan {
		switch msg.Type {
		case msgRegister:
			g.registerClient(msg.Client)
		case msgUnregister:
			g.unregisterClient(msg.Client)
		case msgInbound:
			g.dispatch(msg)
		default:
			log.Warnf("Received unknown gateway message type: %s", msg.Type)
		}
	}
	log.Info("Gateway is shutting down...")
}

// QueueMessage 把消息放入网关处理队列 (非阻塞)。
// 返回 false 表示队列已满，消息被丢弃。
func (g *Gateway) QueueMessage(msg GatewayMessage) bool {
	select {
	case g.messageChan <- msg:
		return true
	default:
		logrus.WithField("message_type", msg.Type).Warn("Gateway message channel full, dropping message")
		return false
	}
}

// Shutdown 关闭网关主循环。
func (g *Gateway) Shutdown() {
	close(g.messageChan)
}

// --- Transport 实现 ---

// Send 向指定连接发送事件。尽力而为：连接不在线或发送队列满时丢弃。
// 入队全程持有读锁：注销在写锁下关闭 send 通道，读锁保证入队
// 不会与关闭交错 (向已关闭通道发送会 panic)。入队是非阻塞的，
// 锁的持有时间只有一次 select。
func (g *Gateway) Send(connID string, event string, payload interface{}) {
	data, err := json.Marshal(dto.WSOutbound{Event: event, Data: payload})
	if err != nil {
		logrus.WithError(err).WithField("event", event).Error("Failed to marshal outbound event")
		return
	}

	g.clientsMu.RLock()
	defer g.clientsMu.RUnlock()
	client, ok := g.clients[connID]
	if !ok {
		return
	}

	select {
	case client.send <- data:
	default:
		logrus.WithFields(logrus.Fields{"conn_id": connID, "event": event}).
			Warn("Client send channel full, dropping event")
	}
}

// JoinChannel / LeaveChannel: 进程内传输的频道成员关系就是 Rooms 的索引，
// 这里只留日志钩子；接口存在是为了外部传输 (如多实例适配器) 和测试替身。
func (g *Gateway) JoinChannel(connID string, room string) {
	logrus.WithFields(logrus.Fields{"conn_id": connID, "room": room}).Debug("Transport admitted connection to channel")
}

func (g *Gateway) LeaveChannel(connID string, room string) {
	logrus.WithFields(logrus.Fields{"conn_id": connID, "room": room}).Debug("Transport removed connection from channel")
}

// --- 连接生命周期 ---

// registerClient 处理客户端注册。重复的连接 ID 说明传输层复用了
// 未清理的标识符，直接拒绝并关闭连接 (硬性门槛)。
func (g *Gateway) registerClient(client *Client) {
	if client == nil {
		logrus.Error("Gateway: attempted to register a nil client")
		return
	}
	logCtx := logrus.WithFields(logrus.Fields{
		"conn_id": client.id,
		"user_id": client.userID,
	})

	if err := g.registry.Register(client.id, client.userID); err != nil {
		logCtx.WithError(err).Error("Failed to register connection, closing")
		client.CloseConn()
		return
	}

	g.clientsMu.Lock()
	g.clients[client.id] = client
	g.clientsMu.Unlock()

	logCtx.WithField("connections", g.registry.Count()).Info("Client registered to gateway")
}

// unregisterClient 处理客户端注销：退出所有房间、从注册表移除、
// 关闭发送通道。注销后不再有广播到达该连接。
func (g *Gateway) unregisterClient(client *Client) {
	if client == nil {
		logrus.Error("Gateway: attempted to unregister a nil client")
		return
	}
	logCtx := logrus.WithFields(logrus.Fields{
		"conn_id": client.id,
		"user_id": client.userID,
	})

	g.rooms.LeaveAll(client.id)
	g.registry.Unregister(client.id)

	g.clientsMu.Lock()
	if _, ok := g.clients[client.id]; ok {
		delete(g.clients, client.id)
		// 关闭发生在写锁下，与 Send 的读锁互斥；
		// 表里已不存在的连接说明已经关闭过，不重复关闭
		close(client.send)
	}
	g.clientsMu.Unlock()

	logCtx.Info("Client unregistered from gateway")
}

// --- 事件分发 ---

// dispatch 解析入站信封并按注册表分发。
// 同步处理器在主循环内跑完 (成员管理)；异步处理器涉及持久化往返，
// 放到独立 goroutine，接受不同请求在 I/O 处交错。
func (g *Gateway) dispatch(msg GatewayMessage) {
	var inbound dto.WSInbound
	if err := json.Unmarshal(msg.RawData, &inbound); err != nil {
		g.sendError(msg.Client, "INVALID_PAYLOAD", "malformed message envelope")
		return
	}

	handler, ok := g.handlers[inbound.Event]
	if !ok {
		logrus.WithFields(logrus.Fields{
			"conn_id": msg.Client.id,
			"event":   inbound.Event,
		}).Warn("Received unknown event")
		g.sendError(msg.Client, "UNKNOWN_EVENT", "unknown event: "+inbound.Event)
		return
	}

	if handler.async {
		go handler.fn(context.Background(), msg.Client, inbound.Data)
	} else {
		handler.fn(context.Background(), msg.Client, inbound.Data)
	}
}

// joinHandler 返回指定层级的 join 事件处理函数。
// 授权检查在连接升级时由认证中间件完成，这里只做成员登记。
func (g *Gateway) joinHandler(level string) func(ctx context.Context, c *Client, data json.RawMessage) {
	return func(ctx context.Context, c *Client, data json.RawMessage) {
		var req dto.JoinRequest
		if err := json.Unmarshal(data, &req); err != nil || req.ID == 0 {
			g.sendError(c, "INVALID_PAYLOAD", "join requires a positive id")
			return
		}
		room, err := g.rooms.Join(c.id, level, req.ID)
		if err != nil {
			g.sendMembershipError(c, err)
			return
		}
		g.Send(c.id, EventJoined, dto.RoomAck{Room: room})
	}
}

// handleLeaveRoom 处理 leaveRoom({type, id})。
// NotInRoom 是非致命的：回报 left=false，连接保持打开。
func (g *Gateway) handleLeaveRoom(ctx context.Context, c *Client, data json.RawMessage) {
	var req dto.LeaveRoomRequest
	if err := json.Unmarshal(data, &req); err != nil {
		g.sendError(c, "INVALID_PAYLOAD", "malformed leaveRoom payload")
		return
	}
	left, err := g.rooms.Leave(c.id, req.Type, req.ID)
	if err != nil && !errors.Is(err, ErrNotInRoom) {
		g.sendMembershipError(c, err)
		return
	}
	if errors.Is(err, ErrNotInRoom) {
		g.sendError(c, "NOT_IN_ROOM", "connection is not in room "+RoomName(req.Type, req.ID))
	}
	g.Send(c.id, EventLeft, dto.RoomAck{Room: RoomName(req.Type, req.ID), Left: left})
}

// handleRecordHour 处理 recordHour 事件。
func (g *Gateway) handleRecordHour(ctx context.Context, c *Client, data json.RawMessage) {
	var req service.RecordHourInput
	if err := json.Unmarshal(data, &req); err != nil {
		g.sendError(c, "INVALID_PAYLOAD", "malformed recordHour payload")
		return
	}
	if _, err := g.aggregator.RecordHour(ctx, c.userID, req); err != nil {
		g.sendAggregatorError(c, err)
	}
}

// handleAddIssue 处理 addIssue 事件。
func (g *Gateway) handleAddIssue(ctx context.Context, c *Client, data json.RawMessage) {
	var req service.AddIssueInput
	if err := json.Unmarshal(data, &req); err != nil {
		g.sendError(c, "INVALID_PAYLOAD", "malformed addIssue payload")
		return
	}
	if _, err := g.aggregator.AddIssue(ctx, c.userID, req); err != nil {
		g.sendAggregatorError(c, err)
	}
}

// handleRemoveIssue 处理 removeIssue 事件。
func (g *Gateway) handleRemoveIssue(ctx context.Context, c *Client, data json.RawMessage) {
	var req struct {
		EntryID uint   `json:"entryId"`
		IssueID string `json:"issueId"`
	}
	if err := json.Unmarshal(data, &req); err != nil {
		g.sendError(c, "INVALID_PAYLOAD", "malformed removeIssue payload")
		return
	}
	if err := g.aggregator.RemoveIssue(ctx, c.userID, req.EntryID, req.IssueID); err != nil {
		g.sendAggregatorError(c, err)
	}
}

// handleUpdateAttendance 处理 updateAttendance 事件。
func (g *Gateway) handleUpdateAttendance(ctx context.Context, c *Client, data json.RawMessage) {
	var req struct {
		EntryID uint   `json:"entryId"`
		Status  string `json:"status"`
	}
	if err := json.Unmarshal(data, &req); err != nil {
		g.sendError(c, "INVALID_PAYLOAD", "malformed updateAttendance payload")
		return
	}
	if _, err := g.aggregator.UpdateAttendanceStatus(ctx, c.userID, req.EntryID, req.Status); err != nil {
		g.sendAggregatorError(c, err)
	}
}

// --- 错误回报 ---

func (g *Gateway) sendError(c *Client, code, message string) {
	if c == nil {
		return
	}
	g.Send(c.id, EventError, dto.WSError{Code: code, Message: message})
}

// sendMembershipError 把成员资格错误映射为结构化错误事件。
func (g *Gateway) sendMembershipError(c *Client, err error) {
	switch {
	case errors.Is(err, ErrUnknownConnection):
		g.sendError(c, "UNKNOWN_CONNECTION", "connection is not registered")
	case errors.Is(err, ErrInvalidRoomLevel):
		g.sendError(c, "INVALID_ROOM_LEVEL", "room level must be factory, line, team or group")
	case errors.Is(err, ErrNotInRoom):
		g.sendError(c, "NOT_IN_ROOM", "connection is not in room")
	default:
		g.sendError(c, "INTERNAL_ERROR", "membership operation failed")
	}
}

// sendAggregatorError 把聚合器的状态错误映射为结构化错误事件。
// 变更失败时不会有任何广播发出，这里只通知发起方。
func (g *Gateway) sendAggregatorError(c *Client, err error) {
	switch {
	case errors.Is(err, service.ErrEntryNotFound):
		g.sendError(c, "ENTRY_NOT_FOUND", "production entry not found")
	case errors.Is(err, service.ErrEntryLocked):
		g.sendError(c, "ENTRY_LOCKED", "parent form is confirmed, entry is locked")
	case errors.Is(err, service.ErrInvalidHour):
		g.sendError(c, "INVALID_HOUR", "hour must be between 1 and 12")
	case errors.Is(err, service.ErrIssueNotFound):
		g.sendError(c, "ISSUE_NOT_FOUND", "issue not found on entry")
	case errors.Is(err, service.ErrInvalidAttendance):
		g.sendError(c, "INVALID_ATTENDANCE", "unknown attendance status")
	default:
		g.sendError(c, "INTERNAL_ERROR", "mutation failed")
	}
}
