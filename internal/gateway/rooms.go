package gateway

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

// 房间层级。房间名的格式固定为 "{level}:{id}"。
const (
	LevelFactory = "factory"
	LevelLine    = "line"
	LevelTeam    = "team"
	LevelGroup   = "group"
)

// ValidLevel 判断字符串是否是合法的房间层级。
func ValidLevel(level string) bool {
	switch level {
	case LevelFactory, LevelLine, LevelTeam, LevelGroup:
		return true
	}
	return false
}

// RoomName 构造 "{level}:{id}" 形式的房间名。
func RoomName(level string, id uint) string {
	return fmt.Sprintf("%s:%d", level, id)
}

// Transport 是成员管理器和广播器通知底层传输的出口。
// 进程内的 WebSocket 网关直接实现它；接口存在是为了让
// join/leave/send 的副作用可以被测试替身捕获。
type Transport interface {
	// Send 向指定连接发送一个事件，尽力而为，不收集确认。
	Send(connID string, event string, payload interface{})
	// JoinChannel 通知传输层把连接加入广播频道。
	JoinChannel(connID string, room string)
	// LeaveChannel 通知传输层把连接移出广播频道。
	LeaveChannel(connID string, room string)
}

// Rooms 是房间成员管理器：维护 room -> 成员连接 的索引，
// 并同步维护每个连接在 Registry 里的房间集合。
// 房间是隐式的：第一次 join 时出现，最后一个成员离开时从索引中剪除。
// 管理器不做任何授权判断，权限检查在 join 之前由上层完成。
type Rooms struct {
	registry  *Registry
	transport Transport

	mu      sync.RWMutex
	members map[string]map[string]bool // roomName -> connID 集合
}

// NewRooms 创建房间成员管理器。
func NewRooms(registry *Registry, transport Transport) *Rooms {
	if registry == nil {
		panic("Registry cannot be nil for Rooms")
	}
	if transport == nil {
		panic("Transport cannot be nil for Rooms")
	}
	return &Rooms{
		registry:  registry,
		transport: transport,
		members:   make(map[string]map[string]bool),
	}
}

// Join 把连接加入 "{level}:{id}" 房间。集合语义：重复加入是无操作的成功。
// 连接未注册时返回 ErrUnknownConnection，层级非法时返回 ErrInvalidRoomLevel。
// 同一连接可以同时停留在多个层级的多个房间里。
func (r *Rooms) Join(connID, level string, id uint) (string, error) {
	if !ValidLevel(level) {
		return "", ErrInvalidRoomLevel
	}
	room := RoomName(level, id)

	added, found := r.registry.addRoom(connID, room)
	if !found {
		return "", ErrUnknownConnection
	}
	if !added {
		// 已经在房间里，无操作成功
		return room, nil
	}

	r.mu.Lock()
	if _, ok := r.members[room]; !ok {
		r.members[room] = make(map[string]bool)
	}
	r.members[room][connID] = true
	r.mu.Unlock()

	r.transport.JoinChannel(connID, room)
	logrus.WithFields(logrus.Fields{
		"conn_id": connID,
		"room":    room,
	}).Debug("Connection joined room")
	return room, nil
}

// Leave 把连接移出 "{level}:{id}" 房间。
// 连接从未加入该房间时返回 (false, ErrNotInRoom)；该错误是非致命的，
// 调用方以结构化事件回报客户端，连接保持打开。
func (r *Rooms) Leave(connID, level string, id uint) (bool, error) {
	if !ValidLevel(level) {
		return false, ErrInvalidRoomLevel
	}
	room := RoomName(level, id)

	removed, found := r.registry.removeRoom(connID, room)
	if !found {
		return false, ErrUnknownConnection
	}
	if !removed {
		return false, ErrNotInRoom
	}

	r.removeMember(room, connID)
	r.transport.LeaveChannel(connID, room)
	logrus.WithFields(logrus.Fields{
		"conn_id": connID,
		"room":    room,
	}).Debug("Connection left room")
	return true, nil
}

// LeaveAll 在连接断开时把它移出所有房间。幂等。
func (r *Rooms) LeaveAll(connID string) {
	for _, room := range r.registry.RoomsOf(connID) {
		if removed, _ := r.registry.removeRoom(connID, room); removed {
			r.removeMember(room, connID)
			r.transport.LeaveChannel(connID, room)
		}
	}
}

// Members 返回房间当前成员连接 ID 的快照，供广播器读取。
func (r *Rooms) Members(room string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conns, ok := r.members[room]
	if !ok {
		return nil
	}
	ids := make([]string, 0, len(conns))
	for id := range conns {
		ids = append(ids, id)
	}
	return ids
}

// ActiveRoomIDs 返回指定层级当前有成员的房间 ID 快照。
// 周期性看板刷新任务据此决定要重算哪些生产线。
func (r *Rooms) ActiveRoomIDs(level string) []uint {
	prefix := level + ":"
	r.mu.RLock()
	defer r.mu.RUnlock()
	var ids []uint
	for room, conns := range r.members {
		if len(conns) == 0 || len(room) <= len(prefix) || room[:len(prefix)] != prefix {
			continue
		}
		var id uint
		if _, err := fmt.Sscanf(room[len(prefix):], "%d", &id); err == nil && id > 0 {
			ids = append(ids, id)
		}
	}
	return ids
}

// MemberCount 返回房间当前成员数。
func (r *Rooms) MemberCount(room string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members[room])
}

// removeMember 从索引移除成员，房间变空时剪除整个房间。
func (r *Rooms) removeMember(room, connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	conns, ok := r.members[room]
	if !ok {
		return
	}
	delete(conns, connID)
	if len(conns) == 0 {
		delete(r.members, room)
	}
}
