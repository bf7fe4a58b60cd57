package gateway

import (
	"github.com/sirupsen/logrus"

	"github.com/nguyenhoangdanh/tbsgroup-be-sub002/internal/domain"
)

// Broadcaster 负责事件扇出：给定一条层级更新，算出目标房间集合，
// 逐一发送。发送是尽力而为的：不收集确认，广播之后才加入的连接
// 不会补收 (没有重放/缓冲)。
// 广播器只读房间成员，从不修改；成员变更只发生在 Rooms 里。
type Broadcaster struct {
	rooms     *Rooms
	transport Transport
}

// NewBroadcaster 创建广播器。
func NewBroadcaster(rooms *Rooms, transport Transport) *Broadcaster {
	if rooms == nil {
		panic("Rooms cannot be nil for Broadcaster")
	}
	if transport == nil {
		panic("Transport cannot be nil for Broadcaster")
	}
	return &Broadcaster{rooms: rooms, transport: transport}
}

// BroadcastToLevel 向单个 "{level}:{id}" 房间的所有当前成员发送事件。
// payload 会被打上 {level, id} 标记。
func (b *Broadcaster) BroadcastToLevel(level string, id uint, event string, payload map[string]interface{}) {
	room := RoomName(level, id)
	members := b.rooms.Members(room)
	if len(members) == 0 {
		return
	}

	tagged := make(map[string]interface{}, len(payload)+2)
	for k, v := range payload {
		tagged[k] = v
	}
	tagged["level"] = level
	tagged["id"] = id

	logrus.WithFields(logrus.Fields{
		"room":            room,
		"event":           event,
		"recipient_count": len(members),
	}).Debug("Broadcasting event to room")

	for _, connID := range members {
		b.transport.Send(connID, event, tagged)
	}
}

// BroadcastHierarchical 沿层级路径扇出：对 path 中每个非空的层级，
// 构造对应房间名并向其所有成员发送打了 {level, id} 标记的 payload。
// 缺失的层级静默跳过。发送顺序固定为 factory, line, team, group。
func (b *Broadcaster) BroadcastHierarchical(path domain.HierarchyPath, event string, payload map[string]interface{}) {
	targets := []struct {
		level string
		id    uint
	}{
		{LevelFactory, path.FactoryID},
		{LevelLine, path.LineID},
		{LevelTeam, path.TeamID},
		{LevelGroup, path.GroupID},
	}
	for _, t := range targets {
		if t.id == 0 {
			continue
		}
		b.BroadcastToLevel(t.level, t.id, event, payload)
	}
}
