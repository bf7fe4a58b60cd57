package gateway

import "errors"

// 网关层错误。成员资格错误 (ErrUnknownConnection / ErrNotInRoom) 是非致命的，
// 以结构化 error 事件回报给客户端，连接保持打开。
var (
	// ErrDuplicateConnection 表示连接 ID 已被注册。
	// 正常的传输层语义下不应出现，出现说明有复用的 ID 未被清理。
	ErrDuplicateConnection = errors.New("gateway: connection id already registered")
	// ErrUnknownConnection 表示连接未注册。
	ErrUnknownConnection = errors.New("gateway: connection not registered")
	// ErrNotInRoom 表示连接从未加入该房间。
	ErrNotInRoom = errors.New("gateway: connection not in room")
	// ErrInvalidRoomLevel 表示房间层级不在 factory/line/team/group 之内。
	ErrInvalidRoomLevel = errors.New("gateway: invalid room level")
)
