package dto

import "encoding/json"

// WSInbound 是客户端入站消息的统一信封: {"event": "...", "data": {...}}
type WSInbound struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// WSOutbound 是服务端出站消息的统一信封。
type WSOutbound struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// JoinRequest 是 joinFactory / joinLine / joinTeam / joinGroup 的负载。
type JoinRequest struct {
	ID uint `json:"id"`
}

// LeaveRoomRequest 是 leaveRoom 的负载。
type LeaveRoomRequest struct {
	Type string `json:"type"` // factory / line / team / group
	ID   uint   `json:"id"`
}

// WSError 是回报给客户端的结构化错误事件负载。
type WSError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RoomAck 是 joined / left 确认事件的负载。
type RoomAck struct {
	Room string `json:"room"`
	Left bool   `json:"left,omitempty"`
}
