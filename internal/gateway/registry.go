package gateway

import "sync"

// ConnectionRecord 表示一个在线连接：传输层分配的连接 ID、
// 经过认证的用户身份，以及当前加入的房间集合。
// 记录由 Registry 独占持有，房间集合只通过 Rooms (成员管理器) 经
// Registry 的内部方法修改，其他组件一律只读。
type ConnectionRecord struct {
	ID     string
	UserID uint
	rooms  map[string]bool
}

// Registry 跟踪所有在线连接。连接在认证通过后注册，断开时注销。
// 注册前提：身份必须已经解析完成，没有身份的连接在上层就被关闭了。
type Registry struct {
	mu    sync.RWMutex
	conns map[string]*ConnectionRecord
}

// NewRegistry 创建空的连接注册表。
func NewRegistry() *Registry {
	return &Registry{
		conns: make(map[string]*ConnectionRecord),
	}
}

// Register 登记一个新连接。连接 ID 已存在时返回 ErrDuplicateConnection。
func (r *Registry) Register(connID string, userID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.conns[connID]; exists {
		return ErrDuplicateConnection
	}
	r.conns[connID] = &ConnectionRecord{
		ID:     connID,
		UserID: userID,
		rooms:  make(map[string]bool),
	}
	return nil
}

// Unregister 注销连接。幂等：连接不存在时什么也不做。
func (r *Registry) Unregister(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, connID)
}

// Lookup 查找连接的身份信息。返回的是副本，房间集合请用 RoomsOf。
func (r *Registry) Lookup(connID string) (ConnectionRecord, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.conns[connID]
	if !ok {
		return ConnectionRecord{}, false
	}
	return ConnectionRecord{ID: rec.ID, UserID: rec.UserID}, true
}

// RoomsOf 返回连接当前加入的房间名快照。
func (r *Registry) RoomsOf(connID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.conns[connID]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(rec.rooms))
	for name := range rec.rooms {
		names = append(names, name)
	}
	return names
}

// IsInRoom 判断连接是否在指定房间内。
func (r *Registry) IsInRoom(connID, room string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.conns[connID]
	return ok && rec.rooms[room]
}

// Count 返回当前在线连接数。
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// addRoom 把房间加入连接的房间集合。
// 返回 (是否新加入, 连接是否存在)。仅供成员管理器调用。
func (r *Registry) addRoom(connID, room string) (added bool, found bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.conns[connID]
	if !ok {
		return false, false
	}
	if rec.rooms[room] {
		return false, true
	}
	rec.rooms[room] = true
	return true, true
}

// removeRoom 把房间从连接的房间集合移除。
// 返回 (是否确实在房间里, 连接是否存在)。仅供成员管理器调用。
func (r *Registry) removeRoom(connID, room string) (removed bool, found bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.conns[connID]
	if !ok {
		return false, false
	}
	if !rec.rooms[room] {
		return false, true
	}
	delete(rec.rooms, room)
	return true, true
}
