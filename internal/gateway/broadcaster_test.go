package gateway_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nguyenhoangdanh/tbsgroup-be-sub002/internal/domain"
	"github.com/nguyenhoangdanh/tbsgroup-be-sub002/internal/gateway"
)

func newBroadcasterFixture(t *testing.T) (*gateway.Registry, *gateway.Rooms, *gateway.Broadcaster, *fakeTransport) {
	t.Helper()
	registry := gateway.NewRegistry()
	transport := &fakeTransport{}
	rooms := gateway.NewRooms(registry, transport)
	broadcaster := gateway.NewBroadcaster(rooms, transport)
	return registry, rooms, broadcaster, transport
}

func TestBroadcaster_BroadcastToLevel_MembersOnly(t *testing.T) {
	registry, rooms, broadcaster, transport := newBroadcasterFixture(t)
	require.NoError(t, registry.Register("in-room", 1))
	require.NoError(t, registry.Register("other-room", 2))
	require.NoError(t, registry.Register("no-room", 3))

	_, err := rooms.Join("in-room", gateway.LevelLine, 7)
	require.NoError(t, err)
	_, err = rooms.Join("other-room", gateway.LevelLine, 8)
	require.NoError(t, err)

	broadcaster.BroadcastToLevel(gateway.LevelLine, 7, "productionUpdate", map[string]interface{}{
		"entryId": uint(15),
	})

	assert.Len(t, transport.sentTo("in-room"), 1)
	assert.Empty(t, transport.sentTo("other-room"), "不同 ID 的同层房间不应收到")
	assert.Empty(t, transport.sentTo("no-room"), "未加入任何房间的连接不应收到")
}

func TestBroadcaster_PayloadTaggedWithLevelAndID(t *testing.T) {
	registry, rooms, broadcaster, transport := newBroadcasterFixture(t)
	require.NoError(t, registry.Register("conn-1", 1))
	_, err := rooms.Join("conn-1", gateway.LevelTeam, 3)
	require.NoError(t, err)

	broadcaster.BroadcastToLevel(gateway.LevelTeam, 3, "dashboardUpdate", map[string]interface{}{
		"type": "issueUpdate",
	})

	sends := transport.sentTo("conn-1")
	require.Len(t, sends, 1)
	payload, ok := sends[0].Payload.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, gateway.LevelTeam, payload["level"])
	assert.Equal(t, uint(3), payload["id"])
	assert.Equal(t, "issueUpdate", payload["type"])
}

func TestBroadcaster_PayloadNotMutated(t *testing.T) {
	registry, rooms, broadcaster, transport := newBroadcasterFixture(t)
	require.NoError(t, registry.Register("conn-1", 1))
	_, err := rooms.Join("conn-1", gateway.LevelLine, 1)
	require.NoError(t, err)

	original := map[string]interface{}{"output": 50}
	broadcaster.BroadcastToLevel(gateway.LevelLine, 1, "productionUpdate", original)

	_, hasLevel := original["level"]
	assert.False(t, hasLevel, "打标记应发生在副本上，调用方的 payload 不应被修改")
	require.Len(t, transport.sentTo("conn-1"), 1)
}

func TestBroadcaster_Hierarchical_FullPath(t *testing.T) {
	registry, rooms, broadcaster, transport := newBroadcasterFixture(t)

	// 四个层级各放一个观察者
	conns := map[string]struct {
		level string
		id    uint
	}{
		"factory-watcher": {gateway.LevelFactory, 1},
		"line-watcher":    {gateway.LevelLine, 2},
		"team-watcher":    {gateway.LevelTeam, 3},
		"group-watcher":   {gateway.LevelGroup, 4},
	}
	var userID uint
	for connID, target := range conns {
		userID++
		require.NoError(t, registry.Register(connID, userID))
		_, err := rooms.Join(connID, target.level, target.id)
		require.NoError(t, err)
	}

	path := domain.HierarchyPath{FactoryID: 1, LineID: 2, TeamID: 3, GroupID: 4}
	broadcaster.BroadcastHierarchical(path, "productionUpdate", map[string]interface{}{"entryId": uint(9)})

	for connID := range conns {
		assert.Len(t, transport.sentTo(connID), 1, "%s 应收到恰好一条广播", connID)
	}
}

func TestBroadcaster_Hierarchical_SkipsAbsentLevels(t *testing.T) {
	registry, rooms, broadcaster, transport := newBroadcasterFixture(t)
	require.NoError(t, registry.Register("factory-watcher", 1))
	require.NoError(t, registry.Register("line-watcher", 2))

	_, err := rooms.Join("factory-watcher", gateway.LevelFactory, 1)
	require.NoError(t, err)
	_, err = rooms.Join("line-watcher", gateway.LevelLine, 2)
	require.NoError(t, err)

	// 路径缺少 team/group，只应扇出到存在的层级
	path := domain.HierarchyPath{FactoryID: 1, LineID: 2}
	broadcaster.BroadcastHierarchical(path, "productionUpdate", map[string]interface{}{})

	assert.Len(t, transport.sentTo("factory-watcher"), 1)
	assert.Len(t, transport.sentTo("line-watcher"), 1)
	assert.Len(t, transport.sends, 2, "缺失的层级应被静默跳过")
}

func TestBroadcaster_NoDeliveryAfterLeave(t *testing.T) {
	registry, rooms, broadcaster, transport := newBroadcasterFixture(t)
	require.NoError(t, registry.Register("conn-1", 1))
	_, err := rooms.Join("conn-1", gateway.LevelLine, 7)
	require.NoError(t, err)

	_, err = rooms.Leave("conn-1", gateway.LevelLine, 7)
	require.NoError(t, err)

	broadcaster.BroadcastToLevel(gateway.LevelLine, 7, "productionUpdate", map[string]interface{}{})
	assert.Empty(t, transport.sentTo("conn-1"), "离开房间后不应再收到该房间的广播")
}
