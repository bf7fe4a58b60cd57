package gateway_test

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nguyenhoangdanh/tbsgroup-be-sub002/internal/gateway"
	"github.com/nguyenhoangdanh/tbsgroup-be-sub002/internal/repository/mocks"
	"github.com/nguyenhoangdanh/tbsgroup-be-sub002/internal/service"
)

// newRunningGateway 组装一个完整接线的网关并启动主循环。
func newRunningGateway(t *testing.T) (*gateway.Gateway, *gateway.Registry) {
	t.Helper()
	registry := gateway.NewRegistry()
	gw := gateway.NewGateway(registry)
	rooms := gateway.NewRooms(registry, gw)
	broadcaster := gateway.NewBroadcaster(rooms, gw)
	aggregator := service.NewAggregator(
		&mocks.EntryRepository{}, &mocks.FormRepository{}, &mocks.IssueRepository{},
		nil, broadcaster, nil,
	)
	gw.Bind(rooms, broadcaster, aggregator)
	go gw.Run()
	t.Cleanup(gw.Shutdown)
	return gw, registry
}

// 断开连接时注销会关闭客户端的发送通道；与广播并发时
// 发送必须要么在关闭前入队，要么被静默丢弃，绝不 panic。
func TestGateway_SendDuringUnregister(t *testing.T) {
	gw, registry := newRunningGateway(t)

	for i := 0; i < 50; i++ {
		connID := fmt.Sprintf("conn-%d", i)
		client := gateway.NewClient(gw, nil, connID, 7)
		require.True(t, gw.QueueMessage(gateway.GatewayMessage{Type: "register", Client: client}))
		require.Eventually(t, func() bool {
			_, ok := registry.Lookup(connID)
			return ok
		}, time.Second, time.Millisecond, "连接应完成注册")

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			for seq := 0; seq < 200; seq++ {
				gw.Send(connID, "productionUpdate", map[string]interface{}{"seq": seq})
			}
		}()

		require.True(t, gw.QueueMessage(gateway.GatewayMessage{Type: "unregister", Client: client}))
		wg.Wait()

		require.Eventually(t, func() bool {
			_, ok := registry.Lookup(connID)
			return !ok
		}, time.Second, time.Millisecond, "注销应从注册表移除连接")
	}
}

// 注销后的连接不再接收任何事件，向它发送是无操作。
func TestGateway_SendAfterUnregisterIsNoop(t *testing.T) {
	gw, registry := newRunningGateway(t)

	client := gateway.NewClient(gw, nil, "conn-gone", 7)
	require.True(t, gw.QueueMessage(gateway.GatewayMessage{Type: "register", Client: client}))
	require.Eventually(t, func() bool {
		_, ok := registry.Lookup("conn-gone")
		return ok
	}, time.Second, time.Millisecond)

	require.True(t, gw.QueueMessage(gateway.GatewayMessage{Type: "unregister", Client: client}))
	require.Eventually(t, func() bool {
		_, ok := registry.Lookup("conn-gone")
		return !ok
	}, time.Second, time.Millisecond)

	gw.Send("conn-gone", "productionUpdate", map[string]interface{}{"seq": 1})
}
