package gateway_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nguyenhoangdanh/tbsgroup-be-sub002/internal/gateway"
)

func TestRegistry_Register_Success(t *testing.T) {
	registry := gateway.NewRegistry()

	err := registry.Register("conn-1", 42)
	require.NoError(t, err)

	rec, ok := registry.Lookup("conn-1")
	require.True(t, ok, "注册后应能查到连接")
	assert.Equal(t, "conn-1", rec.ID)
	assert.Equal(t, uint(42), rec.UserID)
	assert.Equal(t, 1, registry.Count())
}

func TestRegistry_Register_Duplicate(t *testing.T) {
	registry := gateway.NewRegistry()
	require.NoError(t, registry.Register("conn-1", 42))

	err := registry.Register("conn-1", 99)
	require.Error(t, err)
	assert.ErrorIs(t, err, gateway.ErrDuplicateConnection)

	// 原有记录不受影响
	rec, ok := registry.Lookup("conn-1")
	require.True(t, ok)
	assert.Equal(t, uint(42), rec.UserID, "重复注册不应覆盖原有身份")
	assert.Equal(t, 1, registry.Count())
}

func TestRegistry_Unregister_Idempotent(t *testing.T) {
	registry := gateway.NewRegistry()
	require.NoError(t, registry.Register("conn-1", 42))

	registry.Unregister("conn-1")
	_, ok := registry.Lookup("conn-1")
	assert.False(t, ok)
	assert.Equal(t, 0, registry.Count())

	// 再注销一次不应有任何影响
	registry.Unregister("conn-1")
	registry.Unregister("never-existed")
	assert.Equal(t, 0, registry.Count())
}

func TestRegistry_Lookup_Unknown(t *testing.T) {
	registry := gateway.NewRegistry()

	_, ok := registry.Lookup("ghost")
	assert.False(t, ok)
	assert.Nil(t, registry.RoomsOf("ghost"))
	assert.False(t, registry.IsInRoom("ghost", "line:1"))
}
