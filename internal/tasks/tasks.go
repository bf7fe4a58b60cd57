package tasks

import (
	"encoding/json"

	"github.com/nguyenhoangdanh/tbsgroup-be-sub002/internal/domain"
)

// 任务类型常量
const (
	// TypeProductionEventPersist 生产事件审计记录持久化任务
	TypeProductionEventPersist = "production:persist_event"
	// TypeDashboardPeriodicRefresh 周期性看板缓存刷新任务
	TypeDashboardPeriodicRefresh = "dashboard:periodic_refresh"
)

// ProductionEventPayload 是生产事件持久化任务的数据结构。
type ProductionEventPayload struct {
	Event domain.ProductionEvent
	// 附带生产线 ID，worker 据此刷新看板缓存
	LineID uint
}

// NewProductionEventPayload 序列化生产事件任务负载。
func NewProductionEventPayload(event domain.ProductionEvent, lineID uint) ([]byte, error) {
	payload := ProductionEventPayload{Event: event, LineID: lineID}
	return json.Marshal(payload)
}

// NewDashboardRefreshPayload 序列化看板刷新任务负载 (目前为空对象)。
func NewDashboardRefreshPayload() ([]byte, error) {
	return json.Marshal(struct{}{})
}
