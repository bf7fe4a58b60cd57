package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"github.com/nguyenhoangdanh/tbsgroup-be-sub002/internal/gateway"
	"github.com/nguyenhoangdanh/tbsgroup-be-sub002/internal/repository"
)

// DashboardRefreshHandler 处理周期性的看板缓存刷新任务。
// Redis 里的生产线累计产量是增量维护的近似值，定期用数据库的
// 权威数据覆盖，修正增量更新期间可能累积的漂移。
type DashboardRefreshHandler struct {
	rooms     *gateway.Rooms
	formRepo  repository.FormRepository
	entryRepo repository.EntryRepository
	stateRepo repository.DashboardStateRepository
}

// NewDashboardRefreshHandler 创建 Handler 实例。
func NewDashboardRefreshHandler(
	rooms *gateway.Rooms,
	formRepo repository.FormRepository,
	entryRepo repository.EntryRepository,
	stateRepo repository.DashboardStateRepository,
) *DashboardRefreshHandler {
	if rooms == nil {
		panic("Rooms cannot be nil for DashboardRefreshHandler")
	}
	if formRepo == nil || entryRepo == nil || stateRepo == nil {
		panic("form, entry and state repositories must be non-nil for DashboardRefreshHandler")
	}
	return &DashboardRefreshHandler{
		rooms:     rooms,
		formRepo:  formRepo,
		entryRepo: entryRepo,
		stateRepo: stateRepo,
	}
}

// ProcessTask 实现 asynq.Handler 接口。
// 只刷新当前有观众的生产线房间，没人看的看板不值得重算。
func (h *DashboardRefreshHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	logCtx := logrus.WithField("task_type", t.Type())
	logCtx.Info("Processing periodic dashboard refresh task...")

	lineIDs := h.rooms.ActiveRoomIDs(gateway.LevelLine)
	if len(lineIDs) == 0 {
		logCtx.Info("No active line rooms, skipping dashboard refresh.")
		return nil
	}
	logCtx.Infof("Refreshing dashboard totals for %d active lines.", len(lineIDs))

	var wg sync.WaitGroup
	var errMu sync.Mutex
	var failures []error

	for _, lineID := range lineIDs {
		wg.Add(1)
		go func(id uint) {
			defer wg.Done()
			lineCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			defer cancel()

			if err := h.refreshLine(lineCtx, id); err != nil {
				logCtx.WithError(err).WithField("line_id", id).Error("Dashboard refresh failed for line")
				errMu.Lock()
				failures = append(failures, fmt.Errorf("line %d: %w", id, err))
				errMu.Unlock()
			}
		}(lineID)
	}
	wg.Wait()

	// 单条线失败不重试整个周期任务，下个周期会再试
	if len(failures) > 0 {
		logCtx.Errorf("Dashboard refresh completed with %d failures.", len(failures))
		return nil
	}

	logCtx.Info("Periodic dashboard refresh task completed successfully.")
	return nil
}

// refreshLine 从数据库重算一条生产线当天的总产量并覆盖缓存。
func (h *DashboardRefreshHandler) refreshLine(ctx context.Context, lineID uint) error {
	forms, err := h.formRepo.ListByLineAndDate(ctx, lineID, time.Now())
	if err != nil {
		return fmt.Errorf("list forms: %w", err)
	}

	var total int64
	for _, form := range forms {
		entries, err := h.entryRepo.ListByForm(ctx, form.ID)
		if err != nil {
			return fmt.Errorf("list entries for form %d: %w", form.ID, err)
		}
		for _, entry := range entries {
			total += int64(entry.TotalOutput)
		}
	}

	if err := h.stateRepo.SetLineOutput(ctx, lineID, total); err != nil {
		return fmt.Errorf("set line output: %w", err)
	}
	return nil
}
