package redisstate

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/nguyenhoangdanh/tbsgroup-be-sub002/internal/domain"
)

// 看板缓存的过期时间。一天的累计产量隔天自动失效。
const lineOutputTTL = 26 * time.Hour

// RedisDashboardRepository 是 DashboardStateRepository 接口的 Redis 实现
type RedisDashboardRepository struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisDashboardRepository 创建 RedisDashboardRepository 实例
func NewRedisDashboardRepository(client *redis.Client, keyPrefix string) *RedisDashboardRepository {
	if client == nil {
		panic("redis client cannot be nil for RedisDashboardRepository")
	}
	if keyPrefix == "" {
		keyPrefix = "tbs:" // 默认前缀
	}
	return &RedisDashboardRepository{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// --- Key Generation Helpers ---

func (r *RedisDashboardRepository) lineOutputKey(lineID uint) string {
	// 按天分 key，隔天自动切换
	day := time.Now().Format("2006-01-02")
	return fmt.Sprintf("%sline:%d:output:%s", r.keyPrefix, lineID, day)
}

func (r *RedisDashboardRepository) updateChannel(path domain.HierarchyPath) string {
	// 按生产线分频道，没有线上下文时落到工厂频道
	if path.LineID != 0 {
		return fmt.Sprintf("%supdates:line:%d", r.keyPrefix, path.LineID)
	}
	return fmt.Sprintf("%supdates:factory:%d", r.keyPrefix, path.FactoryID)
}

// IncrLineOutput 为某条生产线当天的累计产量增加 delta
func (r *RedisDashboardRepository) IncrLineOutput(ctx context.Context, lineID uint, delta int) error {
	key := r.lineOutputKey(lineID)
	pipe := r.client.Pipeline()
	pipe.IncrBy(ctx, key, int64(delta))
	pipe.Expire(ctx, key, lineOutputTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: incr line %d output by %d: %w", lineID, delta, err)
	}
	return nil
}

// GetLineOutput 读取某条生产线当天的累计产量，未命中返回 0
func (r *RedisDashboardRepository) GetLineOutput(ctx context.Context, lineID uint) (int64, error) {
	val, err := r.client.Get(ctx, r.lineOutputKey(lineID)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis: get line %d output: %w", lineID, err)
	}
	return val, nil
}

// SetLineOutput 覆盖写入某条生产线当天的累计产量
func (r *RedisDashboardRepository) SetLineOutput(ctx context.Context, lineID uint, total int64) error {
	if err := r.client.Set(ctx, r.lineOutputKey(lineID), total, lineOutputTTL).Err(); err != nil {
		return fmt.Errorf("redis: set line %d output: %w", lineID, err)
	}
	return nil
}

// PublishUpdate 将一次生产更新发布到 Redis Pub/Sub。
// 目前没有跨实例订阅者，发布失败只记录日志，不影响本实例广播。
func (r *RedisDashboardRepository) PublishUpdate(ctx context.Context, path domain.HierarchyPath, payload []byte) error {
	channel := r.updateChannel(path)
	if err := r.client.Publish(ctx, channel, payload).Err(); err != nil {
		logrus.WithError(err).WithField("channel", channel).Warn("Failed to publish production update")
		return fmt.Errorf("redis: publish update to %s: %w", channel, err)
	}
	return nil
}
