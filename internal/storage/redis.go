package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"

	"resume-analyzer-go/internal/config"
	"resume-analyzer-go/internal/constants"
	"resume-analyzer-go/internal/types"
)

// ErrNotFound Redis中不存在该键
// 包装底层的redis.Nil，调用方不必依赖驱动包
var ErrNotFound = redis.Nil

// Redis 去重与评分缓存
type Redis struct {
	Client *redis.Client
	cfg    *config.RedisConfig
}

// NewRedisAdapter 创建Redis客户端连接
func NewRedisAdapter(cfg *config.RedisConfig) (*Redis, error) {
	if cfg == nil {
		return nil, fmt.Errorf("redis配置不能为空")
	}
	if cfg.Address == "" {
		return nil, fmt.Errorf("redis地址不能为空")
	}

	opt := &redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,

		// 连接池设置
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,

		// 超时设置
		DialTimeout:  time.Duration(cfg.DialTimeoutSeconds) * time.Second,
		ReadTimeout:  time.Duration(cfg.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeoutSeconds) * time.Second,

		// 重试设置
		MaxRetries:      cfg.MaxRetries,
		MinRetryBackoff: time.Duration(cfg.MinRetryBackoffMS) * time.Millisecond,
		MaxRetryBackoff: time.Duration(cfg.MaxRetryBackoffMS) * time.Millisecond,

		// 连接生命周期
		ConnMaxLifetime: time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute,
		ConnMaxIdleTime: time.Duration(cfg.ConnMaxIdleTimeMinutes) * time.Minute,
	}

	client := redis.NewClient(opt)

	// 添加OpenTelemetry钩子，记录所有Redis操作
	if err := redisotel.InstrumentTracing(client); err != nil {
		return nil, fmt.Errorf("为Redis启用OpenTelemetry失败: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("连接Redis (%s) 失败: %w", cfg.Address, err)
	}

	return &Redis{Client: client, cfg: cfg}, nil
}

// Close 关闭Redis连接
func (r *Redis) Close() error {
	return r.Client.Close()
}

// md5Expiry MD5去重记录的过期时间
func (r *Redis) md5Expiry() time.Duration {
	days := r.cfg.MD5RecordExpireDays
	if days <= 0 {
		days = 365
	}
	return time.Duration(days) * 24 * time.Hour
}

// RegisterFileMD5 登记文件MD5用于去重
// 返回该MD5是否已出现过以及首次处理它的文档UUID
func (r *Redis) RegisterFileMD5(ctx context.Context, fileMD5, documentUUID string) (bool, string, error) {
	if fileMD5 == "" {
		return false, "", fmt.Errorf("文件MD5不能为空")
	}

	mappingKey := fmt.Sprintf(constants.KeyFileMD5ToProfileUUID, fileMD5)
	existing, err := r.Client.Get(ctx, mappingKey).Result()
	if err == nil {
		return true, existing, nil
	}
	if !errors.Is(err, redis.Nil) {
		return false, "", fmt.Errorf("查询MD5映射失败: %w", err)
	}

	pipe := r.Client.TxPipeline()
	pipe.SAdd(ctx, constants.KeyFileMD5Set, fileMD5)
	pipe.Set(ctx, mappingKey, documentUUID, r.md5Expiry())
	if _, err := pipe.Exec(ctx); err != nil {
		return false, "", fmt.Errorf("写入MD5去重记录失败: %w", err)
	}
	return false, "", nil
}

// LookupFileMD5 查询MD5对应的文档UUID，不存在返回ErrNotFound
func (r *Redis) LookupFileMD5(ctx context.Context, fileMD5 string) (string, error) {
	return r.Client.Get(ctx, fmt.Sprintf(constants.KeyFileMD5ToProfileUUID, fileMD5)).Result()
}

// CacheRating 缓存评分结果，键按档案UUID加细则版本区分
func (r *Redis) CacheRating(ctx context.Context, profileUUID, rubricVersion string, rating types.Rating) error {
	data, err := json.Marshal(rating)
	if err != nil {
		return fmt.Errorf("序列化评分失败: %w", err)
	}
	key := fmt.Sprintf(constants.KeyProfileRating, profileUUID, rubricVersion)
	if err := r.Client.Set(ctx, key, data, constants.RatingCacheDuration).Err(); err != nil {
		return fmt.Errorf("写入评分缓存失败: %w", err)
	}
	return nil
}

// GetCachedRating 取回缓存的评分，未命中返回ErrNotFound
func (r *Redis) GetCachedRating(ctx context.Context, profileUUID, rubricVersion string) (types.Rating, error) {
	key := fmt.Sprintf(constants.KeyProfileRating, profileUUID, rubricVersion)
	data, err := r.Client.Get(ctx, key).Bytes()
	if err != nil {
		return types.Rating{}, err
	}

	var rating types.Rating
	if err := json.Unmarshal(data, &rating); err != nil {
		return types.Rating{}, fmt.Errorf("反序列化评分缓存失败: %w", err)
	}
	return rating, nil
}

// InvalidateRating 档案变更后清掉对应的评分缓存
func (r *Redis) InvalidateRating(ctx context.Context, profileUUID, rubricVersion string) error {
	key := fmt.Sprintf(constants.KeyProfileRating, profileUUID, rubricVersion)
	return r.Client.Del(ctx, key).Err()
}
