package session

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/storefront-next/internal/config"
	"github.com/storefront-next/internal/constants"
	"github.com/storefront-next/internal/models"

	"github.com/redis/go-redis/v9"
)

// RedisStore 基于 Redis 的会话购物车存储
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore 创建 Redis 会话存储
func NewRedisStore(cfg *config.RedisConfig, ttl time.Duration) (*RedisStore, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, fmt.Errorf("redis is disabled")
	}
	addr := strings.TrimSpace(cfg.Host)
	if addr == "" {
		addr = "127.0.0.1"
	}
	port := cfg.Port
	if port <= 0 {
		port = 6379
	}
	prefix := strings.TrimSpace(cfg.Prefix)
	if prefix == "" {
		prefix = "sf"
	}
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", addr, port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}, nil
}

// NewRedisStoreWithClient 用现有客户端创建会话存储（测试用）
func NewRedisStoreWithClient(client *redis.Client, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = "sf"
	}
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}
}

// SaveCart 写入会话购物车
func (s *RedisStore) SaveCart(ctx context.Context, sessionID string, lines []models.CartLine) error {
	if strings.TrimSpace(sessionID) == "" {
		return ErrSessionRequired
	}
	if lines == nil {
		lines = []models.CartLine{}
	}
	payload, err := json.Marshal(lines)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.cartKey(sessionID), payload, s.ttl).Err()
}

// LoadCart 读取会话购物车，缺失时返回空切片
func (s *RedisStore) LoadCart(ctx context.Context, sessionID string) ([]models.CartLine, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, ErrSessionRequired
	}
	val, err := s.client.Get(ctx, s.cartKey(sessionID)).Result()
	if err == redis.Nil {
		return []models.CartLine{}, nil
	}
	if err != nil {
		return nil, err
	}
	var lines []models.CartLine
	if err := json.Unmarshal([]byte(val), &lines); err != nil {
		return nil, err
	}
	return lines, nil
}

// ClearCart 清空会话购物车
func (s *RedisStore) ClearCart(ctx context.Context, sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return ErrSessionRequired
	}
	return s.client.Del(ctx, s.cartKey(sessionID)).Err()
}

// SaveAccount 保存会话账户上下文（结算后保留）
func (s *RedisStore) SaveAccount(ctx context.Context, sessionID, accountID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return ErrSessionRequired
	}
	return s.client.Set(ctx, s.accountKey(sessionID), accountID, s.ttl).Err()
}

// LoadAccount 读取会话账户上下文
func (s *RedisStore) LoadAccount(ctx context.Context, sessionID string) (string, error) {
	if strings.TrimSpace(sessionID) == "" {
		return "", ErrSessionRequired
	}
	val, err := s.client.Get(ctx, s.accountKey(sessionID)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return val, nil
}

func (s *RedisStore) cartKey(sessionID string) string {
	return fmt.Sprintf("%s:%s:%s", s.prefix, constants.SessionCartKeyPrefix, sessionID)
}

func (s *RedisStore) accountKey(sessionID string) string {
	return fmt.Sprintf("%s:%s:%s", s.prefix, constants.SessionAccountKeyPrefix, sessionID)
}
