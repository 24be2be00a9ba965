package session

import (
	"context"
	"strings"
	"sync"

	"github.com/storefront-next/internal/models"
)

// MemoryStore 进程内会话存储，Redis 不可用时的降级实现，也用于测试
type MemoryStore struct {
	mu       sync.Mutex
	carts    map[string][]models.CartLine
	accounts map[string]string
}

// NewMemoryStore 创建内存会话存储
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		carts:    make(map[string][]models.CartLine),
		accounts: make(map[string]string),
	}
}

// SaveCart 写入会话购物车
func (s *MemoryStore) SaveCart(_ context.Context, sessionID string, lines []models.CartLine) error {
	if strings.TrimSpace(sessionID) == "" {
		return ErrSessionRequired
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := make([]models.CartLine, len(lines))
	copy(copied, lines)
	s.carts[sessionID] = copied
	return nil
}

// LoadCart 读取会话购物车，缺失时返回空切片
func (s *MemoryStore) LoadCart(_ context.Context, sessionID string) ([]models.CartLine, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, ErrSessionRequired
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := s.carts[sessionID]
	copied := make([]models.CartLine, len(stored))
	copy(copied, stored)
	return copied, nil
}

// ClearCart 清空会话购物车
func (s *MemoryStore) ClearCart(_ context.Context, sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return ErrSessionRequired
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, sessionID)
	return nil
}

// SaveAccount 保存会话账户上下文
func (s *MemoryStore) SaveAccount(_ context.Context, sessionID, accountID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return ErrSessionRequired
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[sessionID] = accountID
	return nil
}

// LoadAccount 读取会话账户上下文
func (s *MemoryStore) LoadAccount(_ context.Context, sessionID string) (string, error) {
	if strings.TrimSpace(sessionID) == "" {
		return "", ErrSessionRequired
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accounts[sessionID], nil
}
