package cart

import (
	"context"
	"sync"
	"time"

	"github.com/storefront-next/internal/gateway"
	"github.com/storefront-next/internal/logger"
	"github.com/storefront-next/internal/session"
)

// Manager 按浏览会话持有购物车引擎。购物车状态在会话存续期内由
// 唯一的引擎实例独占，跨页面通过会话存储交接。
type Manager struct {
	gw    gateway.OrderGateway
	store session.CartStore

	mu       sync.Mutex
	engines  map[string]*managedEngine
	maxIdle  time.Duration
	interval time.Duration
}

type managedEngine struct {
	engine   *Engine
	lastSeen time.Time
}

// NewManager 创建引擎管理器
func NewManager(gw gateway.OrderGateway, store session.CartStore, maxIdle time.Duration) *Manager {
	if maxIdle <= 0 {
		maxIdle = 2 * time.Hour
	}
	return &Manager{
		gw:       gw,
		store:    store,
		engines:  make(map[string]*managedEngine),
		maxIdle:  maxIdle,
		interval: time.Minute,
	}
}

// GetOrCreate 取会话对应的引擎；账户切换时重建（旧状态随之废弃）
func (m *Manager) GetOrCreate(sessionID, accountID string) *Engine {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.engines[sessionID]
	if ok && entry.engine.AccountID() == accountID {
		entry.lastSeen = time.Now()
		return entry.engine
	}
	if ok {
		logger.Debugw("cart_engine_rebuilt",
			"session_id", sessionID,
			"old_account", entry.engine.AccountID(),
			"new_account", accountID,
		)
	}
	engine := NewEngine(m.gw, m.store, sessionID, accountID)
	m.engines[sessionID] = &managedEngine{engine: engine, lastSeen: time.Now()}
	return engine
}

// Drop 移除会话引擎
func (m *Manager) Drop(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.engines, sessionID)
}

// Len 当前被管理的引擎数量
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.engines)
}

// RunSweeper 周期回收空闲超时的引擎，直到 ctx 结束
func (m *Manager) RunSweeper(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.sweep(time.Now())
		}
	}
}

func (m *Manager) sweep(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for sessionID, entry := range m.engines {
		if now.Sub(entry.lastSeen) > m.maxIdle {
			delete(m.engines, sessionID)
		}
	}
}
