package cache

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Locker 是基于 Manager 的按键互斥锁，键统一加前缀.
type Locker struct {
	manager *Manager
	prefix  string
	ttl     time.Duration
	logger  *zap.Logger
}

// NewLocker 创建锁. ttl 是持有者崩溃后锁自动失效的上限.
func NewLocker(m *Manager, prefix string, ttl time.Duration) *Locker {
	return &Locker{
		manager: m,
		prefix:  prefix,
		ttl:     ttl,
		logger:  m.logger.With(zap.String("prefix", prefix)),
	}
}

// TryLock 尝试获取 key 对应的锁. 成功时返回释放函数.
func (l *Locker) TryLock(ctx context.Context, key string) (func(), bool, error) {
	full := l.prefix + key

	token, ok, err := l.manager.TryLock(ctx, full, l.ttl)
	if err != nil || !ok {
		return nil, ok, err
	}

	release := func() {
		// 请求上下文可能已取消，释放使用独立的超时
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		released, err := l.manager.Unlock(ctx, full, token)
		switch {
		case err != nil:
			l.logger.Warn("lock release failed", zap.String("key", full), zap.Error(err))
		case !released:
			l.logger.Warn("lock expired before release", zap.String("key", full))
		}
	}
	return release, true, nil
}
