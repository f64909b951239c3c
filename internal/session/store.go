// Package session 服务端会话存储，对应前端的 localStorage
// 每个会话是一组 key -> 序列化 JSON，后写覆盖先写
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"
)

// 会话中使用的 key
const (
	KeyUser       = "user"
	KeyAdminToken = "adminToken"
	KeyAdminUser  = "adminUser"
)

var (
	ErrNotFound  = errors.New("session: key not found")
	ErrMalformed = errors.New("session: malformed value")
)

// Store 会话存储
type Store interface {
	Get(ctx context.Context, sid, key string) ([]byte, error)
	Set(ctx context.Context, sid, key string, value []byte) error
	Delete(ctx context.Context, sid string, keys ...string) error
}

// GetJSON 读取并解析 JSON，解析失败返回 ErrMalformed
func GetJSON(ctx context.Context, s Store, sid, key string, v interface{}) error {
	data, err := s.Get(ctx, sid, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformed, key, err)
	}
	return nil
}

// SetJSON 序列化后写入
func SetJSON(ctx context.Context, s Store, sid, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.Set(ctx, sid, key, data)
}

// Logout 清除用户与管理员的全部 key
// 返回值表示清除前是否存在管理员登录信息，用于决定跳转页面
func Logout(ctx context.Context, s Store, sid string) (hadAdmin bool, err error) {
	if _, err := s.Get(ctx, sid, KeyAdminToken); err == nil {
		hadAdmin = true
	} else if _, err := s.Get(ctx, sid, KeyAdminUser); err == nil {
		hadAdmin = true
	}

	if err := s.Delete(ctx, sid, KeyUser, KeyAdminToken, KeyAdminUser); err != nil {
		return hadAdmin, fmt.Errorf("clear session: %w", err)
	}
	return hadAdmin, nil
}

type memoryEntry struct {
	values    map[string][]byte
	expiresAt time.Time
}

// MemoryStore 进程内会话存储
type MemoryStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[string]*memoryEntry
	now      func() time.Time
}

// NewMemoryStore 创建内存存储，ttl <= 0 表示不过期
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:      ttl,
		sessions: make(map[string]*memoryEntry),
		now:      time.Now,
	}
}

func (m *MemoryStore) entry(sid string, create bool) *memoryEntry {
	e, ok := m.sessions[sid]
	if ok && m.ttl > 0 && m.now().After(e.expiresAt) {
		delete(m.sessions, sid)
		ok = false
	}
	if !ok {
		if !create {
			return nil
		}
		e = &memoryEntry{values: make(map[string][]byte)}
		m.sessions[sid] = e
	}
	if m.ttl > 0 {
		e.expiresAt = m.now().Add(m.ttl)
	}
	return e
}

// Get 读取
func (m *MemoryStore) Get(_ context.Context, sid, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := m.entry(sid, false)
	if e == nil {
		return nil, ErrNotFound
	}
	v, ok := e.values[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

// Set 写入
func (m *MemoryStore) Set(_ context.Context, sid, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entry(sid, true).values[key] = append([]byte(nil), value...)
	return nil
}

// Delete 删除
func (m *MemoryStore) Delete(_ context.Context, sid string, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := m.entry(sid, false)
	if e == nil {
		return nil
	}
	for _, k := range keys {
		delete(e.values, k)
	}
	if len(e.values) == 0 {
		delete(m.sessions, sid)
	}
	return nil
}
