package session

import (
	"context"
	"sync"
)

const (
	// KeyCredential は認証トークンを保存するキー。
	KeyCredential = "x-auth-token"
	// KeyProfile はログイン中の管理者情報を保存するキー。
	KeyProfile = "auth"
)

// Store はセッション状態を保持するキーバリューストア。
type Store interface {
	// Get はキーに対応する値を返す。存在しない場合はokがfalseになる。
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	// Set はキーに値を丸ごと書き込む。
	Set(ctx context.Context, key, value string) error
	// Delete はキーを削除する。存在しなくてもエラーにしない。
	Delete(ctx context.Context, key string) error
	// Clear はすべてのキーを削除する。空のストアに対してもエラーにしない。
	Clear(ctx context.Context) error
}

// MemoryStore はプロセス内のmapで状態を保持するStore。
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStore は空のMemoryStoreを生成する。
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

// Get はキーに対応する値を返す。
func (m *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

// Set はキーに値を書き込む。
func (m *MemoryStore) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

// Delete はキーを削除する。
func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

// Clear はすべてのキーを削除する。
func (m *MemoryStore) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clear(m.values)
	return nil
}

// Len は保持しているキーの数を返す。
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.values)
}
