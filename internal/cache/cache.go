// Package cache はTTL付きキャッシュの抽象と、LRUを用いた実装を提供する。
// キャッシュのライフサイクルは呼び出し側（app）が所有し、
// パッケージレベルのシングルトンは持たない。
package cache

import (
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/hitoshi/recruitboard/internal/clock"
)

// Cache はキーごとにTTLを指定できるキャッシュのインターフェース。
type Cache[V any] interface {
	// Get はキーに対応する値を返す。未登録または期限切れの場合はfalseを返す。
	Get(key string) (V, bool)
	// Set は値をttlの間保持する。ttlが0以下の場合は保存しない。
	Set(key string, value V, ttl time.Duration)
	// Delete はキーを削除する。
	Delete(key string)
}

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// TTLCache は容量上限付きLRUの各エントリに有効期限を持たせたキャッシュ。
// 期限切れエントリは読み出し時に削除する。スレッドセーフ。
type TTLCache[V any] struct {
	lru   *lru.Cache[string, entry[V]]
	clock clock.Clock
}

// NewTTLCache はTTLCacheを生成する。sizeは保持する最大エントリ数。
func NewTTLCache[V any](size int, c clock.Clock) (*TTLCache[V], error) {
	if c == nil {
		c = clock.Real{}
	}
	l, err := lru.New[string, entry[V]](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create lru cache: %w", err)
	}
	return &TTLCache[V]{lru: l, clock: c}, nil
}

// Get はキーに対応する値を返す。
func (c *TTLCache[V]) Get(key string) (V, bool) {
	var zero V
	e, ok := c.lru.Get(key)
	if !ok {
		return zero, false
	}
	if !c.clock.Now().Before(e.expiresAt) {
		c.lru.Remove(key)
		return zero, false
	}
	return e.value, true
}

// Set は値をttlの間保持する。
func (c *TTLCache[V]) Set(key string, value V, ttl time.Duration) {
	if ttl <= 0 {
		c.lru.Remove(key)
		return
	}
	c.lru.Add(key, entry[V]{value: value, expiresAt: c.clock.Now().Add(ttl)})
}

// Delete はキーを削除する。
func (c *TTLCache[V]) Delete(key string) {
	c.lru.Remove(key)
}

// Len は現在保持しているエントリ数を返す。期限切れで未回収のものを含む。
func (c *TTLCache[V]) Len() int {
	return c.lru.Len()
}

// compile-time interface check
var _ Cache[string] = (*TTLCache[string])(nil)
