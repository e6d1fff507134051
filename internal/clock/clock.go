// Package clock は現在時刻の取得を抽象化する。
// 時間窓による判定を行うコンポーネントはClockを注入して使い、
// テストでは時刻を固定する。
package clock

import (
	"sync"
	"time"
)

// Clock は現在時刻を返すインターフェース。
type Clock interface {
	Now() time.Time
}

// Real はシステム時刻を返すClock。
type Real struct{}

// Now は現在のシステム時刻を返す。
func (Real) Now() time.Time {
	return time.Now()
}

// Fixed は任意の時刻に固定できるClock。テスト用。
type Fixed struct {
	mu  sync.RWMutex
	now time.Time
}

// NewFixed は指定時刻で固定されたClockを生成する。
func NewFixed(now time.Time) *Fixed {
	return &Fixed{now: now}
}

// Now は固定された時刻を返す。
func (f *Fixed) Now() time.Time {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.now
}

// Set は時刻を上書きする。
func (f *Fixed) Set(now time.Time) {
	f.mu.Lock()
	f.now = now
	f.mu.Unlock()
}

// Advance は時刻をdだけ進める。
func (f *Fixed) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}
