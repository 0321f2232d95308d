package store

import (
	"sync"

	"github.com/TaishiYoshitsugi/calendar-csv-app/internal/session"
)

// MemoryStore 画面の状態を持つ唯一の場所
type MemoryStore struct {
	state session.State
	mu    sync.RWMutex
}

// NewMemoryStore 初期状態を持つストアを作る
func NewMemoryStore(initial session.State) *MemoryStore {
	return &MemoryStore{state: initial}
}

// Snapshot 現在の状態
func (s *MemoryStore) Snapshot() session.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Update fn の結果で状態を置き換える。fn がエラーを返したら状態は変えない
// fn の実行中は他の Update と Snapshot を待たせる
func (s *MemoryStore) Update(fn func(session.State) (session.State, error)) (session.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := fn(s.state)
	if err != nil {
		return s.state, err
	}
	s.state = next
	return next, nil
}

// Apply エラーにならない変更
func (s *MemoryStore) Apply(fn func(session.State) session.State) session.State {
	next, _ := s.Update(func(st session.State) (session.State, error) {
		return fn(st), nil
	})
	return next
}
