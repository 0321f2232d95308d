package store

import (
	"crypto/rand"
	"encoding/base64"
	"sync"
	"time"

	"github.com/TaishiYoshitsugi/calendar-csv-app/internal/exporter"
)

type download struct {
	artifact  *exporter.Artifact
	expiresAt time.Time
}

// DownloadStore 出力結果の一時置き場
// トークンは 1 回だけ使え、ttl を過ぎると消える
type DownloadStore struct {
	mu    sync.Mutex
	items map[string]download
	ttl   time.Duration
	now   func() time.Time
}

// NewDownloadStore ttl が 0 以下なら 10 分
func NewDownloadStore(ttl time.Duration) *DownloadStore {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &DownloadStore{
		items: make(map[string]download),
		ttl:   ttl,
		now:   time.Now,
	}
}

// Put 出力結果を預けてトークンを返す
func (s *DownloadStore) Put(artifact *exporter.Artifact) (token string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.purgeExpiredLocked(now)

	token = newRandomToken(24)
	s.items[token] = download{
		artifact:  artifact,
		expiresAt: now.Add(s.ttl),
	}
	return token
}

// Take 出力結果を取り出す。取り出したトークンは無効になる
func (s *DownloadStore) Take(token string) (*exporter.Artifact, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.purgeExpiredLocked(s.now())

	v, ok := s.items[token]
	if !ok {
		return nil, false
	}
	delete(s.items, token)
	return v.artifact, true
}

// Len 保持している件数
func (s *DownloadStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purgeExpiredLocked(s.now())
	return len(s.items)
}

func (s *DownloadStore) purgeExpiredLocked(now time.Time) {
	for k, v := range s.items {
		if now.After(v.expiresAt) {
			delete(s.items, k)
		}
	}
}

func newRandomToken(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}
