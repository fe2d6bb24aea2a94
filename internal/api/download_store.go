package api

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

type downloadEntry struct {
	blobName  string
	expiresAt time.Time
}

// downloadStore 下载令牌表
//
// 令牌只在本进程有效，过期惰性清理。
type downloadStore struct {
	mu    sync.Mutex
	items map[string]downloadEntry
}

func newDownloadStore() *downloadStore {
	return &downloadStore{
		items: make(map[string]downloadEntry),
	}
}

func (s *downloadStore) put(blobName string, ttl time.Duration) (token string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.purgeExpiredLocked(time.Now())

	token = newDownloadToken()
	s.items[token] = downloadEntry{
		blobName:  blobName,
		expiresAt: time.Now().Add(ttl),
	}
	return token
}

func (s *downloadStore) get(token string) (downloadEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.purgeExpiredLocked(time.Now())

	v, ok := s.items[token]
	if !ok {
		return downloadEntry{}, false
	}
	if time.Now().After(v.expiresAt) {
		delete(s.items, token)
		return downloadEntry{}, false
	}
	return v, true
}

func (s *downloadStore) purgeExpiredLocked(now time.Time) {
	for k, v := range s.items {
		if now.After(v.expiresAt) {
			delete(s.items, k)
		}
	}
}

// newDownloadToken URL 路径里直接可用，不带连字符
func newDownloadToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
