package blobstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"

	"github.com/pkg/errors"
	"github.com/tomkapa/sui-patreon-sub001/pkg/errorcode"
)

// MemoryStore 是内存中的 `Store` 实现，内容寻址 ID 为字节内容的 SHA-256
// 十六进制串。用于测试与单机演示。
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// NewMemoryStore 创建一个空的 `MemoryStore`。
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string][]byte)}
}

// Put 存入字节内容并返回其 SHA-256 内容寻址 ID。
func (s *MemoryStore) Put(ctx context.Context, data []byte) (string, error) {
	digest := sha256.Sum256(data)
	id := hex.EncodeToString(digest[:])

	stored := make([]byte, len(data))
	copy(stored, data)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[id] = stored

	return id, nil
}

// Get 按内容寻址 ID 取回字节内容。
func (s *MemoryStore) Get(ctx context.Context, id string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.blobs[id]
	if !ok {
		return nil, errors.Wrapf(errorcode.ErrorBlobNotFound, "ID: %v", id)
	}

	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// Exists 判断内容寻址 ID 是否存在。
func (s *MemoryStore) Exists(ctx context.Context, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.blobs[id]
	return ok, nil
}
