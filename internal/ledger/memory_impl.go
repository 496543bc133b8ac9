package ledger

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/tomkapa/sui-patreon-sub001/pkg/errorcode"
)

// MemoryLedger 是内存中的 `Reader` 实现，用于测试与单机演示。
// 它同时提供写入对象的辅助方法；这些方法不属于 `Reader` 接口，
// 解密流程无法经由接口触达它们。
type MemoryLedger struct {
	mu      sync.RWMutex
	objects map[string]map[string]interface{}
}

// NewMemoryLedger 创建一个空的 `MemoryLedger`。
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{objects: make(map[string]map[string]interface{})}
}

// SetObject 放入（或覆盖）一个对象的字段。仅供测试与初始化使用。
func (l *MemoryLedger) SetObject(objectID string, fields map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.objects[objectID] = fields
}

// GetObjectFields 读取对象的字段。
func (l *MemoryLedger) GetObjectFields(ctx context.Context, objectID string) (map[string]interface{}, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	fields, ok := l.objects[objectID]
	if !ok {
		return nil, errors.Wrapf(errorcode.ErrorNotFound, "对象 ID: %v", objectID)
	}

	out := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		out[k] = v
	}

	return out, nil
}

// BuildDryRunCall 序列化一次干跑调用。
func (l *MemoryLedger) BuildDryRunCall(moduleTarget string, args []interface{}) ([]byte, error) {
	return serializeDryRunCall(moduleTarget, args)
}
