package blobstore

import "context"

// Store 是内容寻址 blob 存储的窄接口。实现必须可被多个并发请求安全共享
// （按连接池对待，不是可变游标）。
type Store interface {
	// Put 存入字节内容，返回内容寻址 ID。
	Put(ctx context.Context, data []byte) (string, error)

	// Get 按内容寻址 ID 取回字节内容。ID 无法解析时返回以
	// `errorcode.ErrorBlobNotFound` 为 cause 的错误。
	Get(ctx context.Context, id string) ([]byte, error)

	// Exists 判断内容寻址 ID 是否可解析。
	Exists(ctx context.Context, id string) (bool, error)
}
