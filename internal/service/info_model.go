package service

import (
	"github.com/tomkapa/sui-patreon-sub001/internal/blobstore"
	"github.com/tomkapa/sui-patreon-sub001/internal/ledger"
	"github.com/tomkapa/sui-patreon-sub001/pkg/models/seal"
	"gorm.io/gorm"
)

// Info needed for a service to know which policy namespace (on-chain package)
// it's serving and which external clients it's using.
type Info struct {
	PackageID    string          // 策略命名空间（链上包 ID）
	LedgerReader ledger.Reader   // 链上对象只读访问
	BlobStore    blobstore.Store // 内容寻址 blob 存储
	DB           *gorm.DB        // 订阅关系数据库（可为 nil，纯链上部署时）
}

// ContentPlaintext 是一次解密操作的结果。
// 两个大小字段仅用于可观测性/遥测，不承载任何安全含义。
type ContentPlaintext struct {
	Data          []byte `json:"data"`          // 解密后的明文
	EncryptedSize int    `json:"encryptedSize"` // 信封（密文）大小
	DecryptedSize int    `json:"decryptedSize"` // 明文大小
}

// PublishReceipt 是一次加密发布操作的结果。
type PublishReceipt struct {
	Envelope *seal.EncryptedEnvelope `json:"envelope"` // 加密信封
	BlobRef  string                  `json:"blobRef"`  // 信封在 blob 存储中的内容寻址 ID
	PolicyID []byte                  `json:"policyId"` // 派生出的策略 ID
}
