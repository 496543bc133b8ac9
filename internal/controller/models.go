package controller

import "github.com/tomkapa/sui-patreon-sub001/pkg/models/access"

// ContentPublicationInfo 包含内容成功加密发布时应该返回给客户端的信息
type ContentPublicationInfo struct {
	BlobRef  string `json:"blobRef"`  // 加密信封在 blob 存储中的内容寻址 ID
	PolicyID string `json:"policyId"` // 策略 ID 的 Base64 编码
}

// SessionKeyCreationInfo 包含会话密钥成功创建时应该返回给客户端的信息
type SessionKeyCreationInfo struct {
	PersonalMessage string `json:"personalMessage"` // 待所有者签名的个人消息的 Base64 编码
	IssuedAt        string `json:"issuedAt"`        // 签发时间（RFC 3339）
	TTLMinutes      int    `json:"ttlMinutes"`      // 有效期（分钟）
}

// DecryptionInfo 包含内容成功解密时应该返回给客户端的信息
type DecryptionInfo struct {
	Data          string `json:"data"`          // 明文的 Base64 编码
	EncryptedSize int    `json:"encryptedSize"` // 信封大小
	DecryptedSize int    `json:"decryptedSize"` // 明文大小
}

// AccessEvaluationInfo 包含访问评估结果中应该返回给客户端的信息
type AccessEvaluationInfo struct {
	Granted       bool   `json:"granted"`
	MatchedTierID string `json:"matchedTierId,omitempty"`
	Reason        string `json:"reason,omitempty"`
}

// NewAccessEvaluationInfoFromDecision 将访问判定转换为响应信息。
func NewAccessEvaluationInfoFromDecision(decision *access.Decision) *AccessEvaluationInfo {
	return &AccessEvaluationInfo{
		Granted:       decision.Granted,
		MatchedTierID: decision.MatchedTierID,
		Reason:        decision.Reason,
	}
}
