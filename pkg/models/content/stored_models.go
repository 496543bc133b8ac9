package content

import "time"

// ContentRecord 包含从链上内容注册表中读出的内容对象。
// 内容对象在发布交易中一次性创建，此后除互动计数外不可变。
type ContentRecord struct {
	ContentID        string    `json:"contentId" mapstructure:"contentId"`               // 内容 ID（由链上分配，全局唯一）
	CreatorID        string    `json:"creatorId" mapstructure:"creatorId"`               // 创作者身份 ID
	CreatorAddress   string    `json:"creatorAddress" mapstructure:"creatorAddress"`     // 创作者地址，加密时用于派生策略 ID
	PolicyNonce      uint64    `json:"policyNonce" mapstructure:"policyNonce"`           // 加密时使用的 nonce，与创作者地址一同派生策略 ID
	IsPublic         bool      `json:"isPublic" mapstructure:"isPublic"`                 // 是否为公开内容。为 true 时访问决策忽略 RequiredTierIDs
	MediaKind        MediaKind `json:"mediaKind" mapstructure:"mediaKind"`               // 媒体类别
	PreviewBlobRef   string    `json:"previewBlobRef" mapstructure:"previewBlobRef"`     // 预览 blob 的内容寻址 ID（始终可解）
	ExclusiveBlobRef string    `json:"exclusiveBlobRef" mapstructure:"exclusiveBlobRef"` // 专属 blob 的内容寻址 ID（可能为加密信封）
	RequiredTierIDs  []string  `json:"requiredTierIds" mapstructure:"requiredTierIds"`   // 访问所需的订阅档位集合。为空时对已认证请求者视作可见（历史数据兼容行为）
	Timestamp        time.Time `json:"timestamp" mapstructure:"timestamp"`               // 发布时间戳
}
