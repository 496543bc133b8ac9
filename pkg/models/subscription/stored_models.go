package subscription

import "time"

// SubscriptionRecord 表示一个订阅者对某个档位的订阅权益。
// 订阅在购买时创建；IsActive 可被管理操作或链上操作关闭；时间窗口过期后自然失效，无需写入。
type SubscriptionRecord struct {
	SubscriberIdentity string    `json:"subscriberIdentity" mapstructure:"subscriberIdentity"` // 订阅者身份（地址）
	TierID             string    `json:"tierId" mapstructure:"tierId"`                         // 档位 ID
	TierName           string    `json:"tierName" mapstructure:"tierName"`                     // 档位名称（仅用于可观测性输出）
	StartsAt           time.Time `json:"startsAt" mapstructure:"startsAt"`                     // 生效时间
	ExpiresAt          time.Time `json:"expiresAt" mapstructure:"expiresAt"`                   // 失效时间
	IsActive           bool      `json:"isActive" mapstructure:"isActive"`                     // 是否处于激活状态，与时间窗口相互独立
}

// EntitlesAt 判断该订阅在 `now` 时刻是否构成有效权益。
// 权益成立当且仅当 IsActive 为 true 且 StartsAt <= now <= ExpiresAt（严格 AND 语义）。
func (r *SubscriptionRecord) EntitlesAt(now time.Time) bool {
	if !r.IsActive {
		return false
	}
	return !now.Before(r.StartsAt) && !now.After(r.ExpiresAt)
}
