package access

// Decision 表示访问策略引擎对一次访问请求的决定。
type Decision struct {
	Granted       bool   `json:"granted"`                 // 是否允许访问
	MatchedTierID string `json:"matchedTierId,omitempty"` // 命中的档位 ID（仅用于可观测性）
	MatchedTier   string `json:"matchedTier,omitempty"`   // 命中的档位名称（仅用于可观测性）
	Reason        string `json:"reason,omitempty"`        // 拒绝时的原因描述
}

// Grant 构造一个允许访问的决定。
func Grant(tierID, tierName string) *Decision {
	return &Decision{Granted: true, MatchedTierID: tierID, MatchedTier: tierName}
}

// Deny 构造一个拒绝访问的决定。
func Deny(reason string) *Decision {
	return &Decision{Granted: false, Reason: reason}
}
