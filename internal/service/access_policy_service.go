package service

import (
	"time"

	"github.com/tomkapa/sui-patreon-sub001/pkg/models/access"
	"github.com/tomkapa/sui-patreon-sub001/pkg/models/content"
	"github.com/tomkapa/sui-patreon-sub001/pkg/models/subscription"
)

// AccessPolicyService 实现了 `AccessPolicyServiceInterface`。
type AccessPolicyService struct{}

// 对一次访问请求作出判定。
//
// 参数：
//   内容元数据
//   请求者身份（地址，可为空表示匿名）
//   请求者名下的订阅记录
//   判定所用的时刻
//
// 返回：
//   访问判定
func (s *AccessPolicyService) Evaluate(record *content.ContentRecord, requesterIdentity string, subscriptions []*subscription.SubscriptionRecord, now time.Time) *access.Decision {
	if record == nil {
		return access.Deny("内容元数据不存在")
	}

	// 公开内容对任何人（包括匿名请求者）直接放行
	if record.IsPublic {
		return access.Grant("", "")
	}

	if requesterIdentity == "" {
		return access.Deny("需要身份认证")
	}

	// 档位列表为空的非公开内容视为对所有已认证请求者可见。
	// 这是对历史数据的兼容行为：早期发布的内容没有档位字段。
	if len(record.RequiredTierIDs) == 0 {
		return access.Grant("", "")
	}

	required := make(map[string]bool, len(record.RequiredTierIDs))
	for _, tierID := range record.RequiredTierIDs {
		required[tierID] = true
	}

	for _, sub := range subscriptions {
		if sub == nil {
			continue
		}
		if !required[sub.TierID] {
			continue
		}
		if sub.SubscriberIdentity != requesterIdentity {
			continue
		}
		if sub.EntitlesAt(now) {
			return access.Grant(sub.TierID, sub.TierName)
		}
	}

	return access.Deny("没有所需档位的有效订阅")
}
