package service

import (
	"time"

	"github.com/tomkapa/sui-patreon-sub001/pkg/models/access"
	"github.com/tomkapa/sui-patreon-sub001/pkg/models/content"
	"github.com/tomkapa/sui-patreon-sub001/pkg/models/subscription"
)

// AccessPolicyServiceInterface 定义访问策略引擎向外提供的服务。
// 引擎是纯函数式的：同样的输入总是给出同样的判定，内部不产生任何副作用。
type AccessPolicyServiceInterface interface {
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
	Evaluate(record *content.ContentRecord, requesterIdentity string, subscriptions []*subscription.SubscriptionRecord, now time.Time) *access.Decision
}
