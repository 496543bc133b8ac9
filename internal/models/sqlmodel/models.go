package sqlmodel

import (
	"time"

	"github.com/tomkapa/sui-patreon-sub001/pkg/models/subscription"
)

// Subscription 是订阅记录在关系数据库中的形态。
// 数据库只是链上订阅对象的本地索引，便于按订阅者批量查询；权威数据始终在链上。
type Subscription struct {
	ID                 uint      `gorm:"primaryKey"`
	SubscriberIdentity string    `gorm:"column:subscriber_identity;uniqueIndex:idx_subscriber_tier,priority:1"`
	TierID             string    `gorm:"column:tier_id;uniqueIndex:idx_subscriber_tier,priority:2"`
	TierName           string    `gorm:"column:tier_name"`
	StartsAt           time.Time `gorm:"column:starts_at"`
	ExpiresAt          time.Time `gorm:"column:expires_at"`
	IsActive           bool      `gorm:"column:is_active"`
}

// TableName 指定 `Subscription` 对应的表名。
func (Subscription) TableName() string {
	return "subscriptions"
}

// ToModel 将数据库行转换为领域模型。
func (s *Subscription) ToModel() *subscription.SubscriptionRecord {
	return &subscription.SubscriptionRecord{
		SubscriberIdentity: s.SubscriberIdentity,
		TierID:             s.TierID,
		TierName:           s.TierName,
		StartsAt:           s.StartsAt,
		ExpiresAt:          s.ExpiresAt,
		IsActive:           s.IsActive,
	}
}

// NewSubscriptionFromModel 将领域模型转换为数据库行。
func NewSubscriptionFromModel(record *subscription.SubscriptionRecord) *Subscription {
	return &Subscription{
		SubscriberIdentity: record.SubscriberIdentity,
		TierID:             record.TierID,
		TierName:           record.TierName,
		StartsAt:           record.StartsAt,
		ExpiresAt:          record.ExpiresAt,
		IsActive:           record.IsActive,
	}
}
