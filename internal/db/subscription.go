package db

import (
	"time"

	"github.com/pkg/errors"
	"github.com/tomkapa/sui-patreon-sub001/internal/models/sqlmodel"
	"github.com/tomkapa/sui-patreon-sub001/pkg/models/subscription"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SaveSubscriptionToLocalDB 将 `subscription.SubscriptionRecord` 保存到指定的数据库中（若已存在则覆盖）。
func SaveSubscriptionToLocalDB(record *subscription.SubscriptionRecord, db *gorm.DB) error {
	subscriptionDB := sqlmodel.NewSubscriptionFromModel(record)

	// 写入或覆盖订阅记录于 subscriptions 表
	dbResult := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "subscriber_identity"}, {Name: "tier_id"}},
		UpdateAll: true,
	}).Create(subscriptionDB)
	if dbResult.Error != nil {
		return errors.Wrap(dbResult.Error, "无法将订阅记录存入数据库")
	}

	return nil
}

// FindActiveSubscriptions 从数据库中查询订阅者在指定档位下、在指定时刻有效的订阅记录。
func FindActiveSubscriptions(subscriberIdentity string, tierIDs []string, asOf time.Time, db *gorm.DB) ([]*subscription.SubscriptionRecord, error) {
	var rows []sqlmodel.Subscription
	dbResult := db.
		Where("`subscriber_identity` = ?", subscriberIdentity).
		Where("`tier_id` IN ?", tierIDs).
		Where("`is_active` = ?", true).
		Where("`starts_at` <= ?", asOf).
		Where("`expires_at` >= ?", asOf).
		Find(&rows)
	if dbResult.Error != nil {
		return nil, errors.Wrap(dbResult.Error, "无法从数据库中查询订阅记录")
	}

	records := make([]*subscription.SubscriptionRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.ToModel())
	}

	return records, nil
}
