package ledger

import (
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/tomkapa/sui-patreon-sub001/pkg/models/content"
	"github.com/tomkapa/sui-patreon-sub001/pkg/models/subscription"
)

// DecodeContentRecord 将链上内容对象的字段解码为 `ContentRecord`。
func DecodeContentRecord(fields map[string]interface{}) (*content.ContentRecord, error) {
	var record content.ContentRecord
	if err := decodeFields(fields, &record); err != nil {
		return nil, errors.Wrap(err, "获取的内容对象字段不合法")
	}

	return &record, nil
}

// DecodeSubscriptionRecord 将链上订阅对象的字段解码为 `SubscriptionRecord`。
func DecodeSubscriptionRecord(fields map[string]interface{}) (*subscription.SubscriptionRecord, error) {
	var record subscription.SubscriptionRecord
	if err := decodeFields(fields, &record); err != nil {
		return nil, errors.Wrap(err, "获取的订阅对象字段不合法")
	}

	return &record, nil
}

type clockFields struct {
	Now time.Time `mapstructure:"now"`
}

// DecodeClock 将链上时钟对象的字段解码为时刻。
func DecodeClock(fields map[string]interface{}) (time.Time, error) {
	var clock clockFields
	if err := decodeFields(fields, &clock); err != nil {
		return time.Time{}, errors.Wrap(err, "获取的时钟对象字段不合法")
	}
	if clock.Now.IsZero() {
		return time.Time{}, errors.New("时钟对象缺少 now 字段")
	}

	return clock.Now, nil
}

// decodeFields 以宽松类型规则将字段 map 解码到目标结构。
// 经由 HTTP 网关得到的 JSON 数值和 RFC 3339 时间字符串都能正确落位。
func decodeFields(fields map[string]interface{}, out interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeHookFunc(time.RFC3339),
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}

	return decoder.Decode(fields)
}
