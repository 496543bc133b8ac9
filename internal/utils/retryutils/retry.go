package retryutils

import (
	"context"
	"math/rand"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// RetryPolicy 是一个显式的重试策略对象，只应作用于调用方可控的编排边界
// （例如发布流程中的 blob 上传），核心的加解密操作保持无重试。
type RetryPolicy struct {
	MaxAttempts int           // 最大尝试次数（含第一次）
	BaseDelay   time.Duration // 首次重试前的基础延迟，之后按指数退避
	Jitter      float64       // 抖动比例，取值 [0, 1]
}

// DefaultPublishRetryPolicy 是发布流程默认使用的重试策略。
var DefaultPublishRetryPolicy = RetryPolicy{
	MaxAttempts: 3,
	BaseDelay:   500 * time.Millisecond,
	Jitter:      0.2,
}

// Do 按策略执行 `op`，失败时按指数退避加抖动重试，直到成功、
// 尝试次数用尽或 ctx 被取消。返回最后一次的错误。
func (p RetryPolicy) Do(ctx context.Context, description string, op func() error) error {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}

	var err error
	delay := p.BaseDelay
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if err = op(); err == nil {
			return nil
		}

		if attempt == p.MaxAttempts {
			break
		}

		log.Debugf("%v 失败（第 %v 次尝试），%v 后重试: %v", description, attempt, delay, err)

		jittered := delay
		if p.Jitter > 0 {
			jittered += time.Duration(rand.Float64() * p.Jitter * float64(delay))
		}

		select {
		case <-time.After(jittered):
		case <-ctx.Done():
			return errors.Wrapf(ctx.Err(), "%v 的重试被取消", description)
		}

		delay *= 2
	}

	return errors.Wrapf(err, "%v 在 %v 次尝试后仍然失败", description, p.MaxAttempts)
}
