package retryutils

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestRetryPolicyDo(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond}

	// 第二次尝试成功
	attempts := 0
	err := policy.Do(context.Background(), "测试操作", func() error {
		attempts++
		if attempts < 2 {
			return errors.New("临时失败")
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 2, attempts)

	// 尝试次数用尽后返回最后一次的错误
	attempts = 0
	err = policy.Do(context.Background(), "测试操作", func() error {
		attempts++
		return errors.New("总是失败")
	})
	assert.Error(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetryPolicyCancel(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 5, BaseDelay: time.Hour}

	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := policy.Do(ctx, "测试操作", func() error {
		attempts++
		return errors.New("失败")
	})
	assert.Error(t, err)
	assert.Equal(t, 1, attempts)
}
