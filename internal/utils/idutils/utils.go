package idutils

import (
	"sync"

	"github.com/bwmarrin/snowflake"
	"github.com/pkg/errors"
)

var (
	nonceNodeOnce sync.Once
	nonceNode     *snowflake.Node
	nonceNodeErr  error
)

// GeneratePolicyNonce 生成一个单调递增的 nonce，用于派生策略 ID。
// 所有调用共享同一个 snowflake 节点：同一毫秒内的连续调用由节点内的
// 序列号区分，先后生成的 nonce 严格递增，不会产生策略 ID 碰撞。
func GeneratePolicyNonce() (uint64, error) {
	nonceNodeOnce.Do(func() {
		nonceNode, nonceNodeErr = snowflake.NewNode(1)
	})
	if nonceNodeErr != nil {
		return 0, errors.Wrap(nonceNodeErr, "无法生成 nonce")
	}

	return uint64(nonceNode.Generate().Int64()), nil
}
