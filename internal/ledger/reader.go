package ledger

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
)

// ClockObjectRef 是链上共享时钟对象的公认引用。
const ClockObjectRef = "0x6"

// Reader 是链上对象的只读访问接口。实现必须可被多个并发请求安全共享。
// 解密流程只通过它读取对象字段和构建干跑证明交易，绝不产生链上写入。
type Reader interface {
	// GetObjectFields 读取链上对象的字段。对象不存在时返回以
	// `errorcode.ErrorNotFound` 为 cause 的错误。
	GetObjectFields(ctx context.Context, objectID string) (map[string]interface{}, error)

	// BuildDryRunCall 将一次合约调用序列化为字节，仅用于干跑证明，
	// 绝不提交执行。
	BuildDryRunCall(moduleTarget string, args []interface{}) ([]byte, error)
}

// dryRunCall 是干跑调用的序列化形式。
type dryRunCall struct {
	Target string        `json:"target"`
	Args   []interface{} `json:"args"`
}

// serializeDryRunCall 是各 `Reader` 实现共用的干跑调用序列化逻辑。
func serializeDryRunCall(moduleTarget string, args []interface{}) ([]byte, error) {
	if moduleTarget == "" {
		return nil, errors.New("干跑调用的目标不能为空")
	}

	callBytes, err := json.Marshal(dryRunCall{Target: moduleTarget, Args: args})
	if err != nil {
		return nil, errors.Wrap(err, "无法序列化干跑调用")
	}

	return callBytes, nil
}
