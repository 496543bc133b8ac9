package ledger

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
	"github.com/tomkapa/sui-patreon-sub001/pkg/errorcode"
	"github.com/tomkapa/sui-patreon-sub001/pkg/models/proof"
)

// sealApproveTargetSuffix 是访问证明干跑调用的目标函数后缀。
const sealApproveTargetSuffix = "::subscription::seal_approve"

// SealApproveTarget 返回指定策略命名空间下访问证明干跑调用的完整目标。
func SealApproveTarget(packageID string) string {
	return packageID + sealApproveTargetSuffix
}

// BuildAccessProof 构建一笔访问证明交易并序列化为证明输入。
// 证明恰好引用三个对象：内容对象、订阅对象和时间源。任一引用无法解析为
// 有效的链上对象时，返回以 `errorcode.ErrorProofConstructionFailed` 为
// cause 的错误。构建本身只做只读查询和本地序列化，不消耗 gas。
func BuildAccessProof(ctx context.Context, reader Reader, packageID string, policyID []byte, contentObjectRef, subscriptionObjectRef, clockRef string) ([]byte, error) {
	for _, ref := range []string{contentObjectRef, subscriptionObjectRef, clockRef} {
		if strings.TrimSpace(ref) == "" {
			return nil, errors.Wrap(errorcode.ErrorProofConstructionFailed, "对象引用不能为空")
		}
		if _, err := reader.GetObjectFields(ctx, ref); err != nil {
			return nil, errors.Wrapf(errorcode.ErrorProofConstructionFailed, "无法解析对象引用 %v", ref)
		}
	}

	proofTxBytes, err := reader.BuildDryRunCall(SealApproveTarget(packageID), []interface{}{
		base64.StdEncoding.EncodeToString(policyID),
		contentObjectRef,
		subscriptionObjectRef,
		clockRef,
	})
	if err != nil {
		return nil, errors.Wrap(errorcode.ErrorProofConstructionFailed, err.Error())
	}

	return proofTxBytes, nil
}

// ParseAccessProof 将序列化的访问证明交易解析为 `AccessProofTransaction`。
// 密钥服务器用它从证明中恢复策略 ID 和三个对象引用，随后在本地模拟
// 访问检查。
func ParseAccessProof(proofTxBytes []byte) (*proof.AccessProofTransaction, error) {
	var call dryRunCall
	if err := json.Unmarshal(proofTxBytes, &call); err != nil {
		return nil, errors.Wrap(err, "无法解析访问证明交易")
	}

	if !strings.HasSuffix(call.Target, sealApproveTargetSuffix) {
		return nil, errors.Errorf("访问证明交易的目标不正确: %v", call.Target)
	}

	if len(call.Args) != 4 {
		return nil, errors.Errorf("访问证明交易应引用 4 个参数，得到 %v 个", len(call.Args))
	}

	args := make([]string, 4)
	for i, arg := range call.Args {
		s, ok := arg.(string)
		if !ok {
			return nil, errors.Errorf("访问证明交易的第 %v 个参数不是字符串", i)
		}
		args[i] = s
	}

	policyID, err := base64.StdEncoding.DecodeString(args[0])
	if err != nil {
		return nil, errors.Wrap(err, "无法解析访问证明交易中的策略 ID")
	}

	return &proof.AccessProofTransaction{
		PolicyIDArg:           policyID,
		ContentObjectRef:      args[1],
		SubscriptionObjectRef: args[2],
		ClockRef:              args[3],
	}, nil
}
