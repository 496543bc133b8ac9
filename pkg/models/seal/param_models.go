package seal

import "github.com/tomkapa/sui-patreon-sub001/pkg/models/session"

// ShareRequest 表示要传给密钥服务器的份额请求。
type ShareRequest struct {
	PackageID      string              `json:"packageId"`      // 请求所属的策略命名空间
	PolicyID       []byte              `json:"policyId"`       // 请求解密的策略 ID
	EphemeralPoint []byte              `json:"ephemeralPoint"` // 信封中的临时曲线点 U，服务器在其上计算部分解密
	ProofTx        []byte              `json:"proofTx"`        // 序列化的访问证明交易（仅模拟，绝不执行）
	SessionKey     *session.SessionKey `json:"sessionKey"`     // 请求者的会话密钥
}

// PartialShare 表示密钥服务器返回的单个部分解密份额。
type PartialShare struct {
	Index int    `json:"index"` // 份额下标（Shamir 多项式求值点）
	Value []byte `json:"value"` // 部分解密结果 x_i * U 的序列化曲线点
}

// ShareResponse 表示密钥服务器对份额请求的答复。
type ShareResponse struct {
	ServerID string         `json:"serverId"` // 应答服务器的标识
	Granted  bool           `json:"granted"`  // 服务器的独立访问评估是否通过
	Reason   string         `json:"reason"`   // 拒绝时的原因描述（不包含策略 ID 等敏感信息）
	Shares   []PartialShare `json:"shares"`   // 通过时返回的部分解密份额（权重为 w 的服务器返回 w 个）
}
