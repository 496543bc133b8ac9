package seal

// KeyServerRef 表示一台参与门限解密的密钥服务器。
type KeyServerRef struct {
	ID       string `json:"id" yaml:"id"`             // 服务器标识
	Endpoint string `json:"endpoint" yaml:"endpoint"` // 服务器份额接口地址
	Weight   int    `json:"weight" yaml:"weight"`     // 权重。权重为 w 的服务器持有 w 个连续的主密钥份额
}

// EncryptedEnvelope 表示加密内容的线格式。
// 信封在发布/加密时一次性创建，原样存入 blob 存储，此后不可变；重新上传产生带新策略 ID 的新信封。
type EncryptedEnvelope struct {
	PackageID      string         `json:"packageId"`      // 策略命名空间（链上包 ID）
	PolicyID       []byte         `json:"policyId"`       // 策略 ID（IBE 身份），由 (创作者地址, nonce) 派生
	Threshold      int            `json:"threshold"`      // 重建数据密钥所需的份额单位数
	KeyServerRefs  []KeyServerRef `json:"keyServerRefs"`  // 参与服务器的有序列表（含权重）
	EphemeralPoint []byte         `json:"ephemeralPoint"` // 加密时生成的临时曲线点 U = rG
	SealedKey      []byte         `json:"sealedKey"`      // 被封装的数据密钥：K XOR H(rP || policyId)
	Ciphertext     []byte         `json:"ciphertext"`     // AES-256-GCM 密文，策略 ID 作为附加认证数据
}

// TotalWeight 返回信封中所有密钥服务器的权重之和，即份额总数 n。
func (e *EncryptedEnvelope) TotalWeight() int {
	total := 0
	for _, ref := range e.KeyServerRefs {
		total += ref.Weight
	}
	return total
}
