package session

import (
	"fmt"
	"time"
)

// State 用于标志一个会话密钥的生命周期状态。
// 状态机：Uninitialized -> AwaitingSignature -> Active -> Expired。
type State int

const (
	// Uninitialized 表示会话密钥尚未创建完成。
	Uninitialized State = iota
	// AwaitingSignature 表示会话密钥已创建但尚未附加个人消息签名。未签名的会话密钥视作已过期处理。
	AwaitingSignature
	// Active 表示会话密钥已附加有效签名，在 TTL 内可用。
	Active
	// Expired 表示会话密钥已过期。过期的会话密钥不可续期，只能重新创建。
	Expired
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "Uninitialized"
	case AwaitingSignature:
		return "AwaitingSignature"
	case Active:
		return "Active"
	case Expired:
		return "Expired"
	default:
		return fmt.Sprintf("%d", int(s))
	}
}

// SessionKey 表示一个短期的、绑定地址的解密凭证。
// 凭证按客户端会话创建，过期后丢弃重建，绝不原地刷新。
type SessionKey struct {
	OwnerAddress   string    `json:"ownerAddress"`   // 凭证所有者地址
	OwnerPublicKey []byte    `json:"ownerPublicKey"` // 所有者 SM2 公钥（64 字节序列化），用于验证个人消息签名
	BoundPackageID string    `json:"boundPackageId"` // 凭证绑定的策略命名空间。跨命名空间使用必须被拒绝
	IssuedAt       time.Time `json:"issuedAt"`       // 签发时间
	TTLMinutes     int       `json:"ttlMinutes"`     // 有效期（分钟）
	Signature      []byte    `json:"signature"`      // 所有者对个人消息的 SM2 签名。为空时凭证不完整
	State          State     `json:"state"`          // 生命周期状态
}

// ExpiresAt 返回会话密钥的过期时刻。
func (k *SessionKey) ExpiresAt() time.Time {
	return k.IssuedAt.Add(time.Duration(k.TTLMinutes) * time.Minute)
}
