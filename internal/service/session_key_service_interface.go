package service

import (
	"time"

	"github.com/tjfoc/gmsm/sm2"
	"github.com/tomkapa/sui-patreon-sub001/pkg/models/session"
)

// SessionKeyServiceInterface 定义会话密钥管理向外提供的服务。
type SessionKeyServiceInterface interface {
	// 为指定地址创建一个尚未签名的会话密钥。
	//
	// 参数：
	//   所有者地址
	//   绑定的策略命名空间（链上包 ID）
	//   有效期（分钟）
	//
	// 返回：
	//   处于 AwaitingSignature 状态的会话密钥
	Create(ownerAddress string, boundPackageID string, ttlMinutes int) (*session.SessionKey, error)

	// 计算会话密钥对应的个人消息。所有者须在钱包中对该消息签名。
	//
	// 参数：
	//   会话密钥
	//
	// 返回：
	//   个人消息字节
	PersonalMessage(key *session.SessionKey) []byte

	// 验证并附加所有者签名，激活会话密钥。
	//
	// 参数：
	//   会话密钥
	//   所有者公钥
	//   所有者对个人消息的签名
	//
	// 返回：
	//   处于 Active 状态的会话密钥副本
	AttachSignature(key *session.SessionKey, ownerPublicKey *sm2.PublicKey, signature []byte) (*session.SessionKey, error)

	// 判断会话密钥在指定时刻是否已过期。未签名的会话密钥一律视作已过期。
	//
	// 参数：
	//   会话密钥
	//   判定所用的时刻
	//
	// 返回：
	//   是否已过期
	IsExpired(key *session.SessionKey, now time.Time) bool

	// 校验会话密钥可否用于指定策略命名空间的解密请求。
	// 密钥服务器与网关都用它做快速失败检查。
	//
	// 参数：
	//   会话密钥
	//   目标策略命名空间
	//   判定所用的时刻
	//
	// 返回：
	//   校验不通过时返回带有对应错误码 cause 的错误
	Validate(key *session.SessionKey, packageID string, now time.Time) error
}
