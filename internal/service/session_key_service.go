package service

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/tjfoc/gmsm/sm2"
	"github.com/tomkapa/sui-patreon-sub001/pkg/errorcode"
	"github.com/tomkapa/sui-patreon-sub001/pkg/models/session"
	"github.com/tomkapa/sui-patreon-sub001/pkg/sm2keyutils"
)

// personalMessagePrefix 标识个人消息的用途与版本，防止签名被挪用到其他协议。
const personalMessagePrefix = "patreon-seal-session|v1"

// SessionKeyService 实现了 `SessionKeyServiceInterface`。
type SessionKeyService struct{}

// 为指定地址创建一个尚未签名的会话密钥。
//
// 参数：
//   所有者地址
//   绑定的策略命名空间（链上包 ID）
//   有效期（分钟）
//
// 返回：
//   处于 AwaitingSignature 状态的会话密钥
func (s *SessionKeyService) Create(ownerAddress string, boundPackageID string, ttlMinutes int) (*session.SessionKey, error) {
	if ownerAddress == "" {
		return nil, fmt.Errorf("所有者地址不能为空")
	}
	if boundPackageID == "" {
		return nil, fmt.Errorf("绑定的策略命名空间不能为空")
	}
	if ttlMinutes < 1 {
		return nil, fmt.Errorf("有效期应至少为 1 分钟，得到 %v", ttlMinutes)
	}

	return &session.SessionKey{
		OwnerAddress:   ownerAddress,
		BoundPackageID: boundPackageID,
		IssuedAt:       time.Now().UTC(),
		TTLMinutes:     ttlMinutes,
		State:          session.AwaitingSignature,
	}, nil
}

// 计算会话密钥对应的个人消息。所有者须在钱包中对该消息签名。
// 消息由会话密钥的全部绑定字段确定性拼接而成，任一字段变化都会使已有签名失效。
//
// 参数：
//   会话密钥
//
// 返回：
//   个人消息字节
func (s *SessionKeyService) PersonalMessage(key *session.SessionKey) []byte {
	msg := fmt.Sprintf("%s|owner=%s|package=%s|issuedAt=%d|ttlMinutes=%d",
		personalMessagePrefix, key.OwnerAddress, key.BoundPackageID, key.IssuedAt.UnixNano(), key.TTLMinutes)
	return []byte(msg)
}

// 验证并附加所有者签名，激活会话密钥。
//
// 参数：
//   会话密钥
//   所有者公钥
//   所有者对个人消息的签名
//
// 返回：
//   处于 Active 状态的会话密钥副本
func (s *SessionKeyService) AttachSignature(key *session.SessionKey, ownerPublicKey *sm2.PublicKey, signature []byte) (*session.SessionKey, error) {
	if key == nil {
		return nil, errors.Wrap(errorcode.ErrorSessionUnavailable, "会话密钥不存在")
	}
	if key.State != session.AwaitingSignature {
		return nil, fmt.Errorf("会话密钥的状态应为 AwaitingSignature，得到 %v", key.State)
	}

	address := sm2keyutils.DeriveAddressFromPublicKey(ownerPublicKey)
	if address != key.OwnerAddress {
		return nil, errors.Wrap(errorcode.ErrorInvalidSignature, "公钥与会话密钥的所有者地址不匹配")
	}

	if !ownerPublicKey.Verify(s.PersonalMessage(key), signature) {
		return nil, errors.Wrap(errorcode.ErrorInvalidSignature, "个人消息签名验证失败")
	}

	activated := *key
	activated.OwnerPublicKey = sm2keyutils.SerializePublicKey(ownerPublicKey)
	activated.Signature = signature
	activated.State = session.Active

	return &activated, nil
}

// 判断会话密钥在指定时刻是否已过期。未签名的会话密钥一律视作已过期。
//
// 参数：
//   会话密钥
//   判定所用的时刻
//
// 返回：
//   是否已过期
func (s *SessionKeyService) IsExpired(key *session.SessionKey, now time.Time) bool {
	if key == nil {
		return true
	}
	if key.State != session.Active || len(key.Signature) == 0 {
		return true
	}

	return now.After(key.ExpiresAt())
}

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
func (s *SessionKeyService) Validate(key *session.SessionKey, packageID string, now time.Time) error {
	if key == nil {
		return errors.Wrap(errorcode.ErrorSessionUnavailable, "请求未携带会话密钥")
	}
	if s.IsExpired(key, now) {
		return errors.Wrapf(errorcode.ErrorSessionExpired, "会话密钥状态: %v", key.State)
	}
	if key.BoundPackageID != packageID {
		return errors.Wrapf(errorcode.ErrorForbidden, "会话密钥绑定的命名空间 %v 与请求的命名空间 %v 不匹配", key.BoundPackageID, packageID)
	}

	publicKey, err := sm2keyutils.DeserializePublicKey(key.OwnerPublicKey)
	if err != nil {
		return errors.Wrap(errorcode.ErrorInvalidSignature, "会话密钥中的公钥不合法")
	}

	if sm2keyutils.DeriveAddressFromPublicKey(publicKey) != key.OwnerAddress {
		return errors.Wrap(errorcode.ErrorInvalidSignature, "公钥与会话密钥的所有者地址不匹配")
	}

	if !publicKey.Verify(s.PersonalMessage(key), key.Signature) {
		return errors.Wrap(errorcode.ErrorInvalidSignature, "个人消息签名验证失败")
	}

	return nil
}
