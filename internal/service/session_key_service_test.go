package service

import (
	"crypto/rand"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/tjfoc/gmsm/sm2"
	"github.com/tomkapa/sui-patreon-sub001/pkg/errorcode"
	"github.com/tomkapa/sui-patreon-sub001/pkg/models/session"
	"github.com/tomkapa/sui-patreon-sub001/pkg/sm2keyutils"
)

const testPackageID = "0xpkg0000000000000000000000000000000000001"

func TestSessionKeyLifecycle(t *testing.T) {
	svc := &SessionKeyService{}

	privKey, err := sm2.GenerateKey(rand.Reader)
	if isNoError := assert.NoError(t, err); !isNoError {
		t.FailNow()
	}
	ownerAddress := sm2keyutils.DeriveAddressFromPublicKey(&privKey.PublicKey)

	// 创建后处于 AwaitingSignature 状态，未签名时视作已过期
	sessionKey, err := svc.Create(ownerAddress, testPackageID, 10)
	if isNoError := assert.NoError(t, err); !isNoError {
		t.FailNow()
	}
	assert.Equal(t, session.AwaitingSignature, sessionKey.State)
	assert.True(t, svc.IsExpired(sessionKey, time.Now()))

	// 所有者对个人消息签名后激活
	signature, err := privKey.Sign(rand.Reader, svc.PersonalMessage(sessionKey), nil)
	if isNoError := assert.NoError(t, err); !isNoError {
		t.FailNow()
	}

	activated, err := svc.AttachSignature(sessionKey, &privKey.PublicKey, signature)
	if isNoError := assert.NoError(t, err); !isNoError {
		t.FailNow()
	}
	assert.Equal(t, session.Active, activated.State)
	assert.False(t, svc.IsExpired(activated, time.Now()))
	assert.NoError(t, svc.Validate(activated, testPackageID, time.Now()))

	// 原对象保持不变
	assert.Equal(t, session.AwaitingSignature, sessionKey.State)

	// 边界：恰在过期时刻仍然有效，过了一纳秒就不再有效
	expiresAt := activated.ExpiresAt()
	assert.False(t, svc.IsExpired(activated, expiresAt))
	assert.True(t, svc.IsExpired(activated, expiresAt.Add(time.Nanosecond)))

	// 绑定的命名空间不匹配时拒绝
	err = svc.Validate(activated, "0xanother-package", time.Now())
	assert.Equal(t, errorcode.ErrorForbidden, errors.Cause(err))
}

func TestSessionKeySignatureChecks(t *testing.T) {
	svc := &SessionKeyService{}

	privKey, err := sm2.GenerateKey(rand.Reader)
	if isNoError := assert.NoError(t, err); !isNoError {
		t.FailNow()
	}
	ownerAddress := sm2keyutils.DeriveAddressFromPublicKey(&privKey.PublicKey)

	sessionKey, err := svc.Create(ownerAddress, testPackageID, 10)
	if isNoError := assert.NoError(t, err); !isNoError {
		t.FailNow()
	}

	// 别人的公钥不能激活这个会话密钥
	otherKey, err := sm2.GenerateKey(rand.Reader)
	if isNoError := assert.NoError(t, err); !isNoError {
		t.FailNow()
	}
	otherSignature, err := otherKey.Sign(rand.Reader, svc.PersonalMessage(sessionKey), nil)
	if isNoError := assert.NoError(t, err); !isNoError {
		t.FailNow()
	}
	_, err = svc.AttachSignature(sessionKey, &otherKey.PublicKey, otherSignature)
	assert.Equal(t, errorcode.ErrorInvalidSignature, errors.Cause(err))

	// 签名的消息不对时拒绝
	wrongSignature, err := privKey.Sign(rand.Reader, []byte("some other message"), nil)
	if isNoError := assert.NoError(t, err); !isNoError {
		t.FailNow()
	}
	_, err = svc.AttachSignature(sessionKey, &privKey.PublicKey, wrongSignature)
	assert.Equal(t, errorcode.ErrorInvalidSignature, errors.Cause(err))

	// 激活后篡改绑定字段会使签名失效
	signature, err := privKey.Sign(rand.Reader, svc.PersonalMessage(sessionKey), nil)
	if isNoError := assert.NoError(t, err); !isNoError {
		t.FailNow()
	}
	activated, err := svc.AttachSignature(sessionKey, &privKey.PublicKey, signature)
	if isNoError := assert.NoError(t, err); !isNoError {
		t.FailNow()
	}

	tampered := *activated
	tampered.BoundPackageID = testPackageID
	tampered.TTLMinutes = 9999
	err = svc.Validate(&tampered, testPackageID, time.Now())
	assert.Equal(t, errorcode.ErrorInvalidSignature, errors.Cause(err))

	// 没有会话密钥时报告不可用
	err = svc.Validate(nil, testPackageID, time.Now())
	assert.Equal(t, errorcode.ErrorSessionUnavailable, errors.Cause(err))
}
