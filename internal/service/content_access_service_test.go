package service_test

import (
	"context"
	"crypto/rand"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/tjfoc/gmsm/sm2"
	"github.com/tomkapa/sui-patreon-sub001/internal/blobstore"
	"github.com/tomkapa/sui-patreon-sub001/internal/keyserver"
	"github.com/tomkapa/sui-patreon-sub001/internal/ledger"
	"github.com/tomkapa/sui-patreon-sub001/internal/service"
	"github.com/tomkapa/sui-patreon-sub001/internal/utils/cipherutils"
	"github.com/tomkapa/sui-patreon-sub001/internal/utils/retryutils"
	"github.com/tomkapa/sui-patreon-sub001/pkg/errorcode"
	"github.com/tomkapa/sui-patreon-sub001/pkg/models/seal"
	"github.com/tomkapa/sui-patreon-sub001/pkg/models/session"
	"github.com/tomkapa/sui-patreon-sub001/pkg/sm2keyutils"
	"go.dedis.ch/kyber/v3/share"
)

const (
	e2ePackageID      = "0xe2e0000000000000000000000000000000000001"
	e2eCreatorAddress = "0x1111222233334444555566667777888899990000"
	e2eContentID      = "content-1"
	e2eSubscriptionID = "sub-1"
	e2ePolicyNonce    = uint64(314159)
)

// e2eEnv 把整条链路在内存中拉起来：链上对象、blob 存储、三台各持一个份额的
// 密钥服务器（2-of-3）和内容访问编排器。
type e2eEnv struct {
	ledger        *ledger.MemoryLedger
	blobStore     *blobstore.MemoryStore
	contentSvc    *service.ContentAccessService
	sessionKeySvc *service.SessionKeyService
	keyServers    []seal.KeyServerRef
}

func newE2EEnv(t *testing.T) *e2eEnv {
	suite := cipherutils.Suite
	masterScalar := suite.Scalar().Pick(suite.RandomStream())
	masterPublicKeyBytes, err := cipherutils.SerializePoint(suite.Point().Mul(masterScalar, nil))
	if isNoError := assert.NoError(t, err); !isNoError {
		t.FailNow()
	}

	priPoly := share.NewPriPoly(suite, 2, masterScalar, suite.RandomStream())
	priShares := priPoly.Shares(3)

	memLedger := ledger.NewMemoryLedger()
	memBlobStore := blobstore.NewMemoryStore()
	policySvc := &service.AccessPolicyService{}
	sessionKeySvc := &service.SessionKeyService{}

	serverIDs := []string{"ks1", "ks2", "ks3"}
	requesters := make([]service.ShareRequester, 0, len(serverIDs))
	keyServerRefs := make([]seal.KeyServerRef, 0, len(serverIDs))
	for i, serverID := range serverIDs {
		server := &keyserver.Server{
			ServerID:      serverID,
			PackageID:     e2ePackageID,
			Shares:        []*share.PriShare{priShares[i]},
			LedgerReader:  memLedger,
			PolicySvc:     policySvc,
			SessionKeySvc: sessionKeySvc,
		}
		client := &keyserver.LocalClient{Server: server}
		requesters = append(requesters, client)
		keyServerRefs = append(keyServerRefs, client.Ref())
	}

	serviceInfo := &service.Info{
		PackageID:    e2ePackageID,
		LedgerReader: memLedger,
		BlobStore:    memBlobStore,
	}

	contentSvc := &service.ContentAccessService{
		ServiceInfo:        serviceInfo,
		PolicySvc:          policySvc,
		SessionKeySvc:      sessionKeySvc,
		SealSvc:            service.NewSealService(serviceInfo, masterPublicKeyBytes, requesters, sessionKeySvc),
		PublishRetryPolicy: retryutils.DefaultPublishRetryPolicy,
	}

	return &e2eEnv{
		ledger:        memLedger,
		blobStore:     memBlobStore,
		contentSvc:    contentSvc,
		sessionKeySvc: sessionKeySvc,
		keyServers:    keyServerRefs,
	}
}

// newActivatedSessionKey 生成一个 SM2 身份并返回其地址和已激活的会话密钥。
func (env *e2eEnv) newActivatedSessionKey(t *testing.T) (string, *session.SessionKey) {
	privKey, err := sm2.GenerateKey(rand.Reader)
	if isNoError := assert.NoError(t, err); !isNoError {
		t.FailNow()
	}
	ownerAddress := sm2keyutils.DeriveAddressFromPublicKey(&privKey.PublicKey)

	sessionKey, err := env.sessionKeySvc.Create(ownerAddress, e2ePackageID, 10)
	if isNoError := assert.NoError(t, err); !isNoError {
		t.FailNow()
	}
	signature, err := privKey.Sign(rand.Reader, env.sessionKeySvc.PersonalMessage(sessionKey), nil)
	if isNoError := assert.NoError(t, err); !isNoError {
		t.FailNow()
	}
	activated, err := env.sessionKeySvc.AttachSignature(sessionKey, &privKey.PublicKey, signature)
	if isNoError := assert.NoError(t, err); !isNoError {
		t.FailNow()
	}

	return ownerAddress, activated
}

// seedLedger 放入内容对象、订阅对象和时钟对象。
func (env *e2eEnv) seedLedger(subscriberAddress, exclusiveBlobRef string) {
	now := time.Now().UTC()

	env.ledger.SetObject(e2eContentID, map[string]interface{}{
		"contentId":        e2eContentID,
		"creatorId":        "creator-1",
		"creatorAddress":   e2eCreatorAddress,
		"policyNonce":      e2ePolicyNonce,
		"isPublic":         false,
		"mediaKind":        0,
		"previewBlobRef":   "preview-blob",
		"exclusiveBlobRef": exclusiveBlobRef,
		"requiredTierIds":  []string{"tier-gold"},
		"timestamp":        now,
	})

	env.ledger.SetObject(e2eSubscriptionID, map[string]interface{}{
		"subscriberIdentity": subscriberAddress,
		"tierId":             "tier-gold",
		"tierName":           "Gold",
		"startsAt":           now.Add(-24 * time.Hour),
		"expiresAt":          now.Add(24 * time.Hour),
		"isActive":           true,
	})

	env.ledger.SetObject(ledger.ClockObjectRef, map[string]interface{}{
		"now": now,
	})
}

func sessionKeyProvider(sessionKey *session.SessionKey) service.SessionKeyProvider {
	return func(ctx context.Context) (*session.SessionKey, error) {
		return sessionKey, nil
	}
}

func TestPublishThenDecryptEndToEnd(t *testing.T) {
	env := newE2EEnv(t)
	plaintext := []byte("订阅者专属的内容明文")

	// 创作者加密发布
	receipt, err := env.contentSvc.EncryptAndPublish(context.Background(), plaintext, e2eCreatorAddress, e2ePolicyNonce, 2, env.keyServers)
	if isNoError := assert.NoError(t, err); !isNoError {
		t.FailNow()
	}
	assert.NotEmpty(t, receipt.BlobRef)

	// 链上登记内容、订阅与时钟
	subscriberAddress, sessionKey := env.newActivatedSessionKey(t)
	env.seedLedger(subscriberAddress, receipt.BlobRef)

	contentBefore, err := env.ledger.GetObjectFields(context.Background(), e2eContentID)
	if isNoError := assert.NoError(t, err); !isNoError {
		t.FailNow()
	}

	// 订阅者端到端解密
	result, err := env.contentSvc.DecryptContent(context.Background(), e2eContentID, e2eSubscriptionID, subscriberAddress, sessionKeyProvider(sessionKey))
	if isNoError := assert.NoError(t, err); !isNoError {
		t.FailNow()
	}
	assert.Equal(t, plaintext, result.Data)
	assert.Equal(t, len(plaintext), result.DecryptedSize)
	assert.Greater(t, result.EncryptedSize, len(plaintext))

	// 解密是只读流程，不改变任何链上对象
	contentAfter, err := env.ledger.GetObjectFields(context.Background(), e2eContentID)
	if isNoError := assert.NoError(t, err); !isNoError {
		t.FailNow()
	}
	assert.Equal(t, contentBefore, contentAfter)
}

func TestDecryptDeniedWithoutSubscription(t *testing.T) {
	env := newE2EEnv(t)
	plaintext := []byte("exclusive")

	receipt, err := env.contentSvc.EncryptAndPublish(context.Background(), plaintext, e2eCreatorAddress, e2ePolicyNonce, 2, env.keyServers)
	if isNoError := assert.NoError(t, err); !isNoError {
		t.FailNow()
	}

	subscriberAddress, _ := env.newActivatedSessionKey(t)
	env.seedLedger(subscriberAddress, receipt.BlobRef)

	// 另一个没有订阅的用户尝试解密，所有密钥服务器都会拒绝
	strangerAddress, strangerSessionKey := env.newActivatedSessionKey(t)
	_, err = env.contentSvc.DecryptContent(context.Background(), e2eContentID, e2eSubscriptionID, strangerAddress, sessionKeyProvider(strangerSessionKey))
	assert.Equal(t, errorcode.ErrorForbidden, errors.Cause(err))
}

func TestDecryptContentEdgeCases(t *testing.T) {
	env := newE2EEnv(t)
	subscriberAddress, sessionKey := env.newActivatedSessionKey(t)

	// 内容对象不存在
	_, err := env.contentSvc.DecryptContent(context.Background(), "no-such-content", e2eSubscriptionID, subscriberAddress, sessionKeyProvider(sessionKey))
	assert.Equal(t, errorcode.ErrorNotFound, errors.Cause(err))

	// 内容对象缺少专属 blob 引用
	env.seedLedger(subscriberAddress, "")
	_, err = env.contentSvc.DecryptContent(context.Background(), e2eContentID, e2eSubscriptionID, subscriberAddress, sessionKeyProvider(sessionKey))
	assert.Equal(t, errorcode.ErrorMissingBlobReference, errors.Cause(err))

	// blob 引用指向不存在的 blob
	env.seedLedger(subscriberAddress, "no-such-blob")
	_, err = env.contentSvc.DecryptContent(context.Background(), e2eContentID, e2eSubscriptionID, subscriberAddress, sessionKeyProvider(sessionKey))
	assert.Equal(t, errorcode.ErrorBlobNotFound, errors.Cause(err))

	// blob 不是合法的信封
	badBlobRef, err := env.blobStore.Put(context.Background(), []byte("not an envelope"))
	if isNoError := assert.NoError(t, err); !isNoError {
		t.FailNow()
	}
	env.seedLedger(subscriberAddress, badBlobRef)
	_, err = env.contentSvc.DecryptContent(context.Background(), e2eContentID, e2eSubscriptionID, subscriberAddress, sessionKeyProvider(sessionKey))
	assert.Equal(t, errorcode.ErrorMalformedEnvelope, errors.Cause(err))

	// 会话密钥提供者拿不到密钥
	receipt, err := env.contentSvc.EncryptAndPublish(context.Background(), []byte("data"), e2eCreatorAddress, e2ePolicyNonce, 2, env.keyServers)
	if isNoError := assert.NoError(t, err); !isNoError {
		t.FailNow()
	}
	env.seedLedger(subscriberAddress, receipt.BlobRef)
	failingProvider := func(ctx context.Context) (*session.SessionKey, error) {
		return nil, errors.New("用户拒绝签名")
	}
	_, err = env.contentSvc.DecryptContent(context.Background(), e2eContentID, e2eSubscriptionID, subscriberAddress, failingProvider)
	assert.Equal(t, errorcode.ErrorSessionUnavailable, errors.Cause(err))

	// 请求者地址与会话密钥绑定的地址不一致
	_, err = env.contentSvc.DecryptContent(context.Background(), e2eContentID, e2eSubscriptionID, "0x0000000000000000000000000000000000000bad", sessionKeyProvider(sessionKey))
	assert.Equal(t, errorcode.ErrorForbidden, errors.Cause(err))
}

func TestEvaluateAccessOnLedgerRecord(t *testing.T) {
	env := newE2EEnv(t)
	subscriberAddress, _ := env.newActivatedSessionKey(t)
	env.seedLedger(subscriberAddress, "blob-ref")

	record, err := env.contentSvc.GetContentMetadata(context.Background(), e2eContentID)
	if isNoError := assert.NoError(t, err); !isNoError {
		t.FailNow()
	}
	assert.Equal(t, e2eCreatorAddress, record.CreatorAddress)
	assert.Equal(t, e2ePolicyNonce, record.PolicyNonce)

	// 没接数据库时非公开内容对带档位要求的请求者拒绝
	decision, err := env.contentSvc.EvaluateAccess(context.Background(), record, subscriberAddress, time.Now())
	if isNoError := assert.NoError(t, err); !isNoError {
		t.FailNow()
	}
	assert.False(t, decision.Granted)

	// 匿名请求者同样拒绝
	decision, err = env.contentSvc.EvaluateAccess(context.Background(), record, "", time.Now())
	if isNoError := assert.NoError(t, err); !isNoError {
		t.FailNow()
	}
	assert.False(t, decision.Granted)
}
