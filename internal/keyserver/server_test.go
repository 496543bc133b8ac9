package keyserver

import (
	"context"
	"crypto/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/tjfoc/gmsm/sm2"
	"github.com/tomkapa/sui-patreon-sub001/internal/ledger"
	"github.com/tomkapa/sui-patreon-sub001/internal/service"
	"github.com/tomkapa/sui-patreon-sub001/internal/utils/cipherutils"
	"github.com/tomkapa/sui-patreon-sub001/internal/utils/policyutils"
	"github.com/tomkapa/sui-patreon-sub001/pkg/models/seal"
	"github.com/tomkapa/sui-patreon-sub001/pkg/models/session"
	"github.com/tomkapa/sui-patreon-sub001/pkg/sm2keyutils"
	"go.dedis.ch/kyber/v3/share"
)

const (
	ksPackageID      = "0xks00000000000000000000000000000000000001"
	ksCreatorAddress = "0xaaaabbbbccccddddeeeeffff0000111122223333"
	ksPolicyNonce    = uint64(271828)
)

func newTestServer(t *testing.T, weight int) (*Server, *ledger.MemoryLedger) {
	suite := cipherutils.Suite
	masterScalar := suite.Scalar().Pick(suite.RandomStream())
	priPoly := share.NewPriPoly(suite, 2, masterScalar, suite.RandomStream())
	priShares := priPoly.Shares(weight)

	memLedger := ledger.NewMemoryLedger()

	server := &Server{
		ServerID:      "ks1",
		PackageID:     ksPackageID,
		Shares:        priShares,
		LedgerReader:  memLedger,
		PolicySvc:     &service.AccessPolicyService{},
		SessionKeySvc: &service.SessionKeyService{},
	}

	return server, memLedger
}

func newSignedSessionKey(t *testing.T, packageID string) (string, *session.SessionKey) {
	svc := &service.SessionKeyService{}

	privKey, err := sm2.GenerateKey(rand.Reader)
	if isNoError := assert.NoError(t, err); !isNoError {
		t.FailNow()
	}
	ownerAddress := sm2keyutils.DeriveAddressFromPublicKey(&privKey.PublicKey)

	sessionKey, err := svc.Create(ownerAddress, packageID, 10)
	if isNoError := assert.NoError(t, err); !isNoError {
		t.FailNow()
	}
	signature, err := privKey.Sign(rand.Reader, svc.PersonalMessage(sessionKey), nil)
	if isNoError := assert.NoError(t, err); !isNoError {
		t.FailNow()
	}
	activated, err := svc.AttachSignature(sessionKey, &privKey.PublicKey, signature)
	if isNoError := assert.NoError(t, err); !isNoError {
		t.FailNow()
	}

	return ownerAddress, activated
}

func seedLedger(memLedger *ledger.MemoryLedger, subscriberAddress string) {
	now := time.Now().UTC()

	memLedger.SetObject("content-1", map[string]interface{}{
		"contentId":        "content-1",
		"creatorAddress":   ksCreatorAddress,
		"policyNonce":      ksPolicyNonce,
		"isPublic":         false,
		"exclusiveBlobRef": "blob-1",
		"requiredTierIds":  []string{"tier-gold"},
	})
	memLedger.SetObject("sub-1", map[string]interface{}{
		"subscriberIdentity": subscriberAddress,
		"tierId":             "tier-gold",
		"tierName":           "Gold",
		"startsAt":           now.Add(-time.Hour),
		"expiresAt":          now.Add(time.Hour),
		"isActive":           true,
	})
	memLedger.SetObject(ledger.ClockObjectRef, map[string]interface{}{"now": now})
}

func TestComputeShares(t *testing.T) {
	server, memLedger := newTestServer(t, 2)
	subscriberAddress, sessionKey := newSignedSessionKey(t, ksPackageID)
	seedLedger(memLedger, subscriberAddress)

	policyID, err := policyutils.DerivePolicyID(ksCreatorAddress, ksPolicyNonce)
	if isNoError := assert.NoError(t, err); !isNoError {
		t.FailNow()
	}

	proofTx, err := ledger.BuildAccessProof(context.Background(), memLedger, ksPackageID, policyID, "content-1", "sub-1", ledger.ClockObjectRef)
	if isNoError := assert.NoError(t, err); !isNoError {
		t.FailNow()
	}

	suite := cipherutils.Suite
	ephemeralPointBytes, err := cipherutils.SerializePoint(suite.Point().Pick(suite.RandomStream()))
	if isNoError := assert.NoError(t, err); !isNoError {
		t.FailNow()
	}

	request := &seal.ShareRequest{
		PackageID:      ksPackageID,
		PolicyID:       policyID,
		EphemeralPoint: ephemeralPointBytes,
		ProofTx:        proofTx,
		SessionKey:     sessionKey,
	}

	// 评估通过时返回与权重相同数量的份额
	response, err := server.ComputeShares(context.Background(), request)
	if isNoError := assert.NoError(t, err); !isNoError {
		t.FailNow()
	}
	assert.True(t, response.Granted)
	assert.Len(t, response.Shares, 2)

	// 请求的策略 ID 与内容对象不一致时拒绝
	wrongPolicyID, err := policyutils.DerivePolicyID(ksCreatorAddress, ksPolicyNonce+1)
	if isNoError := assert.NoError(t, err); !isNoError {
		t.FailNow()
	}
	wrongProofTx, err := ledger.BuildAccessProof(context.Background(), memLedger, ksPackageID, wrongPolicyID, "content-1", "sub-1", ledger.ClockObjectRef)
	if isNoError := assert.NoError(t, err); !isNoError {
		t.FailNow()
	}
	wrongRequest := *request
	wrongRequest.PolicyID = wrongPolicyID
	wrongRequest.ProofTx = wrongProofTx
	response, err = server.ComputeShares(context.Background(), &wrongRequest)
	if isNoError := assert.NoError(t, err); !isNoError {
		t.FailNow()
	}
	assert.False(t, response.Granted)

	// 策略命名空间不受支持时拒绝
	foreignRequest := *request
	foreignRequest.PackageID = "0xanother-package"
	response, err = server.ComputeShares(context.Background(), &foreignRequest)
	if isNoError := assert.NoError(t, err); !isNoError {
		t.FailNow()
	}
	assert.False(t, response.Granted)

	// 未签名的会话密钥拒绝
	unsignedKey := *sessionKey
	unsignedKey.State = session.AwaitingSignature
	unsignedKey.Signature = nil
	unsignedRequest := *request
	unsignedRequest.SessionKey = &unsignedKey
	response, err = server.ComputeShares(context.Background(), &unsignedRequest)
	if isNoError := assert.NoError(t, err); !isNoError {
		t.FailNow()
	}
	assert.False(t, response.Granted)

	// 没有所需订阅的请求者拒绝
	_, strangerKey := newSignedSessionKey(t, ksPackageID)
	strangerRequest := *request
	strangerRequest.SessionKey = strangerKey
	response, err = server.ComputeShares(context.Background(), &strangerRequest)
	if isNoError := assert.NoError(t, err); !isNoError {
		t.FailNow()
	}
	assert.False(t, response.Granted)
}
