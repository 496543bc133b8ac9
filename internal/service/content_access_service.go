package service

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/tomkapa/sui-patreon-sub001/internal/db"
	"github.com/tomkapa/sui-patreon-sub001/internal/ledger"
	"github.com/tomkapa/sui-patreon-sub001/internal/utils/policyutils"
	"github.com/tomkapa/sui-patreon-sub001/internal/utils/retryutils"
	"github.com/tomkapa/sui-patreon-sub001/internal/utils/timingutils"
	"github.com/tomkapa/sui-patreon-sub001/pkg/errorcode"
	"github.com/tomkapa/sui-patreon-sub001/pkg/models/access"
	"github.com/tomkapa/sui-patreon-sub001/pkg/models/content"
	"github.com/tomkapa/sui-patreon-sub001/pkg/models/seal"
)

// ContentAccessService 实现了 `ContentAccessServiceInterface`。
type ContentAccessService struct {
	ServiceInfo        *Info
	PolicySvc          AccessPolicyServiceInterface
	SessionKeySvc      SessionKeyServiceInterface
	SealSvc            SealServiceInterface
	PublishRetryPolicy retryutils.RetryPolicy
}

// 加密一段内容并把加密信封发布到 blob 存储。
//
// 参数：
//   明文
//   创作者地址
//   策略 nonce
//   门限
//   参与的密钥服务器列表
//
// 返回：
//   发布回执（信封、blob 引用和策略 ID）
func (s *ContentAccessService) EncryptAndPublish(ctx context.Context, plaintext []byte, ownerAddress string, nonce uint64, threshold int, keyServers []seal.KeyServerRef) (*PublishReceipt, error) {
	policyID, err := policyutils.DerivePolicyID(ownerAddress, nonce)
	if err != nil {
		return nil, err
	}

	envelope, err := s.SealSvc.Encrypt(plaintext, policyID, threshold, keyServers)
	if err != nil {
		return nil, err
	}

	envelopeBytes, err := policyutils.SerializeEnvelope(envelope)
	if err != nil {
		return nil, err
	}

	var blobRef string
	err = s.PublishRetryPolicy.Do(ctx, "上传加密信封", func() error {
		var putErr error
		blobRef, putErr = s.ServiceInfo.BlobStore.Put(ctx, envelopeBytes)
		return putErr
	})
	if err != nil {
		return nil, err
	}

	return &PublishReceipt{
		Envelope: envelope,
		BlobRef:  blobRef,
		PolicyID: policyID,
	}, nil
}

// 读取一条内容的链上元数据。
//
// 参数：
//   内容对象 ID
//
// 返回：
//   内容元数据
func (s *ContentAccessService) GetContentMetadata(ctx context.Context, contentID string) (*content.ContentRecord, error) {
	fields, err := s.ServiceInfo.LedgerReader.GetObjectFields(ctx, contentID)
	if err != nil {
		return nil, err
	}

	return ledger.DecodeContentRecord(fields)
}

// 在本地评估请求者对一条内容的访问权限。评估是只读的，不触达密钥服务器。
//
// 参数：
//   内容元数据
//   请求者身份（可为空表示匿名）
//   判定所用的时刻
//
// 返回：
//   访问判定
func (s *ContentAccessService) EvaluateAccess(ctx context.Context, record *content.ContentRecord, requesterIdentity string, now time.Time) (*access.Decision, error) {
	if record == nil {
		return nil, &ErrorBadRequest{errMsg: "内容元数据不能为空"}
	}

	// 只有需要按档位判定时才查询订阅数据库
	if record.IsPublic || requesterIdentity == "" || len(record.RequiredTierIDs) == 0 || s.ServiceInfo.DB == nil {
		return s.PolicySvc.Evaluate(record, requesterIdentity, nil, now), nil
	}

	subscriptions, err := db.FindActiveSubscriptions(requesterIdentity, record.RequiredTierIDs, now, s.ServiceInfo.DB)
	if err != nil {
		return nil, err
	}

	return s.PolicySvc.Evaluate(record, requesterIdentity, subscriptions, now), nil
}

// 端到端解密一条内容：取元数据、取信封、构建访问证明、
// 经门限网关解密。各阶段的失败原样向上传递，绝不掩盖。
// 请求者地址必须与会话密钥绑定的地址一致。
//
// 参数：
//   内容对象 ID
//   订阅对象引用
//   请求者地址
//   会话密钥提供者
//
// 返回：
//   解密结果
func (s *ContentAccessService) DecryptContent(ctx context.Context, contentID string, subscriptionObjectRef string, requesterAddress string, sessionKeyProvider SessionKeyProvider) (*ContentPlaintext, error) {
	defer timingutils.GetDeferrableTimingLogger("解密内容")()

	record, err := s.GetContentMetadata(ctx, contentID)
	if err != nil {
		return nil, err
	}

	if record.ExclusiveBlobRef == "" {
		return nil, errors.Wrapf(errorcode.ErrorMissingBlobReference, "内容 ID: %v", contentID)
	}

	envelopeBytes, err := s.ServiceInfo.BlobStore.Get(ctx, record.ExclusiveBlobRef)
	if err != nil {
		return nil, err
	}

	envelope, err := policyutils.ParseEnvelope(envelopeBytes)
	if err != nil {
		return nil, err
	}

	if sessionKeyProvider == nil {
		return nil, errors.Wrap(errorcode.ErrorSessionUnavailable, "没有会话密钥提供者")
	}
	sessionKey, err := sessionKeyProvider(ctx)
	if err != nil {
		return nil, errors.Wrap(errorcode.ErrorSessionUnavailable, err.Error())
	}
	if s.SessionKeySvc.IsExpired(sessionKey, time.Now()) {
		return nil, errors.Wrap(errorcode.ErrorSessionUnavailable, "会话密钥已过期或未签名")
	}
	if requesterAddress != sessionKey.OwnerAddress {
		return nil, errors.Wrap(errorcode.ErrorForbidden, "请求者地址与会话密钥绑定的地址不一致")
	}

	proofTx, err := ledger.BuildAccessProof(ctx, s.ServiceInfo.LedgerReader, envelope.PackageID, envelope.PolicyID, contentID, subscriptionObjectRef, ledger.ClockObjectRef)
	if err != nil {
		return nil, err
	}

	plaintext, err := s.SealSvc.Decrypt(ctx, envelope, sessionKey, proofTx)
	if err != nil {
		return nil, err
	}

	return &ContentPlaintext{
		Data:          plaintext,
		EncryptedSize: len(envelopeBytes),
		DecryptedSize: len(plaintext),
	}, nil
}
