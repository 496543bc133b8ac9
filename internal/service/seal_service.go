package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/tomkapa/sui-patreon-sub001/internal/utils/cipherutils"
	"github.com/tomkapa/sui-patreon-sub001/pkg/errorcode"
	"github.com/tomkapa/sui-patreon-sub001/pkg/models/seal"
	"github.com/tomkapa/sui-patreon-sub001/pkg/models/session"
	"go.dedis.ch/kyber/v3/share"
)

// defaultShareRequestTimeout 是向单台密钥服务器请求份额的默认超时。
const defaultShareRequestTimeout = 10 * time.Second

// SealService 实现了 `SealServiceInterface`。
type SealService struct {
	ServiceInfo     *Info
	MasterPublicKey []byte                     // 主公钥 P = sG 的序列化曲线点
	Requesters      []ShareRequester           // 可用的密钥服务器客户端
	SessionKeySvc   SessionKeyServiceInterface // 会话密钥快速失败检查
	ShareTimeout    time.Duration              // 单台服务器的份额请求超时。零值时使用默认超时
	requestersByID  map[string]ShareRequester
}

// NewSealService 创建一个 `SealService` 并为密钥服务器客户端建立索引。
func NewSealService(serviceInfo *Info, masterPublicKey []byte, requesters []ShareRequester, sessionKeySvc SessionKeyServiceInterface) *SealService {
	byID := make(map[string]ShareRequester, len(requesters))
	for _, requester := range requesters {
		byID[requester.Ref().ID] = requester
	}

	return &SealService{
		ServiceInfo:     serviceInfo,
		MasterPublicKey: masterPublicKey,
		Requesters:      requesters,
		SessionKeySvc:   sessionKeySvc,
		requestersByID:  byID,
	}
}

// 在指定策略 ID 下加密一段明文，生成加密信封。纯本地操作，不访问密钥服务器。
//
// 参数：
//   明文
//   策略 ID
//   门限（重建数据密钥所需的份额单位数）
//   参与的密钥服务器列表（含权重）
//
// 返回：
//   加密信封
func (s *SealService) Encrypt(plaintext []byte, policyID []byte, threshold int, keyServers []seal.KeyServerRef) (*seal.EncryptedEnvelope, error) {
	if len(policyID) == 0 {
		return nil, fmt.Errorf("策略 ID 不能为空")
	}
	if len(keyServers) == 0 {
		return nil, errors.Wrap(errorcode.ErrorInvalidThreshold, "密钥服务器列表不能为空")
	}

	totalWeight := 0
	for _, ref := range keyServers {
		if ref.Weight < 1 {
			return nil, errors.Wrapf(errorcode.ErrorInvalidThreshold, "密钥服务器 %v 的权重应至少为 1，得到 %v", ref.ID, ref.Weight)
		}
		totalWeight += ref.Weight
	}
	if threshold < 1 || threshold > totalWeight {
		return nil, errors.Wrapf(errorcode.ErrorInvalidThreshold, "门限应在 [1, %v] 内，得到 %v", totalWeight, threshold)
	}

	suite := cipherutils.Suite
	masterPublicKey, err := cipherutils.DeserializePoint(s.MasterPublicKey)
	if err != nil {
		return nil, errors.Wrap(err, "主公钥不合法")
	}

	// U = rG，S = rP。封印掩码由 S 和策略 ID 共同派生，
	// 策略 ID 不匹配时数据密钥无法正确解开。
	r := suite.Scalar().Pick(suite.RandomStream())
	ephemeralPoint := suite.Point().Mul(r, nil)
	sharedPoint := suite.Point().Mul(r, masterPublicKey)

	dataKey := make([]byte, 32)
	if _, err := rand.Read(dataKey); err != nil {
		return nil, errors.Wrap(err, "无法生成数据密钥")
	}

	sealMask, err := cipherutils.DeriveSymmetricKeyBytesFromPoint(sharedPoint, policyID)
	if err != nil {
		return nil, err
	}

	sealedKey, err := cipherutils.XORBytes(dataKey, sealMask)
	if err != nil {
		return nil, err
	}

	ciphertext, err := cipherutils.EncryptBytesUsingAESKey(plaintext, dataKey, policyID)
	if err != nil {
		return nil, errors.Wrap(err, "无法加密内容")
	}

	ephemeralPointBytes, err := cipherutils.SerializePoint(ephemeralPoint)
	if err != nil {
		return nil, err
	}

	return &seal.EncryptedEnvelope{
		PackageID:      s.ServiceInfo.PackageID,
		PolicyID:       policyID,
		Threshold:      threshold,
		KeyServerRefs:  keyServers,
		EphemeralPoint: ephemeralPointBytes,
		SealedKey:      sealedKey,
		Ciphertext:     ciphertext,
	}, nil
}

// shareResult 是单台密钥服务器的应答在收集通道上的形态。
type shareResult struct {
	serverID string
	weight   int
	granted  bool
	shares   []*share.PubShare
	err      error
}

// 解密一个加密信封。并行向信封中的密钥服务器请求部分解密份额，
// 凑齐门限数量后重建共享点并解开数据密钥。
//
// 参数：
//   加密信封
//   请求者的会话密钥
//   序列化的访问证明交易
//
// 返回：
//   明文
func (s *SealService) Decrypt(ctx context.Context, envelope *seal.EncryptedEnvelope, sessionKey *session.SessionKey, proofTx []byte) ([]byte, error) {
	if envelope == nil {
		return nil, errors.Wrap(errorcode.ErrorMalformedEnvelope, "信封不存在")
	}

	n := envelope.TotalWeight()
	t := envelope.Threshold
	if t < 1 || t > n {
		return nil, errors.Wrapf(errorcode.ErrorInvalidThreshold, "门限应在 [1, %v] 内，得到 %v", n, t)
	}

	// 快速失败：会话密钥无效或命名空间不匹配时不发起任何网络请求
	if err := s.SessionKeySvc.Validate(sessionKey, envelope.PackageID, time.Now()); err != nil {
		return nil, err
	}

	request := &seal.ShareRequest{
		PackageID:      envelope.PackageID,
		PolicyID:       envelope.PolicyID,
		EphemeralPoint: envelope.EphemeralPoint,
		ProofTx:        proofTx,
		SessionKey:     sessionKey,
	}

	timeout := s.ShareTimeout
	if timeout <= 0 {
		timeout = defaultShareRequestTimeout
	}

	results := make(chan *shareResult, len(envelope.KeyServerRefs))
	pendingWeight := 0
	for _, ref := range envelope.KeyServerRefs {
		requester, ok := s.requestersByID[ref.ID]
		if !ok {
			log.Warnf("没有密钥服务器 '%v' 的客户端，跳过", ref.ID)
			continue
		}

		pendingWeight += ref.Weight
		go func(ref seal.KeyServerRef, requester ShareRequester) {
			results <- s.requestSharesFromServer(ctx, requester, ref, request, timeout)
		}(ref, requester)
	}

	collected := []*share.PubShare{}
	collectedWeight := 0
	deniedWeight := 0

	for collectedWeight < t {
		// 尚未应答的权重加上已收集的权重都凑不够门限时，继续等待没有意义
		if collectedWeight+pendingWeight < t {
			if deniedWeight > n-t {
				return nil, errors.Wrap(errorcode.ErrorForbidden, "密钥服务器的访问评估未通过")
			}
			return nil, errors.Wrapf(errorcode.ErrorInsufficientShares, "已收集 %v 个份额，门限为 %v", collectedWeight, t)
		}

		select {
		case <-ctx.Done():
			return nil, errors.Wrap(errorcode.ErrorCancelled, "解密操作已被取消")
		case result := <-results:
			pendingWeight -= result.weight
			if result.err != nil {
				log.Warnf("密钥服务器 '%v' 的份额请求失败: %v", result.serverID, result.err)
				continue
			}
			if !result.granted {
				log.Infof("密钥服务器 '%v' 拒绝了份额请求", result.serverID)
				deniedWeight += result.weight
				continue
			}
			collected = append(collected, result.shares...)
			collectedWeight += len(result.shares)
		}
	}

	sharedPoint, err := share.RecoverCommit(cipherutils.Suite, collected, t, n)
	if err != nil {
		return nil, errors.Wrap(errorcode.ErrorInsufficientShares, err.Error())
	}

	sealMask, err := cipherutils.DeriveSymmetricKeyBytesFromPoint(sharedPoint, envelope.PolicyID)
	if err != nil {
		return nil, err
	}

	dataKey, err := cipherutils.XORBytes(envelope.SealedKey, sealMask)
	if err != nil {
		return nil, errors.Wrap(errorcode.ErrorMalformedEnvelope, err.Error())
	}

	plaintext, err := cipherutils.DecryptBytesUsingAESKey(envelope.Ciphertext, dataKey, envelope.PolicyID)
	if err != nil {
		// 策略 ID 被篡改或份额不一致时认证解密必然失败，按访问被拒绝处理
		return nil, errors.Wrap(errorcode.ErrorForbidden, "无法解开数据密钥，策略 ID 不匹配或密文已被篡改")
	}

	return plaintext, nil
}

// requestSharesFromServer 在单独的超时下请求一台服务器的份额，并把部分解密结果解析为曲线点份额。
func (s *SealService) requestSharesFromServer(ctx context.Context, requester ShareRequester, ref seal.KeyServerRef, request *seal.ShareRequest, timeout time.Duration) *shareResult {
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := requester.RequestShares(reqCtx, request)
	if err != nil {
		return &shareResult{serverID: ref.ID, weight: ref.Weight, err: err}
	}
	if !resp.Granted {
		return &shareResult{serverID: ref.ID, weight: ref.Weight, granted: false}
	}

	pubShares := make([]*share.PubShare, 0, len(resp.Shares))
	for _, partial := range resp.Shares {
		point, err := cipherutils.DeserializePoint(partial.Value)
		if err != nil {
			return &shareResult{serverID: ref.ID, weight: ref.Weight, err: errors.Wrapf(err, "密钥服务器 '%v' 返回的份额不合法", ref.ID)}
		}
		pubShares = append(pubShares, &share.PubShare{I: partial.Index, V: point})
	}

	return &shareResult{serverID: ref.ID, weight: ref.Weight, granted: true, shares: pubShares}
}
