package keyserver

import (
	"bytes"
	"context"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/tomkapa/sui-patreon-sub001/internal/ledger"
	"github.com/tomkapa/sui-patreon-sub001/internal/service"
	"github.com/tomkapa/sui-patreon-sub001/internal/utils/cipherutils"
	"github.com/tomkapa/sui-patreon-sub001/internal/utils/policyutils"
	"github.com/tomkapa/sui-patreon-sub001/pkg/models/content"
	"github.com/tomkapa/sui-patreon-sub001/pkg/models/seal"
	"github.com/tomkapa/sui-patreon-sub001/pkg/models/subscription"
	"go.dedis.ch/kyber/v3/share"
)

// Server 是一台密钥服务器。它持有主密钥的若干连续份额（权重为 w 的服务器
// 持有 w 个），对每个份额请求独立做一次完整的访问评估，通过后才在请求的
// 临时曲线点上计算部分解密。服务器之间互不通信，也从不接触完整的主密钥。
type Server struct {
	ServerID      string
	PackageID     string            // 服务器只为该策略命名空间发放份额
	Shares        []*share.PriShare // 持有的主密钥份额
	LedgerReader  ledger.Reader
	PolicySvc     service.AccessPolicyServiceInterface
	SessionKeySvc service.SessionKeyServiceInterface
}

// Weight 返回服务器的权重，即持有的份额数。
func (s *Server) Weight() int {
	return len(s.Shares)
}

// ComputeShares 处理一个份额请求。
// 访问评估未通过时返回 Granted 为 false 的答复而非错误；
// 错误只用于报告服务器自身无法完成评估的情形。
func (s *Server) ComputeShares(ctx context.Context, request *seal.ShareRequest) (*seal.ShareResponse, error) {
	if request == nil {
		return nil, errors.New("份额请求不能为空")
	}

	if request.PackageID != s.PackageID {
		return s.deny("策略命名空间不受本服务器支持"), nil
	}

	if err := s.SessionKeySvc.Validate(request.SessionKey, s.PackageID, time.Now()); err != nil {
		log.Infof("密钥服务器 '%v' 拒绝请求: %v", s.ServerID, err)
		return s.deny("会话密钥无效"), nil
	}

	proof, err := ledger.ParseAccessProof(request.ProofTx)
	if err != nil {
		log.Infof("密钥服务器 '%v' 拒绝请求: %v", s.ServerID, err)
		return s.deny("访问证明不合法"), nil
	}

	// 证明中的策略 ID 必须与请求解密的策略 ID 一致
	if !bytes.Equal(proof.PolicyIDArg, request.PolicyID) {
		return s.deny("访问证明中的策略 ID 与请求不匹配"), nil
	}

	record, err := s.fetchContentRecord(ctx, proof.ContentObjectRef)
	if err != nil {
		log.Infof("密钥服务器 '%v' 拒绝请求: %v", s.ServerID, err)
		return s.deny("无法解析内容对象"), nil
	}

	// 从内容对象独立重新派生策略 ID。请求者无法通过伪造证明
	// 把别的内容的策略 ID 套在这条内容上。
	derivedPolicyID, err := policyutils.DerivePolicyID(record.CreatorAddress, record.PolicyNonce)
	if err != nil || !bytes.Equal(derivedPolicyID, request.PolicyID) {
		return s.deny("策略 ID 与内容对象不匹配"), nil
	}

	now, err := s.fetchClock(ctx, proof.ClockRef)
	if err != nil {
		log.Infof("密钥服务器 '%v' 拒绝请求: %v", s.ServerID, err)
		return s.deny("无法解析时钟对象"), nil
	}

	subscriptions := s.fetchSubscriptions(ctx, proof.SubscriptionObjectRef)

	decision := s.PolicySvc.Evaluate(record, request.SessionKey.OwnerAddress, subscriptions, now)
	if !decision.Granted {
		return s.deny(decision.Reason), nil
	}

	ephemeralPoint, err := cipherutils.DeserializePoint(request.EphemeralPoint)
	if err != nil {
		return nil, errors.Wrap(err, "请求中的临时曲线点不合法")
	}

	partials := make([]seal.PartialShare, 0, len(s.Shares))
	for _, priShare := range s.Shares {
		// 部分解密：x_i * U
		partialPoint := cipherutils.Suite.Point().Mul(priShare.V, ephemeralPoint)
		partialBytes, err := cipherutils.SerializePoint(partialPoint)
		if err != nil {
			return nil, err
		}

		partials = append(partials, seal.PartialShare{Index: priShare.I, Value: partialBytes})
	}

	return &seal.ShareResponse{
		ServerID: s.ServerID,
		Granted:  true,
		Shares:   partials,
	}, nil
}

func (s *Server) deny(reason string) *seal.ShareResponse {
	return &seal.ShareResponse{
		ServerID: s.ServerID,
		Granted:  false,
		Reason:   reason,
	}
}

func (s *Server) fetchContentRecord(ctx context.Context, contentObjectRef string) (*content.ContentRecord, error) {
	objectFields, err := s.LedgerReader.GetObjectFields(ctx, contentObjectRef)
	if err != nil {
		return nil, err
	}

	return ledger.DecodeContentRecord(objectFields)
}

func (s *Server) fetchClock(ctx context.Context, clockRef string) (time.Time, error) {
	fields, err := s.LedgerReader.GetObjectFields(ctx, clockRef)
	if err != nil {
		return time.Time{}, err
	}

	return ledger.DecodeClock(fields)
}

// fetchSubscriptions 尽力读取证明中引用的订阅对象。读不到时返回空列表，
// 交由策略引擎按无订阅处理；公开内容不依赖这条路径。
func (s *Server) fetchSubscriptions(ctx context.Context, subscriptionObjectRef string) []*subscription.SubscriptionRecord {
	fields, err := s.LedgerReader.GetObjectFields(ctx, subscriptionObjectRef)
	if err != nil {
		return nil
	}

	record, err := ledger.DecodeSubscriptionRecord(fields)
	if err != nil {
		return nil
	}

	return []*subscription.SubscriptionRecord{record}
}
