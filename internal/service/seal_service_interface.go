package service

import (
	"context"

	"github.com/tomkapa/sui-patreon-sub001/pkg/models/seal"
	"github.com/tomkapa/sui-patreon-sub001/pkg/models/session"
)

// ShareRequester 表示一个可以请求部分解密份额的密钥服务器客户端。
// 网关只依赖该抽象，不关心服务器是远端 HTTP 服务还是进程内实例。
type ShareRequester interface {
	// Ref 返回该客户端对应的密钥服务器描述。
	Ref() seal.KeyServerRef

	// RequestShares 向密钥服务器请求部分解密份额。
	RequestShares(ctx context.Context, request *seal.ShareRequest) (*seal.ShareResponse, error)
}

// SealServiceInterface 定义门限加解密网关向外提供的服务。
type SealServiceInterface interface {
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
	Encrypt(plaintext []byte, policyID []byte, threshold int, keyServers []seal.KeyServerRef) (*seal.EncryptedEnvelope, error)

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
	Decrypt(ctx context.Context, envelope *seal.EncryptedEnvelope, sessionKey *session.SessionKey, proofTx []byte) ([]byte, error)
}
