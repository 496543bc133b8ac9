package service

import (
	"context"
	"time"

	"github.com/tomkapa/sui-patreon-sub001/pkg/models/access"
	"github.com/tomkapa/sui-patreon-sub001/pkg/models/content"
	"github.com/tomkapa/sui-patreon-sub001/pkg/models/seal"
	"github.com/tomkapa/sui-patreon-sub001/pkg/models/session"
)

// SessionKeyProvider 按需提供一个可用的会话密钥。
// 编排器只在确实需要解密时才调用它，拿不到可用的会话密钥时应返回错误。
type SessionKeyProvider func(ctx context.Context) (*session.SessionKey, error)

// ContentAccessServiceInterface 定义内容访问编排器向外提供的服务。
type ContentAccessServiceInterface interface {
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
	EncryptAndPublish(ctx context.Context, plaintext []byte, ownerAddress string, nonce uint64, threshold int, keyServers []seal.KeyServerRef) (*PublishReceipt, error)

	// 读取一条内容的链上元数据。
	//
	// 参数：
	//   内容对象 ID
	//
	// 返回：
	//   内容元数据
	GetContentMetadata(ctx context.Context, contentID string) (*content.ContentRecord, error)

	// 在本地评估请求者对一条内容的访问权限。评估是只读的，不触达密钥服务器。
	//
	// 参数：
	//   内容元数据
	//   请求者身份（可为空表示匿名）
	//   判定所用的时刻
	//
	// 返回：
	//   访问判定
	EvaluateAccess(ctx context.Context, record *content.ContentRecord, requesterIdentity string, now time.Time) (*access.Decision, error)

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
	DecryptContent(ctx context.Context, contentID string, subscriptionObjectRef string, requesterAddress string, sessionKeyProvider SessionKeyProvider) (*ContentPlaintext, error)
}
