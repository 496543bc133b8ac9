package appinit

import (
	"encoding/base64"
	"io/ioutil"

	errors "github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/tomkapa/sui-patreon-sub001/internal/blobstore"
	"github.com/tomkapa/sui-patreon-sub001/internal/ledger"
	"github.com/tomkapa/sui-patreon-sub001/internal/utils/cipherutils"
	"go.dedis.ch/kyber/v3/share"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// serializedPriShareLen 是单个序列化份额的长度。
const serializedPriShareLen = 36

// SetupBlobStore 按配置创建 blob 存储客户端。IPFS 地址为空时退化为内存存储，仅适合单机演示。
func SetupBlobStore(ipfsEndpoint string) blobstore.Store {
	if ipfsEndpoint == "" {
		log.Warnln("未配置 IPFS 地址，使用内存 blob 存储")
		return blobstore.NewMemoryStore()
	}

	return blobstore.NewIPFSStore(ipfsEndpoint)
}

// SetupLedgerReader 按配置创建链上网关客户端。
func SetupLedgerReader(ledgerEndpoint string) ledger.Reader {
	return ledger.NewGatewayClient(ledgerEndpoint)
}

// SetupDB 按配置连接订阅数据库并迁移表结构。DSN 为空时返回 nil，调用方应跳过本地订阅索引。
func SetupDB(mysqlDSN string) (*gorm.DB, error) {
	if mysqlDSN == "" {
		log.Warnln("未配置订阅数据库 DSN，跳过本地订阅索引")
		return nil, nil
	}

	db, err := gorm.Open(mysql.Open(mysqlDSN), &gorm.Config{})
	if err != nil {
		return nil, errors.Wrap(err, "无法连接订阅数据库")
	}

	return db, nil
}

// LoadMasterPublicKey 解析配置中 Base64 编码的主公钥并检查它是一个合法的曲线点。
func LoadMasterPublicKey(masterPublicKeyBase64 string) ([]byte, error) {
	masterPublicKey, err := base64.StdEncoding.DecodeString(masterPublicKeyBase64)
	if err != nil {
		return nil, errors.Wrap(err, "无法解析配置中的主公钥")
	}

	if _, err := cipherutils.DeserializePoint(masterPublicKey); err != nil {
		return nil, errors.Wrap(err, "配置中的主公钥不是合法的曲线点")
	}

	return masterPublicKey, nil
}

// LoadPriShares 从份额文件中读取本机持有的主密钥份额。
// 文件是若干个 36 字节的序列化份额的拼接，权重为 w 的服务器的文件含 w 个份额。
func LoadPriShares(shareFilePath string) ([]*share.PriShare, error) {
	shareFileBytes, err := ioutil.ReadFile(shareFilePath)
	if err != nil {
		return nil, errors.Wrap(err, "无法读取份额文件")
	}

	if len(shareFileBytes) == 0 || len(shareFileBytes)%serializedPriShareLen != 0 {
		return nil, errors.Errorf("份额文件长度应为 %v 的正整数倍，得到 %v", serializedPriShareLen, len(shareFileBytes))
	}

	shares := make([]*share.PriShare, 0, len(shareFileBytes)/serializedPriShareLen)
	for offset := 0; offset < len(shareFileBytes); offset += serializedPriShareLen {
		priShare, err := cipherutils.DeserializePriShare(shareFileBytes[offset : offset+serializedPriShareLen])
		if err != nil {
			return nil, err
		}

		shares = append(shares, priShare)
	}

	return shares, nil
}
