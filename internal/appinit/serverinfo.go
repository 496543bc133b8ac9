package appinit

import (
	"fmt"
	"io/ioutil"

	errors "github.com/pkg/errors"
	"github.com/tomkapa/sui-patreon-sub001/pkg/models/seal"
	yaml "gopkg.in/yaml.v2"
)

// KeyServerLocalInfo 是密钥服务器模式下本机的配置。
type KeyServerLocalInfo struct {
	ServerID  string `yaml:"serverId"`  // 本机的服务器标识，必须出现在 keyServers 列表中
	ShareFile string `yaml:"shareFile"` // 持有的主密钥份额文件路径
}

// ServerInfo is the Go struct for contents in server.yaml.
type ServerInfo struct {
	Port              int                 `yaml:"port"`
	PackageID         string              `yaml:"packageId"`         // 服务的策略命名空间（链上包 ID）
	LedgerEndpoint    string              `yaml:"ledgerEndpoint"`    // 链上网关地址
	IPFSEndpoint      string              `yaml:"ipfsEndpoint"`      // IPFS API 地址。为空时使用内存 blob 存储
	MySQLDSN          string              `yaml:"mysqlDsn"`          // 订阅数据库 DSN。为空时不查询本地订阅索引
	MasterPublicKey   string              `yaml:"masterPublicKey"`   // 主公钥的 Base64 编码
	Threshold         int                 `yaml:"threshold"`         // 发布时写入信封的门限
	SessionTTLMinutes int                 `yaml:"sessionTtlMinutes"` // 新建会话密钥的有效期
	ShowTimingLogs    bool                `yaml:"showTimingLogs"`
	KeyServers        []seal.KeyServerRef `yaml:"keyServers"` // 参与门限解密的密钥服务器列表
	IsKeyServer       bool                `yaml:"isKeyServer"`
	KeyServer         *KeyServerLocalInfo `yaml:"keyServer"` // 密钥服务器模式下本机的配置
}

// LoadServerInfo loads the server config file (in YAML) which contains info needed to start a server.
//
// Parameters:
//   the path to the config file
//
// Returns:
//   the `ServerInfo` struct containing the info needed to start a server
func LoadServerInfo(configFilePath string) (ret ServerInfo, err error) {
	yamlStr, err := ioutil.ReadFile(configFilePath)
	if err != nil {
		err = errors.Wrap(err, "读取服务器配置文件失败")
		return
	}

	err = yaml.Unmarshal(yamlStr, &ret)
	if err != nil {
		err = errors.Wrap(err, "解析 YAML 文件时出现错误")
		return
	}

	err = ret.Validate()
	return
}

// Validate 对配置做启动前的完整性检查，错误在启动时暴露而不是留到第一次请求。
func (info *ServerInfo) Validate() error {
	if info.Port < 1 || info.Port > 65535 {
		return fmt.Errorf("配置中的端口号不合法: %v", info.Port)
	}
	if info.PackageID == "" {
		return fmt.Errorf("配置中缺少策略命名空间 packageId")
	}
	if info.LedgerEndpoint == "" {
		return fmt.Errorf("配置中缺少链上网关地址 ledgerEndpoint")
	}

	if info.IsKeyServer {
		if info.KeyServer == nil || info.KeyServer.ServerID == "" || info.KeyServer.ShareFile == "" {
			return fmt.Errorf("密钥服务器模式需要配置 keyServer.serverId 和 keyServer.shareFile")
		}
		return nil
	}

	// 网关模式
	if info.MasterPublicKey == "" {
		return fmt.Errorf("配置中缺少主公钥 masterPublicKey")
	}
	if len(info.KeyServers) == 0 {
		return fmt.Errorf("配置中缺少密钥服务器列表 keyServers")
	}

	totalWeight := 0
	for _, ref := range info.KeyServers {
		if ref.ID == "" || ref.Weight < 1 {
			return fmt.Errorf("密钥服务器配置不合法: %+v", ref)
		}
		totalWeight += ref.Weight
	}
	if info.Threshold < 1 || info.Threshold > totalWeight {
		return fmt.Errorf("门限应在 [1, %v] 内，得到 %v", totalWeight, info.Threshold)
	}

	if info.SessionTTLMinutes < 1 {
		return fmt.Errorf("会话密钥有效期应至少为 1 分钟，得到 %v", info.SessionTTLMinutes)
	}

	return nil
}
