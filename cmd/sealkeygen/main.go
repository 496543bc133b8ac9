// sealkeygen 生成门限解密所需的密钥材料：随机主标量 s、主公钥 P = sG，
// 以及按服务器权重切分的主密钥份额文件。权重为 w 的服务器得到 w 个连续份额。
// 主标量本身不落盘，生成后即丢弃。
package main

import (
	"encoding/base64"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/tomkapa/sui-patreon-sub001/internal/utils/cipherutils"
	"go.dedis.ch/kyber/v3/share"
	"gopkg.in/yaml.v2"
)

type serverEntry struct {
	ID     string `yaml:"id"`
	Weight int    `yaml:"weight"`
}

type keygenConfig struct {
	Threshold int           `yaml:"threshold"`
	OutputDir string        `yaml:"outputDir"`
	Servers   []serverEntry `yaml:"servers"`
}

func main() {
	filePath := "cmd/sealkeygen/servers.yaml"
	if len(os.Args) > 1 {
		filePath = os.Args[1]
	}

	config, err := loadConfig(filePath)
	if err != nil {
		log.Fatalln(err)
	}

	if err := generateKeyMaterial(config); err != nil {
		log.Fatalln(err)
	}
}

func loadConfig(filePath string) (*keygenConfig, error) {
	fileBytes, err := ioutil.ReadFile(filePath)
	if err != nil {
		return nil, errors.Wrap(err, "cannot read config file")
	}

	config := &keygenConfig{}
	if err = yaml.Unmarshal(fileBytes, config); err != nil {
		return nil, errors.Wrap(err, "cannot load config file")
	}

	totalWeight := 0
	for _, server := range config.Servers {
		if server.ID == "" || server.Weight < 1 {
			return nil, errors.Errorf("不合法的服务器配置: %+v", server)
		}
		totalWeight += server.Weight
	}
	if config.Threshold < 1 || config.Threshold > totalWeight {
		return nil, errors.Errorf("门限应在 [1, %v] 内，得到 %v", totalWeight, config.Threshold)
	}
	if config.OutputDir == "" {
		config.OutputDir = "sealkeys"
	}

	return config, nil
}

func generateKeyMaterial(config *keygenConfig) error {
	if err := os.MkdirAll(config.OutputDir, 0700); err != nil {
		return errors.Wrap(err, "无法创建输出目录")
	}

	suite := cipherutils.Suite

	// 主标量与主公钥
	masterScalar := suite.Scalar().Pick(suite.RandomStream())
	masterPublicKey := suite.Point().Mul(masterScalar, nil)

	masterPublicKeyBytes, err := cipherutils.SerializePoint(masterPublicKey)
	if err != nil {
		return err
	}

	masterPubPath := filepath.Join(config.OutputDir, "master_pub.b64")
	if err := ioutil.WriteFile(masterPubPath, []byte(base64.StdEncoding.EncodeToString(masterPublicKeyBytes)), 0644); err != nil {
		return errors.Wrap(err, "无法写入主公钥文件")
	}
	log.Infof("主公钥已写入 %v", masterPubPath)

	// 按总权重切分主标量
	totalWeight := 0
	for _, server := range config.Servers {
		totalWeight += server.Weight
	}

	priPoly := share.NewPriPoly(suite, config.Threshold, masterScalar, suite.RandomStream())
	priShares := priPoly.Shares(totalWeight)

	offset := 0
	for _, server := range config.Servers {
		shareFileBytes := []byte{}
		for i := 0; i < server.Weight; i++ {
			shareBytes, err := cipherutils.SerializePriShare(priShares[offset])
			if err != nil {
				return err
			}
			shareFileBytes = append(shareFileBytes, shareBytes...)
			offset++
		}

		sharePath := filepath.Join(config.OutputDir, server.ID+".shares")
		if err := ioutil.WriteFile(sharePath, shareFileBytes, 0600); err != nil {
			return errors.Wrapf(err, "无法写入服务器 '%v' 的份额文件", server.ID)
		}
		log.Infof("服务器 '%v' 的 %v 个份额已写入 %v", server.ID, server.Weight, sharePath)
	}

	return nil
}
