// sm2keygen 为用户生成 SM2 密钥对（PEM 格式），供会话密钥的个人消息签名使用。
package main

import (
	"crypto/rand"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/tjfoc/gmsm/sm2"
	"github.com/tomkapa/sui-patreon-sub001/pkg/sm2keyutils"
	"gopkg.in/yaml.v2"
)

func main() {
	dirKeys := "sm2keys"

	filePath := "cmd/sm2keygen/users.yaml"
	if len(os.Args) > 1 {
		filePath = os.Args[1]
	}

	users, err := loadConfig(filePath)
	if err != nil {
		log.Fatalln(err)
	}

	if err := generateKeys(dirKeys, users); err != nil {
		log.Fatalln(err)
	}
}

func loadConfig(filePath string) ([]string, error) {
	fileBytes, err := ioutil.ReadFile(filePath)
	if err != nil {
		return nil, errors.Wrap(err, "cannot read config file")
	}

	users := []string{}
	if err = yaml.Unmarshal(fileBytes, &users); err != nil {
		return nil, errors.Wrap(err, "cannot load config file")
	}

	return users, nil
}

func generateKeys(dirKeys string, users []string) error {
	for _, user := range users {
		userDir := filepath.Join(dirKeys, user)
		if err := os.MkdirAll(userDir, 0700); err != nil {
			return errors.Wrapf(err, "无法为用户 '%v' 创建密钥目录", user)
		}

		privKey, err := sm2.GenerateKey(rand.Reader)
		if err != nil {
			return errors.Wrapf(err, "无法为用户 '%v' 生成 SM2 密钥对", user)
		}

		privKeyPem, err := sm2keyutils.ConvertPrivateKeyToPEM(privKey)
		if err != nil {
			return err
		}

		pubKeyPem, err := sm2keyutils.ConvertPublicKeyToPEM(&privKey.PublicKey)
		if err != nil {
			return err
		}

		if err := ioutil.WriteFile(filepath.Join(userDir, "sk.pem"), privKeyPem, 0600); err != nil {
			return errors.Wrapf(err, "无法写入用户 '%v' 的私钥", user)
		}
		if err := ioutil.WriteFile(filepath.Join(userDir, "pk.pem"), pubKeyPem, 0644); err != nil {
			return errors.Wrapf(err, "无法写入用户 '%v' 的公钥", user)
		}

		log.Infof("用户 '%v' 的 SM2 密钥对已写入 %v（地址 %v）", user, userDir, sm2keyutils.DeriveAddressFromPublicKey(&privKey.PublicKey))
	}

	return nil
}
