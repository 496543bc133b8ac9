package blobstore

import (
	"bytes"
	"context"
	"io/ioutil"
	"strings"
	"time"

	shell "github.com/ipfs/go-ipfs-api"
	"github.com/pkg/errors"
	"github.com/tomkapa/sui-patreon-sub001/internal/utils/timingutils"
	"github.com/tomkapa/sui-patreon-sub001/pkg/errorcode"
)

// IPFSStore 是基于 IPFS 网络的 `Store` 实现。信封密文原样存入 IPFS，
// CID 即内容寻址 ID。
type IPFSStore struct {
	sh *shell.Shell
}

// NewIPFSStore 以 IPFS API 地址创建一个 `IPFSStore`。
func NewIPFSStore(endpoint string) *IPFSStore {
	return &IPFSStore{sh: shell.NewShell(endpoint)}
}

// Put 将字节内容上传至 IPFS 网络并返回 CID。
func (s *IPFSStore) Put(ctx context.Context, data []byte) (string, error) {
	defer timingutils.GetDeferrableTimingLogger("上传 blob 至 IPFS 网络")()

	// Increase timeout for large files
	if len(data) > 1073741824 {
		s.sh.SetTimeout(120 * time.Second)
	} else {
		s.sh.SetTimeout(30 * time.Second)
	}

	cid, err := s.sh.Add(bytes.NewReader(data))
	if err != nil {
		return "", errors.Wrap(err, "无法将内容上传至 IPFS 网络")
	}

	return cid, nil
}

// Get 从 IPFS 网络按 CID 取回字节内容。
func (s *IPFSStore) Get(ctx context.Context, id string) ([]byte, error) {
	defer timingutils.GetDeferrableTimingLogger("从 IPFS 网络下载 blob")()

	s.sh.SetTimeout(30 * time.Second)

	reader, err := s.sh.Cat(id)
	if err != nil {
		if isIPFSNotFoundError(err) {
			return nil, errors.Wrapf(errorcode.ErrorBlobNotFound, "CID: %v", id)
		}
		return nil, errors.Wrap(err, "无法从 IPFS 网络下载内容")
	}
	defer reader.Close()

	data, err := ioutil.ReadAll(reader)
	if err != nil {
		return nil, errors.Wrap(err, "无法读取 IPFS 下载流")
	}

	return data, nil
}

// Exists 判断 CID 在 IPFS 网络上是否可解析。
func (s *IPFSStore) Exists(ctx context.Context, id string) (bool, error) {
	s.sh.SetTimeout(15 * time.Second)

	if _, err := s.sh.ObjectStat(id); err != nil {
		if isIPFSNotFoundError(err) {
			return false, nil
		}
		return false, errors.Wrap(err, "无法查询 IPFS 对象信息")
	}

	return true, nil
}

func isIPFSNotFoundError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "not found") || strings.Contains(msg, "no link named")
}
