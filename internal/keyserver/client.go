package keyserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/tomkapa/sui-patreon-sub001/pkg/models/seal"
)

// shareEndpointPath 是密钥服务器份额接口的路径。
const shareEndpointPath = "/api/v1/keyserver/share"

// LocalClient 把进程内的 `Server` 包装成网关可用的份额客户端，用于测试与单机演示。
type LocalClient struct {
	Server *Server
}

// Ref 返回对应的密钥服务器描述。
func (c *LocalClient) Ref() seal.KeyServerRef {
	return seal.KeyServerRef{
		ID:     c.Server.ServerID,
		Weight: c.Server.Weight(),
	}
}

// RequestShares 直接调用进程内的服务器。
func (c *LocalClient) RequestShares(ctx context.Context, request *seal.ShareRequest) (*seal.ShareResponse, error) {
	return c.Server.ComputeShares(ctx, request)
}

// HTTPClient 经由 HTTP 访问一台远端密钥服务器。
type HTTPClient struct {
	ref    seal.KeyServerRef
	client *http.Client
}

// NewHTTPClient 以服务器描述创建一个 `HTTPClient`。
// 单次请求的时限由调用方经 ctx 控制，HTTP 客户端自身的超时只作兜底。
func NewHTTPClient(ref seal.KeyServerRef) *HTTPClient {
	return &HTTPClient{
		ref: ref,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Ref 返回对应的密钥服务器描述。
func (c *HTTPClient) Ref() seal.KeyServerRef {
	return c.ref
}

// RequestShares 向远端密钥服务器请求份额。
func (c *HTTPClient) RequestShares(ctx context.Context, request *seal.ShareRequest) (*seal.ShareResponse, error) {
	reqBytes, err := json.Marshal(request)
	if err != nil {
		return nil, errors.Wrap(err, "无法序列化份额请求")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.ref.Endpoint+shareEndpointPath, bytes.NewReader(reqBytes))
	if err != nil {
		return nil, errors.Wrap(err, "无法创建份额请求")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, errors.Wrapf(err, "无法调用密钥服务器 '%v'", c.ref.ID)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("密钥服务器 '%v' 返回状态 %v", c.ref.ID, httpResp.StatusCode)
	}

	respBytes, err := ioutil.ReadAll(httpResp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "无法读取密钥服务器 '%v' 的响应", c.ref.ID)
	}

	var resp seal.ShareResponse
	if err := json.Unmarshal(respBytes, &resp); err != nil {
		return nil, errors.Wrapf(err, "密钥服务器 '%v' 的响应不合法", c.ref.ID)
	}

	return &resp, nil
}
