package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/tomkapa/sui-patreon-sub001/pkg/errorcode"
)

// GatewayClient 是经由 HTTP 网关访问链上对象的 `Reader` 实现。
type GatewayClient struct {
	endpoint string
	client   *http.Client
}

// NewGatewayClient 以网关地址创建一个 `GatewayClient`。
func NewGatewayClient(endpoint string) *GatewayClient {
	client := &http.Client{
		Timeout: 15 * time.Second,
	}

	return &GatewayClient{
		endpoint: endpoint,
		client:   client,
	}
}

type getObjectRequest struct {
	ObjectID string `json:"objectId"`
}

type getObjectResponse struct {
	Found  bool                   `json:"found"`
	Fields map[string]interface{} `json:"fields"`
}

// GetObjectFields 经由网关读取链上对象的字段。
func (c *GatewayClient) GetObjectFields(ctx context.Context, objectID string) (map[string]interface{}, error) {
	reqBytes, err := json.Marshal(getObjectRequest{ObjectID: objectID})
	if err != nil {
		return nil, errors.Wrap(err, "无法序列化对象查询请求")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/object", bytes.NewReader(reqBytes))
	if err != nil {
		return nil, errors.Wrap(err, "无法创建对象查询请求")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, errors.Wrap(err, "无法调用链上网关")
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode == http.StatusNotFound {
		return nil, errors.Wrapf(errorcode.ErrorNotFound, "对象 ID: %v", objectID)
	}
	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("链上网关返回状态 %v", httpResp.StatusCode)
	}

	respBytes, err := ioutil.ReadAll(httpResp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "无法读取链上网关的响应")
	}

	var resp getObjectResponse
	if err := json.Unmarshal(respBytes, &resp); err != nil {
		return nil, errors.Wrap(err, "链上网关的响应不合法")
	}
	if !resp.Found {
		return nil, errors.Wrapf(errorcode.ErrorNotFound, "对象 ID: %v", objectID)
	}

	return resp.Fields, nil
}

// BuildDryRunCall 序列化一次干跑调用。纯本地操作，不访问网关。
func (c *GatewayClient) BuildDryRunCall(moduleTarget string, args []interface{}) ([]byte, error) {
	return serializeDryRunCall(moduleTarget, args)
}
