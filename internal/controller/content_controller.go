package controller

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/tomkapa/sui-patreon-sub001/internal/service"
	"github.com/tomkapa/sui-patreon-sub001/internal/utils/idutils"
	"github.com/tomkapa/sui-patreon-sub001/pkg/errorcode"
	"github.com/tomkapa/sui-patreon-sub001/pkg/models/seal"
	"github.com/tomkapa/sui-patreon-sub001/pkg/models/session"
)

// A ContentController contains a group name and a `ContentAccessService` instance. It also implements the interface `Controller`.
type ContentController struct {
	GroupName  string
	ContentSvc service.ContentAccessServiceInterface
	KeyServers []seal.KeyServerRef // 发布时写入信封的密钥服务器列表（部署配置）
	Threshold  int                 // 发布时写入信封的门限（部署配置）
}

// GetGroupName returns the group name.
func (cc *ContentController) GetGroupName() string {
	return cc.GroupName
}

// GetEndpointMap implements part of the interface `Controller`. It returns the API endpoints and handlers which are defined and managed by ContentController.
func (cc *ContentController) GetEndpointMap() EndpointMap {
	return EndpointMap{
		urlMethodPair{"", "POST"}:            []gin.HandlerFunc{cc.handlePublishContent},
		urlMethodPair{":id/metadata", "GET"}: []gin.HandlerFunc{cc.handleGetContentMetadata},
		urlMethodPair{":id/access", "GET"}:   []gin.HandlerFunc{cc.handleEvaluateAccess},
		urlMethodPair{":id/decrypt", "POST"}: []gin.HandlerFunc{cc.handleDecryptContent},
	}
}

func (cc *ContentController) handlePublishContent(c *gin.Context) {
	ownerAddress := c.PostForm("ownerAddress")

	// Validity check
	pel := &ParameterErrorList{}

	ownerAddress = pel.AppendIfEmptyOrBlankSpaces(ownerAddress, "创作者地址不能为空。")

	contentsBase64 := c.PostForm("contents")
	contentsBase64 = pel.AppendIfEmptyOrBlankSpaces(contentsBase64, "内容不能为空。")
	contents := pel.AppendIfNotBase64(contentsBase64, "内容必须是 Base64 编码。")

	if len(*pel) > 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, pel)
		return
	}

	// 为这次发布生成一个新的策略 nonce
	nonce, err := idutils.GeneratePolicyNonce()
	if err != nil {
		c.String(http.StatusInternalServerError, "无法生成策略 nonce。")
		return
	}

	receipt, err := cc.ContentSvc.EncryptAndPublish(c.Request.Context(), contents, ownerAddress, nonce, cc.Threshold, cc.KeyServers)

	// Check error type and generate the corresponding response
	if err == nil {
		info := ContentPublicationInfo{
			BlobRef:  receipt.BlobRef,
			PolicyID: base64.StdEncoding.EncodeToString(receipt.PolicyID),
		}
		c.JSON(http.StatusOK, info)
	} else if errors.Cause(err) == errorcode.ErrorInvalidThreshold {
		c.AbortWithStatusJSON(http.StatusBadRequest, []string{err.Error()})
	} else {
		c.String(http.StatusInternalServerError, err.Error())
	}
}

func (cc *ContentController) handleGetContentMetadata(c *gin.Context) {
	contentID := c.Param("id")

	pel := &ParameterErrorList{}
	contentID = pel.AppendIfEmptyOrBlankSpaces(contentID, "内容 ID 不能为空。")
	if len(*pel) > 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, pel)
		return
	}

	record, err := cc.ContentSvc.GetContentMetadata(c.Request.Context(), contentID)

	if err == nil {
		c.JSON(http.StatusOK, record)
	} else if errors.Cause(err) == errorcode.ErrorNotFound {
		c.Writer.WriteHeader(http.StatusNotFound)
	} else {
		c.String(http.StatusInternalServerError, err.Error())
	}
}

func (cc *ContentController) handleEvaluateAccess(c *gin.Context) {
	contentID := c.Param("id")

	pel := &ParameterErrorList{}
	contentID = pel.AppendIfEmptyOrBlankSpaces(contentID, "内容 ID 不能为空。")
	if len(*pel) > 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, pel)
		return
	}

	// 请求者身份可为空，表示匿名访问
	requester := c.Query("requester")

	record, err := cc.ContentSvc.GetContentMetadata(c.Request.Context(), contentID)
	if err != nil {
		if errors.Cause(err) == errorcode.ErrorNotFound {
			c.Writer.WriteHeader(http.StatusNotFound)
		} else {
			c.String(http.StatusInternalServerError, err.Error())
		}
		return
	}

	decision, err := cc.ContentSvc.EvaluateAccess(c.Request.Context(), record, requester, time.Now())

	if err == nil {
		c.JSON(http.StatusOK, NewAccessEvaluationInfoFromDecision(decision))
	} else {
		c.String(http.StatusInternalServerError, err.Error())
	}
}

func (cc *ContentController) handleDecryptContent(c *gin.Context) {
	contentID := c.Param("id")
	subscriptionRef := c.PostForm("subscriptionRef")
	requesterAddress := c.PostForm("requesterAddress")
	sessionKeyJSON := c.PostForm("sessionKey")

	// Validity check
	pel := &ParameterErrorList{}

	contentID = pel.AppendIfEmptyOrBlankSpaces(contentID, "内容 ID 不能为空。")
	subscriptionRef = pel.AppendIfEmptyOrBlankSpaces(subscriptionRef, "订阅对象引用不能为空。")
	requesterAddress = pel.AppendIfEmptyOrBlankSpaces(requesterAddress, "请求者地址不能为空。")
	sessionKeyJSON = pel.AppendIfEmptyOrBlankSpaces(sessionKeyJSON, "会话密钥不能为空。")

	var sessionKey session.SessionKey
	if sessionKeyJSON != "" {
		if err := json.Unmarshal([]byte(sessionKeyJSON), &sessionKey); err != nil {
			*pel = append(*pel, "会话密钥不合法。")
		}
	}

	if len(*pel) > 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, pel)
		return
	}

	provider := func(ctx context.Context) (*session.SessionKey, error) {
		return &sessionKey, nil
	}

	result, err := cc.ContentSvc.DecryptContent(c.Request.Context(), contentID, subscriptionRef, requesterAddress, provider)

	// Check error type and generate the corresponding response
	if err == nil {
		info := DecryptionInfo{
			Data:          base64.StdEncoding.EncodeToString(result.Data),
			EncryptedSize: result.EncryptedSize,
			DecryptedSize: result.DecryptedSize,
		}
		c.JSON(http.StatusOK, info)
	} else if errors.Cause(err) == errorcode.ErrorNotFound || errors.Cause(err) == errorcode.ErrorBlobNotFound {
		c.Writer.WriteHeader(http.StatusNotFound)
	} else if errors.Cause(err) == errorcode.ErrorForbidden {
		c.Writer.WriteHeader(http.StatusForbidden)
	} else if errors.Cause(err) == errorcode.ErrorSessionExpired ||
		errors.Cause(err) == errorcode.ErrorSessionUnavailable ||
		errors.Cause(err) == errorcode.ErrorInvalidSignature {
		c.Writer.WriteHeader(http.StatusUnauthorized)
	} else if errors.Cause(err) == errorcode.ErrorMalformedEnvelope ||
		errors.Cause(err) == errorcode.ErrorMissingBlobReference {
		c.String(http.StatusUnprocessableEntity, err.Error())
	} else if errors.Cause(err) == errorcode.ErrorInsufficientShares {
		c.String(http.StatusServiceUnavailable, err.Error())
	} else {
		c.String(http.StatusInternalServerError, err.Error())
	}
}
