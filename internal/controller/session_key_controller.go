package controller

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/tomkapa/sui-patreon-sub001/internal/service"
	"github.com/tomkapa/sui-patreon-sub001/pkg/errorcode"
	"github.com/tomkapa/sui-patreon-sub001/pkg/models/session"
	"github.com/tomkapa/sui-patreon-sub001/pkg/sm2keyutils"
)

// A SessionKeyController contains a group name and a `SessionKeyService` instance. It also implements the interface `Controller`.
// 会话密钥是无状态的：服务端不保存任何会话，客户端自行持有密钥结构并在解密请求中原样带回。
type SessionKeyController struct {
	GroupName     string
	SessionKeySvc service.SessionKeyServiceInterface
	PackageID     string // 新建会话密钥绑定的策略命名空间
	TTLMinutes    int    // 新建会话密钥的有效期
}

// GetGroupName returns the group name.
func (sc *SessionKeyController) GetGroupName() string {
	return sc.GroupName
}

// GetEndpointMap implements part of the interface `Controller`. It returns the API endpoints and handlers which are defined and managed by SessionKeyController.
func (sc *SessionKeyController) GetEndpointMap() EndpointMap {
	return EndpointMap{
		urlMethodPair{"", "POST"}:          []gin.HandlerFunc{sc.handleCreateSessionKey},
		urlMethodPair{"signature", "POST"}: []gin.HandlerFunc{sc.handleAttachSignature},
	}
}

func (sc *SessionKeyController) handleCreateSessionKey(c *gin.Context) {
	ownerAddress := c.PostForm("ownerAddress")

	// Validity check
	pel := &ParameterErrorList{}

	ownerAddress = pel.AppendIfEmptyOrBlankSpaces(ownerAddress, "所有者地址不能为空。")

	if len(*pel) > 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, pel)
		return
	}

	sessionKey, err := sc.SessionKeySvc.Create(ownerAddress, sc.PackageID, sc.TTLMinutes)
	if err != nil {
		c.String(http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sessionKey": sessionKey,
		"creationInfo": SessionKeyCreationInfo{
			PersonalMessage: base64.StdEncoding.EncodeToString(sc.SessionKeySvc.PersonalMessage(sessionKey)),
			IssuedAt:        sessionKey.IssuedAt.Format(time.RFC3339Nano),
			TTLMinutes:      sessionKey.TTLMinutes,
		},
	})
}

func (sc *SessionKeyController) handleAttachSignature(c *gin.Context) {
	sessionKeyJSON := c.PostForm("sessionKey")
	publicKeyBase64 := c.PostForm("publicKey")
	signatureBase64 := c.PostForm("signature")

	// Validity check
	pel := &ParameterErrorList{}

	sessionKeyJSON = pel.AppendIfEmptyOrBlankSpaces(sessionKeyJSON, "会话密钥不能为空。")
	publicKeyBase64 = pel.AppendIfEmptyOrBlankSpaces(publicKeyBase64, "公钥不能为空。")
	signatureBase64 = pel.AppendIfEmptyOrBlankSpaces(signatureBase64, "签名不能为空。")

	publicKeyBytes := pel.AppendIfNotBase64(publicKeyBase64, "公钥必须是 Base64 编码。")
	signature := pel.AppendIfNotBase64(signatureBase64, "签名必须是 Base64 编码。")

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

	publicKey, err := sm2keyutils.DeserializePublicKey(publicKeyBytes)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, []string{"公钥不合法。"})
		return
	}

	activated, err := sc.SessionKeySvc.AttachSignature(&sessionKey, publicKey, signature)

	// Check error type and generate the corresponding response
	if err == nil {
		c.JSON(http.StatusOK, activated)
	} else if errors.Cause(err) == errorcode.ErrorInvalidSignature {
		c.Writer.WriteHeader(http.StatusUnauthorized)
	} else {
		c.String(http.StatusInternalServerError, err.Error())
	}
}
