package controller

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tomkapa/sui-patreon-sub001/internal/background"
	"github.com/tomkapa/sui-patreon-sub001/pkg/models/seal"
)

// A KeyServerController exposes the share endpoint of a key server. It also implements the interface `Controller`.
type KeyServerController struct {
	GroupName   string
	ShareServer *background.ShareServer
}

// GetGroupName returns the group name.
func (kc *KeyServerController) GetGroupName() string {
	return kc.GroupName
}

// GetEndpointMap implements part of the interface `Controller`. It returns the API endpoints and handlers which are defined and managed by KeyServerController.
func (kc *KeyServerController) GetEndpointMap() EndpointMap {
	return EndpointMap{
		urlMethodPair{"share", "POST"}: []gin.HandlerFunc{kc.handleComputeShares},
	}
}

func (kc *KeyServerController) handleComputeShares(c *gin.Context) {
	var request seal.ShareRequest
	if err := json.NewDecoder(c.Request.Body).Decode(&request); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, []string{"份额请求不合法。"})
		return
	}

	response, err := kc.ShareServer.Submit(c.Request.Context(), &request)
	if err != nil {
		c.String(http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusOK, response)
}
