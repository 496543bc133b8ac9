package controller

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

type urlMethodPair struct {
	urlSuffix, method string
}

// EndpointMap is a map containing endpoints and the corresponding handlers that are defined and managed by a controller.
//
// Each entry in the map is organized in the following manner.
//   (urlSuffix, method): handler_function_list
// Thus it takes a URL suffix and an HTTP method as the key to perform a lookup.
type EndpointMap map[urlMethodPair][]gin.HandlerFunc

// A Controller must contain an endpoint map.
type Controller interface {
	GetGroupName() string
	GetEndpointMap() EndpointMap
}

// RegisterHandlers registers the endpoint handlers in the controller to the router group.
func RegisterHandlers(r *gin.RouterGroup, c Controller) error {
	group := r.Group(c.GetGroupName())

	registrars := map[string]func(string, ...gin.HandlerFunc) gin.IRoutes{
		http.MethodGet:    group.GET,
		http.MethodPost:   group.POST,
		http.MethodPut:    group.PUT,
		http.MethodDelete: group.DELETE,
		http.MethodPatch:  group.PATCH,
	}

	for pair, handlers := range c.GetEndpointMap() {
		registrar, ok := registrars[strings.ToUpper(pair.method)]
		if !ok {
			return fmt.Errorf("unsupported HTTP method")
		}
		registrar(pair.urlSuffix, handlers...)
	}

	return nil
}

// CORSMiddleware allows cross-origin requests so that a web frontend served
// elsewhere can call the API.
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
