package web

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// isAjax reports whether the request carries the XMLHttpRequest marker.
func isAjax(c *gin.Context) bool {
	return strings.EqualFold(c.GetHeader("X-Requested-With"), "XMLHttpRequest")
}

// acceptsJSON reports whether the client asked for a JSON response.
func acceptsJSON(c *gin.Context) bool {
	return strings.Contains(strings.ToLower(c.GetHeader("Accept")), "application/json")
}

// wantsJSON decides between a JSON error body and a navigational response.
func wantsJSON(c *gin.Context) bool {
	return isAjax(c) || acceptsJSON(c)
}
