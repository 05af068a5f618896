package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mediafolio/mediafolio/pkg/response"
)

// uintParam parses a numeric path parameter, answering 400 when it is malformed.
func uintParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		response.BadRequest(c, "invalid "+name)
		return 0, false
	}
	return uint(id), true
}
