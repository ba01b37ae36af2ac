package handler

import (
	"errors"
	"log"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/members_server/internal/api/middleware"
	"github.com/qs3c/members_server/internal/pkg/response"
	"github.com/qs3c/members_server/internal/service"
)

// handleError 按错误类别写响应，内部错误只记日志不外露
func handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrAccountNotApproved):
		response.AuthError(c, err.Error())
	case errors.Is(err, service.ErrNotFound):
		response.NotFoundError(c, err.Error())
	case errors.Is(err, service.ErrInvalidArgument):
		response.ParamError(c, err.Error())
	case errors.Is(err, service.ErrConflict):
		response.ConflictError(c, err.Error())
	default:
		log.Printf("[Handler] %s %s: %v", c.Request.Method, c.FullPath(), err)
		response.ServerError(c, "")
	}
}

// parseID 解析路径参数 :id
func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.ParamError(c, "无效的ID")
		return 0, false
	}
	return id, true
}

// requireSelfOrAdmin 解析 :id，普通会员只能访问自己的记录
func requireSelfOrAdmin(c *gin.Context) (int64, bool) {
	id, ok := parseID(c)
	if !ok {
		return 0, false
	}
	if !middleware.IsSelfOrAdmin(c, id) {
		response.PermissionError(c, "")
		return 0, false
	}
	return id, true
}
