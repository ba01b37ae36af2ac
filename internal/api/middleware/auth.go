package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/members_server/internal/model"
	"github.com/qs3c/members_server/internal/pkg/jwt"
	"github.com/qs3c/members_server/internal/pkg/response"
)

const (
	UserIDKey = "userID"
	RoleKey   = "role"
)

// MemberLookup 按 ID 读取会员，AuthService 实现
type MemberLookup interface {
	GetMemberByID(ctx context.Context, id int64) (*model.Member, error)
}

// Auth JWT 认证中间件；角色以数据库当前值为准，token 中的角色可能已过时
func Auth(jwtSecret string, members MemberLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.AuthError(c, "请提供认证信息")
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			response.AuthError(c, "认证格式错误")
			c.Abort()
			return
		}

		claims, err := jwt.ParseToken(tokenString, jwtSecret)
		if err != nil {
			response.AuthError(c, "认证失败或已过期")
			c.Abort()
			return
		}

		member, err := members.GetMemberByID(c.Request.Context(), claims.UserID)
		if err != nil {
			response.AuthError(c, "账号不存在")
			c.Abort()
			return
		}

		c.Set(UserIDKey, member.ID)
		c.Set(RoleKey, member.Role)
		c.Next()
	}
}

// RequireSuperAdmin 只允许超级管理员，需放在 Auth 之后
func RequireSuperAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !IsSuperAdmin(c) {
			response.PermissionError(c, "需要超级管理员权限")
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetUserID 从上下文获取会员 ID
func GetUserID(c *gin.Context) (int64, bool) {
	userID, exists := c.Get(UserIDKey)
	if !exists {
		return 0, false
	}
	id, ok := userID.(int64)
	return id, ok
}

// Actor 当前操作人，写操作记录用
func Actor(c *gin.Context) *int64 {
	id, ok := GetUserID(c)
	if !ok {
		return nil
	}
	return &id
}

func IsSuperAdmin(c *gin.Context) bool {
	return c.GetString(RoleKey) == model.RoleSuperAdmin
}

// IsSelfOrAdmin 操作自己的记录或超级管理员
func IsSelfOrAdmin(c *gin.Context, memberID int64) bool {
	if IsSuperAdmin(c) {
		return true
	}
	id, ok := GetUserID(c)
	return ok && id == memberID
}
