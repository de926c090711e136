package middleware

import (
	"net/http"
	"strings"

	"github.com/Honahec/CloudBackend/utils"

	"github.com/gin-gonic/gin"
)

func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := parseBearerToken(c)
		if err != "" {
			utils.Error(c, http.StatusUnauthorized, err)
			c.Abort()
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("username", claims.Username)
		c.Set("authenticated", true)
		c.Next()
	}
}

// OptionalAuthMiddleware 用于分享访问这类匿名可达的路由：有合法令牌就
// 标记登录身份，没有或无效则作为匿名访客放行。
func OptionalAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, errMsg := parseBearerToken(c)
		if errMsg == "" {
			c.Set("user_id", claims.UserID)
			c.Set("username", claims.Username)
			c.Set("authenticated", true)
		}
		c.Next()
	}
}

func parseBearerToken(c *gin.Context) (*utils.Claims, string) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return nil, "未提供认证令牌"
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, "认证令牌格式错误"
	}

	claims, err := utils.ParseToken(parts[1])
	if err != nil {
		return nil, "认证令牌无效或已过期"
	}
	return claims, ""
}
