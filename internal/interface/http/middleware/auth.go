package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "github.com/xiebiao/bookstore-inventory/pkg/errors"
	"github.com/xiebiao/bookstore-inventory/pkg/jwt"
	"github.com/xiebiao/bookstore-inventory/pkg/response"
)

const (
	operatorIDKey = "operator_id"
	claimsKey     = "claims"
	tokenKey      = "token"
)

// TokenBlacklist 已注销Token查询
type TokenBlacklist interface {
	Contains(ctx context.Context, token string) (bool, error)
}

// AuthMiddleware JWT认证中间件
//  1. 从Header提取Bearer Token
//  2. 检查黑名单（已注销的Token）
//  3. 验证签名与有效期
//  4. 将操作员信息注入Context
type AuthMiddleware struct {
	jwtManager *jwt.Manager
	blacklist  TokenBlacklist
}

// NewAuthMiddleware 创建认证中间件
func NewAuthMiddleware(jwtManager *jwt.Manager, blacklist TokenBlacklist) *AuthMiddleware {
	return &AuthMiddleware{
		jwtManager: jwtManager,
		blacklist:  blacklist,
	}
}

// RequireAuth 要求登录
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		// 格式：Authorization: Bearer <token>
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Error(c, apperrors.ErrUnauthorized)
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			response.Error(c, apperrors.ErrInvalidToken.WithMessage("Token格式错误"))
			c.Abort()
			return
		}
		tokenString := parts[1]

		revoked, err := m.blacklist.Contains(c.Request.Context(), tokenString)
		if err != nil {
			response.Error(c, apperrors.Wrap(err, "验证Token失败"))
			c.Abort()
			return
		}
		if revoked {
			response.Error(c, apperrors.ErrInvalidToken.WithMessage("Token已失效，请重新登录"))
			c.Abort()
			return
		}

		claims, err := m.jwtManager.ParseToken(tokenString)
		if err != nil {
			response.Error(c, err) // ErrTokenExpired、ErrInvalidToken
			c.Abort()
			return
		}

		c.Set(operatorIDKey, claims.OperatorID)
		c.Set(claimsKey, claims)
		c.Set(tokenKey, tokenString)
		c.Next()
	}
}

// RequireRole 要求具有任一角色，必须放在RequireAuth之后
func (m *AuthMiddleware) RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			response.Error(c, apperrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if !claims.HasRole(roles...) {
			response.Error(c, apperrors.ErrForbidden.WithDetails(map[string]interface{}{
				"role":     claims.Role,
				"required": roles,
			}))
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetOperatorID 当前操作员ID，未登录返回0
func GetOperatorID(c *gin.Context) uint {
	if v, exists := c.Get(operatorIDKey); exists {
		if id, ok := v.(uint); ok {
			return id
		}
	}
	return 0
}

// GetClaims 当前Token的Claims，未登录返回nil
func GetClaims(c *gin.Context) *jwt.Claims {
	if v, exists := c.Get(claimsKey); exists {
		if claims, ok := v.(*jwt.Claims); ok {
			return claims
		}
	}
	return nil
}

// GetToken 当前请求携带的原始Token
func GetToken(c *gin.Context) string {
	return c.GetString(tokenKey)
}
