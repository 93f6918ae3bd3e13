// Package jwt 操作员身份令牌
//
// 库存服务不管理账号密码，令牌由统一登录服务签发（HS256，共享密钥）。
// 这里负责校验令牌并解析出操作员ID和角色；GenerateToken供签发方和测试使用。
package jwt

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/xiebiao/bookstore-inventory/pkg/errors"
)

const issuer = "bookstore"

// 操作员角色
const (
	RoleClerk   = "clerk"   // 店员：采购、销售、退货、查询
	RoleManager = "manager" // 店长：另可作废交易、维护目录
	RoleAdmin   = "admin"
)

// Manager 令牌管理器
type Manager struct {
	secret []byte
	expire time.Duration
	now    func() time.Time
}

// NewManager 创建令牌管理器
func NewManager(secret string, expire time.Duration) *Manager {
	return &Manager{secret: []byte(secret), expire: expire, now: time.Now}
}

// Claims 令牌载荷
type Claims struct {
	OperatorID uint   `json:"operator_id"`
	Username   string `json:"username"`
	Role       string `json:"role"`
	jwt.RegisteredClaims
}

// HasRole 是否具有任一角色
func (c *Claims) HasRole(roles ...string) bool {
	for _, r := range roles {
		if c.Role == r {
			return true
		}
	}
	return false
}

// GenerateToken 签发访问令牌
func (m *Manager) GenerateToken(operatorID uint, username, role string) (string, error) {
	now := m.now()
	claims := Claims{
		OperatorID: operatorID,
		Username:   username,
		Role:       role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(m.expire)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    issuer,
			Subject:   strconv.FormatUint(uint64(operatorID), 10),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", apperrors.Wrap(err, "生成Token失败")
	}
	return signed, nil
}

// ParseToken 校验签名和有效期并返回载荷
func (m *Manager) ParseToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("非法的签名算法: %v", token.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithIssuer(issuer), jwt.WithTimeFunc(m.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperrors.ErrTokenExpired
		}
		return nil, apperrors.ErrInvalidToken.WithCause(err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.OperatorID == 0 {
		return nil, apperrors.ErrInvalidToken
	}
	return claims, nil
}

// RemainingTTL 令牌剩余有效期，用作黑名单TTL
func (m *Manager) RemainingTTL(claims *Claims) time.Duration {
	if claims.ExpiresAt == nil {
		return m.expire
	}
	return claims.ExpiresAt.Time.Sub(m.now())
}
