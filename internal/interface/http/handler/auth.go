package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/xiebiao/bookstore-inventory/internal/interface/http/middleware"
	"github.com/xiebiao/bookstore-inventory/pkg/jwt"
	"github.com/xiebiao/bookstore-inventory/pkg/response"
)

// TokenRevoker 注销Token（写入黑名单直到过期）
type TokenRevoker interface {
	Add(ctx context.Context, token string, ttl time.Duration) error
}

// AuthHandler 认证相关接口
// 令牌由统一登录服务签发，这里只提供注销
type AuthHandler struct {
	jwtManager *jwt.Manager
	revoker    TokenRevoker
	log        *zap.Logger
}

// NewAuthHandler 创建认证处理器
func NewAuthHandler(jwtManager *jwt.Manager, revoker TokenRevoker, log *zap.Logger) *AuthHandler {
	return &AuthHandler{jwtManager: jwtManager, revoker: revoker, log: log}
}

// Logout 注销当前Token
// @Summary      注销
// @Description  当前Token加入黑名单，剩余有效期内不可再用
// @Tags         认证
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} response.Response
// @Router       /api/v1/auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := middleware.GetClaims(c)
	ttl := h.jwtManager.RemainingTTL(claims)

	if err := h.revoker.Add(c.Request.Context(), middleware.GetToken(c), ttl); err != nil {
		response.Error(c, err)
		return
	}

	h.log.Info("操作员注销", zap.Uint("operator_id", claims.OperatorID), zap.Duration("ttl", ttl))
	response.Success(c, nil)
}
