package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/xiebiao/bookstore-inventory/pkg/errors"
	"github.com/xiebiao/bookstore-inventory/pkg/response"
)

const dateLayout = "2006-01-02"

// pathID 解析路径中的正整数ID，失败时直接写入错误响应
func pathID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		response.Error(c, apperrors.ErrInvalidParams.WithMessage("参数错误: %s必须是正整数", name))
		return 0, false
	}
	return uint(id), true
}

// parseDate 按业务时区解析YYYY-MM-DD
func parseDate(value string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(dateLayout, value, loc)
	if err != nil {
		return time.Time{}, apperrors.ErrInvalidParams.WithMessage("日期格式错误，应为YYYY-MM-DD: %s", value)
	}
	return t, nil
}

const maxIdempotencyKeyLen = 64

// idempotencyKey 请求体优先，其次取Idempotency-Key头
func idempotencyKey(c *gin.Context, fromBody string) (*string, bool) {
	key := fromBody
	if key == "" {
		key = c.GetHeader("Idempotency-Key")
	}
	if key == "" {
		return nil, true
	}
	if len(key) > maxIdempotencyKeyLen {
		response.Error(c, apperrors.ErrInvalidParams.WithMessage("幂等键长度不能超过%d", maxIdempotencyKeyLen))
		return nil, false
	}
	return &key, true
}
