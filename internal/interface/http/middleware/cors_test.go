package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/xiebiao/bookstore-inventory/internal/infrastructure/config"
)

func corsEngine(cfg config.CORSConfig) *gin.Engine {
	r := gin.New()
	r.Use(CORS(cfg))
	r.POST("/sales", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func corsRequest(r *gin.Engine, method, origin string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/sales", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCORS(t *testing.T) {
	cfg := config.CORSConfig{
		Enabled:       true,
		AllowOrigins:  []string{"http://pos.local"},
		AllowMethods:  []string{"GET", "POST"},
		AllowHeaders:  []string{"Authorization", "Idempotency-Key"},
		ExposeHeaders: []string{"X-Request-ID"},
		MaxAge:        time.Hour,
	}

	t.Run("允许的来源回显Origin", func(t *testing.T) {
		w := corsRequest(corsEngine(cfg), http.MethodPost, "http://pos.local")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "http://pos.local", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "Authorization, Idempotency-Key", w.Header().Get("Access-Control-Allow-Headers"))
		assert.Equal(t, "X-Request-ID", w.Header().Get("Access-Control-Expose-Headers"))
	})

	t.Run("预检请求直接应答", func(t *testing.T) {
		w := corsRequest(corsEngine(cfg), http.MethodOptions, "http://pos.local")
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "3600", w.Header().Get("Access-Control-Max-Age"))
	})

	t.Run("未知来源拒绝", func(t *testing.T) {
		w := corsRequest(corsEngine(cfg), http.MethodPost, "http://evil.local")
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("没有Origin的请求不处理", func(t *testing.T) {
		w := corsRequest(corsEngine(cfg), http.MethodPost, "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("未启用时透传", func(t *testing.T) {
		w := corsRequest(corsEngine(config.CORSConfig{}), http.MethodPost, "http://evil.local")
		assert.Equal(t, http.StatusOK, w.Code)
	})
}
