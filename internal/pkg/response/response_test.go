package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(t *testing.T, h gin.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	router := gin.New()
	router.GET("/test", h)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
	return w
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestSuccess(t *testing.T) {
	w := serve(t, func(c *gin.Context) {
		Success(c, gin.H{"member_id": 42, "member_type": "regular"})
	})

	assert.Equal(t, http.StatusOK, w.Code)
	resp := parseResponse(t, w)
	assert.Equal(t, CodeSuccess, resp.Code)
	assert.Equal(t, "success", resp.Message)

	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(42), data["member_id"])
	assert.Equal(t, "regular", data["member_type"])
}

func TestSuccess_NilData(t *testing.T) {
	resp := parseResponse(t, serve(t, func(c *gin.Context) {
		Success(c, nil)
	}))
	assert.Equal(t, CodeSuccess, resp.Code)
	assert.Nil(t, resp.Data)
}

func TestSuccessWithMessage(t *testing.T) {
	resp := parseResponse(t, serve(t, func(c *gin.Context) {
		SuccessWithMessage(c, "注册成功，请等待管理员审核", gin.H{"status": "pending"})
	}))
	assert.Equal(t, CodeSuccess, resp.Code)
	assert.Equal(t, "注册成功，请等待管理员审核", resp.Message)
}

func TestSuccessPage(t *testing.T) {
	tests := []struct {
		name  string
		total int64
		items []string
	}{
		{"members page", 57, []string{"a@x.com", "b@x.com", "c@x.com"}},
		{"empty page", 0, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := parseResponse(t, serve(t, func(c *gin.Context) {
				SuccessPage(c, tt.total, 3, 20, tt.items)
			}))
			assert.Equal(t, CodeSuccess, resp.Code)

			data, ok := resp.Data.(map[string]interface{})
			require.True(t, ok)
			assert.Equal(t, float64(tt.total), data["total"])
			assert.Equal(t, float64(3), data["page"])
			assert.Equal(t, float64(20), data["page_size"])

			items, ok := data["items"].([]interface{})
			require.True(t, ok)
			assert.Len(t, items, len(tt.items))
		})
	}
}

func TestErrorHelpers(t *testing.T) {
	tests := []struct {
		name        string
		write       func(*gin.Context, string)
		code        int
		message     string
		wantDefault string
	}{
		{"param", ParamError, CodeParamError, "days 必须是整数", "参数错误"},
		{"auth", AuthError, CodeAuthFailed, "账号不存在", "认证失败"},
		{"permission", PermissionError, CodePermissionDenied, "需要超级管理员权限", "权限不足"},
		{"not found", NotFoundError, CodeResourceNotFound, "会员不存在", "资源不存在"},
		{"conflict", ConflictError, CodeConflict, "不能降级或删除最后一个超级管理员", "状态冲突"},
		{"server", ServerError, CodeServerError, "数据库连接失败", "服务器内部错误"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(t, func(c *gin.Context) { tt.write(c, tt.message) })
			assert.Equal(t, http.StatusOK, w.Code)
			resp := parseResponse(t, w)
			assert.Equal(t, tt.code, resp.Code)
			assert.Equal(t, tt.message, resp.Message)
			assert.Nil(t, resp.Data)

			resp = parseResponse(t, serve(t, func(c *gin.Context) { tt.write(c, "") }))
			assert.Equal(t, tt.code, resp.Code)
			assert.Equal(t, tt.wantDefault, resp.Message)
		})
	}
}

func TestError(t *testing.T) {
	resp := parseResponse(t, serve(t, func(c *gin.Context) {
		Error(c, CodeConflict, "")
	}))
	assert.Equal(t, CodeConflict, resp.Code)
	assert.Equal(t, "状态冲突", resp.Message)

	// 未登记的错误码没有默认消息
	resp = parseResponse(t, serve(t, func(c *gin.Context) {
		Error(c, 9999, "")
	}))
	assert.Equal(t, 9999, resp.Code)
	assert.Empty(t, resp.Message)
}

func TestAttachment(t *testing.T) {
	w := serve(t, func(c *gin.Context) {
		Attachment(c, "member_42_history.pdf", "application/pdf", []byte("%PDF-1.3"))
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="member_42_history.pdf"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "%PDF-1.3", w.Body.String())
}
