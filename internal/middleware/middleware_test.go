package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const testSecret = "middleware-test-secret"

func signToken(t *testing.T, secret string, op Operator, ttl time.Duration) string {
	t.Helper()
	now := time.Now()
	op.RegisteredClaims.IssuedAt = jwt.NewNumericDate(now)
	op.RegisteredClaims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, op).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

func operator(roles ...string) Operator {
	return Operator{UserID: "user-1", Name: "Operador", Email: "op@888cargo.test", Roles: roles}
}

func newRouter(logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Logger(logger), RequestID())
	api := r.Group("/api", JWTAuth(testSecret))
	api.GET("/me", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(KeyUserID))
	})
	api.POST("/save", RequireRole(RoleOperator), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func do(r *gin.Engine, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func code(t *testing.T, w *httptest.ResponseRecorder) int {
	t.Helper()
	var body struct {
		Code int `json:"code"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return body.Code
}

func TestJWTAuth(t *testing.T) {
	r := newRouter(zap.NewNop())

	w := do(r, "GET", "/api/me", "")
	if w.Code != http.StatusUnauthorized || code(t, w) != codeMissingToken {
		t.Errorf("Expected 401/%d without token, got %d %s", codeMissingToken, w.Code, w.Body.String())
	}

	bad := signToken(t, "other-secret", operator(), time.Hour)
	if w := do(r, "GET", "/api/me", bad); w.Code != http.StatusUnauthorized || code(t, w) != codeBadToken {
		t.Errorf("Expected 401 for foreign signature, got %d", w.Code)
	}

	expired := signToken(t, testSecret, operator(), -time.Minute)
	if w := do(r, "GET", "/api/me", expired); w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 for expired token, got %d", w.Code)
	}

	anonymous := signToken(t, testSecret, Operator{Roles: []string{RoleOperator}}, time.Hour)
	if w := do(r, "GET", "/api/me", anonymous); w.Code != http.StatusUnauthorized || code(t, w) != codeBadClaims {
		t.Errorf("Expected 401 for token without operator, got %d", w.Code)
	}

	good := signToken(t, testSecret, operator(), time.Hour)
	w = do(r, "GET", "/api/me", good)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if w.Body.String() != "user-1" {
		t.Errorf("Expected user-1 in context, got %q", w.Body.String())
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("Expected X-Request-ID header")
	}

	// EventSource 走查询参数
	if w := do(r, "GET", "/api/me?token="+good, ""); w.Code != http.StatusOK {
		t.Errorf("Expected 200 with query token, got %d", w.Code)
	}

	// 只有 sub 的令牌
	bySubject := operator()
	bySubject.UserID = ""
	bySubject.Subject = "user-2"
	if w := do(r, "GET", "/api/me", signToken(t, testSecret, bySubject, time.Hour)); w.Body.String() != "user-2" {
		t.Errorf("Expected sub as operator id, got %d %q", w.Code, w.Body.String())
	}
}

func TestRequireRole(t *testing.T) {
	r := newRouter(zap.NewNop())

	viewer := signToken(t, testSecret, operator("viewer"), time.Hour)
	w := do(r, "POST", "/api/save", viewer)
	if w.Code != http.StatusForbidden || code(t, w) != codeRoleDenied {
		t.Errorf("Expected 403 for viewer, got %d", w.Code)
	}

	op := signToken(t, testSecret, operator(RoleOperator), time.Hour)
	if w := do(r, "POST", "/api/save", op); w.Code != http.StatusNoContent {
		t.Errorf("Expected 204 for operator, got %d", w.Code)
	}

	admin := signToken(t, testSecret, operator(RoleAdmin), time.Hour)
	if w := do(r, "POST", "/api/save", admin); w.Code != http.StatusNoContent {
		t.Errorf("Expected 204 for admin, got %d", w.Code)
	}
}

func TestRequireRoleWithoutAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/x", RequireRole(RoleOperator), func(c *gin.Context) { c.Status(http.StatusOK) })
	w := do(r, "GET", "/x", "")
	if w.Code != http.StatusForbidden || code(t, w) != codeNoOperator {
		t.Errorf("Expected 403/%d, got %d", codeNoOperator, w.Code)
	}
}

func TestRequestIDKeepsClientValue(t *testing.T) {
	r := newRouter(zap.NewNop())
	req := httptest.NewRequest("GET", "/api/me", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if got := w.Header().Get("X-Request-ID"); got != "abc-123" {
		t.Errorf("Expected client request id, got %q", got)
	}
}

func TestLoggerRedactsQueryToken(t *testing.T) {
	var buf bytes.Buffer
	core := zapcore.NewCore(zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()), zapcore.AddSync(&buf), zapcore.InfoLevel)
	r := newRouter(zap.New(core))

	token := signToken(t, testSecret, operator(), time.Hour)
	if w := do(r, "GET", "/api/me?id_carga=3&token="+token, ""); w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	out := buf.String()
	if strings.Contains(out, token) {
		t.Fatalf("Token leaked into access log: %s", out)
	}
	if !strings.Contains(out, "id_carga=3") || !strings.Contains(out, `"operador":"user-1"`) {
		t.Errorf("Unexpected log line: %s", out)
	}
}
