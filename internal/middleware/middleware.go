package middleware

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// 角色
const (
	RoleAdmin    = "cargo_admin"
	RoleOperator = "operador"
)

// gin 上下文键，handler 通过 user_id 取当前操作员
const (
	KeyRequestID = "request_id"
	KeyUserID    = "user_id"
	KeyOperator  = "operador"
)

// tokenParam EventSource 和 PDF 直链无法带请求头，令牌放在查询参数里
const tokenParam = "token"

// 认证失败的业务码
const (
	codeMissingToken = 40100
	codeBadToken     = 40102
	codeBadClaims    = 40103
	codeNoOperator   = 40310
	codeRoleDenied   = 40312
)

// Operator 令牌中的操作员身份
type Operator struct {
	UserID string   `json:"uid"`
	Name   string   `json:"name"`
	Email  string   `json:"email"`
	Roles  []string `json:"roles"`
	jwt.RegisteredClaims
}

// ID uid 缺省时退回 sub
func (o *Operator) ID() string {
	if o.UserID != "" {
		return o.UserID
	}
	return o.Subject
}

// Can 管理员拥有所有角色
func (o *Operator) Can(roles ...string) bool {
	for _, have := range o.Roles {
		if have == RoleAdmin {
			return true
		}
		for _, want := range roles {
			if have == want {
				return true
			}
		}
	}
	return false
}

// CurrentOperator 未经过 JWTAuth 时返回 nil
func CurrentOperator(c *gin.Context) *Operator {
	v, ok := c.Get(KeyOperator)
	if !ok {
		return nil
	}
	op, _ := v.(*Operator)
	return op
}

func deny(c *gin.Context, status, code int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"code": code, "message": message})
}

// Logger 访问日志，查询串里的令牌不落日志
func Logger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := redactToken(c.Request.URL.RawQuery)

		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String(KeyRequestID, c.GetString(KeyRequestID)),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
		}
		if query != "" {
			fields = append(fields, zap.String("query", query))
		}
		if op := CurrentOperator(c); op != nil {
			fields = append(fields, zap.String("operador", op.ID()))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		switch {
		case status >= http.StatusInternalServerError:
			logger.Error("cargo request failed", fields...)
		case status >= http.StatusBadRequest:
			logger.Warn("cargo request rejected", fields...)
		default:
			logger.Info("cargo request", fields...)
		}
	}
}

func redactToken(raw string) string {
	if raw == "" || !strings.Contains(raw, tokenParam+"=") {
		return raw
	}
	q, err := url.ParseQuery(raw)
	if err != nil {
		return "[unparseable]"
	}
	if q.Has(tokenParam) {
		q.Set(tokenParam, "***")
	}
	return q.Encode()
}

// RequestID 沿用客户端的 X-Request-ID，否则生成
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader("X-Request-ID"))
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		c.Set(KeyRequestID, id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	scheme, token, ok := strings.Cut(c.GetHeader("Authorization"), " ")
	if ok && strings.EqualFold(scheme, "Bearer") {
		if token = strings.TrimSpace(token); token != "" {
			return token
		}
	}
	return c.Query(tokenParam)
}

// JWTAuth 校验 HS256 令牌并把操作员放进上下文
func JWTAuth(secret string) gin.HandlerFunc {
	key := []byte(secret)
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	return func(c *gin.Context) {
		raw := bearerToken(c)
		if raw == "" {
			deny(c, http.StatusUnauthorized, codeMissingToken, "Se requiere autenticación")
			return
		}

		op := &Operator{}
		_, err := parser.ParseWithClaims(raw, op, func(*jwt.Token) (interface{}, error) {
			return key, nil
		})
		if err != nil {
			deny(c, http.StatusUnauthorized, codeBadToken, "Token inválido o expirado")
			return
		}
		if op.ID() == "" {
			deny(c, http.StatusUnauthorized, codeBadClaims, "El token no identifica al operador")
			return
		}

		c.Set(KeyOperator, op)
		c.Set(KeyUserID, op.ID())
		c.Next()
	}
}

// RequireRole 任一角色满足即放行
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		op := CurrentOperator(c)
		if op == nil {
			deny(c, http.StatusForbidden, codeNoOperator, "Operador no autenticado")
			return
		}
		if !op.Can(roles...) {
			deny(c, http.StatusForbidden, codeRoleDenied, "Rol requerido: "+strings.Join(roles, ", "))
			return
		}
		c.Next()
	}
}
