package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/polkiloo/grocerymart/internal/domain/model"
	pkgAuth "github.com/polkiloo/grocerymart/internal/pkg/auth"
	testhelpers "github.com/polkiloo/grocerymart/internal/test"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(router *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func bearer(token string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestAuthRequired(t *testing.T) {
	router := gin.New()
	router.Use(AuthRequired(testhelpers.TokenParserStub{}))
	router.GET("/", func(c *gin.Context) {})
	if resp := serve(router, httptest.NewRequest(http.MethodGet, "/", nil)); resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.Code)
	}

	router = gin.New()
	router.Use(AuthRequired(testhelpers.TokenParserStub{Err: pkgAuth.ErrInvalidToken}))
	router.GET("/", func(c *gin.Context) {})
	if resp := serve(router, bearer("token")); resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for invalid token, got %d", resp.Code)
	}

	router = gin.New()
	router.Use(AuthRequired(testhelpers.TokenParserStub{Err: context.DeadlineExceeded}))
	router.GET("/", func(c *gin.Context) {})
	if resp := serve(router, bearer("token")); resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.Code)
	}

	var (
		storedID   int64
		storedRole model.Role
	)
	router = gin.New()
	router.Use(AuthRequired(testhelpers.TokenParserStub{Claims: pkgAuth.Claims{UserID: 42, Role: model.RoleAdmin}}))
	router.GET("/", func(c *gin.Context) {
		storedID = c.GetInt64(UserIDContextKey)
		storedRole, _ = c.MustGet(RoleContextKey).(model.Role)
		c.Status(http.StatusOK)
	})
	if resp := serve(router, bearer("token")); resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if storedID != 42 || storedRole != model.RoleAdmin {
		t.Fatalf("expected admin 42, got %d %s", storedID, storedRole)
	}
}

func TestRequireRole(t *testing.T) {
	newRouter := func(role model.Role) *gin.Engine {
		router := gin.New()
		router.Use(AuthRequired(testhelpers.TokenParserStub{Claims: pkgAuth.Claims{UserID: 1, Role: role}}))
		router.Use(RequireRole(model.RoleAdmin))
		router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })
		return router
	}

	if resp := serve(newRouter(model.RoleBuyer), bearer("token")); resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for buyer, got %d", resp.Code)
	}
	if resp := serve(newRouter(model.RoleAdmin), bearer("token")); resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin, got %d", resp.Code)
	}
}

func TestSetAuthCookie(t *testing.T) {
	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)
	SetAuthCookie(c, "token")
	if got := recorder.Header().Get("Authorization"); got != "Bearer token" {
		t.Fatalf("expected auth header, got %q", got)
	}
	result := recorder.Result()
	t.Cleanup(func() {
		_ = result.Body.Close()
	})
	cookies := result.Cookies()
	if len(cookies) == 0 || cookies[0].Name != authCookieName || cookies[0].Value != "token" {
		t.Fatalf("expected cookie with token, got %+v", cookies)
	}
}

func TestExtractToken(t *testing.T) {
	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)
	c.Request, _ = http.NewRequest(http.MethodGet, "/", nil)
	if token := extractToken(c); token != "" {
		t.Fatalf("expected empty token, got %q", token)
	}
	c.Request.Header.Set("Authorization", "Bearer abc")
	if token := extractToken(c); token != "abc" {
		t.Fatalf("expected token from header, got %q", token)
	}
	c.Request.Header.Del("Authorization")
	c.Request.AddCookie(&http.Cookie{Name: authCookieName, Value: "cookie"})
	if token := extractToken(c); token != "cookie" {
		t.Fatalf("expected token from cookie, got %q", token)
	}
}

func TestRequestID(t *testing.T) {
	router := gin.New()
	router.Use(RequestID())
	var seen string
	router.GET("/", func(c *gin.Context) {
		seen = c.GetString(RequestIDContextKey)
		c.Status(http.StatusOK)
	})

	resp := serve(router, httptest.NewRequest(http.MethodGet, "/", nil))
	if seen == "" || resp.Header().Get(RequestIDHeader) != seen {
		t.Fatalf("expected generated id echoed, got %q and %q", seen, resp.Header().Get(RequestIDHeader))
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	if resp := serve(router, req); resp.Header().Get(RequestIDHeader) != "abc-123" {
		t.Fatalf("expected caller id reused, got %q", resp.Header().Get(RequestIDHeader))
	}
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	router := gin.New()
	router.Use(RequestID(), RequestLogger(logger))
	router.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/fail", func(c *gin.Context) {
		_ = c.Error(errors.New("db down"))
		c.Status(http.StatusInternalServerError)
	})

	serve(router, httptest.NewRequest(http.MethodGet, "/ok", nil))
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if entry["level"] != "INFO" || entry["path"] != "/ok" || entry["request_id"] == "" {
		t.Fatalf("unexpected log entry %v", entry)
	}

	buf.Reset()
	serve(router, httptest.NewRequest(http.MethodGet, "/fail", nil))
	if !strings.Contains(buf.String(), `"level":"ERROR"`) || !strings.Contains(buf.String(), "db down") {
		t.Fatalf("expected error logged, got %s", buf.String())
	}
}

type observerStub struct {
	route  string
	status int
}

func (o *observerStub) ObserveRequest(handler, method string, status int, elapsed time.Duration) {
	o.route = handler
	o.status = status
}

func TestMetrics(t *testing.T) {
	observer := &observerStub{}
	router := gin.New()
	router.Use(Metrics(observer))
	router.GET("/api/orders/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	serve(router, httptest.NewRequest(http.MethodGet, "/api/orders/17", nil))
	if observer.route != "/api/orders/:id" || observer.status != http.StatusNoContent {
		t.Fatalf("expected route pattern recorded, got %+v", observer)
	}

	serve(router, httptest.NewRequest(http.MethodGet, "/missing", nil))
	if observer.route != "unmatched" || observer.status != http.StatusNotFound {
		t.Fatalf("expected unmatched route, got %+v", observer)
	}
}

func TestRateLimit(t *testing.T) {
	limiter := NewIPRateLimiter(rate.Limit(1), 2)
	now := time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	router := gin.New()
	router.Use(RateLimit(limiter))
	router.POST("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	post := func(ip string) int {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.RemoteAddr = ip + ":1234"
		return serve(router, req).Code
	}

	if post("10.0.0.1") != http.StatusOK || post("10.0.0.1") != http.StatusOK {
		t.Fatal("expected burst to pass")
	}
	if code := post("10.0.0.1"); code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after burst, got %d", code)
	}
	if code := post("10.0.0.2"); code != http.StatusOK {
		t.Fatalf("other clients keep their own budget, got %d", code)
	}

	now = now.Add(limiterIdleTTL + time.Second)
	if code := post("10.0.0.1"); code != http.StatusOK {
		t.Fatalf("expected budget refilled, got %d", code)
	}
	if len(limiter.visitors) != 1 {
		t.Fatalf("expected idle visitor dropped, got %d", len(limiter.visitors))
	}
}
