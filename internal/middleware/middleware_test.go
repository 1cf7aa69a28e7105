package middleware_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"gamelibrary/internal/access"
	"gamelibrary/internal/middleware"
	"gamelibrary/internal/model"
	"gamelibrary/internal/repository"
	"gamelibrary/internal/service"
	fixtures "gamelibrary/internal/testutil"
	"gamelibrary/pkg/response"
)

func newGuard(db *gorm.DB) *middleware.Guard {
	auth := service.NewAuthService(
		repository.NewUserRepository(db),
		repository.NewRoleRepository(db),
		repository.NewTransactionManager(db),
		fixtures.Issuer(),
		model.RoleAdmin,
	)
	return middleware.NewGuard(auth)
}

func ok(c *gin.Context) {
	c.JSON(http.StatusOK, response.Success(http.StatusOK, nil))
}

func do(r http.Handler, method, path, tok, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	t.Helper()
	var res response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	return res
}

func TestAuthenticate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := fixtures.SeededDB(t)
	guard := newGuard(db)

	r := gin.New()
	r.GET("/me", guard.Authenticate(), func(c *gin.Context) {
		caller, found := access.CallerFrom(c.Request.Context())
		require.True(t, found)
		c.JSON(http.StatusOK, response.Success(http.StatusOK, caller))
	})

	user := fixtures.CreateUser(t, db, "Ana", "ana@example.com", model.RoleUser)

	w := do(r, http.MethodGet, "/me", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "authorization is missing", decode(t, w).Error)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Token abc")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "invalid or expired token", decode(t, w).Error)

	w = do(r, http.MethodGet, "/me", "not-a-jwt", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, http.MethodGet, "/me", fixtures.TokenFor(t, user), "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"email":"ana@example.com"`)
}

func TestRequirePermission(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := fixtures.SeededDB(t)
	guard := newGuard(db)

	r := gin.New()
	r.POST("/reviews", guard.Require(access.PermissionRequired(service.PermCreateReview)), ok)
	r.DELETE("/roles/:id", guard.Require(access.PermissionRequired(service.PermDeleteRole)), ok)
	r.GET("/roles", guard.Require(access.AnyPermissionRequired(service.PermManageRoles, service.PermCreateRole)), ok)
	r.DELETE("/users/:id", guard.Require(access.RoleRequired(model.RoleAdmin)), ok)

	fixtures.CreateRole(t, db, "editor", service.PermCreateReview)
	editor := fixtures.CreateUser(t, db, "Ed", "ed@example.com", "editor")
	admin := fixtures.CreateUser(t, db, "Root", "root@example.com", model.RoleAdmin)
	editorToken := fixtures.TokenFor(t, editor)
	adminToken := fixtures.TokenFor(t, admin)

	testCases := []struct {
		name   string
		method string
		path   string
		token  string
		want   int
	}{
		{"editor creates review", http.MethodPost, "/reviews", editorToken, http.StatusOK},
		{"editor deletes role", http.MethodDelete, "/roles/3", editorToken, http.StatusForbidden},
		{"editor lists roles", http.MethodGet, "/roles", editorToken, http.StatusForbidden},
		{"editor deletes user", http.MethodDelete, "/users/1", editorToken, http.StatusForbidden},
		{"admin deletes role", http.MethodDelete, "/roles/3", adminToken, http.StatusOK},
		{"admin lists roles", http.MethodGet, "/roles", adminToken, http.StatusOK},
		{"admin deletes user", http.MethodDelete, "/users/1", adminToken, http.StatusOK},
		{"anonymous", http.MethodPost, "/reviews", "", http.StatusUnauthorized},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := do(r, tc.method, tc.path, tc.token, "")
			assert.Equal(t, tc.want, w.Code)
		})
	}
}

func TestRequirePermissionSeesRoleChanges(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := fixtures.SeededDB(t)
	guard := newGuard(db)

	r := gin.New()
	r.POST("/reviews", guard.Require(access.PermissionRequired(service.PermCreateReview)), ok)

	role := fixtures.CreateRole(t, db, "critic")
	user := fixtures.CreateUser(t, db, "C", "c@example.com", "critic")
	tok := fixtures.TokenFor(t, user)

	assert.Equal(t, http.StatusForbidden, do(r, http.MethodPost, "/reviews", tok, "").Code)

	var perm model.Permission
	require.NoError(t, db.Where("name = ?", service.PermCreateReview).First(&perm).Error)
	require.NoError(t, db.Create(&model.RolePermission{RoleID: role.ID, PermissionID: perm.ID}).Error)

	assert.Equal(t, http.StatusOK, do(r, http.MethodPost, "/reviews", tok, "").Code)
}

func TestOwnerOrAdmin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := fixtures.SeededDB(t)
	guard := newGuard(db)

	r := gin.New()
	r.GET("/library/:userId", guard.Require(access.OwnerOrAdmin(access.Param("userId"))), ok)
	r.POST("/library", guard.Require(access.OwnerOrAdmin(access.Body("userId"), access.Body("user_id"))), func(c *gin.Context) {
		var body map[string]any
		require.NoError(t, c.ShouldBindJSON(&body))
		c.JSON(http.StatusOK, response.Success(http.StatusOK, body))
	})

	ana := fixtures.CreateUser(t, db, "Ana", "ana@example.com", model.RoleUser)
	bob := fixtures.CreateUser(t, db, "Bob", "bob@example.com", model.RoleUser)
	admin := fixtures.CreateUser(t, db, "Root", "root@example.com", model.RoleAdmin)
	anaToken := fixtures.TokenFor(t, ana)

	own := "/library/" + jsonID(ana.ID)
	other := "/library/" + jsonID(bob.ID)

	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, own, anaToken, "").Code)
	assert.Equal(t, http.StatusForbidden, do(r, http.MethodGet, other, anaToken, "").Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, other, fixtures.TokenFor(t, admin), "").Code)
	assert.Equal(t, http.StatusForbidden, do(r, http.MethodGet, "/library/abc", anaToken, "").Code)

	w := do(r, http.MethodPost, "/library", anaToken, `{"user_id":`+jsonID(ana.ID)+`,"gameId":42}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"gameId":42`)

	w = do(r, http.MethodPost, "/library", anaToken, `{"userId":`+jsonID(bob.ID)+`,"user_id":`+jsonID(ana.ID)+`}`)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(r, http.MethodPost, "/library", anaToken, `{"gameId":42}`)
	assert.Equal(t, http.StatusForbidden, w.Code)

	huge := `{"userId":` + jsonID(ana.ID) + `,"notes":"` + strings.Repeat("x", 1<<20) + `"}`
	w = do(r, http.MethodPost, "/library", anaToken, huge)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestLogActivityPersistsAuditRow(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := fixtures.SeededDB(t)
	guard := newGuard(db)
	audit := service.NewAuditService(repository.NewAuditRepository(db))

	r := gin.New()
	r.DELETE("/roles/:id",
		guard.Require(access.Authenticated()),
		middleware.LogActivity(model.ActionDeleteRole, audit),
		func(c *gin.Context) { c.Status(http.StatusNoContent) },
	)

	user := fixtures.CreateUser(t, db, "Ana", "ana@example.com", model.RoleUser)
	w := do(r, http.MethodDelete, "/roles/7", fixtures.TokenFor(t, user), "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	var logs []model.AuditLog
	require.NoError(t, db.Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.Equal(t, model.ActionDeleteRole, logs[0].Action)
	assert.Equal(t, "7", logs[0].EntityID)
	require.NotNil(t, logs[0].UserID)
	assert.Equal(t, user.ID, *logs[0].UserID)
	assert.Contains(t, logs[0].Details, "-> 204")
}

func TestAccessLogAndMetrics(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var buf strings.Builder
	reg := prometheus.NewRegistry()
	metrics := middleware.NewMetrics(reg)

	r := gin.New()
	r.Use(middleware.AccessLog(zerolog.New(&buf), "/health"), metrics.Handler(), middleware.Recovery())
	r.GET("/health", ok)
	r.GET("/boom", func(*gin.Context) { panic("boom") })

	w := do(r, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
	assert.Empty(t, buf.String())

	w = do(r, http.MethodGet, "/boom", "", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "internal server error", decode(t, w).Error)
	assert.Contains(t, buf.String(), `"status":500`)

	families, err := reg.Gather()
	require.NoError(t, err)
	series := 0
	for _, f := range families {
		if f.GetName() == "gamelib_http_requests_total" {
			series = len(f.GetMetric())
		}
	}
	assert.Equal(t, 2, series)
}

func jsonID(id uint) string {
	b, _ := json.Marshal(id)
	return string(b)
}
