package handler_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"gamelibrary/internal/catalog"
	"gamelibrary/internal/handler"
	"gamelibrary/internal/middleware"
	"gamelibrary/internal/model"
	"gamelibrary/internal/repository"
	"gamelibrary/internal/service"
	"gamelibrary/internal/testutil"
	"gamelibrary/pkg/response"
)

type offlineCatalog struct{}

func (offlineCatalog) Search(context.Context, string, int, int) (json.RawMessage, error) {
	return nil, catalog.ErrNoAPIKey
}

func (offlineCatalog) ListGames(context.Context, int, int) ([]catalog.Game, error) {
	return nil, catalog.ErrNoAPIKey
}

func (offlineCatalog) GetGame(context.Context, uint) (*catalog.Game, error) {
	return nil, catalog.ErrNoAPIKey
}

func newRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.SeededDB(t)
	txManager := repository.NewTransactionManager(db)
	userRepo := repository.NewUserRepository(db)
	roleRepo := repository.NewRoleRepository(db)
	libraryRepo := repository.NewLibraryRepository(db)
	gameRepo := repository.NewGameRepository(db)

	authService := service.NewAuthService(userRepo, roleRepo, txManager, testutil.Issuer(), model.RoleAdmin)
	auditService := service.NewAuditService(repository.NewAuditRepository(db))
	guard := middleware.NewGuard(authService)

	r := gin.New()
	api := r.Group("")
	handler.NewAuthHandler(authService, auditService).RegisterRoutes(api)
	handler.NewGameHandler(service.NewCatalogService(offlineCatalog{}, gameRepo, 20)).RegisterRoutes(api)
	handler.NewLibraryHandler(
		service.NewLibraryService(libraryRepo, gameRepo, txManager, nil), auditService, guard,
	).RegisterRoutes(api)
	handler.NewReviewHandler(
		service.NewReviewService(repository.NewReviewRepository(db), libraryRepo, txManager, nil), auditService, guard,
	).RegisterRoutes(api)
	handler.NewRoleHandler(service.NewRoleService(roleRepo, userRepo, txManager), auditService, guard).RegisterRoutes(api)
	handler.NewUserHandler(service.NewUserService(userRepo, txManager), authService, auditService, guard).RegisterRoutes(api)
	handler.NewAuditHandler(auditService, guard).RegisterRoutes(api)
	return r, db
}

func call(t *testing.T, r http.Handler, method, path, tok, body string) (int, response.Response) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var res response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res), w.Body.String())
	return w.Code, res
}

func id(v uint) string { return strconv.FormatUint(uint64(v), 10) }

func TestRegisterLoginFlow(t *testing.T) {
	r, db := newRouter(t)

	code, res := call(t, r, http.MethodPost, "/api/auth/register", "", `{"name":"Ana","email":"ana@example.com","password":"secret1"}`)
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, "success", res.Status)

	code, res = call(t, r, http.MethodPost, "/api/auth/register", "", `{"name":"Ana","email":"ana@example.com","password":"secret1"}`)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "email already registered", res.Error)

	code, _ = call(t, r, http.MethodPost, "/api/auth/register", "", `{"name":"Ana","email":"nope","password":"secret1"}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, res = call(t, r, http.MethodPost, "/api/auth/login", "", `{"email":"ana@example.com","password":"secret1"}`)
	require.Equal(t, http.StatusOK, code)
	data := res.Data.(map[string]any)
	tok := data["token"].(string)
	assert.NotEmpty(t, tok)

	code, res = call(t, r, http.MethodGet, "/api/users/me", tok, "")
	require.Equal(t, http.StatusOK, code)
	me := res.Data.(map[string]any)
	assert.Equal(t, "ana@example.com", me["email"])
	assert.Contains(t, me["permissions"], service.PermCreateReview)

	code, _ = call(t, r, http.MethodPost, "/api/auth/login", "", `{"email":"ana@example.com","password":"wrong1"}`)
	assert.Equal(t, http.StatusUnauthorized, code)

	var logs int64
	require.NoError(t, db.Model(&model.AuditLog{}).Count(&logs).Error)
	assert.Equal(t, int64(5), logs)
}

func TestAddToLibraryTwiceConflicts(t *testing.T) {
	r, db := newRouter(t)
	user := testutil.CreateUser(t, db, "Ana", "ana@example.com", model.RoleUser)
	tok := testutil.TokenFor(t, user)

	body := `{"userId":` + id(user.ID) + `,"gameId":42,"titulo":"Test Game","imagen_url":"https://img.example/42.jpg"}`

	code, res := call(t, r, http.MethodPost, "/api/library", tok, body)
	require.Equal(t, http.StatusCreated, code, res.Error)
	entry := res.Data.(map[string]any)
	assert.Equal(t, model.StatusPending, entry["status"])
	assert.EqualValues(t, 0, entry["rating"])

	code, res = call(t, r, http.MethodPost, "/api/library", tok, body)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "the game is already in the library", res.Error)

	code, res = call(t, r, http.MethodGet, "/api/library/"+id(user.ID), tok, "")
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, res.Data.([]any), 1)
}

func TestLibraryOwnership(t *testing.T) {
	r, db := newRouter(t)
	ana := testutil.CreateUser(t, db, "Ana", "ana@example.com", model.RoleUser)
	bob := testutil.CreateUser(t, db, "Bob", "bob@example.com", model.RoleUser)
	entry := testutil.AddEntry(t, db, ana.ID, 42, "Test Game")
	bobToken := testutil.TokenFor(t, bob)

	code, _ := call(t, r, http.MethodGet, "/api/library/"+id(ana.ID), bobToken, "")
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = call(t, r, http.MethodPost, "/api/library", bobToken, `{"user_id":`+id(ana.ID)+`,"game_id":7,"title":"Doom"}`)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = call(t, r, http.MethodPut, "/api/library/"+id(entry.ID), bobToken, `{"status":"playing"}`)
	assert.Equal(t, http.StatusForbidden, code)

	anaToken := testutil.TokenFor(t, ana)
	code, _ = call(t, r, http.MethodPut, "/api/library/"+id(entry.ID), anaToken, `{"status":"wishlist"}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, res := call(t, r, http.MethodPut, "/api/library/"+id(entry.ID), anaToken, `{"status":"completed"}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, model.StatusCompleted, res.Data.(map[string]any)["status"])

	code, _ = call(t, r, http.MethodDelete, "/api/library/"+id(entry.ID), anaToken, "")
	assert.Equal(t, http.StatusOK, code)

	code, _ = call(t, r, http.MethodDelete, "/api/library/"+id(entry.ID), anaToken, "")
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = call(t, r, http.MethodGet, "/api/library/abc", anaToken, "")
	assert.Equal(t, http.StatusForbidden, code)
}

func TestLibraryWritesAcceptClientSpellings(t *testing.T) {
	r, db := newRouter(t)
	ana := testutil.CreateUser(t, db, "Ana", "ana@example.com", model.RoleUser)
	tok := testutil.TokenFor(t, ana)

	code, res := call(t, r, http.MethodPost, "/api/library", tok, `{"userId":"`+id(ana.ID)+`","gameId":"7","title":"Doom"}`)
	require.Equal(t, http.StatusCreated, code, res.Error)
	entry := res.Data.(map[string]any)
	assert.EqualValues(t, 7, entry["game_id"])

	code, res = call(t, r, http.MethodPut, "/api/library/"+id(uint(entry["id"].(float64))), tok, `{"status":"Playing"}`)
	require.Equal(t, http.StatusOK, code, res.Error)
	assert.Equal(t, model.StatusPlaying, res.Data.(map[string]any)["status"])

	code, _ = call(t, r, http.MethodPost, "/api/library", tok, `{"userId":"ana","gameId":8,"title":"Quake"}`)
	assert.Equal(t, http.StatusForbidden, code)
}

func TestLibraryWritesNeedManagePermission(t *testing.T) {
	r, db := newRouter(t)
	testutil.CreateRole(t, db, "reader", service.PermCreateReview)
	reader := testutil.CreateUser(t, db, "Rita", "rita@example.com", "reader")
	entry := testutil.AddEntry(t, db, reader.ID, 42, "Test Game")
	tok := testutil.TokenFor(t, reader)

	code, _ := call(t, r, http.MethodGet, "/api/library/"+id(reader.ID), tok, "")
	assert.Equal(t, http.StatusOK, code)

	code, _ = call(t, r, http.MethodPost, "/api/library", tok, `{"userId":`+id(reader.ID)+`,"gameId":7,"title":"Doom"}`)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = call(t, r, http.MethodPut, "/api/library/"+id(entry.ID), tok, `{"status":"playing"}`)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = call(t, r, http.MethodDelete, "/api/library/"+id(entry.ID), tok, "")
	assert.Equal(t, http.StatusForbidden, code)

	admin := testutil.CreateUser(t, db, "Root", "root@example.com", model.RoleAdmin)
	code, res := call(t, r, http.MethodPost, "/api/library", testutil.TokenFor(t, admin), `{"userId":`+id(reader.ID)+`,"gameId":7,"title":"Doom"}`)
	assert.Equal(t, http.StatusCreated, code, res.Error)
}

func TestReviewRoutes(t *testing.T) {
	r, db := newRouter(t)
	ana := testutil.CreateUser(t, db, "Ana", "ana@example.com", model.RoleUser)
	bob := testutil.CreateUser(t, db, "Bob", "bob@example.com", model.RoleUser)
	entry := testutil.AddEntry(t, db, ana.ID, 42, "Test Game")
	anaToken := testutil.TokenFor(t, ana)
	bobToken := testutil.TokenFor(t, bob)

	code, _ := call(t, r, http.MethodPost, "/api/reviews", anaToken, `{"libraryEntryId":`+id(entry.ID)+`,"rating":6}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = call(t, r, http.MethodPost, "/api/reviews", bobToken, `{"libraryEntryId":`+id(entry.ID)+`,"rating":4}`)
	assert.Equal(t, http.StatusForbidden, code)

	code, res := call(t, r, http.MethodPost, "/api/reviews", anaToken, `{"libraryEntryId":`+id(entry.ID)+`,"rating":4,"comment":"great"}`)
	require.Equal(t, http.StatusCreated, code)
	reviewID := uint(res.Data.(map[string]any)["id"].(float64))

	code, _ = call(t, r, http.MethodPost, "/api/reviews", anaToken, `{"libraryEntryId":`+id(entry.ID)+`,"rating":5}`)
	assert.Equal(t, http.StatusConflict, code)

	code, res = call(t, r, http.MethodPut, "/api/reviews/"+id(reviewID), bobToken, `{"rating":1}`)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "not authorized", res.Error)

	code, res = call(t, r, http.MethodGet, "/api/reviews/game/42", "", "")
	require.Equal(t, http.StatusOK, code)
	summary := res.Data.(map[string]any)
	assert.EqualValues(t, 1, summary["count"])
	assert.Equal(t, "4", summary["average_rating"])

	code, res = call(t, r, http.MethodGet, "/api/reviews/check/"+id(ana.ID)+"/"+id(entry.ID), anaToken, "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, res.Data.(map[string]any)["has_reviewed"])

	code, _ = call(t, r, http.MethodGet, "/api/reviews/check/"+id(ana.ID)+"/"+id(entry.ID), bobToken, "")
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = call(t, r, http.MethodDelete, "/api/reviews/"+id(reviewID), anaToken, "")
	assert.Equal(t, http.StatusOK, code)
}

func TestRoleRoutes(t *testing.T) {
	r, db := newRouter(t)
	admin := testutil.CreateUser(t, db, "Root", "root@example.com", model.RoleAdmin)
	user := testutil.CreateUser(t, db, "Ana", "ana@example.com", model.RoleUser)
	adminToken := testutil.TokenFor(t, admin)
	userToken := testutil.TokenFor(t, user)

	code, _ := call(t, r, http.MethodGet, "/api/roles", userToken, "")
	assert.Equal(t, http.StatusForbidden, code)

	code, res := call(t, r, http.MethodGet, "/api/roles", adminToken, "")
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, res.Data.([]any), 2)

	code, res = call(t, r, http.MethodPost, "/api/roles", adminToken, `{"name":"editor","description":"writes reviews"}`)
	require.Equal(t, http.StatusCreated, code)
	editorID := uint(res.Data.(map[string]any)["id"].(float64))

	code, _ = call(t, r, http.MethodPost, "/api/roles", adminToken, `{"name":"editor"}`)
	assert.Equal(t, http.StatusConflict, code)

	code, res = call(t, r, http.MethodGet, "/api/roles/permissions", adminToken, "")
	require.Equal(t, http.StatusOK, code)
	perms := res.Data.([]any)
	require.NotEmpty(t, perms)
	firstPerm := uint(perms[0].(map[string]any)["id"].(float64))

	code, res = call(t, r, http.MethodPost, "/api/roles/"+id(editorID)+"/permissions", adminToken, `{"permission_ids":[`+id(firstPerm)+`]}`)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, res.Data.(map[string]any)["permissions"], 1)

	code, _ = call(t, r, http.MethodPut, "/api/roles/user/"+id(user.ID)+"/role", userToken, `{"role_id":`+id(editorID)+`}`)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = call(t, r, http.MethodPut, "/api/roles/user/"+id(user.ID)+"/role", adminToken, `{"role_id":`+id(editorID)+`}`)
	require.Equal(t, http.StatusOK, code)

	code, _ = call(t, r, http.MethodDelete, "/api/roles/"+id(editorID), adminToken, "")
	assert.Equal(t, http.StatusConflict, code)

	code, res = call(t, r, http.MethodGet, "/api/roles/user/"+id(user.ID)+"/permissions", userToken, "")
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, res.Data.([]any), 1)

	code, res = call(t, r, http.MethodGet, "/api/audit-logs?limit=2", adminToken, "")
	require.Equal(t, http.StatusOK, code)
	page := res.Data.(map[string]any)
	assert.Len(t, page["items"], 2)
	assert.EqualValues(t, 2, page["limit"])

	code, _ = call(t, r, http.MethodGet, "/api/audit-logs?user_id=abc", adminToken, "")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestGamesFallBackToLocalTable(t *testing.T) {
	r, db := newRouter(t)
	require.NoError(t, db.Create(&model.Game{ID: 42, Title: "Test Game"}).Error)

	code, res := call(t, r, http.MethodGet, "/api/games?search=test", "", "")
	require.Equal(t, http.StatusOK, code)
	page := res.Data.(map[string]any)
	assert.EqualValues(t, 1, page["count"])

	code, _ = call(t, r, http.MethodGet, "/api/games/42", "", "")
	assert.Equal(t, http.StatusOK, code)

	code, _ = call(t, r, http.MethodGet, "/api/games/43", "", "")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestUserRoutes(t *testing.T) {
	r, db := newRouter(t)
	admin := testutil.CreateUser(t, db, "Root", "root@example.com", model.RoleAdmin)
	user := testutil.CreateUser(t, db, "Ana", "ana@example.com", model.RoleUser)
	adminToken := testutil.TokenFor(t, admin)
	userToken := testutil.TokenFor(t, user)

	code, _ := call(t, r, http.MethodGet, "/api/users", userToken, "")
	assert.Equal(t, http.StatusForbidden, code)

	code, res := call(t, r, http.MethodGet, "/api/users", adminToken, "")
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 2, res.Data.(map[string]any)["total"])

	code, _ = call(t, r, http.MethodPut, "/api/users/me/password", userToken, `{"old_password":"`+testutil.Password+`","new_password":"another1"}`)
	assert.Equal(t, http.StatusOK, code)

	code, _ = call(t, r, http.MethodDelete, "/api/users/"+id(admin.ID), adminToken, "")
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = call(t, r, http.MethodDelete, "/api/users/"+id(user.ID), adminToken, "")
	assert.Equal(t, http.StatusOK, code)

	// the deleted user's token no longer resolves
	code, _ = call(t, r, http.MethodGet, "/api/users/me", userToken, "")
	assert.Equal(t, http.StatusUnauthorized, code)
}
