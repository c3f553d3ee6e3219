package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"expense_tracker/internal/domain"
	"expense_tracker/internal/middleware"
	"expense_tracker/internal/notifier"
	"expense_tracker/internal/utils"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const testSecret = "test-secret"

// envelope mirrors the JSON response contract of every endpoint
type envelope struct {
	OK   bool            `json:"ok"`
	Code string          `json:"code"`
	Data json.RawMessage `json:"data"`
}

// nopMailer satisfies mailer.Mailer; API tests do not assert on mail
type nopMailer struct{}

func (nopMailer) Send(to []string, subject, htmlBody string) error { return nil }

// newTestDB opens a fresh in-memory database, one per test so state never
// leaks between tests
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	// A named shared-cache DSN keeps all pooled connections on one database
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.User{}, &domain.Project{}, &domain.ProjectMember{}, &domain.Expense{}))
	return db
}

// newTestRouter wires the real routes against the given database, without
// a cache
func newTestRouter(db *gorm.DB) *gin.Engine {
	return newTestRouterWithRedis(db, nil)
}

// newTestRouterWithRedis wires the real routes with a Redis-backed total cache
func newTestRouterWithRedis(db *gorm.DB, rdb *redis.Client) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	n := notifier.New(db, nopMailer{})

	r.POST("/user", RegisterHandler(db))
	r.GET("/user", LoginHandler(db, testSecret))

	projectGroup := r.Group("/project")
	projectGroup.Use(middleware.JWTAuthMiddleware(testSecret))
	projectGroup.GET("", ListProjectsHandler(db))
	projectGroup.GET("/:id", GetProjectHandler(db))
	projectGroup.POST("", CreateProjectHandler(db))
	projectGroup.DELETE("/:id", DeleteProjectHandler(db))
	projectGroup.GET("/:id/members", ListMembersHandler(db))
	projectGroup.POST("/:id/members", InviteMemberHandler(db))

	expenseGroup := r.Group("/expense")
	expenseGroup.Use(middleware.JWTAuthMiddleware(testSecret))
	expenseGroup.GET("/project/:projectId", ListExpensesHandler(db))
	expenseGroup.POST("/project/:projectId", CreateExpenseHandler(db, rdb, n))
	expenseGroup.GET("/project/:projectId/total", TotalExpensesHandler(db, rdb))
	expenseGroup.DELETE("/:id", DeleteExpenseHandler(db, rdb, n))

	return r
}

// newTestRedis starts an in-process Redis and returns a client against it
func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

// createUser inserts a user and returns it with a valid bearer token
func createUser(t *testing.T, db *gorm.DB, username string) (domain.User, string) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("password1"), bcrypt.MinCost)
	require.NoError(t, err)
	user := domain.User{
		Username: username,
		Email:    username + "@example.com",
		Password: string(hash),
	}
	require.NoError(t, db.Create(&user).Error)
	token, err := utils.GenerateJWT(user.ID, testSecret)
	require.NoError(t, err)
	return user, token
}

// createProject inserts a project and a membership row for the owner
func createProject(t *testing.T, db *gorm.DB, owner domain.User, name string, budget float64) domain.Project {
	t.Helper()
	project := domain.Project{Name: name, Budget: &budget}
	require.NoError(t, db.Create(&project).Error)
	require.NoError(t, db.Create(&domain.ProjectMember{ProjectID: project.ID, UserID: owner.ID}).Error)
	return project
}

// doRequest performs an authenticated JSON request against the router
func doRequest(t *testing.T, r *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// decodeEnvelope unmarshals the response envelope
func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

// itoa formats an ID for use in a route path
func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

// requireFailure asserts status and error code of a failed request
func requireFailure(t *testing.T, w *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	require.Equal(t, status, w.Code)
	env := decodeEnvelope(t, w)
	require.False(t, env.OK)
	require.Equal(t, code, env.Code)
}
