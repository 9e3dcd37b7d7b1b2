package server

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"yatube/internal/config"
	"yatube/internal/media"
	"yatube/internal/models"
	"yatube/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testEnv struct {
	srv       *Server
	app       *fiber.App
	db        *gorm.DB
	mr        *miniredis.Miniredis
	mediaRoot string
}

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		Port:                 "0",
		Env:                  "test",
		JWTSecret:            "test-secret-key-that-is-long-enough",
		AllowedOrigins:       "http://localhost:8000",
		DBDriver:             "sqlite",
		PageSize:             10,
		IndexCacheSeconds:    20,
		LoginURL:             "/auth/login/",
		SessionCookieName:    "sessionid",
		MediaBackend:         "local",
		MediaRoot:            t.TempDir(),
		MediaURL:             "/media/",
		ImageMaxUploadSizeMB: 1,
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithRedis(t, true)
}

func newTestEnvWithRedis(t *testing.T, withRedis bool) *testEnv {
	t.Helper()
	cfg := testConfig(t)
	db := testutil.NewTestDB(t)

	env := &testEnv{db: db, mediaRoot: cfg.MediaRoot}
	var rdb *redis.Client
	if withRedis {
		env.mr = miniredis.RunT(t)
		rdb = redis.NewClient(&redis.Options{Addr: env.mr.Addr()})
		t.Cleanup(func() { _ = rdb.Close() })
	}

	srv, err := NewServerWithDeps(cfg, db, rdb, media.NewLocalStorage(cfg.MediaRoot, cfg.MediaURL))
	require.NoError(t, err)
	env.srv = srv
	env.app = srv.App()
	return env
}

func (e *testEnv) token(t *testing.T, user *models.User) string {
	t.Helper()
	token, err := e.srv.generateToken(user.ID, user.Username)
	require.NoError(t, err)
	return token
}

func (e *testEnv) do(t *testing.T, req *http.Request, user *models.User) *http.Response {
	t.Helper()
	if user != nil {
		req.AddCookie(&http.Cookie{Name: "sessionid", Value: e.token(t, user)})
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func (e *testEnv) get(t *testing.T, target string, user *models.User) *http.Response {
	t.Helper()
	return e.do(t, httptest.NewRequest(http.MethodGet, target, nil), user)
}

func (e *testEnv) postForm(t *testing.T, target string, values url.Values, user *models.User) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", fiber.MIMEApplicationForm)
	return e.do(t, req, user)
}

func (e *testEnv) postMultipart(t *testing.T, target string, fields map[string]string, filename string, content []byte, user *models.User) *http.Response {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if filename != "" {
		part, err := w.CreateFormFile("image", filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return e.do(t, req, user)
}

func readBody(t *testing.T, resp *http.Response) []byte {
	t.Helper()
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return body
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(readBody(t, resp), &v))
	return v
}

type pageBody struct {
	ObjectList []struct {
		ID       uint          `json:"id"`
		Text     string        `json:"text"`
		AuthorID uint          `json:"author_id"`
		GroupID  *uint         `json:"group_id"`
		Image    string        `json:"image"`
		ImageURL string        `json:"image_url"`
		Author   models.User   `json:"author"`
		Group    *models.Group `json:"group"`
	} `json:"object_list"`
	Number      int   `json:"number"`
	NumPages    int   `json:"num_pages"`
	Count       int64 `json:"count"`
	HasNext     bool  `json:"has_next"`
	HasPrevious bool  `json:"has_previous"`
}

type listingBody struct {
	PageObj        pageBody      `json:"page_obj"`
	Group          *models.Group `json:"group"`
	Author         *models.User  `json:"author"`
	FullName       string        `json:"full_name"`
	Count          int64         `json:"count"`
	Following      bool          `json:"following"`
	FollowersCount int64         `json:"followers_count"`
	FollowingCount int64         `json:"following_count"`
}

type formErrorBody struct {
	Code   string              `json:"code"`
	Errors map[string][]string `json:"errors"`
}

func TestNewServerWithDeps_RequiresDependencies(t *testing.T) {
	_, err := NewServerWithDeps(nil, nil, nil, nil)
	assert.Error(t, err)
}

func TestHealthChecks(t *testing.T) {
	env := newTestEnv(t)

	resp := env.get(t, "/health/live", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.get(t, "/health/ready", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[map[string]any](t, resp)
	checks := body["checks"].(map[string]any)
	assert.Equal(t, "healthy", checks["database"])
	assert.Equal(t, "healthy", checks["redis"])
}

func TestReadiness_RedisDown(t *testing.T) {
	env := newTestEnv(t)
	env.mr.Close()

	resp := env.get(t, "/health/ready", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestUnknownPath_Returns404JSON(t *testing.T) {
	env := newTestEnv(t)

	resp := env.get(t, "/unexisting_page/", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	body := decode[map[string]string](t, resp)
	assert.Equal(t, "NOT_FOUND", body["code"])
	assert.Equal(t, "/unexisting_page/", body["path"])
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t)

	env.get(t, "/", nil)
	resp := env.get(t, "/metrics", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(readBody(t, resp)), "yatube")
}

func TestSecurityHeaders(t *testing.T) {
	env := newTestEnv(t)

	resp := env.get(t, "/health/live", nil)
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
	assert.NotEmpty(t, resp.Header.Get("X-Trace-ID"))
}
