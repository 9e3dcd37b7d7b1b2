package server

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"yatube/internal/models"
	"yatube/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sessionCookie(resp *http.Response) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == "sessionid" {
			return c
		}
	}
	return nil
}

func TestSignup(t *testing.T) {
	env := newTestEnv(t)

	resp := env.postForm(t, "/auth/signup/", url.Values{
		"username":  {"new.user"},
		"email":     {"new@example.com"},
		"password1": {"long-enough-pass"},
		"password2": {"long-enough-pass"},
	}, nil)
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))
	cookie := sessionCookie(resp)
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)

	var user models.User
	require.NoError(t, env.db.Where("username = ?", "new.user").First(&user).Error)
	assert.NotEqual(t, "long-enough-pass", user.Password)

	// The new session works on a login-required page.
	req := httptest.NewRequest(http.MethodGet, "/create/", nil)
	req.AddCookie(cookie)
	resp = env.do(t, req, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSignup_Invalid(t *testing.T) {
	env := newTestEnv(t)
	testutil.CreateUser(t, env.db, "taken")

	tests := []struct {
		name   string
		values url.Values
		field  string
	}{
		{"duplicate username", url.Values{"username": {"taken"}, "password1": {"long-enough-pass"}, "password2": {"long-enough-pass"}}, "username"},
		{"bad username", url.Values{"username": {"has space"}, "password1": {"long-enough-pass"}, "password2": {"long-enough-pass"}}, "username"},
		{"short password", url.Values{"username": {"fresh"}, "password1": {"short"}, "password2": {"short"}}, "password1"},
		{"mismatch", url.Values{"username": {"fresh"}, "password1": {"long-enough-pass"}, "password2": {"other-long-pass"}}, "password2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := env.postForm(t, "/auth/signup/", tt.values, nil)
			require.Equal(t, http.StatusBadRequest, resp.StatusCode)
			body := decode[formErrorBody](t, resp)
			assert.NotEmpty(t, body.Errors[tt.field])
		})
	}
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	testutil.CreateUser(t, env.db, "leo")

	resp := env.postForm(t, "/auth/login/", url.Values{
		"username": {"leo"},
		"password": {testutil.TestPassword},
		"next":     {"/follow/"},
	}, nil)
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/follow/", resp.Header.Get("Location"))
	assert.NotNil(t, sessionCookie(resp))
}

func TestLogin_NextFromQuery(t *testing.T) {
	env := newTestEnv(t)
	testutil.CreateUser(t, env.db, "leo")

	resp := env.postForm(t, "/auth/login/?next=/create/", url.Values{
		"username": {"leo"},
		"password": {testutil.TestPassword},
	}, nil)
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/create/", resp.Header.Get("Location"))
}

func TestLogin_RejectsOffsiteNext(t *testing.T) {
	env := newTestEnv(t)
	testutil.CreateUser(t, env.db, "leo")

	resp := env.postForm(t, "/auth/login/", url.Values{
		"username": {"leo"},
		"password": {testutil.TestPassword},
		"next":     {"//evil.example.com/"},
	}, nil)
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))
}

func TestLogin_BadCredentials(t *testing.T) {
	env := newTestEnv(t)
	testutil.CreateUser(t, env.db, "leo")

	for _, values := range []url.Values{
		{"username": {"leo"}, "password": {"wrong-password"}},
		{"username": {"ghost"}, "password": {"whatever"}},
	} {
		resp := env.postForm(t, "/auth/login/", values, nil)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Nil(t, sessionCookie(resp))
		body := decode[formErrorBody](t, resp)
		assert.NotEmpty(t, body.Errors[models.NonFieldErrors])
	}
}

func TestLogout_RevokesSession(t *testing.T) {
	env := newTestEnv(t)
	user := testutil.CreateUser(t, env.db, "leo")
	token := env.token(t, user)

	withToken := func(method, target string) *http.Response {
		req := httptest.NewRequest(method, target, nil)
		req.AddCookie(&http.Cookie{Name: "sessionid", Value: token})
		return env.do(t, req, nil)
	}

	require.Equal(t, http.StatusOK, withToken(http.MethodGet, "/create/").StatusCode)

	resp := withToken(http.MethodPost, "/auth/logout/")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	cookie := sessionCookie(resp)
	require.NotNil(t, cookie)
	assert.Empty(t, cookie.Value)

	resp = withToken(http.MethodGet, "/create/")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
}
