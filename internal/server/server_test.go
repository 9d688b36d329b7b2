package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"agora/internal/cache"
	"agora/internal/config"
	"agora/internal/database"
	"agora/internal/models"
	"agora/internal/observability"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testPeerSecret = "peer-secret"

type testEnv struct {
	srv *Server
	app *fiber.App
	db  *gorm.DB
	mr  *miniredis.Miniredis
}

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:           "test-secret-with-enough-bytes",
		TokenTTL:            7 * 24 * time.Hour,
		BcryptCost:          4,
		Port:                "0",
		Env:                 "test",
		ServerPeerSecret:    testPeerSecret,
		CommentDeletePolicy: config.CommentDeleteAuthorOrPostOwner,
	}
}

func setupSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Discard,
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

func newTestEnv(t *testing.T, mutate ...func(*config.Config)) *testEnv {
	t.Helper()

	cfg := testConfig()
	for _, m := range mutate {
		m(cfg)
	}

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	db := setupSQLite(t)

	srv, err := NewServer(Deps{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
		Logger: observability.Discard(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { srv.shutdownFn() })

	return &testEnv{srv: srv, app: srv.App(), db: db, mr: mr}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, token string) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func requireError(t *testing.T, resp *http.Response, status int, code string) {
	t.Helper()
	require.Equal(t, status, resp.StatusCode)
	assert.Equal(t, code, decode[models.ErrorResponse](t, resp).Code)
}

func registerBody(username string) map[string]any {
	return map[string]any{
		"username":    username,
		"mail":        username + "@example.com",
		"fullname":    username + " tester",
		"dateOfBirth": "1990-04-01",
		"password":    "wonderland1",
	}
}

func (e *testEnv) register(t *testing.T, username string) models.PublicUser {
	t.Helper()
	resp := e.do(t, http.MethodPost, "/api/auth/register", registerBody(username), "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	return decode[models.PublicUser](t, resp)
}

func (e *testEnv) login(t *testing.T, username string) string {
	t.Helper()
	resp := e.do(t, http.MethodPost, "/api/auth/login", map[string]any{
		"username": username,
		"password": "wonderland1",
	}, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	return decode[map[string]string](t, resp)["token"]
}

func (e *testEnv) createPost(t *testing.T, token, title string) models.Post {
	t.Helper()
	resp := e.do(t, http.MethodPost, "/api/posts", map[string]any{
		"title":   title,
		"content": "body of " + title,
	}, token)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	return decode[models.Post](t, resp)
}

func jwtCookie(resp *http.Response) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == "jwt" {
			return c
		}
	}
	return nil
}

func TestNewServer_RequiresConfigAndDB(t *testing.T) {
	_, err := NewServer(Deps{})
	assert.Error(t, err)
}

func TestForumScenario(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/api/auth/register", registerBody("alice"), "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "password")
	assert.NotContains(t, string(raw), "wonderland1")

	var stored models.User
	require.NoError(t, env.db.Where("username = ?", "alice").First(&stored).Error)
	assert.NotEqual(t, "wonderland1", stored.Password)

	resp = env.do(t, http.MethodPost, "/api/auth/login", map[string]any{
		"username":  "alice",
		"password":  "wonderland1",
		"keepLogin": true,
	}, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	cookie := jwtCookie(resp)
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), cookie.Expires, time.Minute)
	aliceToken := decode[map[string]string](t, resp)["token"]
	require.NotEmpty(t, aliceToken)
	assert.Equal(t, aliceToken, cookie.Value)

	post := env.createPost(t, aliceToken, "hello")
	assert.Equal(t, "hello", post.Title)

	env.register(t, "bob")
	bobToken := env.login(t, "bob")

	postPath := fmt.Sprintf("/api/posts/%d", post.ID)
	resp = env.do(t, http.MethodDelete, postPath, nil, bobToken)
	requireError(t, resp, fiber.StatusForbidden, models.CodeNotOwnPost)

	resp = env.do(t, http.MethodDelete, postPath, nil, aliceToken)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, post.ID, decode[models.Post](t, resp).ID)

	resp = env.do(t, http.MethodGet, postPath, nil, "")
	requireError(t, resp, fiber.StatusNotFound, models.CodePostNotExisted)
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice")

	tests := []struct {
		name     string
		body     map[string]any
		status   int
		code     string
		checkJar func(t *testing.T, c *http.Cookie)
	}{
		{
			name:   "wrong password",
			body:   map[string]any{"username": "alice", "password": "not-the-one1"},
			status: fiber.StatusUnauthorized,
			code:   models.CodeInvalidCredentials,
		},
		{
			name:   "unknown user",
			body:   map[string]any{"username": "nobody", "password": "wonderland1"},
			status: fiber.StatusUnauthorized,
			code:   models.CodeInvalidCredentials,
		},
		{
			name:   "missing password",
			body:   map[string]any{"username": "alice"},
			status: fiber.StatusBadRequest,
			code:   models.CodeValidation,
		},
		{
			name:   "session cookie without keepLogin",
			body:   map[string]any{"username": "alice", "password": "wonderland1"},
			status: fiber.StatusOK,
			checkJar: func(t *testing.T, c *http.Cookie) {
				require.NotNil(t, c)
				assert.True(t, c.Expires.IsZero())
				assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := env.do(t, http.MethodPost, "/api/auth/login", tt.body, "")
			if tt.code != "" {
				requireError(t, resp, tt.status, tt.code)
				assert.Nil(t, jwtCookie(resp))
				return
			}
			require.Equal(t, tt.status, resp.StatusCode)
			tt.checkJar(t, jwtCookie(resp))
		})
	}
}

func TestRegister_Validation(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice")

	t.Run("field details", func(t *testing.T) {
		body := registerBody("carol")
		delete(body, "mail")
		body["password"] = "short"

		resp := env.do(t, http.MethodPost, "/api/auth/register", body, "")
		require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
		out := decode[models.ErrorResponse](t, resp)
		assert.Equal(t, models.CodeValidation, out.Code)
		details, ok := out.Details.(map[string]any)
		require.True(t, ok)
		assert.Contains(t, details, "mail")
		assert.Contains(t, details, "password")
	})

	t.Run("future birthday", func(t *testing.T) {
		body := registerBody("dave")
		body["dateOfBirth"] = time.Now().AddDate(1, 0, 0).Format("2006-01-02")
		resp := env.do(t, http.MethodPost, "/api/auth/register", body, "")
		requireError(t, resp, fiber.StatusBadRequest, models.CodeValidation)
	})

	t.Run("duplicate username", func(t *testing.T) {
		body := registerBody("alice")
		body["mail"] = "other@example.com"
		resp := env.do(t, http.MethodPost, "/api/auth/register", body, "")
		requireError(t, resp, fiber.StatusConflict, models.CodeUsernameExisted)
	})

	t.Run("duplicate mail", func(t *testing.T) {
		body := registerBody("alice2")
		body["mail"] = "alice@example.com"
		resp := env.do(t, http.MethodPost, "/api/auth/register", body, "")
		requireError(t, resp, fiber.StatusConflict, models.CodeUserMailExisted)
	})

	t.Run("malformed json", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewBufferString("{"))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		resp, err := env.app.Test(req, -1)
		require.NoError(t, err)
		requireError(t, resp, fiber.StatusBadRequest, models.CodeValidation)
	})
}

func TestLogout_RevokesSession(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice")
	token := env.login(t, "alice")

	resp := env.do(t, http.MethodGet, "/api/user/current/me", nil, token)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/api/auth/logout", nil, token)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	cleared := jwtCookie(resp)
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)

	resp = env.do(t, http.MethodGet, "/api/user/current/me", nil, token)
	requireError(t, resp, fiber.StatusUnauthorized, models.CodeUnauthorized)

	// The alias route behaves the same for a fresh session.
	token = env.login(t, "alice")
	resp = env.do(t, http.MethodPost, "/api/user/logout", nil, token)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestProtectedRoutes_IgnoreUserIDHeader(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register(t, "alice")

	req := httptest.NewRequest(http.MethodGet, "/api/user/current/me", nil)
	req.Header.Set("userID", fmt.Sprint(alice.ID))
	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	requireError(t, resp, fiber.StatusUnauthorized, models.CodeUnauthorized)
}

func TestPosts_UpdateAndList(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register(t, "alice")
	env.register(t, "bob")
	aliceToken := env.login(t, "alice")
	bobToken := env.login(t, "bob")

	first := env.createPost(t, aliceToken, "first")
	second := env.createPost(t, aliceToken, "second")

	path := fmt.Sprintf("/api/posts/%d", first.ID)

	resp := env.do(t, http.MethodPatch, path, map[string]any{"title": "hijacked"}, bobToken)
	requireError(t, resp, fiber.StatusForbidden, models.CodeNotOwnPost)

	resp = env.do(t, http.MethodGet, path, nil, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "first", decode[models.Post](t, resp).Title)

	resp = env.do(t, http.MethodPatch, path, map[string]any{"title": "renamed"}, aliceToken)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	updated := decode[models.Post](t, resp)
	assert.Equal(t, "renamed", updated.Title)
	assert.Equal(t, "body of first", updated.Content)

	resp = env.do(t, http.MethodGet, "/api/posts?limit=10", nil, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	list := decode[[]models.Post](t, resp)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID, "newest first")

	resp = env.do(t, http.MethodGet, fmt.Sprintf("/api/users/%d/posts", alice.ID), nil, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]models.Post](t, resp), 2)

	resp = env.do(t, http.MethodGet, "/api/users/999/posts", nil, "")
	requireError(t, resp, fiber.StatusNotFound, models.CodeUserNotExisted)

	resp = env.do(t, http.MethodGet, "/api/posts/abc", nil, "")
	requireError(t, resp, fiber.StatusBadRequest, models.CodeValidation)

	resp = env.do(t, http.MethodPost, "/api/posts", map[string]any{"title": "no auth", "content": "x"}, "")
	requireError(t, resp, fiber.StatusUnauthorized, models.CodeUnauthorized)
}

func TestComments(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice")
	env.register(t, "bob")
	env.register(t, "carol")
	aliceToken := env.login(t, "alice")
	bobToken := env.login(t, "bob")
	carolToken := env.login(t, "carol")

	post := env.createPost(t, aliceToken, "discuss")
	commentsPath := fmt.Sprintf("/api/posts/%d/comments", post.ID)

	resp := env.do(t, http.MethodPost, commentsPath, map[string]any{"content": "nice"}, bobToken)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	comment := decode[models.Comment](t, resp)
	require.NotNil(t, comment.Author)
	assert.Equal(t, "bob", comment.Author.Username)

	resp = env.do(t, http.MethodPost, commentsPath, map[string]any{"content": ""}, bobToken)
	requireError(t, resp, fiber.StatusBadRequest, models.CodeValidation)

	resp = env.do(t, http.MethodPost, "/api/posts/999/comments", map[string]any{"content": "lost"}, bobToken)
	requireError(t, resp, fiber.StatusNotFound, models.CodePostNotExisted)

	commentPath := fmt.Sprintf("/api/comments/%d", comment.ID)

	resp = env.do(t, http.MethodPatch, commentPath, map[string]any{"content": "edited"}, aliceToken)
	requireError(t, resp, fiber.StatusForbidden, models.CodeNotOwnComment)

	resp = env.do(t, http.MethodPatch, commentPath, map[string]any{"content": "very nice"}, bobToken)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "very nice", decode[models.Comment](t, resp).Content)

	resp = env.do(t, http.MethodDelete, commentPath, nil, carolToken)
	requireError(t, resp, fiber.StatusForbidden, models.CodeNotOwnCommentOrPost)

	// The post owner may remove comments on their post.
	resp = env.do(t, http.MethodDelete, commentPath, nil, aliceToken)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = env.do(t, http.MethodDelete, commentPath, nil, aliceToken)
	requireError(t, resp, fiber.StatusNotFound, models.CodeCommentNotFound)

	resp = env.do(t, http.MethodGet, commentsPath, nil, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Empty(t, decode[[]models.Comment](t, resp))
}

func TestComments_AuthorAndPostOwnerPolicy(t *testing.T) {
	env := newTestEnv(t, func(c *config.Config) {
		c.CommentDeletePolicy = config.CommentDeleteAuthorAndPostOwner
	})
	env.register(t, "alice")
	env.register(t, "bob")
	aliceToken := env.login(t, "alice")
	bobToken := env.login(t, "bob")

	post := env.createPost(t, aliceToken, "strict")
	resp := env.do(t, http.MethodPost, fmt.Sprintf("/api/posts/%d/comments", post.ID),
		map[string]any{"content": "mine"}, bobToken)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	comment := decode[models.Comment](t, resp)

	for _, token := range []string{aliceToken, bobToken} {
		resp = env.do(t, http.MethodDelete, fmt.Sprintf("/api/comments/%d", comment.ID), nil, token)
		requireError(t, resp, fiber.StatusForbidden, models.CodeNotOwnCommentOrPost)
	}
}

func TestVotes(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice")
	env.register(t, "bob")
	aliceToken := env.login(t, "alice")
	bobToken := env.login(t, "bob")

	post := env.createPost(t, aliceToken, "vote me")
	upvote := fmt.Sprintf("/api/posts/%d/upvote", post.ID)
	downvote := fmt.Sprintf("/api/posts/%d/downvote", post.ID)

	resp := env.do(t, http.MethodDelete, upvote, nil, bobToken)
	requireError(t, resp, fiber.StatusBadRequest, models.CodeNotUpvoteYet)

	resp = env.do(t, http.MethodPost, upvote, nil, bobToken)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 1, decode[models.Post](t, resp).Upvote)

	var rows int64
	require.NoError(t, env.db.Model(&models.Upvote{}).Where("post_id = ?", post.ID).Count(&rows).Error)
	assert.EqualValues(t, 1, rows)

	resp = env.do(t, http.MethodPost, upvote, nil, bobToken)
	requireError(t, resp, fiber.StatusBadRequest, models.CodeAlreadyUpvoted)

	resp = env.do(t, http.MethodPost, downvote, nil, bobToken)
	requireError(t, resp, fiber.StatusBadRequest, models.CodeAlreadyUpvoted)

	resp = env.do(t, http.MethodGet, "/api/user/current/userUpvotes", nil, bobToken)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	voted := decode[[]models.Post](t, resp)
	require.Len(t, voted, 1)
	assert.Equal(t, post.ID, voted[0].ID)

	resp = env.do(t, http.MethodGet, "/api/notifications", nil, aliceToken)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	notes := decode[[]models.Notification](t, resp)
	require.Len(t, notes, 1)
	require.NotNil(t, notes[0].Interactor)
	assert.Equal(t, "bob", notes[0].Interactor.Username)
	assert.False(t, notes[0].Read)

	resp = env.do(t, http.MethodDelete, upvote, nil, bobToken)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 0, decode[models.Post](t, resp).Upvote)

	resp = env.do(t, http.MethodPost, downvote, nil, bobToken)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 1, decode[models.Post](t, resp).Downvote)

	resp = env.do(t, http.MethodPost, "/api/notifications/read", nil, aliceToken)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 2, decode[map[string]int64](t, resp)["updated"])

	resp = env.do(t, http.MethodPost, "/api/posts/999/upvote", nil, bobToken)
	requireError(t, resp, fiber.StatusNotFound, models.CodePostNotExisted)
}

func TestUsers(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register(t, "alice")
	env.register(t, "bob")
	aliceToken := env.login(t, "alice")

	resp := env.do(t, http.MethodGet, fmt.Sprintf("/api/user/%d", alice.ID), nil, aliceToken)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "mail")

	resp = env.do(t, http.MethodGet, "/api/user/999", nil, aliceToken)
	requireError(t, resp, fiber.StatusNotFound, models.CodeUserNotExisted)

	resp = env.do(t, http.MethodPatch, "/api/user/current/me", map[string]any{"mail": "bob@example.com"}, aliceToken)
	requireError(t, resp, fiber.StatusConflict, models.CodeUserMailExisted)

	resp = env.do(t, http.MethodPatch, "/api/user/current/me", map[string]any{
		"fullname":    "Alice L.",
		"dateOfBirth": "1991-05-02",
	}, aliceToken)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	me := decode[models.User](t, resp)
	assert.Equal(t, "Alice L.", me.Fullname)
	assert.Equal(t, 1991, me.DateOfBirth.Year())

	resp = env.do(t, http.MethodPatch, "/api/user/current/me", map[string]any{"password": "newpassword2"}, aliceToken)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	resp = env.do(t, http.MethodPost, "/api/auth/login", map[string]any{
		"username": "alice", "password": "newpassword2",
	}, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	env.createPost(t, aliceToken, "soon gone")
	resp = env.do(t, http.MethodDelete, "/api/user/current/me", nil, aliceToken)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var posts int64
	require.NoError(t, env.db.Model(&models.Post{}).Where("user_id = ?", alice.ID).Count(&posts).Error)
	assert.Zero(t, posts)

	resp = env.do(t, http.MethodGet, "/api/user/current/me", nil, aliceToken)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestUsers_ProfileChangeRefreshesCachedPost(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice")
	aliceToken := env.login(t, "alice")
	post := env.createPost(t, aliceToken, "cached")

	path := fmt.Sprintf("/api/posts/%d", post.ID)
	resp := env.do(t, http.MethodGet, path, nil, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	before := decode[models.Post](t, resp)
	require.NotNil(t, before.Author)
	require.True(t, env.mr.Exists(cache.PostKey(post.ID)))

	resp = env.do(t, http.MethodPatch, "/api/user/current/me", map[string]any{"fullname": "Alice Renamed"}, aliceToken)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = env.do(t, http.MethodGet, path, nil, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	after := decode[models.Post](t, resp)
	require.NotNil(t, after.Author)
	assert.Equal(t, "Alice Renamed", after.Author.Fullname)
}

func TestComments_DeletedUserCannotComment(t *testing.T) {
	db := setupSQLite(t)
	srv, err := NewServer(Deps{Config: testConfig(), DB: db, Logger: observability.Discard()})
	require.NoError(t, err)
	t.Cleanup(func() { srv.shutdownFn() })
	env := &testEnv{srv: srv, app: srv.App(), db: db}

	env.register(t, "alice")
	env.register(t, "bob")
	aliceToken := env.login(t, "alice")
	bobToken := env.login(t, "bob")
	post := env.createPost(t, aliceToken, "hello")

	// Without Redis the deleted user's token is not revoked.
	resp := env.do(t, http.MethodDelete, "/api/user/current/me", nil, bobToken)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = env.do(t, http.MethodPost, fmt.Sprintf("/api/posts/%d/comments", post.ID),
		map[string]any{"content": "from beyond"}, bobToken)
	requireError(t, resp, fiber.StatusNotFound, models.CodeUserNotExisted)

	var comments int64
	require.NoError(t, db.Model(&models.Comment{}).Count(&comments).Error)
	assert.Zero(t, comments)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/health/live", nil, "")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/health/ready", nil, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	body := decode[map[string]any](t, resp)
	assert.Equal(t, "healthy", body["status"])

	env.mr.Close()
	resp = env.do(t, http.MethodGet, "/health/ready", nil, "")
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodGet, "/health/live", nil, "")

	resp := env.do(t, http.MethodGet, "/metrics", nil, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "http_requests_total")
}

func TestSwaggerDoc_ListsLogoutRoutes(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/api/swagger/doc.json", nil, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	doc := decode[struct {
		Paths map[string]any `json:"paths"`
	}](t, resp)
	assert.Contains(t, doc.Paths, "/auth/logout")
	assert.Contains(t, doc.Paths, "/user/logout")
}

func TestUnknownRoute(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, http.MethodGet, "/api/nope", nil, "")
	requireError(t, resp, fiber.StatusNotFound, models.CodeNotFound)
}
