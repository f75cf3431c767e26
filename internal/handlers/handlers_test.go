package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"postboard/internal/db"
	"postboard/internal/events"
	"postboard/internal/handlers"
	"postboard/internal/hash"
	"postboard/internal/httperr"
	mwauth "postboard/internal/middleware/auth"
	"postboard/internal/models"
	"postboard/internal/repo"
	"postboard/internal/session"
	httpserver "postboard/internal/transport/http"
)

var (
	testAccessSecret  = []byte("test-access-secret")
	testRefreshSecret = []byte("test-refresh-secret")
)

type testEnv struct {
	T  *testing.T
	E  *echo.Echo
	DB *gorm.DB
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))

	userRepo := &repo.UserRepo{DB: gdb}
	tokenRepo := &repo.TokenRepo{DB: gdb}
	postRepo := &repo.PostRepo{DB: gdb}

	sessions := &session.Manager{
		Users:         userRepo,
		Tokens:        tokenRepo,
		AccessSecret:  testAccessSecret,
		RefreshSecret: testRefreshSecret,
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    time.Hour,
	}

	producer := events.NewProducer(nil)

	e := echo.New()
	e.HTTPErrorHandler = httperr.EchoHandler
	httpserver.Register(e, &httpserver.Deps{
		Guard:       &mwauth.Guard{AccessSecret: testAccessSecret, RefreshSecret: testRefreshSecret},
		AuthHandler: &handlers.AuthHandler{Users: userRepo, Sessions: sessions, Producer: producer},
		UserHandler: &handlers.UserHandler{Users: userRepo},
		PostHandler: &handlers.PostHandler{Posts: postRepo, Users: userRepo, Producer: producer},
	})

	return &testEnv{T: t, E: e, DB: gdb}
}

func (env *testEnv) do(method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	env.T.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(env.T, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	env.E.ServeHTTP(rec, req)
	return rec
}

func (env *testEnv) seedUser(email, role string) *models.User {
	env.T.Helper()

	pwHash, err := hash.HashPassword("password")
	require.NoError(env.T, err)
	user := models.User{
		Firstname:    "Test",
		Lastname:     "User",
		Email:        email,
		PasswordHash: pwHash,
		Role:         role,
	}
	require.NoError(env.T, env.DB.Create(&user).Error)
	return &user
}

// login returns the token pair for a seeded user.
func (env *testEnv) login(email string) map[string]string {
	env.T.Helper()

	rec := env.do(http.MethodPost, "/auth/login", map[string]string{
		"email":    email,
		"password": "password",
	}, nil)
	require.Equal(env.T, http.StatusOK, rec.Code)

	var pair map[string]string
	require.NoError(env.T, json.Unmarshal(rec.Body.Bytes(), &pair))
	require.NotEmpty(env.T, pair["access_token"])
	require.NotEmpty(env.T, pair["refresh_token"])
	return pair
}

func bearer(pair map[string]string) map[string]string {
	return map[string]string{echo.HeaderAuthorization: "Bearer " + pair["access_token"]}
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) (message, code string) {
	t.Helper()

	var body struct {
		Message   string `json:"message"`
		Code      string `json:"code"`
		Timestamp string `json:"timestamp"`
		Path      string `json:"path"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotEmpty(t, body.Timestamp)
	require.NotEmpty(t, body.Path)
	return body.Message, body.Code
}
