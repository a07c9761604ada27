package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Skotchmaster/pethostel/internal/db"
	"github.com/Skotchmaster/pethostel/internal/db/dbtest"
	"github.com/Skotchmaster/pethostel/internal/domain"
	"github.com/Skotchmaster/pethostel/internal/identity"
	"github.com/Skotchmaster/pethostel/internal/middleware"
	"github.com/Skotchmaster/pethostel/internal/repo"
	"github.com/Skotchmaster/pethostel/internal/service"
	"github.com/Skotchmaster/pethostel/internal/tokens"
	"github.com/Skotchmaster/pethostel/internal/transport"
)

func newTestServer(t *testing.T) *echo.Echo {
	t.Helper()

	gdb := dbtest.New(t)
	codec, err := tokens.NewCodec(tokens.Options{
		Secret:   []byte("test-jwt-secret-0123456789abcdef"),
		Issuer:   "PetHostelApi",
		Audience: "PetHostelMobile",
	})
	require.NoError(t, err)

	svc := service.New(service.Deps{
		Users:      identity.NewGormStore(gdb, bcrypt.MinCost),
		Tokens:     repo.NewGormRepo(gdb),
		Codec:      codec,
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 7 * 24 * time.Hour,
	})

	e := echo.New()
	Register(e, &Deps{
		AuthHandler: &AuthHTTP{Svc: svc},
		Bearer:      middleware.NewBearerAuth(codec),
		Ready:       func(ctx context.Context) error { return db.Ping(ctx, gdb) },
	})
	return e
}

func do(t *testing.T, e *echo.Echo, method, path, body, bearer string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if bearer != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func register(t *testing.T, e *echo.Echo) transport.AuthResponse {
	t.Helper()
	rec := do(t, e, http.MethodPost, "/api/authentication/register",
		`{"email":"a@x.com","password":"Secret123!","firstName":"Ana","lastName":"Lee"}`, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decode[transport.AuthResponse](t, rec)
}

func TestHealth(t *testing.T) {
	t.Parallel()

	e := newTestServer(t)
	assert.Equal(t, http.StatusOK, do(t, e, http.MethodGet, "/health/live", "", "").Code)
	assert.Equal(t, http.StatusOK, do(t, e, http.MethodGet, "/health/ready", "", "").Code)
}

func TestHealthReady_Unavailable(t *testing.T) {
	t.Parallel()

	e := echo.New()
	Register(e, &Deps{
		AuthHandler: &AuthHTTP{},
		Bearer:      &middleware.BearerAuth{},
		Ready:       func(context.Context) error { return errors.New("db down") },
	})
	assert.Equal(t, http.StatusServiceUnavailable, do(t, e, http.MethodGet, "/health/ready", "", "").Code)
}

func TestRegisterLoginMe(t *testing.T) {
	t.Parallel()

	e := newTestServer(t)
	reg := register(t, e)
	assert.NotEmpty(t, reg.AccessToken)
	assert.NotEmpty(t, reg.RefreshToken)
	assert.Equal(t, "a@x.com", reg.User.Email)
	assert.False(t, reg.AccessTokenExpiration.IsZero())
	assert.True(t, reg.RefreshTokenExpiration.After(reg.AccessTokenExpiration))
	assert.NotContains(t, do(t, e, http.MethodPost, "/api/authentication/login",
		`{"email":"a@x.com","password":"Secret123!"}`, "").Body.String(), "passwordHash")

	rec := do(t, e, http.MethodPost, "/api/authentication/login", `{"email":"a@x.com","password":"Secret123!"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	login := decode[transport.AuthResponse](t, rec)

	rec = do(t, e, http.MethodGet, "/api/authentication/me", "", login.AccessToken)
	require.Equal(t, http.StatusOK, rec.Code)
	var me struct {
		Success bool               `json:"success"`
		Code    string             `json:"code"`
		Data    transport.UserInfo `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &me))
	assert.True(t, me.Success)
	assert.Equal(t, domain.CodeUserInfoRetrieved, me.Code)
	assert.Equal(t, reg.User, me.Data)
}

func TestErrorEnvelopes(t *testing.T) {
	t.Parallel()

	e := newTestServer(t)
	reg := register(t, e)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		bearer string
		status int
		code   string
	}{
		{name: "bad json", method: http.MethodPost, path: "/api/authentication/login", body: `{"email":`, status: 400, code: domain.CodeInvalidRequest},
		{name: "empty email", method: http.MethodPost, path: "/api/authentication/login", body: `{"password":"x"}`, status: 400, code: domain.CodeEmptyEmail},
		{name: "unknown user", method: http.MethodPost, path: "/api/authentication/login", body: `{"email":"b@x.com","password":"x"}`, status: 401, code: domain.CodeInvalidCredentials},
		{name: "wrong password", method: http.MethodPost, path: "/api/authentication/login", body: `{"email":"a@x.com","password":"x"}`, status: 401, code: domain.CodeInvalidCredentials},
		{name: "duplicate email", method: http.MethodPost, path: "/api/authentication/register", body: `{"email":"a@x.com","password":"p","firstName":"A","lastName":"L"}`, status: 400, code: domain.CodeEmailAlreadyExists},
		{name: "missing names", method: http.MethodPost, path: "/api/authentication/register", body: `{"email":"c@x.com","password":"p"}`, status: 400, code: domain.CodeValidationError},
		{name: "tokens required", method: http.MethodPost, path: "/api/authentication/refresh", body: `{}`, status: 400, code: domain.CodeTokensRequired},
		{name: "bad access token", method: http.MethodPost, path: "/api/authentication/refresh", body: `{"accessToken":"x","refreshToken":"y"}`, status: 400, code: domain.CodeInvalidToken},
		{name: "me without bearer", method: http.MethodGet, path: "/api/authentication/me", status: 401, code: domain.CodeUnauthorized},
		{name: "revoke without bearer", method: http.MethodPost, path: "/api/authentication/revoke", body: `{"refreshToken":"x"}`, status: 401, code: domain.CodeUnauthorized},
		{name: "revoke empty", method: http.MethodPost, path: "/api/authentication/revoke", body: `{}`, bearer: reg.AccessToken, status: 400, code: domain.CodeRefreshTokenMissing},
		{name: "revoke unknown", method: http.MethodPost, path: "/api/authentication/revoke", body: `{"refreshToken":"nope"}`, bearer: reg.AccessToken, status: 400, code: domain.CodeInvalidRefreshToken},
	}
	for _, tt := range tests {
		rec := do(t, e, tt.method, tt.path, tt.body, tt.bearer)
		require.Equal(t, tt.status, rec.Code, "%s: %s", tt.name, rec.Body.String())
		body := decode[transport.APIResponse](t, rec)
		assert.False(t, body.Success, tt.name)
		assert.Equal(t, tt.code, body.Code, tt.name)
	}
}

func TestRefreshRotationAndRevoke(t *testing.T) {
	t.Parallel()

	e := newTestServer(t)
	reg := register(t, e)

	body := `{"accessToken":"` + reg.AccessToken + `","refreshToken":"` + reg.RefreshToken + `"}`
	rec := do(t, e, http.MethodPost, "/api/authentication/refresh", body, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	next := decode[transport.AuthResponse](t, rec)
	assert.NotEqual(t, reg.RefreshToken, next.RefreshToken)

	rec = do(t, e, http.MethodPost, "/api/authentication/refresh", body, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, domain.CodeInvalidToken, decode[transport.APIResponse](t, rec).Code)

	rec = do(t, e, http.MethodPost, "/api/authentication/revoke", `{"refreshToken":"`+next.RefreshToken+`"}`, next.AccessToken)
	require.Equal(t, http.StatusOK, rec.Code)
	ok := decode[transport.APIResponse](t, rec)
	assert.True(t, ok.Success)
	assert.Equal(t, domain.CodeTokenRevoked, ok.Code)

	rec = do(t, e, http.MethodPost, "/api/authentication/revoke", `{"refreshToken":"`+next.RefreshToken+`"}`, next.AccessToken)
	require.Equal(t, http.StatusOK, rec.Code)

	body = `{"accessToken":"` + next.AccessToken + `","refreshToken":"` + next.RefreshToken + `"}`
	rec = do(t, e, http.MethodPost, "/api/authentication/refresh", body, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRevokeAll(t *testing.T) {
	t.Parallel()

	e := newTestServer(t)
	reg := register(t, e)
	rec := do(t, e, http.MethodPost, "/api/authentication/login", `{"email":"a@x.com","password":"Secret123!"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, e, http.MethodPost, "/api/authentication/revoke-all", "", reg.AccessToken)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode[transport.APIResponse](t, rec)
	assert.True(t, body.Success)
	assert.Equal(t, domain.CodeAllTokensRevoked, body.Code)
	assert.EqualValues(t, 2, body.Parameters["count"])

	rec = do(t, e, http.MethodPost, "/api/authentication/revoke-all", "", reg.AccessToken)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 0, decode[transport.APIResponse](t, rec).Parameters["count"])
}
