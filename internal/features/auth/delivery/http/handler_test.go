package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dmt-presale-backend/internal/features/auth/models"
	"dmt-presale-backend/internal/features/auth/service"
	sessionmodels "dmt-presale-backend/internal/features/session/models"
)

const frontendURL = "http://frontend.test"

type fakeAuthService struct {
	exchangeCalls int
	token         string
	err           error
}

func (f *fakeAuthService) LoginURL() (string, string, string) {
	return "http://idp.test/authorize?state=abc", "verifier-123", "abc"
}

func (f *fakeAuthService) ExchangeCode(ctx context.Context, code, state, verifier string) (string, error) {
	f.exchangeCalls++
	return f.token, f.err
}

type fakeSessionService struct{}

func (f *fakeSessionService) Create(ctx context.Context, token string) (*sessionmodels.Session, error) {
	return &sessionmodels.Session{ID: "s1", Token: token}, nil
}

func (f *fakeSessionService) Get(ctx context.Context, id string) (*sessionmodels.Session, error) {
	return nil, nil
}

func (f *fakeSessionService) Refresh(ctx context.Context, id string) (*sessionmodels.Session, error) {
	return nil, nil
}

func (f *fakeSessionService) Logout(ctx context.Context, id string) error {
	return nil
}

func newAuthRouter(svc service.AuthService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewAuthHandler(svc, &fakeSessionService{}, frontendURL, zerolog.Nop()).RegisterRoutes(router)
	return router
}

func doGet(t *testing.T, router *gin.Engine, target string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func redirectTarget(t *testing.T, w *httptest.ResponseRecorder) *url.URL {
	t.Helper()
	require.Equal(t, http.StatusFound, w.Code)
	loc, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	return loc
}

func TestCallbackMissingCodeRedirectsWithoutBackendCall(t *testing.T) {
	svc := &fakeAuthService{}
	router := newAuthRouter(svc)

	w := doGet(t, router, "/api/auth/callback")

	loc := redirectTarget(t, w)
	assert.Equal(t, "/auth/login", loc.Path)
	assert.Equal(t, models.ErrNoCode, loc.Query().Get("error"))
	assert.Zero(t, svc.exchangeCalls, "backend must not be contacted without a code")
}

func TestCallbackMissingVerifierCookieRedirectsWithoutBackendCall(t *testing.T) {
	svc := &fakeAuthService{}
	router := newAuthRouter(svc)

	w := doGet(t, router, "/api/auth/callback?code=abc&state=xyz")

	loc := redirectTarget(t, w)
	assert.Equal(t, "/auth/login", loc.Path)
	assert.Equal(t, models.ErrNoCodeVerifier, loc.Query().Get("error"))
	assert.Zero(t, svc.exchangeCalls)
}

func TestCallbackProviderErrorEchoedToLogin(t *testing.T) {
	svc := &fakeAuthService{}
	router := newAuthRouter(svc)

	w := doGet(t, router, "/api/auth/callback?error=access_denied&error_description=user+cancelled")

	loc := redirectTarget(t, w)
	assert.Equal(t, "access_denied", loc.Query().Get("error"))
	assert.Equal(t, "user cancelled", loc.Query().Get("error_description"))
	assert.Zero(t, svc.exchangeCalls)
}

func TestCallbackSuccessRedirectsWithTokenAndExpiresCookie(t *testing.T) {
	svc := &fakeAuthService{token: "jwt-token"}
	router := newAuthRouter(svc)

	w := doGet(t, router, "/api/auth/callback?code=abc&state=xyz",
		&http.Cookie{Name: models.PKCECookieName, Value: "verifier-123"})

	loc := redirectTarget(t, w)
	assert.Equal(t, "/auth/callback", loc.Path)
	assert.Equal(t, "jwt-token", loc.Query().Get("token"))
	assert.Equal(t, 1, svc.exchangeCalls)

	var expired bool
	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == models.PKCECookieName && cookie.MaxAge < 0 {
			expired = true
		}
	}
	assert.True(t, expired, "verifier cookie must be expired after use")
}

func TestCallbackExchangeErrorRedirectsWithCode(t *testing.T) {
	svc := &fakeAuthService{err: &service.ExchangeError{Code: models.ErrBackendError}}
	router := newAuthRouter(svc)

	w := doGet(t, router, "/api/auth/callback?code=abc",
		&http.Cookie{Name: models.PKCECookieName, Value: "verifier-123"})

	loc := redirectTarget(t, w)
	assert.Equal(t, models.ErrBackendError, loc.Query().Get("error"))
}

func TestLoginSetsVerifierCookieAndRedirects(t *testing.T) {
	router := newAuthRouter(&fakeAuthService{})

	w := doGet(t, router, "/auth/login")

	require.Equal(t, http.StatusFound, w.Code)
	assert.Contains(t, w.Header().Get("Location"), "http://idp.test/authorize")

	var found bool
	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == models.PKCECookieName && cookie.Value == "verifier-123" {
			found = true
			assert.True(t, cookie.HttpOnly)
		}
	}
	assert.True(t, found, "verifier cookie must be set")
}
