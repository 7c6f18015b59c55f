package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dmt-presale-backend/internal/common/errors"
)

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestID())
	return router
}

func TestHandleErrorWrapperRendersAppError(t *testing.T) {
	router := newTestRouter()
	wrap := HandleErrorWrapper(zerolog.Nop())
	router.GET("/boom", wrap(func(c *gin.Context) {
		c.Error(errors.NewSessionNotFoundError("sess-1"))
	}))

	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusNotFound, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, errors.ErrCodeSessionNotFound, resp.Error.Code)
	assert.NotEmpty(t, resp.RequestID)
}

func TestHandleErrorWrapperWrapsPlainErrors(t *testing.T) {
	router := newTestRouter()
	wrap := HandleErrorWrapper(zerolog.Nop())
	router.GET("/boom", wrap(func(c *gin.Context) {
		c.Error(assert.AnError)
	}))

	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusInternalServerError, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, errors.ErrCodeInternal, resp.Error.Code)
}

func TestErrorHandlerRecoversPanics(t *testing.T) {
	router := newTestRouter()
	router.Use(ErrorHandler(zerolog.Nop()))
	router.GET("/panic", func(c *gin.Context) {
		panic("boom")
	})

	req := httptest.NewRequest(http.MethodGet, "/panic", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusInternalServerError, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, errors.ErrCodeInternal, resp.Error.Code)
}

func TestRequestIDReusesCallerHeader(t *testing.T) {
	router := newTestRouter()
	router.GET("/ping", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Request-ID", "req-123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "req-123", w.Header().Get("X-Request-ID"))
}

func TestGetHTTPStatusCodeMapping(t *testing.T) {
	tests := []struct {
		code errors.ErrorCode
		want int
	}{
		{errors.ErrCodeValidation, http.StatusBadRequest},
		{errors.ErrCodePresaleNotFound, http.StatusNotFound},
		{errors.ErrCodeSessionExpired, http.StatusUnauthorized},
		{errors.ErrCodeSimulationRevert, http.StatusUnprocessableEntity},
		{errors.ErrCodeUpstreamAPI, http.StatusBadGateway},
		{errors.ErrCodeChainRPC, http.StatusBadGateway},
		{errors.ErrCodeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, getHTTPStatusCode(errors.New(tt.code, "x")))
		})
	}
}
