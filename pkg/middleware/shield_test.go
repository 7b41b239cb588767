package middleware

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/profilehub/profilehub/internal/httperr"
	"github.com/profilehub/profilehub/pkg/respond"
)

func shieldedRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	f, exec := testFactory()
	r := gin.New()
	r.Use(Shield(f, exec))
	r.GET("/t", handlers...)
	r.POST("/t", handlers...)
	return r
}

func TestShieldGenericErrorHidesDetail(t *testing.T) {
	r := shieldedRouter(func(c *gin.Context) {
		_ = c.Error(errors.New("secret database password leaked"))
		c.Abort()
	})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/t", nil))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.JSONEq(t, `{"message":"an internal error has occurred"}`, w.Body.String())
	require.NotContains(t, w.Body.String(), "secret")
}

func TestShieldRecoversPanic(t *testing.T) {
	r := shieldedRouter(func(c *gin.Context) {
		panic("kaboom with internal detail")
	})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/t", nil))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.JSONEq(t, `{"message":"an internal error has occurred"}`, w.Body.String())
	require.NotContains(t, w.Body.String(), "kaboom")
}

func TestShieldNotFoundPassesMessageThrough(t *testing.T) {
	r := shieldedRouter(func(c *gin.Context) {
		_ = c.Error(httperr.NotFound("profile abc does not exist"))
		c.Abort()
	})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/t", nil))

	require.Equal(t, http.StatusNotFound, w.Code)
	require.JSONEq(t, `{"message":"profile abc does not exist"}`, w.Body.String())
}

func TestShieldPayloadTooLargeTag(t *testing.T) {
	r := shieldedRouter(func(c *gin.Context) {
		_ = c.Error(&httperr.PayloadTooLarge{MaxBytes: 1048576})
		c.Abort()
	})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/t", nil))

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.JSONEq(t, `{"message":"payload too large, max 1024 kilobytes"}`, w.Body.String())
}

func TestShieldOversizeBodyEndToEnd(t *testing.T) {
	gin.SetMode(gin.TestMode)
	f, exec := testFactory()
	r := gin.New()
	r.Use(Shield(f, exec), BodyLimit(1048576))
	r.POST("/upload", func(c *gin.Context) {
		if _, err := io.ReadAll(c.Request.Body); err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}
		c.Status(http.StatusNoContent)
	})

	body := bytes.Repeat([]byte("x"), 1048577)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("POST", "/upload", bytes.NewReader(body)))

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "1024")
	require.JSONEq(t, `{"message":"payload too large, max 1024 kilobytes"}`, w.Body.String())
}

func TestShieldBodyUnderLimitPasses(t *testing.T) {
	gin.SetMode(gin.TestMode)
	f, exec := testFactory()
	r := gin.New()
	r.Use(Shield(f, exec), BodyLimit(64))
	r.POST("/upload", func(c *gin.Context) {
		b, err := io.ReadAll(c.Request.Body)
		require.NoError(t, err)
		c.JSON(http.StatusOK, gin.H{"size": len(b)})
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("POST", "/upload", bytes.NewReader([]byte("small"))))
	require.Equal(t, http.StatusOK, w.Code)
}

func TestShieldSwallowsFailureAfterResponseStarted(t *testing.T) {
	r := shieldedRouter(func(c *gin.Context) {
		c.String(http.StatusOK, "partial body")
		c.Writer.Flush()
		_ = c.Error(errors.New("late failure"))
		c.Abort()
	})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/t", nil))

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "partial body", w.Body.String())
}

func TestShieldErrorVariantField(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Shield(respond.NewFactory("error"), respond.Executor{}))
	r.GET("/t", func(c *gin.Context) {
		_ = c.Error(errors.New("boom"))
		c.Abort()
	})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/t", nil))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.JSONEq(t, `{"error":"an internal error has occurred"}`, w.Body.String())
}
