package middlewares

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(h gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), Errors())
	r.GET("/", h)
	return r
}

func TestErrors(t *testing.T) {
	cases := []struct {
		name     string
		handler  gin.HandlerFunc
		accept   string
		wantCode int
		wantBody string
	}{
		{
			name: "public error as json",
			handler: func(c *gin.Context) {
				_ = c.Error(errors.New("Target user id not found.")).SetType(gin.ErrorTypePublic)
				c.Status(http.StatusNotFound)
				c.Abort()
			},
			wantCode: http.StatusNotFound,
			wantBody: `{"error":"Target user id not found."}`,
		},
		{
			name: "private error hidden",
			handler: func(c *gin.Context) {
				_ = c.Error(errors.New("db is down")).SetType(gin.ErrorTypePrivate)
				c.Status(http.StatusInternalServerError)
				c.Abort()
			},
			wantCode: http.StatusInternalServerError,
			wantBody: `{"error":"internal server error"}`,
		},
		{
			name: "plain text",
			handler: func(c *gin.Context) {
				_ = c.Error(errors.New("conflict here")).SetType(gin.ErrorTypePrivate)
				c.Status(http.StatusConflict)
				c.Abort()
			},
			accept:   "text/plain",
			wantCode: http.StatusConflict,
			wantBody: "conflict",
		},
		{
			name: "already written",
			handler: func(c *gin.Context) {
				_ = c.Error(errors.New("late")).SetType(gin.ErrorTypePublic)
				c.String(http.StatusOK, "done")
			},
			wantCode: http.StatusOK,
			wantBody: "done",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newTestRouter(tc.handler)
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.accept != "" {
				req.Header.Set("Accept", tc.accept)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			assert.Equal(t, tc.wantCode, rec.Code)
			if tc.accept == "" && tc.wantCode != http.StatusOK {
				assert.JSONEq(t, tc.wantBody, rec.Body.String())
			} else {
				assert.Equal(t, tc.wantBody, rec.Body.String())
			}
		})
	}
}

func TestRequestID(t *testing.T) {
	r := newTestRouter(func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(RequestIDKey))
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	generated := rec.Header().Get(RequestIDHeader)
	_, err := uuid.Parse(generated)
	require.NoError(t, err)
	assert.Equal(t, generated, rec.Body.String())

	existing := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, existing)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, existing, rec.Header().Get(RequestIDHeader))
}
