package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())

	var seen string
	r.GET("/ping", func(c *gin.Context) {
		seen = RequestIDOf(c)
		c.Status(http.StatusOK)
	})

	known := uuid.New()
	tests := []struct {
		name   string
		header string
		keep   bool
	}{
		{"uuid is kept", known.String(), true},
		{"braced uuid is canonicalized", "{" + known.String() + "}", true},
		{"missing header", "", false},
		{"free text is replaced", "abc\nforged=1", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/ping", nil)
			if tt.header != "" {
				req.Header.Set(HeaderXRequestID, tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			got := w.Header().Get(HeaderXRequestID)
			assert.Equal(t, seen, got)
			_, err := uuid.Parse(got)
			require.NoError(t, err)
			if tt.keep {
				assert.Equal(t, known.String(), got)
			} else {
				assert.NotEqual(t, known.String(), got)
			}
		})
	}
}
