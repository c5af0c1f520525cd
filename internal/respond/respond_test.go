package respond

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestReadOnly(t *testing.T) {
	router := gin.New()
	router.NoRoute(ReadOnly(), func(c *gin.Context) {
		Text(c, http.StatusOK, "fine")
	})

	tests := []struct {
		method string
		want   int
		body   string
	}{
		{http.MethodGet, http.StatusOK, "fine"},
		{http.MethodHead, http.StatusOK, "fine"},
		{http.MethodPost, http.StatusNotImplemented, UnsupportedMethodBody},
		{http.MethodDelete, http.StatusNotImplemented, UnsupportedMethodBody},
	}
	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(tt.method, "/anything", nil))

			assert.Equal(t, tt.want, w.Code)
			assert.Equal(t, tt.body, w.Body.String())
			if tt.want == http.StatusNotImplemented {
				assert.Equal(t, "GET, HEAD", w.Header().Get("Allow"))
			}
		})
	}
}
