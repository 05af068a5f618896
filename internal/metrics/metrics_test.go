package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestMiddleware_CountsByRoute(t *testing.T) {
	r := gin.New()
	r.Use(Middleware())
	r.GET("/api/projects/:slug", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	before := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/api/projects/:slug", "404"))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/projects/logo", nil)
	r.ServeHTTP(w, req)

	after := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/api/projects/:slug", "404"))
	if after-before != 1 {
		t.Errorf("expected counter to grow by 1, grew by %v", after-before)
	}
}

func TestDomainCounters(t *testing.T) {
	liked := testutil.ToFloat64(likeToggles.WithLabelValues("liked"))
	LikeToggled(true)
	if got := testutil.ToFloat64(likeToggles.WithLabelValues("liked")); got != liked+1 {
		t.Errorf("liked counter = %v, expected %v", got, liked+1)
	}

	uploads := testutil.ToFloat64(mediaUploads.WithLabelValues("image"))
	MediaUploaded("image")
	if got := testutil.ToFloat64(mediaUploads.WithLabelValues("image")); got != uploads+1 {
		t.Errorf("upload counter = %v, expected %v", got, uploads+1)
	}
}

func TestHandler_ExposesRegistry(t *testing.T) {
	RegisterGauge("test_gauge", "Gauge used by tests.", func() float64 { return 42 })
	ProjectViewed()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/metrics", nil)
	Handler().ServeHTTP(w, req)

	body := w.Body.String()
	for _, want := range []string{"mediafolio_test_gauge 42", "mediafolio_project_views_total", "go_goroutines"} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}
