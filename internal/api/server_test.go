package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lmshao/remote-desk/pkg/media"
	"github.com/lmshao/remote-desk/pkg/service"
)

type fakeService struct{}

func (fakeService) Start() error { return nil }
func (fakeService) Stop()        {}

func newTestServer(t *testing.T) *Server {
	mgr := service.New(zap.NewNop())
	require.NoError(t, mgr.Register("demo", fakeService{}))
	return NewServer(0, mgr, media.NewPipeline(), zap.NewNop())
}

func TestServicesHandlerReportsAllAndCount(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/services", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"demo"`)
	assert.Contains(t, rec.Body.String(), `"count":1`)
}

func TestServiceStatusHandlerUnknownServiceReturnsNotFound(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/services/missing", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetricsEndpointServesPrometheusFormat(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
