package wire

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"talent-escrow/internal/data/repository"
	"talent-escrow/pkg/auth"
	"talent-escrow/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestWiringFromLoadedConfig(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("LOG_PATH", t.TempDir())

	config, err := utils.LoadConfig()
	require.NoError(t, err)

	logger, err := utils.InitLogger(config.App)
	require.NoError(t, err)
	t.Cleanup(func() { _ = logger.Sync() })

	app := Wiring(repository.NewRepository(nil, zap.NewNop()), config, nil, nil, logger)
	require.NotNil(t, app.Router)
	require.NotNil(t, app.Service)
	require.NotNil(t, app.Sweeper)

	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	token, err := auth.CreateAccessToken(testSecret, "actor-client", utils.RoleClient, time.Minute)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/fees/preview", strings.NewReader(`{"amount":"300.00"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
