package app

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weekstatus/weekstatus/internal/config"
	"github.com/weekstatus/weekstatus/internal/metrics"
	"github.com/weekstatus/weekstatus/pkg/bot"
	"github.com/weekstatus/weekstatus/pkg/week_parity"
)

func TestLoadReference(t *testing.T) {
	t.Run("should convert the configured persian date", func(t *testing.T) {
		ref, err := loadReference(config.Week{ReferenceDate: "1403/11/20", ReferenceParity: "odd"})

		require.NoError(t, err)
		assert.Equal(t, week_parity.Odd, ref.Parity)
		assert.Equal(t, time.Date(2025, time.February, 8, 0, 0, 0, 0, time.UTC), ref.Date)
	})

	t.Run("should reject a malformed date", func(t *testing.T) {
		_, err := loadReference(config.Week{ReferenceDate: "not a date", ReferenceParity: "odd"})

		assert.Error(t, err)
	})

	t.Run("should reject an unknown parity", func(t *testing.T) {
		_, err := loadReference(config.Week{ReferenceDate: "1403/11/20", ReferenceParity: "third"})

		assert.ErrorIs(t, err, week_parity.ErrInvalidParity)
	})
}

func TestRoutes(t *testing.T) {
	deps := &Dependencies{
		Metrics:        metrics.New(),
		WebhookHandler: bot.NewWebhookHandler(nil, "", nil),
	}
	r := mux.NewRouter()
	SetupMiddleware(r, deps)
	RegisterRoutes(r, deps)

	t.Run("health", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	})

	t.Run("metrics exposes request counters", func(t *testing.T) {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `route="/health"`)
	})

	t.Run("webhook only accepts POST", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/webhook", nil))

		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}
