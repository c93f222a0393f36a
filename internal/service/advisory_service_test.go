package service_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/itqan-erp/procurement-api/internal/advisory"
	"github.com/itqan-erp/procurement-api/internal/config"
	"github.com/itqan-erp/procurement-api/internal/domain"
	"github.com/itqan-erp/procurement-api/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const fallbackText = "Advisory service is currently unavailable."

func advisoryClientFor(t *testing.T, serverURL string) *advisory.Client {
	t.Helper()
	client := advisory.NewClient(&config.AdvisoryConfig{
		Enabled: true,
		URL:     serverURL,
		APIKey:  "test-key",
		Model:   "gemini-pro",
	}, zap.NewNop())
	require.NotNil(t, client)
	return client
}

func TestAnalyze_DisabledClientFallsBack(t *testing.T) {
	svc := service.NewAdvisoryService(nil, fallbackText, zap.NewNop())

	resp := svc.Analyze(context.Background(), &domain.AdvisoryRequest{
		ContextData: map[string]any{"orders": 3},
		PromptType:  "summary",
	})
	assert.Equal(t, fallbackText, resp.Text)
}

func TestAnalyze_ReturnsGeneratedText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Contains(t, r.URL.Path, "gemini-pro")
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))

		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Contains(t, payload, "contents")

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"All orders within budget."}]}}]}`))
	}))
	defer server.Close()

	svc := service.NewAdvisoryService(advisoryClientFor(t, server.URL), fallbackText, zap.NewNop())

	resp := svc.Analyze(context.Background(), &domain.AdvisoryRequest{
		ContextData: map[string]any{"totalSpend": 125000.0},
		PromptType:  "budget",
	})
	assert.Equal(t, "All orders within budget.", resp.Text)
}

func TestAnalyze_UpstreamErrorFallsBack(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	svc := service.NewAdvisoryService(advisoryClientFor(t, server.URL), fallbackText, zap.NewNop())

	resp := svc.Analyze(context.Background(), &domain.AdvisoryRequest{
		ContextData: map[string]any{},
		PromptType:  "summary",
	})
	assert.Equal(t, fallbackText, resp.Text)
}

func TestAnalyze_EmptyCandidatesFallsBack(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	}))
	defer server.Close()

	svc := service.NewAdvisoryService(advisoryClientFor(t, server.URL), fallbackText, zap.NewNop())

	resp := svc.Analyze(context.Background(), &domain.AdvisoryRequest{
		ContextData: map[string]any{"rfqs": 2},
		PromptType:  "risk",
	})
	assert.Equal(t, fallbackText, resp.Text)
}

func TestNewAdvisoryClient_DisabledConfig(t *testing.T) {
	client := advisory.NewClient(&config.AdvisoryConfig{Enabled: false}, zap.NewNop())
	assert.Nil(t, client)
	assert.False(t, client.IsEnabled())
}
