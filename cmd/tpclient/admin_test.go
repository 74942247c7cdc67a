package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danmuck/tpkit/client"
	"github.com/danmuck/tpkit/internal/config"
	"github.com/danmuck/tpkit/internal/testutil/testlog"
)

func serve(t *testing.T, cfg config.AdminConfig, holder *currentClient, method, path string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	r := newAdminRouter(cfg, holder)
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestAdminHealthWithoutClient(t *testing.T) {
	testlog.Start(t)
	rec := serve(t, config.AdminConfig{}, &currentClient{}, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "idle", body["state"])
	assert.Equal(t, "tpclient", body["service"])
}

func TestAdminStatesEmpty(t *testing.T) {
	testlog.Start(t)
	holder := &currentClient{}
	holder.Store(client.New(client.WithPluginID("p1")))
	rec := serve(t, config.AdminConfig{}, holder, http.MethodGet, "/states", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"count":0,"states":[]}`, rec.Body.String())
}

func TestAdminMetricsAndCors(t *testing.T) {
	testlog.Start(t)
	cfg := config.AdminConfig{CorsOrigins: []string{"http://localhost:3000"}}
	rec := serve(t, cfg, &currentClient{}, http.MethodGet, "/metrics", map[string]string{"Origin": "http://localhost:3000"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.True(t, strings.Contains(rec.Body.String(), "go_goroutines"))
}

func TestAdminTokenGuardsStatesAndMetrics(t *testing.T) {
	testlog.Start(t)
	cfg := config.AdminConfig{Token: "s3cret"}
	holder := &currentClient{}

	rec := serve(t, cfg, holder, http.MethodGet, "/states", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = serve(t, cfg, holder, http.MethodGet, "/metrics", map[string]string{"Authorization": "Bearer nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = serve(t, cfg, holder, http.MethodGet, "/states", map[string]string{"Authorization": "Bearer s3cret"})
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = serve(t, cfg, holder, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
