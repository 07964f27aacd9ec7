package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jwttoken "idvmgt/internal/jwt_token"
	"idvmgt/internal/platform/config"
	"idvmgt/pkg/testutil"
)

const givenName = "http://wso2.org/claims/givenname"

// The app registers prometheus collectors on the default registry, so it is
// built once per test binary.
func TestInMemoryAppServesTheAPI(t *testing.T) {
	ctx := context.Background()
	cfg := config.Default()
	a, err := newApp(ctx, cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { a.close(ctx) })

	router := a.router()
	token, err := jwttoken.NewJWTService(cfg.Server.JWTSigningKey, cfg.Server.JWTIssuer, cfg.Server.JWTAudience).
		IssueToken("admin", 4, time.Minute)
	require.NoError(t, err)
	call := func(method, path string, body any) *httptest.ResponseRecorder {
		req := testutil.NewJSONRequest(t, method, path, body)
		req.Header.Set("Authorization", "Bearer "+token)
		return testutil.DoRequest(router, req)
	}

	t.Run("health and metrics are public", func(t *testing.T) {
		testutil.AssertStatus(t, testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodGet, "/health", nil)), http.StatusOK)
		testutil.AssertStatus(t, testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodGet, "/metrics", nil)), http.StatusOK)
	})

	t.Run("api requires a token", func(t *testing.T) {
		rec := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodGet, "/api/idv/v1/providers", nil))
		testutil.AssertStatus(t, rec, http.StatusUnauthorized)
	})

	t.Run("verification flow", func(t *testing.T) {
		rec := call(http.MethodPost, "/api/idv/v1/providers", map[string]any{
			"name": "Echo",
			"type": "ECHO",
			"claims": []map[string]string{
				{"localClaim": givenName, "idvpClaim": "first_name"},
			},
			"configProperties": []map[string]any{
				{"key": "token", "value": "tok", "isSecret": true},
			},
		})
		testutil.AssertStatus(t, rec, http.StatusCreated)
		provider := testutil.UnmarshalResponse[struct {
			ID string `json:"id"`
		}](t, rec)
		require.NotEmpty(t, provider.ID)

		require.NoError(t, a.users.Upsert(ctx, 4, "u-1", map[string]string{givenName: "Ada"}))

		rec = call(http.MethodPost, "/api/idv/v1/users/u-1/verify", map[string]any{
			"identityVerificationProvider": provider.ID,
		})
		testutil.AssertStatus(t, rec, http.StatusOK)

		rec = call(http.MethodGet, "/api/idv/v1/users/u-1/claims?idvpId="+provider.ID, nil)
		testutil.AssertStatus(t, rec, http.StatusOK)
		claims := *testutil.UnmarshalResponse[[]struct {
			URI        string `json:"uri"`
			IsVerified bool   `json:"isVerified"`
		}](t, rec)
		require.Len(t, claims, 1)
		assert.Equal(t, givenName, claims[0].URI)
		assert.True(t, claims[0].IsVerified)
	})

	t.Run("no consumer without brokers", func(t *testing.T) {
		c, err := a.userEventConsumer()
		require.NoError(t, err)
		assert.Nil(t, c)
	})
}
