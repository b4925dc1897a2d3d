package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/angelmondragon/packfinderz-storefront/internal/credentials"
	"github.com/angelmondragon/packfinderz-storefront/pkg/config"
	pkgerrors "github.com/angelmondragon/packfinderz-storefront/pkg/errors"
	"github.com/angelmondragon/packfinderz-storefront/pkg/kv"
	"github.com/angelmondragon/packfinderz-storefront/pkg/metrics"
	"github.com/angelmondragon/packfinderz-storefront/pkg/types"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}
}

func testConfig(baseURL string) config.APIConfig {
	return config.APIConfig{
		BaseURL:        baseURL,
		Timeout:        time.Second,
		ConsumerKey:    "ck_test",
		ConsumerSecret: "cs_test",
	}
}

func newTestClient(t *testing.T, doer Doer, opts ...Option) (*Client, *credentials.Vault, *kv.Memory) {
	t.Helper()
	store := kv.NewMemory()
	vault := credentials.NewVault(store)
	opts = append([]Option{WithHTTPClient(doer)}, opts...)
	client, err := NewClient(testConfig("http://shop.test/wp-json/wc/v3"), vault, opts...)
	require.NoError(t, err)
	return client, vault, store
}

// fakeAPI is a commerce API that accepts one current access token.
type fakeAPI struct {
	mu            sync.Mutex
	rejectAll     bool
	validToken    string
	nextToken     string
	refreshStatus int
	refreshHook   func()

	refreshCalls      atomic.Int32
	productCalls      atomic.Int32
	unauthorizedCalls atomic.Int32
}

func newFakeAPI(t *testing.T) (*fakeAPI, *httptest.Server) {
	api := &fakeAPI{validToken: "access-1", nextToken: "access-2", refreshStatus: http.StatusOK}

	r := chi.NewRouter()
	r.Get("/products/{id}", func(w http.ResponseWriter, req *http.Request) {
		api.productCalls.Add(1)
		if !api.authorized(req) {
			api.unauthorizedCalls.Add(1)
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"code":"jwt_auth_invalid_token","message":"Expired token"}`))
			return
		}
		_, _ = w.Write([]byte(`{"id":` + chi.URLParam(req, "id") + `,"name":"Trail Shoe","price":"59.90"}`))
	})
	r.Post(refreshPath, func(w http.ResponseWriter, req *http.Request) {
		api.refreshCalls.Add(1)
		var body types.RefreshInput
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil || body.RefreshToken == "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if api.refreshHook != nil {
			api.refreshHook()
		}
		api.mu.Lock()
		status, next := api.refreshStatus, api.nextToken
		if status == http.StatusOK {
			api.validToken = next
		}
		api.mu.Unlock()
		if status != http.StatusOK {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"message":"refresh token revoked"}`))
			return
		}
		_, _ = w.Write([]byte(`{"access_token":"` + next + `"}`))
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return api, srv
}

func (f *fakeAPI) authorized(req *http.Request) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.rejectAll {
		return false
	}
	return req.Header.Get("Authorization") == "Bearer "+f.validToken
}

func newServerClient(t *testing.T, srv *httptest.Server, opts ...Option) (*Client, *credentials.Vault, *kv.Memory) {
	t.Helper()
	store := kv.NewMemory()
	vault := credentials.NewVault(store)
	opts = append([]Option{WithHTTPClient(srv.Client())}, opts...)
	client, err := NewClient(testConfig(srv.URL), vault, opts...)
	require.NoError(t, err)
	return client, vault, store
}

func TestNewClientRequiresVaultAndBaseURL(t *testing.T) {
	_, err := NewClient(testConfig("http://shop.test"), nil)
	require.Error(t, err)

	_, err = NewClient(config.APIConfig{}, credentials.NewVault(kv.NewMemory()))
	require.Error(t, err)
}

func TestClientAttachesCredentials(t *testing.T) {
	ctx := context.Background()
	var captured http.Header
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		captured = req.Header.Clone()
		return jsonResponse(http.StatusOK, `[]`), nil
	})
	client, vault, _ := newTestClient(t, &http.Client{Transport: rt})

	_, err := client.Do(ctx, Request{Path: "/products"})
	require.NoError(t, err)
	user, pass, ok := (&http.Request{Header: captured}).BasicAuth()
	require.True(t, ok, "expected basic auth without a stored token")
	assert.Equal(t, "ck_test", user)
	assert.Equal(t, "cs_test", pass)
	assert.Equal(t, "application/json", captured.Get("Accept"))

	require.NoError(t, vault.Save(ctx, types.AuthToken{AccessToken: "access-1"}))
	_, err = client.Do(ctx, Request{Path: "/products"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer access-1", captured.Get("Authorization"))
}

func TestClientSendsNoAuthWithoutKeysOrToken(t *testing.T) {
	var captured http.Header
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		captured = req.Header.Clone()
		return jsonResponse(http.StatusOK, `{}`), nil
	})
	vault := credentials.NewVault(kv.NewMemory())
	client, err := NewClient(config.APIConfig{BaseURL: "http://shop.test"}, vault, WithHTTPClient(&http.Client{Transport: rt}))
	require.NoError(t, err)

	_, err = client.Do(context.Background(), Request{Path: "/products"})
	require.NoError(t, err)
	assert.Empty(t, captured.Get("Authorization"))
}

func TestClientRefreshesOnceAndRetries(t *testing.T) {
	ctx := context.Background()
	api, srv := newFakeAPI(t)
	api.validToken = "access-2"
	reg := prometheus.NewRegistry()
	m := metrics.NewAPIClientMetrics(reg)
	client, vault, store := newServerClient(t, srv, WithMetrics(m))
	require.NoError(t, vault.Save(ctx, types.AuthToken{AccessToken: "access-1", RefreshToken: "refresh-1"}))

	product, err := client.GetProduct(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, 42, product.ID)

	assert.EqualValues(t, 1, api.refreshCalls.Load())
	assert.EqualValues(t, 2, api.productCalls.Load())
	stored, _, err := kv.GetOptional(ctx, store, kv.KeyAuthToken)
	require.NoError(t, err)
	assert.Equal(t, "access-2", stored)
	refresh, _, err := kv.GetOptional(ctx, store, kv.KeyRefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "refresh-1", refresh)
	assert.Equal(t, 1.0, counterValue(t, reg, "storefront_api_token_refresh_total", "outcome", metrics.RefreshSuccess))
}

func TestClientDoesNotRefreshTwiceForOneRequest(t *testing.T) {
	ctx := context.Background()
	api, srv := newFakeAPI(t)
	// The refreshed token is never accepted, so the retry also gets a 401.
	api.rejectAll = true
	client, vault, _ := newServerClient(t, srv)
	require.NoError(t, vault.Save(ctx, types.AuthToken{AccessToken: "access-1", RefreshToken: "refresh-1"}))

	_, err := client.GetProduct(ctx, 1)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeUnauthorized, pkgerrors.As(err).Code())
	assert.EqualValues(t, 1, api.refreshCalls.Load())
	assert.EqualValues(t, 2, api.productCalls.Load())
}

func TestClientReturnsOriginal401WithoutRefreshToken(t *testing.T) {
	ctx := context.Background()
	api, srv := newFakeAPI(t)
	reg := prometheus.NewRegistry()
	m := metrics.NewAPIClientMetrics(reg)
	client, vault, _ := newServerClient(t, srv, WithMetrics(m))
	require.NoError(t, vault.Save(ctx, types.AuthToken{AccessToken: "stale"}))

	_, err := client.GetProduct(ctx, 1)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeUnauthorized, typed.Code())
	assert.Equal(t, "Expired token", typed.Message())
	assert.EqualValues(t, 0, api.refreshCalls.Load())
	assert.EqualValues(t, 1, api.productCalls.Load())
	assert.Equal(t, 1.0, counterValue(t, reg, "storefront_api_token_refresh_total", "outcome", metrics.RefreshSkipped))
}

func TestClientClearsCredentialsWhenRefreshFails(t *testing.T) {
	ctx := context.Background()
	api, srv := newFakeAPI(t)
	api.refreshStatus = http.StatusUnauthorized

	var expired atomic.Int32
	client, vault, store := newServerClient(t, srv, WithSessionExpired(func(context.Context) {
		expired.Add(1)
	}))
	require.NoError(t, vault.Save(ctx, types.AuthToken{AccessToken: "stale", RefreshToken: "revoked"}))
	require.NoError(t, store.Set(ctx, kv.KeyCart, `{"items":[]}`))

	_, err := client.GetProduct(ctx, 1)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeUnauthorized, pkgerrors.As(err).Code())
	assert.EqualValues(t, 1, expired.Load())
	assert.EqualValues(t, 1, api.productCalls.Load(), "original request must not be retried")

	_, ok, err := vault.AccessToken(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	_, ok, err = vault.RefreshToken(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	_, ok, err = kv.GetOptional(ctx, store, kv.KeyCart)
	require.NoError(t, err)
	assert.True(t, ok, "refresh failure only clears credentials")
}

func TestClientCoalescesConcurrentRefreshes(t *testing.T) {
	ctx := context.Background()
	const callers = 5
	api, srv := newFakeAPI(t)
	api.refreshHook = func() {
		deadline := time.Now().Add(2 * time.Second)
		for api.unauthorizedCalls.Load() < callers && time.Now().Before(deadline) {
			time.Sleep(5 * time.Millisecond)
		}
		time.Sleep(50 * time.Millisecond)
	}
	client, vault, _ := newServerClient(t, srv)
	require.NoError(t, vault.Save(ctx, types.AuthToken{AccessToken: "stale", RefreshToken: "refresh-1"}))

	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := client.GetProduct(ctx, 3)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}
	assert.EqualValues(t, 1, api.refreshCalls.Load())
}

func TestClientCallerCancelDuringRefreshKeepsSession(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	api, srv := newFakeAPI(t)

	var expired atomic.Int32
	client, vault, _ := newServerClient(t, srv, WithSessionExpired(func(context.Context) {
		expired.Add(1)
	}))
	require.NoError(t, vault.Save(context.Background(), types.AuthToken{AccessToken: "stale", RefreshToken: "refresh-1"}))
	api.refreshHook = cancel

	_, err := client.GetProduct(ctx, 1)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsNetwork(err))

	require.Eventually(t, func() bool {
		token, _, err := vault.AccessToken(context.Background())
		return err == nil && token == "access-2"
	}, 2*time.Second, 10*time.Millisecond, "the shared refresh must finish and store the new token")
	refresh, ok, err := vault.RefreshToken(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "refresh-1", refresh)
	assert.EqualValues(t, 0, expired.Load())

	product, err := client.GetProduct(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, product.ID)
	assert.EqualValues(t, 1, api.refreshCalls.Load())
}

func TestClientDiscardsTokenRefreshedAcrossLogout(t *testing.T) {
	ctx := context.Background()
	api, srv := newFakeAPI(t)
	client, vault, store := newServerClient(t, srv)
	require.NoError(t, vault.Save(ctx, types.AuthToken{AccessToken: "stale", RefreshToken: "refresh-1"}))
	api.refreshHook = func() {
		vault.Invalidate()
		assert.NoError(t, store.Delete(ctx, kv.KeyAuthToken))
	}

	_, err := client.GetProduct(ctx, 1)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeUnauthorized, pkgerrors.As(err).Code())

	_, ok, err := vault.AccessToken(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "refreshed token must not resurrect an ended session")
	assert.EqualValues(t, 1, api.productCalls.Load())
}

func TestClientSkipRefreshReturns401(t *testing.T) {
	ctx := context.Background()
	var calls atomic.Int32
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		calls.Add(1)
		return jsonResponse(http.StatusUnauthorized, `{"message":"Invalid email or password"}`), nil
	})
	client, vault, _ := newTestClient(t, &http.Client{Transport: rt})
	require.NoError(t, vault.Save(ctx, types.AuthToken{AccessToken: "a", RefreshToken: "r"}))

	_, err := client.LoginWithEmail(ctx, "jane@example.com", "wrong")
	require.Error(t, err)
	assert.Equal(t, "Invalid email or password", pkgerrors.As(err).Message())
	assert.EqualValues(t, 1, calls.Load())
}

func TestClientMapsTransportErrors(t *testing.T) {
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return nil, errors.New("connection refused")
	})
	reg := prometheus.NewRegistry()
	m := metrics.NewAPIClientMetrics(reg)
	client, _, _ := newTestClient(t, &http.Client{Transport: rt}, WithMetrics(m))

	_, err := client.Do(context.Background(), Request{Path: "/products"})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsNetwork(err))
	assert.Equal(t, 1.0, counterValue(t, reg, "storefront_api_requests_total", "status", "network_error"))
}

func TestClientMapsErrorStatuses(t *testing.T) {
	cases := []struct {
		status int
		code   pkgerrors.Code
	}{
		{http.StatusBadRequest, pkgerrors.CodeValidation},
		{http.StatusForbidden, pkgerrors.CodeForbidden},
		{http.StatusNotFound, pkgerrors.CodeNotFound},
		{http.StatusTooManyRequests, pkgerrors.CodeRateLimit},
		{http.StatusInternalServerError, pkgerrors.CodeInternal},
	}
	for _, tc := range cases {
		rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
			return jsonResponse(tc.status, `{"message":"nope"}`), nil
		})
		client, _, _ := newTestClient(t, &http.Client{Transport: rt})
		_, err := client.Do(context.Background(), Request{Path: "/orders"})
		require.Error(t, err)
		assert.Equal(t, tc.code, pkgerrors.As(err).Code(), "status %d", tc.status)
	}
}

func TestClientBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var calls atomic.Int32
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		calls.Add(1)
		return jsonResponse(http.StatusBadGateway, `{"message":"upstream down"}`), nil
	})
	cfg := testConfig("http://shop.test")
	cfg.BreakerFailures = 2
	cfg.BreakerCooldown = time.Minute
	client, err := NewClient(cfg, credentials.NewVault(kv.NewMemory()), WithHTTPClient(&http.Client{Transport: rt}))
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err := client.Do(context.Background(), Request{Path: "/products"})
		require.Error(t, err)
		assert.Equal(t, http.StatusBadGateway, pkgerrors.As(err).Status())
	}

	_, err = client.Do(context.Background(), Request{Path: "/products"})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeDependency, pkgerrors.As(err).Code())
	assert.EqualValues(t, 2, calls.Load())
}

func counterValue(t *testing.T, reg *prometheus.Registry, name, label, value string) float64 {
	t.Helper()
	mfs, err := reg.Gather()
	require.NoError(t, err)
	var total float64
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, metric := range mf.GetMetric() {
			if hasLabel(metric.GetLabel(), label, value) {
				total += metric.GetCounter().GetValue()
			}
		}
	}
	return total
}

func hasLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, pair := range labels {
		if pair.GetName() == name && pair.GetValue() == value {
			return true
		}
	}
	return false
}
