package storefront_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"CacaoStore/internal/cart"
	"CacaoStore/internal/catalog"
	"CacaoStore/internal/session"
	"CacaoStore/internal/storefront"
	"CacaoStore/pkg/kit"
)

const testSecret = "test-secret-test-secret-test-secret"

func newStorefrontTS(t *testing.T, reg *prometheus.Registry, limiter *kit.IPRateLimiter) *httptest.Server {
	t.Helper()
	return newStorefrontTSWith(t, reg, storefront.Deps{CheckoutLimiter: limiter})
}

func newStorefrontTSWith(t *testing.T, reg *prometheus.Registry, deps storefront.Deps) *httptest.Server {
	t.Helper()

	deps.Catalog = catalog.Default()
	deps.Sessions = cart.NewMemSessions(time.Hour)
	deps.Tokens = session.NewTokenMaker(testSecret, time.Hour)

	h, err := storefront.NewHandler(
		deps,
		storefront.HTTPDeps{
			Log:            zap.NewNop(),
			Service:        "storefront",
			Registry:       reg,
			MetricsEnabled: reg != nil,
			MetricsToken:   "scrape",
		},
	)
	require.NoError(t, err)

	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	return ts
}

func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func doJSON(t *testing.T, c *http.Client, method, target string, body any) (*http.Response, []byte) {
	t.Helper()

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, target, r)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, raw
}

type cartResp struct {
	Items []struct {
		ID       int `json:"id"`
		Quantity int `json:"quantity"`
	} `json:"items"`
	Total string `json:"total"`
	Count int    `json:"count"`
}

func decodeCart(t *testing.T, raw []byte) cartResp {
	t.Helper()
	var c cartResp
	require.NoError(t, json.Unmarshal(raw, &c), string(raw))
	return c
}

func TestStorefront_PublicAPI_HappyPath(t *testing.T) {
	ts := newStorefrontTS(t, nil, nil)
	c := newClient(t)

	{
		resp, raw := doJSON(t, c, http.MethodGet, ts.URL+"/api/products?tag=Best%20Seller", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var ps []catalog.Product
		require.NoError(t, json.Unmarshal(raw, &ps))
		require.Len(t, ps, 1)
		require.Equal(t, "Original Roasted Nibs", ps[0].Name)
	}

	{
		resp, raw := doJSON(t, c, http.MethodPost, ts.URL+"/api/cart/items", map[string]any{"product_id": 1})
		require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))

		u, err := url.Parse(ts.URL)
		require.NoError(t, err)

		var issued bool
		for _, ck := range c.Jar.Cookies(u) {
			if ck.Name == session.CookieName {
				issued = true
			}
		}
		require.True(t, issued)
	}

	doJSON(t, c, http.MethodPost, ts.URL+"/api/cart/items", map[string]any{"product_id": 1})
	_, raw := doJSON(t, c, http.MethodPost, ts.URL+"/api/cart/items", map[string]any{"product_id": 2})

	got := decodeCart(t, raw)
	require.Equal(t, 3, got.Count)
	require.Equal(t, "76", got.Total)
	require.Len(t, got.Items, 2)
	require.Equal(t, 2, got.Items[0].Quantity)

	_, raw = doJSON(t, c, http.MethodDelete, ts.URL+"/api/cart/items/1", nil)
	got = decodeCart(t, raw)
	require.Equal(t, "28", got.Total)

	{
		resp, raw := doJSON(t, c, http.MethodPost, ts.URL+"/api/checkout", map[string]any{
			"email":       "ana@example.com",
			"first_name":  "Ana",
			"last_name":   "Quispe",
			"address":     "Av. Amazonas 123",
			"city":        "Quito",
			"postal_code": "170150",
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))

		var rc struct {
			ID    string `json:"id"`
			Total string `json:"total"`
		}
		require.NoError(t, json.Unmarshal(raw, &rc))
		require.True(t, strings.HasPrefix(rc.ID, "o_"))
		require.Equal(t, "28", rc.Total)

		resp, _ = doJSON(t, c, http.MethodGet, ts.URL+"/api/orders/"+rc.ID, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		other := newClient(t)
		resp, _ = doJSON(t, other, http.MethodGet, ts.URL+"/api/orders/"+rc.ID, nil)
		require.Equal(t, http.StatusNotFound, resp.StatusCode)
	}

	_, raw = doJSON(t, c, http.MethodGet, ts.URL+"/api/cart", nil)
	got = decodeCart(t, raw)
	require.Equal(t, 0, got.Count)
	require.Equal(t, "0", got.Total)
}

func TestStorefront_SessionsAreIsolated(t *testing.T) {
	ts := newStorefrontTS(t, nil, nil)
	a, b := newClient(t), newClient(t)

	doJSON(t, a, http.MethodPost, ts.URL+"/api/cart/items", map[string]any{"product_id": 3})

	_, raw := doJSON(t, b, http.MethodGet, ts.URL+"/api/cart", nil)
	require.Equal(t, 0, decodeCart(t, raw).Count)

	_, raw = doJSON(t, a, http.MethodGet, ts.URL+"/api/cart", nil)
	require.Equal(t, 1, decodeCart(t, raw).Count)
}

func TestStorefront_HTMLCartFlow(t *testing.T) {
	ts := newStorefrontTS(t, nil, nil)
	c := newClient(t)

	resp, err := c.PostForm(ts.URL+"/cart/add", url.Values{"product_id": {"2"}, "next": {"/shop?tag=Raw"}})
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/shop?tag=Raw", resp.Header.Get("Location"))

	resp, raw := doJSON(t, c, http.MethodGet, ts.URL+"/shop?tag=Raw", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, string(raw), "data-cart-count>1<")

	_, raw = doJSON(t, c, http.MethodGet, ts.URL+"/api/cart", nil)
	require.Equal(t, 1, decodeCart(t, raw).Count)
}

func TestStorefront_CheckoutRateLimited(t *testing.T) {
	ts := newStorefrontTS(t, nil, kit.NewIPRateLimiter(2, time.Minute))
	c := newClient(t)

	for i := 0; i < 2; i++ {
		resp, _ := doJSON(t, c, http.MethodPost, ts.URL+"/api/checkout", map[string]any{})
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	}

	resp, _ := doJSON(t, c, http.MethodPost, ts.URL+"/api/checkout", map[string]any{})
	require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	require.Equal(t, "60", resp.Header.Get("Retry-After"))

	resp, _ = doJSON(t, c, http.MethodGet, ts.URL+"/api/checkout/status", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func postCheckoutFrom(t *testing.T, c *http.Client, target string, headers map[string]string) int {
	t.Helper()

	req, err := http.NewRequest(http.MethodPost, target, strings.NewReader(`{}`))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()
	return resp.StatusCode
}

func TestStorefront_CheckoutLimitIgnoresForgedForwardedFor(t *testing.T) {
	ts := newStorefrontTS(t, nil, kit.NewIPRateLimiter(2, time.Minute))
	c := newClient(t)

	var codes []int
	for i := 0; i < 6; i++ {
		codes = append(codes, postCheckoutFrom(t, c, ts.URL+"/api/checkout", map[string]string{
			"X-Forwarded-For": fmt.Sprintf("10.0.0.%d", i),
			"X-Real-IP":       fmt.Sprintf("10.0.1.%d", i),
		}))
	}

	require.Equal(t, []int{
		http.StatusBadRequest, http.StatusBadRequest,
		http.StatusTooManyRequests, http.StatusTooManyRequests,
		http.StatusTooManyRequests, http.StatusTooManyRequests,
	}, codes)
}

func TestStorefront_CheckoutLimitBehindTrustedProxy(t *testing.T) {
	ts := newStorefrontTSWith(t, nil, storefront.Deps{
		CheckoutLimiter: kit.NewIPRateLimiter(1, time.Minute),
		TrustProxy:      true,
	})
	c := newClient(t)

	alice := map[string]string{"X-Real-IP": "198.51.100.1"}
	bob := map[string]string{"X-Real-IP": "198.51.100.2"}

	require.Equal(t, http.StatusBadRequest, postCheckoutFrom(t, c, ts.URL+"/api/checkout", alice))
	require.Equal(t, http.StatusTooManyRequests, postCheckoutFrom(t, c, ts.URL+"/api/checkout", alice))
	require.Equal(t, http.StatusBadRequest, postCheckoutFrom(t, c, ts.URL+"/api/checkout", bob))
}

func TestStorefront_HealthAndMetrics(t *testing.T) {
	ts := newStorefrontTS(t, prometheus.NewRegistry(), nil)
	c := newClient(t)

	resp, _ := doJSON(t, c, http.MethodGet, ts.URL+"/healthz", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, c, http.MethodGet, ts.URL+"/readyz", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	doJSON(t, c, http.MethodPost, ts.URL+"/api/cart/items", map[string]any{"product_id": 1})

	resp, _ = doJSON(t, c, http.MethodGet, ts.URL+"/metrics", nil)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/metrics", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer scrape")
	resp, err = c.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, string(body), `cacao_cart_operations_total{op="add"} 1`)
	require.Contains(t, string(body), "cacao_http_requests_total")
}

func TestStorefront_UnknownRoutes(t *testing.T) {
	ts := newStorefrontTS(t, nil, nil)
	c := newClient(t)

	resp, _ := doJSON(t, c, http.MethodGet, ts.URL+"/api/products/99", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, raw := doJSON(t, c, http.MethodGet, ts.URL+"/no-such-page", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.Contains(t, string(raw), "Página no encontrada")
}
