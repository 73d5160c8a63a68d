package storefront_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"BigCorp/internal/account"
	"BigCorp/internal/catalog"
	"BigCorp/internal/session"
	"BigCorp/internal/storefront"
	"BigCorp/pkg/kit"
)

type shop struct {
	ts       *httptest.Server
	client   *http.Client
	catalog  *catalog.MemStore
	sessions *session.MemStore
}

func seededCatalog(t *testing.T) *catalog.MemStore {
	t.Helper()
	store := catalog.NewMemStore()
	require.NoError(t, catalog.Seed(context.Background(), store))
	return store
}

func newShop(t *testing.T, reader catalog.Reader, store *catalog.MemStore) *shop {
	t.Helper()

	sessions := session.NewMemStore()
	h := storefront.NewHandler(storefront.Deps{
		Catalog:  reader,
		Sessions: session.NewManager(sessions, zap.NewNop(), "sessionid", time.Hour, false),
		Users:    account.NewMemStore(),
		JWT:      account.NewTokenMaker("test-secret"),
	}, kit.HTTPDeps{
		Log:            zap.NewNop(),
		Service:        "storefront",
		Registry:       prometheus.NewRegistry(),
		MetricsEnabled: true,
		MetricsToken:   "metrics-token",
	})

	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &shop{
		ts:       ts,
		client:   &http.Client{Jar: jar},
		catalog:  store,
		sessions: sessions,
	}
}

func (s *shop) get(t *testing.T, path string) (*http.Response, string) {
	t.Helper()
	resp, err := s.client.Get(s.ts.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(raw)
}

func (s *shop) post(t *testing.T, path string, form url.Values) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := s.client.PostForm(s.ts.URL+path, form)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&body)
	return resp, body
}

func cartForm(id int64, qty int) url.Values {
	v := url.Values{"action": {"post"}, "product_id": {strconv.FormatInt(id, 10)}}
	if qty > 0 {
		v.Set("product_quantity", strconv.Itoa(qty))
	}
	return v
}

func productByTitle(t *testing.T, store *catalog.MemStore, title string) catalog.Product {
	t.Helper()
	products, err := store.ListProducts(context.Background())
	require.NoError(t, err)
	for _, p := range products {
		if p.Title == title {
			return p
		}
	}
	t.Fatalf("product %q not seeded", title)
	return catalog.Product{}
}

func TestStorefront_BrowseAndShop(t *testing.T) {
	store := seededCatalog(t)
	s := newShop(t, store, store)
	keyboard := productByTitle(t, store, "Mechanical Keyboard")
	mouse := productByTitle(t, store, "Wireless Mouse")

	resp, body := s.get(t, "/")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Mechanical Keyboard")
	assert.Contains(t, body, `href="/category/keyboards"`)
	assert.Contains(t, body, `<span id="cart-qty">0</span>`)

	resp, body = s.get(t, "/product/"+keyboard.Slug)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "$49.90")

	resp, body = s.get(t, "/category/mice")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Wireless Mouse")
	assert.NotContains(t, body, "Mechanical Keyboard")

	{
		resp, out := s.post(t, "/cart/add", cartForm(keyboard.ID, 2))
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.EqualValues(t, 2, out["quantity"])
		assert.Equal(t, "Mechanical Keyboard", out["product"])
	}
	{
		resp, out := s.post(t, "/cart/add", cartForm(mouse.ID, 1))
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.EqualValues(t, 3, out["quantity"])
	}
	{
		resp, out := s.post(t, "/cart/update", cartForm(keyboard.ID, 5))
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.EqualValues(t, 6, out["quantity"])
		assert.Equal(t, "269.40", out["total"])
	}

	resp, body = s.get(t, "/cart/")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `<span id="cart-qty">6</span>`)
	assert.Contains(t, body, "$249.50")
	assert.Contains(t, body, `<span id="total">269.40</span>`)

	{
		resp, out := s.post(t, "/cart/delete", cartForm(mouse.ID, 0))
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.EqualValues(t, 5, out["quantity"])
		assert.Equal(t, "249.50", out["total"])
	}
}

func TestStorefront_StaleProductStaysInCart(t *testing.T) {
	store := seededCatalog(t)
	s := newShop(t, store, store)
	keyboard := productByTitle(t, store, "Mechanical Keyboard")

	resp, _ := s.post(t, "/cart/add", cartForm(keyboard.ID, 2))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	store.SetAvailable(keyboard.ID, false)

	resp, body := s.get(t, "/cart/")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Unavailable product")
	assert.Contains(t, body, `<span id="cart-qty">2</span>`)
	assert.Contains(t, body, `<span id="total">99.80</span>`)

	resp, _ = s.get(t, "/product/"+keyboard.Slug)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = s.post(t, "/cart/add", cartForm(keyboard.ID, 1))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestStorefront_AccountKeepsCartUntilLogout(t *testing.T) {
	store := seededCatalog(t)
	s := newShop(t, store, store)
	mouse := productByTitle(t, store, "Wireless Mouse")

	resp, _ := s.post(t, "/cart/add", cartForm(mouse.ID, 3))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = s.post(t, "/account/register", url.Values{
		"username":  {"ann"},
		"email":     {"Ann@Example.com"},
		"password1": {"password123"},
		"password2": {"password123"},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, out := s.post(t, "/account/login", url.Values{"username": {"ann"}, "password": {"password123"}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	token, _ := out["access_token"].(string)
	require.NotEmpty(t, token)

	_, body := s.get(t, "/")
	assert.Contains(t, body, `<span id="cart-qty">3</span>`)
	assert.Contains(t, body, `<span class="user">ann</span>`)

	req, err := http.NewRequest(http.MethodGet, s.ts.URL+"/account/whoami", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	who, err := s.client.Do(req)
	require.NoError(t, err)
	_ = who.Body.Close()
	assert.Equal(t, http.StatusOK, who.StatusCode)

	resp, _ = s.post(t, "/account/logout", nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	_, body = s.get(t, "/")
	assert.Contains(t, body, `<span id="cart-qty">0</span>`)
	assert.NotContains(t, body, `class="user"`)
}

func TestStorefront_RejectsBadCartInput(t *testing.T) {
	store := seededCatalog(t)
	s := newShop(t, store, store)

	resp, _ := s.post(t, "/cart/add", url.Values{"action": {"post"}, "product_id": {"x"}, "product_quantity": {"1"}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = s.post(t, "/cart/add", cartForm(9999, 1))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestStorefront_OpsEndpoints(t *testing.T) {
	store := seededCatalog(t)
	s := newShop(t, store, store)

	resp, _ := s.get(t, "/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = s.get(t, "/readyz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := s.get(t, "/no/such/page")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, body, "Page not found")

	resp, _ = s.get(t, "/metrics")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	req, err := http.NewRequest(http.MethodGet, s.ts.URL+"/metrics", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer metrics-token")
	mresp, err := s.client.Do(req)
	require.NoError(t, err)
	defer mresp.Body.Close()
	raw, err := io.ReadAll(mresp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, mresp.StatusCode)
	assert.True(t, strings.Contains(string(raw), "http_requests_total"))
}

// The storefront can resolve products through the catalog service instead
// of a local store.
func TestStorefront_RemoteCatalog(t *testing.T) {
	store := seededCatalog(t)

	catalogTS := httptest.NewServer(catalog.NewHandler(&catalog.Server{Store: store}, kit.HTTPDeps{
		Log:     zap.NewNop(),
		Service: "catalog",
	}))
	t.Cleanup(catalogTS.Close)

	s := newShop(t, catalog.NewClient(catalogTS.URL), store)
	keyboard := productByTitle(t, store, "Low Profile Keyboard")

	resp, out := s.post(t, "/cart/add", cartForm(keyboard.ID, 4))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 4, out["quantity"])

	resp, body := s.get(t, "/cart/")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Low Profile Keyboard")
	assert.Contains(t, body, `<span id="total">156.00</span>`)

	resp, body = s.get(t, "/category/keyboards")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Low Profile Keyboard")
}
