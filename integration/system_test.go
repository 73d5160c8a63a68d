//go:build integration

package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"strconv"
	"testing"
	"time"
)

var (
	baseURL    = getenv("E2E_BASE_URL", "http://localhost:8080")
	catalogURL = getenv("E2E_CATALOG_URL", "http://localhost:8082")
)

// Runs against the compose stack: storefront and catalog on Postgres.
func TestSystem_E2E_CartSurvivesRestart(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	waitReady(t, ctx, baseURL+"/readyz")
	waitReady(t, ctx, catalogURL+"/readyz")

	var products []struct {
		ID    int64  `json:"id"`
		Title string `json:"title"`
		Price string `json:"price"`
	}
	getJSON(t, catalogURL+"/products", &products)
	if len(products) == 0 {
		t.Fatalf("expected non-empty products")
	}
	pid := strconv.FormatInt(products[0].ID, 10)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	shopper := &http.Client{Jar: jar, Timeout: 5 * time.Second}

	username := fmt.Sprintf("user_%d_%d", time.Now().Unix(), rand.IntN(100000))
	postForm(t, shopper, "/account/register", url.Values{
		"username":  {username},
		"email":     {username + "@example.com"},
		"password1": {"password123!"},
		"password2": {"password123!"},
	}, nil, http.StatusCreated)
	postForm(t, shopper, "/account/login", url.Values{
		"username": {username},
		"password": {"password123!"},
	}, nil, http.StatusOK)

	var added struct {
		Quantity int    `json:"quantity"`
		Product  string `json:"product"`
	}
	postForm(t, shopper, "/cart/add", url.Values{
		"action":           {"post"},
		"product_id":       {pid},
		"product_quantity": {"3"},
	}, &added, http.StatusOK)
	if added.Quantity != 3 || added.Product != products[0].Title {
		t.Fatalf("unexpected add response: %+v", added)
	}

	if os.Getenv("E2E_RESTART_STOREFRONT") == "1" {
		restartStorefrontContainer(t, ctx)
		waitReady(t, ctx, baseURL+"/readyz")
	}

	var updated struct {
		Quantity int    `json:"quantity"`
		Total    string `json:"total"`
	}
	postForm(t, shopper, "/cart/update", url.Values{
		"action":           {"post"},
		"product_id":       {pid},
		"product_quantity": {"1"},
	}, &updated, http.StatusOK)
	if updated.Quantity != 1 {
		t.Fatalf("cart lost across requests: %+v", updated)
	}
}

func waitReady(t *testing.T, ctx context.Context, url string) {
	t.Helper()
	client := &http.Client{Timeout: 2 * time.Second}

	deadline := time.Now().Add(60 * time.Second)
	for time.Now().Before(deadline) {
		req, _ := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		resp, err := client.Do(req)
		if err == nil && resp != nil && resp.StatusCode == http.StatusOK {
			_ = resp.Body.Close()
			return
		}
		if resp != nil {
			_ = resp.Body.Close()
		}
		time.Sleep(500 * time.Millisecond)
	}
	t.Fatalf("service not ready: %s", url)
}

func getJSON(t *testing.T, url string, out any) {
	t.Helper()

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		t.Fatalf("get %s: %v", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET %s: status=%d", url, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func postForm(t *testing.T, c *http.Client, path string, form url.Values, out any, want int) {
	t.Helper()

	resp, err := c.PostForm(baseURL+path, form)
	if err != nil {
		t.Fatalf("post %s: %v", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		t.Fatalf("POST %s: status=%d want=%d", path, resp.StatusCode, want)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
