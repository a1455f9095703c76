package cli

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/omnidesk/widget/internal/config"
)

// mockHandler creates a simple test handler
func mockHandler(response string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(response))
	})
}

// createTestDeps creates ServerDependencies with mock handlers for testing
func createTestDeps(port string) ServerDependencies {
	mockFunc := func(response string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(response))
		}
	}

	return ServerDependencies{
		ServerConfig:           config.ServerConfig{Port: port},
		WidgetConfig:           &config.WidgetConfig{Domain: "shop.example.com"},
		StorefrontHandler:      mockHandler("storefront"),
		WidgetHandler:          mockHandler("widget"),
		CheckoutPageHandler:    mockHandler("checkout"),
		DashboardHandler:       mockHandler("dashboard"),
		SettingsPageHandler:    mockHandler("settings-page"),
		PrivacyHandler:         mockHandler("privacy"),
		ConfirmationHandler:    mockHandler("confirmation"),
		FailureHandler:         mockHandler("failure"),
		ChatHandler:            mockHandler("chat"),
		LiveHandler:            mockHandler("live"),
		RecommendationsHandler: mockHandler("recommendations"),
		SettingsHandler:        mockHandler("settings-api"),
		CartHandler:            mockHandler("cart"),
		WooCheckoutHandler:     mockHandler("woo-checkout"),
		ShopifyCheckoutHandler: mockHandler("shopify-checkout"),
		SyncHandler:            mockHandler("sync"),
		AnalyticsIngest:        mockFunc("ingest"),
		AnalyticsSummary:       mockFunc("summary"),
		AnalyticsExportCSV:     mockFunc("export"),
		GDPRExport:             mockFunc("gdpr-export"),
		GDPRDelete:             mockFunc("gdpr-delete"),
		GDPRDeleteConfirm:      mockFunc("gdpr-confirm"),
	}
}

// startTestServer starts a server with the given dependencies and returns listener, server, and port
func startTestServer(t *testing.T, deps ServerDependencies) (net.Listener, *http.Server, int) {
	t.Helper()
	listener, server, err := StartServer(deps)
	if err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}
	port := listener.Addr().(*net.TCPAddr).Port
	return listener, server, port
}

// httpGet makes an HTTP GET request and returns response body and status
func httpGet(t *testing.T, url string) (string, int) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("Failed to make request to %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return string(body), resp.StatusCode
}

func TestStartServer_SuccessfulStartup(t *testing.T) {
	deps := createTestDeps("0")

	listener, server, port := startTestServer(t, deps)
	defer listener.Close()
	defer server.Close()

	if port == 0 {
		t.Error("Expected non-zero port")
	}

	time.Sleep(50 * time.Millisecond)
	body, status := httpGet(t, fmt.Sprintf("http://localhost:%d/", port))

	if status != http.StatusOK {
		t.Errorf("Expected status 200, got %d", status)
	}
	if body != "storefront" {
		t.Errorf("Expected 'storefront', got '%s'", body)
	}
}

func TestStartServer_InvalidPort(t *testing.T) {
	deps := createTestDeps("99999")

	listener, server, err := StartServer(deps)
	if err == nil {
		listener.Close()
		server.Close()
		t.Error("Expected error for invalid port, got nil")
	}
}

func TestStartServer_AllRoutesWork(t *testing.T) {
	deps := createTestDeps("0")

	listener, server, port := startTestServer(t, deps)
	defer listener.Close()
	defer server.Close()

	baseURL := fmt.Sprintf("http://localhost:%d", port)
	time.Sleep(50 * time.Millisecond)

	testCases := []struct {
		path     string
		expected string
	}{
		{"/", "storefront"},
		{"/widget", "widget"},
		{"/checkout", "checkout"},
		{"/checkout/confirmation", "confirmation"},
		{"/checkout/failed", "failure"},
		{"/dashboard", "dashboard"},
		{"/settings", "settings-page"},
		{"/privacy", "privacy"},
		{"/api/chat", "chat"},
		{"/api/chat/ws", "live"},
		{"/api/recommendations", "recommendations"},
		{"/api/domains/shop.example.com/settings", "settings-api"},
		{"/api/woocommerce/cart-test", "cart"},
		{"/api/woocommerce/checkout-test", "woo-checkout"},
		{"/api/shopify/checkout-test", "shopify-checkout"},
		{"/api/sync/catalog", "sync"},
		{"/api/sync/catalog/job-1", "sync"},
		{"/api/analytics/events", "ingest"},
		{"/api/analytics/summary", "summary"},
		{"/api/analytics/export.csv", "export"},
		{"/api/gdpr/export", "gdpr-export"},
		{"/api/gdpr/delete", "gdpr-delete"},
		{"/api/gdpr/delete/confirm", "gdpr-confirm"},
	}

	for _, tc := range testCases {
		t.Run(tc.path, func(t *testing.T) {
			body, status := httpGet(t, baseURL+tc.path)
			if status != http.StatusOK {
				t.Errorf("Expected status 200, got %d", status)
			}
			if body != tc.expected {
				t.Errorf("Expected '%s', got '%s'", tc.expected, body)
			}
		})
	}
}

func TestStartServer_RateLimitWrapsChatRoutes(t *testing.T) {
	deps := createTestDeps("0")
	deps.RateLimit = func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Limited", "yes")
			next.ServeHTTP(w, r)
		})
	}

	listener, server, port := startTestServer(t, deps)
	defer listener.Close()
	defer server.Close()

	time.Sleep(50 * time.Millisecond)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	for _, path := range []string{"/api/chat", "/api/recommendations"} {
		resp, err := http.Get(baseURL + path)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.Header.Get("X-Limited") != "yes" {
			t.Errorf("expected %s to be wrapped by the limiter", path)
		}
	}

	// Pages are never limited
	resp, err := http.Get(baseURL + "/")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.Header.Get("X-Limited") == "yes" {
		t.Error("storefront should not be rate limited")
	}
}

func TestStartServer_GracefulShutdown(t *testing.T) {
	deps := createTestDeps("0")

	listener, server, port := startTestServer(t, deps)
	defer listener.Close()

	time.Sleep(50 * time.Millisecond)
	_, status := httpGet(t, fmt.Sprintf("http://localhost:%d/", port))
	if status != http.StatusOK {
		t.Fatal("Server not responding")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		t.Errorf("Failed to shutdown server gracefully: %v", err)
	}

	time.Sleep(100 * time.Millisecond)
	_, getErr := http.Get(fmt.Sprintf("http://localhost:%d/", port))
	if getErr == nil {
		t.Error("Expected error after shutdown, server still responding")
	}
}

func TestWaitForShutdown_SIGTERM(t *testing.T) {
	deps := createTestDeps("0")

	listener, server, _ := startTestServer(t, deps)
	defer listener.Close()

	shutdown := make(chan os.Signal, 1)

	errCh := make(chan error, 1)
	go func() {
		errCh <- WaitForShutdown(server, shutdown)
	}()

	time.Sleep(50 * time.Millisecond)
	shutdown <- syscall.SIGTERM

	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Expected nil error, got: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("WaitForShutdown did not complete")
	}
}

func TestWaitForShutdown_WithActiveRequests(t *testing.T) {
	slowHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
		w.Write([]byte("done"))
	})

	deps := createTestDeps("0")
	deps.StorefrontHandler = slowHandler

	listener, server, port := startTestServer(t, deps)
	defer listener.Close()

	time.Sleep(50 * time.Millisecond)
	requestComplete := make(chan bool, 1)
	go func() {
		resp, err := http.Get(fmt.Sprintf("http://localhost:%d/", port))
		if err == nil {
			resp.Body.Close()
		}
		requestComplete <- true
	}()

	time.Sleep(50 * time.Millisecond)

	shutdown := make(chan os.Signal, 1)
	errCh := make(chan error, 1)
	go func() {
		errCh <- WaitForShutdown(server, shutdown)
	}()

	shutdown <- syscall.SIGTERM

	select {
	case <-requestComplete:
	case <-time.After(2 * time.Second):
		t.Error("Request did not complete in time")
	}

	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Expected nil error, got: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("WaitForShutdown did not complete")
	}
}

func TestRunServe_StartupFailure(t *testing.T) {
	deps := createTestDeps("99999")

	if err := RunServe(deps); err == nil {
		t.Error("Expected error for invalid port, got nil")
	}
}

func TestBuildServerDependencies(t *testing.T) {
	widgetConfig, err := config.LoadWidgetConfig()
	if err != nil {
		t.Fatal(err)
	}

	deps, err := BuildServerDependencies(config.ServerConfig{Port: "0"}, widgetConfig, "../../templates", MemoryStores())
	if err != nil {
		t.Fatalf("BuildServerDependencies() error = %v", err)
	}

	listener, server, port := startTestServer(t, deps)
	defer listener.Close()
	defer server.Close()

	time.Sleep(50 * time.Millisecond)

	// A real wired server answers pages and APIs
	body, status := httpGet(t, fmt.Sprintf("http://localhost:%d/widget", port))
	if status != http.StatusOK {
		t.Errorf("Expected status 200 from /widget, got %d", status)
	}
	if body == "" {
		t.Error("Expected widget page body")
	}

	_, status = httpGet(t, fmt.Sprintf("http://localhost:%d/api/analytics/summary", port))
	if status != http.StatusOK {
		t.Errorf("Expected status 200 from summary, got %d", status)
	}
}

func TestBuildServerDependencies_MissingTemplates(t *testing.T) {
	widgetConfig, err := config.LoadWidgetConfig()
	if err != nil {
		t.Fatal(err)
	}

	if _, err := BuildServerDependencies(config.ServerConfig{Port: "0"}, widgetConfig, "no-such-dir", MemoryStores()); err == nil {
		t.Error("Expected error for missing templates directory")
	}
}
