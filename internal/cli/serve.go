package cli

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/omnidesk/widget/internal/config"
)

// ServerDependencies holds all handlers needed for the harness server
type ServerDependencies struct {
	ServerConfig config.ServerConfig
	WidgetConfig *config.WidgetConfig

	// Harness pages
	StorefrontHandler   http.Handler
	WidgetHandler       http.Handler
	CheckoutPageHandler http.Handler
	DashboardHandler    http.Handler
	SettingsPageHandler http.Handler
	PrivacyHandler      http.Handler
	ConfirmationHandler http.Handler
	FailureHandler      http.Handler

	// Mock platform APIs
	ChatHandler            http.Handler
	LiveHandler            http.Handler
	RecommendationsHandler http.Handler
	SettingsHandler        http.Handler
	CartHandler            http.Handler
	WooCheckoutHandler     http.Handler
	ShopifyCheckoutHandler http.Handler
	SyncHandler            http.Handler
	AnalyticsIngest        http.HandlerFunc
	AnalyticsSummary       http.HandlerFunc
	AnalyticsExportCSV     http.HandlerFunc
	GDPRExport             http.HandlerFunc
	GDPRDelete             http.HandlerFunc
	GDPRDeleteConfirm      http.HandlerFunc

	// RateLimit wraps the chatty endpoints; nil disables limiting
	RateLimit func(http.Handler) http.Handler
}

// RunServe starts the harness web server
func RunServe(deps ServerDependencies) error {
	listener, server, err := StartServer(deps)
	if err != nil {
		return err
	}
	defer listener.Close()

	return WaitForShutdown(server, nil)
}

// StartServer creates and starts the HTTP server, returning the listener and server
func StartServer(deps ServerDependencies) (net.Listener, *http.Server, error) {
	limited := deps.RateLimit
	if limited == nil {
		limited = func(next http.Handler) http.Handler { return next }
	}

	// Set up routes
	mux := http.NewServeMux()
	mux.Handle("/", deps.StorefrontHandler)
	mux.Handle("/widget", deps.WidgetHandler)
	mux.Handle("/checkout", deps.CheckoutPageHandler)
	mux.Handle("/checkout/confirmation", deps.ConfirmationHandler)
	mux.Handle("/checkout/failed", deps.FailureHandler)
	mux.Handle("/dashboard", deps.DashboardHandler)
	mux.Handle("/settings", deps.SettingsPageHandler)
	mux.Handle("/privacy", deps.PrivacyHandler)

	mux.Handle("/api/chat", limited(deps.ChatHandler))
	mux.Handle("/api/chat/ws", deps.LiveHandler)
	mux.Handle("/api/recommendations", limited(deps.RecommendationsHandler))
	mux.Handle("/api/domains/", deps.SettingsHandler)
	mux.Handle("/api/woocommerce/cart-test", deps.CartHandler)
	mux.Handle("/api/woocommerce/checkout-test", deps.WooCheckoutHandler)
	mux.Handle("/api/shopify/checkout-test", deps.ShopifyCheckoutHandler)
	mux.Handle("/api/sync/catalog", deps.SyncHandler)
	mux.Handle("/api/sync/catalog/", deps.SyncHandler)
	mux.HandleFunc("/api/analytics/events", deps.AnalyticsIngest)
	mux.HandleFunc("/api/analytics/summary", deps.AnalyticsSummary)
	mux.HandleFunc("/api/analytics/export.csv", deps.AnalyticsExportCSV)
	mux.HandleFunc("/api/gdpr/export", deps.GDPRExport)
	mux.HandleFunc("/api/gdpr/delete", deps.GDPRDelete)
	mux.HandleFunc("/api/gdpr/delete/confirm", deps.GDPRDeleteConfirm)

	// Create listener
	addr := fmt.Sprintf(":%s", deps.ServerConfig.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create listener: %w", err)
	}

	// Create HTTP server
	server := &http.Server{
		Handler: mux,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server listening on %s", listener.Addr().String())
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Printf("Server error: %v", err)
		}
	}()

	return listener, server, nil
}

// WaitForShutdown waits for a shutdown signal and gracefully shuts down the server
// If shutdown channel is nil, a new channel will be created and registered with signal.Notify
func WaitForShutdown(server *http.Server, shutdown chan os.Signal) error {
	return WaitForShutdownWithTimeout(server, shutdown, 30*time.Second)
}

// WaitForShutdownWithTimeout allows specifying a custom shutdown timeout (primarily for testing)
func WaitForShutdownWithTimeout(server *http.Server, shutdown chan os.Signal, shutdownTimeout time.Duration) error {
	if shutdown == nil {
		shutdown = make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	}

	sig := <-shutdown
	log.Printf("Received signal: %v, shutting down server...", sig)

	// Give outstanding requests time to complete
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		if err := server.Close(); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
	}

	log.Println("Server stopped")
	return nil
}
