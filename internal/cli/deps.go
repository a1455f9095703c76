package cli

import (
	"fmt"
	"path/filepath"

	"github.com/omnidesk/widget/internal/config"
	"github.com/omnidesk/widget/internal/handlers"
	"github.com/omnidesk/widget/internal/mockapi"
)

// Stores groups the persistence backends the harness runs on. The in-memory
// implementations are the default; the serve command swaps in Postgres repos
// when persistence is enabled.
type Stores struct {
	Conversations mockapi.ConversationStore
	Events        mockapi.EventStore
	Orders        mockapi.OrderStore
}

// MemoryStores returns the default in-memory backends
func MemoryStores() Stores {
	return Stores{
		Conversations: mockapi.NewMemoryConversationStore(),
		Events:        mockapi.NewMemoryEventStore(),
		Orders:        mockapi.NewMemoryOrderStore(),
	}
}

// BuildServerDependencies wires every page and API handler. templatesDir is
// the directory holding the harness HTML templates; tests pass a relative
// path from their own package.
func BuildServerDependencies(serverConfig config.ServerConfig, widgetConfig *config.WidgetConfig, templatesDir string, stores Stores) (ServerDependencies, error) {
	deps := ServerDependencies{
		ServerConfig: serverConfig,
		WidgetConfig: widgetConfig,
	}

	catalog := mockapi.NewCatalog(mockapi.DefaultCatalog())
	cart := mockapi.NewCartHandler(catalog)
	settings := mockapi.NewSettingsStore()
	guard := mockapi.NewSyncGuard(widgetConfig.SyncDuration)
	analytics := mockapi.NewAnalyticsHandler(stores.Events, widgetConfig.Domain)
	gdpr := mockapi.NewGDPRHandler(stores.Conversations, stores.Events, widgetConfig.GDPRTokenSecret, widgetConfig.GDPRTokenTTL)
	limiter := mockapi.NewRateLimiter(widgetConfig.RateLimitRPS, widgetConfig.RateLimitBurst)

	deps.ChatHandler = mockapi.NewChatHandler(stores.Conversations, stores.Events, stores.Orders, catalog, widgetConfig.Domain)
	deps.LiveHandler = mockapi.NewLiveHandler()
	deps.RecommendationsHandler = mockapi.NewRecommendationsHandler(catalog)
	deps.SettingsHandler = mockapi.NewSettingsHandler(settings)
	deps.CartHandler = cart
	deps.WooCheckoutHandler = mockapi.NewCheckoutHandler(cart, stores.Orders, stores.Events, "woocommerce", widgetConfig.Domain)
	deps.ShopifyCheckoutHandler = mockapi.NewCheckoutHandler(cart, stores.Orders, stores.Events, "shopify", widgetConfig.Domain)
	deps.SyncHandler = mockapi.NewSyncHandler(guard, widgetConfig.Domain)
	deps.AnalyticsIngest = analytics.HandleIngest
	deps.AnalyticsSummary = analytics.HandleSummary
	deps.AnalyticsExportCSV = analytics.HandleExportCSV
	deps.GDPRExport = gdpr.HandleExport
	deps.GDPRDelete = gdpr.HandleDelete
	deps.GDPRDeleteConfirm = gdpr.HandleDeleteConfirm
	deps.RateLimit = limiter.Middleware

	pageData := handlers.PageData{
		Domain:   widgetConfig.Domain,
		Products: mockapi.DefaultCatalog(),
	}

	var err error
	if deps.StorefrontHandler, err = handlers.NewPageHandler(filepath.Join(templatesDir, "storefront.html"), pageData); err != nil {
		return deps, fmt.Errorf("failed to create storefront handler: %w", err)
	}
	if deps.WidgetHandler, err = handlers.NewPageHandler(filepath.Join(templatesDir, "widget.html"), pageData); err != nil {
		return deps, fmt.Errorf("failed to create widget handler: %w", err)
	}
	if deps.CheckoutPageHandler, err = handlers.NewPageHandler(filepath.Join(templatesDir, "checkout.html"), pageData); err != nil {
		return deps, fmt.Errorf("failed to create checkout page handler: %w", err)
	}
	if deps.DashboardHandler, err = handlers.NewPageHandler(filepath.Join(templatesDir, "dashboard.html"), pageData); err != nil {
		return deps, fmt.Errorf("failed to create dashboard handler: %w", err)
	}
	if deps.SettingsPageHandler, err = handlers.NewPageHandler(filepath.Join(templatesDir, "settings.html"), pageData); err != nil {
		return deps, fmt.Errorf("failed to create settings page handler: %w", err)
	}
	if deps.PrivacyHandler, err = handlers.NewPageHandler(filepath.Join(templatesDir, "privacy.html"), pageData); err != nil {
		return deps, fmt.Errorf("failed to create privacy handler: %w", err)
	}
	if deps.ConfirmationHandler, err = handlers.NewConfirmationHandler(filepath.Join(templatesDir, "confirmation.html"), stores.Orders); err != nil {
		return deps, fmt.Errorf("failed to create confirmation handler: %w", err)
	}
	if deps.FailureHandler, err = handlers.NewFailureHandler(filepath.Join(templatesDir, "failed.html")); err != nil {
		return deps, fmt.Errorf("failed to create failure handler: %w", err)
	}

	return deps, nil
}
