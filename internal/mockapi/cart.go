package mockapi

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"sync"

	"github.com/omnidesk/widget/internal/models"
)

// CartHandler simulates the store's add-to-cart API with live stock tracking
type CartHandler struct {
	mu      sync.Mutex
	catalog *Catalog
	stock   map[string]int
	carts   map[string][]cartLine // keyed by visitor ID
}

type cartLine struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

// NewCartHandler creates a cart handler seeded with the catalog's stock
func NewCartHandler(catalog *Catalog) *CartHandler {
	stock := make(map[string]int)
	for _, p := range catalog.Search("") {
		stock[p.ID] = p.Stock
	}
	return &CartHandler{
		catalog: catalog,
		stock:   stock,
		carts:   make(map[string][]cartLine),
	}
}

// CartRequest is the POST /api/woocommerce/cart-test body
type CartRequest struct {
	VisitorID string `json:"visitorId"`
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// CartResponse describes the cart after the change
type CartResponse struct {
	Items    []cartLine `json:"items"`
	Subtotal int64      `json:"subtotal"`
	Currency string     `json:"currency"`
}

// ServeHTTP handles POST /api/woocommerce/cart-test
func (h *CartHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, "Only POST is supported on this endpoint.", http.StatusMethodNotAllowed)
		return
	}

	var req CartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "We couldn't read your cart update. Please try again.", http.StatusBadRequest)
		return
	}
	if req.VisitorID == "" {
		writeError(w, "Your session is missing. Please reload the page.", http.StatusBadRequest)
		return
	}
	if req.Quantity <= 0 {
		req.Quantity = 1
	}

	product, ok := h.catalog.ByID(req.ProductID)
	if !ok {
		writeError(w, "That product is no longer available.", http.StatusNotFound)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.stock[product.ID] < req.Quantity {
		log.Printf("Out of stock: %s requested %d, have %d", product.ID, req.Quantity, h.stock[product.ID])
		writeError(w, "Sorry, "+product.Name+" is out of stock right now.", http.StatusConflict)
		return
	}
	h.stock[product.ID] -= req.Quantity
	h.carts[req.VisitorID] = append(h.carts[req.VisitorID], cartLine{Product: product, Quantity: req.Quantity})

	writeJSON(w, http.StatusOK, h.cartResponse(req.VisitorID))
}

// Cart returns the current cart lines for a visitor
func (h *CartHandler) Cart(visitorID string) []cartLine {
	h.mu.Lock()
	defer h.mu.Unlock()

	return append([]cartLine(nil), h.carts[visitorID]...)
}

// ClearCart empties a visitor's cart after checkout
func (h *CartHandler) ClearCart(visitorID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.carts, visitorID)
}

func (h *CartHandler) cartResponse(visitorID string) CartResponse {
	var subtotal int64
	items := h.carts[visitorID]
	for _, line := range items {
		subtotal += line.Product.Price * int64(line.Quantity)
	}
	if items == nil {
		items = []cartLine{}
	}
	return CartResponse{Items: items, Subtotal: subtotal, Currency: "USD"}
}

// CheckoutHandler simulates the payment step for both platforms. Card
// numbers follow gateway test-card conventions: the standard 4111 test card
// is approved, a card ending 0002 is refused, one ending 0127 errors.
type CheckoutHandler struct {
	cart     *CartHandler
	orders   OrderStore
	events   EventStore
	platform string
	domain   string
}

// NewCheckoutHandler creates a checkout handler for one platform
// ("woocommerce" or "shopify")
func NewCheckoutHandler(cart *CartHandler, orders OrderStore, events EventStore, platform, domain string) *CheckoutHandler {
	return &CheckoutHandler{
		cart:     cart,
		orders:   orders,
		events:   events,
		platform: platform,
		domain:   domain,
	}
}

// CheckoutRequest is the checkout body
type CheckoutRequest struct {
	VisitorID  string `json:"visitorId"`
	CardNumber string `json:"cardNumber"`
	OrderRef   string `json:"orderRef,omitempty"` // set when retrying a declined order
}

// CheckoutResponse reports the payment outcome
type CheckoutResponse struct {
	OrderRef    string `json:"orderRef"`
	Status      string `json:"status"`
	Amount      string `json:"amount"`
	Products    string `json:"products"`
	RedirectURL string `json:"redirectUrl,omitempty"`
}

// Payment failure codes, mirroring gateway result codes
const (
	FailureRefused = "Refused"
	FailureError   = "Error"
)

// ServeHTTP handles POST /api/woocommerce/checkout-test and
// POST /api/shopify/checkout-test
func (h *CheckoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, "Only POST is supported on this endpoint.", http.StatusMethodNotAllowed)
		return
	}

	var req CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "We couldn't read your payment details. Please try again.", http.StatusBadRequest)
		return
	}
	if req.VisitorID == "" {
		writeError(w, "Your session is missing. Please reload the page.", http.StatusBadRequest)
		return
	}

	order, err := h.order(req)
	if err != nil {
		writeError(w, "Your cart is empty. Add something before checking out.", http.StatusBadRequest)
		return
	}

	h.recordEvent(models.EventCheckoutStarted, req.VisitorID, map[string]string{"orderRef": order.Reference})

	switch cardOutcome(req.CardNumber) {
	case "paid":
		if err := order.MarkPaid(); err != nil {
			log.Printf("Error marking order %s paid: %v", order.Reference, err)
			writeError(w, "This order can no longer be paid. Please start a new checkout.", http.StatusConflict)
			return
		}
		h.saveOrder(order)
		h.cart.ClearCart(req.VisitorID)
		h.recordEvent(models.EventCheckoutPaid, req.VisitorID, map[string]string{"orderRef": order.Reference})

		resp := CheckoutResponse{
			OrderRef: order.Reference,
			Status:   string(order.Status),
			Amount:   order.GetFormattedAmount(),
			Products: order.ProductSummary(),
		}
		if h.platform == "shopify" {
			resp.RedirectURL = "/checkout/confirmation?platform=shopify&reference=" + order.Reference
		}
		writeJSON(w, http.StatusOK, resp)

	case FailureRefused:
		h.declined(w, order, req.VisitorID, FailureRefused,
			"Your card was declined. Please check your payment details and try again.")

	default: // FailureError
		h.declined(w, order, req.VisitorID, FailureError,
			"An error occurred while processing your payment. You have not been charged. Please try again.")
	}
}

// declined records the failure and answers 402 with a retryable order ref
func (h *CheckoutHandler) declined(w http.ResponseWriter, order *models.Order, visitorID, code, message string) {
	if err := order.MarkDeclined(code); err != nil {
		log.Printf("Error marking order %s declined: %v", order.Reference, err)
	}
	h.saveOrder(order)
	h.recordEvent(models.EventCheckoutFailed, visitorID, map[string]string{
		"orderRef": order.Reference,
		"code":     code,
	})

	log.Printf("Payment %s for order %s", code, order.Reference)
	writeJSON(w, http.StatusPaymentRequired, struct {
		ErrorResponse
		OrderRef string `json:"orderRef"`
		Code     string `json:"code"`
	}{
		ErrorResponse: ErrorResponse{Error: http.StatusText(http.StatusPaymentRequired), Message: message},
		OrderRef:      order.Reference,
		Code:          code,
	})
}

// order builds a new order from the visitor's cart, or reloads the order
// being retried
func (h *CheckoutHandler) order(req CheckoutRequest) (*models.Order, error) {
	if req.OrderRef != "" {
		return h.orders.GetByReference(req.OrderRef)
	}

	lines := h.cart.Cart(req.VisitorID)
	var names []string
	var amount int64
	for _, line := range lines {
		names = append(names, line.Product.Name)
		amount += line.Product.Price * int64(line.Quantity)
	}

	order, err := models.NewOrder(req.VisitorID, h.platform, names, amount, "USD")
	if err != nil {
		return nil, err
	}
	if err := h.orders.Create(order); err != nil {
		return nil, err
	}
	return order, nil
}

func (h *CheckoutHandler) saveOrder(order *models.Order) {
	if err := h.orders.Update(order); err != nil {
		log.Printf("Error saving order %s: %v", order.Reference, err)
	}
}

func (h *CheckoutHandler) recordEvent(eventType, visitorID string, metadata map[string]string) {
	event, err := models.NewEvent(eventType, visitorID, h.domain, metadata)
	if err != nil {
		log.Printf("Error building %s event: %v", eventType, err)
		return
	}
	if err := h.events.Record(event); err != nil {
		log.Printf("Error recording %s event: %v", eventType, err)
	}
}

// cardOutcome maps a test card number to a payment result
func cardOutcome(cardNumber string) string {
	digits := strings.ReplaceAll(strings.TrimSpace(cardNumber), " ", "")
	switch {
	case strings.HasSuffix(digits, "0002"):
		return FailureRefused
	case strings.HasSuffix(digits, "0127"):
		return FailureError
	default:
		return "paid"
	}
}
