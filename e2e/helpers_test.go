//go:build e2e
// +build e2e

package e2e

import (
	"testing"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/require"
)

// newPage opens a fresh page in its own browser context, so each test starts
// with a clean localStorage and therefore a new visitor ID
func newPage(t *testing.T) playwright.Page {
	t.Helper()
	page, err := browser.NewPage()
	require.NoError(t, err, "failed to open page")
	t.Cleanup(func() { page.Close() })
	return page
}

// openWidget loads the storefront and opens the chat widget, returning the
// widget iframe
func openWidget(t *testing.T, page playwright.Page) playwright.FrameLocator {
	t.Helper()

	_, err := page.Goto(baseURL + "/")
	require.NoError(t, err, "failed to load storefront")

	require.NoError(t, page.Locator("#widget-launcher").Click(), "failed to open widget")

	frame := page.FrameLocator("#omnidesk-widget")
	// The greeting confirms the widget finished booting
	require.NoError(t, frame.Locator(".message.assistant").First().WaitFor(playwright.LocatorWaitForOptions{
		Timeout: playwright.Float(5000),
	}), "widget did not boot")

	return frame
}

// sendWidgetMessage types a message into the widget and waits for the next
// assistant reply, returning its text
func sendWidgetMessage(t *testing.T, frame playwright.FrameLocator, message string) string {
	t.Helper()

	before, err := frame.Locator(".message.assistant").Count()
	require.NoError(t, err)

	require.NoError(t, frame.Locator("#message-input").Fill(message))
	require.NoError(t, frame.Locator("#send-button").Click())

	reply := frame.Locator(".message.assistant").Nth(before)
	require.NoError(t, reply.WaitFor(playwright.LocatorWaitForOptions{
		Timeout: playwright.Float(5000),
	}), "no reply to %q", message)

	text, err := reply.TextContent()
	require.NoError(t, err)
	return text
}

// addToCart clicks a product's Add to Cart button and waits for the cart
// status line to confirm
func addToCart(t *testing.T, page playwright.Page, productID string) {
	t.Helper()

	_, err := page.Goto(baseURL + "/")
	require.NoError(t, err)

	require.NoError(t, page.Locator("button.add-to-cart[data-product-id='"+productID+"']").Click())
	require.NoError(t, page.Locator("#cart-status").Filter(playwright.LocatorFilterOptions{
		HasText: "Added to cart",
	}).WaitFor(playwright.LocatorWaitForOptions{
		Timeout: playwright.Float(5000),
	}), "cart did not confirm")
}

// payWithCard submits the checkout form with the given card number and waits
// for navigation away from /checkout
func payWithCard(t *testing.T, page playwright.Page, cardNumber string) {
	t.Helper()

	require.NoError(t, page.Locator("#card-number").Fill(cardNumber))
	require.NoError(t, page.Locator("#pay-button").Click())
	require.NoError(t, page.WaitForURL("**/checkout/*", playwright.PageWaitForURLOptions{
		Timeout: playwright.Float(10000),
	}), "checkout did not navigate")
}

// assertNoLeakedInternals fails if user-visible text exposes raw status
// codes or serialization artifacts
func assertNoLeakedInternals(t *testing.T, text string) {
	t.Helper()
	for _, leaked := range []string{"undefined", "null", "429", "500", "409", "402"} {
		require.NotContains(t, text, leaked, "user-visible copy leaked internals")
	}
}
