//go:build e2e
// +build e2e

package e2e

import (
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRateLimitCooldownAndRecovery tests the widget under a tight rate limit
// Feature: Rate Limiting
//
//	Scenario: Send messages too quickly
//	  Given the chat API allows only a couple of messages per second
//	  When I fire messages as fast as the widget lets me
//	  Then the widget shows a friendly cooldown notice and disables sending
//	  And after the cooldown I can send again
func TestRateLimitCooldownAndRecovery(t *testing.T) {
	cfg := defaultWidgetConfig()
	cfg.RateLimitRPS = 1
	cfg.RateLimitBurst = 2
	harnessURL, stop, err := startHarness(cfg)
	require.NoError(t, err)
	defer stop()

	page := newPage(t)
	_, err = page.Goto(harnessURL + "/")
	require.NoError(t, err)
	require.NoError(t, page.Locator("#widget-launcher").Click())

	frame := page.FrameLocator("#omnidesk-widget")
	require.NoError(t, frame.Locator(".message.assistant").First().WaitFor(playwright.LocatorWaitForOptions{
		Timeout: playwright.Float(5000),
	}), "widget greeting never arrived")

	input := frame.Locator("#message-input")
	sendButton := frame.Locator("#send-button")

	// Burst through the bucket. The button re-enables between accepted
	// sends, so keep submitting until the cooldown notice appears.
	cooldown := frame.Locator("#error-bar").Filter(playwright.LocatorFilterOptions{
		HasText: "too quickly",
	})
	for i := 0; i < 8; i++ {
		visible, err := cooldown.IsVisible()
		require.NoError(t, err)
		if visible {
			break
		}
		if disabled, _ := sendButton.IsDisabled(); disabled {
			time.Sleep(100 * time.Millisecond)
			continue
		}
		require.NoError(t, input.Fill("ping"))
		require.NoError(t, sendButton.Click())
	}

	require.NoError(t, cooldown.WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: playwright.Float(10000),
	}), "rate limit never tripped")

	notice, err := cooldown.TextContent()
	require.NoError(t, err)
	assert.Contains(t, notice, "too quickly")
	assertNoLeakedInternals(t, notice)

	disabled, err := sendButton.IsDisabled()
	require.NoError(t, err)
	assert.True(t, disabled, "send should be disabled during the cooldown")

	// The cooldown counts down and re-enables the composer.
	require.NoError(t, frame.Locator("#send-button:not([disabled])").WaitFor(playwright.LocatorWaitForOptions{
		Timeout: playwright.Float(15000),
	}), "send never re-enabled after the cooldown")

	before, err := frame.Locator(".message.assistant").Count()
	require.NoError(t, err)
	require.NoError(t, input.Fill("are we good now?"))
	require.NoError(t, sendButton.Click())
	require.NoError(t, frame.Locator(".message.assistant").Nth(before).WaitFor(playwright.LocatorWaitForOptions{
		Timeout: playwright.Float(10000),
	}), "no reply after the cooldown ended")
}

// TestRateLimitIsPerVisitor tests that one noisy visitor does not block others
// Feature: Rate Limiting
//
//	Scenario: A second visitor chats while the first is throttled
//	  Given one visitor exhausted their message budget
//	  When a different visitor sends a message
//	  Then the second visitor gets a normal reply
func TestRateLimitIsPerVisitor(t *testing.T) {
	cfg := defaultWidgetConfig()
	cfg.RateLimitRPS = 0.2
	cfg.RateLimitBurst = 1
	harnessURL, stop, err := startHarness(cfg)
	require.NoError(t, err)
	defer stop()

	openThrottledWidget := func() playwright.FrameLocator {
		page := newPage(t)
		_, err := page.Goto(harnessURL + "/")
		require.NoError(t, err)
		require.NoError(t, page.Locator("#widget-launcher").Click())
		frame := page.FrameLocator("#omnidesk-widget")
		require.NoError(t, frame.Locator(".message.assistant").First().WaitFor(playwright.LocatorWaitForOptions{
			Timeout: playwright.Float(5000),
		}))
		return frame
	}

	// First visitor spends the single token in their bucket.
	first := openThrottledWidget()
	require.NoError(t, first.Locator("#message-input").Fill("hello"))
	require.NoError(t, first.Locator("#send-button").Click())
	require.NoError(t, first.Locator(".message.assistant").Nth(1).WaitFor(playwright.LocatorWaitForOptions{
		Timeout: playwright.Float(10000),
	}))

	// A fresh page means a fresh visitor ID and a fresh bucket.
	second := openThrottledWidget()
	require.NoError(t, second.Locator("#message-input").Fill("hello from someone else"))
	require.NoError(t, second.Locator("#send-button").Click())
	require.NoError(t, second.Locator(".message.assistant").Nth(1).WaitFor(playwright.LocatorWaitForOptions{
		Timeout: playwright.Float(10000),
	}), "second visitor should not inherit the first visitor's throttle")
}
