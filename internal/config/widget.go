package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// WidgetConfig holds configuration for the widget harness behaviors
type WidgetConfig struct {
	// Domain is the store domain the harness pretends to serve.
	Domain string

	// RateLimitRPS and RateLimitBurst shape the per-visitor token bucket
	// applied to the chat API.
	RateLimitRPS   float64
	RateLimitBurst int

	// SyncDuration is how long a simulated catalog sync stays running.
	SyncDuration time.Duration

	// GDPRTokenSecret signs delete-confirmation tokens; GDPRTokenTTL is
	// their lifetime.
	GDPRTokenSecret string
	GDPRTokenTTL    time.Duration
}

// LoadWidgetConfig loads widget harness configuration from environment
// variables, falling back to defaults that let the harness run standalone
func LoadWidgetConfig() (*WidgetConfig, error) {
	config := &WidgetConfig{
		Domain:          "shop.example.com",
		RateLimitRPS:    5,
		RateLimitBurst:  10,
		SyncDuration:    2 * time.Second,
		GDPRTokenSecret: "omnidesk-harness-secret",
		GDPRTokenTTL:    15 * time.Minute,
	}

	if v := os.Getenv("WIDGET_DOMAIN"); v != "" {
		config.Domain = v
	}
	if v := os.Getenv("WIDGET_RATE_LIMIT_RPS"); v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil || rps <= 0 {
			return nil, fmt.Errorf("WIDGET_RATE_LIMIT_RPS must be a positive number, got %q", v)
		}
		config.RateLimitRPS = rps
	}
	if v := os.Getenv("WIDGET_RATE_LIMIT_BURST"); v != "" {
		burst, err := strconv.Atoi(v)
		if err != nil || burst <= 0 {
			return nil, fmt.Errorf("WIDGET_RATE_LIMIT_BURST must be a positive integer, got %q", v)
		}
		config.RateLimitBurst = burst
	}
	if v := os.Getenv("WIDGET_SYNC_DURATION"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("WIDGET_SYNC_DURATION must be a positive duration, got %q", v)
		}
		config.SyncDuration = d
	}
	if v := os.Getenv("GDPR_TOKEN_SECRET"); v != "" {
		config.GDPRTokenSecret = v
	}
	if v := os.Getenv("GDPR_TOKEN_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("GDPR_TOKEN_TTL must be a positive duration, got %q", v)
		}
		config.GDPRTokenTTL = d
	}

	return config, nil
}
