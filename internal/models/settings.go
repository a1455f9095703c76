package models

import (
	"errors"
	"fmt"
)

// Widget positions
const (
	PositionBottomRight = "bottom-right"
	PositionBottomLeft  = "bottom-left"
)

// WidgetSettings is the per-domain widget configuration managed through the
// versioned settings API. The version counter lives in the store, not here.
type WidgetSettings struct {
	Greeting         string   `json:"greeting"`
	AccentColor      string   `json:"accentColor"`
	Position         string   `json:"position"`
	OfflineMessage   string   `json:"offlineMessage"`
	SuggestedReplies []string `json:"suggestedReplies"`
}

// Settings errors
var (
	ErrEmptyGreeting      = errors.New("greeting cannot be empty")
	ErrInvalidAccentColor = errors.New("accent color must be a hex value like #4f46e5")
	ErrInvalidPosition    = errors.New("position must be bottom-right or bottom-left")
	ErrTooManySuggestions = errors.New("at most 5 suggested replies are allowed")
)

// DefaultWidgetSettings returns the settings a fresh domain starts with
func DefaultWidgetSettings() WidgetSettings {
	return WidgetSettings{
		Greeting:       "Hi there! How can we help?",
		AccentColor:    "#4f46e5",
		Position:       PositionBottomRight,
		OfflineMessage: "We're away right now. Leave a message and we'll get back to you.",
		SuggestedReplies: []string{
			"Where is my order?",
			"Do you ship internationally?",
		},
	}
}

// Validate checks the settings for values the widget cannot render
func (s WidgetSettings) Validate() error {
	if s.Greeting == "" {
		return ErrEmptyGreeting
	}
	if !isHexColor(s.AccentColor) {
		return fmt.Errorf("%w: got %q", ErrInvalidAccentColor, s.AccentColor)
	}
	if s.Position != PositionBottomRight && s.Position != PositionBottomLeft {
		return fmt.Errorf("%w: got %q", ErrInvalidPosition, s.Position)
	}
	if len(s.SuggestedReplies) > 5 {
		return ErrTooManySuggestions
	}
	return nil
}

func isHexColor(v string) bool {
	if len(v) != 7 || v[0] != '#' {
		return false
	}
	for _, r := range v[1:] {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f':
		case r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}
