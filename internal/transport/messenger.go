// Package transport is the outbound side of the chat boundary: what the
// storefront can ask the chat platform to show a user.
package transport

import "context"

// Button is an inline button; Action is the encoded action it dispatches.
type Button struct {
	Text   string `json:"text"`
	Action string `json:"action"`
}

// Keyboard is rows of buttons.
type Keyboard [][]Button

// Messenger sends to chat users. Calls are fire-and-forget from the core's
// perspective: failures are reported, never retried.
type Messenger interface {
	SendText(ctx context.Context, recipient int64, text string, keyboard Keyboard) error
	SendPhoto(ctx context.Context, recipient int64, assetRef, caption string) error
	AnswerEvent(ctx context.Context, eventID, text string) error
}
