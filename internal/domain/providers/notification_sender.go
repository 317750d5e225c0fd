package providers

import "context"

// MessageSender delivers a text message to a phone number.
type MessageSender interface {
	SendText(ctx context.Context, to, body string) error
}
