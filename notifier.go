package goIdentity

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// NoopNotifier discards every code. Useful when delivery is handled by a
// layer that consumes the plaintext code from the setup return value.
type NoopNotifier struct{}

// SendCode implements [Notifier].
func (NoopNotifier) SendCode(context.Context, OTPChannel, string, string) error {
	return nil
}

// WriterNotifier writes codes to an io.Writer. Development stand-in for a
// real email/SMS gateway.
type WriterNotifier struct {
	w  io.Writer
	mu sync.Mutex
}

// NewWriterNotifier returns a WriterNotifier targeting w.
func NewWriterNotifier(w io.Writer) *WriterNotifier {
	return &WriterNotifier{w: w}
}

// SendCode implements [Notifier].
func (n *WriterNotifier) SendCode(_ context.Context, channel OTPChannel, destination, code string) error {
	if n == nil || n.w == nil {
		return ErrNotifierFailure
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	_, err := fmt.Fprintf(n.w, "[dev] %s code for %s: %s\n", channel, destination, code)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNotifierFailure, err)
	}
	return nil
}

// SentCode is one delivery captured by [ChannelNotifier].
type SentCode struct {
	Channel     OTPChannel
	Destination string
	Code        string
}

// ChannelNotifier forwards deliveries to a buffered channel so tests can
// observe issued codes.
type ChannelNotifier struct {
	sent chan SentCode
}

// NewChannelNotifier returns a ChannelNotifier with the given buffer.
func NewChannelNotifier(buffer int) *ChannelNotifier {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelNotifier{sent: make(chan SentCode, buffer)}
}

// SendCode implements [Notifier]. It fails when the buffer is full rather
// than blocking the engine.
func (n *ChannelNotifier) SendCode(_ context.Context, channel OTPChannel, destination, code string) error {
	select {
	case n.sent <- SentCode{Channel: channel, Destination: destination, Code: code}:
		return nil
	default:
		return ErrNotifierFailure
	}
}

// Sent exposes the captured deliveries.
func (n *ChannelNotifier) Sent() <-chan SentCode {
	return n.sent
}
