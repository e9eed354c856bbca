// Package notify delivers fire-and-forget operator notifications. Delivery
// failures are logged by callers and never affect trading decisions.
package notify

import "context"

// Field is one key/value line of a notification message. Fields are ordered
// so rendered messages are stable.
type Field struct {
	Key   string
	Value string
}

// Kind classifies a notification event.
type Kind string

const (
	KindTradeOpened   Kind = "trade_opened"
	KindTradeFailed   Kind = "trade_failed"
	KindTradeClosed   Kind = "trade_closed"
	KindStatusChange  Kind = "status_change"
	KindRetryResult   Kind = "retry_result"
	KindRetryExpired  Kind = "retry_expired"
	KindStartup       Kind = "startup"
	KindError         Kind = "error"
)

// Event is a single notification.
type Event struct {
	Kind   Kind
	Title  string
	Fields []Field
}

// Notifier is the notification sink. Implementations must not block trading:
// errors are returned for logging only.
type Notifier interface {
	Notify(ctx context.Context, event Event) error
}

// Nop is a Notifier that discards every event.
type Nop struct{}

// Notify implements Notifier.
func (Nop) Notify(_ context.Context, _ Event) error {
	return nil
}

var _ Notifier = Nop{}
