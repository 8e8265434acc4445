// internal/message/message.go
//
// Tally – Messaging stub.
//
// Context
//   Sign-up and billing flows enqueue outbound messages such as the
//   welcome email and past-due payment notices.  Until the real
//   queue/worker pool is finished, this stub logs the payload and returns
//   nil so callers proceed without blocking.
//
//   Replace the body of each Enqueue* function with code that publishes to
//   your queue of choice (e.g., Redis, NATS, SQS) when ready.
//
// Style
//   Two-space sentence spacing, Oxford comma, concise inline notes.
//
//------------------------------------------------------------------------------

package message

import (
	"context"

	"go.uber.org/zap"
)

// Email represents a basic outbound email job.
type Email struct {
	To      []string
	Subject string
	Text    string
	HTML    string // optional – not used by stub
}

// EnqueueEmail logs the email payload.  Swap with real queue publisher later.
func EnqueueEmail(ctx context.Context, msg Email) error {
	zap.S().Infow("queue email",
		"to", msg.To, "subject", msg.Subject, "len_text", len(msg.Text))
	return nil
}
