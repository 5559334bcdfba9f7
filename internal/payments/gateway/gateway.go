package gateway

import "context"

// IntentMetadata is attached to every payment intent so webhook events can be
// traced back to the booking that owns them.
type IntentMetadata struct {
	BookingID string
	ServiceID string
	UserID    string
}

// Intent is a processor-neutral snapshot of a payment intent.
type Intent struct {
	ID                 string
	ClientSecret       string
	Status             string
	Amount             int64
	Currency           string
	PaymentMethodTypes []string
	Created            int64
	Metadata           map[string]string
}

// Intent statuses the reconciliation flow cares about.
const (
	IntentSucceeded = "succeeded"
)

// Webhook event types the reconciliation flow handles.
const (
	EventIntentSucceeded = "payment_intent.succeeded"
	EventIntentFailed    = "payment_intent.payment_failed"
	EventIntentCanceled  = "payment_intent.canceled"
)

// WebhookEvent is a verified webhook delivery. Intent is populated when the
// event carries a payment intent object.
type WebhookEvent struct {
	Type   string
	Intent *Intent
}

// Gateway abstracts the payment processor. Implementations perform no
// retries; callers decide what is retryable.
type Gateway interface {
	CreateIntent(ctx context.Context, amount int64, currency string, meta IntentMetadata) (*Intent, error)
	RetrieveIntent(ctx context.Context, id string) (*Intent, error)
	CancelIntent(ctx context.Context, id string) error
	VerifyWebhook(payload []byte, sigHeader string) (*WebhookEvent, error)
}
