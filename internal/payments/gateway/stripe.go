package gateway

import (
	"context"
	"encoding/json"

	"salonbliss/pkg/config"
	apperrors "salonbliss/pkg/errors"
	"salonbliss/pkg/logger"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

type stripeGateway struct {
	api           *client.API
	webhookSecret string
	log           *logger.Logger
}

// NewStripeGateway builds a Gateway backed by the Stripe API. The client is
// initialized per instance rather than through the package-global key.
func NewStripeGateway(cfg *config.Config) Gateway {
	api := &client.API{}
	api.Init(cfg.StripeSecretKey, nil)

	return &stripeGateway{
		api:           api,
		webhookSecret: cfg.StripeWebhookSecret,
		log:           cfg.Log,
	}
}

func (g *stripeGateway) CreateIntent(ctx context.Context, amount int64, currency string, meta IntentMetadata) (*Intent, error) {
	params := &stripe.PaymentIntentParams{
		Params:   stripe.Params{Context: ctx},
		Amount:   stripe.Int64(amount),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.AddMetadata("bookingId", meta.BookingID)
	params.AddMetadata("serviceId", meta.ServiceID)
	params.AddMetadata("userId", meta.UserID)

	pi, err := g.api.PaymentIntents.New(params)
	if err != nil {
		return nil, apperrors.Gateway("Failed to create payment intent", err)
	}

	return fromStripeIntent(pi), nil
}

func (g *stripeGateway) RetrieveIntent(ctx context.Context, id string) (*Intent, error) {
	params := &stripe.PaymentIntentParams{
		Params: stripe.Params{Context: ctx},
	}

	pi, err := g.api.PaymentIntents.Get(id, params)
	if err != nil {
		return nil, apperrors.Gateway("Failed to retrieve payment intent", err)
	}

	return fromStripeIntent(pi), nil
}

func (g *stripeGateway) CancelIntent(ctx context.Context, id string) error {
	params := &stripe.PaymentIntentCancelParams{
		Params: stripe.Params{Context: ctx},
	}

	if _, err := g.api.PaymentIntents.Cancel(id, params); err != nil {
		return apperrors.Gateway("Failed to cancel payment intent", err)
	}
	return nil
}

// VerifyWebhook checks the Stripe-Signature header against the raw payload.
// The signature is the only authentication webhooks carry.
func (g *stripeGateway) VerifyWebhook(payload []byte, sigHeader string) (*WebhookEvent, error) {
	event, err := webhook.ConstructEvent(payload, sigHeader, g.webhookSecret)
	if err != nil {
		return nil, apperrors.Signature("Webhook signature verification failed", err)
	}

	we := &WebhookEvent{Type: string(event.Type)}

	switch we.Type {
	case EventIntentSucceeded, EventIntentFailed, EventIntentCanceled:
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			return nil, apperrors.Gateway("Failed to decode webhook payment intent", err)
		}
		we.Intent = fromStripeIntent(&pi)
	}

	return we, nil
}

func fromStripeIntent(pi *stripe.PaymentIntent) *Intent {
	return &Intent{
		ID:                 pi.ID,
		ClientSecret:       pi.ClientSecret,
		Status:             string(pi.Status),
		Amount:             pi.Amount,
		Currency:           string(pi.Currency),
		PaymentMethodTypes: pi.PaymentMethodTypes,
		Created:            pi.Created,
		Metadata:           pi.Metadata,
	}
}
