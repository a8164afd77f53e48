package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fjod/go_shop/internal/circuitbreaker"
	"github.com/fjod/go_shop/internal/domain"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker/v2"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

type intentCreator interface {
	New(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
}

// StripeClient creates payment intents and verifies webhook notifications.
type StripeClient struct {
	intents       intentCreator
	webhookSecret string
	cb            *gobreaker.CircuitBreaker[*stripe.PaymentIntent]
}

func NewStripeClient(secretKey, webhookSecret string, log logrus.FieldLogger) *StripeClient {
	sc := client.New(secretKey, nil)
	return newStripeClient(sc.PaymentIntents, webhookSecret, log)
}

func newStripeClient(intents intentCreator, webhookSecret string, log logrus.FieldLogger) *StripeClient {
	return &StripeClient{
		intents:       intents,
		webhookSecret: webhookSecret,
		cb:            circuitbreaker.New[*stripe.PaymentIntent]("stripe", log),
	}
}

func (c *StripeClient) CreatePaymentIntent(ctx context.Context, amount int64, currency, orderID string) (*domain.PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amount),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	params.AddMetadata("orderId", orderID)

	pi, err := c.cb.Execute(func() (*stripe.PaymentIntent, error) {
		return c.intents.New(params)
	})
	if err != nil {
		return nil, providerMessage(err)
	}
	return &domain.PaymentIntent{ID: pi.ID, ClientSecret: pi.ClientSecret}, nil
}

// VerifyWebhook checks the Stripe-Signature header against payload and
// decodes the event.
func (c *StripeClient) VerifyWebhook(payload []byte, signature string) (*domain.PaymentEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, c.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, err
	}

	out := &domain.PaymentEvent{ID: event.ID, Type: string(event.Type)}
	if event.Type != stripe.EventTypePaymentIntentSucceeded || event.Data == nil {
		return out, nil
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return nil, fmt.Errorf("decode payment intent: %w", err)
	}
	out.PaymentIntentID = pi.ID
	out.OrderID = pi.Metadata["orderId"]
	return out, nil
}

// providerMessage strips the Stripe JSON envelope down to the human message.
func providerMessage(err error) error {
	var se *stripe.Error
	if errors.As(err, &se) && se.Msg != "" {
		return errors.New(se.Msg)
	}
	return err
}
