package domain

const EventTypePaymentIntentSucceeded = "payment_intent.succeeded"

// PaymentIntent is the part of a processor payment intent the storefront needs.
type PaymentIntent struct {
	ID           string
	ClientSecret string
}

// PaymentEvent is a verified webhook notification from the payment processor.
type PaymentEvent struct {
	ID              string
	Type            string
	PaymentIntentID string
	OrderID         string
}
