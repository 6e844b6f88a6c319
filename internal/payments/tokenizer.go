// Package payments wraps the payment gateway's tokenization and the
// order-creation endpoint. Card data is converted into an opaque
// payment-method reference by the gateway; only that reference ever
// reaches the order endpoint.
package payments

import (
	"context"
	"fmt"

	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/paymentmethod"
)

// Card is the raw card input collected by the checkout form.
type Card struct {
	Number   string
	ExpMonth int64
	ExpYear  int64
	CVC      string
}

// Tokenizer converts raw card data into a payment-method identifier.
type Tokenizer interface {
	Tokenize(ctx context.Context, card Card) (string, error)
}

// StripeTokenizer tokenizes through the Stripe API.
type StripeTokenizer struct{}

// NewStripeTokenizer configures the gateway key once at startup.
func NewStripeTokenizer(secretKey string) *StripeTokenizer {
	stripe.Key = secretKey
	return &StripeTokenizer{}
}

// Tokenize creates a single-use card payment method.
func (t *StripeTokenizer) Tokenize(ctx context.Context, card Card) (string, error) {
	params := &stripe.PaymentMethodParams{
		Type: stripe.String(string(stripe.PaymentMethodTypeCard)),
		Card: &stripe.PaymentMethodCardParams{
			Number:   stripe.String(card.Number),
			ExpMonth: stripe.Int64(card.ExpMonth),
			ExpYear:  stripe.Int64(card.ExpYear),
			CVC:      stripe.String(card.CVC),
		},
	}
	params.Context = ctx

	pm, err := paymentmethod.New(params)
	if err != nil {
		return "", fmt.Errorf("tokenize card: %w", err)
	}
	return pm.ID, nil
}
