package services

import (
	"context"
	"errors"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/litartclub/gallery/internal/models"
	"github.com/litartclub/gallery/internal/payments"
	"github.com/litartclub/gallery/internal/session"
	"github.com/litartclub/gallery/validation"
)

// ErrEmptyCart rejects a checkout with nothing in it.
var ErrEmptyCart = errors.New("your cart is empty")

// CheckoutService tokenizes the card and posts the order. There is no
// idempotency key and no retry; a declined or failed order surfaces to
// the form and the cart is left intact.
type CheckoutService struct {
	tokenizer payments.Tokenizer
	orders    *payments.OrderClient
	log       *logrus.Entry
}

func NewCheckoutService(tokenizer payments.Tokenizer, orders *payments.OrderClient, log *logrus.Logger) *CheckoutService {
	return &CheckoutService{tokenizer: tokenizer, orders: orders, log: log.WithField("component", "checkout")}
}

// ValidateShipping checks the shipping form.
func (s *CheckoutService) ValidateShipping(info models.ShippingInfo) validation.Violations {
	v := validation.Violations{}
	validation.Required("name", info.Name, v)
	validation.Required("address", info.Address, v)
	validation.Required("city", info.City, v)
	validation.Required("zipCode", info.ZipCode, v)
	validation.Required("country", info.Country, v)
	return v
}

// Pay tokenizes the card, then posts the payment-method token with the
// order contents to the order endpoint. Amount is converted to cents.
func (s *CheckoutService) Pay(ctx context.Context, ident session.Identity, cart Cart, shipping models.ShippingInfo, card payments.Card) error {
	if len(cart.Items) == 0 {
		return ErrEmptyCart
	}

	paymentMethodID, err := s.tokenizer.Tokenize(ctx, card)
	if err != nil {
		s.log.WithError(err).Warn("card tokenization failed")
		return err
	}

	order := payments.Order{
		PaymentMethodID: paymentMethodID,
		Amount:          int64(math.Round(cart.Total() * 100)),
		ShippingInfo:    shipping,
		Items:           cart.Items,
		UserID:          ident.UserID,
	}
	if err := s.orders.Create(ctx, order); err != nil {
		s.log.WithError(err).Warn("order creation failed")
		return err
	}
	return nil
}
