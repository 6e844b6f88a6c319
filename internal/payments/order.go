package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/litartclub/gallery/internal/models"
)

// ErrOrderDeclined is returned when the order endpoint reports failure
// without a message of its own.
var ErrOrderDeclined = errors.New("order was not accepted")

// Order is the payload posted to the order endpoint. Amount is in cents.
type Order struct {
	PaymentMethodID string              `json:"paymentMethodId"`
	Amount          int64               `json:"amount"`
	ShippingInfo    models.ShippingInfo `json:"shippingInfo"`
	Items           []models.CartItem   `json:"items"`
	UserID          string              `json:"userId"`
}

// OrderClient posts orders to the external order-creation endpoint.
// No idempotency key, no retry.
type OrderClient struct {
	endpoint   string
	httpClient *http.Client
}

func NewOrderClient(endpoint string) *OrderClient {
	return &OrderClient{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Create submits the order and interprets the {success, error?} reply.
func (c *OrderClient) Create(ctx context.Context, order Order) error {
	body, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("marshal order: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post order: %w", err)
	}
	defer resp.Body.Close()

	var result struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("decode order response: %w", err)
	}
	if !result.Success {
		if result.Error != "" {
			return fmt.Errorf("order endpoint: %s", result.Error)
		}
		return ErrOrderDeclined
	}
	return nil
}
