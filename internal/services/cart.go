package services

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/litartclub/gallery/internal/models"
	"github.com/litartclub/gallery/internal/session"
)

const cartCookieName = "cart"

// Cart is the transient checkout cart. It lives only in a signed
// browser cookie; nothing persists it server-side.
type Cart struct {
	Items []models.CartItem `json:"items"`
}

// Add appends an item unless it is already present.
func (c *Cart) Add(item models.CartItem) {
	for _, existing := range c.Items {
		if existing.ArtworkID == item.ArtworkID {
			return
		}
	}
	c.Items = append(c.Items, item)
}

// Remove drops an item by artwork id.
func (c *Cart) Remove(artworkID string) {
	items := c.Items[:0]
	for _, item := range c.Items {
		if item.ArtworkID != artworkID {
			items = append(items, item)
		}
	}
	c.Items = items
}

// Clear empties the cart.
func (c *Cart) Clear() { c.Items = nil }

// Total sums the item prices.
func (c *Cart) Total() float64 {
	var total float64
	for _, item := range c.Items {
		total += item.Price
	}
	return total
}

// CartFromRequest reads the signed cart cookie; a missing or tampered
// cookie yields an empty cart.
func CartFromRequest(r *http.Request) Cart {
	var cart Cart
	c, err := r.Cookie(cartCookieName)
	if err != nil || c.Value == "" {
		return cart
	}
	parts := strings.Split(c.Value, ".")
	if len(parts) != 2 || !session.Verify(parts[0], parts[1]) {
		return cart
	}
	payload, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return Cart{}
	}
	if err := json.Unmarshal(payload, &cart); err != nil {
		return Cart{}
	}
	return cart
}

// Save writes the cart back to the browser.
func (c *Cart) Save(w http.ResponseWriter) {
	payload, err := json.Marshal(c)
	if err != nil {
		return
	}
	value := base64.RawURLEncoding.EncodeToString(payload)
	http.SetCookie(w, &http.Cookie{
		Name:     cartCookieName,
		Value:    value + "." + session.Sign(value),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(24 * time.Hour),
	})
}

// Delete removes the cart cookie.
func DeleteCart(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{Name: cartCookieName, Value: "", Path: "/", Expires: time.Unix(0, 0), HttpOnly: true, SameSite: http.SameSiteLaxMode})
}
