// Package models defines the rows and transient values the gallery
// works with. The table schemas themselves are owned by the hosted
// backend; these structs only mirror them.
package models

import "time"

// Category is the artwork category enumeration, restricted client-side.
type Category string

const (
	CategoryPainting    Category = "painting"
	CategoryDigital     Category = "digital"
	CategorySculpture   Category = "sculpture"
	CategoryPhotography Category = "photography"
)

// Categories lists the accepted values in display order.
var Categories = []Category{
	CategoryPainting,
	CategoryDigital,
	CategorySculpture,
	CategoryPhotography,
}

// Valid reports whether the category is one of the accepted values.
func (c Category) Valid() bool {
	for _, cat := range Categories {
		if c == cat {
			return true
		}
	}
	return false
}

// Profile is a user's public profile, keyed one-to-one by the owning
// identity's id (upsert semantics).
type Profile struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Bio       string `json:"bio"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// Artwork is a gallery piece. Rows are created by the upload flow and
// never updated or deleted by this application.
type Artwork struct {
	ID          string    `json:"id,omitempty"`
	Title       string    `json:"title"`
	Artist      string    `json:"artist,omitempty"`
	Description string    `json:"description"`
	Category    Category  `json:"category"`
	Price       float64   `json:"price"`
	ImageURL    string    `json:"image_url"`
	UserID      string    `json:"user_id"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
}

// CartItem lives only in the browser's cart cookie for the duration of
// a checkout; nothing persists it server-side.
type CartItem struct {
	ArtworkID string  `json:"id"`
	Title     string  `json:"title"`
	Artist    string  `json:"artist"`
	Price     float64 `json:"price"`
}

// ShippingInfo is the checkout shipping form.
type ShippingInfo struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zipCode"`
	Country string `json:"country"`
}
