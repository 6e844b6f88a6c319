package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/litartclub/gallery/httpx"
	"github.com/litartclub/gallery/internal/models"
	"github.com/litartclub/gallery/internal/payments"
	"github.com/litartclub/gallery/internal/services"
	"github.com/litartclub/gallery/internal/session"
	"github.com/litartclub/gallery/view"
)

type CartHandler struct {
	checkout *services.CheckoutService
}

func NewCartHandler(checkout *services.CheckoutService) *CartHandler {
	return &CartHandler{checkout: checkout}
}

func (h *CartHandler) Show(w http.ResponseWriter, r *http.Request) {
	cart := services.CartFromRequest(r)
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{"items": cart.Items, "total": cart.Total()})
		return
	}
	view.Render(w, r, "cart.html", map[string]any{
		"Items": cart.Items,
		"Total": cart.Total(),
	})
}

func (h *CartHandler) Add(w http.ResponseWriter, r *http.Request) {
	price, _ := strconv.ParseFloat(r.FormValue("price"), 64)
	item := models.CartItem{
		ArtworkID: r.FormValue("id"),
		Title:     r.FormValue("title"),
		Artist:    r.FormValue("artist"),
		Price:     price,
	}
	if item.ArtworkID == "" {
		renderError(w, r, "cart.html", http.StatusBadRequest, "Missing artwork id")
		return
	}

	cart := services.CartFromRequest(r)
	cart.Add(item)
	cart.Save(w)

	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{"items": cart.Items, "total": cart.Total()})
		return
	}
	http.Redirect(w, r, "/cart", http.StatusSeeOther)
}

func (h *CartHandler) Remove(w http.ResponseWriter, r *http.Request) {
	cart := services.CartFromRequest(r)
	cart.Remove(r.FormValue("id"))
	cart.Save(w)

	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{"items": cart.Items, "total": cart.Total()})
		return
	}
	http.Redirect(w, r, "/cart", http.StatusSeeOther)
}

// Checkout renders the payment form and places the order on POST.
func (h *CartHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	ident, ok := session.FromContext(r.Context())
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	cart := services.CartFromRequest(r)

	if r.Method == http.MethodGet {
		view.Render(w, r, "checkout.html", map[string]any{
			"Items": cart.Items,
			"Total": cart.Total(),
		})
		return
	}

	shipping := models.ShippingInfo{
		Name:    r.FormValue("name"),
		Address: r.FormValue("address"),
		City:    r.FormValue("city"),
		State:   r.FormValue("state"),
		ZipCode: r.FormValue("zipCode"),
		Country: r.FormValue("country"),
	}
	if violations := h.checkout.ValidateShipping(shipping); len(violations) > 0 {
		if httpx.WantsJSON(r) {
			httpx.JSONError(w, http.StatusBadRequest, "validation failed", violations)
			return
		}
		view.Render(w, r, "checkout.html", map[string]any{
			"Error":      "Please fix the highlighted fields",
			"Violations": violations,
			"Items":      cart.Items,
			"Total":      cart.Total(),
		})
		return
	}

	expMonth, _ := strconv.ParseInt(r.FormValue("expMonth"), 10, 64)
	expYear, _ := strconv.ParseInt(r.FormValue("expYear"), 10, 64)
	card := payments.Card{
		Number:   r.FormValue("cardNumber"),
		ExpMonth: expMonth,
		ExpYear:  expYear,
		CVC:      r.FormValue("cvc"),
	}

	if err := h.checkout.Pay(r.Context(), ident, cart, shipping, card); err != nil {
		renderError(w, r, "checkout.html", http.StatusBadRequest, paymentMessage(err))
		return
	}

	services.DeleteCart(w)
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{"message": "Payment successful"})
		return
	}
	view.Render(w, r, "checkout.html", map[string]any{"Success": "Payment successful! Thank you for your purchase."})
}

func paymentMessage(err error) string {
	switch {
	case errors.Is(err, services.ErrEmptyCart):
		return services.ErrEmptyCart.Error()
	case errors.Is(err, payments.ErrOrderDeclined):
		return "Payment was declined. Please check your card details."
	default:
		return "Payment failed. Please try again."
	}
}
