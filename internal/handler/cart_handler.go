package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/course-registration-api/internal/dto"
	"github.com/noah-isme/course-registration-api/internal/models"
	"github.com/noah-isme/course-registration-api/pkg/response"
)

type cartService interface {
	AddToCart(ctx context.Context, actor models.Actor, req dto.AddToCartRequest) (*models.CartItem, error)
	ViewCart(ctx context.Context, studentID string) (*dto.CartView, error)
	RemoveFromCart(ctx context.Context, actor models.Actor, itemID string) error
	ValidateCheckout(ctx context.Context, studentID string) (*dto.CheckoutValidation, error)
	EnrollFromCart(ctx context.Context, actor models.Actor) (*dto.CheckoutResult, error)
}

// CartHandler exposes the student cart and checkout endpoints.
type CartHandler struct {
	carts cartService
}

// NewCartHandler constructs CartHandler.
func NewCartHandler(carts cartService) *CartHandler {
	return &CartHandler{carts: carts}
}

// AddItem godoc
// @Summary Add a schedule slot to the cart
// @Tags Cart
// @Accept json
// @Produce json
// @Param payload body dto.AddToCartRequest true "Cart item"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /cart/items [post]
func (h *CartHandler) AddItem(c *gin.Context) {
	actor, ok := currentStudent(c)
	if !ok {
		return
	}
	var req dto.AddToCartRequest
	if !bindJSON(c, &req) {
		return
	}
	item, err := h.carts.AddToCart(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// View godoc
// @Summary View the caller's cart
// @Tags Cart
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /cart [get]
func (h *CartHandler) View(c *gin.Context) {
	actor, ok := currentStudent(c)
	if !ok {
		return
	}
	view, err := h.carts.ViewCart(c.Request.Context(), actor.StudentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, view)
}

// RemoveItem godoc
// @Summary Remove an item from the cart
// @Tags Cart
// @Param id path string true "Cart item ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /cart/items/{id} [delete]
func (h *CartHandler) RemoveItem(c *gin.Context) {
	actor, ok := currentStudent(c)
	if !ok {
		return
	}
	if err := h.carts.RemoveFromCart(c.Request.Context(), actor, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ValidateCheckout godoc
// @Summary Preview checkout without enrolling
// @Tags Cart
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /cart/checkout/validate [get]
func (h *CartHandler) ValidateCheckout(c *gin.Context) {
	actor, ok := currentStudent(c)
	if !ok {
		return
	}
	result, err := h.carts.ValidateCheckout(c.Request.Context(), actor.StudentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}

// Checkout godoc
// @Summary Enroll in every section in the cart
// @Tags Cart
// @Produce json
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /cart/checkout [post]
func (h *CartHandler) Checkout(c *gin.Context) {
	actor, ok := currentStudent(c)
	if !ok {
		return
	}
	result, err := h.carts.EnrollFromCart(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, result, nil)
}
