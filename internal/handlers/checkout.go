package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/checkout"
)

func (h *Handler) BeginCheckout(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	co, err := h.Checkout.Begin(c.Request.Context(), sess)
	if err != nil {
		h.checkoutResponse(c, nil, err)
		return
	}
	c.JSON(http.StatusCreated, co.View())
}

func (h *Handler) GetCheckout(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	co, err := h.Checkout.Get(c.Request.Context(), sess, c.Param("id"))
	h.checkoutResponse(c, co, err)
}

func (h *Handler) EditShipping(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	fields, _, err := bindFields(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	co, err := h.Checkout.EditShipping(c.Request.Context(), sess, c.Param("id"), fields)
	h.checkoutResponse(c, co, err)
}

func (h *Handler) EditBilling(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	fields, same, err := bindFields(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	co, err := h.Checkout.EditBilling(c.Request.Context(), sess, c.Param("id"), same, fields)
	h.checkoutResponse(c, co, err)
}

func (h *Handler) EditPayment(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	fields, _, err := bindFields(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	co, err := h.Checkout.EditPayment(c.Request.Context(), sess, c.Param("id"), fields)
	h.checkoutResponse(c, co, err)
}

func (h *Handler) NextStep(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	co, err := h.Checkout.Next(c.Request.Context(), sess, c.Param("id"))
	h.checkoutResponse(c, co, err)
}

func (h *Handler) PreviousStep(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	co, err := h.Checkout.Back(c.Request.Context(), sess, c.Param("id"))
	h.checkoutResponse(c, co, err)
}

type stepInput struct {
	Step checkout.Step `json:"step" binding:"required"`
}

func (h *Handler) GoToStep(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	var in stepInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	co, err := h.Checkout.GoTo(c.Request.Context(), sess, c.Param("id"), in.Step)
	h.checkoutResponse(c, co, err)
}

func (h *Handler) SubmitOrder(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	co, err := h.Checkout.Submit(c.Request.Context(), sess, c.Param("id"))
	h.checkoutResponse(c, co, err)
}

func (h *Handler) AbandonCheckout(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	if err := h.Checkout.Abandon(c.Request.Context(), sess, c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// checkoutResponse always sends the masked checkout when there is one, so
// the form can show its field errors next to the data.
func (h *Handler) checkoutResponse(c *gin.Context, co *checkout.Checkout, err error) {
	if err == nil {
		c.JSON(http.StatusOK, co.View())
		return
	}
	if co == nil {
		h.fail(c, err)
		return
	}

	view := co.View()
	switch {
	case errors.Is(err, checkout.ErrValidation), errors.Is(err, checkout.ErrEmptyCart):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": co.Errors, "checkout": view})
	case errors.Is(err, checkout.ErrSubmit):
		c.JSON(http.StatusBadGateway, gin.H{"errors": co.Errors, "checkout": view})
	case errors.Is(err, checkout.ErrInvalidTransition), errors.Is(err, checkout.ErrPlaced):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "checkout": view})
	default:
		h.fail(c, err)
	}
}

// bindFields reads a flat JSON object of field name to string value. The
// optional sameAsShipping flag is returned separately.
func bindFields(c *gin.Context) (map[string]string, *bool, error) {
	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil {
		return nil, nil, errors.New("invalid body")
	}

	var same *bool
	fields := make(map[string]string, len(body))
	for name, v := range body {
		if name == "sameAsShipping" {
			b, ok := v.(bool)
			if !ok {
				return nil, nil, errors.New("sameAsShipping must be a boolean")
			}
			same = &b
			continue
		}
		s, ok := v.(string)
		if !ok {
			return nil, nil, fmt.Errorf("field %q must be a string", name)
		}
		fields[name] = s
	}
	return fields, same, nil
}
