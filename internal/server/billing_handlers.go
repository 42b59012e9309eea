package server

import (
	"inkwell/internal/service"

	"github.com/gofiber/fiber/v2"
)

// StartCheckout handles POST /dashboard/billing/checkout
func (s *Server) StartCheckout(c *fiber.Ctx) error {
	out, err := s.billingService.StartCheckout(c.UserContext(), currentUserID(c))
	if err != nil {
		return err
	}
	return respondOutcome(c, out)
}

// StripeWebhook handles POST /api/webhooks/stripe
// @Summary Receive a signed Stripe webhook
// @Tags billing
// @Param Stripe-Signature header string true "Webhook signature"
// @Success 200
// @Failure 422 {object} models.ErrorResponse
// @Router /webhooks/stripe [post]
func (s *Server) StripeWebhook(c *fiber.Ctx) error {
	if err := s.billingService.HandleWebhook(c.UserContext(), c.Body(), c.Get("Stripe-Signature")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"received": true})
}

// PaymentSuccess handles GET /dashboard/payment/success
func (s *Server) PaymentSuccess(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "success", "next": service.SitesLocation})
}

// PaymentCancelled handles GET /dashboard/payment/cancelled
func (s *Server) PaymentCancelled(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "cancelled", "next": service.PricingLocation})
}
