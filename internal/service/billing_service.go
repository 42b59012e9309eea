package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"inkwell/internal/billing"
	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/observability"
	"inkwell/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// BillingConfig carries the checkout parameters that come from configuration.
type BillingConfig struct {
	PriceID    string
	SuccessURL string
	CancelURL  string
}

// BillingService starts checkouts and mirrors subscription state from webhooks.
type BillingService struct {
	users   repository.UserRepository
	subs    repository.SubscriptionRepository
	gateway billing.Gateway
	cfg     BillingConfig
}

func NewBillingService(
	users repository.UserRepository,
	subs repository.SubscriptionRepository,
	gateway billing.Gateway,
	cfg BillingConfig,
) *BillingService {
	return &BillingService{users: users, subs: subs, gateway: gateway, cfg: cfg}
}

// StartCheckout makes sure the user has a billing customer and returns the
// hosted checkout page as the redirect target.
func (s *BillingService) StartCheckout(ctx context.Context, userID string) (out Outcome, err error) {
	ctx, span := observability.StartSpan(ctx, "service", "StartCheckout", attribute.String("user.id", userID))
	defer func() {
		result := "ok"
		if err != nil {
			result = "error"
		}
		observability.CheckoutSessions.WithLabelValues(result).Inc()
		observability.EndSpan(span, err)
	}()

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return Outcome{}, err
	}

	customerID, err := s.ensureCustomer(ctx, user)
	if err != nil {
		return Outcome{}, err
	}

	session, err := s.gateway.CreateCheckoutSession(ctx, billing.CheckoutRequest{
		UserID:     user.ID,
		CustomerID: customerID,
		PriceID:    s.cfg.PriceID,
		SuccessURL: s.cfg.SuccessURL,
		CancelURL:  s.cfg.CancelURL,
	})
	if err != nil {
		return Outcome{}, models.NewInternalError(err)
	}

	middleware.Logger.InfoContext(ctx, "Checkout session created", slog.String("session_id", session.ID))
	return Success(session.URL), nil
}

// ensureCustomer returns the user's billing customer, creating it if needed.
// Two concurrent first checkouts send the same idempotency key, and only one
// of them can fill the empty customer_id column; the loser adopts the stored id.
func (s *BillingService) ensureCustomer(ctx context.Context, user *models.User) (string, error) {
	if user.HasCustomer() {
		return *user.CustomerID, nil
	}

	customerID, err := s.gateway.CreateCustomer(ctx, billing.CustomerRequest{
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.DisplayName(),
	})
	if err != nil {
		return "", models.NewInternalError(err)
	}

	won, err := s.users.SetCustomerIDIfEmpty(ctx, user.ID, customerID)
	if err != nil {
		return "", err
	}
	if won {
		return customerID, nil
	}

	stored, err := s.users.GetByID(ctx, user.ID)
	if err != nil {
		return "", err
	}
	if !stored.HasCustomer() {
		return "", models.NewInternalError(fmt.Errorf("customer id for user %s vanished", user.ID))
	}
	return *stored.CustomerID, nil
}

// HandleWebhook verifies a provider notification and upserts the subscription
// it describes. Events for unknown customers or types are acknowledged and dropped.
func (s *BillingService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	evt, err := s.gateway.ParseWebhook(payload, signature)
	if err != nil {
		if errors.Is(err, billing.ErrUnhandledEvent) {
			observability.WebhookEvents.WithLabelValues(eventType(evt), "ignored").Inc()
			return nil
		}
		observability.WebhookEvents.WithLabelValues("unknown", "rejected").Inc()
		return models.NewValidationError("invalid webhook payload or signature")
	}

	sub := evt.Subscription
	if sub == nil {
		if evt.SubscriptionID == "" {
			observability.WebhookEvents.WithLabelValues(evt.Type, "ignored").Inc()
			return nil
		}
		if sub, err = s.gateway.GetSubscription(ctx, evt.SubscriptionID); err != nil {
			observability.WebhookEvents.WithLabelValues(evt.Type, "error").Inc()
			return models.NewInternalError(err)
		}
	}

	customerID := sub.CustomerID
	if customerID == "" {
		customerID = evt.CustomerID
	}
	user, err := s.users.GetByCustomerID(ctx, customerID)
	if err != nil {
		if models.IsNotFound(err) {
			middleware.Logger.WarnContext(ctx, "Webhook for unknown billing customer",
				slog.String("event_id", evt.ID), slog.String("customer_id", customerID))
			observability.WebhookEvents.WithLabelValues(evt.Type, "ignored").Inc()
			return nil
		}
		return err
	}

	if err := s.subs.Upsert(ctx, &models.Subscription{
		StripeSubscriptionID: sub.ID,
		UserID:               user.ID,
		Status:               sub.Status,
		PlanID:               sub.PriceID,
		Interval:             sub.Interval,
		CurrentPeriodStart:   sub.CurrentPeriodStart,
		CurrentPeriodEnd:     sub.CurrentPeriodEnd,
	}); err != nil {
		observability.WebhookEvents.WithLabelValues(evt.Type, "error").Inc()
		return err
	}

	observability.WebhookEvents.WithLabelValues(evt.Type, "ok").Inc()
	middleware.Logger.InfoContext(ctx, "Subscription synced",
		slog.String("user_id", user.ID), slog.String("status", sub.Status))
	return nil
}

func eventType(evt *billing.Event) string {
	if evt == nil || evt.Type == "" {
		return "unknown"
	}
	return evt.Type
}
