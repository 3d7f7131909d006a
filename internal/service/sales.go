package service

import (
	"context"
	"fmt"
	"time"

	apperrors "kassa/internal/errors"
	"kassa/internal/logger"
	"kassa/internal/metrics"
	"kassa/internal/models"
	"kassa/internal/repository"
)

// SalesService implements the sale channels: the payment webhook and the
// box-office POS. Both funnel into the inventory gate.
type SalesService struct {
	eventService     *EventService
	inventoryService *InventoryService
	orders           OrderStore
	verifier         PaymentVerifier
	publisher        Publisher
}

func NewSalesService(eventService *EventService, inventoryService *InventoryService, orders OrderStore, verifier PaymentVerifier, publisher Publisher) *SalesService {
	return &SalesService{
		eventService:     eventService,
		inventoryService: inventoryService,
		orders:           orders,
		verifier:         verifier,
		publisher:        publisher,
	}
}

// BoxOfficeSale finalizes an in-person sale. The pre-flight validation gives
// the cashier a fast rejection; the authoritative check runs again under the
// row lock inside FinalizeSale.
func (s *SalesService) BoxOfficeSale(ctx context.Context, req *models.BoxOfficeSaleRequest) (*models.BoxOfficeSaleResponse, error) {
	if err := s.eventService.ValidatePurchase(ctx, req.EventID, req.Quantity); err != nil {
		return nil, err
	}

	result, err := s.inventoryService.FinalizeSale(ctx, repository.SaleParams{
		EventID:  req.EventID,
		Quantity: req.Quantity,
		Channel:  models.ChannelBoxOffice,
	})
	if err != nil {
		return nil, err
	}

	return &models.BoxOfficeSaleResponse{
		OrderID:          result.OrderID,
		TicketsRemaining: result.TicketsRemaining,
		SoldOut:          result.SoldOut,
	}, nil
}

// HandlePaymentWebhook processes a delivery from the payment gateway. The
// payload is a tagged variant: checkout.completed finalizes a sale, unknown
// types are acknowledged and ignored explicitly. Redeliveries are
// at-most-once-effective through the ledger session id.
func (s *SalesService) HandlePaymentWebhook(ctx context.Context, payload *models.PaymentWebhookPayload) error {
	switch payload.Type {
	case models.WebhookCheckoutCompleted:
		return s.handleCheckoutCompleted(ctx, payload.Data)
	default:
		metrics.WebhooksIgnoredTotal.WithLabelValues(payload.Type).Inc()
		logger.WithContext(ctx).Info("Ignoring webhook of unknown type", "type", payload.Type)

		if s.publisher != nil {
			ignored := models.WebhookIgnoredEvent{Type: payload.Type, Timestamp: time.Now()}
			if err := s.publisher.Publish(models.EventWebhookIgnored, ignored); err != nil {
				logger.WithContext(ctx).Error("Failed to publish webhook ignored event",
					"error", err, "event_type", models.EventWebhookIgnored)
			}
		}
		return nil
	}
}

func (s *SalesService) handleCheckoutCompleted(ctx context.Context, data *models.CheckoutCompletedData) error {
	if data == nil {
		return fmt.Errorf("checkout.completed payload missing data")
	}
	if data.EventID == 0 || data.SessionID == "" {
		return fmt.Errorf("checkout.completed payload missing event_id or session_id")
	}
	if data.Quantity <= 0 {
		return apperrors.ErrInvalidQuantity
	}

	// Cross-check the payment with the gateway when possible. A gateway
	// that denies the payment means the delivery was bogus; a gateway we
	// cannot reach is a transient failure and the ledger stays truth.
	if s.verifier != nil && data.PaymentID != "" {
		confirmed, err := s.verifier.IsPaymentConfirmed(data.PaymentID)
		if err != nil {
			logger.WithContext(ctx).Warn("Payment verification unavailable, trusting webhook",
				"error", err, "payment_id", data.PaymentID)
		} else if !confirmed {
			metrics.WebhooksIgnoredTotal.WithLabelValues("unconfirmed_payment").Inc()
			logger.WithContext(ctx).Warn("Webhook reported a payment the gateway does not confirm",
				"payment_id", data.PaymentID, "session_id", data.SessionID)
			return nil
		}
	}

	sessionID := data.SessionID
	params := repository.SaleParams{
		EventID:   data.EventID,
		Quantity:  data.Quantity,
		Channel:   models.ChannelOnline,
		SessionID: &sessionID,
	}
	if data.PaymentID != "" {
		paymentID := data.PaymentID
		params.PaymentID = &paymentID
	}

	_, err := s.inventoryService.FinalizeSale(ctx, params)
	switch err {
	case nil:
		return nil
	case apperrors.ErrDuplicateSale:
		// Redelivery; the sale is already on the ledger.
		return nil
	case apperrors.ErrSoldOut, apperrors.ErrInsufficientTickets:
		// The customer already paid, so the sale must be recorded even when
		// capacity ran out underneath it: append the ledger row and let the
		// clamped decrement keep the visible counter at zero.
		return s.recordOversoldSale(ctx, params)
	default:
		return err
	}
}

// recordOversoldSale appends the completed order and pushes it through the
// clamp-at-zero gate path. The projection stays non-negative and the ledger
// keeps the truth for reconciliation and refunds.
func (s *SalesService) recordOversoldSale(ctx context.Context, params repository.SaleParams) error {
	order := &models.Order{
		EventID:           params.EventID,
		Quantity:          params.Quantity,
		Status:            models.OrderStatusCompleted,
		Channel:           params.Channel,
		ExternalSessionID: params.SessionID,
		PaymentID:         params.PaymentID,
	}

	err := s.orders.Create(ctx, order)
	if err == apperrors.ErrDuplicateSale {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to record oversold sale: %w", err)
	}

	logger.WithEventID(params.EventID).Warn("Sale completed beyond capacity, counter clamped",
		"order_id", order.ID, "quantity", params.Quantity)

	if _, err := s.inventoryService.ApplyCompletedSale(ctx, params.EventID, params.Quantity); err != nil {
		// Ledger insert succeeded but the counter update failed: tolerated
		// degraded state, reconciliation repairs it.
		logger.WithEventID(params.EventID).Error("Counter update failed after ledger insert, awaiting reconciliation",
			"error", err, "order_id", order.ID)
	}

	return nil
}

// CancelOrder moves a pending order to cancelled. No inventory effect:
// pending orders never counted.
func (s *SalesService) CancelOrder(ctx context.Context, orderID int64, reason string) error {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return err
	}

	if err := s.orders.CancelPending(ctx, orderID); err != nil {
		return err
	}

	if s.publisher != nil {
		cancelled := models.OrderCancelledEvent{
			OrderID:   orderID,
			EventID:   order.EventID,
			Reason:    reason,
			Timestamp: time.Now(),
		}
		if err := s.publisher.Publish(models.EventOrderCancelled, cancelled); err != nil {
			logger.WithContext(ctx).Error("Failed to publish order cancelled event",
				"error", err, "order_id", orderID, "event_type", models.EventOrderCancelled)
		}
	}

	return nil
}
