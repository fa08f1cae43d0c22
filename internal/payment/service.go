package payment

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"paygateway/internal/common/database"
	"paygateway/internal/common/events"
		"paygateway/internal/payment/bank"
	"paygateway/internal/payment/domain"
	"paygateway/internal/payment/idempotency"
	"paygateway/internal/payment/store"
)

// DefaultBankTimeout bounds a single acquirer call
const DefaultBankTimeout = 10 * time.Second

// Service orchestrates validation, idempotency, bank submission and
// persistence of payments.
type Service struct {
	validator   *Validator
	guard       idempotency.Guard
	gateway     bank.Gateway
	store       store.Store
	publisher   events.EventPublisher
	bankTimeout time.Duration
	now         func() time.Time
	logger      *slog.Logger
}

// NewService creates a payment service
func NewService(validator *Validator, guard idempotency.Guard, gateway bank.Gateway, st store.Store, logger *slog.Logger) *Service {
	return &Service{
		validator:   validator,
		guard:       guard,
		gateway:     gateway,
		store:       st,
		publisher:   events.NopPublisher{},
		bankTimeout: DefaultBankTimeout,
		now:         func() time.Time { return time.Now().UTC() },
		logger:      logger,
	}
}

// SetPublisher sets the event publisher.
func (s *Service) SetPublisher(p events.EventPublisher) { s.publisher = p }

// SetBankTimeout sets the deadline applied to each bank call.
func (s *Service) SetBankTimeout(d time.Duration) { s.bankTimeout = d }

// Submit processes a payment request under an idempotency key. The key also
// becomes the payment ID.
//
// Errors are *ValidationError, ErrIdempotencyKeyReused,
// ErrIdempotencyKeyBusy, *RejectedError, *BankError, or an unclassified
// infrastructure failure.
func (s *Service) Submit(ctx context.Context, key string, req Request) (*domain.StoredPayment, error) {
	intent, issues := s.validator.Validate(req).Get()
	if issues != nil {
		submissionsTotal.WithLabelValues("invalid").Inc()
		return nil, &ValidationError{Issues: issues}
	}

	check, err := s.guard.CheckOrLock(ctx, key, intent)
	if err != nil {
		submissionsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("check idempotency key: %w", err)
	}

	switch c := check.(type) {
	case idempotency.Cached:
		idempotencyChecksTotal.WithLabelValues("cached").Inc()
		s.logger.Info("replaying cached bank outcome", "idempotency_key", key, "outcome", bank.Kind(c.Outcome))
		return s.finish(ctx, key, intent, c.Outcome, true)

	case idempotency.LockObtained:
		idempotencyChecksTotal.WithLabelValues("locked").Inc()
		return s.submitLocked(ctx, c.Handle, intent)

	case idempotency.Conflict:
		idempotencyChecksTotal.WithLabelValues("conflict").Inc()
		submissionsTotal.WithLabelValues("conflict").Inc()
		return nil, ErrIdempotencyKeyReused

	case idempotency.Busy:
		idempotencyChecksTotal.WithLabelValues("busy").Inc()
		submissionsTotal.WithLabelValues("busy").Inc()
		return nil, ErrIdempotencyKeyBusy

	default:
		return nil, fmt.Errorf("unexpected idempotency result %T", check)
	}
}

// submitLocked runs while the caller owns the key. Once the bank has been
// called the work must finish even if the client goes away, so the pipeline
// is detached from the request's cancellation. The caller's deadline still
// bounds the bank call itself.
func (s *Service) submitLocked(ctx context.Context, h *idempotency.LockHandle, intent domain.PaymentIntent) (*domain.StoredPayment, error) {
	deadline, hasDeadline := ctx.Deadline()
	ctx = context.WithoutCancel(ctx)
	defer func() {
		if err := h.Release(ctx); err != nil {
			s.logger.Error("releasing idempotency lock", "idempotency_key", h.Key(), "error", err)
		}
	}()

	bankCtx, cancel := ctx, context.CancelFunc(func() {})
	if hasDeadline {
		bankCtx, cancel = context.WithDeadline(ctx, deadline)
	}
	outcome := s.callBank(bankCtx, intent)
	cancel()

	payment, resultErr := s.finish(ctx, h.Key(), intent, outcome, false)

	if err := s.guard.Commit(ctx, h, intent, outcome); err != nil {
		s.logger.Error("committing idempotency record",
			"idempotency_key", h.Key(),
			"outcome", bank.Kind(outcome),
			"error", err,
		)
	}

	return payment, resultErr
}

func (s *Service) callBank(ctx context.Context, intent domain.PaymentIntent) bank.Outcome {
	ctx, cancel := context.WithTimeout(ctx, s.bankTimeout)
	defer cancel()

	start := time.Now()
	outcome := s.gateway.Submit(ctx, intent)
	bankRequestDuration.WithLabelValues(bank.Kind(outcome)).Observe(time.Since(start).Seconds())
	return outcome
}

// finish maps a bank outcome to the caller's result, persisting authorized
// and declined payments.
func (s *Service) finish(ctx context.Context, id string, intent domain.PaymentIntent, outcome bank.Outcome, replay bool) (*domain.StoredPayment, error) {
	var payment *domain.StoredPayment

	switch o := outcome.(type) {
	case bank.Authorized:
		payment = domain.NewAuthorizedPayment(id, intent, o.Code, s.now())
	case bank.Declined:
		payment = domain.NewDeclinedPayment(id, intent, s.now())
	case bank.Rejected:
		submissionsTotal.WithLabelValues("rejected").Inc()
		msg := o.Message
		if msg == "" {
			msg = DefaultRejectionMessage
		}
		return nil, &RejectedError{Message: msg}
	case bank.CommunicationError:
		submissionsTotal.WithLabelValues(string(o.Reason)).Inc()
		return nil, &BankError{Reason: o.Reason}
	default:
		submissionsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("unexpected bank outcome %T", outcome)
	}

	stored, err := s.record(ctx, payment, replay)
	if err != nil {
		submissionsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	submissionsTotal.WithLabelValues(string(stored.Status)).Inc()
	return stored, nil
}

// record persists a payment once. On replay the stored copy wins so the
// caller sees exactly what the first request saw; it is re-created only if
// the store lost it.
func (s *Service) record(ctx context.Context, p *domain.StoredPayment, replay bool) (*domain.StoredPayment, error) {
	if replay {
		existing, err := s.store.Get(ctx, p.ID)
		if err == nil {
			return existing, nil
		}
		if !database.IsNotFound(err) {
			return nil, fmt.Errorf("get payment: %w", err)
		}
		s.logger.Warn("cached payment missing from store, recreating", "payment_id", p.ID)
	}

	if err := s.store.Put(ctx, p); err != nil {
		if database.IsAlreadyExists(err) {
			existing, getErr := s.store.Get(ctx, p.ID)
			if getErr != nil {
				return nil, fmt.Errorf("get payment: %w", getErr)
			}
			return existing, nil
		}
		return nil, fmt.Errorf("put payment: %w", err)
	}

	s.logger.Info("payment recorded",
		"payment_id", p.ID,
		"status", p.Status,
		"amount", p.AmountMinor,
		"currency", p.Currency,
	)
	s.publish(ctx, p)
	return p, nil
}

func (s *Service) publish(ctx context.Context, p *domain.StoredPayment) {
	eventType := events.EventPaymentDeclined
	if p.Status == domain.StatusAuthorized {
		eventType = events.EventPaymentAuthorized
	}

	event, err := events.NewEvent(eventType, "payment", p.ID, events.PaymentRecordedData{
		PaymentID:          p.ID,
		Status:             string(p.Status),
		CardNumberLastFour: p.CardNumberLastFour,
		Amount:             p.AmountMinor,
		Currency:           p.Currency,
		RecordedAt:         p.CreatedAt,
	})
	if err != nil {
		s.logger.Error("building payment event", "payment_id", p.ID, "error", err)
		return
	}
	event.WithCorrelation(events.CorrelationID(ctx))

	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Error("publishing payment event", "payment_id", p.ID, "type", eventType, "error", err)
	}
}

// Get returns a stored payment by ID
func (s *Service) Get(ctx context.Context, id string) (*domain.StoredPayment, error) {
	p, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get payment: %w", err)
	}
	return p, nil
}
