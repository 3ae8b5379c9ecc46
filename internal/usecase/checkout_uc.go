// File: internal/usecase/checkout_uc.go
package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"lms-access-billing/internal/domain"
	"lms-access-billing/internal/domain/model"
	"lms-access-billing/internal/domain/ports/adapter"
	"lms-access-billing/internal/domain/ports/repository"
)

// Compile-time check
var _ CheckoutUseCase = (*checkoutUC)(nil)

// Buyer identifies the purchaser in an inbound shop event. Username is the
// shop's stable user key (an email in practice).
type Buyer struct {
	Username  string
	FirstName string
	LastName  string
	Phone     string
}

// RecurringData is present on a checkout that established a card-on-file
// authorization.
type RecurringData struct {
	Provider string
	Method   model.PaymentMethod
	RebillID string
	CardMask string
	ExpDate  string
	Amount   decimal.Decimal
}

// CheckoutInput is a paid-order event from the shop.
type CheckoutInput struct {
	OrderID           string
	EventTime         time.Time
	Buyer             Buyer
	ProductShopID     string
	ProductName       string
	Amount            decimal.Decimal
	ExternalPaymentID string
	Method            model.PaymentMethod
	Provider          string
	StartAt           *time.Time
	EndAt             *time.Time
	Recurring         *RecurringData
}

// RefundInput is an order-refunded event from the shop.
type RefundInput struct {
	OrderID           string
	EventTime         time.Time
	ExternalPaymentID string
}

// PromoInput grants a complimentary subscription window.
type PromoInput struct {
	EventID   string
	EventTime time.Time
	Buyer     Buyer
}

// CheckoutUseCase ingests the three shop event types. Each handler is
// idempotent on its event key, so redelivery is safe.
type CheckoutUseCase interface {
	ProcessCheckout(ctx context.Context, in CheckoutInput) error
	ProcessRefund(ctx context.Context, in RefundInput) error
	ProcessPromo(ctx context.Context, in PromoInput) error
}

type checkoutUC struct {
	tm                repository.TransactionManager
	directory         repository.DirectoryRepository
	records           repository.AccessRecordRepository
	recurrings        repository.RecurringRepository
	payments          repository.PaymentRepository
	instruments       repository.PaymentInstrumentRepository
	access              AccessUseCase
	cache               adapter.WindowCache
	notify              adapter.NotificationDispatcher
	promoShopID         string
	promoLifetimeDays   int
	defaultLifetimeDays int
	log                 *zerolog.Logger
}

func NewCheckoutUseCase(
	tm repository.TransactionManager,
	directory repository.DirectoryRepository,
	records repository.AccessRecordRepository,
	recurrings repository.RecurringRepository,
	payments repository.PaymentRepository,
	instruments repository.PaymentInstrumentRepository,
	access AccessUseCase,
	cache adapter.WindowCache,
	notify adapter.NotificationDispatcher,
	promoShopID string,
	promoLifetimeDays int,
	defaultLifetimeDays int,
	logger *zerolog.Logger,
) *checkoutUC {
	l := logger.With().Str("component", "checkout_uc").Logger()
	return &checkoutUC{
		tm:                  tm,
		directory:           directory,
		records:             records,
		recurrings:          recurrings,
		payments:            payments,
		instruments:         instruments,
		access:              access,
		cache:               cache,
		notify:              notify,
		promoShopID:         promoShopID,
		promoLifetimeDays:   promoLifetimeDays,
		defaultLifetimeDays: defaultLifetimeDays,
		log:                 &l,
	}
}

func (u *checkoutUC) ProcessCheckout(ctx context.Context, in CheckoutInput) error {
	var ownerID string
	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		owner, err := u.directory.FindOrCreateOwner(ctx, tx, &model.Owner{
			Username:  in.Buyer.Username,
			FirstName: in.Buyer.FirstName,
			LastName:  in.Buyer.LastName,
			Phone:     in.Buyer.Phone,
		})
		if err != nil {
			return err
		}
		ownerID = owner.ID

		// A product seen for the first time gets the configured lifetime so
		// a recurring cycle built on it can always advance.
		product, err := u.directory.FindOrCreateProduct(ctx, tx, in.ProductShopID, in.ProductName, u.defaultLifetimeDays)
		if err != nil {
			return err
		}

		// Window boundaries are whole days: starts at midnight, ends at
		// the last second of the end date.
		start := startOfDay(in.EventTime)
		if in.StartAt != nil {
			start = startOfDay(*in.StartAt)
		}
		var end *time.Time
		if in.EndAt != nil {
			e := endOfDay(*in.EndAt)
			end = &e
		}

		if err := u.access.GrantWithin(ctx, tx, GrantInput{
			OrderID:   in.OrderID,
			OwnerID:   owner.ID,
			ProductID: product.ID,
			StartAt:   start,
			EndAt:     end,
			EventTime: in.EventTime,
		}); err != nil {
			return err
		}

		externalID := in.ExternalPaymentID
		if externalID == "" {
			externalID = "order-" + in.OrderID
		}
		paidAt := in.EventTime
		payment := &model.Payment{
			ID:                uuid.NewString(),
			ExternalPaymentID: externalID,
			OrderID:           in.OrderID,
			OwnerID:           &owner.ID,
			ProductID:         &product.ID,
			IsRecurrent:       in.Recurring != nil,
			Source:            model.PaymentSourceSite,
			Provider:          in.Provider,
			Method:            in.Method,
			Status:            model.PaymentStatusPaid,
			Amount:            in.Amount,
			PaidAt:            &paidAt,
		}
		if err := u.payments.Upsert(ctx, tx, payment); err != nil {
			return err
		}

		if in.Recurring != nil {
			if err := u.setupRecurring(ctx, tx, owner, product, in, end); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	u.afterCommit(ctx, ownerID, in.OrderID)
	return nil
}

// setupRecurring stores the card-on-file instrument and creates or refreshes
// the owner's recurring subscription for the purchased product.
func (u *checkoutUC) setupRecurring(ctx context.Context, tx repository.Tx, owner *model.Owner, product *model.Product, in CheckoutInput, windowEnd *time.Time) error {
	rd := in.Recurring
	method := rd.Method
	if method == "" {
		method = model.PaymentMethodCardRecurrent
	}
	inst, err := u.instruments.UpsertByNaturalKey(ctx, tx, &model.PaymentInstrument{
		ID:       uuid.NewString(),
		OwnerID:  owner.ID,
		Provider: rd.Provider,
		Method:   method,
		CardMask: rd.CardMask,
		ExpDate:  rd.ExpDate,
		RebillID: rd.RebillID,
		Status:   model.InstrumentStatusActive,
	})
	if err != nil {
		return err
	}

	next := in.EventTime.Add(time.Duration(product.LifetimeDays) * 24 * time.Hour)
	if windowEnd != nil {
		next = *windowEnd
	}
	amount := rd.Amount
	if amount.IsZero() {
		amount = in.Amount
	}

	sub, err := u.recurrings.FindByOwner(ctx, tx, owner.ID)
	if errors.Is(err, domain.ErrNotFound) {
		sub = &model.RecurringSubscription{
			ID:           uuid.NewString(),
			OwnerID:      owner.ID,
			ProductID:    product.ID,
			InstrumentID: &inst.ID,
			Status:       model.RecurringStatusActive,
			Amount:       amount,
			NextChargeAt: &next,
		}
		return u.recurrings.Save(ctx, tx, sub)
	}
	if err != nil {
		return err
	}
	// A repeat purchase reactivates and rebases the existing subscription.
	sub.ProductID = product.ID
	sub.InstrumentID = &inst.ID
	sub.Status = model.RecurringStatusActive
	sub.Amount = amount
	sub.NextChargeAt = &next
	return u.recurrings.Save(ctx, tx, sub)
}

func (u *checkoutUC) ProcessRefund(ctx context.Context, in RefundInput) error {
	if err := u.access.Revoke(ctx, in.OrderID, in.EventTime); err != nil {
		return err
	}
	externalID := in.ExternalPaymentID
	if externalID == "" {
		externalID = "order-" + in.OrderID
	}
	payment, err := u.payments.FindByExternalID(ctx, repository.NoTX, externalID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	payment.Status = model.PaymentStatusRefunded
	return u.payments.Upsert(ctx, repository.NoTX, payment)
}

func (u *checkoutUC) ProcessPromo(ctx context.Context, in PromoInput) error {
	orderID := "promo-" + in.EventID
	var ownerID string
	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		owner, err := u.directory.FindOrCreateOwner(ctx, tx, &model.Owner{
			Username:  in.Buyer.Username,
			FirstName: in.Buyer.FirstName,
			LastName:  in.Buyer.LastName,
			Phone:     in.Buyer.Phone,
		})
		if err != nil {
			return err
		}
		ownerID = owner.ID

		// Promo access is for users without a subscription; paying users
		// and trial stackers are rejected.
		active, err := u.records.HasActiveAccess(ctx, tx, owner.ID, model.ProductKindSubscription, time.Now())
		if err != nil {
			return err
		}
		if !active {
			active, err = u.recurrings.HasActiveForOwner(ctx, tx, owner.ID)
			if err != nil {
				return err
			}
		}
		if active {
			return domain.ErrActiveSubscriptionExists
		}

		product, err := u.directory.FindProductByShopID(ctx, tx, u.promoShopID)
		if err != nil {
			return err
		}
		lifetime := u.promoLifetimeDays
		if product.LifetimeDays > 0 {
			lifetime = product.LifetimeDays
		}
		end := in.EventTime.Add(time.Duration(lifetime) * 24 * time.Hour)
		return u.access.GrantWithin(ctx, tx, GrantInput{
			OrderID:   orderID,
			OwnerID:   owner.ID,
			ProductID: product.ID,
			StartAt:   in.EventTime,
			EndAt:     &end,
			EventTime: in.EventTime,
		})
	})
	if err != nil {
		return err
	}
	u.afterCommit(ctx, ownerID, orderID)
	return nil
}

func (u *checkoutUC) afterCommit(ctx context.Context, ownerID, orderID string) {
	if ownerID == "" {
		return
	}
	if u.cache != nil {
		if err := u.cache.InvalidateOwner(ctx, ownerID); err != nil {
			u.log.Warn().Err(err).Str("owner_id", ownerID).Msg("cache invalidation failed")
		}
	}
	if u.notify != nil {
		u.notify.NotifyAccessGranted(ctx, ownerID, orderID)
	}
}
