package service

import (
	"context"
	"errors"
	"time"

	"finbridge/internal/model"
	"finbridge/internal/repository"
	"finbridge/pkg/crypto"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// QueueEntry is an accepted offer joined with the payee's banking state for
// the admin payment queue. Account numbers are always masked here.
type QueueEntry struct {
	Offer           model.EarlyPaymentOffer `json:"offer"`
	SupplierEmail   string                  `json:"supplier_email"`
	BankName        string                  `json:"bank_name,omitempty"`
	MaskedAccount   string                  `json:"masked_account,omitempty"`
	BankingVerified bool                    `json:"banking_verified"`
}

// PaymentService defines the interface for the admin payment queue
type PaymentService interface {
	Queue(ctx context.Context, page, limit int) ([]QueueEntry, int64, error)
	DemoQueue(ctx context.Context) []QueueEntry
	Approve(ctx context.Context, adminID, offerID, ip, userAgent string) (*model.EarlyPaymentOffer, error)
	Execute(ctx context.Context, adminID, offerID, ip, userAgent string) (*model.EarlyPaymentOffer, error)
}

type paymentService struct {
	offers  repository.OfferRepository
	banking repository.BankingRepository
	users   repository.UserRepository
	cipher  *crypto.FieldCipher
	audit   AuditService
	logger  *zap.Logger
}

func NewPaymentService(
	offers repository.OfferRepository,
	banking repository.BankingRepository,
	users repository.UserRepository,
	cipher *crypto.FieldCipher,
	audit AuditService,
	logger *zap.Logger,
) PaymentService {
	return &paymentService{
		offers:  offers,
		banking: banking,
		users:   users,
		cipher:  cipher,
		audit:   audit,
		logger:  logger,
	}
}

func (s *paymentService) Queue(ctx context.Context, page, limit int) ([]QueueEntry, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	offers, total, err := s.offers.ListByStatus(ctx, model.OfferAccepted, page, limit)
	if err != nil {
		return nil, 0, err
	}

	entries := make([]QueueEntry, 0, len(offers))
	for _, offer := range offers {
		entry := QueueEntry{Offer: offer}

		if supplier, err := s.users.GetByID(ctx, offer.SupplierUserID.String()); err == nil {
			entry.SupplierEmail = supplier.Email
		}

		banking, err := s.banking.GetByUserID(ctx, offer.SupplierUserID.String())
		if err == nil {
			entry.BankName = banking.BankName
			entry.BankingVerified = banking.Status == model.BankingVerified
			if account, err := s.cipher.Decrypt(banking.AccountNumber); err == nil {
				entry.MaskedAccount = crypto.Mask(account, 4)
			}
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, err
		}

		entries = append(entries, entry)
	}
	return entries, total, nil
}

// DemoQueue returns a static sample payload for frontend development.
func (s *paymentService) DemoQueue(_ context.Context) []QueueEntry {
	due := time.Now().Add(10 * 24 * time.Hour)
	accepted := time.Now().Add(-2 * time.Hour)
	amount := decimal.NewFromInt(12500)
	fee := decimal.NewFromInt(625)

	return []QueueEntry{
		{
			Offer: model.EarlyPaymentOffer{
				ID:            uuid.MustParse("00000000-0000-0000-0000-000000000001"),
				VendorNumber:  "V-1001",
				InvoiceNumber: "INV-2024-0042",
				Amount:        amount,
				DueDate:       &due,
				FeePercent:    decimal.NewFromInt(model.DefaultFeePercent),
				FeeAmount:     fee,
				OfferedAmount: amount.Sub(fee),
				Status:        model.OfferAccepted,
				AcceptedAt:    &accepted,
			},
			SupplierEmail:   "demo-supplier@finbridge.local",
			BankName:        "First Demo Bank",
			MaskedAccount:   "******7890",
			BankingVerified: true,
		},
	}
}

func (s *paymentService) transition(ctx context.Context, adminID, offerID string, from, to, action, ip, userAgent string) (*model.EarlyPaymentOffer, error) {
	actorID, err := uuid.Parse(adminID)
	if err != nil {
		return nil, unauthorized("Authentication required")
	}

	offer, err := s.offers.GetByID(ctx, offerID)
	if err != nil {
		return nil, notFound("Offer not found")
	}
	if offer.Status != from {
		return nil, conflict("Offer is not in the required state for this action")
	}

	now := time.Now()
	offer.Status = to
	switch to {
	case model.OfferApproved:
		offer.ApprovedAt = &now
	case model.OfferExecuted:
		offer.ExecutedAt = &now
	}
	if err := s.offers.Update(ctx, offer); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, &actorID, action, "early_payment_offer", offer.ID.String(), map[string]interface{}{
		"invoice_number": offer.InvoiceNumber,
		"amount":         offer.Amount.String(),
		"offered_amount": offer.OfferedAmount.String(),
	}, ip, userAgent)

	return offer, nil
}

func (s *paymentService) Approve(ctx context.Context, adminID, offerID, ip, userAgent string) (*model.EarlyPaymentOffer, error) {
	return s.transition(ctx, adminID, offerID, model.OfferAccepted, model.OfferApproved, model.ActionPaymentApproved, ip, userAgent)
}

func (s *paymentService) Execute(ctx context.Context, adminID, offerID, ip, userAgent string) (*model.EarlyPaymentOffer, error) {
	return s.transition(ctx, adminID, offerID, model.OfferApproved, model.OfferExecuted, model.ActionPaymentExecuted, ip, userAgent)
}
