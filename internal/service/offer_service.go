package service

import (
	"context"
	"errors"
	"time"

	"finbridge/internal/model"
	"finbridge/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// OfferQuote is an eligible invoice row with its fee preview.
type OfferQuote struct {
	InvoiceRowID  uuid.UUID       `json:"invoice_row_id"`
	BuyerID       uuid.UUID       `json:"buyer_id"`
	VendorNumber  string          `json:"vendor_number"`
	InvoiceNumber string          `json:"invoice_number"`
	Amount        decimal.Decimal `json:"amount"`
	DueDate       *time.Time      `json:"due_date"`
	FeePercent    decimal.Decimal `json:"fee_percent"`
	FeeAmount     decimal.Decimal `json:"fee_amount"`
	OfferedAmount decimal.Decimal `json:"offered_amount"`
}

// OfferDecisionRequest identifies the invoice row being accepted or declined.
type OfferDecisionRequest struct {
	InvoiceRowID string `json:"invoice_row_id" binding:"required,uuid"`
}

// OfferService defines the interface for the early-payment offer flow
type OfferService interface {
	ListEligible(ctx context.Context, supplierUserID string) ([]OfferQuote, error)
	Accept(ctx context.Context, supplierUserID string, req OfferDecisionRequest) (*model.EarlyPaymentOffer, error)
	Decline(ctx context.Context, supplierUserID string, req OfferDecisionRequest) (*model.EarlyPaymentOffer, error)
	ListMine(ctx context.Context, supplierUserID string) ([]model.EarlyPaymentOffer, error)
}

type offerService struct {
	offers repository.OfferRepository
	ap     repository.APRepository
	logger *zap.Logger
	now    func() time.Time
}

func NewOfferService(offers repository.OfferRepository, ap repository.APRepository, logger *zap.Logger) OfferService {
	return &offerService{offers: offers, ap: ap, logger: logger, now: time.Now}
}

// QuoteFee computes the flat early-payment fee, rounded half-up to 2dp.
func QuoteFee(amount decimal.Decimal) (feePercent, feeAmount, offeredAmount decimal.Decimal) {
	feePercent = decimal.NewFromInt(model.DefaultFeePercent)
	feeAmount = amount.Mul(feePercent).Div(decimal.NewFromInt(100)).Round(2)
	offeredAmount = amount.Sub(feeAmount)
	return feePercent, feeAmount, offeredAmount
}

// rowEligible checks the invariants shared by listing and accept/decline:
// the row is accepted, consent to this supplier still stands, and the due
// date is at least 48 hours out.
func (s *offerService) rowEligible(ctx context.Context, row *model.APBatchRow, supplierUserID string) bool {
	if row.Status != model.APRowAccepted || row.SupplierUserID == nil || row.SupplierUserID.String() != supplierUserID {
		return false
	}
	if row.DueDate == nil || row.DueDate.Sub(s.now()) < model.MinHoursToDue*time.Hour {
		return false
	}

	consent, err := s.ap.GetConsent(ctx, row.BuyerID.String(), row.VendorNumber)
	if err != nil || consent.ConsentStatus != model.ConsentConsented {
		return false
	}
	return consent.SupplierUserID != nil && consent.SupplierUserID.String() == supplierUserID
}

func (s *offerService) ListEligible(ctx context.Context, supplierUserID string) ([]OfferQuote, error) {
	rows, err := s.ap.AcceptedRowsForSupplier(ctx, supplierUserID)
	if err != nil {
		return nil, err
	}

	// Rows come newest first; keep only the latest per invoice identity.
	type key struct {
		buyer   uuid.UUID
		vendor  string
		invoice string
	}
	seen := make(map[key]bool)

	quotes := make([]OfferQuote, 0, len(rows))
	for i := range rows {
		row := &rows[i]
		k := key{row.BuyerID, row.VendorNumber, row.InvoiceNumber}
		if seen[k] {
			continue
		}
		seen[k] = true

		if !s.rowEligible(ctx, row, supplierUserID) {
			continue
		}

		// A prior decision on this row removes it from the offer list.
		if _, err := s.offers.GetByRowAndSupplier(ctx, row.ID.String(), supplierUserID); err == nil {
			continue
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}

		feePercent, feeAmount, offered := QuoteFee(row.Amount)
		quotes = append(quotes, OfferQuote{
			InvoiceRowID:  row.ID,
			BuyerID:       row.BuyerID,
			VendorNumber:  row.VendorNumber,
			InvoiceNumber: row.InvoiceNumber,
			Amount:        row.Amount,
			DueDate:       row.DueDate,
			FeePercent:    feePercent,
			FeeAmount:     feeAmount,
			OfferedAmount: offered,
		})
	}
	return quotes, nil
}

func (s *offerService) decide(ctx context.Context, supplierUserID string, req OfferDecisionRequest, accept bool) (*model.EarlyPaymentOffer, error) {
	sid, err := uuid.Parse(supplierUserID)
	if err != nil {
		return nil, unauthorized("Authentication required")
	}

	row, err := s.ap.GetRowByID(ctx, req.InvoiceRowID)
	if err != nil {
		return nil, notFound("Invoice not found")
	}
	if !s.rowEligible(ctx, row, supplierUserID) {
		return nil, badRequest("Invoice is not eligible for an early-payment offer")
	}

	now := s.now()
	offer := &model.EarlyPaymentOffer{
		InvoiceRowID:   row.ID,
		BuyerID:        row.BuyerID,
		SupplierUserID: sid,
		VendorNumber:   row.VendorNumber,
		InvoiceNumber:  row.InvoiceNumber,
		Amount:         row.Amount,
		DueDate:        row.DueDate,
	}

	if accept {
		offer.Status = model.OfferAccepted
		offer.AcceptedAt = &now
		offer.FeePercent, offer.FeeAmount, offer.OfferedAmount = QuoteFee(row.Amount)
	} else {
		offer.Status = model.OfferDeclined
		offer.DeclinedAt = &now
		zero := decimal.Zero
		offer.FeePercent, offer.FeeAmount, offer.OfferedAmount = zero, zero, zero
	}

	if err := s.offers.Upsert(ctx, offer); err != nil {
		return nil, err
	}

	saved, err := s.offers.GetByRowAndSupplier(ctx, row.ID.String(), supplierUserID)
	if err != nil {
		return offer, nil
	}
	return saved, nil
}

func (s *offerService) Accept(ctx context.Context, supplierUserID string, req OfferDecisionRequest) (*model.EarlyPaymentOffer, error) {
	return s.decide(ctx, supplierUserID, req, true)
}

func (s *offerService) Decline(ctx context.Context, supplierUserID string, req OfferDecisionRequest) (*model.EarlyPaymentOffer, error) {
	return s.decide(ctx, supplierUserID, req, false)
}

func (s *offerService) ListMine(ctx context.Context, supplierUserID string) ([]model.EarlyPaymentOffer, error) {
	return s.offers.ListBySupplier(ctx, supplierUserID)
}
