package service

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"finbridge/internal/model"
	"finbridge/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var dueDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// DTOs for Request validation
type ConsentRequest struct {
	VendorNumber   string  `json:"vendor_number" binding:"required"`
	SupplierUserID *string `json:"supplier_user_id" binding:"omitempty,uuid"`
	SupplierEmail  *string `json:"supplier_email" binding:"omitempty,email"`
}

type InvoiceRowInput struct {
	VendorNumber  string          `json:"vendor_number"`
	InvoiceNumber string          `json:"invoice_number"`
	Amount        decimal.Decimal `json:"amount"`
	DueDate       string          `json:"due_date"`
}

type InvoiceUploadRequest struct {
	Rows []InvoiceRowInput `json:"rows" binding:"required,min=1,dive"`
}

// BatchSummary is the upload result returned to the buyer.
type BatchSummary struct {
	BatchID     uuid.UUID `json:"batch_id"`
	TotalRows   int       `json:"total_rows"`
	ValidRows   int       `json:"valid_rows"`
	InvalidRows int       `json:"invalid_rows"`
	VendorCount int       `json:"vendor_count"`
}

// MatchResult reports the outcome of a consent backfill pass.
type MatchResult struct {
	Scanned int `json:"scanned"`
	Matched int `json:"matched"`
}

// APService defines the interface for AP batch ingestion and vendor consent matching
type APService interface {
	UpsertConsent(ctx context.Context, buyerID string, req ConsentRequest) (*model.VendorConsent, error)
	ListConsents(ctx context.Context, buyerID string) ([]model.VendorConsent, error)
	ListUnassigned(ctx context.Context, buyerID string) ([]model.VendorConsent, error)
	UploadInvoices(ctx context.Context, buyerID string, req InvoiceUploadRequest, ip, userAgent string) (*BatchSummary, error)
	ListInvoices(ctx context.Context, buyerID string, page, limit int) ([]model.APBatchRow, int64, error)
	MatchInvoices(ctx context.Context, buyerID, ip, userAgent string) (*MatchResult, error)
}

type apService struct {
	ap     repository.APRepository
	users  repository.UserRepository
	tx     repository.TransactionManager
	audit  AuditService
	logger *zap.Logger
}

func NewAPService(
	ap repository.APRepository,
	users repository.UserRepository,
	tx repository.TransactionManager,
	audit AuditService,
	logger *zap.Logger,
) APService {
	return &apService{ap: ap, users: users, tx: tx, audit: audit, logger: logger}
}

func (s *apService) UpsertConsent(ctx context.Context, buyerID string, req ConsentRequest) (*model.VendorConsent, error) {
	bid, err := uuid.Parse(buyerID)
	if err != nil {
		return nil, unauthorized("Authentication required")
	}

	var supplierID *uuid.UUID
	switch {
	case req.SupplierUserID != nil:
		supplier, err := s.users.GetByID(ctx, *req.SupplierUserID)
		if err != nil || supplier.Role != model.RoleSupplier {
			return nil, badRequest("Supplier account not found")
		}
		supplierID = &supplier.ID
	case req.SupplierEmail != nil:
		supplier, err := s.users.GetByEmail(ctx, *req.SupplierEmail)
		if err != nil || supplier.Role != model.RoleSupplier {
			return nil, badRequest("Supplier account not found")
		}
		supplierID = &supplier.ID
	}

	now := time.Now()
	consent := &model.VendorConsent{
		BuyerID:        bid,
		VendorNumber:   strings.TrimSpace(req.VendorNumber),
		SupplierUserID: supplierID,
		ConsentStatus:  model.ConsentConsented,
		ConsentedAt:    &now,
		Source:         "manual",
	}
	if err := s.ap.UpsertConsent(ctx, consent); err != nil {
		return nil, err
	}

	saved, err := s.ap.GetConsent(ctx, buyerID, consent.VendorNumber)
	if err != nil {
		return consent, nil
	}
	return saved, nil
}

func (s *apService) ListConsents(ctx context.Context, buyerID string) ([]model.VendorConsent, error) {
	return s.ap.ListConsentsByBuyer(ctx, buyerID)
}

func (s *apService) ListUnassigned(ctx context.Context, buyerID string) ([]model.VendorConsent, error) {
	return s.ap.ListUnassignedConsents(ctx, buyerID)
}

// validateRow checks one invoice line and returns the rejection reason, if any.
func validateRow(row InvoiceRowInput) (dueDate *time.Time, reason string) {
	if strings.TrimSpace(row.VendorNumber) == "" ||
		strings.TrimSpace(row.InvoiceNumber) == "" ||
		!row.Amount.IsPositive() ||
		!dueDatePattern.MatchString(row.DueDate) {
		return nil, model.APRowErrValidation
	}
	parsed, err := time.Parse("2006-01-02", row.DueDate)
	if err != nil {
		return nil, model.APRowErrValidation
	}
	return &parsed, ""
}

func (s *apService) UploadInvoices(ctx context.Context, buyerID string, req InvoiceUploadRequest, ip, userAgent string) (*BatchSummary, error) {
	bid, err := uuid.Parse(buyerID)
	if err != nil {
		return nil, unauthorized("Authentication required")
	}

	consents, err := s.ap.ListConsentsByBuyer(ctx, buyerID)
	if err != nil {
		return nil, err
	}
	consentByVendor := make(map[string]*model.VendorConsent, len(consents))
	enforceConsent := false
	for i := range consents {
		if consents[i].ConsentStatus == model.ConsentConsented {
			consentByVendor[consents[i].VendorNumber] = &consents[i]
			enforceConsent = true
		}
	}

	batch := &model.APBatch{
		BuyerID:    bid,
		UploadedBy: bid,
		TotalRows:  len(req.Rows),
		Status:     "received",
	}

	// The vendor set spans every uploaded row, rejected ones included.
	rows := make([]model.APBatchRow, 0, len(req.Rows))
	vendorList := make([]string, 0, len(req.Rows))
	seenVendors := make(map[string]bool)
	for _, input := range req.Rows {
		row := model.APBatchRow{
			BuyerID:       bid,
			VendorNumber:  strings.TrimSpace(input.VendorNumber),
			InvoiceNumber: strings.TrimSpace(input.InvoiceNumber),
			Amount:        input.Amount,
		}
		if row.VendorNumber != "" && !seenVendors[row.VendorNumber] {
			seenVendors[row.VendorNumber] = true
			vendorList = append(vendorList, row.VendorNumber)
		}

		dueDate, reason := validateRow(input)
		if reason == "" && enforceConsent {
			if _, ok := consentByVendor[row.VendorNumber]; !ok {
				reason = model.APRowErrNotConsented
			}
		}

		if reason != "" {
			row.Status = model.APRowRejected
			row.ValidationError = &reason
			batch.InvalidRows++
		} else {
			row.Status = model.APRowAccepted
			row.DueDate = dueDate
			if consent, ok := consentByVendor[row.VendorNumber]; ok && consent.SupplierUserID != nil {
				row.SupplierUserID = consent.SupplierUserID
			}
			batch.ValidRows++
		}
		rows = append(rows, row)
	}
	batch.VendorCount = len(vendorList)

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.ap.CreateBatch(txCtx, batch); err != nil {
			return err
		}
		for i := range rows {
			rows[i].BatchID = batch.ID
		}
		return s.ap.CreateRows(txCtx, rows)
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, &bid, model.ActionAPUpload, "ap_batch", batch.ID.String(), map[string]interface{}{
		"total_rows":   batch.TotalRows,
		"valid_rows":   batch.ValidRows,
		"invalid_rows": batch.InvalidRows,
		"vendors":      vendorList,
	}, ip, userAgent)

	return &BatchSummary{
		BatchID:     batch.ID,
		TotalRows:   batch.TotalRows,
		ValidRows:   batch.ValidRows,
		InvalidRows: batch.InvalidRows,
		VendorCount: batch.VendorCount,
	}, nil
}

func (s *apService) ListInvoices(ctx context.Context, buyerID string, page, limit int) ([]model.APBatchRow, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}
	return s.ap.ListRowsByBuyer(ctx, buyerID, page, limit)
}

// MatchInvoices backfills supplier links onto accepted rows from the current
// consent table. Safe to run repeatedly; already-matched rows are skipped.
func (s *apService) MatchInvoices(ctx context.Context, buyerID, ip, userAgent string) (*MatchResult, error) {
	bid, err := uuid.Parse(buyerID)
	if err != nil {
		return nil, unauthorized("Authentication required")
	}

	rows, err := s.ap.AcceptedUnmatchedRows(ctx, buyerID)
	if err != nil {
		return nil, err
	}

	result := &MatchResult{Scanned: len(rows)}
	for i := range rows {
		consent, err := s.ap.GetConsent(ctx, buyerID, rows[i].VendorNumber)
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, err
			}
			continue
		}
		if consent.ConsentStatus != model.ConsentConsented || consent.SupplierUserID == nil {
			continue
		}
		rows[i].SupplierUserID = consent.SupplierUserID
		if err := s.ap.UpdateRow(ctx, &rows[i]); err != nil {
			return nil, err
		}
		result.Matched++
	}

	s.audit.Record(ctx, &bid, model.ActionAutoMatchInvoices, "ap_rows", buyerID, map[string]interface{}{
		"scanned": result.Scanned,
		"matched": result.Matched,
	}, ip, userAgent)

	return result, nil
}
