package service

import (
	"context"
	"testing"

	"finbridge/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newAPForTest(ap *MockAPRepository, users *MockUserRepository) APService {
	return NewAPService(ap, users, fakeTxManager{}, noopAudit{}, zap.NewNop())
}

func TestValidateRow(t *testing.T) {
	valid := InvoiceRowInput{
		VendorNumber:  "V-100",
		InvoiceNumber: "INV-1",
		Amount:        decimal.NewFromInt(500),
		DueDate:       "2026-04-01",
	}

	tests := []struct {
		name       string
		mutate     func(*InvoiceRowInput)
		wantReason string
	}{
		{"valid row", nil, ""},
		{"blank vendor", func(r *InvoiceRowInput) { r.VendorNumber = "  " }, model.APRowErrValidation},
		{"blank invoice number", func(r *InvoiceRowInput) { r.InvoiceNumber = "" }, model.APRowErrValidation},
		{"zero amount", func(r *InvoiceRowInput) { r.Amount = decimal.Zero }, model.APRowErrValidation},
		{"negative amount", func(r *InvoiceRowInput) { r.Amount = decimal.NewFromInt(-5) }, model.APRowErrValidation},
		{"wrong date format", func(r *InvoiceRowInput) { r.DueDate = "01/04/2026" }, model.APRowErrValidation},
		{"date with time suffix", func(r *InvoiceRowInput) { r.DueDate = "2026-04-01T00:00:00Z" }, model.APRowErrValidation},
		{"impossible date", func(r *InvoiceRowInput) { r.DueDate = "2026-13-45" }, model.APRowErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := valid
			if tt.mutate != nil {
				tt.mutate(&row)
			}
			dueDate, reason := validateRow(row)
			assert.Equal(t, tt.wantReason, reason)
			if tt.wantReason == "" {
				require.NotNil(t, dueDate)
				assert.Equal(t, "2026-04-01", dueDate.Format("2006-01-02"))
			} else {
				assert.Nil(t, dueDate)
			}
		})
	}
}

func TestUploadInvoices_NoConsentsSkipsEnforcement(t *testing.T) {
	buyerID := uuid.New()
	ap := new(MockAPRepository)
	svc := newAPForTest(ap, new(MockUserRepository))

	ap.On("ListConsentsByBuyer", mock.Anything, buyerID.String()).Return([]model.VendorConsent{}, nil)
	ap.On("CreateBatch", mock.Anything, mock.AnythingOfType("*model.APBatch")).Return(nil)
	ap.On("CreateRows", mock.Anything, mock.AnythingOfType("[]model.APBatchRow")).Return(nil)

	summary, err := svc.UploadInvoices(context.Background(), buyerID.String(), InvoiceUploadRequest{
		Rows: []InvoiceRowInput{
			{VendorNumber: "V-1", InvoiceNumber: "INV-1", Amount: decimal.NewFromInt(100), DueDate: "2026-04-01"},
			{VendorNumber: "V-2", InvoiceNumber: "INV-2", Amount: decimal.NewFromInt(200), DueDate: "2026-04-02"},
		},
	}, "1.2.3.4", "tests")

	require.NoError(t, err)
	assert.Equal(t, 2, summary.TotalRows)
	assert.Equal(t, 2, summary.ValidRows)
	assert.Zero(t, summary.InvalidRows)
	assert.Equal(t, 2, summary.VendorCount)
}

func TestUploadInvoices_ConsentEnforced(t *testing.T) {
	buyerID := uuid.New()
	supplierID := uuid.New()
	ap := new(MockAPRepository)
	svc := newAPForTest(ap, new(MockUserRepository))

	ap.On("ListConsentsByBuyer", mock.Anything, buyerID.String()).Return([]model.VendorConsent{
		{BuyerID: buyerID, VendorNumber: "V-1", SupplierUserID: &supplierID, ConsentStatus: model.ConsentConsented},
	}, nil)

	var savedRows []model.APBatchRow
	ap.On("CreateBatch", mock.Anything, mock.AnythingOfType("*model.APBatch")).Return(nil)
	ap.On("CreateRows", mock.Anything, mock.AnythingOfType("[]model.APBatchRow")).
		Run(func(args mock.Arguments) { savedRows = args.Get(1).([]model.APBatchRow) }).
		Return(nil)

	summary, err := svc.UploadInvoices(context.Background(), buyerID.String(), InvoiceUploadRequest{
		Rows: []InvoiceRowInput{
			{VendorNumber: "V-1", InvoiceNumber: "INV-1", Amount: decimal.NewFromInt(100), DueDate: "2026-04-01"},
			{VendorNumber: "V-9", InvoiceNumber: "INV-2", Amount: decimal.NewFromInt(200), DueDate: "2026-04-02"},
			{VendorNumber: "V-1", InvoiceNumber: "", Amount: decimal.NewFromInt(300), DueDate: "2026-04-03"},
		},
	}, "1.2.3.4", "tests")

	require.NoError(t, err)
	assert.Equal(t, 3, summary.TotalRows)
	assert.Equal(t, 1, summary.ValidRows)
	assert.Equal(t, 2, summary.InvalidRows)
	// Rejected rows still count toward the distinct vendor set.
	assert.Equal(t, 2, summary.VendorCount)

	require.Len(t, savedRows, 3)

	accepted := savedRows[0]
	assert.Equal(t, model.APRowAccepted, accepted.Status)
	require.NotNil(t, accepted.SupplierUserID)
	assert.Equal(t, supplierID, *accepted.SupplierUserID)

	notConsented := savedRows[1]
	assert.Equal(t, model.APRowRejected, notConsented.Status)
	require.NotNil(t, notConsented.ValidationError)
	assert.Equal(t, model.APRowErrNotConsented, *notConsented.ValidationError)

	invalid := savedRows[2]
	assert.Equal(t, model.APRowRejected, invalid.Status)
	require.NotNil(t, invalid.ValidationError)
	assert.Equal(t, model.APRowErrValidation, *invalid.ValidationError)
}

// recordingAudit captures the metadata of the last recorded event.
type recordingAudit struct {
	noopAudit
	action   string
	metadata map[string]interface{}
}

func (r *recordingAudit) Record(_ context.Context, _ *uuid.UUID, action, _, _ string, metadata map[string]interface{}, _, _ string) {
	r.action = action
	r.metadata = metadata
}

func TestUploadInvoices_AuditVendorsSpanAllRows(t *testing.T) {
	buyerID := uuid.New()
	supplierID := uuid.New()
	ap := new(MockAPRepository)
	audit := &recordingAudit{}
	svc := NewAPService(ap, new(MockUserRepository), fakeTxManager{}, audit, zap.NewNop())

	ap.On("ListConsentsByBuyer", mock.Anything, buyerID.String()).Return([]model.VendorConsent{
		{BuyerID: buyerID, VendorNumber: "V-1", SupplierUserID: &supplierID, ConsentStatus: model.ConsentConsented},
	}, nil)
	ap.On("CreateBatch", mock.Anything, mock.AnythingOfType("*model.APBatch")).Return(nil)
	ap.On("CreateRows", mock.Anything, mock.AnythingOfType("[]model.APBatchRow")).Return(nil)

	summary, err := svc.UploadInvoices(context.Background(), buyerID.String(), InvoiceUploadRequest{
		Rows: []InvoiceRowInput{
			{VendorNumber: "V-1", InvoiceNumber: "INV-1", Amount: decimal.NewFromInt(100), DueDate: "2026-04-01"},
			{VendorNumber: "V-1", InvoiceNumber: "INV-2", Amount: decimal.NewFromInt(150), DueDate: "2026-04-02"},
			{VendorNumber: "V-2", InvoiceNumber: "INV-3", Amount: decimal.NewFromInt(200), DueDate: "2026-04-03"},
		},
	}, "1.2.3.4", "tests")

	require.NoError(t, err)
	assert.Equal(t, 2, summary.ValidRows)
	assert.Equal(t, 1, summary.InvalidRows)
	assert.Equal(t, 2, summary.VendorCount)
	assert.Equal(t, model.ActionAPUpload, audit.action)
	assert.Equal(t, []string{"V-1", "V-2"}, audit.metadata["vendors"])
}

func TestUpsertConsent_RejectsNonSupplierAccount(t *testing.T) {
	buyerID := uuid.New()
	ap := new(MockAPRepository)
	users := new(MockUserRepository)
	svc := newAPForTest(ap, users)

	buyerAccount := uuid.New().String()
	users.On("GetByID", mock.Anything, buyerAccount).Return(&model.User{Role: model.RoleBuyer}, nil)

	_, err := svc.UpsertConsent(context.Background(), buyerID.String(), ConsentRequest{
		VendorNumber:   "V-1",
		SupplierUserID: &buyerAccount,
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "Supplier account not found")
}

func TestMatchInvoices_Idempotent(t *testing.T) {
	buyerID := uuid.New()
	supplierID := uuid.New()
	ap := new(MockAPRepository)
	svc := newAPForTest(ap, new(MockUserRepository))

	matchable := model.APBatchRow{ID: uuid.New(), BuyerID: buyerID, VendorNumber: "V-1", Status: model.APRowAccepted}
	noConsent := model.APBatchRow{ID: uuid.New(), BuyerID: buyerID, VendorNumber: "V-2", Status: model.APRowAccepted}
	revoked := model.APBatchRow{ID: uuid.New(), BuyerID: buyerID, VendorNumber: "V-3", Status: model.APRowAccepted}

	ap.On("AcceptedUnmatchedRows", mock.Anything, buyerID.String()).
		Return([]model.APBatchRow{matchable, noConsent, revoked}, nil)
	ap.On("GetConsent", mock.Anything, buyerID.String(), "V-1").
		Return(&model.VendorConsent{SupplierUserID: &supplierID, ConsentStatus: model.ConsentConsented}, nil)
	ap.On("GetConsent", mock.Anything, buyerID.String(), "V-2").
		Return(nil, gorm.ErrRecordNotFound)
	ap.On("GetConsent", mock.Anything, buyerID.String(), "V-3").
		Return(&model.VendorConsent{SupplierUserID: &supplierID, ConsentStatus: model.ConsentRevoked}, nil)
	ap.On("UpdateRow", mock.Anything, mock.AnythingOfType("*model.APBatchRow")).Return(nil).Once()

	result, err := svc.MatchInvoices(context.Background(), buyerID.String(), "1.2.3.4", "tests")

	require.NoError(t, err)
	assert.Equal(t, 3, result.Scanned)
	assert.Equal(t, 1, result.Matched)
	ap.AssertExpectations(t)
}
