package services

import (
	"context"
	"fmt"
	"strings"

	"mechongo/internal/models"
	"mechongo/internal/repositories/interfaces"
	"mechongo/internal/utils"
	"mechongo/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type BillingService interface {
	// Payment methods
	AddPaymentMethod(ctx context.Context, userID primitive.ObjectID, request *models.AddPaymentMethodRequest) (*models.PaymentMethod, error)
	ListPaymentMethods(ctx context.Context, userID primitive.ObjectID) ([]*models.PaymentMethod, error)

	// Invoices
	ListInvoices(ctx context.Context, userID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Invoice, int64, error)
	PayInvoice(ctx context.Context, userID, invoiceID primitive.ObjectID, request *models.PayInvoiceRequest) (*models.Invoice, error)
}

type billingService struct {
	invoices       interfaces.InvoiceRepository
	paymentMethods interfaces.PaymentMethodRepository
	clock          Clock
	logger         *logger.Logger
}

func NewBillingService(store *interfaces.Store, clock Clock, log *logger.Logger) BillingService {
	return &billingService{
		invoices:       store.Invoices,
		paymentMethods: store.PaymentMethods,
		clock:          clockOrDefault(clock),
		logger:         log,
	}
}

// Payment methods
func (s *billingService) AddPaymentMethod(ctx context.Context, userID primitive.ObjectID, request *models.AddPaymentMethodRequest) (*models.PaymentMethod, error) {
	if request == nil {
		return nil, NewValidationError("Invalid payment method", nil)
	}
	if err := utils.ValidateStruct(request); err != nil {
		return nil, NewValidationError("Invalid payment method", utils.ValidationDetails(err))
	}

	method := &models.PaymentMethod{
		ID:         primitive.NewObjectID(),
		UserID:     userID,
		MethodType: request.MethodType,
		CreatedAt:  s.clock(),
	}

	switch request.MethodType {
	case models.PaymentMethodCard:
		number := strings.ReplaceAll(request.CardNumber, " ", "")
		method.CardBrand = detectCardBrand(number)
		method.CardLast4 = number[len(number)-4:]
		method.CardholderName = request.CardholderName
		method.ExpiryDate = request.ExpiryDate
	case models.PaymentMethodUPI:
		method.UPIID = request.UPIID
	}

	if err := s.paymentMethods.Create(ctx, method); err != nil {
		return nil, fmt.Errorf("failed to store payment method: %w", err)
	}

	s.logger.WithContext(ctx).WithUserID(userID).WithField("payment_method", method.String()).Info("Payment method added")

	return method, nil
}

// detectCardBrand classifies a card by its leading digits.
func detectCardBrand(number string) models.CardBrand {
	switch {
	case strings.HasPrefix(number, "4"):
		return models.CardBrandVisa
	case len(number) >= 2 && number[:2] >= "51" && number[:2] <= "55":
		return models.CardBrandMastercard
	case strings.HasPrefix(number, "34"), strings.HasPrefix(number, "37"):
		return models.CardBrandAmex
	default:
		return models.CardBrandDiscover
	}
}

func (s *billingService) ListPaymentMethods(ctx context.Context, userID primitive.ObjectID) ([]*models.PaymentMethod, error) {
	methods, err := s.paymentMethods.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payment methods: %w", err)
	}
	if methods == nil {
		methods = []*models.PaymentMethod{}
	}
	return methods, nil
}

// Invoices
func (s *billingService) ListInvoices(ctx context.Context, userID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Invoice, int64, error) {
	marked, err := s.invoices.MarkOverdue(ctx, userID, s.clock())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to flag overdue invoices: %w", err)
	}
	if marked > 0 {
		s.logger.WithContext(ctx).WithUserID(userID).WithField("count", marked).Info("Invoices marked overdue")
	}

	invoices, total, err := s.invoices.ListByUser(ctx, userID, params.GetSkip(), params.GetLimit())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list invoices: %w", err)
	}
	if invoices == nil {
		invoices = []*models.Invoice{}
	}
	return invoices, total, nil
}

func (s *billingService) PayInvoice(ctx context.Context, userID, invoiceID primitive.ObjectID, request *models.PayInvoiceRequest) (*models.Invoice, error) {
	if request == nil {
		return nil, NewValidationError("payment_method_id is required", map[string]string{"payment_method_id": "required"})
	}
	if err := utils.ValidateStruct(request); err != nil {
		return nil, NewValidationError("Invalid payment request", utils.ValidationDetails(err))
	}
	methodID, err := primitive.ObjectIDFromHex(request.PaymentMethodID)
	if err != nil {
		return nil, NewNotFoundError("payment method")
	}

	method, err := s.paymentMethods.GetByID(ctx, methodID)
	if err != nil {
		return nil, notFoundOr(err, "payment method")
	}
	if method.UserID != userID {
		return nil, NewNotFoundError("payment method")
	}

	paid, err := s.invoices.MarkPaid(ctx, invoiceID, userID, methodID, s.clock())
	if err != nil {
		return nil, fmt.Errorf("failed to mark invoice paid: %w", err)
	}
	if !paid {
		return nil, NewNotFoundError("invoice")
	}

	invoice, err := s.invoices.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, notFoundOr(err, "invoice")
	}

	s.logger.WithContext(ctx).LogPaymentEvent(invoice.ID, "paid", invoice.Amount)

	return invoice, nil
}
