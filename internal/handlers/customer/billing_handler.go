package customer

import (
	"mechongo/internal/models"
	"mechongo/internal/services"
	"mechongo/internal/utils"
	"mechongo/pkg/logger"

	handlers "mechongo/internal/handlers/shared"

	"github.com/gin-gonic/gin"
)

type BillingHandler struct {
	billingService services.BillingService
	logger         *logger.Logger
}

func NewBillingHandler(billingService services.BillingService, log *logger.Logger) *BillingHandler {
	return &BillingHandler{
		billingService: billingService,
		logger:         log,
	}
}

func (h *BillingHandler) ListPaymentMethods(c *gin.Context) {
	userID, ok := handlers.CallerID(c)
	if !ok {
		return
	}

	methods, err := h.billingService.ListPaymentMethods(c.Request.Context(), userID)
	if err != nil {
		handlers.RespondWithError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Payment methods retrieved", methods)
}

// AddPaymentMethod stores a card or UPI id. Only the last four card
// digits are kept.
func (h *BillingHandler) AddPaymentMethod(c *gin.Context) {
	userID, ok := handlers.CallerID(c)
	if !ok {
		return
	}

	var req models.AddPaymentMethodRequest
	if !handlers.BindJSON(c, &req) {
		return
	}

	method, err := h.billingService.AddPaymentMethod(c.Request.Context(), userID, &req)
	if err != nil {
		handlers.RespondWithError(c, h.logger, err)
		return
	}

	utils.CreatedResponse(c, "Payment method added", method)
}

func (h *BillingHandler) ListInvoices(c *gin.Context) {
	userID, ok := handlers.CallerID(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c, utils.DefaultPageSize)
	invoices, total, err := h.billingService.ListInvoices(c.Request.Context(), userID, params)
	if err != nil {
		handlers.RespondWithError(c, h.logger, err)
		return
	}

	utils.SuccessResponseWithMeta(c, "Invoices retrieved", invoices, &utils.Meta{
		Pagination: utils.CreatePaginationMeta(params, total),
	})
}

func (h *BillingHandler) PayInvoice(c *gin.Context) {
	userID, ok := handlers.CallerID(c)
	if !ok {
		return
	}
	invoiceID, ok := handlers.ParamObjectID(c, "id")
	if !ok {
		return
	}

	var req models.PayInvoiceRequest
	if !handlers.BindJSON(c, &req) {
		return
	}

	invoice, err := h.billingService.PayInvoice(c.Request.Context(), userID, invoiceID, &req)
	if err != nil {
		handlers.RespondWithError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Invoice paid", invoice)
}
