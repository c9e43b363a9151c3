package customer

import (
	"mechongo/internal/models"
	"mechongo/internal/services"
	"mechongo/internal/utils"
	"mechongo/pkg/logger"

	handlers "mechongo/internal/handlers/shared"

	"github.com/gin-gonic/gin"
)

type BookingHandler struct {
	jobService       services.JobService
	dashboardService services.DashboardService
	otpService       services.OTPService
	historyPageSize  int
	logger           *logger.Logger
}

func NewBookingHandler(
	jobService services.JobService,
	dashboardService services.DashboardService,
	otpService services.OTPService,
	historyPageSize int,
	log *logger.Logger,
) *BookingHandler {
	return &BookingHandler{
		jobService:       jobService,
		dashboardService: dashboardService,
		otpService:       otpService,
		historyPageSize:  historyPageSize,
		logger:           log,
	}
}

// Book creates a service request with its pending job and invoice.
func (h *BookingHandler) Book(c *gin.Context) {
	customerID, ok := handlers.CallerID(c)
	if !ok {
		return
	}

	var req models.BookingRequest
	if !handlers.BindJSON(c, &req) {
		return
	}

	result, err := h.jobService.Book(c.Request.Context(), customerID, &req)
	if err != nil {
		handlers.RespondWithError(c, h.logger, err)
		return
	}

	utils.CreatedResponse(c, "Service booked successfully", result)
}

func (h *BookingHandler) GetBooking(c *gin.Context) {
	customerID, ok := handlers.CallerID(c)
	if !ok {
		return
	}
	requestID, ok := handlers.ParamObjectID(c, "id")
	if !ok {
		return
	}

	details, err := h.dashboardService.BookingDetail(c.Request.Context(), customerID, requestID)
	if err != nil {
		handlers.RespondWithError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Booking retrieved", details)
}

func (h *BookingHandler) Cancel(c *gin.Context) {
	customerID, ok := handlers.CallerID(c)
	if !ok {
		return
	}
	requestID, ok := handlers.ParamObjectID(c, "id")
	if !ok {
		return
	}

	if err := h.jobService.Cancel(c.Request.Context(), customerID, requestID); err != nil {
		handlers.RespondWithError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Booking cancelled", nil)
}

// GetOTP shows the customer the live code for their request so they can
// read it out to the mechanic.
func (h *BookingHandler) GetOTP(c *gin.Context) {
	customerID, ok := handlers.CallerID(c)
	if !ok {
		return
	}
	requestID, ok := handlers.ParamObjectID(c, "id")
	if !ok {
		return
	}

	display, err := h.otpService.Display(c.Request.Context(), customerID, requestID)
	if err != nil {
		handlers.RespondWithError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "OTP retrieved", display)
}

func (h *BookingHandler) Dashboard(c *gin.Context) {
	customerID, ok := handlers.CallerID(c)
	if !ok {
		return
	}

	dashboard, err := h.dashboardService.CustomerDashboard(c.Request.Context(), customerID)
	if err != nil {
		handlers.RespondWithError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Dashboard retrieved", dashboard)
}

func (h *BookingHandler) History(c *gin.Context) {
	customerID, ok := handlers.CallerID(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c, h.historyPageSize)
	jobs, total, err := h.dashboardService.OrderHistory(c.Request.Context(), customerID, params)
	if err != nil {
		handlers.RespondWithError(c, h.logger, err)
		return
	}

	utils.SuccessResponseWithMeta(c, "Order history retrieved", jobs, &utils.Meta{
		Pagination: utils.CreatePaginationMeta(params, total),
	})
}

func (h *BookingHandler) Rate(c *gin.Context) {
	customerID, ok := handlers.CallerID(c)
	if !ok {
		return
	}
	jobID, ok := handlers.ParamObjectID(c, "id")
	if !ok {
		return
	}

	var req models.RatingRequest
	if !handlers.BindJSON(c, &req) {
		return
	}

	job, err := h.jobService.Rate(c.Request.Context(), customerID, jobID, &req)
	if err != nil {
		handlers.RespondWithError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Rating submitted", job)
}
