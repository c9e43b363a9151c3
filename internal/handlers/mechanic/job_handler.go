package mechanic

import (
	"context"

	"mechongo/internal/models"
	"mechongo/internal/services"
	"mechongo/internal/utils"
	"mechongo/pkg/logger"

	handlers "mechongo/internal/handlers/shared"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type JobHandler struct {
	jobService       services.JobService
	dashboardService services.DashboardService
	otpService       services.OTPService
	logger           *logger.Logger
}

func NewJobHandler(
	jobService services.JobService,
	dashboardService services.DashboardService,
	otpService services.OTPService,
	log *logger.Logger,
) *JobHandler {
	return &JobHandler{
		jobService:       jobService,
		dashboardService: dashboardService,
		otpService:       otpService,
		logger:           log,
	}
}

func (h *JobHandler) Dashboard(c *gin.Context) {
	mechanicID, ok := handlers.CallerID(c)
	if !ok {
		return
	}

	dashboard, err := h.dashboardService.MechanicDashboard(c.Request.Context(), mechanicID)
	if err != nil {
		handlers.RespondWithError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Dashboard retrieved", dashboard)
}

// Accept assigns an open request to the caller. Concurrent accepts of the
// same request get exactly one winner.
func (h *JobHandler) Accept(c *gin.Context) {
	mechanicID, ok := handlers.CallerID(c)
	if !ok {
		return
	}
	requestID, ok := handlers.ParamObjectID(c, "id")
	if !ok {
		return
	}

	details, err := h.jobService.Accept(c.Request.Context(), mechanicID, requestID)
	if err != nil {
		handlers.RespondWithError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Request accepted", details)
}

// IssueOTP sends the customer a fresh code for the requested action. The
// code itself is never returned to the mechanic.
func (h *JobHandler) IssueOTP(c *gin.Context) {
	mechanicID, ok := handlers.CallerID(c)
	if !ok {
		return
	}
	requestID, ok := handlers.ParamObjectID(c, "id")
	if !ok {
		return
	}

	var req models.OTPIssueRequest
	if !handlers.BindJSON(c, &req) {
		return
	}

	if err := h.otpService.Issue(c.Request.Context(), mechanicID, requestID, req.Action); err != nil {
		handlers.RespondWithError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "OTP sent to customer", gin.H{"action": req.Action})
}

func (h *JobHandler) Start(c *gin.Context) {
	h.gated(c, "Job started", h.jobService.Start)
}

func (h *JobHandler) Complete(c *gin.Context) {
	h.gated(c, "Job completed", h.jobService.Complete)
}

type gatedFunc func(ctx context.Context, mechanicID, requestID primitive.ObjectID, otp string) (*models.Job, error)

func (h *JobHandler) gated(c *gin.Context, message string, run gatedFunc) {
	mechanicID, ok := handlers.CallerID(c)
	if !ok {
		return
	}
	requestID, ok := handlers.ParamObjectID(c, "id")
	if !ok {
		return
	}

	var req models.OTPSubmitRequest
	if !handlers.BindJSON(c, &req) {
		return
	}

	job, err := run(c.Request.Context(), mechanicID, requestID, req.OTP)
	if err != nil {
		handlers.RespondWithError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, message, job)
}

func (h *JobHandler) BeginTravel(c *gin.Context) {
	h.move(c, "Travel started", h.jobService.BeginTravel)
}

func (h *JobHandler) StopSharing(c *gin.Context) {
	h.move(c, "Location sharing stopped", h.jobService.StopSharing)
}

type moveFunc func(ctx context.Context, mechanicID, jobID primitive.ObjectID) (*models.Job, error)

func (h *JobHandler) move(c *gin.Context, message string, run moveFunc) {
	mechanicID, ok := handlers.CallerID(c)
	if !ok {
		return
	}
	jobID, ok := handlers.ParamObjectID(c, "id")
	if !ok {
		return
	}

	job, err := run(c.Request.Context(), mechanicID, jobID)
	if err != nil {
		handlers.RespondWithError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, message, job)
}
