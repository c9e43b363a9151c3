package handlers

import (
	"mechongo/internal/middleware"
	"mechongo/internal/services"
	"mechongo/internal/utils"
	"mechongo/pkg/logger"

	"github.com/gin-gonic/gin"
)

type TrackingHandler struct {
	dashboardService services.DashboardService
	locationService  services.LocationService
	logger           *logger.Logger
}

func NewTrackingHandler(dashboardService services.DashboardService, locationService services.LocationService, log *logger.Logger) *TrackingHandler {
	return &TrackingHandler{
		dashboardService: dashboardService,
		locationService:  locationService,
		logger:           log,
	}
}

// Tracking lists the caller's jobs that can currently be tracked.
func (h *TrackingHandler) Tracking(c *gin.Context) {
	callerID, ok := CallerID(c)
	if !ok {
		return
	}
	role, _ := middleware.GetUserRole(c)

	jobs, err := h.dashboardService.Tracking(c.Request.Context(), callerID, role)
	if err != nil {
		RespondWithError(c, h.logger, err)
		return
	}

	utils.SuccessResponseWithMeta(c, "Tracked jobs retrieved", jobs, &utils.Meta{Count: len(jobs)})
}

// JobLocation returns the latest stored position for a job, used to place
// the map marker before live frames arrive.
func (h *TrackingHandler) JobLocation(c *gin.Context) {
	callerID, ok := CallerID(c)
	if !ok {
		return
	}
	jobID, ok := ParamObjectID(c, "id")
	if !ok {
		return
	}

	location, err := h.locationService.LatestForJob(c.Request.Context(), callerID, jobID)
	if err != nil {
		RespondWithError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Latest location retrieved", location)
}
