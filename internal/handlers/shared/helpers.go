package handlers

import (
	"mechongo/internal/middleware"
	"mechongo/internal/services"
	"mechongo/internal/utils"
	"mechongo/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RespondWithError writes the envelope for err. Service errors keep their
// kind and code; anything else is logged and reported as a generic 500.
func RespondWithError(c *gin.Context, log *logger.Logger, err error) {
	if se, ok := services.AsServiceError(err); ok {
		utils.ErrorResponseWithDetails(c, se.HTTPStatus(), string(se.Code), se.Message, se.Details)
		return
	}

	log.WithContext(c.Request.Context()).WithError(err).WithFields(map[string]interface{}{
		"method": c.Request.Method,
		"path":   c.FullPath(),
	}).Error("Request failed")
	utils.InternalServerErrorResponse(c)
}

// CallerID returns the authenticated caller or writes a 401.
func CallerID(c *gin.Context) (primitive.ObjectID, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return primitive.NilObjectID, false
	}
	return userID, true
}

// ParamObjectID parses the named path parameter or writes a 400.
func ParamObjectID(c *gin.Context, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		utils.BadRequestResponse(c, utils.ErrInvalidID)
		return primitive.NilObjectID, false
	}
	return id, true
}

// BindJSON decodes and validates the body into dst or writes a 400.
func BindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		utils.ValidationErrorResponse(c, utils.ValidationDetails(err))
		return false
	}
	return true
}
