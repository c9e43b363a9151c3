package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"mechongo/internal/models"
	"mechongo/internal/utils"
	"mechongo/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const testSecret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func token(t *testing.T, userID primitive.ObjectID, role models.Role) string {
	t.Helper()
	signed, err := utils.GenerateToken(userID, string(role), testSecret, time.Hour)
	require.NoError(t, err)
	return signed
}

func protectedRouter(roles ...models.Role) *gin.Engine {
	router := gin.New()
	router.Use(RequestIDMiddleware())
	group := router.Group("/", AuthRequired(AuthConfig{Secret: testSecret}, logger.NewNop()), RoleRequired(roles...))
	group.GET("/whoami", func(c *gin.Context) {
		userID, _ := GetUserID(c)
		role, _ := GetUserRole(c)
		c.JSON(http.StatusOK, gin.H{"user_id": userID.Hex(), "role": role})
	})
	return router
}

func get(router http.Handler, path, authorization string) *httptest.ResponseRecorder {
	request := httptest.NewRequest(http.MethodGet, path, nil)
	if authorization != "" {
		request.Header.Set("Authorization", authorization)
	}
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)
	return recorder
}

func TestAuthRequired(t *testing.T) {
	router := protectedRouter(models.RoleMechanic)
	mechanicID := primitive.NewObjectID()

	response := get(router, "/whoami", "Bearer "+token(t, mechanicID, models.RoleMechanic))
	require.Equal(t, http.StatusOK, response.Code)
	assert.Contains(t, response.Body.String(), mechanicID.Hex())
	assert.NotEmpty(t, response.Header().Get(utils.RequestIDHeader))

	assert.Equal(t, http.StatusUnauthorized, get(router, "/whoami", "").Code)
	assert.Equal(t, http.StatusUnauthorized, get(router, "/whoami", "Token abc").Code)
	assert.Equal(t, http.StatusUnauthorized, get(router, "/whoami", "Bearer not-a-jwt").Code)

	forged, err := utils.GenerateToken(mechanicID, string(models.RoleMechanic), "other-secret", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, get(router, "/whoami", "Bearer "+forged).Code)

	expired, err := utils.GenerateToken(mechanicID, string(models.RoleMechanic), testSecret, -time.Minute)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, get(router, "/whoami", "Bearer "+expired).Code)

	unknownRole, err := utils.GenerateToken(mechanicID, "driver", testSecret, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, get(router, "/whoami", "Bearer "+unknownRole).Code)
}

func TestRoleRequired(t *testing.T) {
	router := protectedRouter(models.RoleMechanic)

	response := get(router, "/whoami", "Bearer "+token(t, primitive.NewObjectID(), models.RoleCustomer))
	assert.Equal(t, http.StatusForbidden, response.Code)
	assert.Contains(t, response.Body.String(), utils.CodeForbidden)
}

func TestAuthIssuer(t *testing.T) {
	router := gin.New()
	router.GET("/", AuthRequired(AuthConfig{Secret: testSecret, Issuer: "identity.example"}, logger.NewNop()), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	response := get(router, "/", "Bearer "+token(t, primitive.NewObjectID(), models.RoleCustomer))
	assert.Equal(t, http.StatusUnauthorized, response.Code)
}

func TestOptionalAuth(t *testing.T) {
	router := gin.New()
	router.GET("/ws", OptionalAuth(AuthConfig{Secret: testSecret}, logger.NewNop()), func(c *gin.Context) {
		userID, ok := GetUserID(c)
		if !ok {
			c.String(http.StatusOK, "anonymous")
			return
		}
		c.String(http.StatusOK, userID.Hex())
	})

	mechanicID := primitive.NewObjectID()
	signed := token(t, mechanicID, models.RoleMechanic)

	assert.Equal(t, "anonymous", get(router, "/ws", "").Body.String())
	assert.Equal(t, "anonymous", get(router, "/ws?token=garbage", "").Body.String())
	assert.Equal(t, mechanicID.Hex(), get(router, "/ws?token="+signed, "").Body.String())
	assert.Equal(t, mechanicID.Hex(), get(router, "/ws", "Bearer "+signed).Body.String())
}

type mockLimiter struct {
	mock.Mock
}

func (m *mockLimiter) AllowSlidingWindow(ctx context.Context, key string, limit int, window time.Duration, now time.Time) (bool, error) {
	args := m.Called(ctx, key, limit, window, now)
	return args.Bool(0), args.Error(1)
}

func TestRateLimitByUser(t *testing.T) {
	limiter := &mockLimiter{}
	userID := primitive.NewObjectID()
	key := "rate_limit:otp_issue:" + userID.Hex()

	router := gin.New()
	router.POST("/otp",
		AuthRequired(AuthConfig{Secret: testSecret}, logger.NewNop()),
		RateLimitByUser(limiter, "rate_limit:otp_issue", 5, time.Minute, logger.NewNop()),
		func(c *gin.Context) { c.Status(http.StatusNoContent) })

	post := func() int {
		request := httptest.NewRequest(http.MethodPost, "/otp", nil)
		request.Header.Set("Authorization", "Bearer "+token(t, userID, models.RoleMechanic))
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, request)
		return recorder.Code
	}

	limiter.On("AllowSlidingWindow", mock.Anything, key, 5, time.Minute, mock.Anything).Return(true, nil).Once()
	assert.Equal(t, http.StatusNoContent, post())

	limiter.On("AllowSlidingWindow", mock.Anything, key, 5, time.Minute, mock.Anything).Return(false, nil).Once()
	assert.Equal(t, http.StatusTooManyRequests, post())

	limiter.On("AllowSlidingWindow", mock.Anything, key, 5, time.Minute, mock.Anything).Return(false, errors.New("redis down")).Once()
	assert.Equal(t, http.StatusNoContent, post())

	limiter.AssertExpectations(t)
}

func TestCORSMiddleware(t *testing.T) {
	router := gin.New()
	router.Use(CORSMiddleware([]string{"https://app.mechongo.test"}))
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	request := httptest.NewRequest(http.MethodOptions, "/", nil)
	request.Header.Set("Origin", "https://app.mechongo.test")
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusNoContent, recorder.Code)
	assert.Equal(t, "https://app.mechongo.test", recorder.Header().Get("Access-Control-Allow-Origin"))

	request = httptest.NewRequest(http.MethodGet, "/", nil)
	request.Header.Set("Origin", "https://evil.test")
	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, request)
	assert.Empty(t, recorder.Header().Get("Access-Control-Allow-Origin"))
}

func TestRecoveryMiddleware(t *testing.T) {
	router := gin.New()
	router.Use(RecoveryMiddleware(logger.NewNop()))
	router.GET("/", func(c *gin.Context) { panic("boom") })

	response := get(router, "/", "")
	assert.Equal(t, http.StatusInternalServerError, response.Code)
	assert.Contains(t, response.Body.String(), utils.CodeInternalError)
}
